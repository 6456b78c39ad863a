// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command blockvmctl is the execution core's CLI: it loads a block-script
// notation file, then either runs it to idle or prints its flattened
// CachedOp disassembly, via urfave/cli subcommands (run/disassemble).
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/probechain/blockvm/config"
	"github.com/probechain/blockvm/internal/blocklog"
	"github.com/probechain/blockvm/runtime/engine"
	"github.com/probechain/blockvm/runtime/notation"
	"github.com/probechain/blockvm/runtime/registry"
)

const version = "0.1.0"

func main() {
	app := &cli.App{
		Name:    "blockvmctl",
		Usage:   "run and inspect block-script programs",
		Version: version,
		Commands: []*cli.Command{
			runCommand(),
			disassembleCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "run a notation script to idle",
		ArgsUsage: "<script.notation> <startBlockID>",
		Flags: []*cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a TOML config file"},
			&cli.IntFlag{Name: "max-ticks", Value: 10000, Usage: "give up after this many ticks"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("usage: blockvmctl run <script.notation> <startBlockID>")
			}
			src, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return err
			}
			container, err := notation.Parse(string(src))
			if err != nil {
				return err
			}
			cfg := config.Default()
			if p := c.String("config"); p != "" {
				cfg, err = config.Load(p)
				if err != nil {
					return err
				}
			}
			reg := registry.New()
			log := blocklog.New(os.Stderr, true)
			e := engine.New(container, reg, cfg, nil, log)
			e.StartScript(c.Args().Get(1), nil, container)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return e.RunUntilIdle(ctx, c.Int("max-ticks"))
		},
	}
}

func disassembleCommand() *cli.Command {
	return &cli.Command{
		Name:      "disassemble",
		Usage:     "print the flattened CachedOp sequence for a script",
		ArgsUsage: "<script.notation> <startBlockID>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 2 {
				return fmt.Errorf("usage: blockvmctl disassemble <script.notation> <startBlockID>")
			}
			src, err := os.ReadFile(c.Args().Get(0))
			if err != nil {
				return err
			}
			container, err := notation.Parse(string(src))
			if err != nil {
				return err
			}
			reg := registry.New()
			cfg := config.Default()
			e := engine.New(container, reg, cfg, nil, blocklog.Default())
			entry := e.Cache.Get(c.Args().Get(1))
			for i, op := range entry.AllOps {
				fmt.Printf("%4d  %-24s parent=%s.%s defined=%v\n", i, op.Opcode, shortID(op.ID), op.ParentKey, op.Defined)
			}
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
