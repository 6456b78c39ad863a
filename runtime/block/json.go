package block

import "encoding/json"

// wireBlock is the JSON-on-the-wire shape of an authored Block:
// {id, opcode, fields, inputs, mutation?, next?, branches?}.
type wireBlock struct {
	ID       string                 `json:"id"`
	Opcode   string                 `json:"opcode"`
	Fields   map[string]wireField   `json:"fields,omitempty"`
	Inputs   map[string]wireInput   `json:"inputs,omitempty"`
	Mutation map[string]string      `json:"mutation,omitempty"`
	Next     string                 `json:"next,omitempty"`
	Branches [2]string              `json:"branches,omitempty"`
}

type wireField struct {
	Value string `json:"value"`
	ID    string `json:"id,omitempty"`
}

type wireInput struct {
	Block  string `json:"block,omitempty"`
	Shadow bool   `json:"shadow,omitempty"`
}

// wireBundle is a whole script bundle: blocks plus procedure metadata.
type wireBundle struct {
	Blocks     []wireBlock              `json:"blocks"`
	Procedures map[string]wireProcedure `json:"procedures,omitempty"`
	ForceNoGlow bool                    `json:"forceNoGlow,omitempty"`
}

type wireProcedure struct {
	Definition string   `json:"definition"`
	Names      []string `json:"names"`
	IDs        []string `json:"ids"`
	Defaults   []string `json:"defaults"`
}

// LoadJSON parses a script bundle and returns a populated MapContainer.
func LoadJSON(data []byte) (*MapContainer, error) {
	var bundle wireBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, err
	}

	c := NewMapContainer()
	c.SetForceNoGlow(bundle.ForceNoGlow)

	for _, wb := range bundle.Blocks {
		b := &Block{
			ID:       wb.ID,
			Opcode:   wb.Opcode,
			Fields:   make(map[string]FieldSlot, len(wb.Fields)),
			Inputs:   make(map[string]InputSlot, len(wb.Inputs)),
			Mutation: wb.Mutation,
			Next:     wb.Next,
			Branches: wb.Branches,
		}
		for name, f := range wb.Fields {
			b.Fields[name] = FieldSlot{Value: f.Value, ID: f.ID}
		}
		for name, in := range wb.Inputs {
			b.Inputs[name] = InputSlot{Block: in.Block, Shadow: in.Shadow}
		}
		c.Put(b)
	}

	for proccode, p := range bundle.Procedures {
		c.DefineProcedure(proccode, p.Definition, ProcedureInfo{
			Names:    p.Names,
			IDs:      p.IDs,
			Defaults: p.Defaults,
		})
	}

	return c, nil
}

// DumpJSON serializes a MapContainer's blocks back to the wire format, e.g.
// to round-trip notation-authored scripts for inspection.
func DumpJSON(c *MapContainer) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	bundle := wireBundle{ForceNoGlow: c.noGlow}
	for _, b := range c.blocks {
		wb := wireBlock{
			ID:       b.ID,
			Opcode:   b.Opcode,
			Mutation: b.Mutation,
			Next:     b.Next,
			Branches: b.Branches,
		}
		if len(b.Fields) > 0 {
			wb.Fields = make(map[string]wireField, len(b.Fields))
			for name, f := range b.Fields {
				wb.Fields[name] = wireField{Value: f.Value, ID: f.ID}
			}
		}
		if len(b.Inputs) > 0 {
			wb.Inputs = make(map[string]wireInput, len(b.Inputs))
			for name, in := range b.Inputs {
				wb.Inputs[name] = wireInput{Block: in.Block, Shadow: in.Shadow}
			}
		}
		bundle.Blocks = append(bundle.Blocks, wb)
	}
	return json.MarshalIndent(bundle, "", "  ")
}
