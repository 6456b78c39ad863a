package cache

import (
	"strconv"
	"strings"
)

// formatNumber renders a folded numeric value back to its display string,
// used by the vm_cast_string synthetic op when a BROADCAST input's source
// reporter evaluated to a number rather than a string.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// canonicalizeShadow applies the numeric canonicalization rule for folded
// shadow values: if the string parses as a number after trimming, store it
// as a number; otherwise store the raw string. A shadow value that is
// already a non-string (e.g. a synthesized {id,name} bundle) passes through
// unchanged.
func canonicalizeShadow(raw any) any {
	s, ok := raw.(string)
	if !ok {
		return raw
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return raw
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return raw
	}
	return f
}
