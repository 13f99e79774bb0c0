package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/pql2/internal/ir"
)

// marshalFields converts a field list to canonical JSON TEXT for storage.
// A nil list is stored as [].
func marshalFields(fields []string) (string, error) {
	if fields == nil {
		fields = []string{}
	}
	data, err := ir.MarshalCanonical(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields parses a stored field list. Empty lists read back as nil.
func unmarshalFields(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return nil, nil
	}
	var fields []string
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}
