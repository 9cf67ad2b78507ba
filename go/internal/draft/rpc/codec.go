package rpc

import (
	"encoding/json"
	"fmt"
)

// Codec carries plain Go structs as JSON. It replaces connect's default
// protojson codec, which only accepts generated messages.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return data, nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal %T: %w", v, err)
	}
	return nil
}
