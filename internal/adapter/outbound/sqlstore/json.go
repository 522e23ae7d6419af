package sqlstore

import (
	"encoding/json"
	"fmt"
)

// decodeJSONInto unmarshals raw (empty treated as "no value") into dst.
func decodeJSONInto(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("sqlstore: decode json: %w", err)
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	if v == nil {
		return "{}", nil
	}
	out, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("sqlstore: encode json: %w", err)
	}
	return string(out), nil
}
