package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap persists an open-schema JSON document. Step notes and image
// analysis payloads ride through it untouched; the engine never inspects the
// keys.
type JSONMap map[string]any

// Value serializes the map to JSON for storage.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan decodes a JSON column back into the map.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

func asJSON(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("jsonmap: unsupported scan type %T", value)
	}
}
