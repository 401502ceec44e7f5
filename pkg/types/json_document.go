package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONDocument is an opaque JSON value persisted in a jsonb (or sqlite text)
// column. It round-trips the bytes it was given.
type JSONDocument json.RawMessage

// EmptyObject is the "{}" document used for fresh layouts.
var EmptyObject = JSONDocument("{}")

// Value stores the document as text so both Postgres and sqlite accept it.
func (d JSONDocument) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	if !json.Valid(d) {
		return nil, fmt.Errorf("json document: invalid json")
	}
	return string(d), nil
}

// Scan accepts text or bytes from the driver.
func (d *JSONDocument) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	*d = append((*d)[:0], raw...)
	return nil
}

func (d JSONDocument) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JSONDocument) UnmarshalJSON(data []byte) error {
	if d == nil {
		return fmt.Errorf("json document: UnmarshalJSON on nil pointer")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	*d = append((*d)[:0], trimmed...)
	return nil
}

// IsEmpty reports whether the document is absent or JSON null.
func (d JSONDocument) IsEmpty() bool {
	trimmed := bytes.TrimSpace(d)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
