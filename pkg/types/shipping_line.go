package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ShippingLine freezes the selected shipping option on a cart or order.
type ShippingLine struct {
	OptionID    string `json:"option_id"`
	Name        string `json:"name"`
	AmountCents int    `json:"amount_cents"`
}

// Value serializes the shipping line to JSON.
func (s *ShippingLine) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the shipping line struct.
func (s *ShippingLine) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingLine{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("types: unsupported jsonb scan type %T", value)
	}
}
