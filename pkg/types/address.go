package types

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
)

// Address is the snapshot shape stored on carts and orders. The customer's
// address book rows live in models.Address; this copy is frozen at the moment
// it is attached.
type Address struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Company     *string `json:"company,omitempty"`
	Address1    string  `json:"address_1"`
	Address2    *string `json:"address_2,omitempty"`
	City        string  `json:"city"`
	Province    *string `json:"province,omitempty"`
	PostalCode  string  `json:"postal_code"`
	CountryCode string  `json:"country_code"`
	Phone       string  `json:"phone"`
}

// Value serializes the address snapshot to JSON.
func (a *Address) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Scan decodes JSONB into the address snapshot.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, a)
}

// RequiredFields lists the snapshot fields checkout insists on, in display order.
var RequiredFields = []string{"first_name", "last_name", "address_1", "city", "country_code", "postal_code", "phone"}

// MissingFields returns the required fields that are empty, using the
// human-readable form ("first name", not "first_name").
func (a Address) MissingFields() []string {
	values := map[string]string{
		"first_name":   a.FirstName,
		"last_name":    a.LastName,
		"address_1":    a.Address1,
		"city":         a.City,
		"country_code": a.CountryCode,
		"postal_code":  a.PostalCode,
		"phone":        a.Phone,
	}
	var missing []string
	for _, field := range RequiredFields {
		if strings.TrimSpace(values[field]) == "" {
			missing = append(missing, strings.ReplaceAll(field, "_", " "))
		}
	}
	return missing
}
