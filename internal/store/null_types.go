package store

import (
	"database/sql"
	"encoding/json"
)

// NullInt16 is a wrapper around sql.NullInt16 that marshals to plain JSON
// null instead of the {Int16, Valid} pair. Used for the optional 1-5
// sub-ratings on a review.
type NullInt16 struct {
	Value int16 `json:"value"`
	Valid bool  `json:"valid"`
}

// MarshalJSON implements the json.Marshaler interface
func (ni NullInt16) MarshalJSON() ([]byte, error) {
	if !ni.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ni.Value)
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (ni *NullInt16) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		ni.Valid = false
		ni.Value = 0
		return nil
	}
	ni.Valid = true
	return json.Unmarshal(data, &ni.Value)
}

// Scan implements sql.Scanner so the type can be read straight from a row.
func (ni *NullInt16) Scan(src any) error {
	var n sql.NullInt16
	if err := n.Scan(src); err != nil {
		return err
	}
	ni.Value = n.Int16
	ni.Valid = n.Valid
	return nil
}

// NullInt16 converts to the database/sql representation for query args.
func (ni NullInt16) NullInt16() sql.NullInt16 {
	return sql.NullInt16{Int16: ni.Value, Valid: ni.Valid}
}

// NewNullInt16 builds an optional rating from a payload pointer.
func NewNullInt16(v *int16) NullInt16 {
	if v == nil {
		return NullInt16{}
	}
	return NullInt16{Value: *v, Valid: true}
}
