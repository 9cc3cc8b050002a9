package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Slice-valued fields are stored as JSON text in relational databases so that
// a cart or order stays a single row, like the document it is in Mongo.

type StringList []string

func (l StringList) Value() (driver.Value, error) { return marshalColumn(l) }

func (l *StringList) Scan(src interface{}) error { return unmarshalColumn(src, l) }

type PortionList []Portion

func (l PortionList) Value() (driver.Value, error) { return marshalColumn(l) }

func (l *PortionList) Scan(src interface{}) error { return unmarshalColumn(src, l) }

type CartLines []CartLine

func (l CartLines) Value() (driver.Value, error) { return marshalColumn(l) }

func (l *CartLines) Scan(src interface{}) error { return unmarshalColumn(src, l) }

func marshalColumn[T any](items []T) (driver.Value, error) {
	if items == nil {
		return "[]", nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalColumn(src interface{}, dest interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}
