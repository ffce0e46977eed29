package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// IDList is a set of entity ids persisted as a JSON array in a text column.
type IDList []string

// Value implements driver.Valuer.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("marshal id list: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner.
func (l *IDList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported id list source %T", src)
	}
	if len(raw) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(raw, l)
}

// Contains reports whether id is part of the list.
func (l IDList) Contains(id string) bool {
	for _, candidate := range l {
		if candidate == id {
			return true
		}
	}
	return false
}
