package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Record is an entity DTO owned entirely by the backend. The console only reads fields
// through the accessors below; numbers are kept as json.Number.
type Record map[string]any

// ID returns the record identifier as a string, or "" when missing.
func (r Record) ID() string {
	return r.String("id")
}

// String returns a field formatted for display. Nested objects fall back to their "name".
func (r Record) String(key string) string {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		if name, ok := t["name"]; ok {
			return fmt.Sprint(name)
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Bool interprets the backend's mixed boolean encodings: true/false, 1/0, "1"/"0", "true".
func (r Record) Bool(key string) bool {
	v, ok := r.lookup(key)
	if !ok || v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		n, err := t.Int64()
		return err == nil && n != 0
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

// lookup resolves dotted keys such as "category.name".
func (r Record) lookup(key string) (any, bool) {
	if v, ok := r[key]; ok {
		return v, true
	}
	parts := strings.Split(key, ".")
	if len(parts) < 2 {
		return nil, false
	}
	var cur any = map[string]any(r)
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
