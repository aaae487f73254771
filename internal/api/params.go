package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Params holds validated parameters. Values are already converted to the Go
// type of their Type: int for numbers and entity IDs, string, bool,
// uuid.UUID, time.Time, []any for arrays and decoded JSON values. Nullable
// parameters that were not sent hold nil.
type Params map[string]any

// Value returns the raw converted value.
func (p Params) Value(name string) any {
	return p[name]
}

// IsNull reports whether name is absent or nil.
func (p Params) IsNull(name string) bool {
	v, ok := p[name]
	return !ok || v == nil
}

func (p Params) Int(name string) int {
	n, _ := p[name].(int)
	return n
}

// OptInt returns nil for null values.
func (p Params) OptInt(name string) *int {
	n, ok := p[name].(int)
	if !ok {
		return nil
	}
	return &n
}

func (p Params) String(name string) string {
	s, _ := p[name].(string)
	return s
}

// OptString returns nil for null values.
func (p Params) OptString(name string) *string {
	s, ok := p[name].(string)
	if !ok {
		return nil
	}
	return &s
}

func (p Params) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

func (p Params) UUID(name string) uuid.UUID {
	u, _ := p[name].(uuid.UUID)
	return u
}

func (p Params) Date(name string) time.Time {
	t, _ := p[name].(time.Time)
	return t
}

// Ints returns the integer items of an array parameter.
func (p Params) Ints(name string) []int {
	items, _ := p[name].([]any)
	out := make([]int, 0, len(items))
	for _, item := range items {
		if n, ok := item.(int); ok {
			out = append(out, n)
		}
	}
	return out
}

// Strings returns the string items of an array parameter.
func (p Params) Strings(name string) []string {
	items, _ := p[name].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// JSON re-encodes a json parameter for storage in a jsonb column.
// Null values encode as nil.
func (p Params) JSON(name string) (json.RawMessage, error) {
	v, ok := p[name]
	if !ok || v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
