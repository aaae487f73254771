package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/doumori-team/animalcrossingcommunity-public-sub007/pkg/db"
)

// validate converts raw input into Params according to schema. Keys not in
// the schema are dropped.
func (d *Dispatcher) validate(ctx context.Context, schema Schema, raw map[string]any) (Params, error) {
	out := make(Params, len(schema))
	for _, name := range schema.names() {
		p := schema[name]

		v := lookup(raw, name)
		if !present(v) {
			switch {
			case p.Default != nil:
				v = p.Default
			case p.Nullable:
				out[name] = nil
				continue
			case p.Type == Boolean:
				out[name] = false
				continue
			case p.Required:
				return nil, ParamError(CodeBadFormat, name)
			default:
				out[name] = p.Type.zero()
				continue
			}
		}

		val, err := d.convert(ctx, name, p, v)
		if err != nil {
			return nil, err
		}
		out[name] = val
	}
	return out, nil
}

func (d *Dispatcher) convert(ctx context.Context, name string, p Param, v any) (any, error) {
	if p.Type != Array {
		return d.scalar(ctx, name, p, unwrap(v))
	}

	items, ok := toSlice(v)
	if !ok {
		return nil, ParamError(CodeBadFormat, name)
	}
	if p.Length > 0 && len(items) > p.Length || len(items) < p.Min {
		return nil, ParamError(CodeBadFormat, name)
	}

	itemType := p.Items
	if itemType == "" {
		itemType = String
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		if !present(item) {
			return nil, ParamError(CodeBadFormat, name)
		}
		val, err := d.scalar(ctx, name, Param{Type: itemType}, item)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	return out, nil
}

func (d *Dispatcher) scalar(ctx context.Context, name string, p Param, v any) (any, error) {
	bad := ParamError(CodeBadFormat, name)

	switch p.Type {
	case String:
		s, ok := toString(v)
		if !ok {
			return nil, bad
		}
		s = strings.TrimSpace(s)
		n := utf8.RuneCountInString(s)
		if p.Length > 0 && n > p.Length || n < p.Min {
			return nil, bad
		}
		if len(p.Options) > 0 && !slices.Contains(p.Options, s) {
			return nil, bad
		}
		return s, nil

	case Number:
		n, ok := toInt(v)
		if !ok {
			return nil, bad
		}
		if p.Min != 0 && n < p.Min || p.Max != 0 && n > p.Max {
			return nil, bad
		}
		return n, nil

	case Boolean:
		b, ok := toBool(v)
		if !ok {
			return nil, bad
		}
		return b, nil

	case UUID:
		s, ok := v.(string)
		if !ok {
			return nil, bad
		}
		u, err := uuid.Parse(strings.TrimSpace(s))
		if err != nil {
			return nil, bad
		}
		return u, nil

	case Date:
		s, ok := v.(string)
		if !ok {
			return nil, bad
		}
		t, err := time.Parse(DateLayout, strings.TrimSpace(s))
		if err != nil {
			return nil, bad
		}
		return t, nil

	case JSON:
		return toJSON(v, bad)
	}

	e, ok := p.Type.entity()
	if !ok {
		return nil, fmt.Errorf("api: unknown type %q for %s", p.Type, name)
	}
	n, ok := toInt(v)
	if !ok {
		return nil, bad
	}
	if n < 1 {
		return nil, ParamError(e.code, name)
	}
	found, err := d.exists(ctx, e, n)
	if err != nil {
		return nil, fmt.Errorf("api: check %s %d: %w", e.table, n, err)
	}
	if !found {
		return nil, ParamError(e.code, name)
	}
	return n, nil
}

func (d *Dispatcher) exists(ctx context.Context, e entity, id int) (bool, error) {
	// e.table comes from the fixed entities map, never from input.
	return db.Exists(ctx, d.db, "SELECT 1 FROM "+e.table+" WHERE id = $1", id)
}

// lookup finds name, also accepting the "name[]" spelling used by forms.
func lookup(raw map[string]any, name string) any {
	if v, ok := raw[name]; ok {
		return v
	}
	return raw[name+"[]"]
}

// present reports whether v counts as sent. nil, blank strings and empty
// form value lists are treated as missing.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []string:
		return len(t) > 1 || len(t) == 1 && strings.TrimSpace(t[0]) != ""
	default:
		return true
	}
}

// unwrap takes the first of repeated form values for scalar parameters.
func unwrap(v any) any {
	if vs, ok := v.([]string); ok && len(vs) > 0 {
		return vs[0]
	}
	return v
}

func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]any, len(t))
		for i, n := range t {
			out[i] = n
		}
		return out, true
	case map[string]any:
		return nil, false
	default:
		return []any{v}, true
	}
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// maxExactFloat is the largest integer float64 represents exactly.
const maxExactFloat = 1 << 53

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return floatToInt(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.Trunc(f) != f || math.Abs(f) > maxExactFloat {
		return 0, false
	}
	return int(f), true
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "on", "1":
			return true, true
		case "false", "off", "0":
			return false, true
		}
		return false, false
	default:
		n, ok := toInt(v)
		if !ok || n != 0 && n != 1 {
			return false, false
		}
		return n == 1, true
	}
}

func toJSON(v any, bad error) (any, error) {
	var data []byte
	switch t := v.(type) {
	case string:
		data = []byte(t)
	case json.RawMessage:
		data = t
	default:
		return v, nil
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, bad
	}
	return out, nil
}
