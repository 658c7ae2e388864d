package common

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record is a schema-agnostic document: one source or destination entity
type Record map[string]interface{}

// ShallowCopy returns a new record with the same top-level values
func (r Record) ShallowCopy() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get resolves a dot-path segment by segment. Missing segments and
// non-object intermediates yield (nil, false).
func (r Record) Get(path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(r)
	for _, seg := range strings.Split(path, ".") {
		obj, ok := asObject(current)
		if !ok {
			return nil, false
		}
		current, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Set writes value at a dot-path, creating intermediate objects as needed.
// A non-object intermediate is replaced by a new object.
func (r Record) Set(path string, value interface{}) {
	segs := strings.Split(path, ".")
	obj := map[string]interface{}(r)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asObject(obj[seg])
		if !ok {
			next = make(map[string]interface{})
			obj[seg] = next
		}
		obj = next
	}
	obj[segs[len(segs)-1]] = value
}

// OriginalID returns the source identity of a record: id, then handle, then
// an already written metadata.original_id.
func (r Record) OriginalID() string {
	for _, key := range []string{"id", "handle"} {
		if v, ok := r[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	if v, ok := r.Get("metadata.original_id"); ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func asObject(v interface{}) (map[string]interface{}, bool) {
	switch o := v.(type) {
	case map[string]interface{}:
		return o, true
	case Record:
		return o, true
	default:
		return nil, false
	}
}

// AsObject exposes the object conversion used by Get and Set
func AsObject(v interface{}) (map[string]interface{}, bool) {
	return asObject(v)
}

// AsList converts the list shapes produced by JSON, YAML and code into []interface{}
func AsList(v interface{}) ([]interface{}, bool) {
	switch l := v.(type) {
	case []interface{}:
		return l, true
	case []map[string]interface{}:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []Record:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	case []string:
		out := make([]interface{}, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// ToFloat parses numbers and numeric strings
func ToFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// IsEmpty reports nil, empty strings and whitespace-only strings
func IsEmpty(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}
