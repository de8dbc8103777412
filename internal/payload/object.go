// Package payload provides optional lookups over loosely structured JSON
// objects such as Adobe Commerce event payloads. Every accessor returns the
// zero value and false when the key is absent or holds an unexpected type, so
// callers can compose ordered fallback chains without deep-path probing.
package payload

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Object is a decoded JSON object.
type Object map[string]any

// UnmarshalJSON accepts any JSON value. Non-object values decode to a nil
// Object instead of failing the surrounding document.
func (o *Object) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = AsObject(raw)
	return nil
}

// AsObject converts a decoded JSON value to an Object when it is one.
func AsObject(v any) Object {
	switch value := v.(type) {
	case Object:
		return value
	case map[string]any:
		return Object(value)
	default:
		return nil
	}
}

// Empty reports whether the object is absent or has no keys.
func (o Object) Empty() bool {
	return len(o) == 0
}

// Object returns the nested object stored under key.
func (o Object) Object(key string) (Object, bool) {
	if o == nil {
		return nil, false
	}
	nested := AsObject(o[key])
	if nested == nil {
		return nil, false
	}
	return nested, true
}

// NonEmptyObject returns the nested object under key only when it has keys.
func (o Object) NonEmptyObject(key string) (Object, bool) {
	nested, ok := o.Object(key)
	if !ok || nested.Empty() {
		return nil, false
	}
	return nested, true
}

// Objects returns the object elements of the array stored under key. Elements
// that are not objects are kept as nil entries so positions are preserved.
func (o Object) Objects(key string) ([]Object, bool) {
	if o == nil {
		return nil, false
	}
	items, ok := o[key].([]any)
	if !ok {
		return nil, false
	}
	out := make([]Object, len(items))
	for i, item := range items {
		out[i] = AsObject(item)
	}
	return out, true
}

// String returns the scalar under key rendered as a string. Numbers are
// formatted without a trailing fraction when integral. Empty and whitespace
// only strings report false.
func (o Object) String(key string) (string, bool) {
	if o == nil {
		return "", false
	}
	var s string
	switch value := o[key].(type) {
	case string:
		s = value
	case float64:
		s = strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		s = value.String()
	case int:
		s = strconv.Itoa(value)
	case int64:
		s = strconv.FormatInt(value, 10)
	case bool:
		s = strconv.FormatBool(value)
	default:
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// FirstString returns the first non-empty string among keys, in order.
func (o Object) FirstString(keys ...string) (string, bool) {
	for _, key := range keys {
		if s, ok := o.String(key); ok {
			return s, true
		}
	}
	return "", false
}

// StringOr returns the string under key or def.
func (o Object) StringOr(key, def string) string {
	if s, ok := o.String(key); ok {
		return s
	}
	return def
}

// Lookup is one tier of a fallback chain.
type Lookup func() (Object, bool)

// FirstObject evaluates lookups in order and returns the first hit.
func FirstObject(lookups ...Lookup) (Object, bool) {
	for _, lookup := range lookups {
		if lookup == nil {
			continue
		}
		if obj, ok := lookup(); ok {
			return obj, true
		}
	}
	return nil, false
}

// StringLookup is one tier of a string fallback chain.
type StringLookup func() (string, bool)

// FirstOf evaluates string lookups in order and returns the first hit.
func FirstOf(lookups ...StringLookup) (string, bool) {
	for _, lookup := range lookups {
		if lookup == nil {
			continue
		}
		if s, ok := lookup(); ok {
			return s, true
		}
	}
	return "", false
}
