package protocol

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

const maxSanitizeDepth = 32

// Sanitize reduces v to values every wire format can carry: nil, bool,
// int64, float64, string, []any and map[string]any. Slices, arrays and maps
// with string keys are converted element by element. Anything else, including
// structs, pointers, functions and non-finite floats, becomes nil.
func Sanitize(v any) any {
	return sanitize(v, 0)
}

func sanitize(v any, depth int) any {
	if depth > maxSanitizeDepth {
		return nil
	}
	switch x := v.(type) {
	case nil:
		return nil
	case bool, string, int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case float32:
		return sanitize(float64(x), depth)
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint:
		return sanitizeUint(uint64(x))
	case uint64:
		return sanitizeUint(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return sanitize(f, depth)
		}
		return nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = sanitize(e, depth+1)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = sanitize(e, depth+1)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if ks, ok := k.(string); ok {
				out[ks] = sanitize(e, depth+1)
			}
		}
		return out
	}
	return sanitizeReflect(reflect.ValueOf(v), depth)
}

func sanitizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return float64(u)
}

func sanitizeReflect(rv reflect.Value, depth int) any {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = sanitize(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = sanitize(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return sanitizeUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return sanitize(rv.Float(), depth)
	}
	return nil
}

// argInt extracts an integer argument. Whole floats are accepted since JSON
// producers do not distinguish them.
func argInt(v any) (int64, bool) {
	switch x := Sanitize(v).(type) {
	case int64:
		return x, true
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x), true
		}
	}
	return 0, false
}

func argString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// argText accepts strings and numbers; nil is the empty string.
func argText(v any) (string, bool) {
	switch x := Sanitize(v).(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	return "", false
}

func argMap(v any) (map[string]any, bool) {
	switch x := Sanitize(v).(type) {
	case nil:
		return nil, true
	case map[string]any:
		return x, true
	}
	return nil, false
}

func argList(v any) ([]any, bool) {
	switch x := Sanitize(v).(type) {
	case nil:
		return nil, true
	case []any:
		return x, true
	}
	return nil, false
}
