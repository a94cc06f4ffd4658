package linq

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"time"
)

// Query holds the query parameters of a request. Values may be scalars
// (strings, booleans, numbers, time.Time, fmt.Stringer), pointers to scalars,
// or slices of scalars. Nil values and nil pointers are left out entirely;
// slices become one key=value pair per element, in order.
type Query map[string]any

// Set stores a value and returns the query for chaining.
func (q Query) Set(key string, value any) Query {
	q[key] = value
	return q
}

// encode renders the query in application/x-www-form-urlencoded form.
// Keys are sorted, so the output is deterministic.
func (q Query) encode() string {
	if len(q) == 0 {
		return ""
	}

	values := url.Values{}
	for key, raw := range q {
		if isNil(raw) {
			continue
		}
		v := reflect.Indirect(reflect.ValueOf(raw))
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < v.Len(); i++ {
				item := v.Index(i).Interface()
				if isNil(item) {
					continue
				}
				values.Add(key, formatScalar(item))
			}
			continue
		}
		values.Set(key, formatScalar(v.Interface()))
	}
	return values.Encode()
}

// formatScalar renders a path or query value as a string.
func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return formatScalar(rv.Elem().Interface())
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	}
	return fmt.Sprint(v)
}

// isNil reports whether v is nil or a typed nil pointer, map, slice or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
