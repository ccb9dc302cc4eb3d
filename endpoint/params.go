package endpoint

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Param is a single request parameter. Value is an opaque scalar.
type Param struct {
	Key   string
	Value any
}

// Params is an ordered parameter list; encoding preserves insertion order.
type Params []Param

// P builds Params from alternating key/value arguments.
// Panics on an odd argument count or a non-string key.
func P(kv ...any) Params {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("endpoint.P: odd number of arguments (%d)", len(kv)))
	}
	params := make(Params, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("endpoint.P: key at position %d is %T, not string", i, kv[i]))
		}
		params = append(params, Param{Key: key, Value: kv[i+1]})
	}
	return params
}

// FromValues converts url.Values to Params, keys sorted for a stable order.
func FromValues(values url.Values) Params {
	var params Params
	for _, key := range sortedKeys(values) {
		for _, v := range values[key] {
			params = append(params, Param{Key: key, Value: v})
		}
	}
	return params
}

// Add returns p with one more parameter appended.
func (p Params) Add(key string, value any) Params {
	return append(p, Param{Key: key, Value: value})
}

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	for _, param := range p {
		if param.Key == key {
			return true
		}
	}
	return false
}

// Encode renders "k1=v1&k2=v2" in insertion order, keys and values
// URL-encoded, without a leading "&". Empty Params encode to "".
func (p Params) Encode() string {
	var sb strings.Builder
	for i, param := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(param.Key))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(FormatValue(param.Value)))
	}
	return sb.String()
}

// FormatValue renders a scalar the way the eAPI expects it on the wire:
// true as 1, false and nil as the empty string, numbers in decimal.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(val)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
