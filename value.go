// FILE: lixenwraith/layered/value.go
package layered

import (
	"fmt"
	"reflect"
)

// Kind tags the payload type of a Value.
type Kind uint8

const (
	// KindAny disables the type check on lookups; it is never the kind of a
	// stored value.
	KindAny Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindBytes
	KindStringArray
	KindIntArray
	KindFloatArray
	KindBoolArray
	KindBytesArray
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindStringArray:
		return "[]string"
	case KindIntArray:
		return "[]int"
	case KindFloatArray:
		return "[]float"
	case KindBoolArray:
		return "[]bool"
	case KindBytesArray:
		return "[]bytes"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Value is an immutable tagged union over configuration scalars and
// homogeneous arrays of them, plus a secret flag. The flag participates
// in equality and controls redaction when the value is rendered.
type Value struct {
	kind    Kind
	payload any
	secret  bool
}

func StringValue(v string) Value { return Value{kind: KindString, payload: v} }
func IntValue(v int64) Value     { return Value{kind: KindInt, payload: v} }
func FloatValue(v float64) Value { return Value{kind: KindFloat, payload: v} }
func BoolValue(v bool) Value     { return Value{kind: KindBool, payload: v} }
func BytesValue(v []byte) Value  { return Value{kind: KindBytes, payload: append([]byte(nil), v...)} }
func StringArrayValue(v []string) Value {
	return Value{kind: KindStringArray, payload: append([]string(nil), v...)}
}
func IntArrayValue(v []int64) Value {
	return Value{kind: KindIntArray, payload: append([]int64(nil), v...)}
}
func FloatArrayValue(v []float64) Value {
	return Value{kind: KindFloatArray, payload: append([]float64(nil), v...)}
}
func BoolArrayValue(v []bool) Value {
	return Value{kind: KindBoolArray, payload: append([]bool(nil), v...)}
}
func BytesArrayValue(v [][]byte) Value {
	c := make([][]byte, len(v))
	for i, b := range v {
		c[i] = append([]byte(nil), b...)
	}
	return Value{kind: KindBytesArray, payload: c}
}

// Kind returns the payload tag of the value.
func (v Value) Kind() Kind { return v.kind }

// Secret reports whether the value carries the secret flag.
func (v Value) Secret() bool { return v.secret }

// AsSecret returns a copy of the value with the secret flag set.
func (v Value) AsSecret() Value {
	v.secret = true
	return v
}

// Any returns the underlying payload. Slice payloads are copied so the
// caller cannot mutate the stored value.
func (v Value) Any() any {
	switch p := v.payload.(type) {
	case []byte:
		return append([]byte(nil), p...)
	case []string:
		return append([]string(nil), p...)
	case []int64:
		return append([]int64(nil), p...)
	case []float64:
		return append([]float64(nil), p...)
	case []bool:
		return append([]bool(nil), p...)
	case [][]byte:
		c := make([][]byte, len(p))
		for i, b := range p {
			c[i] = append([]byte(nil), b...)
		}
		return c
	default:
		return p
	}
}

// Equal reports structural equality: kind, payload, and secret flag.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.secret != other.secret {
		return false
	}
	return reflect.DeepEqual(v.payload, other.payload)
}

// String renders the payload for diagnostics. Secret values render as a
// fixed placeholder so they never leak into logs or error messages.
func (v Value) String() string {
	if v.secret {
		return "<redacted>"
	}
	return fmt.Sprintf("%v", v.payload)
}
