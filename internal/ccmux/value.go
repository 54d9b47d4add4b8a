package ccmux

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the variant held by a Value.
type ValueKind byte

const (
	ValueNull ValueKind = iota
	ValueBool
	ValueInt
	ValueFloat
	ValueString
	ValueArray
	ValueObject
)

// Value is a closed discriminated union for the free-form JSON carried in
// AgentState.Extra. Detectors report model names, token counters, and similar
// metadata through it; rather than lean on map[string]interface{} directly on
// the wire (which the codec cannot encode deterministically), every value is
// tagged with one of the kinds above.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	f    float64
	s    string
	arr  []Value
	obj  map[string]Value
}

func (v Value) Kind() ValueKind { return v.kind }

func NullValue() Value            { return Value{kind: ValueNull} }
func BoolValue(b bool) Value      { return Value{kind: ValueBool, b: b} }
func IntValue(i int64) Value      { return Value{kind: ValueInt, i: i} }
func FloatValue(f float64) Value  { return Value{kind: ValueFloat, f: f} }
func StringValue(s string) Value  { return Value{kind: ValueString, s: s} }
func ArrayValue(a []Value) Value  { return Value{kind: ValueArray, arr: a} }
func ObjectValue(o map[string]Value) Value {
	return Value{kind: ValueObject, obj: o}
}

func (v Value) Bool() (bool, bool)            { return v.b, v.kind == ValueBool }
func (v Value) Int() (int64, bool)            { return v.i, v.kind == ValueInt }
func (v Value) Float() (float64, bool)        { return v.f, v.kind == ValueFloat }
func (v Value) String() (string, bool)        { return v.s, v.kind == ValueString }
func (v Value) Array() ([]Value, bool)        { return v.arr, v.kind == ValueArray }
func (v Value) Object() (map[string]Value, bool) { return v.obj, v.kind == ValueObject }

// Equal reports whether two values carry the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case ValueNull:
		return true
	case ValueBool:
		return v.b == o.b
	case ValueInt:
		return v.i == o.i
	case ValueFloat:
		return v.f == o.f
	case ValueString:
		return v.s == o.s
	case ValueArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	case ValueObject:
		if len(v.obj) != len(o.obj) {
			return false
		}
		for k, vv := range v.obj {
			ov, ok := o.obj[k]
			if !ok || !vv.Equal(ov) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON lets Value round-trip through the sideband parser's JSON
// payloads without the discriminated union leaking into the wire format.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ValueNull:
		return []byte("null"), nil
	case ValueBool:
		return json.Marshal(v.b)
	case ValueInt:
		return json.Marshal(v.i)
	case ValueFloat:
		return json.Marshal(v.f)
	case ValueString:
		return json.Marshal(v.s)
	case ValueArray:
		return json.Marshal(v.arr)
	case ValueObject:
		return json.Marshal(v.obj)
	default:
		return nil, fmt.Errorf("ccmux: unknown value kind %d", v.kind)
	}
}

// UnmarshalJSON classifies an arbitrary JSON value into the closed set of
// kinds above. Numbers whose value is a whole number that fits in an int64
// become ValueInt (so 2.0 and 1e3 do too); everything else numeric becomes
// ValueFloat.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = fromAny(raw)
	return nil
}

// ValueFromAny classifies a plain Go value (as produced by encoding/json or
// gopkg.in/yaml.v3 decoding into interface{}) into a Value. Exported for
// internal/store, which checkpoints AgentState.Extra through a plain
// map[string]interface{} since Value's unexported fields would otherwise
// round-trip as an empty struct under YAML encoding.
func ValueFromAny(raw interface{}) Value { return fromAny(raw) }

// ToAny returns v as a plain Go value suitable for a generic encoder (YAML,
// a template, a debug dump) that does not understand Value's own
// MarshalJSON. The inverse of ValueFromAny.
func (v Value) ToAny() interface{} {
	switch v.kind {
	case ValueNull:
		return nil
	case ValueBool:
		return v.b
	case ValueInt:
		return v.i
	case ValueFloat:
		return v.f
	case ValueString:
		return v.s
	case ValueArray:
		out := make([]interface{}, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToAny()
		}
		return out
	case ValueObject:
		out := make(map[string]interface{}, len(v.obj))
		for k, e := range v.obj {
			out[k] = e.ToAny()
		}
		return out
	default:
		return nil
	}
}

func fromAny(raw interface{}) Value {
	switch x := raw.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(x)
	case float64:
		if x == float64(int64(x)) {
			return IntValue(int64(x))
		}
		return FloatValue(x)
	case string:
		return StringValue(x)
	case []interface{}:
		arr := make([]Value, len(x))
		for i, e := range x {
			arr[i] = fromAny(e)
		}
		return ArrayValue(arr)
	case map[string]interface{}:
		obj := make(map[string]Value, len(x))
		for k, e := range x {
			obj[k] = fromAny(e)
		}
		return ObjectValue(obj)
	default:
		return NullValue()
	}
}
