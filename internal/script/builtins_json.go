package script

import (
	"encoding/json"
	"math/big"
)

// installJSONObject wires JSON.parse/JSON.stringify onto encoding/json --
// the teacher's own go.mod already depends on it for config/request bodies,
// so this is reuse rather than a new dependency (DESIGN.md notes the
// stdlib justification: there is no ecosystem JSON library in the example
// pack that beats encoding/json for this).
func installJSONObject(it *Interp) {
	j := NewObject()
	j.Set("stringify", native(func(it *Interp, this Value, args []Value) (Value, error) {
		v := arg(args, 0)
		indent := ""
		if len(args) > 2 {
			switch ind := args[2].(type) {
			case Number:
				for i := 0; i < int(ind); i++ {
					indent += " "
				}
			case String:
				indent = string(ind)
			}
		}
		native := toJSONNative(v)
		if native == nil {
			return Undefined{}, nil
		}
		var b []byte
		var err error
		if indent != "" {
			b, err = json.MarshalIndent(native, "", indent)
		} else {
			b, err = json.Marshal(native)
		}
		if err != nil {
			return nil, throwRuntimeErr("JSON.stringify failed: " + err.Error())
		}
		return String(b), nil
	}))
	j.Set("parse", native(func(it *Interp, this Value, args []Value) (Value, error) {
		src := ToString(arg(args, 0))
		var native any
		if err := json.Unmarshal([]byte(src), &native); err != nil {
			return nil, throwRuntimeErr("invalid JSON: " + err.Error())
		}
		return fromJSONNative(native), nil
	}))
	it.Global.Declare("JSON", j, "const")
}

// toJSONNative converts a script Value into a plain Go value encoding/json
// can marshal, mirroring JSON.stringify's coercion rules for the supported
// subset: functions and undefined are dropped (nil signals "omit").
func toJSONNative(v Value) any {
	switch t := v.(type) {
	case Undefined:
		return nil
	case *Function:
		return nil
	case Null:
		return nil
	case Number:
		return float64(t)
	case BigIntVal:
		f, _ := new(big.Float).SetInt(t.V).Float64()
		return f
	case String:
		return string(t)
	case Bool:
		return bool(t)
	case *Array:
		out := make([]any, len(t.Elements))
		for i, e := range t.Elements {
			n := toJSONNative(e)
			out[i] = n
		}
		return out
	case *Object:
		out := make(map[string]any, len(t.keys))
		for _, k := range t.Keys() {
			fv, _ := t.Get(k)
			if _, isFn := fv.(*Function); isFn {
				continue
			}
			if _, isUndef := fv.(Undefined); isUndef {
				continue
			}
			out[k] = toJSONNative(fv)
		}
		return out
	default:
		return nil
	}
}

func fromJSONNative(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null{}
	case float64:
		return Number(t)
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = fromJSONNative(e)
		}
		return &Array{Elements: out}
	case map[string]any:
		o := NewObject()
		for k, e := range t {
			o.Set(k, fromJSONNative(e))
		}
		return o
	default:
		return Null{}
	}
}
