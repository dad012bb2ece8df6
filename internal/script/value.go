package script

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/domtestrun/domtest/internal/dom"
)

// Value is the tagged-union type every evaluated expression produces
// (spec.md §4.3): Number, BigInt, String, Bool, Null, Undefined, DOMRef,
// Array, Object, Function, Promise. A Go interface with one concrete type
// per variant is the idiomatic representation -- type switches replace the
// explicit tag field a C union would need.
type Value interface {
	valueType() string
}

type Undefined struct{}

func (Undefined) valueType() string { return "undefined" }

type Null struct{}

func (Null) valueType() string { return "null" }

type Number float64

func (Number) valueType() string { return "number" }

type BigIntVal struct{ V *big.Int }

func (BigIntVal) valueType() string { return "bigint" }

type String string

func (String) valueType() string { return "string" }

type Bool bool

func (Bool) valueType() string { return "boolean" }

// DOMRef wraps a dom.Handle so script values can hold element/document
// references distinctly from numbers.
type DOMRef struct {
	Doc    *dom.Document
	Handle dom.Handle
}

func (DOMRef) valueType() string { return "domref" }

// Array is a dense, 0-indexed mutable list.
type Array struct {
	Elements []Value
}

func (*Array) valueType() string { return "object" }

// Object is an insertion-ordered property bag -- ordering matters for
// Object.keys/for...in, so a slice of keys rides alongside the map.
type Object struct {
	keys   []string
	values map[string]Value
	// Class names this object beyond a plain object literal: "Map", "Set",
	// "Date", "Promise", "RegExp", or "" for ordinary objects/arrays.
	Class string
	// Internal holds the class-specific payload (e.g. *OrderedMap for
	// "Map") that property access alone can't express.
	Internal any
}

func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

func (*Object) valueType() string { return "object" }

func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Set(key string, v Value) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

func (o *Object) Delete(key string) {
	if _, exists := o.values[key]; !exists {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Function is a callable value: either a script closure (Decl != nil) or a
// Go-native builtin (Native != nil).
type Function struct {
	Name    string
	Decl    *FunctionExpr
	Closure *Environment
	This    Value // bound receiver for methods, Undefined otherwise
	Native  func(interp *Interp, this Value, args []Value) (Value, error)
	// Statics holds constructor-level properties (Promise.resolve,
	// Object.keys, Array.isArray, ...): the supported subset's "static
	// method" surface, since Function itself has no property table.
	Statics map[string]Value
}

func (*Function) valueType() string { return "function" }

// Promise models the microtask-driven promise state machine spec.md §4.3
// requires: pending/fulfilled/rejected with reaction callbacks queued
// through the scheduler's microtask queue.
type Promise struct {
	State      string // "pending", "fulfilled", "rejected"
	Value      Value
	onFulfill  []func(Value)
	onReject   []func(Value)
}

func (*Promise) valueType() string { return "object" }

func NewPromise() *Promise { return &Promise{State: "pending"} }

// --- Conversions ---

func ToBool(v Value) bool {
	switch t := v.(type) {
	case Undefined, Null:
		return false
	case Bool:
		return bool(t)
	case Number:
		return float64(t) != 0 && !math.IsNaN(float64(t))
	case String:
		return string(t) != ""
	case BigIntVal:
		return t.V.Sign() != 0
	default:
		return true
	}
}

func ToNumber(v Value) float64 {
	switch t := v.(type) {
	case Number:
		return float64(t)
	case Bool:
		if t {
			return 1
		}
		return 0
	case Null:
		return 0
	case Undefined:
		return math.NaN()
	case String:
		s := strings.TrimSpace(string(t))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case BigIntVal:
		f, _ := new(big.Float).SetInt(t.V).Float64()
		return f
	default:
		return math.NaN()
	}
}

func ToString(v Value) string {
	switch t := v.(type) {
	case String:
		return string(t)
	case Number:
		return formatNumber(float64(t))
	case Bool:
		if t {
			return "true"
		}
		return "false"
	case Null:
		return "null"
	case Undefined:
		return "undefined"
	case BigIntVal:
		return t.V.String()
	case *Array:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			if e == nil {
				continue
			}
			if _, isUndef := e.(Undefined); isUndef {
				continue
			}
			parts[i] = ToString(e)
		}
		return strings.Join(parts, ",")
	case *Object:
		return "[object Object]"
	case *Function:
		return "function " + t.Name + "() { [native code] }"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TypeOf implements the typeof operator.
func TypeOf(v Value) string {
	switch v.(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case BigIntVal:
		return "bigint"
	case String:
		return "string"
	case *Function:
		return "function"
	default:
		return "object"
	}
}

// StrictEquals implements ===.
func StrictEquals(a, b Value) bool {
	if TypeOf(a) != TypeOf(b) {
		if _, okA := a.(Null); okA {
			if _, okB := b.(Null); okB {
				return true
			}
		}
		return false
	}
	switch av := a.(type) {
	case Undefined:
		return true
	case Null:
		return true
	case Number:
		bv := b.(Number)
		return float64(av) == float64(bv)
	case String:
		return av == b.(String)
	case Bool:
		return av == b.(Bool)
	case BigIntVal:
		return av.V.Cmp(b.(BigIntVal).V) == 0
	case DOMRef:
		bv, ok := b.(DOMRef)
		return ok && av.Handle == bv.Handle
	default:
		return a == b // reference identity for objects/arrays/functions
	}
}

// LooseEquals implements == with the coercion rules the supported subset
// needs: null/undefined are mutually loose-equal and equal nothing else;
// numeric string/bool coercion otherwise.
func LooseEquals(a, b Value) bool {
	_, aNull := a.(Null)
	_, aUndef := a.(Undefined)
	_, bNull := b.(Null)
	_, bUndef := b.(Undefined)
	if (aNull || aUndef) && (bNull || bUndef) {
		return true
	}
	if aNull || aUndef || bNull || bUndef {
		return false
	}
	if TypeOf(a) == TypeOf(b) {
		return StrictEquals(a, b)
	}
	return ToNumber(a) == ToNumber(b)
}

// sortStringsStable returns a sorted copy of keys. Nothing in the package
// calls it at present.
func sortStringsStable(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
