package script

import (
	"math"
	"sort"
	"strings"

	"github.com/domtestrun/domtest/internal/domerr"
	"golang.org/x/exp/slices"
)

// arrayGetProp resolves Array.prototype methods and the length property;
// grounded on spec.md §4.3's required Array builtin surface. Sort uses the
// standard library's sort.SliceStable; reverse uses
// golang.org/x/exp/slices (the teacher's own go.mod dependency, never
// exercised by the teacher itself since its Web API layer has no Array
// builtin of its own -- new wiring of an existing teacher dep).
func arrayGetProp(it *Interp, a *Array, key string) Value {
	switch key {
	case "length":
		return Number(len(a.Elements))
	case "push":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			a.Elements = append(a.Elements, args...)
			return Number(len(a.Elements)), nil
		})
	case "pop":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			if len(a.Elements) == 0 {
				return Undefined{}, nil
			}
			last := a.Elements[len(a.Elements)-1]
			a.Elements = a.Elements[:len(a.Elements)-1]
			return last, nil
		})
	case "shift":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			if len(a.Elements) == 0 {
				return Undefined{}, nil
			}
			first := a.Elements[0]
			a.Elements = a.Elements[1:]
			return first, nil
		})
	case "unshift":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			a.Elements = append(append([]Value(nil), args...), a.Elements...)
			return Number(len(a.Elements)), nil
		})
	case "slice":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			start, end := sliceBounds(args, len(a.Elements))
			return &Array{Elements: append([]Value(nil), a.Elements[start:end]...)}, nil
		})
	case "splice":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return arraySplice(a, args), nil
		})
	case "concat":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			out := append([]Value(nil), a.Elements...)
			for _, v := range args {
				if other, ok := v.(*Array); ok {
					out = append(out, other.Elements...)
				} else {
					out = append(out, v)
				}
			}
			return &Array{Elements: out}, nil
		})
	case "join":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			sep := ","
			if len(args) > 0 {
				sep = ToString(args[0])
			}
			parts := make([]string, len(a.Elements))
			for i, e := range a.Elements {
				if isNullish(e) {
					parts[i] = ""
				} else {
					parts[i] = ToString(e)
				}
			}
			return String(strings.Join(parts, sep)), nil
		})
	case "indexOf":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			target := arg(args, 0)
			for i, e := range a.Elements {
				if StrictEquals(e, target) {
					return Number(i), nil
				}
			}
			return Number(-1), nil
		})
	case "includes":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			target := arg(args, 0)
			for _, e := range a.Elements {
				if StrictEquals(e, target) {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		})
	case "find":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			for i, e := range a.Elements {
				ok, err := callPredicate(it, cb, e, i, a)
				if err != nil {
					return nil, err
				}
				if ok {
					return e, nil
				}
			}
			return Undefined{}, nil
		})
	case "findIndex":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			for i, e := range a.Elements {
				ok, err := callPredicate(it, cb, e, i, a)
				if err != nil {
					return nil, err
				}
				if ok {
					return Number(i), nil
				}
			}
			return Number(-1), nil
		})
	case "filter":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			var out []Value
			for i, e := range a.Elements {
				ok, err := callPredicate(it, cb, e, i, a)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, e)
				}
			}
			return &Array{Elements: out}, nil
		})
	case "map":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			out := make([]Value, len(a.Elements))
			for i, e := range a.Elements {
				v, err := it.CallFunction(cb, Undefined{}, []Value{e, Number(i), a})
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return &Array{Elements: out}, nil
		})
	case "forEach":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			for i, e := range a.Elements {
				if _, err := it.CallFunction(cb, Undefined{}, []Value{e, Number(i), a}); err != nil {
					return nil, err
				}
			}
			return Undefined{}, nil
		})
	case "some":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			for i, e := range a.Elements {
				ok, err := callPredicate(it, cb, e, i, a)
				if err != nil {
					return nil, err
				}
				if ok {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		})
	case "every":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			for i, e := range a.Elements {
				ok, err := callPredicate(it, cb, e, i, a)
				if err != nil {
					return nil, err
				}
				if !ok {
					return Bool(false), nil
				}
			}
			return Bool(true), nil
		})
	case "reduce":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			var acc Value
			start := 0
			if len(args) > 1 {
				acc = args[1]
			} else {
				if len(a.Elements) == 0 {
					return nil, throwRuntimeErr("Reduce of empty array with no initial value")
				}
				acc = a.Elements[0]
				start = 1
			}
			for i := start; i < len(a.Elements); i++ {
				v, err := it.CallFunction(cb, Undefined{}, []Value{acc, a.Elements[i], Number(i), a})
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		})
	case "reverse":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			slices.Reverse(a.Elements)
			return a, nil
		})
	case "sort":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			var sortErr error
			sort.SliceStable(a.Elements, func(i, j int) bool {
				if cb != nil {
					v, err := it.CallFunction(cb, Undefined{}, []Value{a.Elements[i], a.Elements[j]})
					if err != nil {
						sortErr = err
						return false
					}
					return ToNumber(v) < 0
				}
				return ToString(a.Elements[i]) < ToString(a.Elements[j])
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return a, nil
		})
	case "flat":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			depth := 1
			if len(args) > 0 {
				depth = int(ToNumber(args[0]))
			}
			return &Array{Elements: flattenArray(a.Elements, depth)}, nil
		})
	case "fill":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			v := arg(args, 0)
			for i := range a.Elements {
				a.Elements[i] = v
			}
			return a, nil
		})
	case "keys":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			out := make([]Value, len(a.Elements))
			for i := range a.Elements {
				out[i] = Number(i)
			}
			return &Array{Elements: out}, nil
		})
	case "toString":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(ToString(a)), nil
		})
	}
	return Undefined{}
}

func throwRuntimeErr(msg string) error {
	return &domerr.ScriptRuntime{Message: msg}
}

func isNullish(v Value) bool {
	if _, ok := v.(Null); ok {
		return true
	}
	if _, ok := v.(Undefined); ok {
		return true
	}
	return false
}

func callPredicate(it *Interp, cb *Function, e Value, i int, a *Array) (bool, error) {
	if cb == nil {
		return false, nil
	}
	v, err := it.CallFunction(cb, Undefined{}, []Value{e, Number(i), a})
	if err != nil {
		return false, err
	}
	return ToBool(v), nil
}

func sliceBounds(args []Value, length int) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		start = normalizeIndex(int(ToNumber(args[0])), length)
	}
	if len(args) > 1 {
		end = normalizeIndex(int(ToNumber(args[1])), length)
	}
	if end < start {
		end = start
	}
	return start, end
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

func arraySplice(a *Array, args []Value) Value {
	length := len(a.Elements)
	start := 0
	if len(args) > 0 {
		start = normalizeIndex(int(ToNumber(args[0])), length)
	}
	deleteCount := length - start
	if len(args) > 1 {
		deleteCount = int(math.Max(0, math.Min(ToNumber(args[1]), float64(length-start))))
	}
	removed := append([]Value(nil), a.Elements[start:start+deleteCount]...)
	var inserted []Value
	if len(args) > 2 {
		inserted = args[2:]
	}
	tail := append([]Value(nil), a.Elements[start+deleteCount:]...)
	a.Elements = append(append(a.Elements[:start], inserted...), tail...)
	return &Array{Elements: removed}
}

func flattenArray(elems []Value, depth int) []Value {
	var out []Value
	for _, e := range elems {
		if arr, ok := e.(*Array); ok && depth > 0 {
			out = append(out, flattenArray(arr.Elements, depth-1)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

func arraySetProp(a *Array, key string, v Value) {
	if key == "length" {
		n := int(ToNumber(v))
		if n < len(a.Elements) {
			a.Elements = a.Elements[:n]
		} else {
			for len(a.Elements) < n {
				a.Elements = append(a.Elements, Undefined{})
			}
		}
		return
	}
	idx, ok := parseArrayIndex(key)
	if !ok {
		return
	}
	for len(a.Elements) <= idx {
		a.Elements = append(a.Elements, Undefined{})
	}
	a.Elements[idx] = v
}

func parseArrayIndex(key string) (int, bool) {
	if key == "" {
		return 0, false
	}
	n := 0
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

func installArrayConstructor(it *Interp) {
	ctor := &Function{Name: "Array", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 1 {
			if n, ok := args[0].(Number); ok {
				return &Array{Elements: make([]Value, int(n))}, nil
			}
		}
		return &Array{Elements: append([]Value(nil), args...)}, nil
	}}
	ctor.Statics = map[string]Value{
		"isArray": native(func(it *Interp, this Value, args []Value) (Value, error) {
			_, ok := arg(args, 0).(*Array)
			return Bool(ok), nil
		}),
		"from": native(func(it *Interp, this Value, args []Value) (Value, error) {
			items := it.iterate(arg(args, 0))
			if cb, ok := arg(args, 1).(*Function); ok {
				out := make([]Value, len(items))
				for i, v := range items {
					r, err := it.CallFunction(cb, Undefined{}, []Value{v, Number(i)})
					if err != nil {
						return nil, err
					}
					out[i] = r
				}
				return &Array{Elements: out}, nil
			}
			return &Array{Elements: items}, nil
		}),
		"of": native(func(it *Interp, this Value, args []Value) (Value, error) {
			return &Array{Elements: append([]Value(nil), args...)}, nil
		}),
	}
	it.Global.Declare("Array", ctor, "const")
}
