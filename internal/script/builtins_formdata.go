package script

import "github.com/domtestrun/domtest/internal/dom"

// newFormDataObject snapshots form's successful controls into an
// insertion-ordered entry list, mirroring dom.Document.CollectFormData
// (which already implements the submittable-control rules) behind the
// same get/getAll/has/append/set/delete/entries/keys/values/forEach
// surface the Map/Set builtins expose via *OrderedMap.
func newFormDataObject(it *Interp, form dom.Handle) *Object {
	o := NewObject()
	o.Class = "FormData"
	m := newOrderedMap()
	for _, e := range it.Doc.CollectFormData(form) {
		appendFormEntry(m, e.Name, String(e.Value))
	}
	o.Internal = m
	return o
}

// appendFormEntry adds one more value under name, preserving repeats --
// FormData.entries() yields one pair per value, unlike Map's single-value
// semantics, so entries are keyed by a synthetic "name#n" so a second
// append under the same name doesn't clobber the first.
func appendFormEntry(m *OrderedMap, name string, v Value) {
	n := 0
	for m.has(String(formEntryKey(name, n))) {
		n++
	}
	m.set(String(formEntryKey(name, n)), &Array{Elements: []Value{String(name), v}})
}

func formEntryKey(name string, n int) string {
	if n == 0 {
		return "\x00fd:" + name
	}
	return "\x00fd:" + name + "#" + ToString(Number(n))
}

func installFormDataConstructor(it *Interp) {
	it.Global.Declare("FormData", &Function{Name: "FormData", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		ref, ok := arg(args, 0).(DOMRef)
		if !ok {
			return newFormDataObject(interp, dom.NoHandle), nil
		}
		return newFormDataObject(interp, ref.Handle), nil
	}}, "const")
}

// formDataMethod resolves FormData's method surface. Called from
// classMethodOrField alongside Map/Set/Date/Promise.
func formDataMethod(o *Object, key string) (Value, bool) {
	m := o.Internal.(*OrderedMap)
	pairs := func() [][2]Value {
		out := make([][2]Value, 0, len(m.keys))
		for _, v := range m.vals {
			arr := v.(*Array)
			out = append(out, [2]Value{arr.Elements[0], arr.Elements[1]})
		}
		return out
	}
	switch key {
	case "get":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			name := ToString(arg(args, 0))
			for _, p := range pairs() {
				if ToString(p[0]) == name {
					return p[1], nil
				}
			}
			return Null{}, nil
		}), true
	case "getAll":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			name := ToString(arg(args, 0))
			var out []Value
			for _, p := range pairs() {
				if ToString(p[0]) == name {
					out = append(out, p[1])
				}
			}
			return &Array{Elements: out}, nil
		}), true
	case "has":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			name := ToString(arg(args, 0))
			for _, p := range pairs() {
				if ToString(p[0]) == name {
					return Bool(true), nil
				}
			}
			return Bool(false), nil
		}), true
	case "append":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			appendFormEntry(m, ToString(arg(args, 0)), arg(args, 1))
			return Undefined{}, nil
		}), true
	case "set":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			name := ToString(arg(args, 0))
			for _, k := range append([]Value(nil), m.keys...) {
				if arr, ok := m.get(k).(*Array); ok && ToString(arr.Elements[0]) == name {
					m.delete(k)
				}
			}
			appendFormEntry(m, name, arg(args, 1))
			return Undefined{}, nil
		}), true
	case "delete":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			name := ToString(arg(args, 0))
			for _, k := range append([]Value(nil), m.keys...) {
				if arr, ok := m.get(k).(*Array); ok && ToString(arr.Elements[0]) == name {
					m.delete(k)
				}
			}
			return Undefined{}, nil
		}), true
	case "entries":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			var out []Value
			for _, p := range pairs() {
				out = append(out, &Array{Elements: []Value{p[0], p[1]}})
			}
			return &Array{Elements: out}, nil
		}), true
	case "keys":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			var out []Value
			for _, p := range pairs() {
				out = append(out, p[0])
			}
			return &Array{Elements: out}, nil
		}), true
	case "values":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			var out []Value
			for _, p := range pairs() {
				out = append(out, p[1])
			}
			return &Array{Elements: out}, nil
		}), true
	case "forEach":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			fn, ok := arg(args, 0).(*Function)
			if !ok {
				return Undefined{}, nil
			}
			for _, p := range pairs() {
				if _, err := it.CallFunction(fn, Undefined{}, []Value{p[1], p[0]}); err != nil {
					return nil, err
				}
			}
			return Undefined{}, nil
		}), true
	}
	return nil, false
}
