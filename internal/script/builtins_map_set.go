package script

// OrderedMap backs both the Map and Set builtins: insertion-ordered
// key/value storage keyed by a stable string form of the script Value
// (matching the teacher-less, spec-only grounding for this builtin --
// spec.md §4.3 names Map/Set as required builtins with no teacher analogue
// to port, so the representation is original construction).
type OrderedMap struct {
	keys   []Value
	lookup map[string]int // mapKey(v) -> index into keys/vals
	vals   []Value
}

func newOrderedMap() *OrderedMap {
	return &OrderedMap{lookup: make(map[string]int)}
}

func mapKey(v Value) string {
	return TypeOf(v) + ":" + ToString(v)
}

func (m *OrderedMap) get(k Value) Value {
	if idx, ok := m.lookup[mapKey(k)]; ok {
		return m.vals[idx]
	}
	return Undefined{}
}

func (m *OrderedMap) has(k Value) bool {
	_, ok := m.lookup[mapKey(k)]
	return ok
}

func (m *OrderedMap) set(k, v Value) {
	mk := mapKey(k)
	if idx, ok := m.lookup[mk]; ok {
		m.vals[idx] = v
		return
	}
	m.lookup[mk] = len(m.keys)
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *OrderedMap) delete(k Value) bool {
	mk := mapKey(k)
	idx, ok := m.lookup[mk]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:idx], m.keys[idx+1:]...)
	m.vals = append(m.vals[:idx], m.vals[idx+1:]...)
	delete(m.lookup, mk)
	for i := idx; i < len(m.keys); i++ {
		m.lookup[mapKey(m.keys[i])] = i
	}
	return true
}

func newMapObject() *Object {
	o := NewObject()
	o.Class = "Map"
	o.Internal = newOrderedMap()
	return o
}

func newSetObject() *Object {
	o := NewObject()
	o.Class = "Set"
	o.Internal = newOrderedMap()
	return o
}

func installMapSetConstructors(it *Interp) {
	it.Global.Declare("Map", &Function{Name: "Map", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		m := newMapObject()
		if len(args) > 0 {
			for _, pair := range interp.iterate(args[0]) {
				if arr, ok := pair.(*Array); ok && len(arr.Elements) == 2 {
					m.Internal.(*OrderedMap).set(arr.Elements[0], arr.Elements[1])
				}
			}
		}
		return m, nil
	}}, "const")
	it.Global.Declare("Set", &Function{Name: "Set", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		s := newSetObject()
		if len(args) > 0 {
			for _, item := range interp.iterate(args[0]) {
				s.Internal.(*OrderedMap).set(item, item)
			}
		}
		return s, nil
	}}, "const")
}

// classMethodOrField resolves a Map/Set/Date/Promise method or computed
// field; ordinary object property lookup falls through when this returns
// false.
func classMethodOrField(it *Interp, o *Object, key string) (Value, bool) {
	switch o.Class {
	case "Map":
		return mapMethod(o, key)
	case "Set":
		return setMethod(o, key)
	case "Date":
		return dateMethod(o, key)
	case "Promise":
		return promiseMethod(it, o, key)
	case "FormData":
		return formDataMethod(o, key)
	default:
		return nil, false
	}
}

func native(fn func(it *Interp, this Value, args []Value) (Value, error)) *Function {
	return &Function{Native: fn}
}

func mapMethod(o *Object, key string) (Value, bool) {
	m := o.Internal.(*OrderedMap)
	switch key {
	case "size":
		return Number(len(m.keys)), true
	case "get":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return m.get(arg(args, 0)), nil
		}), true
	case "set":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			m.set(arg(args, 0), arg(args, 1))
			return o, nil
		}), true
	case "has":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(m.has(arg(args, 0))), nil
		}), true
	case "delete":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(m.delete(arg(args, 0))), nil
		}), true
	case "clear":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			*m = *newOrderedMap()
			return Undefined{}, nil
		}), true
	case "keys":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return &Array{Elements: append([]Value(nil), m.keys...)}, nil
		}), true
	case "values":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return &Array{Elements: append([]Value(nil), m.vals...)}, nil
		}), true
	case "entries":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			out := make([]Value, len(m.keys))
			for i := range m.keys {
				out[i] = &Array{Elements: []Value{m.keys[i], m.vals[i]}}
			}
			return &Array{Elements: out}, nil
		}), true
	case "forEach":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			if cb == nil {
				return Undefined{}, nil
			}
			for i := range m.keys {
				if _, err := it.CallFunction(cb, Undefined{}, []Value{m.vals[i], m.keys[i], o}); err != nil {
					return nil, err
				}
			}
			return Undefined{}, nil
		}), true
	}
	return nil, false
}

func setMethod(o *Object, key string) (Value, bool) {
	m := o.Internal.(*OrderedMap)
	switch key {
	case "size":
		return Number(len(m.keys)), true
	case "add":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			v := arg(args, 0)
			m.set(v, v)
			return o, nil
		}), true
	case "has":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(m.has(arg(args, 0))), nil
		}), true
	case "delete":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(m.delete(arg(args, 0))), nil
		}), true
	case "clear":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			*m = *newOrderedMap()
			return Undefined{}, nil
		}), true
	case "values", "keys":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return &Array{Elements: append([]Value(nil), m.keys...)}, nil
		}), true
	case "forEach":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			cb, _ := arg(args, 0).(*Function)
			if cb == nil {
				return Undefined{}, nil
			}
			for _, v := range m.keys {
				if _, err := it.CallFunction(cb, Undefined{}, []Value{v, v, o}); err != nil {
					return nil, err
				}
			}
			return Undefined{}, nil
		}), true
	}
	return nil, false
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined{}
}
