package script

// installObjectConstructor wires the Object global and its static helpers
// (keys/values/entries/assign/freeze/fromEntries); spec.md §4.3 names these
// as required even though the evaluator has no enforced property
// descriptors, so freeze returns its argument unchanged without marking it
// in any way, and isFrozen always reports false.
func installObjectConstructor(it *Interp) {
	ctor := &Function{Name: "Object", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		if len(args) > 0 {
			if o, ok := args[0].(*Object); ok {
				return o, nil
			}
		}
		return NewObject(), nil
	}}
	ctor.Statics = map[string]Value{
		"keys": native(func(it *Interp, this Value, args []Value) (Value, error) {
			o, ok := arg(args, 0).(*Object)
			if !ok {
				return &Array{}, nil
			}
			out := make([]Value, len(o.keys))
			for i, k := range o.Keys() {
				out[i] = String(k)
			}
			return &Array{Elements: out}, nil
		}),
		"values": native(func(it *Interp, this Value, args []Value) (Value, error) {
			o, ok := arg(args, 0).(*Object)
			if !ok {
				return &Array{}, nil
			}
			out := make([]Value, 0, len(o.keys))
			for _, k := range o.Keys() {
				v, _ := o.Get(k)
				out = append(out, v)
			}
			return &Array{Elements: out}, nil
		}),
		"entries": native(func(it *Interp, this Value, args []Value) (Value, error) {
			o, ok := arg(args, 0).(*Object)
			if !ok {
				return &Array{}, nil
			}
			out := make([]Value, 0, len(o.keys))
			for _, k := range o.Keys() {
				v, _ := o.Get(k)
				out = append(out, &Array{Elements: []Value{String(k), v}})
			}
			return &Array{Elements: out}, nil
		}),
		"assign": native(func(it *Interp, this Value, args []Value) (Value, error) {
			target, ok := arg(args, 0).(*Object)
			if !ok {
				return NewObject(), nil
			}
			for _, src := range args[1:] {
				so, ok := src.(*Object)
				if !ok {
					continue
				}
				for _, k := range so.Keys() {
					v, _ := so.Get(k)
					target.Set(k, v)
				}
			}
			return target, nil
		}),
		"fromEntries": native(func(it *Interp, this Value, args []Value) (Value, error) {
			out := NewObject()
			for _, pair := range it.iterate(arg(args, 0)) {
				arr, ok := pair.(*Array)
				if !ok || len(arr.Elements) < 2 {
					continue
				}
				out.Set(ToString(arr.Elements[0]), arr.Elements[1])
			}
			return out, nil
		}),
		"freeze": native(func(it *Interp, this Value, args []Value) (Value, error) {
			return arg(args, 0), nil
		}),
		"isFrozen": native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(false), nil
		}),
	}
	it.Global.Declare("Object", ctor, "const")
}
