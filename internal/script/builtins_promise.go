package script

// Promise support wraps *Promise state inside an *Object with Class
// "Promise" so it flows through the same Value interface as every other
// object, with .then/.catch/.finally reactions queued onto the scheduler's
// microtask queue -- the ordering guarantee spec.md §4.5 requires between
// a resolved promise's reactions and the next macrotask.

func newPromiseObject(p *Promise) *Object {
	o := NewObject()
	o.Class = "Promise"
	o.Internal = p
	return o
}

func installPromiseConstructor(it *Interp) {
	ctor := &Function{Name: "Promise", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		p := NewPromise()
		obj := newPromiseObject(p)
		executor, _ := arg(args, 0).(*Function)
		if executor != nil {
			resolve := native(func(it *Interp, this Value, args []Value) (Value, error) {
				resolvePromise(it, p, arg(args, 0))
				return Undefined{}, nil
			})
			reject := native(func(it *Interp, this Value, args []Value) (Value, error) {
				rejectPromise(it, p, arg(args, 0))
				return Undefined{}, nil
			})
			if _, err := interp.CallFunction(executor, Undefined{}, []Value{resolve, reject}); err != nil {
				rejectPromise(interp, p, String(err.Error()))
			}
		}
		return obj, nil
	}}
	ctor.Statics = map[string]Value{
		"resolve": native(func(it *Interp, this Value, args []Value) (Value, error) {
			p := NewPromise()
			resolvePromise(it, p, arg(args, 0))
			return newPromiseObject(p), nil
		}),
		"reject": native(func(it *Interp, this Value, args []Value) (Value, error) {
			p := NewPromise()
			rejectPromise(it, p, arg(args, 0))
			return newPromiseObject(p), nil
		}),
		"all": native(func(it *Interp, this Value, args []Value) (Value, error) {
			items := it.iterate(arg(args, 0))
			results := make([]Value, len(items))
			combined := NewPromise()
			remaining := len(items)
			if remaining == 0 {
				settlePromise(it, combined, "fulfilled", &Array{})
			}
			for i, item := range items {
				i := i
				if inner, ok := item.(*Object); ok && inner.Class == "Promise" {
					addPromiseReaction(it, inner.Internal.(*Promise), func(v Value) {
						results[i] = v
						remaining--
						if remaining == 0 {
							settlePromise(it, combined, "fulfilled", &Array{Elements: results})
						}
					}, func(v Value) {
						settlePromise(it, combined, "rejected", v)
					})
				} else {
					results[i] = item
					remaining--
				}
			}
			if remaining == 0 && combined.State == "pending" {
				settlePromise(it, combined, "fulfilled", &Array{Elements: results})
			}
			return newPromiseObject(combined), nil
		}),
	}
	it.Global.Declare("Promise", ctor, "const")
}

func resolvePromise(it *Interp, p *Promise, v Value) {
	if p.State != "pending" {
		return
	}
	if inner, ok := v.(*Object); ok && inner.Class == "Promise" {
		innerP := inner.Internal.(*Promise)
		addPromiseReaction(it, innerP, func(rv Value) {
			settlePromise(it, p, "fulfilled", rv)
		}, func(rv Value) {
			settlePromise(it, p, "rejected", rv)
		})
		return
	}
	settlePromise(it, p, "fulfilled", v)
}

func rejectPromise(it *Interp, p *Promise, v Value) {
	if p.State != "pending" {
		return
	}
	settlePromise(it, p, "rejected", v)
}

func settlePromise(it *Interp, p *Promise, state string, v Value) {
	if p.State != "pending" {
		return
	}
	p.State = state
	p.Value = v
	var callbacks []func(Value)
	if state == "fulfilled" {
		callbacks = p.onFulfill
	} else {
		callbacks = p.onReject
	}
	p.onFulfill = nil
	p.onReject = nil
	for _, cb := range callbacks {
		cb := cb
		it.Sched.QueueMicrotask(func() { cb(v) })
	}
}

func addPromiseReaction(it *Interp, p *Promise, onFulfill, onReject func(Value)) {
	switch p.State {
	case "pending":
		p.onFulfill = append(p.onFulfill, onFulfill)
		p.onReject = append(p.onReject, onReject)
	case "fulfilled":
		v := p.Value
		it.Sched.QueueMicrotask(func() { onFulfill(v) })
	case "rejected":
		v := p.Value
		it.Sched.QueueMicrotask(func() { onReject(v) })
	}
}

func promiseMethod(it *Interp, o *Object, key string) (Value, bool) {
	p := o.Internal.(*Promise)
	switch key {
	case "then":
		return native(func(interp *Interp, this Value, args []Value) (Value, error) {
			onFulfill, _ := arg(args, 0).(*Function)
			onReject, _ := arg(args, 1).(*Function)
			next := NewPromise()
			addPromiseReaction(interp, p,
				chainReaction(interp, next, onFulfill, true),
				chainReaction(interp, next, onReject, false),
			)
			return newPromiseObject(next), nil
		}), true
	case "catch":
		return native(func(interp *Interp, this Value, args []Value) (Value, error) {
			onReject, _ := arg(args, 0).(*Function)
			next := NewPromise()
			addPromiseReaction(interp, p,
				chainReaction(interp, next, nil, true),
				chainReaction(interp, next, onReject, false),
			)
			return newPromiseObject(next), nil
		}), true
	case "finally":
		return native(func(interp *Interp, this Value, args []Value) (Value, error) {
			onFinally, _ := arg(args, 0).(*Function)
			next := NewPromise()
			run := func(v Value, rejected bool) {
				if onFinally != nil {
					interp.CallFunction(onFinally, Undefined{}, nil)
				}
				if rejected {
					settlePromise(interp, next, "rejected", v)
				} else {
					settlePromise(interp, next, "fulfilled", v)
				}
			}
			addPromiseReaction(interp, p,
				func(v Value) { run(v, false) },
				func(v Value) { run(v, true) },
			)
			return newPromiseObject(next), nil
		}), true
	}
	return nil, false
}

// chainReaction builds a reaction callback for .then/.catch: runs handler
// (if present) and propagates its result/identity into next, converting a
// handler panic/error into next's rejection.
func chainReaction(it *Interp, next *Promise, handler *Function, isFulfill bool) func(Value) {
	return func(v Value) {
		if handler == nil {
			if isFulfill {
				resolvePromise(it, next, v)
			} else {
				rejectPromise(it, next, v)
			}
			return
		}
		result, err := it.CallFunction(handler, Undefined{}, []Value{v})
		if err != nil {
			rejectPromise(it, next, String(err.Error()))
			return
		}
		resolvePromise(it, next, result)
	}
}
