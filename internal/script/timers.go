package script

import "github.com/domtestrun/domtest/internal/scheduler"

// installTimerGlobals wires setTimeout/setInterval/clearTimeout/
// clearInterval/requestAnimationFrame/cancelAnimationFrame/queueMicrotask
// onto the fake-clock scheduler. A fired timer's handler runs as a
// scheduler Task so it goes through the same RunTask path (microtasks
// drain immediately after) as any other queued work.
func installTimerGlobals(it *Interp) {
	setTimerFn := func(kind scheduler.TaskKind) *Function {
		return native(func(interp *Interp, this Value, args []Value) (Value, error) {
			fn, _ := arg(args, 0).(*Function)
			delay := int64(ToNumber(arg(args, 1)))
			extra := append([]Value(nil), argsFrom(args, 2)...)
			if fn == nil {
				return Number(0), nil
			}
			id := interp.Sched.SetTimer(kind, delay, func(nowMs int64) {
				interp.CallFunction(fn, Undefined{}, extra)
			})
			return Number(id), nil
		})
	}
	it.Global.Declare("setTimeout", setTimerFn(scheduler.KindTimeout), "const")
	it.Global.Declare("setInterval", setTimerFn(scheduler.KindInterval), "const")
	it.Global.Declare("requestAnimationFrame", setTimerFn(scheduler.KindRAF), "const")

	clearFn := native(func(interp *Interp, this Value, args []Value) (Value, error) {
		interp.Sched.ClearTimer(int(ToNumber(arg(args, 0))))
		return Undefined{}, nil
	})
	it.Global.Declare("clearTimeout", clearFn, "const")
	it.Global.Declare("clearInterval", clearFn, "const")
	it.Global.Declare("cancelAnimationFrame", clearFn, "const")

	it.Global.Declare("queueMicrotask", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		fn, _ := arg(args, 0).(*Function)
		if fn == nil {
			return Undefined{}, nil
		}
		interp.Sched.QueueMicrotask(func() {
			interp.CallFunction(fn, Undefined{}, nil)
		})
		return Undefined{}, nil
	}), "const")
}

func argsFrom(args []Value, start int) []Value {
	if start >= len(args) {
		return nil
	}
	return args[start:]
}
