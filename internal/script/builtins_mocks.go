package script

import (
	"encoding/json"

	"github.com/domtestrun/domtest/internal/domerr"
)

// installMockGlobals wires the collaborator surface the runtime façade
// mocks (fetch, clipboard, alert/confirm/prompt, matchMedia, location) onto
// it.Hooks, so every call at script level bottoms out in a harness-owned
// callback rather than doing any real I/O -- none of these builtins know
// or care that their backing data is a seeded fixture.
func installMockGlobals(it *Interp) {
	installFetch(it)
	installNavigator(it)
	installDialogs(it)
	installMatchMedia(it)
	installLocation(it)
}

func noHookErr(name string) error {
	return &domerr.ScriptRuntime{Message: name + " called with no mock configured"}
}

func installFetch(it *Interp) {
	it.Global.Declare("fetch", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.Fetch == nil {
			return nil, noHookErr("fetch")
		}
		url := ToString(arg(args, 0))
		method := "GET"
		body := ""
		if init, ok := arg(args, 1).(*Object); ok {
			if m, ok := init.Get("method"); ok {
				method = ToString(m)
			}
			if b, ok := init.Get("body"); ok {
				body = ToString(b)
			}
		}
		status, respBody := interp.Hooks.Fetch(url, method, body)

		p := NewPromise()
		resp := NewObject()
		resp.Class = "Response"
		resp.Set("ok", Bool(status >= 200 && status < 300))
		resp.Set("status", Number(status))
		resp.Set("text", native(func(interp *Interp, this Value, args []Value) (Value, error) {
			tp := NewPromise()
			resolvePromise(interp, tp, String(respBody))
			return newPromiseObject(tp), nil
		}))
		resp.Set("json", native(func(interp *Interp, this Value, args []Value) (Value, error) {
			jp := NewPromise()
			var parsed any
			if err := json.Unmarshal([]byte(respBody), &parsed); err != nil {
				rejectPromise(interp, jp, String(err.Error()))
			} else {
				resolvePromise(interp, jp, fromJSONNative(parsed))
			}
			return newPromiseObject(jp), nil
		}))
		resolvePromise(it, p, resp)
		return newPromiseObject(p), nil
	}), "const")
}

func installNavigator(it *Interp) {
	nav := NewObject()
	clip := NewObject()
	clip.Set("readText", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.ClipboardRead == nil {
			return nil, noHookErr("navigator.clipboard.readText")
		}
		p := NewPromise()
		resolvePromise(interp, p, String(interp.Hooks.ClipboardRead()))
		return newPromiseObject(p), nil
	}))
	clip.Set("writeText", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.ClipboardWrite == nil {
			return nil, noHookErr("navigator.clipboard.writeText")
		}
		interp.Hooks.ClipboardWrite(ToString(arg(args, 0)))
		p := NewPromise()
		resolvePromise(interp, p, Undefined{})
		return newPromiseObject(p), nil
	}))
	nav.Set("clipboard", clip)
	it.Global.Declare("navigator", nav, "const")
}

func installDialogs(it *Interp) {
	it.Global.Declare("alert", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.Alert == nil {
			return nil, noHookErr("alert")
		}
		interp.Hooks.Alert(ToString(arg(args, 0)))
		return Undefined{}, nil
	}), "const")

	it.Global.Declare("confirm", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.Confirm == nil {
			return nil, noHookErr("confirm")
		}
		return Bool(interp.Hooks.Confirm(ToString(arg(args, 0)))), nil
	}), "const")

	it.Global.Declare("prompt", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.Prompt == nil {
			return nil, noHookErr("prompt")
		}
		def := ""
		if len(args) > 1 {
			def = ToString(args[1])
		}
		v, ok := interp.Hooks.Prompt(ToString(arg(args, 0)), def)
		if !ok {
			return Null{}, nil
		}
		return String(v), nil
	}), "const")
}

func installMatchMedia(it *Interp) {
	it.Global.Declare("matchMedia", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.MatchMedia == nil {
			return nil, noHookErr("matchMedia")
		}
		query := ToString(arg(args, 0))
		matches, media := interp.Hooks.MatchMedia(query)
		o := NewObject()
		o.Set("matches", Bool(matches))
		o.Set("media", String(media))
		o.Set("addEventListener", native(func(interp *Interp, this Value, args []Value) (Value, error) {
			return Undefined{}, nil
		}))
		o.Set("removeEventListener", native(func(interp *Interp, this Value, args []Value) (Value, error) {
			return Undefined{}, nil
		}))
		return o, nil
	}), "const")
}

func installLocation(it *Interp) {
	loc := NewObject()
	loc.Set("assign", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.LocationAssign == nil {
			return nil, noHookErr("location.assign")
		}
		interp.Hooks.LocationAssign(ToString(arg(args, 0)))
		return Undefined{}, nil
	}))
	loc.Set("replace", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.LocationReplace == nil {
			return nil, noHookErr("location.replace")
		}
		interp.Hooks.LocationReplace(ToString(arg(args, 0)))
		return Undefined{}, nil
	}))
	loc.Set("reload", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		if interp.Hooks.LocationReload == nil {
			return nil, noHookErr("location.reload")
		}
		interp.Hooks.LocationReload()
		return Undefined{}, nil
	}))
	loc.Set("href", String(""))
	it.Global.Declare("location", loc, "const")
}

// SetLocationHref updates the href property of the already-declared
// location global, called by the harness façade whenever a navigation
// mock changes the current URL.
func (it *Interp) SetLocationHref(href string) {
	v, ok := it.Global.Get("location")
	if !ok {
		return
	}
	if o, ok := v.(*Object); ok {
		o.Set("href", String(href))
	}
}
