package script

import (
	"math"
	"strconv"
	"strings"

	"github.com/domtestrun/domtest/internal/domerr"
)

// installGlobals preloads it.Global with every bare global and constructor
// the supported JS subset exposes. This is the single entry point
// NewInterp calls; every other builtins_*.go file contributes one
// installer invoked from here, grounded on the teacher's main.go wiring
// pattern of one explicit setup function per subsystem rather than an
// init()-driven registry.
func installGlobals(it *Interp) {
	installConsole(it)
	installMathObject(it)
	installJSONObject(it)
	installObjectConstructor(it)
	installArrayConstructor(it)
	installStringConstructor(it)
	installMapSetConstructors(it)
	installPromiseConstructor(it)
	installDateConstructor(it)
	installTimerGlobals(it)
	installNumberGlobals(it)
	installDocumentBinding(it)
	installMockGlobals(it)
	installFormDataConstructor(it)

	it.Global.Declare("undefined", Undefined{}, "const")
	it.Global.Declare("NaN", Number(math.NaN()), "const")
	it.Global.Declare("Infinity", Number(math.Inf(1)), "const")

	it.Global.Declare("parseInt", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		s := strings.TrimSpace(ToString(arg(args, 0)))
		radix := 10
		if len(args) > 1 {
			if r := int(ToNumber(args[1])); r != 0 {
				radix = r
			}
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
		if (radix == 16 || radix == 10) && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
			s = s[2:]
			radix = 16
		}
		end := 0
		for end < len(s) && isRadixDigit(s[end], radix) {
			end++
		}
		if end == 0 {
			return Number(math.NaN()), nil
		}
		n, err := strconv.ParseInt(s[:end], radix, 64)
		if err != nil {
			return Number(math.NaN()), nil
		}
		if neg {
			n = -n
		}
		return Number(n), nil
	}), "const")

	it.Global.Declare("parseFloat", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		s := strings.TrimSpace(ToString(arg(args, 0)))
		end := 0
		seenDot, seenExp := false, false
		for end < len(s) {
			c := s[end]
			if c >= '0' && c <= '9' {
				end++
				continue
			}
			if c == '.' && !seenDot && !seenExp {
				seenDot = true
				end++
				continue
			}
			if (c == 'e' || c == 'E') && !seenExp && end > 0 {
				seenExp = true
				end++
				if end < len(s) && (s[end] == '+' || s[end] == '-') {
					end++
				}
				continue
			}
			if (c == '+' || c == '-') && end == 0 {
				end++
				continue
			}
			break
		}
		if end == 0 {
			return Number(math.NaN()), nil
		}
		f, err := strconv.ParseFloat(s[:end], 64)
		if err != nil {
			return Number(math.NaN()), nil
		}
		return Number(f), nil
	}), "const")

	it.Global.Declare("isNaN", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		return Bool(math.IsNaN(ToNumber(arg(args, 0)))), nil
	}), "const")

	it.Global.Declare("isFinite", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		n := ToNumber(arg(args, 0))
		return Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	}), "const")

	it.Global.Declare("eval", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		return nil, &domerr.ScriptRuntime{Message: "eval is not supported by the evaluator"}
	}), "const")

	it.Global.Declare("structuredClone", native(func(interp *Interp, this Value, args []Value) (Value, error) {
		return fromJSONNative(toJSONNative(arg(args, 0))), nil
	}), "const")
}

func isRadixDigit(c byte, radix int) bool {
	var v int
	switch {
	case c >= '0' && c <= '9':
		v = int(c - '0')
	case c >= 'a' && c <= 'z':
		v = int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		v = int(c-'A') + 10
	default:
		return false
	}
	return v < radix
}

// installConsole installs console.log/warn/error/info/debug, each
// appending a ConsoleEntry rather than writing to stdout -- grounded on
// the teacher's addLog(reqID, level, message) buffer-then-report pattern
// in console.go, adapted since this evaluator has no per-request id.
func installConsole(it *Interp) {
	c := NewObject()
	level := func(lvl string) *Function {
		return native(func(interp *Interp, this Value, args []Value) (Value, error) {
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = ToString(a)
			}
			interp.ConsoleLog = append(interp.ConsoleLog, ConsoleEntry{Level: lvl, Message: strings.Join(parts, " ")})
			return Undefined{}, nil
		})
	}
	c.Set("log", level("log"))
	c.Set("info", level("info"))
	c.Set("warn", level("warn"))
	c.Set("error", level("error"))
	c.Set("debug", level("debug"))
	it.Global.Declare("console", c, "const")
}

// installNumberGlobals wires the Number constructor and its static
// constants/predicates (isInteger/isFinite/isNaN/parseFloat/parseInt),
// mirroring the bare-global duplicates for the object-scoped forms.
func installNumberGlobals(it *Interp) {
	ctor := &Function{Name: "Number", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(0), nil
		}
		return Number(ToNumber(args[0])), nil
	}}
	ctor.Statics = map[string]Value{
		"isInteger": native(func(it *Interp, this Value, args []Value) (Value, error) {
			n, ok := arg(args, 0).(Number)
			if !ok {
				return Bool(false), nil
			}
			f := float64(n)
			return Bool(!math.IsNaN(f) && !math.IsInf(f, 0) && f == math.Trunc(f)), nil
		}),
		"isFinite": native(func(it *Interp, this Value, args []Value) (Value, error) {
			n, ok := arg(args, 0).(Number)
			if !ok {
				return Bool(false), nil
			}
			return Bool(!math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)), nil
		}),
		"isNaN": native(func(it *Interp, this Value, args []Value) (Value, error) {
			n, ok := arg(args, 0).(Number)
			if !ok {
				return Bool(false), nil
			}
			return Bool(math.IsNaN(float64(n))), nil
		}),
		"MAX_SAFE_INTEGER": Number(9007199254740991),
		"MIN_SAFE_INTEGER": Number(-9007199254740991),
		"EPSILON":          Number(2.220446049250313e-16),
	}
	it.Global.Declare("Number", ctor, "const")
}

// installDocumentBinding exposes the top-level `document` global as a
// DOMRef over the document's root handle, and `window`/`globalThis` as one
// object whose only property is `document`; other globals (timers
// included) are not reachable through it.
func installDocumentBinding(it *Interp) {
	it.Global.Declare("document", DOMRef{Doc: it.Doc, Handle: it.Doc.Root}, "const")
	win := NewObject()
	win.Set("document", DOMRef{Doc: it.Doc, Handle: it.Doc.Root})
	it.Global.Declare("window", win, "const")
	it.Global.Declare("globalThis", win, "const")
}
