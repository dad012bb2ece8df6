package script

import "strings"

// stringGetProp resolves String.prototype methods and the length
// property; grounded on spec.md §4.3's required String builtin surface.
func stringGetProp(s String, key string) Value {
	str := string(s)
	runes := []rune(str)
	switch key {
	case "length":
		return Number(len(runes))
	case "charAt":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			i := int(ToNumber(arg(args, 0)))
			if i < 0 || i >= len(runes) {
				return String(""), nil
			}
			return String(string(runes[i])), nil
		})
	case "charCodeAt":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			i := int(ToNumber(arg(args, 0)))
			if i < 0 || i >= len(runes) {
				return Number(0), nil
			}
			return Number(runes[i]), nil
		})
	case "at":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			i := int(ToNumber(arg(args, 0)))
			if i < 0 {
				i += len(runes)
			}
			if i < 0 || i >= len(runes) {
				return Undefined{}, nil
			}
			return String(string(runes[i])), nil
		})
	case "indexOf":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(strings.Index(str, ToString(arg(args, 0)))), nil
		})
	case "lastIndexOf":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(strings.LastIndex(str, ToString(arg(args, 0)))), nil
		})
	case "includes":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(strings.Contains(str, ToString(arg(args, 0)))), nil
		})
	case "startsWith":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(strings.HasPrefix(str, ToString(arg(args, 0)))), nil
		})
	case "endsWith":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Bool(strings.HasSuffix(str, ToString(arg(args, 0)))), nil
		})
	case "slice":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			start, end := sliceBounds(args, len(runes))
			return String(string(runes[start:end])), nil
		})
	case "substring":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			start, end := substringBounds(args, len(runes))
			return String(string(runes[start:end])), nil
		})
	case "toUpperCase":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.ToUpper(str)), nil
		})
	case "toLowerCase":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.ToLower(str)), nil
		})
	case "trim":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.TrimSpace(str)), nil
		})
	case "trimStart":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.TrimLeft(str, " \t\n\r")), nil
		})
	case "trimEnd":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.TrimRight(str, " \t\n\r")), nil
		})
	case "split":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			if len(args) == 0 {
				return &Array{Elements: []Value{String(str)}}, nil
			}
			sep := ToString(args[0])
			var parts []string
			if sep == "" {
				for _, r := range runes {
					parts = append(parts, string(r))
				}
			} else {
				parts = strings.Split(str, sep)
			}
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = String(p)
			}
			return &Array{Elements: out}, nil
		})
	case "replace":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.Replace(str, ToString(arg(args, 0)), ToString(arg(args, 1)), 1)), nil
		})
	case "replaceAll":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(strings.ReplaceAll(str, ToString(arg(args, 0)), ToString(arg(args, 1)))), nil
		})
	case "repeat":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			n := int(ToNumber(arg(args, 0)))
			if n < 0 {
				return nil, throwRuntimeErr("invalid count value")
			}
			return String(strings.Repeat(str, n)), nil
		})
	case "padStart":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(padString(str, args, true)), nil
		})
	case "padEnd":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(padString(str, args, false)), nil
		})
	case "concat":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			out := str
			for _, a := range args {
				out += ToString(a)
			}
			return String(out), nil
		})
	case "toString", "valueOf":
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return String(str), nil
		})
	}
	return Undefined{}
}

func substringBounds(args []Value, length int) (int, int) {
	start, end := 0, length
	if len(args) > 0 {
		start = clampIndex(int(ToNumber(args[0])), length)
	}
	if len(args) > 1 {
		end = clampIndex(int(ToNumber(args[1])), length)
	}
	if start > end {
		start, end = end, start
	}
	return start, end
}

func clampIndex(i, length int) int {
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func padString(str string, args []Value, start bool) string {
	target := len(str)
	if len(args) > 0 {
		target = int(ToNumber(args[0]))
	}
	pad := " "
	if len(args) > 1 {
		pad = ToString(args[1])
	}
	if target <= len([]rune(str)) || pad == "" {
		return str
	}
	need := target - len([]rune(str))
	fill := strings.Repeat(pad, (need/len([]rune(pad)))+1)
	fill = string([]rune(fill)[:need])
	if start {
		return fill + str
	}
	return str + fill
}

func installStringConstructor(it *Interp) {
	ctor := &Function{Name: "String", Native: func(interp *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return String(""), nil
		}
		return String(ToString(args[0])), nil
	}}
	ctor.Statics = map[string]Value{
		"fromCharCode": native(func(it *Interp, this Value, args []Value) (Value, error) {
			runes := make([]rune, len(args))
			for i, a := range args {
				runes[i] = rune(int(ToNumber(a)))
			}
			return String(string(runes)), nil
		}),
	}
	it.Global.Declare("String", ctor, "const")
}
