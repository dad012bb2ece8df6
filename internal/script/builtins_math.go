package script

import "math"

// installMathObject wires the Math global. Math.random is sourced from
// the runtime's seeded PRNG (internal/prng) rather than Go's package-level
// math/rand, so two runtimes seeded identically produce identical script
// behavior.
func installMathObject(it *Interp) {
	m := NewObject()
	m.Set("PI", Number(math.Pi))
	m.Set("E", Number(math.E))
	m.Set("LN2", Number(math.Ln2))
	m.Set("LN10", Number(math.Log(10)))
	m.Set("SQRT2", Number(math.Sqrt2))

	unary := func(f func(float64) float64) *Function {
		return native(func(it *Interp, this Value, args []Value) (Value, error) {
			return Number(f(ToNumber(arg(args, 0)))), nil
		})
	}
	m.Set("abs", unary(math.Abs))
	m.Set("floor", unary(math.Floor))
	m.Set("ceil", unary(math.Ceil))
	m.Set("trunc", unary(math.Trunc))
	m.Set("sqrt", unary(math.Sqrt))
	m.Set("cbrt", unary(math.Cbrt))
	m.Set("sign", unary(func(x float64) float64 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return x
		}
	}))
	m.Set("log", unary(math.Log))
	m.Set("log2", unary(math.Log2))
	m.Set("log10", unary(math.Log10))
	m.Set("exp", unary(math.Exp))
	m.Set("sin", unary(math.Sin))
	m.Set("cos", unary(math.Cos))
	m.Set("tan", unary(math.Tan))
	m.Set("round", native(func(it *Interp, this Value, args []Value) (Value, error) {
		return Number(math.Floor(ToNumber(arg(args, 0)) + 0.5)), nil
	}))
	m.Set("max", native(func(it *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(math.Inf(-1)), nil
		}
		best := ToNumber(args[0])
		for _, a := range args[1:] {
			v := ToNumber(a)
			if math.IsNaN(v) {
				return Number(math.NaN()), nil
			}
			if v > best {
				best = v
			}
		}
		return Number(best), nil
	}))
	m.Set("min", native(func(it *Interp, this Value, args []Value) (Value, error) {
		if len(args) == 0 {
			return Number(math.Inf(1)), nil
		}
		best := ToNumber(args[0])
		for _, a := range args[1:] {
			v := ToNumber(a)
			if math.IsNaN(v) {
				return Number(math.NaN()), nil
			}
			if v < best {
				best = v
			}
		}
		return Number(best), nil
	}))
	m.Set("pow", native(func(it *Interp, this Value, args []Value) (Value, error) {
		return Number(math.Pow(ToNumber(arg(args, 0)), ToNumber(arg(args, 1)))), nil
	}))
	m.Set("hypot", native(func(it *Interp, this Value, args []Value) (Value, error) {
		sum := 0.0
		for _, a := range args {
			v := ToNumber(a)
			sum += v * v
		}
		return Number(math.Sqrt(sum)), nil
	}))
	m.Set("random", native(func(it *Interp, this Value, args []Value) (Value, error) {
		return Number(it.RNG.Float64()), nil
	}))
	it.Global.Declare("Math", m, "const")
}
