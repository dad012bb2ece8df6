package script

import (
	"math"
	"math/big"

	"github.com/domtestrun/domtest/internal/domerr"
)

// evalExpr evaluates an expression node in env.
func (it *Interp) evalExpr(n Node, env *Environment) Value {
	switch e := n.(type) {
	case *NumberLit:
		return Number(e.Value)
	case *BigIntLit:
		v := new(big.Int)
		v.SetString(e.Text, 10)
		return BigIntVal{V: v}
	case *StringLit:
		return String(e.Value)
	case *TemplateLit:
		return it.evalTemplate(e, env)
	case *BoolLit:
		return Bool(e.Value)
	case *NullLit:
		return Null{}
	case *UndefinedLit:
		return Undefined{}
	case *ThisExpr:
		v, _ := env.Get("this")
		if v == nil {
			return Undefined{}
		}
		return v
	case *Ident:
		v, ok := env.Get(e.Name)
		if !ok {
			throwRuntime("%s is not defined", e.Name)
		}
		return v
	case *ArrayLit:
		return it.evalArrayLit(e, env)
	case *ObjectLit:
		return it.evalObjectLit(e, env)
	case *FunctionExpr:
		return &Function{Name: e.Name, Decl: e, Closure: env}
	case *UnaryExpr:
		return it.evalUnary(e, env)
	case *UpdateExpr:
		return it.evalUpdate(e, env)
	case *BinaryExpr:
		return it.evalBinary(e, env)
	case *LogicalExpr:
		return it.evalLogical(e, env)
	case *AssignExpr:
		return it.evalAssign(e, env)
	case *ConditionalExpr:
		if ToBool(it.evalExpr(e.Test, env)) {
			return it.evalExpr(e.Then, env)
		}
		return it.evalExpr(e.Else, env)
	case *CallExpr:
		return it.evalCall(e, env)
	case *NewExpr:
		return it.evalNew(e, env)
	case *MemberExpr:
		v, _ := it.evalMember(e, env)
		return v
	case *SequenceExpr:
		var last Value = Undefined{}
		for _, sub := range e.Exprs {
			last = it.evalExpr(sub, env)
		}
		return last
	case *AwaitExpr:
		// Resolved Open Question (spec.md §7): await is parsed but raises
		// ScriptRuntime on evaluation rather than silently completing with
		// the wrong value, since this evaluator has no real suspension
		// mechanism.
		panic(&domerr.ScriptRuntime{Message: "await is not supported by the evaluator"})
	case *YieldExpr:
		panic(&domerr.ScriptRuntime{Message: "yield is not supported by the evaluator"})
	default:
		throwRuntime("unsupported expression %T", n)
		return Undefined{}
	}
}

func (it *Interp) evalTemplate(e *TemplateLit, env *Environment) Value {
	var sb []byte
	for i, q := range e.Quasis {
		sb = append(sb, q...)
		if i < len(e.Exprs) {
			sb = append(sb, ToString(it.evalExpr(e.Exprs[i], env))...)
		}
	}
	return String(sb)
}

func (it *Interp) evalArrayLit(e *ArrayLit, env *Environment) Value {
	arr := &Array{}
	for _, el := range e.Elements {
		if el == nil {
			arr.Elements = append(arr.Elements, Undefined{})
			continue
		}
		if sp, ok := el.(*SpreadElement); ok {
			items := it.iterate(it.evalExpr(sp.Arg, env))
			arr.Elements = append(arr.Elements, items...)
			continue
		}
		arr.Elements = append(arr.Elements, it.evalExpr(el, env))
	}
	return arr
}

func (it *Interp) evalObjectLit(e *ObjectLit, env *Environment) Value {
	obj := NewObject()
	for _, p := range e.Props {
		if p.Spread {
			src := it.evalExpr(p.Value, env)
			if so, ok := src.(*Object); ok {
				for _, k := range so.Keys() {
					v, _ := so.Get(k)
					obj.Set(k, v)
				}
			}
			continue
		}
		key := it.propKeyName(p.Key, p.Computed, env)
		val := it.evalExpr(p.Value, env)
		if fn, ok := val.(*Function); ok && fn.Decl != nil {
			fn.Closure = env
		}
		obj.Set(key, val)
	}
	return obj
}

func (it *Interp) propKeyName(key Node, computed bool, env *Environment) string {
	if computed {
		return ToString(it.evalExpr(key, env))
	}
	switch k := key.(type) {
	case *Ident:
		return k.Name
	case *StringLit:
		return k.Value
	case *NumberLit:
		return formatNumber(k.Value)
	default:
		return ""
	}
}

func (it *Interp) evalUnary(e *UnaryExpr, env *Environment) Value {
	if e.Op == "typeof" {
		if id, ok := e.Arg.(*Ident); ok {
			if v, found := env.Get(id.Name); found {
				return String(TypeOf(v))
			}
			return String("undefined")
		}
		return String(TypeOf(it.evalExpr(e.Arg, env)))
	}
	if e.Op == "delete" {
		if me, ok := e.Arg.(*MemberExpr); ok {
			obj := it.evalExpr(me.Object, env)
			key := it.memberKey(me, env)
			if o, ok := obj.(*Object); ok {
				o.Delete(key)
			}
		}
		return Bool(true)
	}
	if e.Op == "void" {
		it.evalExpr(e.Arg, env)
		return Undefined{}
	}
	v := it.evalExpr(e.Arg, env)
	switch e.Op {
	case "!":
		return Bool(!ToBool(v))
	case "-":
		if bi, ok := v.(BigIntVal); ok {
			return BigIntVal{V: new(big.Int).Neg(bi.V)}
		}
		return Number(-ToNumber(v))
	case "+":
		return Number(ToNumber(v))
	case "~":
		return Number(float64(^int64(ToNumber(v))))
	default:
		throwRuntime("unsupported unary operator %s", e.Op)
		return Undefined{}
	}
}

func (it *Interp) evalUpdate(e *UpdateExpr, env *Environment) Value {
	old := it.evalExpr(e.Arg, env)
	n := ToNumber(old)
	var next float64
	if e.Op == "++" {
		next = n + 1
	} else {
		next = n - 1
	}
	it.assignTo(e.Arg, Number(next), env)
	if e.Prefix {
		return Number(next)
	}
	return Number(n)
}

func (it *Interp) evalBinary(e *BinaryExpr, env *Environment) Value {
	l := it.evalExpr(e.Left, env)
	r := it.evalExpr(e.Right, env)
	return applyBinaryOp(e.Op, l, r)
}

func applyBinaryOp(op string, l, r Value) Value {
	switch op {
	case "+":
		if ls, ok := l.(String); ok {
			return ls + String(ToString(r))
		}
		if rs, ok := r.(String); ok {
			return String(ToString(l)) + rs
		}
		if lb, ok := l.(BigIntVal); ok {
			if rb, ok2 := r.(BigIntVal); ok2 {
				return BigIntVal{V: new(big.Int).Add(lb.V, rb.V)}
			}
		}
		return Number(ToNumber(l) + ToNumber(r))
	case "-":
		if lb, ok := l.(BigIntVal); ok {
			if rb, ok2 := r.(BigIntVal); ok2 {
				return BigIntVal{V: new(big.Int).Sub(lb.V, rb.V)}
			}
		}
		return Number(ToNumber(l) - ToNumber(r))
	case "*":
		if lb, ok := l.(BigIntVal); ok {
			if rb, ok2 := r.(BigIntVal); ok2 {
				return BigIntVal{V: new(big.Int).Mul(lb.V, rb.V)}
			}
		}
		return Number(ToNumber(l) * ToNumber(r))
	case "/":
		return Number(ToNumber(l) / ToNumber(r))
	case "%":
		return Number(math.Mod(ToNumber(l), ToNumber(r)))
	case "**":
		return Number(math.Pow(ToNumber(l), ToNumber(r)))
	case "==":
		return Bool(LooseEquals(l, r))
	case "!=":
		return Bool(!LooseEquals(l, r))
	case "===":
		return Bool(StrictEquals(l, r))
	case "!==":
		return Bool(!StrictEquals(l, r))
	case "<":
		return compareOp(l, r, func(a, b float64) bool { return a < b }, func(a, b string) bool { return a < b })
	case "<=":
		return compareOp(l, r, func(a, b float64) bool { return a <= b }, func(a, b string) bool { return a <= b })
	case ">":
		return compareOp(l, r, func(a, b float64) bool { return a > b }, func(a, b string) bool { return a > b })
	case ">=":
		return compareOp(l, r, func(a, b float64) bool { return a >= b }, func(a, b string) bool { return a >= b })
	case "&":
		return Number(float64(int64(ToNumber(l)) & int64(ToNumber(r))))
	case "|":
		return Number(float64(int64(ToNumber(l)) | int64(ToNumber(r))))
	case "^":
		return Number(float64(int64(ToNumber(l)) ^ int64(ToNumber(r))))
	case "<<":
		return Number(float64(int64(ToNumber(l)) << uint(int64(ToNumber(r))%32)))
	case ">>":
		return Number(float64(int64(ToNumber(l)) >> uint(int64(ToNumber(r))%32)))
	case ">>>":
		return Number(float64(uint32(int64(ToNumber(l))) >> uint(int64(ToNumber(r))%32)))
	case "instanceof":
		return Bool(instanceOf(l, r))
	case "in":
		key := ToString(l)
		if o, ok := r.(*Object); ok {
			_, found := o.Get(key)
			return Bool(found)
		}
		return Bool(false)
	default:
		throwRuntime("unsupported binary operator %s", op)
		return Undefined{}
	}
}

func compareOp(l, r Value, numCmp func(a, b float64) bool, strCmp func(a, b string) bool) Value {
	if ls, ok := l.(String); ok {
		if rs, ok2 := r.(String); ok2 {
			return Bool(strCmp(string(ls), string(rs)))
		}
	}
	return Bool(numCmp(ToNumber(l), ToNumber(r)))
}

func instanceOf(l, r Value) bool {
	fn, ok := r.(*Function)
	if !ok {
		return false
	}
	switch l.(type) {
	case *Array:
		return fn.Name == "Array"
	case *Object:
		return fn.Name == "Object" || fn.Name == l.(*Object).Class
	case *Function:
		return fn.Name == "Function"
	default:
		return false
	}
}

func (it *Interp) evalLogical(e *LogicalExpr, env *Environment) Value {
	l := it.evalExpr(e.Left, env)
	switch e.Op {
	case "&&":
		if !ToBool(l) {
			return l
		}
		return it.evalExpr(e.Right, env)
	case "||":
		if ToBool(l) {
			return l
		}
		return it.evalExpr(e.Right, env)
	case "??":
		if _, isNull := l.(Null); isNull {
			return it.evalExpr(e.Right, env)
		}
		if _, isUndef := l.(Undefined); isUndef {
			return it.evalExpr(e.Right, env)
		}
		return l
	default:
		throwRuntime("unsupported logical operator %s", e.Op)
		return Undefined{}
	}
}

func (it *Interp) evalAssign(e *AssignExpr, env *Environment) Value {
	if e.Op == "=" {
		v := it.evalExpr(e.Value, env)
		it.assignTo(e.Target, v, env)
		return v
	}
	cur := it.evalExpr(e.Target, env)
	rhs := it.evalExpr(e.Value, env)
	op := e.Op[:len(e.Op)-1]
	result := applyBinaryOp(op, cur, rhs)
	it.assignTo(e.Target, result, env)
	return result
}

func (it *Interp) assignTo(target Node, v Value, env *Environment) {
	switch t := target.(type) {
	case *Ident:
		if err := env.Assign(t.Name, v); err != nil {
			env.DeclareVarScoped(t.Name, v)
		}
	case *MemberExpr:
		it.assignMember(t, v, env)
	default:
		throwRuntime("invalid assignment target")
	}
}

func (it *Interp) memberKey(e *MemberExpr, env *Environment) string {
	if e.Computed {
		return ToString(it.evalExpr(e.Property, env))
	}
	id, _ := e.Property.(*Ident)
	if id == nil {
		return ""
	}
	return id.Name
}

// evalMember resolves property access, first through the DOM bridge
// (dombridge.go) when the object is a DOMRef, then through the generic
// object/array/string property table.
func (it *Interp) evalMember(e *MemberExpr, env *Environment) (Value, bool) {
	obj := it.evalExpr(e.Object, env)
	if e.Optional {
		if _, isNull := obj.(Null); isNull {
			return Undefined{}, false
		}
		if _, isUndef := obj.(Undefined); isUndef {
			return Undefined{}, false
		}
	}
	key := it.memberKey(e, env)
	return it.getProperty(obj, key), true
}

func (it *Interp) getProperty(obj Value, key string) Value {
	switch o := obj.(type) {
	case DOMRef:
		return it.domBridgeGet(o, key)
	case *Array:
		return arrayGetProp(it, o, key)
	case *Object:
		if o.Class != "" {
			if v, ok := classMethodOrField(it, o, key); ok {
				return v
			}
		}
		if v, ok := o.Get(key); ok {
			return v
		}
		return Undefined{}
	case String:
		return stringGetProp(o, key)
	case *Function:
		if key == "name" {
			return String(o.Name)
		}
		if o.Statics != nil {
			if v, ok := o.Statics[key]; ok {
				return v
			}
		}
		return Undefined{}
	case Undefined, Null:
		panic(&domerr.ScriptRuntime{Message: "cannot read property '" + key + "' of " + TypeOf(obj)})
	default:
		return Undefined{}
	}
}

func (it *Interp) assignMember(e *MemberExpr, v Value, env *Environment) {
	obj := it.evalExpr(e.Object, env)
	key := it.memberKey(e, env)
	switch o := obj.(type) {
	case DOMRef:
		it.domBridgeSet(o, key, v)
	case *Array:
		arraySetProp(o, key, v)
	case *Object:
		o.Set(key, v)
	default:
		// Assignment to a property of a primitive is a silent no-op, as
		// in non-strict JS.
	}
}

// evalCall resolves the callee (handling method calls so `this` binds
// correctly) and invokes it.
func (it *Interp) evalCall(e *CallExpr, env *Environment) Value {
	var this Value = Undefined{}
	var fnVal Value
	if me, ok := e.Callee.(*MemberExpr); ok {
		obj := it.evalExpr(me.Object, env)
		if e.Optional || me.Optional {
			if _, isNull := obj.(Null); isNull {
				return Undefined{}
			}
			if _, isUndef := obj.(Undefined); isUndef {
				return Undefined{}
			}
		}
		this = obj
		key := it.memberKey(me, env)
		fnVal = it.getProperty(obj, key)
	} else {
		fnVal = it.evalExpr(e.Callee, env)
	}
	if e.Optional {
		if _, isUndef := fnVal.(Undefined); isUndef {
			return Undefined{}
		}
	}
	fn, ok := fnVal.(*Function)
	if !ok {
		throwRuntime("value is not a function")
	}
	args := it.evalArgs(e.Args, env)
	result, err := it.CallFunction(fn, this, args)
	if err != nil {
		panic(err)
	}
	return result
}

func (it *Interp) evalArgs(argNodes []Node, env *Environment) []Value {
	var args []Value
	for _, a := range argNodes {
		if sp, ok := a.(*SpreadElement); ok {
			args = append(args, it.iterate(it.evalExpr(sp.Arg, env))...)
			continue
		}
		args = append(args, it.evalExpr(a, env))
	}
	return args
}

// CallFunction invokes fn (native or script) with the given receiver and
// arguments, catching a script return via returnSignal.
func (it *Interp) CallFunction(fn *Function, this Value, args []Value) (result Value, err error) {
	if fn.Native != nil {
		return fn.Native(it, this, args)
	}
	callEnv := fn.Closure.FunctionChild()
	if fn.This != nil {
		callEnv.Declare("this", fn.This, "const")
	} else {
		callEnv.Declare("this", this, "const")
	}
	bindParams(it, fn.Decl.Params, args, callEnv)
	argsArr := &Array{Elements: append([]Value(nil), args...)}
	callEnv.Declare("arguments", argsArr, "const")

	defer func() {
		if r := recover(); r != nil {
			if rs, ok := r.(returnSignal); ok {
				result = rs.Value
				return
			}
			if ts, ok := r.(throwSignal); ok {
				err = &domerr.ScriptRuntime{Message: "uncaught exception: " + ToString(ts.Value)}
				return
			}
			if de, ok := r.(*domerr.ScriptRuntime); ok {
				err = de
				return
			}
			panic(r)
		}
	}()

	if fn.Decl.Arrow && fn.Decl.ExprBody != nil {
		return it.evalExpr(fn.Decl.ExprBody, callEnv), nil
	}
	it.hoistFunctionDecls(fn.Decl.Body.Body, callEnv)
	for _, stmt := range fn.Decl.Body.Body {
		it.execStatement(stmt, callEnv)
	}
	return Undefined{}, nil
}

func bindParams(it *Interp, params []Param, args []Value, env *Environment) {
	for i, p := range params {
		if p.Rest {
			rest := &Array{}
			if i < len(args) {
				rest.Elements = append(rest.Elements, args[i:]...)
			}
			env.Declare(p.Name, rest, "let")
			return
		}
		var v Value = Undefined{}
		if i < len(args) {
			v = args[i]
		}
		if _, isUndef := v.(Undefined); isUndef && p.Default != nil {
			v = it.evalExpr(p.Default, env)
		}
		env.Declare(p.Name, v, "let")
	}
}

func (it *Interp) evalNew(e *NewExpr, env *Environment) Value {
	calleeVal := it.evalExpr(e.Callee, env)
	fn, ok := calleeVal.(*Function)
	if !ok {
		throwRuntime("not a constructor")
	}
	args := it.evalArgs(e.Args, env)
	if fn.Native != nil {
		v, err := fn.Native(it, nil, args)
		if err != nil {
			panic(err)
		}
		return v
	}
	instance := NewObject()
	instance.Class = fn.Name
	callEnv := fn.Closure.FunctionChild()
	callEnv.Declare("this", instance, "const")
	bindParams(it, fn.Decl.Params, args, callEnv)
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(returnSignal); ok {
					return
				}
				panic(r)
			}
		}()
		it.hoistFunctionDecls(fn.Decl.Body.Body, callEnv)
		for _, stmt := range fn.Decl.Body.Body {
			it.execStatement(stmt, callEnv)
		}
	}()
	return instance
}
