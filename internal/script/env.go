package script

import "github.com/domtestrun/domtest/internal/domerr"

// Environment is one lexical scope: a binding table plus a pointer to the
// enclosing scope, the standard representation for closures in a
// tree-walking interpreter.
type Environment struct {
	vars   map[string]*binding
	parent *Environment
	// isFunctionScope marks scopes that stop var's hoist walk: function
	// bodies and the global scope (block scopes from if/for/while leave
	// this false so `var` inside them still hoists to the enclosing
	// function, matching JS scoping rules).
	isFunctionScope bool
}

type binding struct {
	value   Value
	mutable bool
}

// NewEnvironment returns a root (global) environment.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]*binding), isFunctionScope: true}
}

// Child returns a new scope nested under e.
func (e *Environment) Child() *Environment {
	return &Environment{vars: make(map[string]*binding), parent: e}
}

// Declare introduces name in this scope. kind "const" makes it immutable.
func (e *Environment) Declare(name string, v Value, kind string) {
	e.vars[name] = &binding{value: v, mutable: kind != "const"}
}

// Get resolves name by walking outward through enclosing scopes.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			return b.value, true
		}
	}
	return nil, false
}

// Assign mutates the nearest binding for name, returning
// domerr.ScriptRuntime if name is undeclared or bound const.
func (e *Environment) Assign(name string, v Value) error {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			if !b.mutable {
				return &domerr.ScriptRuntime{Message: "assignment to constant variable: " + name}
			}
			b.value = v
			return nil
		}
	}
	return &domerr.ScriptRuntime{Message: name + " is not defined"}
}

// DeclareVarScoped implements `var`'s function-scope (not block-scope)
// hoisting by walking outward to the nearest function/global environment
// flagged as such.
func (e *Environment) DeclareVarScoped(name string, v Value) {
	target := e
	for target.parent != nil && !target.isFunctionScope {
		target = target.parent
	}
	if b, ok := target.vars[name]; ok {
		b.value = v
		return
	}
	target.vars[name] = &binding{value: v, mutable: true}
}

// FunctionChild returns a new scope nested under e, marked as a function
// boundary for DeclareVarScoped's hoist walk.
func (e *Environment) FunctionChild() *Environment {
	c := e.Child()
	c.isFunctionScope = true
	return c
}
