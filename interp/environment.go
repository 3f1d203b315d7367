package interp

import "github.com/Brahmastra-Labs/logicaffeine-sub002/intern"

// Environment binds identifiers to runtime values across nested lexical
// scopes: a stack of per-scope maps. Push opens a fresh map, Get walks from
// the innermost scope outward, and Pop drops the innermost map, so leaving
// a block (If/While/Repeat/function call) makes whatever it shadowed
// visible again. There is no undo log; lookup cost grows with scope depth.
type Environment struct {
	scopes []map[intern.Symbol]Value
}

// NewEnvironment returns an Environment with a single top-level scope.
func NewEnvironment() *Environment {
	return &Environment{scopes: []map[intern.Symbol]Value{{}}}
}

// Push opens a new nested scope.
func (e *Environment) Push() {
	e.scopes = append(e.scopes, map[intern.Symbol]Value{})
}

// Pop discards the innermost scope.
func (e *Environment) Pop() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// Define binds sym to v in the innermost scope.
func (e *Environment) Define(sym intern.Symbol, v Value) {
	e.scopes[len(e.scopes)-1][sym] = v
}

// Get looks sym up from the innermost scope outward.
func (e *Environment) Get(sym intern.Symbol) (Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][sym]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set rebinds sym to v in whichever scope already holds it, mirroring
// "Set" semantics (assignment to an existing mutable binding) rather than
// shadowing a new one.
func (e *Environment) Set(sym intern.Symbol, v Value) bool {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if _, ok := e.scopes[i][sym]; ok {
			e.scopes[i][sym] = v
			return true
		}
	}
	return false
}
