package runtime

import (
	"sort"
	"sync"
)

// Environment provides lexical scoping for Qi runtime values. Frames are
// shared between closures; each frame guards its bindings with its own
// read-write lock so evaluator clones on other goroutines stay safe.
type Environment struct {
	values map[string]Value
	parent *Environment
	// root stops DefineGlobal's outward walk. Module frames set it so a def
	// inside a module binds module-wide, not process-wide.
	root bool
	mu   sync.RWMutex
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Parent exposes the lexical parent (nil when global).
func (e *Environment) Parent() *Environment {
	return e.parent
}

// Define inserts or shadows a binding in the current frame.
func (e *Environment) Define(name string, value Value) {
	e.mu.Lock()
	e.values[name] = value
	e.mu.Unlock()
}

// DefineGlobal walks to the outermost frame (or the nearest root frame) and
// binds there. def uses this so top-level bindings are visible through every
// captured frame chain.
func (e *Environment) DefineGlobal(name string, value Value) {
	root := e
	for root.parent != nil && !root.root {
		root = root.parent
	}
	root.Define(name, value)
}

// MarkRoot makes this frame a DefineGlobal stop, used for module scopes.
func (e *Environment) MarkRoot() {
	e.root = true
}

// Get retrieves a binding, searching outward through the scope chain. The
// second result reports whether the name was found anywhere.
func (e *Environment) Get(name string) (Value, bool) {
	e.mu.RLock()
	if v, ok := e.values[name]; ok {
		e.mu.RUnlock()
		return v, true
	}
	parent := e.parent
	e.mu.RUnlock()
	if parent != nil {
		return parent.Get(name)
	}
	return nil, false
}

// Has reports whether the binding exists anywhere in the scope chain.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// HasInCurrentScope reports whether the binding exists in this frame.
func (e *Environment) HasInCurrentScope(name string) bool {
	e.mu.RLock()
	_, ok := e.values[name]
	e.mu.RUnlock()
	return ok
}

// Extend creates a child frame.
func (e *Environment) Extend() *Environment {
	return NewEnvironment(e)
}

// Keys returns this frame's bindings in sorted order (determinism in tests).
func (e *Environment) Keys() []string {
	e.mu.RLock()
	keys := make([]string, 0, len(e.values))
	for k := range e.values {
		keys = append(keys, k)
	}
	e.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// AllNames collects every name visible from this frame outward. Used for
// nearest-name suggestions on lookup misses.
func (e *Environment) AllNames() []string {
	seen := make(map[string]struct{})
	var names []string
	for frame := e; frame != nil; frame = frame.parent {
		frame.mu.RLock()
		for k := range frame.values {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				names = append(names, k)
			}
		}
		frame.mu.RUnlock()
	}
	sort.Strings(names)
	return names
}
