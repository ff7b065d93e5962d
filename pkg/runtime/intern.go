package runtime

import (
	"sync"
	"sync/atomic"
)

// Process-wide intern tables for symbols and keywords, plus the monotonic
// uvar counter. All of this is initialized at startup and safe to hit from
// every evaluator clone.

type internTable struct {
	mu    sync.RWMutex
	names map[string]string
}

func newInternTable() *internTable {
	return &internTable{names: make(map[string]string)}
}

// intern returns the canonical copy of name, inserting it on first sight.
func (t *internTable) intern(name string) string {
	t.mu.RLock()
	if canonical, ok := t.names[name]; ok {
		t.mu.RUnlock()
		return canonical
	}
	t.mu.RUnlock()
	t.mu.Lock()
	defer t.mu.Unlock()
	if canonical, ok := t.names[name]; ok {
		return canonical
	}
	t.names[name] = name
	return name
}

var (
	symbolTable  = newInternTable()
	keywordTable = newInternTable()
	uvarCounter  atomic.Uint64
)

// InternSymbol returns a SymbolValue whose name went through the table.
func InternSymbol(name string) SymbolValue {
	return SymbolValue{Name: symbolTable.intern(name)}
}

// InternKeyword returns a KeywordValue whose name went through the table.
func InternKeyword(name string) KeywordValue {
	return KeywordValue{Name: keywordTable.intern(name)}
}

// NextUvar mints a fresh process-unique variable id.
func NextUvar() UvarValue {
	return UvarValue{ID: uvarCounter.Add(1)}
}
