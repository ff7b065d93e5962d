package runtime

import (
	"fmt"
	"sync"

	"github.com/qi-lang/qi/pkg/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindInteger
	KindFloat
	KindString
	KindBytes
	KindSymbol
	KindKeyword
	KindUvar
	KindList
	KindVector
	KindMap
	KindFunction
	KindMacro
	KindNativeFunction
	KindCombinator
	KindAtom
	KindChannel
	KindScope
	KindStream
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindSymbol:
		return "symbol"
	case KindKeyword:
		return "keyword"
	case KindUvar:
		return "uvar"
	case KindList:
		return "list"
	case KindVector:
		return "vector"
	case KindMap:
		return "map"
	case KindFunction:
		return "function"
	case KindMacro:
		return "macro"
	case KindNativeFunction:
		return "native_function"
	case KindCombinator:
		return "combinator"
	case KindAtom:
		return "atom"
	case KindChannel:
		return "channel"
	case KindScope:
		return "scope"
	case KindStream:
		return "stream"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

type BoolValue struct {
	Val bool
}

func (v BoolValue) Kind() Kind { return KindBool }

type IntegerValue struct {
	Val int64
}

func (v IntegerValue) Kind() Kind { return KindInteger }

type FloatValue struct {
	Val float64
}

func (v FloatValue) Kind() Kind { return KindFloat }

type StringValue struct {
	Val string
}

func (v StringValue) Kind() Kind { return KindString }

// BytesValue carries an immutable byte slice shared between holders.
type BytesValue struct {
	Val []byte
}

func (v BytesValue) Kind() Kind { return KindBytes }

// SymbolValue holds an interned symbol name. Construct through Intern so the
// process-wide table observes every name.
type SymbolValue struct {
	Name string
}

func (v SymbolValue) Kind() Kind { return KindSymbol }

// KeywordValue holds an interned keyword name (without the leading colon).
type KeywordValue struct {
	Name string
}

func (v KeywordValue) Kind() Kind { return KindKeyword }

// UvarValue is a process-unique identifier minted for macro hygiene.
type UvarValue struct {
	ID uint64
}

func (v UvarValue) Kind() Kind { return KindUvar }

//-----------------------------------------------------------------------------
// Collections
//-----------------------------------------------------------------------------

type ListValue struct {
	Elements []Value
}

func (v *ListValue) Kind() Kind { return KindList }

type VectorValue struct {
	Elements []Value
}

func (v *VectorValue) Kind() Kind { return KindVector }

// MapKeyKind restricts the types usable as map keys.
type MapKeyKind int

const (
	MapKeyString MapKeyKind = iota
	MapKeySymbol
	MapKeyKeyword
	MapKeyInteger
)

// MapKey is the comparable projection of a key value.
type MapKey struct {
	Kind MapKeyKind
	Str  string
	Int  int64
}

// MapEntry pairs the original key value with its mapped value so printing and
// iteration preserve the key's runtime kind.
type MapEntry struct {
	Key   Value
	Value Value
}

// MapValue is an insertion-ordered mapping. Update operations copy; shared
// holders never observe mutation.
type MapValue struct {
	Entries []MapEntry
	Index   map[MapKey]int
}

func (v *MapValue) Kind() Kind { return KindMap }

// NewMap builds an empty map value.
func NewMap() *MapValue {
	return &MapValue{Index: make(map[MapKey]int)}
}

// KeyFor projects a value onto a MapKey. Floats are rejected per the
// InvalidMapKey rule; every other non-key kind is rejected as well.
func KeyFor(v Value) (MapKey, bool) {
	switch k := v.(type) {
	case StringValue:
		return MapKey{Kind: MapKeyString, Str: k.Val}, true
	case SymbolValue:
		return MapKey{Kind: MapKeySymbol, Str: k.Name}, true
	case KeywordValue:
		return MapKey{Kind: MapKeyKeyword, Str: k.Name}, true
	case IntegerValue:
		return MapKey{Kind: MapKeyInteger, Int: k.Val}, true
	default:
		return MapKey{}, false
	}
}

// Get looks a key value up without copying.
func (v *MapValue) Get(key Value) (Value, bool) {
	mk, ok := KeyFor(key)
	if !ok {
		return nil, false
	}
	idx, ok := v.Index[mk]
	if !ok {
		return nil, false
	}
	return v.Entries[idx].Value, true
}

// Assoc returns a copy with key bound to val.
func (v *MapValue) Assoc(key Value, val Value) (*MapValue, bool) {
	mk, ok := KeyFor(key)
	if !ok {
		return nil, false
	}
	out := v.clone()
	if idx, exists := out.Index[mk]; exists {
		out.Entries[idx] = MapEntry{Key: key, Value: val}
		return out, true
	}
	out.Index[mk] = len(out.Entries)
	out.Entries = append(out.Entries, MapEntry{Key: key, Value: val})
	return out, true
}

// Dissoc returns a copy without key. Removing an absent key is a no-op copy.
func (v *MapValue) Dissoc(key Value) (*MapValue, bool) {
	mk, ok := KeyFor(key)
	if !ok {
		return nil, false
	}
	out := NewMap()
	for _, entry := range v.Entries {
		emk, _ := KeyFor(entry.Key)
		if emk == mk {
			continue
		}
		out.Index[emk] = len(out.Entries)
		out.Entries = append(out.Entries, entry)
	}
	return out, true
}

func (v *MapValue) clone() *MapValue {
	out := &MapValue{
		Entries: make([]MapEntry, len(v.Entries)),
		Index:   make(map[MapKey]int, len(v.Index)),
	}
	copy(out.Entries, v.Entries)
	for k, idx := range v.Index {
		out.Index[k] = idx
	}
	return out
}

// Len reports the entry count.
func (v *MapValue) Len() int { return len(v.Entries) }

//-----------------------------------------------------------------------------
// Functions, macros, combinators
//-----------------------------------------------------------------------------

// FunctionValue is a closure: parameter patterns, a body expression, and the
// captured defining frame held by handle.
type FunctionValue struct {
	Name     string
	Params   []ast.Pattern
	Body     ast.Expr
	Closure  *Environment
	Variadic bool
}

func (v *FunctionValue) Kind() Kind { return KindFunction }

// MacroValue has the same shape as a function but receives unevaluated
// argument forms.
type MacroValue struct {
	Name     string
	Params   []ast.Pattern
	Body     ast.Expr
	Closure  *Environment
	Variadic bool
}

func (v *MacroValue) Kind() Kind { return KindMacro }

// NativeCallContext hands natives the hooks they need to reenter evaluation.
// Reentrant natives receive an evaluator clone sharing the global frame.
type NativeCallContext struct {
	Eval Reentry
}

// Reentry is implemented by the interpreter; it keeps pkg/runtime free of an
// interpreter import cycle.
type Reentry interface {
	Apply(callable Value, args []Value) (Value, error)
	CloneReentry() Reentry
}

type NativeFunc func(ctx *NativeCallContext, args []Value) (Value, error)

// NativeFunctionValue wraps a host function. Arity < 0 means variadic; for
// variadic natives MinArity is enforced instead.
type NativeFunctionValue struct {
	Name     string
	Arity    int
	MinArity int
	Impl     NativeFunc
}

func (v NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// CombinatorKind distinguishes the builtin function combinators.
type CombinatorKind int

const (
	CombinatorPartial CombinatorKind = iota
	CombinatorComp
	CombinatorConstantly
)

// CombinatorValue is the first-class representation of partial/comp/constantly
// results. Application is resolved by the evaluator's apply path.
type CombinatorValue struct {
	Which CombinatorKind
	// Partial: Target + BoundArgs. Comp: Fns applied right to left.
	// Constantly: Const.
	Target    Value
	BoundArgs []Value
	Fns       []Value
	Const     Value
}

func (v *CombinatorValue) Kind() Kind { return KindCombinator }

// IsCallable reports whether apply can invoke the value.
func IsCallable(v Value) bool {
	switch v.(type) {
	case *FunctionValue, *MacroValue, NativeFunctionValue, *CombinatorValue:
		return true
	default:
		return false
	}
}

//-----------------------------------------------------------------------------
// Mutable handles
//-----------------------------------------------------------------------------

// AtomValue is a mutable cell with serialized reads and writes. Swap holds
// the write lock across the update function, which is enough for single-atom
// linearizability.
type AtomValue struct {
	mu  sync.RWMutex
	val Value
}

func NewAtom(initial Value) *AtomValue {
	return &AtomValue{val: initial}
}

func (v *AtomValue) Kind() Kind { return KindAtom }

func (v *AtomValue) Deref() Value {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.val
}

func (v *AtomValue) Reset(val Value) {
	v.mu.Lock()
	v.val = val
	v.mu.Unlock()
}

// Swap applies fn to the current value under the lock and stores the result.
func (v *AtomValue) Swap(fn func(Value) (Value, error)) (Value, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := fn(v.val)
	if err != nil {
		return nil, err
	}
	v.val = next
	return next, nil
}

// ScopeValue carries an advisory cancel flag. Workers poll Cancelled and exit
// voluntarily; nothing is forced.
type ScopeValue struct {
	mu        sync.RWMutex
	cancelled bool
}

func NewScope() *ScopeValue { return &ScopeValue{} }

func (v *ScopeValue) Kind() Kind { return KindScope }

func (v *ScopeValue) Cancel() {
	v.mu.Lock()
	v.cancelled = true
	v.mu.Unlock()
}

func (v *ScopeValue) Cancelled() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cancelled
}

// StreamValue is a stateful, non-restartable lazy sequence. Iteration holds
// an exclusive lock since next mutates producer state.
type StreamValue struct {
	mu   sync.Mutex
	next func() (Value, bool)
	done bool
}

// NewStream constructs a stream from a step function. The step returns
// (value, true) while values remain and (nil, false) once exhausted.
func NewStream(step func() (Value, bool)) *StreamValue {
	return &StreamValue{next: step}
}

func (v *StreamValue) Kind() Kind { return KindStream }

// Next advances the stream once.
func (v *StreamValue) Next() (Value, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.done || v.next == nil {
		return nil, false
	}
	val, ok := v.next()
	if !ok {
		v.done = true
		v.next = nil
	}
	return val, ok
}

//-----------------------------------------------------------------------------
// Errors as values
//-----------------------------------------------------------------------------

// ErrorValue is the first-class error consumed by the railway operators and
// reified inside promise payloads.
type ErrorValue struct {
	Code    string
	Message string
}

func (v ErrorValue) Kind() Kind { return KindError }

// Truthy reports the language truth rule: nil and false only are falsy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil:
		return false
	case NilValue:
		return false
	case BoolValue:
		return t.Val
	default:
		return true
	}
}
