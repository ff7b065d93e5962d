package ast

// Pattern is the destructuring tree used by match clauses, let bindings, and
// function parameters.
type Pattern interface {
	PatternType() string
}

type WildcardPattern struct{}

func (*WildcardPattern) PatternType() string { return "WildcardPattern" }

// LiteralPattern matches by exact equality. Literal is one of the literal
// Expr kinds (nil/bool/integer/float/string/keyword).
type LiteralPattern struct {
	Literal Expr
}

func (*LiteralPattern) PatternType() string { return "LiteralPattern" }

type VarPattern struct {
	Name string
}

func (*VarPattern) PatternType() string { return "VarPattern" }

// SeqKind records whether a sequence pattern was written as a list or a
// vector. Either form accepts either collection as input.
type SeqKind int

const (
	SeqList SeqKind = iota
	SeqVector
)

type SeqPattern struct {
	Kind     SeqKind
	Elements []Pattern
	// Rest binds remaining elements under this name; empty means exact arity.
	Rest string
}

func (*SeqPattern) PatternType() string { return "SeqPattern" }

type MapPatternEntry struct {
	Key     Expr
	Pattern Pattern
}

type MapPattern struct {
	Entries []MapPatternEntry
	// As captures the whole map; empty when absent.
	As string
}

func (*MapPattern) PatternType() string { return "MapPattern" }

type AsPattern struct {
	Inner Pattern
	Name  string
}

func (*AsPattern) PatternType() string { return "AsPattern" }

type OrPattern struct {
	Alternatives []Pattern
}

func (*OrPattern) PatternType() string { return "OrPattern" }

// TransformPattern always matches and binds Name to the value. The transform
// expression runs only after the clause guard passes; the guard still sees
// the original value.
type TransformPattern struct {
	Name      string
	Transform Expr
}

func (*TransformPattern) PatternType() string { return "TransformPattern" }
