package ast

// Expr is the parsed expression tree handed to the evaluator. The parser is
// the only producer; the evaluator and the quote reifier are the consumers.
type Expr interface {
	NodeType() string
}

//-----------------------------------------------------------------------------
// Literals
//-----------------------------------------------------------------------------

type NilLiteral struct{}

func (*NilLiteral) NodeType() string { return "NilLiteral" }

type BoolLiteral struct {
	Value bool
}

func (*BoolLiteral) NodeType() string { return "BoolLiteral" }

type IntegerLiteral struct {
	Value int64
}

func (*IntegerLiteral) NodeType() string { return "IntegerLiteral" }

type FloatLiteral struct {
	Value float64
}

func (*FloatLiteral) NodeType() string { return "FloatLiteral" }

type StringLiteral struct {
	Value string
}

func (*StringLiteral) NodeType() string { return "StringLiteral" }

// FStringLiteral interpolates embedded expressions between literal parts. A
// part is either a *StringLiteral or an arbitrary expression.
type FStringLiteral struct {
	Parts []Expr
}

func (*FStringLiteral) NodeType() string { return "FStringLiteral" }

type SymbolExpr struct {
	Name string
}

func (*SymbolExpr) NodeType() string { return "SymbolExpr" }

type KeywordExpr struct {
	Name string
}

func (*KeywordExpr) NodeType() string { return "KeywordExpr" }

//-----------------------------------------------------------------------------
// Collection literals
//-----------------------------------------------------------------------------

type ListExpr struct {
	Elements []Expr
}

func (*ListExpr) NodeType() string { return "ListExpr" }

type VectorExpr struct {
	Elements []Expr
}

func (*VectorExpr) NodeType() string { return "VectorExpr" }

type MapEntryExpr struct {
	Key   Expr
	Value Expr
}

type MapExpr struct {
	Entries []MapEntryExpr
}

func (*MapExpr) NodeType() string { return "MapExpr" }

//-----------------------------------------------------------------------------
// Core forms
//-----------------------------------------------------------------------------

type DefExpr struct {
	Name  string
	Value Expr
}

func (*DefExpr) NodeType() string { return "DefExpr" }

type FnExpr struct {
	// Name is non-empty for defn forms so the closure can call itself.
	Name     string
	Params   []Pattern
	Body     Expr
	Variadic bool
}

func (*FnExpr) NodeType() string { return "FnExpr" }

type LetBinding struct {
	Pattern Pattern
	Value   Expr
}

type LetExpr struct {
	Bindings []LetBinding
	Body     Expr
}

func (*LetExpr) NodeType() string { return "LetExpr" }

type IfExpr struct {
	Test Expr
	Then Expr
	Else Expr // nil when absent
}

func (*IfExpr) NodeType() string { return "IfExpr" }

type DoExpr struct {
	Body []Expr
}

func (*DoExpr) NodeType() string { return "DoExpr" }

type MatchClause struct {
	Pattern Pattern
	Guard   Expr // nil when absent
	Body    Expr
}

type MatchExpr struct {
	Subject Expr
	Clauses []MatchClause
}

func (*MatchExpr) NodeType() string { return "MatchExpr" }

type TryExpr struct {
	Body Expr
}

func (*TryExpr) NodeType() string { return "TryExpr" }

type DeferExpr struct {
	Body Expr
}

func (*DeferExpr) NodeType() string { return "DeferExpr" }

type CallExpr struct {
	Callee Expr
	Args   []Expr
}

func (*CallExpr) NodeType() string { return "CallExpr" }

//-----------------------------------------------------------------------------
// Quotation
//-----------------------------------------------------------------------------

type QuoteExpr struct {
	Form Expr
}

func (*QuoteExpr) NodeType() string { return "QuoteExpr" }

type QuasiquoteExpr struct {
	Form Expr
}

func (*QuasiquoteExpr) NodeType() string { return "QuasiquoteExpr" }

type UnquoteExpr struct {
	Form Expr
}

func (*UnquoteExpr) NodeType() string { return "UnquoteExpr" }

type UnquoteSpliceExpr struct {
	Form Expr
}

func (*UnquoteSpliceExpr) NodeType() string { return "UnquoteSpliceExpr" }

//-----------------------------------------------------------------------------
// Iteration
//-----------------------------------------------------------------------------

type LoopExpr struct {
	Bindings []LetBinding
	Body     Expr
}

func (*LoopExpr) NodeType() string { return "LoopExpr" }

type RecurExpr struct {
	Args []Expr
}

func (*RecurExpr) NodeType() string { return "RecurExpr" }

//-----------------------------------------------------------------------------
// Macros
//-----------------------------------------------------------------------------

type MacExpr struct {
	Name     string
	Params   []Pattern
	Body     Expr
	Variadic bool
}

func (*MacExpr) NodeType() string { return "MacExpr" }

//-----------------------------------------------------------------------------
// Modules
//-----------------------------------------------------------------------------

type ModuleExpr struct {
	Name string
}

func (*ModuleExpr) NodeType() string { return "ModuleExpr" }

type ExportExpr struct {
	Names []string
}

func (*ExportExpr) NodeType() string { return "ExportExpr" }

type UseMode int

const (
	UseOnly UseMode = iota
	UseAs
	UseAll
)

type UseExpr struct {
	Module string
	Mode   UseMode
	Only   []string
	Alias  string
}

func (*UseExpr) NodeType() string { return "UseExpr" }
