package parser

import (
	"testing"

	"github.com/qi-lang/qi/pkg/ast"
)

func parseOne(t *testing.T, src string) ast.Expr {
	t.Helper()
	expr, err := ParseExpr(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return expr
}

func symbolName(t *testing.T, e ast.Expr) string {
	t.Helper()
	sym, ok := e.(*ast.SymbolExpr)
	if !ok {
		t.Fatalf("expected symbol, got %T", e)
	}
	return sym.Name
}

func TestPipeInsertsAsLastArgument(t *testing.T) {
	call, ok := parseOne(t, "x |> (f 1)").(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected call")
	}
	if symbolName(t, call.Callee) != "f" {
		t.Fatalf("unexpected callee")
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected two args, got %d", len(call.Args))
	}
	if _, ok := call.Args[0].(*ast.IntegerLiteral); !ok {
		t.Fatalf("existing argument must come first")
	}
	if symbolName(t, call.Args[1]) != "x" {
		t.Fatalf("piped value must be the final argument")
	}
}

func TestPipeChainsLeftAssociative(t *testing.T) {
	outer, ok := parseOne(t, "a |> f |> g").(*ast.CallExpr)
	if !ok || symbolName(t, outer.Callee) != "g" {
		t.Fatalf("expected g as the outer call")
	}
	inner, ok := outer.Args[0].(*ast.CallExpr)
	if !ok || symbolName(t, inner.Callee) != "f" {
		t.Fatalf("expected f as the inner call")
	}
	if symbolName(t, inner.Args[0]) != "a" {
		t.Fatalf("expected a at the chain head")
	}
}

func TestRailwayPipeLowersToStep(t *testing.T) {
	call, ok := parseOne(t, "1 |>? (inc)").(*ast.CallExpr)
	if !ok || symbolName(t, call.Callee) != "railway-step" {
		t.Fatalf("expected railway-step call")
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected value and stage, got %d args", len(call.Args))
	}
	fn, ok := call.Args[1].(*ast.FnExpr)
	if !ok || len(fn.Params) != 1 {
		t.Fatalf("call stage must become a unary function")
	}
	body, ok := fn.Body.(*ast.CallExpr)
	if !ok || symbolName(t, body.Callee) != "inc" {
		t.Fatalf("stage body must call the original callee")
	}
}

func TestRailwayPipeKeepsBareFunctionStage(t *testing.T) {
	call := parseOne(t, "1 |>? inc").(*ast.CallExpr)
	if symbolName(t, call.Args[1]) != "inc" {
		t.Fatalf("bare symbol stage must pass through untouched")
	}
}

func TestParallelPipeLowersToParmap(t *testing.T) {
	call, ok := parseOne(t, "xs ||> (double)").(*ast.CallExpr)
	if !ok || symbolName(t, call.Callee) != "go/parmap" {
		t.Fatalf("expected go/parmap call")
	}
	if _, ok := call.Args[0].(*ast.FnExpr); !ok {
		t.Fatalf("stage must come first as a function")
	}
	if symbolName(t, call.Args[1]) != "xs" {
		t.Fatalf("input sequence must be the second argument")
	}
}

func TestAndLowersToLetChain(t *testing.T) {
	let, ok := parseOne(t, "(and a b)").(*ast.LetExpr)
	if !ok || len(let.Bindings) != 1 {
		t.Fatalf("expected single-binding let")
	}
	branch, ok := let.Body.(*ast.IfExpr)
	if !ok {
		t.Fatalf("expected if body")
	}
	// and: a falsy first operand short-circuits to the temp itself.
	if symbolName(t, branch.Then) != "b" {
		t.Fatalf("then branch must continue the chain")
	}
	if symbolName(t, branch.Else) != symbolName(t, branch.Test) {
		t.Fatalf("else branch must return the failing operand")
	}
}

func TestOrLowersToLetChain(t *testing.T) {
	let := parseOne(t, "(or a b)").(*ast.LetExpr)
	branch := let.Body.(*ast.IfExpr)
	// or: a truthy first operand short-circuits to the temp itself.
	if symbolName(t, branch.Then) != symbolName(t, branch.Test) {
		t.Fatalf("then branch must return the succeeding operand")
	}
	if symbolName(t, branch.Else) != "b" {
		t.Fatalf("else branch must continue the chain")
	}
}

func TestEmptyAndOr(t *testing.T) {
	if b, ok := parseOne(t, "(and)").(*ast.BoolLiteral); !ok || !b.Value {
		t.Fatalf("(and) must read as true")
	}
	if _, ok := parseOne(t, "(or)").(*ast.NilLiteral); !ok {
		t.Fatalf("(or) must read as nil")
	}
}

func TestGoSugarWrapsBodyInThunk(t *testing.T) {
	call, ok := parseOne(t, "(go/go (+ 1 2) 3)").(*ast.CallExpr)
	if !ok || symbolName(t, call.Callee) != "go/run" {
		t.Fatalf("expected go/run call")
	}
	fn, ok := call.Args[0].(*ast.FnExpr)
	if !ok || len(fn.Params) != 0 {
		t.Fatalf("expected zero-parameter thunk")
	}
}

func TestMatchGuardFromElselessIf(t *testing.T) {
	m, ok := parseOne(t, "(match v x (if (> x 1) x) _ 0)").(*ast.MatchExpr)
	if !ok || len(m.Clauses) != 2 {
		t.Fatalf("expected two clauses")
	}
	if m.Clauses[0].Guard == nil {
		t.Fatalf("else-less if body must become a guard")
	}
	if symbolName(t, m.Clauses[0].Body) != "x" {
		t.Fatalf("guard extraction must keep the then branch as body")
	}
	if m.Clauses[1].Guard != nil {
		t.Fatalf("wildcard clause must stay unguarded")
	}
}

func TestMatchKeepsTwoArmedIfAsBody(t *testing.T) {
	m := parseOne(t, "(match v x (if (> x 1) x 0))").(*ast.MatchExpr)
	if m.Clauses[0].Guard != nil {
		t.Fatalf("a complete if is a body, not a guard")
	}
}

func TestUseModes(t *testing.T) {
	use := parseOne(t, "(use mathmod :only [square cube])").(*ast.UseExpr)
	if use.Mode != ast.UseOnly || len(use.Only) != 2 || use.Only[0] != "square" {
		t.Fatalf("unexpected :only parse %+v", use)
	}
	use = parseOne(t, "(use mathmod :as m)").(*ast.UseExpr)
	if use.Mode != ast.UseAs || use.Alias != "m" {
		t.Fatalf("unexpected :as parse %+v", use)
	}
	use = parseOne(t, "(use mathmod)").(*ast.UseExpr)
	if use.Mode != ast.UseAll {
		t.Fatalf("bare use must import everything")
	}
}

func TestFStringParts(t *testing.T) {
	fs, ok := parseOne(t, `f"hi {name}!"`).(*ast.FStringLiteral)
	if !ok || len(fs.Parts) != 3 {
		t.Fatalf("expected three parts, got %+v", fs)
	}
	lead, ok := fs.Parts[0].(*ast.StringLiteral)
	if !ok || lead.Value != "hi " {
		t.Fatalf("unexpected leading part %+v", fs.Parts[0])
	}
	if symbolName(t, fs.Parts[1]) != "name" {
		t.Fatalf("expected interpolated symbol")
	}
	tail := fs.Parts[2].(*ast.StringLiteral)
	if tail.Value != "!" {
		t.Fatalf("unexpected trailing part %q", tail.Value)
	}
}

func TestFStringNestedBraces(t *testing.T) {
	fs := parseOne(t, `f"v={(get {:a 1} :a)}"`).(*ast.FStringLiteral)
	if len(fs.Parts) != 2 {
		t.Fatalf("expected literal plus hole, got %d parts", len(fs.Parts))
	}
	if _, ok := fs.Parts[1].(*ast.CallExpr); !ok {
		t.Fatalf("expected call inside hole, got %T", fs.Parts[1])
	}
}

func TestQuotedIfStaysList(t *testing.T) {
	q := parseOne(t, "'(if x y)").(*ast.QuoteExpr)
	lst, ok := q.Form.(*ast.ListExpr)
	if !ok || len(lst.Elements) != 3 {
		t.Fatalf("quoted special form must stay a plain list")
	}
}

func TestMapLiteralNeedsEvenForms(t *testing.T) {
	if _, err := ParseExpr("{:a}"); err == nil {
		t.Fatalf("expected odd-form map literal to fail")
	}
}

func TestIsIncomplete(t *testing.T) {
	_, err := Parse("(def x")
	if !IsIncomplete(err) {
		t.Fatalf("open form must read as incomplete: %v", err)
	}
	_, err = Parse(`"half`)
	if !IsIncomplete(err) {
		t.Fatalf("open string must read as incomplete: %v", err)
	}
	_, err = Parse(")")
	if err == nil || IsIncomplete(err) {
		t.Fatalf("stray close paren is a hard error: %v", err)
	}
}

func TestParseReadsMultipleForms(t *testing.T) {
	forms, err := Parse("(def x 1) x")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(forms) != 2 {
		t.Fatalf("expected two forms, got %d", len(forms))
	}
	if _, ok := forms[0].(*ast.DefExpr); !ok {
		t.Fatalf("expected def form first, got %T", forms[0])
	}
}
