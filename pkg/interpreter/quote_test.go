package interpreter

import (
	"testing"

	"github.com/qi-lang/qi/pkg/runtime"
)

func TestQuoteScalars(t *testing.T) {
	expectInt(t, mustEval(t, "'42"), 42)
	sym, ok := mustEval(t, "'abc").(runtime.SymbolValue)
	if !ok || sym.Name != "abc" {
		t.Fatalf("expected symbol abc, got %v", sym)
	}
}

func TestQuoteSpecialFormStaysData(t *testing.T) {
	v := mustEval(t, "'(if x y)")
	lst, ok := v.(*runtime.ListValue)
	if !ok || len(lst.Elements) != 3 {
		t.Fatalf("expected three-element list, got %s", runtime.Print(v))
	}
	head, ok := lst.Elements[0].(runtime.SymbolValue)
	if !ok || head.Name != "if" {
		t.Fatalf("expected if symbol, got %s", runtime.Print(lst.Elements[0]))
	}
}

func TestQuasiquoteWithoutHolesIsQuote(t *testing.T) {
	expectEqual(t, mustEval(t, "`(1 2 3)"), mustEval(t, "'(1 2 3)"))
}

func TestQuasiquoteUnquote(t *testing.T) {
	expectEqual(t, mustEval(t, "`(1 2 ,(+ 1 2))"), intList(1, 2, 3))
}

func TestQuasiquoteSplice(t *testing.T) {
	expectEqual(t, mustEval(t, "`(1 ,@[2 3] 4)"), intList(1, 2, 3, 4))
	expectEqual(t, mustEval(t, "(def xs '(2 3)) `(1 ,@xs 4)"), intList(1, 2, 3, 4))
}

func TestSpliceRequiresSequence(t *testing.T) {
	expectCode(t, evalErr(t, "`(,@1)"), runtime.CodeBadSpliceTarget)
}

func TestUnquoteOutsideQuasiquote(t *testing.T) {
	expectCode(t, evalErr(t, ",x"), runtime.CodeUnquoteOutside)
	expectCode(t, evalErr(t, "(unquote 1)"), runtime.CodeUnquoteOutside)
}

func TestNestedQuasiquoteDelaysInnerUnquote(t *testing.T) {
	// Depth two: the inner unquote stays syntax rather than evaluating x.
	v := mustEval(t, "``(a ,x)")
	if v.Kind() != runtime.KindList {
		t.Fatalf("expected list, got %s", runtime.Print(v))
	}
	if out := runtime.Print(v); out != "(quasiquote (a (unquote x)))" {
		t.Fatalf("unexpected nested expansion %s", out)
	}
}

func TestMacroReceivesUnevaluatedForms(t *testing.T) {
	// A function argument position would fail on missing-name; the macro
	// never evaluates it.
	v := mustEval(t, "(mac ignore-it [form] nil) (ignore-it (missing-name 1))")
	if v.Kind() != runtime.KindNil {
		t.Fatalf("expected nil, got %s", runtime.Print(v))
	}
}

func TestMacroExpansionEvaluatesInCallerScope(t *testing.T) {
	v := mustEval(t, `
(mac twice [form] ` + "`" + `(+ ,form ,form))
(def base 4)
(twice (* base 2))`)
	expectInt(t, v, 16)
}

func TestMacroUvarHygiene(t *testing.T) {
	// The expansion's temporary binding must not capture the caller's tmp.
	v := mustEval(t, `
(mac my-or [a b]
  (let [tmp (uvar)]
    ` + "`" + `(let [,tmp ,a] (if ,tmp ,tmp ,b))))
(def tmp 99)
(my-or false tmp)`)
	expectInt(t, v, 99)
}

func TestUvarValuesAreUnique(t *testing.T) {
	if v := mustEval(t, "(= (uvar) (uvar))"); v.(runtime.BoolValue).Val {
		t.Fatalf("expected distinct uvars")
	}
	if v := mustEval(t, "(variable? (uvar))"); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected uvar to satisfy variable?")
	}
}

func TestMacroExpandingToDefinition(t *testing.T) {
	v := mustEval(t, `
(mac defconst [n v] ` + "`" + `(def ,n ,v))
(defconst answer 42)
answer`)
	expectInt(t, v, 42)
}

func TestMacroBuildsMatchForm(t *testing.T) {
	v := mustEval(t, `
(mac nil-safe [form] ` + "`" + `(match ,form nil :empty x x))
(nil-safe (+ 1 2))`)
	expectInt(t, v, 3)
}

func TestQuasiquoteVector(t *testing.T) {
	v := mustEval(t, "`[1 ,(+ 1 1)]")
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(1, 2).Elements})
}

func TestSpliceIntoVector(t *testing.T) {
	v := mustEval(t, "`[0 ,@[1 2]]")
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(0, 1, 2).Elements})
}
