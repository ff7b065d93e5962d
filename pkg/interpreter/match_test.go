package interpreter

import (
	"testing"

	"github.com/qi-lang/qi/pkg/runtime"
)

func TestMatchLiteralAndWildcard(t *testing.T) {
	expectString(t, mustEval(t, `(match 2 1 "one" 2 "two" _ "other")`), "two")
	expectString(t, mustEval(t, `(match 9 1 "one" 2 "two" _ "other")`), "other")
	expectString(t, mustEval(t, `(match :b :a "a" :b "b")`), "b")
	expectString(t, mustEval(t, `(match nil nil "nothing" _ "something")`), "nothing")
}

func TestMatchBindsVariable(t *testing.T) {
	expectInt(t, mustEval(t, "(match 21 x (* x 2))"), 42)
}

func TestMatchFirstArmWins(t *testing.T) {
	expectString(t, mustEval(t, `(match 1 x "bound" 1 "literal")`), "bound")
}

func TestMatchNoArmFails(t *testing.T) {
	expectCode(t, evalErr(t, "(match 3 1 :one 2 :two)"), runtime.CodeNoMatchingPattern)
}

func TestMatchSequencePattern(t *testing.T) {
	expectInt(t, mustEval(t, "(match [1 2 3] [a b c] (+ a b c))"), 6)
	expectInt(t, mustEval(t, "(match '(4 5) (x y) (+ x y))"), 9)
}

func TestMatchSequenceLengthMustAgree(t *testing.T) {
	expectCode(t, evalErr(t, "(match [1 2] [a b c] a)"), runtime.CodeNoMatchingPattern)
}

func TestMatchRestKeepsInputKind(t *testing.T) {
	v := mustEval(t, "(match [1 2 3] [x & xs] xs)")
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(2, 3).Elements})
	v = mustEval(t, "(match '(1 2 3) (x & xs) xs)")
	expectEqual(t, v, intList(2, 3))
}

func TestMatchRestEmpty(t *testing.T) {
	v := mustEval(t, "(match [1] [x & xs] xs)")
	vec, ok := v.(*runtime.VectorValue)
	if !ok || len(vec.Elements) != 0 {
		t.Fatalf("expected empty vector rest, got %s", runtime.Print(v))
	}
}

func TestMatchMapPattern(t *testing.T) {
	expectInt(t, mustEval(t, "(match {:a 1 :b 2} {:a x} x)"), 1)
	// Extra keys in the subject are fine; missing keys are not.
	expectCode(t, evalErr(t, "(match {:a 1} {:missing x} x)"), runtime.CodeNoMatchingPattern)
}

func TestMatchMapPatternWithAs(t *testing.T) {
	v := mustEval(t, "(match {:a 1 :b 2} {:a x :as whole} [x (count whole)])")
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(1, 2).Elements})
}

func TestMatchAsPattern(t *testing.T) {
	v := mustEval(t, "(match [1 2] [a b] :as pair pair)")
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(1, 2).Elements})
}

func TestMatchOrPattern(t *testing.T) {
	expectString(t, mustEval(t, `(match 1 (or 1 2) "low" _ "high")`), "low")
	expectString(t, mustEval(t, `(match 2 (or 1 2) "low" _ "high")`), "low")
	expectString(t, mustEval(t, `(match 5 (or 1 2) "low" _ "high")`), "high")
}

func TestMatchOrRollsBackPartialBindings(t *testing.T) {
	// The one-element alternative fails after considering [a]; the second
	// alternative must start from a clean slate.
	expectInt(t, mustEval(t, "(match [1 2] (or [a] [a b]) b)"), 2)
}

func TestMatchOrFirstAlternativeWins(t *testing.T) {
	expectInt(t, mustEval(t, "(match 5 (or x 5) x)"), 5)
}

func TestMatchGuardFallsThrough(t *testing.T) {
	expectString(t, mustEval(t, `
(match 4
  x (if (even? x) "even")
  _ "odd")`), "even")
	expectString(t, mustEval(t, `
(match 3
  x (if (even? x) "even")
  _ "odd")`), "odd")
}

func TestMatchGuardFailureExhaustsArms(t *testing.T) {
	expectCode(t, evalErr(t, "(match 3 x (if (even? x) x))"), runtime.CodeNoMatchingPattern)
}

func TestTransformAppliesAfterMatch(t *testing.T) {
	expectInt(t, mustEval(t, "(match 5 x :as (fn [v] (* v 2)) x)"), 10)
}

func TestTransformGuardSeesOriginalValue(t *testing.T) {
	// The guard runs against the untransformed value: 5 < 10 passes and the
	// body then sees the doubled binding.
	expectInt(t, mustEval(t, "(match 5 x :as (fn [v] (* v 2)) (if (< x 10) x))"), 10)
	// If the transform ran before the guard, x would be 500 here and the
	// first arm would win.
	expectInt(t, mustEval(t, `
(match 5
  x :as (fn [v] (* v 100)) (if (> x 10) x)
  y y)`), 5)
}

func TestTransformInLetRunsImmediately(t *testing.T) {
	expectInt(t, mustEval(t, "(let [x :as (fn [v] (* v 3)) 7] x)"), 21)
}

func TestMatchNestedPatterns(t *testing.T) {
	v := mustEval(t, "(match [[1 2] {:k 3}] [[a b] {:k c}] (+ a b c))")
	expectInt(t, v, 6)
}

func TestMatchStringAndFloatLiterals(t *testing.T) {
	expectString(t, mustEval(t, `(match "hi" "hi" "greeting" _ "other")`), "greeting")
	expectString(t, mustEval(t, `(match 2.5 2.5 "half" _ "other")`), "half")
}
