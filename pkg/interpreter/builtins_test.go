package interpreter

import (
	"testing"

	"github.com/qi-lang/qi/pkg/runtime"
)

func TestArithmetic(t *testing.T) {
	expectInt(t, mustEval(t, "(+ 1 2 3)"), 6)
	expectInt(t, mustEval(t, "(- 10 3 2)"), 5)
	expectInt(t, mustEval(t, "(- 4)"), -4)
	expectInt(t, mustEval(t, "(* 2 3 4)"), 24)
	expectInt(t, mustEval(t, "(+)"), 0)
	expectInt(t, mustEval(t, "(*)"), 1)
}

func TestArithmeticPromotesToFloat(t *testing.T) {
	f, ok := mustEval(t, "(+ 1 2.5)").(runtime.FloatValue)
	if !ok || f.Val != 3.5 {
		t.Fatalf("expected 3.5, got %v", f)
	}
}

func TestIntegerDivisionTruncates(t *testing.T) {
	expectInt(t, mustEval(t, "(/ 7 2)"), 3)
	f, ok := mustEval(t, "(/ 7.0 2)").(runtime.FloatValue)
	if !ok || f.Val != 3.5 {
		t.Fatalf("expected 3.5, got %v", f)
	}
}

func TestDivisionByZero(t *testing.T) {
	if _, err := newTestInterp().EvalSource("(/ 1 0)"); err == nil {
		t.Fatalf("expected division by zero error")
	}
}

func TestMod(t *testing.T) {
	expectInt(t, mustEval(t, "(mod 10 3)"), 1)
	expectInt(t, mustEval(t, "(mod -1 5)"), 4)
}

func TestComparisonChains(t *testing.T) {
	if v := mustEval(t, "(< 1 2 3)"); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected (< 1 2 3) true")
	}
	if v := mustEval(t, "(< 1 3 2)"); v.(runtime.BoolValue).Val {
		t.Fatalf("expected (< 1 3 2) false")
	}
	if v := mustEval(t, "(>= 3 3 2)"); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected (>= 3 3 2) true")
	}
	if v := mustEval(t, `(< "a" "b")`); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected string comparison")
	}
}

func TestNonNumericArithmetic(t *testing.T) {
	if _, err := newTestInterp().EvalSource(`(+ 1 "two")`); err == nil {
		t.Fatalf("expected type error adding a string")
	}
}

func TestEqualityBuiltin(t *testing.T) {
	if v := mustEval(t, "(= 1 1.0)"); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected cross-numeric equality")
	}
	if v := mustEval(t, "(= [1 2] '(1 2))"); v.(runtime.BoolValue).Val {
		t.Fatalf("vector must not equal list")
	}
	if v := mustEval(t, "(not= 1 2)"); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected not=")
	}
	if v := mustEval(t, "(= {:a 1 :b 2} {:b 2 :a 1})"); !v.(runtime.BoolValue).Val {
		t.Fatalf("map equality must ignore insertion order")
	}
}

func TestTypeBuiltin(t *testing.T) {
	kw := mustEval(t, "(type [1])").(runtime.KeywordValue)
	if kw.Name != "vector" {
		t.Fatalf("expected :vector, got :%s", kw.Name)
	}
	kw = mustEval(t, "(type :x)").(runtime.KeywordValue)
	if kw.Name != "keyword" {
		t.Fatalf("expected :keyword, got :%s", kw.Name)
	}
}

func TestSequenceAccessors(t *testing.T) {
	expectInt(t, mustEval(t, "(first [1 2 3])"), 1)
	if v := mustEval(t, "(first [])"); v.Kind() != runtime.KindNil {
		t.Fatalf("expected nil first of empty")
	}
	expectEqual(t, mustEval(t, "(rest '(1 2 3))"), intList(2, 3))
	expectEqual(t, mustEval(t, "(rest [1 2 3])"), &runtime.VectorValue{Elements: intList(2, 3).Elements})
	expectInt(t, mustEval(t, "(last [1 2 3])"), 3)
	expectInt(t, mustEval(t, "(nth [10 20 30] 1)"), 20)
	expectInt(t, mustEval(t, "(nth [10] 5 -1)"), -1)
	expectCode(t, evalErr(t, "(nth [10] 5)"), runtime.CodeKeyMissing)
}

func TestConjRespectsCollectionKind(t *testing.T) {
	expectEqual(t, mustEval(t, "(conj [1 2] 3)"), &runtime.VectorValue{Elements: intList(1, 2, 3).Elements})
	expectEqual(t, mustEval(t, "(conj '(2 3) 1)"), intList(1, 2, 3))
	expectEqual(t, mustEval(t, "(conj nil 1)"), intList(1))
}

func TestMapOperations(t *testing.T) {
	expectInt(t, mustEval(t, "(get {:a 1} :a)"), 1)
	if v := mustEval(t, "(get {:a 1} :b)"); v.Kind() != runtime.KindNil {
		t.Fatalf("expected nil for missing key")
	}
	expectInt(t, mustEval(t, "(get {:a 1} :b 9)"), 9)
	expectInt(t, mustEval(t, "(get (assoc {} :k 5) :k)"), 5)
	if v := mustEval(t, "(contains? (dissoc {:a 1 :b 2} :a) :a)"); v.(runtime.BoolValue).Val {
		t.Fatalf("expected :a removed")
	}
	expectInt(t, mustEval(t, "(count (merge {:a 1} {:b 2 :a 3}))"), 2)
	expectInt(t, mustEval(t, "(get (merge {:a 1} {:a 3}) :a)"), 3)
}

func TestAssocRejectsFloatKey(t *testing.T) {
	expectCode(t, evalErr(t, "(assoc {} 1.5 :v)"), runtime.CodeInvalidMapKey)
}

func TestKeysPreserveInsertionOrder(t *testing.T) {
	v := mustEval(t, "(keys {:z 1 :a 2 :m 3})")
	lst := v.(*runtime.ListValue)
	names := []string{"z", "a", "m"}
	for idx, want := range names {
		kw := lst.Elements[idx].(runtime.KeywordValue)
		if kw.Name != want {
			t.Fatalf("expected key %s at %d, got %s", want, idx, kw.Name)
		}
	}
}

func TestRange(t *testing.T) {
	expectEqual(t, mustEval(t, "(range 4)"), intList(0, 1, 2, 3))
	expectEqual(t, mustEval(t, "(range 2 5)"), intList(2, 3, 4))
	expectEqual(t, mustEval(t, "(range 10 0 -3)"), intList(10, 7, 4, 1))
}

func TestTakeDropConcat(t *testing.T) {
	expectEqual(t, mustEval(t, "(take 2 [1 2 3])"), intList(1, 2))
	expectEqual(t, mustEval(t, "(drop 2 [1 2 3])"), intList(3))
	expectEqual(t, mustEval(t, "(concat [1] '(2) [3])"), intList(1, 2, 3))
	expectEqual(t, mustEval(t, "(flatten [1 [2 [3]] 4])"), intList(1, 2, 3, 4))
}

func TestZip(t *testing.T) {
	v := mustEval(t, "(zip [1 2 3] [:a :b])")
	lst := v.(*runtime.ListValue)
	if len(lst.Elements) != 2 {
		t.Fatalf("expected zip truncated to shortest, got %s", runtime.Print(v))
	}
	pair := lst.Elements[0].(*runtime.VectorValue)
	expectInt(t, pair.Elements[0], 1)
}

func TestSortAndSortBy(t *testing.T) {
	expectEqual(t, mustEval(t, "(sort [3 1 2])"), intList(1, 2, 3))
	expectEqual(t, mustEval(t, "(sort-by (fn [x] (- x)) [1 3 2])"), intList(3, 2, 1))
}

func TestGroupBy(t *testing.T) {
	v := mustEval(t, "(get (group-by even? [1 2 3 4]) true)")
	expectEqual(t, v, intList(2, 4))
}

func TestPartitionBy(t *testing.T) {
	v := mustEval(t, "(partition-by even? [2 4 1 3 6])")
	lst := v.(*runtime.ListValue)
	if len(lst.Elements) != 3 {
		t.Fatalf("expected three runs, got %s", runtime.Print(v))
	}
	expectEqual(t, lst.Elements[0], intList(2, 4))
	expectEqual(t, lst.Elements[1], intList(1, 3))
	expectEqual(t, lst.Elements[2], intList(6))
}

func TestDistinctAndInterleave(t *testing.T) {
	expectEqual(t, mustEval(t, "(distinct [1 2 1 3 2])"), intList(1, 2, 3))
	expectEqual(t, mustEval(t, "(interleave [1 3] [2 4])"), intList(1, 2, 3, 4))
}

func TestTakeWhileDropWhile(t *testing.T) {
	expectEqual(t, mustEval(t, "(take-while (fn [x] (< x 3)) [1 2 3 1])"), intList(1, 2))
	expectEqual(t, mustEval(t, "(drop-while (fn [x] (< x 3)) [1 2 3 1])"), intList(3, 1))
}

func TestHigherOrderBasics(t *testing.T) {
	expectEqual(t, mustEval(t, "(map inc [1 2 3])"), intList(2, 3, 4))
	expectEqual(t, mustEval(t, "(map + [1 2] [10 20])"), intList(11, 22))
	expectEqual(t, mustEval(t, "(filter even? [1 2 3 4])"), intList(2, 4))
	expectEqual(t, mustEval(t, "(remove even? [1 2 3 4])"), intList(1, 3))
	expectInt(t, mustEval(t, "(reduce + 0 [1 2 3])"), 6)
	expectInt(t, mustEval(t, "(reduce + [1 2 3])"), 6)
	expectInt(t, mustEval(t, "(apply + 1 [2 3])"), 6)
	expectInt(t, mustEval(t, "(identity 7)"), 7)
}

func TestEachReturnsNil(t *testing.T) {
	v := mustEval(t, `
(def seen (atom 0))
(def r (each (fn [x] (swap! seen + x)) [1 2 3]))
[r (deref seen)]`)
	vec := v.(*runtime.VectorValue)
	if vec.Elements[0].Kind() != runtime.KindNil {
		t.Fatalf("expected nil result from each")
	}
	expectInt(t, vec.Elements[1], 6)
}

func TestCombinators(t *testing.T) {
	expectInt(t, mustEval(t, "((partial + 1 2) 3)"), 6)
	expectInt(t, mustEval(t, "((comp inc inc) 1)"), 3)
	expectInt(t, mustEval(t, "((constantly 7) 1 2 3)"), 7)
	// Combinators are values: they pass through bindings and fn? sees them.
	if v := mustEval(t, "(fn? (partial + 1))"); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected partial to be callable")
	}
	expectEqual(t, mustEval(t, "(map (comp inc inc) [1 2])"), intList(3, 4))
}

func TestStringBuiltins(t *testing.T) {
	expectString(t, mustEval(t, `(str "a" 1 :k)`), "a1:k")
	expectEqual(t, mustEval(t, `(str/split "a,b,c" ",")`), &runtime.ListValue{Elements: []runtime.Value{
		runtime.StringValue{Val: "a"}, runtime.StringValue{Val: "b"}, runtime.StringValue{Val: "c"},
	}})
	expectString(t, mustEval(t, `(str/join "-" ["a" "b"])`), "a-b")
	expectString(t, mustEval(t, `(str/upper "abc")`), "ABC")
	expectString(t, mustEval(t, `(str/lower "AbC")`), "abc")
	expectString(t, mustEval(t, `(str/trim "  x  ")`), "x")
	expectString(t, mustEval(t, `(str/replace "aaa" "a" "b")`), "bbb")
	if v := mustEval(t, `(str/contains? "hello" "ell")`); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected contains")
	}
	if v := mustEval(t, `(str/starts-with? "hello" "he")`); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected starts-with")
	}
	if v := mustEval(t, `(str/ends-with? "hello" "lo")`); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected ends-with")
	}
	expectInt(t, mustEval(t, `(str/index-of "hello" "l")`), 2)
	expectInt(t, mustEval(t, `(str/index-of "hello" "z")`), -1)
}

func TestNameBuiltin(t *testing.T) {
	expectString(t, mustEval(t, "(name :key)"), "key")
	expectString(t, mustEval(t, "(name 'sym)"), "sym")
	expectString(t, mustEval(t, `(name "already")`), "already")
}

func TestStreams(t *testing.T) {
	expectEqual(t, mustEval(t, "(take-stream 5 (iterate inc 1))"), intList(1, 2, 3, 4, 5))
	expectEqual(t, mustEval(t, "(take-stream 4 (cycle [1 2]))"), intList(1, 2, 1, 2))
	expectEqual(t, mustEval(t, "(take-stream 3 (repeat :x))"), &runtime.ListValue{Elements: []runtime.Value{
		runtime.InternKeyword("x"), runtime.InternKeyword("x"), runtime.InternKeyword("x"),
	}})
	expectEqual(t, mustEval(t, "(realize (repeat 9 2))"), intList(9, 9))
	expectEqual(t, mustEval(t, "(realize (range-stream 3))"), intList(0, 1, 2))
	expectEqual(t, mustEval(t, "(realize (range-stream 1 7 2))"), intList(1, 3, 5))
}

func TestStreamIsNotRestartable(t *testing.T) {
	v := mustEval(t, `
(def s (range-stream 2))
[(stream-next s) (stream-next s) (stream-next s)]`)
	vec := v.(*runtime.VectorValue)
	expectInt(t, vec.Elements[0], 0)
	expectInt(t, vec.Elements[1], 1)
	if vec.Elements[2].Kind() != runtime.KindNil {
		t.Fatalf("expected exhausted stream to yield nil, got %s", runtime.Print(vec.Elements[2]))
	}
}

func TestRailwayHappyPath(t *testing.T) {
	expectInt(t, mustEval(t, "1 |>? (inc) |>? (inc)"), 3)
}

func TestRailwayShortCircuitsOnErrorValue(t *testing.T) {
	v := mustEval(t, `(error "bad input") |>? (inc)`)
	ev, ok := v.(runtime.ErrorValue)
	if !ok || ev.Message != "bad input" {
		t.Fatalf("expected error to pass through, got %s", runtime.Print(v))
	}
}

func TestRailwayReifiesStageFailure(t *testing.T) {
	v := mustEval(t, `1 |>? (fn [x] (throw "stage blew up")) |>? (inc)`)
	ev, ok := v.(runtime.ErrorValue)
	if !ok || ev.Message != "stage blew up" {
		t.Fatalf("expected reified stage error, got %s", runtime.Print(v))
	}
}

func TestParallelPipeOperator(t *testing.T) {
	expectEqual(t, mustEval(t, "[1 2 3] ||> (fn [x] (* x 10))"), intList(10, 20, 30))
}

func TestErrorConstructors(t *testing.T) {
	ev := mustEval(t, `(error "msg")`).(runtime.ErrorValue)
	if ev.Message != "msg" || ev.Code != "" {
		t.Fatalf("unexpected error value %s", runtime.Print(ev))
	}
	expectString(t, mustEval(t, `(error-message (error "msg"))`), "msg")
	if v := mustEval(t, `(error? (error "x"))`); !v.(runtime.BoolValue).Val {
		t.Fatalf("expected error? true")
	}
}

func TestPredicates(t *testing.T) {
	cases := map[string]bool{
		"(nil? nil)":      true,
		"(nil? false)":    false,
		"(int? 1)":        true,
		"(float? 1.5)":    true,
		"(number? 1.5)":   true,
		`(string? "s")`:   true,
		"(keyword? :k)":   true,
		"(symbol? 'k)":    true,
		"(list? '(1))":    true,
		"(vector? [1])":   true,
		"(map? {})":       true,
		"(fn? inc)":       true,
		"(empty? [])":     true,
		"(empty? [1])":    false,
		`(empty? "")`:     true,
		"(even? 2)":       true,
		"(odd? 3)":        true,
		"(zero? 0)":       true,
		"(true? true)":    true,
		"(false? false)":  true,
		"(true? 1)":       false,
		"(atom? (atom 1))": true,
	}
	for src, expected := range cases {
		v := mustEval(t, src)
		if v.(runtime.BoolValue).Val != expected {
			t.Fatalf("%s: expected %v", src, expected)
		}
	}
}

func TestPrStr(t *testing.T) {
	expectString(t, mustEval(t, `(pr-str "a" [1 2])`), `"a" [1 2]`)
}
