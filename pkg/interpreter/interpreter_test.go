package interpreter

import (
	"io"
	"log/slog"
	"testing"

	"github.com/qi-lang/qi/pkg/runtime"
)

func newTestInterp() *Interpreter {
	i := New()
	i.SetLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return i
}

func mustEval(t *testing.T, src string) runtime.Value {
	t.Helper()
	v, err := newTestInterp().EvalSource(src)
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func evalErr(t *testing.T, src string) error {
	t.Helper()
	_, err := newTestInterp().EvalSource(src)
	if err == nil {
		t.Fatalf("expected error evaluating %q", src)
	}
	return err
}

func expectCode(t *testing.T, err error, code string) {
	t.Helper()
	qe, ok := err.(*runtime.QiError)
	if !ok {
		t.Fatalf("expected QiError, got %T: %v", err, err)
	}
	if qe.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, qe.Code, qe.Message)
	}
}

func expectInt(t *testing.T, v runtime.Value, expected int64) {
	t.Helper()
	n, ok := v.(runtime.IntegerValue)
	if !ok {
		t.Fatalf("expected integer, got %s (%s)", v.Kind(), runtime.Print(v))
	}
	if n.Val != expected {
		t.Fatalf("expected %d, got %d", expected, n.Val)
	}
}

func expectString(t *testing.T, v runtime.Value, expected string) {
	t.Helper()
	s, ok := v.(runtime.StringValue)
	if !ok {
		t.Fatalf("expected string, got %s (%s)", v.Kind(), runtime.Print(v))
	}
	if s.Val != expected {
		t.Fatalf("expected %q, got %q", expected, s.Val)
	}
}

func intList(ns ...int64) *runtime.ListValue {
	out := &runtime.ListValue{}
	for _, n := range ns {
		out.Elements = append(out.Elements, runtime.IntegerValue{Val: n})
	}
	return out
}

func expectEqual(t *testing.T, v, expected runtime.Value) {
	t.Helper()
	if !runtime.Equal(v, expected) {
		t.Fatalf("expected %s, got %s", runtime.Print(expected), runtime.Print(v))
	}
}

func TestRecursiveFib(t *testing.T) {
	v := mustEval(t, `
(defn fib [n]
  (if (< n 2) n (+ (fib (- n 1)) (fib (- n 2)))))
(fib 10)`)
	expectInt(t, v, 55)
}

func TestGuardedMatchPicksMiddleArm(t *testing.T) {
	v := mustEval(t, `
(match 15
  x (if (< x 10) "small")
  x (if (< x 20) "medium")
  _ "large")`)
	expectString(t, v, "medium")
}

func TestPipelineFilterMap(t *testing.T) {
	v := mustEval(t, `[1 2 3 4 5] |> (filter (fn [x] (> x 2))) |> (map (fn [x] (* x x)))`)
	expectEqual(t, v, intList(9, 16, 25))
}

func TestChannelRoundTrip(t *testing.T) {
	v := mustEval(t, `
(def ch (go/chan))
(go/run (fn [] (go/send! ch 42)))
(go/recv! ch)`)
	expectInt(t, v, 42)
}

func TestPipelineMapPreservesOrder(t *testing.T) {
	v := mustEval(t, `(go/pipeline-map 4 (fn [x] (* x x)) [1 2 3 4 5])`)
	expectEqual(t, v, intList(1, 4, 9, 16, 25))
}

func TestWhenMacro(t *testing.T) {
	v := mustEval(t, `
(mac when [test & body]
  ` + "`" + `(if ,test (do ,@body) nil))
(when true 1 2 3)`)
	expectInt(t, v, 3)
}

func TestWhenMacroFalseBranch(t *testing.T) {
	v := mustEval(t, `
(mac when [test & body]
  ` + "`" + `(if ,test (do ,@body) nil))
(when false 1 2 3)`)
	if v.Kind() != runtime.KindNil {
		t.Fatalf("expected nil, got %s", runtime.Print(v))
	}
}
