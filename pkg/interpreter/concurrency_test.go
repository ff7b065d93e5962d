package interpreter

import (
	"strings"
	"testing"

	"github.com/qi-lang/qi/pkg/runtime"
)

func TestBoundedChannelFIFO(t *testing.T) {
	v := mustEval(t, `
(def ch (go/chan 3))
(go/send! ch 1)
(go/send! ch 2)
[(go/recv! ch) (go/recv! ch)]`)
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(1, 2).Elements})
}

func TestTryRecvOnEmptyChannel(t *testing.T) {
	v := mustEval(t, "(go/try-recv! (go/chan 1))")
	if v.Kind() != runtime.KindNil {
		t.Fatalf("expected nil from empty channel, got %s", runtime.Print(v))
	}
}

func TestClosedChannelDrainsThenFails(t *testing.T) {
	v := mustEval(t, `
(def ch (go/chan 2))
(go/send! ch 1)
(go/close! ch)
(go/recv! ch)`)
	expectInt(t, v, 1)
	expectCode(t, evalErr(t, `
(def ch (go/chan 1))
(go/close! ch)
(go/recv! ch)`), runtime.CodeChannelClosed)
}

func TestSendOnClosedChannelFails(t *testing.T) {
	expectCode(t, evalErr(t, `
(def ch (go/chan 1))
(go/close! ch)
(go/send! ch 1)`), runtime.CodeChannelClosed)
}

func TestUnboundedChannelBuffersSends(t *testing.T) {
	v := mustEval(t, `
(def ch (go/chan))
(go/send! ch 1)
(go/send! ch 2)
(go/send! ch 3)
[(go/recv! ch) (go/recv! ch) (go/recv! ch)]`)
	expectEqual(t, v, &runtime.VectorValue{Elements: intList(1, 2, 3).Elements})
}

func TestRunAndAwait(t *testing.T) {
	expectInt(t, mustEval(t, "(go/await (go/run (fn [] (+ 20 22))))"), 42)
}

func TestGoSugarWrapsBody(t *testing.T) {
	expectInt(t, mustEval(t, "(go/await (go/go (+ 1 2)))"), 3)
}

func TestAwaitReifiesThreadFailure(t *testing.T) {
	v := mustEval(t, `(go/await (go/run (fn [] (throw "boom"))))`)
	ev, ok := v.(runtime.ErrorValue)
	if !ok || ev.Message != "boom" {
		t.Fatalf("expected reified boom error, got %s", runtime.Print(v))
	}
}

func TestThenChainsOnSuccess(t *testing.T) {
	expectInt(t, mustEval(t, "(go/await (go/then (go/go 3) (fn [x] (* x 2))))"), 6)
}

func TestThenSkipsOnFailure(t *testing.T) {
	v := mustEval(t, `(go/await (go/then (go/go (throw "bad")) (fn [x] (* x 2))))`)
	ev, ok := v.(runtime.ErrorValue)
	if !ok || ev.Message != "bad" {
		t.Fatalf("expected bad error to bypass then, got %s", runtime.Print(v))
	}
}

func TestCatchRecoversFailure(t *testing.T) {
	v := mustEval(t, `
(go/await (go/catch (go/go (throw "bad"))
                    (fn [e] (error-message e))))`)
	expectString(t, v, "bad")
}

func TestCatchPassesSuccessThrough(t *testing.T) {
	expectInt(t, mustEval(t, "(go/await (go/catch (go/go 9) (fn [e] 0)))"), 9)
}

func TestAllCollectsInOrder(t *testing.T) {
	v := mustEval(t, `
(go/all [(go/go (do (sleep 20) 1)) (go/go 2) (go/go 3)])`)
	expectEqual(t, v, intList(1, 2, 3))
}

func TestAllShortCircuitsOnFailure(t *testing.T) {
	v := mustEval(t, `(go/all [(go/go 1) (go/go (throw "nope")) (go/go 3)])`)
	ev, ok := v.(runtime.ErrorValue)
	if !ok || ev.Message != "nope" {
		t.Fatalf("expected nope error, got %s", runtime.Print(v))
	}
}

func TestRaceReturnsFirstSettled(t *testing.T) {
	v := mustEval(t, `
(go/race [(go/go (do (sleep 500) :slow)) (go/go :fast)])`)
	kw, ok := v.(runtime.KeywordValue)
	if !ok || kw.Name != "fast" {
		t.Fatalf("expected :fast, got %s", runtime.Print(v))
	}
}

func TestPipelineOverChannel(t *testing.T) {
	v := mustEval(t, `
(def in (go/chan 3))
(go/send! in 1)
(go/send! in 2)
(go/send! in 3)
(go/close! in)
(def out (go/pipeline 2 (fn [x] (* x 10)) in))
(sort [(go/recv! out) (go/recv! out) (go/recv! out)])`)
	expectEqual(t, v, intList(10, 20, 30))
}

func TestPipelineClosesOutputAfterDrain(t *testing.T) {
	expectCode(t, evalErr(t, `
(def in (go/chan 1))
(go/send! in 1)
(go/close! in)
(def out (go/pipeline 1 identity in))
(go/recv! out)
(go/recv! out)`), runtime.CodeChannelClosed)
}

func TestPipelineFilterKeepsOrder(t *testing.T) {
	v := mustEval(t, "(go/pipeline-filter 3 even? (range 10))")
	expectEqual(t, v, intList(0, 2, 4, 6, 8))
}

func TestPipelineMapErrorAborts(t *testing.T) {
	err := evalErr(t, `(go/pipeline-map 2 (fn [x] (throw "worker down")) [1 2 3])`)
	if !strings.Contains(err.Error(), "worker down") {
		t.Fatalf("expected worker error, got %v", err)
	}
}

func TestSelectTakesReadyChannel(t *testing.T) {
	v := mustEval(t, `
(def ch (go/chan 1))
(go/send! ch 5)
(go/select! [[ch (fn [v] (* v 2))]])`)
	expectInt(t, v, 10)
}

func TestSelectTimeoutFires(t *testing.T) {
	v := mustEval(t, `
(go/select! [[(go/chan) (fn [v] v)]
             [:timeout 10 (fn [] :late)]])`)
	kw, ok := v.(runtime.KeywordValue)
	if !ok || kw.Name != "late" {
		t.Fatalf("expected :late, got %s", runtime.Print(v))
	}
}

func TestSelectRejectsTwoTimeouts(t *testing.T) {
	expectCode(t, evalErr(t, `
(go/select! [[:timeout 1 (fn [] :a)]
             [:timeout 2 (fn [] :b)]])`), runtime.CodeTypeMismatch)
}

func TestWithScopeCancelsOnExit(t *testing.T) {
	v := mustEval(t, "(go/with-scope (fn [s] (go/cancelled? s)))")
	if v.(runtime.BoolValue).Val {
		t.Fatalf("scope must stay live inside with-scope")
	}
}

func TestCancelMarksScope(t *testing.T) {
	v := mustEval(t, `
(def s (go/make-scope))
(go/cancel! s)
(go/cancelled? s)`)
	if !v.(runtime.BoolValue).Val {
		t.Fatalf("expected cancelled scope")
	}
}

func TestScopeGoProducesPromise(t *testing.T) {
	v := mustEval(t, `
(def s (go/make-scope))
(go/await (go/scope-go s (fn [] 7)))`)
	expectInt(t, v, 7)
}

func TestParallelDoReifiesMixedResults(t *testing.T) {
	v := mustEval(t, `(go/parallel-do (fn [] 1) (fn [] (throw "oops")))`)
	vec, ok := v.(*runtime.VectorValue)
	if !ok || len(vec.Elements) != 2 {
		t.Fatalf("expected two-slot vector, got %s", runtime.Print(v))
	}
	expectInt(t, vec.Elements[0], 1)
	ev, ok := vec.Elements[1].(runtime.ErrorValue)
	if !ok || ev.Message != "oops" {
		t.Fatalf("expected oops error in slot two, got %s", runtime.Print(vec.Elements[1]))
	}
}

func TestAtomSwapIsLinearizable(t *testing.T) {
	v := mustEval(t, `
(def a (atom 0))
(go/pipeline-map 8 (fn [_] (swap! a inc)) (range 40))
(deref a)`)
	expectInt(t, v, 40)
}

func TestAtomResetAndDeref(t *testing.T) {
	v := mustEval(t, `
(def a (atom 1))
(reset! a 5)
(swap! a + 2)
(deref a)`)
	expectInt(t, v, 7)
}
