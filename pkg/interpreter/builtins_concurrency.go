package interpreter

import (
	"reflect"
	"runtime"
	"sync"
	"time"

	"github.com/qi-lang/qi/pkg/i18n"
	qrt "github.com/qi-lang/qi/pkg/runtime"
)

// Concurrency natives spawn OS threads that reenter the evaluator through
// cloned handles sharing the global frame. Promise producers never propagate
// user errors as Go errors: failures are reified as Error values inside the
// promise payload so the consumer decides.
func (i *Interpreter) registerConcurrencyBuiltins() {
	i.defineNative("go/chan", -1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		if len(args) == 0 {
			return qrt.NewUnboundedChannel(), nil
		}
		capacity, err := wantInt("go/chan", args[0])
		if err != nil {
			return nil, err
		}
		return qrt.NewChannel(int(capacity)), nil
	})
	i.defineNative("go/send!", 2, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		ch, err := wantChannel("go/send!", args[0])
		if err != nil {
			return nil, err
		}
		if !ch.Send(args[1]) {
			return nil, qrt.NewError(qrt.CodeChannelClosed, i18n.Msg("channel-closed"))
		}
		return qrt.NilValue{}, nil
	})
	i.defineNative("go/recv!", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		ch, err := wantChannel("go/recv!", args[0])
		if err != nil {
			return nil, err
		}
		v, ok := ch.Receive()
		if !ok {
			return nil, qrt.NewError(qrt.CodeChannelClosed, i18n.Msg("channel-closed"))
		}
		return v, nil
	})
	i.defineNative("go/try-recv!", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		ch, err := wantChannel("go/try-recv!", args[0])
		if err != nil {
			return nil, err
		}
		v, ok, closed := ch.TryReceive()
		if closed {
			return nil, qrt.NewError(qrt.CodeChannelClosed, i18n.Msg("channel-closed"))
		}
		if !ok {
			return qrt.NilValue{}, nil
		}
		return v, nil
	})
	i.defineNative("go/close!", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		ch, err := wantChannel("go/close!", args[0])
		if err != nil {
			return nil, err
		}
		ch.Close()
		return qrt.NilValue{}, nil
	})

	i.defineNative("go/run", 1, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		fn, err := wantCallable("go/run", args[0])
		if err != nil {
			return nil, err
		}
		return spawnPromise(ctx.Eval.CloneReentry(), fn, nil), nil
	})
	i.defineNative("go/await", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		p, err := wantChannel("go/await", args[0])
		if err != nil {
			return nil, err
		}
		v, ok := p.Receive()
		if !ok {
			return nil, qrt.NewError(qrt.CodePromiseFailed, i18n.Msg("promise-failed"))
		}
		return v, nil
	})
	i.defineNative("go/then", 2, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		p, err := wantChannel("go/then", args[0])
		if err != nil {
			return nil, err
		}
		fn, err := wantCallable("go/then", args[1])
		if err != nil {
			return nil, err
		}
		eval := ctx.Eval.CloneReentry()
		out := qrt.NewPromise()
		go func() {
			v, ok := p.Receive()
			if !ok {
				deliver(out, qrt.AsErrorValue(qrt.NewError(qrt.CodePromiseFailed, i18n.Msg("promise-failed"))))
				return
			}
			if _, failed := v.(qrt.ErrorValue); failed {
				deliver(out, v)
				return
			}
			result, err := eval.Apply(fn, []qrt.Value{v})
			if err != nil {
				deliver(out, qrt.AsErrorValue(err))
				return
			}
			deliver(out, result)
		}()
		return out, nil
	})
	i.defineNative("go/catch", 2, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		p, err := wantChannel("go/catch", args[0])
		if err != nil {
			return nil, err
		}
		fn, err := wantCallable("go/catch", args[1])
		if err != nil {
			return nil, err
		}
		eval := ctx.Eval.CloneReentry()
		out := qrt.NewPromise()
		go func() {
			v, ok := p.Receive()
			if !ok {
				v = qrt.AsErrorValue(qrt.NewError(qrt.CodePromiseFailed, i18n.Msg("promise-failed")))
			}
			failure, failed := v.(qrt.ErrorValue)
			if !failed {
				deliver(out, v)
				return
			}
			result, err := eval.Apply(fn, []qrt.Value{failure})
			if err != nil {
				deliver(out, qrt.AsErrorValue(err))
				return
			}
			deliver(out, result)
		}()
		return out, nil
	})
	i.defineNative("go/all", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		promises, err := wantSeq("go/all", args[0])
		if err != nil {
			return nil, err
		}
		out := make([]qrt.Value, len(promises))
		for idx, pv := range promises {
			p, err := wantChannel("go/all", pv)
			if err != nil {
				return nil, err
			}
			v, ok := p.Receive()
			if !ok {
				v = qrt.AsErrorValue(qrt.NewError(qrt.CodePromiseFailed, i18n.Msg("promise-failed")))
			}
			if _, failed := v.(qrt.ErrorValue); failed {
				return v, nil
			}
			out[idx] = v
		}
		return listValue(out), nil
	})
	i.defineNative("go/race", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		promises, err := wantSeq("go/race", args[0])
		if err != nil {
			return nil, err
		}
		cases := make([]reflect.SelectCase, 0, len(promises))
		for _, pv := range promises {
			p, err := wantChannel("go/race", pv)
			if err != nil {
				return nil, err
			}
			cases = append(cases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(p.RecvChan()),
			})
		}
		// Losers are not cancelled; their results are simply never observed.
		for len(cases) > 0 {
			chosen, recv, ok := reflect.Select(cases)
			if ok {
				return recv.Interface().(qrt.Value), nil
			}
			cases = append(cases[:chosen], cases[chosen+1:]...)
		}
		return nil, qrt.NewError(qrt.CodePromiseFailed, i18n.Msg("promise-failed"))
	})

	i.defineNative("go/pipeline", 3, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		n, err := wantInt("go/pipeline", args[0])
		if err != nil {
			return nil, err
		}
		fn, err := wantCallable("go/pipeline", args[1])
		if err != nil {
			return nil, err
		}
		in, err := wantChannel("go/pipeline", args[2])
		if err != nil {
			return nil, err
		}
		if n < 1 {
			n = 1
		}
		out := qrt.NewUnboundedChannel()
		var wg sync.WaitGroup
		for w := int64(0); w < n; w++ {
			wg.Add(1)
			eval := ctx.Eval.CloneReentry()
			go func() {
				defer wg.Done()
				for {
					v, ok := in.Receive()
					if !ok {
						return
					}
					result, err := eval.Apply(fn, []qrt.Value{v})
					if err != nil {
						out.Send(qrt.AsErrorValue(err))
						return
					}
					out.Send(result)
				}
			}()
		}
		go func() {
			wg.Wait()
			out.Close()
		}()
		return out, nil
	})
	i.defineNative("go/pipeline-map", 3, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		n, err := wantInt("go/pipeline-map", args[0])
		if err != nil {
			return nil, err
		}
		fn, err := wantCallable("go/pipeline-map", args[1])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("go/pipeline-map", args[2])
		if err != nil {
			return nil, err
		}
		out, err := parallelMap(ctx, n, fn, elems)
		if err != nil {
			return nil, err
		}
		return listValue(out), nil
	})
	i.defineNative("go/pipeline-filter", 3, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		n, err := wantInt("go/pipeline-filter", args[0])
		if err != nil {
			return nil, err
		}
		pred, err := wantCallable("go/pipeline-filter", args[1])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("go/pipeline-filter", args[2])
		if err != nil {
			return nil, err
		}
		verdicts, err := parallelMap(ctx, n, pred, elems)
		if err != nil {
			return nil, err
		}
		var out []qrt.Value
		for idx, verdict := range verdicts {
			if qrt.Truthy(verdict) {
				out = append(out, elems[idx])
			}
		}
		return listValue(out), nil
	})
	i.defineNative("go/parmap", 2, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		fn, err := wantCallable("go/parmap", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("go/parmap", args[1])
		if err != nil {
			return nil, err
		}
		out, err := parallelMap(ctx, int64(runtime.GOMAXPROCS(0)), fn, elems)
		if err != nil {
			return nil, err
		}
		return listValue(out), nil
	})

	i.defineNative("go/select!", 1, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		return i.evalSelect(ctx, args[0])
	})

	i.defineNative("go/make-scope", 0, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		return qrt.NewScope(), nil
	})
	i.defineNative("go/scope-go", 2, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		if _, ok := args[0].(*qrt.ScopeValue); !ok {
			return nil, typeErr("go/scope-go", "scope", args[0])
		}
		fn, err := wantCallable("go/scope-go", args[1])
		if err != nil {
			return nil, err
		}
		return spawnPromise(ctx.Eval.CloneReentry(), fn, nil), nil
	})
	i.defineNative("go/with-scope", 1, 0, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		fn, err := wantCallable("go/with-scope", args[0])
		if err != nil {
			return nil, err
		}
		scope := qrt.NewScope()
		defer scope.Cancel()
		return ctx.Eval.Apply(fn, []qrt.Value{scope})
	})
	i.defineNative("go/cancelled?", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		scope, ok := args[0].(*qrt.ScopeValue)
		if !ok {
			return nil, typeErr("go/cancelled?", "scope", args[0])
		}
		return boolValue(scope.Cancelled()), nil
	})
	i.defineNative("go/cancel!", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		scope, ok := args[0].(*qrt.ScopeValue)
		if !ok {
			return nil, typeErr("go/cancel!", "scope", args[0])
		}
		scope.Cancel()
		return qrt.NilValue{}, nil
	})
	i.defineNative("go/parallel-do", -1, 1, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		promises := make([]*qrt.ChannelValue, len(args))
		for idx, arg := range args {
			fn, err := wantCallable("go/parallel-do", arg)
			if err != nil {
				return nil, err
			}
			promises[idx] = spawnPromise(ctx.Eval.CloneReentry(), fn, nil)
		}
		out := make([]qrt.Value, len(promises))
		for idx, p := range promises {
			v, ok := p.Receive()
			if !ok {
				v = qrt.AsErrorValue(qrt.NewError(qrt.CodePromiseFailed, i18n.Msg("promise-failed")))
			}
			out[idx] = v
		}
		return &qrt.VectorValue{Elements: out}, nil
	})

	i.defineNative("atom", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		return qrt.NewAtom(args[0]), nil
	})
	i.defineNative("deref", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		a, ok := args[0].(*qrt.AtomValue)
		if !ok {
			return nil, typeErr("deref", "atom", args[0])
		}
		return a.Deref(), nil
	})
	i.defineNative("reset!", 2, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		a, ok := args[0].(*qrt.AtomValue)
		if !ok {
			return nil, typeErr("reset!", "atom", args[0])
		}
		a.Reset(args[1])
		return args[1], nil
	})
	i.defineNative("swap!", -1, 2, func(ctx *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		a, ok := args[0].(*qrt.AtomValue)
		if !ok {
			return nil, typeErr("swap!", "atom", args[0])
		}
		fn, err := wantCallable("swap!", args[1])
		if err != nil {
			return nil, err
		}
		extra := args[2:]
		return a.Swap(func(current qrt.Value) (qrt.Value, error) {
			callArgs := make([]qrt.Value, 0, len(extra)+1)
			callArgs = append(callArgs, current)
			callArgs = append(callArgs, extra...)
			return ctx.Eval.Apply(fn, callArgs)
		})
	})

	i.defineNative("sleep", 1, 0, func(_ *qrt.NativeCallContext, args []qrt.Value) (qrt.Value, error) {
		ms, err := wantInt("sleep", args[0])
		if err != nil {
			return nil, err
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return qrt.NilValue{}, nil
	})
}

// spawnPromise runs fn on a fresh OS thread and delivers its result, or its
// reified error, into a capacity-1 channel.
func spawnPromise(eval qrt.Reentry, fn qrt.Value, callArgs []qrt.Value) *qrt.ChannelValue {
	p := qrt.NewPromise()
	go func() {
		v, err := eval.Apply(fn, callArgs)
		if err != nil {
			deliver(p, qrt.AsErrorValue(err))
			return
		}
		deliver(p, v)
	}()
	return p
}

func deliver(p *qrt.ChannelValue, v qrt.Value) {
	p.Send(v)
	p.Close()
}

// parallelMap fans elems over n workers and returns results in input order.
// The first worker error aborts the collection.
func parallelMap(ctx *qrt.NativeCallContext, n int64, fn qrt.Value, elems []qrt.Value) ([]qrt.Value, error) {
	if n < 1 {
		n = 1
	}
	if int64(len(elems)) < n {
		n = int64(len(elems))
	}
	if len(elems) == 0 {
		return nil, nil
	}

	type job struct {
		idx int
		val qrt.Value
	}
	jobs := make(chan job)
	results := make([]qrt.Value, len(elems))
	errs := make(chan error, n)
	var wg sync.WaitGroup
	for w := int64(0); w < n; w++ {
		wg.Add(1)
		eval := ctx.Eval.CloneReentry()
		go func() {
			defer wg.Done()
			for j := range jobs {
				v, err := eval.Apply(fn, []qrt.Value{j.val})
				if err != nil {
					errs <- err
					return
				}
				results[j.idx] = v
			}
		}()
	}
	for idx, el := range elems {
		select {
		case jobs <- job{idx: idx, val: el}:
		case err := <-errs:
			close(jobs)
			wg.Wait()
			return nil, err
		}
	}
	close(jobs)
	wg.Wait()
	select {
	case err := <-errs:
		return nil, err
	default:
	}
	return results, nil
}

// evalSelect implements select! over a sequence of [channel handler] cases
// plus at most one [:timeout millis handler] case.
func (i *Interpreter) evalSelect(ctx *qrt.NativeCallContext, casesVal qrt.Value) (qrt.Value, error) {
	caseForms, err := wantSeq("go/select!", casesVal)
	if err != nil {
		return nil, err
	}
	var selectCases []reflect.SelectCase
	var handlers []qrt.Value
	timeoutIdx := -1
	for _, form := range caseForms {
		parts, ok := qrt.SequenceElements(form)
		if !ok || len(parts) < 2 {
			return nil, typeErr("go/select!", "[channel handler] or [:timeout millis handler]", form)
		}
		if kw, isKw := parts[0].(qrt.KeywordValue); isKw && kw.Name == "timeout" {
			if timeoutIdx >= 0 {
				return nil, qrt.NewError(qrt.CodeTypeMismatch, i18n.Msg("select-timeout-cases"))
			}
			if len(parts) != 3 {
				return nil, typeErr("go/select!", "[:timeout millis handler]", form)
			}
			ms, err := wantInt("go/select!", parts[1])
			if err != nil {
				return nil, err
			}
			handler, err := wantCallable("go/select!", parts[2])
			if err != nil {
				return nil, err
			}
			timeoutIdx = len(selectCases)
			selectCases = append(selectCases, reflect.SelectCase{
				Dir:  reflect.SelectRecv,
				Chan: reflect.ValueOf(time.After(time.Duration(ms) * time.Millisecond)),
			})
			handlers = append(handlers, handler)
			continue
		}
		ch, err := wantChannel("go/select!", parts[0])
		if err != nil {
			return nil, err
		}
		handler, err := wantCallable("go/select!", parts[1])
		if err != nil {
			return nil, err
		}
		selectCases = append(selectCases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(ch.RecvChan()),
		})
		handlers = append(handlers, handler)
	}
	if len(selectCases) == 0 {
		return qrt.NilValue{}, nil
	}

	chosen, recv, ok := reflect.Select(selectCases)
	if chosen == timeoutIdx {
		return ctx.Eval.Apply(handlers[chosen], nil)
	}
	var received qrt.Value = qrt.NilValue{}
	if ok {
		received = recv.Interface().(qrt.Value)
	}
	return ctx.Eval.Apply(handlers[chosen], []qrt.Value{received})
}
