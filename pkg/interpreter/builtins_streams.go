package interpreter

import (
	"github.com/qi-lang/qi/pkg/runtime"
)

// Stream builtins produce lazy sequences stepped on demand. realize and
// take-stream are the only consumers; realize on an infinite stream hangs by
// documented behavior.
func (i *Interpreter) registerStreamBuiltins() {
	i.defineNative("iterate", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("iterate", args[0])
		if err != nil {
			return nil, err
		}
		eval := ctx.Eval.CloneReentry()
		next := args[1]
		first := true
		return runtime.NewStream(func() (runtime.Value, bool) {
			if first {
				first = false
				return next, true
			}
			v, err := eval.Apply(fn, []runtime.Value{next})
			if err != nil {
				// Surface the failure to the consumer, then stop stepping.
				return runtime.AsErrorValue(err), true
			}
			next = v
			return next, true
		}), nil
	})
	i.defineNative("cycle", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("cycle", args[0])
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return runtime.NewStream(func() (runtime.Value, bool) { return nil, false }), nil
		}
		src := make([]runtime.Value, len(elems))
		copy(src, elems)
		idx := 0
		return runtime.NewStream(func() (runtime.Value, bool) {
			v := src[idx]
			idx = (idx + 1) % len(src)
			return v, true
		}), nil
	})
	i.defineNative("repeat", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		v := args[0]
		if len(args) == 1 {
			return runtime.NewStream(func() (runtime.Value, bool) { return v, true }), nil
		}
		n, err := wantInt("repeat", args[1])
		if err != nil {
			return nil, err
		}
		remaining := n
		return runtime.NewStream(func() (runtime.Value, bool) {
			if remaining <= 0 {
				return nil, false
			}
			remaining--
			return v, true
		}), nil
	})
	i.defineNative("range-stream", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		start, step := int64(0), int64(1)
		hasEnd := false
		end := int64(0)
		var err error
		switch len(args) {
		case 0:
		case 1:
			hasEnd = true
			end, err = wantInt("range-stream", args[0])
		case 2:
			hasEnd = true
			if start, err = wantInt("range-stream", args[0]); err == nil {
				end, err = wantInt("range-stream", args[1])
			}
		default:
			hasEnd = true
			if start, err = wantInt("range-stream", args[0]); err == nil {
				if end, err = wantInt("range-stream", args[1]); err == nil {
					step, err = wantInt("range-stream", args[2])
				}
			}
		}
		if err != nil {
			return nil, err
		}
		if step == 0 {
			return nil, runtime.NewError(runtime.CodeTypeMismatch, "range-stream: step must not be zero")
		}
		n := start
		return runtime.NewStream(func() (runtime.Value, bool) {
			if hasEnd && ((step > 0 && n >= end) || (step < 0 && n <= end)) {
				return nil, false
			}
			v := intValue(n)
			n += step
			return v, true
		}), nil
	})
	i.defineNative("stream-next", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantStream("stream-next", args[0])
		if err != nil {
			return nil, err
		}
		v, ok := s.Next()
		if !ok {
			return runtime.NilValue{}, nil
		}
		if ev, isErr := v.(runtime.ErrorValue); isErr {
			return nil, runtime.ErrorValueToError(ev)
		}
		return v, nil
	})
	i.defineNative("take-stream", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		n, err := wantInt("take-stream", args[0])
		if err != nil {
			return nil, err
		}
		s, err := wantStream("take-stream", args[1])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for int64(len(out)) < n {
			v, ok := s.Next()
			if !ok {
				break
			}
			if ev, isErr := v.(runtime.ErrorValue); isErr {
				return nil, runtime.ErrorValueToError(ev)
			}
			out = append(out, v)
		}
		return listValue(out), nil
	})
	i.defineNative("realize", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantStream("realize", args[0])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for {
			v, ok := s.Next()
			if !ok {
				break
			}
			if ev, isErr := v.(runtime.ErrorValue); isErr {
				return nil, runtime.ErrorValueToError(ev)
			}
			out = append(out, v)
		}
		return listValue(out), nil
	})
}

func wantStream(native string, v runtime.Value) (*runtime.StreamValue, error) {
	s, ok := v.(*runtime.StreamValue)
	if !ok {
		return nil, typeErr(native, "stream", v)
	}
	return s, nil
}
