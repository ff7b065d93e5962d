package interpreter

import (
	"github.com/qi-lang/qi/pkg/runtime"
)

func (i *Interpreter) registerHOFBuiltins() {
	i.defineNative("map", -1, 2, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("map", args[0])
		if err != nil {
			return nil, err
		}
		seqs := make([][]runtime.Value, len(args)-1)
		shortest := -1
		for idx, arg := range args[1:] {
			elems, err := wantSeq("map", arg)
			if err != nil {
				return nil, err
			}
			seqs[idx] = elems
			if shortest < 0 || len(elems) < shortest {
				shortest = len(elems)
			}
		}
		out := make([]runtime.Value, shortest)
		for row := 0; row < shortest; row++ {
			callArgs := make([]runtime.Value, len(seqs))
			for col := range seqs {
				callArgs[col] = seqs[col][row]
			}
			v, err := ctx.Eval.Apply(fn, callArgs)
			if err != nil {
				return nil, err
			}
			out[row] = v
		}
		return listValue(out), nil
	})
	i.defineNative("filter", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("filter", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("filter", args[1])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, el := range elems {
			keep, err := ctx.Eval.Apply(fn, []runtime.Value{el})
			if err != nil {
				return nil, err
			}
			if runtime.Truthy(keep) {
				out = append(out, el)
			}
		}
		return listValue(out), nil
	})
	i.defineNative("remove", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("remove", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("remove", args[1])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, el := range elems {
			drop, err := ctx.Eval.Apply(fn, []runtime.Value{el})
			if err != nil {
				return nil, err
			}
			if !runtime.Truthy(drop) {
				out = append(out, el)
			}
		}
		return listValue(out), nil
	})
	i.defineNative("reduce", -1, 2, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("reduce", args[0])
		if err != nil {
			return nil, err
		}
		var acc runtime.Value
		var elems []runtime.Value
		if len(args) == 2 {
			elems, err = wantSeq("reduce", args[1])
			if err != nil {
				return nil, err
			}
			if len(elems) == 0 {
				return runtime.NilValue{}, nil
			}
			acc, elems = elems[0], elems[1:]
		} else {
			acc = args[1]
			elems, err = wantSeq("reduce", args[2])
			if err != nil {
				return nil, err
			}
		}
		for _, el := range elems {
			acc, err = ctx.Eval.Apply(fn, []runtime.Value{acc, el})
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	})
	i.defineNative("each", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("each", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("each", args[1])
		if err != nil {
			return nil, err
		}
		for _, el := range elems {
			if _, err := ctx.Eval.Apply(fn, []runtime.Value{el}); err != nil {
				return nil, err
			}
		}
		return runtime.NilValue{}, nil
	})
	i.defineNative("apply", -1, 2, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("apply", args[0])
		if err != nil {
			return nil, err
		}
		last, err := wantSeq("apply", args[len(args)-1])
		if err != nil {
			return nil, err
		}
		callArgs := make([]runtime.Value, 0, len(args)-2+len(last))
		callArgs = append(callArgs, args[1:len(args)-1]...)
		callArgs = append(callArgs, last...)
		return ctx.Eval.Apply(fn, callArgs)
	})
	i.defineNative("identity", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return args[0], nil
	})
	i.defineNative("partial", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("partial", args[0])
		if err != nil {
			return nil, err
		}
		bound := make([]runtime.Value, len(args)-1)
		copy(bound, args[1:])
		return &runtime.CombinatorValue{
			Which:     runtime.CombinatorPartial,
			Target:    fn,
			BoundArgs: bound,
		}, nil
	})
	i.defineNative("comp", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fns := make([]runtime.Value, len(args))
		for idx, arg := range args {
			fn, err := wantCallable("comp", arg)
			if err != nil {
				return nil, err
			}
			fns[idx] = fn
		}
		return &runtime.CombinatorValue{Which: runtime.CombinatorComp, Fns: fns}, nil
	})
	i.defineNative("constantly", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return &runtime.CombinatorValue{Which: runtime.CombinatorConstantly, Const: args[0]}, nil
	})
}
