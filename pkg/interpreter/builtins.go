package interpreter

import (
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

// registerBuiltins installs every native into the global frame. Natives that
// reenter user code receive a cloned evaluator through the call context.
func (i *Interpreter) registerBuiltins() {
	i.registerCoreBuiltins()
	i.registerCollectionBuiltins()
	i.registerAlgorithmBuiltins()
	i.registerStringBuiltins()
	i.registerHOFBuiltins()
	i.registerStreamBuiltins()
	i.registerConcurrencyBuiltins()
	i.registerIOBuiltins()
}

// defineNative registers a native. arity < 0 means variadic with minArity
// enforced instead.
func (i *Interpreter) defineNative(name string, arity, minArity int, impl runtime.NativeFunc) {
	i.global.Define(name, runtime.NativeFunctionValue{
		Name:     name,
		Arity:    arity,
		MinArity: minArity,
		Impl:     impl,
	})
	i.builtinNames[name] = struct{}{}
}

//-----------------------------------------------------------------------------
// Argument helpers: checks are local to each native and name it in errors.
//-----------------------------------------------------------------------------

func typeErr(native, want string, got runtime.Value) error {
	return runtime.NewError(runtime.CodeTypeMismatch, i18n.Msg("type-mismatch", native, want, got.Kind().String()))
}

func wantNumber(native string, v runtime.Value) (float64, bool, error) {
	switch t := v.(type) {
	case runtime.IntegerValue:
		return float64(t.Val), true, nil
	case runtime.FloatValue:
		return t.Val, false, nil
	default:
		return 0, false, runtime.NewError(runtime.CodeTypeMismatch, i18n.Msg("non-numeric", native, v.Kind().String()))
	}
}

func wantInt(native string, v runtime.Value) (int64, error) {
	t, ok := v.(runtime.IntegerValue)
	if !ok {
		return 0, typeErr(native, "integer", v)
	}
	return t.Val, nil
}

func wantString(native string, v runtime.Value) (string, error) {
	t, ok := v.(runtime.StringValue)
	if !ok {
		return "", typeErr(native, "string", v)
	}
	return t.Val, nil
}

func wantSeq(native string, v runtime.Value) ([]runtime.Value, error) {
	elems, ok := runtime.SequenceElements(v)
	if !ok {
		return nil, typeErr(native, "list or vector", v)
	}
	return elems, nil
}

func wantMap(native string, v runtime.Value) (*runtime.MapValue, error) {
	m, ok := v.(*runtime.MapValue)
	if !ok {
		return nil, typeErr(native, "map", v)
	}
	return m, nil
}

func wantChannel(native string, v runtime.Value) (*runtime.ChannelValue, error) {
	ch, ok := v.(*runtime.ChannelValue)
	if !ok {
		return nil, typeErr(native, "channel", v)
	}
	return ch, nil
}

func wantCallable(native string, v runtime.Value) (runtime.Value, error) {
	if !runtime.IsCallable(v) {
		return nil, runtime.NewError(runtime.CodeNotAFunction, i18n.Msg("not-a-function", runtime.Print(v)))
	}
	return v, nil
}

func listValue(elems []runtime.Value) runtime.Value {
	return &runtime.ListValue{Elements: elems}
}

func boolValue(b bool) runtime.Value { return runtime.BoolValue{Val: b} }

func intValue(n int64) runtime.Value { return runtime.IntegerValue{Val: n} }

// compareValues orders two values for sorting and comparison chains. Numbers
// order numerically across integer/float; strings and keywords
// lexicographically.
func compareValues(native string, a, b runtime.Value) (int, error) {
	af, _, errA := wantNumber(native, a)
	if errA == nil {
		bf, _, errB := wantNumber(native, b)
		if errB != nil {
			return 0, errB
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	switch at := a.(type) {
	case runtime.StringValue:
		bt, ok := b.(runtime.StringValue)
		if !ok {
			return 0, typeErr(native, "string", b)
		}
		return compareOrdered(at.Val, bt.Val), nil
	case runtime.KeywordValue:
		bt, ok := b.(runtime.KeywordValue)
		if !ok {
			return 0, typeErr(native, "keyword", b)
		}
		return compareOrdered(at.Name, bt.Name), nil
	default:
		return 0, typeErr(native, "number, string, or keyword", a)
	}
}

func compareOrdered(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

//-----------------------------------------------------------------------------
// Core: arithmetic, comparison, predicates
//-----------------------------------------------------------------------------

func (i *Interpreter) registerCoreBuiltins() {
	i.defineNative("+", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return numericFold("+", args, 0, func(a, b float64) float64 { return a + b }, func(a, b int64) int64 { return a + b })
	})
	i.defineNative("*", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return numericFold("*", args, 1, func(a, b float64) float64 { return a * b }, func(a, b int64) int64 { return a * b })
	})
	i.defineNative("-", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if len(args) == 1 {
			return numericFold("-", []runtime.Value{intValue(0), args[0]}, 0, func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b })
		}
		return numericFoldFrom("-", args, func(a, b float64) float64 { return a - b }, func(a, b int64) int64 { return a - b })
	})
	i.defineNative("/", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return divideValues(args)
	})
	i.defineNative("mod", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		a, err := wantInt("mod", args[0])
		if err != nil {
			return nil, err
		}
		b, err := wantInt("mod", args[1])
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, runtime.NewError(runtime.CodeTypeMismatch, "mod: division by zero")
		}
		m := a % b
		if (m < 0 && b > 0) || (m > 0 && b < 0) {
			m += b
		}
		return intValue(m), nil
	})
	i.defineNative("inc", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if n, ok := args[0].(runtime.IntegerValue); ok {
			return intValue(n.Val + 1), nil
		}
		f, _, err := wantNumber("inc", args[0])
		if err != nil {
			return nil, err
		}
		return runtime.FloatValue{Val: f + 1}, nil
	})
	i.defineNative("dec", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if n, ok := args[0].(runtime.IntegerValue); ok {
			return intValue(n.Val - 1), nil
		}
		f, _, err := wantNumber("dec", args[0])
		if err != nil {
			return nil, err
		}
		return runtime.FloatValue{Val: f - 1}, nil
	})

	comparison := func(name string, test func(int) bool) {
		i.defineNative(name, -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			for idx := 0; idx+1 < len(args); idx++ {
				c, err := compareValues(name, args[idx], args[idx+1])
				if err != nil {
					return nil, err
				}
				if !test(c) {
					return boolValue(false), nil
				}
			}
			return boolValue(true), nil
		})
	}
	comparison("<", func(c int) bool { return c < 0 })
	comparison("<=", func(c int) bool { return c <= 0 })
	comparison(">", func(c int) bool { return c > 0 })
	comparison(">=", func(c int) bool { return c >= 0 })

	i.defineNative("=", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		for idx := 0; idx+1 < len(args); idx++ {
			if !runtime.Equal(args[idx], args[idx+1]) {
				return boolValue(false), nil
			}
		}
		return boolValue(true), nil
	})
	i.defineNative("not=", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		for idx := 0; idx+1 < len(args); idx++ {
			if !runtime.Equal(args[idx], args[idx+1]) {
				return boolValue(true), nil
			}
		}
		return boolValue(false), nil
	})
	i.defineNative("not", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return boolValue(!runtime.Truthy(args[0])), nil
	})

	predicate := func(name string, test func(runtime.Value) bool) {
		i.defineNative(name, 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
			return boolValue(test(args[0])), nil
		})
	}
	predicate("nil?", func(v runtime.Value) bool { return v.Kind() == runtime.KindNil })
	predicate("bool?", func(v runtime.Value) bool { return v.Kind() == runtime.KindBool })
	predicate("int?", func(v runtime.Value) bool { return v.Kind() == runtime.KindInteger })
	predicate("float?", func(v runtime.Value) bool { return v.Kind() == runtime.KindFloat })
	predicate("number?", func(v runtime.Value) bool {
		return v.Kind() == runtime.KindInteger || v.Kind() == runtime.KindFloat
	})
	predicate("string?", func(v runtime.Value) bool { return v.Kind() == runtime.KindString })
	predicate("keyword?", func(v runtime.Value) bool { return v.Kind() == runtime.KindKeyword })
	predicate("symbol?", func(v runtime.Value) bool { return v.Kind() == runtime.KindSymbol })
	predicate("list?", func(v runtime.Value) bool { return v.Kind() == runtime.KindList })
	predicate("vector?", func(v runtime.Value) bool { return v.Kind() == runtime.KindVector })
	predicate("map?", func(v runtime.Value) bool { return v.Kind() == runtime.KindMap })
	predicate("fn?", runtime.IsCallable)
	predicate("error?", func(v runtime.Value) bool { return v.Kind() == runtime.KindError })
	predicate("atom?", func(v runtime.Value) bool { return v.Kind() == runtime.KindAtom })
	predicate("chan?", func(v runtime.Value) bool { return v.Kind() == runtime.KindChannel })
	predicate("stream?", func(v runtime.Value) bool { return v.Kind() == runtime.KindStream })
	predicate("scope?", func(v runtime.Value) bool { return v.Kind() == runtime.KindScope })
	predicate("variable?", func(v runtime.Value) bool {
		return v.Kind() == runtime.KindSymbol || v.Kind() == runtime.KindUvar
	})
	predicate("true?", func(v runtime.Value) bool {
		b, ok := v.(runtime.BoolValue)
		return ok && b.Val
	})
	predicate("false?", func(v runtime.Value) bool {
		b, ok := v.(runtime.BoolValue)
		return ok && !b.Val
	})
	predicate("empty?", func(v runtime.Value) bool {
		switch t := v.(type) {
		case runtime.NilValue:
			return true
		case *runtime.ListValue:
			return len(t.Elements) == 0
		case *runtime.VectorValue:
			return len(t.Elements) == 0
		case *runtime.MapValue:
			return t.Len() == 0
		case runtime.StringValue:
			return t.Val == ""
		default:
			return false
		}
	})
	predicate("even?", func(v runtime.Value) bool {
		n, ok := v.(runtime.IntegerValue)
		return ok && n.Val%2 == 0
	})
	predicate("odd?", func(v runtime.Value) bool {
		n, ok := v.(runtime.IntegerValue)
		return ok && n.Val%2 != 0
	})
	predicate("zero?", func(v runtime.Value) bool {
		n, ok := v.(runtime.IntegerValue)
		return ok && n.Val == 0
	})

	i.defineNative("type", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		return runtime.InternKeyword(args[0].Kind().String()), nil
	})
	i.defineNative("uvar", 0, 0, func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		return runtime.NextUvar(), nil
	})
	i.defineNative("error", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		msg, err := wantString("error", args[0])
		if err != nil {
			return nil, err
		}
		out := runtime.ErrorValue{Message: msg}
		if len(args) > 1 {
			code, err := wantString("error", args[1])
			if err != nil {
				return nil, err
			}
			out = runtime.ErrorValue{Code: code, Message: msg}
		}
		return out, nil
	})
	i.defineNative("error-message", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		ev, ok := args[0].(runtime.ErrorValue)
		if !ok {
			return nil, typeErr("error-message", "error", args[0])
		}
		return runtime.StringValue{Val: ev.Message}, nil
	})
	i.defineNative("throw", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if ev, ok := args[0].(runtime.ErrorValue); ok {
			return nil, runtime.ErrorValueToError(ev)
		}
		msg, err := wantString("throw", args[0])
		if err != nil {
			return nil, err
		}
		return nil, runtime.NewError("", msg)
	})

	// Railway stage: errors short-circuit, anything thrown by the stage is
	// reified so the next stage can short-circuit on it.
	i.defineNative("railway-step", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if ev, ok := args[0].(runtime.ErrorValue); ok {
			return ev, nil
		}
		fn, err := wantCallable("railway-step", args[1])
		if err != nil {
			return nil, err
		}
		v, err := ctx.Eval.Apply(fn, []runtime.Value{args[0]})
		if err != nil {
			return runtime.AsErrorValue(err), nil
		}
		return v, nil
	})
}

func numericFold(native string, args []runtime.Value, identity int64, ff func(a, b float64) float64, fi func(a, b int64) int64) (runtime.Value, error) {
	if len(args) == 0 {
		return intValue(identity), nil
	}
	return numericFoldFrom(native, args, ff, fi)
}

func numericFoldFrom(native string, args []runtime.Value, ff func(a, b float64) float64, fi func(a, b int64) int64) (runtime.Value, error) {
	accF, accIsInt, err := wantNumber(native, args[0])
	if err != nil {
		return nil, err
	}
	var accI int64
	if accIsInt {
		accI = args[0].(runtime.IntegerValue).Val
	}
	for _, arg := range args[1:] {
		bf, bIsInt, err := wantNumber(native, arg)
		if err != nil {
			return nil, err
		}
		if accIsInt && bIsInt {
			accI = fi(accI, arg.(runtime.IntegerValue).Val)
			accF = float64(accI)
			continue
		}
		if accIsInt {
			accF = float64(accI)
			accIsInt = false
		}
		accF = ff(accF, bf)
	}
	if accIsInt {
		return intValue(accI), nil
	}
	return runtime.FloatValue{Val: accF}, nil
}

func divideValues(args []runtime.Value) (runtime.Value, error) {
	if len(args) == 1 {
		args = []runtime.Value{intValue(1), args[0]}
	}
	allInt := true
	for _, a := range args {
		if _, ok := a.(runtime.IntegerValue); !ok {
			allInt = false
			break
		}
	}
	if allInt {
		acc := args[0].(runtime.IntegerValue).Val
		for _, a := range args[1:] {
			d := a.(runtime.IntegerValue).Val
			if d == 0 {
				return nil, runtime.NewError(runtime.CodeTypeMismatch, "/: division by zero")
			}
			acc /= d
		}
		return intValue(acc), nil
	}
	acc, _, err := wantNumber("/", args[0])
	if err != nil {
		return nil, err
	}
	for _, a := range args[1:] {
		d, _, err := wantNumber("/", a)
		if err != nil {
			return nil, err
		}
		if d == 0 {
			return nil, runtime.NewError(runtime.CodeTypeMismatch, "/: division by zero")
		}
		acc /= d
	}
	return runtime.FloatValue{Val: acc}, nil
}
