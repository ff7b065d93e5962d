package interpreter

import (
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

// Apply invokes any callable value with already-evaluated arguments. Macros
// applied here receive their arguments as values, which is what the expander
// wants; syntactic macro calls go through evalCall instead.
func (i *Interpreter) Apply(callable runtime.Value, args []runtime.Value) (runtime.Value, error) {
	switch fn := callable.(type) {
	case *runtime.FunctionValue:
		return i.applyFunction(fn, args)
	case *runtime.MacroValue:
		return i.applyMacroBody(fn, args)
	case runtime.NativeFunctionValue:
		return i.applyNative(fn, args)
	case *runtime.CombinatorValue:
		return i.applyCombinator(fn, args)
	default:
		return nil, runtime.NewError(runtime.CodeNotAFunction, i18n.Msg("not-a-function", runtime.Print(callable)))
	}
}

func (i *Interpreter) applyNative(fn runtime.NativeFunctionValue, args []runtime.Value) (runtime.Value, error) {
	if fn.Arity >= 0 {
		if len(args) != fn.Arity {
			return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch", fn.Name, fn.Arity, len(args)))
		}
	} else if len(args) < fn.MinArity {
		return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch-min", fn.Name, fn.MinArity, len(args)))
	}
	ctx := &runtime.NativeCallContext{Eval: i.Clone()}
	return fn.Impl(ctx, args)
}

// applyFunction runs a closure activation: arity check, parameter
// destructuring, a defer frame, and in-place iteration when the body tail
// recurs.
func (i *Interpreter) applyFunction(fn *runtime.FunctionValue, args []runtime.Value) (runtime.Value, error) {
	name := fn.Name
	if name == "" {
		name = "fn"
	}
	for {
		fixed := fn.Params
		if fn.Variadic {
			fixed = fn.Params[:len(fn.Params)-1]
			if len(args) < len(fixed) {
				return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch-min", name, len(fixed), len(args)))
			}
		} else if len(args) != len(fixed) {
			return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch", name, len(fixed), len(args)))
		}

		env := fn.Closure.Extend()
		if fn.Name != "" {
			env.Define(fn.Name, fn)
		}
		for idx, param := range fixed {
			if err := i.bindPattern(param, args[idx], env); err != nil {
				return nil, err
			}
		}
		if fn.Variadic {
			rest := make([]runtime.Value, len(args)-len(fixed))
			copy(rest, args[len(fixed):])
			restPattern := fn.Params[len(fn.Params)-1]
			if err := i.bindPattern(restPattern, &runtime.ListValue{Elements: rest}, env); err != nil {
				return nil, err
			}
		}

		frame := i.pushDeferFrame()
		v, err := i.evalExpr(fn.Body, env)
		i.popDeferFrame(frame)

		if rs, ok := asRecur(err); ok {
			args = rs.args
			continue
		}
		return v, err
	}
}

// applyMacroBody binds argument values to the macro's parameters and runs its
// body, returning the expansion value.
func (i *Interpreter) applyMacroBody(m *runtime.MacroValue, args []runtime.Value) (runtime.Value, error) {
	name := m.Name
	fixed := m.Params
	if m.Variadic {
		fixed = m.Params[:len(m.Params)-1]
		if len(args) < len(fixed) {
			return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch-min", name, len(fixed), len(args)))
		}
	} else if len(args) != len(fixed) {
		return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch", name, len(fixed), len(args)))
	}

	env := m.Closure.Extend()
	for idx, param := range fixed {
		if err := i.bindPattern(param, args[idx], env); err != nil {
			return nil, err
		}
	}
	if m.Variadic {
		rest := make([]runtime.Value, len(args)-len(fixed))
		copy(rest, args[len(fixed):])
		if err := i.bindPattern(m.Params[len(m.Params)-1], &runtime.ListValue{Elements: rest}, env); err != nil {
			return nil, err
		}
	}
	v, err := i.evalExpr(m.Body, env)
	return v, nonTailErr(err)
}

func (i *Interpreter) applyCombinator(c *runtime.CombinatorValue, args []runtime.Value) (runtime.Value, error) {
	switch c.Which {
	case runtime.CombinatorPartial:
		full := make([]runtime.Value, 0, len(c.BoundArgs)+len(args))
		full = append(full, c.BoundArgs...)
		full = append(full, args...)
		return i.Apply(c.Target, full)
	case runtime.CombinatorComp:
		// Rightmost function sees the original arguments.
		if len(c.Fns) == 0 {
			if len(args) == 1 {
				return args[0], nil
			}
			return &runtime.ListValue{Elements: args}, nil
		}
		v, err := i.Apply(c.Fns[len(c.Fns)-1], args)
		if err != nil {
			return nil, err
		}
		for idx := len(c.Fns) - 2; idx >= 0; idx-- {
			v, err = i.Apply(c.Fns[idx], []runtime.Value{v})
			if err != nil {
				return nil, err
			}
		}
		return v, nil
	case runtime.CombinatorConstantly:
		return c.Const, nil
	default:
		return nil, runtime.NewError(runtime.CodeNotAFunction, i18n.Msg("not-a-function", runtime.Print(c)))
	}
}
