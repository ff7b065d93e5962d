package interpreter

import (
	"strings"

	"github.com/qi-lang/qi/pkg/ast"
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

// recurSignal travels as an error from a recur form to the enclosing loop or
// function body, which rebinds and iterates in place.
type recurSignal struct {
	args []runtime.Value
}

func (recurSignal) Error() string { return "recur" }

func asRecur(err error) (recurSignal, bool) {
	rs, ok := err.(recurSignal)
	return rs, ok
}

// nonTailErr converts a recur signal escaping through a non-tail position into
// the recur-not-tail error.
func nonTailErr(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := asRecur(err); ok {
		return runtime.NewError(runtime.CodeRecurNotTail, i18n.Msg("recur-not-tail"))
	}
	return err
}

// nonTailEval evaluates expr in a position where recur is illegal.
func (i *Interpreter) nonTailEval(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	v, err := i.evalExpr(expr, env)
	return v, nonTailErr(err)
}

func (i *Interpreter) evalExpr(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	switch t := expr.(type) {
	case *ast.NilLiteral:
		return runtime.NilValue{}, nil
	case *ast.BoolLiteral:
		return runtime.BoolValue{Val: t.Value}, nil
	case *ast.IntegerLiteral:
		return runtime.IntegerValue{Val: t.Value}, nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: t.Value}, nil
	case *ast.StringLiteral:
		return runtime.StringValue{Val: t.Value}, nil
	case *ast.FStringLiteral:
		return i.evalFString(t, env)
	case *ast.SymbolExpr:
		return i.evalSymbol(t.Name, env)
	case *ast.KeywordExpr:
		return runtime.InternKeyword(t.Name), nil
	case *ast.ListExpr:
		elems, err := i.evalElements(t.Elements, env)
		if err != nil {
			return nil, err
		}
		return &runtime.ListValue{Elements: elems}, nil
	case *ast.VectorExpr:
		elems, err := i.evalElements(t.Elements, env)
		if err != nil {
			return nil, err
		}
		return &runtime.VectorValue{Elements: elems}, nil
	case *ast.MapExpr:
		return i.evalMapLiteral(t, env)
	case *ast.DefExpr:
		return i.evalDef(t, env)
	case *ast.FnExpr:
		return &runtime.FunctionValue{
			Name:     t.Name,
			Params:   t.Params,
			Body:     t.Body,
			Closure:  env,
			Variadic: t.Variadic,
		}, nil
	case *ast.LetExpr:
		child := env.Extend()
		for _, b := range t.Bindings {
			v, err := i.nonTailEval(b.Value, child)
			if err != nil {
				return nil, err
			}
			if err := i.bindPattern(b.Pattern, v, child); err != nil {
				return nil, err
			}
		}
		return i.evalExpr(t.Body, child)
	case *ast.IfExpr:
		test, err := i.nonTailEval(t.Test, env)
		if err != nil {
			return nil, err
		}
		if runtime.Truthy(test) {
			return i.evalExpr(t.Then, env)
		}
		if t.Else == nil {
			return runtime.NilValue{}, nil
		}
		return i.evalExpr(t.Else, env)
	case *ast.DoExpr:
		if len(t.Body) == 0 {
			return runtime.NilValue{}, nil
		}
		for _, child := range t.Body[:len(t.Body)-1] {
			if _, err := i.nonTailEval(child, env); err != nil {
				return nil, err
			}
		}
		return i.evalExpr(t.Body[len(t.Body)-1], env)
	case *ast.MatchExpr:
		return i.evalMatch(t, env)
	case *ast.TryExpr:
		v, err := i.evalExpr(t.Body, env)
		if err = nonTailErr(err); err != nil {
			return runtime.AsErrorValue(err), nil
		}
		return v, nil
	case *ast.DeferExpr:
		i.registerDefer(t.Body, env)
		return runtime.NilValue{}, nil
	case *ast.CallExpr:
		return i.evalCall(t, env)
	case *ast.QuoteExpr:
		return exprToValue(t.Form)
	case *ast.QuasiquoteExpr:
		return i.evalQuasiquote(t.Form, env, 1)
	case *ast.UnquoteExpr, *ast.UnquoteSpliceExpr:
		return nil, runtime.NewError(runtime.CodeUnquoteOutside, i18n.Msg("unquote-outside-quasiquote"))
	case *ast.LoopExpr:
		return i.evalLoop(t, env)
	case *ast.RecurExpr:
		args := make([]runtime.Value, len(t.Args))
		for idx, a := range t.Args {
			v, err := i.nonTailEval(a, env)
			if err != nil {
				return nil, err
			}
			args[idx] = v
		}
		return nil, recurSignal{args: args}
	case *embeddedValue:
		return t.value, nil
	case *ast.MacExpr:
		macro := &runtime.MacroValue{
			Name:     t.Name,
			Params:   t.Params,
			Body:     t.Body,
			Closure:  env,
			Variadic: t.Variadic,
		}
		env.DefineGlobal(t.Name, macro)
		return macro, nil
	case *ast.ModuleExpr:
		return i.evalModuleDecl(t, env)
	case *ast.ExportExpr:
		return i.evalExport(t, env)
	case *ast.UseExpr:
		return i.evalUse(t, env)
	default:
		return nil, runtime.NewError(runtime.CodeTypeMismatch, i18n.Msg("type-mismatch", "eval", "expression", t.NodeType()))
	}
}

func (i *Interpreter) evalElements(exprs []ast.Expr, env *runtime.Environment) ([]runtime.Value, error) {
	out := make([]runtime.Value, len(exprs))
	for idx, e := range exprs {
		v, err := i.nonTailEval(e, env)
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return out, nil
}

func (i *Interpreter) evalMapLiteral(m *ast.MapExpr, env *runtime.Environment) (runtime.Value, error) {
	out := runtime.NewMap()
	for _, entry := range m.Entries {
		key, err := i.nonTailEval(entry.Key, env)
		if err != nil {
			return nil, err
		}
		val, err := i.nonTailEval(entry.Value, env)
		if err != nil {
			return nil, err
		}
		next, ok := out.Assoc(key, val)
		if !ok {
			return nil, runtime.NewError(runtime.CodeInvalidMapKey, i18n.Msg("invalid-map-key", key.Kind().String()))
		}
		out = next
	}
	return out, nil
}

func (i *Interpreter) evalFString(f *ast.FStringLiteral, env *runtime.Environment) (runtime.Value, error) {
	var b strings.Builder
	for _, part := range f.Parts {
		if lit, ok := part.(*ast.StringLiteral); ok {
			b.WriteString(lit.Value)
			continue
		}
		v, err := i.nonTailEval(part, env)
		if err != nil {
			return nil, err
		}
		b.WriteString(runtime.Display(v))
	}
	return runtime.StringValue{Val: b.String()}, nil
}

// evalSymbol resolves a name through the scope chain. Names of the form
// alias/member fall back to the module alias table bound by use :as.
func (i *Interpreter) evalSymbol(name string, env *runtime.Environment) (runtime.Value, error) {
	if v, ok := env.Get(name); ok {
		return v, nil
	}
	if idx := strings.Index(name, "/"); idx > 0 {
		alias, member := name[:idx], name[idx+1:]
		if v, ok := env.Get(alias); ok {
			if table, ok := v.(*runtime.MapValue); ok {
				if member != "" {
					if entry, ok := table.Get(runtime.InternSymbol(member)); ok {
						return entry, nil
					}
				}
				return nil, runtime.NewError(runtime.CodeNotExported, i18n.Msg("not-exported", member, alias))
			}
		}
	}
	if suggestion := nearestName(name, env); suggestion != "" {
		return nil, runtime.NewError(runtime.CodeUndefinedVar, i18n.Msg("undefined-var-suggest", name, suggestion))
	}
	return nil, runtime.NewError(runtime.CodeUndefinedVar, i18n.Msg("undefined-var", name))
}

func (i *Interpreter) evalDef(d *ast.DefExpr, env *runtime.Environment) (runtime.Value, error) {
	v, err := i.nonTailEval(d.Value, env)
	if err != nil {
		return nil, err
	}
	if _, builtin := i.builtinNames[d.Name]; builtin {
		i.logger.Warn(i18n.Msg("redefine-builtin", d.Name))
	}
	env.DefineGlobal(d.Name, v)
	if i.currentModule != nil {
		i.currentModule.noteDefinition(d.Name)
	}
	return v, nil
}

func (i *Interpreter) evalCall(call *ast.CallExpr, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.nonTailEval(call.Callee, env)
	if err != nil {
		return nil, err
	}
	if macro, ok := callee.(*runtime.MacroValue); ok {
		return i.expandAndEvalMacro(macro, call.Args, env)
	}
	args := make([]runtime.Value, len(call.Args))
	for idx, a := range call.Args {
		v, err := i.nonTailEval(a, env)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	return i.Apply(callee, args)
}

func (i *Interpreter) evalLoop(loop *ast.LoopExpr, env *runtime.Environment) (runtime.Value, error) {
	child := env.Extend()
	for _, b := range loop.Bindings {
		v, err := i.nonTailEval(b.Value, child)
		if err != nil {
			return nil, err
		}
		if err := i.bindPattern(b.Pattern, v, child); err != nil {
			return nil, err
		}
	}
	for {
		v, err := i.evalExpr(loop.Body, child)
		rs, ok := asRecur(err)
		if !ok {
			return v, err
		}
		if len(rs.args) != len(loop.Bindings) {
			return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("recur-arity", len(loop.Bindings), len(rs.args)))
		}
		child = env.Extend()
		for idx, b := range loop.Bindings {
			if err := i.bindPattern(b.Pattern, rs.args[idx], child); err != nil {
				return nil, err
			}
		}
	}
}

//-----------------------------------------------------------------------------
// Defer frames
//-----------------------------------------------------------------------------

type deferredThunk struct {
	expr ast.Expr
	env  *runtime.Environment
}

type deferFrame struct {
	thunks []deferredThunk
}

func (i *Interpreter) pushDeferFrame() *deferFrame {
	frame := &deferFrame{}
	i.deferStack = append(i.deferStack, frame)
	return frame
}

// popDeferFrame runs the frame's thunks in reverse registration order. Thunk
// failures are logged and never mask the activation's primary error.
func (i *Interpreter) popDeferFrame(frame *deferFrame) {
	if n := len(i.deferStack); n > 0 && i.deferStack[n-1] == frame {
		i.deferStack = i.deferStack[:n-1]
	}
	for idx := len(frame.thunks) - 1; idx >= 0; idx-- {
		thunk := frame.thunks[idx]
		if _, err := i.evalExpr(thunk.expr, thunk.env); err != nil {
			i.logger.Warn(i18n.Msg("deferred-error"), "error", err.Error())
		}
	}
}

func (i *Interpreter) registerDefer(expr ast.Expr, env *runtime.Environment) {
	if len(i.deferStack) == 0 {
		// A defer outside any activation still needs a frame to land in.
		i.deferStack = append(i.deferStack, &deferFrame{})
	}
	top := i.deferStack[len(i.deferStack)-1]
	top.thunks = append(top.thunks, deferredThunk{expr: expr, env: env})
}
