package interpreter

import (
	"github.com/qi-lang/qi/pkg/ast"
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

func symbolValue(name string) runtime.Value { return runtime.InternSymbol(name) }

func listOf(elems ...runtime.Value) runtime.Value {
	return &runtime.ListValue{Elements: elems}
}

// exprToValue reifies a quoted form into a runtime value. The reader parses
// quote payloads in data mode, so the tree contains only literals, symbols,
// keywords, collections, and nested quote forms.
func exprToValue(e ast.Expr) (runtime.Value, error) {
	switch t := e.(type) {
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
	case *ast.SymbolExpr:
		return runtime.InternSymbol(t.Name), nil
	case *ast.KeywordExpr:
		return runtime.InternKeyword(t.Name), nil
	case *ast.ListExpr:
		elems, err := exprsToValues(t.Elements)
		if err != nil {
			return nil, err
		}
		return &runtime.ListValue{Elements: elems}, nil
	case *ast.VectorExpr:
		elems, err := exprsToValues(t.Elements)
		if err != nil {
			return nil, err
		}
		return &runtime.VectorValue{Elements: elems}, nil
	case *ast.MapExpr:
		out := runtime.NewMap()
		for _, entry := range t.Entries {
			key, err := exprToValue(entry.Key)
			if err != nil {
				return nil, err
			}
			val, err := exprToValue(entry.Value)
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
	case *ast.QuoteExpr:
		inner, err := exprToValue(t.Form)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("quote"), inner), nil
	case *ast.QuasiquoteExpr:
		inner, err := exprToValue(t.Form)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("quasiquote"), inner), nil
	case *ast.UnquoteExpr:
		inner, err := quotedPayloadValue(t.Form)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("unquote"), inner), nil
	case *ast.UnquoteSpliceExpr:
		inner, err := quotedPayloadValue(t.Form)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("unquote-splice"), inner), nil
	case *embeddedValue:
		return t.value, nil
	case *ast.FStringLiteral:
		// A quoted f-string reifies as its raw parts joined by str.
		elems := []runtime.Value{symbolValue("str")}
		for _, part := range t.Parts {
			v, err := quotedPayloadValue(part)
			if err != nil {
				return nil, err
			}
			elems = append(elems, v)
		}
		return &runtime.ListValue{Elements: elems}, nil
	default:
		return nil, runtime.NewError(runtime.CodeTypeMismatch, i18n.Msg("type-mismatch", "quote", "data form", e.NodeType()))
	}
}

// quotedPayloadValue reifies an expression-mode subtree (an unquote payload
// inside plain quote, or an f-string hole) back into list data.
func quotedPayloadValue(e ast.Expr) (runtime.Value, error) {
	if v, err := exprToValue(e); err == nil {
		return v, nil
	}
	return exprToValue(exprToDatum(e))
}

func exprsToValues(exprs []ast.Expr) ([]runtime.Value, error) {
	out := make([]runtime.Value, len(exprs))
	for i, e := range exprs {
		v, err := exprToValue(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

//-----------------------------------------------------------------------------
// Quasiquote
//-----------------------------------------------------------------------------

// evalQuasiquote walks a quasiquoted data tree, filling unquote holes by
// evaluation. depth tracks nested quasiquotes: only holes at depth 1 run.
func (i *Interpreter) evalQuasiquote(e ast.Expr, env *runtime.Environment, depth int) (runtime.Value, error) {
	switch t := e.(type) {
	case *ast.UnquoteExpr:
		if depth == 1 {
			return i.nonTailEval(t.Form, env)
		}
		inner, err := i.evalQuasiquote(t.Form, env, depth-1)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("unquote"), inner), nil
	case *ast.UnquoteSpliceExpr:
		// A splice is only meaningful inside a sequence; the sequence walker
		// consumes it before we get here.
		return nil, runtime.NewError(runtime.CodeBadSpliceTarget, i18n.Msg("unquote-outside-quasiquote"))
	case *ast.QuasiquoteExpr:
		inner, err := i.evalQuasiquote(t.Form, env, depth+1)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("quasiquote"), inner), nil
	case *ast.QuoteExpr:
		inner, err := i.evalQuasiquote(t.Form, env, depth)
		if err != nil {
			return nil, err
		}
		return listOf(symbolValue("quote"), inner), nil
	case *ast.ListExpr:
		elems, err := i.quasiElements(t.Elements, env, depth)
		if err != nil {
			return nil, err
		}
		return &runtime.ListValue{Elements: elems}, nil
	case *ast.VectorExpr:
		elems, err := i.quasiElements(t.Elements, env, depth)
		if err != nil {
			return nil, err
		}
		return &runtime.VectorValue{Elements: elems}, nil
	case *ast.MapExpr:
		out := runtime.NewMap()
		for _, entry := range t.Entries {
			key, err := i.evalQuasiquote(entry.Key, env, depth)
			if err != nil {
				return nil, err
			}
			val, err := i.evalQuasiquote(entry.Value, env, depth)
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
	default:
		return exprToValue(e)
	}
}

// quasiElements walks sequence children, splicing unquote-splice results in
// place. The splice payload must evaluate to a list or vector.
func (i *Interpreter) quasiElements(exprs []ast.Expr, env *runtime.Environment, depth int) ([]runtime.Value, error) {
	var out []runtime.Value
	for _, e := range exprs {
		if splice, ok := e.(*ast.UnquoteSpliceExpr); ok && depth == 1 {
			v, err := i.nonTailEval(splice.Form, env)
			if err != nil {
				return nil, err
			}
			elems, ok := runtime.SequenceElements(v)
			if !ok {
				return nil, runtime.NewError(runtime.CodeBadSpliceTarget, i18n.Msg("bad-splice-target", v.Kind().String()))
			}
			out = append(out, elems...)
			continue
		}
		v, err := i.evalQuasiquote(e, env, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

//-----------------------------------------------------------------------------
// Macro expansion
//-----------------------------------------------------------------------------

// expandAndEvalMacro binds the unevaluated argument forms (reified as values)
// to the macro's parameters, runs the body to obtain the expansion, converts
// it back to an expression, and evaluates that in the caller's environment.
func (i *Interpreter) expandAndEvalMacro(m *runtime.MacroValue, argForms []ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	args := make([]runtime.Value, len(argForms))
	for idx, form := range argForms {
		v, err := quotedPayloadValue(form)
		if err != nil {
			return nil, err
		}
		args[idx] = v
	}
	expansion, err := i.applyMacroBody(m, args)
	if err != nil {
		return nil, err
	}
	expr, err := valueToExpr(expansion)
	if err != nil {
		return nil, err
	}
	return i.evalExpr(expr, env)
}
