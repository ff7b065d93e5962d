package interpreter

import (
	"fmt"
	"sync/atomic"

	"github.com/qi-lang/qi/pkg/ast"
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

// embeddedValue lets a macro expansion carry a live runtime value (a closure,
// a channel) that has no literal syntax. Evaluating it returns the value.
type embeddedValue struct {
	value runtime.Value
}

func (*embeddedValue) NodeType() string { return "EmbeddedValue" }

// uvarName renders a hygienic variable id as an environment binding name. The
// '#' prefix cannot be lexed, so user code can never collide with it.
func uvarName(id uint64) string {
	return fmt.Sprintf("#uvar%d", id)
}

var analyzeTmp atomic.Uint64

func freshAnalyzeTemp(prefix string) string {
	return fmt.Sprintf("%s%%m%d", prefix, analyzeTmp.Add(1))
}

func analyzeErr(format string, args ...any) error {
	return runtime.NewError(runtime.CodeTypeMismatch, fmt.Sprintf(format, args...))
}

// valueToExpr converts a macro expansion back into an evaluatable expression,
// re-analyzing special forms by head symbol.
func valueToExpr(v runtime.Value) (ast.Expr, error) {
	switch t := v.(type) {
	case runtime.NilValue:
		return &ast.NilLiteral{}, nil
	case runtime.BoolValue:
		return &ast.BoolLiteral{Value: t.Val}, nil
	case runtime.IntegerValue:
		return &ast.IntegerLiteral{Value: t.Val}, nil
	case runtime.FloatValue:
		return &ast.FloatLiteral{Value: t.Val}, nil
	case runtime.StringValue:
		return &ast.StringLiteral{Value: t.Val}, nil
	case runtime.SymbolValue:
		switch t.Name {
		case "nil":
			return &ast.NilLiteral{}, nil
		case "true":
			return &ast.BoolLiteral{Value: true}, nil
		case "false":
			return &ast.BoolLiteral{Value: false}, nil
		}
		return &ast.SymbolExpr{Name: t.Name}, nil
	case runtime.UvarValue:
		return &ast.SymbolExpr{Name: uvarName(t.ID)}, nil
	case runtime.KeywordValue:
		return &ast.KeywordExpr{Name: t.Name}, nil
	case *runtime.VectorValue:
		elems, err := valuesToExprs(t.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.VectorExpr{Elements: elems}, nil
	case *runtime.MapValue:
		out := &ast.MapExpr{}
		for _, entry := range t.Entries {
			key, err := valueToExpr(entry.Key)
			if err != nil {
				return nil, err
			}
			val, err := valueToExpr(entry.Value)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, ast.MapEntryExpr{Key: key, Value: val})
		}
		return out, nil
	case *runtime.ListValue:
		return listValueToExpr(t)
	default:
		return &embeddedValue{value: v}, nil
	}
}

func valuesToExprs(vals []runtime.Value) ([]ast.Expr, error) {
	out := make([]ast.Expr, len(vals))
	for i, v := range vals {
		e, err := valueToExpr(v)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func headSymbol(l *runtime.ListValue) (string, bool) {
	if len(l.Elements) == 0 {
		return "", false
	}
	sym, ok := l.Elements[0].(runtime.SymbolValue)
	if !ok {
		return "", false
	}
	return sym.Name, true
}

func bindingName(v runtime.Value) (string, error) {
	switch t := v.(type) {
	case runtime.SymbolValue:
		return t.Name, nil
	case runtime.UvarValue:
		return uvarName(t.ID), nil
	default:
		return "", analyzeErr("expected a name, got %s", runtime.Print(v))
	}
}

func listValueToExpr(l *runtime.ListValue) (ast.Expr, error) {
	head, ok := headSymbol(l)
	if !ok {
		// Plain call (or empty list literal).
		if len(l.Elements) == 0 {
			return &ast.ListExpr{}, nil
		}
		return callFromValues(l.Elements)
	}
	rest := l.Elements[1:]
	switch head {
	case "def":
		if len(rest) != 2 {
			return nil, analyzeErr("def expects a name and a value")
		}
		name, err := bindingName(rest[0])
		if err != nil {
			return nil, err
		}
		value, err := valueToExpr(rest[1])
		if err != nil {
			return nil, err
		}
		return &ast.DefExpr{Name: name, Value: value}, nil
	case "defn":
		if len(rest) < 2 {
			return nil, analyzeErr("defn expects a name, parameters, and a body")
		}
		name, err := bindingName(rest[0])
		if err != nil {
			return nil, err
		}
		fn, err := fnFromValues(name, rest[1:])
		if err != nil {
			return nil, err
		}
		return &ast.DefExpr{Name: name, Value: fn}, nil
	case "fn":
		return fnFromValues("", rest)
	case "mac":
		if len(rest) < 2 {
			return nil, analyzeErr("mac expects a name, parameters, and a body")
		}
		name, err := bindingName(rest[0])
		if err != nil {
			return nil, err
		}
		fn, err := fnFromValues(name, rest[1:])
		if err != nil {
			return nil, err
		}
		f := fn.(*ast.FnExpr)
		return &ast.MacExpr{Name: name, Params: f.Params, Body: f.Body, Variadic: f.Variadic}, nil
	case "let", "loop":
		if len(rest) < 1 {
			return nil, analyzeErr("%s expects a binding vector", head)
		}
		bindings, err := bindingsFromValue(rest[0])
		if err != nil {
			return nil, err
		}
		body, err := bodyFromValues(rest[1:])
		if err != nil {
			return nil, err
		}
		if head == "let" {
			return &ast.LetExpr{Bindings: bindings, Body: body}, nil
		}
		return &ast.LoopExpr{Bindings: bindings, Body: body}, nil
	case "if":
		if len(rest) < 2 || len(rest) > 3 {
			return nil, analyzeErr("if expects a test, a branch, and an optional else")
		}
		test, err := valueToExpr(rest[0])
		if err != nil {
			return nil, err
		}
		then, err := valueToExpr(rest[1])
		if err != nil {
			return nil, err
		}
		out := &ast.IfExpr{Test: test, Then: then}
		if len(rest) == 3 {
			out.Else, err = valueToExpr(rest[2])
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case "do":
		body, err := valuesToExprs(rest)
		if err != nil {
			return nil, err
		}
		return &ast.DoExpr{Body: body}, nil
	case "match":
		return matchFromValues(rest)
	case "try":
		body, err := bodyFromValues(rest)
		if err != nil {
			return nil, err
		}
		return &ast.TryExpr{Body: body}, nil
	case "defer":
		body, err := bodyFromValues(rest)
		if err != nil {
			return nil, err
		}
		return &ast.DeferExpr{Body: body}, nil
	case "recur":
		args, err := valuesToExprs(rest)
		if err != nil {
			return nil, err
		}
		return &ast.RecurExpr{Args: args}, nil
	case "quote":
		if len(rest) != 1 {
			return nil, analyzeErr("quote expects one form")
		}
		datum, err := valueToDatum(rest[0])
		if err != nil {
			return nil, err
		}
		return &ast.QuoteExpr{Form: datum}, nil
	case "quasiquote":
		if len(rest) != 1 {
			return nil, analyzeErr("quasiquote expects one form")
		}
		datum, err := valueToDatum(rest[0])
		if err != nil {
			return nil, err
		}
		return &ast.QuasiquoteExpr{Form: datum}, nil
	case "unquote", "unquote-splice":
		return nil, runtime.NewError(runtime.CodeUnquoteOutside, i18n.Msg("unquote-outside-quasiquote"))
	case "module":
		if len(rest) != 1 {
			return nil, analyzeErr("module expects a name")
		}
		name, err := bindingName(rest[0])
		if err != nil {
			return nil, err
		}
		return &ast.ModuleExpr{Name: name}, nil
	case "export":
		names := make([]string, 0, len(rest))
		for _, v := range rest {
			name, err := bindingName(v)
			if err != nil {
				return nil, err
			}
			names = append(names, name)
		}
		return &ast.ExportExpr{Names: names}, nil
	case "use":
		return useFromValues(rest)
	case "and", "or":
		return andOrFromValues(head, rest)
	default:
		return callFromValues(l.Elements)
	}
}

func callFromValues(vals []runtime.Value) (ast.Expr, error) {
	callee, err := valueToExpr(vals[0])
	if err != nil {
		return nil, err
	}
	args, err := valuesToExprs(vals[1:])
	if err != nil {
		return nil, err
	}
	return &ast.CallExpr{Callee: callee, Args: args}, nil
}

func bodyFromValues(vals []runtime.Value) (ast.Expr, error) {
	body, err := valuesToExprs(vals)
	if err != nil {
		return nil, err
	}
	switch len(body) {
	case 0:
		return &ast.NilLiteral{}, nil
	case 1:
		return body[0], nil
	default:
		return &ast.DoExpr{Body: body}, nil
	}
}

func fnFromValues(name string, vals []runtime.Value) (ast.Expr, error) {
	if len(vals) == 0 {
		return nil, analyzeErr("fn expects a parameter vector")
	}
	paramVec, ok := vals[0].(*runtime.VectorValue)
	if !ok {
		return nil, analyzeErr("fn parameters must be a vector, got %s", runtime.Print(vals[0]))
	}
	params, variadic, err := paramsFromValues(paramVec.Elements)
	if err != nil {
		return nil, err
	}
	body, err := bodyFromValues(vals[1:])
	if err != nil {
		return nil, err
	}
	return &ast.FnExpr{Name: name, Params: params, Body: body, Variadic: variadic}, nil
}

func paramsFromValues(vals []runtime.Value) ([]ast.Pattern, bool, error) {
	var params []ast.Pattern
	variadic := false
	for idx := 0; idx < len(vals); idx++ {
		if sym, ok := vals[idx].(runtime.SymbolValue); ok && sym.Name == "&" {
			if idx+1 != len(vals)-1 {
				return nil, false, analyzeErr("rest parameter must be last")
			}
			name, err := bindingName(vals[idx+1])
			if err != nil {
				return nil, false, err
			}
			params = append(params, &ast.VarPattern{Name: name})
			variadic = true
			break
		}
		p, err := valueToPattern(vals[idx])
		if err != nil {
			return nil, false, err
		}
		params = append(params, p)
	}
	return params, variadic, nil
}

func bindingsFromValue(v runtime.Value) ([]ast.LetBinding, error) {
	vec, ok := v.(*runtime.VectorValue)
	if !ok {
		return nil, analyzeErr("bindings must be a vector, got %s", runtime.Print(v))
	}
	if len(vec.Elements)%2 != 0 {
		return nil, analyzeErr("binding vector needs an even number of forms")
	}
	var out []ast.LetBinding
	for idx := 0; idx < len(vec.Elements); idx += 2 {
		pat, err := valueToPattern(vec.Elements[idx])
		if err != nil {
			return nil, err
		}
		value, err := valueToExpr(vec.Elements[idx+1])
		if err != nil {
			return nil, err
		}
		out = append(out, ast.LetBinding{Pattern: pat, Value: value})
	}
	return out, nil
}

func matchFromValues(vals []runtime.Value) (ast.Expr, error) {
	if len(vals) < 1 {
		return nil, analyzeErr("match expects a subject")
	}
	subject, err := valueToExpr(vals[0])
	if err != nil {
		return nil, err
	}
	rest := vals[1:]
	if len(rest)%2 != 0 {
		return nil, analyzeErr("match arms come in pattern/body pairs")
	}
	out := &ast.MatchExpr{Subject: subject}
	for idx := 0; idx < len(rest); idx += 2 {
		pat, err := valueToPattern(rest[idx])
		if err != nil {
			return nil, err
		}
		body, err := valueToExpr(rest[idx+1])
		if err != nil {
			return nil, err
		}
		clause := ast.MatchClause{Pattern: pat, Body: body}
		if ifExpr, ok := body.(*ast.IfExpr); ok && ifExpr.Else == nil {
			clause.Guard = ifExpr.Test
			clause.Body = ifExpr.Then
		}
		out.Clauses = append(out.Clauses, clause)
	}
	return out, nil
}

func useFromValues(vals []runtime.Value) (ast.Expr, error) {
	if len(vals) < 1 {
		return nil, analyzeErr("use expects a module name")
	}
	name, err := bindingName(vals[0])
	if err != nil {
		return nil, err
	}
	use := &ast.UseExpr{Module: name, Mode: ast.UseAll}
	if len(vals) == 1 {
		return use, nil
	}
	kw, ok := vals[1].(runtime.KeywordValue)
	if !ok {
		return nil, analyzeErr("use expects :only, :as, or :all")
	}
	switch kw.Name {
	case "only":
		if len(vals) != 3 {
			return nil, analyzeErr("use :only expects a name vector")
		}
		names, ok := runtime.SequenceElements(vals[2])
		if !ok {
			return nil, analyzeErr("use :only expects a name vector")
		}
		for _, nv := range names {
			n, err := bindingName(nv)
			if err != nil {
				return nil, err
			}
			use.Only = append(use.Only, n)
		}
		use.Mode = ast.UseOnly
	case "as":
		if len(vals) != 3 {
			return nil, analyzeErr("use :as expects an alias")
		}
		alias, err := bindingName(vals[2])
		if err != nil {
			return nil, err
		}
		use.Alias = alias
		use.Mode = ast.UseAs
	case "all":
		use.Mode = ast.UseAll
	default:
		return nil, analyzeErr("use expects :only, :as, or :all, got :%s", kw.Name)
	}
	return use, nil
}

// andOrFromValues mirrors the reader's short-circuit lowering for macro
// expansions that emit and/or forms.
func andOrFromValues(which string, vals []runtime.Value) (ast.Expr, error) {
	exprs, err := valuesToExprs(vals)
	if err != nil {
		return nil, err
	}
	if len(exprs) == 0 {
		if which == "and" {
			return &ast.BoolLiteral{Value: true}, nil
		}
		return &ast.NilLiteral{}, nil
	}
	acc := exprs[len(exprs)-1]
	for i := len(exprs) - 2; i >= 0; i-- {
		tmp := freshAnalyzeTemp(which)
		var branch *ast.IfExpr
		if which == "and" {
			branch = &ast.IfExpr{Test: &ast.SymbolExpr{Name: tmp}, Then: acc, Else: &ast.SymbolExpr{Name: tmp}}
		} else {
			branch = &ast.IfExpr{Test: &ast.SymbolExpr{Name: tmp}, Then: &ast.SymbolExpr{Name: tmp}, Else: acc}
		}
		acc = &ast.LetExpr{
			Bindings: []ast.LetBinding{{Pattern: &ast.VarPattern{Name: tmp}, Value: exprs[i]}},
			Body:     branch,
		}
	}
	return acc, nil
}

//-----------------------------------------------------------------------------
// Patterns from data
//-----------------------------------------------------------------------------

// valueToPattern reads a pattern from expansion data. Sequence data uses
// (or p...), (as p name), and (transform name expr) list heads for the
// composite patterns the reader spells with :as.
func valueToPattern(v runtime.Value) (ast.Pattern, error) {
	switch t := v.(type) {
	case runtime.SymbolValue:
		switch t.Name {
		case "_":
			return &ast.WildcardPattern{}, nil
		case "nil":
			return &ast.LiteralPattern{Literal: &ast.NilLiteral{}}, nil
		case "true":
			return &ast.LiteralPattern{Literal: &ast.BoolLiteral{Value: true}}, nil
		case "false":
			return &ast.LiteralPattern{Literal: &ast.BoolLiteral{Value: false}}, nil
		}
		return &ast.VarPattern{Name: t.Name}, nil
	case runtime.UvarValue:
		return &ast.VarPattern{Name: uvarName(t.ID)}, nil
	case runtime.IntegerValue:
		return &ast.LiteralPattern{Literal: &ast.IntegerLiteral{Value: t.Val}}, nil
	case runtime.FloatValue:
		return &ast.LiteralPattern{Literal: &ast.FloatLiteral{Value: t.Val}}, nil
	case runtime.StringValue:
		return &ast.LiteralPattern{Literal: &ast.StringLiteral{Value: t.Val}}, nil
	case runtime.KeywordValue:
		return &ast.LiteralPattern{Literal: &ast.KeywordExpr{Name: t.Name}}, nil
	case runtime.NilValue:
		return &ast.LiteralPattern{Literal: &ast.NilLiteral{}}, nil
	case runtime.BoolValue:
		return &ast.LiteralPattern{Literal: &ast.BoolLiteral{Value: t.Val}}, nil
	case *runtime.VectorValue:
		return seqPatternFromValues(ast.SeqVector, t.Elements)
	case *runtime.ListValue:
		if head, ok := headSymbol(t); ok {
			switch head {
			case "or":
				var alts []ast.Pattern
				for _, alt := range t.Elements[1:] {
					p, err := valueToPattern(alt)
					if err != nil {
						return nil, err
					}
					alts = append(alts, p)
				}
				return &ast.OrPattern{Alternatives: alts}, nil
			case "as":
				if len(t.Elements) != 3 {
					return nil, analyzeErr("as pattern expects (as pattern name)")
				}
				inner, err := valueToPattern(t.Elements[1])
				if err != nil {
					return nil, err
				}
				name, err := bindingName(t.Elements[2])
				if err != nil {
					return nil, err
				}
				return &ast.AsPattern{Inner: inner, Name: name}, nil
			case "transform":
				if len(t.Elements) != 3 {
					return nil, analyzeErr("transform pattern expects (transform name expr)")
				}
				name, err := bindingName(t.Elements[1])
				if err != nil {
					return nil, err
				}
				expr, err := valueToExpr(t.Elements[2])
				if err != nil {
					return nil, err
				}
				return &ast.TransformPattern{Name: name, Transform: expr}, nil
			}
		}
		return seqPatternFromValues(ast.SeqList, t.Elements)
	case *runtime.MapValue:
		out := &ast.MapPattern{}
		for _, entry := range t.Entries {
			if kw, ok := entry.Key.(runtime.KeywordValue); ok && kw.Name == "as" {
				name, err := bindingName(entry.Value)
				if err != nil {
					return nil, err
				}
				out.As = name
				continue
			}
			key, err := valueToExpr(entry.Key)
			if err != nil {
				return nil, err
			}
			pat, err := valueToPattern(entry.Value)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, ast.MapPatternEntry{Key: key, Pattern: pat})
		}
		return out, nil
	default:
		return nil, analyzeErr("cannot read %s as a pattern", runtime.Print(v))
	}
}

func seqPatternFromValues(kind ast.SeqKind, vals []runtime.Value) (ast.Pattern, error) {
	out := &ast.SeqPattern{Kind: kind}
	for idx := 0; idx < len(vals); idx++ {
		if sym, ok := vals[idx].(runtime.SymbolValue); ok && sym.Name == "&" {
			if idx+1 != len(vals)-1 {
				return nil, analyzeErr("rest binding must be last")
			}
			name, err := bindingName(vals[idx+1])
			if err != nil {
				return nil, err
			}
			out.Rest = name
			break
		}
		p, err := valueToPattern(vals[idx])
		if err != nil {
			return nil, err
		}
		out.Elements = append(out.Elements, p)
	}
	return out, nil
}

//-----------------------------------------------------------------------------
// Expressions to data
//-----------------------------------------------------------------------------

// valueToDatum converts a value to a data-mode Expr tree for quote payloads.
func valueToDatum(v runtime.Value) (ast.Expr, error) {
	switch t := v.(type) {
	case runtime.NilValue:
		return &ast.NilLiteral{}, nil
	case runtime.BoolValue:
		return &ast.BoolLiteral{Value: t.Val}, nil
	case runtime.IntegerValue:
		return &ast.IntegerLiteral{Value: t.Val}, nil
	case runtime.FloatValue:
		return &ast.FloatLiteral{Value: t.Val}, nil
	case runtime.StringValue:
		return &ast.StringLiteral{Value: t.Val}, nil
	case runtime.SymbolValue:
		return &ast.SymbolExpr{Name: t.Name}, nil
	case runtime.UvarValue:
		return &ast.SymbolExpr{Name: uvarName(t.ID)}, nil
	case runtime.KeywordValue:
		return &ast.KeywordExpr{Name: t.Name}, nil
	case *runtime.ListValue:
		elems, err := valuesToData(t.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.ListExpr{Elements: elems}, nil
	case *runtime.VectorValue:
		elems, err := valuesToData(t.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.VectorExpr{Elements: elems}, nil
	case *runtime.MapValue:
		out := &ast.MapExpr{}
		for _, entry := range t.Entries {
			key, err := valueToDatum(entry.Key)
			if err != nil {
				return nil, err
			}
			val, err := valueToDatum(entry.Value)
			if err != nil {
				return nil, err
			}
			out.Entries = append(out.Entries, ast.MapEntryExpr{Key: key, Value: val})
		}
		return out, nil
	default:
		return &embeddedValue{value: v}, nil
	}
}

func valuesToData(vals []runtime.Value) ([]ast.Expr, error) {
	out := make([]ast.Expr, len(vals))
	for i, v := range vals {
		e, err := valueToDatum(v)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// exprToDatum rewrites an expression-mode tree into data form so macro
// arguments arrive as quotable structure: special forms become plain lists
// headed by their keyword symbol.
func exprToDatum(e ast.Expr) ast.Expr {
	sym := func(name string) ast.Expr { return &ast.SymbolExpr{Name: name} }
	list := func(elems ...ast.Expr) ast.Expr { return &ast.ListExpr{Elements: elems} }
	switch t := e.(type) {
	case *ast.ListExpr:
		out := make([]ast.Expr, len(t.Elements))
		for i, el := range t.Elements {
			out[i] = exprToDatum(el)
		}
		return &ast.ListExpr{Elements: out}
	case *ast.VectorExpr:
		out := make([]ast.Expr, len(t.Elements))
		for i, el := range t.Elements {
			out[i] = exprToDatum(el)
		}
		return &ast.VectorExpr{Elements: out}
	case *ast.MapExpr:
		out := &ast.MapExpr{}
		for _, entry := range t.Entries {
			out.Entries = append(out.Entries, ast.MapEntryExpr{Key: exprToDatum(entry.Key), Value: exprToDatum(entry.Value)})
		}
		return out
	case *ast.CallExpr:
		elems := []ast.Expr{exprToDatum(t.Callee)}
		for _, a := range t.Args {
			elems = append(elems, exprToDatum(a))
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.DefExpr:
		return list(sym("def"), sym(t.Name), exprToDatum(t.Value))
	case *ast.FnExpr:
		return list(sym("fn"), paramsToDatum(t.Params, t.Variadic), exprToDatum(t.Body))
	case *ast.MacExpr:
		return list(sym("mac"), sym(t.Name), paramsToDatum(t.Params, t.Variadic), exprToDatum(t.Body))
	case *ast.LetExpr:
		return list(sym("let"), bindingsToDatum(t.Bindings), exprToDatum(t.Body))
	case *ast.LoopExpr:
		return list(sym("loop"), bindingsToDatum(t.Bindings), exprToDatum(t.Body))
	case *ast.IfExpr:
		if t.Else == nil {
			return list(sym("if"), exprToDatum(t.Test), exprToDatum(t.Then))
		}
		return list(sym("if"), exprToDatum(t.Test), exprToDatum(t.Then), exprToDatum(t.Else))
	case *ast.DoExpr:
		elems := []ast.Expr{sym("do")}
		for _, b := range t.Body {
			elems = append(elems, exprToDatum(b))
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.MatchExpr:
		elems := []ast.Expr{sym("match"), exprToDatum(t.Subject)}
		for _, clause := range t.Clauses {
			elems = append(elems, patternToDatum(clause.Pattern))
			body := exprToDatum(clause.Body)
			if clause.Guard != nil {
				body = list(sym("if"), exprToDatum(clause.Guard), body)
			}
			elems = append(elems, body)
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.TryExpr:
		return list(sym("try"), exprToDatum(t.Body))
	case *ast.DeferExpr:
		return list(sym("defer"), exprToDatum(t.Body))
	case *ast.RecurExpr:
		elems := []ast.Expr{sym("recur")}
		for _, a := range t.Args {
			elems = append(elems, exprToDatum(a))
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.QuoteExpr:
		return list(sym("quote"), t.Form)
	case *ast.QuasiquoteExpr:
		return list(sym("quasiquote"), t.Form)
	case *ast.UnquoteExpr:
		return list(sym("unquote"), exprToDatum(t.Form))
	case *ast.UnquoteSpliceExpr:
		return list(sym("unquote-splice"), exprToDatum(t.Form))
	case *ast.ModuleExpr:
		return list(sym("module"), sym(t.Name))
	case *ast.ExportExpr:
		elems := []ast.Expr{sym("export")}
		for _, n := range t.Names {
			elems = append(elems, sym(n))
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.UseExpr:
		elems := []ast.Expr{sym("use"), sym(t.Module)}
		switch t.Mode {
		case ast.UseOnly:
			var names []ast.Expr
			for _, n := range t.Only {
				names = append(names, sym(n))
			}
			elems = append(elems, &ast.KeywordExpr{Name: "only"}, &ast.VectorExpr{Elements: names})
		case ast.UseAs:
			elems = append(elems, &ast.KeywordExpr{Name: "as"}, sym(t.Alias))
		}
		return &ast.ListExpr{Elements: elems}
	default:
		return e
	}
}

func paramsToDatum(params []ast.Pattern, variadic bool) ast.Expr {
	var elems []ast.Expr
	fixed := params
	if variadic && len(params) > 0 {
		fixed = params[:len(params)-1]
	}
	for _, p := range fixed {
		elems = append(elems, patternToDatum(p))
	}
	if variadic && len(params) > 0 {
		elems = append(elems, &ast.SymbolExpr{Name: "&"}, patternToDatum(params[len(params)-1]))
	}
	return &ast.VectorExpr{Elements: elems}
}

func bindingsToDatum(bindings []ast.LetBinding) ast.Expr {
	var elems []ast.Expr
	for _, b := range bindings {
		elems = append(elems, patternToDatum(b.Pattern), exprToDatum(b.Value))
	}
	return &ast.VectorExpr{Elements: elems}
}

func patternToDatum(p ast.Pattern) ast.Expr {
	sym := func(name string) ast.Expr { return &ast.SymbolExpr{Name: name} }
	switch t := p.(type) {
	case *ast.WildcardPattern:
		return sym("_")
	case *ast.LiteralPattern:
		return t.Literal
	case *ast.VarPattern:
		return sym(t.Name)
	case *ast.SeqPattern:
		var elems []ast.Expr
		for _, el := range t.Elements {
			elems = append(elems, patternToDatum(el))
		}
		if t.Rest != "" {
			elems = append(elems, sym("&"), sym(t.Rest))
		}
		if t.Kind == ast.SeqVector {
			return &ast.VectorExpr{Elements: elems}
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.MapPattern:
		out := &ast.MapExpr{}
		for _, entry := range t.Entries {
			out.Entries = append(out.Entries, ast.MapEntryExpr{Key: entry.Key, Value: patternToDatum(entry.Pattern)})
		}
		if t.As != "" {
			out.Entries = append(out.Entries, ast.MapEntryExpr{Key: &ast.KeywordExpr{Name: "as"}, Value: sym(t.As)})
		}
		return out
	case *ast.AsPattern:
		return &ast.ListExpr{Elements: []ast.Expr{sym("as"), patternToDatum(t.Inner), sym(t.Name)}}
	case *ast.OrPattern:
		elems := []ast.Expr{sym("or")}
		for _, alt := range t.Alternatives {
			elems = append(elems, patternToDatum(alt))
		}
		return &ast.ListExpr{Elements: elems}
	case *ast.TransformPattern:
		return &ast.ListExpr{Elements: []ast.Expr{sym("transform"), sym(t.Name), exprToDatum(t.Transform)}}
	default:
		return sym("_")
	}
}
