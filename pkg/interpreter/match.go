package interpreter

import (
	"github.com/qi-lang/qi/pkg/ast"
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

// matchState accumulates bindings and deferred transforms during a match
// attempt. Both slices stay small in practice, so rollback for Or patterns is
// truncation by recorded length.
type matchState struct {
	bindings   []binding
	transforms []deferredTransform
}

type binding struct {
	name  string
	value runtime.Value
}

// deferredTransform records a transform pattern hit. The transform expression
// runs only after the clause guard passes, always against the original value.
type deferredTransform struct {
	name     string
	expr     ast.Expr
	original runtime.Value
}

func (st *matchState) bind(name string, v runtime.Value) {
	st.bindings = append(st.bindings, binding{name: name, value: v})
}

func (st *matchState) mark() (int, int) {
	return len(st.bindings), len(st.transforms)
}

func (st *matchState) rollback(nb, nt int) {
	st.bindings = st.bindings[:nb]
	st.transforms = st.transforms[:nt]
}

// matchPattern attempts p against v, extending st on success. A false return
// leaves st exactly as it was.
func (i *Interpreter) matchPattern(p ast.Pattern, v runtime.Value, st *matchState) bool {
	switch t := p.(type) {
	case *ast.WildcardPattern:
		return true
	case *ast.LiteralPattern:
		lit, err := exprToValue(t.Literal)
		if err != nil {
			return false
		}
		return runtime.Equal(lit, v)
	case *ast.VarPattern:
		st.bind(t.Name, v)
		return true
	case *ast.SeqPattern:
		return i.matchSeq(t, v, st)
	case *ast.MapPattern:
		return i.matchMap(t, v, st)
	case *ast.AsPattern:
		nb, nt := st.mark()
		if !i.matchPattern(t.Inner, v, st) {
			st.rollback(nb, nt)
			return false
		}
		st.bind(t.Name, v)
		return true
	case *ast.OrPattern:
		for _, alt := range t.Alternatives {
			nb, nt := st.mark()
			if i.matchPattern(alt, v, st) {
				return true
			}
			st.rollback(nb, nt)
		}
		return false
	case *ast.TransformPattern:
		st.bind(t.Name, v)
		st.transforms = append(st.transforms, deferredTransform{name: t.Name, expr: t.Transform, original: v})
		return true
	default:
		return false
	}
}

// matchSeq matches list and vector patterns. Either collection kind is
// accepted; the rest binding keeps the input's kind.
func (i *Interpreter) matchSeq(p *ast.SeqPattern, v runtime.Value, st *matchState) bool {
	elems, ok := runtime.SequenceElements(v)
	if !ok {
		return false
	}
	if p.Rest == "" {
		if len(elems) != len(p.Elements) {
			return false
		}
	} else if len(elems) < len(p.Elements) {
		return false
	}
	nb, nt := st.mark()
	for idx, ep := range p.Elements {
		if !i.matchPattern(ep, elems[idx], st) {
			st.rollback(nb, nt)
			return false
		}
	}
	if p.Rest != "" {
		rest := make([]runtime.Value, len(elems)-len(p.Elements))
		copy(rest, elems[len(p.Elements):])
		if _, isVec := v.(*runtime.VectorValue); isVec {
			st.bind(p.Rest, &runtime.VectorValue{Elements: rest})
		} else {
			st.bind(p.Rest, &runtime.ListValue{Elements: rest})
		}
	}
	return true
}

func (i *Interpreter) matchMap(p *ast.MapPattern, v runtime.Value, st *matchState) bool {
	m, ok := v.(*runtime.MapValue)
	if !ok {
		return false
	}
	nb, nt := st.mark()
	for _, entry := range p.Entries {
		key, err := exprToValue(entry.Key)
		if err != nil {
			st.rollback(nb, nt)
			return false
		}
		val, found := m.Get(key)
		if !found {
			st.rollback(nb, nt)
			return false
		}
		if !i.matchPattern(entry.Pattern, val, st) {
			st.rollback(nb, nt)
			return false
		}
	}
	if p.As != "" {
		st.bind(p.As, v)
	}
	return true
}

// applyBindings installs the collected bindings into env.
func applyBindings(st *matchState, env *runtime.Environment) {
	for _, b := range st.bindings {
		env.Define(b.name, b.value)
	}
}

// applyTransforms evaluates each deferred transform in env, applies it to the
// original matched value, and rebinds the name.
func (i *Interpreter) applyTransforms(st *matchState, env *runtime.Environment) error {
	for _, tr := range st.transforms {
		fn, err := i.nonTailEval(tr.expr, env)
		if err != nil {
			return err
		}
		v, err := i.Apply(fn, []runtime.Value{tr.original})
		if err != nil {
			return err
		}
		env.Define(tr.name, v)
	}
	return nil
}

// bindPattern destructures v with p directly into env, running transforms
// immediately (let bindings and parameters have no guard phase).
func (i *Interpreter) bindPattern(p ast.Pattern, v runtime.Value, env *runtime.Environment) error {
	var st matchState
	if !i.matchPattern(p, v, &st) {
		return runtime.NewError(runtime.CodeNoMatchingPattern, i18n.Msg("no-matching-pattern", runtime.Print(v)))
	}
	applyBindings(&st, env)
	return i.applyTransforms(&st, env)
}

// evalMatch tries each clause in order: pattern, then guard over the
// bindings, then transforms, then body.
func (i *Interpreter) evalMatch(m *ast.MatchExpr, env *runtime.Environment) (runtime.Value, error) {
	subject, err := i.nonTailEval(m.Subject, env)
	if err != nil {
		return nil, err
	}
	for _, clause := range m.Clauses {
		var st matchState
		if !i.matchPattern(clause.Pattern, subject, &st) {
			continue
		}
		armEnv := env.Extend()
		applyBindings(&st, armEnv)
		if clause.Guard != nil {
			passed, err := i.nonTailEval(clause.Guard, armEnv)
			if err != nil {
				return nil, err
			}
			if !runtime.Truthy(passed) {
				continue
			}
		}
		if err := i.applyTransforms(&st, armEnv); err != nil {
			return nil, err
		}
		return i.evalExpr(clause.Body, armEnv)
	}
	return nil, runtime.NewError(runtime.CodeNoMatchingPattern, i18n.Msg("no-matching-pattern", runtime.Print(subject)))
}
