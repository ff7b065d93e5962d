package interpreter

import (
	"io"
	"log/slog"
	"os"

	"github.com/qi-lang/qi/pkg/ast"
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/parser"
	"github.com/qi-lang/qi/pkg/runtime"
)

// Interpreter evaluates Qi expression trees. Clones share the global frame,
// the module registry, and the logger; everything else is per-clone, so each
// spawned goroutine gets its own handle.
type Interpreter struct {
	global  *runtime.Environment
	logger  *slog.Logger
	modules *moduleRegistry
	stdout  io.Writer

	// builtinNames is filled once at construction and read-only afterwards;
	// def consults it to warn on shadowing a builtin.
	builtinNames map[string]struct{}

	searchPaths   []string
	currentFile   string
	currentModule *moduleRecord

	deferStack []*deferFrame
}

// New constructs an interpreter with every builtin registered into a fresh
// global frame.
func New() *Interpreter {
	i := &Interpreter{
		global:       runtime.NewEnvironment(nil),
		logger:       slog.Default(),
		modules:      newModuleRegistry(),
		stdout:       os.Stdout,
		builtinNames: make(map[string]struct{}),
	}
	i.registerBuiltins()
	return i
}

// Clone hands out an evaluator sharing the global frame. Concurrency
// primitives move clones into worker goroutines instead of sharing one
// interpreter's activation state.
func (i *Interpreter) Clone() *Interpreter {
	return &Interpreter{
		global:        i.global,
		logger:        i.logger,
		modules:       i.modules,
		stdout:        i.stdout,
		builtinNames:  i.builtinNames,
		searchPaths:   i.searchPaths,
		currentFile:   i.currentFile,
		currentModule: i.currentModule,
	}
}

// CloneReentry implements runtime.Reentry for native callbacks.
func (i *Interpreter) CloneReentry() runtime.Reentry { return i.Clone() }

// SetLogger replaces the runtime logger (deferred failures, builtin
// redefinition warnings, module diagnostics).
func (i *Interpreter) SetLogger(l *slog.Logger) {
	if l != nil {
		i.logger = l
	}
}

// SetStdout redirects print output; the REPL and tests capture it here.
func (i *Interpreter) SetStdout(w io.Writer) {
	if w != nil {
		i.stdout = w
	}
}

// SetSearchPaths configures the module resolution roots consulted after the
// importer's own directory.
func (i *Interpreter) SetSearchPaths(paths []string) {
	i.searchPaths = paths
}

// SetCurrentFile records the file whose directory anchors relative use forms.
func (i *Interpreter) SetCurrentFile(path string) {
	i.currentFile = path
}

// Global exposes the shared global frame.
func (i *Interpreter) Global() *runtime.Environment { return i.global }

// Eval evaluates one expression in the global frame.
func (i *Interpreter) Eval(expr ast.Expr) (runtime.Value, error) {
	return i.EvalWithEnv(expr, i.global)
}

// EvalWithEnv evaluates one expression in the given environment. A top-level
// defer frame wraps the call so bare defer forms still run.
func (i *Interpreter) EvalWithEnv(expr ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	frame := i.pushDeferFrame()
	v, err := i.evalExpr(expr, env)
	if rs, ok := asRecur(err); ok {
		_ = rs
		err = runtime.NewError(runtime.CodeRecurNotTail, i18n.Msg("recur-outside"))
	}
	i.popDeferFrame(frame)
	return v, err
}

// EvalProgram evaluates top-level forms in order and returns the last value.
// Deferred forms registered at the top level run when the program ends.
func (i *Interpreter) EvalProgram(forms []ast.Expr) (runtime.Value, error) {
	frame := i.pushDeferFrame()
	var last runtime.Value = runtime.NilValue{}
	var failure error
	for _, form := range forms {
		v, err := i.evalExpr(form, i.global)
		if err != nil {
			if _, ok := asRecur(err); ok {
				err = runtime.NewError(runtime.CodeRecurNotTail, i18n.Msg("recur-outside"))
			}
			failure = err
			break
		}
		last = v
	}
	i.popDeferFrame(frame)
	if failure != nil {
		return nil, failure
	}
	return last, nil
}

// EvalSource parses and evaluates a source string.
func (i *Interpreter) EvalSource(src string) (runtime.Value, error) {
	forms, err := parser.Parse(src)
	if err != nil {
		return nil, runtime.NewError(runtime.CodeParse, i18n.Msg("parse-error", err.Error()))
	}
	return i.EvalProgram(forms)
}

//-----------------------------------------------------------------------------
// Name suggestions
//-----------------------------------------------------------------------------

// nearestName suggests the closest visible binding for an undefined variable,
// or "" when nothing is close enough.
func nearestName(name string, env *runtime.Environment) string {
	if len(name) < 3 {
		return ""
	}
	best := ""
	bestDist := 3 // suggestions beyond edit distance 2 are noise
	for _, candidate := range env.AllNames() {
		d := editDistance(name, candidate)
		if d < bestDist {
			best = candidate
			bestDist = d
		}
	}
	return best
}

func editDistance(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
