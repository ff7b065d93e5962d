package interpreter

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/qi-lang/qi/pkg/ast"
	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/parser"
	"github.com/qi-lang/qi/pkg/runtime"
)

// moduleRecord is one loaded (or loading) module: its scope frame, the names
// it declared for export, and the snapshot taken when loading finished.
type moduleRecord struct {
	path     string
	name     string
	env      *runtime.Environment
	declared []string
	defs     []string
	exports  map[string]runtime.Value
}

func (m *moduleRecord) noteDefinition(name string) {
	m.defs = append(m.defs, name)
}

// moduleRegistry is shared by all interpreter clones. loading doubles as the
// circular-dependency chain for error reporting.
type moduleRegistry struct {
	mu      sync.Mutex
	loaded  map[string]*moduleRecord
	loading []string
}

func newModuleRegistry() *moduleRegistry {
	return &moduleRegistry{loaded: make(map[string]*moduleRecord)}
}

func (r *moduleRegistry) lookup(path string) *moduleRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded[path]
}

// beginLoad marks path as loading. The second result is false when the path
// is already on the chain; the chain copy feeds the circular error message.
func (r *moduleRegistry) beginLoad(path string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.loading {
		if p == path {
			chain := append(append([]string{}, r.loading...), path)
			return chain, false
		}
	}
	r.loading = append(r.loading, path)
	return nil, true
}

func (r *moduleRegistry) endLoad(path string, record *moduleRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for idx := len(r.loading) - 1; idx >= 0; idx-- {
		if r.loading[idx] == path {
			r.loading = append(r.loading[:idx], r.loading[idx+1:]...)
			break
		}
	}
	if record != nil {
		r.loaded[path] = record
	}
}

//-----------------------------------------------------------------------------
// Evaluator hooks
//-----------------------------------------------------------------------------

func (i *Interpreter) evalModuleDecl(m *ast.ModuleExpr, env *runtime.Environment) (runtime.Value, error) {
	if i.currentModule == nil {
		i.currentModule = &moduleRecord{env: env}
	}
	i.currentModule.name = m.Name
	return runtime.NilValue{}, nil
}

func (i *Interpreter) evalExport(e *ast.ExportExpr, env *runtime.Environment) (runtime.Value, error) {
	if i.currentModule == nil || i.currentModule.name == "" {
		return nil, runtime.NewError(runtime.CodeUseBeforeModule, i18n.Msg("use-before-module"))
	}
	i.currentModule.declared = append(i.currentModule.declared, e.Names...)
	return runtime.NilValue{}, nil
}

func (i *Interpreter) evalUse(u *ast.UseExpr, env *runtime.Environment) (runtime.Value, error) {
	path, err := i.resolveModule(u.Module)
	if err != nil {
		return nil, err
	}
	record := i.modules.lookup(path)
	if record == nil {
		record, err = i.loadModule(path)
		if err != nil {
			return nil, err
		}
	}
	switch u.Mode {
	case ast.UseOnly:
		for _, name := range u.Only {
			v, ok := record.exports[name]
			if !ok {
				return nil, runtime.NewError(runtime.CodeNotExported, i18n.Msg("not-exported", name, record.name))
			}
			env.Define(name, v)
		}
	case ast.UseAs:
		table := runtime.NewMap()
		for _, name := range record.declared {
			if v, ok := record.exports[name]; ok {
				table, _ = table.Assoc(runtime.InternSymbol(name), v)
			}
		}
		env.Define(u.Alias, table)
	case ast.UseAll:
		for _, name := range record.declared {
			if v, ok := record.exports[name]; ok {
				env.Define(name, v)
			}
		}
	}
	return runtime.NilValue{}, nil
}

// resolveModule maps a module name to a file path: importer-relative first,
// then the configured search roots.
func (i *Interpreter) resolveModule(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if !strings.HasSuffix(rel, ".qi") {
		rel += ".qi"
	}
	var roots []string
	if i.currentFile != "" {
		roots = append(roots, filepath.Dir(i.currentFile))
	} else if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}
	roots = append(roots, i.searchPaths...)
	for _, root := range roots {
		candidate := filepath.Join(root, rel)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			abs, err := filepath.Abs(candidate)
			if err == nil {
				return abs, nil
			}
		}
	}
	return "", runtime.NewError(runtime.CodeModuleNotFound, i18n.Msg("module-not-found", name))
}

// loadModule parses and evaluates a module file in a fresh module-scoped
// frame nested under the global frame. The frame is a DefineGlobal root, so
// defs inside the module stay module-local.
func (i *Interpreter) loadModule(path string) (*moduleRecord, error) {
	chain, ok := i.modules.beginLoad(path)
	if !ok {
		return nil, runtime.NewError(runtime.CodeCircularDependency, i18n.Msg("circular-dependency", strings.Join(chain, " -> ")))
	}

	src, err := os.ReadFile(path)
	if err != nil {
		i.modules.endLoad(path, nil)
		return nil, runtime.NewError(runtime.CodeModuleNotFound, i18n.Msg("module-not-found", path))
	}
	forms, err := parser.Parse(string(src))
	if err != nil {
		i.modules.endLoad(path, nil)
		return nil, runtime.NewError(runtime.CodeParse, i18n.Msg("parse-error", err.Error()))
	}

	moduleEnv := runtime.NewEnvironment(i.global)
	moduleEnv.MarkRoot()
	record := &moduleRecord{path: path, env: moduleEnv}

	child := i.Clone()
	child.currentFile = path
	child.currentModule = record

	frame := child.pushDeferFrame()
	var evalErr error
	for _, form := range forms {
		if _, err := child.evalExpr(form, moduleEnv); err != nil {
			evalErr = nonTailErr(err)
			break
		}
	}
	child.popDeferFrame(frame)
	if evalErr != nil {
		i.modules.endLoad(path, nil)
		return nil, evalErr
	}
	if record.name == "" {
		i.modules.endLoad(path, nil)
		return nil, runtime.NewError(runtime.CodeUseBeforeModule, i18n.Msg("use-before-module"))
	}

	record.exports = make(map[string]runtime.Value, len(record.declared))
	for _, name := range record.declared {
		v, ok := moduleEnv.Get(name)
		if !ok {
			i.modules.endLoad(path, nil)
			return nil, runtime.NewError(runtime.CodeUndefinedVar, i18n.Msg("undefined-var", name))
		}
		record.exports[name] = v
	}

	i.logger.Debug("module loaded", "module", record.name, "path", path, "exports", len(record.exports))
	i.modules.endLoad(path, record)
	return record, nil
}
