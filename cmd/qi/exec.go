package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/qi-lang/qi/pkg/driver"
	"github.com/qi-lang/qi/pkg/interpreter"
	"github.com/qi-lang/qi/pkg/parser"
	"github.com/qi-lang/qi/pkg/runtime"
)

// newInterpreter builds an interpreter whose module search paths include the
// manifest's source roots and the fetched dependencies, when a qi.yml is
// reachable from dir.
func newInterpreter(dir string, logger *slog.Logger) *interpreter.Interpreter {
	interp := interpreter.New()
	interp.SetLogger(logger)

	var manifest *driver.Manifest
	if manifestPath, err := driver.FindManifest(dir); err == nil {
		m, loadErr := driver.LoadManifest(manifestPath)
		if loadErr != nil {
			logger.Warn("manifest unreadable, continuing without it", "path", manifestPath, "error", loadErr)
		} else {
			manifest = m
		}
	}

	var lock *driver.Lockfile
	if manifest != nil {
		lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
		if l, err := driver.LoadLockfile(lockPath); err == nil {
			lock = l
		} else if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("lockfile unreadable", "path", lockPath, "error", err)
		}
	}

	var extras []string
	if manifest != nil {
		extras = manifest.SearchRoots()
	}
	interp.SetSearchPaths(driver.CollectSearchPaths(lock, extras...))
	return interp
}

func runFile(path string, logger *slog.Logger) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi: %v\n", err)
		return exitUsage
	}
	forms, err := parser.Parse(string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi: parse error: %v\n", err)
		return exitUsage
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	interp := newInterpreter(filepath.Dir(abs), logger)
	interp.SetCurrentFile(abs)

	if _, err := interp.EvalProgram(forms); err != nil {
		fmt.Fprintf(os.Stderr, "qi: %s\n", describeError(err))
		return exitRuntime
	}
	return exitOK
}

func runExpr(src string, logger *slog.Logger) int {
	forms, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi: parse error: %v\n", err)
		return exitUsage
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	interp := newInterpreter(cwd, logger)
	v, err := interp.EvalProgram(forms)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi: %s\n", describeError(err))
		return exitRuntime
	}
	fmt.Fprintln(os.Stdout, runtime.Print(v))
	return exitOK
}

func describeError(err error) string {
	var qe *runtime.QiError
	if errors.As(err, &qe) {
		return qe.Error()
	}
	return err.Error()
}
