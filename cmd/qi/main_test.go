package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunVersionAndHelp(t *testing.T) {
	if code := run([]string{"--version"}); code != exitOK {
		t.Fatalf("--version: expected %d, got %d", exitOK, code)
	}
	if code := run([]string{"--help"}); code != exitOK {
		t.Fatalf("--help: expected %d, got %d", exitOK, code)
	}
}

func TestRunExpr(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := run([]string{"-e", "(+ 1 2)"}); code != exitOK {
		t.Fatalf("expected success, got %d", code)
	}
}

func TestRunExprRuntimeError(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := run([]string{"-e", "(boom)"}); code != exitRuntime {
		t.Fatalf("expected runtime failure, got %d", code)
	}
}

func TestRunExprParseError(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := run([]string{"-e", "(def x"}); code != exitUsage {
		t.Fatalf("expected usage failure, got %d", code)
	}
}

func TestRunExprRequiresArgument(t *testing.T) {
	if code := run([]string{"-e"}); code != exitUsage {
		t.Fatalf("expected usage failure, got %d", code)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.qi")
	if err := os.WriteFile(path, []byte(`(println "hi")`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if code := run([]string{path}); code != exitOK {
		t.Fatalf("expected success, got %d", code)
	}
}

func TestRunFileRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.qi")
	if err := os.WriteFile(path, []byte("(undefined-thing)"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if code := run([]string{path}); code != exitRuntime {
		t.Fatalf("expected runtime failure, got %d", code)
	}
}

func TestRunMissingFile(t *testing.T) {
	if code := run([]string{filepath.Join(t.TempDir(), "absent.qi")}); code != exitUsage {
		t.Fatalf("expected usage failure, got %d", code)
	}
}

func TestRunNewScaffoldsProject(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := runNew([]string{"demo"}); code != exitOK {
		t.Fatalf("expected success, got %d", code)
	}
	for _, rel := range []string{
		filepath.Join("demo", "qi.yml"),
		filepath.Join("demo", "src", "main.qi"),
		filepath.Join("demo", ".gitignore"),
	} {
		if _, err := os.Stat(rel); err != nil {
			t.Fatalf("missing scaffolded file %s: %v", rel, err)
		}
	}
	// The scaffolded project runs as-is.
	if code := run([]string{filepath.Join("demo", "src", "main.qi")}); code != exitOK {
		t.Fatalf("scaffolded program failed with %d", code)
	}
}

func TestRunNewRefusesExisting(t *testing.T) {
	t.Chdir(t.TempDir())
	if code := runNew([]string{"demo"}); code != exitOK {
		t.Fatalf("first run failed with %d", code)
	}
	if code := runNew([]string{"demo"}); code != exitUsage {
		t.Fatalf("expected usage failure on existing dir, got %d", code)
	}
}

func TestRunNewRequiresName(t *testing.T) {
	if code := runNew(nil); code != exitUsage {
		t.Fatalf("expected usage failure, got %d", code)
	}
}
