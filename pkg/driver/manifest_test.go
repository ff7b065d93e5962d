package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifest(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
version: 0.1.0
license: MIT
authors:
  - Ada
main: src/main.qi
source_roots:
  - src
  - lib
dependencies:
  utils:
    git: https://example.com/utils.git
    tag: v1.2.0
  localdep:
    path: ../localdep
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name != "demo" || m.Version != "0.1.0" || m.Main != "src/main.qi" {
		t.Fatalf("unexpected manifest %+v", m)
	}
	if len(m.SourceRoots) != 2 || m.SourceRoots[1] != "lib" {
		t.Fatalf("unexpected source roots %v", m.SourceRoots)
	}
	dep := m.Dependencies["utils"]
	if dep == nil || dep.Git != "https://example.com/utils.git" || dep.Tag != "v1.2.0" {
		t.Fatalf("unexpected git dependency %+v", dep)
	}
	if m.Dependencies["localdep"].Path != "../localdep" {
		t.Fatalf("unexpected path dependency %+v", m.Dependencies["localdep"])
	}
}

func TestLoadManifestScalarDependencyIsPath(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
dependencies:
  sibling: ../sibling
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Dependencies["sibling"].Path != "../sibling" {
		t.Fatalf("scalar dependency must be a path, got %+v", m.Dependencies["sibling"])
	}
}

func TestLoadManifestRejectsUnknownFields(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
mystery: true
`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatalf("expected unknown-field error")
	}
}

func TestManifestRequiresName(t *testing.T) {
	path := writeManifest(t, t.TempDir(), "version: 1.0.0\n")
	_, err := LoadManifest(path)
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(ve.Error(), "name must be provided") {
		t.Fatalf("unexpected issues %v", ve.Issues)
	}
}

func TestGitDependencyRequiresPin(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
dependencies:
  loose:
    git: https://example.com/loose.git
`)
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "require rev, tag, or branch") {
		t.Fatalf("expected missing-pin error, got %v", err)
	}
}

func TestGitAndPathAreExclusive(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
dependencies:
  both:
    git: https://example.com/both.git
    rev: abc123
    path: ../both
`)
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected exclusivity error, got %v", err)
	}
}

func TestPathDependencyRejectsPins(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
dependencies:
  pinnedpath:
    path: ../dep
    tag: v1
`)
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "cannot pin") {
		t.Fatalf("expected pinned-path error, got %v", err)
	}
}

func TestMultiplePinsRejected(t *testing.T) {
	path := writeManifest(t, t.TempDir(), `
name: demo
dependencies:
  overpinned:
    git: https://example.com/o.git
    tag: v1
    branch: main
`)
	_, err := LoadManifest(path)
	if err == nil || !strings.Contains(err.Error(), "rev, tag, and branch are mutually exclusive") {
		t.Fatalf("expected over-pinned error, got %v", err)
	}
}

func TestFindManifestWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "name: demo\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	found, err := FindManifest(nested)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found != filepath.Join(root, ManifestName) {
		t.Fatalf("unexpected manifest path %s", found)
	}
}

func TestFindManifestMissing(t *testing.T) {
	if _, err := FindManifest(t.TempDir()); err == nil {
		t.Fatalf("expected not-found error")
	}
}

func TestSearchRootsDefaultToProjectRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "name: demo\n")
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	roots := m.SearchRoots()
	if len(roots) != 1 || roots[0] != m.Dir() {
		t.Fatalf("unexpected default roots %v", roots)
	}
}

func TestSearchRootsResolveAgainstProjectRoot(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
name: demo
source_roots: [src, vendor/qi]
`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	roots := m.SearchRoots()
	if len(roots) != 2 || roots[0] != filepath.Join(m.Dir(), "src") {
		t.Fatalf("unexpected roots %v", roots)
	}
	if roots[1] != filepath.Join(m.Dir(), "vendor", "qi") {
		t.Fatalf("source roots must be slash-normalized, got %v", roots)
	}
}

func TestSanitizeSegment(t *testing.T) {
	if got := sanitizeSegment("my pkg/v1"); got != "my_pkg_v1" {
		t.Fatalf("unexpected sanitized segment %q", got)
	}
	if got := sanitizeSegment("  ok-name_1.2  "); got != "ok-name_1.2" {
		t.Fatalf("unexpected sanitized segment %q", got)
	}
}
