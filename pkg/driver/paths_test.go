package driver

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSplitPathListEnv(t *testing.T) {
	sep := string(os.PathListSeparator)
	got := SplitPathListEnv("/a" + sep + "" + sep + " /b ")
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Fatalf("unexpected split %v", got)
	}
	if SplitPathListEnv("") != nil {
		t.Fatalf("empty value must yield nil")
	}
}

func TestCacheDirHonorsQiHome(t *testing.T) {
	t.Setenv("QI_HOME", "/custom/qi-home")
	if got := CacheDir(); got != "/custom/qi-home" {
		t.Fatalf("unexpected cache dir %s", got)
	}
	t.Setenv("QI_HOME", "")
	if got := CacheDir(); !strings.HasSuffix(got, ".qi") {
		t.Fatalf("default cache dir must end in .qi, got %s", got)
	}
}

func TestDepSourceDirLayout(t *testing.T) {
	got := DepSourceDir("/cache", "my pkg", "v1.0+beta")
	want := filepath.Join("/cache", "pkg", "src", "my_pkg", "v1.0_beta")
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	if got := DepSourceDir("/cache", "p", ""); !strings.HasSuffix(got, "head") {
		t.Fatalf("empty version must fall back to head, got %s", got)
	}
}

func TestCollectSearchPathsFiltersAndDeduplicates(t *testing.T) {
	real := t.TempDir()
	other := t.TempDir()
	missing := filepath.Join(real, "does-not-exist")
	t.Setenv("QI_PATH", other+string(os.PathListSeparator)+real)

	got := CollectSearchPaths(nil, real, missing)
	if len(got) != 2 {
		t.Fatalf("expected two roots, got %v", got)
	}
	// Extras come before QI_PATH entries; the duplicate real is dropped.
	if got[0] != real || got[1] != other {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestCollectSearchPathsIncludesLockedDeps(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("QI_HOME", cache)
	t.Setenv("QI_PATH", "")

	lock := NewLockfile("demo", "qi")
	lock.Upsert(&LockedPackage{Name: "present", Version: "1.0.0"})
	lock.Upsert(&LockedPackage{Name: "unfetched", Version: "1.0.0"})
	fetched := DepSourceDir(cache, "present", "1.0.0")
	if err := os.MkdirAll(fetched, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got := CollectSearchPaths(lock)
	if len(got) != 1 || got[0] != fetched {
		t.Fatalf("expected only the fetched dependency dir, got %v", got)
	}
}
