package driver

import (
	"os"
	"path/filepath"
	"strings"
)

// CacheDir returns the directory holding fetched dependency sources:
// QI_HOME when set, otherwise ~/.qi.
func CacheDir() string {
	if home := strings.TrimSpace(os.Getenv("QI_HOME")); home != "" {
		return home
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".qi"
	}
	return filepath.Join(home, ".qi")
}

// DepSourceDir is where a fetched dependency's checkout lands inside the
// cache.
func DepSourceDir(cacheDir, name, version string) string {
	return filepath.Join(cacheDir, "pkg", "src", sanitizeSegment(name), sanitizeVersionSegment(version))
}

// CollectSearchPaths assembles module search roots: explicit extras first,
// then QI_PATH entries, then the fetched-dependency roots recorded in the
// lockfile. Non-directories and duplicates are dropped.
func CollectSearchPaths(lock *Lockfile, extra ...string) []string {
	seen := make(map[string]struct{})
	var paths []string

	add := func(path string) {
		if path == "" {
			return
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		paths = append(paths, abs)
	}

	for _, path := range extra {
		add(path)
	}
	for _, part := range SplitPathListEnv(os.Getenv("QI_PATH")) {
		add(part)
	}
	if lock != nil {
		cache := CacheDir()
		for _, pkg := range lock.Packages {
			if pkg == nil {
				continue
			}
			add(DepSourceDir(cache, pkg.Name, pkg.Version))
		}
	}
	return paths
}

// SplitPathListEnv splits an os.PathListSeparator-joined env value, dropping
// empty entries.
func SplitPathListEnv(value string) []string {
	if value == "" {
		return nil
	}
	raw := strings.Split(value, string(os.PathListSeparator))
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func sanitizeVersionSegment(segment string) string {
	s := sanitizeSegment(segment)
	if s == "" {
		return "head"
	}
	return s
}
