package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/qi-lang/qi/pkg/driver"
)

// runDeps handles `qi deps install` and `qi deps update`. Install reuses
// lock entries whose pin still matches the manifest; update refetches
// everything.
func runDeps(args []string, logger *slog.Logger) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "qi deps requires a subcommand: install or update")
		return exitUsage
	}
	var refresh bool
	switch args[0] {
	case "install":
		refresh = false
	case "update":
		refresh = true
	default:
		fmt.Fprintf(os.Stderr, "qi deps: unknown subcommand %q\n", args[0])
		return exitUsage
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	manifestPath, err := driver.FindManifest(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi deps: %v\n", err)
		return exitUsage
	}
	manifest, err := driver.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi deps: %v\n", err)
		return exitUsage
	}
	projectRoot := manifest.Dir()

	lockPath := filepath.Join(projectRoot, driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("lockfile unreadable, rebuilding", "path", lockPath, "error", err)
		}
		lock = driver.NewLockfile(manifest.Name, cliVersion)
	}
	lock.Root = manifest.Name

	fetcher := driver.NewGitFetcher(driver.CacheDir())
	failed := false
	for name, spec := range manifest.Dependencies {
		pkg, err := resolveDependency(name, spec, manifest, lock, fetcher, refresh)
		if err != nil {
			logger.Error("dependency failed", "name", name, "error", err)
			failed = true
			continue
		}
		lock.Upsert(pkg)
		fmt.Fprintf(os.Stdout, "  %s %s\n", pkg.Name, pkg.Version)
	}
	if failed {
		return exitRuntime
	}

	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		fmt.Fprintf(os.Stderr, "qi deps: %v\n", err)
		return exitRuntime
	}
	fmt.Fprintf(os.Stdout, "wrote %s (%d packages)\n", driver.LockfileName, len(lock.Packages))
	return exitOK
}

func resolveDependency(name string, spec *driver.DependencySpec, manifest *driver.Manifest, lock *driver.Lockfile, fetcher *driver.GitFetcher, refresh bool) (*driver.LockedPackage, error) {
	if spec.Path != "" {
		return driver.FetchPath(name, spec, manifest.Dir())
	}

	// Install keeps a lock entry whose pinned rev still matches.
	if !refresh && spec.Rev != "" {
		if existing := lock.Find(name); existing != nil && strings.Contains(existing.Source, "@"+spec.Rev) {
			return existing, nil
		}
	}
	return fetcher.Fetch(name, spec)
}
