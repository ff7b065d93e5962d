package main

import (
	"fmt"
	"os"
	"path/filepath"
)

const newManifestTemplate = `name: %s
version: 0.1.0
main: src/main.qi
source_roots:
  - src
dependencies:
`

const newMainTemplate = `(module main)

(defn main []
  (println "hello from %s"))

(main)
`

// runNew scaffolds a fresh project directory with a manifest and a hello
// world entry point.
func runNew(args []string) int {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprintln(os.Stderr, "qi new requires a project name")
		return exitUsage
	}
	name := args[0]

	if _, err := os.Stat(name); err == nil {
		fmt.Fprintf(os.Stderr, "qi: %s already exists\n", name)
		return exitUsage
	}
	if err := os.MkdirAll(filepath.Join(name, "src"), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "qi: %v\n", err)
		return exitRuntime
	}

	files := map[string]string{
		filepath.Join(name, "qi.yml"):         fmt.Sprintf(newManifestTemplate, name),
		filepath.Join(name, "src", "main.qi"): fmt.Sprintf(newMainTemplate, name),
		filepath.Join(name, ".gitignore"):     ".qi/\nqi.lock\n",
	}
	for path, contents := range files {
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "qi: %v\n", err)
			return exitRuntime
		}
	}

	fmt.Fprintf(os.Stdout, "created %s\n", name)
	return exitOK
}
