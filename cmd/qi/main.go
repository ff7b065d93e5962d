package main

import (
	"fmt"
	"log/slog"
	"os"
)

const cliVersion = "qi 0.1.0-dev"

// Exit codes: 0 success, 1 runtime error, 2 parse or usage error.
const (
	exitOK      = 0
	exitRuntime = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	logger := newLogger()
	slog.SetDefault(logger)

	if len(args) == 0 {
		return runRepl(logger)
	}
	switch args[0] {
	case "--help", "-h", "help":
		printUsage(os.Stdout)
		return exitOK
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliVersion)
		return exitOK
	case "-e":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "qi -e requires exactly one expression argument")
			return exitUsage
		}
		return runExpr(args[1], logger)
	case "repl":
		return runRepl(logger)
	case "new":
		return runNew(args[1:])
	case "deps":
		return runDeps(args[1:], logger)
	default:
		return runFile(args[0], logger)
	}
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  qi <file.qi>        run a source file")
	fmt.Fprintln(w, "  qi -e '<expr>'      evaluate an expression")
	fmt.Fprintln(w, "  qi                  start the REPL")
	fmt.Fprintln(w, "  qi repl             start the REPL")
	fmt.Fprintln(w, "  qi new <name>       scaffold a project")
	fmt.Fprintln(w, "  qi deps install     fetch dependencies and write qi.lock")
	fmt.Fprintln(w, "  qi deps update      refresh dependencies, ignoring qi.lock")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  QI_LANG             message locale (en/ja), falls back to LANG")
	fmt.Fprintln(w, "  QI_PATH             extra module search roots")
	fmt.Fprintln(w, "  QI_LOG_FILE         mirror logs into a file")
	fmt.Fprintln(w, "  QI_LOG_LEVEL        debug, info, warn, or error")
}
