package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/qi-lang/qi/pkg/parser"
	"github.com/qi-lang/qi/pkg/runtime"
)

func runRepl(logger *slog.Logger) int {
	var historyFile string
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".qi_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:      "qi> ",
		HistoryFile: historyFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "qi: %v\n", err)
		return exitRuntime
	}
	defer rl.Close()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	interp := newInterpreter(cwd, logger)

	fmt.Fprintf(os.Stdout, "%s (exit with Ctrl-D)\n", cliVersion)
	var pending strings.Builder
	for {
		line, err := rl.Readline()
		if err != nil { // Ctrl-C or Ctrl-D
			if errors.Is(err, readline.ErrInterrupt) && pending.Len() > 0 {
				pending.Reset()
				rl.SetPrompt("qi> ")
				continue
			}
			break
		}
		if pending.Len() == 0 && strings.TrimSpace(line) == "" {
			continue
		}
		pending.WriteString(line)
		pending.WriteString("\n")

		src := pending.String()
		forms, parseErr := parser.Parse(src)
		if parseErr != nil {
			// An unbalanced form keeps collecting lines.
			if parser.IsIncomplete(parseErr) {
				rl.SetPrompt("...> ")
				continue
			}
			fmt.Fprintf(os.Stderr, "parse error: %v\n", parseErr)
			pending.Reset()
			rl.SetPrompt("qi> ")
			continue
		}
		pending.Reset()
		rl.SetPrompt("qi> ")

		v, evalErr := interp.EvalProgram(forms)
		if evalErr != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", describeError(evalErr))
			continue
		}
		if _, isNil := v.(runtime.NilValue); !isNil {
			fmt.Fprintln(os.Stdout, runtime.Print(v))
		}
	}
	return exitOK
}
