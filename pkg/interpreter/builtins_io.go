package interpreter

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

func (i *Interpreter) registerIOBuiltins() {
	printArgs := func(args []runtime.Value) string {
		parts := make([]string, len(args))
		for idx, arg := range args {
			parts[idx] = runtime.Display(arg)
		}
		return strings.Join(parts, " ")
	}
	i.defineNative("print", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fmt.Fprint(i.stdout, printArgs(args))
		return runtime.NilValue{}, nil
	})
	i.defineNative("println", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fmt.Fprintln(i.stdout, printArgs(args))
		return runtime.NilValue{}, nil
	})
	i.defineNative("pr-str", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		parts := make([]string, len(args))
		for idx, arg := range args {
			parts[idx] = runtime.Print(arg)
		}
		return runtime.StringValue{Val: strings.Join(parts, " ")}, nil
	})

	i.defineNative("read-file", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		path, err := wantString("read-file", args[0])
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, runtime.NewError(runtime.CodeIOFailure, i18n.Msg("io-failure", err.Error()))
		}
		return runtime.StringValue{Val: string(data)}, nil
	})
	i.defineNative("write-file", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		path, err := wantString("write-file", args[0])
		if err != nil {
			return nil, err
		}
		content, err := wantString("write-file", args[1])
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return nil, runtime.NewError(runtime.CodeIOFailure, i18n.Msg("io-failure", err.Error()))
		}
		return runtime.NilValue{}, nil
	})

	i.defineNative("name", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		switch t := args[0].(type) {
		case runtime.SymbolValue:
			return runtime.StringValue{Val: t.Name}, nil
		case runtime.KeywordValue:
			return runtime.StringValue{Val: t.Name}, nil
		case runtime.StringValue:
			return t, nil
		default:
			return nil, typeErr("name", "symbol, keyword, or string", args[0])
		}
	})
	i.defineNative("time/now", 0, 0, func(_ *runtime.NativeCallContext, _ []runtime.Value) (runtime.Value, error) {
		return intValue(time.Now().UnixMilli()), nil
	})
}
