package interpreter

import (
	"strings"

	"github.com/qi-lang/qi/pkg/runtime"
)

func (i *Interpreter) registerStringBuiltins() {
	i.defineNative("str", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		var b strings.Builder
		for _, arg := range args {
			b.WriteString(runtime.Display(arg))
		}
		return runtime.StringValue{Val: b.String()}, nil
	})
	i.defineNative("str/split", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantString("str/split", args[0])
		if err != nil {
			return nil, err
		}
		sep, err := wantString("str/split", args[1])
		if err != nil {
			return nil, err
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]runtime.Value, len(parts))
		for idx, p := range parts {
			out[idx] = runtime.StringValue{Val: p}
		}
		return listValue(out), nil
	})
	i.defineNative("str/join", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		sep, err := wantString("str/join", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("str/join", args[1])
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(elems))
		for idx, el := range elems {
			parts[idx] = runtime.Display(el)
		}
		return runtime.StringValue{Val: strings.Join(parts, sep)}, nil
	})
	i.defineNative("str/upper", 1, 0, stringMap("str/upper", strings.ToUpper))
	i.defineNative("str/lower", 1, 0, stringMap("str/lower", strings.ToLower))
	i.defineNative("str/trim", 1, 0, stringMap("str/trim", strings.TrimSpace))
	i.defineNative("str/replace", 3, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantString("str/replace", args[0])
		if err != nil {
			return nil, err
		}
		old, err := wantString("str/replace", args[1])
		if err != nil {
			return nil, err
		}
		new, err := wantString("str/replace", args[2])
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: strings.ReplaceAll(s, old, new)}, nil
	})
	i.defineNative("str/contains?", 2, 0, stringPred("str/contains?", strings.Contains))
	i.defineNative("str/starts-with?", 2, 0, stringPred("str/starts-with?", strings.HasPrefix))
	i.defineNative("str/ends-with?", 2, 0, stringPred("str/ends-with?", strings.HasSuffix))
	i.defineNative("str/index-of", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantString("str/index-of", args[0])
		if err != nil {
			return nil, err
		}
		sub, err := wantString("str/index-of", args[1])
		if err != nil {
			return nil, err
		}
		idx := strings.Index(s, sub)
		if idx < 0 {
			return runtime.NilValue{}, nil
		}
		return intValue(int64(len([]rune(s[:idx])))), nil
	})
}

func stringMap(native string, fn func(string) string) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantString(native, args[0])
		if err != nil {
			return nil, err
		}
		return runtime.StringValue{Val: fn(s)}, nil
	}
}

func stringPred(native string, fn func(string, string) bool) runtime.NativeFunc {
	return func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		s, err := wantString(native, args[0])
		if err != nil {
			return nil, err
		}
		sub, err := wantString(native, args[1])
		if err != nil {
			return nil, err
		}
		return boolValue(fn(s, sub)), nil
	}
}
