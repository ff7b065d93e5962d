package interpreter

import (
	"sort"

	"github.com/qi-lang/qi/pkg/i18n"
	"github.com/qi-lang/qi/pkg/runtime"
)

func (i *Interpreter) registerCollectionBuiltins() {
	i.defineNative("first", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("first", args[0])
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return runtime.NilValue{}, nil
		}
		return elems[0], nil
	})
	i.defineNative("rest", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("rest", args[0])
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return sameKind(args[0], nil), nil
		}
		rest := make([]runtime.Value, len(elems)-1)
		copy(rest, elems[1:])
		return sameKind(args[0], rest), nil
	})
	i.defineNative("last", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("last", args[0])
		if err != nil {
			return nil, err
		}
		if len(elems) == 0 {
			return runtime.NilValue{}, nil
		}
		return elems[len(elems)-1], nil
	})
	i.defineNative("nth", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("nth", args[0])
		if err != nil {
			return nil, err
		}
		idx, err := wantInt("nth", args[1])
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= int64(len(elems)) {
			if len(args) == 3 {
				return args[2], nil
			}
			return nil, runtime.NewError(runtime.CodeKeyMissing, i18n.Msg("key-missing", runtime.Print(args[1])))
		}
		return elems[idx], nil
	})

	// conj follows collection-natural insertion: vectors append, lists
	// prepend, nil starts a list.
	i.defineNative("conj", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		switch coll := args[0].(type) {
		case *runtime.VectorValue:
			out := make([]runtime.Value, 0, len(coll.Elements)+len(args)-1)
			out = append(out, coll.Elements...)
			out = append(out, args[1:]...)
			return &runtime.VectorValue{Elements: out}, nil
		case *runtime.ListValue:
			out := make([]runtime.Value, 0, len(coll.Elements)+len(args)-1)
			for idx := len(args) - 1; idx >= 1; idx-- {
				out = append(out, args[idx])
			}
			out = append(out, coll.Elements...)
			return &runtime.ListValue{Elements: out}, nil
		case runtime.NilValue:
			out := make([]runtime.Value, 0, len(args)-1)
			out = append(out, args[1:]...)
			return &runtime.ListValue{Elements: out}, nil
		default:
			return nil, typeErr("conj", "list or vector", args[0])
		}
	})

	i.defineNative("assoc", -1, 3, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		if (len(args)-1)%2 != 0 {
			return nil, runtime.NewError(runtime.CodeArityMismatch, i18n.Msg("arity-mismatch-min", "assoc", 3, len(args)))
		}
		m, err := wantMap("assoc", args[0])
		if err != nil {
			return nil, err
		}
		for idx := 1; idx < len(args); idx += 2 {
			next, ok := m.Assoc(args[idx], args[idx+1])
			if !ok {
				return nil, runtime.NewError(runtime.CodeInvalidMapKey, i18n.Msg("invalid-map-key", args[idx].Kind().String()))
			}
			m = next
		}
		return m, nil
	})
	i.defineNative("dissoc", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		m, err := wantMap("dissoc", args[0])
		if err != nil {
			return nil, err
		}
		for _, key := range args[1:] {
			next, ok := m.Dissoc(key)
			if !ok {
				return nil, runtime.NewError(runtime.CodeInvalidMapKey, i18n.Msg("invalid-map-key", key.Kind().String()))
			}
			m = next
		}
		return m, nil
	})
	i.defineNative("merge", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		out, err := wantMap("merge", args[0])
		if err != nil {
			return nil, err
		}
		for _, arg := range args[1:] {
			m, err := wantMap("merge", arg)
			if err != nil {
				return nil, err
			}
			for _, entry := range m.Entries {
				out, _ = out.Assoc(entry.Key, entry.Value)
			}
		}
		return out, nil
	})
	i.defineNative("get", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		m, err := wantMap("get", args[0])
		if err != nil {
			return nil, err
		}
		if v, ok := m.Get(args[1]); ok {
			return v, nil
		}
		if len(args) == 3 {
			return args[2], nil
		}
		return runtime.NilValue{}, nil
	})
	i.defineNative("keys", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		m, err := wantMap("keys", args[0])
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, 0, m.Len())
		for _, entry := range m.Entries {
			out = append(out, entry.Key)
		}
		return listValue(out), nil
	})
	i.defineNative("vals", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		m, err := wantMap("vals", args[0])
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, 0, m.Len())
		for _, entry := range m.Entries {
			out = append(out, entry.Value)
		}
		return listValue(out), nil
	})
	i.defineNative("contains?", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		switch coll := args[0].(type) {
		case *runtime.MapValue:
			_, ok := coll.Get(args[1])
			return boolValue(ok), nil
		case *runtime.ListValue, *runtime.VectorValue:
			elems, _ := runtime.SequenceElements(coll)
			for _, el := range elems {
				if runtime.Equal(el, args[1]) {
					return boolValue(true), nil
				}
			}
			return boolValue(false), nil
		default:
			return nil, typeErr("contains?", "map, list, or vector", args[0])
		}
	})

	i.defineNative("count", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		switch t := args[0].(type) {
		case *runtime.ListValue:
			return intValue(int64(len(t.Elements))), nil
		case *runtime.VectorValue:
			return intValue(int64(len(t.Elements))), nil
		case *runtime.MapValue:
			return intValue(int64(t.Len())), nil
		case runtime.StringValue:
			return intValue(int64(len([]rune(t.Val)))), nil
		case runtime.NilValue:
			return intValue(0), nil
		default:
			return nil, typeErr("count", "collection or string", args[0])
		}
	})
	i.defineNative("range", -1, 1, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		start, end, step := int64(0), int64(0), int64(1)
		var err error
		switch len(args) {
		case 1:
			end, err = wantInt("range", args[0])
		case 2:
			if start, err = wantInt("range", args[0]); err == nil {
				end, err = wantInt("range", args[1])
			}
		default:
			if start, err = wantInt("range", args[0]); err == nil {
				if end, err = wantInt("range", args[1]); err == nil {
					step, err = wantInt("range", args[2])
				}
			}
		}
		if err != nil {
			return nil, err
		}
		if step == 0 {
			return nil, runtime.NewError(runtime.CodeTypeMismatch, "range: step must not be zero")
		}
		var out []runtime.Value
		if step > 0 {
			for n := start; n < end; n += step {
				out = append(out, intValue(n))
			}
		} else {
			for n := start; n > end; n += step {
				out = append(out, intValue(n))
			}
		}
		return listValue(out), nil
	})
	i.defineNative("reverse", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("reverse", args[0])
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(elems))
		for idx, el := range elems {
			out[len(elems)-1-idx] = el
		}
		return sameKind(args[0], out), nil
	})
	i.defineNative("flatten", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("flatten", args[0])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		var walk func([]runtime.Value)
		walk = func(vs []runtime.Value) {
			for _, v := range vs {
				if inner, ok := runtime.SequenceElements(v); ok {
					walk(inner)
				} else {
					out = append(out, v)
				}
			}
		}
		walk(elems)
		return listValue(out), nil
	})
	i.defineNative("take", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		n, err := wantInt("take", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("take", args[1])
		if err != nil {
			return nil, err
		}
		if n > int64(len(elems)) {
			n = int64(len(elems))
		}
		if n < 0 {
			n = 0
		}
		out := make([]runtime.Value, n)
		copy(out, elems[:n])
		return listValue(out), nil
	})
	i.defineNative("drop", 2, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		n, err := wantInt("drop", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("drop", args[1])
		if err != nil {
			return nil, err
		}
		if n > int64(len(elems)) {
			n = int64(len(elems))
		}
		if n < 0 {
			n = 0
		}
		out := make([]runtime.Value, len(elems)-int(n))
		copy(out, elems[n:])
		return listValue(out), nil
	})
	i.defineNative("zip", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		seqs := make([][]runtime.Value, len(args))
		shortest := -1
		for idx, arg := range args {
			elems, err := wantSeq("zip", arg)
			if err != nil {
				return nil, err
			}
			seqs[idx] = elems
			if shortest < 0 || len(elems) < shortest {
				shortest = len(elems)
			}
		}
		out := make([]runtime.Value, shortest)
		for row := 0; row < shortest; row++ {
			tuple := make([]runtime.Value, len(seqs))
			for col := range seqs {
				tuple[col] = seqs[col][row]
			}
			out[row] = &runtime.VectorValue{Elements: tuple}
		}
		return listValue(out), nil
	})
	i.defineNative("concat", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		var out []runtime.Value
		for _, arg := range args {
			elems, err := wantSeq("concat", arg)
			if err != nil {
				return nil, err
			}
			out = append(out, elems...)
		}
		return listValue(out), nil
	})
	i.defineNative("list", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		out := make([]runtime.Value, len(args))
		copy(out, args)
		return listValue(out), nil
	})
	i.defineNative("vector", -1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		out := make([]runtime.Value, len(args))
		copy(out, args)
		return &runtime.VectorValue{Elements: out}, nil
	})
	i.defineNative("vec", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("vec", args[0])
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(elems))
		copy(out, elems)
		return &runtime.VectorValue{Elements: out}, nil
	})
}

// sameKind rebuilds a sequence with the input's collection tag.
func sameKind(like runtime.Value, elems []runtime.Value) runtime.Value {
	if elems == nil {
		elems = []runtime.Value{}
	}
	if _, ok := like.(*runtime.VectorValue); ok {
		return &runtime.VectorValue{Elements: elems}
	}
	return &runtime.ListValue{Elements: elems}
}

//-----------------------------------------------------------------------------
// List algorithms
//-----------------------------------------------------------------------------

func (i *Interpreter) registerAlgorithmBuiltins() {
	i.defineNative("sort", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("sort", args[0])
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(elems))
		copy(out, elems)
		var sortErr error
		sort.SliceStable(out, func(a, b int) bool {
			c, err := compareValues("sort", out[a], out[b])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return c < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
		return listValue(out), nil
	})
	i.defineNative("sort-by", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("sort-by", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("sort-by", args[1])
		if err != nil {
			return nil, err
		}
		type keyed struct {
			key runtime.Value
			val runtime.Value
		}
		pairs := make([]keyed, len(elems))
		for idx, el := range elems {
			key, err := ctx.Eval.Apply(fn, []runtime.Value{el})
			if err != nil {
				return nil, err
			}
			pairs[idx] = keyed{key: key, val: el}
		}
		var sortErr error
		sort.SliceStable(pairs, func(a, b int) bool {
			c, err := compareValues("sort-by", pairs[a].key, pairs[b].key)
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return c < 0
		})
		if sortErr != nil {
			return nil, sortErr
		}
		out := make([]runtime.Value, len(pairs))
		for idx, p := range pairs {
			out[idx] = p.val
		}
		return listValue(out), nil
	})
	i.defineNative("group-by", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("group-by", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("group-by", args[1])
		if err != nil {
			return nil, err
		}
		out := runtime.NewMap()
		for _, el := range elems {
			key, err := ctx.Eval.Apply(fn, []runtime.Value{el})
			if err != nil {
				return nil, err
			}
			var bucket []runtime.Value
			if existing, ok := out.Get(key); ok {
				bucket, _ = runtime.SequenceElements(existing)
			}
			grown := make([]runtime.Value, 0, len(bucket)+1)
			grown = append(grown, bucket...)
			grown = append(grown, el)
			next, ok := out.Assoc(key, listValue(grown))
			if !ok {
				return nil, runtime.NewError(runtime.CodeInvalidMapKey, i18n.Msg("invalid-map-key", key.Kind().String()))
			}
			out = next
		}
		return out, nil
	})
	i.defineNative("partition-by", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("partition-by", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("partition-by", args[1])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		var run []runtime.Value
		var lastKey runtime.Value
		for idx, el := range elems {
			key, err := ctx.Eval.Apply(fn, []runtime.Value{el})
			if err != nil {
				return nil, err
			}
			if idx > 0 && !runtime.Equal(key, lastKey) {
				out = append(out, listValue(run))
				run = nil
			}
			run = append(run, el)
			lastKey = key
		}
		if len(run) > 0 {
			out = append(out, listValue(run))
		}
		return listValue(out), nil
	})
	i.defineNative("take-while", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("take-while", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("take-while", args[1])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, el := range elems {
			keep, err := ctx.Eval.Apply(fn, []runtime.Value{el})
			if err != nil {
				return nil, err
			}
			if !runtime.Truthy(keep) {
				break
			}
			out = append(out, el)
		}
		return listValue(out), nil
	})
	i.defineNative("drop-while", 2, 0, func(ctx *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		fn, err := wantCallable("drop-while", args[0])
		if err != nil {
			return nil, err
		}
		elems, err := wantSeq("drop-while", args[1])
		if err != nil {
			return nil, err
		}
		idx := 0
		for ; idx < len(elems); idx++ {
			keep, err := ctx.Eval.Apply(fn, []runtime.Value{elems[idx]})
			if err != nil {
				return nil, err
			}
			if !runtime.Truthy(keep) {
				break
			}
		}
		out := make([]runtime.Value, len(elems)-idx)
		copy(out, elems[idx:])
		return listValue(out), nil
	})
	i.defineNative("distinct", 1, 0, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		elems, err := wantSeq("distinct", args[0])
		if err != nil {
			return nil, err
		}
		var out []runtime.Value
		for _, el := range elems {
			dup := false
			for _, seen := range out {
				if runtime.Equal(el, seen) {
					dup = true
					break
				}
			}
			if !dup {
				out = append(out, el)
			}
		}
		return listValue(out), nil
	})
	i.defineNative("interleave", -1, 2, func(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
		seqs := make([][]runtime.Value, len(args))
		shortest := -1
		for idx, arg := range args {
			elems, err := wantSeq("interleave", arg)
			if err != nil {
				return nil, err
			}
			seqs[idx] = elems
			if shortest < 0 || len(elems) < shortest {
				shortest = len(elems)
			}
		}
		var out []runtime.Value
		for row := 0; row < shortest; row++ {
			for col := range seqs {
				out = append(out, seqs[col][row])
			}
		}
		return listValue(out), nil
	})
}
