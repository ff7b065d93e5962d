package runtime

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a value the way the REPL shows results: strings quoted,
// collections recursively.
func Print(v Value) string {
	var b strings.Builder
	printValue(&b, v, true)
	return b.String()
}

// Display renders a value for user output: strings raw.
func Display(v Value) string {
	var b strings.Builder
	printValue(&b, v, false)
	return b.String()
}

func printValue(b *strings.Builder, v Value, readable bool) {
	switch t := v.(type) {
	case nil, NilValue:
		b.WriteString("nil")
	case BoolValue:
		b.WriteString(strconv.FormatBool(t.Val))
	case IntegerValue:
		b.WriteString(strconv.FormatInt(t.Val, 10))
	case FloatValue:
		b.WriteString(strconv.FormatFloat(t.Val, 'g', -1, 64))
	case StringValue:
		if readable {
			b.WriteString(strconv.Quote(t.Val))
		} else {
			b.WriteString(t.Val)
		}
	case BytesValue:
		fmt.Fprintf(b, "#bytes[%d]", len(t.Val))
	case SymbolValue:
		b.WriteString(t.Name)
	case KeywordValue:
		b.WriteByte(':')
		b.WriteString(t.Name)
	case UvarValue:
		fmt.Fprintf(b, "#uvar%d", t.ID)
	case *ListValue:
		b.WriteByte('(')
		for i, el := range t.Elements {
			if i > 0 {
				b.WriteByte(' ')
			}
			printValue(b, el, readable)
		}
		b.WriteByte(')')
	case *VectorValue:
		b.WriteByte('[')
		for i, el := range t.Elements {
			if i > 0 {
				b.WriteByte(' ')
			}
			printValue(b, el, readable)
		}
		b.WriteByte(']')
	case *MapValue:
		b.WriteByte('{')
		for i, entry := range t.Entries {
			if i > 0 {
				b.WriteByte(' ')
			}
			printValue(b, entry.Key, readable)
			b.WriteByte(' ')
			printValue(b, entry.Value, readable)
		}
		b.WriteByte('}')
	case *FunctionValue:
		if t.Name != "" {
			fmt.Fprintf(b, "#function<%s>", t.Name)
		} else {
			b.WriteString("#function")
		}
	case *MacroValue:
		fmt.Fprintf(b, "#macro<%s>", t.Name)
	case NativeFunctionValue:
		fmt.Fprintf(b, "#native<%s>", t.Name)
	case *CombinatorValue:
		switch t.Which {
		case CombinatorPartial:
			b.WriteString("#partial")
		case CombinatorComp:
			b.WriteString("#comp")
		default:
			b.WriteString("#constantly")
		}
	case *AtomValue:
		b.WriteString("#atom<")
		printValue(b, t.Deref(), readable)
		b.WriteByte('>')
	case *ChannelValue:
		b.WriteString("#channel")
	case *ScopeValue:
		b.WriteString("#scope")
	case *StreamValue:
		b.WriteString("#stream")
	case ErrorValue:
		if t.Code != "" {
			fmt.Fprintf(b, "#error<%s: %s>", t.Code, t.Message)
		} else {
			fmt.Fprintf(b, "#error<%s>", t.Message)
		}
	default:
		fmt.Fprintf(b, "#unknown<%s>", v.Kind())
	}
}
