package interpreter

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/qi-lang/qi/pkg/runtime"
)

func TestWriteThenReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	v := mustEval(t, fmt.Sprintf(`
(write-file %q "line one\n")
(read-file %q)`, path, path))
	expectString(t, v, "line one\n")
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "line one\n" {
		t.Fatalf("unexpected file contents %q (%v)", data, err)
	}
}

func TestReadFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	expectCode(t, evalErr(t, fmt.Sprintf("(read-file %q)", path)), runtime.CodeIOFailure)
}

func TestTimeNowIsMonotonicEnough(t *testing.T) {
	v := mustEval(t, "(let [a (time/now) b (time/now)] (<= a b))")
	if !v.(runtime.BoolValue).Val {
		t.Fatalf("expected non-decreasing clock")
	}
}
