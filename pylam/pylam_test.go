package pylam

import (
	"testing"

	"github.com/go-python/gpython/py"
)

// Script-facing entry points must raise TypeError on missing arguments, never
// panic the runtime.
func TestMissingArgsRaise(t *testing.T) {
	calls := []struct {
		label string
		fn    func() (py.Object, error)
	}{
		{"Lam", func() (py.Object, error) { return py_Lam(nil, py.Tuple{}) }},
		{"Normalize", func() (py.Object, error) { return py_Normalize(nil, py.Tuple{}) }},
		{"NormalizeStats", func() (py.Object, error) { return py_NormalizeStats(nil, py.Tuple{}) }},
		{"App", func() (py.Object, error) { return py_App(nil, py.Tuple{}) }},
		{"ExpMod", func() (py.Object, error) { return py_ExpMod(nil, py.Tuple{}) }},
	}

	for _, call := range calls {
		obj, err := call.fn()
		if err == nil {
			t.Fatalf("%s() returned %v, want TypeError", call.label, obj)
		}
	}
}

func TestExpModArgs(t *testing.T) {
	// modulus must be a positive int literal
	if _, err := py_ExpMod(nil, py.Tuple{py.Int(2), py.Int(3), py.Int(0)}); err == nil {
		t.Fatal("accepted zero modulus")
	}
	if _, err := py_ExpMod(nil, py.Tuple{py.Int(2), py.Int(3), py.String("5")}); err == nil {
		t.Fatal("accepted non-int modulus")
	}

	obj, err := py_ExpMod(nil, py.Tuple{py.Int(2), py.Int(3), py.Int(5)})
	if err != nil {
		t.Fatal(err)
	}
	if _, isTerm := obj.(pyTerm); !isTerm {
		t.Fatalf("got %T", obj)
	}
}
