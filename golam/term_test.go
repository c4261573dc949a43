package golam_test

import (
	"strings"
	"testing"

	"github.com/lamnet-systems/golam/golam"
)

var gT *testing.T

func mustParse(def golam.TermDef) *golam.Term {
	X, err := golam.NewTermFromDef(def)
	if err != nil {
		gT.Fatal(err)
	}
	return X
}

func TestTermDefRoundTrip(t *testing.T) {
	gT = t

	terms := []*golam.Term{
		golam.Church(0),
		golam.Church(1),
		golam.Church(7),
		golam.ChurchSucc(),
		golam.ChurchAdd(),
		golam.ChurchPred(),
		golam.ChurchIsZero(),
		golam.ChurchMod(4),
		golam.ExpMod(3, 3, 5),
	}

	for _, X := range terms {
		def := X.AppendTermDef(nil)
		Y := mustParse(def)
		if !X.IsEqual(Y) {
			t.Fatalf("round trip failed for %v", X)
		}
	}

	// Truncated and trailing-junk defs must be rejected.
	def := golam.Church(3).AppendTermDef(nil)
	if _, err := golam.NewTermFromDef(def[:len(def)-1]); err == nil {
		t.Fatal("accepted truncated def")
	}
	if _, err := golam.NewTermFromDef(append(def, 0x01)); err == nil {
		t.Fatal("accepted trailing bytes")
	}
	if _, err := golam.NewTermFromDef(golam.TermDef{0x7F}); err == nil {
		t.Fatal("accepted bad opcode")
	}
}

func TestChurchNumerals(t *testing.T) {
	gT = t

	for _, n := range []int{0, 1, 2, 10, 100} {
		got, err := golam.ChurchToInt(golam.Church(n))
		if err != nil {
			t.Fatal(err)
		}
		if got != n {
			t.Fatalf("Church(%d) read back as %d", n, got)
		}
	}

	if _, err := golam.ChurchToInt(golam.ChurchAdd()); err == nil {
		t.Fatal("accepted non-numeral")
	}
	if _, err := golam.ChurchToInt(nil); err == nil {
		t.Fatal("accepted nil")
	}
}

func TestValidate(t *testing.T) {
	gT = t

	good := []*golam.Term{
		golam.Lam(golam.Var(0)),
		golam.Church(4),
		golam.ChurchExpMod(7),
	}
	for _, X := range good {
		if err := X.Validate(); err != nil {
			t.Fatal(err)
		}
	}

	bad := []*golam.Term{
		golam.Var(0),
		golam.Lam(golam.Var(1)),
		golam.Lam(golam.App(golam.Var(0), golam.Var(3))),
	}
	for _, X := range bad {
		if err := X.Validate(); err == nil {
			t.Fatalf("accepted open term %v", X)
		}
	}
}

func TestTermString(t *testing.T) {
	gT = t

	if s := golam.Church(2).String(); s != "λλ(1 (1 0))" {
		t.Fatalf("got %q", s)
	}
	if s := golam.Lam(golam.Var(0)).String(); s != "λ0" {
		t.Fatalf("got %q", s)
	}
}

func TestTermInfo(t *testing.T) {
	gT = t

	info := golam.Church(2).GetInfo()
	if info.Size != 7 || info.Depth != 2 {
		t.Fatalf("Church(2) info: %+v", info)
	}

	sel := golam.TermSelector{
		Max: golam.TermInfo{Size: 7, Depth: 2},
	}
	if !sel.SelectsTerm(golam.Church(2)) {
		t.Fatal("selector rejected in-bounds term")
	}
	if sel.SelectsTerm(golam.Church(3)) {
		t.Fatal("selector accepted out-of-bounds term")
	}
}

// fixed-capacity adder for exercising stream stages without the net engine
type capAdder struct {
	seen  map[string]struct{}
	limit int
}

func (set *capAdder) TryAddTerm(X *golam.Term) bool {
	if len(set.seen) >= set.limit {
		return false
	}
	key := string(X.AppendTermDef(nil))
	if _, ok := set.seen[key]; ok {
		return false
	}
	set.seen[key] = struct{}{}
	return true
}

func TestTermStreamStages(t *testing.T) {
	gT = t

	src := golam.NewTermStream()
	set := &capAdder{seen: make(map[string]struct{}), limit: 100}

	sel := golam.DefaultTermSelector
	sel.Max.Size = golam.Church(5).GetInfo().Size

	out := src.AddTo(set).SelectFromStream(sel)

	go func() {
		for _, n := range []int{0, 1, 2, 3, 3, 2, 8} {
			src.PushTerm(golam.Church(n))
		}
		src.Close()
	}()

	// dupes (3, 2) dropped by AddTo, Church(8) dropped by the selector
	if count := out.PullAll(); count != 4 {
		t.Fatalf("got %d terms", count)
	}
}

// WriteCloser that records whether Close fired
type closeRecorder struct {
	buf    strings.Builder
	closed bool
}

func (rec *closeRecorder) Write(p []byte) (int, error) {
	return rec.buf.Write(p)
}

func (rec *closeRecorder) Close() error {
	rec.closed = true
	return nil
}

// Print owns its writer: once the inbound stream drains, the writer must be
// closed (file-backed sinks would otherwise leak their fd).
func TestPrintClosesWriter(t *testing.T) {
	gT = t

	src := golam.NewTermStream()
	rec := &closeRecorder{}
	out := src.Print(rec, golam.PrintOpts{Label: "t"})

	go func() {
		src.PushTerm(golam.Church(1))
		src.PushTerm(golam.Church(2))
		src.Close()
	}()

	if count := out.PullAll(); count != 2 {
		t.Fatalf("got %d terms", count)
	}
	if !rec.closed {
		t.Fatal("Print drained without closing its writer")
	}
	if lines := strings.Count(rec.buf.String(), "\n"); lines != 2 {
		t.Fatalf("got %d lines:\n%s", lines, rec.buf.String())
	}
}

func TestStreamTerm(t *testing.T) {
	gT = t

	X := golam.Church(6)
	stream := golam.StreamTerm(X)
	if Y := stream.PullTerm(); !X.IsEqual(Y) {
		t.Fatal("nope")
	}
	if Y := stream.PullTerm(); Y != nil {
		t.Fatal("stream did not close")
	}
}
