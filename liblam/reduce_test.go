package liblam_test

import (
	"testing"
	"time"

	"github.com/lamnet-systems/golam/golam"
	"github.com/lamnet-systems/golam/liblam"
)

func normalize(t *testing.T, X *golam.Term) (*golam.Term, golam.Stats) {
	normal, stats, err := liblam.Normalize(X)
	if err != nil {
		t.Fatal(err)
	}
	return normal, stats
}

// normalizeWatched runs Normalize under a deadline so that a term drifting
// out of the engine's terminating fragment fails the test instead of hanging
// the suite.  Reduce itself is deliberately unguarded; the watchdog lives
// out here, on the caller's side of the contract.
func normalizeWatched(t *testing.T, X *golam.Term, within time.Duration) (*golam.Term, golam.Stats) {
	type outcome struct {
		normal *golam.Term
		stats  golam.Stats
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		normal, stats, err := liblam.Normalize(X)
		done <- outcome{normal, stats, err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatal(res.err)
		}
		return res.normal, res.stats
	case <-time.After(within):
		t.Fatalf("%v: reduction still running after %v", X, within)
	}
	return nil, golam.Stats{}
}

func netToInt(t *testing.T, X *golam.Term) int {
	normal, _ := normalize(t, X)
	n, err := golam.ChurchToInt(normal)
	if err != nil {
		t.Fatalf("%v is not a numeral: %v", normal, err)
	}
	return n
}

func TestIdentity(t *testing.T) {
	id := golam.Lam(golam.Var(0))

	normal, stats := normalize(t, golam.App(id, id))
	if !normal.IsEqual(id) {
		t.Fatalf("got %v", normal)
	}
	if stats.BetaSteps != 1 {
		t.Fatalf("%d beta steps for a single redex", stats.BetaSteps)
	}
}

// Terms already in normal form must come back unchanged.
func TestNormalFormsAreFixed(t *testing.T) {
	terms := []*golam.Term{
		golam.Lam(golam.Var(0)),
		golam.Church(0),
		golam.Church(1),
		golam.Church(5),
		golam.ChurchTrue(),
		golam.ChurchFalse(),
		golam.ChurchSucc(),
		golam.ChurchAdd(),
		golam.Lam(golam.Lam(golam.App(golam.Var(0), golam.Lam(golam.Var(1))))),
	}

	for _, X := range terms {
		normal, stats := normalize(t, X)
		if !normal.IsEqual(X) {
			t.Fatalf("%v reduced to %v", X, normal)
		}
		if stats.BetaSteps != 0 {
			t.Fatalf("%v: %d beta steps in a normal form", X, stats.BetaSteps)
		}
	}
}

func TestRejectsOpenTerms(t *testing.T) {
	if _, _, err := liblam.Normalize(golam.Lam(golam.Var(1))); err == nil {
		t.Fatal("accepted open term")
	}
	if _, _, err := liblam.Normalize(nil); err == nil {
		t.Fatal("accepted nil")
	}
}

// The net engine and the tree-substitution evaluator must agree on every
// normalizing term.
func TestAgreesWithNaive(t *testing.T) {
	terms := []*golam.Term{
		golam.App(golam.Lam(golam.Var(0)), golam.Church(3)),
		golam.AppAll(golam.ChurchSucc(), golam.Church(0)),
		golam.AppAll(golam.ChurchAdd(), golam.Church(2), golam.Church(3)),
		golam.AppAll(golam.ChurchMult(), golam.Church(3), golam.Church(4)),
		golam.AppAll(golam.ChurchPred(), golam.Church(6)),
		golam.AppAll(golam.ChurchSub(), golam.Church(9), golam.Church(4)),
		golam.App(golam.ChurchIsZero(), golam.Church(0)),
		golam.App(golam.ChurchIsZero(), golam.Church(2)),
		golam.App(golam.ChurchMod(4), golam.Church(11)),
		golam.ExpMod(2, 2, 3),
		// discarded-argument redex: the engine must not normalize what the
		// root never demands, but the residual term must still match
		golam.App(golam.Lam(golam.Church(2)), golam.AppAll(golam.ChurchAdd(), golam.Church(1), golam.Church(1))),
	}

	for _, X := range terms {
		want, err := golam.NormalizeNaive(X, 0)
		if err != nil {
			t.Fatal(err)
		}
		got, _ := normalize(t, X)
		if !got.IsEqual(want) {
			t.Fatalf("%v: net got %v, naive got %v", X, got, want)
		}
	}
}

func TestChurchArithmetic(t *testing.T) {
	cases := []struct {
		term *golam.Term
		want int
	}{
		{golam.AppAll(golam.ChurchAdd(), golam.Church(20), golam.Church(22)), 42},
		{golam.AppAll(golam.ChurchMult(), golam.Church(6), golam.Church(7)), 42},
		{golam.AppAll(golam.ChurchPred(), golam.Church(42)), 41},
		{golam.AppAll(golam.ChurchSub(), golam.Church(50), golam.Church(8)), 42},
		{golam.App(golam.ChurchMod(7), golam.Church(100)), 2},
	}
	for _, tc := range cases {
		if got := netToInt(t, tc.term); got != tc.want {
			t.Fatalf("%v: got %d, want %d", tc.term, got, tc.want)
		}
	}
}

func expModWatched(t *testing.T, a, b, m int, within time.Duration) int {
	normal, _ := normalizeWatched(t, golam.ExpMod(a, b, m), within)
	n, err := golam.ChurchToInt(normal)
	if err != nil {
		t.Fatalf("%d^%d mod %d: %v is not a numeral: %v", a, b, m, normal, err)
	}
	return n
}

func TestExpMod(t *testing.T) {
	cases := []struct {
		a, b, m int
		want    int
	}{
		{2, 1, 3, 2},
		{2, 0, 3, 1},
		{3, 3, 5, 2},
		{2, 10, 9, 7},
		{10, 10, 2, 0},
	}
	for _, tc := range cases {
		if got := expModWatched(t, tc.a, tc.b, tc.m, 30*time.Second); got != tc.want {
			t.Fatalf("%d^%d mod %d: got %d, want %d", tc.a, tc.b, tc.m, got, tc.want)
		}
	}
}

func TestExpModLarge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large exponentiation in -short mode")
	}
	if got := expModWatched(t, 100, 100, 31, 2*time.Minute); got != 25 {
		t.Fatalf("100^100 mod 31: got %d, want 25", got)
	}
}

// Reduction is a deterministic walk: identical inputs must yield identical
// stats, run to run.
func TestDeterministicStats(t *testing.T) {
	X := golam.ExpMod(3, 3, 5)

	_, stats1 := normalizeWatched(t, X, 30*time.Second)
	_, stats2 := normalizeWatched(t, X, 30*time.Second)
	if stats1 != stats2 {
		t.Fatalf("stats drifted: %+v vs %+v", stats1, stats2)
	}
	if stats1.BetaSteps == 0 || stats1.Rewrites < stats1.BetaSteps {
		t.Fatalf("implausible stats: %+v", stats1)
	}
}

// A Reset net must behave exactly like a fresh one.
func TestNetReset(t *testing.T) {
	X := golam.AppAll(golam.ChurchMult(), golam.Church(4), golam.Church(5))

	net, err := liblam.Encode(X)
	if err != nil {
		t.Fatal(err)
	}
	normal1 := net.Reduce().Decode()
	stats1 := net.Stats()
	count1 := net.NodeCount()

	net.Reset()
	if err = net.Encode(X); err != nil {
		t.Fatal(err)
	}
	normal2 := net.Reduce().Decode()

	if !normal1.IsEqual(normal2) {
		t.Fatal("reused net produced a different normal form")
	}
	if net.Stats() != stats1 || net.NodeCount() != count1 {
		t.Fatalf("reused net drifted: %+v vs %+v", net.Stats(), stats1)
	}
}

// A second Reduce of an already-reduced net must find nothing to do.
func TestReduceIdempotent(t *testing.T) {
	net, err := liblam.Encode(golam.AppAll(golam.ChurchMult(), golam.Church(3), golam.Church(3)))
	if err != nil {
		t.Fatal(err)
	}
	normal1 := net.Reduce().Decode()
	normal2 := net.Reduce().Decode()

	if !normal1.IsEqual(normal2) {
		t.Fatal("second reduction changed the decoded term")
	}
	if stats := net.Stats(); stats.Rewrites != 0 {
		t.Fatalf("%d rewrites left after full reduction", stats.Rewrites)
	}
}

// Decode must not consume the net: decoding twice yields equal terms.
func TestDecodeIsRepeatable(t *testing.T) {
	net, err := liblam.Encode(golam.AppAll(golam.ChurchAdd(), golam.Church(2), golam.Church(2)))
	if err != nil {
		t.Fatal(err)
	}
	net.Reduce()
	if !net.Decode().IsEqual(net.Decode()) {
		t.Fatal("nope")
	}
}
