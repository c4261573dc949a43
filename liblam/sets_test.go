package liblam_test

import (
	"testing"

	"github.com/lamnet-systems/golam/golam"
	"github.com/lamnet-systems/golam/liblam"
)

func TestTermSet(t *testing.T) {
	set := liblam.NewTermSet()
	defer set.Close()

	for n := 0; n < 50; n++ {
		if !set.TryAddTerm(golam.Church(n)) {
			t.Fatalf("Church(%d) rejected on first add", n)
		}
	}
	for n := 0; n < 50; n++ {
		if set.TryAddTerm(golam.Church(n)) {
			t.Fatalf("Church(%d) accepted twice", n)
		}
	}

	// α-equivalent but separately built terms must collide
	if set.TryAddTerm(golam.Lam(golam.Lam(golam.Var(0)))) {
		t.Fatal("α-equivalent term accepted twice")
	}
}

func TestDropDupes(t *testing.T) {
	set := liblam.NewDropDupes(liblam.DropDupeOpts{})

	added, dupes := 0, 0
	for pass := 0; pass < 2; pass++ {
		for n := 0; n < 200; n++ {
			if set.TryAddTerm(golam.Church(n % 100)) {
				added++
			} else {
				dupes++
			}
		}
	}
	if added != 100 || dupes != 300 {
		t.Fatalf("added %d, dupes %d", added, dupes)
	}
}

// Small pool size forces backing-buffer turnover; previously stored keys must
// survive it.
func TestDropDupesPoolTurnover(t *testing.T) {
	set := liblam.NewDropDupes(liblam.DropDupeOpts{PoolSz: 64})

	for n := 0; n < 500; n++ {
		if !set.TryAddTerm(golam.Church(n)) {
			t.Fatalf("Church(%d) rejected on first add", n)
		}
	}
	for n := 0; n < 500; n++ {
		if set.TryAddTerm(golam.Church(n)) {
			t.Fatalf("Church(%d) accepted twice", n)
		}
	}
}

func TestStreamDedup(t *testing.T) {
	src := golam.NewTermStream()
	out := src.AddTo(liblam.NewDropDupes(liblam.DropDupeOpts{}))

	go func() {
		for _, n := range []int{1, 2, 3, 2, 1, 4} {
			src.PushTerm(golam.Church(n))
		}
		src.Close()
	}()

	if count := out.PullAll(); count != 4 {
		t.Fatalf("got %d terms", count)
	}
}
