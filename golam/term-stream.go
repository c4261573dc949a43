package golam

import (
	"fmt"
	"io"
	"strings"
)

// TermStream is a channel-based pipeline of terms.  Each stage returns a new
// stream fed by a goroutine, so stages compose left to right.
type TermStream struct {
	Outlet chan *Term
}

func NewTermStream() *TermStream {
	stream := &TermStream{
		Outlet: make(chan *Term),
	}
	return stream
}

// StreamTerm returns a stream that emits the single given term and closes.
func StreamTerm(X *Term) *TermStream {
	next := &TermStream{
		Outlet: make(chan *Term, 1),
	}

	go func() {
		next.Outlet <- X
		next.Close()
	}()

	return next
}

func (stream *TermStream) Close() {
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

func (stream *TermStream) PushTerm(X *Term) {
	stream.Outlet <- X
}

func (stream *TermStream) PullTerm() *Term {
	X := <-stream.Outlet
	return X
}

// PullAll drains the stream, returning the number of terms that passed through.
func (stream *TermStream) PullAll() int {
	count := int(0)
	for range stream.Outlet {
		count++
	}
	return count
}

// Map applies stage to each term, dropping terms for which stage returns nil.
// Normalization stages plug in here so this package stays decoupled from the
// net engine.
func (stream *TermStream) Map(stage func(X *Term) *Term) *TermStream {
	next := &TermStream{
		Outlet: make(chan *Term, 1),
	}

	go func() {
		for X := range stream.Outlet {
			if Y := stage(X); Y != nil {
				next.Outlet <- Y
			}
		}
		next.Close()
	}()

	return next
}

// Print writes each passing term to out, prefixed with a label and ordinal.
// Print owns out and closes it once the inbound stream drains.
func (stream *TermStream) Print(out io.WriteCloser, opts PrintOpts) *TermStream {
	next := &TermStream{
		Outlet: make(chan *Term, 1),
	}

	go func() {
		buf := strings.Builder{}
		buf.Grow(192)

		count := 0
		for X := range stream.Outlet {
			if len(opts.Label) > 0 {
				buf.WriteString(opts.Label)
			}
			buf.WriteByte(',')

			count++
			fmt.Fprintf(&buf, "%06d,", count)
			X.appendString(&buf)
			buf.WriteByte('\n')
			out.Write([]byte(buf.String()))
			buf.Reset()
			next.Outlet <- X
		}
		out.Close()
		next.Close()
	}()

	return next
}

// AddTo offers each term to target, forwarding only the terms that were
// newly added (dupes are dropped).
func (stream *TermStream) AddTo(target TermAdder) *TermStream {
	next := &TermStream{
		Outlet: make(chan *Term, 1),
	}

	go func() {
		for X := range stream.Outlet {
			wasAdded := target.TryAddTerm(X)
			if wasAdded {
				next.Outlet <- X
			}
		}
		next.Close()
	}()

	return next
}

// SelectFromStream forwards only terms matching sel.
func (stream *TermStream) SelectFromStream(sel TermSelector) *TermStream {
	next := &TermStream{
		Outlet: make(chan *Term, 1),
	}

	go func() {
		for X := range stream.Outlet {
			if sel.SelectsTerm(X) {
				next.Outlet <- X
			}
		}
		next.Close()
	}()

	return next
}

// SelectFromCatalog streams every catalog entry matching sel.
func SelectFromCatalog(cat Catalog, sel TermSelector) *TermStream {
	next := &TermStream{
		Outlet: make(chan *Term, 1),
	}

	onHit := make(chan *Term, 4)

	go func() {
		cat.Select(sel, onHit)
		close(onHit)
	}()

	go func() {
		for X := range onHit {
			next.Outlet <- X
		}
		next.Close()
	}()

	return next
}
