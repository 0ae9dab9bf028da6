package search_test

import (
	"context"
	"sync"
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
	"github.com/stretchr/testify/assert"
)

func TestTranspositionTableMiss(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)

	_, ok := tt.Probe(board.ZobristHash(12345))
	assert.False(t, ok)
}

func TestTranspositionTableStoreProbeRoundtrip(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)

	h := board.ZobristHash(0xDEADBEEF)
	want := search.Entry{
		Bound: search.Exact,
		Depth: 7,
		Score: eval.Score(123),
		Move:  board.Move{From: board.E2, To: board.E4, Piece: board.Pawn},
	}
	tt.Store(h, want)

	got, ok := tt.Probe(h)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestTranspositionTableReplacementPrefersDeeper(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)
	h := board.ZobristHash(42)

	shallow := search.Entry{Bound: search.Exact, Depth: 2, Score: eval.Score(10)}
	tt.Store(h, shallow)

	deeper := search.Entry{Bound: search.Exact, Depth: 10, Score: eval.Score(20)}
	tt.Store(h, deeper)

	got, ok := tt.Probe(h)
	assert.True(t, ok)
	assert.Equal(t, deeper, got)
}

func TestTranspositionTableRejectsShallowerUpperBound(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)
	h := board.ZobristHash(42)

	tt.Store(h, search.Entry{Bound: search.Exact, Depth: 10, Score: eval.Score(20)})
	tt.Store(h, search.Entry{Bound: search.UpperBound, Depth: 1, Score: eval.Score(5)})

	got, ok := tt.Probe(h)
	assert.True(t, ok)
	assert.Equal(t, 10, got.Depth)
}

func TestTranspositionTableClear(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)
	h := board.ZobristHash(7)

	tt.Store(h, search.Entry{Bound: search.Exact, Depth: 3})
	tt.Clear()

	_, ok := tt.Probe(h)
	assert.False(t, ok)
}

// TestTranspositionTableConcurrentAccessNeverPanics exercises the lockless XOR
// invariant under a race: concurrent readers/writers across many keys must never
// panic. Run with -race to confirm no data race on the underlying atomics.
func TestTranspositionTableConcurrentAccessNeverPanics(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				h := board.ZobristHash((i*31 + w) % 4096)
				tt.Store(h, search.Entry{Bound: search.Exact, Depth: i % 32, Score: eval.Score(i % 100)})
				tt.Probe(h)
			}
		}(w)
	}
	wg.Wait()
}

func TestTranspositionTableResizeIsPowerOfTwoEntries(t *testing.T) {
	tt := search.NewTranspositionTable(context.Background(), 1)
	small := tt.Size()

	tt.Resize(context.Background(), 4)
	big := tt.Size()

	assert.True(t, big > small)
}
