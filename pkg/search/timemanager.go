package search

import (
	"time"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
)

// TimeManager is a polymorphic strategy for deciding how long the driver keeps
// deepening. Implementations live in package searchctl; the interface sits here, rather
// than there, so that the search package (which must poll Abort on every node) does not
// import searchctl -- searchctl imports search, not the reverse. Implementations MUST be
// safe for concurrent use: Abort is polled from every worker goroutine while Deepen is
// called by the driver between iterations.
type TimeManager interface {
	// Initiate is called once at the start of a search with the time left for the side
	// to move and the board it is searching from.
	Initiate(timeLeft time.Duration, b *board.Board)

	// Deepen is called after each worker completes an iteration.
	Deepen(thread, depth int, nodes uint64, score eval.Score, best board.Move, elapsed time.Duration)

	// Abort reports whether the search should stop now. Polled frequently on the hot path.
	Abort(start time.Time, depth int, nodes uint64) bool

	// Clear resets any accumulated state between games.
	Clear()
}

// Info is the progress snapshot handed to a GUI/console collaborator after each
// completed iteration.
type Info struct {
	SelDepth int
	Depth    int
	Eval     eval.Score
	Elapsed  time.Duration
	Nodes    uint64
	PV       []board.Move
}

// InfoFunc receives progress information from thread 0 of the driver only.
type InfoFunc func(info Info)
