package search

import (
	"context"
	"fmt"
	"time"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search/history"
	"go.uber.org/atomic"
)

// ErrHalted indicates a search was stopped by the time manager before completion. The
// driver discards the sentinel score that accompanies it.
var ErrHalted = fmt.Errorf("search halted")

// PV is a single iteration's result: the principal variation found, its score, and the
// bookkeeping the driver and UI adapters report alongside it.
type PV struct {
	Depth    int
	SelDepth int
	Nodes    uint64
	Score    eval.Score
	Moves    []board.Move
	Time     time.Duration
	Hash     float64
}

func (pv PV) String() string {
	return fmt.Sprintf("depth=%v score=%v nodes=%v time=%v pv=%v", pv.Depth, pv.Score, pv.Nodes, pv.Time, pv.Moves)
}

// Shared is state every lazy-SMP worker reads and writes concurrently: the transposition
// table (the only synchronization point between workers) and the NNUE weights, both
// read-only after construction besides the TT's own lockless writes, plus a shared node
// counter and abort flag maintained with relaxed atomics.
type Shared struct {
	TT  *TranspositionTable
	Net *eval.Network
	TM  TimeManager

	Start time.Time

	nodes   atomic.Uint64
	aborted atomic.Bool
}

// NewShared constructs the state shared by all workers of one search.
func NewShared(tt *TranspositionTable, net *eval.Network, tm TimeManager) *Shared {
	return &Shared{TT: tt, Net: net, TM: tm, Start: time.Now()}
}

func (s *Shared) addNode() {
	s.nodes.Add(1)
}

// Nodes returns the total node count across all workers sharing this Shared.
func (s *Shared) Nodes() uint64 {
	return s.nodes.Load()
}

// Abort reports (and latches) whether the search should stop. Once any worker observes
// abort, every worker observes it thereafter -- the flag only ever transitions false to
// true within one search.
func (s *Shared) Abort(depth int) bool {
	if s.aborted.Load() {
		return true
	}
	if s.TM != nil && s.TM.Abort(s.Start, depth, s.nodes.Load()) {
		s.aborted.Store(true)
		return true
	}
	return false
}

// Worker is one lazy-SMP search thread's private state: its own position (board plus
// NNUE accumulator), heuristic tables and search stack. None of this is shared across
// goroutines; the Shared pointer is the only cross-worker contact point.
type Worker struct {
	ID     int
	Shared *Shared
	Pos    *Position
	Tables *history.Tables
	Stack  *Stack

	selDepth int
}

// NewWorker constructs a worker searching from pos, which it owns exclusively.
func NewWorker(id int, shared *Shared, pos *Position) *Worker {
	return &Worker{
		ID:     id,
		Shared: shared,
		Pos:    pos,
		Tables: history.NewTables(),
		Stack:  NewStack(),
	}
}

// IterateToDepth runs one full iterative-deepening iteration (a single call into the
// negamax core at the given target depth) and returns the best move and score found,
// plus the principal variation read back from the TT. If the search was aborted
// mid-iteration, the score is Invalid.
func (w *Worker) IterateToDepth(ctx context.Context, depth int, alpha, beta eval.Score) (board.Move, eval.Score, []board.Move) {
	w.selDepth = 0
	w.Stack.Clear()

	move, score := w.searchPV(ctx, 0, depth, alpha, beta, board.Move{})
	return move, score, w.collectPV(depth)
}

// collectPV replays the best line stored at each stack ply by re-probing the TT, purely
// for UI reporting; the search correctness does not depend on this.
func (w *Worker) collectPV(depth int) []board.Move {
	var moves []board.Move
	pos := w.Pos
	for i := 0; i < depth && i < MaxPly; i++ {
		entry, ok := w.Shared.TT.Probe(pos.Hash())
		if !ok || entry.Move.Piece == board.NoPiece {
			break
		}
		if !pos.PushMove(entry.Move) {
			break
		}
		moves = append(moves, entry.Move)
	}
	for range moves {
		pos.PopMove()
	}
	return moves
}
