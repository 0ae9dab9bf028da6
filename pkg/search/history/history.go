// Package history implements the move-ordering heuristic tables consulted and updated
// by the search: a quiet-move history table, a separate capture-history table, a
// counter-move table and its paired counter-move-history table. Each worker owns a
// private instance -- these tables are never shared across goroutines.
package history

import "github.com/herohde/kestrel/pkg/board"

// MaxScore bounds every table slot to [-MaxScore, MaxScore].
const MaxScore = 512

// maxCutoffDepth is the depth past which Cutoff is a no-op: a bonus of depth^2 at higher
// depth would dominate the score and destabilize ordering.
const maxCutoffDepth = 20

// Table implements the (side-to-move, piece-kind, destination-square) -> score mapping
// shared by the quiet-history and capture-history tables, and their shared gravity-based
// update law.
type Table struct {
	scores [board.NumColors][board.NumPieces][board.NumSquares]int16
}

// Get returns the current score for the given key.
func (t *Table) Get(side board.Color, piece board.Piece, to board.Square) int32 {
	return int32(t.scores[side][piece][to])
}

// Cutoff applies the gravity update law for a cutoff at the given depth: the move that
// caused the cutoff is rewarded, every quiet (or capture) move tried before it at this
// node and that failed to cut off is punished. A no-op past maxCutoffDepth.
func (t *Table) Cutoff(side board.Color, cutoff board.Move, fails []board.Move, depth int) {
	if depth > maxCutoffDepth || depth < 0 {
		return
	}
	bonus := int32(depth * depth)

	t.reward(side, cutoff, bonus)
	for _, m := range fails {
		t.punish(side, m, bonus)
	}
}

// reward nudges the slot toward +MaxScore: table[move] += b - b*value/MAX.
func (t *Table) reward(side board.Color, m board.Move, bonus int32) {
	v := int32(t.scores[side][m.Piece][m.To])
	delta := bonus - bonus*v/MaxScore
	t.set(side, m, v+delta)
}

// punish nudges the slot toward -MaxScore: table[move] -= b + b*value/MAX.
func (t *Table) punish(side board.Color, m board.Move, bonus int32) {
	v := int32(t.scores[side][m.Piece][m.To])
	delta := bonus + bonus*v/MaxScore
	t.set(side, m, v-delta)
}

func (t *Table) set(side board.Color, m board.Move, v int32) {
	switch {
	case v > MaxScore:
		v = MaxScore
	case v < -MaxScore:
		v = -MaxScore
	}
	t.scores[side][m.Piece][m.To] = int16(v)
}

// Clear zeroes every entry, e.g. between games.
func (t *Table) Clear() {
	*t = Table{}
}

// History is the quiet-move history table, updated on quiet beta cutoffs.
type History struct{ Table }

// CaptureHistory is a separate instance of the same table shape, updated only on
// capturing beta cutoffs.
type CaptureHistory struct{ Table }

// CounterMoveHistory maps (side, prev-piece, prev-to, curr-piece, curr-to) -> score,
// using the same gravity law as History/CaptureHistory but keyed by the pair of moves.
type CounterMoveHistory struct {
	scores [board.NumColors][board.NumPieces][board.NumSquares][board.NumPieces][board.NumSquares]int16
}

func (t *CounterMoveHistory) Get(side board.Color, prevPiece board.Piece, prevTo board.Square, piece board.Piece, to board.Square) int32 {
	return int32(t.scores[side][prevPiece][prevTo][piece][to])
}

func (t *CounterMoveHistory) Cutoff(side board.Color, prevPiece board.Piece, prevTo board.Square, cutoff board.Move, fails []board.Move, depth int) {
	if depth > maxCutoffDepth || depth < 0 {
		return
	}
	bonus := int32(depth * depth)

	t.reward(side, prevPiece, prevTo, cutoff, bonus)
	for _, m := range fails {
		t.punish(side, prevPiece, prevTo, m, bonus)
	}
}

func (t *CounterMoveHistory) reward(side board.Color, pp board.Piece, pt board.Square, m board.Move, bonus int32) {
	v := int32(t.scores[side][pp][pt][m.Piece][m.To])
	delta := bonus - bonus*v/MaxScore
	t.set(side, pp, pt, m, v+delta)
}

func (t *CounterMoveHistory) punish(side board.Color, pp board.Piece, pt board.Square, m board.Move, bonus int32) {
	v := int32(t.scores[side][pp][pt][m.Piece][m.To])
	delta := bonus + bonus*v/MaxScore
	t.set(side, pp, pt, m, v-delta)
}

func (t *CounterMoveHistory) set(side board.Color, pp board.Piece, pt board.Square, m board.Move, v int32) {
	switch {
	case v > MaxScore:
		v = MaxScore
	case v < -MaxScore:
		v = -MaxScore
	}
	t.scores[side][pp][pt][m.Piece][m.To] = int16(v)
}

func (t *CounterMoveHistory) Clear() {
	*t = CounterMoveHistory{}
}

// CounterMove maps (side, prev-piece, prev-to) -> the single most recent move that
// refuted it. No aging: a new counter always overwrites the old one.
type CounterMove struct {
	moves [board.NumColors][board.NumPieces][board.NumSquares]board.Move
}

func (c *CounterMove) Get(side board.Color, prevPiece board.Piece, prevTo board.Square) (board.Move, bool) {
	m := c.moves[side][prevPiece][prevTo]
	return m, m.Piece != board.NoPiece
}

func (c *CounterMove) Set(side board.Color, prevPiece board.Piece, prevTo board.Square, m board.Move) {
	c.moves[side][prevPiece][prevTo] = m
}

func (c *CounterMove) Clear() {
	*c = CounterMove{}
}

// Tables bundles a worker's private set of heuristic tables, constructed once per
// search worker and never shared across goroutines.
type Tables struct {
	History            History
	CaptureHistory     CaptureHistory
	CounterMove        CounterMove
	CounterMoveHistory CounterMoveHistory
}

func NewTables() *Tables {
	return &Tables{}
}

func (t *Tables) Clear() {
	t.History.Clear()
	t.CaptureHistory.Clear()
	t.CounterMove.Clear()
	t.CounterMoveHistory.Clear()
}
