package history

import (
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/stretchr/testify/assert"
)

// TestCutoffStaysInBounds checks testable property 7: history.Cutoff with depth in
// [0, 20] leaves every table entry in [-MaxScore, +MaxScore].
func TestCutoffStaysInBounds(t *testing.T) {
	var tbl Table
	cutoff := board.Move{Piece: board.Knight, To: board.F3}
	fails := []board.Move{
		{Piece: board.Bishop, To: board.C4},
		{Piece: board.Pawn, To: board.D4},
	}

	for depth := 0; depth <= 20; depth++ {
		for i := 0; i < 50; i++ {
			tbl.Cutoff(board.White, cutoff, fails, depth)
			v := tbl.Get(board.White, cutoff.Piece, cutoff.To)
			assert.LessOrEqual(t, v, int32(MaxScore))
			assert.GreaterOrEqual(t, v, int32(-MaxScore))
		}
	}
}

func TestCutoffNoOpPastMaxDepth(t *testing.T) {
	var tbl Table
	m := board.Move{Piece: board.Rook, To: board.A1}
	tbl.Cutoff(board.White, m, nil, 21)
	assert.Equal(t, int32(0), tbl.Get(board.White, m.Piece, m.To))
}

func TestCounterMoveNoAging(t *testing.T) {
	var cm CounterMove
	m1 := board.Move{Piece: board.Knight, From: board.G1, To: board.F3}
	m2 := board.Move{Piece: board.Bishop, From: board.F1, To: board.C4}

	cm.Set(board.White, board.Pawn, board.E4, m1)
	got, ok := cm.Get(board.White, board.Pawn, board.E4)
	assert.True(t, ok)
	assert.Equal(t, m1, got)

	cm.Set(board.White, board.Pawn, board.E4, m2)
	got, ok = cm.Get(board.White, board.Pawn, board.E4)
	assert.True(t, ok)
	assert.Equal(t, m2, got)
}

func TestCounterMoveHistoryBounds(t *testing.T) {
	var cmh CounterMoveHistory
	cutoff := board.Move{Piece: board.Knight, To: board.F3}
	for depth := 0; depth <= 20; depth++ {
		for i := 0; i < 30; i++ {
			cmh.Cutoff(board.White, board.Pawn, board.E4, cutoff, nil, depth)
			v := cmh.Get(board.White, board.Pawn, board.E4, cutoff.Piece, cutoff.To)
			assert.LessOrEqual(t, v, int32(MaxScore))
			assert.GreaterOrEqual(t, v, int32(-MaxScore))
		}
	}
}
