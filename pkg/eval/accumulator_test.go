package eval

import (
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T) *board.Board {
	t.Helper()
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	return board.NewBoard(board.NewZobristTable(1), pos, turn, noprogress, fullmoves)
}

func randomNetwork() *Network {
	net := NewZeroNetwork()
	for i := range net.FTWeights {
		for j := range net.FTWeights[i] {
			net.FTWeights[i][j] = int16((i*31 + j*7) % 101 - 50)
		}
	}
	for j := range net.FTBias {
		net.FTBias[j] = int16(j % 17)
	}
	for p := 0; p < 2; p++ {
		for i := range net.OutWeights[p] {
			for j := range net.OutWeights[p][i] {
				net.OutWeights[p][i][j] = int8((i + j + p) % 7 - 3)
			}
		}
		for i := range net.PSQTWeights[p] {
			for b := range net.PSQTWeights[p][i] {
				net.PSQTWeights[p][i][b] = int32((i+b)%13 - 6)
			}
		}
	}
	return net
}

// TestAccumulatorMatchesFullRecompute checks invariant 1: at every ply, the incrementally
// maintained accumulator equals a from-scratch recomputation against the board at that ply.
func TestAccumulatorMatchesFullRecompute(t *testing.T) {
	net := randomNetwork()
	b := newTestBoard(t)
	stack := NewAccumulatorStack(net, b)

	moves := []board.Move{
		{Type: board.Jump, Piece: board.Pawn, From: board.E2, To: board.E4},
		{Type: board.Jump, Piece: board.Pawn, From: board.E7, To: board.E5},
		{Type: board.Normal, Piece: board.Knight, From: board.G1, To: board.F3},
	}

	for _, m := range moves {
		mover := b.Turn()
		ok := b.PushMove(m)
		require.True(t, ok)

		stack.PushMove(mover, m)

		var want Accumulator
		want.computeFull(net, b)
		assert.Equal(t, want, *stack.Current())
	}
}

// TestAccumulatorPushPopIdentity checks invariant 2 (push/pop symmetry) for the
// accumulator half of the position.
func TestAccumulatorPushPopIdentity(t *testing.T) {
	net := randomNetwork()
	b := newTestBoard(t)
	stack := NewAccumulatorStack(net, b)

	before := *stack.Current()

	m := board.Move{Type: board.Jump, Piece: board.Pawn, From: board.D2, To: board.D4}
	mover := b.Turn()
	require.True(t, b.PushMove(m))
	stack.PushMove(mover, m)

	_, ok := b.PopMove()
	require.True(t, ok)
	stack.Pop()

	assert.Equal(t, before, *stack.Current())
}

func TestFeatureMirroring(t *testing.T) {
	wf := perspectiveFeature(board.White, board.White, board.Pawn, board.E2)
	bf := perspectiveFeature(board.Black, board.Black, board.Pawn, board.E2^56)
	assert.Equal(t, wf, bf)
}
