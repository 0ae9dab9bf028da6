package eval_test

import (
	"context"
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNNUEEvaluateZeroNetworkIsZero(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)

	n := eval.NNUE{Net: eval.NewZeroNetwork()}
	assert.Equal(t, eval.Score(0), n.Evaluate(context.Background(), b))
}

func TestNetworkEvaluateMoveZeroNetworkIsZero(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)

	net := eval.NewZeroNetwork()
	acc := eval.NewAccumulatorStack(net, b)

	m := board.Move{From: board.E2, To: board.E4, Piece: board.Pawn}
	assert.Equal(t, int32(0), net.EvaluateMove(acc.Current(), b.Turn(), m))
}

func TestNetworkEvaluateMoveRespondsToPolicyAccumulator(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)

	net := eval.NewZeroNetwork()
	for i := range net.PolicyFTWeights {
		for j := range net.PolicyFTWeights[i] {
			net.PolicyFTWeights[i][j] = 1
		}
	}
	for i := range net.PolicyWeights {
		for j := range net.PolicyWeights[i] {
			net.PolicyWeights[i][j] = 1
		}
	}

	acc := eval.NewAccumulatorStack(net, b)

	m := board.Move{From: board.E2, To: board.E4, Piece: board.Pawn}
	assert.NotZero(t, net.EvaluateMove(acc.Current(), b.Turn(), m))
}
