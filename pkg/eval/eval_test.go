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

func TestNominalValueOrdering(t *testing.T) {
	assert.True(t, eval.NominalValue(board.Pawn) < eval.NominalValue(board.Knight))
	assert.True(t, eval.NominalValue(board.Knight) == eval.NominalValue(board.Bishop))
	assert.True(t, eval.NominalValue(board.Bishop) < eval.NominalValue(board.Rook))
	assert.True(t, eval.NominalValue(board.Rook) < eval.NominalValue(board.Queen))
	assert.True(t, eval.NominalValue(board.Queen) < eval.NominalValue(board.King))
}

func TestNominalValueGainForPlainCapture(t *testing.T) {
	m := board.Move{Type: board.Capture, Capture: board.Rook}
	assert.Equal(t, eval.NominalValue(board.Rook), eval.NominalValueGain(m))
}

func TestNominalValueGainForCapturePromotion(t *testing.T) {
	m := board.Move{Type: board.CapturePromotion, Capture: board.Queen, Promotion: board.Queen}
	want := eval.NominalValue(board.Queen) + eval.NominalValue(board.Queen) - eval.NominalValue(board.Pawn)
	assert.Equal(t, want, eval.NominalValueGain(m))
}

func TestNominalValueGainForQuietMove(t *testing.T) {
	m := board.Move{Type: board.Normal}
	assert.Equal(t, eval.Score(0), eval.NominalValueGain(m))
}

func TestUnit(t *testing.T) {
	assert.Equal(t, eval.Score(1), eval.Unit(board.White))
	assert.Equal(t, eval.Score(-1), eval.Unit(board.Black))
}

func TestMaterialEvaluateStartingPositionIsBalanced(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)
	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)

	var m eval.Material
	assert.Equal(t, eval.Score(0), m.Evaluate(context.Background(), b))
}

func TestMaterialEvaluateFavorsExtraQueen(t *testing.T) {
	pos, turn, noprogress, fullmoves, err := fen.Decode("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)
	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)

	var m eval.Material
	assert.Equal(t, eval.NominalValue(board.Queen), m.Evaluate(context.Background(), b))
}
