package eval_test

import (
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePosition(t *testing.T, f string) *board.Position {
	t.Helper()

	pos, _, _, _, err := fen.Decode(f)
	require.NoError(t, err)
	return pos
}

// An undefended pawn captured by a rook nets exactly the pawn's nominal value.
func TestSEEUndefendedCaptureNetsFullValue(t *testing.T) {
	pos := decodePosition(t, "4k3/p7/8/8/8/8/8/R3K3 w - - 0 1")
	pins := eval.FindKingQueenPins(pos)

	got := eval.SEE(pos, pins, board.White, board.A7)
	assert.Equal(t, eval.NominalValue(board.Pawn), got)
}

// A pawn defended by a rook on the same file means the initiating rook capture would
// be a net material loss (rook for pawn), so the attacker does not join the exchange.
func TestSEEDefendedCaptureIsNotWorthInitiating(t *testing.T) {
	pos := decodePosition(t, "r3k3/p7/8/8/8/8/8/R3K3 w - - 0 1")
	pins := eval.FindKingQueenPins(pos)

	got := eval.SEE(pos, pins, board.White, board.A7)
	assert.Equal(t, eval.Score(0), got)
}

// SEE against an empty square, or one occupied by a King, is always 0: there is nothing
// to exchange.
func TestSEEEmptySquareIsZero(t *testing.T) {
	pos := decodePosition(t, fen.Initial)
	pins := eval.FindKingQueenPins(pos)

	got := eval.SEE(pos, pins, board.White, board.E4)
	assert.Equal(t, eval.Score(0), got)
}

func TestFindAttackersFindsBothSidesOfAFile(t *testing.T) {
	pos := decodePosition(t, "r3k3/p7/8/8/8/8/8/R3K3 w - - 0 1")
	pins := eval.FindKingQueenPins(pos)

	attackers := eval.FindAttackers(pos, pins, board.A7)
	assert.Equal(t, 1, eval.NumAttackers(attackers, board.White))
	assert.Equal(t, 1, eval.NumAttackers(attackers, board.Black))
}
