package search_test

import (
	"context"
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newWorker wraps a FEN position into a single-thread search.Worker, sharing a fresh TT
// and the given evaluator.
func newWorker(t *testing.T, position string, net *eval.Network) *search.Worker {
	t.Helper()

	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	require.NoError(t, err)

	zt := board.NewZobristTable(0)
	b := board.NewBoard(zt, pos, turn, noprogress, fullmoves)
	sp := search.NewPosition(b, net)

	tt := search.NewTranspositionTable(context.Background(), 1)
	shared := search.NewShared(tt, net, nil)
	return search.NewWorker(0, shared, sp)
}

// materialNetwork builds a Network whose PSQT tables reduce FeedForward to plain
// material counting (own pieces positive, enemy pieces negative), with the feature
// transformer and dense output layer left at zero. This exercises the alpha-beta search
// with a real, if simplistic, position-dependent signal without needing a trained
// weight file, which this module does not ship.
func materialNetwork() *eval.Network {
	net := eval.NewZeroNetwork()
	for p := board.Pawn; p <= board.King; p++ {
		v := int32(eval.NominalValue(p))
		base := int(p-board.Pawn) * 64
		for s := 0; s < 64; s++ {
			ownIdx := s + base
			enemyIdx := s + 6*64 + base
			for persp := 0; persp < 2; persp++ {
				for bkt := 0; bkt < eval.NumBuckets; bkt++ {
					net.PSQTWeights[persp][ownIdx][bkt] = v
					net.PSQTWeights[persp][enemyIdx][bkt] = -v
				}
			}
		}
	}
	return net
}

// Starting position, depth 1, single thread finds some legal opening move with a small
// evaluation.
func TestSearchStartingPositionDepth1(t *testing.T) {
	w := newWorker(t, fen.Initial, eval.NewZeroNetwork())

	move, score, _ := w.IterateToDepth(context.Background(), 1, eval.MinScore, eval.MaxScore)

	assert.NotEqual(t, board.NoPiece, move.Piece)
	assert.True(t, score > -100 && score < 100)
}

// Scenario 2: a back-rank mate-in-one must be found and scored as a mate in 1 ply.
func TestSearchMateInOne(t *testing.T) {
	w := newWorker(t, "6k1/5ppp/8/8/8/8/5PPP/4R1K1 w - - 0 1", eval.NewZeroNetwork())

	move, score, _ := w.IterateToDepth(context.Background(), 1, eval.MinScore, eval.MaxScore)

	assert.Equal(t, board.E1, move.From)
	assert.Equal(t, board.E8, move.To)

	d, ok := score.MateDistance()
	require.True(t, ok)
	assert.Equal(t, 1, d)
}

// Scenario 4: a stalemated side to move produces eval 0 and no panic, without a legal
// move having been returned.
func TestSearchStalemateReturnsZero(t *testing.T) {
	w := newWorker(t, "k7/8/1Q6/8/8/8/8/7K b - - 0 1", eval.NewZeroNetwork())

	move, score, _ := w.IterateToDepth(context.Background(), 2, eval.MinScore, eval.MaxScore)

	assert.Equal(t, board.Move{}, move)
	assert.Equal(t, eval.Score(0), score)
}

// Scenario 5: a trivial winning capture (queen for free) is returned at depth 1, using
// the material-only network so the gain is actually visible in the returned score.
func TestSearchWinningCaptureDepth1(t *testing.T) {
	w := newWorker(t, "q6k/8/8/8/8/8/8/R6K w - - 0 1", materialNetwork())

	move, score, _ := w.IterateToDepth(context.Background(), 1, eval.MinScore, eval.MaxScore)

	assert.Equal(t, board.A1, move.From)
	assert.Equal(t, board.A8, move.To)
	assert.True(t, move.IsCapture())
	assert.Greater(t, score, eval.Score(0))
}

// A position that has already repeated three times is adjudicated a draw at the board
// level, and the search returns 0 at any search depth without examining a single move.
func TestSearchRepetitionReturnsZero(t *testing.T) {
	zt := board.NewZobristTable(0)
	pos, turn, noprogress, fullmoves, err := fen.Decode("4k2n/8/8/8/8/8/8/4K2N w - - 0 1")
	require.NoError(t, err)
	b := board.NewBoard(zt, pos, turn, noprogress, fullmoves)

	shuffle := []string{"h1g3", "h8g6", "g3h1", "g6h8"}
	for cycle := 0; cycle < 4; cycle++ {
		for _, uci := range shuffle {
			m, err := board.ParseMove(uci)
			require.NoError(t, err)

			played := false
			for _, candidate := range b.Position().PseudoLegalMoves(b.Turn()) {
				if candidate.Equals(m) {
					require.True(t, b.PushMove(candidate))
					played = true
					break
				}
			}
			require.True(t, played, "move %v not legal in %v", uci, b)
		}
	}

	require.Equal(t, board.Draw, b.Result().Outcome)
	require.Equal(t, board.Repetition3, b.Result().Reason)

	net := eval.NewZeroNetwork()
	sp := search.NewPosition(b, net)
	tt := search.NewTranspositionTable(context.Background(), 1)
	shared := search.NewShared(tt, net, nil)
	w := search.NewWorker(0, shared, sp)

	_, score, _ := w.IterateToDepth(context.Background(), 4, eval.MinScore, eval.MaxScore)
	assert.Equal(t, eval.Score(0), score)
}
