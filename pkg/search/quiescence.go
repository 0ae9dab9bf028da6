// Package search implements iterative-deepening alpha-beta search over a board
// position: staged move ordering, a lockless transposition table, quiescence search and
// the heuristic tables that feed move ordering.
package search

import (
	"context"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
)

// deltaMargin bounds how far behind stand-pat a capture may still be worth searching.
const deltaMargin = 200

// deltaBetaMargin is the Koivisto-style SEE-based delta-beta cutoff margin applied per
// candidate capture, distinct from the stand-pat delta margin above.
const deltaBetaMargin = 200

// quiescence is the capture-only negamax tail run once the main search reaches the
// horizon. In check, it falls back to a full move loop since a side in check has no
// quiet stand-pat to fall back on -- every evasion must be tried.
func (w *Worker) quiescence(ctx context.Context, ply int, alpha, beta eval.Score) (board.Move, eval.Score) {
	pos := w.Pos

	if w.Shared.Abort(0) {
		return board.Move{}, eval.Invalid
	}
	if pos.Result().Outcome == board.Draw {
		return board.Move{}, 0
	}
	if ply >= MaxPly {
		return board.Move{}, w.Shared.Net.EvaluateAt(pos.Acc.Current(), pos.Turn(), pos.Board)
	}

	w.Shared.addNode()
	if ply > w.selDepth {
		w.selDepth = ply
	}

	inCheck := pos.Position().IsChecked(pos.Turn())

	var ttMove board.Move
	if e, ok := w.Shared.TT.Probe(pos.Hash()); ok {
		ttMove = e.Move
		switch {
		case e.Bound == Exact:
			return e.Move, e.Score
		case e.Bound == LowerBound && e.Score >= beta:
			return e.Move, e.Score
		case e.Bound == UpperBound && e.Score <= alpha:
			return e.Move, e.Score
		}
	}

	if inCheck {
		return w.quiescenceEvasions(ctx, ply, alpha, beta, ttMove)
	}

	standPat := w.Shared.Net.EvaluateAt(pos.Acc.Current(), pos.Turn(), pos.Board)
	if standPat >= beta {
		return board.Move{}, standPat
	}
	if standPat > alpha {
		alpha = standPat
	}

	gen := NewQuiescenceMoveGenerator(pos, w.Tables)

	var bestMove board.Move
	bestScore := standPat
	initialAlpha := alpha

	for {
		move, ok := gen.Next()
		if !ok {
			break
		}

		if standPat+eval.Score(deltaMargin) < alpha {
			continue
		}
		if see, ok := gen.CachedSEE(move); ok && standPat+see-eval.Score(deltaBetaMargin) > beta {
			return board.Move{}, beta
		}

		if !pos.PushMove(move) {
			continue
		}

		_, childScore := w.quiescence(ctx, ply+1, -beta, -alpha)
		pos.PopMove()

		score := negateChild(childScore)
		if !score.IsValid() {
			return board.Move{}, eval.Invalid
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
		}
		if score >= beta {
			w.Shared.TT.Store(pos.Hash(), Entry{Bound: LowerBound, Depth: 0, Score: bestScore, Move: move})
			return move, bestScore
		}
	}

	bound := UpperBound
	if bestScore > initialAlpha {
		bound = Exact
	}
	w.Shared.TT.Store(pos.Hash(), Entry{Bound: bound, Depth: 0, Score: bestScore, Move: bestMove})
	return bestMove, bestScore
}

// quiescenceEvasions handles the in-check case: every pseudo-legal move is a candidate
// reply (there is no quiet stand-pat when in check), searched with the same zero-margin
// negamax as the rest of quiescence.
func (w *Worker) quiescenceEvasions(ctx context.Context, ply int, alpha, beta eval.Score, ttMove board.Move) (board.Move, eval.Score) {
	pos := w.Pos
	side := pos.Turn()
	moves := pos.Position().PseudoLegalMoves(side)

	var bestMove board.Move
	bestScore := eval.MinScore
	initialAlpha := alpha
	hasLegalMove := false

	if ttMove.Piece != board.NoPiece {
		if ok, rest := spliceMove(moves, ttMove); ok {
			moves = append([]board.Move{ttMove}, rest...)
		}
	}

	for _, move := range moves {
		if !pos.PushMove(move) {
			continue
		}
		hasLegalMove = true

		_, childScore := w.quiescence(ctx, ply+1, -beta, -alpha)
		pos.PopMove()

		score := negateChild(childScore)
		if !score.IsValid() {
			return board.Move{}, eval.Invalid
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
		}
		if score >= beta {
			w.Shared.TT.Store(pos.Hash(), Entry{Bound: LowerBound, Depth: 0, Score: bestScore, Move: move})
			return move, bestScore
		}
	}

	if !hasLegalMove {
		return board.Move{}, eval.MatedIn(0)
	}

	bound := UpperBound
	if bestScore > initialAlpha {
		bound = Exact
	}
	w.Shared.TT.Store(pos.Hash(), Entry{Bound: bound, Depth: 0, Score: bestScore, Move: bestMove})
	return bestMove, bestScore
}

// spliceMove reorders moves so ttMove is tried first, a cheap ordering win for the
// in-check move loop which otherwise has no staged generator.
func spliceMove(moves []board.Move, ttMove board.Move) (bool, []board.Move) {
	for i, m := range moves {
		if m.Equals(ttMove) {
			rest := make([]board.Move, 0, len(moves)-1)
			rest = append(rest, moves[:i]...)
			rest = append(rest, moves[i+1:]...)
			return true, rest
		}
	}
	return false, moves
}
