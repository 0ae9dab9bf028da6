package search

import (
	"context"
	"math"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search/history"
)

// nodeFlag distinguishes the three search variants: full-window PV nodes, zero-window
// nodes, and zero-window nodes in which null-move pruning is forbidden (because the
// parent just tried one). Dispatched via three thin functions that pass the flag to the
// shared negamax core below, which branches on it at run time.
type nodeFlag uint8

const (
	flagPV nodeFlag = iota
	flagZW
	flagZWNoNull
)

// Tuning constants for the pruning and reduction heuristics of negamax. Values are
// conventional starting points for this family of techniques, not the product of
// engine-strength tuning.
const (
	rfpBase   = 80
	rfpFactor = 70

	nmpBase        = 3
	nmpDepthFactor = 4
	nmpDivisor     = 2
	nmpMinDepth    = 3

	iirMinDepth = 4

	singularMinDepth      = 7
	singularTTDepthMargin = 2
	singularBetaFactor    = 3

	futilityMaxDepth = 7
	futilityBase     = 100

	historyPruneMaxDepth = 8
	cmHistPruneMaxDepth  = 2

	lmpOffset           = 3
	lmpFactor           = 2
	lmpImprovingDivisor = 2

	seePruneMaxDepth = 7

	lmrBase = 0.75
	lmrDiv  = 2.25
	lmrHDiv = 4000
)

func rfpMargin(depth int) eval.Score {
	return eval.Score(rfpBase + rfpFactor*depth)
}

func lmpThreshold(depth int, improving bool) int {
	div := lmpImprovingDivisor
	if improving {
		div = 1
	}
	return int(lmpOffset + float64(depth*depth*lmpFactor)/float64(div))
}

func lmrReduction(depth, movesSeen int, historyScore int32, isPV, improving bool) int {
	if depth < 1 || movesSeen < 1 {
		return 0
	}
	r := lmrBase + math.Log(float64(depth))*math.Log(float64(movesSeen))/lmrDiv
	r -= float64(historyScore) / lmrHDiv
	if isPV {
		r--
	}
	if improving {
		r--
	}
	switch {
	case r < 0:
		return 0
	case int(r) > depth-1:
		return depth - 1
	default:
		return int(r)
	}
}

func hasNonPawnMaterial(pos *board.Position, side board.Color) bool {
	for _, p := range board.KingQueenRookKnightBishop {
		if p == board.King {
			continue
		}
		if pos.Piece(side, p) != 0 {
			return true
		}
	}
	return false
}

// negateChild folds a child's returned score into the parent's perspective, propagating
// an abort sentinel untouched (Negate's overflow-prone arithmetic must never run on it).
func negateChild(s eval.Score) eval.Score {
	if !s.IsValid() {
		return eval.Invalid
	}
	return s.Negate()
}

func (w *Worker) searchPV(ctx context.Context, ply, depth int, alpha, beta eval.Score, excluded board.Move) (board.Move, eval.Score) {
	return w.negamax(ctx, ply, depth, alpha, beta, flagPV, excluded)
}

func (w *Worker) searchZW(ctx context.Context, ply, depth int, beta eval.Score, excluded board.Move) (board.Move, eval.Score) {
	return w.negamax(ctx, ply, depth, beta-1, beta, flagZW, excluded)
}

func (w *Worker) searchZWNoNull(ctx context.Context, ply, depth int, beta eval.Score, excluded board.Move) (board.Move, eval.Score) {
	return w.negamax(ctx, ply, depth, beta-1, beta, flagZWNoNull, excluded)
}

// negamax is the shared alpha-beta core: draw/horizon checks, TT probing,
// reverse-futility/null-move/IIR pre-move pruning, staged move ordering with singular
// extensions and the late-move pruning/reduction ladder, and TT storage on exit. alpha <
// beta always holds, and beta-alpha == 1 whenever flag != flagPV.
func (w *Worker) negamax(ctx context.Context, ply, depth int, alpha, beta eval.Score, flag nodeFlag, excluded board.Move) (board.Move, eval.Score) {
	isPV := flag == flagPV
	pos := w.Pos
	entryStack := w.Stack.At(ply)
	entryStack.Excluded = excluded

	// (1) Abort check.
	if ply > 0 && w.Shared.Abort(depth) {
		return board.Move{}, eval.Invalid
	}

	// (2) Draw check.
	if pos.Result().Outcome == board.Draw {
		return board.Move{}, 0
	}

	// (3) Horizon.
	if depth <= 0 || ply >= MaxPly {
		return w.quiescence(ctx, ply, alpha, beta)
	}

	w.Shared.addNode()
	if ply > w.selDepth {
		w.selDepth = ply
	}

	inCheck := pos.Position().IsChecked(pos.Turn())

	// (4) TT probe.
	var ttMove board.Move
	var ttEntry Entry
	var ttHit bool
	if excluded.Piece == board.NoPiece {
		if e, ok := w.Shared.TT.Probe(pos.Hash()); ok {
			ttEntry, ttHit = e, true
			ttMove = e.Move
			if e.Depth >= depth && !isPV {
				switch {
				case e.Bound == Exact:
					return e.Move, e.Score
				case e.Bound == LowerBound && e.Score >= beta:
					return e.Move, e.Score
				case e.Bound == UpperBound && e.Score <= alpha:
					return e.Move, e.Score
				}
			}
		}
	}

	// (5) Static eval.
	var staticEval eval.Score
	if excluded.Piece != board.NoPiece {
		staticEval = entryStack.Eval
	} else if inCheck {
		staticEval = eval.MatedIn(0)
	} else {
		staticEval = w.Shared.Net.EvaluateAt(pos.Acc.Current(), pos.Turn(), pos.Board)
	}
	entryStack.Eval = staticEval

	// (6) Improving flag.
	improving := !inCheck && ply >= 2 && staticEval > w.Stack.At(ply-2).Eval

	// (7) Reverse futility pruning.
	if !isPV && !inCheck && excluded.Piece == board.NoPiece {
		bonus := eval.Score(0)
		if improving {
			bonus = 50
		}
		if staticEval-rfpMargin(depth)+bonus >= beta {
			return board.Move{}, staticEval
		}
	}

	// (8) Null-move pruning.
	if !isPV && flag != flagZWNoNull && !inCheck && excluded.Piece == board.NoPiece &&
		depth >= nmpMinDepth && hasNonPawnMaterial(pos.Position(), pos.Turn()) && staticEval >= beta {

		r := nmpBase + depth/nmpDepthFactor + nmpDivisor + int((staticEval-beta)/200)
		childDepth := depth - 1 - r
		if childDepth >= 0 && pos.PushNull() {
			childMove, childScore := w.searchZWNoNull(ctx, ply+1, childDepth, -beta+1, board.Move{})
			pos.PopNull()

			score := negateChild(childScore)
			if !score.IsValid() {
				return board.Move{}, eval.Invalid
			}
			if score >= beta {
				return board.Move{}, score
			}
			w.Stack.At(ply + 1).Threat = childMove
		}
	}

	// (9) Internal iterative reduction.
	if ttMove.Piece == board.NoPiece && depth >= iirMinDepth {
		depth--
	}

	// (10) Move loop.
	var prevPiece board.Piece
	var prevTo board.Square
	if ply > 0 {
		prev := w.Stack.At(ply - 1).Move
		prevPiece, prevTo = prev.Piece, prev.To
	}
	counter, _ := w.Tables.CounterMove.Get(pos.Turn(), prevPiece, prevTo)

	gen := NewMoveGenerator(pos, w.Tables, w.Shared.Net, ttMove, entryStack, counter, prevPiece, prevTo)

	var bestMove board.Move
	bestScore := eval.MinScore
	initialAlpha := alpha
	movesSeen := 0
	hasLegalMove := false
	var quietFails, captureFails []board.Move

	for {
		move, ok := gen.Next()
		if !ok {
			break
		}
		if excluded.Piece != board.NoPiece && move.Equals(excluded) {
			continue
		}

		isCapture := move.IsCapture()
		var historyScore, cmHistScore int32
		if !isCapture {
			historyScore = w.Tables.History.Get(pos.Turn(), move.Piece, move.To)
			cmHistScore = w.Tables.CounterMoveHistory.Get(pos.Turn(), prevPiece, prevTo, move.Piece, move.To)
		} else {
			historyScore = w.Tables.CaptureHistory.Get(pos.Turn(), move.Piece, move.To)
		}

		// Singular extension, TT-best move, first move seen only.
		extension := 0
		if movesSeen == 0 && ttHit && move.Equals(ttMove) && depth >= singularMinDepth &&
			ttEntry.Depth >= depth-singularTTDepthMargin &&
			(ttEntry.Bound == Exact || ttEntry.Bound == LowerBound) && !ttEntry.Score.IsMate() {

			sBeta := ttEntry.Score - eval.Score(singularBetaFactor*depth)
			_, vScore := w.searchZWNoNull(ctx, ply, depth/2-1, sBeta, move)
			if vScore.IsValid() {
				if vScore < sBeta {
					extension = 1
				} else if sBeta >= beta {
					return move, sBeta
				}
			}
		}

		if !pos.PushMove(move) {
			continue
		}
		entryStack.Move = move
		hasLegalMove = true
		movesSeen++

		givesCheck := pos.Position().IsChecked(pos.Turn())
		if givesCheck {
			extension = 1
		}

		var childScore eval.Score

		if movesSeen == 1 {
			_, childScore = w.searchPV(ctx, ply+1, depth-1+extension, -beta, -alpha, board.Move{})
		} else {
			if !isPV {
				if depth <= futilityMaxDepth && staticEval+eval.Score(futilityBase*depth) < alpha && move.IsQuiet() {
					gen.SetSkipQuiets()
					pos.PopMove()
					movesSeen--
					continue
				}
				if depth <= historyPruneMaxDepth && staticEval <= alpha &&
					int32(historyScore) < int32(-history.MaxScore*depth*depth/64) {
					pos.PopMove()
					movesSeen--
					continue
				}
				if depth <= cmHistPruneMaxDepth && staticEval <= alpha && move.IsQuiet() &&
					int32(cmHistScore) < int32(-history.MaxScore*depth*depth/64) {
					pos.PopMove()
					movesSeen--
					continue
				}
				if move.IsQuiet() && movesSeen >= lmpThreshold(depth, improving) {
					gen.SetSkipQuiets()
					pos.PopMove()
					movesSeen--
					continue
				}
				if isCapture && depth <= seePruneMaxDepth {
					if see, ok := gen.CachedSEE(move); ok && staticEval+see+eval.Score(futilityBase*depth) < alpha {
						pos.PopMove()
						movesSeen--
						continue
					}
				}
			}

			reduction := 0
			if !givesCheck {
				reduction = lmrReduction(depth, movesSeen, historyScore, isPV, improving)
			}
			_, childScore = w.searchZW(ctx, ply+1, depth-1+extension-reduction, -alpha, board.Move{})
			score := negateChild(childScore)
			if score.IsValid() && score > alpha && reduction > 0 {
				_, childScore = w.searchZW(ctx, ply+1, depth-1+extension, -alpha, board.Move{})
				score = negateChild(childScore)
			}
			if score.IsValid() && score > alpha && isPV {
				_, childScore = w.searchPV(ctx, ply+1, depth-1+extension, -beta, -alpha, board.Move{})
			}
		}

		// (11) Unplay.
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

		// (12) Beta cutoff.
		if score >= beta {
			if excluded.Piece == board.NoPiece {
				if move.IsQuiet() {
					entryStack.AddKiller(move)
					w.Tables.History.Cutoff(pos.Turn(), move, quietFails, depth)
					w.Tables.CounterMoveHistory.Cutoff(pos.Turn(), prevPiece, prevTo, move, quietFails, depth)
					w.Tables.CounterMove.Set(pos.Turn(), prevPiece, prevTo, move)
				} else {
					w.Tables.CaptureHistory.Cutoff(pos.Turn(), move, captureFails, depth)
				}
				w.Shared.TT.Store(pos.Hash(), Entry{Bound: LowerBound, Depth: depth, Score: bestScore, Move: move})
			}
			return move, bestScore
		}

		if isCapture {
			captureFails = append(captureFails, move)
		} else {
			quietFails = append(quietFails, move)
		}
	}

	// (13) No legal move.
	if !hasLegalMove {
		if excluded.Piece != board.NoPiece {
			// Singular verification found no alternative at all; treat as non-singular.
			return board.Move{}, alpha
		}
		result := pos.AdjudicateNoLegalMoves()
		if result.Reason == board.Checkmate {
			return board.Move{}, eval.MatedIn(0)
		}
		return board.Move{}, 0
	}

	// (14) Store and return.
	if excluded.Piece == board.NoPiece {
		bound := UpperBound
		if bestScore > initialAlpha {
			bound = Exact
		}
		w.Shared.TT.Store(pos.Hash(), Entry{Bound: bound, Depth: depth, Score: bestScore, Move: bestMove})
	}
	return bestMove, bestScore
}
