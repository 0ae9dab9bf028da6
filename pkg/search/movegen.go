package search

import (
	"math"
	"sort"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search/history"
)

// priority is the move-ordering score used by the staged generator. Larger sorts first.
type priority int64

const (
	maxPriority priority = math.MaxInt32
	minPriority priority = math.MinInt32

	// seeWeight scales SEE into the same range as capture-history scores.
	seeWeight = 32
	// losingCapturePenalty demotes a capture with negative SEE below the quiet stages;
	// it is still emitted (never dropped), just last among captures.
	losingCapturePenalty = priority(-1 << 20)
	// policyScale brings the move-scoring network's raw dot product down to roughly the
	// same range as the history tables it's added to.
	policyScale = 256
)

type scored struct {
	m     board.Move
	score priority
}

// genStage enumerates the 8 stages of move ordering.
type genStage int

const (
	stagePV genStage = iota
	stageComputeCaptures
	stageGoodCaptures
	stageGenerateQuiets
	stageKillers
	stageCounter
	stageThreat
	stageRemaining
	stageDone
)

// MoveGenerator produces moves for a search node in staged priority order: TT/PV move
// first, then captures (by capture history plus nominal material gain, negative-SEE
// captures demoted but never dropped),
// then quiets ordered by killer/counter-move/threat-move/history heuristics. SkipQuiets
// lets the caller short-circuit stages 4-8 for futility/late-move pruning.
type MoveGenerator struct {
	pos    *Position
	side   board.Color
	tables *history.Tables
	net    *eval.Network

	ttMove    board.Move
	killers   [KillerSlots]board.Move
	counter   board.Move
	threat    board.Move
	prevPiece board.Piece
	prevTo    board.Square

	skipQuiets bool
	emittedPV  bool

	stage genStage

	captures    []scored
	badCaptures []scored
	quiets      []scored

	seeDone  map[board.Move]bool
	seeScore map[board.Move]eval.Score
	pins     eval.Pins
	pinsOnce bool
}

// NewMoveGenerator builds a generator for the position to move, given the TT/PV move
// hint, the search-stack entry at this ply (for killers and threat move), the
// counter-move table's answer for the previously played move, and the evaluator whose
// move-scoring network contributes to quiet move ordering.
func NewMoveGenerator(pos *Position, tables *history.Tables, net *eval.Network, ttMove board.Move, entry *StackEntry, counter board.Move, prevPiece board.Piece, prevTo board.Square) *MoveGenerator {
	g := &MoveGenerator{
		pos:       pos,
		side:      pos.Turn(),
		tables:    tables,
		net:       net,
		ttMove:    ttMove,
		counter:   counter,
		prevPiece: prevPiece,
		prevTo:    prevTo,
		seeDone:   map[board.Move]bool{},
		seeScore:  map[board.Move]eval.Score{},
	}
	if entry != nil {
		g.killers = entry.Killers
		g.threat = entry.Threat
	}
	return g
}

// SetSkipQuiets causes stages 4-8 to be skipped from the next Next() call onward.
func (g *MoveGenerator) SetSkipQuiets() {
	g.skipQuiets = true
}

// CachedSEE returns the static-exchange value computed for a capture already seen by
// this generator (every capture is SEE-scored before it is ever handed to the caller),
// letting the search reuse it for SEE pruning without recomputing on the post-move
// position (where the exchange no longer reflects the pre-move square occupant).
func (g *MoveGenerator) CachedSEE(m board.Move) (eval.Score, bool) {
	if !g.seeDone[m] {
		return 0, false
	}
	return g.seeScore[m], true
}

func (g *MoveGenerator) pinsFor() eval.Pins {
	if !g.pinsOnce {
		g.pins = eval.FindKingQueenPins(g.pos.Position())
		g.pinsOnce = true
	}
	return g.pins
}

func (g *MoveGenerator) see(m board.Move) eval.Score {
	if !g.seeDone[m] {
		g.seeScore[m] = eval.SEE(g.pos.Position(), g.pinsFor(), g.side, m.To)
		g.seeDone[m] = true
	}
	return g.seeScore[m]
}

func (g *MoveGenerator) isDuplicateOfPV(m board.Move) bool {
	return g.ttMove.Piece != board.NoPiece && m.Equals(g.ttMove)
}

// Next returns the next move in staged order, or false when exhausted.
func (g *MoveGenerator) Next() (board.Move, bool) {
	for {
		switch g.stage {
		case stagePV:
			g.stage = stageComputeCaptures
			if !g.emittedPV && g.ttMove.Piece != board.NoPiece {
				g.emittedPV = true
				return g.ttMove, true
			}

		case stageComputeCaptures:
			g.computeCaptures()
			g.stage = stageGoodCaptures

		case stageGoodCaptures:
			if m, ok := g.nextGoodCapture(); ok {
				return m, true
			}
			g.stage = stageGenerateQuiets

		case stageGenerateQuiets:
			if g.skipQuiets {
				g.stage = stageDone
				continue
			}
			g.generateQuiets()
			g.stage = stageKillers

		case stageKillers:
			if g.skipQuiets {
				g.stage = stageDone
				continue
			}
			if m, ok := g.nextKiller(); ok {
				return m, true
			}
			g.stage = stageCounter

		case stageCounter:
			if g.skipQuiets {
				g.stage = stageDone
				continue
			}
			g.stage = stageThreat
			if m, ok := g.removeQuiet(g.counter); ok {
				return m, true
			}

		case stageThreat:
			if g.skipQuiets {
				g.stage = stageDone
				continue
			}
			g.stage = stageRemaining
			if m, ok := g.removeQuiet(g.threat); ok {
				return m, true
			}

		case stageRemaining:
			if g.skipQuiets {
				g.stage = stageDone
				continue
			}
			if m, ok := g.popMax(&g.quiets); ok {
				return m, true
			}
			g.stage = stageDone

		case stageDone:
			return board.Move{}, false
		}
	}
}

func (g *MoveGenerator) computeCaptures() {
	moves := g.pos.Position().PseudoLegalMoves(g.side)
	for _, m := range moves {
		if !m.IsCapture() {
			continue
		}
		if g.isDuplicateOfPV(m) {
			continue
		}
		score := priority(g.tables.CaptureHistory.Get(g.side, m.Piece, m.To)) + seeWeight*priority(eval.NominalValueGain(m))
		g.captures = append(g.captures, scored{m: m, score: score})
	}
}

// nextGoodCapture pops captures by descending score, lazily computing full SEE; a
// negative-SEE capture is demoted to the bad-capture list rather than emitted here.
func (g *MoveGenerator) nextGoodCapture() (board.Move, bool) {
	for {
		m, ok := g.popMax(&g.captures)
		if !ok {
			if !g.badCapturesSorted() {
				return board.Move{}, false
			}
			return g.popMax(&g.badCaptures)
		}
		if g.see(m) < 0 {
			g.badCaptures = append(g.badCaptures, scored{m: m, score: losingCapturePenalty + priority(g.see(m))})
			continue
		}
		return m, true
	}
}

func (g *MoveGenerator) badCapturesSorted() bool {
	if len(g.badCaptures) == 0 {
		return false
	}
	sort.SliceStable(g.badCaptures, func(i, j int) bool { return g.badCaptures[i].score > g.badCaptures[j].score })
	return true
}

func (g *MoveGenerator) generateQuiets() {
	moves := g.pos.Position().PseudoLegalMoves(g.side)
	for _, m := range moves {
		if m.IsCapture() {
			continue
		}
		if g.isDuplicateOfPV(m) {
			continue
		}

		var score priority
		switch {
		case m.Type == board.Promotion && m.Promotion == board.Queen:
			score = maxPriority
		case m.Type == board.Promotion:
			score = minPriority
		default:
			score = priority(g.tables.History.Get(g.side, m.Piece, m.To)) +
				priority(g.tables.CounterMoveHistory.Get(g.side, g.prevPiece, g.prevTo, m.Piece, m.To))
			if g.net != nil {
				score += priority(g.net.EvaluateMove(g.pos.Acc.Current(), g.side, m) / policyScale)
			}
		}
		g.quiets = append(g.quiets, scored{m: m, score: score})
	}
}

func (g *MoveGenerator) nextKiller() (board.Move, bool) {
	for _, k := range g.killers {
		if m, ok := g.removeQuiet(k); ok {
			return m, true
		}
	}
	return board.Move{}, false
}

// removeQuiet removes and returns target from the quiet queue if present.
func (g *MoveGenerator) removeQuiet(target board.Move) (board.Move, bool) {
	if target.Piece == board.NoPiece {
		return board.Move{}, false
	}
	for i, s := range g.quiets {
		if s.m.Equals(target) {
			g.quiets = append(g.quiets[:i], g.quiets[i+1:]...)
			return s.m, true
		}
	}
	return board.Move{}, false
}

func (g *MoveGenerator) popMax(list *[]scored) (board.Move, bool) {
	l := *list
	if len(l) == 0 {
		return board.Move{}, false
	}

	best := 0
	for i := 1; i < len(l); i++ {
		if l[i].score > l[best].score {
			best = i
		}
	}

	m := l[best].m
	l[best] = l[len(l)-1]
	*list = l[:len(l)-1]
	return m, true
}

// QuiescenceMoveGenerator emits only captures with non-negative SEE, scored by
// capture-history + 32*SEE. Moves with negative SEE are dropped, not deferred --
// quiescence search has no use for a losing-capture tail.
type QuiescenceMoveGenerator struct {
	pos      *Position
	side     board.Color
	tables   *history.Tables
	captures []scored
	seeScore map[board.Move]eval.Score
	pins     eval.Pins
	pinsOnce bool
	started  bool
}

func NewQuiescenceMoveGenerator(pos *Position, tables *history.Tables) *QuiescenceMoveGenerator {
	return &QuiescenceMoveGenerator{pos: pos, side: pos.Turn(), tables: tables, seeScore: map[board.Move]eval.Score{}}
}

// CachedSEE returns the static-exchange value computed when this capture was enumerated.
func (g *QuiescenceMoveGenerator) CachedSEE(m board.Move) (eval.Score, bool) {
	v, ok := g.seeScore[m]
	return v, ok
}

func (g *QuiescenceMoveGenerator) pinsFor() eval.Pins {
	if !g.pinsOnce {
		g.pins = eval.FindKingQueenPins(g.pos.Position())
		g.pinsOnce = true
	}
	return g.pins
}

func (g *QuiescenceMoveGenerator) Next() (board.Move, bool) {
	if !g.started {
		g.started = true
		moves := g.pos.Position().PseudoLegalMoves(g.side)
		for _, m := range moves {
			if !m.IsCapture() {
				continue
			}
			see := eval.SEE(g.pos.Position(), g.pinsFor(), g.side, m.To)
			g.seeScore[m] = see
			if see < 0 {
				continue
			}
			score := priority(g.tables.CaptureHistory.Get(g.side, m.Piece, m.To)) + seeWeight*priority(see)
			g.captures = append(g.captures, scored{m: m, score: score})
		}
	}

	if len(g.captures) == 0 {
		return board.Move{}, false
	}

	best := 0
	for i := 1; i < len(g.captures); i++ {
		if g.captures[i].score > g.captures[best].score {
			best = i
		}
	}
	m := g.captures[best].m
	g.captures[best] = g.captures[len(g.captures)-1]
	g.captures = g.captures[:len(g.captures)-1]
	return m, true
}
