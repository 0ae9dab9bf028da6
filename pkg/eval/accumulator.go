package eval

import "github.com/herohde/kestrel/pkg/board"

// HiddenSize is the width of the per-perspective feature-transformer output, a quantized
// int16 accumulator for cheap incremental arithmetic.
const (
	HiddenSize = 256

	// NumBuckets is the number of PSQT/output buckets, selected by piece count.
	NumBuckets = 8

	// FeatureCount is the input dimension of the feature transformer: square (64) x
	// (color (2) x piece-kind (6)).
	FeatureCount = 64 * 2 * 6

	// MaxPly bounds the preallocated accumulator stack depth. No allocation happens
	// during search: Push/Pop only ever move the head within this fixed array.
	MaxPly = 128
)

// perspectiveFeature returns the feature index for a piece of the given kind and color
// at the given square, from the perspective of persp (White or Black). The white
// perspective is S + (C*6+P)*64; the black perspective mirrors both the square (XOR 56)
// and the color, so that each side always "sees" its own pieces the same way.
func perspectiveFeature(persp, color board.Color, piece board.Piece, sq board.Square) int {
	p := int(piece - board.Pawn) // zero-base: Pawn..King -> 0..5
	c := color
	s := sq
	if persp == board.Black {
		c = c.Opponent()
		s = sq ^ 56
	}
	return int(s) + (int(c)*6+p)*64
}

// Accumulator holds the two incrementally-maintained hidden-layer vectors (one per
// perspective), the two per-perspective per-bucket PSQT scalar sums, and the two
// incrementally-maintained hidden vectors feeding the small move-scoring network. One
// Accumulator exists per ply; see AccumulatorStack.
type Accumulator struct {
	White, Black             [HiddenSize]int16
	PSQTWhite, PSQTBlack     [NumBuckets]int32
	PolicyWhite, PolicyBlack [HiddenSize]int16
}

func (a *Accumulator) vector(persp board.Color) *[HiddenSize]int16 {
	if persp == board.White {
		return &a.White
	}
	return &a.Black
}

func (a *Accumulator) psqt(persp board.Color) *[NumBuckets]int32 {
	if persp == board.White {
		return &a.PSQTWhite
	}
	return &a.PSQTBlack
}

func (a *Accumulator) policy(persp board.Color) *[HiddenSize]int16 {
	if persp == board.White {
		return &a.PolicyWhite
	}
	return &a.PolicyBlack
}

// toggle adds (add=true) or removes the feature contribution of a piece placement to
// both perspectives' hidden and PSQT accumulators, and to the policy accumulators. The
// policy feature index is always computed from the black perspective regardless of
// which accumulator (White's or Black's) is being updated: the move-scoring network
// shares a single feature space between the two.
func (a *Accumulator) toggle(net *Network, color board.Color, piece board.Piece, sq board.Square, add bool) {
	polIdx := perspectiveFeature(board.Black, color, piece, sq)
	polW := &net.PolicyFTWeights[polIdx]

	for _, persp := range [2]board.Color{board.White, board.Black} {
		idx := perspectiveFeature(persp, color, piece, sq)
		h := a.vector(persp)
		w := &net.FTWeights[idx]
		p := a.psqt(persp)
		pw := &net.PSQTWeights[perspIndex(persp)][idx]
		pol := a.policy(persp)
		if add {
			for i := range h {
				h[i] += w[i]
			}
			for b := 0; b < NumBuckets; b++ {
				p[b] += pw[b]
			}
			for i := range pol {
				pol[i] += polW[i]
			}
		} else {
			for i := range h {
				h[i] -= w[i]
			}
			for b := 0; b < NumBuckets; b++ {
				p[b] -= pw[b]
			}
			for i := range pol {
				pol[i] -= polW[i]
			}
		}
	}
}

func perspIndex(c board.Color) int {
	if c == board.White {
		return 0
	}
	return 1
}

// computeFull rebuilds the accumulator from scratch from the given board, bit-exactly
// equal to what incremental updates would have produced. Used to seed the root
// accumulator and to validate invariant 1 in tests.
func (a *Accumulator) computeFull(net *Network, b *board.Board) {
	*a = Accumulator{}
	copy(a.White[:], net.FTBias[:])
	copy(a.Black[:], net.FTBias[:])
	copy(a.PolicyWhite[:], net.PolicyFTBias[:])
	copy(a.PolicyBlack[:], net.PolicyFTBias[:])

	pos := b.Position()
	for sq := board.ZeroSquare; sq < board.NumSquares; sq++ {
		c, p, ok := pos.Square(sq)
		if !ok {
			continue
		}
		a.toggle(net, c, p, sq, true)
	}
}

// AccumulatorStack preallocates one Accumulator per possible ply (MaxPly+1) so that no
// allocation occurs on the search hot path. head indexes the current accumulator;
// PushMove advances it by copying [head] into [head+1] and applying the incremental
// update, Pop decrements it.
type AccumulatorStack struct {
	net   *Network
	stack [MaxPly + 1]Accumulator
	head  int
}

// NewAccumulatorStack creates a stack seeded from the starting board.
func NewAccumulatorStack(net *Network, b *board.Board) *AccumulatorStack {
	s := &AccumulatorStack{net: net}
	s.stack[0].computeFull(net, b)
	return s
}

// Head returns the current ply depth of the stack.
func (s *AccumulatorStack) Head() int {
	return s.head
}

// Current returns the accumulator at the current head.
func (s *AccumulatorStack) Current() *Accumulator {
	return &s.stack[s.head]
}

// Reset collapses the stack back to ply 0 and recomputes it from the given board.
func (s *AccumulatorStack) Reset(b *board.Board) {
	s.head = 0
	s.stack[0].computeFull(s.net, b)
}

// PushMove advances the head and incrementally applies the move just played by mover.
func (s *AccumulatorStack) PushMove(mover board.Color, m board.Move) {
	s.head++
	next := &s.stack[s.head]
	*next = s.stack[s.head-1]

	opp := mover.Opponent()
	next.toggle(s.net, mover, m.Piece, m.From, false)

	switch m.Type {
	case board.EnPassant:
		epSq, _ := m.EnPassantCapture()
		next.toggle(s.net, opp, board.Pawn, epSq, false)
		next.toggle(s.net, mover, m.Piece, m.To, true)
	case board.Capture:
		next.toggle(s.net, opp, m.Capture, m.To, false)
		next.toggle(s.net, mover, m.Piece, m.To, true)
	case board.CapturePromotion:
		next.toggle(s.net, opp, m.Capture, m.To, false)
		next.toggle(s.net, mover, m.Promotion, m.To, true)
	case board.Promotion:
		next.toggle(s.net, mover, m.Promotion, m.To, true)
	case board.KingSideCastle, board.QueenSideCastle:
		next.toggle(s.net, mover, m.Piece, m.To, true)
		from, to, _ := m.CastlingRookMove()
		next.toggle(s.net, mover, board.Rook, from, false)
		next.toggle(s.net, mover, board.Rook, to, true)
	default:
		next.toggle(s.net, mover, m.Piece, m.To, true)
	}
}

// PushNull advances the head without any feature changes: the position is identical,
// only the side to move (tracked by the caller's Board) flips.
func (s *AccumulatorStack) PushNull() {
	s.head++
	s.stack[s.head] = s.stack[s.head-1]
}

// Pop retreats the head by one ply, discarding the top accumulator.
func (s *AccumulatorStack) Pop() {
	s.head--
}
