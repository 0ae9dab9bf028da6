package eval

import (
	"context"
	"github.com/herohde/kestrel/pkg/board"
)

// Network holds the quantized NNUE weights: the feature transformer (shared across
// perspectives, applied twice via Accumulator's two vectors), two dense output-layer
// instances (one per perspective, since each operates on that perspective's hidden
// vector), two PSQT tables (one per perspective), and the small move-scoring network's
// own feature transformer and output layer.
type Network struct {
	// Feature transformer: input (FeatureCount) -> hidden (HiddenSize).
	FTWeights [FeatureCount][HiddenSize]int16
	FTBias    [HiddenSize]int16

	// Dense output layer, one instance per perspective: hidden -> NumBuckets.
	OutWeights [2][HiddenSize][NumBuckets]int8
	OutBias    [2][NumBuckets]int32

	// PSQT tables, one per perspective, column-major input x output_buckets in the wire
	// format but stored here row-major (per feature) for cheap incremental toggling.
	PSQTWeights [2][FeatureCount][NumBuckets]int32

	// Move-scoring network: its own feature transformer (input (FeatureCount) -> hidden
	// (HiddenSize), shared between both perspectives' policy accumulators) and its output
	// layer, indexed by piece*64+to-square-from-stm and dotted against the policy hidden
	// vector.
	PolicyFTWeights [FeatureCount][HiddenSize]int16
	PolicyFTBias    [HiddenSize]int16
	PolicyWeights   [6 * 64][HiddenSize]int16
	PolicyBias      [6 * 64]int32
}

// NNUE is a static evaluator that computes a fresh Accumulator from the board on every
// Evaluate call. It implements Evaluator; search itself does not go through it but calls
// Network.EvaluateAt on its incrementally-maintained AccumulatorStack. Material and
// Random remain available as cheap fallbacks for tests that do not load network weights.
type NNUE struct {
	Net *Network
}

func (n NNUE) Evaluate(ctx context.Context, b *board.Board) Score {
	acc := &Accumulator{}
	acc.computeFull(n.Net, b)
	return n.Net.EvaluateAt(acc, b.Turn(), b)
}

// clippedReLU clamps each hidden component to [0, 255], the standard NNUE activation
// that keeps the subsequent 8-bit dot product from overflowing.
func clippedReLU(v *[HiddenSize]int16) [HiddenSize]int32 {
	var out [HiddenSize]int32
	for i, x := range v {
		switch {
		case x < 0:
			out[i] = 0
		case x > 255:
			out[i] = 255
		default:
			out[i] = int32(x)
		}
	}
	return out
}

// bucket selects the PSQT/output bucket from the total piece count on the board: more
// pieces (closer to the opening) select a lower bucket, fewer pieces (endgame) a higher
// one.
func bucket(b *board.Board) int {
	pos := b.Position()
	var count int
	for c := board.ZeroColor; c < board.NumColors; c++ {
		count += pos.Color(c).PopCount()
	}
	n := (32 - count) / 4
	if n < 0 {
		n = 0
	}
	if n >= NumBuckets {
		n = NumBuckets - 1
	}
	return n
}

// FeedForward computes the centipawn evaluation for the side to move from the given
// accumulator and bucket: psqt[bucket]/64 + dense_output(clipped_relu(hidden[stm-perspective]), bucket).
func (net *Network) FeedForward(acc *Accumulator, stm board.Color, bkt int) Score {
	return net.feedForwardBucket(acc, stm, bkt)
}

// EvaluateAt computes the evaluation using the bucket selected from the live board (see
// bucket).
func (net *Network) EvaluateAt(acc *Accumulator, stm board.Color, b *board.Board) Score {
	return net.feedForwardBucket(acc, stm, bucket(b))
}

func (net *Network) feedForwardBucket(acc *Accumulator, stm board.Color, bkt int) Score {
	relu := clippedReLU(acc.vector(stm))
	p := perspIndex(stm)

	var dense int32
	for i, h := range relu {
		dense += h * int32(net.OutWeights[p][i][bkt])
	}
	dense += net.OutBias[p][bkt]

	psqt := acc.psqt(stm)[bkt]
	return Score(psqt/64 + dense)
}

// toSquareFromPerspective mirrors a square for a black-to-move policy lookup, matching
// the feature-transformer's own perspective convention.
func toSquareFromPerspective(sq board.Square, stm board.Color) board.Square {
	if stm == board.Black {
		return sq ^ 56
	}
	return sq
}

// EvaluateMove scores a candidate move with the small move-scoring network: it runs the
// policy hidden vector for the side to move through the same clipped-ReLU activation as
// FeedForward, then dot-products it against PolicyWeights indexed by (piece*64 +
// to-square-from-stm), adding that index's bias.
func (net *Network) EvaluateMove(acc *Accumulator, stm board.Color, m board.Move) int32 {
	idx := int(m.Piece-board.Pawn)*64 + int(toSquareFromPerspective(m.To, stm))
	relu := clippedReLU(acc.policy(stm))
	w := &net.PolicyWeights[idx]

	sum := net.PolicyBias[idx]
	for i, v := range relu {
		sum += v * int32(w[i])
	}
	return sum
}

