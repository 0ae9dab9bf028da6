package search

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/seekerror/logw"
	"context"
)

// Bound represents the bound kind of a stored search score, i.e. what kind of cutoff
// produced it.
type Bound uint8

const (
	Exact Bound = iota
	LowerBound
	UpperBound
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "Exact"
	case LowerBound:
		return "Lower"
	case UpperBound:
		return "Upper"
	default:
		return "?"
	}
}

// Entry is a transposition table hit: the bound kind, search depth, score (already
// mate-distance-shifted for the node it was stored at) and best/refutation move.
type Entry struct {
	Bound Bound
	Depth int
	Score eval.Score
	Move  board.Move
}

// Payload packing, 64 bits total: valid(1) | bound(2) | depth(8) | score(16, signed) |
// from(6) | to(6) | promotion(3) | type(4) | piece(3) | capture(3). Plenty of headroom
// below 64 bits for a move descriptor plus depth/score/bound without touching the
// hash-key word.
const (
	validShift   = 63
	boundShift   = 61
	depthShift   = 53
	scoreShift   = 37
	fromShift    = 31
	toShift      = 25
	promoShift   = 22
	typeShift    = 18
	pieceShift   = 15
	captureShift = 12
	typeMask     = 0xF
	boundMask    = 0x3
	depthMask    = 0xFF
	scoreMask    = 0xFFFF
	squareMask   = 0x3F
	promotionMsk = 0x7
)

func packPayload(e Entry) uint64 {
	var p uint64
	p |= 1 << validShift
	p |= uint64(e.Bound&boundMask) << boundShift
	p |= uint64(byte(clampDepth(e.Depth))) << depthShift
	p |= uint64(uint16(int16(e.Score))) << scoreShift
	p |= uint64(e.Move.From&squareMask) << fromShift
	p |= uint64(e.Move.To&squareMask) << toShift
	p |= uint64(e.Move.Promotion&promotionMsk) << promoShift
	p |= uint64(e.Move.Type&typeMask) << typeShift
	p |= uint64(e.Move.Piece&promotionMsk) << pieceShift
	p |= uint64(e.Move.Capture&promotionMsk) << captureShift
	return p
}

func clampDepth(d int) int {
	if d < 0 {
		return 0
	}
	if d > depthMask {
		return depthMask
	}
	return d
}

func unpackPayload(p uint64) (Entry, bool) {
	if (p>>validShift)&1 == 0 {
		return Entry{}, false
	}
	e := Entry{
		Bound: Bound((p >> boundShift) & boundMask),
		Depth: int((p >> depthShift) & depthMask),
		Score: eval.Score(int16(uint16((p >> scoreShift) & scoreMask))),
		Move: board.Move{
			From:      board.Square((p >> fromShift) & squareMask),
			To:        board.Square((p >> toShift) & squareMask),
			Promotion: board.Piece((p >> promoShift) & promotionMsk),
			Type:      board.MoveType((p >> typeShift) & typeMask),
			Piece:     board.Piece((p >> pieceShift) & promotionMsk),
			Capture:   board.Piece((p >> captureShift) & promotionMsk),
		},
	}
	return e, true
}

// bonus biases replacement toward cut/exact entries over all-nodes.
func bonus(b Bound) int {
	if b == UpperBound {
		return 0
	}
	return 2
}

// shouldReplace decides whether an entering entry displaces an incumbent slot: it
// replaces iff new.depth + bonus(new.kind) >= incumbent.depth/2 + bonus(incumbent.kind)/2.
func shouldReplace(incumbent, fresh Entry, incumbentValid bool) bool {
	if !incumbentValid {
		return true
	}
	return fresh.Depth+bonus(fresh.Bound) >= incumbent.Depth/2+bonus(incumbent.Bound)/2
}

type ttSlot struct {
	key     atomic.Uint64
	payload atomic.Uint64
}

// TranspositionTable is a lock-free fixed-size probe table keyed by the low bits of a
// 64-bit position hash. Each slot packs a hash-key atomic and a payload atomic; the
// lockless invariant is hashKey == trueHash XOR payload, so a reader recomputing the
// XOR either observes a self-consistent pair (hit) or garbage from a torn concurrent
// write (treated as a miss). All atomics use relaxed Go memory ordering (sync/atomic's
// default); this is the table's sole synchronization discipline.
type TranspositionTable struct {
	slots []ttSlot
	mask  uint64
}

// NewTranspositionTable allocates a table sized for mb megabytes, rounded up to a power
// of two number of entries (mb * 65536).
func NewTranspositionTable(ctx context.Context, mb uint64) *TranspositionTable {
	t := &TranspositionTable{}
	t.resize(ctx, mb)
	return t
}

func (t *TranspositionTable) resize(ctx context.Context, mb uint64) {
	want := mb * 65536
	if want == 0 {
		want = 1
	}
	n := uint64(1) << bits.Len64(want-1)
	if n == 0 {
		n = 1
	}

	logw.Infof(ctx, "Allocating %vMB TT with %v entries", mb, n)

	t.slots = make([]ttSlot, n)
	t.mask = n - 1
}

// Resize rebuilds the table for a new size in megabytes. Not safe to call concurrently
// with Probe/Store; the driver only calls it when idle.
func (t *TranspositionTable) Resize(ctx context.Context, mb uint64) {
	t.resize(ctx, mb)
}

// Prefetch issues a non-binding hint that the slot for hash will soon be read. Go has no
// portable prefetch intrinsic, so this is a documented no-op.
func (t *TranspositionTable) Prefetch(hash board.ZobristHash) {
	// intentionally a no-op
}

// Probe looks up hash. A torn concurrent write fails the XOR check and is treated,
// correctly, as a plain miss -- TT hits are an optimization, not a correctness
// requirement.
func (t *TranspositionTable) Probe(hash board.ZobristHash) (Entry, bool) {
	idx := uint64(hash) & t.mask
	slot := &t.slots[idx]

	key := slot.key.Load()
	payload := slot.payload.Load()

	if key^payload != uint64(hash) {
		return Entry{}, false
	}
	return unpackPayload(payload)
}

// Store writes an entry for hash if the replacement predicate admits it. The key is
// written as hash XOR payload; write order (key then payload, here) is irrelevant to
// correctness since Probe always recomputes the XOR and only trusts the result if it
// matches -- a reader can never be confused by which of the two words landed first.
func (t *TranspositionTable) Store(hash board.ZobristHash, e Entry) {
	idx := uint64(hash) & t.mask
	slot := &t.slots[idx]

	cur := slot.payload.Load()
	incumbent, ok := unpackPayload(cur)
	if !shouldReplace(incumbent, e, ok) {
		return
	}

	payload := packPayload(e)
	slot.key.Store(uint64(hash) ^ payload)
	slot.payload.Store(payload)
}

// Clear zeroes every slot.
func (t *TranspositionTable) Clear() {
	for i := range t.slots {
		t.slots[i].key.Store(0)
		t.slots[i].payload.Store(0)
	}
}

// Size returns the table size in bytes.
func (t *TranspositionTable) Size() uint64 {
	return uint64(len(t.slots)) * 16
}

// Used estimates utilization as a fraction in [0;1] by sampling a prefix of slots --
// cheap and good enough for UI/progress reporting; never consulted by search itself.
func (t *TranspositionTable) Used() float64 {
	const sample = 1000
	n := len(t.slots)
	if n == 0 {
		return 0
	}
	if n > sample {
		n = sample
	}

	var used int
	for i := 0; i < n; i++ {
		if t.slots[i].payload.Load()>>validShift&1 == 1 {
			used++
		}
	}
	return float64(used) / float64(n)
}

func (t *TranspositionTable) String() string {
	return fmt.Sprintf("TT[%vMB @ %v%%]", t.Size()>>20, int(100*t.Used()))
}
