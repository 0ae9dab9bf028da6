package searchctl_test

import (
	"context"
	"testing"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
	"github.com/herohde/kestrel/pkg/search/searchctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDriverPosition(t *testing.T, position string, net *eval.Network) *search.Position {
	t.Helper()

	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	require.NoError(t, err)

	b := board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)
	return search.NewPosition(b, net)
}

// TestDriverRunSingleThreadFixedDepth exercises the full lazy-SMP driver at the minimum
// thread count (1), with a FixedDepth time manager, and checks the result matches an
// independently computed mate score.
func TestDriverRunSingleThreadFixedDepth(t *testing.T) {
	net := eval.NewZeroNetwork()
	root := newDriverPosition(t, "6k1/5ppp/8/8/8/8/5PPP/4R1K1 w - - 0 1", net)
	tt := search.NewTranspositionTable(context.Background(), 1)

	driver := &searchctl.Driver{TM: searchctl.FixedDepth{Depth: 1}}
	result := driver.Run(context.Background(), root, tt, net, 1, 0, nil)

	assert.Equal(t, board.E1, result.Move.From)
	assert.Equal(t, board.E8, result.Move.To)

	md, ok := result.Score.MateDistance()
	require.True(t, ok)
	assert.Equal(t, 1, md)
}

// TestDriverRunMultiThreadAgrees spawns several lazy-SMP workers against the same
// shallow mate-in-one position and checks they converge on the same best move, each
// forking its own Position from the shared root for per-thread isolation.
func TestDriverRunMultiThreadAgrees(t *testing.T) {
	net := eval.NewZeroNetwork()
	root := newDriverPosition(t, "6k1/5ppp/8/8/8/8/5PPP/4R1K1 w - - 0 1", net)
	tt := search.NewTranspositionTable(context.Background(), 1)

	driver := &searchctl.Driver{TM: searchctl.FixedDepth{Depth: 1}}
	result := driver.Run(context.Background(), root, tt, net, 4, 0, nil)

	assert.Equal(t, board.E1, result.Move.From)
	assert.Equal(t, board.E8, result.Move.To)
}

// TestDriverRunReportsProgressOnThreadZeroOnly confirms Info callbacks fire only for
// thread 0, while the other threads stay silent.
func TestDriverRunReportsProgressOnThreadZeroOnly(t *testing.T) {
	net := eval.NewZeroNetwork()
	root := newDriverPosition(t, fen.Initial, net)
	tt := search.NewTranspositionTable(context.Background(), 1)

	var reports []search.Info
	info := func(i search.Info) { reports = append(reports, i) }

	driver := &searchctl.Driver{TM: searchctl.FixedDepth{Depth: 2}}
	driver.Run(context.Background(), root, tt, net, 2, 0, info)

	require.NotEmpty(t, reports)
	for _, r := range reports {
		assert.True(t, r.Depth >= 1 && r.Depth <= 2)
	}
}

// TestDriverRunHonorsManualAbort confirms a halted ManualAbort stops the driver without
// hanging, returning whatever depth had already completed.
func TestDriverRunHonorsManualAbort(t *testing.T) {
	net := eval.NewZeroNetwork()
	root := newDriverPosition(t, fen.Initial, net)
	tt := search.NewTranspositionTable(context.Background(), 1)

	abort := &searchctl.ManualAbort{}
	abort.Halt()

	driver := &searchctl.Driver{TM: abort}
	result := driver.Run(context.Background(), root, tt, net, 1, 0, nil)

	// The root ply never polls Abort, but its children at ply 1 do (negamax's step 1 and
	// quiescence), so even the first iteration is cut short and discarded: no depth was
	// completed, leaving the driver's result at depth 0.
	assert.Equal(t, 0, result.Depth)
}
