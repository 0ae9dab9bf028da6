package searchctl_test

import (
	"testing"
	"time"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
	"github.com/herohde/kestrel/pkg/search/searchctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStartingBoard(t *testing.T) *board.Board {
	t.Helper()

	pos, turn, noprogress, fullmoves, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	return board.NewBoard(board.NewZobristTable(0), pos, turn, noprogress, fullmoves)
}

func TestFixedDepthAbortsPastTargetDepth(t *testing.T) {
	tm := searchctl.FixedDepth{Depth: 6}

	assert.False(t, tm.Abort(time.Now(), 6, 0))
	assert.True(t, tm.Abort(time.Now(), 7, 0))
}

func TestFixedTimeAbortsPastBudget(t *testing.T) {
	tm := searchctl.FixedTime{Budget: 10 * time.Millisecond}
	start := time.Now()

	assert.False(t, tm.Abort(start, 1, 0))

	time.Sleep(15 * time.Millisecond)
	assert.True(t, tm.Abort(start, 1, 0))
}

func TestManualAbortHaltAndClear(t *testing.T) {
	var m searchctl.ManualAbort

	assert.False(t, m.Abort(time.Now(), 1, 0))

	m.Halt()
	assert.True(t, m.Abort(time.Now(), 1, 0))

	m.Clear()
	assert.False(t, m.Abort(time.Now(), 1, 0))
}

func TestTimeControlLimitsSplitsRemainingClock(t *testing.T) {
	tc := searchctl.TimeControl{White: 40 * time.Second, Black: 40 * time.Second, Moves: 0}

	soft, hard := tc.Limits(board.White)

	assert.True(t, soft > 0)
	assert.Equal(t, 3*soft, hard)
	assert.True(t, hard < tc.White)
}

func TestTimeControlLimitsUsesMovesToGo(t *testing.T) {
	few := searchctl.TimeControl{White: 40 * time.Second, Moves: 1}
	many := searchctl.TimeControl{White: 40 * time.Second, Moves: 39}

	softFew, _ := few.Limits(board.White)
	softMany, _ := many.Limits(board.White)

	assert.True(t, softFew > softMany, "fewer moves to go should allocate more time per move")
}

func TestDynamicAbortsAtHardDeadlineEvenWithoutDeepenCall(t *testing.T) {
	d := &searchctl.Dynamic{TC: searchctl.TimeControl{White: 20 * time.Millisecond, Black: 20 * time.Millisecond, Moves: 1}}

	b := newStartingBoard(t)
	d.Initiate(0, b)

	assert.False(t, d.Abort(time.Now(), 1, 0))

	time.Sleep(100 * time.Millisecond)
	assert.True(t, d.Abort(time.Now(), 1, 0))
}

func TestDynamicAbortsAtSoftDeadlineBetweenIterations(t *testing.T) {
	d := &searchctl.Dynamic{TC: searchctl.TimeControl{White: time.Hour, Black: time.Hour, Moves: 1}}

	b := newStartingBoard(t)
	d.Initiate(0, b)

	// Simulate an iteration that ran long enough to cross the soft deadline.
	d.Deepen(0, 1, 0, 0, board.Move{}, time.Hour)
	assert.True(t, d.Abort(time.Now(), 2, 0))
}

func TestDynamicClearResetsSoftDeadlineFlag(t *testing.T) {
	d := &searchctl.Dynamic{TC: searchctl.TimeControl{White: time.Hour, Black: time.Hour, Moves: 1}}

	b := newStartingBoard(t)
	d.Initiate(0, b)
	d.Deepen(0, 1, 0, 0, board.Move{}, time.Hour)
	require.True(t, d.Abort(time.Now(), 2, 0))

	d.Clear()
	assert.False(t, d.Abort(time.Now(), 2, 0))
}

func TestCompoundAbortsIfAnyMemberAborts(t *testing.T) {
	var halted searchctl.ManualAbort
	c := searchctl.Compound{Managers: []search.TimeManager{searchctl.FixedDepth{Depth: 99}, &halted}}

	assert.False(t, c.Abort(time.Now(), 1, 0))

	halted.Halt()
	assert.True(t, c.Abort(time.Now(), 1, 0))
}

func TestCompoundFansOutInitiateDeepenClear(t *testing.T) {
	a := &countingManager{}
	b := &countingManager{}
	c := searchctl.Compound{Managers: []search.TimeManager{a, b}}

	bd := newStartingBoard(t)
	c.Initiate(0, bd)
	c.Deepen(0, 1, 0, 0, board.Move{}, 0)
	c.Clear()

	assert.Equal(t, 1, a.initiated)
	assert.Equal(t, 1, a.deepened)
	assert.Equal(t, 1, a.cleared)
	assert.Equal(t, 1, b.initiated)
	assert.Equal(t, 1, b.deepened)
	assert.Equal(t, 1, b.cleared)
}

type countingManager struct {
	initiated, deepened, cleared int
}

func (c *countingManager) Initiate(time.Duration, *board.Board) { c.initiated++ }
func (c *countingManager) Deepen(int, int, uint64, eval.Score, board.Move, time.Duration) {
	c.deepened++
}
func (c *countingManager) Abort(time.Time, int, uint64) bool { return false }
func (c *countingManager) Clear()                            { c.cleared++ }
