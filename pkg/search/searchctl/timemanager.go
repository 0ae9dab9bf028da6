// Package searchctl drives iterative-deepening lazy-SMP searches over the core negamax
// engine in package search: it owns worker lifecycle, aspiration windows and the time
// manager strategies that decide when to stop deepening.
package searchctl

import (
	"sync"
	"time"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
)

// FixedDepth stops once a given depth has been completed; Abort never fires early.
type FixedDepth struct {
	Depth int
}

func (f FixedDepth) Initiate(time.Duration, *board.Board) {}
func (f FixedDepth) Deepen(int, int, uint64, eval.Score, board.Move, time.Duration) {}
func (f FixedDepth) Abort(start time.Time, depth int, nodes uint64) bool {
	return depth > f.Depth
}
func (f FixedDepth) Clear() {}

// FixedTime aborts once the wall-clock budget elapses, irrespective of depth.
type FixedTime struct {
	Budget time.Duration
}

func (f FixedTime) Initiate(time.Duration, *board.Board) {}
func (f FixedTime) Deepen(int, int, uint64, eval.Score, board.Move, time.Duration) {}
func (f FixedTime) Abort(start time.Time, depth int, nodes uint64) bool {
	return time.Since(start) >= f.Budget
}
func (f FixedTime) Clear() {}

// ManualAbort is signalled externally (via Halt) rather than by depth or clock; it backs
// the console/UCI "stop" command.
type ManualAbort struct {
	mu      sync.Mutex
	stopped bool
}

// Halt requests that the next Abort poll return true. Idempotent, safe to call
// concurrently with Abort.
func (m *ManualAbort) Halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *ManualAbort) Initiate(time.Duration, *board.Board) {}
func (m *ManualAbort) Deepen(int, int, uint64, eval.Score, board.Move, time.Duration) {}
func (m *ManualAbort) Abort(time.Time, int, uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
func (m *ManualAbort) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = false
}

// TimeControl holds per-side remaining clock time and the number of moves left in the
// current time control (0 == rest of game), the same shape UCI's "go wtime/btime/movestogo"
// reports.
type TimeControl struct {
	White, Black time.Duration
	Moves        int
}

// Limits returns a soft and hard deadline for the side to move. Past the soft limit no
// new iteration should start; the hard limit is a backstop abort mid-iteration. Assumes
// 40 moves to the time control if Moves is unset.
func (t TimeControl) Limits(c board.Color) (time.Duration, time.Duration) {
	remainder := t.White
	if c == board.Black {
		remainder = t.Black
	}

	moves := time.Duration(40)
	if t.Moves > 0 {
		moves = time.Duration(t.Moves) + 1
	}

	soft := remainder / (2 * moves)
	hard := 3 * soft
	return soft, hard
}

// Dynamic computes soft/hard deadlines from a TimeControl at Initiate and aborts once
// the soft deadline is reached between iterations, or the hard deadline is reached
// mid-iteration.
type Dynamic struct {
	TC TimeControl

	mu                 sync.Mutex
	start              time.Time
	soft, hard         time.Duration
	softDeadlineCrossed bool
}

func (d *Dynamic) Initiate(timeLeft time.Duration, b *board.Board) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tc := d.TC
	if tc.White == 0 && tc.Black == 0 {
		tc.White, tc.Black = timeLeft, timeLeft
	}
	d.soft, d.hard = tc.Limits(b.Turn())
	d.start = time.Now()
	d.softDeadlineCrossed = false
}

func (d *Dynamic) Deepen(thread, depth int, nodes uint64, score eval.Score, best board.Move, elapsed time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if elapsed >= d.soft || time.Since(d.start) >= d.soft {
		d.softDeadlineCrossed = true
	}
}

func (d *Dynamic) Abort(start time.Time, depth int, nodes uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.softDeadlineCrossed {
		return true
	}
	return time.Since(d.start) >= d.hard
}

func (d *Dynamic) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.softDeadlineCrossed = false
}

// Compound combines several time managers: Initiate/Deepen/Clear fan out to all of them,
// Abort is the logical OR of every member's answer. Lets a driver combine, e.g., a
// Dynamic clock budget with a ManualAbort stop switch.
type Compound struct {
	Managers []search.TimeManager
}

func (c Compound) Initiate(timeLeft time.Duration, b *board.Board) {
	for _, m := range c.Managers {
		m.Initiate(timeLeft, b)
	}
}

func (c Compound) Deepen(thread, depth int, nodes uint64, score eval.Score, best board.Move, elapsed time.Duration) {
	for _, m := range c.Managers {
		m.Deepen(thread, depth, nodes, score, best, elapsed)
	}
}

func (c Compound) Abort(start time.Time, depth int, nodes uint64) bool {
	for _, m := range c.Managers {
		if m.Abort(start, depth, nodes) {
			return true
		}
	}
	return false
}

func (c Compound) Clear() {
	for _, m := range c.Managers {
		m.Clear()
	}
}
