package searchctl

import (
	"context"
	"sync"
	"time"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
)

// Window is a multiplicatively-widening aspiration window: each failed iteration grows
// w by factor/divisor plus a fixed add term.
type Window struct {
	w int32
}

const (
	windowInit    = 25
	windowFactor  = 3
	windowDivisor = 2
	windowAdd     = 5
	windowFailMax = 4

	aspirationMinDepth = 5
	aspirationMinScore = 1000
)

func newWindow() *Window {
	return &Window{w: windowInit}
}

func (w *Window) widen() {
	w.w = w.w*windowFactor/windowDivisor + windowAdd
}

// Result is the outcome of one blocking call to Driver.Run: the best move found, its
// score, the depth completed and the total node count across all worker threads.
type Result struct {
	Move  board.Move
	Score eval.Score
	Depth int
	Nodes uint64
}

// Driver runs a lazy-SMP iterative-deepening search: N worker goroutines share one
// transposition table and independently iterate depth-by-depth, using an aspiration
// window at the root once past aspirationMinDepth, each maintaining its own heuristic tables and search
// stack. Thread 0 alone reports progress via Info; threads 1..N-1 search silently and
// only contribute node counts and TT entries. Uses a spawn/join-with-WaitGroup
// worker-pool shape, adapted here to the negamax core of package search.
type Driver struct {
	TM search.TimeManager
}

// Run blocks until the time manager aborts or no worker can complete another iteration,
// then returns the best result across the workers as chosen by bestOf.
func (d *Driver) Run(ctx context.Context, root *search.Position, tt *search.TranspositionTable, net *eval.Network, threads int, timeLeft time.Duration, info search.InfoFunc) Result {
	if threads < 1 {
		threads = 1
	}

	d.TM.Initiate(timeLeft, root.Board)
	shared := search.NewShared(tt, net, d.TM)

	var wg sync.WaitGroup
	results := make([]Result, threads)

	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			pos := root
			if id > 0 {
				pos = root.Fork(net)
			}
			w := search.NewWorker(id, shared, pos)
			results[id] = runWorker(ctx, w, d.TM, id == 0, info)
		}(i)
	}
	wg.Wait()

	return bestOf(results)
}

// runWorker is one lazy-SMP thread's iterative-deepening loop: depth 1, 2, 3, ...,
// widening an aspiration window once depth passes aspirationMinDepth and the previous
// score is not near mate, falling back to a full window after too many failed probes.
func runWorker(ctx context.Context, w *search.Worker, tm search.TimeManager, reportProgress bool, info search.InfoFunc) Result {
	var best Result
	var prevScore eval.Score

	for depth := 1; depth < search.MaxPly; depth++ {
		start := time.Now()

		alpha, beta := eval.MinScore, eval.MaxScore
		win := newWindow()
		useAspiration := depth > aspirationMinDepth && prevScore > -aspirationMinScore && prevScore < aspirationMinScore
		if useAspiration {
			alpha = prevScore - eval.Score(win.w)
			beta = prevScore + eval.Score(win.w)
		}

		var move board.Move
		var score eval.Score
		var pv []board.Move

		fails := 0
		for {
			move, score, pv = w.IterateToDepth(ctx, depth, alpha, beta)
			if !score.IsValid() {
				return best // aborted mid-iteration; keep the prior completed depth
			}
			if !useAspiration || (score > alpha && score < beta) {
				break
			}

			fails++
			win.widen()
			if fails >= windowFailMax {
				alpha, beta = eval.MinScore, eval.MaxScore
				useAspiration = false
				continue
			}
			if score <= alpha {
				alpha = score - eval.Score(win.w)
			} else {
				beta = score + eval.Score(win.w)
			}
		}

		prevScore = score
		best = Result{Move: move, Score: score, Depth: depth, Nodes: w.Shared.Nodes()}

		elapsed := time.Since(start)
		tm.Deepen(w.ID, depth, w.Shared.Nodes(), score, move, elapsed)

		if reportProgress && info != nil {
			info(search.Info{SelDepth: depth, Depth: depth, Eval: score, Elapsed: time.Since(w.Shared.Start), Nodes: w.Shared.Nodes(), PV: pv})
		}

		if depth > 1 && w.Shared.Abort(depth+1) {
			break
		}
		if md, ok := score.MateDistance(); ok && md > 0 && md <= depth {
			break // forced mate found within full search width; exact result
		}
	}

	return best
}

// bestOf picks the deepest result among the worker pool, breaking ties by score. Thread
// 0's result is returned unless another thread searched strictly deeper, or reached the
// same depth with a strictly higher score.
func bestOf(results []Result) Result {
	best := results[0]
	for _, r := range results[1:] {
		if r.Depth > best.Depth || (r.Depth == best.Depth && r.Score > best.Score) {
			best = r
		}
	}
	return best
}
