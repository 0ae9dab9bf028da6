package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/board/fen"
	"github.com/herohde/kestrel/pkg/eval"
	"github.com/herohde/kestrel/pkg/search"
	"github.com/herohde/kestrel/pkg/search/searchctl"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 89, 3)

// Options are engine creation and runtime options.
type Options struct {
	// Depth is the search depth limit. If zero, there is no limit.
	Depth uint
	// Hash is the transposition table size in MB. If zero, a minimal table is used.
	Hash uint
	// Threads is the lazy-SMP worker count. If zero, a single worker is used.
	Threads uint
}

func (o Options) String() string {
	return fmt.Sprintf("{depth=%v, hash=%v, threads=%v}", o.Depth, o.Hash, o.Threads)
}

// Engine encapsulates game-playing logic, generalized from the driver/worker pool in
// pkg/search/searchctl to the Controller contract: position management, a blocking
// search operation and a streaming Analyze/Halt pair for GUI-facing adapters.
type Engine struct {
	name, author string

	zt   *board.ZobristTable
	seed int64
	opts Options
	net  *eval.Network
	book Book

	tm       search.TimeManager
	override search.TimeManager

	mu     sync.Mutex
	b      *board.Board
	tt     *search.TranspositionTable
	active *searchctl.ManualAbort
}

// Option is an engine creation option.
type Option func(*Engine)

// WithOptions sets default runtime options.
func WithOptions(opts Options) Option {
	return func(e *Engine) {
		e.opts = opts
	}
}

// WithZobrist configures the engine to use the given random seed instead of zero.
func WithZobrist(seed int64) Option {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithBook configures the engine with an opening book consultation hook.
func WithBook(book Book) Option {
	return func(e *Engine) {
		e.book = book
	}
}

// New constructs an engine at the standard initial position with a time manager strategy:
// net supplies NNUE evaluation weights, tm decides how long each search runs.
func New(ctx context.Context, name, author string, net *eval.Network, tm search.TimeManager, opts ...Option) *Engine {
	e := &Engine{
		name:   name,
		author: author,
		net:    net,
		tm:     tm,
		book:   NoBook,
	}
	for _, fn := range opts {
		fn(e)
	}
	e.zt = board.NewZobristTable(e.seed)

	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine: %v, options=%v", e.Name(), e.opts)
	return e
}

// Name returns the engine name and version.
func (e *Engine) Name() string {
	return fmt.Sprintf("%v %v", e.name, version)
}

// Author returns the author.
func (e *Engine) Author() string {
	return e.author
}

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.opts
}

func (e *Engine) SetDepth(depth uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Depth = depth
}

func (e *Engine) SetThreads(threads uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Threads = threads
}

// SetTimeManager overrides the time manager for the next search only, letting a GUI
// adapter report a per-move clock budget (UCI's "go wtime/btime/movestogo/movetime")
// without reconstructing the engine. Passing nil reverts to the manager supplied at
// construction.
func (e *Engine) SetTimeManager(tm search.TimeManager) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.override = tm
}

// SetHash resizes the transposition table to mb megabytes.
func (e *Engine) SetHash(ctx context.Context, mb uint) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.opts.Hash = mb
	if e.tt != nil {
		e.tt.Resize(ctx, uint64(mb))
	}
}

// Board returns a forked copy of the current board.
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.b.Fork()
}

// Position returns the current position in FEN format.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return fen.Encode(e.b.Position(), e.b.Turn(), e.b.NoProgress(), e.b.FullMoves())
}

// Reset resets the engine to a new starting position in FEN format.
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Reset %v, opts=%v", position, e.opts)

	e.haltIfActiveLocked(ctx)

	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	if err != nil {
		return err
	}
	e.b = board.NewBoard(e.zt, pos, turn, noprogress, fullmoves)

	mb := e.opts.Hash
	if mb == 0 {
		mb = 1
	}
	e.tt = search.NewTranspositionTable(ctx, uint64(mb))

	logw.Infof(ctx, "New board: %v", e.b)
	return nil
}

// NewGame clears accumulated state between games: the transposition table and the time
// manager's own history.
func (e *Engine) NewGame(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.tt != nil {
		e.tt.Clear()
	}
	e.tm.Clear()
}

// Move plays a move, usually the opponent's.
func (e *Engine) Move(ctx context.Context, move string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Move %v", move)

	candidate, err := board.ParseMove(move)
	if err != nil {
		return fmt.Errorf("invalid move: %v", err)
	}

	e.haltIfActiveLocked(ctx)

	moves := e.b.Position().PseudoLegalMoves(e.b.Turn())
	for _, m := range moves {
		if !candidate.Equals(m) {
			continue
		}
		if !e.b.PushMove(m) {
			return fmt.Errorf("illegal move: %v", m)
		}

		logw.Infof(ctx, "Move %v: %v", m, e.b)
		return nil
	}
	return fmt.Errorf("invalid move: %v", candidate)
}

// TakeBack undoes the latest move.
func (e *Engine) TakeBack(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltIfActiveLocked(ctx)

	m, ok := e.b.PopMove()
	if !ok {
		return fmt.Errorf("no move to take back")
	}

	logw.Infof(ctx, "Takeback %v", m)
	return nil
}

// RawEval returns the static NNUE evaluation of the current position, with no search.
func (e *Engine) RawEval(ctx context.Context) eval.Score {
	e.mu.Lock()
	defer e.mu.Unlock()

	pos := search.NewPosition(e.b.Fork(), e.net)
	return e.net.EvaluateAt(pos.Acc.Current(), pos.Turn(), pos.Board)
}

// Search blocks until the configured time manager halts the search (or it reaches a
// mate), and returns the best move found, its score, the depth completed and the total
// node count.
func (e *Engine) Search(ctx context.Context, threads int) (board.Move, eval.Score, int, uint64, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return board.Move{}, 0, 0, 0, fmt.Errorf("search already active")
	}

	b := e.b.Fork()
	tt := e.tt
	net := e.net
	abort := &searchctl.ManualAbort{}
	tm := e.searchTimeManagerLocked(abort)
	e.active = abort
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.active = nil
		e.mu.Unlock()
	}()

	if move, ok := e.bookMove(ctx, b); ok {
		return move, 0, 0, 0, nil
	}

	pos := search.NewPosition(b, net)
	driver := &searchctl.Driver{TM: tm}
	result := driver.Run(ctx, pos, tt, net, threads, 0, nil)

	return result.Move, result.Score, result.Depth, result.Nodes, nil
}

// Analyze starts a streaming search, returning per-iteration PV reports on a channel
// that closes once the search stops. Used by the UCI/console adapters, which need
// progress feedback rather than a single blocking result.
func (e *Engine) Analyze(ctx context.Context, opt Options) (<-chan search.PV, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, fmt.Errorf("search already active")
	}

	if opt.Depth == 0 {
		opt.Depth = e.opts.Depth
	}
	threads := int(opt.Threads)
	if threads == 0 {
		threads = int(e.opts.Threads)
	}
	if threads == 0 {
		threads = 1
	}

	b := e.b.Fork()
	tt := e.tt
	net := e.net
	abort := &searchctl.ManualAbort{}
	tm := e.searchTimeManagerLocked(abort)
	if opt.Depth > 0 {
		tm = searchctl.Compound{Managers: []search.TimeManager{tm, searchctl.FixedDepth{Depth: int(opt.Depth)}}}
	}
	e.active = abort
	e.mu.Unlock()

	out := make(chan search.PV, 64)

	go func() {
		defer close(out)
		defer func() {
			e.mu.Lock()
			e.active = nil
			e.mu.Unlock()
		}()

		if move, ok := e.bookMove(ctx, b); ok {
			out <- search.PV{Moves: []board.Move{move}}
			return
		}

		pos := search.NewPosition(b, net)
		driver := &searchctl.Driver{TM: tm}

		info := func(i search.Info) {
			hash := 0.0
			if tt != nil {
				hash = tt.Used()
			}
			out <- search.PV{Depth: i.Depth, SelDepth: i.SelDepth, Nodes: i.Nodes, Score: i.Eval, Moves: i.PV, Time: i.Elapsed, Hash: hash}
		}
		driver.Run(ctx, pos, tt, net, threads, 0, info)
	}()

	return out, nil
}

// Halt stops the active search, if any. It returns an error if no search is active. The
// returned PV is always empty; progress reports are only delivered on Analyze's channel.
func (e *Engine) Halt(ctx context.Context) (search.PV, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	logw.Infof(ctx, "Halt")

	if e.active == nil {
		return search.PV{}, fmt.Errorf("no active search")
	}
	e.active.Halt()
	return search.PV{}, nil
}

func (e *Engine) haltIfActiveLocked(ctx context.Context) {
	if e.active != nil {
		e.active.Halt()
		logw.Infof(ctx, "Search halted by position change")
		e.active = nil
	}
}

func (e *Engine) searchTimeManagerLocked(abort *searchctl.ManualAbort) search.TimeManager {
	tm := e.tm
	if e.override != nil {
		tm = e.override
	}
	return searchctl.Compound{Managers: []search.TimeManager{tm, abort}}
}

func (e *Engine) bookMove(ctx context.Context, b *board.Board) (board.Move, bool) {
	if e.book == nil {
		return board.Move{}, false
	}
	moves, err := e.book.Find(ctx, fen.Encode(b.Position(), b.Turn(), b.NoProgress(), b.FullMoves()))
	if err != nil || len(moves) == 0 {
		return board.Move{}, false
	}
	return moves[0], true
}
