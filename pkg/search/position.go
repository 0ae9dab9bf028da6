package search

import (
	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
)

// Position pairs a board.Board with its incrementally-maintained NNUE accumulator
// stack, keeping them always the same number of plies from the root. It lives in
// pkg/search, rather than embedded directly in board.Board, because pkg/eval already
// imports pkg/board for move/piece/square types: embedding the accumulator in Board
// would create an import cycle. Search owns both halves instead and always
// advances/retreats them together.
type Position struct {
	*board.Board
	Acc *eval.AccumulatorStack
}

// NewPosition wraps a board with a freshly computed accumulator stack for the given net.
func NewPosition(b *board.Board, net *eval.Network) *Position {
	return &Position{Board: b, Acc: eval.NewAccumulatorStack(net, b)}
}

// PushMove plays a pseudo-legal move, advancing both the board and the accumulator in
// lock-step. Returns false (and leaves both unchanged) if the move is illegal.
func (p *Position) PushMove(m board.Move) bool {
	mover := p.Turn()
	if !p.Board.PushMove(m) {
		return false
	}
	p.Acc.PushMove(mover, m)
	return true
}

// PopMove unplays the last move, retreating both the board and the accumulator.
func (p *Position) PopMove() (board.Move, bool) {
	m, ok := p.Board.PopMove()
	if !ok {
		return m, false
	}
	p.Acc.Pop()
	return m, true
}

// PushNull plays a null move: the board's side to move flips and the accumulator's head
// advances without any feature change (the position is otherwise identical). Returns
// false if the position is terminal.
func (p *Position) PushNull() bool {
	if !p.Board.PushNull() {
		return false
	}
	p.Acc.PushNull()
	return true
}

// PopNull unplays a null move.
func (p *Position) PopNull() {
	p.Board.PopNull()
	p.Acc.Pop()
}

// Fork branches off a new Position sharing board history, for spinning off independent
// search workers (lazy SMP) from the same root.
func (p *Position) Fork(net *eval.Network) *Position {
	fb := p.Board.Fork()
	return NewPosition(fb, net)
}
