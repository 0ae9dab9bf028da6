package search

import (
	"github.com/herohde/kestrel/pkg/board"
	"github.com/herohde/kestrel/pkg/eval"
)

// MaxPly bounds the deepest ply the search stack, killer slots and accumulator are
// preallocated for. A compile-time constant so no allocation happens mid-search.
const MaxPly = eval.MaxPly

// KillerSlots is the bounded capacity of each ply's killer-move stack.
const KillerSlots = 2

// StackEntry holds the per-node state indexed by plies-from-root: the static eval
// computed at this node, the move actually played from here, the move currently
// excluded for singular-extension verification, and the killer/threat slots consulted
// by move ordering.
type StackEntry struct {
	Eval     eval.Score
	Move     board.Move
	Excluded board.Move
	Killers  [KillerSlots]board.Move
	Threat   board.Move
}

// AddKiller pushes a quiet cutoff move onto the killer stack. Duplicates are rejected
// to preserve diversity between the two slots.
func (e *StackEntry) AddKiller(m board.Move) {
	if e.Killers[0].Equals(m) || e.Killers[1].Equals(m) {
		return
	}
	e.Killers[1] = e.Killers[0]
	e.Killers[0] = m
}

// Stack is a dense, preallocated, ply-indexed vector of StackEntry. It grows on demand
// (beyond MaxPly, for pathological lines) but never shrinks between top-level searches;
// Clear resets it for a new top-level search without releasing the backing array.
type Stack struct {
	entries []StackEntry
}

// NewStack preallocates MaxPly+1 entries.
func NewStack() *Stack {
	return &Stack{entries: make([]StackEntry, MaxPly+1)}
}

// At returns the entry for the given ply, growing the stack if necessary.
func (s *Stack) At(ply int) *StackEntry {
	if ply >= len(s.entries) {
		grown := make([]StackEntry, ply+1)
		copy(grown, s.entries)
		s.entries = grown
	}
	return &s.entries[ply]
}

// Clear resets every entry to its zero value, keeping the backing array.
func (s *Stack) Clear() {
	for i := range s.entries {
		s.entries[i] = StackEntry{}
	}
}
