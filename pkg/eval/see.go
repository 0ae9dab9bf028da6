package eval

import (
	"fmt"
	"sort"

	"github.com/herohde/kestrel/pkg/board"
)

// Pins is a map from pinned square to the squares of the opposing pieces pinning it. A
// pinned piece can only safely join an exchange against one of its own pinners.
type Pins map[board.Square][]board.Square

// FindKingQueenPins returns all pins against either side's King or Queen.
func FindKingQueenPins(pos *board.Position) Pins {
	var pins []Pin
	for side := board.ZeroColor; side < board.NumColors; side++ {
		for _, piece := range board.KingQueen {
			pins = append(pins, FindPins(pos, side, piece)...)
		}
	}

	ret := map[board.Square][]board.Square{}
	for _, pin := range pins {
		ret[pin.Pinned] = append(ret[pin.Pinned], pin.Attacker)
	}
	return ret
}

// Attacker represents a non-pinned attacker of some square, potentially with further
// attackers of the same side stacked "behind" it along the same ray. For example,
// Rook -> Queen -> target: the Rook is behind the Queen and can only join the exchange
// once the Queen has moved.
type Attacker struct {
	Piece  board.Placement
	Behind *Attacker
}

func (a *Attacker) String() string {
	return fmt.Sprintf("%v|%v", a.Piece, a.Behind)
}

// NumAttackers returns the number of attackers, direct and stacked, for the given side.
func NumAttackers(attackers []*Attacker, side board.Color) int {
	count := 0
	for _, att := range attackers {
		if att.Piece.Color != side {
			continue
		}
		for att != nil {
			count++
			att = att.Behind
		}
	}
	return count
}

// FindAttackers returns all direct and indirect (behind) attackers of a given square.
func FindAttackers(pos *board.Position, pins Pins, sq board.Square) []*Attacker {
	var ret []*Attacker
	for _, piece := range board.KingQueenRookKnightBishop {
		attackboard := board.Attackboard(pos.Rotated(), sq, piece)

		for side := board.ZeroColor; side < board.NumColors; side++ {
			bb := attackboard & pos.Piece(side, piece)
			for bb != 0 {
				from := bb.LastPopSquare()
				bb &^= board.BitMask(from)

				if stack, ok := addAttackerStack(pos, pos.Rotated(), pins, side, piece, from, sq); ok {
					ret = append(ret, stack)
				}
			}
		}
	}

	for side := board.ZeroColor; side < board.NumColors; side++ {
		bb := board.PawnCaptureboard(side.Opponent(), board.BitMask(sq)) & pos.Piece(side, board.Pawn)
		for bb != 0 {
			from := bb.LastPopSquare()
			bb &^= board.BitMask(from)

			if stack, ok := addAttackerStack(pos, pos.Rotated(), pins, side, board.Pawn, from, sq); ok {
				ret = append(ret, stack)
			}
		}
	}

	return ret
}

func addAttackerStack(pos *board.Position, r board.RotatedBitboard, pins Pins, side board.Color, piece board.Piece, from, target board.Square) (*Attacker, bool) {
	if list := pins[from]; len(list) > 1 || (len(list) == 1 && list[0] != target) {
		return nil, false // attacker is pinned against a different line: cannot join this exchange
	}

	ret := &Attacker{Piece: board.Placement{Piece: piece, Color: side, Square: from}}
	if piece == board.King {
		return ret, true // nothing can stack behind the King
	}

	next := r.Xor(from)

	bb := board.EmptyBitboard
	switch {
	case board.IsSameRankOrFile(from, target):
		attackboard := board.RookAttackboard(next, target) &^ board.RookAttackboard(r, target)
		bb = attackboard & (pos.Piece(side, board.Queen) | pos.Piece(side, board.Rook))
	case board.IsSameDiagonal(from, target):
		attackboard := board.BishopAttackboard(next, target) &^ board.BishopAttackboard(r, target)
		bb = attackboard & (pos.Piece(side, board.Queen) | pos.Piece(side, board.Bishop))
	}

	if bb != 0 {
		behindFrom := bb.LastPopSquare()
		_, behindPiece, _ := pos.Square(behindFrom)
		ret.Behind, _ = addAttackerStack(pos, next, pins, side, behindPiece, behindFrom, target)
	}

	return ret, true
}

// SEE computes the static exchange evaluation of a capture on the given square: the net
// material gain, in centipawns, for side of the exchange there, captures made
// least-valuable-attacker-first. Each side joins or continues the exchange only while its
// willAttack test passes, so a capture side would not start scores 0 rather than a
// negative value. It does not play any moves; it reasons statically from the current
// attacker/defender stacks.
func SEE(pos *board.Position, pins Pins, side board.Color, sq board.Square) Score {
	occupant, piece, ok := pos.Square(sq)
	if !ok || piece == board.King {
		return 0
	}

	all := FindAttackers(pos, pins, sq)
	defenders := findSide(all, occupant)
	attackers := findSide(all, occupant.Opponent())

	var residue Score // gain of the exchange so far, from occupant.Opponent's point of view

	defender := NominalValue(piece)
	cur := occupant
	for len(attackers) > 0 {
		attacker := attackers[0]
		attackers = attackers[1:]

		// The attacking side continues the exchange iff it is undefended or it is not a
		// net loss to do so (accounting for the best possible reply).
		willAttack := len(defenders) == 0 || val(attacker) <= defender
		willAttack = willAttack || (len(attackers) > 0 && val(attacker)+val(attackers[0]) <= defender+val(defenders[0]))
		if !willAttack {
			break
		}

		residue += defender
		defender = val(attacker)

		attackers, defenders = defenders, attackers
		residue = -residue
		cur = cur.Opponent()
	}

	if cur == side {
		return -residue
	}
	return residue
}

func findSide(attackers []*Attacker, side board.Color) []*Attacker {
	var ret []*Attacker
	for _, att := range attackers {
		if att.Piece.Color == side {
			ret = append(ret, att)
		}
	}

	// Flatten the stacks into a single attack-order list, honoring the Behind relation:
	// a stacked attacker cannot join the exchange before the piece in front of it does.
	sort.Slice(ret, byValue(ret))
	for i := 0; i < len(ret); i++ {
		if ret[i].Behind == nil {
			continue
		}
		ret = append(ret, ret[i].Behind)
		sort.Slice(ret[i+1:], byValue(ret[i+1:]))
	}
	return ret
}

func byValue(list []*Attacker) func(i, j int) bool {
	return func(i, j int) bool {
		return val(list[i]) < val(list[j])
	}
}

func val(att *Attacker) Score {
	return NominalValue(att.Piece.Piece)
}
