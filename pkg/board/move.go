package board

import "fmt"

// MoveType indicates the type of move. The no-progress counter is reset with any non-Normal move.
type MoveType uint8

const (
	Normal    MoveType = iota
	Push               // Pawn move
	Jump               // Pawn 2-square move
	EnPassant          // Implicitly a pawn capture
	QueenSideCastle
	KingSideCastle
	Capture
	Promotion
	CapturePromotion
)

// TODO(herohde) 2/21/2021: add remarks, like "dubious", to represent standard notation?

// Move represents a not-necessarily legal move along with contextual metadata. 64bits.
type Move struct {
	Type      MoveType
	From, To  Square
	Piece     Piece // piece being moved.
	Promotion Piece // desired piece for promotion, if any.
	Capture   Piece // captured piece, if any.
	Score     Score
}

// IsCapture returns true iff the move captures a piece, including en passant.
func (m Move) IsCapture() bool {
	switch m.Type {
	case Capture, CapturePromotion, EnPassant:
		return true
	default:
		return false
	}
}

// IsPromotion returns true iff the move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Type == Promotion || m.Type == CapturePromotion
}

// IsQuiet returns true iff the move is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// EnPassantCapture returns the square of the pawn actually captured by an en passant move.
func (m Move) EnPassantCapture() (Square, bool) {
	if m.To > m.From {
		return m.To - 8, true // white moving up captures the black pawn one rank below the target.
	}
	return m.To + 8, true // black moving down captures the white pawn one rank above the target.
}

// EnPassantTarget returns the skipped-over square set as the en passant target by a Jump move.
func (m Move) EnPassantTarget() (Square, bool) {
	if m.Type != Jump {
		return ZeroSquare, false
	}
	if m.To > m.From {
		return m.To - 8, true
	}
	return m.To + 8, true
}

// CastlingRookMove returns the rook's from/to squares for a castling move.
func (m Move) CastlingRookMove() (Square, Square, bool) {
	switch {
	case m.Type == KingSideCastle && m.To == G1:
		return H1, F1, true
	case m.Type == KingSideCastle:
		return H8, F8, true
	case m.Type == QueenSideCastle && m.To == C1:
		return A1, D1, true
	case m.Type == QueenSideCastle:
		return A8, D8, true
	default:
		return ZeroSquare, ZeroSquare, false
	}
}

// CastlingRightsLost returns the castling rights this move revokes: the mover's own
// rights if a king or rook leaves its home square, and the opponent's rook-side right
// if this move captures a rook still on its home square.
func (m Move) CastlingRightsLost() Castling {
	var lost Castling
	switch m.Piece {
	case King:
		switch m.From {
		case E1:
			lost |= WhiteKingSideCastle | WhiteQueenSideCastle
		case E8:
			lost |= BlackKingSideCastle | BlackQueenSideCastle
		}
	case Rook:
		lost |= rookHomeRight(m.From)
	}
	if m.IsCapture() {
		lost |= rookHomeRight(m.To)
	}
	return lost
}

func rookHomeRight(sq Square) Castling {
	switch sq {
	case A1:
		return WhiteQueenSideCastle
	case H1:
		return WhiteKingSideCastle
	case A8:
		return BlackQueenSideCastle
	case H8:
		return BlackKingSideCastle
	default:
		return 0
	}
}

// ParseMove parses a move in pure algebraic coordinate notation, such as "a2a4" or "a7a8q".
// The parsed move does not contain contextual information like castling or en passant.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: '%v'", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from: '%v': %v", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to: '%v': %v", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion: '%v'", str)
		}
		return Move{From: from, To: to, Promotion: promo}, nil
	}

	return Move{From: from, To: to}, nil
}

func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) String() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}
