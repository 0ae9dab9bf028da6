package board

// PseudoLegalMoves returns all pseudo-legal moves for the given color in this position, i.e.,
// moves that are legal except for possibly leaving the mover's own king in check. Callers are
// expected to filter with Move to discard moves that do so.
//
// Moves are generated in a fixed, deterministic order: pawns first (by ascending origin square),
// then officers in King, Queen, Rook, Knight, Bishop order (by ascending origin square), with
// castling emitted alongside the King. Within a single officer, quiet moves precede captures;
// within a single pawn, captures precede the push/jump. Destinations are visited in ascending
// square order. En passant is appended after the owning pawn's push/jump, since its target
// square is never occupied and so cannot be found by the ordinary capture mask.
func (p *Position) PseudoLegalMoves(turn Color) []Move {
	var ret []Move

	ret = p.appendPawnMoves(ret, turn)
	for _, piece := range KingQueenRookKnightBishop {
		ret = p.appendOfficerMoves(ret, turn, piece)
	}
	return ret
}

func (p *Position) appendPawnMoves(ret []Move, turn Color) []Move {
	opp := turn.Opponent()
	all := p.rotated.Mask()
	enemy := p.pieces[opp][NoPiece]
	promo := PawnPromotionRank(turn)
	home := pawnHomeRank(turn)

	ep, hasEP := p.EnPassant()

	pawns := p.pieces[turn][Pawn]
	for pawns != 0 {
		from := pawns.LastPopSquare()
		pawns &^= BitMask(from)

		single := BitMask(from)
		diag := PawnCaptureboard(turn, single)

		captures := diag & enemy
		for captures != 0 {
			to := captures.LastPopSquare()
			captures &^= BitMask(to)

			_, captured, _ := p.Square(to)
			ret = appendPawnAdvance(ret, Capture, from, to, captured, promo)
		}

		if push := PawnMoveboard(all, turn, single); push != 0 {
			to := push.LastPopSquare()
			ret = appendPawnAdvance(ret, Push, from, to, NoPiece, promo)

			if single&home != 0 {
				if jump := PawnMoveboard(all, turn, push); jump != 0 {
					ret = append(ret, Move{Type: Jump, Piece: Pawn, From: from, To: jump.LastPopSquare()})
				}
			}
		}

		if hasEP && diag.IsSet(ep) {
			ret = append(ret, Move{Type: EnPassant, Piece: Pawn, From: from, To: ep, Capture: Pawn})
		}
	}
	return ret
}

// appendPawnAdvance appends a single-step pawn advance (push or capture), expanding it into the
// four under/over-promotions in Queen, Rook, Knight, Bishop order if it lands on the promotion rank.
func appendPawnAdvance(ret []Move, typ MoveType, from, to Square, captured Piece, promo Bitboard) []Move {
	if promo.IsSet(to) {
		pt := typ
		if pt == Push {
			pt = Promotion
		} else {
			pt = CapturePromotion
		}
		for _, p := range []Piece{Queen, Rook, Knight, Bishop} {
			ret = append(ret, Move{Type: pt, Piece: Pawn, From: from, To: to, Promotion: p, Capture: captured})
		}
		return ret
	}
	return append(ret, Move{Type: typ, Piece: Pawn, From: from, To: to, Capture: captured})
}

// pawnHomeRank returns the mask of the rank pawns of the given color start on, i.e.,
// Rank2 for White or Rank7 for Black.
func pawnHomeRank(c Color) Bitboard {
	if c == White {
		return BitRank(Rank2)
	}
	return BitRank(Rank7)
}

func (p *Position) appendOfficerMoves(ret []Move, turn Color, piece Piece) []Move {
	opp := turn.Opponent()
	own := p.pieces[turn][NoPiece]
	enemy := p.pieces[opp][NoPiece]

	pieces := p.pieces[turn][piece]
	for pieces != 0 {
		from := pieces.LastPopSquare()
		pieces &^= BitMask(from)

		attacks := Attackboard(p.rotated, from, piece) &^ own

		quiets := attacks &^ enemy
		for quiets != 0 {
			to := quiets.LastPopSquare()
			quiets &^= BitMask(to)
			ret = append(ret, Move{Type: Normal, Piece: piece, From: from, To: to})
		}

		captures := attacks & enemy
		for captures != 0 {
			to := captures.LastPopSquare()
			captures &^= BitMask(to)
			_, captured, _ := p.Square(to)
			ret = append(ret, Move{Type: Capture, Piece: piece, From: from, To: to, Capture: captured})
		}

		if piece == King {
			ret = p.appendCastlingMoves(ret, turn, from)
		}
	}
	return ret
}

func (p *Position) appendCastlingMoves(ret []Move, turn Color, king Square) []Move {
	all := p.rotated.Mask()

	var kingSideRight, queenSideRight Castling
	var kingTo, queenTo Square
	var kingTransit, queenTransit, queenEmpty Square

	if turn == White {
		kingSideRight, queenSideRight = WhiteKingSideCastle, WhiteQueenSideCastle
		kingTo, queenTo = G1, C1
		kingTransit, queenTransit, queenEmpty = F1, D1, B1
	} else {
		kingSideRight, queenSideRight = BlackKingSideCastle, BlackQueenSideCastle
		kingTo, queenTo = G8, C8
		kingTransit, queenTransit, queenEmpty = F8, D8, B8
	}

	if p.castling.IsAllowed(kingSideRight) && !all.IsSet(kingTransit) && !all.IsSet(kingTo) {
		if !p.IsAttacked(turn, king) && !p.IsAttacked(turn, kingTransit) && !p.IsAttacked(turn, kingTo) {
			ret = append(ret, Move{Type: KingSideCastle, Piece: King, From: king, To: kingTo})
		}
	}
	if p.castling.IsAllowed(queenSideRight) && !all.IsSet(queenTransit) && !all.IsSet(queenTo) && !all.IsSet(queenEmpty) {
		if !p.IsAttacked(turn, king) && !p.IsAttacked(turn, queenTransit) && !p.IsAttacked(turn, queenTo) {
			ret = append(ret, Move{Type: QueenSideCastle, Piece: King, From: king, To: queenTo})
		}
	}
	return ret
}
