// Package game implements the Ultimate Tic-Tac-Toe rules on bit boards.
package game

type Player uint8

const (
	PlayerX = Player(iota)
	PlayerO
)

func (p Player) Opponent() Player {
	if p == PlayerX {
		return PlayerO
	}
	return PlayerX
}

func (p Player) String() string {
	if p == PlayerX {
		return "X"
	}
	return "O"
}

type Winner uint8

const (
	WinnerX = Winner(iota)
	WinnerO
	WinnerTie
	InProgress
)

func (w Winner) String() string {
	switch w {
	case WinnerX:
		return "X"
	case WinnerO:
		return "O"
	case WinnerTie:
		return "Tie"
	default:
		return "InProgress"
	}
}

// BitBoard holds one player's cells of a 3x3 board in its low 9 bits. The
// remaining bits are always zero.
type BitBoard uint16

const fullBoard = BitBoard(0b111111111)

var winConfigurations = [8]BitBoard{
	0b111000000,
	0b000111000,
	0b000000111,
	0b100100100,
	0b010010010,
	0b001001001,
	0b100010001,
	0b001010100,
}

// HasWin reports whether the board matches one of the 8 winning patterns.
func (b BitBoard) HasWin() bool {
	for _, win := range winConfigurations {
		if b&win == win {
			return true
		}
	}
	return false
}

func (b BitBoard) Set(pos int) BitBoard {
	return b | 1<<pos
}

func (b BitBoard) Has(pos int) bool {
	return b&(1<<pos) != 0
}

type SubBoard struct {
	X BitBoard
	O BitBoard
}

// WinBoard tracks decided sub-boards; bit i of each field refers to
// sub-board i.
type WinBoard struct {
	X   BitBoard
	O   BitBoard
	Tie BitBoard
}

func (w WinBoard) decided() BitBoard {
	return w.X | w.O | w.Tie
}

// FreeChoice as NextSubBoard means the player may move in any open sub-board.
const FreeChoice = 9

// Move is a position on the board: Major selects the sub-board, Minor the
// cell within it, both 0..8. It does not carry the player; the board knows
// whose turn it is.
type Move struct {
	Major int
	Minor int
}

// Board is the full game state. Boards are values; Apply and Advance return
// copies and never mutate the receiver.
type Board struct {
	SubWins      WinBoard
	Boards       [9]SubBoard
	PlayerToMove Player
	// 0..8 when constrained to one sub-board, FreeChoice otherwise.
	NextSubBoard int
}

// NewBoard returns the opening position: X to move, free sub-board choice.
func NewBoard() Board {
	return Board{
		PlayerToMove: PlayerX,
		NextSubBoard: FreeChoice,
	}
}

// Advance applies m without validating it. The caller must know m is legal;
// this is the engine's hot path. Switches the player to move.
func (b Board) Advance(m Move) Board {
	sub := &b.Boards[m.Major]

	var own *BitBoard
	var winBits *BitBoard
	if b.PlayerToMove == PlayerX {
		own = &sub.X
		winBits = &b.SubWins.X
		b.PlayerToMove = PlayerO
	} else {
		own = &sub.O
		winBits = &b.SubWins.O
		b.PlayerToMove = PlayerX
	}

	*own = own.Set(m.Minor)

	// Only the touched sub-board can change win state, and only for the
	// player who just moved.
	if own.HasWin() {
		*winBits = winBits.Set(m.Major)
	} else if sub.X|sub.O == fullBoard {
		b.SubWins.Tie = b.SubWins.Tie.Set(m.Major)
	}

	// The opponent is sent to the sub-board matching the cell just played,
	// unless that sub-board is already decided.
	if b.SubWins.decided().Has(m.Minor) {
		b.NextSubBoard = FreeChoice
	} else {
		b.NextSubBoard = m.Minor
	}

	return b
}

// Apply validates m and applies it, or returns false when m is out of range,
// targets an occupied cell, a decided sub-board, or violates the sub-board
// constraint.
func (b Board) Apply(m Move) (Board, bool) {
	if m.Major < 0 || m.Major > 8 || m.Minor < 0 || m.Minor > 8 {
		return b, false
	}
	sub := b.Boards[m.Major]
	if sub.X.Has(m.Minor) || sub.O.Has(m.Minor) {
		return b, false
	}
	if b.NextSubBoard != FreeChoice && b.NextSubBoard != m.Major {
		return b, false
	}
	if b.SubWins.decided().Has(m.Major) {
		return b, false
	}
	return b.Advance(m), true
}

// AppendMoves appends all legal moves to dst and returns it. At most 81
// moves exist; passing a buffer of that capacity keeps the engine's search
// loop allocation free.
func (b Board) AppendMoves(dst []Move) []Move {
	if b.NextSubBoard != FreeChoice {
		sub := b.Boards[b.NextSubBoard]
		occupied := sub.X | sub.O
		for i := 0; i < 9; i++ {
			if !occupied.Has(i) {
				dst = append(dst, Move{Major: b.NextSubBoard, Minor: i})
			}
		}
		return dst
	}

	decided := b.SubWins.decided()
	for major := 0; major < 9; major++ {
		if decided.Has(major) {
			continue
		}
		sub := b.Boards[major]
		occupied := sub.X | sub.O
		for minor := 0; minor < 9; minor++ {
			if !occupied.Has(minor) {
				dst = append(dst, Move{Major: major, Minor: minor})
			}
		}
	}
	return dst
}

func (b Board) Moves() []Move {
	return b.AppendMoves(make([]Move, 0, 81))
}

// Winner inspects the meta board. The game ties only when all nine
// sub-boards are decided without a meta win.
func (b Board) Winner() Winner {
	if b.SubWins.X.HasWin() {
		return WinnerX
	}
	if b.SubWins.O.HasWin() {
		return WinnerO
	}
	if b.SubWins.decided() == fullBoard {
		return WinnerTie
	}
	return InProgress
}

// Cell returns the occupant of the given cell, or nil when empty.
func (b Board) Cell(major, minor int) *Player {
	sub := b.Boards[major]
	if sub.X.Has(minor) {
		p := PlayerX
		return &p
	}
	if sub.O.Has(minor) {
		p := PlayerO
		return &p
	}
	return nil
}

// SubBoardState describes sub-board major for rendering: the winner when
// decided, InProgress otherwise. playable reports whether the player to move
// may play there next.
func (b Board) SubBoardState(major int) (state Winner, playable bool) {
	switch {
	case b.SubWins.X.Has(major):
		return WinnerX, false
	case b.SubWins.O.Has(major):
		return WinnerO, false
	case b.SubWins.Tie.Has(major):
		return WinnerTie, false
	}
	return InProgress, b.NextSubBoard == FreeChoice || b.NextSubBoard == major
}
