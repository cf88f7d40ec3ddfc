package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpeningPosition(t *testing.T) {
	b := NewBoard()
	require.Equal(t, PlayerX, b.PlayerToMove)
	require.Equal(t, FreeChoice, b.NextSubBoard)
	require.Equal(t, InProgress, b.Winner())
	require.Len(t, b.Moves(), 81)
}

func TestApplyValidation(t *testing.T) {
	b := NewBoard()

	_, ok := b.Apply(Move{Major: 9, Minor: 0})
	require.False(t, ok)
	_, ok = b.Apply(Move{Major: 0, Minor: -1})
	require.False(t, ok)

	b, ok = b.Apply(Move{Major: 4, Minor: 4})
	require.True(t, ok)
	require.Equal(t, PlayerO, b.PlayerToMove)
	require.Equal(t, 4, b.NextSubBoard)

	// occupied cell
	_, ok = b.Apply(Move{Major: 4, Minor: 4})
	require.False(t, ok)

	// outside the constrained sub-board
	_, ok = b.Apply(Move{Major: 0, Minor: 0})
	require.False(t, ok)

	b, ok = b.Apply(Move{Major: 4, Minor: 0})
	require.True(t, ok)
	require.Equal(t, 0, b.NextSubBoard)
}

func TestValueSemantics(t *testing.T) {
	b := NewBoard()
	next, ok := b.Apply(Move{Major: 1, Minor: 2})
	require.True(t, ok)
	require.NotEqual(t, b, next)
	require.Nil(t, b.Cell(1, 2))
	require.NotNil(t, next.Cell(1, 2))
}

func TestSubBoardWinMarksWinBoard(t *testing.T) {
	b := NewBoard()
	b.Boards[0].X = 0b000000011
	b.PlayerToMove = PlayerX
	b.NextSubBoard = 0

	b = b.Advance(Move{Major: 0, Minor: 2})
	require.True(t, b.SubWins.X.Has(0))
	require.False(t, b.SubWins.Tie.Has(0))

	state, playable := b.SubBoardState(0)
	require.Equal(t, WinnerX, state)
	require.False(t, playable)
}

func TestFullSubBoardWithoutWinIsTie(t *testing.T) {
	b := NewBoard()
	// X: 0,1,5,6 filled, O: 2,3,4,7 filled; X plays 8, full with no 3 in a row.
	b.Boards[0].X = 0b001100011
	b.Boards[0].O = 0b010011100
	b.PlayerToMove = PlayerX
	b.NextSubBoard = 0

	b = b.Advance(Move{Major: 0, Minor: 8})
	require.False(t, b.SubWins.X.Has(0))
	require.False(t, b.SubWins.O.Has(0))
	require.True(t, b.SubWins.Tie.Has(0))
}

func TestConstraintIntoDecidedSubBoardIsFreeChoice(t *testing.T) {
	b := NewBoard()
	b.SubWins.O = b.SubWins.O.Set(3)
	b.PlayerToMove = PlayerX
	b.NextSubBoard = 0

	// Cell 3 points at sub-board 3, already won by O.
	b = b.Advance(Move{Major: 0, Minor: 3})
	require.Equal(t, FreeChoice, b.NextSubBoard)

	// Decided sub-boards contribute no moves.
	for _, m := range b.Moves() {
		require.NotEqual(t, 3, m.Major)
	}
}

func TestMoveGenerationConstrained(t *testing.T) {
	b := NewBoard()
	b, ok := b.Apply(Move{Major: 2, Minor: 7})
	require.True(t, ok)

	moves := b.Moves()
	require.Len(t, moves, 9)
	for _, m := range moves {
		require.Equal(t, 7, m.Major)
	}

	buf := make([]Move, 0, 81)
	require.Equal(t, moves, b.AppendMoves(buf))
}

func TestMetaWinner(t *testing.T) {
	b := NewBoard()
	b.SubWins.X = 0b000000111
	require.Equal(t, WinnerX, b.Winner())

	b = NewBoard()
	b.SubWins.O = 0b100010001
	require.Equal(t, WinnerO, b.Winner())
}

func TestMetaTieRequiresAllNineDecided(t *testing.T) {
	b := NewBoard()
	b.SubWins.X = 0b000100110
	b.SubWins.O = 0b011000001
	b.SubWins.Tie = 0b000011000
	require.Equal(t, InProgress, b.Winner())

	b.SubWins.Tie = b.SubWins.Tie.Set(8)
	require.Equal(t, WinnerTie, b.Winner())
}

func TestBitBoardWinPatterns(t *testing.T) {
	for _, win := range winConfigurations {
		require.True(t, win.HasWin())
	}
	require.False(t, BitBoard(0b000000011).HasWin())
	require.True(t, fullBoard.HasWin())
}

func TestRandomPlayoutTerminates(t *testing.T) {
	// Any legal playout must end within 81 moves.
	b := NewBoard()
	for i := 0; i < 81; i++ {
		if b.Winner() != InProgress {
			return
		}
		moves := b.Moves()
		require.NotEmpty(t, moves)
		b = b.Advance(moves[0])
	}
	require.NotEqual(t, InProgress, b.Winner())
}
