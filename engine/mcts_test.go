package engine

import (
	"context"
	"testing"
	"time"

	"uttt-node/game"

	"github.com/stretchr/testify/require"
)

func TestSearchNDeterministic(t *testing.T) {
	run := func() (game.Move, Stats) {
		e := NewMcts(42)
		e.Initialize(game.NewBoard())
		stats, err := e.SearchN(500)
		require.NoError(t, err)
		m, err := e.BestMove()
		require.NoError(t, err)
		return m, stats
	}

	m1, s1 := run()
	m2, s2 := run()
	require.Equal(t, m1, m2)
	require.Equal(t, s1, s2)
	require.Equal(t, uint32(500), s1.Iterations)
	require.NotZero(t, s1.SimulatedMoves)
}

func TestBestMoveIsLegal(t *testing.T) {
	e := NewMcts(7)
	b := game.NewBoard()
	b, ok := b.Apply(game.Move{Major: 4, Minor: 4})
	require.True(t, ok)

	e.Initialize(b)
	_, err := e.SearchN(200)
	require.NoError(t, err)

	m, err := e.BestMove()
	require.NoError(t, err)
	_, ok = b.Apply(m)
	require.True(t, ok)
}

func TestEngineFindsImmediateMetaWin(t *testing.T) {
	// X owns sub-boards 0 and 1; sub-board 2 needs one move to complete the
	// top row of the meta board. The engine plays X and must take it.
	b := game.NewBoard()
	b.SubWins.X = 0b000000011
	b.Boards[2].X = 0b000000011
	b.PlayerToMove = game.PlayerX
	b.NextSubBoard = 2

	e := NewMcts(1)
	e.Initialize(b)
	_, err := e.SearchN(2000)
	require.NoError(t, err)

	m, err := e.BestMove()
	require.NoError(t, err)
	require.Equal(t, game.Move{Major: 2, Minor: 2}, m)

	next := b.Advance(m)
	require.Equal(t, game.WinnerX, next.Winner())
}

func TestSearchHonorsContext(t *testing.T) {
	e := NewMcts(3)
	e.Initialize(game.NewBoard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Search(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSearchRequiresInitialize(t *testing.T) {
	e := NewMcts(0)
	_, err := e.Search(context.Background(), time.Millisecond)
	require.Error(t, err)
	_, err = e.BestMove()
	require.Error(t, err)
}

func TestSelfPlayBeatsRandomMostly(t *testing.T) {
	if testing.Short() {
		t.Skip("self play is slow")
	}

	wins := 0
	games := 5
	e := NewMcts(99)
	for g := 0; g < games; g++ {
		b := game.NewBoard()
		for b.Winner() == game.InProgress {
			if b.PlayerToMove == game.PlayerX {
				e.Initialize(b)
				_, err := e.SearchN(400)
				require.NoError(t, err)
				m, err := e.BestMove()
				require.NoError(t, err)
				b = b.Advance(m)
			} else {
				moves := b.Moves()
				b = b.Advance(moves[g%len(moves)])
			}
		}
		if b.Winner() == game.WinnerX {
			wins++
		}
	}
	require.GreaterOrEqual(t, wins, games/2)
}
