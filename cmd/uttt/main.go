package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"uttt-node/build"
	cliutil "uttt-node/cmd"
	"uttt-node/engine"
	"uttt-node/game"
	"uttt-node/types"

	"github.com/fatih/color"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var FlagBudget = &cli.DurationFlag{
	Name:     "budget",
	Usage:    "per-move search budget",
	Value:    50 * time.Millisecond,
	Required: false,
}

var FlagSeed = &cli.Int64Flag{
	Name:     "seed",
	Usage:    "rng seed; 0 seeds from the clock",
	Value:    0,
	Required: false,
}

func before(_ *cli.Context) error {
	_ = logging.SetLogLevel("engine", "ERROR")
	if cliutil.IsVeryVerbose {
		_ = logging.SetLogLevel("engine", "DEBUG")
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:                 cliutil.APP_NAME_GAME,
		Usage:                "Ultimate Tic-Tac-Toe in the terminal",
		EnableBashCompletion: true,
		Version:              build.UserVersion(),
		Before:               before,
		Flags: []cli.Flag{
			cliutil.FlagVeryVerbose,
		},
		Commands: []*cli.Command{
			selfplayCmd,
			playCmd,
			benchCmd,
			cliutil.GenerateDocCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func seedOf(cctx *cli.Context) int64 {
	if seed := cctx.Int64("seed"); seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}

var selfplayCmd = &cli.Command{
	Name:  "selfplay",
	Usage: "play engine-vs-random games",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:     "games",
			Usage:    "number of games to play",
			Value:    10,
			Required: false,
		},
		FlagBudget,
		FlagSeed,
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		budget := cctx.Duration("budget")
		rng := rand.New(rand.NewSource(seedOf(cctx)))

		for i := 0; i < cctx.Int("games"); i++ {
			board := game.NewBoard()

			var moveCounts []uint64
			for board.Winner() == game.InProgress {
				if board.PlayerToMove == game.PlayerX {
					mcts := engine.NewMcts(rng.Int63())
					mcts.Initialize(board)
					stats, err := mcts.Search(ctx, budget)
					if err != nil {
						return err
					}
					moveCounts = append(moveCounts, stats.SimulatedMoves)

					m, err := mcts.BestMove()
					if err != nil {
						return err
					}
					board = board.Advance(m)
				} else {
					moves := board.Moves()
					board = board.Advance(moves[rng.Intn(len(moves))])
				}
			}

			var total uint64
			for _, c := range moveCounts {
				total += c
			}
			fmt.Printf("Winner: %s\tAvg. move count: %d\n", board.Winner(), total/uint64(len(moveCounts)))
		}
		return nil
	},
}

var playCmd = &cli.Command{
	Name:  "play",
	Usage: "play X against the engine",
	Flags: []cli.Flag{
		FlagBudget,
		FlagSeed,
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		budget := cctx.Duration("budget")
		rng := rand.New(rand.NewSource(seedOf(cctx)))
		reader := bufio.NewReader(os.Stdin)

		xCol := color.New(color.FgCyan, color.Bold)
		oCol := color.New(color.FgYellow, color.Bold)

		board := game.NewBoard()
		for board.Winner() == game.InProgress {
			printBoard(board, xCol, oCol)

			if board.PlayerToMove == game.PlayerX {
				m, err := readMove(reader, board)
				if err != nil {
					return err
				}
				board, _ = board.Apply(m)
			} else {
				mcts := engine.NewMcts(rng.Int63())
				mcts.Initialize(board)
				stats, err := mcts.Search(ctx, budget)
				if err != nil {
					return err
				}
				m, err := mcts.BestMove()
				if err != nil {
					return err
				}
				board = board.Advance(m)
				fmt.Printf("engine plays %d %d (simulated %d games / %d moves)\n",
					m.Major, m.Minor, stats.Iterations, stats.SimulatedMoves)
			}
		}

		printBoard(board, xCol, oCol)
		switch board.Winner() {
		case game.WinnerX:
			xCol.Println("You win!")
		case game.WinnerO:
			oCol.Println("The engine wins!")
		default:
			fmt.Println("Tie game.")
		}
		return nil
	},
}

// readMove prompts until it gets a legal "<major> <minor>" pair.
func readMove(reader *bufio.Reader, board game.Board) (game.Move, error) {
	for {
		if board.NextSubBoard == game.FreeChoice {
			fmt.Print("your move (sub-board cell, both 0-8): ")
		} else {
			fmt.Printf("your move in sub-board %d (cell 0-8): ", board.NextSubBoard)
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			return game.Move{}, types.Wrap(types.ErrInvalidParameters, err)
		}

		var m game.Move
		fields := strings.Fields(line)
		switch len(fields) {
		case 1:
			if board.NextSubBoard == game.FreeChoice {
				fmt.Println("a sub-board is needed, enter two numbers")
				continue
			}
			m.Major = board.NextSubBoard
			if _, err := fmt.Sscanf(fields[0], "%d", &m.Minor); err != nil {
				fmt.Println("can not read that, try again")
				continue
			}
		case 2:
			if _, err := fmt.Sscanf(line, "%d %d", &m.Major, &m.Minor); err != nil {
				fmt.Println("can not read that, try again")
				continue
			}
		default:
			fmt.Println("enter \"<sub-board> <cell>\"")
			continue
		}

		if _, ok := board.Apply(m); !ok {
			fmt.Println("illegal move, try again")
			continue
		}
		return m, nil
	}
}

func printBoard(b game.Board, xCol, oCol *color.Color) {
	for _, line := range strings.Split(b.String(), "\n") {
		for _, r := range line {
			switch r {
			case 'X':
				xCol.Print("X")
			case 'O':
				oCol.Print("O")
			default:
				fmt.Print(string(r))
			}
		}
		fmt.Println()
	}
}

var benchCmd = &cli.Command{
	Name:  "bench",
	Usage: "search the opening position and report throughput",
	Flags: []cli.Flag{
		&cli.DurationFlag{
			Name:     "budget",
			Usage:    "search budget",
			Value:    2 * time.Second,
			Required: false,
		},
		FlagSeed,
	},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		budget := cctx.Duration("budget")

		mcts := engine.NewMcts(seedOf(cctx))
		mcts.Initialize(game.NewBoard())

		start := time.Now()
		stats, err := mcts.Search(ctx, budget)
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		fmt.Printf("iterations     : %d\n", stats.Iterations)
		fmt.Printf("simulated moves: %d\n", stats.SimulatedMoves)
		fmt.Printf("elapsed        : %v\n", elapsed)
		fmt.Printf("iterations/sec : %.0f\n", float64(stats.Iterations)/elapsed.Seconds())
		return nil
	},
}
