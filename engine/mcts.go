// Package engine implements Monte-Carlo tree search over game.Board.
package engine

import (
	"context"
	"math"
	"math/rand"
	"time"

	"uttt-node/game"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("engine")

const explorationC = 1.0

type node struct {
	parent *node
	board  game.Board

	// move that produced this node from its parent
	previousMove game.Move

	children   []*node
	unexpanded []game.Move
	isTerminal bool

	wins   float64
	visits uint32
}

func newNode(parent *node, board game.Board, previousMove game.Move, rng *rand.Rand) *node {
	unexpanded := board.Moves()
	rng.Shuffle(len(unexpanded), func(i, j int) {
		unexpanded[i], unexpanded[j] = unexpanded[j], unexpanded[i]
	})

	return &node{
		parent:       parent,
		board:        board,
		previousMove: previousMove,
		unexpanded:   unexpanded,
		isTerminal:   board.Winner() != game.InProgress,
	}
}

func (n *node) fullyExpanded() bool {
	return len(n.unexpanded) == 0
}

// score is the exploration-biased selection value: w/(n+c) + c*2*sqrt(2)/(n+c).
func (n *node) score() float64 {
	d := float64(n.visits) + explorationC
	return n.wins/d + explorationC*2*math.Sqrt2/d
}

func (n *node) bestChild() *node {
	var best *node
	bestScore := 0.0
	for _, child := range n.children {
		if s := child.score(); s > bestScore {
			best = child
			bestScore = s
		}
	}
	return best
}

// traverse descends from n while fully expanded and non-terminal.
func (n *node) traverse() *node {
	cur := n
	for cur.fullyExpanded() && !cur.isTerminal {
		next := cur.bestChild()
		if next == nil {
			break
		}
		cur = next
	}
	return cur
}

// expand pops one unexpanded move and creates the child for it. Must not be
// called on a fully expanded node.
func (n *node) expand(rng *rand.Rand) *node {
	m := n.unexpanded[len(n.unexpanded)-1]
	n.unexpanded = n.unexpanded[:len(n.unexpanded)-1]

	child := newNode(n, n.board.Advance(m), m, rng)
	n.children = append(n.children, child)
	return child
}

// backPropagate walks to the root incrementing visit counts. Each visited
// node's win score grows by 1 when the rollout winner is the opponent of
// that node's player to move, by 0.5 on ties.
func (n *node) backPropagate(winner game.Winner) {
	for cur := n; cur != nil; cur = cur.parent {
		cur.visits++
		switch {
		case winner == game.WinnerTie:
			cur.wins += 0.5
		case cur.board.PlayerToMove == game.PlayerX && winner == game.WinnerO,
			cur.board.PlayerToMove == game.PlayerO && winner == game.WinnerX:
			cur.wins++
		}
	}
}

// Stats reports the work performed by one search call.
type Stats struct {
	Iterations     uint32
	SimulatedMoves uint64
}

// Mcts searches one position. Engines are single use per position: call
// Initialize, then Search, then BestMove.
type Mcts struct {
	rng  *rand.Rand
	root *node

	// rollout scratch buffer, reused across iterations
	buf []game.Move
}

// NewMcts returns an engine drawing from the given seed. A single source is
// shared by node shuffling and rollouts, so equal seeds replay searches
// exactly in iteration-count mode.
func NewMcts(seed int64) *Mcts {
	return &Mcts{
		rng: rand.New(rand.NewSource(seed)),
		buf: make([]game.Move, 0, 81),
	}
}

func (e *Mcts) Initialize(board game.Board) {
	e.root = newNode(nil, board, game.Move{}, e.rng)
}

// rollout plays uniformly random moves from board to a terminal state and
// returns the winner plus the number of simulated moves.
func (e *Mcts) rollout(board game.Board) (game.Winner, uint64) {
	var simulated uint64
	for board.Winner() == game.InProgress {
		e.buf = board.AppendMoves(e.buf[:0])
		m := e.buf[e.rng.Intn(len(e.buf))]
		board = board.Advance(m)
		simulated++
	}
	return board.Winner(), simulated
}

func (e *Mcts) iterate() uint64 {
	// Phase 1: selection
	n := e.root.traverse()

	// Phase 2: expansion
	if !n.fullyExpanded() {
		n = n.expand(e.rng)
	}

	// Phase 3: rollout
	winner, simulated := e.rollout(n.board)

	// Phase 4: back-propagation
	n.backPropagate(winner)

	return simulated
}

// Search runs iterations until the wall-clock budget expires or ctx is
// cancelled.
func (e *Mcts) Search(ctx context.Context, budget time.Duration) (Stats, error) {
	if e.root == nil {
		return Stats{}, xerrors.New("engine is not initialized")
	}

	var stats Stats
	start := time.Now()
	for time.Since(start) < budget {
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}

		stats.SimulatedMoves += e.iterate()
		stats.Iterations++
	}

	log.Debugw("search finished", "iterations", stats.Iterations, "moves", stats.SimulatedMoves, "budget", budget)
	return stats, nil
}

// SearchN runs exactly n iterations. Deterministic given the seed; used by
// tests and benchmarks.
func (e *Mcts) SearchN(n uint32) (Stats, error) {
	if e.root == nil {
		return Stats{}, xerrors.New("engine is not initialized")
	}

	var stats Stats
	for i := uint32(0); i < n; i++ {
		stats.SimulatedMoves += e.iterate()
		stats.Iterations++
	}
	return stats, nil
}

// BestMove returns the root child with the highest visit count.
func (e *Mcts) BestMove() (game.Move, error) {
	if e.root == nil {
		return game.Move{}, xerrors.New("engine is not initialized")
	}

	var best *node
	for _, child := range e.root.children {
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	if best == nil {
		return game.Move{}, xerrors.New("position has no expanded moves")
	}
	return best.previousMove, nil
}
