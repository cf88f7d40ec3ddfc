//go:build js && wasm

// Browser front-end for Ultimate Tic-Tac-Toe. The human plays X; after each
// human move the engine searches with the selected time budget and answers
// as O.
package main

import (
	"context"
	"fmt"
	"syscall/js"
	"time"

	"uttt-node/engine"
	"uttt-node/game"
)

// aiDelay lets the sub-board highlight transition finish before the search
// blocks the main thread.
const aiDelay = 300

var difficulties = []struct {
	Name   string
	Budget int // milliseconds
}{
	{"Noob", 50},
	{"Easy", 100},
	{"Medium", 500},
	{"Hard", 1000},
	{"Boss", 2000},
	{"Insane", 5000},
}

type historyEntry struct {
	player game.Player
	move   game.Move
}

type app struct {
	doc js.Value

	board    game.Board
	budget   int
	moveList []historyEntry

	status      js.Value
	cells       [9][9]js.Value
	subBoards   [9]js.Value
	historyBody js.Value
	diffButtons []js.Value

	// retained for the app's lifetime
	callbacks []js.Func
}

func main() {
	a := &app{
		doc:    js.Global().Get("document"),
		board:  game.NewBoard(),
		budget: 100,
	}
	a.mount()
	a.render()

	select {}
}

func (a *app) callback(fn func(js.Value, []js.Value) interface{}) js.Func {
	f := js.FuncOf(fn)
	a.callbacks = append(a.callbacks, f)
	return f
}

func (a *app) mount() {
	root := a.doc.Call("getElementById", "app")

	root.Call("appendChild", a.buildDifficultySelector())

	a.status = a.createElement("p", "status")
	root.Call("appendChild", a.status)

	row := a.createElement("div", "game-row")
	row.Call("appendChild", a.buildBoard())
	row.Call("appendChild", a.buildHistory())
	root.Call("appendChild", row)

	newGame := a.createElement("button", "new-game")
	newGame.Set("textContent", "New game")
	newGame.Call("addEventListener", "click", a.callback(func(js.Value, []js.Value) interface{} {
		a.board = game.NewBoard()
		a.moveList = nil
		a.setStatus("")
		a.render()
		return nil
	}))
	root.Call("appendChild", newGame)
}

func (a *app) buildDifficultySelector() js.Value {
	wrap := a.createElement("div", "difficulty")
	title := a.createElement("h2", "")
	title.Set("textContent", "Difficulty:")
	wrap.Call("appendChild", title)

	for _, d := range difficulties {
		budget := d.Budget
		btn := a.createElement("button", "difficulty-option")
		btn.Set("textContent", fmt.Sprintf("%s: %dms", d.Name, d.Budget))
		btn.Call("addEventListener", "click", a.callback(func(js.Value, []js.Value) interface{} {
			a.budget = budget
			a.render()
			return nil
		}))
		wrap.Call("appendChild", btn)
		a.diffButtons = append(a.diffButtons, btn)
	}
	return wrap
}

func (a *app) buildBoard() js.Value {
	grid := a.createElement("div", "game-board")
	for major := 0; major < 9; major++ {
		sub := a.createElement("div", "sub-board")
		for minor := 0; minor < 9; minor++ {
			m := game.Move{Major: major, Minor: minor}
			cell := a.createElement("div", "cell empty")
			cell.Call("addEventListener", "click", a.callback(func(js.Value, []js.Value) interface{} {
				a.onCellClick(m)
				return nil
			}))
			sub.Call("appendChild", cell)
			a.cells[major][minor] = cell
		}
		grid.Call("appendChild", sub)
		a.subBoards[major] = sub
	}
	return grid
}

func (a *app) buildHistory() js.Value {
	wrap := a.createElement("div", "move-history")
	title := a.createElement("h2", "")
	title.Set("textContent", "Moves")
	wrap.Call("appendChild", title)

	table := a.createElement("table", "")
	head := a.createElement("thead", "")
	head.Set("innerHTML", "<tr><th>Player</th><th>Move</th></tr>")
	table.Call("appendChild", head)
	a.historyBody = a.createElement("tbody", "")
	table.Call("appendChild", a.historyBody)
	wrap.Call("appendChild", table)
	return wrap
}

func (a *app) onCellClick(m game.Move) {
	if a.board.PlayerToMove != game.PlayerX {
		return
	}
	if a.board.Winner() != game.InProgress {
		return
	}
	next, ok := a.board.Apply(m)
	if !ok {
		return
	}
	a.board = next
	a.moveList = append(a.moveList, historyEntry{player: game.PlayerX, move: m})
	a.render()

	if a.board.Winner() != game.InProgress {
		a.renderOutcome()
		return
	}
	a.setStatus("Running AI...")
	a.scheduleAiMove()
}

// scheduleAiMove defers the search so the browser can paint the transition
// first; the search itself blocks the wasm thread for the budget.
func (a *app) scheduleAiMove() {
	var once js.Func
	once = js.FuncOf(func(js.Value, []js.Value) interface{} {
		defer once.Release()
		a.aiMove()
		return nil
	})
	js.Global().Call("setTimeout", once, aiDelay)
}

func (a *app) aiMove() {
	budget := time.Duration(a.budget) * time.Millisecond
	mcts := engine.NewMcts(time.Now().UnixNano())
	mcts.Initialize(a.board)
	stats, err := mcts.Search(context.Background(), budget)
	if err != nil {
		a.setStatus(fmt.Sprintf("AI error: %v", err))
		return
	}
	m, err := mcts.BestMove()
	if err != nil {
		a.setStatus(fmt.Sprintf("AI error: %v", err))
		return
	}

	a.board = a.board.Advance(m)
	a.moveList = append(a.moveList, historyEntry{player: game.PlayerO, move: m})
	a.setStatus(fmt.Sprintf("AI simulated %d games and %d moves in %dms.",
		stats.Iterations, stats.SimulatedMoves, a.budget))
	a.render()

	if a.board.Winner() != game.InProgress {
		a.renderOutcome()
	}
}

func (a *app) render() {
	for major := 0; major < 9; major++ {
		state, playable := a.board.SubBoardState(major)
		a.subBoards[major].Set("className", "sub-board "+subBoardClass(state, playable))

		for minor := 0; minor < 9; minor++ {
			cell := a.cells[major][minor]
			switch p := a.board.Cell(major, minor); {
			case p == nil:
				cell.Set("className", "cell empty")
				cell.Set("textContent", "")
			case *p == game.PlayerX:
				cell.Set("className", "cell x")
				cell.Set("textContent", "X")
			default:
				cell.Set("className", "cell o")
				cell.Set("textContent", "O")
			}
		}
	}

	for i, d := range difficulties {
		cls := "difficulty-option"
		if d.Budget == a.budget {
			cls += " selected"
		}
		a.diffButtons[i].Set("className", cls)
	}

	a.historyBody.Set("innerHTML", "")
	for _, entry := range a.moveList {
		row := a.createElement("tr", "")
		row.Set("innerHTML", fmt.Sprintf("<td>%s</td><td>(%d, %d) (%d, %d)</td>",
			entry.player,
			entry.move.Major/3+1, entry.move.Major%3+1,
			entry.move.Minor/3+1, entry.move.Minor%3+1))
		a.historyBody.Call("appendChild", row)
	}
}

func (a *app) renderOutcome() {
	switch a.board.Winner() {
	case game.WinnerX:
		a.setStatus("You win!")
	case game.WinnerO:
		a.setStatus("The AI wins!")
	case game.WinnerTie:
		a.setStatus("Tie game.")
	}
}

func subBoardClass(state game.Winner, playable bool) string {
	switch state {
	case game.WinnerX:
		return "x"
	case game.WinnerO:
		return "o"
	case game.WinnerTie:
		return "tie"
	}
	if playable {
		return "next"
	}
	return "in-progress"
}

func (a *app) setStatus(msg string) {
	a.status.Set("textContent", msg)
}

func (a *app) createElement(tag string, class string) js.Value {
	el := a.doc.Call("createElement", tag)
	if class != "" {
		el.Set("className", class)
	}
	return el
}
