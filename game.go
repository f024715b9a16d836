package snakesboard

import (
	"fmt"
	"math/rand"
)

// Transitions is an explicitly constructed jump table passed into game
// logic, so independent games can run against different mappings at once.
// Ladders ascend (base -> top), snakes descend (head -> tail).
type Transitions struct {
	Ladders map[int]int
	Snakes  map[int]int
}

// DefaultTransitions is the classic layout used when no mapping document has
// been calibrated or detected.
func DefaultTransitions() Transitions {
	return Transitions{
		Ladders: map[int]int{
			4: 14, 9: 31, 20: 38, 28: 84, 40: 59, 51: 67, 63: 81, 71: 91,
		},
		Snakes: map[int]int{
			17: 7, 54: 34, 62: 19, 64: 60, 87: 24, 93: 73, 95: 75, 99: 78,
		},
	}
}

// TransitionsFromMapping builds a jump table from a mapping document,
// overriding the defaults.
func TransitionsFromMapping(doc *MappingDocument) Transitions {
	t := Transitions{
		Ladders: map[int]int{},
		Snakes:  map[int]int{},
	}
	for base, top := range doc.Ladders {
		t.Ladders[base] = top
	}
	for head, tail := range doc.Snakes {
		t.Snakes[head] = tail
	}
	return t
}

// Apply resolves a landing cell through the jump table.
func (t Transitions) Apply(cell int) (int, bool) {
	if top, ok := t.Ladders[cell]; ok {
		return top, true
	}
	if tail, ok := t.Snakes[cell]; ok {
		return tail, true
	}
	return cell, false
}

// MoveKind describes what happened on one turn.
type MoveKind int

const (
	MoveNormal MoveKind = iota
	MoveLadder
	MoveSnake
	MoveStuck // roll overshoots 100, token stays put
	MoveWin
)

// Move is the resolved outcome of a single turn.
type Move struct {
	Player int
	Roll   int
	From   int
	To     int
	Kind   MoveKind
}

// Game is one match between a human (player 0) and the rule-based auto
// player (player 1). Positions start off-board at cell 0; exact landing on
// cell 100 wins, and an overshooting roll leaves the token in place.
type Game struct {
	transitions Transitions
	positions   []int
	turn        int
	winner      int
	rng         *rand.Rand
}

// NewGame starts a two-player game over the given jump table with an
// injected random source.
func NewGame(transitions Transitions, rng *rand.Rand) *Game {
	return &Game{
		transitions: transitions,
		positions:   []int{0, 0},
		winner:      -1,
		rng:         rng,
	}
}

// Position returns a player's current cell (0 while off-board).
func (g *Game) Position(player int) int {
	return g.positions[player]
}

// CurrentPlayer returns whose turn it is.
func (g *Game) CurrentPlayer() int {
	return g.turn
}

// Winner returns the winning player, or -1 while the game runs.
func (g *Game) Winner() int {
	return g.winner
}

// PlayTurn rolls for the current player and resolves the move. The auto
// player uses exactly the same resolution; snakes and ladders offers no
// choices, so its "strategy" is just playing its turn.
func (g *Game) PlayTurn() (Move, error) {
	if g.winner >= 0 {
		return Move{}, fmt.Errorf("game is over, player %d won", g.winner)
	}

	player := g.turn
	roll := g.rng.Intn(6) + 1
	from := g.positions[player]

	move := Move{Player: player, Roll: roll, From: from}

	landing := from + roll
	if landing > CellCount {
		move.To = from
		move.Kind = MoveStuck
	} else {
		to, jumped := g.transitions.Apply(landing)
		move.To = to
		switch {
		case to == CellCount:
			move.Kind = MoveWin
			g.winner = player
		case jumped && to > landing:
			move.Kind = MoveLadder
		case jumped && to < landing:
			move.Kind = MoveSnake
		default:
			move.Kind = MoveNormal
		}
		g.positions[player] = to
	}

	g.turn = (g.turn + 1) % len(g.positions)
	return move, nil
}
