package engine

import "errors"

// Outcome is how a tick ended
type Outcome int

const (
	Continue Outcome = iota
	Escaped
	Crashed
)

// TickResult is the committed result of one tick
type TickResult struct {
	Outcome      Outcome
	Protagonist  Mover
	Rocks        []Rock
	Eliminations []Elimination
	Err          error // set when Outcome is Crashed
}

// Tick advances the world by one step: explorer move, rock moves, collisions, eliminations.
// The maze is only read. The rocks slice passed in is not modified.
func Tick(m *Maze, t int, protagonist Mover, rocks []Rock) TickResult {
	next, err := leave(m, protagonist)
	if err != nil {
		if errors.Is(err, ErrOutOfBounds) {
			err = &RuleError{Kind: ErrWallCrash, Pos: next.Pos, Dir: next.Entry, Detail: "explorer left the maze"}
		}
		return crashed(protagonist, rocks, err)
	}
	if next.Pos == m.Exit {
		return TickResult{Outcome: Escaped, Protagonist: next, Rocks: rocks}
	}
	if err := enter(m, next); err != nil {
		return crashed(protagonist, rocks, err)
	}

	moved := append([]Rock(nil), rocks...)
	prev := make([]Position, len(rocks))
	target := make([]Position, len(rocks))
	rules := make([]EliminationRule, len(rocks))

	for i, r := range rocks {
		prev[i] = r.Pos
		target[i] = r.Pos
		if !r.ActiveAt(t) {
			continue
		}
		nr, err := Resolve(m, r.Mover)
		target[i] = nr.Pos
		switch {
		case err == nil:
			moved[i].Mover = nr
		case errors.Is(err, ErrDeadEnd):
			rules[i] = DeadEndRule
		case errors.Is(err, ErrOutOfBounds):
			rules[i] = LeftMaze
		default:
			rules[i] = WallCrashRule
		}
	}

	// live reports whether rock i moved this tick and is still in play
	live := func(i int) bool {
		return moved[i].ActiveAt(t) && rules[i] == ""
	}

	for i := range moved {
		if !live(i) {
			continue
		}
		sameCell := moved[i].Pos == next.Pos
		swapped := prev[i] == next.Pos && moved[i].Pos == protagonist.Pos
		if sameCell || swapped {
			return crashed(next, rocks, &RuleError{
				Kind:   ErrEntityCollision,
				Pos:    next.Pos,
				Dir:    next.Entry,
				Detail: "explorer crashed into a rock",
			})
		}
	}

	collided := make([]bool, len(moved))
	for i := range moved {
		if !live(i) {
			continue
		}
		for j := i + 1; j < len(moved); j++ {
			if !live(j) {
				continue
			}
			sameCell := moved[i].Pos == moved[j].Pos
			swapped := moved[i].Pos == prev[j] && prev[i] == moved[j].Pos
			if sameCell || swapped {
				collided[i] = true
				collided[j] = true
			}
		}
	}
	for i, c := range collided {
		if c {
			rules[i] = RockCollision
		}
	}

	// a rock with no way out of its current room would crash whatever the agent does,
	// inactive rocks included
	for i := range moved {
		if rules[i] != "" {
			continue
		}
		if ExitFor(m.RoomAt(moved[i].Pos).Shape(), moved[i].Entry) == None {
			rules[i] = DeadEndAhead
		}
	}

	survivors := make([]Rock, 0, len(moved))
	var eliminations []Elimination
	for i, r := range moved {
		if rules[i] == "" {
			survivors = append(survivors, r)
			continue
		}
		eliminations = append(eliminations, Elimination{
			Index: i,
			Rule:  rules[i],
			From:  prev[i],
			To:    target[i],
		})
	}

	return TickResult{
		Outcome:      Continue,
		Protagonist:  next,
		Rocks:        survivors,
		Eliminations: eliminations,
	}
}

func crashed(protagonist Mover, rocks []Rock, err error) TickResult {
	return TickResult{Outcome: Crashed, Protagonist: protagonist, Rocks: rocks, Err: err}
}
