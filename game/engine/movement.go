package engine

import "fmt"

// Resolve moves an entity one room along the maze. It knows nothing about other entities,
// so the same call serves the explorer and every rock.
func Resolve(m *Maze, mv Mover) (Mover, error) {
	next, err := leave(m, mv)
	if err != nil {
		return next, err
	}
	return next, enter(m, next)
}

// leave computes the neighbor cell and the side it is entered from
func leave(m *Maze, mv Mover) (Mover, error) {
	room := m.RoomAt(mv.Pos)
	exit := ExitFor(room.Shape(), mv.Entry)
	if exit == None {
		detail := "no exit from room"
		if !room.Accepts(mv.Entry) {
			detail = fmt.Sprintf("room %d has a wall on side %s", room, mv.Entry)
		}
		return mv, &RuleError{Kind: ErrDeadEnd, Pos: mv.Pos, Dir: mv.Entry, Detail: detail}
	}

	pos, err := Step(exit, mv.Pos)
	if err != nil {
		return mv, err
	}
	entry, err := Opposite(exit)
	if err != nil {
		return mv, err
	}
	next := Mover{Pos: pos, Entry: entry}
	if !m.InBounds(pos) {
		return next, &RuleError{Kind: ErrOutOfBounds, Pos: pos, Dir: entry, Detail: "left the maze"}
	}
	return next, nil
}

// enter checks that the room at next has an opening on the side it is entered from
func enter(m *Maze, next Mover) error {
	if !m.RoomAt(next.Pos).Accepts(next.Entry) {
		return &RuleError{Kind: ErrWallCrash, Pos: next.Pos, Dir: next.Entry, Detail: "crashed into the wall of the room"}
	}
	return nil
}
