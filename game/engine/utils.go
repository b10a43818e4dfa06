package engine

// CountShapes counts rooms per layout identifier
func CountShapes(m *Maze) map[int]int {
	counts := make(map[int]int)
	for _, row := range m.Rooms {
		for _, room := range row {
			counts[room.Shape()]++
		}
	}
	return counts
}

// CountRotatable counts rooms the agent may rotate under opts
func CountRotatable(m *Maze, opts RotationOptions) int {
	count := 0
	for _, row := range m.Rooms {
		for _, room := range row {
			if IsRotatable(room, opts) {
				count++
			}
		}
	}
	return count
}

// IsRotatable reports whether room has a rotation target under opts
func IsRotatable(room Room, opts RotationOptions) bool {
	if opts.LockNegativeRooms && room < 0 {
		return false
	}
	_, ok := RotationTarget(room.Shape(), RotateRight)
	return ok
}

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// TracePath follows the explorer through the current maze without rotations or rocks.
// It returns the visited cells, and whether the exit is reached within limit steps.
func TracePath(m *Maze, start Mover, limit int) ([]Position, bool) {
	path := []Position{start.Pos}
	mv := start
	for i := 0; i < limit; i++ {
		next, err := leave(m, mv)
		if err != nil {
			return path, false
		}
		path = append(path, next.Pos)
		if next.Pos == m.Exit {
			return path, true
		}
		if err := enter(m, next); err != nil {
			return path, false
		}
		mv = next
	}
	return path, false
}
