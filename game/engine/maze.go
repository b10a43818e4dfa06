package engine

// NewMaze builds a maze from row-major room codes. The exit sits on the bottom row.
func NewMaze(rows [][]int, exitX int) *Maze {
	m := &Maze{
		Height: len(rows),
		Rooms:  make([][]Room, len(rows)),
	}
	if len(rows) > 0 {
		m.Width = len(rows[0])
	}
	for y, row := range rows {
		m.Rooms[y] = make([]Room, len(row))
		for x, code := range row {
			m.Rooms[y][x] = Room(code)
		}
	}
	m.Exit = Position{X: exitX, Y: m.Height - 1}
	return m
}

// InBounds reports whether p is a cell of the maze
func (m *Maze) InBounds(p Position) bool {
	return p.X >= 0 && p.X < m.Width && p.Y >= 0 && p.Y < m.Height
}

// RoomAt returns the room code at p. p must be in bounds.
func (m *Maze) RoomAt(p Position) Room {
	return m.Rooms[p.Y][p.X]
}

// Clone returns a deep copy
func (m *Maze) Clone() *Maze {
	c := *m
	c.Rooms = make([][]Room, len(m.Rooms))
	for y, row := range m.Rooms {
		c.Rooms[y] = append([]Room(nil), row...)
	}
	return &c
}

// Clone returns a deep copy of the state that shares nothing with s
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	c := *s
	if s.Maze != nil {
		c.Maze = s.Maze.Clone()
	}
	c.Rocks = append([]Rock(nil), s.Rocks...)
	if s.History != nil {
		c.History = make([]TurnRecord, len(s.History))
		for i, rec := range s.History {
			c.History[i] = rec.Clone()
		}
	}
	return &c
}

// Clone returns a copy of the record with its own elimination list
func (r TurnRecord) Clone() TurnRecord {
	if r.Eliminations != nil {
		r.Eliminations = append([]Elimination(nil), r.Eliminations...)
	}
	return r
}

// Briefing returns the static description sent to agents
func (m *Maze) Briefing() Briefing {
	return Briefing{
		Width:  m.Width,
		Height: m.Height,
		Rooms:  m.Clone().Rooms,
		ExitX:  m.Exit.X,
	}
}

// ActiveAt reports whether the rock takes part in tick t
func (r Rock) ActiveAt(t int) bool {
	return t >= r.ActiveFrom
}

// Visible returns the rock's state only once it is active. Inactive rocks expose nothing.
func (r Rock) Visible(t int) (Mover, bool) {
	if !r.ActiveAt(t) {
		return Mover{}, false
	}
	return r.Mover, true
}

// ActiveRocks returns the movers of rocks active at t, in collection order
func ActiveRocks(rocks []Rock, t int) []Mover {
	active := make([]Mover, 0, len(rocks))
	for _, r := range rocks {
		if mv, ok := r.Visible(t); ok {
			active = append(active, mv)
		}
	}
	return active
}
