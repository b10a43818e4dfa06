package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// Placement is the initial position and entry side of an entity
type Placement struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Entry Direction `json:"entry"`
}

// RockPlacement is the initial state of a rock
type RockPlacement struct {
	Placement
	ActiveFrom int `json:"active_from"`
}

// Level is the initial world of a run, loaded from JSON or the text level format
type Level struct {
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Width             int             `json:"width"`
	Height            int             `json:"height"`
	Rooms             [][]int         `json:"rooms"`
	ExitX             int             `json:"exit_x"`
	Start             Placement       `json:"start"`
	Rocks             []RockPlacement `json:"rocks"`
	MaxTicks          int             `json:"max_ticks,omitempty"`
	LockNegativeRooms bool            `json:"lock_negative_rooms,omitempty"`
}

// Budget returns the tick budget of the level
func (l *Level) Budget() int {
	if l.MaxTicks > 0 {
		return l.MaxTicks
	}
	return DefaultMaxTicks
}

// ValidateLevel checks that a level describes a consistent initial world
func ValidateLevel(l *Level) error {
	if l == nil {
		return fmt.Errorf("level validation: level is nil")
	}
	if l.Name == "" {
		return fmt.Errorf("level validation: name is required")
	}

	if l.Width < MinMazeSize || l.Width > MaxMazeSize {
		return fmt.Errorf("level validation: width must be between %d and %d, got %d", MinMazeSize, MaxMazeSize, l.Width)
	}
	if l.Height < MinMazeSize || l.Height > MaxMazeSize {
		return fmt.Errorf("level validation: height must be between %d and %d, got %d", MinMazeSize, MaxMazeSize, l.Height)
	}
	if len(l.Rooms) != l.Height {
		return fmt.Errorf("level validation: rooms must have %d rows to match height, got %d", l.Height, len(l.Rooms))
	}
	for y, row := range l.Rooms {
		if len(row) != l.Width {
			return fmt.Errorf("level validation: row %d must have %d rooms to match width, got %d", y, l.Width, len(row))
		}
		for x, code := range row {
			if !Room(code).Valid() {
				return fmt.Errorf("level validation: invalid room code %d at %d %d", code, x, y)
			}
		}
	}

	if l.ExitX < 0 || l.ExitX >= l.Width {
		return fmt.Errorf("level validation: exit column must be between 0 and %d, got %d", l.Width-1, l.ExitX)
	}
	if l.MaxTicks < 0 {
		return fmt.Errorf("level validation: max_ticks cannot be negative, got %d", l.MaxTicks)
	}

	if err := l.validatePlacement("start", l.Start); err != nil {
		return err
	}

	if len(l.Rocks) > MaxRocks {
		return fmt.Errorf("level validation: at most %d rocks allowed, got %d", MaxRocks, len(l.Rocks))
	}
	for i, r := range l.Rocks {
		if err := l.validatePlacement(fmt.Sprintf("rock %d", i), r.Placement); err != nil {
			return err
		}
		if r.ActiveFrom < 0 {
			return fmt.Errorf("level validation: rock %d has negative activation tick %d", i, r.ActiveFrom)
		}
	}

	return nil
}

func (l *Level) validatePlacement(what string, p Placement) error {
	if p.X < 0 || p.X >= l.Width || p.Y < 0 || p.Y >= l.Height {
		return fmt.Errorf("level validation: %s at %d %d is outside the maze", what, p.X, p.Y)
	}
	if !p.Entry.IsCardinal() {
		return fmt.Errorf("level validation: %s has no entry direction", what)
	}
	if room := Room(l.Rooms[p.Y][p.X]); !room.Accepts(p.Entry) {
		return fmt.Errorf("level validation: %s enters room %d at %d %d through a wall (%s)", what, room, p.X, p.Y, p.Entry)
	}
	return nil
}

// LoadLevel loads a level from a JSON file
func LoadLevel(filename string) (*Level, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var level Level
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, err
	}

	if err := ValidateLevel(&level); err != nil {
		return nil, err
	}

	return &level, nil
}

// InitGameStateFromLevel creates the initial state of a run
func InitGameStateFromLevel(l *Level) *GameState {
	rocks := make([]Rock, len(l.Rocks))
	for i, r := range l.Rocks {
		rocks[i] = Rock{
			Mover:      Mover{Pos: Position{X: r.X, Y: r.Y}, Entry: r.Entry},
			ActiveFrom: r.ActiveFrom,
		}
	}

	return &GameState{
		Maze:        NewMaze(l.Rooms, l.ExitX),
		Tick:        0,
		MaxTicks:    l.Budget(),
		Protagonist: Mover{Pos: Position{X: l.Start.X, Y: l.Start.Y}, Entry: l.Start.Entry},
		Rocks:       rocks,
		Status:      Running,
		LevelName:   l.Name,
		Message:     fmt.Sprintf("Run started on %s", l.Name),
		History:     []TurnRecord{},
	}
}
