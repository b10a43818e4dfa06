package engine

import (
	"fmt"
	"strings"
)

// Direction is a side of a room. None marks "no exit" and is not a cardinal direction.
type Direction int

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

// Cardinals lists the four real directions in a stable order
var Cardinals = []Direction{Up, Down, Left, Right}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// String returns the wire name used by the agent protocol
func (d Direction) String() string {
	switch d {
	case Up:
		return "TOP"
	case Down:
		return "BOT"
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	default:
		return "NONE"
	}
}

// IsCardinal reports whether d is one of the four real directions
func (d Direction) IsCardinal() bool {
	return d >= Up && d <= Right
}

// ParseDirection parses a wire name. TOP/BOT are canonical, UP/DOWN are accepted too.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOP", "UP":
		return Up, nil
	case "BOT", "BOTTOM", "DOWN":
		return Down, nil
	case "LEFT":
		return Left, nil
	case "RIGHT":
		return Right, nil
	}
	return None, &RuleError{Kind: ErrInvalidDirection, Detail: fmt.Sprintf("unknown direction %q", s)}
}

// MarshalText implements encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. NONE round-trips.
func (d *Direction) UnmarshalText(text []byte) error {
	if strings.EqualFold(string(text), "NONE") {
		*d = None
		return nil
	}
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Opposite returns the cardinal opposite of d
func Opposite(d Direction) (Direction, error) {
	switch d {
	case Up:
		return Down, nil
	case Down:
		return Up, nil
	case Left:
		return Right, nil
	case Right:
		return Left, nil
	}
	return None, &RuleError{Kind: ErrInvalidDirection, Dir: d, Detail: "no opposite exists"}
}

// Delta returns the unit coordinate offset for d
func Delta(d Direction) (dx, dy int, err error) {
	switch d {
	case Up:
		return 0, -1, nil
	case Down:
		return 0, 1, nil
	case Left:
		return -1, 0, nil
	case Right:
		return 1, 0, nil
	}
	return 0, 0, &RuleError{Kind: ErrInvalidDirection, Dir: d, Detail: "no coordinate delta"}
}

// Step returns the neighbor of p in direction d
func Step(d Direction, p Position) (Position, error) {
	dx, dy, err := Delta(d)
	if err != nil {
		return p, err
	}
	return Position{X: p.X + dx, Y: p.Y + dy}, nil
}
