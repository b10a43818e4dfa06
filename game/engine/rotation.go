package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// WaitToken is the no-op decision
const WaitToken = "WAIT"

// Decision is a parsed agent command: either a wait or a rotation of one room
type Decision struct {
	Wait     bool     `json:"wait"`
	Pos      Position `json:"pos"`
	Rotation Rotation `json:"rotation"`
	Token    string   `json:"token,omitempty"` // raw rotation token as received
}

// RotationOptions tunes the validator for a level
type RotationOptions struct {
	// LockNegativeRooms makes negative room codes fixed
	LockNegativeRooms bool
}

// String renders the decision in wire form
func (d Decision) String() string {
	if d.Wait {
		return WaitToken
	}
	token := d.Token
	if token == "" {
		token = d.Rotation.String()
	}
	return fmt.Sprintf("%d %d %s", d.Pos.X, d.Pos.Y, token)
}

// ParseDecision parses "WAIT" or "x y LEFT|RIGHT". Tokens are case-sensitive. An unknown
// rotation token is kept so the validator can reject it after the occupancy and
// rotatability checks.
func ParseDecision(line string) (Decision, error) {
	fields := strings.Fields(line)
	if len(fields) == 1 && fields[0] == WaitToken {
		return Decision{Wait: true}, nil
	}
	if len(fields) != 3 {
		return Decision{}, &RuleError{Kind: ErrMalformedDecision, Detail: fmt.Sprintf("cannot parse %q", line)}
	}
	x, errX := strconv.Atoi(fields[0])
	y, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return Decision{}, &RuleError{Kind: ErrMalformedDecision, Detail: fmt.Sprintf("bad coordinates in %q", line)}
	}
	d := Decision{Pos: Position{X: x, Y: y}, Token: fields[2]}
	switch fields[2] {
	case "LEFT":
		d.Rotation = RotateLeft
	case "RIGHT":
		d.Rotation = RotateRight
	}
	return d, nil
}

// ApplyDecision validates d against the current world and rotates one room.
// Nothing is mutated when an error is returned.
func ApplyDecision(m *Maze, d Decision, protagonist Mover, rocks []Rock, t int, opts RotationOptions) error {
	if d.Wait {
		return nil
	}
	if !m.InBounds(d.Pos) {
		return &RuleError{Kind: ErrMalformedDecision, Pos: d.Pos, Detail: "room is outside the maze"}
	}
	if d.Pos == protagonist.Pos {
		return &RuleError{Kind: ErrOccupiedCell, Pos: d.Pos, Detail: "unable to rotate room with the explorer inside"}
	}
	for _, r := range rocks {
		if mv, ok := r.Visible(t); ok && mv.Pos == d.Pos {
			return &RuleError{Kind: ErrOccupiedCell, Pos: d.Pos, Detail: "unable to rotate room with a rock inside"}
		}
	}

	room := m.RoomAt(d.Pos)
	if room.Shape() == 0 || !room.Valid() || (opts.LockNegativeRooms && room < 0) {
		return &RuleError{Kind: ErrNotRotatable, Pos: d.Pos, Detail: fmt.Sprintf("room has layout %d", room)}
	}
	if d.Rotation != RotateLeft && d.Rotation != RotateRight {
		return &RuleError{Kind: ErrInvalidRotationDirection, Pos: d.Pos, Detail: fmt.Sprintf("rotation must be LEFT or RIGHT but is %q", d.Token)}
	}

	rotated, ok := room.Rotated(d.Rotation)
	if !ok {
		return &RuleError{Kind: ErrNotRotatable, Pos: d.Pos, Detail: fmt.Sprintf("room has layout %d", room)}
	}
	m.Rooms[d.Pos.Y][d.Pos.X] = rotated
	return nil
}
