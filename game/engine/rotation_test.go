package engine

import (
	"errors"
	"testing"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Decision
		wantErr  bool
	}{
		{"wait", "WAIT", Decision{Wait: true}, false},
		{"wait with newline", "WAIT\n", Decision{Wait: true}, false},
		{"rotate left", "3 4 LEFT", Decision{Pos: Position{X: 3, Y: 4}, Rotation: RotateLeft, Token: "LEFT"}, false},
		{"rotate right", "0 1 RIGHT", Decision{Pos: Position{X: 0, Y: 1}, Rotation: RotateRight, Token: "RIGHT"}, false},
		{"unknown token kept", "0 1 UP", Decision{Pos: Position{X: 0, Y: 1}, Rotation: RotateInvalid, Token: "UP"}, false},
		{"lower-case rotation kept as unknown", "0 1 left", Decision{Pos: Position{X: 0, Y: 1}, Rotation: RotateInvalid, Token: "left"}, false},
		{"empty", "", Decision{}, true},
		{"lower-case wait", "wait", Decision{}, true},
		{"two fields", "1 2", Decision{}, true},
		{"bad x", "a 2 LEFT", Decision{}, true},
		{"too many fields", "1 2 LEFT NOW", Decision{}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, err := ParseDecision(test.line)
			if test.wantErr {
				if !errors.Is(err, ErrMalformedDecision) {
					t.Errorf("Expected ErrMalformedDecision, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if d != test.expected {
				t.Errorf("ParseDecision(%q) = %+v, expected %+v", test.line, d, test.expected)
			}
		})
	}
}

func createRotationMaze() *Maze {
	return NewMaze([][]int{
		{3, 6, -10},
		{3, 0, 2},
		{3, 3, 3},
	}, 0)
}

func TestApplyDecision_Rotates(t *testing.T) {
	m := createRotationMaze()
	hero := Mover{Pos: Position{X: 0, Y: 0}, Entry: Up}

	d, _ := ParseDecision("1 0 RIGHT")
	if err := ApplyDecision(m, d, hero, nil, 0, RotationOptions{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m.Rooms[0][1] != 7 {
		t.Errorf("Expected room 7 after RIGHT rotation of 6, got %d", m.Rooms[0][1])
	}

	d, _ = ParseDecision("2 0 LEFT")
	if err := ApplyDecision(m, d, hero, nil, 0, RotationOptions{}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if m.Rooms[0][2] != -13 {
		t.Errorf("Expected sign preserved (-13), got %d", m.Rooms[0][2])
	}
}

func TestApplyDecision_Wait(t *testing.T) {
	m := createRotationMaze()
	before := m.Clone()
	hero := Mover{Pos: Position{X: 0, Y: 0}, Entry: Up}

	if err := ApplyDecision(m, Decision{Wait: true}, hero, nil, 0, RotationOptions{}); err != nil {
		t.Fatalf("WAIT must always succeed, got %v", err)
	}
	assertSameRooms(t, before, m)
}

func TestApplyDecision_Rejections(t *testing.T) {
	hero := Mover{Pos: Position{X: 0, Y: 0}, Entry: Up}
	rocks := []Rock{
		{Mover: Mover{Pos: Position{X: 0, Y: 2}, Entry: Up}, ActiveFrom: 0},
		{Mover: Mover{Pos: Position{X: 1, Y: 2}, Entry: Up}, ActiveFrom: 5},
	}

	tests := []struct {
		name     string
		line     string
		tick     int
		opts     RotationOptions
		expected error
	}{
		{"explorer room", "0 0 LEFT", 0, RotationOptions{}, ErrOccupiedCell},
		{"active rock room", "0 2 RIGHT", 0, RotationOptions{}, ErrOccupiedCell},
		{"rock active later", "1 2 RIGHT", 5, RotationOptions{}, ErrOccupiedCell},
		{"shape zero", "1 1 LEFT", 0, RotationOptions{}, ErrNotRotatable},
		{"bad rotation token", "2 1 UP", 0, RotationOptions{}, ErrInvalidRotationDirection},
		{"occupied wins over bad token", "0 0 UP", 0, RotationOptions{}, ErrOccupiedCell},
		{"locked negative room", "2 0 LEFT", 0, RotationOptions{LockNegativeRooms: true}, ErrNotRotatable},
		{"outside maze", "9 9 LEFT", 0, RotationOptions{}, ErrMalformedDecision},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			m := createRotationMaze()
			before := m.Clone()

			d, err := ParseDecision(test.line)
			if err != nil {
				t.Fatalf("ParseDecision failed: %v", err)
			}
			err = ApplyDecision(m, d, hero, rocks, test.tick, test.opts)
			if !errors.Is(err, test.expected) {
				t.Fatalf("Expected %v, got %v", test.expected, err)
			}

			var ruleErr *RuleError
			if !errors.As(err, &ruleErr) {
				t.Fatalf("Expected *RuleError, got %T", err)
			}
			if ruleErr.Pos != d.Pos {
				t.Errorf("Expected error to carry position %+v, got %+v", d.Pos, ruleErr.Pos)
			}
			assertSameRooms(t, before, m)
		})
	}
}

func TestApplyDecision_InactiveRockDoesNotBlock(t *testing.T) {
	m := createRotationMaze()
	hero := Mover{Pos: Position{X: 0, Y: 0}, Entry: Up}
	rocks := []Rock{{Mover: Mover{Pos: Position{X: 2, Y: 1}, Entry: Left}, ActiveFrom: 3}}

	d, _ := ParseDecision("2 1 RIGHT")
	if err := ApplyDecision(m, d, hero, rocks, 2, RotationOptions{}); err != nil {
		t.Fatalf("Inactive rock must not block rotation, got %v", err)
	}
	if m.Rooms[1][2] != 3 {
		t.Errorf("Expected room 3, got %d", m.Rooms[1][2])
	}
}

func assertSameRooms(t *testing.T, expected, actual *Maze) {
	t.Helper()
	for y := range expected.Rooms {
		for x := range expected.Rooms[y] {
			if expected.Rooms[y][x] != actual.Rooms[y][x] {
				t.Errorf("room %d %d changed from %d to %d", x, y, expected.Rooms[y][x], actual.Rooms[y][x])
			}
		}
	}
}
