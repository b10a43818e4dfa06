package engine

import (
	"errors"
	"testing"
)

func TestResolve_Moves(t *testing.T) {
	m := NewMaze([][]int{
		{3, 2, 2, 11},
		{4, 13, 12, 3},
		{3, 0, 0, 3},
	}, 0)

	tests := []struct {
		name     string
		from     Mover
		expected Mover
		wantErr  error
	}{
		{"straight down", Mover{Position{0, 0}, Up}, Mover{Position{0, 1}, Up}, nil},
		{"straight right", Mover{Position{1, 0}, Left}, Mover{Position{2, 0}, Left}, nil},
		{"straight left", Mover{Position{2, 0}, Right}, Mover{Position{1, 0}, Right}, nil},
		{"turn down", Mover{Position{0, 1}, Right}, Mover{Position{0, 2}, Up}, nil},
		{"wall below corner", Mover{Position{2, 1}, Right}, Mover{Position{2, 2}, Up}, ErrWallCrash},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Resolve(m, test.from)
			if test.wantErr != nil {
				if !errors.Is(err, test.wantErr) {
					t.Fatalf("Expected %v, got %v", test.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != test.expected {
				t.Errorf("Resolve(%+v) = %+v, expected %+v", test.from, got, test.expected)
			}
		})
	}
}

func TestResolve_DeadEnd(t *testing.T) {
	m := NewMaze([][]int{
		{10, 3},
		{3, 3},
	}, 0)

	from := Mover{Pos: Position{X: 0, Y: 0}, Entry: Left}
	_, err := Resolve(m, from)
	if !errors.Is(err, ErrDeadEnd) {
		t.Fatalf("Expected ErrDeadEnd, got %v", err)
	}

	var ruleErr *RuleError
	if !errors.As(err, &ruleErr) || ruleErr.Pos != from.Pos || ruleErr.Dir != Left {
		t.Errorf("Expected error to carry %+v, got %v", from, err)
	}
}

func TestResolve_OutOfBounds(t *testing.T) {
	m := NewMaze([][]int{
		{2, 2},
		{3, 3},
	}, 0)

	next, err := Resolve(m, Mover{Pos: Position{X: 1, Y: 0}, Entry: Left})
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("Expected ErrOutOfBounds, got %v", err)
	}
	if next.Pos != (Position{X: 2, Y: 0}) {
		t.Errorf("Expected out-of-bounds target (2,0), got %+v", next.Pos)
	}
}

func TestResolve_Pure(t *testing.T) {
	m := NewMaze([][]int{
		{3, 2},
		{7, 3},
	}, 0)
	inputs := []Mover{
		{Position{0, 0}, Up},
		{Position{1, 0}, Right},
		{Position{0, 1}, Right},
		{Position{1, 0}, Left},
	}

	for _, in := range inputs {
		first, firstErr := Resolve(m, in)
		for i := 0; i < 3; i++ {
			again, err := Resolve(m, in)
			if again != first || KindName(err) != KindName(firstErr) {
				t.Errorf("Resolve(%+v) not deterministic: %+v/%v vs %+v/%v", in, first, firstErr, again, err)
			}
		}
	}
}

func TestTracePath(t *testing.T) {
	m := NewMaze([][]int{
		{3, 0},
		{5, 13},
		{0, 3},
	}, 1)

	path, ok := TracePath(m, Mover{Pos: Position{X: 0, Y: 0}, Entry: Up}, 10)
	if !ok {
		t.Fatalf("Expected exit to be reachable, path %v", path)
	}
	expected := []Position{{0, 0}, {0, 1}, {1, 1}, {1, 2}}
	if len(path) != len(expected) {
		t.Fatalf("Expected path %v, got %v", expected, path)
	}
	for i := range expected {
		if path[i] != expected[i] {
			t.Errorf("step %d: expected %+v, got %+v", i, expected[i], path[i])
		}
	}
}
