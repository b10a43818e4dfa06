package engine

import (
	"context"
	"errors"
	"testing"
)

// createTestLevel: the explorer walks the top row, drops down the right column and
// escapes on tick 3. A rock wakes up at tick 2.
func createTestLevel() *Level {
	return &Level{
		Name:        "Engine Test Level",
		Description: "Level for engine integration tests",
		Width:       3,
		Height:      3,
		Rooms: [][]int{
			{2, 2, 13},
			{3, 0, 3},
			{3, 0, 3},
		},
		ExitX: 2,
		Start: Placement{X: 0, Y: 0, Entry: Left},
		Rocks: []RockPlacement{
			{Placement: Placement{X: 0, Y: 1, Entry: Up}, ActiveFrom: 2},
		},
	}
}

// createGateLevel needs one rotation at 1 0 before the explorer can pass
func createGateLevel() *Level {
	return &Level{
		Name:   "Gate",
		Width:  2,
		Height: 2,
		Rooms: [][]int{
			{2, 12},
			{0, 0},
		},
		ExitX: 1,
		Start: Placement{X: 0, Y: 0, Entry: Left},
	}
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(createTestLevel())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	state := engine.GetState()
	if state.Status != Running {
		t.Errorf("Expected status running, got %s", state.Status)
	}
	if state.Tick != 0 {
		t.Errorf("Expected tick 0, got %d", state.Tick)
	}
	if state.MaxTicks != DefaultMaxTicks {
		t.Errorf("Expected default budget %d, got %d", DefaultMaxTicks, state.MaxTicks)
	}
	if state.Maze.Exit != (Position{X: 2, Y: 2}) {
		t.Errorf("Expected exit at (2,2), got %+v", state.Maze.Exit)
	}
	if len(state.Rocks) != 1 {
		t.Errorf("Expected 1 rock, got %d", len(state.Rocks))
	}
}

func TestNewEngine_InvalidLevel(t *testing.T) {
	level := createTestLevel()
	level.ExitX = 7

	if _, err := NewEngine(level); err == nil {
		t.Error("Expected error for exit column outside the maze")
	}
}

func TestEngine_PlaysToExit(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())

	expected := []Position{{1, 0}, {2, 0}, {2, 1}, {2, 2}}
	for i, pos := range expected {
		rec, err := engine.Step("WAIT")
		if err != nil {
			t.Fatalf("tick %d: unexpected error %v", i, err)
		}
		if rec.To != pos {
			t.Errorf("tick %d: expected explorer at %+v, got %+v", i, pos, rec.To)
		}
		if rec.TurnNumber != i+1 {
			t.Errorf("tick %d: expected turn number %d, got %d", i, i+1, rec.TurnNumber)
		}
	}

	res := engine.Result()
	if res.Status != Succeeded {
		t.Fatalf("Expected success, got %+v", res)
	}
	if res.Ticks != 4 {
		t.Errorf("Expected 4 ticks, got %d", res.Ticks)
	}
	if len(engine.GetHistory()) != 4 {
		t.Errorf("Expected 4 history entries, got %d", len(engine.GetHistory()))
	}

	if _, err := engine.Step("WAIT"); !errors.Is(err, ErrRunFinished) {
		t.Errorf("Expected ErrRunFinished after success, got %v", err)
	}
}

func TestEngine_SnapshotHidesInactiveRocks(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())

	if snap := engine.Snapshot(); len(snap.Rocks) != 0 {
		t.Errorf("Expected no visible rocks at tick 0, got %+v", snap.Rocks)
	}

	engine.Step("WAIT")
	engine.Step("WAIT")

	snap := engine.Snapshot()
	if snap.Tick != 2 {
		t.Fatalf("Expected tick 2, got %d", snap.Tick)
	}
	if len(snap.Rocks) != 1 || snap.Rocks[0].Pos != (Position{X: 0, Y: 1}) {
		t.Errorf("Expected rock visible at (0,1), got %+v", snap.Rocks)
	}

	snap.Rocks[0].Pos.X = 99
	if engine.GetState().Rocks[0].Pos.X == 99 {
		t.Error("Snapshot must not alias engine state")
	}
}

func TestEngine_ExhaustsBudget(t *testing.T) {
	level := &Level{
		Name:     "Short budget",
		Width:    1,
		Height:   3,
		Rooms:    [][]int{{3}, {3}, {3}},
		Start:    Placement{X: 0, Y: 0, Entry: Up},
		MaxTicks: 1,
	}
	engine, err := NewEngine(level)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	rec, _ := engine.Step("WAIT")
	if rec.Status != Exhausted {
		t.Errorf("Expected exhausted, got %s", rec.Status)
	}
	if res := engine.Result(); res.Ticks != 1 || res.Status != Exhausted {
		t.Errorf("Unexpected result %+v", res)
	}
}

func TestEngine_RejectedRotationEndsRun(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())
	before := engine.GetState().Maze.Clone()

	rec, err := engine.Step("0 0 LEFT")
	if err != nil {
		t.Fatalf("Rule violations are reported in the record, got error %v", err)
	}
	if rec.Status != Failed {
		t.Errorf("Expected failed, got %s", rec.Status)
	}

	state := engine.GetState()
	if state.FailureKind != "OccupiedCell" {
		t.Errorf("Expected OccupiedCell, got %q (%s)", state.FailureKind, state.Reason)
	}
	if state.Tick != 0 {
		t.Errorf("A rejected decision must not advance the tick, got %d", state.Tick)
	}
	if state.Protagonist.Pos != (Position{X: 0, Y: 0}) {
		t.Errorf("Explorer must not move, got %+v", state.Protagonist.Pos)
	}
	assertSameRooms(t, before, state.Maze)

	if _, err := engine.Step("WAIT"); !errors.Is(err, ErrRunFinished) {
		t.Errorf("Expected ErrRunFinished, got %v", err)
	}
}

func TestEngine_MalformedDecision(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())

	engine.Step("jump")
	if engine.GetState().FailureKind != "MalformedDecision" {
		t.Errorf("Expected MalformedDecision, got %q", engine.GetState().FailureKind)
	}
}

func TestEngine_RotationOpensPath(t *testing.T) {
	engine, err := NewEngine(createGateLevel())
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}

	rec, _ := engine.Step("1 0 RIGHT")
	if rec.Status != Running {
		t.Fatalf("Expected running after rotation, got %s (%s)", rec.Status, rec.Error)
	}
	if engine.GetState().Maze.Rooms[0][1] != 13 {
		t.Errorf("Expected room 13, got %d", engine.GetState().Maze.Rooms[0][1])
	}

	engine.Step("WAIT")
	if res := engine.Result(); res.Status != Succeeded || res.Ticks != 2 {
		t.Errorf("Expected success after 2 ticks, got %+v", res)
	}
}

func TestEngine_WallWithoutRotation(t *testing.T) {
	engine, _ := NewEngine(createGateLevel())

	engine.Step("WAIT")
	if kind := engine.GetState().FailureKind; kind != "WallCrash" {
		t.Errorf("Expected WallCrash, got %q", kind)
	}
}

func TestEngine_Reset(t *testing.T) {
	engine, _ := NewEngine(createGateLevel())

	engine.Step("1 0 RIGHT")
	engine.Step("WAIT")
	state := engine.Reset()

	if state.Status != Running || state.Tick != 0 {
		t.Errorf("Expected fresh run, got status %s tick %d", state.Status, state.Tick)
	}
	if state.Maze.Rooms[0][1] != 12 {
		t.Errorf("Reset must restore rotated rooms, got %d", state.Maze.Rooms[0][1])
	}
	if state.TotalTurns != 2 {
		t.Errorf("Expected total turns kept across reset, got %d", state.TotalTurns)
	}
	if engine.level.Rooms[0][1] != 12 {
		t.Error("Rotations must not leak into the level")
	}
}

func TestGameState_Clone(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())
	engine.Step("WAIT")

	live := engine.GetState()
	c := live.Clone()

	c.Maze.Rooms[0][0] = 0
	c.Rocks[0].Pos.X = 99
	c.History[0].Decision = "edited"

	if live.Maze.Rooms[0][0] != 2 {
		t.Error("Clone must not share the maze")
	}
	if live.Rocks[0].Pos.X == 99 {
		t.Error("Clone must not share the rocks")
	}
	if live.History[0].Decision != "WAIT" {
		t.Error("Clone must not share the history")
	}

	engine.Step("WAIT")
	if c.Tick != 1 || len(c.History) != 1 {
		t.Errorf("Clone must not follow later ticks, got tick %d with %d turns", c.Tick, len(c.History))
	}

	var nilState *GameState
	if nilState.Clone() != nil {
		t.Error("Clone of nil must be nil")
	}
}

type scriptedDecider struct {
	lines    []string
	briefing *Briefing
	seen     []Snapshot
}

func (s *scriptedDecider) Brief(ctx context.Context, b Briefing) error {
	s.briefing = &b
	return nil
}

func (s *scriptedDecider) Decide(ctx context.Context, snap Snapshot) (string, error) {
	s.seen = append(s.seen, snap)
	if len(s.lines) == 0 {
		return "", errors.New("script exhausted")
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func TestEngine_Play(t *testing.T) {
	engine, _ := NewEngine(createGateLevel())
	d := &scriptedDecider{lines: []string{"1 0 RIGHT", "WAIT"}}

	res, err := engine.Play(context.Background(), d)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if res.Status != Succeeded || res.Ticks != 2 {
		t.Errorf("Unexpected result %+v", res)
	}
	if d.briefing == nil || d.briefing.ExitX != 1 || d.briefing.Width != 2 {
		t.Errorf("Expected briefing before the first tick, got %+v", d.briefing)
	}
	if len(d.seen) != 2 || d.seen[1].Tick != 1 {
		t.Errorf("Expected one snapshot per tick, got %+v", d.seen)
	}
}

func TestEngine_PlayWithoutDecision(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())

	res, err := engine.Play(context.Background(), &scriptedDecider{lines: []string{"WAIT"}})
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if res.Status != Failed || res.Kind != "MalformedDecision" {
		t.Errorf("Expected MalformedDecision failure, got %+v", res)
	}
	if res.Ticks != 1 {
		t.Errorf("Expected 1 completed tick, got %d", res.Ticks)
	}
}

func TestEngine_PlayCancelled(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := engine.Play(ctx, &scriptedDecider{lines: []string{"WAIT"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res == nil || res.Status != Running || res.Ticks != 0 {
		t.Errorf("Expected partial result, got %+v", res)
	}
}

func TestEngine_SetState(t *testing.T) {
	engine, _ := NewEngine(createTestLevel())

	if err := engine.SetState(nil); err == nil {
		t.Error("Expected error for nil state")
	}
	if err := engine.SetState(&GameState{}); err == nil {
		t.Error("Expected error for state without maze")
	}

	other, _ := NewEngine(createGateLevel())
	if err := engine.SetState(other.GetState()); err != nil {
		t.Fatalf("SetState failed: %v", err)
	}
	if engine.GetState().LevelName != "Gate" {
		t.Errorf("Expected Gate state, got %s", engine.GetState().LevelName)
	}
}
