package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunFinished is returned when a decision arrives after the run terminated
var ErrRunFinished = errors.New("run already finished")

// Decider supplies one decision per tick. It only ever sees snapshots.
type Decider interface {
	Decide(ctx context.Context, snap Snapshot) (string, error)
}

// Briefer is implemented by deciders that want the maze before the first tick
type Briefer interface {
	Brief(ctx context.Context, b Briefing) error
}

// Engine provides the main interface for run operations
type Engine interface {
	// Run state
	GetState() *GameState
	SetState(state *GameState) error
	Reset() *GameState
	Status() Status
	IsOver() bool
	Result() RunResult

	// Turn loop
	Snapshot() Snapshot
	Step(decision string) (*TurnRecord, error)
	Play(ctx context.Context, d Decider) (*RunResult, error)

	// History
	GetHistory() []TurnRecord
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements the Engine interface
type GameEngine struct {
	state *GameState
	level *Level
}

// NewEngine creates a run for the provided level
func NewEngine(level *Level) (*GameEngine, error) {
	if err := ValidateLevel(level); err != nil {
		return nil, err
	}

	return &GameEngine{
		level: level,
		state: InitGameStateFromLevel(level),
	}, nil
}

// GetState returns the live state. Callers that hand it to other goroutines must Clone it.
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the run state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Maze == nil {
		return fmt.Errorf("state has no maze")
	}
	e.state = state
	return nil
}

// Reset restarts the run from the level, keeping the cumulative turn count
func (e *GameEngine) Reset() *GameState {
	prevTotal := e.state.TotalTurns
	e.state = InitGameStateFromLevel(e.level)
	e.state.TotalTurns = prevTotal
	return e.state
}

// Status returns the turn loop state
func (e *GameEngine) Status() Status {
	return e.state.Status
}

// IsOver returns whether the run reached a terminal state
func (e *GameEngine) IsOver() bool {
	return e.state.Status.Terminal()
}

// Result returns the termination signal. Status is Running while the run is in flight.
func (e *GameEngine) Result() RunResult {
	return RunResult{
		Status: e.state.Status,
		Reason: e.state.Reason,
		Kind:   e.state.FailureKind,
		Ticks:  e.state.Tick,
	}
}

// Snapshot returns a copy of what the agent may see at the current tick
func (e *GameEngine) Snapshot() Snapshot {
	return Snapshot{
		Tick:        e.state.Tick,
		Protagonist: e.state.Protagonist,
		Rocks:       ActiveRocks(e.state.Rocks, e.state.Tick),
	}
}

// Step applies one decision and advances one tick. Rule violations end the run and are
// reported in the returned record, not as an error.
func (e *GameEngine) Step(line string) (*TurnRecord, error) {
	s := e.state
	if s.Status.Terminal() {
		return nil, ErrRunFinished
	}

	rec := TurnRecord{
		Tick:        s.Tick,
		Decision:    strings.TrimSpace(line),
		From:        s.Protagonist.Pos,
		RocksBefore: len(s.Rocks),
		TurnNumber:  s.TotalTurns + 1,
		Timestamp:   time.Now().Unix(),
	}

	decision, err := ParseDecision(line)
	if err == nil {
		err = ApplyDecision(s.Maze, decision, s.Protagonist, s.Rocks, s.Tick, e.rotationOptions())
	}
	if err != nil {
		e.fail(err)
		return e.record(rec), nil
	}

	res := Tick(s.Maze, s.Tick, s.Protagonist, s.Rocks)
	rec.Eliminations = res.Eliminations
	switch res.Outcome {
	case Escaped:
		s.Protagonist = res.Protagonist
		s.Tick++
		s.Status = Succeeded
		s.Message = fmt.Sprintf("Explorer reached the exit at %d %d", res.Protagonist.Pos.X, res.Protagonist.Pos.Y)
	case Crashed:
		s.Protagonist = res.Protagonist
		e.fail(res.Err)
	default:
		s.Protagonist = res.Protagonist
		s.Rocks = res.Rocks
		s.Tick++
		s.Message = fmt.Sprintf("Tick %d done, %d rocks in play", rec.Tick, len(s.Rocks))
		if len(res.Eliminations) > 0 {
			s.Message += fmt.Sprintf(", %d eliminated", len(res.Eliminations))
		}
		if s.Tick >= s.MaxTicks {
			s.Status = Exhausted
			s.Message = fmt.Sprintf("Tick budget of %d exhausted before reaching the exit", s.MaxTicks)
		}
	}

	return e.record(rec), nil
}

// Play drives the turn loop until the run terminates or ctx is cancelled between ticks
func (e *GameEngine) Play(ctx context.Context, d Decider) (*RunResult, error) {
	if e.IsOver() {
		res := e.Result()
		return &res, ErrRunFinished
	}

	if b, ok := d.(Briefer); ok {
		if err := b.Brief(ctx, e.state.Maze.Briefing()); err != nil {
			return nil, fmt.Errorf("failed to brief agent: %w", err)
		}
	}

	for !e.IsOver() {
		if err := ctx.Err(); err != nil {
			res := e.Result()
			return &res, err
		}

		line, err := d.Decide(ctx, e.Snapshot())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				res := e.Result()
				return &res, ctxErr
			}
			e.fail(&RuleError{Kind: ErrMalformedDecision, Detail: fmt.Sprintf("no decision received: %v", err)})
			break
		}

		if _, err := e.Step(line); err != nil {
			return nil, err
		}
	}

	res := e.Result()
	return &res, nil
}

// GetHistory returns the turn history
func (e *GameEngine) GetHistory() []TurnRecord {
	return e.state.History
}

func (e *GameEngine) rotationOptions() RotationOptions {
	if e.level == nil {
		return RotationOptions{}
	}
	return RotationOptions{LockNegativeRooms: e.level.LockNegativeRooms}
}

func (e *GameEngine) fail(err error) {
	e.state.Status = Failed
	e.state.Reason = err.Error()
	e.state.FailureKind = KindName(err)
	e.state.Message = "Run failed: " + err.Error()
}

func (e *GameEngine) record(rec TurnRecord) *TurnRecord {
	s := e.state
	rec.To = s.Protagonist.Pos
	rec.RocksAfter = len(s.Rocks)
	rec.Status = s.Status
	if s.Status == Failed {
		rec.Error = s.Reason
	}
	s.History = append(s.History, rec)
	s.TotalTurns++
	return &s.History[len(s.History)-1]
}
