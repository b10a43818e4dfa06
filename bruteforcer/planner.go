package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

var (
	// ErrNoPlan is returned when every reachable world fails before the exit
	ErrNoPlan = errors.New("no decision sequence reaches the exit")
	// ErrSearchLimit is returned when the node budget runs out before a plan is found
	ErrSearchLimit = errors.New("search node limit reached")
)

// Planner searches decision sequences breadth first, so the plan it returns uses
// the fewest ticks among the decisions it considers.
type Planner struct {
	// Radius bounds the rooms considered for rotation by Manhattan distance to the explorer
	Radius int
	// MaxNodes bounds the number of expanded worlds
	MaxNodes int

	expanded int
}

// NewPlanner creates a planner with the given rotation radius and node budget
func NewPlanner(radius, maxNodes int) *Planner {
	return &Planner{Radius: radius, MaxNodes: maxNodes}
}

// Expanded returns how many worlds the last search expanded
func (p *Planner) Expanded() int {
	return p.expanded
}

type world struct {
	maze     *engine.Maze
	tick     int
	explorer engine.Mover
	rocks    []engine.Rock
	plan     []string
}

// key identifies a world for duplicate detection
func (w *world) key() string {
	var sb strings.Builder
	for _, row := range w.maze.Rooms {
		for _, room := range row {
			sb.WriteString(strconv.Itoa(int(room)))
			sb.WriteByte(',')
		}
	}
	fmt.Fprintf(&sb, "|%d|%d %d %d", w.tick, w.explorer.Pos.X, w.explorer.Pos.Y, w.explorer.Entry)
	for _, r := range w.rocks {
		fmt.Fprintf(&sb, "|%d %d %d %d", r.Pos.X, r.Pos.Y, r.Entry, r.ActiveFrom)
	}
	return sb.String()
}

// Plan returns the decisions that lead the explorer of level to the exit
func (p *Planner) Plan(level *engine.Level) ([]string, error) {
	state := engine.InitGameStateFromLevel(level)
	opts := engine.RotationOptions{LockNegativeRooms: level.LockNegativeRooms}

	start := &world{
		maze:     state.Maze,
		tick:     state.Tick,
		explorer: state.Protagonist,
		rocks:    state.Rocks,
	}

	p.expanded = 0
	seen := map[string]bool{start.key(): true}
	queue := []*world{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if p.MaxNodes > 0 && p.expanded >= p.MaxNodes {
			return nil, fmt.Errorf("%w after %d worlds", ErrSearchLimit, p.expanded)
		}
		p.expanded++

		for _, decision := range p.candidates(current, opts) {
			next, escaped := advance(current, decision, opts)
			if escaped {
				log.WithFields(log.Fields{
					"ticks":    len(next.plan),
					"expanded": p.expanded,
				}).Debug("Plan found")
				return next.plan, nil
			}
			if next == nil || next.tick >= state.MaxTicks {
				continue
			}

			k := next.key()
			if seen[k] {
				continue
			}
			seen[k] = true
			queue = append(queue, next)
		}
	}

	return nil, ErrNoPlan
}

// candidates lists WAIT and the rotations of nearby rooms that change the maze
func (p *Planner) candidates(w *world, opts engine.RotationOptions) []string {
	decisions := []string{engine.WaitToken}

	for y := 0; y < w.maze.Height; y++ {
		for x := 0; x < w.maze.Width; x++ {
			pos := engine.Position{X: x, Y: y}
			if pos == w.explorer.Pos || engine.ManhattanDistance(pos, w.explorer.Pos) > p.Radius {
				continue
			}

			room := w.maze.RoomAt(pos)
			if !engine.IsRotatable(room, opts) {
				continue
			}

			left, _ := room.Rotated(engine.RotateLeft)
			right, _ := room.Rotated(engine.RotateRight)
			if left != room {
				decisions = append(decisions, fmt.Sprintf("%d %d %s", x, y, engine.RotateLeft))
			}
			if right != room && right != left {
				decisions = append(decisions, fmt.Sprintf("%d %d %s", x, y, engine.RotateRight))
			}
		}
	}

	return decisions
}

// advance plays one decision on a copy of w. It returns nil when the run fails,
// and escaped=true when the explorer reaches the exit.
func advance(w *world, decision string, opts engine.RotationOptions) (*world, bool) {
	d, err := engine.ParseDecision(decision)
	if err != nil {
		return nil, false
	}

	maze := w.maze
	if !d.Wait {
		maze = w.maze.Clone()
	}
	if err := engine.ApplyDecision(maze, d, w.explorer, w.rocks, w.tick, opts); err != nil {
		return nil, false
	}

	plan := make([]string, len(w.plan), len(w.plan)+1)
	copy(plan, w.plan)
	plan = append(plan, decision)

	res := engine.Tick(maze, w.tick, w.explorer, w.rocks)
	switch res.Outcome {
	case engine.Escaped:
		return &world{plan: plan}, true
	case engine.Crashed:
		return nil, false
	}

	return &world{
		maze:     maze,
		tick:     w.tick + 1,
		explorer: res.Protagonist,
		rocks:    res.Rocks,
		plan:     plan,
	}, false
}
