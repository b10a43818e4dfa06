package engine

const (
	// DefaultMaxTicks is the tick budget of a run when the level does not set one
	DefaultMaxTicks = 1000

	// Validation constants
	MinMazeSize = 1
	MaxMazeSize = 50
	MaxRocks    = 100
)

// Status is the state of the turn loop
type Status string

const (
	Running   Status = "running"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Exhausted Status = "exhausted"
)

// Terminal reports whether no further ticks can happen
func (s Status) Terminal() bool {
	return s != Running
}

// Maze is the fixed-size grid of rooms. Only room codes change during a run.
type Maze struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rooms  [][]Room `json:"rooms"`
	Exit   Position `json:"exit"`
}

// Mover is the position of an entity and the side it entered its room from
type Mover struct {
	Pos   Position  `json:"pos"`
	Entry Direction `json:"entry"`
}

// Rock is a moving hazard. It is inert until tick ActiveFrom.
type Rock struct {
	Mover
	ActiveFrom int `json:"active_from"`
}

// GameState represents the complete state of a run
type GameState struct {
	Maze        *Maze        `json:"maze"`
	Tick        int          `json:"tick"`
	MaxTicks    int          `json:"max_ticks"`
	Protagonist Mover        `json:"protagonist"`
	Rocks       []Rock       `json:"rocks"`
	Status      Status       `json:"status"`
	Reason      string       `json:"reason,omitempty"`
	FailureKind string       `json:"failure_kind,omitempty"`
	LevelName   string       `json:"level_name"`
	Message     string       `json:"message"`
	History     []TurnRecord `json:"history"`
	TotalTurns  int          `json:"total_turns"`
}

// Snapshot is the view handed to the agent each tick. It only contains active rocks.
type Snapshot struct {
	Tick        int     `json:"tick"`
	Protagonist Mover   `json:"protagonist"`
	Rocks       []Mover `json:"rocks"`
}

// Briefing is the static part of the world sent to the agent before the first tick
type Briefing struct {
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Rooms  [][]Room `json:"rooms"`
	ExitX  int      `json:"exit_x"`
}

// EliminationRule names why a rock was removed
type EliminationRule string

const (
	LeftMaze      EliminationRule = "left_maze"
	DeadEndRule   EliminationRule = "dead_end"
	WallCrashRule EliminationRule = "wall_crash"
	RockCollision EliminationRule = "rock_collision"
	DeadEndAhead  EliminationRule = "dead_end_ahead"
)

// Elimination records one rock removed during a tick
type Elimination struct {
	Index int             `json:"index"` // position in the collection before the tick
	Rule  EliminationRule `json:"rule"`
	From  Position        `json:"from"`
	To    Position        `json:"to"`
}

// TurnRecord is one entry of the turn history
type TurnRecord struct {
	Tick         int           `json:"tick"`
	Decision     string        `json:"decision"`
	From         Position      `json:"from"`
	To           Position      `json:"to"`
	RocksBefore  int           `json:"rocks_before"`
	RocksAfter   int           `json:"rocks_after"`
	Eliminations []Elimination `json:"eliminations,omitempty"`
	Status       Status        `json:"status"`
	Error        string        `json:"error,omitempty"`
	TurnNumber   int           `json:"turn_number"`
	Timestamp    int64         `json:"timestamp"`
}

// RunResult is the termination signal of a run
type RunResult struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Ticks  int    `json:"ticks"`
}
