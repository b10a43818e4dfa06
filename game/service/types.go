package service

import (
	"time"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

// SessionInfo provides information about a run session
type SessionInfo struct {
	ID             string            `json:"id"`
	LevelID        string            `json:"level_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state"`
	Level          *engine.Level     `json:"level"`
}

// TurnResult contains the result of one decision
type TurnResult struct {
	Success   bool               `json:"success"`
	Decision  string             `json:"decision"`
	Record    *engine.TurnRecord `json:"record,omitempty"`
	Snapshot  engine.Snapshot    `json:"snapshot"`
	GameState *engine.GameState  `json:"game_state"`
	Message   string             `json:"message"`
	Events    []GameEvent        `json:"events,omitempty"`
	Result    *engine.RunResult  `json:"result,omitempty"` // set once the run terminated
	LocalView []string           `json:"local_view,omitempty"`
}

// BulkTurnResult contains the result of several decisions played in order
type BulkTurnResult struct {
	// Summary
	TurnsExecuted  int               `json:"turns_executed"`
	RequestedTurns int               `json:"requested_turns"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // run_finished|escaped|exhausted or a rule kind
	StoppedOnTurn  int               `json:"stopped_on_turn,omitempty"`  // 1-based index of the decision that ended the run
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartTick   int             `json:"start_tick"`
	EndTick     int             `json:"end_tick"`
	StartPos    engine.Position `json:"start_pos"`
	EndPos      engine.Position `json:"end_pos"`
	RocksBefore int             `json:"rocks_before"`
	RocksAfter  int             `json:"rocks_after"`

	Turns []engine.TurnRecord `json:"turns,omitempty"`

	Result    *engine.RunResult `json:"result,omitempty"`
	Message   string            `json:"message,omitempty"`
	LocalView []string          `json:"local_view,omitempty"`
}

// GameEvent represents something that happened during a turn
type GameEvent struct {
	Type      string          `json:"type"` // "rotate", "wait", "move", "rock_eliminated", "escaped", "crash", "exhausted", "reset"
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position,omitempty"`
}

// HistoryOptions configures turn history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated turn history
type HistoryResponse struct {
	Turns       []engine.TurnRecord `json:"turns"`
	TotalTurns  int                 `json:"total_turns"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
	TotalPages  int                 `json:"total_pages"`
	HasNext     bool                `json:"has_next"`
	HasPrevious bool                `json:"has_previous"`
}

// LevelInfo provides information about a level file
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Rocks       int    `json:"rocks"`
	MaxTicks    int    `json:"max_ticks"`
	Format      string `json:"format"` // "json" or "text"
}
