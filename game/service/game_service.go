package service

import (
	"context"
	"time"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/results"
)

// GameService defines all run-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Turn Operations
	SubmitDecision(ctx context.Context, sessionID, decision string, reset bool) (*TurnResult, error)
	SubmitDecisions(ctx context.Context, sessionID string, decisions []string, reset bool) (*BulkTurnResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Run State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error)
	GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelID string) (*engine.Level, error)
	SaveLevel(ctx context.Context, levelID string, level *engine.Level) error

	// Results
	ListResults(ctx context.Context, limit int) ([]*results.Record, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelID string, level *engine.Level) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(id string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() (string, *engine.Level)
	SaveLevel(id string, level *engine.Level) error
}

// Session represents an active run
type Session struct {
	ID             string
	LevelID        string
	Engine         *engine.GameEngine
	Level          *engine.Level
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
