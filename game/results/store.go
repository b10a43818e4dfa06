package results

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

var ErrRecordNotFound = errors.New("result not found")

// Record is the outcome of one terminated run
type Record struct {
	ID         string        `json:"id"`
	SessionID  string        `json:"session_id"`
	LevelID    string        `json:"level_id"`
	LevelName  string        `json:"level_name"`
	Status     engine.Status `json:"status"`
	Reason     string        `json:"reason,omitempty"`
	Kind       string        `json:"kind,omitempty"`
	Ticks      int           `json:"ticks"`
	Turns      int           `json:"turns"`
	RocksLeft  int           `json:"rocks_left"`
	FinishedAt time.Time     `json:"finished_at"`
}

// NewRecord captures the result of a terminated run
func NewRecord(sessionID, levelID string, state *engine.GameState) *Record {
	return &Record{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		LevelID:    levelID,
		LevelName:  state.LevelName,
		Status:     state.Status,
		Reason:     state.Reason,
		Kind:       state.FailureKind,
		Ticks:      state.Tick,
		Turns:      len(state.History),
		RocksLeft:  len(state.Rocks),
		FinishedAt: time.Now().UTC(),
	}
}

// Store defines the interface for result persistence
type Store interface {
	Save(r *Record) error
	Get(id string) (*Record, error)
	// List returns the most recent records first. A limit of 0 returns everything.
	List(limit int) ([]*Record, error)
	Close() error
}

// Open returns a PostgreSQL store when dsn is set, otherwise a JSON file store at path
func Open(dsn, path string) (Store, error) {
	if dsn != "" {
		return NewPostgresStore(dsn)
	}
	return NewJSONStore(path)
}
