package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/results"
)

// MaxBulkTurns caps the decisions accepted by one SubmitDecisions call
const MaxBulkTurns = 100

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	results  results.Store
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. store may be nil, in which case
// finished runs are not recorded.
func NewGameService(sessions SessionManager, levels LevelManager, store results.Store) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		results:  store,
	}
}

// CreateSession starts a run on a level. An empty levelID uses the default level.
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.Level
	var err error
	if levelID != "" {
		level, err = s.levels.LoadLevel(levelID)
		if err != nil {
			if errors.Is(err, ErrLevelNotFound) {
				available, listErr := s.levels.ListLevels()
				if listErr == nil && len(available) > 0 {
					var ids []string
					for _, l := range available {
						ids = append(ids, l.LevelID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available levels: %v", ErrLevelNotFound, levelID, ids)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/levels to list available levels", ErrLevelNotFound, levelID)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelID, err)
		}
	} else {
		levelID, level = s.levels.GetDefault()
	}

	sess, err := s.sessions.Create("", levelID, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.WithFields(log.Fields{"session": sess.ID, "level": levelID}).Info("Session created")
	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// SubmitDecision plays one decision and one tick
func (s *gameServiceImpl) SubmitDecision(ctx context.Context, sessionID, decision string, reset bool) (*TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	rec, err := sess.Engine.Step(decision)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	state := sess.Engine.GetState().Clone()
	events = append(events, turnEvents(rec, state)...)

	record := rec.Clone()
	result := &TurnResult{
		Success:   rec.Status != engine.Failed,
		Decision:  rec.Decision,
		Record:    &record,
		Snapshot:  sess.Engine.Snapshot(),
		GameState: state,
		Message:   state.Message,
		Events:    events,
		LocalView: buildLocalView(state),
	}
	if sess.Engine.IsOver() {
		res := sess.Engine.Result()
		result.Result = &res
		s.recordResult(sess)
	}

	log.WithFields(log.Fields{
		"session":  sessionID,
		"tick":     rec.Tick,
		"decision": rec.Decision,
		"status":   rec.Status,
	}).Debug("Turn played")

	s.save(sessionID)
	return result, nil
}

// SubmitDecisions plays decisions in order until they run out or the run terminates
func (s *gameServiceImpl) SubmitDecisions(ctx context.Context, sessionID string, decisions []string, reset bool) (*BulkTurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkTurnResult{
		RequestedTurns: len(decisions),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}

	wasOver := sess.Engine.IsOver()
	start := sess.Engine.GetState()
	result.StartTick = start.Tick
	result.StartPos = start.Protagonist.Pos
	result.RocksBefore = len(start.Rocks)

	if len(decisions) > MaxBulkTurns {
		result.Truncated = true
		result.Limit = MaxBulkTurns
		decisions = decisions[:MaxBulkTurns]
	}

	for i, decision := range decisions {
		if sess.Engine.IsOver() {
			result.StoppedReason = "run already finished"
			result.StopReasonCode = "run_finished"
			result.StoppedOnTurn = i + 1
			break
		}

		rec, err := sess.Engine.Step(decision)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", sessionID, err)
		}
		result.TurnsExecuted++
		result.Turns = append(result.Turns, rec.Clone())
		result.Events = append(result.Events, turnEvents(rec, sess.Engine.GetState())...)

		if sess.Engine.IsOver() {
			result.StoppedOnTurn = i + 1
			break
		}
	}

	end := sess.Engine.GetState().Clone()
	result.GameState = end
	result.EndTick = end.Tick
	result.EndPos = end.Protagonist.Pos
	result.RocksAfter = len(end.Rocks)
	result.Message = end.Message
	result.LocalView = buildLocalView(end)

	if sess.Engine.IsOver() {
		res := sess.Engine.Result()
		result.Result = &res
		result.Success = res.Status != engine.Failed
		if result.StopReasonCode == "" {
			result.StopReasonCode = stopReasonCode(res)
			result.StoppedReason = end.Message
		}
		if !wasOver {
			s.recordResult(sess)
		}
	}

	s.save(sessionID)
	return result, nil
}

// Reset restarts a run from its level
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Reset().Clone()
	s.save(sessionID)
	return state, nil
}

// GetGameState retrieves the full run state, maze and inactive rocks included
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState().Clone(), nil
}

// GetSnapshot returns what the agent may see at the current tick
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*engine.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	snap := sess.Engine.Snapshot()
	return &snap, nil
}

// GetTurnHistory returns paginated turn history
func (s *gameServiceImpl) GetTurnHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	turns := []engine.TurnRecord{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				turns = append(turns, history[i].Clone())
			}
		} else {
			for _, rec := range history[start:end] {
				turns = append(turns, rec.Clone())
			}
		}
	}

	return &HistoryResponse{
		Turns:       turns,
		TotalTurns:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID string) (*engine.Level, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel saves a level to the level directory
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelID string, level *engine.Level) error {
	return s.levels.SaveLevel(levelID, level)
}

// ListResults returns recorded results, newest first
func (s *gameServiceImpl) ListResults(ctx context.Context, limit int) ([]*results.Record, error) {
	if s.results == nil {
		return []*results.Record{}, nil
	}
	return s.results.List(limit)
}

// getSession touches the session, so callers must hold the write lock
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) save(sessionID string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.WithFields(log.Fields{"session": sessionID, "error": err}).Warn("Failed to persist session")
	}
}

func (s *gameServiceImpl) recordResult(sess *Session) {
	state := sess.Engine.GetState()
	fields := log.Fields{"session": sess.ID, "level": sess.LevelID, "status": state.Status, "ticks": state.Tick}
	if state.FailureKind != "" {
		fields["kind"] = state.FailureKind
	}
	log.WithFields(fields).Info("Run finished")

	if s.results == nil {
		return
	}
	if err := s.results.Save(results.NewRecord(sess.ID, sess.LevelID, state)); err != nil {
		log.WithFields(log.Fields{"session": sess.ID, "error": err}).Warn("Failed to record result")
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        sess.LevelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState().Clone(),
		Level:          sess.Level,
	}
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      "reset",
		Message:   "Run reset to initial state",
		Timestamp: time.Now(),
	}
}

// rejectionKinds fail a turn before the tick runs
var rejectionKinds = map[string]bool{
	"MalformedDecision":        true,
	"OccupiedCell":             true,
	"NotRotatable":             true,
	"InvalidRotationDirection": true,
}

// turnEvents describes one turn record as a list of events
func turnEvents(rec *engine.TurnRecord, state *engine.GameState) []GameEvent {
	now := time.Now()
	var events []GameEvent

	if rec.Status == engine.Failed && rejectionKinds[state.FailureKind] {
		return append(events, GameEvent{
			Type:      "rejected",
			Message:   fmt.Sprintf("Decision %q rejected: %s", rec.Decision, rec.Error),
			Timestamp: now,
			Position:  rec.From,
		})
	}

	if d, err := engine.ParseDecision(rec.Decision); err == nil {
		if d.Wait {
			events = append(events, GameEvent{Type: "wait", Message: "No rotation this tick", Timestamp: now})
		} else {
			events = append(events, GameEvent{
				Type:      "rotate",
				Message:   fmt.Sprintf("Rotated room at %d %d %s", d.Pos.X, d.Pos.Y, d.Rotation),
				Timestamp: now,
				Position:  d.Pos,
			})
		}
	}

	if rec.To != rec.From {
		events = append(events, GameEvent{
			Type:      "move",
			Message:   fmt.Sprintf("Explorer moved to (%d,%d)", rec.To.X, rec.To.Y),
			Timestamp: now,
			Position:  rec.To,
		})
	}

	for _, e := range rec.Eliminations {
		events = append(events, GameEvent{
			Type:      "rock_eliminated",
			Message:   eliminationMessage(e),
			Timestamp: now,
			Position:  e.To,
		})
	}

	switch rec.Status {
	case engine.Succeeded:
		events = append(events, GameEvent{Type: "escaped", Message: state.Message, Timestamp: now, Position: rec.To})
	case engine.Failed:
		events = append(events, GameEvent{Type: "crash", Message: rec.Error, Timestamp: now, Position: rec.To})
	case engine.Exhausted:
		events = append(events, GameEvent{Type: "exhausted", Message: state.Message, Timestamp: now})
	}

	return events
}

func eliminationMessage(e engine.Elimination) string {
	switch e.Rule {
	case engine.LeftMaze:
		return fmt.Sprintf("Rock from %d %d left the maze", e.From.X, e.From.Y)
	case engine.DeadEndRule:
		return fmt.Sprintf("Rock at %d %d hit a dead end", e.From.X, e.From.Y)
	case engine.WallCrashRule:
		return fmt.Sprintf("Rock entering %d %d crashed into a wall", e.To.X, e.To.Y)
	case engine.RockCollision:
		return fmt.Sprintf("Rock from %d %d crashed into another rock at %d %d", e.From.X, e.From.Y, e.To.X, e.To.Y)
	case engine.DeadEndAhead:
		return fmt.Sprintf("Rock at %d %d has no way out", e.To.X, e.To.Y)
	}
	return fmt.Sprintf("Rock %d eliminated (%s)", e.Index, e.Rule)
}

func stopReasonCode(res engine.RunResult) string {
	switch res.Status {
	case engine.Succeeded:
		return "escaped"
	case engine.Exhausted:
		return "exhausted"
	}
	return res.Kind
}

// buildLocalView renders the 3x3 room codes around the explorer. The explorer's room is
// marked with '*', cells outside the maze with '#'.
func buildLocalView(state *engine.GameState) []string {
	if state == nil || state.Maze == nil {
		return nil
	}
	px, py := state.Protagonist.Pos.X, state.Protagonist.Pos.Y
	lines := make([]string, 0, 3)
	for dy := -1; dy <= 1; dy++ {
		cells := make([]string, 0, 3)
		for dx := -1; dx <= 1; dx++ {
			p := engine.Position{X: px + dx, Y: py + dy}
			if !state.Maze.InBounds(p) {
				cells = append(cells, "#")
				continue
			}
			cell := fmt.Sprintf("%d", state.Maze.RoomAt(p))
			if dx == 0 && dy == 0 {
				cell += "*"
			}
			cells = append(cells, cell)
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return lines
}
