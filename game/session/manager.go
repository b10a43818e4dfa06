package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// idAttempts bounds retries when a generated ID is already taken
const idAttempts = 16

// Retention sets how long an untouched session stays in memory. A zero duration keeps it forever.
type Retention struct {
	// Idle applies to runs still in flight
	Idle time.Duration
	// Finished applies to runs that succeeded, failed or exhausted their budget
	Finished time.Duration
}

// run is a session plus what the manager last learned about its outcome
type run struct {
	session    *service.Session
	finishedAt time.Time // zero while the run is in flight
}

func (r *run) expired(now time.Time, keep Retention) bool {
	ttl := keep.Idle
	if !r.finishedAt.IsZero() {
		ttl = keep.Finished
	}
	return ttl > 0 && r.session.LastAccessedAt.Before(now.Add(-ttl))
}

// Manager keeps in-flight runs keyed by lower-case ID.
//
// The manager never steps an engine. Engine state is read only in Save and on load, and
// callers of Save must own the engine the way the game service does.
type Manager struct {
	runs        map[string]*run
	persistence SessionPersistence
	mu          sync.RWMutex
}

// NewManager creates a manager that keeps sessions in memory only
func NewManager() *Manager {
	return &Manager{runs: make(map[string]*run)}
}

// NewManagerWithPersistence creates a manager that writes every session through persistence
func NewManagerWithPersistence(persistence SessionPersistence) *Manager {
	m := NewManager()
	m.persistence = persistence
	return m
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Create starts a run of level. IDs are stored lower-case; an empty id gets a generated one.
func (m *Manager) Create(id, levelID string, level *engine.Level) (*service.Session, error) {
	eng, err := engine.NewEngine(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		if id, err = m.freeIDLocked(); err != nil {
			return nil, err
		}
	}
	id = normalizeID(id)
	if !validID(id) {
		return nil, ErrInvalidSessionID
	}
	if _, exists := m.runs[id]; exists {
		return nil, ErrSessionAlreadyExists
	}

	now := time.Now()
	sess := &service.Session{
		ID:             id,
		LevelID:        levelID,
		Engine:         eng,
		Level:          level,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	m.runs[id] = &run{session: sess}

	if m.persistence != nil {
		if err := m.persistence.Save(sess); err != nil {
			log.WithFields(log.Fields{"session": id, "error": err}).Warn("Failed to persist new session")
		}
	}

	return sess, nil
}

// freeIDLocked returns a 4 hex character ID not used in memory or storage
func (m *Manager) freeIDLocked() (string, error) {
	buf := make([]byte, 2)
	for i := 0; i < idAttempts; i++ {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate session ID: %w", err)
		}
		id := hex.EncodeToString(buf)
		if _, taken := m.runs[id]; taken {
			continue
		}
		if m.persistence != nil && m.persistence.Exists(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: no free ID after %d attempts", ErrSessionAlreadyExists, idAttempts)
}

// Get returns a session, loading it from storage when it is not in memory
func (m *Manager) Get(id string) (*service.Session, error) {
	key := normalizeID(id)

	m.mu.RLock()
	r, ok := m.runs[key]
	m.mu.RUnlock()
	if ok {
		return r.session, nil
	}

	if m.persistence == nil || !m.persistence.Exists(key) {
		return nil, ErrSessionNotFound
	}
	sess, err := m.persistence.Load(key)
	if err != nil {
		return nil, fmt.Errorf("failed to load persisted session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// another caller may have loaded it meanwhile
	if r, ok := m.runs[key]; ok {
		return r.session, nil
	}
	m.runs[key] = loadedRun(sess)
	return sess, nil
}

func loadedRun(sess *service.Session) *run {
	r := &run{session: sess}
	if sess.Engine.IsOver() {
		r.finishedAt = sess.LastAccessedAt
	}
	return r
}

// List returns all sessions in memory
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.runs))
	for _, r := range m.runs {
		result = append(result, r.session)
	}
	return result
}

// Delete removes a session from memory and storage
func (m *Manager) Delete(id string) error {
	key := normalizeID(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	_, inMemory := m.runs[key]
	delete(m.runs, key)

	if m.persistence != nil && m.persistence.Exists(key) {
		if err := m.persistence.Delete(key); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}
	if !inMemory {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteFromMemory drops a session from memory and leaves its file alone
func (m *Manager) DeleteFromMemory(id string) error {
	key := normalizeID(id)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[key]; !ok {
		return ErrSessionNotFound
	}
	delete(m.runs, key)
	return nil
}

// UpdateLastAccessed marks a session as used now
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[normalizeID(id)]
	if !ok {
		return ErrSessionNotFound
	}
	r.session.LastAccessedAt = time.Now()
	return nil
}

// Save records whether the run has finished and writes the session to storage.
// The caller must own the session's engine.
func (m *Manager) Save(id string) error {
	m.mu.Lock()
	r, ok := m.runs[normalizeID(id)]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	switch over := r.session.Engine.IsOver(); {
	case over && r.finishedAt.IsZero():
		r.finishedAt = time.Now()
		log.WithFields(log.Fields{"session": r.session.ID, "status": r.session.Engine.Status()}).Debug("Run marked finished")
	case !over:
		r.finishedAt = time.Time{}
	}
	sess := r.session
	m.mu.Unlock()

	if m.persistence == nil {
		return nil
	}
	return m.persistence.Save(sess)
}

// CleanupExpiredSessions drops sessions left untouched for longer than keep allows.
// Finished runs follow keep.Finished, runs in flight keep.Idle. Files stay on disk.
func (m *Manager) CleanupExpiredSessions(keep Retention) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, r := range m.runs {
		if r.expired(now, keep) {
			delete(m.runs, key)
			removed++
		}
	}
	return removed
}

// Count returns the number of sessions in memory
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.runs)
}

// LoadPersistedSessions loads every stored session not already in memory
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil
	}

	ids, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	loaded, finished := 0, 0
	for _, id := range ids {
		key := normalizeID(id)
		if _, ok := m.runs[key]; ok {
			continue
		}

		sess, err := m.persistence.Load(id)
		if err != nil {
			log.WithFields(log.Fields{"session": id, "error": err}).Warn("Failed to load persisted session")
			continue
		}

		r := loadedRun(sess)
		if !r.finishedAt.IsZero() {
			finished++
		}
		m.runs[key] = r
		loaded++
	}

	if loaded > 0 {
		log.WithFields(log.Fields{"count": loaded, "finished": finished}).Info("Loaded persisted sessions from storage")
	}
	return nil
}

// SaveAllSessions writes every session in memory. Only call it once no run is being stepped.
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil
	}

	failed := 0
	for _, sess := range m.List() {
		if err := m.Save(sess.ID); err != nil {
			log.WithFields(log.Fields{"session": sess.ID, "error": err}).Warn("Failed to save session")
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("failed to save %d sessions", failed)
	}
	return nil
}
