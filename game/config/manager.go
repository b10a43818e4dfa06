package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/service"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

const (
	jsonExt = ".json"
	textExt = ".in"

	// DefaultLevelID is preferred as the default level when present in the directory
	DefaultLevelID = "default"
)

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultID    string
	defaultLevel *engine.Level
	levels       map[string]*engine.Level
	mu           sync.RWMutex
}

// NewManager creates a new level manager over a directory of .json and .in files
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
	}
	m.loadDefaultLevel()

	return m, nil
}

// LoadLevel loads a level by ID. The ID is a file name with or without extension;
// without one, the .json file wins over the .in file.
func (m *Manager) LoadLevel(id string) (*engine.Level, error) {
	m.mu.RLock()
	if level, exists := m.levels[id]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if level, exists := m.levels[id]; exists {
		return level, nil
	}

	level, err := m.readLevel(id)
	if err != nil {
		return nil, err
	}

	m.levels[id] = level
	return level, nil
}

// ListLevels returns information about all valid levels in the directory
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
	}

	var levels []*service.LevelInfo
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != jsonExt && ext != textExt) {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ext)
		if ext == textExt && names[id+jsonExt] {
			// the bare ID resolves to the JSON file
			id = entry.Name()
		}

		level, err := m.LoadLevel(id)
		if err != nil {
			log.WithFields(log.Fields{"file": entry.Name(), "error": err}).Debug("Skipping invalid level")
			continue
		}

		format := "json"
		if ext == textExt {
			format = "text"
		}

		levels = append(levels, &service.LevelInfo{
			Filename:    entry.Name(),
			LevelID:     id,
			Name:        level.Name,
			Description: level.Description,
			Width:       level.Width,
			Height:      level.Height,
			Rocks:       len(level.Rocks),
			MaxTicks:    level.Budget(),
			Format:      format,
		})
	}

	return levels, nil
}

// GetDefault returns the default level and its ID
func (m *Manager) GetDefault() (string, *engine.Level) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultID, m.defaultLevel
}

// SetDefault sets the default level by ID
func (m *Manager) SetDefault(id string) error {
	level, err := m.LoadLevel(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultID = id
	m.defaultLevel = level
	return nil
}

// RefreshCache drops cached levels and reloads the default from disk
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.mu.Unlock()

	m.loadDefaultLevel()
}

// SaveLevel validates and writes a level. An ID ending in .in is written in the text format,
// anything else as JSON.
func (m *Manager) SaveLevel(id string, level *engine.Level) error {
	if err := engine.ValidateLevel(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	if id == "" || strings.ContainsAny(id, `/\`) || strings.HasPrefix(id, ".") {
		return fmt.Errorf("%w: bad level id %q", ErrInvalidLevel, id)
	}

	filename := id
	if ext := filepath.Ext(id); ext != jsonExt && ext != textExt {
		filename = id + jsonExt
	}

	var data []byte
	if filepath.Ext(filename) == textExt {
		var buf bytes.Buffer
		if err := EncodeLevelText(&buf, level); err != nil {
			return fmt.Errorf("failed to encode level: %w", err)
		}
		data = buf.Bytes()
	} else {
		var err error
		data, err = json.MarshalIndent(level, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal level: %w", err)
		}
	}

	if err := os.WriteFile(filepath.Join(m.levelDir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[id] = level
	m.mu.Unlock()

	return nil
}

// readLevel reads and validates a level file. Callers hold the write lock.
func (m *Manager) readLevel(id string) (*engine.Level, error) {
	candidates := []string{id}
	if ext := filepath.Ext(id); ext != jsonExt && ext != textExt {
		candidates = []string{id + jsonExt, id + textExt}
	}

	for _, filename := range candidates {
		path := filepath.Join(m.levelDir, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read level file: %w", err)
		}

		var level *engine.Level
		if filepath.Ext(filename) == textExt {
			level, err = ParseLevelText(bytes.NewReader(data), strings.TrimSuffix(filename, textExt))
			if err != nil {
				return nil, err
			}
		} else {
			level = &engine.Level{}
			if err := json.Unmarshal(data, level); err != nil {
				return nil, fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidLevel, filename, err)
			}
		}

		if err := engine.ValidateLevel(level); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
		}
		return level, nil
	}

	return nil, ErrLevelNotFound
}

// loadDefaultLevel picks default.*, then the first valid level, then the built-in level
func (m *Manager) loadDefaultLevel() {
	id, level := DefaultLevelID, (*engine.Level)(nil)

	if l, err := m.LoadLevel(DefaultLevelID); err == nil {
		level = l
	} else if levels, listErr := m.ListLevels(); listErr == nil && len(levels) > 0 {
		id = levels[0].LevelID
		level, _ = m.LoadLevel(id)
	}

	if level == nil {
		id, level = DefaultLevelID, createMinimalLevel()
	}

	m.mu.Lock()
	m.defaultID = id
	m.defaultLevel = level
	m.mu.Unlock()
}

// createMinimalLevel is a small level with one rotation to make and one rock
func createMinimalLevel() *engine.Level {
	return &engine.Level{
		Name:        DefaultLevelID,
		Description: "Built-in level: rotate the corner at 2 0 to reach the exit",
		Width:       3,
		Height:      3,
		Rooms: [][]int{
			{2, 2, 12},
			{3, 0, 3},
			{3, 0, 3},
		},
		ExitX: 2,
		Start: engine.Placement{X: 0, Y: 0, Entry: engine.Left},
		Rocks: []engine.RockPlacement{
			{Placement: engine.Placement{X: 0, Y: 1, Entry: engine.Up}, ActiveFrom: 1},
		},
	}
}
