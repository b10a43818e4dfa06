package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

func TestFilePersistence(t *testing.T) {
	dir := t.TempDir()
	persistence, err := NewFilePersistence(filepath.Join(dir, "sessions"))
	require.NoError(t, err)

	manager := NewManager()
	session, err := manager.Create("persist", "gate", createTestLevel())
	require.NoError(t, err)
	_, err = session.Engine.Step("1 0 RIGHT")
	require.NoError(t, err)

	t.Run("save and load keep the run", func(t *testing.T) {
		require.NoError(t, persistence.Save(session))
		assert.True(t, persistence.Exists("persist"))

		loaded, err := persistence.Load("persist")
		require.NoError(t, err)

		assert.Equal(t, "gate", loaded.LevelID)
		state := loaded.Engine.GetState()
		assert.Equal(t, 1, state.Tick)
		assert.Equal(t, engine.Room(13), state.Maze.Rooms[0][1])
		assert.Equal(t, engine.Mover{Pos: engine.Position{X: 1, Y: 0}, Entry: engine.Left}, state.Protagonist)
		require.Len(t, state.History, 1)
		assert.Equal(t, "1 0 RIGHT", state.History[0].Decision)

		// the loaded run continues where it stopped
		rec, err := loaded.Engine.Step("WAIT")
		require.NoError(t, err)
		assert.Equal(t, engine.Succeeded, rec.Status)
	})

	t.Run("list", func(t *testing.T) {
		ids, err := persistence.ListAll()
		require.NoError(t, err)
		assert.Equal(t, []string{"persist"}, ids)
	})

	t.Run("file structure", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(dir, "sessions", "persist.json"))
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		for _, key := range []string{"id", "level_id", "created_at", "last_accessed_at", "level", "game_state"} {
			assert.Contains(t, raw, key)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := persistence.Load("nope")
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, persistence.Delete("nope"), ErrSessionNotFound)
	})

	t.Run("path-like IDs", func(t *testing.T) {
		_, err := persistence.Load("../persist")
		assert.ErrorIs(t, err, ErrInvalidSessionID)
		assert.False(t, persistence.Exists("../persist"))
	})

	t.Run("corrupt file", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "sessions", "bad.json"), []byte("{"), 0644))
		_, err := persistence.Load("bad")
		assert.Error(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, persistence.Delete("persist"))
		assert.False(t, persistence.Exists("persist"))
	})
}

func TestManagerWithPersistence(t *testing.T) {
	persistence, err := NewFilePersistence(t.TempDir())
	require.NoError(t, err)
	manager := NewManagerWithPersistence(persistence)

	t.Run("create auto-saves", func(t *testing.T) {
		_, err := manager.Create("auto1", "gate", createTestLevel())
		require.NoError(t, err)
		assert.True(t, persistence.Exists("auto1"))
	})

	t.Run("get loads from persistence", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		session, err := fresh.Get("auto1")
		require.NoError(t, err)
		assert.Equal(t, "auto1", session.ID)

		again, err := fresh.Get("auto1")
		require.NoError(t, err)
		assert.Same(t, session, again, "session should be cached after loading")
	})

	t.Run("save after step", func(t *testing.T) {
		session, _ := manager.Get("auto1")
		session.Engine.Step("WAIT")
		require.NoError(t, manager.Save("auto1"))

		loaded, err := persistence.Load("auto1")
		require.NoError(t, err)
		assert.Equal(t, engine.Failed, loaded.Engine.Status())
	})

	t.Run("load all", func(t *testing.T) {
		fresh := NewManagerWithPersistence(persistence)
		require.NoError(t, fresh.LoadPersistedSessions())
		assert.Equal(t, 1, fresh.Count())
		require.NoError(t, fresh.SaveAllSessions())
	})

	t.Run("delete removes file", func(t *testing.T) {
		require.NoError(t, manager.Delete("auto1"))
		assert.False(t, persistence.Exists("auto1"))
	})

	t.Run("delete from memory keeps file", func(t *testing.T) {
		_, err := manager.Create("mem", "gate", createTestLevel())
		require.NoError(t, err)
		require.NoError(t, manager.DeleteFromMemory("mem"))
		assert.True(t, persistence.Exists("mem"))
	})
}
