package agent

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

func gateLevel() *engine.Level {
	return &engine.Level{
		Name:   "Gate",
		Width:  2,
		Height: 2,
		Rooms: [][]int{
			{2, 12},
			{0, 0},
		},
		ExitX: 1,
		Start: engine.Placement{X: 0, Y: 0, Entry: engine.Left},
	}
}

func TestWriteBriefing(t *testing.T) {
	eng, err := engine.NewEngine(gateLevel())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteBriefing(&buf, eng.GetState().Maze.Briefing()))
	assert.Equal(t, "2 2\n2 12\n0 0\n1\n", buf.String())
}

func TestWriteSnapshot(t *testing.T) {
	snap := engine.Snapshot{
		Tick:        3,
		Protagonist: engine.Mover{Pos: engine.Position{X: 1, Y: 0}, Entry: engine.Up},
		Rocks: []engine.Mover{
			{Pos: engine.Position{X: 2, Y: 2}, Entry: engine.Right},
			{Pos: engine.Position{X: 0, Y: 1}, Entry: engine.Left},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, snap))
	assert.Equal(t, "1 0 TOP\n2\n2 2 RIGHT\n0 1 LEFT\n", buf.String())
}

func TestStreamAgent_PlaysRun(t *testing.T) {
	eng, err := engine.NewEngine(gateLevel())
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewStreamAgent(strings.NewReader("1 0 RIGHT\nWAIT\n"), &out, WithName("test"))

	res, err := eng.Play(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, engine.Succeeded, res.Status)
	assert.Equal(t, 2, res.Ticks)

	expected := "2 2\n2 12\n0 0\n1\n" + // briefing
		"0 0 LEFT\n0\n" + // tick 0
		"1 0 LEFT\n0\n" // tick 1
	assert.Equal(t, expected, out.String())
}

func TestStreamAgent_BlankLineIsMalformed(t *testing.T) {
	eng, err := engine.NewEngine(gateLevel())
	require.NoError(t, err)

	a := NewStreamAgent(strings.NewReader("1 0 RIGHT\n\nWAIT\n"), io.Discard)

	res, err := eng.Play(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, engine.Failed, res.Status)
	assert.Equal(t, "MalformedDecision", res.Kind)
	assert.Equal(t, 1, res.Ticks)
}

func TestStreamAgent_ClosedOutput(t *testing.T) {
	eng, _ := engine.NewEngine(gateLevel())
	a := NewStreamAgent(strings.NewReader("1 0 RIGHT\n"), io.Discard)

	res, err := eng.Play(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, engine.Failed, res.Status)
	assert.Equal(t, "MalformedDecision", res.Kind)

	_, err = a.Decide(context.Background(), eng.Snapshot())
	assert.ErrorIs(t, err, ErrAgentClosed)
}

func TestStreamAgent_TurnTimeout(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	a := NewStreamAgent(r, io.Discard, WithTurnTimeout(20*time.Millisecond))
	_, err := a.Decide(context.Background(), engine.Snapshot{})
	assert.ErrorIs(t, err, ErrTurnTimeout)

	eng, _ := engine.NewEngine(gateLevel())
	res, err := eng.Play(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, "MalformedDecision", res.Kind, "a silent agent fails the run")
}

func TestStreamAgent_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	a := NewStreamAgent(r, io.Discard)

	done := make(chan error, 1)
	go func() {
		_, err := a.Decide(ctx, engine.Snapshot{})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Decide did not return after cancellation")
	}
}

func TestScriptedAgent(t *testing.T) {
	a, err := ReadScript(strings.NewReader("# open the gate\n1 0 RIGHT\n\nWAIT\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Remaining())

	eng, _ := engine.NewEngine(gateLevel())
	res, err := eng.Play(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, engine.Succeeded, res.Status)

	require.NotNil(t, a.Briefing())
	assert.Equal(t, 1, a.Briefing().ExitX)
	assert.Len(t, a.Seen(), 2)
	assert.Equal(t, 0, a.Remaining())

	_, err = a.Decide(context.Background(), engine.Snapshot{})
	assert.ErrorIs(t, err, ErrScriptExhausted)
}
