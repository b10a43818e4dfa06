package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

var (
	// ErrTurnTimeout is returned when the agent does not answer within the turn timeout
	ErrTurnTimeout = errors.New("agent did not answer in time")
	// ErrAgentClosed is returned once the agent's output has ended
	ErrAgentClosed = errors.New("agent closed its output")
)

type lineResult struct {
	line string
	err  error
}

// StreamAgent talks to an agent over a reader/writer pair using the line protocol.
// Lines are read by a background goroutine so a turn can time out or be cancelled
// while the agent is silent.
type StreamAgent struct {
	w           *bufio.Writer
	r           io.Reader
	turnTimeout time.Duration
	name        string

	lines     chan lineResult
	startOnce sync.Once
	closed    bool
}

// Option configures a StreamAgent
type Option func(*StreamAgent)

// WithTurnTimeout bounds the time the agent has to answer each snapshot. Zero waits forever.
func WithTurnTimeout(d time.Duration) Option {
	return func(a *StreamAgent) {
		a.turnTimeout = d
	}
}

// WithName sets the name used in log fields
func WithName(name string) Option {
	return func(a *StreamAgent) {
		a.name = name
	}
}

// NewStreamAgent creates an agent that reads decisions from r and writes the world to w
func NewStreamAgent(r io.Reader, w io.Writer, opts ...Option) *StreamAgent {
	a := &StreamAgent{
		w:     bufio.NewWriter(w),
		r:     r,
		lines: make(chan lineResult, 1),
		name:  "agent",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Brief sends the maze before the first tick
func (a *StreamAgent) Brief(ctx context.Context, b engine.Briefing) error {
	if err := WriteBriefing(a.w, b); err != nil {
		return fmt.Errorf("failed to write briefing: %w", err)
	}
	if err := a.w.Flush(); err != nil {
		return fmt.Errorf("failed to write briefing: %w", err)
	}
	log.WithFields(log.Fields{"agent": a.name, "width": b.Width, "height": b.Height}).Debug("Briefing sent")
	return nil
}

// Decide sends the snapshot and waits for one decision line
func (a *StreamAgent) Decide(ctx context.Context, snap engine.Snapshot) (string, error) {
	if a.closed {
		return "", ErrAgentClosed
	}
	a.startOnce.Do(func() {
		go a.readLoop()
	})

	if err := WriteSnapshot(a.w, snap); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := a.w.Flush(); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	var timeout <-chan time.Time
	if a.turnTimeout > 0 {
		timer := time.NewTimer(a.turnTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res, ok := <-a.lines:
		if !ok {
			a.closed = true
			return "", ErrAgentClosed
		}
		if res.err != nil {
			a.closed = true
			return "", fmt.Errorf("failed to read decision: %w", res.err)
		}
		log.WithFields(log.Fields{"agent": a.name, "tick": snap.Tick, "decision": res.line}).Debug("Decision received")
		return res.line, nil
	case <-timeout:
		log.WithFields(log.Fields{"agent": a.name, "tick": snap.Tick, "timeout": a.turnTimeout}).Warn("Agent timed out")
		return "", fmt.Errorf("%w after %s at tick %d", ErrTurnTimeout, a.turnTimeout, snap.Tick)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// readLoop forwards every line until the reader ends. A blank line is a decision too,
// and the engine rejects it as malformed.
func (a *StreamAgent) readLoop() {
	defer close(a.lines)

	scanner := bufio.NewScanner(a.r)
	for scanner.Scan() {
		a.lines <- lineResult{line: strings.TrimSpace(scanner.Text())}
	}
	if err := scanner.Err(); err != nil {
		a.lines <- lineResult{err: err}
	}
}
