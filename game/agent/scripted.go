package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

// ErrScriptExhausted is returned when a scripted agent has no decisions left
var ErrScriptExhausted = errors.New("script has no decisions left")

// ScriptedAgent replays a fixed list of decisions, one per tick
type ScriptedAgent struct {
	decisions []string
	next      int
	briefing  *engine.Briefing
	seen      []engine.Snapshot
}

// NewScriptedAgent creates an agent replaying decisions in order
func NewScriptedAgent(decisions ...string) *ScriptedAgent {
	return &ScriptedAgent{decisions: decisions}
}

// ReadScript reads one decision per non-empty line. Lines starting with '#' are comments.
func ReadScript(r io.Reader) (*ScriptedAgent, error) {
	var decisions []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		decisions = append(decisions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return NewScriptedAgent(decisions...), nil
}

// Brief records the briefing
func (a *ScriptedAgent) Brief(ctx context.Context, b engine.Briefing) error {
	a.briefing = &b
	return nil
}

// Decide returns the next scripted decision
func (a *ScriptedAgent) Decide(ctx context.Context, snap engine.Snapshot) (string, error) {
	a.seen = append(a.seen, snap)
	if a.next >= len(a.decisions) {
		return "", ErrScriptExhausted
	}
	d := a.decisions[a.next]
	a.next++
	return d, nil
}

// Briefing returns the briefing received, or nil
func (a *ScriptedAgent) Briefing() *engine.Briefing {
	return a.briefing
}

// Seen returns the snapshots received so far
func (a *ScriptedAgent) Seen() []engine.Snapshot {
	return a.seen
}

// Remaining returns the number of decisions not yet played
func (a *ScriptedAgent) Remaining() int {
	return len(a.decisions) - a.next
}
