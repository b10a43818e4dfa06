// Command bruteforcer solves Rock Maze levels by breadth-first search over the
// decisions an agent may send, then plays the plan against a running server.
// With --level-file it works offline and prints the plan as a judge script.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/rockmaze/game/config"
	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/service"
)

// Client plays a session through the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	return nil
}

// CreateSession starts a run on levelID (empty for the server's default level)
func (c *Client) CreateSession(ctx context.Context, levelID string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", map[string]string{"level_id": levelID}, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return &session, nil
}

// GetSession loads an existing session and makes it the current one
func (c *Client) GetSession(ctx context.Context, id string) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+id, nil, &session); err != nil {
		return nil, err
	}
	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) Reset(ctx context.Context) (*engine.GameState, error) {
	var resp struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/reset", nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

// Play sends the plan in batches the server accepts and returns the last batch result
func (c *Client) Play(ctx context.Context, plan []string) (*service.BulkTurnResult, error) {
	var last *service.BulkTurnResult
	for start := 0; start < len(plan); start += service.MaxBulkTurns {
		end := start + service.MaxBulkTurns
		if end > len(plan) {
			end = len(plan)
		}

		var result service.BulkTurnResult
		body := map[string]interface{}{"decisions": plan[start:end]}
		if err := c.do(ctx, http.MethodPost, "/api/sessions/"+c.sessionID+"/decisions", body, &result); err != nil {
			return last, err
		}
		last = &result

		log.WithFields(log.Fields{
			"executed": result.TurnsExecuted,
			"tick":     result.EndTick,
			"stop":     result.StopReasonCode,
		}).Debug("Batch played")

		if result.Result != nil {
			break
		}
	}
	return last, nil
}

func loadLevelFile(path string) (*engine.Level, error) {
	if filepath.Ext(path) != ".in" {
		return engine.LoadLevel(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	level, err := config.ParseLevelText(f, strings.TrimSuffix(filepath.Base(path), ".in"))
	if err != nil {
		return nil, err
	}
	return level, engine.ValidateLevel(level)
}

func writeScript(w io.Writer, level *engine.Level, plan []string) error {
	if _, err := fmt.Fprintf(w, "# %s: %d decision(s)\n", level.Name, len(plan)); err != nil {
		return err
	}
	for _, d := range plan {
		if _, err := fmt.Fprintln(w, d); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("v") {
		log.SetLevel(log.DebugLevel)
	}
	planner := NewPlanner(int(cmd.Int("radius")), int(cmd.Int("max-nodes")))

	if path := cmd.String("level-file"); path != "" {
		level, err := loadLevelFile(path)
		if err != nil {
			return fmt.Errorf("load level: %w", err)
		}
		plan, err := planner.Plan(level)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"level": level.Name, "ticks": len(plan), "expanded": planner.Expanded()}).Info("Plan found")
		return writeScript(os.Stdout, level, plan)
	}

	client := NewClient(cmd.String("url"))
	log.WithField("url", cmd.String("url")).Info("Connecting to judge server")

	var session *service.SessionInfo
	var err error
	if id := cmd.String("continue"); id != "" {
		session, err = client.GetSession(ctx, id)
		if err != nil {
			log.WithError(err).Warn("Failed to resume session, creating a new one")
		}
	}
	if session == nil {
		session, err = client.CreateSession(ctx, cmd.String("level"))
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		log.WithField("session", session.ID).Info("Session created")
	}

	if _, err := client.Reset(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	plan, err := planner.Plan(session.Level)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"session":  session.ID,
		"level":    session.Level.Name,
		"ticks":    len(plan),
		"expanded": planner.Expanded(),
	}).Info("Plan found, playing")

	result, err := client.Play(ctx, plan)
	if err != nil {
		return err
	}
	if result == nil || result.Result == nil || result.Result.Status != engine.Succeeded {
		return cli.Exit(fmt.Sprintf("plan did not escape: %+v", result), 1)
	}

	log.WithFields(log.Fields{
		"session": session.ID,
		"ticks":   result.Result.Ticks,
	}).Info("Escaped")
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "bruteforcer",
		Usage: "solve Rock Maze levels by breadth-first search",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "judge server URL"},
			&cli.StringFlag{Name: "level", Usage: "level ID for a new session (empty for the default level)"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "level-file", Usage: "solve a local level file and print the plan as a script"},
			&cli.IntFlag{Name: "radius", Value: 2, Usage: "rotate rooms at most this far from the explorer"},
			&cli.IntFlag{Name: "max-nodes", Value: 200000, Usage: "maximum worlds to expand"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
