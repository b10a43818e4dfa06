package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Rock Maze",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Rock Maze - MCP Interface

This is a thin client that proxies all requests to the REST API server.

OBJECTIVE:
Guide the explorer to the exit at the bottom row of the maze. The explorer moves on its own,
one room per tick, following the room's shape. You may rotate one room per tick to change the path.
Rocks roll through the maze the same way; touching one is fatal.

AVAILABLE TOOLS:
- create_session: Start a run on a level
- list_sessions / get_session: Inspect runs
- game_state: Maze, explorer and visible rocks
- decide: Play one tick with WAIT or "x y LEFT|RIGHT" - requires intent explanation
- bulk_decide: Play several ticks at once - requires intent explanation
- reset_game: Restart the run
- turn_history: Past turns
- list_levels: Available levels
- describe_room: Shape, exits and rotations of one room
- game_instructions: Full rules

NOTE: The 'intent' parameter on decide/bulk_decide serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionIDProp() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Start a new run, optionally on a specific level",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Level to play (optional, see list_levels)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active runs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGetSession)

	// Run operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the maze, the explorer and the rocks visible this tick",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "decide",
		Description: `Play one tick. The decision is WAIT or "x y LEFT|RIGHT" to rotate the room at x y`,
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp(),
				"decision": map[string]interface{}{
					"type":        "string",
					"description": `WAIT or "x y LEFT" / "x y RIGHT"`,
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this decision (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before playing",
				},
			},
			Required: []string{"session_id", "decision"},
		},
	}, c.handleDecide)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_decide",
		Description: "Play several ticks in order; stops as soon as the run ends",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp(),
				"decisions": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Decisions, one per tick",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence (serves as a rubber duck to help explain your reasoning)",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset before playing",
				},
			},
			Required: []string{"session_id", "decisions"},
		},
	}, c.handleBulkDecide)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Restart the run from its level",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionIDProp()},
			Required:   []string{"session_id"},
		},
	}, c.handleReset)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_history",
		Description: "Get the turn history of a run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleTurnHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available levels",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_room",
		Description: "Describe one room: its shape, where each entry leads, what a LEFT or RIGHT rotation would give, and who is inside",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProp(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column of the room (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row of the room (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeRoom)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, name string) (int, bool) {
	v, ok := args[name].(float64)
	return int(v), ok
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	levelID, _ := args["level_id"].(string)

	body := map[string]string{}
	if levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n\n%s", session.ID, session.LevelID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		status := engine.Status("unknown")
		tick := 0
		if s.GameState != nil {
			status, tick = s.GameState.Status, s.GameState.Tick
		}
		fmt.Fprintf(&b, "- %s (Level: %s, Tick: %d, Status: %s, Created: %s)\n",
			s.ID, s.LevelID, tick, status, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleDecide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	decision, _ := args["decision"].(string)
	reset, _ := args["reset"].(bool)

	body := map[string]interface{}{
		"decision": decision,
		"reset":    reset,
	}

	var result service.TurnResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/decision"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTurnResult(&result)), nil
}

func (c *Client) handleBulkDecide(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	raw, _ := args["decisions"].([]interface{})
	reset, _ := args["reset"].(bool)

	decisions := make([]string, 0, len(raw))
	for _, d := range raw {
		if s, ok := d.(string); ok {
			decisions = append(decisions, s)
		}
	}

	body := map[string]interface{}{
		"decisions": decisions,
		"reset":     reset,
	}

	var result service.BulkTurnResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/decisions"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkTurnResult(sessionID, &result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := request.GetArguments()["session_id"].(string)

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}

	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleTurnHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	if err := c.apiCall(ctx, "GET", "/api/levels", nil, &levels); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Levels:\n\n")
	for _, l := range levels {
		fmt.Fprintf(&b, "• %s (%s)\n", l.LevelID, l.Name)
		if l.Description != "" {
			fmt.Fprintf(&b, "  %s\n", l.Description)
		}
		fmt.Fprintf(&b, "  Maze: %dx%d, Rocks: %d, Tick budget: %d\n\n", l.Width, l.Height, l.Rocks, l.MaxTicks)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	sessionID, _ := args["session_id"].(string)
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	state := session.GameState
	if state == nil || state.Maze == nil {
		return mcp.NewToolResultError("session has no maze"), nil
	}

	pos := engine.Position{X: x, Y: y}
	if !state.Maze.InBounds(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Maze is %dx%d (x 0-%d, y 0-%d)",
			x, y, state.Maze.Width, state.Maze.Height, state.Maze.Width-1, state.Maze.Height-1)), nil
	}

	var opts engine.RotationOptions
	if session.Level != nil {
		opts.LockNegativeRooms = session.Level.LockNegativeRooms
	}

	return mcp.NewToolResultText(describeRoom(state, pos, opts)), nil
}

const instructions = `Rock Maze - Complete Instructions

THE MAZE:
A grid of rooms, x to the right and y down, (0,0) top-left. Each room has a shape code 0-13.
A negative code is the same shape. The exit is a cell of the bottom row.

MOVEMENT:
Every tick the explorer leaves its room through the exit that its shape gives for the side it
entered from, and enters the neighboring room from the opposite side. Directions are TOP, BOT,
LEFT and RIGHT. The explorer crashes when its room is a dead end for its entry side, when the next
room has no passage from that side, or when it would leave the maze.

ROOM SHAPES (entry -> exit):
 0  closed
 1  TOP->BOT  LEFT->BOT  RIGHT->BOT
 2  LEFT->RIGHT  RIGHT->LEFT
 3  TOP->BOT
 4  TOP->LEFT  RIGHT->BOT
 5  TOP->RIGHT  LEFT->BOT
 6  LEFT->RIGHT  RIGHT->LEFT
 7  TOP->BOT  RIGHT->BOT
 8  LEFT->BOT  RIGHT->BOT
 9  TOP->BOT  LEFT->BOT
10  TOP->LEFT
11  TOP->RIGHT
12  RIGHT->BOT
13  LEFT->BOT
Entering 4 from LEFT, 5 from RIGHT, 6 from TOP, 10 from LEFT or 11 from RIGHT is possible but the
room is a dead end: the next tick crashes.

ROTATIONS (LEFT / RIGHT):
 2<->3  4<->5  6 -L-> 9 -L-> 8 -L-> 7 -L-> 6  10 -L-> 13 -L-> 12 -L-> 11 -L-> 10
RIGHT goes the other way round; 1 stays 1.

DECISIONS (one per tick):
• WAIT - change nothing
• "x y LEFT" or "x y RIGHT" - rotate the room at x y a quarter turn
You cannot rotate the room of the explorer or of an active rock, nor a closed room (0).
Any invalid decision ends the run.

ROCKS:
Rocks move like the explorer, starting at their activation tick. A rock that leaves the maze, hits
a wall, meets another rock, or is stuck in a dead end disappears. If the explorer and a rock end up
in the same room, or swap rooms, the run fails.

GOAL:
Reach the exit before the tick budget runs out. Use describe_room to check exits and rotations.`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n\n%s",
		session.ID, session.LevelID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

// formatGameState renders the maze with the explorer (E) and the rocks active this tick (R).
// Inactive rocks are not shown.
func formatGameState(state *engine.GameState) string {
	if state == nil || state.Maze == nil {
		return "No game state available"
	}

	var b strings.Builder
	p := state.Protagonist
	fmt.Fprintf(&b, "Tick: %d/%d | Explorer: %d %d %s | Status: %s\n",
		state.Tick, state.MaxTicks, p.Pos.X, p.Pos.Y, p.Entry, state.Status)

	active := engine.ActiveRocks(state.Rocks, state.Tick)
	rockAt := make(map[engine.Position]bool, len(active))
	fmt.Fprintf(&b, "Rocks visible: %d\n", len(active))
	for _, r := range active {
		rockAt[r.Pos] = true
		fmt.Fprintf(&b, "  %d %d %s\n", r.Pos.X, r.Pos.Y, r.Entry)
	}

	b.WriteString("\nMaze (room codes, E=explorer, R=rock, X=exit):\n")
	for y, row := range state.Maze.Rooms {
		for x, room := range row {
			pos := engine.Position{X: x, Y: y}
			mark := " "
			switch {
			case pos == p.Pos:
				mark = "E"
			case rockAt[pos]:
				mark = "R"
			case pos == state.Maze.Exit:
				mark = "X"
			}
			fmt.Fprintf(&b, "%4d%s", room, mark)
		}
		b.WriteString("\n")
	}

	if state.Message != "" {
		fmt.Fprintf(&b, "\nMessage: %s", state.Message)
	}

	return b.String()
}

func formatTurnResult(result *service.TurnResult) string {
	var b strings.Builder
	if result.Success {
		b.WriteString("✓ Decision accepted\n")
	} else {
		b.WriteString("✗ Run failed\n")
	}

	if r := result.Record; r != nil {
		fmt.Fprintf(&b, "Tick %d: %s (%d,%d)→(%d,%d) rocks %d→%d\n",
			r.Tick, r.Decision, r.From.X, r.From.Y, r.To.X, r.To.Y, r.RocksBefore, r.RocksAfter)
	}

	writeEvents(&b, result.Events)

	if len(result.LocalView) > 0 {
		b.WriteString("Local 3x3 (* = explorer, # = outside):\n")
		for _, line := range result.LocalView {
			b.WriteString(line + "\n")
		}
	}

	if result.Result != nil {
		b.WriteString(formatRunResult(result.Result))
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatBulkTurnResult(sessionID string, result *service.BulkTurnResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Executed %d/%d decisions (tick %d → %d)\n",
		result.TurnsExecuted, result.RequestedTurns, result.StartTick, result.EndTick)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to the first %d decisions\n", result.Limit)
	}
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on decision %d: %s (%s)\n", result.StoppedOnTurn, result.StoppedReason, result.StopReasonCode)
	}
	fmt.Fprintf(&b, "Explorer: (%d,%d) → (%d,%d), rocks %d → %d\n",
		result.StartPos.X, result.StartPos.Y, result.EndPos.X, result.EndPos.Y, result.RocksBefore, result.RocksAfter)

	if len(result.Turns) > 0 {
		b.WriteString("\nTurns:\n")
		for i, t := range result.Turns {
			b.WriteString(formatTurnLine(i+1, t))
		}
	}

	writeEvents(&b, result.Events)

	if result.Result != nil {
		b.WriteString(formatRunResult(result.Result))
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatTurnLine(idx int, t engine.TurnRecord) string {
	line := fmt.Sprintf("%d. tick %d %s (%d,%d)→(%d,%d) %s", idx, t.Tick, t.Decision, t.From.X, t.From.Y, t.To.X, t.To.Y, t.Status)
	if len(t.Eliminations) > 0 {
		line += fmt.Sprintf(" [%d rock(s) eliminated]", len(t.Eliminations))
	}
	if t.Error != "" {
		line += " - " + t.Error
	}
	return line + "\n"
}

func formatRunResult(r *engine.RunResult) string {
	line := fmt.Sprintf("Run %s after %d tick(s)", strings.ToUpper(string(r.Status)), r.Ticks)
	if r.Kind != "" {
		line += fmt.Sprintf(": %s", r.Kind)
	}
	if r.Reason != "" {
		line += fmt.Sprintf(" (%s)", r.Reason)
	}
	return line + "\n"
}

func writeEvents(b *strings.Builder, events []service.GameEvent) {
	if len(events) == 0 {
		return
	}
	b.WriteString("Events:\n")
	for _, e := range events {
		fmt.Fprintf(b, "- %s: %s\n", e.Type, e.Message)
	}
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Turn History (Page %d/%d, Total: %d turns):\n\n", history.Page, history.TotalPages, history.TotalTurns)
	for _, t := range history.Turns {
		b.WriteString(formatTurnLine(t.TurnNumber, t))
	}
	return b.String()
}

// describeRoom lists the passages, rotations and occupants of one room
func describeRoom(state *engine.GameState, pos engine.Position, opts engine.RotationOptions) string {
	room := state.Maze.RoomAt(pos)
	var b strings.Builder

	fmt.Fprintf(&b, "Room at (%d, %d):\n", pos.X, pos.Y)
	fmt.Fprintf(&b, "Code: %d (shape %d)\n", room, room.Shape())

	layout := room.Layout()
	if len(layout) == 0 {
		b.WriteString("Passages: none (closed room)\n")
	} else {
		b.WriteString("Passages:\n")
		for _, entry := range engine.Cardinals {
			exit, ok := layout[entry]
			if !ok {
				continue
			}
			if exit == engine.None {
				fmt.Fprintf(&b, "  from %s: dead end\n", entry)
			} else {
				fmt.Fprintf(&b, "  from %s: exits %s\n", entry, exit)
			}
		}
	}

	if engine.IsRotatable(room, opts) {
		left, _ := room.Rotated(engine.RotateLeft)
		right, _ := room.Rotated(engine.RotateRight)
		fmt.Fprintf(&b, "Rotations: LEFT → %d, RIGHT → %d\n", left, right)
	} else {
		b.WriteString("Rotations: not rotatable\n")
	}

	if pos == state.Maze.Exit {
		b.WriteString("This is the exit.\n")
	}
	if pos == state.Protagonist.Pos {
		fmt.Fprintf(&b, "The explorer is here (entered from %s). It cannot be rotated this tick.\n", state.Protagonist.Entry)
	}
	for _, r := range engine.ActiveRocks(state.Rocks, state.Tick) {
		if r.Pos == pos {
			fmt.Fprintf(&b, "A rock is here (entered from %s). It cannot be rotated this tick.\n", r.Entry)
		}
	}

	return b.String()
}
