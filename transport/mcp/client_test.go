package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/rockmaze/api"
	"github.com/wricardo/mcp-training/rockmaze/game/config"
	"github.com/wricardo/mcp-training/rockmaze/game/engine"
	"github.com/wricardo/mcp-training/rockmaze/game/service"
	"github.com/wricardo/mcp-training/rockmaze/game/session"
)

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func testState() *engine.GameState {
	return &engine.GameState{
		Maze: engine.NewMaze([][]int{
			{2, 2, 12},
			{3, 0, 3},
			{3, 0, -3},
		}, 2),
		Tick:        1,
		MaxTicks:    1000,
		Protagonist: engine.Mover{Pos: engine.Position{X: 1, Y: 0}, Entry: engine.Left},
		Rocks: []engine.Rock{
			{Mover: engine.Mover{Pos: engine.Position{X: 0, Y: 1}, Entry: engine.Up}, ActiveFrom: 1},
			{Mover: engine.Mover{Pos: engine.Position{X: 0, Y: 2}, Entry: engine.Up}, ActiveFrom: 9},
		},
		Status:  engine.Running,
		Message: "Tick 0 done, 2 rocks in play",
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash trimmed, got %s", client.baseURL)
	}
	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}
	if client.GetMCPServer() == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
			return
		}
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "ab12"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	var response map[string]interface{}
	if err := client.apiCall(ctx, "GET", "/ok", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}
	if response["id"] != "ab12" {
		t.Errorf("Unexpected response %v", response)
	}

	err := client.apiCall(ctx, "GET", "/fail", nil, nil)
	if err == nil || err.Error() != "session not found" {
		t.Errorf("Expected API error message, got %v", err)
	}

	err = client.apiCall(ctx, "GET", "/boom", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("Expected status code error, got %v", err)
	}
}

func TestFormatGameState(t *testing.T) {
	result := formatGameState(testState())

	expected := []string{
		"Tick: 1/1000",
		"Explorer: 1 0 LEFT",
		"Rocks visible: 1",
		"  0 1 TOP",
		"   2    2E  12 ",
		"   3R   0    3 ",
		"  -3X",
		"Message: Tick 0 done",
	}
	for _, field := range expected {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in formatted output, got:\n%s", field, result)
		}
	}
	if strings.Contains(result, "0 2 TOP") {
		t.Error("Inactive rocks must not be listed")
	}

	if formatGameState(nil) != "No game state available" {
		t.Error("Expected placeholder for nil state")
	}
}

func TestDescribeRoom(t *testing.T) {
	state := testState()

	tests := []struct {
		name     string
		pos      engine.Position
		opts     engine.RotationOptions
		expected []string
	}{
		{
			name:     "corner",
			pos:      engine.Position{X: 2, Y: 0},
			expected: []string{"Code: 12 (shape 12)", "from RIGHT: exits BOT", "LEFT → 11, RIGHT → 13"},
		},
		{
			name:     "explorer room",
			pos:      engine.Position{X: 1, Y: 0},
			expected: []string{"from LEFT: exits RIGHT", "The explorer is here"},
		},
		{
			name:     "closed room",
			pos:      engine.Position{X: 1, Y: 1},
			expected: []string{"Passages: none", "not rotatable"},
		},
		{
			name:     "active rock",
			pos:      engine.Position{X: 0, Y: 1},
			expected: []string{"A rock is here"},
		},
		{
			name:     "locked negative exit",
			pos:      engine.Position{X: 2, Y: 2},
			opts:     engine.RotationOptions{LockNegativeRooms: true},
			expected: []string{"Code: -3 (shape 3)", "not rotatable", "This is the exit."},
		},
		{
			name:     "negative keeps sign",
			pos:      engine.Position{X: 2, Y: 2},
			expected: []string{"LEFT → -2, RIGHT → -2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := describeRoom(state, tt.pos, tt.opts)
			for _, e := range tt.expected {
				if !strings.Contains(out, e) {
					t.Errorf("Expected %q in:\n%s", e, out)
				}
			}
		})
	}

	if out := describeRoom(state, engine.Position{X: 0, Y: 2}, engine.RotationOptions{}); strings.Contains(out, "rock") {
		t.Errorf("Inactive rocks must stay hidden, got:\n%s", out)
	}
}

func TestFormatRunResult(t *testing.T) {
	out := formatRunResult(&engine.RunResult{Status: engine.Failed, Kind: "OccupiedCell", Reason: "unable to rotate", Ticks: 3})
	if out != "Run FAILED after 3 tick(s): OccupiedCell (unable to rotate)\n" {
		t.Errorf("Unexpected line %q", out)
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, section := range []string{"THE MAZE", "ROOM SHAPES", "DECISIONS", "ROCKS"} {
		if !strings.Contains(text, section) {
			t.Errorf("Expected section %s in instructions", section)
		}
	}
}

// TestClient_Integration plays the built-in default level through the REST API
func TestClient_Integration(t *testing.T) {
	levels, err := config.NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create level manager: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), levels, nil)
	server := httptest.NewServer(api.NewServer(svc, nil))
	defer server.Close()

	client := NewClient(server.URL)
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, callTool("create_session", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("create_session failed: %v", err)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Created session: ") {
		t.Fatalf("Unexpected create_session output: %s", text)
	}

	sessions, err := svc.ListSessions(ctx)
	if err != nil || len(sessions) != 1 {
		t.Fatalf("Expected one session, got %d (%v)", len(sessions), err)
	}
	id := sessions[0].ID

	result, _ = client.handleDescribeRoom(ctx, callTool("describe_room", map[string]interface{}{
		"session_id": id, "x": float64(2), "y": float64(0),
	}))
	if text := resultText(t, result); !strings.Contains(text, "RIGHT → 13") {
		t.Errorf("Unexpected describe_room output: %s", text)
	}

	result, _ = client.handleDescribeRoom(ctx, callTool("describe_room", map[string]interface{}{
		"session_id": id, "x": float64(7), "y": float64(0),
	}))
	if !result.IsError {
		t.Error("Expected out of bounds error")
	}

	result, _ = client.handleDecide(ctx, callTool("decide", map[string]interface{}{
		"session_id": id, "decision": "2 0 RIGHT", "intent": "open the corner",
	}))
	if text := resultText(t, result); !strings.Contains(text, "Decision accepted") {
		t.Errorf("Unexpected decide output: %s", text)
	}

	result, _ = client.handleBulkDecide(ctx, callTool("bulk_decide", map[string]interface{}{
		"session_id": id, "decisions": []interface{}{"WAIT", "WAIT", "WAIT"},
	}))
	text = resultText(t, result)
	if !strings.Contains(text, "Run SUCCEEDED after 4 tick(s)") {
		t.Errorf("Expected success, got: %s", text)
	}

	result, _ = client.handleDecide(ctx, callTool("decide", map[string]interface{}{
		"session_id": id, "decision": "WAIT",
	}))
	if !result.IsError {
		t.Error("Expected error for a finished run")
	}

	result, _ = client.handleTurnHistory(ctx, callTool("turn_history", map[string]interface{}{
		"session_id": id, "limit": float64(2),
	}))
	if text := resultText(t, result); !strings.Contains(text, "Total: 4 turns") {
		t.Errorf("Unexpected history output: %s", text)
	}

	result, _ = client.handleReset(ctx, callTool("reset_game", map[string]interface{}{"session_id": id}))
	if text := resultText(t, result); !strings.Contains(text, "Tick: 0/1000") {
		t.Errorf("Unexpected reset output: %s", text)
	}

	result, _ = client.handleListLevels(ctx, callTool("list_levels", map[string]interface{}{}))
	if text := resultText(t, result); !strings.Contains(text, "Available Levels") {
		t.Errorf("Unexpected list_levels output: %s", text)
	}

	result, _ = client.handleListSessions(ctx, callTool("list_sessions", map[string]interface{}{}))
	if text := resultText(t, result); !strings.Contains(text, id) {
		t.Errorf("Expected session %s listed, got: %s", id, text)
	}

	result, _ = client.handleGameState(ctx, callTool("game_state", map[string]interface{}{"session_id": "missing"}))
	if !result.IsError {
		t.Error("Expected error for unknown session")
	}
}
