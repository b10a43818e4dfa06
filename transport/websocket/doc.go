// Package websocket streams Rock Maze runs to browser viewers.
//
// A central Hub owns every connection. Viewers connect with ?session=<id> and receive
// JSON messages for that session only:
//
//	{"session_id": "a1b2", "event": "state_update", "snapshot": {...}, "game_state": {...}}
//	{"session_id": "a1b2", "event": "turn", "data": <turn result>}
//
// The snapshot is what the agent sees (active rocks only); game_state is the full world.
// Viewers never send commands; decisions go through the REST API or MCP tools.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	hub.BroadcastState(sessionID, state)
//
// Broadcasts are queued to the hub goroutine and dropped when the queue is full, so a
// turn handler never blocks on slow viewers.
package websocket
