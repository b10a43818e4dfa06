// Package mcp exposes Rock Maze runs to LLM agents over the Model Context Protocol.
//
// The Client is a thin proxy: every tool calls the REST API of a running server and
// renders the answer as text. Tools:
//   - create_session, list_sessions, get_session
//   - game_state: maze with the explorer and the rocks visible this tick
//   - decide, bulk_decide: play WAIT or "x y LEFT|RIGHT" decisions
//   - reset_game, turn_history
//   - list_levels
//   - describe_room: passages, rotation targets and occupants of one room
//   - game_instructions
//
// Inactive rocks are never rendered, so an agent playing through MCP sees exactly what
// an agent on the line protocol sees.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
