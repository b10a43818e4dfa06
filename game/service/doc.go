// Package service provides the business logic layer for Rock Maze runs.
//
// The service package implements:
//   - Multi-session run management
//   - Level lookup with the default level as fallback
//   - Decision submission, single and bulk
//   - Turn history pagination
//   - Recording of finished runs in a results store
//
// Core Interfaces:
//
// GameService is the main service interface used by the HTTP, WebSocket and MCP
// transports. SessionManager stores sessions and their engines. LevelManager loads
// levels by ID.
//
// The sentinel errors ErrSessionNotFound, ErrLevelNotFound and ErrInvalidLevel live here
// so the transports can map them with errors.Is without importing the storage packages.
//
// Usage:
//
//	levels, _ := config.NewManager("levels")
//	svc := service.NewGameService(session.NewManager(), levels, store)
//
//	info, err := svc.CreateSession(ctx, "corridor")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := svc.SubmitDecision(ctx, info.ID, "1 0 RIGHT", false)
//
// Calls that change a run are serialized, so every engine is only ever driven by one
// goroutine at a time.
package service
