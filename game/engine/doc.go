// Package engine provides the simulation core of the Rock Maze judge.
//
// The engine package implements:
//   - Room topology: the 13 fixed layouts mapping an entry side to an exit side
//   - The rotation table and the rotation command validator
//   - The movement resolver shared by the explorer and every rock
//   - The tick engine: moves, collisions and rock eliminations
//   - The turn loop that exchanges snapshots and decisions with an agent
//
// Core Types:
//
// Maze holds the grid of signed room codes and the exit cell. Mover is the
// position of an entity plus the side it entered its room from. Rock adds an
// activation tick. GameEngine owns the live GameState of one run; agents only
// ever receive Snapshot copies, and GameState.Clone gives other observers a
// state that shares nothing with the run.
//
// Usage:
//
//	level, err := engine.LoadLevel("levels/default.json")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	run, err := engine.NewEngine(level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Drive the run with any Decider
//	result, err := run.Play(ctx, agent)
//
// Rules:
//
// Each tick the agent may rotate one room that holds neither the explorer nor
// an active rock. The explorer then moves one room; reaching the exit cell
// ends the run successfully. Rocks move next and are eliminated when they
// leave the maze, crash, meet another rock, or end up in a dead end; the
// dead-end check also covers rocks that are not active yet. A dead
// end, a wall, or a rock on the explorer's path ends the run in failure. A run
// that uses its whole tick budget ends as exhausted.
package engine
