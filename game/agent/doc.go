// Package agent implements deciders for the engine's turn loop.
//
// StreamAgent speaks the line protocol over any reader/writer pair, for example the
// pipes of an agent process started by the host, or stdin/stdout in judge mode:
//
//	w h
//	<h lines of w room codes>
//	<exit column>
//
// then, every tick, the explorer ("x y DIR"), the number of visible rocks and one
// "x y DIR" line per rock. The agent answers each tick with WAIT or "x y LEFT|RIGHT".
//
// ScriptedAgent replays a fixed list of decisions and is used by tests and the judge
// command's --script flag.
package agent
