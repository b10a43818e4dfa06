// Package config loads Rock Maze levels from a directory.
//
// Levels are stored either as JSON (engine.Level) or in the line-oriented
// text format read by the judge:
//
//	w h
//	h rows of w room codes
//	exit column
//	x y DIR
//	rock count
//	x y DIR activation_tick   (one line per rock)
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("crossing")
//	id, def := manager.GetDefault()
//	levels, err := manager.ListLevels()
//
// A level ID without extension resolves to the .json file first and the .in
// file second. Loaded levels are validated with engine.ValidateLevel and cached.
package config
