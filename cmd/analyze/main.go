// Command analyze prints quick, human-readable heuristics about the levels in a
// level directory. It summarizes dimensions, the tick budget, room shapes and how
// many rooms can be rotated, then traces the explorer and each rock through the
// unrotated maze to show whether the exit is reachable without any decision and
// which rocks cross the explorer's path.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/wricardo/mcp-training/rockmaze/game/config"
	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

func main() {
	dir := "levels"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(os.Stdout, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyzeDir(w io.Writer, dir string) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	levels, err := manager.ListLevels()
	if err != nil {
		return err
	}
	if len(levels) == 0 {
		fmt.Fprintf(w, "No valid levels found in %s\n", dir)
		return nil
	}

	for _, info := range levels {
		level, err := manager.LoadLevel(info.LevelID)
		if err != nil {
			fmt.Fprintf(w, "\n=== %s ===\nError loading level: %v\n", info.Filename, err)
			continue
		}
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)
		analyzeLevel(w, level)
	}
	return nil
}

func analyzeLevel(w io.Writer, level *engine.Level) {
	maze := engine.NewMaze(level.Rooms, level.ExitX)
	opts := engine.RotationOptions{LockNegativeRooms: level.LockNegativeRooms}
	start := engine.Mover{Pos: engine.Position{X: level.Start.X, Y: level.Start.Y}, Entry: level.Start.Entry}

	fmt.Fprintf(w, "Name: %s\n", level.Name)
	fmt.Fprintf(w, "Maze: %d x %d\n", maze.Width, maze.Height)
	fmt.Fprintf(w, "Tick Budget: %d\n", level.Budget())
	fmt.Fprintf(w, "Start: %d %d %s\n", start.Pos.X, start.Pos.Y, start.Entry)
	fmt.Fprintf(w, "Exit: %d %d\n", maze.Exit.X, maze.Exit.Y)
	fmt.Fprintf(w, "Distance to Exit: %d\n", engine.ManhattanDistance(start.Pos, maze.Exit))
	fmt.Fprintf(w, "Rocks: %d\n", len(level.Rocks))

	counts := engine.CountShapes(maze)
	shapes := make([]int, 0, len(counts))
	for shape := range counts {
		shapes = append(shapes, shape)
	}
	sort.Ints(shapes)
	fmt.Fprint(w, "Shapes:")
	for _, shape := range shapes {
		fmt.Fprintf(w, " %d×%d", shape, counts[shape])
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rotatable Rooms: %d of %d\n", engine.CountRotatable(maze, opts), maze.Width*maze.Height)

	path, escaped := engine.TracePath(maze, start, level.Budget())
	if escaped {
		fmt.Fprintf(w, "✅ The explorer reaches the exit in %d ticks without rotations\n", len(path)-1)
	} else {
		last := path[len(path)-1]
		fmt.Fprintf(w, "⚠️  Without rotations the explorer stops after %d ticks near (%d, %d)\n", len(path)-1, last.X, last.Y)
	}

	onPath := make(map[engine.Position]bool, len(path))
	for _, p := range path {
		onPath[p] = true
	}

	crossing := 0
	for i, r := range level.Rocks {
		rock := engine.Mover{Pos: engine.Position{X: r.X, Y: r.Y}, Entry: r.Entry}
		rockPath, _ := engine.TracePath(maze, rock, level.Budget())
		for _, p := range rockPath {
			if onPath[p] {
				crossing++
				fmt.Fprintf(w, "   Rock %d (active from tick %d) crosses the explorer's path at (%d, %d)\n", i, r.ActiveFrom, p.X, p.Y)
				break
			}
		}
	}
	if crossing == 0 {
		fmt.Fprintln(w, "✅ No rock crosses the explorer's unrotated path")
	}
}
