// Command validate provides a small CLI that validates Rock Maze level files
// (.json and .in) in a level directory, ../levels by default. It checks:
//   - the file parses as JSON or as the text level format
//   - the level passes engine validation (sizes, room codes, placements)
//   - connectivity: the exit is reachable from the start through open rooms
//
// It also warns about rocks that start on the explorer's room or on another rock.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/rockmaze/game/config"
	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// parseLevel reads a level in the format given by the file extension
func parseLevel(filePath string) (*engine.Level, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("Failed to read file: %v", err)
	}

	if filepath.Ext(filePath) == ".in" {
		name := strings.TrimSuffix(filepath.Base(filePath), ".in")
		level, err := config.ParseLevelText(strings.NewReader(string(data)), name)
		if err != nil {
			return nil, fmt.Errorf("Invalid level text: %v", err)
		}
		return level, nil
	}

	var level engine.Level
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("Invalid JSON: %v", err)
	}
	return &level, nil
}

// validateLevelFile loads and validates a single level file.
func validateLevelFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	level, err := parseLevel(filePath)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if err := engine.ValidateLevel(level); err != nil {
		result.fail("%v", err)
		return result
	}

	maze := engine.NewMaze(level.Rooms, level.ExitX)
	start := engine.Position{X: level.Start.X, Y: level.Start.Y}
	occupied := map[engine.Position]int{}
	for i, r := range level.Rocks {
		pos := engine.Position{X: r.X, Y: r.Y}
		if pos == start {
			result.Errors = append(result.Errors, fmt.Sprintf("⚠ Rock %d starts on the explorer's room (%d,%d)", i, pos.X, pos.Y))
		}
		if other, ok := occupied[pos]; ok {
			result.Errors = append(result.Errors, fmt.Sprintf("⚠ Rocks %d and %d start on the same room (%d,%d)", other, i, pos.X, pos.Y))
			continue
		}
		occupied[pos] = i
	}

	if result.Valid {
		connectivity := validateConnectivity(maze, start)
		if !connectivity.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, connectivity.Errors...)
	}

	if result.Valid {
		counts := engine.CountShapes(maze)
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", level.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Maze: %dx%d", level.Width, level.Height))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Closed rooms: %d", counts[0]))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Rotatable rooms: %d", engine.CountRotatable(maze, engine.RotationOptions{LockNegativeRooms: level.LockNegativeRooms})))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Rocks: %d", len(level.Rocks)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Tick budget: %d", level.Budget()))
	}

	return result
}

// validateConnectivity checks that the exit can be reached from start using
// 4-directional steps over rooms that are not closed. Rotations can change every
// open room's passages, so only closed rooms block. The exit cell counts as
// reached on arrival whatever its room.
func validateConnectivity(maze *engine.Maze, start engine.Position) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	open := func(p engine.Position) bool {
		return maze.InBounds(p) && (p == maze.Exit || maze.RoomAt(p).Shape() != 0)
	}

	if !maze.InBounds(start) || maze.RoomAt(start).Shape() == 0 {
		result.fail("Cannot validate connectivity: start room is closed")
		return result
	}

	visited := map[engine.Position]bool{start: true}
	queue := []engine.Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, dir := range engine.Cardinals {
			next, err := engine.Step(dir, current)
			if err != nil || visited[next] || !open(next) {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	if !visited[maze.Exit] {
		result.fail("Connectivity failure: exit at (%d,%d) unreachable from start (%d,%d)", maze.Exit.X, maze.Exit.Y, start.X, start.Y)
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: exit reachable through %d rooms", len(visited)))
	return result
}

// levelFiles lists the .json and .in files of dir in name order.
func levelFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.in"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// main validates every level file in the directory, printing a concise report
// and exiting with non-zero status if any are invalid.
func main() {
	levelDir := "../levels"
	if len(os.Args) > 1 {
		levelDir = os.Args[1]
	}

	files, err := levelFiles(levelDir)
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLevelFile(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
