package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

// ParseLevelText reads a level in the line-oriented text format:
//
//	w h
//	h rows of w room codes
//	exit column
//	x y DIR            (explorer)
//	n                  (rock count)
//	n lines x y DIR t  (rock, activation tick)
//
// The text format carries no name, so the caller provides one.
func ParseLevelText(r io.Reader, name string) (*engine.Level, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	p := &textParser{lines: lines}

	level := &engine.Level{Name: name}

	dims, err := p.ints("dimensions", 2)
	if err != nil {
		return nil, err
	}
	level.Width, level.Height = dims[0], dims[1]
	if level.Height < engine.MinMazeSize || level.Height > engine.MaxMazeSize {
		return nil, fmt.Errorf("%w: height %d out of range", ErrInvalidLevel, level.Height)
	}

	level.Rooms = make([][]int, level.Height)
	for y := range level.Rooms {
		row, err := p.ints(fmt.Sprintf("row %d", y), level.Width)
		if err != nil {
			return nil, err
		}
		level.Rooms[y] = row
	}

	exit, err := p.ints("exit column", 1)
	if err != nil {
		return nil, err
	}
	level.ExitX = exit[0]

	start, err := p.placement("explorer", 3)
	if err != nil {
		return nil, err
	}
	level.Start = start.Placement

	count, err := p.ints("rock count", 1)
	if err != nil {
		return nil, err
	}
	if count[0] < 0 || count[0] > engine.MaxRocks {
		return nil, fmt.Errorf("%w: rock count %d out of range", ErrInvalidLevel, count[0])
	}
	for i := 0; i < count[0]; i++ {
		rock, err := p.placement(fmt.Sprintf("rock %d", i), 4)
		if err != nil {
			return nil, err
		}
		level.Rocks = append(level.Rocks, rock)
	}

	if p.pos < len(p.lines) {
		return nil, fmt.Errorf("%w: unexpected trailing content at line %d", ErrInvalidLevel, p.lines[p.pos].num)
	}

	return level, nil
}

// EncodeLevelText writes a level in the text format. Name, description and options are not
// representable and are dropped.
func EncodeLevelText(w io.Writer, l *engine.Level) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d %d\n", l.Width, l.Height)
	for _, row := range l.Rooms {
		codes := make([]string, len(row))
		for i, c := range row {
			codes[i] = strconv.Itoa(c)
		}
		fmt.Fprintln(bw, strings.Join(codes, " "))
	}
	fmt.Fprintf(bw, "%d\n", l.ExitX)
	fmt.Fprintf(bw, "%d %d %s\n", l.Start.X, l.Start.Y, l.Start.Entry)
	fmt.Fprintf(bw, "%d\n", len(l.Rocks))
	for _, r := range l.Rocks {
		fmt.Fprintf(bw, "%d %d %s %d\n", r.X, r.Y, r.Entry, r.ActiveFrom)
	}

	return bw.Flush()
}

type textLine struct {
	num    int
	fields []string
}

type textParser struct {
	lines []textLine
	pos   int
}

func readLines(r io.Reader) ([]textLine, error) {
	var lines []textLine
	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		lines = append(lines, textLine{num: num, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read level: %w", err)
	}
	return lines, nil
}

func (p *textParser) next(what string) (textLine, error) {
	if p.pos >= len(p.lines) {
		return textLine{}, fmt.Errorf("%w: missing %s", ErrInvalidLevel, what)
	}
	line := p.lines[p.pos]
	p.pos++
	return line, nil
}

func (p *textParser) ints(what string, n int) ([]int, error) {
	line, err := p.next(what)
	if err != nil {
		return nil, err
	}
	if len(line.fields) != n {
		return nil, fmt.Errorf("%w: line %d: %s needs %d values, got %d", ErrInvalidLevel, line.num, what, n, len(line.fields))
	}
	out := make([]int, n)
	for i, f := range line.fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s: %q is not a number", ErrInvalidLevel, line.num, what, f)
		}
		out[i] = v
	}
	return out, nil
}

// placement parses "x y DIR" and, when n is 4, a trailing activation tick
func (p *textParser) placement(what string, n int) (engine.RockPlacement, error) {
	var rp engine.RockPlacement
	line, err := p.next(what)
	if err != nil {
		return rp, err
	}
	if len(line.fields) != n {
		return rp, fmt.Errorf("%w: line %d: %s needs %d values, got %d", ErrInvalidLevel, line.num, what, n, len(line.fields))
	}

	x, errX := strconv.Atoi(line.fields[0])
	y, errY := strconv.Atoi(line.fields[1])
	if errX != nil || errY != nil {
		return rp, fmt.Errorf("%w: line %d: %s has bad coordinates", ErrInvalidLevel, line.num, what)
	}
	dir, err := engine.ParseDirection(line.fields[2])
	if err != nil {
		return rp, fmt.Errorf("%w: line %d: %s: %v", ErrInvalidLevel, line.num, what, err)
	}
	rp.Placement = engine.Placement{X: x, Y: y, Entry: dir}

	if n == 4 {
		t, err := strconv.Atoi(line.fields[3])
		if err != nil {
			return rp, fmt.Errorf("%w: line %d: %s has bad activation tick", ErrInvalidLevel, line.num, what)
		}
		rp.ActiveFrom = t
	}
	return rp, nil
}
