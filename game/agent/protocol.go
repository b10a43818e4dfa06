package agent

import (
	"fmt"
	"io"
	"strings"

	"github.com/wricardo/mcp-training/rockmaze/game/engine"
)

// WriteBriefing writes the maze in the line protocol: "w h", one line of room codes per
// row, then the exit column
func WriteBriefing(w io.Writer, b engine.Briefing) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d %d\n", b.Width, b.Height)
	for _, row := range b.Rooms {
		for x, room := range row {
			if x > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%d", room)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%d\n", b.ExitX)

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteSnapshot writes one tick of the line protocol: the explorer as "x y DIR", the number
// of visible rocks, then one "x y DIR" line per rock
func WriteSnapshot(w io.Writer, snap engine.Snapshot) error {
	var sb strings.Builder
	writeMover(&sb, snap.Protagonist)
	fmt.Fprintf(&sb, "%d\n", len(snap.Rocks))
	for _, r := range snap.Rocks {
		writeMover(&sb, r)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeMover(sb *strings.Builder, mv engine.Mover) {
	fmt.Fprintf(sb, "%d %d %s\n", mv.Pos.X, mv.Pos.Y, mv.Entry)
}
