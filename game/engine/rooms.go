package engine

// Room is the signed code stored in a maze cell. Its magnitude selects the layout.
// The sign is carried through rotations unchanged.
type Room int

// Layout maps an entry side to an exit side. A side missing from the map is a wall.
type Layout map[Direction]Direction

// Rotation is a quarter turn requested by the agent
type Rotation int

const (
	RotateInvalid Rotation = iota
	RotateLeft             // counter-clockwise
	RotateRight            // clockwise
)

// MaxShape is the highest layout identifier
const MaxShape = 13

// layouts is indexed by shape. Entries mapping to None are dead ends.
var layouts = [MaxShape + 1]Layout{
	{},
	{Up: Down, Left: Down, Right: Down},
	{Left: Right, Right: Left},
	{Up: Down},
	{Up: Left, Right: Down, Left: None},
	{Up: Right, Left: Down, Right: None},
	{Left: Right, Right: Left, Up: None},
	{Up: Down, Right: Down},
	{Left: Down, Right: Down},
	{Up: Down, Left: Down},
	{Up: Left, Left: None},
	{Up: Right, Right: None},
	{Right: Down},
	{Left: Down},
}

// rotations holds [counter-clockwise, clockwise] targets by shape; zero means not rotatable
var rotations = [MaxShape + 1][2]int{
	{0, 0},
	{1, 1},
	{3, 3},
	{2, 2},
	{5, 5},
	{4, 4},
	{9, 7},
	{6, 8},
	{7, 9},
	{8, 6},
	{13, 11},
	{10, 12},
	{11, 13},
	{12, 10},
}

// Shape returns the layout identifier of r
func (r Room) Shape() int {
	if r < 0 {
		return int(-r)
	}
	return int(r)
}

// Valid reports whether r names a known layout
func (r Room) Valid() bool {
	return r.Shape() <= MaxShape
}

// Layout returns the turn mapping of r. Unknown shapes have no openings.
func (r Room) Layout() Layout {
	if !r.Valid() {
		return Layout{}
	}
	return layouts[r.Shape()]
}

// Accepts reports whether an entity may enter r from side entry
func (r Room) Accepts(entry Direction) bool {
	_, ok := r.Layout()[entry]
	return ok
}

// ExitFor returns the exit recorded for entry in the given shape, or None for a dead end.
// Entries absent from the mapping are walls and also yield None.
func ExitFor(shape int, entry Direction) Direction {
	if shape < 0 || shape > MaxShape {
		return None
	}
	exit, ok := layouts[shape][entry]
	if !ok {
		return None
	}
	return exit
}

// RotationTarget returns the shape reached by rotating shape once in direction rot
func RotationTarget(shape int, rot Rotation) (int, bool) {
	if shape <= 0 || shape > MaxShape {
		return 0, false
	}
	switch rot {
	case RotateLeft:
		return rotations[shape][0], true
	case RotateRight:
		return rotations[shape][1], true
	}
	return 0, false
}

// Rotated returns r turned once in direction rot, keeping the sign of r
func (r Room) Rotated(rot Rotation) (Room, bool) {
	target, ok := RotationTarget(r.Shape(), rot)
	if !ok {
		return r, false
	}
	if r < 0 {
		return Room(-target), true
	}
	return Room(target), true
}

// String returns the rotation token used by the agent protocol
func (r Rotation) String() string {
	switch r {
	case RotateLeft:
		return "LEFT"
	case RotateRight:
		return "RIGHT"
	}
	return "INVALID"
}
