package engine

import (
	"errors"
	"fmt"
)

// Rule violations. Every failure the engine reports wraps exactly one of these.
var (
	ErrInvalidDirection         = errors.New("invalid direction")
	ErrDeadEnd                  = errors.New("dead end")
	ErrWallCrash                = errors.New("wall crash")
	ErrOutOfBounds              = errors.New("out of bounds")
	ErrOccupiedCell             = errors.New("occupied cell")
	ErrNotRotatable             = errors.New("room not rotatable")
	ErrInvalidRotationDirection = errors.New("invalid rotation direction")
	ErrEntityCollision          = errors.New("entity collision")
	ErrMalformedDecision        = errors.New("malformed decision")
)

// RuleError carries the offending coordinates and direction of a rule violation
type RuleError struct {
	Kind   error
	Pos    Position
	Dir    Direction
	Detail string
}

func (e *RuleError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return fmt.Sprintf("%s (at %d %d, dir %s)", msg, e.Pos.X, e.Pos.Y, e.Dir)
}

func (e *RuleError) Unwrap() error {
	return e.Kind
}

// KindName returns the short name of the rule an error violates, or "" if err is not a rule error
func KindName(err error) string {
	for name, kind := range kindNames {
		if errors.Is(err, kind) {
			return name
		}
	}
	return ""
}

var kindNames = map[string]error{
	"InvalidDirection":         ErrInvalidDirection,
	"DeadEnd":                  ErrDeadEnd,
	"WallCrash":                ErrWallCrash,
	"OutOfBounds":              ErrOutOfBounds,
	"OccupiedCell":             ErrOccupiedCell,
	"NotRotatable":             ErrNotRotatable,
	"InvalidRotationDirection": ErrInvalidRotationDirection,
	"EntityCollision":          ErrEntityCollision,
	"MalformedDecision":        ErrMalformedDecision,
}
