package types

import (
	"strings"

	"github.com/knotlang/knot/errors"
)

// Level selects which compression strategies run.
type Level string

const (
	LevelNone     Level = "none"     // no strategies
	LevelMinimal  Level = "minimal"  // dictionary only
	LevelStandard Level = "standard" // + common-ancestor extraction, template extraction
	LevelMaximum  Level = "maximum"  // + contextual grouping
	LevelExtreme  Level = "extreme"  // + quantum partitioning
)

// Levels lists all levels from weakest to strongest.
var Levels = []Level{LevelNone, LevelMinimal, LevelStandard, LevelMaximum, LevelExtreme}

// ParseLevel maps a user-supplied string to a Level.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}
	return "", errors.NewInvalidInputError(
		"unknown compression level %q (valid: none, minimal, standard, maximum, extreme)", s)
}

// AtLeast reports whether l includes everything level o does.
func (l Level) AtLeast(o Level) bool {
	return l.rank() >= o.rank()
}

func (l Level) rank() int {
	for i, known := range Levels {
		if l == known {
			return i
		}
	}
	return -1
}
