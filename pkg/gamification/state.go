// Package gamification tracks experience points, levels and titles.
//
// AddXP is pure: it takes a State and returns the next State plus the events
// the caller should publish. Persistence and delivery belong to the caller.
package gamification

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultTitle       = "Rookie Student"
	DefaultLevel       = 1
	DefaultNextLevelXP = 1000

	// LevelGrowth multiplies the threshold after every level-up.
	LevelGrowth = 1.5
)

var (
	ErrNegativeAmount = errors.New("gamification: xp amount must not be negative")
	ErrInvalidState   = errors.New("gamification: invalid state")
	ErrXPOverflow     = errors.New("gamification: xp total out of range")
)

// State is a player's progression. XP is always below NextLevelXP.
type State struct {
	XP          int    `json:"xp" db:"xp"`
	Level       int    `json:"level" db:"level"`
	NextLevelXP int    `json:"nextLevelXp" db:"next_level_xp"`
	Title       string `json:"title" db:"title"`
}

// DefaultState is the state of a newly registered student.
func DefaultState() State {
	return State{XP: 0, Level: DefaultLevel, NextLevelXP: DefaultNextLevelXP, Title: DefaultTitle}
}

// Validate reports whether s satisfies the state invariants.
func (s State) Validate() error {
	switch {
	case s.Level < 1:
		return fmt.Errorf("%w: level %d", ErrInvalidState, s.Level)
	case s.NextLevelXP <= 0:
		return fmt.Errorf("%w: next level xp %d", ErrInvalidState, s.NextLevelXP)
	case s.XP < 0:
		return fmt.Errorf("%w: xp %d", ErrInvalidState, s.XP)
	}
	return nil
}

// XPToNextLevel is the experience still needed for the next level.
func (s State) XPToNextLevel() int {
	return s.NextLevelXP - s.XP
}

// AddXP credits amount and applies every level-up it triggers. One event is
// emitted per threshold crossed.
func AddXP(s State, amount int) (State, []Event, error) {
	if amount < 0 {
		return s, nil, ErrNegativeAmount
	}
	if err := s.Validate(); err != nil {
		return s, nil, err
	}

	if amount > math.MaxInt-s.XP {
		return s, nil, ErrXPOverflow
	}

	next := s
	next.XP += amount

	var events []Event
	for next.XP >= next.NextLevelXP {
		next.XP -= next.NextLevelXP
		next.Level++
		next.NextLevelXP = nextThreshold(next.NextLevelXP)
		if title, ok := TitleFor(next.Level); ok {
			next.Title = title
		}
		events = append(events, newLevelUp(next.Level, next.Title))
	}
	return next, events, nil
}

// nextThreshold grows n by LevelGrowth, rounding down. The result always
// exceeds n, so small thresholds still climb, and it saturates at MaxInt.
func nextThreshold(n int) int {
	if float64(n)*LevelGrowth >= math.MaxInt {
		return math.MaxInt
	}
	return max(int(math.Floor(float64(n)*LevelGrowth)), n+1)
}

type titleTier struct {
	minLevel int
	title    string
}

// highest first
var titleTiers = []titleTier{
	{minLevel: 20, title: "Legend"},
	{minLevel: 10, title: "Hero"},
	{minLevel: 5, title: "Sidekick"},
}

// TitleFor returns the title earned at level, or false when the level has
// not reached any tier and the current title should stay.
func TitleFor(level int) (string, bool) {
	for _, tier := range titleTiers {
		if level >= tier.minLevel {
			return tier.title, true
		}
	}
	return "", false
}
