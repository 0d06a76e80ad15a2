// Package navigation implements the bounded slice index that arrow keys scroll.
package navigation

import "fmt"

// Direction is the direction of a single scroll step
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Forward {
		return "forward"
	}
	return "backward"
}

// KeyDirection maps a key name to a scroll direction.
// Up and Right move forward, Down and Left move backward.
func KeyDirection(key string) (Direction, bool) {
	switch key {
	case "Up", "Right", "up", "right":
		return Forward, true
	case "Down", "Left", "down", "left":
		return Backward, true
	default:
		return 0, false
	}
}

// SliceRange is the inclusive range of valid slice indices
type SliceRange struct {
	Min int
	Max int
}

// Validate checks 0 <= Min <= Max
func (r SliceRange) Validate() error {
	if r.Min < 0 {
		return fmt.Errorf("slice range minimum %d is negative", r.Min)
	}
	if r.Max < r.Min {
		return fmt.Errorf("slice range maximum %d is below minimum %d", r.Max, r.Min)
	}
	return nil
}

// Clamp returns index limited to the range
func (r SliceRange) Clamp(index int) int {
	if index < r.Min {
		return r.Min
	}
	if index > r.Max {
		return r.Max
	}
	return index
}

// Contains reports whether index lies in the range
func (r SliceRange) Contains(index int) bool {
	return index >= r.Min && index <= r.Max
}

// Navigator holds the current slice index. Min <= Current <= Max always holds.
// It is driven from a single event callback and is not safe for concurrent use.
type Navigator struct {
	rng     SliceRange
	current int
}

// NewNavigator creates a navigator over rng starting at initial, clamped into range
func NewNavigator(rng SliceRange, initial int) (*Navigator, error) {
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	return &Navigator{rng: rng, current: rng.Clamp(initial)}, nil
}

// Advance moves one slice in dir. Moving past either end is a no-op.
// It returns the possibly unchanged current index.
func (n *Navigator) Advance(dir Direction) int {
	switch dir {
	case Forward:
		if n.current < n.rng.Max {
			n.current++
		}
	case Backward:
		if n.current > n.rng.Min {
			n.current--
		}
	}
	return n.current
}

// Set jumps to index, clamped into range, and returns the new current index
func (n *Navigator) Set(index int) int {
	n.current = n.rng.Clamp(index)
	return n.current
}

// Current returns the current slice index
func (n *Navigator) Current() int { return n.current }

// Range returns the valid slice range
func (n *Navigator) Range() SliceRange { return n.rng }
