package board

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownTier indicates a command referenced a tier that does not exist.
	ErrUnknownTier = errors.New("unknown tier")

	// ErrUnknownItem indicates a command referenced an item that does not exist.
	ErrUnknownItem = errors.New("unknown item")

	// ErrNoTiers indicates the tier list cannot leave the build step yet.
	ErrNoTiers = errors.New("at least one tier is required")
)

// InvariantError describes an item whose tier assignment disagrees with
// tier membership.
type InvariantError struct {
	ItemID string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("item %s: %s", e.ItemID, e.Reason)
}
