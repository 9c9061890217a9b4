package store

import (
	"context"
	"errors"
)

// Sentinel errors shared across all slot store implementations.
var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrStoreClosed  = errors.New("slot store closed")
)

// Slot names used for the persisted session.
const (
	SlotToken = "token"
	SlotUser  = "user"
)

// SlotStore is durable key/value storage for small client-side values.
// Implementations must apply Save atomically: either every slot is written
// or none is.
type SlotStore interface {
	// Get returns the value of a slot, or ErrSlotNotFound.
	Get(ctx context.Context, slot string) (string, error)
	// Save writes all slots in one atomic step.
	Save(ctx context.Context, slots map[string]string) error
	// Delete removes the given slots. Missing slots are not an error.
	Delete(ctx context.Context, slots ...string) error

	Close()
}
