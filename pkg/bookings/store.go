package bookings

import "context"

// Store defines the interface for durable booking persistence. A store
// holds one full mapping per owner; Save always replaces the whole
// record so that the durable copy never diverges from memory.
type Store interface {
	// Load retrieves the booking mapping for an owner. A missing record
	// is not an error: first-time owners get an empty, non-nil map. A
	// record that exists but cannot be decoded returns ErrCorruptStore.
	Load(ctx context.Context, owner string) (map[string]Booking, error)

	// Save replaces the owner's durable record with the given mapping.
	Save(ctx context.Context, owner string, records map[string]Booking) error
}
