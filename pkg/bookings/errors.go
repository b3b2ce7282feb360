package bookings

import "errors"

var (
	// ErrCorruptStore indicates the durable record for an owner exists but
	// cannot be decoded
	ErrCorruptStore = errors.New("bookings.corrupt_store")

	// ErrNotLoaded indicates a mutation was attempted before Load scoped
	// the cache to an owner
	ErrNotLoaded = errors.New("bookings.not_loaded")

	// ErrInvalidOwner indicates an empty or unusable owner identifier
	ErrInvalidOwner = errors.New("bookings.invalid_owner")

	// ErrUnknownMeal indicates a meal value outside the known sittings
	ErrUnknownMeal = errors.New("bookings.unknown_meal")

	// ErrSaveFailed indicates the durable store rejected a write; the
	// in-memory mutation is retained so the caller can retry the save
	ErrSaveFailed = errors.New("bookings.save_failed")

	// ErrInvalidConfig indicates an unusable store configuration
	ErrInvalidConfig = errors.New("bookings.invalid_config")
)
