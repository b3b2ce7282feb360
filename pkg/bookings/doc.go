// Package bookings maintains a local cache of a user's hall meal
// reservations, kept in lockstep with a durable store so bookings
// survive restarts without a network round-trip.
//
// The package is storage-agnostic: any backend that satisfies the Store
// interface can be plugged in. A YAML-file-per-owner store, an
// in-memory store and a Redis-backed store ship out of the box.
//
// # Architecture
//
// A Cache owns the in-memory mapping from canonical slot key
// ("YYYY-MM-DD HH:MM", UTC) to Booking for exactly one owner at a time.
// Load scopes the cache to an owner and populates it from the store;
// Add and Cancel mutate the mapping and synchronously flush the full
// record back before returning, so memory and disk never diverge
// observably.
//
// # Usage
//
//	store, err := bookings.NewFileStore("~/.hallbook")
//	if err != nil { ... }
//
//	cache := bookings.New(store)
//	if err := cache.Load(ctx, "abc123"); err != nil { ... }
//
//	booking, err := cache.Add(ctx, slot, bookings.MealFormal, bookings.Details{
//	    Vegetarian: true,
//	})
//
// # Error Handling
//
// Sentinel errors can be compared with errors.Is:
//
//   - ErrCorruptStore – durable record exists but cannot be decoded;
//     Load fails rather than silently dropping data, LoadOrEmpty opts
//     into an empty fallback
//   - ErrSaveFailed   – the store rejected a write; the in-memory
//     mutation is retained so the save can be retried
//   - ErrNotLoaded    – mutation attempted before Load
//
// # Known Limitations
//
// One Cache instance is expected to hold an owner's durable record at a
// time. Concurrent access to the same record from two processes is
// undefined; the stores do no cross-process locking.
package bookings
