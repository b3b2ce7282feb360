package bookings

import (
	"fmt"
	"time"
)

// Meal identifies which hall sitting a booking is for.
type Meal string

const (
	// MealFirst is the early sitting.
	MealFirst Meal = "FIRST"

	// MealFormal is the formal sitting.
	MealFormal Meal = "FORMAL"
)

// Valid reports whether the meal is one of the known sittings.
func (m Meal) Valid() bool {
	return m == MealFirst || m == MealFormal
}

// ParseMeal converts a string into a Meal, accepting the canonical
// upper-case names.
func ParseMeal(s string) (Meal, error) {
	switch Meal(s) {
	case MealFirst:
		return MealFirst, nil
	case MealFormal:
		return MealFormal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMeal, s)
	}
}

// slotKeyLayout is the canonical rendering of a booking slot. Keys are
// unique per owner; two bookings cannot share a slot.
const slotKeyLayout = "2006-01-02 15:04"

// SlotKey returns the canonical string key for a slot time. Slot times
// are treated as UTC regardless of the location attached to t.
func SlotKey(t time.Time) string {
	return t.UTC().Format(slotKeyLayout)
}

// Booking is a single hall reservation held by one owner.
type Booking struct {
	// Slot is the calendar date and sitting time, semantically UTC.
	Slot time.Time `yaml:"slot"`

	Meal Meal `yaml:"meal"`

	// Nonstandard is derived on insert: true when the slot deviates from
	// the institution's default dining schedule for the given meal.
	Nonstandard bool `yaml:"nonstandard"`

	// Occasion carries the special-occasion note shown to kitchen staff.
	Occasion string `yaml:"occasion,omitempty"`

	Vegetarian bool `yaml:"vegetarian"`

	// Requirements carries dietary or kitchen requirement notes.
	Requirements string `yaml:"requirements,omitempty"`
}

// Key returns the canonical cache key for the booking's slot.
func (b Booking) Key() string {
	return SlotKey(b.Slot)
}

// Details holds the caller-supplied fields of a new booking.
type Details struct {
	Occasion     string
	Vegetarian   bool
	Requirements string
}
