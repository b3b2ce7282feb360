package bookings

import "time"

// Standard sitting times, minutes from midnight UTC. First hall sits at
// 18:15 every day; formal hall sits at 19:20 except Sunday, which sits
// at 19:30.
const (
	firstHallMinute        = 18*60 + 15
	formalHallMinute       = 19*60 + 20
	formalHallSundayMinute = 19*60 + 30
)

// IsStandardSlot reports whether the (day-of-week, time-of-day, meal)
// combination matches the default dining schedule. Any deviation marks
// the booking as a special request.
func IsStandardSlot(slot time.Time, meal Meal) bool {
	t := slot.UTC()
	minute := t.Hour()*60 + t.Minute()

	switch meal {
	case MealFirst:
		return minute == firstHallMinute
	case MealFormal:
		if t.Weekday() == time.Sunday {
			return minute == formalHallSundayMinute
		}
		return minute == formalHallMinute
	default:
		return false
	}
}
