package raven

import "time"

// Session is the authenticated-state snapshot owned by the Client.
// Invariant: the cookie jar holds credentials if and only if Owner is
// set; the Client keeps both in lockstep and resets them together.
type Session struct {
	// Owner is the crsid of the authenticated user, empty when logged out.
	Owner string

	// AuthenticatedAt records when the sign-in completed.
	AuthenticatedAt time.Time
}

// IsZero reports whether the session is the logged-out state.
func (s Session) IsZero() bool {
	return s.Owner == ""
}
