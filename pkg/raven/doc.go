// Package raven implements the authentication session for the hall
// meal-booking service behind the university's Raven single-sign-on
// gateway.
//
// A Client owns three things and keeps them in lockstep: the session
// cookies issued by Raven, the identity (crsid) of the authenticated
// user, and that user's local booking cache. Logout, a detected remote
// expiry and switching to a different user all reset the three
// together, so cached bookings can never leak between users.
//
// # Protocol
//
// Sign-in is a form POST to the Raven endpoint with redirects disabled;
// the one and only success signal is a redirect whose Location equals
// the configured status URL. Any other redirect target or a re-rendered
// page goes through error extraction: a server-reported message (found
// in the page's span.error element) surfaces verbatim as
// ErrRemoteRejected, anything else as ErrUnexpectedResponse.
//
// Liveness is a GET against the canonical booking-service URL with the
// held cookies; the session is live iff the final resolved URL equals
// that URL, i.e. the service did not bounce the request to a login
// page.
//
// A stale session discovered during Authenticate is cleared and the
// sign-in retried exactly once. If the retry also presents as stale,
// the attempt fails with ErrLoginLoop; the legacy behavior of
// recursing until the stack gave out is not preserved.
//
// # Usage
//
//	store, _ := bookings.NewFileStore(dir)
//	client, err := raven.New(
//	    raven.WithBookingStore(store),
//	    raven.WithLogger(log),
//	)
//	if err != nil { ... }
//
//	outcome, err := client.Authenticate(ctx, "abc123", password)
//	if errors.Is(err, raven.ErrRemoteRejected) {
//	    // show the server's message to the user
//	}
//
//	client.Bookings().Add(ctx, slot, bookings.MealFormal, bookings.Details{})
//	client.Logout()
//
// # Error Handling
//
// Authenticate distinguishes its failure modes with sentinel errors
// (ErrRemoteRejected, ErrUnexpectedResponse, ErrTransport, ErrLoginLoop,
// ErrCredentialsRequired) comparable via errors.Is; nothing is printed
// or swallowed. Presentation belongs to the caller.
//
// Note that IsAuthenticated is not a pure query: detecting an expired
// remote session clears the local session state as a side effect.
package raven
