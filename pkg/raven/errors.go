package raven

import "errors"

var (
	// ErrCredentialsRequired indicates an empty identifier or password
	ErrCredentialsRequired = errors.New("raven.credentials_required")

	// ErrRemoteRejected indicates the server explicitly reported an error
	// message (e.g. bad credentials); the verbatim message is attached
	ErrRemoteRejected = errors.New("raven.remote_rejected")

	// ErrUnexpectedResponse indicates the server returned a response
	// matching none of the known shapes, possibly an upstream change
	ErrUnexpectedResponse = errors.New("raven.unexpected_response")

	// ErrLoginLoop indicates re-authentication after a stale session hit
	// another stale-session signal; the protocol is violated and no
	// further retries are attempted
	ErrLoginLoop = errors.New("raven.login_loop")

	// ErrTransport indicates a network, TLS or unexpected-status failure
	ErrTransport = errors.New("raven.transport")

	// ErrCertBundle indicates the TLS certificate bundle could not be
	// read or contains no usable certificates
	ErrCertBundle = errors.New("raven.cert_bundle")
)
