package raven

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/camkit/hallbook/pkg/bookings"
	"github.com/camkit/hallbook/pkg/logger"
)

// Outcome reports how an authentication attempt succeeded.
type Outcome int

const (
	// OutcomeNone accompanies a non-nil error.
	OutcomeNone Outcome = iota

	// OutcomeLoggedIn means a sign-in request was made and accepted.
	OutcomeLoggedIn

	// OutcomeAlreadyLoggedIn means a live session for the same owner was
	// reused; no sign-in request was made.
	OutcomeAlreadyLoggedIn
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoggedIn:
		return "logged_in"
	case OutcomeAlreadyLoggedIn:
		return "already_logged_in"
	default:
		return "none"
	}
}

// Client is the session controller for the hall booking service. It
// owns the authentication cookies, the identity of the current user and
// the user's booking cache, keeping all three in lockstep: a successful
// sign-in loads the cache for that owner, and logout, detected expiry
// or an owner switch reset all of them together.
//
// Client methods are synchronous; each network call runs to completion
// or fails. Safe for use from a single logical flow of control, which
// is the intended deployment (one interactive user per Client).
type Client struct {
	mu           sync.Mutex
	config       Config
	log          *slog.Logger
	http         *http.Client
	noRedirect   *http.Client
	bookingStore bookings.Store
	cache        *bookings.Cache
	session      Session
}

// New creates a session controller in the logged-out state.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: DefaultConfig(),
		log:    logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.bookingStore == nil {
		c.bookingStore = bookings.NewMemoryStore()
	}
	c.cache = bookings.New(c.bookingStore, bookings.WithLogger(c.log))

	if c.http == nil {
		transport, err := newTransport(c.config.CertBundlePath)
		if err != nil {
			return nil, err
		}
		c.http = &http.Client{
			Transport: transport,
			Timeout:   c.config.HTTPTimeout,
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	c.http.Jar = jar

	// Sign-in POSTs must not follow the success redirect; the Location
	// header is the signal. The liveness GET follows redirects on the
	// shared jar and transport.
	c.noRedirect = &http.Client{
		Transport: c.http.Transport,
		Jar:       jar,
		Timeout:   c.http.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return c, nil
}

// newTransport builds the HTTP transport, verifying TLS against the
// given PEM bundle when one is configured.
func newTransport(certBundlePath string) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if certBundlePath == "" {
		return transport, nil
	}

	pem, err := os.ReadFile(certBundlePath)
	if err != nil {
		return nil, errors.Join(ErrCertBundle, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("%w: no certificates in %s", ErrCertBundle, certBundlePath)
	}

	transport.TLSClientConfig = &tls.Config{RootCAs: pool}
	return transport, nil
}

// Bookings returns the booking cache scoped to the authenticated owner.
// The cache is empty and unscoped while logged out.
func (c *Client) Bookings() *bookings.Cache {
	return c.cache
}

// Owner returns the crsid of the currently authenticated user, empty
// when logged out.
func (c *Client) Owner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Owner
}

// Session returns a snapshot of the current session state.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Authenticate signs crsid in to the booking service.
//
// A live session for the same crsid is reused (OutcomeAlreadyLoggedIn)
// without a sign-in request. A stale session is cleared and the sign-in
// retried exactly once; if the retried sign-in still presents as stale
// the attempt fails with ErrLoginLoop rather than retrying further.
// A liveness check that fails at the transport level is never treated
// as a stale-session signal: it surfaces as ErrTransport, before the
// sign-in with state intact, after the retried sign-in with the
// unverifiable session torn down. Cookies held for a different owner
// are discarded before the new sign-in proceeds.
//
// On success the booking cache is loaded for crsid. If the durable
// booking record is corrupt the session is still established and the
// error is returned alongside the outcome; the caller can opt into an
// empty cache via Bookings().LoadOrEmpty.
func (c *Client) Authenticate(ctx context.Context, crsid, password string) (Outcome, error) {
	if crsid == "" || password == "" {
		return OutcomeNone, ErrCredentialsRequired
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	hadSession := c.session.Owner == crsid
	if hadSession {
		live, err := c.alive(ctx)
		if err != nil {
			// The check could not distinguish live from stale; surface
			// the transport failure rather than guess. State is intact.
			return OutcomeNone, err
		}
		if live {
			c.log.DebugContext(ctx, "session already live", "owner", crsid)
			return OutcomeAlreadyLoggedIn, nil
		}
		// alive cleared the stale session; fall through to one retry.
		c.log.DebugContext(ctx, "stale session detected, re-authenticating", "owner", crsid)
	} else if !c.session.IsZero() {
		// Switching owners: the previous user's cookies and cached
		// bookings must never leak into the new session.
		c.log.InfoContext(ctx, "switching owner", "from", c.session.Owner, "to", crsid)
		c.reset()
	}

	if err := c.login(ctx, crsid, password); err != nil {
		return OutcomeNone, err
	}

	c.session = Session{Owner: crsid, AuthenticatedAt: time.Now()}

	if hadSession {
		// The retried sign-in's outcome is authoritative. A second
		// stale-session signal means the protocol is broken upstream; a
		// transport failure here is not that signal, but the session
		// cannot be left half-verified, so it is torn down and the
		// failure surfaced for the caller to retry.
		live, err := c.alive(ctx)
		if err != nil {
			c.reset()
			return OutcomeNone, err
		}
		if !live {
			return OutcomeNone, ErrLoginLoop
		}
	}

	c.log.InfoContext(ctx, "authenticated", "owner", crsid)

	if err := c.cache.Load(ctx, crsid); err != nil {
		return OutcomeLoggedIn, err
	}
	return OutcomeLoggedIn, nil
}

// IsAuthenticated reports whether a user currently holds a live session
// against the booking service. Without held cookies it returns false
// with no network call; otherwise it issues a liveness GET.
//
// Not a pure query: when the remote session has expired, the held
// cookies, owner identity and booking cache are cleared as a side
// effect. A liveness GET that fails at the transport level also
// reports false but leaves the local state intact, so the check can
// simply be repeated once the network recovers.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	live, _ := c.alive(ctx)
	return live
}

// Logout unconditionally clears the session state, cookies and booking
// cache. Idempotent.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsZero() {
		c.log.Info("logged out", "owner", c.session.Owner)
	}
	c.reset()
}

// login submits the credentials to the sign-in endpoint without
// following redirects. Success is exactly a redirect to the configured
// status URL; the response cookies land in the shared jar.
func (c *Client) login(ctx context.Context, crsid, password string) error {
	form := url.Values{
		"userid": {crsid},
		"pwd":    {password},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Join(ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.noRedirect.Do(req)
	if err != nil {
		return errors.Join(ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		if resp.Header.Get("Location") == c.config.StatusURL {
			return nil
		}
		// Redirected somewhere other than the status page: the server
		// rejected the attempt and rendered an error, or changed shape.
		return c.rejectionError(ctx, resp.Body)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// Sign-in form re-rendered, typically with an error message.
		return c.rejectionError(ctx, resp.Body)
	default:
		return fmt.Errorf("%w: server responded with status %d", ErrTransport, resp.StatusCode)
	}
}

// rejectionError distinguishes an explicit server-reported rejection
// from a response of unknown shape.
func (c *Client) rejectionError(ctx context.Context, body io.Reader) error {
	if msg, ok := extractServerError(body); ok {
		c.log.DebugContext(ctx, "sign-in rejected", "message", msg)
		return fmt.Errorf("%w: %s", ErrRemoteRejected, msg)
	}
	return ErrUnexpectedResponse
}

// alive performs the liveness check. The session is live iff the
// booking service serves the canonical URL without redirecting away.
// Three outcomes: (true, nil) live; (false, nil) expired, in which case
// the session state is cleared here; (false, ErrTransport) the check
// could not be performed, state left intact so the caller can retry.
// Callers hold c.mu.
func (c *Client) alive(ctx context.Context) (bool, error) {
	if c.session.IsZero() {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.HallURL, nil)
	if err != nil {
		return false, errors.Join(ErrTransport, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.DebugContext(ctx, "liveness check failed", "error", err)
		return false, errors.Join(ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.Request.URL.String() == c.config.HallURL {
		return true, nil
	}

	c.log.InfoContext(ctx, "session expired", "owner", c.session.Owner)
	c.reset()
	return false, nil
}

// reset returns the Client to the logged-out state: fresh cookie jar,
// zero session, unscoped cache. Callers hold c.mu.
func (c *Client) reset() {
	// A jar cannot be emptied, so it is replaced, mirroring the legacy
	// behavior of constructing a fresh transport session on logout.
	if jar, err := cookiejar.New(nil); err == nil {
		c.http.Jar = jar
		c.noRedirect.Jar = jar
	}
	c.session = Session{}
	c.cache.Reset()
}
