package raven_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camkit/hallbook/pkg/bookings"
	"github.com/camkit/hallbook/pkg/raven"
)

// gateway fakes the Raven sign-on endpoint and the hall booking
// service on one httptest server.
type gateway struct {
	srv *httptest.Server

	mu              sync.Mutex
	password        string
	loginPosts      int
	hallGets        int
	expired         bool
	reviveOnLogin   bool
	blankErrors     bool   // rejection pages carry no span.error
	rejectTo        string // non-empty: reject with a redirect to this path
	down            bool
	dropHall        bool // sever hall connections without a response
	dropHallOnLogin bool // start dropping hall connections after the next sign-in
}

func newGateway(t *testing.T, password string) *gateway {
	t.Helper()

	g := &gateway{password: password, reviveOnLogin: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", g.handleAuth)
	mux.HandleFunc("/hall", g.handleHall)
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>Raven status</html>")
	})
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>Please log in</html>")
	})

	g.srv = httptest.NewServer(mux)
	t.Cleanup(g.srv.Close)
	return g
}

func (g *gateway) config() raven.Config {
	return raven.Config{
		AuthURL:     g.srv.URL + "/auth",
		StatusURL:   g.srv.URL + "/status",
		HallURL:     g.srv.URL + "/hall",
		HTTPTimeout: 5 * time.Second,
	}
}

func (g *gateway) handleAuth(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.down {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	_ = r.ParseForm()
	g.loginPosts++

	if g.rejectTo != "" {
		w.Header().Set("Location", g.srv.URL+g.rejectTo)
		w.WriteHeader(http.StatusFound)
		fmt.Fprint(w, `<html><span class="error">Your account is blocked.</span></html>`)
		return
	}

	if r.PostFormValue("pwd") != g.password {
		if g.blankErrors {
			fmt.Fprint(w, "<html>Something happened</html>")
			return
		}
		fmt.Fprint(w, `<html><span class="error">Incorrect user identifier or password.</span></html>`)
		return
	}

	if g.reviveOnLogin {
		g.expired = false
	}
	if g.dropHallOnLogin {
		g.dropHall = true
	}
	http.SetCookie(w, &http.Cookie{Name: "ravensession", Value: "tok-" + r.PostFormValue("userid"), Path: "/"})
	w.Header().Set("Location", g.srv.URL+"/status")
	w.WriteHeader(http.StatusFound)
}

func (g *gateway) handleHall(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.hallGets++

	if g.dropHall {
		hj, ok := w.(http.Hijacker)
		if !ok {
			panic("test server does not support hijacking")
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
		return
	}

	if _, err := r.Cookie("ravensession"); err != nil || g.expired {
		http.Redirect(w, r, g.srv.URL+"/login", http.StatusFound)
		return
	}
	fmt.Fprint(w, "<html>Meal bookings</html>")
}

func (g *gateway) stats() (posts, gets int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loginPosts, g.hallGets
}

func newClient(t *testing.T, g *gateway, opts ...raven.Option) *raven.Client {
	t.Helper()
	client, err := raven.New(append([]raven.Option{raven.WithConfig(g.config())}, opts...)...)
	require.NoError(t, err)
	return client
}

func TestClient_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("successful sign-in", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		outcome, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, raven.OutcomeLoggedIn, outcome)
		assert.Equal(t, "abc123", client.Owner())
		assert.Equal(t, "abc123", client.Bookings().Owner())
	})

	t.Run("loads the owner's cached bookings", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		store := bookings.NewMemoryStore()
		seed := map[string]bookings.Booking{
			"2024-03-18 19:20": {Meal: bookings.MealFormal},
		}
		require.NoError(t, store.Save(ctx, "abc123", seed))

		client := newClient(t, g, raven.WithBookingStore(store))

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, 1, client.Bookings().Len())
	})

	t.Run("live session is reused without a second sign-in", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		outcome, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		require.Equal(t, raven.OutcomeLoggedIn, outcome)

		outcome, err = client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, raven.OutcomeAlreadyLoggedIn, outcome)

		outcome, err = client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, raven.OutcomeAlreadyLoggedIn, outcome)

		posts, _ := g.stats()
		assert.Equal(t, 1, posts)
	})

	t.Run("rejection surfaces the server's message verbatim", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		outcome, err := client.Authenticate(ctx, "abc123", "wrong")
		require.ErrorIs(t, err, raven.ErrRemoteRejected)
		assert.Contains(t, err.Error(), "Incorrect user identifier or password.")
		assert.Equal(t, raven.OutcomeNone, outcome)
		assert.Empty(t, client.Owner())
	})

	t.Run("rejection via redirect to another page", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		g.rejectTo = "/login"
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.ErrorIs(t, err, raven.ErrRemoteRejected)
		assert.Contains(t, err.Error(), "Your account is blocked.")
	})

	t.Run("unknown page shape", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		g.blankErrors = true
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "wrong")
		assert.ErrorIs(t, err, raven.ErrUnexpectedResponse)
	})

	t.Run("server failure is a transport error", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		g.down = true
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		assert.ErrorIs(t, err, raven.ErrTransport)
	})

	t.Run("unreachable server is a transport error", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		cfg := g.config()
		g.srv.Close()

		client, err := raven.New(raven.WithConfig(cfg))
		require.NoError(t, err)

		_, err = client.Authenticate(ctx, "abc123", "hunter2")
		assert.ErrorIs(t, err, raven.ErrTransport)
	})

	t.Run("empty credentials are rejected locally", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "", "hunter2")
		assert.ErrorIs(t, err, raven.ErrCredentialsRequired)

		_, err = client.Authenticate(ctx, "abc123", "")
		assert.ErrorIs(t, err, raven.ErrCredentialsRequired)

		posts, gets := g.stats()
		assert.Zero(t, posts)
		assert.Zero(t, gets)
	})
}

func TestClient_StaleSession(t *testing.T) {
	ctx := context.Background()

	t.Run("expired session triggers exactly one re-login", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)

		g.mu.Lock()
		g.expired = true
		g.mu.Unlock()

		outcome, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		assert.Equal(t, raven.OutcomeLoggedIn, outcome)
		assert.Equal(t, "abc123", client.Owner())

		posts, _ := g.stats()
		assert.Equal(t, 2, posts)
	})

	t.Run("persistent expiry terminates with a loop error", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)

		g.mu.Lock()
		g.expired = true
		g.reviveOnLogin = false
		g.mu.Unlock()

		_, err = client.Authenticate(ctx, "abc123", "hunter2")
		require.ErrorIs(t, err, raven.ErrLoginLoop)
		assert.Empty(t, client.Owner())

		// One retry beyond the initial sign-in, never more.
		posts, _ := g.stats()
		assert.Equal(t, 2, posts)
	})

	t.Run("unreachable liveness check is not a stale signal", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)

		g.mu.Lock()
		g.dropHall = true
		g.mu.Unlock()

		_, err = client.Authenticate(ctx, "abc123", "hunter2")
		require.ErrorIs(t, err, raven.ErrTransport)
		assert.NotErrorIs(t, err, raven.ErrLoginLoop)

		// No sign-in was attempted and the session survives the outage.
		posts, _ := g.stats()
		assert.Equal(t, 1, posts)
		assert.Equal(t, "abc123", client.Owner())
		assert.Equal(t, "abc123", client.Bookings().Owner())
	})

	t.Run("unreachable recheck after re-login is not a login loop", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)

		// The session expires; the re-login itself succeeds but the
		// booking service becomes unreachable before its verification GET.
		g.mu.Lock()
		g.expired = true
		g.dropHallOnLogin = true
		g.mu.Unlock()

		_, err = client.Authenticate(ctx, "abc123", "hunter2")
		require.ErrorIs(t, err, raven.ErrTransport)
		assert.NotErrorIs(t, err, raven.ErrLoginLoop)

		// The unverifiable session is torn down, never left half-open.
		assert.Empty(t, client.Owner())
		assert.Empty(t, client.Bookings().Owner())

		posts, _ := g.stats()
		assert.Equal(t, 2, posts)
	})
}

func TestClient_OwnerSwitch(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, "hunter2")

	store := bookings.NewMemoryStore()
	require.NoError(t, store.Save(ctx, "usera", map[string]bookings.Booking{
		"2024-03-18 19:20": {Meal: bookings.MealFormal},
	}))
	require.NoError(t, store.Save(ctx, "userb", map[string]bookings.Booking{
		"2024-03-20 18:15": {Meal: bookings.MealFirst},
	}))

	client := newClient(t, g, raven.WithBookingStore(store))

	_, err := client.Authenticate(ctx, "usera", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "usera", client.Bookings().Owner())

	outcome, err := client.Authenticate(ctx, "userb", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, raven.OutcomeLoggedIn, outcome)
	assert.Equal(t, "userb", client.Owner())

	// B's cache never contains A's records.
	assert.Equal(t, "userb", client.Bookings().Owner())
	assert.Equal(t, 1, client.Bookings().Len())
	all := client.Bookings().All()
	assert.Equal(t, bookings.MealFirst, all[0].Meal)

	// Both sign-ins hit the gateway; A's session was not reused for B.
	posts, _ := g.stats()
	assert.Equal(t, 2, posts)
}

func TestClient_IsAuthenticated(t *testing.T) {
	ctx := context.Background()

	t.Run("logged out needs no network call", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		assert.False(t, client.IsAuthenticated(ctx))

		_, gets := g.stats()
		assert.Zero(t, gets)
	})

	t.Run("live session", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		client := newClient(t, g)

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		assert.True(t, client.IsAuthenticated(ctx))
	})

	t.Run("detected expiry clears local state", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		store := bookings.NewMemoryStore()
		require.NoError(t, store.Save(ctx, "abc123", map[string]bookings.Booking{
			"2024-03-18 19:20": {Meal: bookings.MealFormal},
		}))
		client := newClient(t, g, raven.WithBookingStore(store))

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)
		require.Equal(t, 1, client.Bookings().Len())

		g.mu.Lock()
		g.expired = true
		g.mu.Unlock()

		assert.False(t, client.IsAuthenticated(ctx))
		assert.Empty(t, client.Owner())
		assert.Equal(t, 0, client.Bookings().Len())
	})

	t.Run("transport failure leaves local state intact", func(t *testing.T) {
		g := newGateway(t, "hunter2")
		store := bookings.NewMemoryStore()
		require.NoError(t, store.Save(ctx, "abc123", map[string]bookings.Booking{
			"2024-03-18 19:20": {Meal: bookings.MealFormal},
		}))
		client := newClient(t, g, raven.WithBookingStore(store))

		_, err := client.Authenticate(ctx, "abc123", "hunter2")
		require.NoError(t, err)

		g.mu.Lock()
		g.dropHall = true
		g.mu.Unlock()

		assert.False(t, client.IsAuthenticated(ctx))
		assert.Equal(t, "abc123", client.Owner())
		assert.Equal(t, 1, client.Bookings().Len())

		// Once the service is reachable again the session checks out.
		g.mu.Lock()
		g.dropHall = false
		g.mu.Unlock()

		assert.True(t, client.IsAuthenticated(ctx))
	})
}

func TestClient_Logout(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, "hunter2")
	client := newClient(t, g)

	_, err := client.Authenticate(ctx, "abc123", "hunter2")
	require.NoError(t, err)

	client.Logout()
	assert.Empty(t, client.Owner())
	assert.Equal(t, 0, client.Bookings().Len())
	assert.True(t, client.Session().IsZero())

	// Idempotent.
	client.Logout()
	assert.Empty(t, client.Owner())

	// Cookies are gone: a fresh liveness check goes to the wire and fails.
	assert.False(t, client.IsAuthenticated(ctx))
}

// corruptStore always reports an undecodable durable record.
type corruptStore struct{}

func (corruptStore) Load(ctx context.Context, owner string) (map[string]bookings.Booking, error) {
	return nil, bookings.ErrCorruptStore
}

func (corruptStore) Save(ctx context.Context, owner string, records map[string]bookings.Booking) error {
	return nil
}

func TestClient_CorruptBookingRecord(t *testing.T) {
	ctx := context.Background()
	g := newGateway(t, "hunter2")
	client := newClient(t, g, raven.WithBookingStore(corruptStore{}))

	outcome, err := client.Authenticate(ctx, "abc123", "hunter2")
	require.ErrorIs(t, err, bookings.ErrCorruptStore)

	// The session itself is established; the caller decides whether to
	// fall back to an empty cache.
	assert.Equal(t, raven.OutcomeLoggedIn, outcome)
	assert.Equal(t, "abc123", client.Owner())

	require.NoError(t, client.Bookings().LoadOrEmpty(ctx, "abc123"))
	assert.Equal(t, 0, client.Bookings().Len())
}

func TestNew_CertBundle(t *testing.T) {
	t.Run("missing bundle fails construction", func(t *testing.T) {
		cfg := raven.DefaultConfig()
		cfg.CertBundlePath = "/nonexistent/certs.pem"

		_, err := raven.New(raven.WithConfig(cfg))
		assert.ErrorIs(t, err, raven.ErrCertBundle)
	})

	t.Run("bundle without certificates fails construction", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0644))

		cfg := raven.DefaultConfig()
		cfg.CertBundlePath = path

		_, err := raven.New(raven.WithConfig(cfg))
		assert.ErrorIs(t, err, raven.ErrCertBundle)
	})
}
