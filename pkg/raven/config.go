package raven

import "time"

// Config holds the endpoints and transport settings for the Raven
// sign-on gateway and the hall booking service.
type Config struct {
	// AuthURL is the Raven sign-in endpoint the credentials are posted to.
	AuthURL string `env:"RAVEN_AUTH_URL" envDefault:"https://raven.cam.ac.uk/auth/authenticate2.html"`

	// StatusURL is the post-login status page; a redirect to exactly this
	// URL is the only success signal for a sign-in attempt.
	StatusURL string `env:"RAVEN_STATUS_URL" envDefault:"https://raven.cam.ac.uk/auth/status.html"`

	// HallURL is the canonical booking-service URL used for the session
	// liveness check.
	HallURL string `env:"HALL_URL" envDefault:"https://www.cai.cam.ac.uk/mealbookings/index.php"`

	// CertBundlePath points at a PEM bundle used for TLS verification.
	// Empty means the system root pool.
	CertBundlePath string `env:"RAVEN_CERT_BUNDLE"`

	// HTTPTimeout bounds each request; operations run to completion or fail.
	HTTPTimeout time.Duration `env:"RAVEN_HTTP_TIMEOUT" envDefault:"30s"`
}

// DefaultConfig returns the documented legacy endpoints with a 30s
// request timeout and system TLS roots.
func DefaultConfig() Config {
	return Config{
		AuthURL:     "https://raven.cam.ac.uk/auth/authenticate2.html",
		StatusURL:   "https://raven.cam.ac.uk/auth/status.html",
		HallURL:     "https://www.cai.cam.ac.uk/mealbookings/index.php",
		HTTPTimeout: 30 * time.Second,
	}
}
