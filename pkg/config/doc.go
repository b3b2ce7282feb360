// Package config loads application configuration from environment
// variables into tagged structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// the default .env file is picked up once per process if present,
// explicit files can be layered with LoadEnv, and Load parses the
// environment into any struct annotated with `env` tags.
//
//	type Config struct {
//	    HallURL string        `env:"HALL_URL,required"`
//	    Timeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Sentinel errors (ErrParsingConfig, ErrLoadingEnvFiles, ErrNilPointer)
// can be compared with errors.Is.
package config
