// Package config reads suite settings from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/janisto/prima-profile-e2e/internal/service/gateway"
)

// Defaults mirror the values the suite has always run with.
const (
	DefaultBaseURL         = "https://www.iprima.cz/"
	DefaultCleanupTimeout  = 30 * time.Second
	DefaultMaxTestProfiles = 10
	DefaultRequestTimeout  = 15 * time.Second
	DefaultResponseTimeout = 20 * time.Second
	DefaultPageLoadTimeout = 30 * time.Second
	DefaultCommandTimeout  = 10 * time.Second
	DefaultPort            = "8089"
	DefaultFakeMaxProfiles = 10
	defaultEnvFile         = ".env"
)

// Config holds every tunable of the test suite and its helper commands.
type Config struct {
	Email    string
	Password string

	APIBaseURL string
	BaseURL    string

	CleanupTimeout  time.Duration
	MaxTestProfiles int

	RequestTimeout  time.Duration
	ResponseTimeout time.Duration
	PageLoadTimeout time.Duration
	CommandTimeout  time.Duration
	Headless        bool

	Port            string
	FakeMaxProfiles int

	FirebaseProjectID string
	FirebaseAPIKey    string
	CredentialsFile   string
}

// HasCredentials reports whether both test account fields are set.
// Enforcement happens in the gateway client, which fails with ErrConfiguration.
func (c Config) HasCredentials() bool {
	return strings.TrimSpace(c.Email) != "" && strings.TrimSpace(c.Password) != ""
}

// Load reads the given dotenv files (".env" when none are named) into the process
// environment and then parses it. Missing files are not an error; variables already
// set in the environment win over file values.
func Load(files ...string) (Config, error) {
	explicit := len(files) > 0
	if !explicit {
		files = []string{defaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !explicit && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv parses a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (Config, error) {
	p := parser{getenv: getenv}
	cfg := Config{
		Email:             getenv("TEST_EMAIL"),
		Password:          getenv("TEST_PASSWORD"),
		APIBaseURL:        p.str("API_BASE_URL", gateway.DefaultEndpoint),
		BaseURL:           p.str("BASE_URL", DefaultBaseURL),
		CleanupTimeout:    p.millis("PROFILE_CLEANUP_TIMEOUT", DefaultCleanupTimeout),
		MaxTestProfiles:   p.positiveInt("MAX_TEST_PROFILES", DefaultMaxTestProfiles),
		RequestTimeout:    p.millis("REQUEST_TIMEOUT", DefaultRequestTimeout),
		ResponseTimeout:   p.millis("RESPONSE_TIMEOUT", DefaultResponseTimeout),
		PageLoadTimeout:   p.millis("PAGE_LOAD_TIMEOUT", DefaultPageLoadTimeout),
		CommandTimeout:    p.millis("DEFAULT_COMMAND_TIMEOUT", DefaultCommandTimeout),
		Headless:          p.boolean("HEADLESS", true),
		Port:              p.str("PORT", DefaultPort),
		FakeMaxProfiles:   p.positiveInt("FAKE_GATEWAY_MAX_PROFILES", DefaultFakeMaxProfiles),
		FirebaseProjectID: getenv("FIREBASE_PROJECT_ID"),
		FirebaseAPIKey:    getenv("FIREBASE_API_KEY"),
		CredentialsFile:   getenv("GOOGLE_APPLICATION_CREDENTIALS"),
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) millis(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s must be a positive number of milliseconds, got %q", key, v))
		return def
	}
	return time.Duration(n) * time.Millisecond
}

func (p *parser) positiveInt(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s must be a positive integer, got %q", key, v))
		return def
	}
	return n
}

func (p *parser) boolean(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s must be a boolean, got %q", key, v))
		return def
	}
	return b
}
