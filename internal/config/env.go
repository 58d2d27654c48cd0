// Package config reads the runtime configuration that is not part of a
// Setup resource: provider credentials and endpoints taken from the
// environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvOrgoAPIKey      = "ORGO_API_KEY"
	EnvOrgoAPIURL      = "ORGO_API_URL"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
)

// DefaultOrgoAPIURL is the Orgo API base URL used when ORGO_API_URL is unset.
const DefaultOrgoAPIURL = "https://www.orgo.ai/api"

// ErrMissingAPIKey is returned when the provider API key is required but unset.
var ErrMissingAPIKey = errors.New(EnvOrgoAPIKey + " environment variable is required")

// Env holds credentials and endpoints read from the environment.
type Env struct {
	// OrgoAPIKey authenticates against the Orgo API.
	OrgoAPIKey string
	// OrgoAPIURL is the Orgo API base URL.
	OrgoAPIURL string
	// AnthropicAPIKey is optional. When set it is made available to
	// browser-use inside the computer.
	AnthropicAPIKey string
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from the given files (".env" when none are
// given) into the process environment. Missing files are ignored, and
// variables that are already set are never overridden.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat %s: %w", f, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// FromEnv reads the configuration from the process environment.
func FromEnv() (*Env, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup reads the configuration through lookup.
func FromLookup(lookup LookupFunc) (*Env, error) {
	env := &Env{
		OrgoAPIKey:      get(lookup, EnvOrgoAPIKey),
		OrgoAPIURL:      get(lookup, EnvOrgoAPIURL),
		AnthropicAPIKey: get(lookup, EnvAnthropicAPIKey),
	}
	if env.OrgoAPIURL == "" {
		env.OrgoAPIURL = DefaultOrgoAPIURL
	}
	env.OrgoAPIURL = strings.TrimRight(env.OrgoAPIURL, "/")

	u, err := url.Parse(env.OrgoAPIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvOrgoAPIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid %s %q: scheme must be http or https", EnvOrgoAPIURL, env.OrgoAPIURL)
	}

	return env, nil
}

// RequireOrgo checks that the Orgo credentials are present.
func (e *Env) RequireOrgo() error {
	if e.OrgoAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Secrets returns the values that must never appear in logs.
func (e *Env) Secrets() []string {
	var s []string
	if e.OrgoAPIKey != "" {
		s = append(s, e.OrgoAPIKey)
	}
	if e.AnthropicAPIKey != "" {
		s = append(s, e.AnthropicAPIKey)
	}
	return s
}

func get(lookup LookupFunc, key string) string {
	v, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
