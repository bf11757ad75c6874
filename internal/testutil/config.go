package testutil

import (
	"testing"
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/config"
	"github.com/spf13/viper"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	CatalogBaseURL         string
	CatalogPause           time.Duration
	CatalogRetries         int
	CatalogTimeout         time.Duration
	RegistryURL            string
	RegistryPageTimeout    time.Duration
	RegistryResultsTimeout time.Duration
	RegistryCookieTimeout  time.Duration
	Headless               bool
	AllowMissingYear       bool
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		CatalogBaseURL:         config.CatalogBaseURL,
		CatalogPause:           config.CatalogPause,
		CatalogRetries:         config.CatalogRetries,
		CatalogTimeout:         config.CatalogTimeout,
		RegistryURL:            config.RegistryURL,
		RegistryPageTimeout:    config.RegistryPageTimeout,
		RegistryResultsTimeout: config.RegistryResultsTimeout,
		RegistryCookieTimeout:  config.RegistryCookieTimeout,
		Headless:               config.Headless,
		AllowMissingYear:       config.AllowMissingYear,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.CatalogBaseURL = state.CatalogBaseURL
	config.CatalogPause = state.CatalogPause
	config.CatalogRetries = state.CatalogRetries
	config.CatalogTimeout = state.CatalogTimeout
	config.RegistryURL = state.RegistryURL
	config.RegistryPageTimeout = state.RegistryPageTimeout
	config.RegistryResultsTimeout = state.RegistryResultsTimeout
	config.RegistryCookieTimeout = state.RegistryCookieTimeout
	config.Headless = state.Headless
	config.AllowMissingYear = state.AllowMissingYear
}

// SetTestConfig resets viper and installs fast, offline-friendly values:
// no catalog pause, a single HTTP attempt, short browser waits. The
// previous state is restored when the test completes.
func SetTestConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	config.CatalogBaseURL = "http://catalog.invalid"
	config.CatalogPause = 0
	config.CatalogRetries = 1
	config.CatalogTimeout = 2 * time.Second
	config.RegistryURL = config.DefaultRegistryURL
	config.RegistryPageTimeout = 50 * time.Millisecond
	config.RegistryResultsTimeout = 50 * time.Millisecond
	config.RegistryCookieTimeout = 10 * time.Millisecond
	config.Headless = true
	config.AllowMissingYear = false

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// viper has no Unset, so a previously unset key stays set
	})
}

// SetupTestCache points the response cache at a database inside env.
func SetupTestCache(t *testing.T, env *TestEnv) string {
	t.Helper()

	dbPath := env.Path("cache", "test-cache.db")
	env.WriteFileString("cache/.keep", "")
	SetViperValue(t, "cache.enabled", true)
	SetViperValue(t, "cache.dbfile", dbPath)
	SetViperValue(t, "cache.ttl", "24h")

	return dbPath
}
