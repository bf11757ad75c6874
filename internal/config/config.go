package config

import (
	"time"

	"github.com/Dfera000/Buscador-nuevas-ediciones/internal/registry"
	"github.com/spf13/viper"
)

const (
	DefaultCatalogBaseURL = "https://openlibrary.org"
	DefaultRegistryURL    = registry.DefaultSearchURL
)

// Global configuration variables
var (
	// CatalogBaseURL is the OpenLibrary root, without trailing slash
	CatalogBaseURL string
	// CatalogPause is the pause after each record's catalog lookup; calls
	// within a lookup are spaced by a quarter of it
	CatalogPause time.Duration
	// CatalogRetries is the number of attempts for transient HTTP failures
	CatalogRetries int
	// CatalogTimeout bounds a single HTTP request
	CatalogTimeout time.Duration

	// RegistryURL is the Spanish ISBN registry search page
	RegistryURL string
	// RegistryPageTimeout bounds waiting for the search form
	RegistryPageTimeout time.Duration
	// RegistryResultsTimeout bounds waiting for results or the no-results notice
	RegistryResultsTimeout time.Duration
	// RegistryCookieTimeout bounds probing each cookie banner button
	RegistryCookieTimeout time.Duration

	// Headless runs the browser without a window
	Headless bool
	// AllowMissingYear resolves rows without a year instead of skipping them
	AllowMissingYear bool
)

// SetDefaults registers default values for every key this package reads.
func SetDefaults() {
	viper.SetDefault("catalog.baseurl", DefaultCatalogBaseURL)
	viper.SetDefault("catalog.pause", "800ms")
	viper.SetDefault("catalog.retries", 2)
	viper.SetDefault("catalog.timeout", "20s")

	viper.SetDefault("registry.url", DefaultRegistryURL)
	viper.SetDefault("registry.pagetimeout", "20s")
	viper.SetDefault("registry.resultstimeout", "12s")
	viper.SetDefault("registry.cookietimeout", "3s")

	viper.SetDefault("browser.headless", true)
	viper.SetDefault("input.allowmissingyear", false)
}

// InitConfig initializes the global configuration
func InitConfig() {
	SetDefaults()

	CatalogBaseURL = viper.GetString("catalog.baseurl")
	CatalogPause = viper.GetDuration("catalog.pause")
	CatalogRetries = viper.GetInt("catalog.retries")
	CatalogTimeout = viper.GetDuration("catalog.timeout")

	RegistryURL = viper.GetString("registry.url")
	RegistryPageTimeout = viper.GetDuration("registry.pagetimeout")
	RegistryResultsTimeout = viper.GetDuration("registry.resultstimeout")
	RegistryCookieTimeout = viper.GetDuration("registry.cookietimeout")

	Headless = viper.GetBool("browser.headless")
	AllowMissingYear = viper.GetBool("input.allowmissingyear")
}

// SetAllowMissingYear sets the AllowMissingYear flag
func SetAllowMissingYear(allow bool) {
	AllowMissingYear = allow
}

// SetHeadless sets the Headless flag
func SetHeadless(headless bool) {
	Headless = headless
}
