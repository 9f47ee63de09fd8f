// Package config loads runtime settings for the Ayurlekha CLI.
//
// Sources are applied in order, later ones winning:
// defaults -> environment (.env supported) -> JSON file -> command-line flags.
package config

import "time"

// Config holds runtime settings for the Ayurlekha CLI.
type Config struct {
	// PlatformURL is the base URL of the hosted backend,
	// e.g. "https://myproject.example.co".
	PlatformURL string

	// PlatformAnonKey is the publishable API key sent with every request.
	PlatformAnonKey string

	// DocumentsBucket is the storage bucket holding document blobs and
	// generated summaries.
	DocumentsBucket string

	// DatabaseFile is the path of the local cache database.
	DatabaseFile string

	// SignedURLTTL is the lifetime of document preview / summary links.
	SignedURLTTL time.Duration

	// TablesDSN, when set, switches the relational surface to a direct
	// Postgres connection (self-hosted deployments).
	TablesDSN string

	// S3Endpoint, when set, switches blob storage to an S3-compatible
	// bucket (self-hosted deployments). The remaining S3 fields only
	// matter when it is set.
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DocumentsBucket = "medical-documents"
	c.DatabaseFile = "ayurlekha.db"
	c.SignedURLTTL = 5 * time.Minute
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, a JSON file (if present) and command-line flags. Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
