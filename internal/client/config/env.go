package config

import (
	"os"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config with values from the process environment. A .env
// file in the working directory is loaded first when present; real
// environment variables win over it.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setIfPresent := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setIfPresent(&cfg.PlatformURL, "AYURLEKHA_PLATFORM_URL")
	setIfPresent(&cfg.PlatformAnonKey, "AYURLEKHA_ANON_KEY")
	setIfPresent(&cfg.DocumentsBucket, "AYURLEKHA_BUCKET")
	setIfPresent(&cfg.DatabaseFile, "AYURLEKHA_DB_FILE")
	setIfPresent(&cfg.TablesDSN, "AYURLEKHA_TABLES_DSN")
	setIfPresent(&cfg.S3Endpoint, "AYURLEKHA_S3_ENDPOINT")
	setIfPresent(&cfg.S3Region, "AYURLEKHA_S3_REGION")
	setIfPresent(&cfg.S3AccessKey, "AYURLEKHA_S3_ACCESS_KEY")
	setIfPresent(&cfg.S3SecretKey, "AYURLEKHA_S3_SECRET_KEY")
}
