package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/ayurlekha/ayurlekha/internal/flagx"
	"github.com/ayurlekha/ayurlekha/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the signed-URL TTL either as a string
// like "5m" or as integer nanoseconds.
type JsonConfig struct {
	PlatformURL     string         `json:"platform_url"`
	PlatformAnonKey string         `json:"platform_anon_key"`
	DocumentsBucket string         `json:"documents_bucket"`
	DatabaseFile    string         `json:"database_file"`
	SignedURLTTL    timex.Duration `json:"signed_url_ttl"`
	TablesDSN       string         `json:"tables_dsn"`
	S3Endpoint      string         `json:"s3_endpoint"`
	S3Region        string         `json:"s3_region"`
	S3AccessKey     string         `json:"s3_access_key"`
	S3SecretKey     string         `json:"s3_secret_key"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; when absent, nothing is loaded.
// Only fields present in the file override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&cfg.PlatformURL, jc.PlatformURL)
	overlay(&cfg.PlatformAnonKey, jc.PlatformAnonKey)
	overlay(&cfg.DocumentsBucket, jc.DocumentsBucket)
	overlay(&cfg.DatabaseFile, jc.DatabaseFile)
	overlay(&cfg.TablesDSN, jc.TablesDSN)
	overlay(&cfg.S3Endpoint, jc.S3Endpoint)
	overlay(&cfg.S3Region, jc.S3Region)
	overlay(&cfg.S3AccessKey, jc.S3AccessKey)
	overlay(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.SignedURLTTL.Duration != 0 {
		cfg.SignedURLTTL = time.Duration(jc.SignedURLTTL.Duration)
	}
}
