package config

import (
	"flag"
	"os"

	"github.com/ayurlekha/ayurlekha/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-u string   base URL of the hosted backend
//	-k string   publishable API key
//	-b string   documents bucket name
//	-f string   local cache database file
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-b", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.PlatformURL, "u", cfg.PlatformURL, "base URL of the hosted backend")
	fs.StringVar(&cfg.PlatformAnonKey, "k", cfg.PlatformAnonKey, "publishable API key")
	fs.StringVar(&cfg.DocumentsBucket, "b", cfg.DocumentsBucket, "documents bucket name")
	fs.StringVar(&cfg.DatabaseFile, "f", cfg.DatabaseFile, "local cache database file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
