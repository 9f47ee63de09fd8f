// Package cli implements the interactive Ayurlekha command-line client.
//
// The CLI is a read-eval-print loop over the client services: OTP sign-in,
// patient management, record browsing, document upload, and the generated
// medical-history summary. Commands touching patient data are only available
// while a session is live; signing out returns the REPL to its anonymous
// command set.
package cli
