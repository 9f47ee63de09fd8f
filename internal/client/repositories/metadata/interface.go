// Package metadata persists small client-side key/value state: the cached
// session and the selected patient pointer.
package metadata

import (
	"context"
)

// Known metadata keys.
const (
	KeySession         = "session"
	KeySelectedPatient = "selected_patient"
)

type Repository interface {
	// Get returns the stored value or nil when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
