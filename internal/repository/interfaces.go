package repository

import (
	"context"
)

// KeyValueStore defines the interface for durable device-local storage.
// Get reports found=false, with a nil error, when the key is absent.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by stores backed by a remote service.
type Pinger interface {
	Ping(ctx context.Context) error
}
