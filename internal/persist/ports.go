package persist

import (
	"context"
	"time"
)

// Storage is durable key-value storage for collection payloads.
// Get reports ok=false for a missing key; that is not an error.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Markers is lightweight flag storage with expiry. A marker records that a
// payload for a collection exists; it can be cleared independently of the
// payload, and an absent marker means the payload must be ignored.
type Markers interface {
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	Set(ctx context.Context, name, value string, maxAge time.Duration) error
	Clear(ctx context.Context, name string) error
}

// Keys names the payload and marker entries of one session.
type Keys struct {
	CartPayload      string
	CartMarker       string
	FavoritesPayload string
	FavoritesMarker  string
}

// DefaultKeys returns the unscoped key layout.
func DefaultKeys() Keys {
	return Keys{
		CartPayload:      "cart",
		CartMarker:       "cart_saved",
		FavoritesPayload: "favorites",
		FavoritesMarker:  "favorites_saved",
	}
}

// SessionKeys returns the key layout scoped to a session id.
func SessionKeys(sessionID string) Keys {
	k := DefaultKeys()
	prefix := "session:" + sessionID + ":"
	return Keys{
		CartPayload:      prefix + k.CartPayload,
		CartMarker:       prefix + k.CartMarker,
		FavoritesPayload: prefix + k.FavoritesPayload,
		FavoritesMarker:  prefix + k.FavoritesMarker,
	}
}
