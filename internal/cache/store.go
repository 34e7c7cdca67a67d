package cache

import (
	"context"
	"errors"
)

// ErrNoRecord indicates the store holds nothing for the requested source.
var ErrNoRecord = errors.New("cache: no record for source")

// Store persists rate records per source, retaining a bounded history of
// snapshots. Get returns the newest record; History returns snapshots
// newest first; Trim drops all but the newest keep snapshots per source.
type Store interface {
	Get(ctx context.Context, sourceID string) (RateRecord, error)
	Put(ctx context.Context, rec RateRecord) error
	History(ctx context.Context, sourceID string, limit int) ([]RateRecord, error)
	Trim(ctx context.Context, sourceID string, keep int) error
}
