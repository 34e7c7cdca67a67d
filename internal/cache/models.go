// Package cache stores scraped rate records per source with a TTL
// staleness policy and bounded history retention.
package cache

import (
	"time"

	"cloud.google.com/go/civil"

	"bankrates/internal/ratetree"
)

// RateRecord is the unit of storage and the unit served to consumers.
// Field names are part of the persisted contract and must not change.
type RateRecord struct {
	SourceID        string        `json:"source_id"`
	SourceName      string        `json:"source_name"`
	EffectiveDate   civil.Date    `json:"effective_date"`
	LastUpdated     time.Time     `json:"last_updated"`
	Data            ratetree.Tree `json:"data"`
	SourceURL       string        `json:"source_url"`
	ServedFromCache bool          `json:"served_from_cache"`
}

// IsStale reports whether a record's age meets or exceeds the TTL. The
// boundary is inclusive: a record exactly TTL old is already stale.
func IsStale(rec RateRecord, now time.Time, ttl time.Duration) bool {
	return now.Sub(rec.LastUpdated) >= ttl
}
