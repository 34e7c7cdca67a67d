// Package banks defines the concrete rate sources: each bank's URLs,
// schema, and extraction rules. Everything here is data; the scraping
// mechanics live in internal/scrape.
package banks

import (
	"github.com/rs/zerolog"

	"bankrates/internal/fetch"
	"bankrates/internal/scrape"
)

// DefaultRegistry returns all supported sources in their fixed iteration
// order. Aggregate operations visit sources in exactly this order.
func DefaultRegistry(client *fetch.Client, logger zerolog.Logger) *scrape.Registry {
	return scrape.NewRegistry(
		Landsbankinn(client, logger),
		Arionbanki(client, logger),
		Islandsbanki(client, logger),
	)
}
