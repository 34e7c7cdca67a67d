package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Show prints the flattened leaves of one source's record.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	rec, err := a.newOrchestrator(store).GetRates(ctx, opts.Source, opts.Refresh)
	if err != nil {
		return err
	}

	origin := "live"
	if rec.ServedFromCache {
		origin = "cache"
	}
	fmt.Fprintf(os.Stdout, "%s (%s)\neffective %s, updated %s, served from %s\n\n",
		rec.SourceName, rec.SourceID,
		rec.EffectiveDate,
		rec.LastUpdated.UTC().Format(time.RFC3339),
		origin,
	)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Rate\tValue")

	for _, leaf := range rec.Data.Flatten() {
		value := "-"
		if leaf.Rate != nil {
			value = leaf.Rate.String() + "%"
		}
		fmt.Fprintf(writer, "%s\t%s\n", leaf.Path, value)
	}

	return writer.Flush()
}
