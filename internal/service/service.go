// Package service orchestrates scraping, the AI fallback, and the cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"bankrates/internal/ai"
	"bankrates/internal/alerting"
	"bankrates/internal/cache"
	"bankrates/internal/ratetree"
	"bankrates/internal/scrape"
)

// ErrUnknownSource indicates the caller referenced a source the registry
// does not know. Returned before any network activity.
var ErrUnknownSource = errors.New("unknown source")

// Failure describes one source that could not be refreshed during an
// aggregate operation.
type Failure struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Error      string `json:"error"`
}

// AggregateResult is the outcome of a visit to every registered source.
// A failed source appears in Failures and never aborts the rest.
type AggregateResult struct {
	Records   []cache.RateRecord `json:"records"`
	Failures  []Failure          `json:"failures,omitempty"`
	FetchedAt time.Time          `json:"fetched_at"`
}

// Options carry the orchestrator's policy knobs.
type Options struct {
	TTL           time.Duration
	KeepLatest    int
	AIEnabled     bool
	NullThreshold int
	Now           func() time.Time // defaults to time.Now
}

// Orchestrator serves rate records from the cache, refreshing them
// through the scrape pipeline when they are missing, stale, or a refresh
// is forced.
type Orchestrator struct {
	registry *scrape.Registry
	store    cache.Store
	parser   ai.Parser
	notifier alerting.Notifier
	opts     Options
	now      func() time.Time
	logger   zerolog.Logger
}

// New constructs the orchestrator. parser and notifier may be nil; the
// pipeline then runs without AI escalation or change alerts.
func New(registry *scrape.Registry, store cache.Store, parser ai.Parser, notifier alerting.Notifier, opts Options, logger zerolog.Logger) *Orchestrator {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		registry: registry,
		store:    store,
		parser:   parser,
		notifier: notifier,
		opts:     opts,
		now:      now,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
}

// Sources returns the registered source IDs in iteration order.
func (o *Orchestrator) Sources() []string {
	return o.registry.IDs()
}

// GetRates returns the record for one source. A fresh cached record is
// served as-is with ServedFromCache set; a missing or stale record, or
// force, triggers the scrape pipeline.
func (o *Orchestrator) GetRates(ctx context.Context, sourceID string, force bool) (cache.RateRecord, error) {
	scraper, ok := o.registry.Lookup(sourceID)
	if !ok {
		return cache.RateRecord{}, fmt.Errorf("%w: %q", ErrUnknownSource, sourceID)
	}

	if !force {
		rec, err := o.store.Get(ctx, scraper.SourceID())
		switch {
		case err == nil && !cache.IsStale(rec, o.now().UTC(), o.opts.TTL):
			rec.ServedFromCache = true
			o.logger.Debug().Str("source", rec.SourceID).Msg("cache hit")
			return rec, nil
		case err != nil && !errors.Is(err, cache.ErrNoRecord):
			o.logger.Warn().Err(err).Str("source", scraper.SourceID()).Msg("cache read failed, refreshing")
		}
	}

	return o.refresh(ctx, scraper)
}

// GetAllRates visits every registered source in order. Sources are
// refreshed sequentially; one failure is recorded and the walk continues.
func (o *Orchestrator) GetAllRates(ctx context.Context, force bool) (AggregateResult, error) {
	result := AggregateResult{FetchedAt: o.now().UTC()}

	for _, id := range o.registry.IDs() {
		rec, err := o.GetRates(ctx, id, force)
		if err != nil {
			name := id
			if scraper, ok := o.registry.Lookup(id); ok {
				name = scraper.SourceName()
			}
			o.logger.Error().Err(err).Str("source", id).Msg("source refresh failed")
			result.Failures = append(result.Failures, Failure{
				SourceID:   id,
				SourceName: name,
				Error:      err.Error(),
			})
			continue
		}
		result.Records = append(result.Records, rec)
	}

	return result, nil
}

func (o *Orchestrator) refresh(ctx context.Context, scraper scrape.Scraper) (cache.RateRecord, error) {
	sourceID := scraper.SourceID()

	scraped, err := scraper.ScrapeRates(ctx)
	if err != nil {
		return cache.RateRecord{}, fmt.Errorf("scrape %s: %w", sourceID, err)
	}

	data := o.maybeEscalate(ctx, sourceID, scraped)

	var previous *cache.RateRecord
	if prev, prevErr := o.store.Get(ctx, sourceID); prevErr == nil {
		previous = &prev
	}

	rec := cache.RateRecord{
		SourceID:      sourceID,
		SourceName:    scraper.SourceName(),
		EffectiveDate: scraped.EffectiveDate,
		LastUpdated:   o.now().UTC(),
		Data:          data,
		SourceURL:     scraped.SourceURL,
	}

	if err := o.store.Put(ctx, rec); err != nil {
		o.logger.Error().Err(err).Str("source", sourceID).Msg("cache write failed")
	} else if o.opts.KeepLatest > 0 {
		if err := o.store.Trim(ctx, sourceID, o.opts.KeepLatest); err != nil {
			o.logger.Error().Err(err).Str("source", sourceID).Msg("history trim failed")
		}
	}

	o.notifyIfChanged(ctx, previous, rec)

	o.logger.Info().
		Str("source", sourceID).
		Stringer("effective_date", rec.EffectiveDate).
		Int("null_leaves", rec.Data.NullLeaves()).
		Int("leaves", rec.Data.Leaves()).
		Msg("source refreshed")

	return rec, nil
}

// maybeEscalate runs the AI fallback when the structural parse left too
// many leaves null. Any AI failure degrades to "no contribution": the
// structural result is returned unchanged and a diagnostic is logged.
func (o *Orchestrator) maybeEscalate(ctx context.Context, sourceID string, scraped scrape.Result) ratetree.Tree {
	data := scraped.Data
	nulls := data.NullLeaves()

	if !o.opts.AIEnabled || o.parser == nil || !ai.ShouldEscalate(nulls, o.opts.NullThreshold) {
		return data
	}

	o.logger.Info().
		Str("source", sourceID).
		Int("null_leaves", nulls).
		Int("threshold", o.opts.NullThreshold).
		Msg("escalating to ai fallback parser")

	aiData, err := o.parser.Parse(ctx, scraped.Raw, data.Shape())
	if err != nil {
		o.logger.Warn().Err(err).Str("source", sourceID).Msg("ai fallback failed, keeping structural result")
		return data
	}

	merged := ratetree.Merge(data, aiData)
	o.logger.Info().
		Str("source", sourceID).
		Int("null_leaves_before", nulls).
		Int("null_leaves_after", merged.NullLeaves()).
		Msg("merged ai fallback result")
	return merged
}

func (o *Orchestrator) notifyIfChanged(ctx context.Context, previous *cache.RateRecord, rec cache.RateRecord) {
	if o.notifier == nil || previous == nil || previous.EffectiveDate == rec.EffectiveDate {
		return
	}

	change := alerting.RateChange{
		SourceID:      rec.SourceID,
		SourceName:    rec.SourceName,
		PreviousDate:  previous.EffectiveDate,
		EffectiveDate: rec.EffectiveDate,
		SourceURL:     rec.SourceURL,
		NullLeaves:    rec.Data.NullLeaves(),
		Leaves:        rec.Data.Leaves(),
	}
	if err := o.notifier.Notify(ctx, change); err != nil {
		o.logger.Error().Err(err).Str("source", rec.SourceID).Msg("rate change alert failed")
	}
}
