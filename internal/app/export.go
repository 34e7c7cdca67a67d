package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"bankrates/internal/cache"
)

// Export writes the retained history of one leaf path as CSV and/or a
// PNG chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Source == "" || opts.LeafPath == "" {
		return errors.New("--source and --path are required")
	}
	if opts.Limit <= 0 {
		opts.Limit = a.Config.Cache.KeepLatest
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	history, err := store.History(ctx, opts.Source, opts.Limit)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		a.Logger.Info().Str("source", opts.Source).Msg("no snapshots to export")
		return nil
	}

	// History comes newest first; exports read better oldest first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	a.Logger.Info().
		Str("source", opts.Source).
		Str("path", opts.LeafPath).
		Int("snapshots", len(history)).
		Msg("exporting leaf history")

	if opts.CSVPath != "" {
		if err := writeLeafCSV(opts.CSVPath, opts.LeafPath, history); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeLeafPNG(opts.PNGPath, opts.LeafPath, opts.Source, history); err != nil {
			return err
		}
	}

	return nil
}

func writeLeafCSV(path, leafPath string, history []cache.RateRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"last_updated", "effective_date", "source_url", leafPath}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range history {
		value := ""
		if rate, ok := rec.Data.Get(leafPath); ok && rate != nil {
			value = rate.String()
		}
		record := []string{
			rec.LastUpdated.UTC().Format(time.RFC3339),
			rec.EffectiveDate.String(),
			rec.SourceURL,
			value,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeLeafPNG(path, leafPath, source string, history []cache.RateRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, 0, len(history))
	y := make([]float64, 0, len(history))
	for _, rec := range history {
		rate, ok := rec.Data.Get(leafPath)
		if !ok || rate == nil {
			continue
		}
		x = append(x, rec.LastUpdated)
		y = append(y, rate.InexactFloat64())
	}
	if len(x) < 2 {
		return fmt.Errorf("need at least 2 non-null snapshots of %s to chart, have %d", leafPath, len(x))
	}

	rateFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Title:  fmt.Sprintf("%s %s", source, leafPath),
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Rate (%)",
			ValueFormatter: rateFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    leafPath,
				XValues: x,
				YValues: y,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
