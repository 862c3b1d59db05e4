// Package reports runs availability checks and renders their results.
package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MacJediWizard/availcheck/internal/availability"
	agentimport "github.com/MacJediWizard/availcheck/internal/import"
	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/rs/zerolog"
)

// BaselineStore defines the baseline access needed by the generator.
type BaselineStore interface {
	ReadAll(ctx context.Context, os models.OperatingSystem) ([]models.BaselineRow, error)
}

// CheckRequest describes one availability check.
type CheckRequest struct {
	// Feeds maps an operating system to its availability CSV path. An OS
	// without a path is checked against an empty feed.
	Feeds map[models.OperatingSystem]string
	// Now is the reference time. Zero means the current time. Feed timestamps
	// without a zone are read in Now's location.
	Now time.Time
}

// Generator runs the baseline, ingestion and evaluation pipeline.
type Generator struct {
	store      BaselineStore
	aggregator *availability.Aggregator
	logger     zerolog.Logger
}

// NewGenerator creates a new report generator.
func NewGenerator(store BaselineStore, window time.Duration, logger zerolog.Logger) *Generator {
	return &Generator{
		store:      store,
		aggregator: availability.NewAggregator(window, logger),
		logger:     logger.With().Str("component", "report_generator").Logger(),
	}
}

// Check builds the availability report for req. Ingestion errors abort the
// check before any agent is evaluated. An operating system without baseline
// rows contributes no groups; when no operating system has any the check
// fails with availability.ErrNoBaseline.
func (g *Generator) Check(ctx context.Context, req CheckRequest) (*models.AvailabilityReport, error) {
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	normalizer := availability.NewNormalizer(now.Location())

	g.logger.Debug().
		Time("reference_time", now).
		Str("zone", normalizer.Location().String()).
		Dur("window", g.aggregator.Window()).
		Int("feeds", len(req.Feeds)).
		Msg("starting availability check")

	indexes, err := g.buildIndexes(ctx)
	if err != nil {
		return nil, err
	}

	var records []models.AvailabilityRecord
	for _, platform := range models.SupportedOperatingSystems {
		path, ok := req.Feeds[platform]
		if !ok || path == "" {
			g.logger.Info().Str("os", string(platform)).Msg("no availability feed supplied, treating as empty")
			continue
		}

		rows, err := agentimport.ReadAvailabilityFile(path, platform)
		if err != nil {
			return nil, fmt.Errorf("ingest %s availability: %w", platform, err)
		}

		g.logger.Info().
			Str("os", string(platform)).
			Str("path", path).
			Int("records", len(rows)).
			Msg("availability feed ingested")

		records = append(records, rows...)
	}

	feed, malformed := availability.BuildFeed(records, normalizer)
	for _, m := range malformed {
		g.logger.Warn().
			Str("agent", m.Key.String()).
			Str("raw_timestamp", m.RawTimestamp).
			Int("row", m.RowNumber).
			Msg("malformed timestamp")
	}

	return g.aggregator.Report(indexes, feed, malformed, now), nil
}

func (g *Generator) buildIndexes(ctx context.Context) ([]*availability.Index, error) {
	var indexes []*availability.Index
	for _, platform := range models.SupportedOperatingSystems {
		idx, err := availability.BuildIndex(ctx, g.store, platform)
		if err != nil {
			if availability.IsEmptyBaseline(err) {
				g.logger.Warn().Str("os", string(platform)).Msg("baseline is empty")
				continue
			}
			return nil, err
		}
		g.logger.Debug().
			Str("os", string(platform)).
			Int("agents", idx.Len()).
			Int("domains", len(idx.Domains())).
			Msg("baseline indexed")
		indexes = append(indexes, idx)
	}

	if len(indexes) == 0 {
		return nil, availability.ErrNoBaseline
	}
	return indexes, nil
}

// IsIngestionError reports whether err is, or wraps, a CSV ingestion error.
func IsIngestionError(err error) bool {
	var target *agentimport.IngestionError
	return errors.As(err, &target)
}
