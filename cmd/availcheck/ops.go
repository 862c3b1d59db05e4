package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/MacJediWizard/availcheck/internal/availability"
	"github.com/MacJediWizard/availcheck/internal/export"
	agentimport "github.com/MacJediWizard/availcheck/internal/import"
	"github.com/MacJediWizard/availcheck/internal/metrics"
	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/MacJediWizard/availcheck/internal/reports"
	"github.com/dustin/go-humanize"
)

// checkOptions holds the inputs of one availability check.
type checkOptions struct {
	feeds        map[models.OperatingSystem]string
	outputBase   string
	now          time.Time
	metricsFile  string
	exportFormat string
}

// loadBaseline validates path and replaces the stored baseline of platform.
func (a *app) loadBaseline(ctx context.Context, platform models.OperatingSystem, path string) error {
	rows, err := agentimport.ReadBaselineFile(path)
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ReplaceAll(ctx, platform, rows); err != nil {
		return fmt.Errorf("store %s baseline: %w", platform, err)
	}

	fmt.Fprintf(a.out, "Loaded %d %s baseline agents from %s\n", len(rows), platform, filepath.Base(path))
	return nil
}

// runCheck evaluates the feeds, prints the console report and writes the
// spreadsheet, document and optional metrics files.
func (a *app) runCheck(ctx context.Context, opts checkOptions) error {
	base, err := reports.OutputBase(opts.outputBase, a.cfg.ReportName)
	if err != nil {
		return err
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	generator := reports.NewGenerator(store, a.cfg.WindowDuration(), a.logger)
	report, err := generator.Check(ctx, reports.CheckRequest{Feeds: opts.feeds, Now: opts.now})
	if err != nil {
		if errors.Is(err, availability.ErrNoBaseline) {
			return fmt.Errorf("%w: load a Windows or Linux baseline first", err)
		}
		return err
	}

	if err := reports.NewConsoleRenderer(a.cfg.HealthyThreshold).Render(a.out, report); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	reportsDir, err := a.cfg.ResolveReportsDir()
	if err != nil {
		return err
	}
	renderers := []reports.FileRenderer{
		reports.NewXLSXRenderer(),
		reports.NewDOCXRenderer(a.cfg.HealthyThreshold),
	}
	if opts.exportFormat != "" {
		format, err := export.ParseFormat(opts.exportFormat)
		if err != nil {
			return err
		}
		renderers = append(renderers, export.NewExporter(export.ExportOptions{Format: format}, a.logger))
	}

	writer := reports.NewWriter(reportsDir, a.logger, renderers...)
	paths, err := writer.Write(report, base)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(a.out, "Report generated: %s\n", p)
	}

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile, report, a.logger); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Metrics written: %s\n", opts.metricsFile)
	}

	return nil
}

// showInfo prints the baseline database location, size and agent counts.
func (a *app) showInfo(ctx context.Context) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	info, err := store.Info(ctx)
	if err != nil {
		return fmt.Errorf("read database info: %w", err)
	}

	fmt.Fprintln(a.out, "\n--- Database Info ---")
	fmt.Fprintf(a.out, "Database:       %s\n", info.Path)
	if info.Exists {
		fmt.Fprintf(a.out, "Size:           %s\n", humanize.Bytes(uint64(info.SizeBytes)))
		fmt.Fprintf(a.out, "Last Modified:  %s (%s)\n",
			info.LastModified.Format(models.ReportTimeFormat), humanize.Time(info.LastModified))
	}
	for _, platform := range models.SupportedOperatingSystems {
		count := info.WindowsCount
		if platform == models.OSLinux {
			count = info.LinuxCount
		}
		line := fmt.Sprintf("%-7s agents: %d", platform, count)
		if loaded, ok := info.LoadedAt[platform]; ok {
			line += fmt.Sprintf(" (loaded %s)", humanize.Time(loaded))
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

// parseReferenceTime accepts RFC 3339 or any supported feed timestamp layout.
func parseReferenceTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return availability.Normalize(raw, time.Local)
}
