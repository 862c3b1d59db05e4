package availability

import (
	"math"
	"sort"
	"time"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Percent returns available/total as a percentage rounded to one decimal.
// It returns 0 when total is 0.
func Percent(available, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(available)/float64(total)*1000) / 10
}

// Aggregator evaluates every baseline agent and groups the results.
type Aggregator struct {
	window time.Duration
	clock  func() time.Time
	logger zerolog.Logger
}

// NewAggregator creates an Aggregator using the given freshness window.
func NewAggregator(window time.Duration, logger zerolog.Logger) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{
		window: window,
		clock:  time.Now,
		logger: logger.With().Str("component", "availability_aggregator").Logger(),
	}
}

// Window returns the freshness window in use.
func (a *Aggregator) Window() time.Duration {
	return a.window
}

// Aggregate evaluates each agent of each index against feed and returns one
// group per (OS, Domain), ordered by OS (Windows first) then domain.
func (a *Aggregator) Aggregate(indexes []*Index, feed Feed, now time.Time) []models.GroupReport {
	ordered := make([]*Index, 0, len(indexes))
	for _, idx := range indexes {
		if idx != nil {
			ordered = append(ordered, idx)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OS().Rank() < ordered[j].OS().Rank()
	})

	var groups []models.GroupReport
	for _, idx := range ordered {
		for _, domain := range idx.Domains() {
			groups = append(groups, a.aggregateGroup(idx.OS(), domain, idx.Agents(domain), feed, now))
		}
	}
	return groups
}

func (a *Aggregator) aggregateGroup(os models.OperatingSystem, domain string, agents []string, feed Feed, now time.Time) models.GroupReport {
	group := models.GroupReport{
		Summary: models.GroupSummary{
			OS:                   os,
			Domain:               domain,
			TotalHosts:           len(agents),
			UnavailableHostNames: []string{},
		},
		Results: make([]models.EvaluationResult, 0, len(agents)),
	}

	for _, name := range agents {
		result := Evaluate(models.AgentKey{OS: os, Domain: domain, AgentName: name}, feed, now, a.window)
		group.Results = append(group.Results, result)

		if result.Available() {
			group.Summary.AvailableHosts++
			continue
		}
		group.Summary.UnavailableHostNames = append(group.Summary.UnavailableHostNames, name)
		if result.Malformed {
			group.Summary.MalformedHostNames = append(group.Summary.MalformedHostNames, name)
		}
	}

	group.Summary.AvailabilityPercent = Percent(group.Summary.AvailableHosts, group.Summary.TotalHosts)

	a.logger.Debug().
		Str("os", string(os)).
		Str("domain", domain).
		Int("total", group.Summary.TotalHosts).
		Int("available", group.Summary.AvailableHosts).
		Float64("percent", group.Summary.AvailabilityPercent).
		Msg("group aggregated")

	return group
}

// SummarizeOS rolls the groups of one operating system into an OSSummary.
func SummarizeOS(os models.OperatingSystem, groups []models.GroupReport) models.OSSummary {
	summary := models.OSSummary{OS: os}
	for _, g := range groups {
		if g.Summary.OS != os {
			continue
		}
		summary.TotalHosts += g.Summary.TotalHosts
		summary.AvailableHosts += g.Summary.AvailableHosts
	}
	summary.BaselineEmpty = summary.TotalHosts == 0
	summary.AvailabilityPercent = Percent(summary.AvailableHosts, summary.TotalHosts)
	return summary
}

// Report builds the complete report model. Operating systems without an index
// appear with an empty-baseline summary of zero hosts.
func (a *Aggregator) Report(indexes []*Index, feed Feed, malformed []models.MalformedTimestamp, now time.Time) *models.AvailabilityReport {
	groups := a.Aggregate(indexes, feed, now)

	report := &models.AvailabilityReport{
		RunID:         uuid.New(),
		GeneratedAt:   a.clock(),
		ReferenceTime: now,
		Window:        a.window,
		Groups:        groups,
	}

	for _, os := range models.SupportedOperatingSystems {
		report.OperatingSystems = append(report.OperatingSystems, SummarizeOS(os, groups))
	}

	for _, m := range malformed {
		for _, idx := range indexes {
			if idx != nil && idx.Contains(m.Key) {
				m.InBaseline = true
				break
			}
		}
		report.MalformedTimestamps = append(report.MalformedTimestamps, m)
	}

	a.logger.Info().
		Str("run_id", report.RunID.String()).
		Int("groups", len(groups)).
		Int("malformed_timestamps", len(report.MalformedTimestamps)).
		Dur("window", a.window).
		Msg("availability report built")

	return report
}
