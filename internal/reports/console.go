package reports

import (
	"fmt"
	"io"
	"strings"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/charmbracelet/lipgloss"
)

// DefaultHealthyThreshold is the percentage at or above which a group is healthy.
const DefaultHealthyThreshold = 75.0

const (
	colorHealthy   = "#50FA7B"
	colorUnhealthy = "#FF5555"
	colorMuted     = "#6272A4"
	colorTitle     = "#8BE9FD"
)

// ConsoleRenderer writes a plain-text report suitable for a terminal.
type ConsoleRenderer struct {
	threshold float64

	title     lipgloss.Style
	label     lipgloss.Style
	healthy   lipgloss.Style
	unhealthy lipgloss.Style
	muted     lipgloss.Style
}

// NewConsoleRenderer creates a console renderer. A threshold outside 0-100
// falls back to DefaultHealthyThreshold.
func NewConsoleRenderer(threshold float64) *ConsoleRenderer {
	if threshold < 0 || threshold > 100 {
		threshold = DefaultHealthyThreshold
	}
	return &ConsoleRenderer{
		threshold: threshold,
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorTitle)),
		label:     lipgloss.NewStyle().Bold(true),
		healthy:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorHealthy)),
		unhealthy: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorUnhealthy)),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted)),
	}
}

// Healthy reports whether percent meets the threshold.
func (c *ConsoleRenderer) Healthy(percent float64) bool {
	return percent >= c.threshold
}

// Render writes the report to w.
func (c *ConsoleRenderer) Render(w io.Writer, report *models.AvailabilityReport) error {
	var b strings.Builder
	rule := strings.Repeat("=", 50)

	fmt.Fprintf(&b, "\n%s\n%s\n%s\n", rule, c.title.Render("AGENT AVAILABILITY REPORT"), rule)
	fmt.Fprintf(&b, "%s\n\n", c.muted.Render(fmt.Sprintf("Reference time: %s  Window: %s  Run: %s",
		report.ReferenceTime.Format(models.ReportTimeFormat), report.Window, report.RunID)))

	for _, group := range report.Groups {
		c.renderGroup(&b, group)
	}

	for _, os := range report.OperatingSystems {
		if os.BaselineEmpty {
			fmt.Fprintf(&b, "%s %s\n\n", c.label.Render("Operating System:"), os.OS)
			fmt.Fprintf(&b, "%s\n\n", c.muted.Render("No baseline loaded."))
		}
	}

	if len(report.MalformedTimestamps) > 0 {
		fmt.Fprintf(&b, "%s\n", c.label.Render("Malformed Timestamps:"))
		for _, m := range report.MalformedTimestamps {
			note := ""
			if !m.InBaseline {
				note = " (not in baseline)"
			}
			fmt.Fprintf(&b, "\t*\t%s %q%s\n", m.Key, m.RawTimestamp, note)
		}
		b.WriteString("\n")
	}

	b.WriteString(rule)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (c *ConsoleRenderer) renderGroup(b *strings.Builder, group models.GroupReport) {
	s := group.Summary

	fmt.Fprintf(b, "%s %s\n", c.label.Render("Operating System:"), s.OS)
	fmt.Fprintf(b, "%s %s\n", c.label.Render("Domain:"), s.Domain)

	unavailable := group.UnavailableResults()
	if len(unavailable) == 0 {
		fmt.Fprintf(b, "%s None\n", c.label.Render("Hosts Not Available:"))
	} else {
		fmt.Fprintf(b, "%s\n", c.label.Render("Hosts Not Available:"))
		for _, r := range unavailable {
			line := fmt.Sprintf("\t*\t%s", r.Key.AgentName)
			if r.Malformed {
				line += c.muted.Render(fmt.Sprintf(" (malformed timestamp %q)", r.RawTimestamp))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	style := c.unhealthy
	if c.Healthy(s.AvailabilityPercent) {
		style = c.healthy
	}
	fmt.Fprintf(b, "%s %s (%d/%d)\n\n",
		c.label.Render("Availability Percentage:"),
		style.Render(fmt.Sprintf("%.1f%%", s.AvailabilityPercent)),
		s.AvailableHosts, s.TotalHosts)
}
