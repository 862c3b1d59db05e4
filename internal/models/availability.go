package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OperatingSystem identifies which baseline an agent belongs to.
type OperatingSystem string

const (
	// OSWindows is the Windows agent baseline.
	OSWindows OperatingSystem = "Windows"
	// OSLinux is the Linux agent baseline.
	OSLinux OperatingSystem = "Linux"
)

// SupportedOperatingSystems lists every OS in report order.
var SupportedOperatingSystems = []OperatingSystem{OSWindows, OSLinux}

// ParseOperatingSystem resolves a user supplied OS name (case-insensitive).
func ParseOperatingSystem(s string) (OperatingSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win":
		return OSWindows, nil
	case "linux":
		return OSLinux, nil
	default:
		return "", fmt.Errorf("unsupported operating system %q: use windows or linux", s)
	}
}

// Rank orders operating systems in reports: Windows first, then Linux.
func (o OperatingSystem) Rank() int {
	switch o {
	case OSWindows:
		return 0
	case OSLinux:
		return 1
	default:
		return 2
	}
}

// AgentKey identifies one expected agent. Matching is exact and case-sensitive.
type AgentKey struct {
	OS        OperatingSystem `json:"os"`
	Domain    string          `json:"domain"`
	AgentName string          `json:"agent_name"`
}

// NewAgentKey builds a key from untrimmed input.
func NewAgentKey(os OperatingSystem, domain, agentName string) AgentKey {
	return AgentKey{
		OS:        os,
		Domain:    strings.TrimSpace(domain),
		AgentName: strings.TrimSpace(agentName),
	}
}

func (k AgentKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.OS, k.Domain, k.AgentName)
}

// BaselineRow is one persisted (Domain, AgentName) pair of a baseline.
type BaselineRow struct {
	Domain    string `json:"domain"`
	AgentName string `json:"agent_name"`
}

// AvailabilityRecord is one row of an availability feed.
// ParsedAt is nil when the raw timestamp matched no known layout.
type AvailabilityRecord struct {
	Key          AgentKey   `json:"key"`
	RawTimestamp string     `json:"raw_timestamp"`
	ParsedAt     *time.Time `json:"parsed_at,omitempty"`
	RowNumber    int        `json:"row_number,omitempty"`
}

// Parsed reports whether the timestamp was normalized successfully.
func (r AvailabilityRecord) Parsed() bool {
	return r.ParsedAt != nil
}

// AvailabilityStatus is the outcome of evaluating one agent.
type AvailabilityStatus string

const (
	StatusAvailable   AvailabilityStatus = "Available"
	StatusUnavailable AvailabilityStatus = "Not Available"
)

// AvailabilityReason explains an AvailabilityStatus.
type AvailabilityReason string

const (
	// ReasonNotInBaseline never occurs in practice: evaluation only walks baseline keys.
	ReasonNotInBaseline AvailabilityReason = "not_in_baseline"
	// ReasonNotInAvailabilityFeed means the feed had no row for the agent.
	ReasonNotInAvailabilityFeed AvailabilityReason = "not_in_availability_feed"
	// ReasonStaleTimestamp means the last-seen time is outside the window or unparseable.
	ReasonStaleTimestamp AvailabilityReason = "stale_timestamp"
	// ReasonAvailable means the agent was seen within the window.
	ReasonAvailable AvailabilityReason = "available"
)

// Describe returns a short operator-facing description.
func (r AvailabilityReason) Describe() string {
	switch r {
	case ReasonNotInBaseline:
		return "Not in baseline"
	case ReasonNotInAvailabilityFeed:
		return "Not in availability feed"
	case ReasonStaleTimestamp:
		return "Stale timestamp"
	case ReasonAvailable:
		return "Available"
	default:
		return string(r)
	}
}

// EvaluationResult is the verdict for one expected agent. It is never mutated
// after creation.
type EvaluationResult struct {
	Key          AgentKey           `json:"key"`
	Status       AvailabilityStatus `json:"status"`
	Reason       AvailabilityReason `json:"reason"`
	LastSeen     *time.Time         `json:"last_seen,omitempty"`
	RawTimestamp string             `json:"raw_timestamp,omitempty"`
	// Malformed is set when the feed had a row whose timestamp could not be parsed.
	Malformed bool `json:"malformed,omitempty"`
}

// Available reports whether the agent counts as available.
func (r EvaluationResult) Available() bool {
	return r.Status == StatusAvailable
}

// Detail describes why the agent is in its state, distinguishing malformed
// timestamps from stale ones.
func (r EvaluationResult) Detail() string {
	if r.Malformed {
		return "Malformed timestamp"
	}
	return r.Reason.Describe()
}

// LastSeenString formats LastSeen for reports, falling back to the raw value for
// malformed rows and to "N/A" when the agent was never seen.
func (r EvaluationResult) LastSeenString() string {
	if r.LastSeen != nil {
		return r.LastSeen.Format(ReportTimeFormat)
	}
	if r.Malformed {
		return r.RawTimestamp
	}
	return "N/A"
}

// ReportTimeFormat is the timestamp layout used in every rendered report.
const ReportTimeFormat = "2006-01-02 15:04:05"

// GroupSummary aggregates one (OS, Domain) bucket.
// TotalHosts always equals AvailableHosts + len(UnavailableHostNames).
type GroupSummary struct {
	OS                   OperatingSystem `json:"os"`
	Domain               string          `json:"domain"`
	TotalHosts           int             `json:"total_hosts"`
	AvailableHosts       int             `json:"available_hosts"`
	UnavailableHostNames []string        `json:"unavailable_host_names"`
	MalformedHostNames   []string        `json:"malformed_host_names,omitempty"`
	AvailabilityPercent  float64         `json:"availability_percent"`
}

// GroupReport pairs a summary with the per-agent results behind it, in baseline
// insertion order.
type GroupReport struct {
	Summary GroupSummary       `json:"summary"`
	Results []EvaluationResult `json:"results"`
}

// UnavailableResults returns the results of every unavailable agent in the group.
func (g GroupReport) UnavailableResults() []EvaluationResult {
	var out []EvaluationResult
	for _, r := range g.Results {
		if !r.Available() {
			out = append(out, r)
		}
	}
	return out
}

// OSSummary aggregates every group of one operating system.
type OSSummary struct {
	OS                  OperatingSystem `json:"os"`
	TotalHosts          int             `json:"total_hosts"`
	AvailableHosts      int             `json:"available_hosts"`
	AvailabilityPercent float64         `json:"availability_percent"`
	BaselineEmpty       bool            `json:"baseline_empty"`
}

// MalformedTimestamp records an availability row whose timestamp matched no layout.
type MalformedTimestamp struct {
	Key          AgentKey `json:"key"`
	RawTimestamp string   `json:"raw_timestamp"`
	RowNumber    int      `json:"row_number,omitempty"`
	InBaseline   bool     `json:"in_baseline"`
}

// AvailabilityReport is the complete, read-only output of one availability check.
type AvailabilityReport struct {
	RunID               uuid.UUID            `json:"run_id"`
	GeneratedAt         time.Time            `json:"generated_at"`
	ReferenceTime       time.Time            `json:"reference_time"`
	Window              time.Duration        `json:"window"`
	Groups              []GroupReport        `json:"groups"`
	OperatingSystems    []OSSummary          `json:"operating_systems"`
	MalformedTimestamps []MalformedTimestamp `json:"malformed_timestamps,omitempty"`
}

// GroupsFor returns the groups of one operating system in report order.
func (r *AvailabilityReport) GroupsFor(os OperatingSystem) []GroupReport {
	var out []GroupReport
	for _, g := range r.Groups {
		if g.Summary.OS == os {
			out = append(out, g)
		}
	}
	return out
}

// OSSummaryFor returns the summary of one operating system.
func (r *AvailabilityReport) OSSummaryFor(os OperatingSystem) (OSSummary, bool) {
	for _, s := range r.OperatingSystems {
		if s.OS == os {
			return s, true
		}
	}
	return OSSummary{}, false
}
