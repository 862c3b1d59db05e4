// Package export serializes availability reports as JSON or YAML.
package export

import (
	"fmt"
	"strings"
	"time"
)

// ExportVersion is the schema version written into every export.
const ExportVersion = "1.0"

// Format represents the export format.
type Format string

const (
	// FormatJSON exports reports as JSON.
	FormatJSON Format = "json"
	// FormatYAML exports reports as YAML.
	FormatYAML Format = "yaml"
)

// ParseFormat resolves a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format %q: use json or yaml", s)
	}
}

// ExportMetadata contains metadata about an exported report.
type ExportMetadata struct {
	Version     string    `json:"version" yaml:"version"`
	RunID       string    `json:"run_id" yaml:"run_id"`
	ExportedAt  time.Time `json:"exported_at" yaml:"exported_at"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// ReportExport is the serialized form of an availability report.
type ReportExport struct {
	Metadata            ExportMetadata    `json:"metadata" yaml:"metadata"`
	ReferenceTime       time.Time         `json:"reference_time" yaml:"reference_time"`
	Window              string            `json:"window" yaml:"window"`
	OperatingSystems    []OSExport        `json:"operating_systems" yaml:"operating_systems"`
	Groups              []GroupExport     `json:"groups" yaml:"groups"`
	MalformedTimestamps []MalformedExport `json:"malformed_timestamps,omitempty" yaml:"malformed_timestamps,omitempty"`
}

// OSExport summarizes one operating system.
type OSExport struct {
	OS                  string  `json:"os" yaml:"os"`
	TotalHosts          int     `json:"total_hosts" yaml:"total_hosts"`
	AvailableHosts      int     `json:"available_hosts" yaml:"available_hosts"`
	AvailabilityPercent float64 `json:"availability_percent" yaml:"availability_percent"`
	BaselineEmpty       bool    `json:"baseline_empty" yaml:"baseline_empty"`
}

// GroupExport describes one (OS, Domain) group.
type GroupExport struct {
	OS                  string        `json:"os" yaml:"os"`
	Domain              string        `json:"domain" yaml:"domain"`
	TotalHosts          int           `json:"total_hosts" yaml:"total_hosts"`
	AvailableHosts      int           `json:"available_hosts" yaml:"available_hosts"`
	AvailabilityPercent float64       `json:"availability_percent" yaml:"availability_percent"`
	Agents              []AgentExport `json:"agents" yaml:"agents"`
}

// AgentExport is the verdict for one agent.
type AgentExport struct {
	Name          string `json:"name" yaml:"name"`
	Status        string `json:"status" yaml:"status"`
	Reason        string `json:"reason" yaml:"reason"`
	LastAvailable string `json:"last_available,omitempty" yaml:"last_available,omitempty"`
	Malformed     bool   `json:"malformed,omitempty" yaml:"malformed,omitempty"`
}

// MalformedExport is a feed row whose timestamp could not be parsed.
type MalformedExport struct {
	OS           string `json:"os" yaml:"os"`
	Domain       string `json:"domain" yaml:"domain"`
	AgentName    string `json:"agent_name" yaml:"agent_name"`
	RawTimestamp string `json:"raw_timestamp" yaml:"raw_timestamp"`
	Row          int    `json:"row,omitempty" yaml:"row,omitempty"`
	InBaseline   bool   `json:"in_baseline" yaml:"in_baseline"`
}
