package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Exporter handles report exports.
type Exporter struct {
	opts   ExportOptions
	clock  func() time.Time
	logger zerolog.Logger
}

// ExportOptions contains options for exporting reports.
type ExportOptions struct {
	Format      Format
	Description string
}

// DefaultExportOptions returns the default export options.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		Format: FormatJSON,
	}
}

// NewExporter creates a new Exporter.
func NewExporter(opts ExportOptions, logger zerolog.Logger) *Exporter {
	if opts.Format == "" {
		opts.Format = FormatJSON
	}
	return &Exporter{
		opts:   opts,
		clock:  time.Now,
		logger: logger.With().Str("component", "report_exporter").Logger(),
	}
}

// Extension returns the file extension for the configured format.
func (e *Exporter) Extension() string {
	if e.opts.Format == FormatYAML {
		return ".yaml"
	}
	return ".json"
}

// Build converts report into its export form.
func (e *Exporter) Build(report *models.AvailabilityReport) ReportExport {
	out := ReportExport{
		Metadata: ExportMetadata{
			Version:     ExportVersion,
			RunID:       report.RunID.String(),
			ExportedAt:  e.clock().UTC(),
			Description: e.opts.Description,
		},
		ReferenceTime:    report.ReferenceTime,
		Window:           report.Window.String(),
		OperatingSystems: make([]OSExport, 0, len(report.OperatingSystems)),
		Groups:           make([]GroupExport, 0, len(report.Groups)),
	}

	for _, s := range report.OperatingSystems {
		out.OperatingSystems = append(out.OperatingSystems, OSExport{
			OS:                  string(s.OS),
			TotalHosts:          s.TotalHosts,
			AvailableHosts:      s.AvailableHosts,
			AvailabilityPercent: s.AvailabilityPercent,
			BaselineEmpty:       s.BaselineEmpty,
		})
	}

	for _, g := range report.Groups {
		group := GroupExport{
			OS:                  string(g.Summary.OS),
			Domain:              g.Summary.Domain,
			TotalHosts:          g.Summary.TotalHosts,
			AvailableHosts:      g.Summary.AvailableHosts,
			AvailabilityPercent: g.Summary.AvailabilityPercent,
			Agents:              make([]AgentExport, 0, len(g.Results)),
		}
		for _, r := range g.Results {
			agent := AgentExport{
				Name:      r.Key.AgentName,
				Status:    string(r.Status),
				Reason:    string(r.Reason),
				Malformed: r.Malformed,
			}
			if last := r.LastSeenString(); last != "N/A" {
				agent.LastAvailable = last
			}
			group.Agents = append(group.Agents, agent)
		}
		out.Groups = append(out.Groups, group)
	}

	for _, m := range report.MalformedTimestamps {
		out.MalformedTimestamps = append(out.MalformedTimestamps, MalformedExport{
			OS:           string(m.Key.OS),
			Domain:       m.Key.Domain,
			AgentName:    m.Key.AgentName,
			RawTimestamp: m.RawTimestamp,
			Row:          m.RowNumber,
			InBaseline:   m.InBaseline,
		})
	}

	return out
}

// Export serializes report in the configured format.
func (e *Exporter) Export(report *models.AvailabilityReport) ([]byte, error) {
	data, err := e.marshal(e.Build(report))
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("run_id", report.RunID.String()).
		Str("format", string(e.opts.Format)).
		Int("bytes", len(data)).
		Msg("report exported")

	return data, nil
}

// Render writes the export to w.
func (e *Exporter) Render(w io.Writer, report *models.AvailabilityReport) error {
	data, err := e.Export(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// marshal converts the export to the configured format.
func (e *Exporter) marshal(v any) ([]byte, error) {
	switch e.opts.Format {
	case FormatYAML:
		return yaml.Marshal(v)
	default:
		return json.MarshalIndent(v, "", "  ")
	}
}
