package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testReport() *models.AvailabilityReport {
	seen := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &models.AvailabilityReport{
		RunID:         uuid.MustParse("0b5b3c0e-8f5e-4a55-9a3a-5f1c2d6a7e01"),
		ReferenceTime: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Window:        24 * time.Hour,
		Groups: []models.GroupReport{{
			Summary: models.GroupSummary{OS: models.OSWindows, Domain: "corp", TotalHosts: 3, AvailableHosts: 1, AvailabilityPercent: 33.3},
			Results: []models.EvaluationResult{
				{Key: models.NewAgentKey(models.OSWindows, "corp", "WS01"), Status: models.StatusAvailable, Reason: models.ReasonAvailable, LastSeen: &seen},
				{Key: models.NewAgentKey(models.OSWindows, "corp", "WS02"), Status: models.StatusUnavailable, Reason: models.ReasonNotInAvailabilityFeed},
				{Key: models.NewAgentKey(models.OSWindows, "corp", "WS03"), Status: models.StatusUnavailable, Reason: models.ReasonStaleTimestamp, RawTimestamp: "??", Malformed: true},
			},
		}},
		OperatingSystems: []models.OSSummary{
			{OS: models.OSWindows, TotalHosts: 3, AvailableHosts: 1, AvailabilityPercent: 33.3},
			{OS: models.OSLinux, BaselineEmpty: true},
		},
		MalformedTimestamps: []models.MalformedTimestamp{
			{Key: models.NewAgentKey(models.OSWindows, "corp", "WS03"), RawTimestamp: "??", RowNumber: 4, InBaseline: true},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExporter_Build(t *testing.T) {
	e := NewExporter(ExportOptions{Description: "nightly"}, zerolog.Nop())
	out := e.Build(testReport())

	assert.Equal(t, ExportVersion, out.Metadata.Version)
	assert.Equal(t, "0b5b3c0e-8f5e-4a55-9a3a-5f1c2d6a7e01", out.Metadata.RunID)
	assert.Equal(t, "nightly", out.Metadata.Description)
	assert.Equal(t, "24h0m0s", out.Window)

	require.Len(t, out.Groups, 1)
	agents := out.Groups[0].Agents
	require.Len(t, agents, 3)
	assert.Equal(t, "2026-02-01 09:00:00", agents[0].LastAvailable)
	assert.Equal(t, "", agents[1].LastAvailable)
	assert.Equal(t, "not_in_availability_feed", agents[1].Reason)
	assert.True(t, agents[2].Malformed)
	assert.Equal(t, "??", agents[2].LastAvailable)

	require.Len(t, out.OperatingSystems, 2)
	assert.True(t, out.OperatingSystems[1].BaselineEmpty)

	require.Len(t, out.MalformedTimestamps, 1)
	assert.Equal(t, 4, out.MalformedTimestamps[0].Row)
}

func TestExporter_JSON(t *testing.T) {
	e := NewExporter(DefaultExportOptions(), zerolog.Nop())
	assert.Equal(t, ".json", e.Extension())

	var buf bytes.Buffer
	require.NoError(t, e.Render(&buf, testReport()))

	var decoded ReportExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "corp", decoded.Groups[0].Domain)
	assert.InDelta(t, 33.3, decoded.Groups[0].AvailabilityPercent, 1e-9)
	assert.Contains(t, buf.String(), `"availability_percent": 33.3`)
}

func TestExporter_YAML(t *testing.T) {
	e := NewExporter(ExportOptions{Format: FormatYAML}, zerolog.Nop())
	assert.Equal(t, ".yaml", e.Extension())

	data, err := e.Export(testReport())
	require.NoError(t, err)

	var decoded ReportExport
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "Windows", decoded.Groups[0].OS)
	assert.Len(t, decoded.Groups[0].Agents, 3)
	assert.Contains(t, string(data), "run_id: 0b5b3c0e-8f5e-4a55-9a3a-5f1c2d6a7e01")
}
