package reports

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MacJediWizard/availcheck/internal/availability"
	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

type mockBaselineStore struct {
	rows map[models.OperatingSystem][]models.BaselineRow
	err  error
}

func (m *mockBaselineStore) ReadAll(_ context.Context, os models.OperatingSystem) ([]models.BaselineRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[os], nil
}

func newTestGenerator(store BaselineStore) *Generator {
	return NewGenerator(store, availability.DefaultWindow, zerolog.Nop())
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func sampleStore() *mockBaselineStore {
	return &mockBaselineStore{rows: map[models.OperatingSystem][]models.BaselineRow{
		models.OSWindows: {
			{Domain: "corp", AgentName: "WS01"},
			{Domain: "corp", AgentName: "WS02"},
			{Domain: "lab", AgentName: "LAB01"},
		},
		models.OSLinux: {
			{Domain: "corp", AgentName: "web01"},
		},
	}}
}

const sampleWindowsFeed = "Domain,Agent Name,Last Available Date\n" +
	"corp,WS01,2026-02-01 09:00:00\n" +
	"lab,LAB01,yesterday-ish\n" +
	"corp,GHOST,2026-02-01 09:00:00\n"

// sampleReport runs the generator against sampleStore and sampleWindowsFeed.
func sampleReport(t *testing.T) *models.AvailabilityReport {
	t.Helper()
	report, err := newTestGenerator(sampleStore()).Check(context.Background(), CheckRequest{
		Feeds: map[models.OperatingSystem]string{models.OSWindows: writeCSV(t, "windows.csv", sampleWindowsFeed)},
		Now:   testNow,
	})
	require.NoError(t, err)
	return report
}

func TestGenerator_Check(t *testing.T) {
	report := sampleReport(t)

	require.Len(t, report.Groups, 3)

	corp := report.Groups[0].Summary
	assert.Equal(t, models.OSWindows, corp.OS)
	assert.Equal(t, "corp", corp.Domain)
	assert.Equal(t, 2, corp.TotalHosts)
	assert.Equal(t, 1, corp.AvailableHosts)
	assert.Equal(t, []string{"WS02"}, corp.UnavailableHostNames)
	assert.Equal(t, 50.0, corp.AvailabilityPercent)

	lab := report.Groups[1].Summary
	assert.Equal(t, "lab", lab.Domain)
	assert.Equal(t, []string{"LAB01"}, lab.MalformedHostNames)
	assert.Equal(t, 0.0, lab.AvailabilityPercent)

	linux := report.Groups[2].Summary
	assert.Equal(t, models.OSLinux, linux.OS)
	assert.Equal(t, []string{"web01"}, linux.UnavailableHostNames)
	assert.Equal(t, models.ReasonNotInAvailabilityFeed, report.Groups[2].Results[0].Reason)

	require.Len(t, report.MalformedTimestamps, 1)
	assert.True(t, report.MalformedTimestamps[0].InBaseline)
	assert.Equal(t, 3, report.MalformedTimestamps[0].RowNumber)

	assert.Equal(t, testNow, report.ReferenceTime)
}

func TestGenerator_EmptyBaselineForOneOS(t *testing.T) {
	store := sampleStore()
	delete(store.rows, models.OSLinux)

	report, err := newTestGenerator(store).Check(context.Background(), CheckRequest{Now: testNow})
	require.NoError(t, err)

	linux, ok := report.OSSummaryFor(models.OSLinux)
	require.True(t, ok)
	assert.True(t, linux.BaselineEmpty)
	assert.Equal(t, 0.0, linux.AvailabilityPercent)
	assert.Empty(t, report.GroupsFor(models.OSLinux))

	windows, ok := report.OSSummaryFor(models.OSWindows)
	require.True(t, ok)
	assert.Equal(t, 3, windows.TotalHosts)
	assert.Equal(t, 0, windows.AvailableHosts)
}

func TestGenerator_NoBaseline(t *testing.T) {
	_, err := newTestGenerator(&mockBaselineStore{}).Check(context.Background(), CheckRequest{Now: testNow})
	assert.ErrorIs(t, err, availability.ErrNoBaseline)
}

func TestGenerator_StoreError(t *testing.T) {
	boom := errors.New("database is locked")
	_, err := newTestGenerator(&mockBaselineStore{err: boom}).Check(context.Background(), CheckRequest{Now: testNow})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestGenerator_IngestionErrorAborts(t *testing.T) {
	path := writeCSV(t, "bad.csv", "Hostname,Seen\nWS01,now\n")

	report, err := newTestGenerator(sampleStore()).Check(context.Background(), CheckRequest{
		Feeds: map[models.OperatingSystem]string{models.OSLinux: path},
		Now:   testNow,
	})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, IsIngestionError(err))
	assert.Contains(t, err.Error(), "Linux")
	assert.Contains(t, err.Error(), "Last Available Date")
}

func TestGenerator_MissingFeedFile(t *testing.T) {
	_, err := newTestGenerator(sampleStore()).Check(context.Background(), CheckRequest{
		Feeds: map[models.OperatingSystem]string{models.OSWindows: filepath.Join(t.TempDir(), "nope.csv")},
		Now:   testNow,
	})
	require.Error(t, err)
	assert.False(t, IsIngestionError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGenerator_DefaultsNow(t *testing.T) {
	before := time.Now()
	report, err := newTestGenerator(sampleStore()).Check(context.Background(), CheckRequest{})
	require.NoError(t, err)
	assert.False(t, report.ReferenceTime.Before(before))
}

func TestGenerator_FeedReadInReferenceZone(t *testing.T) {
	zone := time.FixedZone("UTC-5", -5*60*60)
	store := &mockBaselineStore{rows: map[models.OperatingSystem][]models.BaselineRow{
		models.OSWindows: {{Domain: "corp", AgentName: "WS01"}},
	}}
	feed := writeCSV(t, "windows.csv", "Domain,Agent Name,Last Available Date\ncorp,WS01,2026-01-31 11:00:00\n")

	// 23 hours old in UTC-5, 28 hours old if read as UTC.
	report, err := newTestGenerator(store).Check(context.Background(), CheckRequest{
		Feeds: map[models.OperatingSystem]string{models.OSWindows: feed},
		Now:   time.Date(2026, 2, 1, 10, 0, 0, 0, zone),
	})
	require.NoError(t, err)

	require.Len(t, report.Groups, 1)
	assert.Equal(t, 100.0, report.Groups[0].Summary.AvailabilityPercent)
	result := report.Groups[0].Results[0]
	require.NotNil(t, result.LastSeen)
	assert.Equal(t, zone, result.LastSeen.Location())
}
