package reports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputBase(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"", "agent_availability_report"},
		{"   ", "agent_availability_report"},
		{"weekly", "weekly"},
		{"weekly.xlsx", "weekly"},
		{"weekly.DOCX", "weekly"},
		{".xlsx", "agent_availability_report"},
		{"weekly.csv", "weekly.csv"},
		{"..weekly", "..weekly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputBase(tt.name, "agent_availability_report")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputBase_RejectsPaths(t *testing.T) {
	for _, name := range []string{"../escape", "../escape.xlsx", "/tmp/report", `..\escape`, "sub/report", "..", ".", "...xlsx"} {
		t.Run(name, func(t *testing.T) {
			_, err := OutputBase(name, "agent_availability_report")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidOutputName)
		})
	}
}

func TestWriter_RejectsPathBase(t *testing.T) {
	report := sampleReport(t)
	root := t.TempDir()
	dir := filepath.Join(root, "reports")

	_, err := NewWriter(dir, zerolog.Nop(), NewXLSXRenderer()).Write(report, "../escape")
	assert.ErrorIs(t, err, ErrInvalidOutputName)
	assert.NoFileExists(t, filepath.Join(root, "escape.xlsx"))
}

func TestWriter_Write(t *testing.T) {
	report := sampleReport(t)
	dir := filepath.Join(t.TempDir(), "reports")

	w := NewWriter(dir, zerolog.Nop(), NewXLSXRenderer(), NewDOCXRenderer(DefaultHealthyThreshold))
	paths, err := w.Write(report, "nightly")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "nightly.xlsx"),
		filepath.Join(dir, "nightly.docx"),
	}, paths)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files left behind")
}

func TestWriter_Overwrites(t *testing.T) {
	report := sampleReport(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "out.docx")
	require.NoError(t, os.WriteFile(target, []byte("stale"), 0644))

	_, err := NewWriter(dir, zerolog.Nop(), NewDOCXRenderer(DefaultHealthyThreshold)).Write(report, "out")
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.NotEqual(t, "stale", string(data))
}
