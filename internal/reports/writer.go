package reports

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/MacJediWizard/availcheck/internal/models"
	"github.com/rs/zerolog"
)

// FileRenderer renders a report into a file format.
type FileRenderer interface {
	Extension() string
	Render(w io.Writer, report *models.AvailabilityReport) error
}

// Writer saves rendered reports into a directory.
type Writer struct {
	dir       string
	renderers []FileRenderer
	logger    zerolog.Logger
}

// NewWriter creates a Writer that produces one file per renderer in dir.
func NewWriter(dir string, logger zerolog.Logger, renderers ...FileRenderer) *Writer {
	return &Writer{
		dir:       dir,
		renderers: renderers,
		logger:    logger.With().Str("component", "report_writer").Logger(),
	}
}

// ErrInvalidOutputName is returned for report names that are not plain file names.
var ErrInvalidOutputName = errors.New("report name must be a file name")

// OutputBase strips a known report extension from name, falling back to
// fallback when name is blank. Names containing a path separator, or that
// resolve to "." or "..", are rejected.
func OutputBase(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	for _, ext := range []string{".xlsx", ".docx"} {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	if name == "" {
		name = fallback
	}
	if err := checkBase(name); err != nil {
		return "", err
	}
	return name, nil
}

func checkBase(base string) error {
	if base == "" || base == "." || base == ".." || strings.ContainsAny(base, `/\`) || filepath.IsAbs(base) {
		return fmt.Errorf("%w: %q", ErrInvalidOutputName, base)
	}
	return nil
}

// Write renders report once per renderer as dir/base<ext> and returns the
// paths written. Files are written to a temporary name and renamed into place.
func (w *Writer) Write(report *models.AvailabilityReport, base string) ([]string, error) {
	if err := checkBase(base); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return nil, fmt.Errorf("create reports directory: %w", err)
	}

	var paths []string
	for _, renderer := range w.renderers {
		path := filepath.Join(w.dir, base+renderer.Extension())
		if err := writeAtomic(path, func(out io.Writer) error {
			return renderer.Render(out, report)
		}); err != nil {
			return paths, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}

		w.logger.Info().
			Str("run_id", report.RunID.String()).
			Str("path", path).
			Msg("report written")

		paths = append(paths, path)
	}
	return paths, nil
}

func writeAtomic(path string, render func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := render(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
