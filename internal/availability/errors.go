// Package availability reconciles an expected agent baseline against observed
// last-seen timestamps.
package availability

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MacJediWizard/availcheck/internal/models"
)

// ErrNoBaseline is returned when no operating system has any baseline rows.
var ErrNoBaseline = errors.New("no baseline data loaded")

// DateParseError is returned when a timestamp matches none of the supported layouts.
type DateParseError struct {
	Raw string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid date format %q: supported formats include %s",
		e.Raw, strings.Join(SupportedFormats(), ", "))
}

// EmptyBaselineError is returned when an operating system has no baseline rows.
type EmptyBaselineError struct {
	OS models.OperatingSystem
}

func (e *EmptyBaselineError) Error() string {
	return fmt.Sprintf("no %s baseline rows loaded", e.OS)
}

// IsEmptyBaseline reports whether err is, or wraps, an EmptyBaselineError.
func IsEmptyBaseline(err error) bool {
	var target *EmptyBaselineError
	return errors.As(err, &target)
}
