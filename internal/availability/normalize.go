package availability

import (
	"strings"
	"time"
)

// timestampLayout pairs a Go layout with the shape shown to operators.
type timestampLayout struct {
	layout string
	shape  string
}

// Layouts are tried in order; the first match wins. Fractional seconds are
// accepted after the seconds field even though no layout spells them out.
// Numeric month and day fields take one or two digits.
var timestampLayouts = []timestampLayout{
	{layout: "2006-1-2 15:04:05", shape: "YYYY-MM-DD HH:MM:SS"},
	{layout: "Jan 2, 2006 @ 15:04:05", shape: "Mon DD, YYYY @ HH:MM:SS.fff"},
	{layout: "January 2, 2006 @ 15:04:05", shape: "Month DD, YYYY @ HH:MM:SS.fff"},
	{layout: "2-1-2006 15:04:05", shape: "DD-MM-YYYY HH:MM:SS"},
	{layout: "1/2/2006 15:04:05", shape: "MM/DD/YYYY HH:MM:SS"},
	{layout: "2006/1/2 15:04:05", shape: "YYYY/MM/DD HH:MM:SS"},
}

// SupportedFormats lists the accepted timestamp shapes for error messages.
func SupportedFormats() []string {
	out := make([]string, len(timestampLayouts))
	for i, l := range timestampLayouts {
		out[i] = "'" + l.shape + "'"
	}
	return out
}

// Normalizer parses availability timestamps into instants of a fixed location.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer that interprets wall-clock values in loc.
// A nil loc means time.Local.
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone timestamps are interpreted in.
func (n *Normalizer) Location() *time.Location {
	return n.loc
}

// Normalize parses raw, returning a *DateParseError if no layout matches.
func (n *Normalizer) Normalize(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, &DateParseError{Raw: raw}
	}

	for _, l := range timestampLayouts {
		t, err := time.ParseInLocation(l.layout, value, n.loc)
		if err == nil {
			return t, nil
		}
	}

	return time.Time{}, &DateParseError{Raw: raw}
}

// Normalize parses raw in loc. See Normalizer.Normalize.
func Normalize(raw string, loc *time.Location) (time.Time, error) {
	return NewNormalizer(loc).Normalize(raw)
}
