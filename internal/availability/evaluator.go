package availability

import (
	"time"

	"github.com/MacJediWizard/availcheck/internal/models"
)

// DefaultWindow is the freshness window applied when none is configured.
const DefaultWindow = 24 * time.Hour

// Feed maps an agent to its availability record for one run.
type Feed map[models.AgentKey]models.AvailabilityRecord

// BuildFeed normalizes raw records into a Feed. Rows whose timestamp cannot be
// parsed stay in the feed with a nil ParsedAt and are also returned as malformed.
// Duplicate keys collapse: a parsed timestamp beats an unparseable one and the
// later of two parsed timestamps wins.
func BuildFeed(records []models.AvailabilityRecord, n *Normalizer) (Feed, []models.MalformedTimestamp) {
	feed := make(Feed, len(records))
	var malformed []models.MalformedTimestamp

	for _, rec := range records {
		rec.ParsedAt = nil
		if t, err := n.Normalize(rec.RawTimestamp); err == nil {
			rec.ParsedAt = &t
		} else {
			malformed = append(malformed, models.MalformedTimestamp{
				Key:          rec.Key,
				RawTimestamp: rec.RawTimestamp,
				RowNumber:    rec.RowNumber,
			})
		}

		existing, ok := feed[rec.Key]
		if !ok || supersedes(rec, existing) {
			feed[rec.Key] = rec
		}
	}

	return feed, malformed
}

func supersedes(candidate, existing models.AvailabilityRecord) bool {
	switch {
	case !candidate.Parsed():
		return false
	case !existing.Parsed():
		return true
	default:
		return candidate.ParsedAt.After(*existing.ParsedAt)
	}
}

// Evaluate applies the availability predicate to one baseline agent:
//  1. no feed row: unavailable, not in feed
//  2. unparseable timestamp: unavailable, stale (malformed)
//  3. older than window: unavailable, stale
//  4. otherwise available
//
// The boundary is inclusive: a timestamp exactly window old is available.
// Timestamps in the future count as available.
func Evaluate(key models.AgentKey, feed Feed, now time.Time, window time.Duration) models.EvaluationResult {
	if window <= 0 {
		window = DefaultWindow
	}

	rec, ok := feed[key]
	if !ok {
		return models.EvaluationResult{
			Key:    key,
			Status: models.StatusUnavailable,
			Reason: models.ReasonNotInAvailabilityFeed,
		}
	}

	if !rec.Parsed() {
		return models.EvaluationResult{
			Key:          key,
			Status:       models.StatusUnavailable,
			Reason:       models.ReasonStaleTimestamp,
			RawTimestamp: rec.RawTimestamp,
			Malformed:    true,
		}
	}

	seen := *rec.ParsedAt
	result := models.EvaluationResult{
		Key:          key,
		LastSeen:     &seen,
		RawTimestamp: rec.RawTimestamp,
	}

	if now.Sub(seen) > window {
		result.Status = models.StatusUnavailable
		result.Reason = models.ReasonStaleTimestamp
		return result
	}

	result.Status = models.StatusAvailable
	result.Reason = models.ReasonAvailable
	return result
}
