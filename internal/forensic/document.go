// Package forensic implements the forensic log store: durable writes,
// filtered and paginated reads, single and bulk deletes, and transparent
// fallback between an optional remote indexed backend and the local durable
// log file.
package forensic

import (
	"context"
	"time"

	"github.com/verifixia-ai/verifixia/internal/model"
)

// QueryFilter narrows a read or bulk delete. Zero-value fields are ignored.
// UserID and SourceType are exact matches; StartDate and EndDate form an
// inclusive timestamp range and accept RFC3339 instants or plain
// YYYY-MM-DD dates.
type QueryFilter struct {
	UserID     string
	SourceType string
	StartDate  string
	EndDate    string
}

// Page is one page of query results.
type Page struct {
	Items    []model.ForensicLogEntry `json:"items"`
	Total    int                      `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// DocumentStore is the remote indexed backend contract. Any store that can
// answer equality and range filters over indexed fields is substitutable.
// Implementations must order query results by timestamp descending.
type DocumentStore interface {
	// Put stores the entry under its ID and returns the stored form.
	Put(ctx context.Context, entry model.ForensicLogEntry) (model.ForensicLogEntry, error)

	// Query returns one slice of matching entries plus the total match count.
	Query(ctx context.Context, f QueryFilter, offset, limit int) ([]model.ForensicLogEntry, int, error)

	// Delete removes the entry with the given ID. When ownerID is non-empty
	// an entry owned by someone else is left in place. Reports whether an
	// entry was removed.
	Delete(ctx context.Context, id, ownerID string) (bool, error)

	// DeleteMatching removes every entry matching the filter and returns the
	// removed count.
	DeleteMatching(ctx context.Context, f QueryFilter) (int, error)
}

// timestampLayouts are the formats a scan may encounter. Older writers used
// naive ISO timestamps without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an entry timestamp. ok is false for values no known
// writer produced; such entries are excluded from date-filtered queries but
// still returned by unfiltered ones.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseBoundary parses a range boundary. A date-only value covers the whole
// day: the start boundary is midnight, the end boundary the last nanosecond.
func ParseBoundary(s string, end bool) (time.Time, bool) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		if end {
			return t.Add(24*time.Hour - time.Nanosecond), true
		}
		return t, true
	}
	return ParseTimestamp(s)
}
