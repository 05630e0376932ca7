package forensic

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/model"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100

	// Remote calls are network I/O; they get a bounded deadline and are
	// treated as failed when it expires.
	defaultRemoteTimeout = 5 * time.Second
)

// ErrMissingID rejects delete calls that carry no identifier.
var ErrMissingID = errors.New("forensic: missing entry id")

// Store unifies the optional remote indexed backend with the local durable
// log. The remote backend accelerates filtered queries when reachable; the
// local log is always written and is the source of durability. Remote errors
// never abort an operation, they degrade it to local-only behavior.
type Store struct {
	local         *LocalLog
	remote        DocumentStore // nil when not configured
	remoteTimeout time.Duration
	log           zerolog.Logger
}

// NewStore builds a Store. remote may be nil.
func NewStore(local *LocalLog, remote DocumentStore, logger zerolog.Logger) *Store {
	return &Store{
		local:         local,
		remote:        remote,
		remoteTimeout: defaultRemoteTimeout,
		log:           logger.With().Str("component", "forensic-store").Logger(),
	}
}

// RemoteEnabled reports whether a remote backend is configured.
func (s *Store) RemoteEnabled() bool { return s.remote != nil }

// normalize fills schema defaults: a fresh UUID, a UTC timestamp and the
// upload source type. An existing ID is never reassigned.
func normalize(e *model.ForensicLogEntry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if e.SourceType == "" {
		e.SourceType = model.SourceUpload
	}
}

// Append persists one entry to both backends and returns the stored form.
// The remote write is best-effort; the local append happens unconditionally
// afterwards, even when the remote write succeeded. If the remote backend
// assigned or enriched fields, its version wins so both backends agree on
// identity going forward.
func (s *Store) Append(ctx context.Context, entry model.ForensicLogEntry) (model.ForensicLogEntry, error) {
	normalize(&entry)

	if s.remote != nil {
		// The remote call must not run under the local log's lock; it only
		// borrows a bounded slice of the request context.
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		stored, err := s.remote.Put(rctx, entry)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("id", entry.ID).Msg("remote write failed, keeping local only")
		} else {
			entry = stored
		}
	}

	if err := s.local.Append(entry); err != nil {
		return model.ForensicLogEntry{}, err
	}
	return entry, nil
}

// Query returns one page of entries matching the filter, newest first.
// page is clamped to >= 1 and pageSize to [1,100]. The remote backend serves
// the query when it is configured and returns a non-empty result; otherwise
// the local log is scanned in full.
func (s *Store) Query(ctx context.Context, f QueryFilter, page, pageSize int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	offset := (page - 1) * pageSize

	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		items, total, err := s.remote.Query(rctx, f, offset, pageSize)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Msg("remote query failed, falling back to local scan")
		} else if len(items) > 0 {
			return Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
		}
	}

	entries, err := s.local.ReadAll()
	if err != nil {
		return Page{}, err
	}
	filtered := filterEntries(entries, f)
	sortNewestFirst(filtered)

	total := len(filtered)
	start := offset
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]model.ForensicLogEntry, end-start)
	copy(items, filtered[start:end])
	return Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Delete removes the entry with the given ID from both backends. When
// ownerID is non-empty, an entry owned by a different user is left in place
// even on an ID match. Reports true iff at least one backend removed it.
func (s *Store) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	if id == "" {
		return false, ErrMissingID
	}

	remoteDeleted := false
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		ok, err := s.remote.Delete(rctx, id, ownerID)
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Str("id", id).Msg("remote delete failed")
		} else {
			remoteDeleted = ok
		}
	}

	localDeleted, err := s.local.Delete(id, ownerID)
	if err != nil {
		return remoteDeleted, err
	}
	return remoteDeleted || localDeleted, nil
}

// Clear bulk-removes entries matching the owner and source filters from both
// backends and returns the combined count. The two backends count
// independently, so an entry present in both is counted twice; that
// approximation is accepted, not a bug to fix here.
func (s *Store) Clear(ctx context.Context, ownerID, sourceType string) (int, error) {
	count := 0
	if s.remote != nil {
		rctx, cancel := context.WithTimeout(ctx, s.remoteTimeout)
		n, err := s.remote.DeleteMatching(rctx, QueryFilter{UserID: ownerID, SourceType: sourceType})
		cancel()
		if err != nil {
			s.log.Warn().Err(err).Msg("remote clear failed")
		} else {
			count += n
		}
	}

	n, err := s.local.Clear(ownerID, sourceType)
	if err != nil {
		return count, err
	}
	return count + n, nil
}

// filterEntries applies the exact-match and date-range filters. Entries with
// unparseable timestamps are excluded from date-filtered results only.
func filterEntries(entries []model.ForensicLogEntry, f QueryFilter) []model.ForensicLogEntry {
	var startAt, endAt time.Time
	dateFiltered := false
	if f.StartDate != "" {
		if t, ok := ParseBoundary(f.StartDate, false); ok {
			startAt, dateFiltered = t, true
		}
	}
	if f.EndDate != "" {
		if t, ok := ParseBoundary(f.EndDate, true); ok {
			endAt, dateFiltered = t, true
		}
	}

	out := make([]model.ForensicLogEntry, 0, len(entries))
	for _, e := range entries {
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.SourceType != "" && string(e.SourceType) != f.SourceType {
			continue
		}
		if dateFiltered {
			ts, ok := ParseTimestamp(e.Timestamp)
			if !ok {
				continue
			}
			if !startAt.IsZero() && ts.Before(startAt) {
				continue
			}
			if !endAt.IsZero() && ts.After(endAt) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// sortNewestFirst orders entries by timestamp descending. The sort is
// stable, so entries with equal (or unparseable) timestamps keep their
// insertion order; unparseable timestamps sort to the end.
func sortNewestFirst(entries []model.ForensicLogEntry) {
	type keyed struct {
		ts time.Time
		ok bool
	}
	keys := make([]keyed, len(entries))
	for i, e := range entries {
		ts, ok := ParseTimestamp(e.Timestamp)
		keys[i] = keyed{ts: ts, ok: ok}
	}
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := keys[idx[a]], keys[idx[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		return ka.ts.After(kb.ts)
	})
	sorted := make([]model.ForensicLogEntry, len(entries))
	for i, j := range idx {
		sorted[i] = entries[j]
	}
	copy(entries, sorted)
}
