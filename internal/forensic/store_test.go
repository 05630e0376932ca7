package forensic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/model"
)

// fakeRemote is an in-memory DocumentStore for store tests.
type fakeRemote struct {
	mu      sync.Mutex
	entries []model.ForensicLogEntry
	fail    bool // every call errors when set
	renames bool // Put rewrites the entry ID, like a store that assigns its own
}

func (f *fakeRemote) Put(_ context.Context, e model.ForensicLogEntry) (model.ForensicLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return model.ForensicLogEntry{}, errors.New("remote unreachable")
	}
	if f.renames {
		e.ID = "remote-" + e.ID
	}
	f.entries = append(f.entries, e)
	return e, nil
}

func (f *fakeRemote) Query(_ context.Context, q QueryFilter, offset, limit int) ([]model.ForensicLogEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, 0, errors.New("remote unreachable")
	}
	matched := filterEntries(f.entries, q)
	sortNewestFirst(matched)
	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (f *fakeRemote) Delete(_ context.Context, id, ownerID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false, errors.New("remote unreachable")
	}
	for i, e := range f.entries {
		if e.ID == id && (ownerID == "" || e.UserID == ownerID) {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRemote) DeleteMatching(_ context.Context, q QueryFilter) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return 0, errors.New("remote unreachable")
	}
	kept := f.entries[:0]
	removed := 0
	for _, e := range f.entries {
		if (q.UserID == "" || e.UserID == q.UserID) &&
			(q.SourceType == "" || string(e.SourceType) == q.SourceType) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return removed, nil
}

func testStore(t *testing.T, remote DocumentStore) *Store {
	t.Helper()
	return NewStore(testLocalLog(t), remote, zerolog.Nop())
}

func ts(day int) string {
	return time.Date(2024, 3, day, 12, 0, 0, 0, time.UTC).Format(time.RFC3339Nano)
}

func TestStore_AppendAssignsIDAndTimestamp(t *testing.T) {
	s := testStore(t, nil)

	stored, err := s.Append(context.Background(), model.ForensicLogEntry{Filename: "a.png"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.ID == "" {
		t.Fatal("no id assigned")
	}
	if stored.SourceType != model.SourceUpload {
		t.Fatalf("source = %q, want upload default", stored.SourceType)
	}
	if _, ok := ParseTimestamp(stored.Timestamp); !ok {
		t.Fatalf("timestamp %q not parseable", stored.Timestamp)
	}
}

func TestStore_AppendThenReadAllPages(t *testing.T) {
	s := testStore(t, nil)
	const n = 25

	for i := 0; i < n; i++ {
		_, err := s.Append(context.Background(), model.ForensicLogEntry{
			Filename:  fmt.Sprintf("f-%d.png", i),
			Timestamp: ts(i%28 + 1),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	page, err := s.Query(context.Background(), QueryFilter{}, 1, 100)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != n || len(page.Items) != n {
		t.Fatalf("total=%d items=%d, want %d", page.Total, len(page.Items), n)
	}

	seen := make(map[string]bool, n)
	var prev time.Time
	for i, e := range page.Items {
		if seen[e.ID] {
			t.Fatalf("duplicate id %q", e.ID)
		}
		seen[e.ID] = true
		cur, ok := ParseTimestamp(e.Timestamp)
		if !ok {
			t.Fatalf("bad timestamp %q", e.Timestamp)
		}
		if i > 0 && cur.After(prev) {
			t.Fatalf("items not sorted newest first at index %d", i)
		}
		prev = cur
	}
}

func TestStore_QueryClampsPaging(t *testing.T) {
	s := testStore(t, nil)
	for i := 0; i < 3; i++ {
		if _, err := s.Append(context.Background(), model.ForensicLogEntry{}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.Query(context.Background(), QueryFilter{}, 0, 1000)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Page != 1 {
		t.Fatalf("page = %d, want clamp to 1", page.Page)
	}
	if page.PageSize != 100 {
		t.Fatalf("page size = %d, want clamp to 100", page.PageSize)
	}

	page, err = s.Query(context.Background(), QueryFilter{}, -5, 2)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Page != 1 || len(page.Items) != 2 {
		t.Fatalf("page=%d items=%d, want page 1 with 2 items", page.Page, len(page.Items))
	}
}

func TestStore_QueryDateRangeInclusive(t *testing.T) {
	s := testStore(t, nil)
	for day := 1; day <= 5; day++ {
		if _, err := s.Append(context.Background(), model.ForensicLogEntry{
			ID:        fmt.Sprintf("d%d", day),
			Timestamp: ts(day),
		}); err != nil {
			t.Fatal(err)
		}
	}
	// An entry with a garbage timestamp is excluded under a date filter.
	if _, err := s.Append(context.Background(), model.ForensicLogEntry{ID: "bad", Timestamp: "not-a-time"}); err != nil {
		t.Fatal(err)
	}

	page, err := s.Query(context.Background(), QueryFilter{StartDate: "2024-03-02", EndDate: "2024-03-04"}, 1, 100)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 3 {
		t.Fatalf("total = %d, want 3 (inclusive range)", page.Total)
	}
	for _, e := range page.Items {
		if e.ID == "bad" {
			t.Fatal("unparseable timestamp survived a date-filtered query")
		}
	}

	// Without a date filter the same entry is returned.
	page, err = s.Query(context.Background(), QueryFilter{}, 1, 100)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 6 {
		t.Fatalf("total = %d, want 6", page.Total)
	}
}

func TestStore_QueryOwnershipFilter(t *testing.T) {
	s := testStore(t, nil)
	for _, uid := range []string{"alice", "bob", "alice"} {
		if _, err := s.Append(context.Background(), model.ForensicLogEntry{UserID: uid}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.Query(context.Background(), QueryFilter{UserID: "alice"}, 1, 100)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("total = %d, want 2", page.Total)
	}
	for _, e := range page.Items {
		if e.UserID != "alice" {
			t.Fatalf("foreign entry in ownership-scoped query: %+v", e)
		}
	}
}

func TestStore_RemoteIDTakesPrecedence(t *testing.T) {
	remote := &fakeRemote{renames: true}
	s := testStore(t, remote)

	stored, err := s.Append(context.Background(), model.ForensicLogEntry{Filename: "x.png"})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(stored.ID) < 8 || stored.ID[:7] != "remote-" {
		t.Fatalf("stored id %q does not carry the remote assignment", stored.ID)
	}

	// The local copy must agree on identity.
	entries, err := s.local.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].ID != stored.ID {
		t.Fatalf("local entry id %q, want %q", entries[0].ID, stored.ID)
	}
}

func TestStore_RemoteFailureDegradesToLocal(t *testing.T) {
	remote := &fakeRemote{fail: true}
	s := testStore(t, remote)

	stored, err := s.Append(context.Background(), model.ForensicLogEntry{Filename: "y.png"})
	if err != nil {
		t.Fatalf("append with failing remote: %v", err)
	}

	page, err := s.Query(context.Background(), QueryFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("query with failing remote: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != stored.ID {
		t.Fatalf("local fallback did not serve the entry: %+v", page)
	}

	ok, err := s.Delete(context.Background(), stored.ID, "")
	if err != nil {
		t.Fatalf("delete with failing remote: %v", err)
	}
	if !ok {
		t.Fatal("local delete did not confirm")
	}
}

func TestStore_QueryPrefersNonEmptyRemote(t *testing.T) {
	remote := &fakeRemote{}
	s := testStore(t, remote)
	if _, err := remote.Put(context.Background(), model.ForensicLogEntry{ID: "remote-only", Timestamp: ts(9)}); err != nil {
		t.Fatal(err)
	}
	if err := s.local.Append(model.ForensicLogEntry{ID: "local-only", Timestamp: ts(8)}); err != nil {
		t.Fatal(err)
	}

	page, err := s.Query(context.Background(), QueryFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "remote-only" {
		t.Fatalf("remote was configured and non-empty but did not serve: %+v", page)
	}
}

func TestStore_QueryFallsBackWhenRemoteEmpty(t *testing.T) {
	s := testStore(t, &fakeRemote{})
	if err := s.local.Append(model.ForensicLogEntry{ID: "local-only", Timestamp: ts(8)}); err != nil {
		t.Fatal(err)
	}

	page, err := s.Query(context.Background(), QueryFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if page.Total != 1 || page.Items[0].ID != "local-only" {
		t.Fatalf("empty remote result did not fall back to local: %+v", page)
	}
}

func TestStore_DeleteRejectsMissingID(t *testing.T) {
	s := testStore(t, nil)
	if _, err := s.Delete(context.Background(), "", ""); !errors.Is(err, ErrMissingID) {
		t.Fatalf("err = %v, want ErrMissingID", err)
	}
}

func TestStore_DeleteNotFoundAndForeignOwner(t *testing.T) {
	s := testStore(t, nil)
	stored, err := s.Append(context.Background(), model.ForensicLogEntry{UserID: "alice"})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := s.Delete(context.Background(), "does-not-exist", "")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("delete of unknown id reported success")
	}

	ok, err = s.Delete(context.Background(), stored.ID, "mallory")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("delete removed another user's entry")
	}
	page, _ := s.Query(context.Background(), QueryFilter{}, 1, 10)
	if page.Total != 1 {
		t.Fatal("entry vanished after a denied delete")
	}
}

func TestStore_ClearCountsBothBackends(t *testing.T) {
	remote := &fakeRemote{}
	s := testStore(t, remote)

	// One logical entry lands in both backends: the combined count
	// double-counts it. Documented approximation.
	stored, err := s.Append(context.Background(), model.ForensicLogEntry{SourceType: model.SourceUpload})
	if err != nil {
		t.Fatal(err)
	}
	_ = stored

	n, err := s.Clear(context.Background(), "", "upload")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("count = %d, want 2 (one per backend)", n)
	}
}

func TestStore_ClearSourceFilterLeavesOthersReadable(t *testing.T) {
	s := testStore(t, nil)
	if _, err := s.Append(context.Background(), model.ForensicLogEntry{ID: "u1", SourceType: model.SourceUpload, Timestamp: ts(1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Append(context.Background(), model.ForensicLogEntry{ID: "l1", SourceType: model.SourceLive, Timestamp: ts(2)}); err != nil {
		t.Fatal(err)
	}

	n, err := s.Clear(context.Background(), "", "live")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}

	page, err := s.Query(context.Background(), QueryFilter{}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Items[0].ID != "u1" {
		t.Fatalf("unmatched entry not readable after clear: %+v", page)
	}
}
