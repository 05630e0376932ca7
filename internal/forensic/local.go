package forensic

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/model"
)

// maxLineBytes bounds a single log record during a scan.
const maxLineBytes = 1 << 20

// LocalLog is the append-only, file-backed durable log: newline-delimited
// JSON, one entry per line, UTF-8. It is the durability guarantee of record.
//
// All mutations (append, backfill rewrite, delete, clear) are serialized
// behind a write lock; scans share a read lock. Rewrites go through a temp
// file and an atomic rename, so a concurrent scan always sees a complete,
// valid file.
type LocalLog struct {
	path string
	mu   sync.RWMutex
	log  zerolog.Logger
}

// NewLocalLog returns a LocalLog writing to path. The file is created on
// first append.
func NewLocalLog(path string, logger zerolog.Logger) *LocalLog {
	return &LocalLog{
		path: path,
		log:  logger.With().Str("component", "local-log").Logger(),
	}
}

// Path returns the log file location.
func (l *LocalLog) Path() string { return l.path }

// Append adds one entry to the end of the log.
func (l *LocalLog) Append(entry model.ForensicLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("local log: marshal entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("local log: mkdir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("local log: open: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("local log: write: %w", err)
	}
	return nil
}

// ReadAll scans the whole log. Malformed lines are logged and skipped.
// Legacy entries without an ID are assigned one and the file is rewritten
// once; a second scan then reads those same IDs back, so the backfill is
// idempotent.
func (l *LocalLog) ReadAll() ([]model.ForensicLogEntry, error) {
	l.mu.RLock()
	entries, missing, err := l.scan()
	l.mu.RUnlock()
	if err != nil || missing == 0 {
		return entries, err
	}

	// Backfill path: re-scan under the write lock in case another writer got
	// there first.
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, missing, err = l.scan()
	if err != nil || missing == 0 {
		return entries, err
	}
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
	}
	if err := l.rewriteLocked(entries); err != nil {
		return nil, err
	}
	l.log.Info().Int("entries", missing).Msg("backfilled missing entry ids")
	return entries, nil
}

// Delete removes the entry with the given ID. When ownerID is non-empty the
// entry is only removed if it belongs to that owner; an ID match alone is
// not enough. Reports whether an entry was removed.
func (l *LocalLog) Delete(id, ownerID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, _, err := l.scan()
	if err != nil {
		return false, err
	}

	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if !removed && e.ID == id && (ownerID == "" || e.UserID == ownerID) {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		return false, nil
	}
	if err := l.rewriteLocked(kept); err != nil {
		return false, err
	}
	return true, nil
}

// Clear removes every entry matching the owner and source filters and
// returns the removed count. Empty filters match everything.
func (l *LocalLog) Clear(ownerID, sourceType string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, _, err := l.scan()
	if err != nil {
		return 0, err
	}

	kept := entries[:0]
	removed := 0
	for _, e := range entries {
		if (ownerID == "" || e.UserID == ownerID) &&
			(sourceType == "" || string(e.SourceType) == sourceType) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := l.rewriteLocked(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// scan reads every well-formed line. Corrupt records are skipped, not fatal:
// one bad line must not take the rest of the file with it. missing counts
// entries without an ID.
func (l *LocalLog) scan() (entries []model.ForensicLogEntry, missing int, err error) {
	f, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("local log: open: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.ForensicLogEntry
		if err := json.Unmarshal(line, &e); err != nil {
			l.log.Warn().Err(err).Int("line", lineNo).Msg("skipping malformed log record")
			continue
		}
		if e.ID == "" {
			missing++
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("local log: scan: %w", err)
	}
	return entries, missing, nil
}

// rewriteLocked replaces the log file with the given entries. Callers must
// hold the write lock. Content lands in a temp file first and is swapped in
// with a rename, never an in-place truncation.
func (l *LocalLog) rewriteLocked(entries []model.ForensicLogEntry) error {
	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("local log: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".forensic-*.tmp")
	if err != nil {
		return fmt.Errorf("local log: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, e := range entries {
		line, err := json.Marshal(e)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("local log: marshal entry: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			return fmt.Errorf("local log: write: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("local log: flush: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("local log: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("local log: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("local log: replace: %w", err)
	}
	return nil
}
