package storage

import (
	"strings"
	"testing"
	"time"
)

func TestKeyForBatch(t *testing.T) {
	key := KeyForBatch("abc123")
	if !strings.HasPrefix(key, "forensic/") {
		t.Fatalf("key %q missing forensic/ prefix", key)
	}
	if !strings.HasSuffix(key, "abc123.json.gz") {
		t.Fatalf("key %q missing batch id and extension", key)
	}
	if !strings.Contains(key, time.Now().UTC().Format("2006/01/02")) {
		t.Fatalf("key %q missing date partition", key)
	}
}

func TestNewArchiveClient_NilWhenUnconfigured(t *testing.T) {
	c, err := NewArchiveClient(nil)
	if err != nil || c != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", c, err)
	}
}
