package server

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verifixia-ai/verifixia/internal/config"
	"github.com/verifixia-ai/verifixia/internal/detector"
	"github.com/verifixia-ai/verifixia/internal/forensic"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:               "0",
			ReadTimeout:        15,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"http://localhost:5173"},
			UploadDir:          t.TempDir(),
			MaxUploadBytes:     16 << 20,
		},
		Forensic: config.ForensicConfig{LogPath: filepath.Join(t.TempDir(), "log.jsonl")},
	}
	local := forensic.NewLocalLog(cfg.Forensic.LogPath, zerolog.Nop())
	store := forensic.NewStore(local, nil, zerolog.Nop())
	pipeline := detector.New(nil, zerolog.Nop())
	return New(cfg, pipeline, store, nil, nil, zerolog.Nop())
}

func TestNew_AppliesServerTimeouts(t *testing.T) {
	s := testServer(t)
	if got := s.Echo.Server.ReadTimeout; got != 15*time.Second {
		t.Fatalf("read timeout = %v, want 15s", got)
	}
	if got := s.Echo.Server.WriteTimeout; got != 30*time.Second {
		t.Fatalf("write timeout = %v, want 30s", got)
	}
	if got := s.Echo.Server.IdleTimeout; got != 60*time.Second {
		t.Fatalf("idle timeout = %v, want 60s", got)
	}
}

func TestNew_RegistersRoutes(t *testing.T) {
	s := testServer(t)

	want := map[string]bool{
		http.MethodPost + " /api/upload":                          false,
		http.MethodGet + " /api/health":                           false,
		http.MethodGet + " /api/logs/forensic":                    false,
		http.MethodDelete + " /api/logs/forensic/:id":             false,
		http.MethodPost + " /api/logs/forensic/export":            false,
		http.MethodGet + " /api/logs/forensic/export":             false,
		http.MethodGet + " /api/logs/forensic/export/content":     false,
		http.MethodGet + " /api/logs/forensic/report":             false,
	}
	for _, r := range s.Echo.Routes() {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", key)
		}
	}
}
