package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "3001" {
		t.Fatalf("port = %q, want 3001", cfg.Server.Port)
	}
	if cfg.Forensic.LogPath == "" {
		t.Fatal("forensic log path default missing")
	}
	if cfg.Model.InputSize != 299 {
		t.Fatalf("model input size = %d, want 299", cfg.Model.InputSize)
	}
	if cfg.Observability == nil || cfg.Observability.Enabled {
		t.Fatalf("observability = %+v, want disabled default", cfg.Observability)
	}
	if cfg.Archive != nil {
		t.Fatalf("archive = %+v, want nil without endpoint", cfg.Archive)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("VERIFIXIA_SERVER__PORT", "8088")
	t.Setenv("VERIFIXIA_FORENSIC__LOG_PATH", "/tmp/audit.jsonl")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "8088" {
		t.Fatalf("port = %q, want env override 8088", cfg.Server.Port)
	}
	if cfg.Forensic.LogPath != "/tmp/audit.jsonl" {
		t.Fatalf("log path = %q, want env override", cfg.Forensic.LogPath)
	}
}
