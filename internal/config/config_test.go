package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/incident"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "dashboard.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoad_DefaultsWithEnvOnly(t *testing.T) {
	cfg, err := Load("", envMap(map[string]string{"UPSTREAM_URL": "http://data.local"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPAddr != ":8082" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RefreshInterval != 10*time.Minute || cfg.HeatRadius != 25 {
		t.Fatalf("unexpected defaults: refresh=%s radius=%v", cfg.RefreshInterval, cfg.HeatRadius)
	}
	if len(cfg.FileMap()) != len(boundary.DefaultFileMap()) {
		t.Fatalf("expected built-in boundary table")
	}
	if cfg.MapConfig().DefaultZoom != 10 {
		t.Fatalf("expected default zoom 10, got %d", cfg.MapConfig().DefaultZoom)
	}
}

func TestLoad_RequiresARecordSource(t *testing.T) {
	if _, err := Load("", envMap(nil)); err == nil {
		t.Fatalf("expected error without upstream or database")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := writeFile(t, `
upstream_url: http://yaml.local
refresh_interval: 2m
session_ttl: 1h
heat_radius: 30
boundaries:
  outline: outline.geojson
  files:
    a.geojson: North
    b.geojson: " South "
styles:
  default: {fill_color: "#111111", color: "#222222"}
  event_types:
    Others: {fill_color: "#abcdef", color: "#123456"}
map:
  center: [8.9, 78.0]
  zoom: 11
  max_bounds: [8.0, 77.0, 10.0, 79.0]
`)
	cfg, err := Load(path, envMap(map[string]string{
		"UPSTREAM_URL": "http://env.local",
		"CORS_ORIGINS": "http://a.example, http://b.example",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UpstreamURL != "http://env.local" {
		t.Fatalf("expected env to win, got %q", cfg.UpstreamURL)
	}
	if cfg.RefreshInterval != 2*time.Minute || cfg.SessionTTL != time.Hour || cfg.HeatRadius != 30 {
		t.Fatalf("unexpected yaml values: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}

	fm := cfg.FileMap()
	if len(fm) != 2 || fm["b.geojson"] != "South" {
		t.Fatalf("unexpected file map: %v", fm)
	}
	if cfg.LoaderOptions().OutlineFile != "outline.geojson" {
		t.Fatalf("unexpected outline: %q", cfg.LoaderOptions().OutlineFile)
	}

	styles := cfg.StyleTable()
	if got := styles.StyleFor(incident.EventOthers).FillColor; got != "#abcdef" {
		t.Fatalf("expected configured palette, got %s", got)
	}
	if got := styles.StyleFor("Unlisted").FillColor; got != "#111111" {
		t.Fatalf("expected configured fallback, got %s", got)
	}
	if got := styles.StyleFor(incident.EventTheft).FillColor; got != "#4d4d4d" {
		t.Fatalf("expected built-in palette kept, got %s", got)
	}

	mc := cfg.MapConfig()
	if mc.DefaultCenter.Lat != 8.9 || mc.DefaultZoom != 11 || mc.MaxBounds.North != 10.0 {
		t.Fatalf("unexpected map config: %+v", mc)
	}
}

func TestLoad_RejectsUnknownYAMLKeys(t *testing.T) {
	path := writeFile(t, "upstream_url: http://x\nheat_radios: 30\n")
	if _, err := Load(path, envMap(nil)); err == nil {
		t.Fatalf("expected unknown key to be rejected")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"bad duration": {"UPSTREAM_URL": "http://x", "REFRESH_INTERVAL": "soon"},
		"bad radius":   {"UPSTREAM_URL": "http://x", "HEAT_RADIUS": "-1"},
		"zero ttl":     {"UPSTREAM_URL": "http://x", "SESSION_TTL": "0s"},
	}
	for name, env := range cases {
		if _, err := Load("", envMap(env)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	path := writeFile(t, "upstream_url: http://x\nboundaries:\n  outline: o.geojson\n  files:\n    o.geojson: Outline\n")
	if _, err := Load(path, envMap(nil)); err == nil {
		t.Fatalf("expected outline mapped as subdivision to be rejected")
	}
}

func TestLoad_EmptyYAMLFile(t *testing.T) {
	path := writeFile(t, "")
	if _, err := Load(path, envMap(map[string]string{"DATABASE_URL": "postgres://x"})); err != nil {
		t.Fatalf("expected empty file to be accepted, got %v", err)
	}
}
