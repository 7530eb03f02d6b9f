// Package config assembles runtime settings from defaults, an optional YAML
// file and environment variables, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/mapview"
	"crimewatch/dashboard-go/internal/render"
)

type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"`
	UpstreamURL     string        `yaml:"upstream_url"`
	DatabaseURL     string        `yaml:"database_url"`
	BoundaryDir     string        `yaml:"boundary_dir"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SessionTTL      time.Duration `yaml:"session_ttl"`
	HeatRadius      float64       `yaml:"heat_radius"`
	ExpandZoom      int           `yaml:"cluster_expand_zoom"`

	Boundaries Boundaries `yaml:"boundaries"`
	Styles     Styles     `yaml:"styles"`
	Map        Map        `yaml:"map"`
}

type Boundaries struct {
	// Files maps a boundary file name to its canonical subdivision name.
	Files   map[string]string `yaml:"files"`
	Outline string            `yaml:"outline"`
	Workers int               `yaml:"workers"`
}

type Styles struct {
	Default    *render.Palette           `yaml:"default"`
	EventTypes map[string]render.Palette `yaml:"event_types"`
}

type Map struct {
	Center    []float64 `yaml:"center"`
	Zoom      int       `yaml:"zoom"`
	MaxBounds []float64 `yaml:"max_bounds"`
	MinZoom   int       `yaml:"min_zoom"`
	MaxZoom   int       `yaml:"max_zoom"`
}

func Default() Config {
	return Config{
		HTTPAddr:        ":8082",
		LogLevel:        "info",
		RefreshInterval: 10 * time.Minute,
		SessionTTL:      30 * time.Minute,
		HeatRadius:      render.DefaultHeatRadius,
		ExpandZoom:      render.DefaultExpandZoom,
		Boundaries: Boundaries{
			Outline: boundary.DefaultOutlineFile,
			Workers: 4,
		},
	}
}

// Load reads the YAML file at path when path is non-empty, then applies
// environment overrides from getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(b []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("UPSTREAM_URL", &cfg.UpstreamURL)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("BOUNDARY_DIR", &cfg.BoundaryDir)
	if v := strings.TrimSpace(getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if err := dur("REFRESH_INTERVAL", &cfg.RefreshInterval); err != nil {
		return err
	}
	if err := dur("SESSION_TTL", &cfg.SessionTTL); err != nil {
		return err
	}
	if v := strings.TrimSpace(getenv("HEAT_RADIUS")); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("HEAT_RADIUS: %w", err)
		}
		cfg.HeatRadius = r
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c Config) Validate() error {
	if c.UpstreamURL == "" && c.DatabaseURL == "" {
		return errors.New("config: one of UPSTREAM_URL or DATABASE_URL is required")
	}
	if c.HeatRadius <= 0 {
		return fmt.Errorf("config: heat_radius must be positive, got %v", c.HeatRadius)
	}
	if c.RefreshInterval < 0 {
		return fmt.Errorf("config: refresh_interval must not be negative, got %s", c.RefreshInterval)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session_ttl must be positive, got %s", c.SessionTTL)
	}
	if n := len(c.Map.Center); n != 0 && n != 2 {
		return fmt.Errorf("config: map.center needs [lat, lon], got %d values", n)
	}
	if n := len(c.Map.MaxBounds); n != 0 && n != 4 {
		return fmt.Errorf("config: map.max_bounds needs [south, west, north, east], got %d values", n)
	}
	for file, name := range c.Boundaries.Files {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: boundary file %q has no subdivision name", file)
		}
		if file == c.Boundaries.Outline {
			return fmt.Errorf("config: outline file %q cannot also be a subdivision", file)
		}
	}
	return nil
}

// FileMap returns the configured boundary table, or the built-in one.
func (c Config) FileMap() boundary.FileMap {
	if len(c.Boundaries.Files) == 0 {
		return boundary.DefaultFileMap()
	}
	out := make(boundary.FileMap, len(c.Boundaries.Files))
	for file, name := range c.Boundaries.Files {
		out[file] = strings.TrimSpace(name)
	}
	return out
}

func (c Config) LoaderOptions() boundary.Options {
	return boundary.Options{
		Files:       c.FileMap(),
		OutlineFile: c.Boundaries.Outline,
		Workers:     c.Boundaries.Workers,
	}
}

// StyleTable overlays configured palettes on the built-in ones.
func (c Config) StyleTable() render.StyleTable {
	if c.Styles.Default == nil && len(c.Styles.EventTypes) == 0 {
		return render.DefaultStyles()
	}
	return render.DefaultStyles().With(c.Styles.EventTypes, c.Styles.Default)
}

func (c Config) MapConfig() mapview.Config {
	mc := mapview.DefaultConfig()
	if len(c.Map.Center) == 2 {
		mc.DefaultCenter = mapview.LatLng{Lat: c.Map.Center[0], Lon: c.Map.Center[1]}
	}
	if c.Map.Zoom > 0 {
		mc.DefaultZoom = c.Map.Zoom
	}
	if len(c.Map.MaxBounds) == 4 {
		mc.MaxBounds = mapview.Bounds{South: c.Map.MaxBounds[0], West: c.Map.MaxBounds[1], North: c.Map.MaxBounds[2], East: c.Map.MaxBounds[3]}
	}
	if c.Map.MinZoom > 0 {
		mc.MinZoom = c.Map.MinZoom
	}
	if c.Map.MaxZoom > 0 {
		mc.MaxZoom = c.Map.MaxZoom
	}
	return mc
}
