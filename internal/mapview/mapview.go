// Package mapview models the dashboard viewport: default view, max bounds and
// fit-to-bounds, independent of whichever tile library draws it.
package mapview

import (
	"math"

	"github.com/golang/geo/s2"
)

const tileSize = 256.0

type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Bounds is an axis-aligned lat/lon box.
type Bounds struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// BoundsOf returns the smallest box containing every point. An empty input
// yields the zero Bounds, which IsEmpty reports.
func BoundsOf(points []LatLng) Bounds {
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	if rect.IsEmpty() {
		return Bounds{}
	}
	return fromRect(rect)
}

func fromRect(r s2.Rect) Bounds {
	lo, hi := r.Lo(), r.Hi()
	return Bounds{
		South: lo.Lat.Degrees(),
		West:  lo.Lng.Degrees(),
		North: hi.Lat.Degrees(),
		East:  hi.Lng.Degrees(),
	}
}

func (b Bounds) rect() s2.Rect {
	return s2.RectFromLatLng(s2.LatLngFromDegrees(b.South, b.West)).
		AddPoint(s2.LatLngFromDegrees(b.North, b.East))
}

func (b Bounds) IsEmpty() bool {
	return b == Bounds{}
}

func (b Bounds) Contains(lat, lon float64) bool {
	if b.IsEmpty() {
		return false
	}
	return b.rect().ContainsLatLng(s2.LatLngFromDegrees(lat, lon))
}

// Union returns the box covering both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	switch {
	case b.IsEmpty():
		return o
	case o.IsEmpty():
		return b
	}
	return fromRect(b.rect().Union(o.rect()))
}

func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

type Viewport struct {
	Center LatLng `json:"center"`
	Zoom   int    `json:"zoom"`
}

// Config holds the fixed geography of the dashboard.
type Config struct {
	DefaultCenter LatLng
	DefaultZoom   int
	MaxBounds     Bounds
	MinZoom       int
	MaxZoom       int
	// Pixel size of the rendered map, used to pick a zoom for FitBounds.
	WidthPx  int
	HeightPx int
}

// DefaultConfig centres on the Thoothukudi district.
func DefaultConfig() Config {
	return Config{
		DefaultCenter: LatLng{Lat: 8.78, Lon: 78.13},
		DefaultZoom:   10,
		MaxBounds:     Bounds{South: 8.3, West: 77.7, North: 9.3, East: 78.4},
		MinZoom:       8,
		MaxZoom:       20,
		WidthPx:       1024,
		HeightPx:      768,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultZoom <= 0 {
		c.DefaultZoom = d.DefaultZoom
	}
	if c.DefaultCenter == (LatLng{}) {
		c.DefaultCenter = d.DefaultCenter
	}
	if c.MaxZoom <= 0 {
		c.MaxZoom = d.MaxZoom
	}
	if c.MinZoom <= 0 || c.MinZoom > c.MaxZoom {
		c.MinZoom = d.MinZoom
	}
	if c.WidthPx <= 0 {
		c.WidthPx = d.WidthPx
	}
	if c.HeightPx <= 0 {
		c.HeightPx = d.HeightPx
	}
	return c
}

// Map is the viewport state of one dashboard session.
type Map struct {
	cfg  Config
	view Viewport
}

func New(cfg Config) *Map {
	cfg = cfg.withDefaults()
	return &Map{cfg: cfg, view: Viewport{Center: cfg.DefaultCenter, Zoom: cfg.DefaultZoom}}
}

func (m *Map) Config() Config { return m.cfg }

func (m *Map) View() Viewport { return m.view }

// SetView moves the viewport, clamping the centre into the max bounds and the
// zoom into the allowed range.
func (m *Map) SetView(center LatLng, zoom int) {
	m.view = Viewport{Center: m.clampCenter(center), Zoom: m.clampZoom(zoom)}
}

// FitBounds centres on b at the highest zoom that still shows all of it.
func (m *Map) FitBounds(b Bounds) {
	if b.IsEmpty() {
		return
	}
	m.SetView(b.Center(), m.boundsZoom(b))
}

func (m *Map) Reset() {
	m.view = Viewport{Center: m.cfg.DefaultCenter, Zoom: m.cfg.DefaultZoom}
}

func (m *Map) boundsZoom(b Bounds) int {
	lonSpan := math.Abs(b.East-b.West) / 360
	latSpan := math.Abs(mercatorY(b.North)-mercatorY(b.South)) / (2 * math.Pi)

	zoom := m.cfg.MaxZoom
	if lonSpan > 0 {
		zoom = minInt(zoom, int(math.Floor(math.Log2(float64(m.cfg.WidthPx)/tileSize/lonSpan))))
	}
	if latSpan > 0 {
		zoom = minInt(zoom, int(math.Floor(math.Log2(float64(m.cfg.HeightPx)/tileSize/latSpan))))
	}
	return zoom
}

func (m *Map) clampZoom(z int) int {
	if z < m.cfg.MinZoom {
		return m.cfg.MinZoom
	}
	if z > m.cfg.MaxZoom {
		return m.cfg.MaxZoom
	}
	return z
}

func (m *Map) clampCenter(c LatLng) LatLng {
	mb := m.cfg.MaxBounds
	if mb.IsEmpty() {
		return c
	}
	c.Lat = math.Max(mb.South, math.Min(mb.North, c.Lat))
	c.Lon = math.Max(mb.West, math.Min(mb.East, c.Lon))
	return c
}

func mercatorY(lat float64) float64 {
	rad := lat * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + rad/2))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
