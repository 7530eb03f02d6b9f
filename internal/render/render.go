// Package render turns a filtered record set into exactly one visual layer in
// one of three interchangeable view modes.
package render

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"

	"crimewatch/dashboard-go/internal/incident"
	"crimewatch/dashboard-go/internal/mapview"
)

type Mode string

const (
	ModeNone    Mode = "none"
	ModePoint   Mode = "point"
	ModeCluster Mode = "cluster"
	ModeHeat    Mode = "heat"
)

// ParseMode accepts the three selectable modes. "none" is not selectable.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePoint, ModeCluster, ModeHeat:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown view mode %q", s)
	}
}

// Layer is one constructed visual representation of a record set.
type Layer interface {
	Mode() Mode
	// Elements is the number of visual elements currently drawn.
	Elements() int
	FeatureCollection() *geojson.FeatureCollection
	// Teardown removes every element. A torn down layer draws nothing.
	Teardown()
}

type Renderer interface {
	Mode() Mode
	Render(records []incident.Record) Layer
}

// Options parameterise the renderer factory.
type Options struct {
	Styles     StyleTable
	Zoom       int
	ExpandZoom int
	HeatRadius float64
}

// NewRenderer returns the renderer strategy for mode.
func NewRenderer(mode Mode, opts Options) (Renderer, error) {
	switch mode {
	case ModePoint:
		return PointRenderer{Styles: opts.Styles}, nil
	case ModeCluster:
		return ClusterRenderer{Styles: opts.Styles, Zoom: opts.Zoom, ExpandZoom: opts.ExpandZoom}, nil
	case ModeHeat:
		return HeatRenderer{Radius: opts.HeatRadius}, nil
	default:
		return nil, fmt.Errorf("unknown view mode %q", mode)
	}
}

// Marker is one styled, popup-bound record on the map.
type Marker struct {
	Position mapview.LatLng
	Style    Style
	Popup    PopupContent
}

func newMarker(r incident.Record, styles StyleTable) Marker {
	return Marker{
		Position: mapview.LatLng{Lat: r.Latitude, Lon: r.Longitude},
		Style:    styles.StyleFor(r.EventType),
		Popup:    Popup(r),
	}
}

func (m Marker) feature() *geojson.Feature {
	f := geojson.NewPointFeature([]float64{m.Position.Lon, m.Position.Lat})
	f.SetProperty("style", m.Style)
	f.SetProperty("popup", m.Popup.HTML())
	return f
}

func markers(records []incident.Record, styles StyleTable) []Marker {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		out = append(out, newMarker(r, styles))
	}
	return out
}

// PointRenderer draws one discrete marker per record.
type PointRenderer struct {
	Styles StyleTable
}

func (PointRenderer) Mode() Mode { return ModePoint }

func (p PointRenderer) Render(records []incident.Record) Layer {
	return &PointLayer{markers: markers(records, p.Styles)}
}

type PointLayer struct {
	markers []Marker
}

func (l *PointLayer) Mode() Mode { return ModePoint }

func (l *PointLayer) Elements() int { return len(l.markers) }

func (l *PointLayer) Markers() []Marker {
	return append([]Marker(nil), l.markers...)
}

func (l *PointLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range l.markers {
		fc.AddFeature(m.feature())
	}
	return fc
}

func (l *PointLayer) Teardown() { l.markers = nil }
