package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	geojson "github.com/paulmach/go.geojson"

	"crimewatch/dashboard-go/internal/mapview"
)

// ParsePolygons extracts every Polygon and MultiPolygon from a GeoJSON document
// (FeatureCollection, Feature or bare geometry). Feature properties are ignored:
// a boundary's name never comes from the file contents.
func ParsePolygons(data []byte) ([]Polygon, error) {
	geoms, err := decodeGeometries(data)
	if err != nil {
		return nil, err
	}
	var polys []Polygon
	for _, g := range geoms {
		polys = appendGeometry(polys, g)
	}
	if len(polys) == 0 {
		return nil, errors.New("geojson has no polygon geometry")
	}
	return polys, nil
}

// ParseOutline is ParsePolygons for the display-only district outline, which
// may also be drawn as LineString or MultiLineString geometry.
func ParseOutline(data []byte) ([]Polygon, [][]mapview.LatLng, error) {
	geoms, err := decodeGeometries(data)
	if err != nil {
		return nil, nil, err
	}
	var (
		polys []Polygon
		lines [][]mapview.LatLng
	)
	for _, g := range geoms {
		polys = appendGeometry(polys, g)
		lines = appendLines(lines, g)
	}
	if len(polys) == 0 && len(lines) == 0 {
		return nil, nil, errors.New("geojson has no polygon or line geometry")
	}
	return polys, lines, nil
}

func decodeGeometries(data []byte) ([]*geojson.Geometry, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}

	var geoms []*geojson.Geometry
	switch strings.ToLower(head.Type) {
	case "featurecollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		for _, f := range fc.Features {
			if f != nil && f.Geometry != nil {
				geoms = append(geoms, f.Geometry)
			}
		}
	case "feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		if f.Geometry != nil {
			geoms = append(geoms, f.Geometry)
		}
	case "":
		return nil, errors.New("decode geojson: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		geoms = append(geoms, g)
	}
	return geoms, nil
}

func appendGeometry(dst []Polygon, g *geojson.Geometry) []Polygon {
	switch {
	case g == nil:
	case g.IsPolygon():
		if p, ok := toPolygon(g.Polygon); ok {
			dst = append(dst, p)
		}
	case g.IsMultiPolygon():
		for _, rings := range g.MultiPolygon {
			if p, ok := toPolygon(rings); ok {
				dst = append(dst, p)
			}
		}
	case g.IsCollection():
		for _, sub := range g.Geometries {
			dst = appendGeometry(dst, sub)
		}
	}
	return dst
}

func appendLines(dst [][]mapview.LatLng, g *geojson.Geometry) [][]mapview.LatLng {
	switch {
	case g == nil:
	case g.IsLineString():
		if l, ok := toLine(g.LineString); ok {
			dst = append(dst, l)
		}
	case g.IsMultiLineString():
		for _, raw := range g.MultiLineString {
			if l, ok := toLine(raw); ok {
				dst = append(dst, l)
			}
		}
	case g.IsCollection():
		for _, sub := range g.Geometries {
			dst = appendLines(dst, sub)
		}
	}
	return dst
}

func toLine(raw [][]float64) ([]mapview.LatLng, bool) {
	line := make([]mapview.LatLng, 0, len(raw))
	for _, c := range raw {
		if len(c) >= 2 {
			line = append(line, mapview.LatLng{Lat: c[1], Lon: c[0]})
		}
	}
	return line, len(line) >= 2
}

func toPolygon(rings [][][]float64) (Polygon, bool) {
	var p Polygon
	for _, raw := range rings {
		ring := make([]mapview.LatLng, 0, len(raw))
		for _, c := range raw {
			if len(c) < 2 {
				continue
			}
			ring = append(ring, mapview.LatLng{Lat: c[1], Lon: c[0]})
		}
		if len(ring) < 3 {
			if len(p.Rings) == 0 {
				return Polygon{}, false
			}
			continue
		}
		p.Rings = append(p.Rings, ring)
	}
	if len(p.Rings) == 0 {
		return Polygon{}, false
	}
	p.BBox = mapview.BoundsOf(p.Rings[0])
	return p, true
}

// Style is the line styling of a drawn boundary.
type Style struct {
	Fill      bool    `json:"fill"`
	Weight    float64 `json:"weight"`
	Opacity   float64 `json:"opacity"`
	Color     string  `json:"color"`
	DashArray string  `json:"dashArray,omitempty"`
}

var (
	SubdivisionStyle = Style{Fill: false, Weight: 1.5, Opacity: 0.8, Color: "#333333", DashArray: "5, 5"}
	HighlightStyle   = Style{Fill: false, Weight: 3, Opacity: 1, Color: "#FFC107", DashArray: "5, 5"}
	OutlineStyle     = Style{Fill: false, Weight: 3, Opacity: 0.9, Color: "#005A9C"}
)

func toGeometry(polys []Polygon) *geojson.Geometry {
	multi := make([][][][]float64, 0, len(polys))
	for _, p := range polys {
		rings := make([][][]float64, 0, len(p.Rings))
		for _, r := range p.Rings {
			coords := make([][]float64, 0, len(r))
			for _, pt := range r {
				coords = append(coords, []float64{pt.Lon, pt.Lat})
			}
			rings = append(rings, coords)
		}
		multi = append(multi, rings)
	}
	return geojson.NewMultiPolygonGeometry(multi...)
}

func outlineGeometry(o *Outline) *geojson.Geometry {
	if len(o.Lines) == 0 {
		return toGeometry(o.Polygons)
	}
	lines := make([][][]float64, 0, len(o.Lines))
	for _, l := range o.Lines {
		coords := make([][]float64, 0, len(l))
		for _, pt := range l {
			coords = append(coords, []float64{pt.Lon, pt.Lat})
		}
		lines = append(lines, coords)
	}
	multi := geojson.NewMultiLineStringGeometry(lines...)
	if len(o.Polygons) == 0 {
		return multi
	}
	return geojson.NewCollectionGeometry(toGeometry(o.Polygons), multi)
}

// FeatureCollection renders the registered subdivisions, plus the outline when
// present, for the map's boundary pane. highlighted names get the hover style.
func FeatureCollection(reg *Registry, outline *Outline, highlighted map[string]bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, name := range reg.Names() {
		b, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		style := SubdivisionStyle
		if highlighted[name] {
			style = HighlightStyle
		}
		f := geojson.NewFeature(toGeometry(b.Polygons))
		f.SetProperty("name", name)
		f.SetProperty("role", "subdivision")
		f.SetProperty("style", style)
		f.SetProperty("bounds", b.Bounds)
		fc.AddFeature(f)
	}
	if outline != nil && (len(outline.Polygons) > 0 || len(outline.Lines) > 0) {
		f := geojson.NewFeature(outlineGeometry(outline))
		f.SetProperty("role", "outline")
		f.SetProperty("style", OutlineStyle)
		fc.AddFeature(f)
	}
	return fc
}
