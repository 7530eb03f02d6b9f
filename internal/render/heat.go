package render

import (
	geojson "github.com/paulmach/go.geojson"

	"crimewatch/dashboard-go/internal/incident"
)

const (
	DefaultHeatRadius = 25.0
	heatPointWeight   = 0.5
	heatMaxZoom       = 18
)

// HeatRenderer builds a density surface from every record's position with a
// uniform weight. Blur is always half the radius.
type HeatRenderer struct {
	Radius float64
}

func (HeatRenderer) Mode() Mode { return ModeHeat }

func (h HeatRenderer) Render(records []incident.Record) Layer {
	radius := h.Radius
	if radius <= 0 {
		radius = DefaultHeatRadius
	}
	l := &HeatLayer{points: make([]HeatPoint, 0, len(records))}
	for _, r := range records {
		l.points = append(l.points, HeatPoint{Lat: r.Latitude, Lon: r.Longitude, Weight: heatPointWeight})
	}
	l.SetRadius(radius)
	return l
}

type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Weight float64 `json:"weight"`
}

type HeatLayer struct {
	points []HeatPoint
	radius float64
	blur   float64
}

func (l *HeatLayer) Mode() Mode { return ModeHeat }

// Elements is 1 while the layer has points to draw; an empty record set draws
// no surface at all.
func (l *HeatLayer) Elements() int {
	if len(l.points) == 0 {
		return 0
	}
	return 1
}

func (l *HeatLayer) Points() int { return len(l.points) }

func (l *HeatLayer) Radius() float64 { return l.radius }

func (l *HeatLayer) Blur() float64 { return l.blur }

// SetRadius restyles the live surface; the point set is untouched.
func (l *HeatLayer) SetRadius(radius float64) {
	l.radius = radius
	l.blur = radius / 2
}

func (l *HeatLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if len(l.points) == 0 {
		return fc
	}
	coords := make([][]float64, 0, len(l.points))
	for _, p := range l.points {
		coords = append(coords, []float64{p.Lon, p.Lat})
	}
	f := geojson.NewMultiPointFeature(coords...)
	f.SetProperty("heat", true)
	f.SetProperty("radius", l.radius)
	f.SetProperty("blur", l.blur)
	f.SetProperty("weight", heatPointWeight)
	f.SetProperty("max_zoom", heatMaxZoom)
	fc.AddFeature(f)
	return fc
}

func (l *HeatLayer) Teardown() { l.points = nil }
