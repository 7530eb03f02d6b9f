package render

import (
	"github.com/golang/geo/s2"
	geojson "github.com/paulmach/go.geojson"

	"crimewatch/dashboard-go/internal/incident"
	"crimewatch/dashboard-go/internal/mapview"
)

// DefaultExpandZoom is the zoom from which every marker is drawn on its own.
const DefaultExpandZoom = 18

// ClusterRenderer groups the same per-record markers PointRenderer draws into
// S2 cells sized to the zoom level: an S2 cell at level z is roughly as wide as
// the usual 80px cluster radius on a web-mercator tile at zoom z.
type ClusterRenderer struct {
	Styles     StyleTable
	Zoom       int
	ExpandZoom int
}

func (ClusterRenderer) Mode() Mode { return ModeCluster }

func (c ClusterRenderer) Render(records []incident.Record) Layer {
	expand := c.ExpandZoom
	if expand <= 0 {
		expand = DefaultExpandZoom
	}
	l := &ClusterLayer{markers: markers(records, c.Styles), expandZoom: expand}
	l.regroup(c.Zoom)
	return l
}

// Cluster is one drawn element of a cluster layer: either an aggregate of
// nearby markers or a single marker.
type Cluster struct {
	Cell    s2.CellID
	Center  mapview.LatLng
	Bounds  mapview.Bounds
	Members []int
}

func (c Cluster) Count() int { return len(c.Members) }

type ClusterLayer struct {
	markers    []Marker
	clusters   []Cluster
	zoom       int
	expandZoom int
}

func (l *ClusterLayer) Mode() Mode { return ModeCluster }

// Elements counts drawn clusters; a single-member cluster is its marker.
func (l *ClusterLayer) Elements() int { return len(l.clusters) }

func (l *ClusterLayer) Markers() int { return len(l.markers) }

func (l *ClusterLayer) Zoom() int { return l.zoom }

func (l *ClusterLayer) Clusters() []Cluster {
	return append([]Cluster(nil), l.clusters...)
}

// SetZoom regroups the existing markers for a new zoom without re-filtering.
func (l *ClusterLayer) SetZoom(zoom int) {
	if l.markers == nil {
		return
	}
	l.regroup(zoom)
}

func (l *ClusterLayer) regroup(zoom int) {
	l.zoom = zoom
	l.clusters = l.clusters[:0]
	if len(l.markers) == 0 {
		return
	}
	if zoom >= l.expandZoom {
		for i, m := range l.markers {
			l.clusters = append(l.clusters, Cluster{
				Cell:    s2.CellIDFromLatLng(s2.LatLngFromDegrees(m.Position.Lat, m.Position.Lon)),
				Center:  m.Position,
				Bounds:  mapview.BoundsOf([]mapview.LatLng{m.Position}),
				Members: []int{i},
			})
		}
		return
	}

	level := zoom
	if level < 0 {
		level = 0
	}
	if level > s2.MaxLevel {
		level = s2.MaxLevel
	}

	index := make(map[s2.CellID]int)
	for i, m := range l.markers {
		cell := s2.CellIDFromLatLng(s2.LatLngFromDegrees(m.Position.Lat, m.Position.Lon)).Parent(level)
		if at, ok := index[cell]; ok {
			l.clusters[at].Members = append(l.clusters[at].Members, i)
			continue
		}
		index[cell] = len(l.clusters)
		l.clusters = append(l.clusters, Cluster{Cell: cell, Members: []int{i}})
	}
	for i := range l.clusters {
		c := &l.clusters[i]
		pts := make([]mapview.LatLng, 0, len(c.Members))
		var lat, lon float64
		for _, idx := range c.Members {
			p := l.markers[idx].Position
			pts = append(pts, p)
			lat += p.Lat
			lon += p.Lon
		}
		n := float64(len(c.Members))
		c.Center = mapview.LatLng{Lat: lat / n, Lon: lon / n}
		c.Bounds = mapview.BoundsOf(pts)
	}
}

func (l *ClusterLayer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range l.clusters {
		if c.Count() == 1 {
			f := l.markers[c.Members[0]].feature()
			f.SetProperty("cluster", false)
			fc.AddFeature(f)
			continue
		}
		f := geojson.NewPointFeature([]float64{c.Center.Lon, c.Center.Lat})
		f.SetProperty("cluster", true)
		f.SetProperty("cluster_id", c.Cell.ToToken())
		f.SetProperty("point_count", c.Count())
		f.SetProperty("bounds", c.Bounds)
		fc.AddFeature(f)
	}
	return fc
}

func (l *ClusterLayer) Teardown() {
	l.markers = nil
	l.clusters = nil
}
