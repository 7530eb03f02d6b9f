// Package boundary holds the named subdivision polygons of the dashboard and the
// interaction events fired when a user touches one.
package boundary

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"crimewatch/dashboard-go/internal/mapview"
)

var (
	ErrDuplicateBoundary  = errors.New("boundary already registered")
	ErrNotFound           = errors.New("boundary not found")
	ErrBoundaryLoadFailed = errors.New("boundary load failed")
)

// Polygon follows the GeoJSON ring convention: Rings[0] is the outer ring and any
// further rings are holes.
type Polygon struct {
	Rings [][]mapview.LatLng
	BBox  mapview.Bounds
}

// Boundary is a subdivision under its canonical name. A subdivision may be made
// of several polygons.
type Boundary struct {
	Name     string
	Polygons []Polygon
	Bounds   mapview.Bounds
}

func newBoundary(name string, polys []Polygon) Boundary {
	var b mapview.Bounds
	for _, p := range polys {
		b = b.Union(p.BBox)
	}
	return Boundary{Name: name, Polygons: polys, Bounds: b}
}

// Registry maps canonical subdivision names to their polygons. It is safe for
// concurrent registration; after loading it is only read.
type Registry struct {
	mu         sync.RWMutex
	boundaries map[string]Boundary
}

func NewRegistry() *Registry {
	return &Registry{boundaries: make(map[string]Boundary)}
}

// Register stores polys under name. Registering a name twice fails; only Reset
// clears the registry.
func (r *Registry) Register(name string, polys []Polygon) error {
	if name == "" {
		return fmt.Errorf("register boundary: empty name")
	}
	if len(polys) == 0 {
		return fmt.Errorf("register boundary %q: no polygons", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boundaries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBoundary, name)
	}
	r.boundaries[name] = newBoundary(name, polys)
	return nil
}

func (r *Registry) Lookup(name string) (Boundary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.boundaries[name]
	if !ok {
		return Boundary{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return b, nil
}

func (r *Registry) Bounds(name string) (mapview.Bounds, error) {
	b, err := r.Lookup(name)
	if err != nil {
		return mapview.Bounds{}, err
	}
	return b.Bounds, nil
}

// Names returns the registered canonical names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.boundaries))
	for n := range r.boundaries {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boundaries)
}

// Reset drops every boundary. Only full re-initialisation calls it.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boundaries = make(map[string]Boundary)
}

// Locate returns the boundary containing the point. When subdivisions overlap
// the alphabetically first match wins.
func (r *Registry) Locate(lat, lon float64) (string, bool) {
	pt := mapview.LatLng{Lat: lat, Lon: lon}
	for _, name := range r.Names() {
		b, err := r.Lookup(name)
		if err != nil {
			continue
		}
		for _, p := range b.Polygons {
			if !p.BBox.Contains(lat, lon) {
				continue
			}
			if pointInPolygon(pt, p) {
				return name, true
			}
		}
	}
	return "", false
}

// Even-odd test: inside the outer ring and outside every hole.
func pointInPolygon(pt mapview.LatLng, p Polygon) bool {
	if len(p.Rings) == 0 || !pointInRing(pt, p.Rings[0]) {
		return false
	}
	for _, hole := range p.Rings[1:] {
		if pointInRing(pt, hole) {
			return false
		}
	}
	return true
}

func pointInRing(pt mapview.LatLng, ring []mapview.LatLng) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lon, ring[i].Lat
		xj, yj := ring[j].Lon, ring[j].Lat
		if (yi > pt.Lat) != (yj > pt.Lat) && pt.Lon < (xj-xi)*(pt.Lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}
