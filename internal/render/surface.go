package render

import (
	"crimewatch/dashboard-go/internal/incident"
	"crimewatch/dashboard-go/internal/metrics"
)

// Surface owns the single active layer of a map. Callers must serialise access.
type Surface struct {
	active  Layer
	live    int
	metrics *metrics.Metrics
}

func NewSurface(m *metrics.Metrics) *Surface {
	return &Surface{metrics: m}
}

// Show tears down the active layer completely, then constructs the next one
// from records. Between the two steps the surface is in mode none.
func (s *Surface) Show(r Renderer, records []incident.Record) Layer {
	s.Clear()
	l := r.Render(records)
	s.active = l
	s.live++
	s.metrics.ObserveRender(string(l.Mode()), l.Elements())
	return l
}

// Clear tears down the active layer, leaving mode none.
func (s *Surface) Clear() {
	if s.active == nil {
		return
	}
	s.active.Teardown()
	s.active = nil
	s.live--
}

func (s *Surface) Active() Layer { return s.active }

func (s *Surface) Mode() Mode {
	if s.active == nil {
		return ModeNone
	}
	return s.active.Mode()
}

// ElementCount is the number of visual elements drawn on the map.
func (s *Surface) ElementCount() int {
	if s.active == nil {
		return 0
	}
	return s.active.Elements()
}

// LiveLayers counts constructed layers not yet torn down; it never exceeds one.
func (s *Surface) LiveLayers() int { return s.live }

// AdjustHeat restyles an active heat layer in place. It reports whether a heat
// layer was active.
func (s *Surface) AdjustHeat(radius float64) bool {
	h, ok := s.active.(*HeatLayer)
	if !ok {
		return false
	}
	h.SetRadius(radius)
	return true
}

// Rezoom regroups an active cluster layer for a new zoom level.
func (s *Surface) Rezoom(zoom int) bool {
	c, ok := s.active.(*ClusterLayer)
	if !ok {
		return false
	}
	c.SetZoom(zoom)
	return true
}
