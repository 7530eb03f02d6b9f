package dashboard

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/mapview"
	"crimewatch/dashboard-go/internal/metrics"
	"crimewatch/dashboard-go/internal/render"
	"crimewatch/dashboard-go/internal/selection"
)

// ErrNoBoundaryAtPoint is returned by Locate when no subdivision contains the point.
var ErrNoBoundaryAtPoint = errors.New("no boundary at point")

type SessionConfig struct {
	Map        mapview.Config
	Styles     render.StyleTable
	HeatRadius float64
	ExpandZoom int
}

// Session is one user's dashboard: a viewport, a single rendered layer and the
// controller that owns the filter state, bound to a snapshot for its lifetime.
type Session struct {
	Snapshot     *Snapshot
	Controller   *selection.Controller
	Interactions *boundary.Interactions
	CreatedAt    time.Time

	mu      sync.Mutex
	pending []selection.Event
}

// maxPendingEvents bounds the undrained event buffer of a session.
const maxPendingEvents = 64

// NewSession builds a session on snap and performs its initial render.
func NewSession(snap *Snapshot, cfg SessionConfig, log zerolog.Logger, m *metrics.Metrics) *Session {
	ix := boundary.NewInteractions(snap.Boundaries)
	c := selection.New(log, selection.Options{
		Records:      snap.Store.All(),
		EventTypes:   snap.Options.EventTypes,
		Subdivisions: snap.Options.Subdivisions,
		Styles:       cfg.Styles,
		HeatRadius:   cfg.HeatRadius,
		ExpandZoom:   cfg.ExpandZoom,
		Map:          mapview.New(cfg.Map),
		Interactions: ix,
	}, m)
	s := &Session{
		Snapshot:     snap,
		Controller:   c,
		Interactions: ix,
		CreatedAt:    time.Now().UTC(),
	}
	c.Subscribe(s.record)
	return s
}

func (s *Session) record(ev selection.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == maxPendingEvents {
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, ev)
}

// DrainEvents returns the controller events emitted since the last drain, oldest first.
func (s *Session) DrainEvents() []selection.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	if out == nil {
		out = []selection.Event{}
	}
	return out
}

// Activate forwards a boundary interaction to this session's listeners.
func (s *Session) Activate(kind boundary.Interaction, name string) error {
	return s.Interactions.Activate(kind, name)
}

// Locate hit-tests a map click and treats it as a click on the containing
// subdivision.
func (s *Session) Locate(lat, lon float64) (string, error) {
	name, ok := s.Snapshot.Boundaries.Locate(lat, lon)
	if !ok {
		return "", ErrNoBoundaryAtPoint
	}
	if err := s.Interactions.Activate(boundary.InteractionClick, name); err != nil {
		return "", err
	}
	return name, nil
}

// BoundariesGeoJSON marshals the boundaries with this session's hover state.
func (s *Session) BoundariesGeoJSON() ([]byte, error) {
	return boundary.FeatureCollection(s.Snapshot.Boundaries, s.Snapshot.Outline, s.Interactions.Highlighted()).MarshalJSON()
}

func (s *Session) Close() {
	s.Controller.Close()
}
