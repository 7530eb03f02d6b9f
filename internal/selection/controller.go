// Package selection owns the dashboard's filter state and drives the render
// cycle whenever any entry point changes it.
package selection

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/filter"
	"crimewatch/dashboard-go/internal/incident"
	"crimewatch/dashboard-go/internal/mapview"
	"crimewatch/dashboard-go/internal/metrics"
	"crimewatch/dashboard-go/internal/render"
)

var ErrInvalidSelection = errors.New("invalid selection")

type EventKind string

const (
	EventFilterChanged     EventKind = "filter_changed"
	EventViewModeChanged   EventKind = "view_mode_changed"
	EventSelectionChanged  EventKind = "selection_changed"
	EventBoundaryActivated EventKind = "boundary_activated"
)

// Event is delivered synchronously to subscribers after the state change and
// its render cycle have completed.
type Event struct {
	Kind     EventKind            `json:"kind"`
	State    filter.State         `json:"state"`
	Mode     render.Mode          `json:"mode"`
	Boundary *boundary.Activation `json:"boundary,omitempty"`
}

type Listener func(Event)

type Options struct {
	Records    []incident.Record
	EventTypes []string
	// Subdivisions feeds the dropdown and the list. Registered boundary names
	// missing from it are appended.
	Subdivisions []string
	Styles       render.StyleTable
	HeatRadius   float64
	ExpandZoom   int
	Map          *mapview.Map
	Interactions *boundary.Interactions
}

// Controller is the only writer of a session's filter state.
type Controller struct {
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu            sync.Mutex
	records       []incident.Record
	eventTypes    map[string]bool
	styles        render.StyleTable
	expandZoom    int
	defaultRadius float64

	state   filter.State
	mode    render.Mode
	radius  float64
	visible int
	renders int

	view         *mapview.Map
	surface      *render.Surface
	widget       *MultiSelect
	list         *SubdivisionList
	interactions *boundary.Interactions

	listenersMu sync.Mutex
	listeners   []Listener
}

// New builds a controller in its default state and performs the initial render.
func New(log zerolog.Logger, opts Options, m *metrics.Metrics) *Controller {
	radius := opts.HeatRadius
	if radius <= 0 {
		radius = render.DefaultHeatRadius
	}
	view := opts.Map
	if view == nil {
		view = mapview.New(mapview.DefaultConfig())
	}

	eventTypes := make(map[string]bool, len(opts.EventTypes))
	for _, et := range opts.EventTypes {
		eventTypes[et] = true
	}

	subdivisions := incident.NormalizeNameList(opts.Subdivisions)
	if opts.Interactions != nil {
		known := make(map[string]bool, len(subdivisions))
		for _, s := range subdivisions {
			known[s] = true
		}
		for _, name := range opts.Interactions.Registry().Names() {
			if !known[name] {
				subdivisions = append(subdivisions, name)
			}
		}
	}

	c := &Controller{
		log:           log,
		metrics:       m,
		records:       append([]incident.Record(nil), opts.Records...),
		eventTypes:    eventTypes,
		styles:        opts.Styles,
		expandZoom:    opts.ExpandZoom,
		defaultRadius: radius,
		state:         filter.Default(),
		mode:          render.ModePoint,
		radius:        radius,
		view:          view,
		surface:       render.NewSurface(m),
		widget:        newMultiSelect(subdivisions),
		list:          newSubdivisionList(subdivisions),
		interactions:  opts.Interactions,
	}
	c.widget.onChange = c.SetSubdivisionSelection
	if c.interactions != nil {
		c.interactions.Subscribe(c.onBoundary)
	}

	c.mu.Lock()
	c.syncSubdivisionsLocked()
	c.renderLocked()
	c.mu.Unlock()
	return c
}

func (c *Controller) Subscribe(fn Listener) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// CurrentFilterState returns a copy of the canonical filter state.
func (c *Controller) CurrentFilterState() filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Widget is the subdivision dropdown. Its Choose method is a selection entry point.
func (c *Controller) Widget() *MultiSelect { return c.widget }

func (c *Controller) SetEventType(value string) error {
	if value == "" {
		value = filter.AllEventTypes
	}
	if value != filter.AllEventTypes && !c.eventTypes[value] {
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidSelection, value)
	}
	return c.mutateFilter(func(s *filter.State) { s.EventType = value }, EventFilterChanged)
}

func (c *Controller) SetCategories(values []string) error {
	for _, v := range values {
		if !incident.IsValidCategory(v) {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidSelection, v)
		}
	}
	cats := incident.NormalizeCategoryList(values)
	if cats == nil {
		cats = []string{}
	}
	return c.mutateFilter(func(s *filter.State) { s.Categories = cats }, EventFilterChanged)
}

func (c *Controller) SetDateRange(from, to string) error {
	if from != "" && !incident.IsISODate(from) {
		return fmt.Errorf("%w: malformed from date %q", ErrInvalidSelection, from)
	}
	if to != "" && !incident.IsISODate(to) {
		return fmt.Errorf("%w: malformed to date %q", ErrInvalidSelection, to)
	}
	return c.mutateFilter(func(s *filter.State) {
		s.DateFrom = from
		s.DateTo = to
	}, EventFilterChanged)
}

// SetSubdivisionSelection replaces the subdivision selection. An empty
// selection matches every subdivision.
func (c *Controller) SetSubdivisionSelection(names []string) error {
	names = incident.NormalizeNameList(names)
	for _, n := range names {
		if !c.widget.has(n) {
			return fmt.Errorf("%w: unknown subdivision %q", ErrInvalidSelection, n)
		}
	}
	if names == nil {
		names = []string{}
	}
	return c.mutateFilter(func(s *filter.State) { s.Subdivisions = names }, EventSelectionChanged, EventFilterChanged)
}

// ListClick selects exactly the clicked list item and fits the view to its
// boundary when one is registered. Both happen in one state change.
func (c *Controller) ListClick(name string) error {
	if !c.widget.has(name) {
		return fmt.Errorf("%w: unknown subdivision %q", ErrInvalidSelection, name)
	}
	var (
		bounds mapview.Bounds
		fit    bool
	)
	if c.interactions != nil {
		if b, err := c.interactions.Registry().Bounds(name); err == nil {
			bounds, fit = b, true
		}
	}
	return c.mutateFilter(func(s *filter.State) {
		if fit {
			c.view.FitBounds(bounds)
		}
		s.Subdivisions = []string{name}
	}, EventSelectionChanged, EventFilterChanged)
}

func (c *Controller) SetViewMode(value string) error {
	mode, err := render.ParseMode(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	c.mu.Lock()
	c.mode = mode
	c.renderLocked()
	ev := c.eventLocked(EventViewModeChanged)
	c.mu.Unlock()

	c.emit(ev)
	return nil
}

// SetHeatRadius restyles the live heat layer in place. It never re-filters and
// never rebuilds the layer; outside heat mode the value is kept for later.
func (c *Controller) SetHeatRadius(radius float64) error {
	if radius <= 0 {
		return fmt.Errorf("%w: heat radius must be positive, got %v", ErrInvalidSelection, radius)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.radius = radius
	c.surface.AdjustHeat(radius)
	return nil
}

// SetView pans or zooms the map. A cluster layer is regrouped for the new zoom
// without re-filtering.
func (c *Controller) SetView(center mapview.LatLng, zoom int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.SetView(center, zoom)
	c.surface.Rezoom(c.view.View().Zoom)
}

// Reset restores every filter dimension, point mode, the default heat radius
// and the default viewport, then renders once.
func (c *Controller) Reset() {
	c.mu.Lock()
	modeChanged := c.mode != render.ModePoint
	c.state = filter.Default()
	c.mode = render.ModePoint
	c.radius = c.defaultRadius
	c.view.Reset()
	c.syncSubdivisionsLocked()
	c.renderLocked()
	events := []Event{c.eventLocked(EventSelectionChanged), c.eventLocked(EventFilterChanged)}
	if modeChanged {
		events = append(events, c.eventLocked(EventViewModeChanged))
	}
	c.mu.Unlock()

	c.emit(events...)
}

func (c *Controller) onBoundary(a boundary.Activation) {
	act := a
	c.mu.Lock()
	events := []Event{c.eventLocked(EventBoundaryActivated)}
	events[0].Boundary = &act
	if a.Kind == boundary.InteractionClick && c.widget.has(a.Name) {
		c.view.FitBounds(a.Bounds)
		c.state.Subdivisions = []string{a.Name}
		c.syncSubdivisionsLocked()
		c.renderLocked()
		events = append(events, c.eventLocked(EventSelectionChanged), c.eventLocked(EventFilterChanged))
	}
	c.mu.Unlock()

	c.emit(events...)
}

// mutateFilter applies fn to a copy of the state under the controller lock,
// then renders once and emits kinds after unlocking.
func (c *Controller) mutateFilter(fn func(*filter.State), kinds ...EventKind) error {
	c.mu.Lock()
	next := c.state.Clone()
	fn(&next)
	c.state = next
	c.syncSubdivisionsLocked()
	c.renderLocked()
	events := make([]Event, 0, len(kinds))
	for _, k := range kinds {
		events = append(events, c.eventLocked(k))
	}
	c.mu.Unlock()

	c.emit(events...)
	return nil
}

func (c *Controller) syncSubdivisionsLocked() {
	c.widget.setSelected(c.state.Subdivisions)
	c.list.setHighlighted(c.state.Subdivisions)
}

// renderLocked runs one filter evaluation and one teardown/construct cycle.
func (c *Controller) renderLocked() {
	start := time.Now()
	records := filter.FilterAll(c.records, c.state)
	c.metrics.ObserveFilter(time.Since(start))

	r, err := render.NewRenderer(c.mode, render.Options{
		Styles:     c.styles,
		Zoom:       c.view.View().Zoom,
		ExpandZoom: c.expandZoom,
		HeatRadius: c.radius,
	})
	if err != nil {
		c.log.Error().Err(err).Str("mode", string(c.mode)).Msg("render skipped")
		c.surface.Clear()
		return
	}
	layer := c.surface.Show(r, records)
	c.visible = len(records)
	c.renders++
	c.log.Debug().
		Str("mode", string(layer.Mode())).
		Int("records", len(records)).
		Int("elements", layer.Elements()).
		Msg("render cycle")
}

func (c *Controller) eventLocked(kind EventKind) Event {
	return Event{Kind: kind, State: c.state.Clone(), Mode: c.mode}
}

func (c *Controller) emit(events ...Event) {
	c.listenersMu.Lock()
	listeners := append([]Listener(nil), c.listeners...)
	c.listenersMu.Unlock()
	for _, ev := range events {
		for _, fn := range listeners {
			fn(ev)
		}
	}
}

// Snapshot is a consistent read of everything a UI needs to draw the session.
type Snapshot struct {
	Filter      filter.State     `json:"filter"`
	Mode        render.Mode      `json:"mode"`
	HeatRadius  float64          `json:"heat_radius"`
	HeatBlur    float64          `json:"heat_blur"`
	View        mapview.Viewport `json:"view"`
	Widget      WidgetState      `json:"widget"`
	Highlighted []string         `json:"highlighted"`
	List        []ListItem       `json:"list"`
	Layer       LayerSummary     `json:"layer"`
}

// ListItem is one row of the subdivision list.
type ListItem struct {
	Name        string `json:"name"`
	Highlighted bool   `json:"highlighted"`
}

type WidgetState struct {
	Options  []string `json:"options"`
	Selected []string `json:"selected"`
}

type LayerSummary struct {
	Mode     render.Mode `json:"mode"`
	Elements int         `json:"elements"`
	Records  int         `json:"records"`
	Renders  int         `json:"renders"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected := c.widget.Selected()
	sort.Strings(selected)
	items := c.list.Items()
	list := make([]ListItem, 0, len(items))
	for _, name := range items {
		list = append(list, ListItem{Name: name, Highlighted: c.list.IsHighlighted(name)})
	}
	return Snapshot{
		Filter:      c.state.Clone(),
		Mode:        c.mode,
		HeatRadius:  c.radius,
		HeatBlur:    c.radius / 2,
		View:        c.view.View(),
		Widget:      WidgetState{Options: c.widget.Options(), Selected: selected},
		Highlighted: c.list.Highlighted(),
		List:        list,
		Layer: LayerSummary{
			Mode:     c.surface.Mode(),
			Elements: c.surface.ElementCount(),
			Records:  c.visible,
			Renders:  c.renders,
		},
	}
}

// LayerGeoJSON marshals the active layer.
func (c *Controller) LayerGeoJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	l := c.surface.Active()
	if l == nil {
		return []byte(`{"type":"FeatureCollection","features":[]}`), nil
	}
	return l.FeatureCollection().MarshalJSON()
}

// Renders counts completed render cycles since construction.
func (c *Controller) Renders() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renders
}

// Close tears the active layer down.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.surface.Clear()
}
