package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/incident"
	"crimewatch/dashboard-go/internal/mapview"
	"crimewatch/dashboard-go/internal/render"
)

type fakeOptions struct {
	fn func(ctx context.Context) (incident.FilterOptions, error)
}

func (f fakeOptions) FilterOptions(ctx context.Context) (incident.FilterOptions, error) {
	return f.fn(ctx)
}

type fakeRecords struct {
	fn func(ctx context.Context) ([]incident.Record, error)
}

func (f fakeRecords) ListIncidents(ctx context.Context) ([]incident.Record, error) {
	return f.fn(ctx)
}

type fakeAnalytics struct {
	fn func(ctx context.Context) (incident.Analytics, error)
}

func (f fakeAnalytics) Analytics(ctx context.Context) (incident.Analytics, error) {
	return f.fn(ctx)
}

const kovilpattiGeoJSON = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"ignored"},"geometry":{"type":"Polygon","coordinates":[[[77.7,9.0],[78.0,9.0],[78.0,9.3],[77.7,9.3],[77.7,9.0]]]}}]}`
const outlineGeoJSON = `{"type":"Polygon","coordinates":[[[77.7,8.3],[78.4,8.3],[78.4,9.3],[77.7,9.3],[77.7,8.3]]]}`

func testDeps() Deps {
	return Deps{
		Options: fakeOptions{fn: func(context.Context) (incident.FilterOptions, error) {
			return incident.FilterOptions{EventTypes: []string{"Theft", "Fire"}, Subdivisions: []string{"Kovilpatti", "Tiruchendur"}}, nil
		}},
		Records: fakeRecords{fn: func(context.Context) ([]incident.Record, error) {
			return []incident.Record{
				{EventType: "Theft", Category: "Town", Subdivision: "Kovilpatti", Date: "2024-01-05", Latitude: 9.17, Longitude: 77.87},
				{EventType: "Fire", Category: "Rural", Subdivision: "Tiruchendur", Date: "2024-02-01", Latitude: 8.49, Longitude: 78.12},
			}, nil
		}},
		Analytics: fakeAnalytics{fn: func(context.Context) (incident.Analytics, error) {
			return incident.Analytics{TotalCases: 2, TopStations: []incident.StationCount{{Station: "Kovilpatti East", Count: 1}}}, nil
		}},
		Boundaries: boundary.DirFetcher{FS: fstest.MapFS{
			"kovilpatti.geojson":                     {Data: []byte(kovilpattiGeoJSON)},
			"thiruchendur.geojson":                   {Data: []byte(`not json`)},
			"THOOTHUKUDI POLICE MAP OUTLINE.geojson": {Data: []byte(outlineGeoJSON)},
		}},
		Log: zerolog.Nop(),
	}
}

func TestBootstrap_LoadsEverything(t *testing.T) {
	snap, err := Bootstrap(context.Background(), testDeps())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Store.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", snap.Store.Len())
	}
	if len(snap.Options.Categories) != 2 {
		t.Fatalf("expected default categories, got %v", snap.Options.Categories)
	}
	if snap.Analytics.TotalCases != 2 {
		t.Fatalf("expected analytics passed through, got %+v", snap.Analytics)
	}
	if snap.Boundaries.Len() != 1 {
		t.Fatalf("expected only Kovilpatti registered, got %v", snap.Boundaries.Names())
	}
	if len(snap.FailedBoundaries) != 1 || snap.FailedBoundaries[0] != "thiruchendur.geojson" {
		t.Fatalf("expected failed Tiruchendur file, got %v", snap.FailedBoundaries)
	}
	if snap.Outline == nil {
		t.Fatalf("expected district outline")
	}

	body, err := snap.BoundariesGeoJSON()
	if err != nil {
		t.Fatalf("marshal boundaries: %v", err)
	}
	if !strings.Contains(string(body), `"role":"outline"`) || !strings.Contains(string(body), `"name":"Kovilpatti"`) {
		t.Fatalf("unexpected boundaries geojson: %s", body)
	}
}

func TestBootstrap_FailsAtomically(t *testing.T) {
	for _, which := range []string{"options", "records", "analytics"} {
		deps := testDeps()
		boom := errors.New("connection refused")
		switch which {
		case "options":
			deps.Options = fakeOptions{fn: func(context.Context) (incident.FilterOptions, error) { return incident.FilterOptions{}, boom }}
		case "records":
			deps.Records = fakeRecords{fn: func(context.Context) ([]incident.Record, error) { return nil, boom }}
		case "analytics":
			deps.Analytics = fakeAnalytics{fn: func(context.Context) (incident.Analytics, error) { return incident.Analytics{}, boom }}
		}

		snap, err := Bootstrap(context.Background(), deps)
		if !errors.Is(err, incident.ErrDataUnavailable) {
			t.Fatalf("%s: expected ErrDataUnavailable, got %v", which, err)
		}
		if snap != nil {
			t.Fatalf("%s: expected no snapshot on failure", which)
		}
	}
}

func TestBootstrap_NoBoundarySource(t *testing.T) {
	deps := testDeps()
	deps.Boundaries = nil
	snap, err := Bootstrap(context.Background(), deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Boundaries.Len() != 0 || snap.Outline != nil {
		t.Fatalf("expected no boundaries")
	}
}

func TestNoAnalytics(t *testing.T) {
	a, err := NoAnalytics{}.Analytics(context.Background())
	if err != nil || a.TotalCases != 0 || a.TopStations == nil {
		t.Fatalf("unexpected empty analytics: %+v (%v)", a, err)
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	snap, err := Bootstrap(context.Background(), testDeps())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return NewSession(snap, SessionConfig{Map: mapview.DefaultConfig(), Styles: render.DefaultStyles()}, zerolog.Nop(), nil)
}

func TestSession_LocateClicksContainingBoundary(t *testing.T) {
	s := newTestSession(t)
	name, err := s.Locate(9.1, 77.8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Kovilpatti" {
		t.Fatalf("expected Kovilpatti, got %q", name)
	}
	if got := s.Controller.CurrentFilterState().Subdivisions; len(got) != 1 || got[0] != "Kovilpatti" {
		t.Fatalf("expected selection {Kovilpatti}, got %v", got)
	}

	if _, err := s.Locate(8.5, 78.3); !errors.Is(err, ErrNoBoundaryAtPoint) {
		t.Fatalf("expected ErrNoBoundaryAtPoint, got %v", err)
	}
}

func TestSessions_AreIsolated(t *testing.T) {
	snap, err := Bootstrap(context.Background(), testDeps())
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	cfg := SessionConfig{Map: mapview.DefaultConfig(), Styles: render.DefaultStyles()}
	a := NewSession(snap, cfg, zerolog.Nop(), nil)
	b := NewSession(snap, cfg, zerolog.Nop(), nil)

	if err := a.Activate(boundary.InteractionClick, "Kovilpatti"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if got := b.Controller.CurrentFilterState().Subdivisions; len(got) != 0 {
		t.Fatalf("expected other session untouched, got %v", got)
	}

	if err := a.Activate(boundary.InteractionHover, "Kovilpatti"); err != nil {
		t.Fatalf("hover: %v", err)
	}
	body, err := b.BoundariesGeoJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(body), boundary.HighlightStyle.Color) {
		t.Fatalf("expected no highlight in the other session")
	}
}

func TestSession_DrainEvents(t *testing.T) {
	s := newTestSession(t)
	if got := s.DrainEvents(); len(got) != 0 {
		t.Fatalf("expected no events after construction, got %d", len(got))
	}
	if err := s.Controller.SetViewMode("heat"); err != nil {
		t.Fatalf("set view mode: %v", err)
	}
	if err := s.Activate(boundary.InteractionClick, "Kovilpatti"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	events := s.DrainEvents()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	if events[0].Kind != "view_mode_changed" || events[1].Kind != "boundary_activated" {
		t.Fatalf("unexpected event order: %s, %s", events[0].Kind, events[1].Kind)
	}
	if got := s.DrainEvents(); len(got) != 0 {
		t.Fatalf("expected drained buffer, got %d", len(got))
	}
}
