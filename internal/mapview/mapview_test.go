package mapview

import (
	"math"
	"testing"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestBoundsOf(t *testing.T) {
	b := BoundsOf([]LatLng{{Lat: 9.1, Lon: 77.8}, {Lat: 8.9, Lon: 78.0}, {Lat: 9.0, Lon: 77.9}})

	if !near(b.South, 8.9) || !near(b.North, 9.1) || !near(b.West, 77.8) || !near(b.East, 78.0) {
		t.Fatalf("unexpected bounds %+v", b)
	}
	if !b.Contains(9.0, 77.9) {
		t.Fatalf("expected bounds to contain interior point")
	}
	if b.Contains(8.0, 77.9) {
		t.Fatalf("expected bounds to exclude exterior point")
	}
	if !BoundsOf(nil).IsEmpty() {
		t.Fatalf("expected empty bounds for no points")
	}
}

func TestBounds_Union(t *testing.T) {
	a := Bounds{South: 8.5, West: 77.8, North: 8.6, East: 77.9}
	b := Bounds{South: 9.0, West: 78.0, North: 9.1, East: 78.1}

	u := a.Union(b)
	if !near(u.South, 8.5) || !near(u.North, 9.1) || !near(u.West, 77.8) || !near(u.East, 78.1) {
		t.Fatalf("unexpected union %+v", u)
	}
	if got := (Bounds{}).Union(a); got != a {
		t.Fatalf("expected union with empty to return other side, got %+v", got)
	}
}

func TestMap_DefaultsAndReset(t *testing.T) {
	m := New(Config{})
	want := Viewport{Center: LatLng{Lat: 8.78, Lon: 78.13}, Zoom: 10}
	if m.View() != want {
		t.Fatalf("expected default view %+v, got %+v", want, m.View())
	}

	m.SetView(LatLng{Lat: 9.0, Lon: 78.0}, 14)
	if m.View().Zoom != 14 {
		t.Fatalf("expected zoom 14, got %d", m.View().Zoom)
	}

	m.Reset()
	if m.View() != want {
		t.Fatalf("expected reset to default view, got %+v", m.View())
	}
}

func TestMap_SetViewClamps(t *testing.T) {
	m := New(DefaultConfig())
	m.SetView(LatLng{Lat: 12, Lon: 70}, 40)

	v := m.View()
	if v.Center.Lat != 9.3 || v.Center.Lon != 77.7 {
		t.Fatalf("expected centre clamped into max bounds, got %+v", v.Center)
	}
	if v.Zoom != 20 {
		t.Fatalf("expected zoom clamped to 20, got %d", v.Zoom)
	}
}

func TestMap_FitBoundsZoomsIn(t *testing.T) {
	m := New(DefaultConfig())
	small := Bounds{South: 9.10, West: 77.80, North: 9.20, East: 77.95}

	m.FitBounds(small)
	v := m.View()
	if v.Zoom <= 10 {
		t.Fatalf("expected fit to a small polygon to zoom past the default, got %d", v.Zoom)
	}
	if !small.Contains(v.Center.Lat, v.Center.Lon) {
		t.Fatalf("expected centre inside fitted bounds, got %+v", v.Center)
	}

	before := m.View()
	m.FitBounds(Bounds{})
	if m.View() != before {
		t.Fatalf("expected empty bounds to leave the view alone")
	}
}
