package boundary

import (
	"errors"
	"testing"

	"crimewatch/dashboard-go/internal/mapview"
)

func square(south, west, north, east float64) Polygon {
	ring := []mapview.LatLng{
		{Lat: south, Lon: west},
		{Lat: south, Lon: east},
		{Lat: north, Lon: east},
		{Lat: north, Lon: west},
		{Lat: south, Lon: west},
	}
	return Polygon{Rings: [][]mapview.LatLng{ring}, BBox: mapview.BoundsOf(ring)}
}

func TestRegistry_RegisterLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("Kovilpatti", []Polygon{square(9.1, 77.8, 9.2, 77.9)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err := r.Lookup("Kovilpatti")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Name != "Kovilpatti" || len(b.Polygons) != 1 {
		t.Fatalf("unexpected boundary %+v", b)
	}

	if _, err := r.Lookup("Nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_DuplicateFails(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("A", []Polygon{square(0, 0, 1, 1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register("A", []Polygon{square(2, 2, 3, 3)}); !errors.Is(err, ErrDuplicateBoundary) {
		t.Fatalf("expected ErrDuplicateBoundary, got %v", err)
	}

	b, _ := r.Lookup("A")
	if b.Bounds.North > 1.0001 {
		t.Fatalf("expected original polygon to survive, got bounds %+v", b.Bounds)
	}

	r.Reset()
	if r.Len() != 0 {
		t.Fatalf("expected reset registry to be empty")
	}
	if err := r.Register("A", []Polygon{square(2, 2, 3, 3)}); err != nil {
		t.Fatalf("expected register after reset to succeed, got %v", err)
	}
}

func TestRegistry_BoundsCoverAllPolygons(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("Split", []Polygon{square(8.5, 77.8, 8.6, 77.9), square(8.9, 78.0, 9.0, 78.1)})

	b, err := r.Bounds("Split")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.South > 8.5001 || b.North < 8.9999 || b.West > 77.8001 || b.East < 78.0999 {
		t.Fatalf("expected bounds over both parts, got %+v", b)
	}
}

func TestRegistry_Locate(t *testing.T) {
	r := NewRegistry()
	outer := square(8.0, 77.0, 9.0, 78.0)
	hole := square(8.4, 77.4, 8.6, 77.6)
	donut := Polygon{Rings: [][]mapview.LatLng{outer.Rings[0], hole.Rings[0]}, BBox: outer.BBox}
	_ = r.Register("Donut", []Polygon{donut})
	_ = r.Register("Island", []Polygon{square(8.45, 77.45, 8.55, 77.55)})

	if name, ok := r.Locate(8.2, 77.2); !ok || name != "Donut" {
		t.Fatalf("expected Donut, got %q ok=%v", name, ok)
	}
	if name, ok := r.Locate(8.5, 77.5); !ok || name != "Island" {
		t.Fatalf("expected hole point to resolve to Island, got %q ok=%v", name, ok)
	}
	if _, ok := r.Locate(10, 80); ok {
		t.Fatalf("expected no boundary outside every polygon")
	}
}

func TestInteractions_ClickNotifiesWithBounds(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("Kovilpatti", []Polygon{square(9.1, 77.8, 9.2, 77.9)})
	in := NewInteractions(r)

	var got []Activation
	in.Subscribe(func(a Activation) { got = append(got, a) })

	if err := in.Activate(InteractionClick, "Kovilpatti"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Kind != InteractionClick || got[0].Name != "Kovilpatti" {
		t.Fatalf("unexpected activations %+v", got)
	}
	if got[0].Bounds.IsEmpty() {
		t.Fatalf("expected activation to carry the polygon bounds")
	}

	if err := in.Activate(InteractionClick, "Unknown"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected unknown boundary to notify nobody")
	}
}

func TestInteractions_HoverHighlight(t *testing.T) {
	r := NewRegistry()
	_ = r.Register("A", []Polygon{square(0, 0, 1, 1)})
	in := NewInteractions(r)

	_ = in.Activate(InteractionHover, "A")
	if !in.Highlighted()["A"] {
		t.Fatalf("expected A highlighted after hover")
	}
	_ = in.Activate(InteractionLeave, "A")
	if in.Highlighted()["A"] {
		t.Fatalf("expected highlight cleared after leave")
	}
}
