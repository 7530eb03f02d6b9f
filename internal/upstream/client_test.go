package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/filters", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"event_types":["Fire Accident","Theft / Robbery"],"subdivisions":["Kovilpatti","Tiruchendur"]}`))
	})
	mux.HandleFunc("/api/data", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"Category":"Town","Event Type":"Theft / Robbery","Subdivision":"Kovilpatti","Police Station":"Kovilpatti East","Complaint":null,"Date":"2024-01-05","Latitude":9.17,"Longitude":77.87},
			{"Category":"Rural","Event Type":"Fire Accident","Subdivision":"Tiruchendur","Police Station":"Alwarthirunagari","Complaint":"shop fire","Date":"2024-02-01","Latitude":8.49,"Longitude":78.12}
		]`))
	})
	mux.HandleFunc("/api/analytics", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"total_cases":2,"top_stations":[["Kovilpatti East",1],["Alwarthirunagari",1]]}`))
	})
	mux.HandleFunc("/static/geojson/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/static/geojson/THOOTHUKUDI POLICE MAP OUTLINE.geojson" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(url, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_FilterOptionsAddsCategories(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	opts, err := c.FilterOptions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(opts.EventTypes) != 2 || opts.Subdivisions[0] != "Kovilpatti" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if len(opts.Categories) != 2 || opts.Categories[0] != "Rural" || opts.Categories[1] != "Town" {
		t.Fatalf("expected default categories, got %v", opts.Categories)
	}
}

func TestClient_ListIncidents(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	records, err := c.ListIncidents(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Complaint != nil {
		t.Fatalf("expected null complaint to stay nil")
	}
	if records[1].Complaint == nil || *records[1].Complaint != "shop fire" {
		t.Fatalf("unexpected complaint: %v", records[1].Complaint)
	}
	if records[0].PoliceStation != "Kovilpatti East" || records[0].EventType != "Theft / Robbery" {
		t.Fatalf("unexpected record: %+v", records[0])
	}
}

func TestClient_AnalyticsPairs(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	a, err := c.Analytics(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.TotalCases != 2 || len(a.TopStations) != 2 {
		t.Fatalf("unexpected analytics: %+v", a)
	}
	if a.TopStations[0].Station != "Kovilpatti East" || a.TopStations[0].Count != 1 {
		t.Fatalf("unexpected first station: %+v", a.TopStations[0])
	}

	out, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"total_cases":2,"top_stations":[["Kovilpatti East",1],["Alwarthirunagari",1]]}` {
		t.Fatalf("expected wire shape preserved, got %s", out)
	}
}

func TestClient_FetchEscapesFileNames(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(t, srv.URL)

	data, err := c.Fetch(context.Background(), "THOOTHUKUDI POLICE MAP OUTLINE.geojson")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected body")
	}

	_, err = c.Fetch(context.Background(), "missing.geojson")
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 status error, got %v", err)
	}

	if _, err := c.Fetch(context.Background(), "../secrets"); err == nil {
		t.Fatalf("expected path traversal to be rejected")
	}
}

func TestClient_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	if _, err := c.ListIncidents(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.com", nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected non-http scheme to be rejected")
	}
}
