package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"crimewatch/dashboard-go/internal/dashboard"
	"crimewatch/dashboard-go/internal/metrics"
)

// SnapshotProvider returns the snapshot new sessions bind to, or nil before
// the first successful bootstrap.
type SnapshotProvider interface {
	Current() *dashboard.Snapshot
}

type Options struct {
	SessionTTL  time.Duration
	CORSOrigins []string
	Session     dashboard.SessionConfig
}

type Handler struct {
	log        zerolog.Logger
	snapshots  SnapshotProvider
	sessions   *sessionStore
	sessionCfg dashboard.SessionConfig
	cors       *cors.Cors
	metrics    *metrics.Metrics
}

func NewHandler(log zerolog.Logger, snapshots SnapshotProvider, opts Options, m *metrics.Metrics) *Handler {
	ttl := opts.SessionTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Handler{
		log:        log,
		snapshots:  snapshots,
		sessions:   newSessionStore(ttl, m),
		sessionCfg: opts.Session,
		cors: cors.New(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}),
		metrics: m,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(h.cors.Handler)
	r.Use(h.accessLog)

	// Health
	r.Get("/healthz", h.handleHealthz)
	r.Get("/readyz", h.handleReadyZ)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// API
	r.Route("/api", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Get("/options", h.handleOptions)
			r.Get("/analytics", h.handleAnalytics)
			r.Get("/boundaries", h.handleBoundaries)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", h.handleCreateSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.handleGetSession)
					r.Delete("/", h.handleDeleteSession)
					r.Get("/layer", h.handleSessionLayer)
					r.Get("/boundaries", h.handleSessionBoundaries)

					r.Put("/event-type", h.handleSetEventType)
					r.Put("/categories", h.handleSetCategories)
					r.Put("/subdivisions", h.handleSetSubdivisions)
					r.Put("/date-range", h.handleSetDateRange)
					r.Put("/view-mode", h.handleSetViewMode)
					r.Put("/heat-radius", h.handleSetHeatRadius)
					r.Put("/view", h.handleSetView)
					r.Post("/reset", h.handleReset)

					r.Post("/boundaries/{name}/{interaction}", h.handleBoundaryInteraction)
					r.Post("/list/{name}/click", h.handleListClick)
					r.Post("/locate", h.handleLocate)
				})
			})
		})
	})

	return r
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		h.metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), time.Since(start))

		h.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Msg("http_request")
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeGeoJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string, details map[string]any) {
	resp := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
		},
	}
	if details != nil {
		resp["error"].(map[string]any)["details"] = details
	}
	h.writeJSON(w, status, resp)
}

func decodeJSONStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return errors.New("unexpected extra data after JSON body")
		}
		return err
	}
	return nil
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) handleReadyZ(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, "snapshot_unavailable", "dashboard data not loaded", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ready":      true,
		"loaded_at":  snap.LoadedAt,
		"records":    snap.Store.Len(),
		"boundaries": snap.Boundaries.Len(),
		"sessions":   h.sessions.Len(),
	})
}

// currentSnapshot writes a 503 and returns nil when nothing is loaded yet.
func (h *Handler) currentSnapshot(w http.ResponseWriter) *dashboard.Snapshot {
	snap := h.snapshots.Current()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, "snapshot_unavailable", "dashboard data not loaded", nil)
		return nil
	}
	return snap
}

func (h *Handler) handleOptions(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Options)
}

func (h *Handler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}
	h.writeJSON(w, http.StatusOK, snap.Analytics)
}

func (h *Handler) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}
	body, err := snap.BoundariesGeoJSON()
	if err != nil {
		h.log.Error().Err(err).Msg("marshal boundaries failed")
		h.writeError(w, http.StatusInternalServerError, "internal", "failed to encode boundaries", nil)
		return
	}
	h.writeGeoJSON(w, body)
}
