package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"crimewatch/dashboard-go/internal/boundary"
	"crimewatch/dashboard-go/internal/dashboard"
	"crimewatch/dashboard-go/internal/mapview"
	"crimewatch/dashboard-go/internal/selection"
)

type sessionResponse struct {
	ID string `json:"id"`
	selection.Snapshot
	LoadedAt time.Time         `json:"loaded_at"`
	Events   []selection.Event `json:"events"`
}

func (h *Handler) respondSession(w http.ResponseWriter, status int, id string, sess *dashboard.Session) {
	h.writeJSON(w, status, sessionResponse{
		ID:       id,
		Snapshot: sess.Controller.Snapshot(),
		LoadedAt: sess.Snapshot.LoadedAt,
		Events:   sess.DrainEvents(),
	})
}

// lookupSession resolves {id}, writing a 404 when it is unknown or expired.
func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (string, *dashboard.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := h.sessions.Get(id)
	if err != nil {
		h.writeError(w, http.StatusNotFound, "session_not_found", "session not found", map[string]any{"id": id})
		return "", nil, false
	}
	return id, sess, true
}

func pathName(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return name
	}
	return raw
}

// writeMutationError maps controller and boundary errors onto the error envelope.
func (h *Handler) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, selection.ErrInvalidSelection):
		h.writeError(w, http.StatusBadRequest, "invalid_selection", err.Error(), nil)
	case errors.Is(err, boundary.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "boundary_not_found", err.Error(), nil)
	case errors.Is(err, dashboard.ErrNoBoundaryAtPoint):
		h.writeError(w, http.StatusNotFound, "no_boundary", err.Error(), nil)
	default:
		h.log.Error().Err(err).Msg("session mutation failed")
		h.writeError(w, http.StatusInternalServerError, "internal", "session update failed", nil)
	}
}

// mutate decodes the request body into req, applies fn and replies with the
// updated session.
func mutate[T any](h *Handler, w http.ResponseWriter, r *http.Request, fn func(sess *dashboard.Session, req T) error) {
	id, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	var req T
	if err := decodeJSONStrict(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON body", map[string]any{"error": err.Error()})
		return
	}
	if err := fn(sess, req); err != nil {
		h.writeMutationError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, id, sess)
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	snap := h.currentSnapshot(w)
	if snap == nil {
		return
	}
	sess := dashboard.NewSession(snap, h.sessionCfg, h.log, h.metrics)
	id := h.sessions.Add(sess)
	h.log.Info().Str("session_id", id).Msg("session created")
	h.respondSession(w, http.StatusCreated, id, sess)
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.respondSession(w, http.StatusOK, id, sess)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Delete(id); err != nil {
		h.writeError(w, http.StatusNotFound, "session_not_found", "session not found", map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSessionLayer(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	body, err := sess.Controller.LayerGeoJSON()
	if err != nil {
		h.log.Error().Err(err).Msg("marshal layer failed")
		h.writeError(w, http.StatusInternalServerError, "internal", "failed to encode layer", nil)
		return
	}
	h.writeGeoJSON(w, body)
}

func (h *Handler) handleSessionBoundaries(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	body, err := sess.BoundariesGeoJSON()
	if err != nil {
		h.log.Error().Err(err).Msg("marshal session boundaries failed")
		h.writeError(w, http.StatusInternalServerError, "internal", "failed to encode boundaries", nil)
		return
	}
	h.writeGeoJSON(w, body)
}

type eventTypeRequest struct {
	EventType string `json:"event_type"`
}

func (h *Handler) handleSetEventType(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req eventTypeRequest) error {
		return sess.Controller.SetEventType(req.EventType)
	})
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}

func (h *Handler) handleSetCategories(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req categoriesRequest) error {
		return sess.Controller.SetCategories(req.Categories)
	})
}

type subdivisionsRequest struct {
	Subdivisions []string `json:"subdivisions"`
}

func (h *Handler) handleSetSubdivisions(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req subdivisionsRequest) error {
		return sess.Controller.Widget().Choose(req.Subdivisions)
	})
}

type dateRangeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (h *Handler) handleSetDateRange(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req dateRangeRequest) error {
		return sess.Controller.SetDateRange(req.From, req.To)
	})
}

type viewModeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) handleSetViewMode(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req viewModeRequest) error {
		return sess.Controller.SetViewMode(req.Mode)
	})
}

type heatRadiusRequest struct {
	Radius float64 `json:"radius"`
}

func (h *Handler) handleSetHeatRadius(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req heatRadiusRequest) error {
		return sess.Controller.SetHeatRadius(req.Radius)
	})
}

type viewRequest struct {
	Center mapview.LatLng `json:"center"`
	Zoom   int            `json:"zoom"`
}

func (h *Handler) handleSetView(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req viewRequest) error {
		sess.Controller.SetView(req.Center, req.Zoom)
		return nil
	})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	sess.Controller.Reset()
	h.respondSession(w, http.StatusOK, id, sess)
}

func (h *Handler) handleBoundaryInteraction(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	kind, err := boundary.ParseInteraction(chi.URLParam(r, "interaction"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_interaction", err.Error(), nil)
		return
	}
	if err := sess.Activate(kind, pathName(r)); err != nil {
		h.writeMutationError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, id, sess)
}

func (h *Handler) handleListClick(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	if err := sess.Controller.ListClick(pathName(r)); err != nil {
		h.writeMutationError(w, err)
		return
	}
	h.respondSession(w, http.StatusOK, id, sess)
}

type locateRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (h *Handler) handleLocate(w http.ResponseWriter, r *http.Request) {
	mutate(h, w, r, func(sess *dashboard.Session, req locateRequest) error {
		_, err := sess.Locate(req.Lat, req.Lon)
		return err
	})
}
