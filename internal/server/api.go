package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/engine"
	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Controller is the part of [facade.Facade] the API needs.
type Controller interface {
	State() engine.State
	Tabs() facade.TabsView
	TabContents(index int) ([]models.Track, error)
	Command(ctx context.Context, cmd facade.Command) (models.PlaybackStatus, error)
	SetViewingTab(ctx context.Context, index int) error
	SetPlayingTab(ctx context.Context, index int) error
	RenameTab(ctx context.Context, index int, name string) error
	RemoveTab(ctx context.Context, index int) error
	RemoveTracks(ctx context.Context, start, end int) error
	OpenQuery(ctx context.Context, name string, filter models.Filter) (int, error)
	SaveNow(ctx context.Context) error
	CurrentArtwork() (facade.Artwork, error)
	Subscribe() *hub.Subscription
}

// APIHandler serves the JSON API and the event stream.
type APIHandler struct {
	ctl    Controller
	logger *log.Logger
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(ctl Controller, logger *log.Logger) *APIHandler {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	return &APIHandler{ctl: ctl, logger: shared.WithLogger(logger, "component", "api")}
}

// NewAPIRouter builds the router with the middleware stack and every API route.
func NewAPIRouter(ctl Controller, cfg shared.ServerConfig, logger *log.Logger) *BasicRouter {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	router := NewBasicRouter()
	router.Use(
		RequestID(),
		Logging(shared.WithLogger(logger, "component", "http")),
		Recover(logger),
		RateLimit(cfg.RateLimit, cfg.Burst),
	)
	NewAPIHandler(ctl, logger).Register(router)
	return router
}

// Register adds every API route to router.
func (h *APIHandler) Register(router Router) {
	router.Handle(http.MethodGet, "/health", http.HandlerFunc(h.health))
	router.Handle(http.MethodGet, "/api/status", http.HandlerFunc(h.status))
	router.Handle(http.MethodGet, "/api/current", http.HandlerFunc(h.current))
	router.Handle(http.MethodGet, "/api/tabs", http.HandlerFunc(h.tabs))
	router.Handle(http.MethodPost, "/api/tabs", http.HandlerFunc(h.openQuery))
	router.Handle(http.MethodGet, "/api/tabs/{index}/tracks", http.HandlerFunc(h.tabTracks))
	router.Handle(http.MethodPost, "/api/tabs/{index}/view", http.HandlerFunc(h.viewTab))
	router.Handle(http.MethodPost, "/api/tabs/{index}/play", http.HandlerFunc(h.playTab))
	router.Handle(http.MethodPost, "/api/tabs/{index}/rename", http.HandlerFunc(h.renameTab))
	router.Handle(http.MethodDelete, "/api/tabs/{index}", http.HandlerFunc(h.removeTab))
	router.Handle(http.MethodDelete, "/api/tracks", http.HandlerFunc(h.removeTracks))
	router.Handle(http.MethodPost, "/api/command", http.HandlerFunc(h.command))
	router.Handle(http.MethodPost, "/api/save", http.HandlerFunc(h.save))
	router.Handle(http.MethodGet, "/api/artwork", http.HandlerFunc(h.artwork))
	router.Handle(http.MethodGet, "/api/events", http.HandlerFunc(h.events))
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	Status     models.PlaybackStatus `json:"status"`
	RepeatOnce bool                  `json:"repeat_once"`
	Elapsed    float64               `json:"elapsed"`
	Duration   float64               `json:"duration"`
	Reason     string                `json:"reason,omitempty"`
}

// CurrentResponse is the body of GET /api/current.
type CurrentResponse struct {
	Tab   int           `json:"tab"`
	Index *int          `json:"index"`
	Track *models.Track `json:"track"`
}

// TracksResponse is the body of GET /api/tabs/{index}/tracks.
type TracksResponse struct {
	Tab    int            `json:"tab"`
	Tracks []models.Track `json:"tracks"`
}

// QueryRequest is the body of POST /api/tabs.
type QueryRequest struct {
	Name string `json:"name"`
	models.Filter
}

func (h *APIHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusFrom(h.ctl.State()))
}

func statusFrom(s engine.State) StatusResponse {
	return StatusResponse{
		Status:     s.Status,
		RepeatOnce: s.RepeatOnce,
		Elapsed:    s.Elapsed.Seconds(),
		Duration:   s.Duration.Seconds(),
		Reason:     s.Reason,
	}
}

func (h *APIHandler) current(w http.ResponseWriter, r *http.Request) {
	s := h.ctl.State()
	resp := CurrentResponse{Tab: s.Playing}
	if idx, ok := s.CurrentIndex(); ok {
		track, _ := s.CurrentTrack()
		resp.Index, resp.Track = &idx, &track
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) tabs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctl.Tabs())
}

func (h *APIHandler) tabTracks(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.index(w, r)
	if !ok {
		return
	}
	tracks, err := h.ctl.TabContents(idx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TracksResponse{Tab: idx, Tracks: tracks})
}

func (h *APIHandler) openQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !h.decode(w, r, &req) {
		return
	}
	idx, err := h.ctl.OpenQuery(r.Context(), req.Name, req.Filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"index": idx})
}

func (h *APIHandler) viewTab(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, h.ctl.SetViewingTab)
}

func (h *APIHandler) playTab(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, h.ctl.SetPlayingTab)
}

func (h *APIHandler) removeTab(w http.ResponseWriter, r *http.Request) {
	h.withIndex(w, r, h.ctl.RemoveTab)
}

func (h *APIHandler) renameTab(w http.ResponseWriter, r *http.Request) {
	idx, ok := h.index(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.ctl.RenameTab(r.Context(), idx, req.Name); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.Tabs())
}

func (h *APIHandler) removeTracks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err1 := strconv.Atoi(q.Get("start"))
	end, err2 := strconv.Atoi(q.Get("end"))
	if err := errors.Join(err1, err2); err != nil {
		h.fail(w, r, fmt.Errorf("%w: start and end must be integers", shared.ErrInvalidArgument))
		return
	}
	if err := h.ctl.RemoveTracks(r.Context(), start, end); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) command(w http.ResponseWriter, r *http.Request) {
	var cmd facade.Command
	if !h.decode(w, r, &cmd) {
		return
	}
	status, err := h.ctl.Command(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]models.PlaybackStatus{"status": status})
}

func (h *APIHandler) save(w http.ResponseWriter, r *http.Request) {
	if err := h.ctl.SaveNow(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) artwork(w http.ResponseWriter, r *http.Request) {
	art, err := h.ctl.CurrentArtwork()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", art.MIMEType)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(art.Data)
}

func (h *APIHandler) withIndex(w http.ResponseWriter, r *http.Request, fn func(context.Context, int) error) {
	idx, ok := h.index(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), idx); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctl.Tabs())
}

func (h *APIHandler) index(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: tab index %q", shared.ErrInvalidArgument, r.PathValue("index")))
		return 0, false
	}
	return idx, true
}

func (h *APIHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return false
	}
	return true
}

func (h *APIHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "status", code, "err", err, "request_id", RequestIDFrom(r.Context()))
	} else {
		h.logger.Debug("request rejected", "path", r.URL.Path, "status", code, "err", err)
	}
	writeError(w, code, err.Error())
}

// StatusFor maps a command error to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrIndexOutOfRange), errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shared.ErrEmptyPlaylist):
		return http.StatusConflict
	case errors.Is(err, shared.ErrMalformedURI):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shared.ErrBackendUnavailable), errors.Is(err, shared.ErrEngineStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, shared.ErrInvalidInput), errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, shared.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
