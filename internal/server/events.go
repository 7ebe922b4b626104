package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/jukebox/internal/engine"
)

// KeepAlive is the interval between comment lines on an idle event stream.
var KeepAlive = 15 * time.Second

// Snapshot is the first event of every stream so a mirror can sync before deltas arrive.
type Snapshot struct {
	Status  StatusResponse  `json:"status"`
	Current CurrentResponse `json:"current"`
	Viewing int             `json:"viewing"`
	Playing int             `json:"playing"`
	Tabs    []engine.Tab    `json:"tabs"`
}

// events streams hub events as Server-Sent Events until the client leaves or is dropped.
func (h *APIHandler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sub := h.ctl.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	s := h.ctl.State()
	snap := Snapshot{Status: statusFrom(s), Viewing: s.Viewing, Playing: s.Playing, Tabs: s.Tabs}
	snap.Current.Tab = s.Playing
	if idx, ok := s.CurrentIndex(); ok {
		track, _ := s.CurrentTrack()
		snap.Current.Index, snap.Current.Track = &idx, &track
	}
	if err := writeEvent(w, "", "snapshot", snap); err != nil {
		return
	}
	flusher.Flush()

	logger := h.logger.With("subscriber", sub.ID, "request_id", RequestIDFrom(r.Context()))
	logger.Debug("event stream opened")

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			logger.Debug("event stream closed by client")
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-sub.Events:
			if !ok {
				logger.Warn("event stream dropped")
				_ = writeEvent(w, "", "dropped", map[string]string{"reason": "subscriber fell behind"})
				flusher.Flush()
				return
			}
			if err := writeEvent(w, fmt.Sprint(ev.Seq), string(ev.Kind), ev); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, id, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if id != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", id); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
