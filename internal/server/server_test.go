package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/jukebox/internal/engine"
	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	tu "github.com/desertthunder/jukebox/internal/testing"
)

type fixture struct {
	server  *httptest.Server
	facade  *facade.Facade
	backend *tu.MockBackend
	store   *tu.MemoryStore
}

func setup(t *testing.T, tracks []models.Track, cfg shared.ServerConfig) *fixture {
	t.Helper()

	mock := tu.NewMockBackend(true)
	store := tu.NewMemoryStore()
	registry := playlist.NewRegistry(nil)
	first, _ := registry.Tab(0)
	first.Append(tracks...)

	h := hub.New(nil, 256)
	e := engine.New(mock, registry, h, nil, nil, engine.Options{})
	f := facade.New(facade.Options{
		Engine:    e,
		Hub:       h,
		Autosaver: tasks.NewAutosaver(e, store, time.Hour, nil, nil),
	})
	f.Start(context.Background())

	srv := httptest.NewServer(NewAPIRouter(f, cfg, nil))
	t.Cleanup(func() {
		srv.Close()
		_ = f.Shutdown(context.Background())
	})

	return &fixture{server: srv, facade: f, backend: mock, store: store}
}

func (fx *fixture) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, fx.server.URL+path, r)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestQueries(t *testing.T) {
	fx := setup(t, tu.Tracks(3), shared.ServerConfig{})

	t.Run("status", func(t *testing.T) {
		resp := fx.do(t, http.MethodGet, "/api/status", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status code = %d", resp.StatusCode)
		}
		if body := decode[StatusResponse](t, resp); body.Status != models.Stopped {
			t.Errorf("status = %s", body.Status)
		}
	})

	t.Run("current", func(t *testing.T) {
		body := decode[CurrentResponse](t, fx.do(t, http.MethodGet, "/api/current", ""))
		if body.Index == nil || *body.Index != 0 || body.Track == nil {
			t.Errorf("unexpected current %+v", body)
		}
	})

	t.Run("tabs", func(t *testing.T) {
		body := decode[facade.TabsView](t, fx.do(t, http.MethodGet, "/api/tabs", ""))
		if len(body.Tabs) != 1 || body.Tabs[0].Len != 3 {
			t.Errorf("unexpected tabs %+v", body)
		}
	})

	t.Run("tab tracks", func(t *testing.T) {
		body := decode[TracksResponse](t, fx.do(t, http.MethodGet, "/api/tabs/0/tracks", ""))
		if len(body.Tracks) != 3 || body.Tracks[2].Path != tu.Tracks(3)[2].Path {
			t.Errorf("unexpected tracks %+v", body)
		}
	})

	t.Run("health", func(t *testing.T) {
		if resp := fx.do(t, http.MethodGet, "/health", ""); resp.StatusCode != http.StatusOK {
			t.Errorf("status code = %d", resp.StatusCode)
		}
	})

	t.Run("request id", func(t *testing.T) {
		resp := fx.do(t, http.MethodGet, "/api/status", "")
		if resp.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id")
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		if resp := fx.do(t, http.MethodPut, "/api/status", ""); resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status code = %d", resp.StatusCode)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("play and next", func(t *testing.T) {
		fx := setup(t, tu.Tracks(3), shared.ServerConfig{})

		resp := fx.do(t, http.MethodPost, "/api/command", `{"action":"play","index":1}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status code = %d", resp.StatusCode)
		}
		tu.Eventually(t, time.Second, func() bool { return fx.facade.Status() == models.Playing }, "never playing")

		fx.do(t, http.MethodPost, "/api/command", `{"action":"next"}`)
		tu.Eventually(t, time.Second, func() bool {
			i, ok := fx.facade.CurrentIndex()
			return ok && i == 2
		}, "cursor did not advance")
	})

	t.Run("backend failure", func(t *testing.T) {
		fx := setup(t, tu.Tracks(2), shared.ServerConfig{})
		fx.backend.FailOn("play", errors.New("connection refused"))
		if resp := fx.do(t, http.MethodPost, "/api/command", `{"action":"next"}`); resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("status code = %d", resp.StatusCode)
		}
	})

	t.Run("malformed locator", func(t *testing.T) {
		fx := setup(t, []models.Track{{Path: "relative.flac"}}, shared.ServerConfig{})
		if resp := fx.do(t, http.MethodPost, "/api/command", `{"action":"play","index":0}`); resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status code = %d", resp.StatusCode)
		}
	})

	tests := []struct {
		name   string
		tracks int
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown action", 2, http.MethodPost, "/api/command", `{"action":"shuffle"}`, http.StatusBadRequest},
		{"invalid body", 2, http.MethodPost, "/api/command", `{`, http.StatusBadRequest},
		{"play out of range", 2, http.MethodPost, "/api/command", `{"action":"play","index":7}`, http.StatusNotFound},
		{"next on empty tab", 0, http.MethodPost, "/api/command", `{"action":"next"}`, http.StatusConflict},
		{"tracks of missing tab", 2, http.MethodGet, "/api/tabs/4/tracks", "", http.StatusNotFound},
		{"non-numeric tab", 2, http.MethodPost, "/api/tabs/x/view", "", http.StatusBadRequest},
		{"view missing tab", 2, http.MethodPost, "/api/tabs/3/view", "", http.StatusNotFound},
		{"view tab", 2, http.MethodPost, "/api/tabs/0/view", "", http.StatusOK},
		{"play tab", 2, http.MethodPost, "/api/tabs/0/play", "", http.StatusOK},
		{"rename", 2, http.MethodPost, "/api/tabs/0/rename", `{"name":"Morning"}`, http.StatusOK},
		{"rename empty", 2, http.MethodPost, "/api/tabs/0/rename", `{"name":""}`, http.StatusBadRequest},
		{"delete tab", 2, http.MethodDelete, "/api/tabs/0", "", http.StatusOK},
		{"delete tracks", 3, http.MethodDelete, "/api/tracks?start=0&end=2", "", http.StatusNoContent},
		{"delete tracks bad range", 3, http.MethodDelete, "/api/tracks?start=2&end=9", "", http.StatusNotFound},
		{"delete tracks missing params", 3, http.MethodDelete, "/api/tracks", "", http.StatusBadRequest},
		{"open query without library", 1, http.MethodPost, "/api/tabs", `{"artist":"x"}`, http.StatusNotImplemented},
		{"save", 1, http.MethodPost, "/api/save", "", http.StatusNoContent},
		{"artwork without track", 0, http.MethodGet, "/api/artwork", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setup(t, tu.Tracks(tt.tracks), shared.ServerConfig{})
			resp := fx.do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("status code = %d, want %d (%s)", resp.StatusCode, tt.want, body)
			}
		})
	}

	t.Run("save failure", func(t *testing.T) {
		fx := setup(t, tu.Tracks(1), shared.ServerConfig{})
		fx.store.Fail(errors.New("disk full"))
		if resp := fx.do(t, http.MethodPost, "/api/save", ""); resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status code = %d", resp.StatusCode)
		}
	})
}

func TestRateLimit(t *testing.T) {
	fx := setup(t, tu.Tracks(2), shared.ServerConfig{RateLimit: 0.001, Burst: 1})

	if resp := fx.do(t, http.MethodPost, "/api/command", `{"action":"repeat_once"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("first command: %d", resp.StatusCode)
	}
	resp := fx.do(t, http.MethodPost, "/api/command", `{"action":"repeat_once"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second command: %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	if resp := fx.do(t, http.MethodGet, "/api/status", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("reads must not be throttled: %d", resp.StatusCode)
	}
}

type sseEvent struct {
	id   string
	name string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) sseEvent {
	t.Helper()
	var ev sseEvent
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if ev.name != "" {
				return ev
			}
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEvents(t *testing.T) {
	fx := setup(t, tu.Tracks(3), shared.ServerConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, fx.server.URL+"/api/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	first := readEvent(t, r)
	if first.name != "snapshot" {
		t.Fatalf("first event = %q", first.name)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(first.data), &snap); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Tabs) != 1 || snap.Status.Status != models.Stopped {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	fx.do(t, http.MethodPost, "/api/command", `{"action":"play","index":2}`)

	seen := map[string]bool{}
	var lastSeq int
	deadline := time.After(2 * time.Second)
	for !seen[string(hub.PlaylistContentChanged)] || !seen[string(hub.PlaybackChanged)] {
		select {
		case <-deadline:
			t.Fatalf("saw only %v", seen)
		default:
		}
		ev := readEvent(t, r)
		var seq int
		fmt.Sscan(ev.id, &seq)
		if seq <= lastSeq {
			t.Errorf("sequence went backwards: %d after %d", seq, lastSeq)
		}
		lastSeq = seq
		seen[ev.name] = true

		if ev.name == string(hub.PlaylistContentChanged) {
			var body hub.Event
			if err := json.Unmarshal([]byte(ev.data), &body); err != nil {
				t.Fatalf("event: %v", err)
			}
			if body.Cursor == nil || *body.Cursor != 2 {
				t.Errorf("unexpected cursor in %s", ev.data)
			}
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{shared.ErrIndexOutOfRange, http.StatusNotFound},
		{fmt.Errorf("%w: tab 9", shared.ErrIndexOutOfRange), http.StatusNotFound},
		{shared.ErrEmptyPlaylist, http.StatusConflict},
		{shared.ErrMalformedURI, http.StatusUnprocessableEntity},
		{shared.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{shared.ErrInvalidInput, http.StatusBadRequest},
		{shared.ErrPersistenceFailure, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestRouter(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewBasicRouter()
	router.Use(mw("first"), mw("second"))
	router.Handle(http.MethodGet, "/items/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.PathValue("id")))
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items/42", nil))

	if rec.Body.String() != "42" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if strings.Join(order, ",") != "first,second" {
		t.Errorf("middleware order = %v", order)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(shared.DiscardLogger())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d", rec.Code)
	}
}
