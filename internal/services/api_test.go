package services

import (
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
	"github.com/desertthunder/jukebox/internal/server"
	"github.com/desertthunder/jukebox/internal/shared"
	tu "github.com/desertthunder/jukebox/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com/", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != "http://localhost:8080" {
				t.Errorf("expected default baseURL 'http://localhost:8080', got %s", srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("JSON Response", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/health" {
					t.Errorf("expected path '/health', got %s", r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
			}))
			defer ts.Close()

			resp, err := NewAPIService(ts.URL, nil).Get(context.Background(), "/health")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !resp.OK() || !resp.IsJSON {
				t.Errorf("expected OK JSON response, got %d (json=%v)", resp.StatusCode, resp.IsJSON)
			}
			data, ok := resp.JSONData.(map[string]any)
			if !ok || data["status"] != "ok" {
				t.Errorf("unexpected JSON data: %v", resp.JSONData)
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "plain text")
			}))
			defer ts.Close()

			resp, err := NewAPIService(ts.URL, nil).Get(context.Background(), "/")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if resp.IsJSON {
				t.Error("expected IsJSON to be false")
			}
			if string(resp.Body) != "plain text" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("Unreachable Server", func(t *testing.T) {
			ts := httptest.NewServer(http.NotFoundHandler())
			url := ts.URL
			ts.Close()

			if _, err := NewAPIService(url, nil).Get(context.Background(), "/"); err == nil {
				t.Error("expected error for closed server")
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			body, _ := io.ReadAll(r.Body)
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer ts.Close()

		resp, err := NewAPIService(ts.URL, nil).Post(context.Background(), "/echo", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected 201, got %d", resp.StatusCode)
		}
		if string(resp.Body) != `{"a":1}` {
			t.Errorf("unexpected echo %q", resp.Body)
		}
	})

	t.Run("Error Responses", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(map[string]string{"error": "playlist is empty"})
		}))
		defer ts.Close()

		_, err := NewAPIService(ts.URL, nil).Status(context.Background())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}
		if !strings.Contains(err.Error(), "playlist is empty") || !strings.Contains(err.Error(), "409") {
			t.Errorf("expected server message and status in error, got %v", err)
		}
	})
}

func TestWatch(t *testing.T) {
	t.Run("Parses Frames", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "text/event-stream" {
				t.Errorf("expected event-stream Accept header")
			}
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, "event: snapshot\ndata: {\"viewing\":0}\n\n")
			fmt.Fprint(w, ": keep-alive\n\n")
			fmt.Fprint(w, "id: 1\nevent: playback\ndata: {\"status\":\"playing\"}\n\n")
		}))
		defer ts.Close()

		var got []Event
		err := NewAPIService(ts.URL, nil).Watch(context.Background(), func(ev Event) error {
			got = append(got, ev)
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 events, got %d: %+v", len(got), got)
		}
		if got[0].Name != "snapshot" || got[0].ID != "" {
			t.Errorf("unexpected first event %+v", got[0])
		}
		if got[1].Name != "playback" || got[1].ID != "1" || string(got[1].Data) != `{"status":"playing"}` {
			t.Errorf("unexpected second event %+v", got[1])
		}
	})

	t.Run("Callback Error Stops", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "event: a\ndata: {}\n\nevent: b\ndata: {}\n\n")
		}))
		defer ts.Close()

		stop := errors.New("stop")
		calls := 0
		err := NewAPIService(ts.URL, nil).Watch(context.Background(), func(Event) error {
			calls++
			return stop
		})
		if !errors.Is(err, stop) || calls != 1 {
			t.Errorf("expected stop after one call, got err=%v calls=%d", err, calls)
		}
	})

	t.Run("Bad Status", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		defer ts.Close()

		err := NewAPIService(ts.URL, nil).Watch(context.Background(), func(Event) error { return nil })
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

// TestAgainstServer drives a real API router through the client.
func TestAgainstServer(t *testing.T) {
	registry := playlist.NewRegistry(nil)
	first, _ := registry.Tab(0)
	first.Append(tu.Tracks(3)...)

	h := hub.New(nil, 256)
	e := engine.New(tu.NewMockBackend(true), registry, h, nil, nil, engine.Options{})
	f := facade.New(facade.Options{Engine: e, Hub: h})
	f.Start(context.Background())

	ts := httptest.NewServer(server.NewAPIRouter(f, shared.ServerConfig{}, nil))
	t.Cleanup(func() {
		ts.Close()
		_ = f.Shutdown(context.Background())
	})

	client := NewAPIService(ts.URL, nil)
	ctx := context.Background()

	t.Run("Command and Status", func(t *testing.T) {
		idx := 1
		if _, err := client.Command(ctx, facade.Command{Action: facade.ActionPlay, Index: &idx}); err != nil {
			t.Fatalf("Command: %v", err)
		}

		tu.Eventually(t, time.Second, func() bool {
			s, err := client.Status(ctx)
			return err == nil && s.Status == models.Playing
		}, "remote status never reported playing")

		cur, err := client.Current(ctx)
		if err != nil {
			t.Fatalf("Current: %v", err)
		}
		if cur.Index == nil || *cur.Index != 1 || cur.Track == nil {
			t.Errorf("expected current index 1 with a track, got %+v", cur)
		}
	})

	t.Run("Tabs", func(t *testing.T) {
		view, err := client.Tabs(ctx)
		if err != nil {
			t.Fatalf("Tabs: %v", err)
		}
		if len(view.Tabs) != 1 || view.Tabs[0].Len != 3 {
			t.Errorf("unexpected tabs %+v", view)
		}
	})

	t.Run("Invalid Command", func(t *testing.T) {
		_, err := client.Command(ctx, facade.Command{Action: "rewind"})
		if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "400") {
			t.Errorf("expected 400 api error, got %v", err)
		}
	})

	t.Run("Watch Receives Snapshot", func(t *testing.T) {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		done := errors.New("done")
		err := client.Watch(wctx, func(ev Event) error {
			if ev.Name != "snapshot" {
				t.Errorf("expected snapshot first, got %q", ev.Name)
			}
			return done
		})
		if !errors.Is(err, done) {
			t.Errorf("expected callback to end the watch, got %v", err)
		}
	})
}
