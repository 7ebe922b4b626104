package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/jukebox/internal/engine"
	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	tu "github.com/desertthunder/jukebox/internal/testing"
)

func setup(t *testing.T, tabs ...int) (*Model, *facade.Facade, *tu.MockBackend) {
	t.Helper()

	mock := tu.NewMockBackend(true)
	registry := playlist.NewRegistry(nil)
	first, _ := registry.Tab(0)
	first.Append(tu.Tracks(tabs[0])...)
	for i, n := range tabs[1:] {
		registry.Add(playlist.NewLoaded(strings.Repeat("x", i+1), tu.Tracks(n)))
	}

	h := hub.New(nil, 256)
	e := engine.New(mock, registry, h, nil, nil, engine.Options{})
	f := facade.New(facade.Options{Engine: e, Hub: h})
	f.Start(context.Background())
	t.Cleanup(func() { _ = f.Shutdown(context.Background()) })

	m := NewModel(context.Background(), f)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, f, mock
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command synchronously.
func press(t *testing.T, m *Model, msg tea.KeyMsg) Msg {
	t.Helper()
	_, cmd := m.Update(msg)
	if cmd == nil {
		t.Fatalf("key %q produced no command", msg.String())
	}
	out, ok := cmd().(Msg)
	if !ok || out.kind != MsgCommandDone {
		t.Fatalf("unexpected message %#v", out)
	}
	m.Update(out)
	return out
}

func TestModel(t *testing.T) {
	t.Run("renders tabs and tracks", func(t *testing.T) {
		m, _, _ := setup(t, 3)
		view := m.View()
		for _, want := range []string{playlist.DefaultTabName, "Track 0", "stopped"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("enter plays the selected track", func(t *testing.T) {
		m, f, mock := setup(t, 3)
		m.tracks.Select(2)
		press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

		tu.Eventually(t, time.Second, func() bool { return f.Status() == models.Playing }, "never playing")
		if i, _ := f.CurrentIndex(); i != 2 {
			t.Errorf("cursor = %d, want 2", i)
		}
		if mock.Count("play") != 1 {
			t.Errorf("unexpected calls %v", mock.Calls())
		}
	})

	t.Run("transport keys", func(t *testing.T) {
		m, f, _ := setup(t, 3)
		press(t, m, runes("n"))
		tu.Eventually(t, time.Second, func() bool {
			i, _ := f.CurrentIndex()
			return i == 1
		}, "next did not advance")

		press(t, m, runes("r"))
		if !f.State().RepeatOnce {
			t.Error("repeat flag not set")
		}

		press(t, m, tea.KeyMsg{Type: tea.KeySpace})
		tu.Eventually(t, time.Second, func() bool { return f.Status() == models.Paused }, "toggle did not pause")
	})

	t.Run("enter on another tab switches the playing tab", func(t *testing.T) {
		m, f, _ := setup(t, 2, 4)
		press(t, m, tea.KeyMsg{Type: tea.KeyTab})
		m.refresh(true)
		if m.state.Viewing != 1 || len(m.tracks.Items()) != 4 {
			t.Fatalf("viewing = %d with %d items", m.state.Viewing, len(m.tracks.Items()))
		}

		press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		if s := f.State(); s.Playing != 1 {
			t.Errorf("playing tab = %d, want 1", s.Playing)
		}
	})

	t.Run("errors become notices", func(t *testing.T) {
		m, _, _ := setup(t, 0)
		out := press(t, m, runes("n"))
		if m.notice == "" || !strings.Contains(m.View(), "next") {
			t.Errorf("notice not shown for %#v", out)
		}
	})

	t.Run("events refresh state", func(t *testing.T) {
		m, f, _ := setup(t, 2)
		cmd := m.Init()
		if _, err := f.Command(context.Background(), facade.Command{Action: facade.ActionNext}); err != nil {
			t.Fatalf("next: %v", err)
		}
		msg := cmd().(Msg)
		if msg.kind != MsgEvent {
			t.Fatalf("kind = %d", msg.kind)
		}
		m.Update(msg)
		if i, _ := m.state.CurrentIndex(); i != 1 {
			t.Errorf("state not refreshed: cursor %d", i)
		}
	})

	t.Run("quit closes the subscription", func(t *testing.T) {
		m, _, _ := setup(t, 1)
		_, cmd := m.Update(runes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := <-m.sub.Events; ok {
			t.Error("subscription still open")
		}
	})
}
