// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/jukebox/internal/backend"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
)

// MockBackend is a scriptable test double for [backend.Backend].
//
// With AutoAck set, transport commands are confirmed immediately with a StateChanged signal.
// Otherwise tests drive confirmations with [MockBackend.Emit].
type MockBackend struct {
	mu         sync.Mutex
	calls      []string
	state      models.PlaybackStatus
	autoAck    bool
	queryDelay time.Duration
	errs       map[string]error
	signals    chan backend.Signal
}

// NewMockBackend creates a mock backend.
func NewMockBackend(autoAck bool) *MockBackend {
	return &MockBackend{
		autoAck: autoAck,
		errs:    make(map[string]error),
		signals: make(chan backend.Signal, backend.SignalBuffer),
	}
}

// FailOn makes the named command ("set-uri", "play", "pause", "stop", "seek") return err.
func (m *MockBackend) FailOn(command string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[command] = err
}

// SetQueryDelay makes QueryState take d before answering.
func (m *MockBackend) SetQueryDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryDelay = d
}

// SetState changes the state QueryState reports.
func (m *MockBackend) SetState(s models.PlaybackStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// Emit delivers a backend signal to the engine.
func (m *MockBackend) Emit(sig backend.Signal) {
	if sig.Kind == backend.StateChanged {
		m.SetState(sig.State)
	}
	m.signals <- sig
}

// Calls returns the commands received so far.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Count returns how many times command was received.
func (m *MockBackend) Count(command string) int {
	n := 0
	for _, c := range m.Calls() {
		if c == command || len(c) > len(command) && c[:len(command)+1] == command+" " {
			n++
		}
	}
	return n
}

func (m *MockBackend) record(command, arg string, ack models.PlaybackStatus, acks bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := command
	if arg != "" {
		call = command + " " + arg
	}
	m.calls = append(m.calls, call)

	if err := m.errs[command]; err != nil {
		return err
	}
	if acks && m.autoAck {
		m.state = ack
		m.signals <- backend.Signal{Kind: backend.StateChanged, State: ack}
	}
	return nil
}

func (m *MockBackend) SetURI(_ context.Context, uri string) error {
	return m.record("set-uri", uri, 0, false)
}

func (m *MockBackend) Play(context.Context) error {
	return m.record("play", "", models.Playing, true)
}

func (m *MockBackend) Pause(context.Context) error {
	return m.record("pause", "", models.Paused, true)
}

func (m *MockBackend) Stop(context.Context) error {
	return m.record("stop", "", models.Stopped, true)
}

func (m *MockBackend) Seek(_ context.Context, offset time.Duration) error {
	return m.record("seek", offset.String(), 0, false)
}

func (m *MockBackend) QueryState(ctx context.Context) (models.PlaybackStatus, error) {
	m.mu.Lock()
	delay, state := m.queryDelay, m.state
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return models.Stopped, ctx.Err()
		}
	}
	return state, nil
}

func (m *MockBackend) Signals() <-chan backend.Signal { return m.signals }

func (m *MockBackend) Close() error { return nil }

// MemoryStore is an in-memory [playlist.Store] that can be made to fail or block.
type MemoryStore struct {
	mu      sync.Mutex
	snap    playlist.TabsSnapshot
	saves   int
	nextID  int64
	err     error
	block   chan struct{}
	plays   []string
	deleted []string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Fail makes every call return err. Pass nil to recover.
func (s *MemoryStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Block makes every call wait until the returned function is called or the context ends.
func (s *MemoryStore) Block() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.block = ch
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (s *MemoryStore) wait(ctx context.Context) error {
	s.mu.Lock()
	block, err := s.block, s.err
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (s *MemoryStore) SaveTabs(ctx context.Context, snap playlist.TabsSnapshot) (map[string]int64, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make(map[string]int64, len(snap.Tabs))
	for i := range snap.Tabs {
		if snap.Tabs[i].ID == 0 {
			s.nextID++
			snap.Tabs[i].ID = s.nextID
		}
		ids[snap.Tabs[i].Key] = snap.Tabs[i].ID
	}
	s.snap = snap
	s.saves++
	return ids, nil
}

func (s *MemoryStore) LoadTabs(ctx context.Context) (playlist.TabsSnapshot, error) {
	if err := s.wait(ctx); err != nil {
		return playlist.TabsSnapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func (s *MemoryStore) IncrementPlayCount(ctx context.Context, track models.Track) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays = append(s.plays, track.Path)
	return nil
}

func (s *MemoryStore) DeleteTab(ctx context.Context, key string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, key)
	return nil
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Snapshot returns the last saved snapshot.
func (s *MemoryStore) Snapshot() playlist.TabsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Plays returns the paths whose play counts were incremented.
func (s *MemoryStore) Plays() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.plays...)
}

// Deleted returns the keys of deleted tabs.
func (s *MemoryStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

// Tracks builds n tracks with absolute paths under /music.
func Tracks(n int) []models.Track {
	out := make([]models.Track, n)
	for i := range out {
		out[i] = models.Track{
			ID:       int64(i + 1),
			Title:    fmt.Sprintf("Track %d", i),
			Artist:   "Test Artist",
			Path:     fmt.Sprintf("/music/test/%02d track.flac", i),
			Duration: 120,
		}
	}
	return out
}

// Eventually polls cond until it holds or the timeout elapses.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string, args ...any) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf(msg, args...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

// NewLimitedWriter wraps target so that writes fail once maxWrites is reached.
func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// AssertFileExists fails the test when path does not exist.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

// MustReadFile returns the contents of path or stops the test.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
