package backend

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fhs/gompd/v2/mpd"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// MPD drives a Music Player Daemon.
//
// The daemon queue holds exactly the track set by [MPD.SetURI]. Commands use short-lived
// connections; state changes come from an idle watcher on the "player" subsystem and
// elapsed time from a poller that runs while the daemon is playing.
type MPD struct {
	network  string
	addr     string
	password string
	poll     time.Duration
	logger   *log.Logger

	mu         sync.Mutex
	last       models.PlaybackStatus
	uri        string
	expectStop bool

	watcher   *mpd.Watcher
	out       emitter
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewMPD connects to the daemon described by cfg and starts watching it.
func NewMPD(cfg shared.BackendConfig, logger *log.Logger) (*MPD, error) {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	m := &MPD{
		network:  cfg.Network,
		addr:     cfg.Address,
		password: cfg.Password,
		poll:     cfg.PollInterval(),
		logger:   shared.WithLogger(logger, "component", "mpd", "addr", cfg.Address),
		out:      newEmitter(),
	}

	if err := m.do(func(c *mpd.Client) error { return c.Ping() }); err != nil {
		return nil, err
	}

	w, err := mpd.NewWatcher(m.network, m.addr, m.password, "player")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to watch %s: %v", shared.ErrBackendUnavailable, m.addr, err)
	}
	m.watcher = w

	m.wg.Add(2)
	go m.watch()
	go m.pollPosition()

	m.logger.Info("connected to mpd")
	return m, nil
}

func (m *MPD) dial() (*mpd.Client, error) {
	if m.password != "" {
		return mpd.DialAuthenticated(m.network, m.addr, m.password)
	}
	return mpd.Dial(m.network, m.addr)
}

// do runs fn on a fresh connection.
func (m *MPD) do(fn func(c *mpd.Client) error) error {
	c, err := m.dial()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrBackendUnavailable, err)
	}
	defer c.Close()

	return fn(c)
}

// doContext runs fn on a fresh connection, giving up when ctx is done.
func (m *MPD) doContext(ctx context.Context, fn func(c *mpd.Client) error) error {
	done := make(chan error, 1)
	go func() { done <- m.do(fn) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", shared.ErrTimeout, ctx.Err())
	}
}

// SetURI replaces the daemon queue with uri.
func (m *MPD) SetURI(ctx context.Context, uri string) error {
	m.mu.Lock()
	m.uri = uri
	if m.last.IsActive() {
		m.expectStop = true
	}
	m.mu.Unlock()

	return m.doContext(ctx, func(c *mpd.Client) error {
		if err := c.Clear(); err != nil {
			return err
		}
		if err := c.Add(uri); err != nil {
			return fmt.Errorf("%w: mpd rejected %s: %v", shared.ErrMalformedURI, uri, err)
		}
		return nil
	})
}

// Play resumes a paused track or starts the queued one.
func (m *MPD) Play(ctx context.Context) error {
	return m.doContext(ctx, func(c *mpd.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		if status["state"] == "pause" {
			return c.Pause(false)
		}
		return c.Play(0)
	})
}

func (m *MPD) Pause(ctx context.Context) error {
	return m.doContext(ctx, func(c *mpd.Client) error { return c.Pause(true) })
}

func (m *MPD) Stop(ctx context.Context) error {
	m.mu.Lock()
	m.expectStop = true
	m.mu.Unlock()

	return m.doContext(ctx, func(c *mpd.Client) error { return c.Stop() })
}

func (m *MPD) Seek(ctx context.Context, offset time.Duration) error {
	return m.doContext(ctx, func(c *mpd.Client) error { return c.SeekCur(offset, false) })
}

func (m *MPD) QueryState(ctx context.Context) (models.PlaybackStatus, error) {
	var state models.PlaybackStatus
	err := m.doContext(ctx, func(c *mpd.Client) error {
		status, err := c.Status()
		if err != nil {
			return err
		}
		state = parseState(status["state"])
		return nil
	})
	return state, err
}

func (m *MPD) Signals() <-chan Signal {
	return m.out.ch
}

func (m *MPD) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.out.done)
		err = m.watcher.Close()
		m.wg.Wait()
	})
	return err
}

func (m *MPD) watch() {
	defer m.wg.Done()

	for {
		select {
		case <-m.out.done:
			return
		case err, ok := <-m.watcher.Error:
			if !ok {
				return
			}
			m.logger.Warn("watcher error", "err", err)
		case subsystem, ok := <-m.watcher.Event:
			if !ok {
				m.out.emit(Signal{Kind: Failure, Err: fmt.Errorf("%w: watcher closed", shared.ErrBackendUnavailable)})
				return
			}
			m.logger.Debug("idle event", "subsystem", subsystem)
			m.refresh()
		}
	}
}

// refresh reads the daemon status after an idle event and translates it to signals.
func (m *MPD) refresh() {
	var status mpd.Attrs
	err := m.do(func(c *mpd.Client) error {
		var err error
		status, err = c.Status()
		return err
	})
	if err != nil {
		m.out.emit(Signal{Kind: Failure, Err: err})
		return
	}

	for _, sig := range m.translate(status) {
		m.out.emit(sig)
	}
}

func (m *MPD) translate(status mpd.Attrs) []Signal {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := parseState(status["state"])
	prev := m.last
	m.last = state

	if msg := status["error"]; msg != "" {
		m.expectStop = false
		return []Signal{{Kind: Failure, URI: m.uri, Err: fmt.Errorf("%w: %s", shared.ErrBackendUnavailable, msg)}}
	}

	if state == models.Stopped && prev == models.Playing && !m.expectStop {
		return []Signal{{Kind: EndOfStream, URI: m.uri, Duration: parseSeconds(status["duration"])}}
	}
	if state == models.Stopped {
		m.expectStop = false
	}
	return []Signal{{Kind: StateChanged, State: state, URI: m.uri}}
}

func (m *MPD) pollPosition() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-m.out.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			playing := m.last == models.Playing
			m.mu.Unlock()
			if !playing {
				continue
			}

			var status mpd.Attrs
			err := m.do(func(c *mpd.Client) error {
				var err error
				status, err = c.Status()
				return err
			})
			if err != nil {
				m.logger.Warn("position poll failed", "err", err)
				continue
			}
			if parseState(status["state"]) != models.Playing {
				continue
			}
			m.out.emit(Signal{
				Kind:     Position,
				Elapsed:  parseSeconds(status["elapsed"]),
				Duration: parseSeconds(status["duration"]),
			})
		}
	}
}

func parseState(s string) models.PlaybackStatus {
	switch s {
	case "play":
		return models.Playing
	case "pause":
		return models.Paused
	default:
		return models.Stopped
	}
}

// parseSeconds reads the fractional seconds mpd reports for elapsed and duration.
func parseSeconds(s string) time.Duration {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
