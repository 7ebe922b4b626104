package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// SignalKind classifies asynchronous backend notifications.
type SignalKind int

const (
	StateChanged SignalKind = iota // playback state transition
	Position                       // periodic elapsed-time sample
	EndOfStream                    // the current URI finished on its own
	Failure                        // the backend could not play
)

func (k SignalKind) String() string {
	switch k {
	case StateChanged:
		return "state"
	case Position:
		return "position"
	case EndOfStream:
		return "end-of-stream"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Signal is one asynchronous notification from a backend.
type Signal struct {
	Kind     SignalKind
	State    models.PlaybackStatus
	Elapsed  time.Duration
	Duration time.Duration
	URI      string
	Err      error
}

// Backend is a media player that accepts transport commands.
//
// Commands return once the backend accepted them; confirmation arrives later as a
// [StateChanged] signal.
type Backend interface {
	SetURI(ctx context.Context, uri string) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	// Seek moves to an absolute offset in the current track.
	Seek(ctx context.Context, offset time.Duration) error
	// QueryState asks the backend for its authoritative state.
	QueryState(ctx context.Context) (models.PlaybackStatus, error)
	Signals() <-chan Signal
	Close() error
}

// SignalBuffer sizes the signal channel of every backend.
const SignalBuffer = 64

// emitter delivers signals without blocking the producer.
//
// Position samples are dropped when the consumer lags; every other kind waits until
// the consumer catches up or the backend closes.
type emitter struct {
	ch   chan Signal
	done chan struct{}
}

func newEmitter() emitter {
	return emitter{ch: make(chan Signal, SignalBuffer), done: make(chan struct{})}
}

func (e emitter) emit(s Signal) {
	if s.Kind == Position {
		select {
		case e.ch <- s:
		default:
		}
		return
	}
	select {
	case e.ch <- s:
	case <-e.done:
	}
}

// New builds the backend selected by cfg.Kind.
func New(cfg shared.BackendConfig, logger *log.Logger, lengthOf LengthFunc) (Backend, error) {
	switch cfg.Kind {
	case "", "simulated":
		return NewSimulated(logger, cfg.PollInterval(), lengthOf), nil
	case "mpd":
		return NewMPD(cfg, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend kind %q", shared.ErrInvalidConfig, cfg.Kind)
	}
}
