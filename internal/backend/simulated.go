package backend

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// DefaultTrackLength is used when a [LengthFunc] cannot resolve a URI.
const DefaultTrackLength = 3 * time.Minute

// LengthFunc resolves the playing time of a URI.
type LengthFunc func(uri string) time.Duration

// Simulated is an in-memory backend that advances a clock while playing.
//
// It confirms every transport command with a [StateChanged] signal, emits a [Position]
// sample on every tick and an [EndOfStream] once the elapsed time reaches the track length.
type Simulated struct {
	mu       sync.Mutex
	state    models.PlaybackStatus
	uri      string
	elapsed  time.Duration
	duration time.Duration

	interval time.Duration
	lengthOf LengthFunc
	logger   *log.Logger

	queue     []Signal
	wake      chan struct{}
	out       emitter
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewSimulated starts a simulated backend ticking every interval.
func NewSimulated(logger *log.Logger, interval time.Duration, lengthOf LengthFunc) *Simulated {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if lengthOf == nil {
		lengthOf = func(string) time.Duration { return DefaultTrackLength }
	}

	s := &Simulated{
		interval: interval,
		lengthOf: lengthOf,
		logger:   shared.WithLogger(logger, "component", "simulated"),
		wake:     make(chan struct{}, 1),
		out:      newEmitter(),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

func (s *Simulated) SetURI(_ context.Context, uri string) error {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return fmt.Errorf("%w: %q", shared.ErrMalformedURI, uri)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uri = uri
	s.elapsed = 0
	s.duration = s.lengthOf(uri)
	if s.duration <= 0 {
		s.duration = DefaultTrackLength
	}
	s.logger.Debug("uri set", "uri", uri, "duration", s.duration)
	return nil
}

func (s *Simulated) Play(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uri == "" {
		return fmt.Errorf("%w: no uri set", shared.ErrInvalidInput)
	}
	s.state = models.Playing
	s.push(Signal{Kind: StateChanged, State: models.Playing, URI: s.uri})
	return nil
}

func (s *Simulated) Pause(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.Playing {
		s.state = models.Paused
	}
	s.push(Signal{Kind: StateChanged, State: s.state, URI: s.uri})
	return nil
}

func (s *Simulated) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = models.Stopped
	s.elapsed = 0
	s.push(Signal{Kind: StateChanged, State: models.Stopped, URI: s.uri})
	return nil
}

func (s *Simulated) Seek(_ context.Context, offset time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.uri == "" {
		return fmt.Errorf("%w: no uri set", shared.ErrInvalidInput)
	}
	if offset < 0 || offset > s.duration {
		return fmt.Errorf("%w: seek to %s outside [0, %s]", shared.ErrInvalidArgument, offset, s.duration)
	}
	s.elapsed = offset
	return nil
}

func (s *Simulated) QueryState(context.Context) (models.PlaybackStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Simulated) Signals() <-chan Signal {
	return s.out.ch
}

// Close stops the clock. Pending signals are discarded.
func (s *Simulated) Close() error {
	s.closeOnce.Do(func() {
		close(s.out.done)
		s.wg.Wait()
	})
	return nil
}

func (s *Simulated) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.out.done:
			return
		case <-s.wake:
			s.flush()
		case <-ticker.C:
			s.tick()
			s.flush()
		}
	}
}

// push queues a signal in command order. Callers hold mu.
func (s *Simulated) push(sig Signal) {
	s.queue = append(s.queue, sig)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Simulated) flush() {
	s.mu.Lock()
	queued := s.queue
	s.queue = nil
	s.mu.Unlock()

	for _, sig := range queued {
		s.out.emit(sig)
	}
}

func (s *Simulated) tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.Playing {
		return
	}

	s.elapsed += s.interval
	if s.elapsed >= s.duration {
		s.state = models.Stopped
		s.elapsed = 0
		s.push(Signal{Kind: EndOfStream, URI: s.uri, Duration: s.duration})
		return
	}
	s.push(Signal{Kind: Position, URI: s.uri, Elapsed: s.elapsed, Duration: s.duration})
}
