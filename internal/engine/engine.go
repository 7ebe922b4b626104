package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/jukebox/internal/backend"
	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Publisher receives engine events.
type Publisher interface {
	Publish(ev hub.Event)
}

// TabDeleter removes the persisted rows of closed tabs without blocking.
type TabDeleter interface {
	DeleteTab(key string)
}

// Options tunes the engine.
type Options struct {
	QueryTimeout time.Duration // bound on backend state queries (default: 10ms)
	AckTimeout   time.Duration // wait for a transport confirmation (default: 2s)
	MailboxSize  int           // queued commands before callers wait (default: 64)
}

// OptionsFromConfig reads engine options from configuration.
func OptionsFromConfig(cfg shared.EngineConfig) Options {
	return Options{QueryTimeout: cfg.QueryTimeout(), AckTimeout: cfg.AckTimeout()}
}

func (o Options) withDefaults() Options {
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 10 * time.Millisecond
	}
	if o.AckTimeout <= 0 {
		o.AckTimeout = 2 * time.Second
	}
	if o.MailboxSize <= 0 {
		o.MailboxSize = 64
	}
	return o
}

type result struct {
	value any
	err   error
}

type command struct {
	name      string
	transport bool
	fn        func() (any, error)
	reply     chan result
}

// transition is a transport command waiting for backend confirmation.
type transition struct {
	name   string
	target models.PlaybackStatus
	timer  *time.Timer
	then   func()
}

// Engine serializes commands and backend signals onto one goroutine.
type Engine struct {
	backend  backend.Backend
	events   Publisher
	deleter  TabDeleter
	logger   *log.Logger
	opts     Options

	cmds    chan command
	stop    chan struct{}
	stopped chan struct{}
	once    sync.Once
	ctx     context.Context

	// owned by the run goroutine
	registry   *playlist.Registry
	status     models.PlaybackStatus
	repeatOnce bool
	loadedURI  string
	elapsed    time.Duration
	duration   time.Duration
	reason     string
	pending    *transition
	deferred   []command
	dirty      bool

	mu    sync.RWMutex
	state State
}

// New creates an engine driving registry. events and deleter may be nil.
func New(b backend.Backend, registry *playlist.Registry, events Publisher, deleter TabDeleter, logger *log.Logger, opts Options) *Engine {
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if events == nil {
		events = discard{}
	}
	opts = opts.withDefaults()

	e := &Engine{
		backend:  b,
		events:   events,
		deleter:  deleter,
		logger:   shared.WithLogger(logger, "component", "engine"),
		opts:     opts,
		cmds:     make(chan command, opts.MailboxSize),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
		registry: registry,
		status:   models.Stopped,
		dirty:    true,
	}
	e.publishState()
	return e
}

// Start runs the engine until ctx is done or [Engine.Close] is called.
func (e *Engine) Start(ctx context.Context) {
	e.ctx = ctx
	go e.run(ctx)
}

// Close stops the engine and waits for its goroutine to exit.
func (e *Engine) Close() {
	e.once.Do(func() { close(e.stop) })
	<-e.stopped
}

// Done is closed once the engine goroutine has exited.
func (e *Engine) Done() <-chan struct{} {
	return e.stopped
}

// State returns the last published state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.stopped)

	signals := e.backend.Signals()
	e.logger.Info("engine started")

	for {
		var ackC <-chan time.Time
		if e.pending != nil {
			ackC = e.pending.timer.C
		}

		select {
		case <-ctx.Done():
			e.shutdown()
			return
		case <-e.stop:
			e.shutdown()
			return
		case cmd := <-e.cmds:
			e.handle(cmd)
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				e.fail(fmt.Errorf("%w: signal channel closed", shared.ErrBackendUnavailable))
				continue
			}
			e.handleSignal(sig)
		case <-ackC:
			e.ackTimedOut()
		}
		e.publishState()
	}
}

func (e *Engine) shutdown() {
	if e.pending != nil {
		e.pending.timer.Stop()
	}
	for _, cmd := range e.deferred {
		cmd.respond(nil, shared.ErrEngineStopped)
	}
	e.deferred = nil
	e.logger.Info("engine stopped")
}

// handle runs cmd now or, for transport commands during a pending transition, queues it.
func (e *Engine) handle(cmd command) {
	if cmd.transport && e.pending != nil {
		e.logger.Debug("deferring command", "cmd", cmd.name, "pending", e.pending.name)
		e.deferred = append(e.deferred, cmd)
		return
	}
	v, err := cmd.fn()
	e.publishState()
	cmd.respond(v, err)
}

func (c command) respond(v any, err error) {
	if c.reply != nil {
		c.reply <- result{value: v, err: err}
	}
}

// drain applies deferred commands until one starts a new transition.
func (e *Engine) drain() {
	for e.pending == nil && len(e.deferred) > 0 {
		cmd := e.deferred[0]
		e.deferred = e.deferred[1:]
		e.handle(cmd)
	}
}

// await marks a transport transition as in flight.
func (e *Engine) await(name string, target models.PlaybackStatus, then func()) {
	e.pending = &transition{name: name, target: target, timer: time.NewTimer(e.opts.AckTimeout), then: then}
}

// settle ends the pending transition, runs its continuation and resumes deferred commands.
func (e *Engine) settle(runThen bool) {
	p := e.pending
	if p == nil {
		return
	}
	p.timer.Stop()
	e.pending = nil

	if runThen && p.then != nil {
		p.then()
	}
	e.drain()
}

func (e *Engine) ackTimedOut() {
	e.logger.Warn("backend did not confirm transition", "transition", e.pending.name, "timeout", e.opts.AckTimeout)
	e.settle(true)
}

// call enqueues fn and waits for its own result.
func call[T any](ctx context.Context, e *Engine, name string, transport bool, fn func() (T, error)) (T, error) {
	var zero T
	cmd := command{
		name:      name,
		transport: transport,
		reply:     make(chan result, 1),
		fn: func() (any, error) {
			return fn()
		},
	}

	select {
	case e.cmds <- cmd:
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %s: %v", shared.ErrTimeout, name, ctx.Err())
	case <-e.stopped:
		return zero, shared.ErrEngineStopped
	}

	select {
	case r := <-cmd.reply:
		if r.err != nil {
			return zero, r.err
		}
		v, _ := r.value.(T)
		return v, nil
	case <-ctx.Done():
		return zero, fmt.Errorf("%w: %s: %v", shared.ErrTimeout, name, ctx.Err())
	case <-e.stopped:
		return zero, shared.ErrEngineStopped
	}
}

// backendCtx bounds a single backend command.
func (e *Engine) backendCtx() (context.Context, context.CancelFunc) {
	parent := e.ctx
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, e.opts.AckTimeout)
}

func (e *Engine) handleSignal(sig backend.Signal) {
	switch sig.Kind {
	case backend.StateChanged:
		e.stateChanged(sig.State)
	case backend.Position:
		e.elapsed, e.duration = sig.Elapsed, sig.Duration
		e.publishState()
		e.events.Publish(hub.Position(e.status, sig.Elapsed, sig.Duration))
	case backend.EndOfStream:
		if sig.URI != "" && e.loadedURI != "" && sig.URI != e.loadedURI {
			e.logger.Debug("ignoring stale end of stream", "uri", sig.URI)
			return
		}
		if e.pending != nil {
			e.deferred = append(e.deferred, command{name: "end-of-stream", transport: true, fn: func() (any, error) {
				e.endOfStream()
				return nil, nil
			}})
			return
		}
		e.endOfStream()
	case backend.Failure:
		e.fail(sig.Err)
	}
}

func (e *Engine) stateChanged(state models.PlaybackStatus) {
	changed := state != e.status
	e.status = state
	if state == models.Playing {
		e.reason = ""
	}
	if !state.IsActive() {
		e.elapsed = 0
	}
	if changed {
		e.logger.Debug("status changed", "status", state)
		e.publishPlayback("")
	}

	if e.pending != nil && e.pending.target == state {
		e.settle(true)
	}
}

// fail forces Stopped after a backend error. The failed URI is not retried.
func (e *Engine) fail(err error) {
	if err == nil {
		err = shared.ErrBackendUnavailable
	}
	e.logger.Error("backend failure", "uri", e.loadedURI, "err", err)

	e.status = models.Stopped
	e.elapsed = 0
	e.reason = err.Error()
	e.publishPlayback(e.reason)
	e.settle(false)
}

func (e *Engine) publishPlayback(reason string) {
	tab := e.registry.Playing()
	var cursor *int
	var track *models.Track
	if c, ok := e.registry.PlayingTab().Cursor(); ok {
		cursor = &c
		if t, err := e.registry.CurrentTrack(); err == nil {
			track = &t
		}
	}
	e.publishState()
	e.events.Publish(hub.Playback(e.status, tab, cursor, track, reason))
}

func (e *Engine) publishTabs() {
	e.dirty = true
	e.publishState()
	e.events.Publish(hub.Tabs(e.registry.Viewing(), e.registry.Playing()))
}

func (e *Engine) publishContent(tab int) {
	e.dirty = true
	var cursor *int
	if t, err := e.registry.Tab(tab); err == nil {
		if c, ok := t.Cursor(); ok {
			cursor = &c
		}
	}
	e.publishState()
	e.events.Publish(hub.Content(tab, cursor))
}

// publishState refreshes the copy returned by [Engine.State].
func (e *Engine) publishState() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dirty {
		snap := e.registry.Snapshot()
		e.state.Tabs = tabsFrom(snap)
		e.state.Viewing = snap.Viewing
		e.state.Playing = snap.Playing
		e.dirty = false
	}
	e.state.Status = e.status
	e.state.RepeatOnce = e.repeatOnce
	e.state.Elapsed = e.elapsed
	e.state.Duration = e.duration
	e.state.Reason = e.reason
}

type discard struct{}

func (discard) Publish(hub.Event) {}

// backendError tags plain backend errors as unavailability.
func backendError(op string, err error) error {
	if errors.Is(err, shared.ErrMalformedURI) || errors.Is(err, shared.ErrBackendUnavailable) ||
		errors.Is(err, shared.ErrInvalidArgument) || errors.Is(err, shared.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrBackendUnavailable, op, err)
}
