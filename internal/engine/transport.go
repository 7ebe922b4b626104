package engine

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/jukebox/internal/hub"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Transport handlers run on the engine goroutine with no transition pending.

// start loads uri and plays it. Status changes once the backend confirms.
func (e *Engine) start(uri string) error {
	ctx, cancel := e.backendCtx()
	defer cancel()

	if err := e.backend.SetURI(ctx, uri); err != nil {
		return e.rejected("set-uri", err)
	}
	e.loadedURI = uri
	e.elapsed = 0

	if err := e.backend.Play(ctx); err != nil {
		return e.rejected("play", err)
	}
	e.await("play", models.Playing, nil)
	return nil
}

// halt stops the backend and runs then once the stop is confirmed.
func (e *Engine) halt(then func()) error {
	ctx, cancel := e.backendCtx()
	defer cancel()

	if err := e.backend.Stop(ctx); err != nil {
		return e.rejected("stop", err)
	}
	e.await("stop", models.Stopped, then)
	return nil
}

// rejected reports a backend command error to observers and returns it to the caller.
//
// An unavailable backend forces Stopped; a malformed URI only aborts this attempt.
func (e *Engine) rejected(op string, err error) error {
	err = backendError(op, err)
	e.logger.Error("backend rejected command", "op", op, "uri", e.loadedURI, "err", err)
	e.reason = err.Error()
	if errors.Is(err, shared.ErrBackendUnavailable) {
		e.status = models.Stopped
		e.elapsed = 0
		e.settle(false)
		e.publishPlayback(e.reason)
	} else {
		e.publishState()
	}
	e.events.Publish(hub.Message(e.reason))
	return err
}

// endPlayback forces Stopped and stops the backend.
func (e *Engine) endPlayback(reason string) {
	e.status = models.Stopped
	e.elapsed = 0
	e.reason = reason
	if err := e.halt(nil); err != nil {
		e.logger.Warn("stop failed", "err", err)
	}
	e.publishPlayback(reason)
}

func (e *Engine) play(index int) error {
	tab := e.registry.Playing()
	uri, err := e.registry.PlayingTab().JumpTo(index)
	if err != nil {
		return err
	}
	e.publishContent(tab)
	return e.start(uri)
}

func (e *Engine) step(dir models.Direction) error {
	tab := e.registry.Playing()
	p := e.registry.PlayingTab()
	if p.Len() == 0 {
		return shared.ErrEmptyPlaylist
	}

	if e.status != models.Playing {
		uri, err := p.Advance(dir)
		e.publishContent(tab)
		if err != nil {
			return err
		}
		return e.start(uri)
	}

	var uri string
	if err := e.halt(func() {
		if err := e.start(uri); err != nil {
			e.logger.Error("could not start next track", "dir", dir, "err", err)
		}
	}); err != nil {
		return err
	}

	uri, err := p.Advance(dir)
	e.publishContent(tab)
	if err != nil {
		e.pending.then = nil
		return err
	}
	return nil
}

// toggle pauses when the backend reports Playing and plays otherwise.
//
// The backend is asked for its state with a short bound; no answer counts as not playing.
func (e *Engine) toggle() (models.PlaybackStatus, error) {
	parent := e.ctx
	if parent == nil {
		parent = context.Background()
	}
	qctx, cancel := context.WithTimeout(parent, e.opts.QueryTimeout)
	state, err := e.backend.QueryState(qctx)
	cancel()
	if err != nil {
		e.logger.Debug("state query failed, assuming not playing", "err", err, "timeout", e.opts.QueryTimeout)
		state = models.Stopped
		if e.status == models.Paused {
			state = models.Paused
		}
	}

	ctx, cancelCmd := e.backendCtx()
	defer cancelCmd()

	switch state {
	case models.Playing:
		if err := e.backend.Pause(ctx); err != nil {
			return e.status, e.rejected("pause", err)
		}
		e.status = models.Paused
		e.await("pause", models.Paused, nil)
	case models.Paused:
		if err := e.backend.Play(ctx); err != nil {
			return e.status, e.rejected("play", err)
		}
		e.status = models.Playing
		e.await("play", models.Playing, nil)
	default:
		uri, err := e.registry.PlayingTab().CurrentURI()
		if err != nil {
			return e.status, err
		}
		if err := e.start(uri); err != nil {
			return e.status, err
		}
		e.status = models.Playing
	}

	e.reason = ""
	e.publishPlayback("")
	return e.status, nil
}

func (e *Engine) seek(offset time.Duration) error {
	ctx, cancel := e.backendCtx()
	defer cancel()

	if err := e.backend.Seek(ctx, offset); err != nil {
		err = backendError("seek", err)
		e.logger.Warn("seek failed", "offset", offset, "err", err)
		return err
	}
	return nil
}

func (e *Engine) setRepeatOnce() {
	if e.repeatOnce {
		return
	}
	e.repeatOnce = true
	e.publishPlayback("")
}

// endOfStream replays once if asked to, otherwise advances without wrapping or stops.
func (e *Engine) endOfStream() {
	if e.repeatOnce && e.loadedURI != "" {
		e.repeatOnce = false
		e.logger.Debug("repeating track", "uri", e.loadedURI)
		if err := e.start(e.loadedURI); err != nil {
			e.endPlayback(err.Error())
		}
		return
	}

	tab := e.registry.Playing()
	uri, ok, err := e.registry.PlayingTab().AdvanceOrEndOfList()
	e.publishContent(tab)

	switch {
	case err != nil:
		e.logger.Error("next track is unplayable", "err", err)
		e.events.Publish(hub.Message(err.Error()))
		e.endPlayback(err.Error())
	case ok:
		if err := e.start(uri); err != nil {
			e.endPlayback(err.Error())
		}
	default:
		e.logger.Info("end of playlist")
		e.endPlayback("")
	}
}
