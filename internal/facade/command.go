package facade

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Action names a transport command.
type Action string

const (
	ActionNext          Action = "next"
	ActionPrevious      Action = "previous"
	ActionPlay          Action = "play"
	ActionPauseOrResume Action = "pause_or_resume"
	ActionRepeatOnce    Action = "repeat_once"
	ActionSeek          Action = "seek"
)

// Command is a transport request from a surface.
//
// Index is used by "play"; Offset (seconds into the track) by "seek".
type Command struct {
	Action Action  `json:"action"`
	Index  *int    `json:"index,omitempty"`
	Offset float64 `json:"offset,omitempty"`
}

// Command applies cmd and returns the playback status that follows.
func (f *Facade) Command(ctx context.Context, cmd Command) (models.PlaybackStatus, error) {
	var err error

	switch cmd.Action {
	case ActionNext:
		err = f.engine.Next(ctx)
	case ActionPrevious:
		err = f.engine.Previous(ctx)
	case ActionPlay:
		if cmd.Index == nil {
			return f.Status(), fmt.Errorf("%w: play needs an index", shared.ErrMissingArgument)
		}
		err = f.engine.Play(ctx, *cmd.Index)
	case ActionPauseOrResume:
		return f.engine.PauseOrResume(ctx)
	case ActionRepeatOnce:
		err = f.engine.RepeatOnce(ctx)
	case ActionSeek:
		err = f.engine.Seek(ctx, time.Duration(cmd.Offset*float64(time.Second)))
	default:
		return f.Status(), fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, cmd.Action)
	}

	if err != nil {
		f.logger.Debug("command rejected", "action", cmd.Action, "err", err)
	}
	return f.Status(), err
}
