package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/facade"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// RemoteStatus prints the status and current track of a running server.
func (r *Runner) RemoteStatus(ctx context.Context, cmd *cli.Command) error {
	api := r.remote(cmd)

	status, err := api.Status(ctx)
	if err != nil {
		return err
	}
	current, err := api.Current(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{"status": status, "current": current}, cmd.Bool("pretty"))
	}

	r.writePlain("Status: %s", status.Status)
	if status.RepeatOnce {
		r.writePlain(" (repeat once)")
	}
	r.writePlain("\n")
	if status.Reason != "" {
		r.writePlain("Reason: %s\n", status.Reason)
	}
	if current.Track != nil {
		r.writePlain("Track:  %s - %s (tab %d, #%d)\n", current.Track.Artist, current.Track.Title, current.Tab+1, *current.Index+1)
		r.writePlain("Time:   %s / %s\n", clock(status.Elapsed), clock(status.Duration))
	}
	return nil
}

// RemoteTabs prints the tabs of a running server.
func (r *Runner) RemoteTabs(ctx context.Context, cmd *cli.Command) error {
	view, err := r.remote(cmd).Tabs(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(view, cmd.Bool("pretty"))
	}
	for i, tab := range view.Tabs {
		marker := " "
		if i == view.Playing {
			marker = "▶"
		}
		r.writePlain("%s %d. %s (%d tracks)\n", marker, i+1, tab.Name, tab.Len)
	}
	return nil
}

// RemoteCommand sends a transport command: next, previous, play <n>, pause_or_resume, repeat_once, seek <secs>.
func (r *Runner) RemoteCommand(ctx context.Context, cmd *cli.Command) error {
	c, err := parseCommand(cmd.Args().Slice())
	if err != nil {
		return err
	}
	status, err := r.remote(cmd).Command(ctx, c)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", status)
}

// RemoteWatch prints every event from a running server until interrupted.
func (r *Runner) RemoteWatch(ctx context.Context, cmd *cli.Command) error {
	return r.remote(cmd).Watch(ctx, func(ev services.Event) error {
		if cmd.Bool("json") {
			return r.writeJSON(map[string]any{"event": ev.Name, "id": ev.ID, "data": ev.Data}, false)
		}
		return r.writePlain("%-9s %s\n", ev.Name, ev.Data)
	})
}

// parseCommand reads a command from positional arguments. Play takes a 1-based track number.
func parseCommand(args []string) (facade.Command, error) {
	if len(args) == 0 {
		return facade.Command{}, fmt.Errorf("%w: action is required", shared.ErrMissingArgument)
	}

	c := facade.Command{Action: facade.Action(strings.ReplaceAll(args[0], "-", "_"))}
	switch c.Action {
	case facade.ActionPlay:
		if len(args) < 2 {
			return c, fmt.Errorf("%w: play needs a track number", shared.ErrMissingArgument)
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return c, fmt.Errorf("%w: track number %q", shared.ErrInvalidArgument, args[1])
		}
		n--
		c.Index = &n
	case facade.ActionSeek:
		if len(args) < 2 {
			return c, fmt.Errorf("%w: seek needs an offset in seconds", shared.ErrMissingArgument)
		}
		offset, err := strconv.ParseFloat(args[1], 64)
		if err != nil || offset < 0 {
			return c, fmt.Errorf("%w: offset %q", shared.ErrInvalidArgument, args[1])
		}
		c.Offset = offset
	}
	return c, nil
}

func clock(secs float64) string {
	s := int(secs)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
