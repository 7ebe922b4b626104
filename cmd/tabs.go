package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/playlist"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// TabsList prints the persisted tabs.
func (r *Runner) TabsList(ctx context.Context, cmd *cli.Command) error {
	db, err := openDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := repositories.NewTabStore(db).LoadTabs(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(snap, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%d tabs", len(snap.Tabs)))
	for i, tab := range snap.Tabs {
		marker := "  "
		switch {
		case i == snap.Playing && i == snap.Viewing:
			marker = "▶*"
		case i == snap.Playing:
			marker = "▶ "
		case i == snap.Viewing:
			marker = " *"
		}
		r.writePlain("%s %d. %s (%d tracks)\n", marker, i+1, tab.Name, len(tab.Tracks))
		if cmd.Bool("tracks") {
			for j, t := range tab.Tracks {
				cur := " "
				if j == tab.Cursor {
					cur = ">"
				}
				r.writePlain("   %s %3d  %s - %s\n", cur, j+1, t.Artist, t.Title)
			}
		}
	}
	return nil
}

// TabsOpen adds a tab holding the library tracks that match the filter flags.
func (r *Runner) TabsOpen(ctx context.Context, cmd *cli.Command) error {
	filter := models.Filter{
		Artist: cmd.String("artist"),
		Album:  cmd.String("album"),
		Genre:  cmd.String("genre"),
		Title:  cmd.String("title"),
	}

	db, err := openDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	tracks, err := repositories.NewTrackRepository(db).List(ctx, filter)
	if err != nil {
		return err
	}

	store := repositories.NewTabStore(db)
	registry, err := playlist.Restore(ctx, store, nil)
	if err != nil {
		return err
	}

	name := cmd.String("name")
	if name == "" {
		name = filter.Name()
	}
	idx := registry.Add(playlist.NewLoaded(name, tracks))

	if err := registry.Save(ctx, store); err != nil {
		return err
	}

	r.logger.Info("tab opened", "name", name, "index", idx, "tracks", len(tracks))
	return r.writePlain("Opened tab %d %q with %d tracks\n", idx+1, name, len(tracks))
}

// TabsExport writes a saved tab to a file, or a directory for Markdown.
func (r *Runner) TabsExport(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: tab number is required", shared.ErrMissingArgument)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("%w: tab number %q", shared.ErrInvalidArgument, args[0])
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := openDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	snap, err := repositories.NewTabStore(db).LoadTabs(ctx)
	if err != nil {
		return err
	}
	if n > len(snap.Tabs) {
		return fmt.Errorf("%w: tab %d of %d", shared.ErrIndexOutOfRange, n, len(snap.Tabs))
	}
	tab := snap.Tabs[n-1]

	output := cmd.String("output")
	if output == "" {
		output = exportName(tab.Name, format)
	}

	if format == formatter.Markdown {
		result, err := formatter.WriteMarkdownExport(tab, output)
		if err != nil {
			return err
		}
		for _, f := range result.Files {
			r.writePlain("wrote %s\n", f)
		}
		return nil
	}

	if err := formatter.WriteExport(tab, format, output); err != nil {
		return err
	}
	r.logger.Info("tab exported", "tab", tab.Name, "format", format, "path", output)
	return r.writePlain("wrote %s\n", output)
}

// exportName derives a file (or, for Markdown, directory) name from a tab name.
func exportName(name string, format formatter.Format) string {
	base := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return unicode.ToLower(r)
		}
		return '_'
	}, name)
	if base == "" {
		base = "tab"
	}
	if format == formatter.Markdown {
		return base
	}
	return base + "." + string(format)
}
