package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// coverNames are sidecar images picked up as a track's artwork.
var coverNames = []string{"cover.jpg", "cover.png", "folder.jpg", "folder.png"}

// LibraryAdd registers audio files in the library, reading their tags.
func (r *Runner) LibraryAdd(ctx context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file is required", shared.ErrMissingArgument)
	}

	db, err := openDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewTrackRepository(db)

	var errs []error
	added := 0
	for _, path := range paths {
		track, err := trackFromFile(path)
		if err != nil {
			r.logger.Warn("skipping file", "path", path, "error", err)
			errs = append(errs, err)
			continue
		}
		if err := repo.Upsert(ctx, &track); err != nil {
			errs = append(errs, err)
			continue
		}
		added++
		r.logger.Debug("track registered", "id", track.ID, "path", track.Path)
		r.writePlain("%d\t%s - %s\n", track.ID, track.Artist, track.Title)
	}

	r.logger.Info("library updated", "added", added, "failed", len(errs))
	return errors.Join(errs...)
}

// trackFromFile builds a library entry for the audio file at path.
//
// Files without readable tags are still registered, titled after their file name.
func trackFromFile(path string) (models.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return models.Track{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	file, err := os.Open(abs)
	if err != nil {
		return models.Track{}, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer file.Close()

	track := models.Track{
		Path:        abs,
		Title:       strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)),
		ArtworkPath: sidecarCover(filepath.Dir(abs)),
	}

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return track, nil
	}

	if t := meta.Title(); t != "" {
		track.Title = t
	}
	track.Artist = meta.Artist()
	if track.Artist == "" {
		track.Artist = meta.AlbumArtist()
	}
	track.Album = meta.Album()
	track.Genre = meta.Genre()
	if n, _ := meta.Track(); n > 0 {
		track.TrackNumber = &n
	}
	if y := meta.Year(); y > 0 {
		track.Year = &y
	}
	return track, nil
}

func sidecarCover(dir string) string {
	for _, name := range coverNames {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
