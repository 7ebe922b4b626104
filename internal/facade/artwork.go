package facade

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dhowden/tag"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Artwork is an encoded cover image.
type Artwork struct {
	MIMEType string
	Data     []byte
}

// CurrentArtwork returns the cover of the current track.
//
// A track's ArtworkPath wins; otherwise the picture embedded in the audio file is used.
func (f *Facade) CurrentArtwork() (Artwork, error) {
	track, ok := f.CurrentTrack()
	if !ok {
		return Artwork{}, fmt.Errorf("%w: no current track", shared.ErrNotFound)
	}
	return ArtworkFor(track)
}

// ArtworkFor loads the cover of track.
func ArtworkFor(track models.Track) (Artwork, error) {
	if track.ArtworkPath != "" {
		data, err := os.ReadFile(track.ArtworkPath)
		if err == nil {
			return Artwork{MIMEType: imageType(track.ArtworkPath, data), Data: data}, nil
		}
	}

	file, err := os.Open(track.Path)
	if err != nil {
		return Artwork{}, fmt.Errorf("%w: artwork for %s: %v", shared.ErrNotFound, track.Path, err)
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		return Artwork{}, fmt.Errorf("%w: no tags in %s: %v", shared.ErrNotFound, track.Path, err)
	}

	pic := meta.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return Artwork{}, fmt.Errorf("%w: no embedded artwork in %s", shared.ErrNotFound, track.Path)
	}

	mimeType := pic.MIMEType
	if mimeType == "" {
		mimeType = http.DetectContentType(pic.Data)
	}
	return Artwork{MIMEType: mimeType, Data: pic.Data}, nil
}

func imageType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}
