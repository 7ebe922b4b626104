package playlist

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/jukebox/internal/shared"
)

// TrackURI converts an absolute storage path into a percent-encoded file:// locator.
func TrackURI(path string) (string, error) {
	switch {
	case path == "":
		return "", fmt.Errorf("%w: empty path", shared.ErrMalformedURI)
	case !utf8.ValidString(path):
		return "", fmt.Errorf("%w: path is not valid UTF-8", shared.ErrMalformedURI)
	case strings.ContainsRune(path, 0):
		return "", fmt.Errorf("%w: path contains NUL", shared.ErrMalformedURI)
	case !filepath.IsAbs(path):
		return "", fmt.Errorf("%w: path %q is not absolute", shared.ErrMalformedURI, path)
	}

	slashed := filepath.ToSlash(path)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}

	u := url.URL{Scheme: "file", Path: slashed}
	return u.String(), nil
}

// PathFromURI is the inverse of [TrackURI].
func PathFromURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q", shared.ErrMalformedURI, uri)
	}
	return filepath.FromSlash(u.Path), nil
}
