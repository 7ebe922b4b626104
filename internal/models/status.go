package models

import "fmt"

// PlaybackStatus is the externally observable playback state.
type PlaybackStatus int

const (
	Stopped PlaybackStatus = iota
	Playing
	Paused
)

// String returns the lowercase name used on the wire.
func (s PlaybackStatus) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return ""
	}
}

// MarshalText implements [encoding.TextMarshaler].
func (s PlaybackStatus) MarshalText() ([]byte, error) {
	if name := s.String(); name != "" {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("unknown playback status %d", int(s))
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (s *PlaybackStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "stopped":
		*s = Stopped
	case "playing":
		*s = Playing
	case "paused":
		*s = Paused
	default:
		return fmt.Errorf("unknown playback status %q", string(text))
	}
	return nil
}

// IsActive reports whether audio is loaded (playing or paused).
func (s PlaybackStatus) IsActive() bool {
	return s == Playing || s == Paused
}
