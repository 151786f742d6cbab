package playback

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

type Kind string

const (
	KindEpisode Kind = "episode"
	KindMovie   Kind = "movie"
	KindTrack   Kind = "track"
	KindOther   Kind = "other"
)

// KindFromPlexType maps a Plex session type onto a known media kind.
// Anything unrecognised gets the catch-all treatment.
func KindFromPlexType(plexType string) Kind {
	switch plexType {
	case "episode":
		return KindEpisode
	case "movie":
		return KindMovie
	case "track":
		return KindTrack
	default:
		return KindOther
	}
}

type State string

const (
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// Snapshot is one poll's normalised view of what is playing right now.
// Which of the optional fields carry meaning is determined entirely by
// Kind: season/episode indices for episodes, year for movies, parent
// (album) and grandparent (artist) titles for tracks. Absent fields are
// zero values.
type Snapshot struct {
	Kind             Kind    `json:"kind"`
	State            State   `json:"state"`
	Title            string  `json:"title"`
	ParentTitle      string  `json:"parent_title,omitempty"`      // season or album
	GrandparentTitle string  `json:"grandparent_title,omitempty"` // show or artist
	OriginalTitle    string  `json:"original_title,omitempty"`    // alternate artist credit on tracks
	SeasonIndex      int     `json:"season_index,omitempty"`
	EpisodeIndex     int     `json:"episode_index,omitempty"`
	Year             int     `json:"year,omitempty"`
	DurationMs       int     `json:"duration_ms"`
	ViewOffsetMs     int     `json:"view_offset_ms"`
	ProgressPercent  float64 `json:"-"`                    // only set by sources that don't report an offset
	RatingKey        string  `json:"rating_key,omitempty"` // Plex library item id
	File             string  `json:"-"`                    // opaque identity of the underlying media file
}

// ID is a stable identity for the underlying item, independent of
// playback position or state. Two polls of the same file hash the same.
func (s *Snapshot) ID() string {
	hashString := fmt.Sprintf("%s-%s-%s-%d",
		s.File,
		s.Title,
		s.Kind,
		s.DurationMs,
	)
	return fmt.Sprintf("plex:%s:%d", s.Kind, xxhash.Sum64String(hashString))
}

// Artist returns the displayable artist credit for a track, preferring
// the original title field which Plex uses for per-track artist overrides.
func (s *Snapshot) Artist() string {
	if s.OriginalTitle != "" {
		return s.OriginalTitle
	}
	return s.GrandparentTitle
}
