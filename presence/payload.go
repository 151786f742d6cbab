package presence

import (
	"unicode/utf8"

	"github.com/tmichel/herald/discord"
)

const (
	// Discord rejects detail/state strings past this length
	maxFieldLength = 128
	// image hover text gets a tighter cap
	maxImageTextLength = 50
)

// Static asset keys registered against the Discord application. Used
// whenever a dynamic artwork lookup comes back empty.
const (
	FallbackShowKey  = "show"
	FallbackMovieKey = "movie"
	FallbackMusicKey = "music"
	FallbackPlexKey  = "plex"

	PlayImageKey  = "play"
	PlayImageText = "Playing"

	PauseImageKey  = "pause"
	PauseImageText = "Paused"
)

// Payload is the fixed-shape presence record assembled for one update.
// Start and End are unix seconds and are only ever set together; a paused
// item carries pause markers in the small image fields instead.
type Payload struct {
	Type           discord.ActivityType `json:"type"`
	Details        string               `json:"details,omitempty"`
	State          string               `json:"state,omitempty"`
	LargeImageKey  string               `json:"large_image_key,omitempty"`
	LargeImageText string               `json:"large_image_text,omitempty"`
	SmallImageKey  string               `json:"small_image_key,omitempty"`
	SmallImageText string               `json:"small_image_text,omitempty"`
	Start          int64                `json:"start,omitempty"`
	End            int64                `json:"end,omitempty"`
}

func (p Payload) ToActivity() discord.Activity {
	activity := discord.Activity{
		Type:    p.Type,
		Details: p.Details,
		State:   p.State,
	}
	if p.LargeImageKey != "" || p.SmallImageKey != "" {
		activity.Assets = &discord.Assets{
			LargeImage: p.LargeImageKey,
			LargeText:  p.LargeImageText,
			SmallImage: p.SmallImageKey,
			SmallText:  p.SmallImageText,
		}
	}
	if p.Start != 0 && p.End != 0 {
		activity.Timestamps = &discord.Timestamps{
			Start: p.Start,
			End:   p.End,
		}
	}
	return activity
}

// truncate caps a display string at limit runes without splitting a
// multibyte character.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
