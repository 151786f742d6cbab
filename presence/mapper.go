package presence

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tmichel/herald/artwork"
	"github.com/tmichel/herald/discord"
	"github.com/tmichel/herald/playback"
)

// ArtworkFinder is the slice of the artwork client the classifier needs.
// Implementations must degrade to "" rather than fail.
type ArtworkFinder interface {
	CoverURL(ctx context.Context, kind artwork.Kind, name, artist string) string
	ArtistImageURL(ctx context.Context, name string) string
}

// Classify routes a snapshot to the field-derivation arm for its media
// kind and returns the textual and image fields of the payload. Progress
// timestamps are layered on separately. Artwork lookups never fail the
// classification; a missing cover falls back to the static asset key.
func Classify(ctx context.Context, snapshot playback.Snapshot, art ArtworkFinder) Payload {
	var payload Payload
	switch snapshot.Kind {
	case playback.KindEpisode:
		payload = classifyEpisode(ctx, snapshot, art)
	case playback.KindMovie:
		payload = classifyMovie(ctx, snapshot, art)
	case playback.KindTrack:
		payload = classifyTrack(ctx, snapshot, art)
	default:
		payload = classifyOther(snapshot)
	}

	payload.Details = truncate(payload.Details, maxFieldLength)
	payload.State = truncate(payload.State, maxFieldLength)
	payload.LargeImageText = truncate(snapshot.Title, maxImageTextLength)
	return payload
}

// ApplyShowOverride replaces the payload details with the series or show
// name when one exists. Tracks keep their album-based details since the
// grandparent there is the artist, which already appears elsewhere.
func ApplyShowOverride(payload *Payload, snapshot playback.Snapshot) {
	if snapshot.GrandparentTitle != "" && snapshot.Kind != playback.KindTrack {
		payload.Details = truncate(snapshot.GrandparentTitle, maxFieldLength)
	}
}

func classifyEpisode(ctx context.Context, snapshot playback.Snapshot, art ArtworkFinder) Payload {
	cover := art.CoverURL(ctx, artwork.KindTV, snapshot.GrandparentTitle, "")
	if cover == "" {
		cover = FallbackShowKey
	}
	return Payload{
		Type:          discord.ActivityWatching,
		State:         fmt.Sprintf("S%d・E%d - %s", snapshot.SeasonIndex, snapshot.EpisodeIndex, snapshot.Title),
		LargeImageKey: cover,
	}
}

func classifyMovie(ctx context.Context, snapshot playback.Snapshot, art ArtworkFinder) Payload {
	cover := art.CoverURL(ctx, artwork.KindMovies, snapshot.Title, "")
	if cover == "" {
		cover = FallbackMovieKey
	}
	state := ""
	if snapshot.Year > 0 {
		state = strconv.Itoa(snapshot.Year)
	}
	return Payload{
		Type:          discord.ActivityWatching,
		Details:       snapshot.Title,
		State:         state,
		LargeImageKey: cover,
	}
}

func classifyTrack(ctx context.Context, snapshot playback.Snapshot, art ArtworkFinder) Payload {
	cover := art.CoverURL(ctx, artwork.KindMusic, snapshot.ParentTitle, snapshot.Artist())
	if cover == "" {
		cover = FallbackMusicKey
	}

	state := snapshot.Title
	if state == "" {
		state = snapshot.Artist()
	}

	payload := Payload{
		Type:          discord.ActivityListening,
		Details:       truncate(snapshot.ParentTitle, maxImageTextLength),
		State:         state,
		LargeImageKey: cover,
	}

	if artistImage := art.ArtistImageURL(ctx, snapshot.Artist()); artistImage != "" {
		payload.SmallImageKey = artistImage
		payload.SmallImageText = snapshot.Artist()
	}
	return payload
}

func classifyOther(snapshot playback.Snapshot) Payload {
	return Payload{
		Type:          discord.ActivityPlaying,
		State:         snapshot.Title,
		LargeImageKey: FallbackPlexKey,
	}
}
