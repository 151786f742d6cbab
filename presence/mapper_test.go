package presence

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tmichel/herald/artwork"
	"github.com/tmichel/herald/discord"
	"github.com/tmichel/herald/playback"
)

// fakeArt serves canned lookup results and records what was asked for.
type fakeArt struct {
	covers      map[artwork.Kind]string
	artistImage string
	coverCalls  []string
	artistCalls []string
}

func (f *fakeArt) CoverURL(ctx context.Context, kind artwork.Kind, name, artist string) string {
	f.coverCalls = append(f.coverCalls, string(kind)+":"+name+":"+artist)
	return f.covers[kind]
}

func (f *fakeArt) ArtistImageURL(ctx context.Context, name string) string {
	f.artistCalls = append(f.artistCalls, name)
	return f.artistImage
}

func TestClassify_Episode(t *testing.T) {
	art := &fakeArt{covers: map[artwork.Kind]string{artwork.KindTV: "https://example.com/show-x.jpg"}}
	snapshot := playback.Snapshot{
		Kind:             playback.KindEpisode,
		State:            playback.StatePlaying,
		Title:            "The Trial",
		GrandparentTitle: "Show X",
		SeasonIndex:      2,
		EpisodeIndex:     5,
		DurationMs:       1500000,
		ViewOffsetMs:     300000,
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.True(t, strings.HasPrefix(payload.State, "S2・E5 - The Trial"))
	assert.Equal(t, discord.ActivityWatching, payload.Type)
	assert.Equal(t, "https://example.com/show-x.jpg", payload.LargeImageKey)
	assert.Equal(t, "The Trial", payload.LargeImageText)
	assert.Equal(t, []string{"tv:Show X:"}, art.coverCalls)
}

func TestClassify_EpisodeLookupFailureFallsBack(t *testing.T) {
	art := &fakeArt{}
	snapshot := playback.Snapshot{
		Kind:             playback.KindEpisode,
		Title:            "The Trial",
		GrandparentTitle: "Show X",
		SeasonIndex:      2,
		EpisodeIndex:     5,
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.Equal(t, FallbackShowKey, payload.LargeImageKey)
}

func TestClassify_Movie(t *testing.T) {
	art := &fakeArt{covers: map[artwork.Kind]string{artwork.KindMovies: "https://example.com/poster.jpg"}}
	snapshot := playback.Snapshot{
		Kind:  playback.KindMovie,
		Title: "Vampire Hunter D: Bloodlust",
		Year:  2000,
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.Equal(t, "Vampire Hunter D: Bloodlust", payload.Details)
	assert.Equal(t, "2000", payload.State)
	assert.Equal(t, discord.ActivityWatching, payload.Type)
	assert.Equal(t, "https://example.com/poster.jpg", payload.LargeImageKey)
}

func TestClassify_MovieLookupFailureFallsBack(t *testing.T) {
	art := &fakeArt{}
	snapshot := playback.Snapshot{
		Kind:  playback.KindMovie,
		Title: "Heat",
		Year:  1995,
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.Equal(t, FallbackMovieKey, payload.LargeImageKey)
	assert.Equal(t, "1995", payload.State)
}

func TestClassify_TrackWithArtistImage(t *testing.T) {
	art := &fakeArt{
		covers:      map[artwork.Kind]string{artwork.KindMusic: "https://example.com/album.jpg"},
		artistImage: "https://example.com/artist.jpg",
	}
	snapshot := playback.Snapshot{
		Kind:             playback.KindTrack,
		Title:            "Supermodel",
		ParentTitle:      "Hot Pink",
		GrandparentTitle: "Doja Cat",
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.Equal(t, discord.ActivityListening, payload.Type)
	assert.Equal(t, "Supermodel", payload.State)
	assert.Equal(t, "Hot Pink", payload.Details)
	assert.Equal(t, "https://example.com/album.jpg", payload.LargeImageKey)
	assert.Equal(t, "https://example.com/artist.jpg", payload.SmallImageKey)
	assert.Equal(t, "Doja Cat", payload.SmallImageText)
	assert.Equal(t, []string{"music:Hot Pink:Doja Cat"}, art.coverCalls)
}

func TestClassify_TrackPrefersOriginalTitleArtist(t *testing.T) {
	art := &fakeArt{}
	snapshot := playback.Snapshot{
		Kind:             playback.KindTrack,
		Title:            "",
		ParentTitle:      "Collaboration Album",
		GrandparentTitle: "Various Artists",
		OriginalTitle:    "Guest Artist",
	}

	payload := Classify(context.Background(), snapshot, art)

	// no title, so the artist credit stands in
	assert.Equal(t, "Guest Artist", payload.State)
	assert.Equal(t, FallbackMusicKey, payload.LargeImageKey)
	assert.Equal(t, []string{"Guest Artist"}, art.artistCalls)
}

func TestClassify_TrackNoArtistImageLeavesSmallImageEmpty(t *testing.T) {
	art := &fakeArt{}
	snapshot := playback.Snapshot{
		Kind:             playback.KindTrack,
		Title:            "Supermodel",
		ParentTitle:      "Hot Pink",
		GrandparentTitle: "Doja Cat",
	}

	payload := Classify(context.Background(), snapshot, art)

	// the progress step fills in the play icon later
	assert.Empty(t, payload.SmallImageKey)
}

func TestClassify_Other(t *testing.T) {
	art := &fakeArt{}
	snapshot := playback.Snapshot{
		Kind:  playback.KindOther,
		Title: "Home Video",
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.Equal(t, discord.ActivityPlaying, payload.Type)
	assert.Equal(t, "Home Video", payload.State)
	assert.Equal(t, FallbackPlexKey, payload.LargeImageKey)
	assert.Empty(t, art.coverCalls)
}

func TestClassify_TruncatesLongTitles(t *testing.T) {
	art := &fakeArt{}
	longTitle := strings.Repeat("a", 200)
	snapshot := playback.Snapshot{
		Kind:  playback.KindOther,
		Title: longTitle,
	}

	payload := Classify(context.Background(), snapshot, art)

	assert.Len(t, payload.State, maxFieldLength)
	assert.Len(t, payload.LargeImageText, maxImageTextLength)
}

func TestClassify_Idempotent(t *testing.T) {
	art := &fakeArt{
		covers:      map[artwork.Kind]string{artwork.KindMusic: "https://example.com/album.jpg"},
		artistImage: "https://example.com/artist.jpg",
	}
	snapshot := playback.Snapshot{
		Kind:             playback.KindTrack,
		Title:            "Supermodel",
		ParentTitle:      "Hot Pink",
		GrandparentTitle: "Doja Cat",
	}

	first := Classify(context.Background(), snapshot, art)
	second := Classify(context.Background(), snapshot, art)

	assert.Equal(t, first, second)
}

func TestApplyShowOverride_Episode(t *testing.T) {
	snapshot := playback.Snapshot{
		Kind:             playback.KindEpisode,
		Title:            "The Trial",
		GrandparentTitle: "Show X",
	}
	payload := Payload{Details: ""}

	ApplyShowOverride(&payload, snapshot)

	assert.Equal(t, "Show X", payload.Details)
}

func TestApplyShowOverride_TrackKeepsAlbumDetails(t *testing.T) {
	snapshot := playback.Snapshot{
		Kind:             playback.KindTrack,
		Title:            "Supermodel",
		ParentTitle:      "Hot Pink",
		GrandparentTitle: "Doja Cat",
	}
	payload := Payload{Details: "Hot Pink"}

	ApplyShowOverride(&payload, snapshot)

	assert.Equal(t, "Hot Pink", payload.Details)
}

func TestApplyShowOverride_EmptyGrandparentLeavesDetails(t *testing.T) {
	snapshot := playback.Snapshot{
		Kind:  playback.KindMovie,
		Title: "Heat",
	}
	payload := Payload{Details: "Heat"}

	ApplyShowOverride(&payload, snapshot)

	assert.Equal(t, "Heat", payload.Details)
}
