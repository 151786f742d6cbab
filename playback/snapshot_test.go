package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindFromPlexType(t *testing.T) {
	assert.Equal(t, KindEpisode, KindFromPlexType("episode"))
	assert.Equal(t, KindMovie, KindFromPlexType("movie"))
	assert.Equal(t, KindTrack, KindFromPlexType("track"))
	assert.Equal(t, KindOther, KindFromPlexType("photo"))
	assert.Equal(t, KindOther, KindFromPlexType(""))
}

func TestSnapshotID_StableAcrossPlaybackPosition(t *testing.T) {
	first := Snapshot{
		Kind:         KindMovie,
		State:        StatePlaying,
		Title:        "Heat",
		File:         "/media/movies/heat.mkv",
		DurationMs:   10200000,
		ViewOffsetMs: 60000,
	}
	second := first
	second.State = StatePaused
	second.ViewOffsetMs = 4000000

	assert.Equal(t, first.ID(), second.ID())
}

func TestSnapshotID_DiffersPerItem(t *testing.T) {
	first := Snapshot{Kind: KindTrack, Title: "Angel", File: "/media/music/angel.flac", DurationMs: 240000}
	second := Snapshot{Kind: KindTrack, Title: "Teardrop", File: "/media/music/teardrop.flac", DurationMs: 270000}

	assert.NotEqual(t, first.ID(), second.ID())
}

func TestArtist(t *testing.T) {
	s := Snapshot{GrandparentTitle: "Massive Attack"}
	assert.Equal(t, "Massive Attack", s.Artist())

	s.OriginalTitle = "Massive Attack feat. Elizabeth Fraser"
	assert.Equal(t, "Massive Attack feat. Elizabeth Fraser", s.Artist())
}
