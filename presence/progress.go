package presence

import (
	"time"

	"github.com/tmichel/herald/playback"
)

// ApplyProgress fills in the playback-progress portion of a payload.
//
// A playing item gets absolute start and end timestamps positioned so that
// end-start equals the item duration and now falls between them; Discord
// renders the advancing progress bar from these on its own, which is why
// ordinary playback never needs another push. A paused item gets no
// timestamps at all, just the pause markers.
//
// Seconds are truncated, not rounded, and an elapsed value past the
// duration (upstream data anomaly) is clamped rather than propagated.
func ApplyProgress(payload *Payload, snapshot playback.Snapshot, now time.Time) {
	if snapshot.State == playback.StatePaused {
		payload.Start = 0
		payload.End = 0
		payload.SmallImageKey = PauseImageKey
		payload.SmallImageText = PauseImageText
		return
	}

	durationSec := int64(snapshot.DurationMs / 1000)
	elapsedSec := elapsedSeconds(snapshot)
	if elapsedSec > durationSec {
		elapsedSec = durationSec
	}
	if elapsedSec < 0 {
		elapsedSec = 0
	}

	payload.Start = now.Unix() - elapsedSec
	payload.End = payload.Start + durationSec

	// tracks may already carry an artist portrait here
	if payload.SmallImageKey == "" {
		payload.SmallImageKey = PlayImageKey
		payload.SmallImageText = PlayImageText
	}
}

// elapsedSeconds works off whichever progress field the source provided:
// an absolute offset when present, a percentage otherwise.
func elapsedSeconds(snapshot playback.Snapshot) int64 {
	if snapshot.ViewOffsetMs > 0 {
		return int64(snapshot.ViewOffsetMs / 1000)
	}
	if snapshot.ProgressPercent > 0 {
		return int64(float64(snapshot.DurationMs) / 1000 * snapshot.ProgressPercent / 100)
	}
	return 0
}
