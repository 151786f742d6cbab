package presence

import (
	"time"

	"github.com/tmichel/herald/playback"
)

// ScrubThresholdMs is how far the observed position may stray from where
// normal playback should have carried it before we treat the jump as the
// user seeking. Measured in absolute milliseconds of position, not as a
// percentage of the item.
const ScrubThresholdMs = 15000

// Previous captures what was on display after the last successful push.
// The position stored here is the position at push time, not at the most
// recent poll, so drift accumulates against a fixed reference.
type Previous struct {
	Snapshot       playback.Snapshot
	PushPositionMs int
	PushedAt       time.Time
}

// ShouldUpdate decides whether current differs enough from the previously
// pushed state to warrant another presence update.
//
// A different item, or a play/pause toggle, always updates. For the same
// item in the same state, the position is compared against where playback
// should be by now: the position at last push, advanced by wall-clock time
// if the item was left playing. Small deltas are ordinary drift the
// client's own progress bar already renders; a delta past the scrub
// threshold means the user jumped somewhere. Elapsed time alone never
// triggers an update.
func ShouldUpdate(previous *Previous, current playback.Snapshot, now time.Time) bool {
	if previous == nil {
		return true
	}
	if previous.Snapshot.Title != current.Title || previous.Snapshot.File != current.File {
		return true
	}
	if previous.Snapshot.State != current.State {
		return true
	}

	expectedMs := previous.PushPositionMs
	if previous.Snapshot.State == playback.StatePlaying {
		expectedMs += int(now.Sub(previous.PushedAt).Milliseconds())
	}

	driftMs := current.ViewOffsetMs - expectedMs
	if driftMs < 0 {
		driftMs = -driftMs
	}
	return driftMs >= ScrubThresholdMs
}
