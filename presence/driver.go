package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tmichel/herald/discord"
	"github.com/tmichel/herald/playback"
)

// Source is the activity feed the driver polls each cycle.
type Source interface {
	GetUserPlaying(ctx context.Context) (*playback.Snapshot, error)
}

// PresenceClient is the rich-presence sink. Any error from SetActivity or
// Clear is treated as a lost connection, not a one-off failure.
type PresenceClient interface {
	Connect() error
	SetActivity(activity discord.Activity) error
	Clear() error
	Close() error
}

// Broadcaster fans pushed updates out to observers (SSE stream, logs).
type Broadcaster interface {
	PublishUpdate(update Update)
	PublishClear()
}

// Recorder persists pushed updates for the history endpoint.
type Recorder interface {
	Record(update Update) error
}

// Notifier alerts an operator about a sustained presence-client outage.
type Notifier interface {
	PresenceOutage(failures int)
}

// Update pairs a pushed payload with the snapshot that produced it.
type Update struct {
	Snapshot playback.Snapshot `json:"snapshot"`
	Payload  Payload           `json:"payload"`
	PushedAt time.Time         `json:"pushed_at"`
}

// outageAlertThreshold is how many consecutive failed reconnect attempts
// it takes before the operator gets pinged, once per outage.
const outageAlertThreshold = 10

// Driver owns the poll-decide-push cycle. One cycle runs at a time; the
// only suspension points are the cycle-boundary sleep and the blocking
// network calls themselves.
type Driver struct {
	Source   Source
	Presence PresenceClient
	Art      ArtworkFinder

	PollInterval     time.Duration
	PushMinInterval  time.Duration
	ReconnectBackoff time.Duration

	// optional collaborators
	Broadcast Broadcaster
	History   Recorder
	Alerts    Notifier

	now func() time.Time

	connected         bool
	reconnectFailures int
	previous          *Previous
	displayed         bool

	mu      sync.RWMutex
	current *Update
}

func NewDriver(source Source, presence PresenceClient, art ArtworkFinder) *Driver {
	return &Driver{
		Source:           source,
		Presence:         presence,
		Art:              art,
		PollInterval:     5 * time.Second,
		PushMinInterval:  15 * time.Second,
		ReconnectBackoff: 30 * time.Second,
		now:              time.Now,
	}
}

// Current returns the most recently pushed update, or nil when the
// presence is clear. Safe to call from the HTTP handlers.
func (d *Driver) Current() *Update {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

func (d *Driver) setCurrent(update *Update) {
	d.mu.Lock()
	d.current = update
	d.mu.Unlock()
}

// Run loops until the context is cancelled. Transient errors are logged
// and the loop carries on; nothing short of cancellation stops it.
func (d *Driver) Run(ctx context.Context) {
	defer d.Presence.Close()
	for {
		if err := ctx.Err(); err != nil {
			return
		}
		if !d.ensureConnected(ctx) {
			return
		}
		d.cycle(ctx)
		if !sleepCtx(ctx, d.PollInterval) {
			return
		}
	}
}

// ensureConnected drives the Disconnected half of the state machine:
// retry indefinitely with a fixed backoff, logging every failed attempt.
// Returns false only when the context is cancelled.
func (d *Driver) ensureConnected(ctx context.Context) bool {
	for !d.connected {
		if err := ctx.Err(); err != nil {
			return false
		}
		err := d.Presence.Connect()
		if err == nil {
			d.connected = true
			d.reconnectFailures = 0
			slog.Info("Connected to presence client")
			return true
		}
		d.reconnectFailures++
		slog.Error("Failed to connect to presence client",
			slog.String("error", err.Error()),
			slog.Int("attempt", d.reconnectFailures),
		)
		if d.reconnectFailures == outageAlertThreshold && d.Alerts != nil {
			d.Alerts.PresenceOutage(d.reconnectFailures)
		}
		if !sleepCtx(ctx, d.ReconnectBackoff) {
			return false
		}
	}
	return true
}

func (d *Driver) cycle(ctx context.Context) {
	snapshot, err := d.Source.GetUserPlaying(ctx)
	if err != nil {
		// source being down is routine; try again next cycle
		slog.Warn("Failed to poll activity source", slog.String("error", err.Error()))
		return
	}

	if snapshot == nil {
		d.clearIfDisplayed()
		return
	}

	now := d.now()
	if !ShouldUpdate(d.previous, *snapshot, now) {
		return
	}

	// stay under the client's push rate limit; the change is still there
	// next cycle, so nothing is lost by waiting
	if d.previous != nil && now.Sub(d.previous.PushedAt) < d.PushMinInterval {
		return
	}

	payload := Classify(ctx, *snapshot, d.Art)
	ApplyShowOverride(&payload, *snapshot)
	ApplyProgress(&payload, *snapshot, now)

	if err := d.Presence.SetActivity(payload.ToActivity()); err != nil {
		slog.Error("Failed to push presence update, reconnecting", slog.String("error", err.Error()))
		d.disconnect()
		return
	}

	slog.Info("Pushed presence update",
		slog.String("state", string(snapshot.State)),
		slog.String("kind", string(snapshot.Kind)),
		slog.String("title", snapshot.Title),
	)

	d.previous = &Previous{
		Snapshot:       *snapshot,
		PushPositionMs: snapshot.ViewOffsetMs,
		PushedAt:       now,
	}
	d.displayed = true

	update := Update{Snapshot: *snapshot, Payload: payload, PushedAt: now}
	d.setCurrent(&update)
	if d.Broadcast != nil {
		d.Broadcast.PublishUpdate(update)
	}
	if d.History != nil {
		if err := d.History.Record(update); err != nil {
			slog.Error("Failed to record history entry",
				slog.String("error", err.Error()),
				slog.String("title", snapshot.Title),
			)
		}
	}
}

// clearIfDisplayed wipes the presence once when activity stops and resets
// the previous state, so the same item starting again later is treated as
// brand new rather than suppressed.
func (d *Driver) clearIfDisplayed() {
	if !d.displayed && d.previous == nil {
		return
	}
	if err := d.Presence.Clear(); err != nil {
		slog.Error("Failed to clear presence, reconnecting", slog.String("error", err.Error()))
		d.disconnect()
		return
	}
	slog.Info("Cleared presence, nothing is playing")
	d.previous = nil
	d.displayed = false
	d.setCurrent(nil)
	if d.Broadcast != nil {
		d.Broadcast.PublishClear()
	}
}

func (d *Driver) disconnect() {
	d.connected = false
	d.Presence.Close()
}

// sleepCtx waits out d or returns false early on cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
