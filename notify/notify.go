// Package notify pings the operator over Pushover when the Discord
// client has been unreachable long enough that a human should look at it.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/gregdel/pushover"

	"github.com/tmichel/herald/config"
)

type Pushover struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
}

// NewPushover returns nil when no credentials are configured, which
// callers treat as alerting being disabled.
func NewPushover(cfg config.Config) *Pushover {
	if cfg.Pushover.Token == "" || cfg.Pushover.Recipient == "" {
		return nil
	}
	return &Pushover{
		app:       pushover.New(cfg.Pushover.Token),
		recipient: pushover.NewRecipient(cfg.Pushover.Recipient),
	}
}

func (p *Pushover) PresenceOutage(failures int) {
	message := &pushover.Message{
		Title:   "Herald can't reach Discord",
		Message: fmt.Sprintf("Reconnecting to the Discord client has failed %d times in a row. Is it running?", failures),
	}
	if _, err := p.app.SendMessage(message, p.recipient); err != nil {
		slog.Error("Failed to send outage notification", slog.String("error", err.Error()))
	}
}
