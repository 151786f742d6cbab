// Package history keeps a record of everything the presence has shown,
// mostly so the status API can answer "what was I watching earlier".
package history

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/tmichel/herald/playback"
	"github.com/tmichel/herald/presence"
)

type Entry struct {
	ID         uint   `db:"id" json:"-"`
	OccurredAt int64  `db:"occurred_at" json:"occurred_at"`
	Title      string `db:"title" json:"title"`
	Subtitle   string `db:"subtitle" json:"subtitle,omitempty"`
	Category   string `db:"category" json:"category"`
	State      string `db:"state" json:"state"`
	Source     string `db:"source" json:"source"`
	DurationMs int    `db:"duration_ms" json:"duration_ms"`
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Record persists a pushed update. Consecutive pushes of the same item
// (pause toggles, scrubs) collapse into the entry already at the top so
// the history reads as a list of distinct items.
func (s *Store) Record(update presence.Update) error {
	snapshot := update.Snapshot

	var latest Entry
	err := s.db.Get(&latest,
		"SELECT * FROM history_entries ORDER BY occurred_at DESC, id DESC LIMIT 1")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if err == nil && latest.Title == snapshot.Title && latest.Category == string(snapshot.Kind) {
		_, err := s.db.Exec(
			"UPDATE history_entries SET state = ? WHERE id = ?",
			string(snapshot.State), latest.ID,
		)
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO history_entries (occurred_at, title, subtitle, category, state, source, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		update.PushedAt.Unix(),
		snapshot.Title,
		subtitleFor(snapshot),
		string(snapshot.Kind),
		string(snapshot.State),
		"plex",
		snapshot.DurationMs,
	)
	return err
}

// Recent returns the latest entries, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.Select(&entries,
		"SELECT * FROM history_entries ORDER BY occurred_at DESC, id DESC LIMIT ?", limit)
	return entries, err
}

func subtitleFor(snapshot playback.Snapshot) string {
	if snapshot.Kind == playback.KindTrack {
		return snapshot.Artist()
	}
	return snapshot.GrandparentTitle
}
