package plex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/tmichel/herald/config"
	"github.com/tmichel/herald/playback"
	"github.com/tmichel/herald/utils"
)

const (
	plexSessionEndpoint = "/status/sessions"
)

type PlexResponse struct {
	MediaContainer MediaContainer `json:"MediaContainer"`
}

type MediaContainer struct {
	Size     int        `json:"size"`
	Metadata []Metadata `json:"Metadata"`
}

type Metadata struct {
	Duration            int     `json:"duration"`
	GrandparentTitle    string  `json:"grandparentTitle"`
	LibrarySectionTitle string  `json:"librarySectionTitle"`
	Index               int     `json:"index"`
	ParentIndex         int     `json:"parentIndex"`
	OriginalTitle       string  `json:"originalTitle"`
	ParentTitle         string  `json:"parentTitle"`
	RatingKey           string  `json:"ratingKey"`
	Title               string  `json:"title"`
	Type                string  `json:"type"`
	ViewOffset          int     `json:"viewOffset"`
	Year                int     `json:"year"`
	Media               []Media `json:"Media"`
	Player              Player  `json:"Player"`
	User                User    `json:"User"`
}

type Media struct {
	Part []Part `json:"Part"`
}

type Part struct {
	File string `json:"file"`
}

type Player struct {
	State string `json:"state"`
}

type User struct {
	Title string `json:"title"`
}

type Client struct {
	BaseURL    string
	Token      string
	Username   string
	Libraries  []string
	HTTPClient *http.Client
}

func NewClient(cfg config.Config) *Client {
	return &Client{
		BaseURL:    cfg.Plex.URL,
		Token:      cfg.Plex.Token,
		Username:   cfg.Plex.Username,
		Libraries:  cfg.LibraryFilter(),
		HTTPClient: utils.NewHTTPClient(),
	}
}

func (c *Client) buildPlexURL(endpoint string) string {
	return fmt.Sprintf("%s%s?X-Plex-Token=%s", c.BaseURL, endpoint, c.Token)
}

func (c *Client) getSessions(ctx context.Context) (PlexResponse, error) {
	sessionURL := c.buildPlexURL(plexSessionEndpoint)
	req, err := http.NewRequestWithContext(ctx, "GET", sessionURL, nil)
	if err != nil {
		return PlexResponse{}, fmt.Errorf("failed to prepare Plex request: %w", err)
	}
	req.Header = http.Header{
		"Accept":       []string{"application/json"},
		"Content-Type": []string{"application/json"},
		"User-Agent":   []string{utils.UserAgent},
	}
	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return PlexResponse{}, fmt.Errorf("failed to contact Plex for updates: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return PlexResponse{}, fmt.Errorf("received %d status from Plex", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return PlexResponse{}, fmt.Errorf("failed to read Plex response: %w", err)
	}
	var plexResponse PlexResponse
	if err = json.Unmarshal(body, &plexResponse); err != nil {
		return PlexResponse{}, fmt.Errorf("failed to parse Plex response: %w", err)
	}
	return plexResponse, nil
}

// GetUserPlaying returns a snapshot of the tracked user's current session
// or nil when nothing relevant is playing. Sessions belonging to other
// users, filtered-out libraries and trailer clips are skipped.
func (c *Client) GetUserPlaying(ctx context.Context) (*playback.Snapshot, error) {
	plexResponse, err := c.getSessions(ctx)
	if err != nil {
		return nil, err
	}

	for _, entry := range plexResponse.MediaContainer.Metadata {
		// We don't want to surface movie trailers
		if entry.Type == "clip" {
			continue
		}
		if c.Username != "" && entry.User.Title != c.Username {
			continue
		}
		if !c.libraryAllowed(entry.LibrarySectionTitle) {
			continue
		}
		snapshot := snapshotFromSession(entry)
		return &snapshot, nil
	}

	return nil, nil
}

func (c *Client) libraryAllowed(sectionTitle string) bool {
	if len(c.Libraries) == 0 {
		return true
	}
	for _, library := range c.Libraries {
		if library == sectionTitle {
			return true
		}
	}
	return false
}

func snapshotFromSession(entry Metadata) playback.Snapshot {
	state := playback.StatePaused
	if entry.Player.State == "playing" {
		state = playback.StatePlaying
	}

	viewOffset := entry.ViewOffset
	if viewOffset < 0 {
		viewOffset = 0
	}

	file := entry.RatingKey
	if len(entry.Media) > 0 && len(entry.Media[0].Part) > 0 && entry.Media[0].Part[0].File != "" {
		file = entry.Media[0].Part[0].File
	}

	return playback.Snapshot{
		Kind:             playback.KindFromPlexType(entry.Type),
		State:            state,
		Title:            entry.Title,
		ParentTitle:      entry.ParentTitle,
		GrandparentTitle: entry.GrandparentTitle,
		OriginalTitle:    entry.OriginalTitle,
		SeasonIndex:      entry.ParentIndex,
		EpisodeIndex:     entry.Index,
		Year:             entry.Year,
		DurationMs:       entry.Duration,
		ViewOffsetMs:     viewOffset,
		RatingKey:        entry.RatingKey,
		File:             file,
	}
}
