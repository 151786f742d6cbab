// Package artwork resolves cover and artist imagery for media items from
// TVDB, MusicBrainz, the Cover Art Archive and fanart.tv. Lookups are
// best-effort: every failure degrades to an empty URL so callers can fall
// back to their static asset keys, and successful results are cached to
// keep per-poll latency and external call volume down.
package artwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tmichel/herald/cache"
	"github.com/tmichel/herald/config"
	"github.com/tmichel/herald/utils"
)

const (
	DefaultTVDBBaseURL        = "https://api4.thetvdb.com/v4"
	DefaultFanartBaseURL      = "https://webservice.fanart.tv/v3"
	DefaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	DefaultCoverArtBaseURL    = "https://coverartarchive.org"
)

type Kind string

const (
	KindTV     Kind = "tv"
	KindMovies Kind = "movies"
	KindMusic  Kind = "music"
)

type Client struct {
	TVDBBaseURL        string
	FanartBaseURL      string
	MusicBrainzBaseURL string
	CoverArtBaseURL    string
	TVDBAPIKey         string
	FanartAPIKey       string
	TokenPath          string
	HTTPClient         *http.Client

	store *cache.Cache
	now   func() time.Time
}

func NewClient(cfg config.Config, store *cache.Cache) *Client {
	return &Client{
		TVDBBaseURL:        DefaultTVDBBaseURL,
		FanartBaseURL:      DefaultFanartBaseURL,
		MusicBrainzBaseURL: DefaultMusicBrainzBaseURL,
		CoverArtBaseURL:    DefaultCoverArtBaseURL,
		TVDBAPIKey:         cfg.TVDB.APIKey,
		FanartAPIKey:       cfg.Fanart.APIKey,
		TokenPath:          "token_bearer.json",
		HTTPClient:         utils.NewHTTPClient(),
		store:              store,
		now:                time.Now,
	}
}

// CoverURL finds a cover image for a show, movie or album. The artist
// argument only matters for music lookups. Returns "" when no cover could
// be found for any reason.
func (c *Client) CoverURL(ctx context.Context, kind Kind, name, artist string) string {
	cacheKey := fmt.Sprintf("cover_%s_%s_%s", kind, name, artist)
	if c.store != nil {
		if cached, ok := c.store.Get(cacheKey); ok {
			return cached
		}
	}

	var coverURL string
	switch kind {
	case KindTV:
		coverURL = c.tvdbImage(ctx, name, "series")
	case KindMovies:
		coverURL = c.tvdbImage(ctx, name, "movie")
	case KindMusic:
		coverURL = c.albumCover(ctx, name, artist)
	default:
		slog.Error("Unsupported artwork kind", slog.String("kind", string(kind)))
		return ""
	}

	if coverURL != "" && c.store != nil {
		if err := c.store.Set(cacheKey, coverURL); err != nil {
			slog.Error("Failed to cache cover URL", slog.String("error", err.Error()))
		}
	}
	return coverURL
}

// ArtistImageURL finds a portrait for an artist via MusicBrainz and
// fanart.tv. Returns "" when nothing usable turns up.
func (c *Client) ArtistImageURL(ctx context.Context, name string) string {
	cacheKey := fmt.Sprintf("artist_picture_%s", name)
	if c.store != nil {
		if cached, ok := c.store.Get(cacheKey); ok {
			return cached
		}
	}

	artistID := c.musicBrainzArtistID(ctx, name)
	if artistID == "" {
		return ""
	}

	var fanartResponse struct {
		ArtistThumb []struct {
			URL string `json:"url"`
		} `json:"artistthumb"`
		ArtistBackground []struct {
			URL string `json:"url"`
		} `json:"artistbackground"`
	}
	fanartURL := fmt.Sprintf("%s/music/%s?api_key=%s", c.FanartBaseURL, artistID, c.FanartAPIKey)
	if err := c.getJSON(ctx, fanartURL, "", &fanartResponse); err != nil {
		slog.Error("Failed to fetch artist picture",
			slog.String("error", err.Error()),
			slog.String("artist", name),
		)
		return ""
	}

	pictureURL := ""
	if len(fanartResponse.ArtistThumb) > 0 {
		pictureURL = fanartResponse.ArtistThumb[0].URL
	} else if len(fanartResponse.ArtistBackground) > 0 {
		pictureURL = fanartResponse.ArtistBackground[0].URL
	}

	if pictureURL != "" && c.store != nil {
		if err := c.store.Set(cacheKey, pictureURL); err != nil {
			slog.Error("Failed to cache artist picture", slog.String("error", err.Error()))
		}
	}
	return pictureURL
}

// tvdbImage resolves a series or movie poster by searching TVDB for the
// title and pulling the image off the record itself.
func (c *Client) tvdbImage(ctx context.Context, name, searchType string) string {
	token, err := c.bearerToken(ctx)
	if err != nil {
		slog.Error("Failed to obtain TVDB token", slog.String("error", err.Error()))
		return ""
	}

	var searchResponse struct {
		Data []struct {
			TVDBId string `json:"tvdb_id"`
		} `json:"data"`
	}
	searchURL := fmt.Sprintf("%s/search?q=%s&type=%s", c.TVDBBaseURL, url.QueryEscape(name), searchType)
	if err := c.getJSON(ctx, searchURL, token, &searchResponse); err != nil {
		slog.Error("Failed to search TVDB",
			slog.String("error", err.Error()),
			slog.String("title", name),
		)
		return ""
	}
	if len(searchResponse.Data) == 0 {
		slog.Debug("No TVDB match", slog.String("title", name))
		return ""
	}

	route := "series"
	if searchType == "movie" {
		route = "movies"
	}
	var recordResponse struct {
		Data struct {
			Image string `json:"image"`
		} `json:"data"`
	}
	recordURL := fmt.Sprintf("%s/%s/%s", c.TVDBBaseURL, route, searchResponse.Data[0].TVDBId)
	if err := c.getJSON(ctx, recordURL, token, &recordResponse); err != nil {
		slog.Error("Failed to fetch TVDB record",
			slog.String("error", err.Error()),
			slog.String("title", name),
		)
		return ""
	}
	return recordResponse.Data.Image
}

// albumCover searches MusicBrainz for the release and follows the Cover
// Art Archive redirect for its front cover.
func (c *Client) albumCover(ctx context.Context, album, artist string) string {
	query := fmt.Sprintf("release:%s", escapeLucene(album))
	if artist != "" {
		query = fmt.Sprintf("artist:%s AND release:%s", escapeLucene(artist), escapeLucene(album))
	}

	var releaseResponse struct {
		Releases []struct {
			Id        string `json:"id"`
			Title     string `json:"title"`
			Packaging string `json:"packaging"`
		} `json:"releases"`
	}
	searchURL := fmt.Sprintf("%s/release?query=%s", c.MusicBrainzBaseURL, url.QueryEscape(query))
	if err := c.getJSON(ctx, searchURL, "", &releaseResponse); err != nil {
		slog.Error("Failed to search MusicBrainz",
			slog.String("error", err.Error()),
			slog.String("album", album),
		)
		return ""
	}
	if len(releaseResponse.Releases) == 0 {
		slog.Debug("No MusicBrainz match", slog.String("album", album))
		return ""
	}

	// Physical pressings tend to carry scanned covers so prefer an exact
	// title match on one of those over whatever sorts first
	releaseID := releaseResponse.Releases[0].Id
	for _, release := range releaseResponse.Releases {
		if !strings.EqualFold(release.Title, album) {
			continue
		}
		if release.Packaging == "None" || release.Packaging == "Jewel Case" {
			releaseID = release.Id
			break
		}
	}

	return c.coverArtFront(ctx, releaseID)
}

// coverArtFront asks the Cover Art Archive where the front cover for a
// release lives. The archive answers with a redirect rather than a body.
func (c *Client) coverArtFront(ctx context.Context, releaseID string) string {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/release/%s/front", c.CoverArtBaseURL, releaseID), nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", utils.UserAgent)

	client := *c.HTTPClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	res, err := client.Do(req)
	if err != nil {
		slog.Error("Failed to fetch album cover",
			slog.String("error", err.Error()),
			slog.String("release_id", releaseID),
		)
		return ""
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	return res.Header.Get("Location")
}

func (c *Client) musicBrainzArtistID(ctx context.Context, name string) string {
	var artistResponse struct {
		Artists []struct {
			Id string `json:"id"`
		} `json:"artists"`
	}
	searchURL := fmt.Sprintf("%s/artist?query=%s", c.MusicBrainzBaseURL, url.QueryEscape(escapeLucene(name)))
	if err := c.getJSON(ctx, searchURL, "", &artistResponse); err != nil {
		slog.Error("Failed to search MusicBrainz for artist",
			slog.String("error", err.Error()),
			slog.String("artist", name),
		)
		return ""
	}
	if len(artistResponse.Artists) == 0 {
		return ""
	}
	return artistResponse.Artists[0].Id
}

func (c *Client) getJSON(ctx context.Context, rawURL, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("received %d status from %s", res.StatusCode, req.URL.Host)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// escapeLucene backslash-escapes wildcard characters so titles like "?"
// don't explode MusicBrainz's query parser.
func escapeLucene(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '?' || r == '*' {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
