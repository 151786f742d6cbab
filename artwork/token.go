package artwork

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const tokenDateFormat = "02-01-2006"

type storedToken struct {
	Token string `json:"token"`
	Date  string `json:"date"`
}

type tvdbLoginResponse struct {
	Data struct {
		Token string `json:"token"`
	} `json:"data"`
}

// RefreshToken makes sure the cached TVDB bearer token is still fresh.
// Runs on a schedule so a stale token gets replaced before a lookup
// needs it.
func (c *Client) RefreshToken(ctx context.Context) error {
	if c.TVDBAPIKey == "" {
		return nil
	}
	_, err := c.bearerToken(ctx)
	return err
}

// bearerToken returns a TVDB v4 bearer token, logging in and refreshing
// the on-disk copy once the stored one is over a calendar month old.
// TVDB tokens are valid for a month so anything younger gets reused.
func (c *Client) bearerToken(ctx context.Context) (string, error) {
	stored, err := c.readToken()
	if err == nil && monthsSince(stored.Date, c.now()) < 1 {
		return stored.Token, nil
	}

	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	if err := c.writeToken(token); err != nil {
		return "", err
	}
	return token, nil
}

func (c *Client) login(ctx context.Context) (string, error) {
	payload, err := json.Marshal(map[string]string{"apikey": c.TVDBAPIKey})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.TVDBBaseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to log in to TVDB: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("received %d status from TVDB login", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	var login tvdbLoginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		return "", fmt.Errorf("failed to parse TVDB login response: %w", err)
	}
	if login.Data.Token == "" {
		return "", fmt.Errorf("TVDB login returned an empty token")
	}
	return login.Data.Token, nil
}

func (c *Client) readToken() (storedToken, error) {
	raw, err := os.ReadFile(c.TokenPath)
	if err != nil {
		return storedToken{}, err
	}
	var stored storedToken
	if err := json.Unmarshal(raw, &stored); err != nil {
		return storedToken{}, err
	}
	return stored, nil
}

func (c *Client) writeToken(token string) error {
	raw, err := json.Marshal(storedToken{
		Token: token,
		Date:  c.now().Format(tokenDateFormat),
	})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.TokenPath), "token-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.TokenPath)
}

// monthsSince counts whole calendar months between a stored DD-MM-YYYY
// date and now. An unparseable date counts as stale.
func monthsSince(date string, now time.Time) int {
	stored, err := time.Parse(tokenDateFormat, date)
	if err != nil {
		return 12
	}
	return (now.Year()-stored.Year())*12 + int(now.Month()) - int(stored.Month())
}
