// Package strava reads athlete activities from the Strava API.
package strava

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type Activity struct {
	ID         int64
	Name       string
	SportType  string
	Distance   float64
	MovingTime int
	StartDate  time.Time
	Raw        []byte
}

type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// API is the subset of Strava the sync job needs.
type API interface {
	Activities(ctx context.Context, accessToken string, after time.Time, perPage int) ([]Activity, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Activities(ctx context.Context, accessToken string, after time.Time, perPage int) ([]Activity, error) {
	q := url.Values{}
	q.Set("per_page", fmt.Sprint(perPage))
	if !after.IsZero() {
		q.Set("after", fmt.Sprint(after.Unix()))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/athlete/activities?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("unexpected activities payload")
	}

	var activities []Activity
	parsed.ForEach(func(_, a gjson.Result) bool {
		start, _ := time.Parse(time.RFC3339, a.Get("start_date").String())
		sport := a.Get("sport_type").String()
		if sport == "" {
			sport = a.Get("type").String()
		}
		activities = append(activities, Activity{
			ID:         a.Get("id").Int(),
			Name:       a.Get("name").String(),
			SportType:  sport,
			Distance:   a.Get("distance").Float(),
			MovingTime: int(a.Get("moving_time").Int()),
			StartDate:  start,
			Raw:        []byte(a.Raw),
		})
		return true
	})
	return activities, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	return &Token{
		AccessToken:  gjson.GetBytes(body, "access_token").String(),
		RefreshToken: gjson.GetBytes(body, "refresh_token").String(),
		ExpiresAt:    time.Unix(gjson.GetBytes(body, "expires_at").Int(), 0).UTC(),
	}, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strava returned status %d: %s", resp.StatusCode, gjson.GetBytes(body, "message").String())
	}
	return body, nil
}
