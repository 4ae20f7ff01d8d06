package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// VideoFile is one rendition of a stock video.
type VideoFile struct {
	Quality string `json:"quality"`
	Link    string `json:"link"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

type Video struct {
	ID       int         `json:"id"`
	Duration int         `json:"duration"`
	Files    []VideoFile `json:"video_files"`
}

type searchResponse struct {
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}

// StatusError is a non-success answer from the stock provider.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Body)
}

// Client talks to the Pexels video API.
type Client struct {
	BaseURL     string
	APIKey      string
	PerPage     int
	Orientation string
	HTTP        *http.Client
}

func NewClient(baseURL, apiKey string, perPage int, orientation string, timeout time.Duration) *Client {
	if perPage < 1 {
		perPage = 1
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		APIKey:      apiKey,
		PerPage:     perPage,
		Orientation: orientation,
		HTTP:        &http.Client{Timeout: timeout},
	}
}

// Search returns the videos matching query, best match first.
func (c *Client) Search(ctx context.Context, query string) ([]Video, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(c.PerPage))
	if c.Orientation != "" {
		q.Set("orientation", c.Orientation)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/videos/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Op: fmt.Sprintf("search %q", query), Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search %q: %w", query, err)
	}
	return sr.Videos, nil
}

// Open starts the download of a video file. The caller closes the body.
func (c *Client) Open(ctx context.Context, link string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{Op: "download", Status: resp.StatusCode}
	}
	return resp.Body, nil
}

// SelectFile picks the first file of the preferred quality tier, otherwise
// the first file. ok is false when the video has no files.
func SelectFile(v Video, quality string) (VideoFile, bool) {
	if len(v.Files) == 0 {
		return VideoFile{}, false
	}
	for _, f := range v.Files {
		if strings.EqualFold(f.Quality, quality) {
			return f, true
		}
	}
	return v.Files[0], true
}
