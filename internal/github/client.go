package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const apiBase = "https://api.github.com/repos"

// ErrReadmeNotFound means the repository has no README the API will
// hand out (missing repo, private repo or no README at all).
var ErrReadmeNotFound = errors.New("readme not found")

// Client fetches repository READMEs through the GitHub REST API.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient() *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: apiBase,
	}
}

// FetchReadme returns the raw README text for owner/repo.
func (c *Client) FetchReadme(ctx context.Context, owner, repo string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/readme", c.BaseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github.v3.raw")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ErrReadmeNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
