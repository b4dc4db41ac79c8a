// Package update checks the release feed for newer versions.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultFeedURL is the release feed queried for the latest release.
	DefaultFeedURL = "https://api.github.com/repos/darkhz/sleepwatch/releases/latest"

	// DefaultReleasesURL is the page opened if a release has no archive.
	DefaultReleasesURL = "https://github.com/darkhz/sleepwatch/releases/latest"

	// DefaultTimeout bounds a single update check.
	DefaultTimeout = 5 * time.Second

	userAgent = "sleepwatch"
)

// ErrCheckFailed is returned if the release feed cannot be queried.
var ErrCheckFailed = errors.New("update check failed, check your connection")

// Release describes the latest published release.
type Release struct {
	Version     string
	DownloadURL string
	HasUpdate   bool
}

// Checker queries the release feed.
type Checker struct {
	current     string
	feedURL     string
	releasesURL string
	client      *http.Client
}

// NewChecker returns a new update checker for the provided current version.
func NewChecker(current string, opts ...Option) *Checker {
	c := &Checker{
		current:     current,
		feedURL:     DefaultFeedURL,
		releasesURL: DefaultReleasesURL,
		client:      &http.Client{Timeout: DefaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Option is an option for the checker.
type Option func(c *Checker)

// WithFeedURL sets the release feed URL.
func WithFeedURL(url string) Option {
	return func(c *Checker) {
		c.feedURL = url
	}
}

// WithHTTPClient sets the HTTP client used to query the feed.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Checker) {
		c.client = client
	}
}

// Current returns the current version.
func (c *Checker) Current() string {
	return c.current
}

type releaseFeed struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Check queries the release feed and compares the latest release
// with the current version.
func (c *Checker) Check(ctx context.Context) (Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return Release{}, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("%w: unexpected status %s", ErrCheckFailed, resp.Status)
	}

	var feed releaseFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return Release{}, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}

	release := Release{
		Version:     strings.TrimPrefix(feed.TagName, "v"),
		DownloadURL: c.releasesURL,
	}
	for _, asset := range feed.Assets {
		if strings.HasSuffix(asset.Name, ".zip") {
			release.DownloadURL = asset.BrowserDownloadURL
			break
		}
	}
	release.HasUpdate = Compare(ParseVersion(release.Version), ParseVersion(c.current)) > 0

	return release, nil
}

// ParseVersion splits a version string into its numeric segments.
// A leading "v" is ignored, and segments which are not integers are read as zero.
func ParseVersion(version string) []int {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if version == "" {
		return []int{0}
	}

	segments := strings.Split(version, ".")
	parsed := make([]int, 0, len(segments))
	for _, segment := range segments {
		n, err := strconv.Atoi(segment)
		if err != nil || n < 0 {
			n = 0
		}

		parsed = append(parsed, n)
	}

	return parsed
}

// Compare compares two versions segment by segment.
// If one version is a prefix of the other, the shorter version is older.
func Compare(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1

		case a[i] > b[i]:
			return 1
		}
	}

	switch {
	case len(a) < len(b):
		return -1

	case len(a) > len(b):
		return 1
	}

	return 0
}
