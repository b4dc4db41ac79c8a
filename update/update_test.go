package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		version string
		want    []int
	}{
		{version: "1.0.0", want: []int{1, 0, 0}},
		{version: "v2.10.3", want: []int{2, 10, 3}},
		{version: "v1.x.3", want: []int{1, 0, 3}},
		{version: "1.0.0-beta", want: []int{1, 0, 0}},
		{version: "", want: []int{0}},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVersion(tt.version))
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "1.0.1", b: "1.0.0", want: 1},
		{a: "1.0.0", b: "1.0.0", want: 0},
		{a: "1.2", b: "1.10", want: -1},
		{a: "2.0", b: "1.9.9", want: 1},
		{a: "1.0", b: "1.0.0", want: -1},
		{a: "v1.0.0", b: "1.0.0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(ParseVersion(tt.a), ParseVersion(tt.b)))
		})
	}
}

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server
}

func TestCheck(t *testing.T) {
	server := feedServer(t, http.StatusOK, `{
		"tag_name": "v1.2.0",
		"assets": [
			{"name": "checksums.txt", "browser_download_url": "https://example.com/checksums.txt"},
			{"name": "sleepwatch.zip", "browser_download_url": "https://example.com/sleepwatch.zip"}
		]
	}`)

	release, err := NewChecker("1.0.0", WithFeedURL(server.URL)).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", release.Version)
	assert.Equal(t, "https://example.com/sleepwatch.zip", release.DownloadURL)
	assert.True(t, release.HasUpdate)
}

func TestCheckUpToDate(t *testing.T) {
	server := feedServer(t, http.StatusOK, `{"tag_name": "v1.0.0", "assets": []}`)

	release, err := NewChecker("1.0.0", WithFeedURL(server.URL)).Check(context.Background())
	require.NoError(t, err)
	assert.False(t, release.HasUpdate)
	assert.Equal(t, DefaultReleasesURL, release.DownloadURL)
}

func TestCheckFailure(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops"},
		{name: "malformed body", status: http.StatusOK, body: "{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := feedServer(t, tt.status, tt.body)

			_, err := NewChecker("1.0.0", WithFeedURL(server.URL)).Check(context.Background())
			assert.ErrorIs(t, err, ErrCheckFailed)
		})
	}
}

func TestCheckUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewChecker("1.0.0", WithFeedURL(url)).Check(context.Background())
	assert.ErrorIs(t, err, ErrCheckFailed)
}
