package release

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

const releasesJSON = `[
	{"tag_name":"v0.20.0","html_url":"https://example.com/v0.20.0","assets":[{"name":"stylua-linux-x86_64.zip","browser_download_url":"https://example.com/0.20.0.zip"}]},
	{"tag_name":"v0.19.1","html_url":"https://example.com/v0.19.1","assets":[]},
	{"tag_name":"v0.19.0","html_url":"https://example.com/v0.19.0","assets":[]}
]`

type staticTokens string

func (s staticTokens) Token(context.Context) string { return string(s) }

func newReleaseServer(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != wantAuth {
			t.Errorf("Authorization = %q, want %q", got, wantAuth)
		}
		if r.Header.Get("User-Agent") != DefaultUserAgent {
			t.Errorf("unexpected User-Agent: %s", r.Header.Get("User-Agent"))
		}
		switch r.URL.Path {
		case "/repos/JohnnyMorganz/StyLua/releases":
			_, _ = w.Write([]byte(releasesJSON))
		case "/repos/JohnnyMorganz/StyLua/releases/latest":
			_, _ = w.Write([]byte(`{"tag_name":"v0.20.0","html_url":"https://example.com/v0.20.0","assets":[]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestClientRelease(t *testing.T) {
	server := newReleaseServer(t, "")
	defer server.Close()

	client := NewClient("JohnnyMorganz/StyLua", WithAPIURL(server.URL))
	if client.Repository() != "JohnnyMorganz/StyLua" {
		t.Errorf("Repository = %q", client.Repository())
	}

	tests := []struct {
		name    string
		version string
		wantTag string
		wantErr error
	}{
		{name: "latest", version: "latest", wantTag: "v0.20.0"},
		{name: "empty_means_latest", version: "", wantTag: "v0.20.0"},
		{name: "exact_with_prefix", version: "v0.19.1", wantTag: "v0.19.1"},
		{name: "exact_without_prefix", version: "0.19.0", wantTag: "v0.19.0"},
		{name: "prefix_match_first_wins", version: "0.19", wantTag: "v0.19.1"},
		{name: "missing", version: "1.0.0", wantErr: ErrNoReleaseFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Release(context.Background(), tt.version)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.TagName != tt.wantTag {
				t.Errorf("tag = %q, want %q", got.TagName, tt.wantTag)
			}
		})
	}
}

func TestClientAttachesToken(t *testing.T) {
	server := newReleaseServer(t, "token s3cret")
	defer server.Close()

	client := NewClient("JohnnyMorganz/StyLua", WithAPIURL(server.URL), WithTokenSource(staticTokens("s3cret")))
	releases, err := client.AllReleases(context.Background())
	if err != nil {
		t.Fatalf("AllReleases failed: %v", err)
	}
	if len(releases) != 3 {
		t.Fatalf("got %d releases, want 3", len(releases))
	}
	if releases[0].Assets[0].DownloadURL != "https://example.com/0.20.0.zip" {
		t.Errorf("unexpected asset: %+v", releases[0].Assets[0])
	}
}

func TestClientNonArrayListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"weird"}`))
	}))
	defer server.Close()

	client := NewClient("a/b", WithAPIURL(server.URL))
	releases, err := client.AllReleases(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(releases) != 0 {
		t.Errorf("expected empty list, got %v", releases)
	}

	_, err = client.Release(context.Background(), "1.0.0")
	if !errors.Is(err, ErrNoReleaseFound) {
		t.Errorf("err = %v, want ErrNoReleaseFound", err)
	}
}

func TestClientRateLimited(t *testing.T) {
	reset := time.Now().Add(10 * time.Minute).Unix()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset, 10))
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient("a/b", WithAPIURL(server.URL))
	_, err := client.Latest(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !statusErr.RateLimited {
		t.Error("expected RateLimited")
	}
	if statusErr.ResetIn <= 0 || statusErr.ResetIn > 11*time.Minute {
		t.Errorf("ResetIn = %s, want about 10m", statusErr.ResetIn)
	}
}

func TestClientServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("a/b", WithAPIURL(server.URL))
	_, err := client.AllReleases(context.Background())

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.RateLimited || statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("unexpected status error: %+v", statusErr)
	}
}
