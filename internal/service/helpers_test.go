package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/binary"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/config"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/platform"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/testutil"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/version"
)

const testRepo = "JohnnyMorganz/StyLua"

// releaseServer publishes fake formatter releases. Every release carries a
// zip whose executable is a shell script reporting the release version.
type releaseServer struct {
	*httptest.Server
	t        *testing.T
	versions []string // newest first
	assets   map[string][]byte

	// rateLimitAnonymous rejects /latest without an Authorization header.
	rateLimitAnonymous bool
	requests           int32
}

func newReleaseServer(t *testing.T, versions ...string) *releaseServer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake formatter executables are shell scripts")
	}

	s := &releaseServer{t: t, versions: versions, assets: map[string][]byte{}}
	for _, v := range versions {
		s.assets[s.assetName(v)] = testutil.BuildZip(t, map[string]string{
			"stylua": "#!/bin/sh\n" + testutil.FormatterScript(v),
		})
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *releaseServer) assetName(v string) string {
	fragment := "linux"
	if runtime.GOOS == "darwin" {
		fragment = "macos"
	}
	return fmt.Sprintf("stylua-%s-%s.zip", v, fragment)
}

func (s *releaseServer) releaseJSON(v string) string {
	return fmt.Sprintf(`{"tag_name":"v%s","html_url":"https://example.com/v%s","assets":[{"name":%q,"browser_download_url":"%s/assets/%s"}]}`,
		v, v, s.assetName(v), s.URL, s.assetName(v))
}

func (s *releaseServer) handle(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requests, 1)
	base := "/repos/" + testRepo + "/releases"

	switch {
	case r.URL.Path == base+"/latest":
		if s.rateLimitAnonymous && r.Header.Get("Authorization") == "" {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("X-RateLimit-Reset", fmt.Sprint(time.Now().Add(time.Hour).Unix()))
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(s.releaseJSON(s.versions[0])))
	case r.URL.Path == base:
		items := make([]string, 0, len(s.versions))
		for _, v := range s.versions {
			items = append(items, s.releaseJSON(v))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	case strings.HasPrefix(r.URL.Path, "/assets/"):
		data, ok := s.assets[strings.TrimPrefix(r.URL.Path, "/assets/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	default:
		http.NotFound(w, r)
	}
}

// recordingUI answers offers from its fields and records every call.
type recordingUI struct {
	mu sync.Mutex

	acceptReinstall bool
	acceptUpdate    bool
	acceptAuth      bool

	reinstallOffers []version.Mismatch
	updateOffers    []release.Release
	authOffers      []error
	warnings        []string
}

func (u *recordingUI) OfferReinstall(_ context.Context, m version.Mismatch) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.reinstallOffers = append(u.reinstallOffers, m)
	return u.acceptReinstall
}

func (u *recordingUI) OfferUpdate(_ context.Context, rel release.Release) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.updateOffers = append(u.updateOffers, rel)
	return u.acceptUpdate
}

func (u *recordingUI) OfferAuthentication(_ context.Context, err error) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.authOffers = append(u.authOffers, err)
	return u.acceptAuth
}

func (u *recordingUI) Warn(msg string, err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil {
		msg += ": " + err.Error()
	}
	u.warnings = append(u.warnings, msg)
}

// tokenProvider hands out a token only when allowed to prompt.
type tokenProvider struct{}

func (tokenProvider) Session(_ context.Context, interactive bool) (*release.Session, error) {
	if !interactive {
		return nil, release.ErrNoSession
	}
	return &release.Session{ID: "session-1", AccessToken: "secret"}, nil
}

type harness struct {
	svc         *Service
	ui          *recordingUI
	server      *releaseServer
	manager     *binary.Manager
	credentials *release.Credentials
	clock       *TestClock
	workDir     string
}

// newHarness wires a Service to server with real download, install and
// version query code.
func newHarness(t *testing.T, server *releaseServer, settings *config.Settings) *harness {
	t.Helper()
	env := testutil.SetupTestEnv(t)

	credentials := release.NewCredentials(tokenProvider{})
	client := release.NewClient(testRepo,
		release.WithAPIURL(server.URL),
		release.WithTokenSource(credentials),
	)

	manager, err := binary.NewManager(binary.Config{
		StorageDir: filepath.Join(env.DataDir, "bin"),
		CacheDir:   env.CacheDir,
		Platform:   &platform.Info{OS: runtime.GOOS, Arch: runtime.GOARCH},
		Releases:   client,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	ui := &recordingUI{}
	clock := &TestClock{FixedTime: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	svc, err := New(Config{
		Settings:    settings,
		Installer:   manager,
		Releases:    client,
		Credentials: credentials,
		UI:          ui,
		Clock:       clock,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	return &harness{
		svc:         svc,
		ui:          ui,
		server:      server,
		manager:     manager,
		credentials: credentials,
		clock:       clock,
		workDir:     t.TempDir(),
	}
}

// bundledSettings disables the search path so tests never pick up a
// formatter installed on the machine.
func bundledSettings(v string) *config.Settings {
	s := config.Defaults()
	s.SearchPath = false
	s.Version = v
	return s
}

// blockingUI holds OfferReinstall open until release is closed, standing in
// for a user who has not answered yet.
type blockingUI struct {
	recordingUI
	entered chan struct{}
	release chan struct{}
}

func newBlockingUI() *blockingUI {
	return &blockingUI{entered: make(chan struct{}), release: make(chan struct{})}
}

func (u *blockingUI) OfferReinstall(context.Context, version.Mismatch) bool {
	close(u.entered)
	<-u.release
	return false
}
