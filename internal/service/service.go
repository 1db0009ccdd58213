// Package service runs the fmtsync flows: activation, configuration change,
// reinstall, update and check. Flows run one at a time; the resolved binary
// they publish is read lock-free by formatting requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/binary"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/config"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/format"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/resolve"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/version"
)

// Releases provides release metadata.
type Releases interface {
	Latest(ctx context.Context) (release.Release, error)
	AllReleases(ctx context.Context) ([]release.Release, error)
}

// Authenticator holds the API credential.
type Authenticator interface {
	Present() bool
	Authenticate(ctx context.Context) error
}

// Formatter pipes text through an executable.
type Formatter interface {
	Format(ctx context.Context, path, text string, opts format.Options) (string, error)
}

// Config holds the service's collaborators.
type Config struct {
	Settings    *config.Settings
	Installer   resolve.Installer
	Releases    Releases
	Credentials Authenticator
	UI          UI
	Formatter   Formatter
	Clock       Clock
	Logger      logging.Logger

	// ResolveOptions are passed to every Resolver (tests replace lookups).
	ResolveOptions []resolve.Option
}

// Service owns the current resolved binary.
type Service struct {
	installer   resolve.Installer
	releases    Releases
	credentials Authenticator
	ui          UI
	formatter   Formatter
	clock       Clock
	log         logging.Logger
	resolveOpts []resolve.Option

	// mu serializes flows; the fields below are written only under it.
	mu         sync.Mutex
	workDir    string
	generation uint64

	// settings and current are read without mu so formatting never waits
	// on a flow that is downloading or prompting.
	settings atomic.Pointer[config.Settings]
	current  atomic.Pointer[resolve.Binary]
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Settings == nil {
		return nil, fmt.Errorf("Settings is required")
	}
	if cfg.Installer == nil {
		return nil, fmt.Errorf("Installer is required")
	}

	s := &Service{
		installer:   cfg.Installer,
		releases:    cfg.Releases,
		credentials: cfg.Credentials,
		ui:          cfg.UI,
		formatter:   cfg.Formatter,
		clock:       cfg.Clock,
		log:         logging.OrNoop(cfg.Logger),
		resolveOpts: cfg.ResolveOptions,
	}
	s.settings.Store(cfg.Settings)
	if s.ui == nil {
		s.ui = NewLogUI(s.log)
	}
	if s.formatter == nil {
		s.formatter = format.New()
	}
	if s.clock == nil {
		s.clock = RealClock{}
	}
	return s, nil
}

// Current returns the published binary, or nil before the first
// successful resolution. The value must not be modified.
func (s *Service) Current() *resolve.Binary {
	return s.current.Load()
}

// Settings returns the settings in effect.
func (s *Service) Settings() *config.Settings {
	return s.settings.Load()
}

// Activate resolves the formatter for workDir, publishes it and reconciles
// its version, offering reinstall, update or authentication through the UI.
func (s *Service) Activate(ctx context.Context, workDir string) (*resolve.Binary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workDir = workDir
	bin, err := s.withAuthentication(ctx, s.resolveLocked)
	if err != nil {
		return nil, err
	}
	s.reconcileLocked(ctx, bin, false)
	return s.Current(), nil
}

// ConfigChanged applies new settings. Resolution is redone only when a
// setting it depends on changed.
func (s *Service) ConfigChanged(ctx context.Context, settings *config.Settings) (*resolve.Binary, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.settings.Swap(settings)
	if !affectsResolution(old, settings) && s.Current() != nil {
		s.log.Debug("settings changed, resolution unaffected")
		return s.Current(), nil
	}

	s.log.Info("settings changed, resolving formatter again")
	bin, err := s.withAuthentication(ctx, s.resolveLocked)
	if err != nil {
		return nil, err
	}
	s.reconcileLocked(ctx, bin, false)
	return s.Current(), nil
}

// Reinstall downloads the desired version into storage, replacing any
// bundled copy, and resolves again.
func (s *Service) Reinstall(ctx context.Context) (*resolve.Binary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installWithAuthentication(ctx, s.Settings().DesiredVersion())
}

// InstallVersion downloads version ("latest" or a tag) into storage and
// resolves again.
func (s *Service) InstallVersion(ctx context.Context, v string) (*resolve.Binary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installWithAuthentication(ctx, v)
}

// Check resolves the formatter and reports how its version compares to the
// desired and the latest release. Reinstall and update are never offered;
// authentication is, when acquiring a missing binary hits the release API
// anonymously and fails.
func (s *Service) Check(ctx context.Context, workDir string) (*resolve.Binary, version.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workDir = workDir
	bin, err := s.withAuthentication(ctx, s.resolveLocked)
	if err != nil {
		return nil, version.Report{}, err
	}
	return bin, s.reconciler().Reconcile(ctx, bin.Version, s.Settings().DesiredVersion()), nil
}

// Releases lists the published releases, newest first.
func (s *Service) Releases(ctx context.Context) ([]release.Release, error) {
	if s.releases == nil {
		return nil, fmt.Errorf("no release source configured")
	}
	return s.releases.AllReleases(ctx)
}

// Format pipes text through the current binary of variant.
func (s *Service) Format(ctx context.Context, variant resolve.Variant, text string, opts format.Options) (string, error) {
	bin := s.Current()
	if bin == nil {
		return "", format.ErrNoExecutable
	}

	settings := s.Settings()
	if len(settings.Args) > 0 {
		opts.Args = append(append([]string{}, settings.Args...), opts.Args...)
	}
	return s.formatter.Format(ctx, bin.Path(variant), text, opts)
}

// resolveLocked runs one resolution pass and publishes its result.
func (s *Service) resolveLocked(ctx context.Context) (*resolve.Binary, error) {
	opts := append([]resolve.Option{resolve.WithLogger(s.log)}, s.resolveOpts...)
	r := resolve.NewResolver(resolveSettings(s.Settings()), s.installer, opts...)

	bin, err := r.Resolve(ctx, s.workDir)
	if err != nil {
		if errors.Is(err, resolve.ErrConfiguredPathMissing) {
			s.ui.Warn("the configured formatter path does not exist, fix the path setting", err)
		}
		return nil, err
	}

	s.generation++
	published := bin.Stamp(s.generation, s.clock.Now())
	s.current.Store(published)

	s.log.Info("resolved formatter",
		"path", published.Standard,
		"mode", published.Mode.String(),
		"version", version.Format(published.Version),
		"generation", published.Generation)
	return published, nil
}

// reconcileLocked compares the binary's version against the desired and
// latest versions and acts on the user's answers. A failed latest-release
// lookup may be retried once after authenticating; the retry only repeats
// the latest-release half so an answered reinstall offer is not asked again.
func (s *Service) reconcileLocked(ctx context.Context, bin *resolve.Binary, retry bool) {
	desired := s.Settings().DesiredVersion()
	report := s.reconciler().Reconcile(ctx, bin.Version, desired)
	bundled := bin.Mode == resolve.ModeBundled

	if report.Mismatch != nil && !retry {
		if !bundled {
			s.ui.Warn(fmt.Sprintf("%s reports version %s but %s is configured; it is managed outside fmtsync",
				bin.Standard, version.Format(report.Mismatch.Installed), report.Mismatch.Desired), nil)
		} else if s.ui.OfferReinstall(ctx, *report.Mismatch) {
			if _, err := s.installWithAuthentication(ctx, desired); err != nil {
				s.ui.Warn("reinstalling the formatter failed", err)
			}
			return
		}
	}

	if report.LatestErr != nil {
		if !retry && report.CanAuthenticate && s.offerAuthentication(ctx, report.LatestErr) {
			s.reconcileLocked(ctx, bin, true)
			return
		}
		s.ui.Warn("could not check for formatter updates", report.LatestErr)
		return
	}

	if report.Update == nil {
		return
	}
	if !bundled || desired != release.LatestVersion {
		s.log.Info("newer formatter release available", "installed", version.Format(bin.Version), "latest", report.Update.TagName)
		return
	}
	if s.ui.OfferUpdate(ctx, *report.Update) {
		if _, err := s.installWithAuthentication(ctx, report.Update.TagName); err != nil {
			s.ui.Warn("updating the formatter failed", err)
		}
	}
}

// withAuthentication runs pass and, when it failed on a release API request
// made without a credential, offers to sign in and runs it once more.
func (s *Service) withAuthentication(ctx context.Context, pass func(context.Context) (*resolve.Binary, error)) (*resolve.Binary, error) {
	bin, err := pass(ctx)
	if err == nil || !isReleaseFetchError(err) {
		return bin, err
	}
	if s.credentials == nil || s.credentials.Present() {
		return nil, err
	}
	if !s.offerAuthentication(ctx, err) {
		return nil, err
	}
	return pass(ctx)
}

func (s *Service) installWithAuthentication(ctx context.Context, v string) (*resolve.Binary, error) {
	return s.withAuthentication(ctx, func(ctx context.Context) (*resolve.Binary, error) {
		return s.installLocked(ctx, v)
	})
}

// offerAuthentication asks the user to sign in after cause and reports
// whether a credential was obtained.
func (s *Service) offerAuthentication(ctx context.Context, cause error) bool {
	if s.credentials == nil || !s.ui.OfferAuthentication(ctx, cause) {
		return false
	}
	if err := s.credentials.Authenticate(ctx); err != nil {
		s.ui.Warn("authentication failed", err)
		return false
	}
	return true
}

// isReleaseFetchError reports whether err came from an HTTP request that a
// credential could help with: an error status (rate limiting included) or a
// transport failure.
func isReleaseFetchError(err error) bool {
	var statusErr *release.StatusError
	if errors.As(err, &statusErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// installLocked installs v for every tracked artifact and resolves again.
func (s *Service) installLocked(ctx context.Context, v string) (*resolve.Binary, error) {
	settings := s.Settings()
	artifacts := []binary.Artifact{binary.Artifact(settings.Tool)}
	if settings.SecondaryTool != "" && settings.SecondaryTool != settings.Tool {
		artifacts = append(artifacts, binary.Artifact(settings.SecondaryTool))
	}

	for _, artifact := range artifacts {
		result, err := s.installer.Install(ctx, binary.DownloadOptions{Artifact: artifact, Version: v})
		if err != nil {
			return nil, fmt.Errorf("install %s %s: %w", artifact, v, err)
		}
		s.log.Info("installed formatter", "artifact", artifact.String(), "tag", result.Tag, "verified", result.Verified.String())
	}

	return s.resolveLocked(ctx)
}

func (s *Service) reconciler() *version.Reconciler {
	opts := []version.ReconcilerOption{
		version.WithUpdateCheckDisabled(s.Settings().DisableVersionCheck),
		version.WithLogger(s.log),
	}
	if s.credentials != nil {
		opts = append(opts, version.WithCredentials(s.credentials))
	}

	var latest version.LatestSource
	if s.releases != nil {
		latest = s.releases
	}
	return version.NewReconciler(latest, opts...)
}

func resolveSettings(s *config.Settings) resolve.Settings {
	return resolve.Settings{
		Tool:           s.Tool,
		SecondaryTool:  s.SecondaryTool,
		Path:           s.Path,
		SecondaryPath:  s.SecondaryPath,
		SearchPath:     s.SearchPath,
		DesiredVersion: s.DesiredVersion(),
		VersionPrefix:  s.VersionPrefix,
	}
}

// affectsResolution reports whether moving from old to updated changes
// which executable resolution would pick.
func affectsResolution(old, updated *config.Settings) bool {
	if old == nil {
		return true
	}
	return resolveSettings(old) != resolveSettings(updated)
}
