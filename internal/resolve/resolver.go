package resolve

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/binary"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/version"
)

// Settings are the configuration values resolution depends on.
type Settings struct {
	// Tool is the executable and artifact name, e.g. "stylua".
	Tool string
	// SecondaryTool names a distinct artifact for the secondary variant.
	SecondaryTool string

	// Path and SecondaryPath are explicit executable locations.
	Path          string
	SecondaryPath string

	// SearchPath enables lookup on the process search path.
	SearchPath bool

	// DesiredVersion is installed when no bundled copy exists.
	DesiredVersion string

	// VersionPrefix precedes the version in "--version" output.
	VersionPrefix string
}

// Installer manages executables in private storage.
type Installer interface {
	BinaryPath(artifact binary.Artifact) string
	IsInstalled(artifact binary.Artifact) (bool, error)
	Install(ctx context.Context, opts binary.DownloadOptions) (*binary.InstallResult, error)
}

// VersionQuery reports the version of the executable at path.
type VersionQuery func(ctx context.Context, path, prefix, workDir string) (string, error)

// Resolver applies the configured, search-path, bundled precedence.
type Resolver struct {
	settings     Settings
	installer    Installer
	lookPath     func(file string) (string, error)
	queryVersion VersionQuery
	log          logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(file string) (string, error)) Option {
	return func(r *Resolver) { r.lookPath = fn }
}

// WithVersionQuery replaces version.Query.
func WithVersionQuery(fn VersionQuery) Option {
	return func(r *Resolver) { r.queryVersion = fn }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// NewResolver creates a Resolver for settings.
func NewResolver(settings Settings, installer Installer, opts ...Option) *Resolver {
	r := &Resolver{
		settings:     settings,
		installer:    installer,
		lookPath:     exec.LookPath,
		queryVersion: version.Query,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNoop(r.log)
	return r
}

// Resolve determines the executables to use. workDir anchors relative
// configured paths and is the directory the version query runs in.
//
// A configured path never falls back: when it is missing Resolve fails with
// ErrConfiguredPathMissing without consulting the search path or
// downloading anything. A binary on the search path that cannot report its
// version is skipped. A missing bundled copy is installed first.
func (r *Resolver) Resolve(ctx context.Context, workDir string) (*Binary, error) {
	if r.settings.Path != "" {
		return r.fromConfiguration(ctx, workDir)
	}

	if r.settings.SearchPath {
		if bin, ok := r.fromSearchPath(ctx, workDir); ok {
			return bin, nil
		}
	}

	return r.fromStorage(ctx, workDir)
}

func (r *Resolver) fromConfiguration(ctx context.Context, workDir string) (*Binary, error) {
	standard := absolute(r.settings.Path, workDir)
	secondary := standard
	if r.settings.SecondaryPath != "" {
		secondary = absolute(r.settings.SecondaryPath, workDir)
	}

	for _, p := range uniquePaths(standard, secondary) {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", ErrConfiguredPathMissing, p)
			}
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
	}

	bin := &Binary{Standard: standard, Secondary: secondary, Mode: ModeConfiguration}
	bin.Version = r.bestEffortVersion(ctx, standard, workDir)

	r.log.Debug("resolved configured executable", "path", standard, "secondary", secondary)
	return bin, nil
}

func (r *Resolver) fromSearchPath(ctx context.Context, workDir string) (*Binary, bool) {
	standard, err := r.lookPath(r.settings.Tool)
	if err != nil {
		r.log.Debug("executable not on search path", "tool", r.settings.Tool, "error", err)
		return nil, false
	}

	v, err := r.queryVersion(ctx, standard, r.settings.VersionPrefix, workDir)
	if err != nil {
		r.log.Warn("ignoring executable on search path, version query failed", "path", standard, "error", err)
		return nil, false
	}

	secondary := standard
	if r.settings.SecondaryTool != "" {
		if p, err := r.lookPath(r.settings.SecondaryTool); err == nil {
			secondary = p
		}
	}

	r.log.Debug("resolved executable on search path", "path", standard, "version", v)
	return &Binary{Standard: standard, Secondary: secondary, Mode: ModeSearchPath, Version: v}, true
}

func (r *Resolver) fromStorage(ctx context.Context, workDir string) (*Binary, error) {
	if r.installer == nil {
		return nil, fmt.Errorf("no executable configured and no storage available")
	}

	artifacts := []binary.Artifact{binary.Artifact(r.settings.Tool)}
	if r.settings.SecondaryTool != "" && r.settings.SecondaryTool != r.settings.Tool {
		artifacts = append(artifacts, binary.Artifact(r.settings.SecondaryTool))
	}

	for _, artifact := range artifacts {
		installed, err := r.installer.IsInstalled(artifact)
		if err != nil {
			return nil, err
		}
		if installed {
			continue
		}

		r.log.Info("no bundled executable, installing", "artifact", artifact.String(), "version", r.settings.DesiredVersion)
		if _, err := r.installer.Install(ctx, binary.DownloadOptions{
			Artifact: artifact,
			Version:  r.settings.DesiredVersion,
		}); err != nil {
			return nil, fmt.Errorf("install %s: %w", artifact, err)
		}
	}

	standard := r.installer.BinaryPath(artifacts[0])
	secondary := standard
	if len(artifacts) > 1 {
		secondary = r.installer.BinaryPath(artifacts[1])
	}

	bin := &Binary{Standard: standard, Secondary: secondary, Mode: ModeBundled}
	bin.Version = r.bestEffortVersion(ctx, standard, workDir)
	return bin, nil
}

// bestEffortVersion returns the reported version or "" when it is unknown.
func (r *Resolver) bestEffortVersion(ctx context.Context, path, workDir string) string {
	v, err := r.queryVersion(ctx, path, r.settings.VersionPrefix, workDir)
	if err != nil {
		r.log.Warn("could not determine executable version", "path", path, "error", err)
		return ""
	}
	return v
}

func absolute(path, workDir string) string {
	if filepath.IsAbs(path) || workDir == "" {
		return path
	}
	return filepath.Join(workDir, path)
}

func uniquePaths(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
