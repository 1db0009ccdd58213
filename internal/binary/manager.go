package binary

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/platform"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/transaction"
)

// ReleaseSource resolves a version ("latest" or a tag) to a release.
type ReleaseSource interface {
	Release(ctx context.Context, version string) (release.Release, error)
}

// Manager orchestrates binary download, verification, and installation
type Manager struct {
	storageDir   string
	platformInfo *platform.Info
	releases     ReleaseSource
	downloader   *Downloader
	verifier     *Verifier
	extractor    *Extractor
	log          logging.Logger
	lockPoll     time.Duration
}

// Config holds configuration for the binary manager
type Config struct {
	// StorageDir holds installed executables
	StorageDir string
	// CacheDir holds downloaded archives
	CacheDir string
	// Platform contains OS and architecture information
	Platform *platform.Info
	// Releases resolves versions to release records
	Releases ReleaseSource
	// KeyringPath enables signature verification when set
	KeyringPath string
	Logger      logging.Logger
}

// NewManager creates a new binary manager
func NewManager(config Config) (*Manager, error) {
	if config.StorageDir == "" {
		return nil, fmt.Errorf("StorageDir is required")
	}
	if config.Platform == nil {
		return nil, fmt.Errorf("Platform is required")
	}
	if config.Releases == nil {
		return nil, fmt.Errorf("Releases is required")
	}

	cacheDir := config.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(config.StorageDir, ".cache")
	}

	return &Manager{
		storageDir:   config.StorageDir,
		platformInfo: config.Platform,
		releases:     config.Releases,
		downloader:   NewDownloader(cacheDir),
		verifier:     NewVerifier(config.KeyringPath),
		extractor:    NewExtractor(),
		log:          logging.OrNoop(config.Logger),
		lockPoll:     transaction.DefaultPollInterval,
	}, nil
}

// StorageDir returns the directory executables are installed into.
func (m *Manager) StorageDir() string {
	return m.storageDir
}

// BinaryPath returns the filesystem path an artifact is installed at
func (m *Manager) BinaryPath(artifact Artifact) string {
	return filepath.Join(m.storageDir, ExecutableName(artifact.String(), m.platformInfo.OS))
}

// IsInstalled checks if an artifact is installed and executable
func (m *Manager) IsInstalled(artifact Artifact) (bool, error) {
	info, err := os.Stat(m.BinaryPath(artifact))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat binary: %w", err)
	}

	if !info.Mode().IsRegular() {
		return false, nil
	}

	// Windows has no execute bit
	if m.platformInfo.OS != "windows" && info.Mode().Perm()&0111 == 0 {
		return false, nil
	}

	return true, nil
}

// Install resolves opts.Version to a release, downloads the archive matching
// this platform, verifies it and installs the executable, replacing any
// previous copy. A release without a matching asset fails with
// ErrNoMatchingAsset.
func (m *Manager) Install(ctx context.Context, opts DownloadOptions) (*InstallResult, error) {
	startTime := time.Now()

	if opts.Artifact == "" {
		return nil, fmt.Errorf("artifact is required")
	}
	if opts.Version == "" {
		opts.Version = release.LatestVersion
	}

	rel, err := m.releases.Release(ctx, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("resolve release %s: %w", opts.Version, err)
	}

	name := opts.Artifact.String()
	entryName := ExecutableName(name, m.platformInfo.OS)

	pattern, err := PatternFor(name, m.platformInfo.OS, m.platformInfo.Arch)
	if err != nil {
		return nil, err
	}

	asset, ok := MatchAsset(rel.Assets, pattern)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s for %s/%s", ErrNoMatchingAsset, name, rel.TagName, m.platformInfo.OS, m.platformInfo.Arch)
	}

	m.log.Info("downloading release asset", "artifact", name, "tag", rel.TagName, "asset", asset.Name)

	archivePath, err := m.downloader.DownloadAsset(ctx, opts.Artifact, rel.TagName, asset)
	if err != nil {
		return nil, err
	}

	verified, err := m.verify(ctx, opts.Artifact, rel, asset, archivePath)
	if err != nil {
		// A bad archive must not stay in the cache
		os.Remove(archivePath)
		return nil, err
	}

	lock, err := transaction.WaitLock(ctx, m.storageDir, m.lockPoll)
	if err != nil {
		return nil, fmt.Errorf("lock storage dir: %w", err)
	}
	defer lock.Release()

	destPath := m.BinaryPath(opts.Artifact)
	err = m.extractor.ExtractEntry(archivePath, entryName, func(r io.Reader) error {
		return installExecutable(destPath, r)
	})
	if err != nil {
		os.Remove(archivePath)
		return nil, fmt.Errorf("install %s: %w", name, err)
	}

	result := &InstallResult{
		Artifact:     opts.Artifact,
		Tag:          rel.TagName,
		Asset:        asset.Name,
		Path:         destPath,
		Verified:     verified,
		DownloadTime: time.Since(startTime),
	}

	m.log.Info("installed binary", "artifact", name, "tag", rel.TagName, "path", destPath, "verified", verified.String())
	return result, nil
}

// verify downloads whatever verification files the release has for asset
// and checks the archive against them.
func (m *Manager) verify(ctx context.Context, artifact Artifact, rel release.Release, asset release.Asset, archivePath string) (VerificationMethod, error) {
	companions := findCompanions(rel.Assets, asset.Name)

	var checksumPath, signaturePath string
	var err error

	if companions.Checksum != nil {
		checksumPath, err = m.downloader.DownloadAsset(ctx, artifact, rel.TagName, *companions.Checksum)
		if err != nil {
			return VerificationNone, fmt.Errorf("download checksums: %w", err)
		}
	}

	if companions.Signature != nil {
		if keyringExists(m.verifier.keyringPath) {
			signaturePath, err = m.downloader.DownloadAsset(ctx, artifact, rel.TagName, *companions.Signature)
			if err != nil {
				return VerificationNone, fmt.Errorf("download signature: %w", err)
			}
		} else {
			m.log.Debug("skipping signature verification, no keyring configured", "asset", companions.Signature.Name)
		}
	}

	result, err := m.verifier.VerifyFile(archivePath, signaturePath, checksumPath)
	if err != nil {
		return VerificationNone, fmt.Errorf("verify %s: %w", asset.Name, err)
	}

	if result.Method == VerificationNone {
		m.log.Warn("release publishes no checksum or signature, installing unverified", "asset", asset.Name)
	}
	return result.Method, nil
}
