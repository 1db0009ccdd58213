package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/config"
)

// Environment variables overriding the default directories
const (
	EnvConfigDir = "FMTSYNC_CONFIG_DIR"
	EnvDataDir   = "FMTSYNC_DATA_DIR"
	EnvCacheDir  = "FMTSYNC_CACHE_DIR"
)

// configPath returns the settings file: --config, then
// $FMTSYNC_CONFIG_DIR/fmtsync.lua, then the user config directory.
func (a *app) configPath() (string, error) {
	if a.opts.configPath != "" {
		return a.opts.configPath, nil
	}
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return filepath.Join(dir, config.DefaultFileName), nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config directory: %w", err)
	}
	return filepath.Join(dir, "fmtsync", config.DefaultFileName), nil
}

// dataDir returns where executables are stored: --data-dir, then
// $FMTSYNC_DATA_DIR, then the user data directory.
func (a *app) dataDir() (string, error) {
	if a.opts.dataDir != "" {
		return a.opts.dataDir, nil
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		return dir, nil
	}

	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get data directory: %w", err)
	}
	return filepath.Join(dir, "fmtsync"), nil
}

// cacheDir returns where archives are downloaded to.
func (a *app) cacheDir(dataDir string) string {
	if dir := os.Getenv(EnvCacheDir); dir != "" {
		return dir
	}
	return filepath.Join(dataDir, "cache")
}
