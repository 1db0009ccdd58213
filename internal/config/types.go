package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
)

// Settings are the values fmtsync reads from its configuration file.
type Settings struct {
	// Tool is the executable and artifact name of the formatter.
	Tool string
	// Repository is the "owner/name" release repository.
	Repository string
	// APIURL is the base URL of the release API.
	APIURL string
	// VersionPrefix precedes the version in "--version" output.
	VersionPrefix string

	// Path and SecondaryPath are explicit executable locations.
	Path          string
	SecondaryPath string
	// SecondaryTool names a distinct artifact for the secondary variant.
	SecondaryTool string
	// SearchPath enables lookup on the process search path.
	SearchPath bool

	// Version is the desired version, "latest" or a release tag.
	Version string
	// DisableVersionCheck turns off the latest-release lookup.
	DisableVersionCheck bool

	// Keyring is an OpenPGP public keyring for signature checks.
	Keyring string

	// Args are passed to the formatter before the stdin marker.
	Args []string
}

// Defaults returns the settings used when no file is present.
func Defaults() *Settings {
	return &Settings{
		Tool:          DefaultTool,
		Repository:    DefaultRepository,
		APIURL:        DefaultAPIURL,
		VersionPrefix: DefaultVersionPrefix,
		SearchPath:    true,
		Version:       release.LatestVersion,
	}
}

// DesiredVersion returns Version, treating empty as "latest".
func (s *Settings) DesiredVersion() string {
	if strings.TrimSpace(s.Version) == "" {
		return release.LatestVersion
	}
	return s.Version
}

// Equal reports whether s and other hold the same values.
func (s *Settings) Equal(other *Settings) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.Args) != len(other.Args) {
		return false
	}
	for i := range s.Args {
		if s.Args[i] != other.Args[i] {
			return false
		}
	}
	return s.Tool == other.Tool &&
		s.Repository == other.Repository &&
		s.APIURL == other.APIURL &&
		s.VersionPrefix == other.VersionPrefix &&
		s.Path == other.Path &&
		s.SecondaryPath == other.SecondaryPath &&
		s.SecondaryTool == other.SecondaryTool &&
		s.SearchPath == other.SearchPath &&
		s.Version == other.Version &&
		s.DisableVersionCheck == other.DisableVersionCheck &&
		s.Keyring == other.Keyring
}

// Validate performs basic validation on Settings.
func (s *Settings) Validate() error {
	if s.Tool == "" {
		return &ValidationError{Field: luaFieldTool, Message: "cannot be empty"}
	}
	if !toolNamePattern.MatchString(s.Tool) {
		return &ValidationError{Field: luaFieldTool, Message: fmt.Sprintf("invalid executable name %q", s.Tool)}
	}
	if s.SecondaryTool != "" && !toolNamePattern.MatchString(s.SecondaryTool) {
		return &ValidationError{Field: luaFieldSecondaryTool, Message: fmt.Sprintf("invalid executable name %q", s.SecondaryTool)}
	}

	if err := validateRepository(s.Repository); err != nil {
		return &ValidationError{Field: luaFieldRepository, Message: err.Error()}
	}

	if s.APIURL != "" {
		u, err := url.Parse(s.APIURL)
		if err != nil {
			return &ValidationError{Field: luaFieldAPIURL, Message: err.Error()}
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			return &ValidationError{Field: luaFieldAPIURL, Message: fmt.Sprintf("must use https:// or http:// scheme (got: %s)", u.Scheme)}
		}
	}

	fields := map[string]string{
		luaFieldTool:          s.Tool,
		luaFieldRepository:    s.Repository,
		luaFieldAPIURL:        s.APIURL,
		luaFieldVersionPrefix: s.VersionPrefix,
		luaFieldPath:          s.Path,
		luaFieldSecondaryPath: s.SecondaryPath,
		luaFieldSecondaryTool: s.SecondaryTool,
		luaFieldVersion:       s.Version,
		luaFieldKeyring:       s.Keyring,
	}
	for field, value := range fields {
		if len(value) > maxStringLength {
			return &ValidationError{Field: field, Message: fmt.Sprintf("too long (%d chars, max %d)", len(value), maxStringLength)}
		}
	}

	return nil
}

// ValidationError represents a config validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "config validation failed for " + e.Field + ": " + e.Message
	}
	return "config validation failed: " + e.Message
}

// toolNamePattern matches plain executable names without path separators.
var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// repositoryPattern matches "owner/name".
var repositoryPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

func validateRepository(repo string) error {
	if repo == "" {
		return fmt.Errorf("cannot be empty")
	}
	if !repositoryPattern.MatchString(repo) {
		return fmt.Errorf("invalid repository %q (expected: owner/name)", repo)
	}
	return nil
}
