package binary

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
)

// ErrUnsupportedPlatform is returned for an OS no release artifact exists for.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// ErrNoMatchingAsset is returned when no asset of a release matches the host.
var ErrNoMatchingAsset = errors.New("no matching release asset")

// mapPlatform maps GOOS values to the platform fragment used in asset names.
func mapPlatform(goos string) (string, error) {
	switch goos {
	case "windows":
		return "windows|win64", nil
	case "linux":
		return "linux", nil
	case "darwin":
		return "macos", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
	}
}

// mapArch maps GOARCH values to the architecture fragment used in asset
// names. Anything else maps to "", meaning no architecture segment.
func mapArch(goarch string) string {
	switch goarch {
	case "arm64", "aarch64":
		return "aarch64"
	case "amd64", "x86_64":
		return "x86_64"
	default:
		return ""
	}
}

// PatternFor returns the expression matching archive names of artifact name
// for the given platform and architecture.
func PatternFor(name, goos, goarch string) (*regexp.Regexp, error) {
	platformFragment, err := mapPlatform(goos)
	if err != nil {
		return nil, err
	}

	expr := "^" + regexp.QuoteMeta(name) + `(-v?\d[\w.+-]*)?-(` + platformFragment + `)`
	if archFragment := mapArch(goarch); archFragment != "" {
		expr += `(-` + archFragment + `)?`
	}
	expr += `\.zip$`

	return regexp.Compile(expr)
}

// ExecutableName is the file name of artifact name on goos.
func ExecutableName(name, goos string) string {
	if goos == "windows" {
		return name + ".exe"
	}
	return name
}

// MatchAsset returns the first asset whose name matches pattern.
func MatchAsset(assets []release.Asset, pattern *regexp.Regexp) (release.Asset, bool) {
	for _, a := range assets {
		if pattern.MatchString(a.Name) {
			return a, true
		}
	}
	return release.Asset{}, false
}
