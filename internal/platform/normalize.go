package platform

import (
	"strings"
)

// normalizeArch converts GOARCH and kernel machine names to the GOARCH
// spelling. Unknown values are returned lowercased with known=false.
func normalizeArch(arch string) (normalized string, known bool) {
	switch a := strings.ToLower(strings.TrimSpace(arch)); a {
	case "amd64", "x86_64", "x64":
		return "amd64", true
	case "arm64", "aarch64", "armv8", "armv8l":
		return "arm64", true
	default:
		return a, false
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}
