// Package platform detects the host operating system and CPU architecture
// used to pick release artifacts, and exposes them to Lua settings files.
//
// Architecture detection prefers the kernel's native architecture reported
// by gopsutil over runtime.GOARCH, so an amd64 build running under
// emulation on an arm64 host still selects the native artifact.
package platform

import (
	"context"
	"errors"
)

// ErrUnsupportedArchitecture is returned when no architecture can be
// determined at all.
var ErrUnsupportedArchitecture = errors.New("unsupported architecture")

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "darwin", "windows"
	Arch     string // "amd64", "arm64", or the raw value for anything else
	ArchRaw  string // value the architecture was derived from (e.g., "x86_64")
	Platform string // distro ID (Linux only, e.g., "ubuntu")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsAMD64 returns true if the architecture is amd64.
func (i *Info) IsAMD64() bool {
	return i.Arch == "amd64"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// Static is a Detector that always returns the same Info.
type Static Info

// Detect returns a copy of s.
func (s Static) Detect(context.Context) (*Info, error) {
	info := Info(s)
	return &info, nil
}
