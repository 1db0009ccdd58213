package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos       string
	goarch     string
	kernelArch func(ctx context.Context) (string, error)
	distro     func(ctx context.Context) (string, string, string, error)
}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{
		goos:       runtime.GOOS,
		goarch:     runtime.GOARCH,
		kernelArch: func(context.Context) (string, error) { return host.KernelArch() },
		distro:     host.PlatformInformationWithContext,
	}
}

// Detect returns the host OS and architecture.
//
// The kernel architecture from gopsutil wins when it is recognised; the
// compiled GOARCH is the fallback. An unrecognised architecture is kept
// as-is so artifact matching can fall back to architecture-less names.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{OS: d.goos}

	raw := d.goarch
	if d.kernelArch != nil {
		if kernel, err := d.kernelArch(ctx); err == nil && kernel != "" {
			if _, known := normalizeArch(kernel); known {
				raw = kernel
			}
		} else if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
	}

	if raw == "" {
		return nil, fmt.Errorf("platform detection failed: %w", ErrUnsupportedArchitecture)
	}
	info.ArchRaw = raw
	info.Arch, _ = normalizeArch(raw)

	// Distro details are informational only.
	if d.goos == "linux" && d.distro != nil {
		platform, _, version, err := d.distro(ctx)
		if err == nil {
			info.Platform = normalizePlatform(platform)
			info.Version = normalizePlatform(version)
		}
	}

	return info, nil
}
