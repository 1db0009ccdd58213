package version

import (
	"context"
	"regexp"

	"github.com/Masterminds/semver/v3"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
)

// LatestSource fetches the newest published release.
type LatestSource interface {
	Latest(ctx context.Context) (release.Release, error)
}

// CredentialState reports whether an authentication credential is set.
type CredentialState interface {
	Present() bool
}

// Mismatch describes an installed version that differs from the desired one.
type Mismatch struct {
	Installed string
	Desired   string
}

// Report is the outcome of one reconciliation pass.
type Report struct {
	// Installed is the reported version, empty when unknown.
	Installed string
	Desired   string

	// Mismatch is set when a pinned desired version differs from Installed.
	Mismatch *Mismatch

	// Update is set when the latest release differs from Installed.
	Update *release.Release

	// LatestErr holds the failure of the latest-release lookup.
	LatestErr error

	// CanAuthenticate is set when LatestErr may be cured by authenticating,
	// that is when no credential was used for the lookup.
	CanAuthenticate bool
}

// Reconciler compares installed, desired and latest versions.
type Reconciler struct {
	latest       LatestSource
	credentials  CredentialState
	disableCheck bool
	log          logging.Logger
}

// ReconcilerOption configures a Reconciler.
type ReconcilerOption func(*Reconciler)

// WithCredentials lets the Reconciler tell whether an authentication retry
// could help after a failed lookup.
func WithCredentials(c CredentialState) ReconcilerOption {
	return func(r *Reconciler) { r.credentials = c }
}

// WithUpdateCheckDisabled turns off the latest-release lookup.
func WithUpdateCheckDisabled(disabled bool) ReconcilerOption {
	return func(r *Reconciler) { r.disableCheck = disabled }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) ReconcilerOption {
	return func(r *Reconciler) { r.log = l }
}

// NewReconciler creates a Reconciler looking up the latest release in latest.
func NewReconciler(latest LatestSource, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{latest: latest}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logging.OrNoop(r.log)
	return r
}

// Reconcile compares installed against desired and, unless update checks
// are disabled, against the latest release. It never fails: a failed lookup
// is carried in Report.LatestErr.
func (r *Reconciler) Reconcile(ctx context.Context, installed, desired string) Report {
	report := Report{Installed: installed, Desired: desired}

	if desired != "" && desired != release.LatestVersion {
		if Differs(installed, desired) {
			report.Mismatch = &Mismatch{Installed: installed, Desired: desired}
			r.log.Info("installed version differs from desired", "installed", Format(installed), "desired", desired)
		}
	}

	if r.disableCheck || r.latest == nil {
		return report
	}

	latest, err := r.latest.Latest(ctx)
	if err != nil {
		report.LatestErr = err
		report.CanAuthenticate = r.credentials != nil && !r.credentials.Present()
		r.log.Warn("latest release lookup failed", "error", err)
		return report
	}

	if release.StripPrefix(latest.TagName) != installed {
		report.Update = &latest
		r.log.Info("update available", "installed", Format(installed), "latest", latest.TagName)
	}
	return report
}

var versionCore = regexp.MustCompile(`\d+(\.\d+){0,2}`)

// Coerce extracts the first version-like run of digits from s and parses it
// as a semantic version, so "v1.2", "stylua 1.2.3" and "1.2.3-beta" all
// compare by their numeric core.
func Coerce(s string) (*semver.Version, bool) {
	core := versionCore.FindString(s)
	if core == "" {
		return nil, false
	}
	v, err := semver.NewVersion(core)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Differs reports whether installed and desired both coerce to versions and
// those versions are not equal. An uncoercible side never differs.
func Differs(installed, desired string) bool {
	iv, ok := Coerce(installed)
	if !ok {
		return false
	}
	dv, ok := Coerce(desired)
	if !ok {
		return false
	}
	return !iv.Equal(dv)
}
