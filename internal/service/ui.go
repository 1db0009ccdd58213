package service

import (
	"context"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/version"
)

// UI presents reconciliation signals and reports the user's choices.
// Offer methods return true when the user accepts.
type UI interface {
	// OfferReinstall asks whether to install the desired version over a
	// mismatching bundled binary.
	OfferReinstall(ctx context.Context, m version.Mismatch) bool

	// OfferUpdate asks whether to install a newer release.
	OfferUpdate(ctx context.Context, rel release.Release) bool

	// OfferAuthentication asks whether to sign in after a failed release
	// lookup, which is often caused by rate limiting.
	OfferAuthentication(ctx context.Context, err error) bool

	// Warn reports a problem that does not stop formatting.
	Warn(msg string, err error)
}

// logUI declines every offer and logs warnings.
type logUI struct {
	log logging.Logger
}

// NewLogUI returns a UI for unattended use: offers are declined and
// warnings go to l.
func NewLogUI(l logging.Logger) UI {
	return &logUI{log: logging.OrNoop(l)}
}

func (u *logUI) OfferReinstall(_ context.Context, m version.Mismatch) bool {
	u.log.Info("installed formatter version differs from configured version", "installed", version.Format(m.Installed), "desired", m.Desired)
	return false
}

func (u *logUI) OfferUpdate(_ context.Context, rel release.Release) bool {
	u.log.Info("formatter update available", "tag", rel.TagName, "url", rel.HTMLURL)
	return false
}

func (u *logUI) OfferAuthentication(context.Context, error) bool {
	return false
}

func (u *logUI) Warn(msg string, err error) {
	if err != nil {
		u.log.Warn(msg, "error", err)
		return
	}
	u.log.Warn(msg)
}
