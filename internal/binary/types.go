package binary

import (
	"time"
)

// Artifact names a tool executable shipped in release archives, e.g. "stylua".
type Artifact string

// String returns the string representation of the artifact
func (a Artifact) String() string {
	return string(a)
}

// DownloadOptions configures binary download and installation
type DownloadOptions struct {
	Artifact Artifact
	// Version is "latest" or a release tag with or without its "v" prefix.
	Version string
}

// VerificationMethod indicates how a downloaded archive was verified
type VerificationMethod int

const (
	// VerificationNone indicates the release published nothing to verify against
	VerificationNone VerificationMethod = iota
	// VerificationGPG indicates OpenPGP signature verification was used
	VerificationGPG
	// VerificationSHA256 indicates SHA256 checksum verification was used
	VerificationSHA256
)

// String returns the string representation of the verification method
func (v VerificationMethod) String() string {
	switch v {
	case VerificationGPG:
		return "GPG"
	case VerificationSHA256:
		return "SHA256"
	case VerificationNone:
		return "None"
	default:
		return "Unknown"
	}
}

// InstallResult describes a completed install.
type InstallResult struct {
	Artifact     Artifact
	Tag          string
	Asset        string
	Path         string
	Verified     VerificationMethod
	DownloadTime time.Duration
}

// VerificationResult contains the outcome of a verification attempt
type VerificationResult struct {
	Method  VerificationMethod
	Success bool
	Error   error
}
