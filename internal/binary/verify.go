package binary

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
)

// checksumFileNames are release-wide checksum listings, in preference order.
var checksumFileNames = []string{"checksums.txt", "SHA256SUMS", "sha256sums.txt"}

// Companions are the verification files a release publishes for one asset.
type Companions struct {
	Checksum  *release.Asset
	Signature *release.Asset
}

// findCompanions looks up checksum and signature assets for assetName.
func findCompanions(assets []release.Asset, assetName string) Companions {
	var c Companions
	byName := make(map[string]release.Asset, len(assets))
	for _, a := range assets {
		byName[a.Name] = a
	}

	if a, ok := byName[assetName+".sha256"]; ok {
		c.Checksum = &a
	} else {
		for _, name := range checksumFileNames {
			if a, ok := byName[name]; ok {
				c.Checksum = &a
				break
			}
		}
	}

	for _, ext := range []string{".sig", ".asc"} {
		if a, ok := byName[assetName+ext]; ok {
			c.Signature = &a
			break
		}
	}

	return c
}

// Verifier handles cryptographic verification of downloaded archives
type Verifier struct {
	keyringPath string
}

// NewVerifier creates a new verifier. An empty keyringPath disables
// signature verification.
func NewVerifier(keyringPath string) *Verifier {
	return &Verifier{keyringPath: keyringPath}
}

// VerifyFile verifies archivePath against whichever of signaturePath and
// checksumPath are non-empty. Signatures are only checked when a keyring is
// configured. With nothing to check the result is VerificationNone.
func (v *Verifier) VerifyFile(archivePath, signaturePath, checksumPath string) (*VerificationResult, error) {
	result := &VerificationResult{Method: VerificationNone, Success: true}

	if checksumPath != "" {
		r, err := v.verifySHA256(archivePath, checksumPath)
		if err != nil {
			return r, fmt.Errorf("SHA256 verification failed: %w", err)
		}
		result = r
	}

	if signaturePath != "" && keyringExists(v.keyringPath) {
		r, err := v.verifyGPG(archivePath, signaturePath)
		if err != nil {
			return r, fmt.Errorf("GPG verification failed: %w", err)
		}
		result = r
	}

	return result, nil
}

// verifyGPG verifies a file using a detached signature
func (v *Verifier) verifyGPG(archivePath, signaturePath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationGPG, Success: false, Error: err}, err
	}

	keyring, err := loadKeyring(v.keyringPath)
	if err != nil {
		return fail(fmt.Errorf("load keyring: %w", err))
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fail(fmt.Errorf("open archive: %w", err))
	}
	defer archiveFile.Close()

	sigFile, err := os.Open(signaturePath)
	if err != nil {
		return fail(fmt.Errorf("open signature: %w", err))
	}
	defer sigFile.Close()

	// Try armored first, then binary
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, archiveFile, sigFile, nil)
	if err != nil {
		archiveFile.Seek(0, io.SeekStart)
		sigFile.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, archiveFile, sigFile, nil)
	}
	if err != nil {
		return fail(fmt.Errorf("verify signature: %w", err))
	}

	return &VerificationResult{Method: VerificationGPG, Success: true}, nil
}

// verifySHA256 verifies a file using a SHA256 checksum
func (v *Verifier) verifySHA256(archivePath, checksumPath string) (*VerificationResult, error) {
	fail := func(err error) (*VerificationResult, error) {
		return &VerificationResult{Method: VerificationSHA256, Success: false, Error: err}, err
	}

	actualChecksum, err := calculateSHA256(archivePath)
	if err != nil {
		return fail(fmt.Errorf("calculate checksum: %w", err))
	}

	expectedChecksum, err := findChecksum(checksumPath, filepath.Base(archivePath))
	if err != nil {
		return fail(fmt.Errorf("find checksum: %w", err))
	}

	if !strings.EqualFold(actualChecksum, expectedChecksum) {
		return fail(fmt.Errorf("checksum mismatch:\nactual:   %s\nexpected: %s", actualChecksum, expectedChecksum))
	}

	return &VerificationResult{Method: VerificationSHA256, Success: true}, nil
}

// calculateSHA256 calculates the SHA256 checksum of a file
func calculateSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// findChecksum finds the checksum for filename in a checksum file.
// Listing format: "abc123def456  filename.zip" (optionally "*filename.zip").
// A per-asset file holding a single bare hash also matches.
func findChecksum(checksumPath, filename string) (string, error) {
	file, err := os.Open(checksumPath)
	if err != nil {
		return "", fmt.Errorf("open checksum file: %w", err)
	}
	defer file.Close()

	var bare []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		switch len(parts) {
		case 0:
			continue
		case 1:
			bare = append(bare, parts[0])
			continue
		}

		checksumFilename := strings.TrimPrefix(parts[1], "*")
		if checksumFilename == filename || filepath.Base(checksumFilename) == filename {
			return parts[0], nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum file: %w", err)
	}

	if len(bare) == 1 {
		return bare[0], nil
	}

	return "", fmt.Errorf("checksum not found for %s", filename)
}
