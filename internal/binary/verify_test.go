package binary

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"       //nolint:staticcheck // Using ProtonMail's maintained fork
	"github.com/ProtonMail/go-crypto/openpgp/armor" //nolint:staticcheck // Using ProtonMail's maintained fork

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
)

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// newTestKey writes an armored public keyring to dir and returns the entity.
func newTestKey(t *testing.T, dir string) (*openpgp.Entity, string) {
	t.Helper()

	entity, err := openpgp.NewEntity("fmtsync test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	var buf bytes.Buffer
	w, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("failed to create armor writer: %v", err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatalf("failed to serialize key: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close armor writer: %v", err)
	}

	path := filepath.Join(dir, "keyring.asc")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("failed to write keyring: %v", err)
	}
	return entity, path
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestVerifierSHA256(t *testing.T) {
	archive := []byte("archive bytes")

	tests := []struct {
		name     string
		checksum string
		wantErr  bool
	}{
		{name: "listing_match", checksum: fmt.Sprintf("%s  stylua-linux.zip\n%s  other.zip\n", sha256Hex(archive), sha256Hex([]byte("x")))},
		{name: "binary_mode_marker", checksum: fmt.Sprintf("%s *stylua-linux.zip\n", sha256Hex(archive))},
		{name: "bare_hash", checksum: sha256Hex(archive) + "\n"},
		{name: "uppercase_hash", checksum: strings.ToUpper(sha256Hex(archive)) + "  stylua-linux.zip\n"},
		{name: "mismatch", checksum: fmt.Sprintf("%s  stylua-linux.zip\n", sha256Hex([]byte("tampered"))), wantErr: true},
		{name: "missing_entry", checksum: fmt.Sprintf("%s  other.zip\n", sha256Hex(archive)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archivePath := writeFile(t, dir, "stylua-linux.zip", archive)
			checksumPath := writeFile(t, dir, "checksums.txt", []byte(tt.checksum))

			result, err := NewVerifier("").VerifyFile(archivePath, "", checksumPath)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if result == nil || result.Success {
					t.Errorf("expected failed result, got %+v", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Method != VerificationSHA256 || !result.Success {
				t.Errorf("unexpected result: %+v", result)
			}
		})
	}
}

func TestVerifierNothingToVerify(t *testing.T) {
	dir := t.TempDir()
	archivePath := writeFile(t, dir, "stylua-linux.zip", []byte("x"))

	result, err := NewVerifier("").VerifyFile(archivePath, "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Method != VerificationNone || !result.Success {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestVerifierGPG(t *testing.T) {
	dir := t.TempDir()
	entity, keyringPath := newTestKey(t, dir)

	archive := []byte("signed archive")
	archivePath := writeFile(t, dir, "stylua-linux.zip", archive)

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(archive), nil); err != nil {
		t.Fatalf("failed to sign: %v", err)
	}
	sigPath := writeFile(t, dir, "stylua-linux.zip.asc", sig.Bytes())

	t.Run("valid_signature", func(t *testing.T) {
		result, err := NewVerifier(keyringPath).VerifyFile(archivePath, sigPath, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Method != VerificationGPG {
			t.Errorf("method = %s, want GPG", result.Method)
		}
	})

	t.Run("tampered_archive", func(t *testing.T) {
		tampered := writeFile(t, t.TempDir(), "stylua-linux.zip", []byte("tampered archive"))
		if _, err := NewVerifier(keyringPath).VerifyFile(tampered, sigPath, ""); err == nil {
			t.Error("expected signature failure")
		}
	})

	t.Run("no_keyring_skips_signature", func(t *testing.T) {
		result, err := NewVerifier("").VerifyFile(archivePath, sigPath, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Method != VerificationNone {
			t.Errorf("method = %s, want None", result.Method)
		}
	})
}

func TestFindCompanions(t *testing.T) {
	assets := []release.Asset{
		{Name: "stylua-linux.zip"},
		{Name: "checksums.txt"},
		{Name: "stylua-linux.zip.sha256"},
		{Name: "stylua-linux.zip.sig"},
	}

	c := findCompanions(assets, "stylua-linux.zip")
	if c.Checksum == nil || c.Checksum.Name != "stylua-linux.zip.sha256" {
		t.Errorf("checksum = %+v, want per-asset file", c.Checksum)
	}
	if c.Signature == nil || c.Signature.Name != "stylua-linux.zip.sig" {
		t.Errorf("signature = %+v", c.Signature)
	}

	c = findCompanions(assets[:2], "stylua-linux.zip")
	if c.Checksum == nil || c.Checksum.Name != "checksums.txt" {
		t.Errorf("checksum = %+v, want checksums.txt", c.Checksum)
	}
	if c.Signature != nil {
		t.Errorf("unexpected signature %+v", c.Signature)
	}

	c = findCompanions(assets[:1], "stylua-linux.zip")
	if c.Checksum != nil || c.Signature != nil {
		t.Errorf("expected no companions, got %+v", c)
	}
}

func TestVerificationMethodString(t *testing.T) {
	tests := map[VerificationMethod]string{
		VerificationNone:       "None",
		VerificationGPG:        "GPG",
		VerificationSHA256:     "SHA256",
		VerificationMethod(42): "Unknown",
	}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}
