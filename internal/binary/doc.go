// Package binary acquires the formatter executable from a release.
//
// # Pipeline
//
// An install resolves a version to a release, picks the archive whose name
// matches the host platform, downloads it into a cache, verifies it when the
// release publishes checksums or signatures, and extracts exactly one entry
// (the platform-specific executable name) into the storage directory.
//
// # Asset names
//
// Archives are matched against
//
//	<name>(-<version>)?-<platform>(-<arch>)?.zip
//
// where platform is one of windows|win64, linux or macos and arch is
// aarch64 or x86_64. Hosts with any other architecture match names without an
// architecture segment, which is how older single-architecture releases were
// published.
//
// # Verification
//
//   - SHA256: "<asset>.sha256", "checksums.txt" or "SHA256SUMS" in the release
//   - OpenPGP: "<asset>.sig" or "<asset>.asc", only when a keyring is configured
//   - Releases publishing neither install unverified (VerificationNone)
//
// # Writes
//
// The executable is created with mode 0755 in a fresh file next to its final
// location. A previous binary is only replaced once the new one is complete;
// replacement goes through go-update so a failed swap rolls back.
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    StorageDir: filepath.Join(dataDir, "bin"),
//	    CacheDir:   filepath.Join(dataDir, "cache"),
//	    Platform:   info,
//	    Releases:   release.NewClient("JohnnyMorganz/StyLua"),
//	})
//	if err != nil {
//	    return err
//	}
//	result, err := mgr.Install(ctx, binary.DownloadOptions{
//	    Artifact: "stylua",
//	    Version:  "latest",
//	})
package binary
