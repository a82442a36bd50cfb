// Package incremental decides which routes can reuse a previously compiled
// module by comparing dependency content hashes against persisted records.
package incremental

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Missing is the hash recorded for a dependency that cannot be read. It is
// not a valid hex digest, so it never equals the hash of real content.
const Missing = "<missing>"

// HashFile returns the hex-encoded SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	// #nosec G304 - dependency paths come from the bundler's manifest
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashOrMissing is HashFile with unreadable files mapped to Missing.
func HashOrMissing(path string) string {
	sum, err := HashFile(path)
	if err != nil {
		return Missing
	}
	return sum
}

// HashDependencies hashes every path. Unreadable files are left out of the
// result rather than reported.
func HashDependencies(ctx context.Context, paths []string) map[string]string {
	hashed := make(map[string]string, len(paths))
	for _, p := range paths {
		if ctx.Err() != nil {
			break
		}
		sum, err := HashFile(p)
		if err != nil {
			continue
		}
		hashed[p] = sum
	}
	return hashed
}
