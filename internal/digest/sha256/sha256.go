// Package sha256 calculates sha256 digests.
package sha256

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/electrumsv/winebuild/internal/digest"
)

// File returns the SHA256 digest of the file.
func File(path string) (*digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("reading %q failed: %w", path, err)
	}

	return &digest.Digest{
		Algorithm: digest.SHA256,
		Sum:       h.Sum(nil),
	}, nil
}

// Sum returns the SHA256 digest of data.
func Sum(data []byte) *digest.Digest {
	sum := sha256.Sum256(data)

	return &digest.Digest{
		Algorithm: digest.SHA256,
		Sum:       sum[:],
	}
}
