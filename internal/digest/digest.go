// Package digest provides types to represent checksums.
package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Algorithm describes the digest algorithm.
type Algorithm int

const (
	_ Algorithm = iota
	// SHA256 is the sha256 algorithm.
	SHA256
)

// String returns the textual representation.
func (a Algorithm) String() string {
	switch a {
	case SHA256:
		return "sha256"
	default:
		return "undefined"
	}
}

// Digest contains a checksum.
type Digest struct {
	Sum       []byte
	Algorithm Algorithm
}

// String returns '<Algorithm>:<hash>'.
func (d *Digest) String() string {
	return fmt.Sprintf("%s:%s", d.Algorithm, d.Hex())
}

// Hex returns the hexadecimal representation of the checksum.
func (d *Digest) Hex() string {
	return hex.EncodeToString(d.Sum)
}

// Equal returns true if both digests use the same algorithm and have the
// same sum.
func (d *Digest) Equal(other *Digest) bool {
	if d.Algorithm != other.Algorithm {
		return false
	}

	return string(d.Sum) == string(other.Sum)
}

// FromString converts a "<Algorithm>:<hash>" string to a Digest.
func FromString(in string) (*Digest, error) {
	algo, hexSum, found := strings.Cut(strings.TrimSpace(in), ":")
	if !found {
		return nil, errors.New("invalid format, must contain exactly 1 ':'")
	}

	if strings.ToLower(algo) != "sha256" {
		return nil, fmt.Errorf("unsupported algorithm %q", algo)
	}

	if len(hexSum) != 64 {
		return nil, fmt.Errorf("hash length is %d, expected length 64", len(hexSum))
	}

	sum, err := hex.DecodeString(hexSum)
	if err != nil {
		return nil, fmt.Errorf("converting hash to binary failed: %w", err)
	}

	return &Digest{
		Sum:       sum,
		Algorithm: SHA256,
	}, nil
}
