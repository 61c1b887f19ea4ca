package sign

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/tuneinsight/ringlwe/core/rlwe"
)

// Digest identifies the message digest applied by the [Signer] before encryption.
//
// Blake256 and Blake512 are computed with BLAKE2b-256 and BLAKE2b-512, and
// Keccak256 and Keccak512 with the original Keccak padding, not FIPS 202 SHA-3.
type Digest int32

const (
	Blake256 = Digest(iota)
	Blake512
	Keccak256
	Keccak512
	Keccak1024
	SHA256
	SHA512
	Skein256
	Skein512
	Skein1024
	Blake3
)

// DefaultDigest is the digest used when none is specified.
const DefaultDigest = SHA512

var digestNames = map[Digest]string{
	Blake256:   "Blake256",
	Blake512:   "Blake512",
	Keccak256:  "Keccak256",
	Keccak512:  "Keccak512",
	Keccak1024: "Keccak1024",
	SHA256:     "SHA256",
	SHA512:     "SHA512",
	Skein256:   "Skein256",
	Skein512:   "Skein512",
	Skein1024:  "Skein1024",
	Blake3:     "Blake3",
}

func (d Digest) String() string {
	if name, ok := digestNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Digest(%d)", int32(d))
}

// ParseDigest returns the [Digest] of the given name, case insensitive.
func ParseDigest(name string) (Digest, error) {
	for d, n := range digestNames {
		if strings.EqualFold(n, name) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("cannot ParseDigest: %w: unknown digest %q", rlwe.ErrConfiguration, name)
}

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) {
	if _, ok := digestNames[d]; !ok {
		return nil, fmt.Errorf("cannot MarshalText: unknown digest %d", int32(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) (err error) {
	*d, err = ParseDigest(string(text))
	return
}

// IsSupported returns true if [Digest.New] can instantiate d.
func (d Digest) IsSupported() bool {
	_, err := d.New()
	return err == nil
}

// New returns a new [hash.Hash] computing the digest.
// It returns an error wrapping [rlwe.ErrConfiguration] for Skein and Keccak1024,
// which have no implementation.
func (d Digest) New() (hash.Hash, error) {
	switch d {
	case Blake256:
		return blake2b.New256(nil)
	case Blake512:
		return blake2b.New512(nil)
	case Keccak256:
		return sha3.NewLegacyKeccak256(), nil
	case Keccak512:
		return sha3.NewLegacyKeccak512(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case Blake3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: digest %s is not supported", rlwe.ErrConfiguration, d)
	}
}

// Size returns the size in bytes of the digest, or 0 if it is not supported.
func (d Digest) Size() int {
	h, err := d.New()
	if err != nil {
		return 0
	}
	return h.Size()
}
