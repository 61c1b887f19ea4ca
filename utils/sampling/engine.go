package sampling

import (
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20"
)

// Engine identifies a random byte generator. Its numeric value is part of
// the serialized parameters and must not be reordered.
type Engine int32

const (
	// BBSG is the Blum-Blum-Shub generator (not supported).
	BBSG = Engine(iota)
	// CCG is the cubic congruential generator (not supported).
	CCG
	// CSPRng reads from the operating system's secure source.
	CSPRng
	// DGCPrng is a digest counter generator, implemented as a blake2b XOF
	// keyed with fresh system randomness.
	DGCPrng
	// MODEXPG is the modular exponentiation generator (not supported).
	MODEXPG
	// PBPrng is a passphrase based generator. It must be keyed by the caller,
	// see [NewKeyedPRNG].
	PBPrng
	// QCG1 is the quadratic congruential generator I (not supported).
	QCG1
	// QCG2 is the quadratic congruential generator II (not supported).
	QCG2
	// CTRPrng is the ChaCha20 keystream under a fresh random key and nonce.
	CTRPrng
)

var engineNames = map[Engine]string{
	BBSG:    "BBSG",
	CCG:     "CCG",
	CSPRng:  "CSPRng",
	DGCPrng: "DGCPrng",
	MODEXPG: "MODEXPG",
	PBPrng:  "PBPrng",
	QCG1:    "QCG1",
	QCG2:    "QCG2",
	CTRPrng: "CTRPrng",
}

func (e Engine) String() string {
	if name, ok := engineNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Engine(%d)", int32(e))
}

// IsValid returns true if e is a known engine identifier, supported or not.
func (e Engine) IsValid() bool {
	_, ok := engineNames[e]
	return ok
}

// IsSupported returns true if [NewEnginePRNG] can instantiate e without caller-provided key material.
func (e Engine) IsSupported() bool {
	switch e {
	case CSPRng, DGCPrng, CTRPrng:
		return true
	default:
		return false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Engine) MarshalText() ([]byte, error) {
	if !e.IsValid() {
		return nil, fmt.Errorf("invalid engine %d", int32(e))
	}
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Engine) UnmarshalText(text []byte) (err error) {
	*e, err = ParseEngine(string(text))
	return
}

// ParseEngine returns the Engine with the given case-insensitive name.
func ParseEngine(name string) (Engine, error) {
	for e, n := range engineNames {
		if strings.EqualFold(n, name) {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown random engine %q", name)
}

// NewEnginePRNG instantiates a fresh PRNG for the given engine.
// It returns an error if the engine is unknown, not implemented, or
// requires caller-provided key material (PBPrng).
func NewEnginePRNG(e Engine) (PRNG, error) {
	switch e {
	case CSPRng:
		return NewPRNG()
	case DGCPrng:
		seed := make([]byte, 64)
		if _, err := rand.Read(seed); err != nil {
			return nil, fmt.Errorf("cannot NewEnginePRNG: %w", err)
		}
		return NewKeyedPRNG(seed)
	case CTRPrng:
		seed := make([]byte, chacha20.KeySize+chacha20.NonceSize)
		if _, err := rand.Read(seed); err != nil {
			return nil, fmt.Errorf("cannot NewEnginePRNG: %w", err)
		}
		return NewChaChaPRNG(seed[:chacha20.KeySize], seed[chacha20.KeySize:])
	case PBPrng:
		return nil, fmt.Errorf("cannot NewEnginePRNG: engine %s must be pre-initialized with a passphrase", e)
	default:
		if e.IsValid() {
			return nil, fmt.Errorf("cannot NewEnginePRNG: engine %s is not supported", e)
		}
		return nil, fmt.Errorf("cannot NewEnginePRNG: invalid engine %d", int32(e))
	}
}
