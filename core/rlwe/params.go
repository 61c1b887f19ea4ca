package rlwe

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/tuneinsight/ringlwe/ring"
	"github.com/tuneinsight/ringlwe/utils/buffer"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

// OIdFamily is the first byte of every parameter set identifier.
const OIdFamily = 2

// DefaultMFP is the default number of random bytes prefixed to short plaintexts.
const DefaultMFP = 0

// DefaultRandomEngine is the random engine used when none is specified.
const DefaultRandomEngine = sampling.CSPRng

// parametersBinarySize is the size of the serialized parameters:
// N, Q, Sigma, OId, MFP and RandomEngine.
const parametersBinarySize = 4 + 4 + 8 + 3 + 4 + 4

// ParametersLiteral is a literal representation of RLWE parameters. It has public fields and
// is used to express unchecked user-defined parameters literally into Go programs.
// The [NewParametersFromLiteral] function is used to generate the actual checked parameters
// from the literal representation.
//
// Only two (N, Q, Sigma) combinations are valid: those of [N256Q7681] and [N512Q12289].
type ParametersLiteral struct {
	N            int
	Q            uint32
	Sigma        float64
	OId          [3]byte
	MFP          int             `json:",omitempty"`
	RandomEngine sampling.Engine `json:",omitempty"`
}

var (
	// N256Q7681 is the parameter set with N=256 and Q=7681.
	N256Q7681 = ParametersLiteral{
		N:            256,
		Q:            7681,
		Sigma:        11.31,
		OId:          [3]byte{OIdFamily, 2, 0},
		MFP:          DefaultMFP,
		RandomEngine: DefaultRandomEngine,
	}

	// N512Q12289 is the parameter set with N=512 and Q=12289.
	N512Q12289 = ParametersLiteral{
		N:            512,
		Q:            12289,
		Sigma:        12.18,
		OId:          [3]byte{OIdFamily, 5, 1},
		MFP:          DefaultMFP,
		RandomEngine: DefaultRandomEngine,
	}
)

var presets = map[string]ParametersLiteral{
	"N256Q7681":  N256Q7681,
	"N512Q12289": N512Q12289,
}

// Parameters represents a set of RLWE parameters. Its fields are private and
// immutable. See [ParametersLiteral] for user-specified parameters.
type Parameters struct {
	n      int
	q      uint32
	sigma  float64
	oid    [3]byte
	mfp    int
	engine sampling.Engine
	ringQ  *ring.Ring
}

// NewParameters returns a new set of RLWE parameters. It returns the empty parameters
// [Parameters]{} and an error wrapping [ErrConfiguration] if the specified parameters are invalid.
func NewParameters(N int, Q uint32, sigma float64, oid [3]byte, mfp int, engine sampling.Engine) (params Parameters, err error) {

	if err = checkSet(N, Q, sigma); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParameters: %w", err)
	}

	if mfp < 0 || mfp > N>>4 {
		return Parameters{}, fmt.Errorf("cannot NewParameters: %w: MFP=%d must be in [0, N/16=%d]", ErrConfiguration, mfp, N>>4)
	}

	if oid[0] != OIdFamily || oid[2] > 1 {
		return Parameters{}, fmt.Errorf("cannot NewParameters: %w: malformed OId %v", ErrConfiguration, oid)
	}

	if !engine.IsValid() {
		return Parameters{}, fmt.Errorf("cannot NewParameters: %w: invalid random engine %d", ErrConfiguration, int32(engine))
	}

	params = Parameters{
		n:      N,
		q:      Q,
		sigma:  sigma,
		oid:    oid,
		mfp:    mfp,
		engine: engine,
	}

	if params.ringQ, err = ring.NewRing(N, Q); err != nil {
		return Parameters{}, fmt.Errorf("cannot NewParameters: %w: %w", ErrConfiguration, err)
	}

	return
}

// checkSet returns an error if (N, Q, Sigma) is not one of the shipped combinations.
func checkSet(N int, Q uint32, sigma float64) error {
	for _, p := range presets {
		if p.N == N {
			if p.Q != Q || p.Sigma != sigma {
				return fmt.Errorf("%w: N=%d requires Q=%d and Sigma=%.2f but have Q=%d and Sigma=%f", ErrConfiguration, N, p.Q, p.Sigma, Q, sigma)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: unsupported N=%d, must be 256 or 512", ErrConfiguration, N)
}

// NewParametersFromLiteral instantiates a set of RLWE parameters from a [ParametersLiteral] specification.
// It returns the empty parameters Parameters{} and a non-nil error if the specified parameters are invalid.
func NewParametersFromLiteral(paramDef ParametersLiteral) (params Parameters, err error) {
	return NewParameters(paramDef.N, paramDef.Q, paramDef.Sigma, paramDef.OId, paramDef.MFP, paramDef.RandomEngine)
}

// ParametersFromID returns the preset identified by oid: oid[2] = 0 selects
// [N256Q7681] and oid[2] = 1 selects [N512Q12289].
// Each call returns a new instance that shares nothing with previous ones.
func ParametersFromID(oid [3]byte) (params Parameters, err error) {

	if oid[0] != OIdFamily {
		return Parameters{}, fmt.Errorf("cannot ParametersFromID: %w: unknown OId family %d", ErrConfiguration, oid[0])
	}

	switch oid[2] {
	case 0:
		return NewParametersFromLiteral(N256Q7681)
	case 1:
		return NewParametersFromLiteral(N512Q12289)
	default:
		return Parameters{}, fmt.Errorf("cannot ParametersFromID: %w: unknown OId %v", ErrConfiguration, oid)
	}
}

// ParametersFromName returns the preset of the given name, case insensitive.
func ParametersFromName(name string) (params Parameters, err error) {
	for k, p := range presets {
		if strings.EqualFold(k, name) {
			return NewParametersFromLiteral(p)
		}
	}
	return Parameters{}, fmt.Errorf("cannot ParametersFromName: %w: unknown parameter set %q", ErrConfiguration, name)
}

// PresetNames returns the names accepted by [ParametersFromName].
func PresetNames() []string {
	return []string{"N256Q7681", "N512Q12289"}
}

// ParametersLiteral returns the [ParametersLiteral] of the target [Parameters].
func (p Parameters) ParametersLiteral() ParametersLiteral {
	return ParametersLiteral{
		N:            p.n,
		Q:            p.q,
		Sigma:        p.sigma,
		OId:          p.oid,
		MFP:          p.mfp,
		RandomEngine: p.engine,
	}
}

// Name returns the name of the preset the parameters are derived from.
func (p Parameters) Name() string {
	for _, name := range PresetNames() {
		if presets[name].N == p.n {
			return name
		}
	}
	return ""
}

// N returns the ring degree.
func (p Parameters) N() int {
	return p.n
}

// LogN returns the log2 of the ring degree.
func (p Parameters) LogN() int {
	if p.ringQ == nil {
		return 0
	}
	return p.ringQ.LogN()
}

// Q returns the modulus.
func (p Parameters) Q() uint32 {
	return p.q
}

// Sigma returns the parameter of the discrete Gaussian error distribution.
func (p Parameters) Sigma() float64 {
	return p.sigma
}

// OId returns the parameter set identifier.
func (p Parameters) OId() [3]byte {
	return p.oid
}

// MFP returns the number of random bytes that prefix the plaintexts shorter than MaxPlainText.
func (p Parameters) MFP() int {
	return p.mfp
}

// RandomEngine returns the random engine used by the encryptors and key generators.
func (p Parameters) RandomEngine() sampling.Engine {
	return p.engine
}

// RingQ returns a pointer to the ring of the parameters. The ring is read-only.
func (p Parameters) RingQ() *ring.Ring {
	return p.ringQ
}

// Xe returns the distribution of the error polynomials.
func (p Parameters) Xe() ring.DistributionParameters {
	return ring.DiscreteGaussian{Sigma: p.sigma}
}

// Xa returns the distribution of the public polynomial A.
func (p Parameters) Xa() ring.DistributionParameters {
	return ring.Uniform{}
}

// MaxPlainText returns the size in bytes of the largest plaintext, N/8.
func (p Parameters) MaxPlainText() int {
	return p.n >> 3
}

// MaxCipherText returns the size in bytes of a ciphertext, 8N.
func (p Parameters) MaxCipherText() int {
	return p.n << 3
}

// Equal checks two Parameter structs for equality.
func (p Parameters) Equal(other *Parameters) (res bool) {
	if other == nil {
		return false
	}
	res = p.n == other.n
	res = res && (p.q == other.q)
	res = res && (p.sigma == other.sigma)
	res = res && cmp.Equal(p.oid, other.oid)
	res = res && (p.mfp == other.mfp)
	res = res && (p.engine == other.engine)
	return
}

// BinarySize returns the serialized size of the object in bytes.
func (p Parameters) BinarySize() int {
	return parametersBinarySize
}

// MarshalBinary returns a []byte representation of the parameter set.
func (p Parameters) MarshalBinary() ([]byte, error) {
	buf := buffer.NewBufferSize(p.BinarySize())
	_, err := p.WriteTo(buf)
	return buf.Bytes(), err
}

// UnmarshalBinary decodes a []byte into a parameter set struct.
func (p *Parameters) UnmarshalBinary(data []byte) (err error) {
	if len(data) != parametersBinarySize {
		return fmt.Errorf("cannot UnmarshalBinary: %w: len(data)=%d != %d", ErrFormat, len(data), parametersBinarySize)
	}
	_, err = p.ReadFrom(buffer.NewBuffer(data))
	return
}

// MarshalJSON returns a JSON representation of this parameter set. See Marshal from the [encoding/json] package.
func (p Parameters) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ParametersLiteral())
}

// UnmarshalJSON reads a JSON representation of a parameter set into the receiver Parameter. See Unmarshal from the [encoding/json] package.
func (p *Parameters) UnmarshalJSON(data []byte) (err error) {
	var params ParametersLiteral
	if err = json.Unmarshal(data, &params); err != nil {
		return
	}
	*p, err = NewParametersFromLiteral(params)
	return
}

// WriteTo writes the parameters on w, in little-endian:
// int32 N, int32 Q, float64 Sigma, byte[3] OId, int32 MFP, int32 RandomEngine.
func (p Parameters) WriteTo(w io.Writer) (n int64, err error) {
	switch w := w.(type) {
	case buffer.Writer:

		var inc int64

		if inc, err = buffer.WriteAsInt32(w, p.n); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteAsInt32[N]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteInt32(w, int32(p.q)); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteInt32[Q]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteFloat64(w, p.sigma); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteFloat64[Sigma]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteUint8Slice(w, p.oid[:]); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteUint8Slice[OId]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteAsInt32(w, p.mfp); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteAsInt32[MFP]: %w", err)
		}
		n += inc

		if inc, err = buffer.WriteInt32(w, int32(p.engine)); err != nil {
			return n + inc, fmt.Errorf("buffer.WriteInt32[RandomEngine]: %w", err)
		}
		n += inc

		return n, w.Flush()

	default:
		return p.WriteTo(bufio.NewWriter(w))
	}
}

// ReadFrom reads on the object from an io.Reader. Truncated streams return an error
// wrapping [ErrFormat], and well-formed but invalid values an error wrapping both
// [ErrFormat] and [ErrConfiguration].
//
// Unless r implements the buffer.Reader interface, it will be wrapped into a bufio.Reader.
func (p *Parameters) ReadFrom(r io.Reader) (n int64, err error) {
	switch r := r.(type) {
	case buffer.Reader:

		var inc int64
		var N, mfp int
		var q, engine int32
		var sigma float64
		var oid [3]byte

		if inc, err = buffer.ReadAsInt32(r, &N); err != nil {
			return n + inc, fmt.Errorf("%w: buffer.ReadAsInt32[N]: %w", ErrFormat, err)
		}
		n += inc

		if inc, err = buffer.ReadInt32(r, &q); err != nil {
			return n + inc, fmt.Errorf("%w: buffer.ReadInt32[Q]: %w", ErrFormat, err)
		}
		n += inc

		if inc, err = buffer.ReadFloat64(r, &sigma); err != nil {
			return n + inc, fmt.Errorf("%w: buffer.ReadFloat64[Sigma]: %w", ErrFormat, err)
		}
		n += inc

		if inc, err = buffer.ReadUint8Slice(r, oid[:]); err != nil {
			return n + inc, fmt.Errorf("%w: buffer.ReadUint8Slice[OId]: %w", ErrFormat, err)
		}
		n += inc

		if inc, err = buffer.ReadAsInt32(r, &mfp); err != nil {
			return n + inc, fmt.Errorf("%w: buffer.ReadAsInt32[MFP]: %w", ErrFormat, err)
		}
		n += inc

		if inc, err = buffer.ReadInt32(r, &engine); err != nil {
			return n + inc, fmt.Errorf("%w: buffer.ReadInt32[RandomEngine]: %w", ErrFormat, err)
		}
		n += inc

		if *p, err = NewParameters(N, uint32(q), sigma, oid, mfp, sampling.Engine(engine)); err != nil {
			return n, fmt.Errorf("%w: %w", ErrFormat, err)
		}

		return

	default:
		return p.ReadFrom(bufio.NewReader(r))
	}
}
