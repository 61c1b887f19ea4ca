package rlwe

import (
	"fmt"
	"io"

	"github.com/tuneinsight/ringlwe/ring"
	"github.com/tuneinsight/ringlwe/utils"
	"github.com/tuneinsight/ringlwe/utils/buffer"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

// Encryptor encrypts and decrypts plaintexts of at most MaxPlainText bytes.
//
// An Encryptor must be initialized for a direction with [Encryptor.Initialize]
// before use and can be re-initialized any number of times. A failed
// initialization leaves it uninitialized.
//
// Decryption fails for a small fraction of the ciphertexts: the decrypted plaintext
// then differs from the encrypted one in a few bits. This is inherent to the scheme
// and is not reported as an error.
//
// An Encryptor is not safe for concurrent use.
type Encryptor struct {
	params Parameters
	*encryptorBuffers

	prng            sampling.PRNG
	gaussianSampler ring.Sampler

	initialized   bool
	forEncryption bool
	pk            *PublicKey
	sk            *PrivateKey
}

type encryptorBuffers struct {
	buffQ [4]ring.Poly
	buffM []byte
}

func newEncryptorBuffers(params Parameters) *encryptorBuffers {
	ringQ := params.RingQ()
	return &encryptorBuffers{
		buffQ: [4]ring.Poly{ringQ.NewPoly(), ringQ.NewPoly(), ringQ.NewPoly(), ringQ.NewPoly()},
		buffM: make([]byte, params.MaxPlainText()),
	}
}

// NewEncryptor creates a new uninitialized [Encryptor] drawing its randomness from the random
// engine of the parameters. It returns an error wrapping [ErrConfiguration] if the engine
// is not supported or requires caller-provided key material.
func NewEncryptor(params Parameters) (*Encryptor, error) {

	prng, err := sampling.NewEnginePRNG(params.RandomEngine())
	if err != nil {
		return nil, fmt.Errorf("cannot NewEncryptor: %w: %w", ErrConfiguration, err)
	}

	return NewEncryptorWithPRNG(params, prng), nil
}

// NewEncryptorWithPRNG creates a new uninitialized [Encryptor] drawing its randomness from prng.
func NewEncryptorWithPRNG(params Parameters, prng sampling.PRNG) *Encryptor {

	gaussianSampler, err := ring.NewSampler(prng, params.RingQ(), params.Xe())

	// Sanity check, this error should not happen: the parameters are validated.
	if err != nil {
		panic(fmt.Errorf("cannot NewEncryptorWithPRNG: %w", err))
	}

	return &Encryptor{
		params:           params,
		encryptorBuffers: newEncryptorBuffers(params),
		prng:             prng,
		gaussianSampler:  gaussianSampler,
	}
}

// GetRLWEParameters returns the underlying [Parameters].
func (enc Encryptor) GetRLWEParameters() *Parameters {
	return &enc.params
}

// Initialize prepares the [Encryptor] for encryption, if forEncryption is true, or
// for decryption, with the keys of kp.
//
// It returns an error wrapping [ErrState] if kp is nil, if one of its keys is not an
// [*PublicKey] or [*PrivateKey], or if the key required by the direction is missing.
// It returns an error wrapping [ErrConfiguration] if the key does not match the parameters.
func (enc *Encryptor) Initialize(forEncryption bool, kp *KeyPair) (err error) {

	enc.Reset()

	if kp == nil {
		return fmt.Errorf("cannot Initialize: %w: key pair is nil", ErrState)
	}

	if kp.Public != nil {
		if _, ok := kp.Public.(*PublicKey); !ok {
			return fmt.Errorf("cannot Initialize: %w: public key must be *rlwe.PublicKey but have %T", ErrState, kp.Public)
		}
	}

	if kp.Private != nil {
		if _, ok := kp.Private.(*PrivateKey); !ok {
			return fmt.Errorf("cannot Initialize: %w: private key must be *rlwe.PrivateKey but have %T", ErrState, kp.Private)
		}
	}

	if forEncryption {

		pk, ok := kp.PublicKey()
		if !ok {
			return fmt.Errorf("cannot Initialize: %w: encryption requires a public key", ErrState)
		}

		if err = enc.checkPk(pk); err != nil {
			return fmt.Errorf("cannot Initialize: %w", err)
		}

		enc.pk = pk

	} else {

		sk, ok := kp.PrivateKey()
		if !ok {
			return fmt.Errorf("cannot Initialize: %w: decryption requires a private key", ErrState)
		}

		if err = enc.checkSk(sk); err != nil {
			return fmt.Errorf("cannot Initialize: %w", err)
		}

		enc.sk = sk
	}

	enc.forEncryption = forEncryption
	enc.initialized = true

	return
}

// checkPk checks that the given pk matches the parameters.
func (enc Encryptor) checkPk(pk *PublicKey) (err error) {
	if pk.N() != enc.params.N() || pk.P.N() != enc.params.N() {
		return fmt.Errorf("%w: public key N=%d does not match the parameters N=%d", ErrConfiguration, pk.N(), enc.params.N())
	}
	if !enc.params.RingQ().IsReduced(pk.A) || !enc.params.RingQ().IsReduced(pk.P) {
		return fmt.Errorf("%w: public key has coefficients larger than Q=%d", ErrConfiguration, enc.params.Q())
	}
	return
}

// checkSk checks that the given sk matches the parameters.
func (enc Encryptor) checkSk(sk *PrivateKey) (err error) {
	if sk.N() != enc.params.N() {
		return fmt.Errorf("%w: private key N=%d does not match the parameters N=%d", ErrConfiguration, sk.N(), enc.params.N())
	}
	if !enc.params.RingQ().IsReduced(sk.R2) {
		return fmt.Errorf("%w: private key has coefficients larger than Q=%d", ErrConfiguration, enc.params.Q())
	}
	return
}

// Reset drops the keys of the [Encryptor], which returns to the uninitialized state.
// The keys themselves are not modified.
func (enc *Encryptor) Reset() {
	enc.initialized = false
	enc.forEncryption = false
	enc.pk = nil
	enc.sk = nil
}

// IsInitialized returns true if the [Encryptor] has been successfully initialized.
func (enc Encryptor) IsInitialized() bool {
	return enc.initialized
}

// IsEncryption returns true if the [Encryptor] is initialized for encryption.
func (enc Encryptor) IsEncryption() bool {
	return enc.initialized && enc.forEncryption
}

// MaxPlainText returns the size in bytes of the largest plaintext that can be
// encrypted: N/8 - MFP.
func (enc Encryptor) MaxPlainText() int {
	return enc.params.MaxPlainText() - enc.params.MFP()
}

// MaxCipherText returns the size in bytes of a ciphertext.
func (enc Encryptor) MaxCipherText() int {
	return enc.params.MaxCipherText()
}

// GetKeySize returns the serialized size in bytes of the given key.
// It returns an error wrapping [ErrState] if the [Encryptor] is not initialized
// or if key is neither an [*PublicKey] nor an [*PrivateKey].
func (enc Encryptor) GetKeySize(key Key) (size int, err error) {

	if !enc.initialized {
		return 0, fmt.Errorf("cannot GetKeySize: %w: encryptor is not initialized", ErrState)
	}

	switch key := key.(type) {
	case *PublicKey:
		return key.BinarySize(), nil
	case *PrivateKey:
		return key.BinarySize(), nil
	default:
		return 0, fmt.Errorf("cannot GetKeySize: %w: key must be *rlwe.PublicKey or *rlwe.PrivateKey but have %T", ErrState, key)
	}
}

// Encrypt encrypts pt and returns the serialized [Ciphertext] (MaxCipherText bytes).
func (enc Encryptor) Encrypt(pt []byte) (ct []byte, err error) {

	var ctStruct *Ciphertext
	if ctStruct, err = enc.EncryptNew(pt); err != nil {
		return
	}

	return ctStruct.MarshalBinary()
}

// EncryptNew encrypts pt on a new [Ciphertext].
//
// A plaintext shorter than N/8 bytes is written at offset MFP of N/8 random bytes
// before being encoded. A plaintext of exactly N/8 bytes is encoded as is.
//
// It returns an error wrapping [ErrState] if the [Encryptor] is not initialized for
// encryption and an error wrapping [ErrInputSize] if len(pt) > N/8 - MFP.
func (enc Encryptor) EncryptNew(pt []byte) (ct *Ciphertext, err error) {
	ct = NewCiphertext(enc.params)
	return ct, enc.EncryptTo(pt, ct)
}

// EncryptTo encrypts pt and writes the result on ct. See [Encryptor.EncryptNew].
func (enc Encryptor) EncryptTo(pt []byte, ct *Ciphertext) (err error) {

	if !enc.IsEncryption() {
		return fmt.Errorf("cannot Encrypt: %w: encryptor is not initialized for encryption", ErrState)
	}

	if len(pt) > enc.MaxPlainText() {
		return fmt.Errorf("cannot Encrypt: %w: len(pt)=%d > %d", ErrInputSize, len(pt), enc.MaxPlainText())
	}

	if ct == nil || ct.N() != enc.params.N() || ct.C2.N() != enc.params.N() {
		return fmt.Errorf("cannot Encrypt: ciphertext is not allocated for N=%d", enc.params.N())
	}

	ringQ := enc.params.RingQ()

	padded := enc.buffM
	defer utils.Zero(padded)

	if len(pt) < len(padded) {
		if _, err = io.ReadFull(enc.prng, padded); err != nil {
			return fmt.Errorf("cannot Encrypt: %w", err)
		}
		copy(padded[enc.params.MFP():], pt)
	} else {
		copy(padded, pt)
	}

	e1, e2, e3, m := enc.buffQ[0], enc.buffQ[1], enc.buffQ[2], enc.buffQ[3]
	defer func() {
		for i := range enc.buffQ {
			enc.buffQ[i].Zero()
		}
	}()

	enc.gaussianSampler.Read(e1)
	enc.gaussianSampler.Read(e2)
	enc.gaussianSampler.Read(e3)

	if err = ringQ.EncodeMessage(padded, m); err != nil {
		return fmt.Errorf("cannot Encrypt: %w", err)
	}

	ringQ.Add(e3, m, e3)

	ringQ.NTT(e1, e1)
	ringQ.NTT(e2, e2)
	ringQ.NTT(e3, e3)

	// C1 = A*e1 + e2
	ringQ.MulCoeffsThenAdd(enc.pk.A, e1, e2, ct.C1)
	// C2 = P*e1 + e3
	ringQ.MulCoeffsThenAdd(enc.pk.P, e1, e3, ct.C2)

	ringQ.Rearrange(ct.C1)
	ringQ.Rearrange(ct.C2)

	return
}

// Decrypt decrypts the serialized [Ciphertext] ct and returns the plaintext,
// stripped of its first MFP bytes.
//
// It returns an error wrapping [ErrState] if the [Encryptor] is not initialized for
// decryption and an error wrapping [ErrFormat] if ct is not a serialized ciphertext
// for the parameters.
func (enc Encryptor) Decrypt(ct []byte) (pt []byte, err error) {

	if !enc.initialized || enc.forEncryption {
		return nil, fmt.Errorf("cannot Decrypt: %w: encryptor is not initialized for decryption", ErrState)
	}

	if len(ct) != enc.MaxCipherText() {
		return nil, fmt.Errorf("cannot Decrypt: %w: len(ct)=%d != %d", ErrFormat, len(ct), enc.MaxCipherText())
	}

	ctStruct := NewCiphertext(enc.params)
	if _, err = ctStruct.ReadFrom(buffer.NewBuffer(ct)); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	return enc.DecryptNew(ctStruct)
}

// DecryptNew decrypts ct and returns the plaintext, stripped of its first MFP bytes:
//
//	m = INTT(C1*R2 + C2)
//
// which is rearranged to natural order and decoded bitwise.
func (enc Encryptor) DecryptNew(ct *Ciphertext) (pt []byte, err error) {

	if !enc.initialized || enc.forEncryption {
		return nil, fmt.Errorf("cannot Decrypt: %w: encryptor is not initialized for decryption", ErrState)
	}

	ringQ := enc.params.RingQ()

	if ct == nil || !ringQ.IsReduced(ct.C1) || !ringQ.IsReduced(ct.C2) {
		return nil, fmt.Errorf("cannot Decrypt: %w: ciphertext is not a valid element of the ring", ErrFormat)
	}

	m := enc.buffQ[0]
	defer m.Zero()

	decoded := enc.buffM
	defer utils.Zero(decoded)

	ringQ.MulCoeffsThenAdd(ct.C1, enc.sk.R2, ct.C2, m)
	ringQ.INTT(m, m)
	ringQ.Rearrange(m)

	if err = ringQ.DecodeMessage(m, decoded); err != nil {
		return nil, fmt.Errorf("cannot Decrypt: %w", err)
	}

	pt = make([]byte, len(decoded)-enc.params.MFP())
	copy(pt, decoded[enc.params.MFP():])

	return
}
