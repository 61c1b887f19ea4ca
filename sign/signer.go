// Package sign implements a one-time signature on top of the RLWE encryption:
// a signature is the encryption of the digest of the message under the
// public key, and is verified by decrypting it with the private key.
//
// A key pair must sign a single message. Signing several messages with the same
// key pair weakens the scheme and is not prevented by this package.
package sign

import (
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

// Signer signs and verifies messages with a [rlwe.KeyPair].
//
// Verification inherits the decryption failure rate of the encryption:
// a valid signature is rejected with a probability of a few percent.
//
// A Signer is not safe for concurrent use.
type Signer struct {
	params rlwe.Parameters
	digest Digest
	enc    *rlwe.Encryptor
	kp     *rlwe.KeyPair
}

// NewSigner creates a new uninitialized [Signer] drawing its randomness from the random
// engine of the parameters. It returns an error wrapping [rlwe.ErrConfiguration] if the
// digest or the random engine is not supported.
func NewSigner(params rlwe.Parameters, digest Digest) (*Signer, error) {

	prng, err := sampling.NewEnginePRNG(params.RandomEngine())
	if err != nil {
		return nil, fmt.Errorf("cannot NewSigner: %w: %w", rlwe.ErrConfiguration, err)
	}

	return NewSignerWithPRNG(params, digest, prng)
}

// NewSignerWithPRNG creates a new uninitialized [Signer] drawing its randomness from prng.
func NewSignerWithPRNG(params rlwe.Parameters, digest Digest, prng sampling.PRNG) (*Signer, error) {

	if _, err := digest.New(); err != nil {
		return nil, fmt.Errorf("cannot NewSigner: %w", err)
	}

	return &Signer{
		params: params,
		digest: digest,
		enc:    rlwe.NewEncryptorWithPRNG(params, prng),
	}, nil
}

// Digest returns the digest of the [Signer].
func (s Signer) Digest() Digest {
	return s.digest
}

// MaxPlainText returns the largest digest size, in bytes, the parameters can sign.
func (s Signer) MaxPlainText() int {
	return s.enc.MaxPlainText()
}

// Initialize sets the key pair of the [Signer]. Signing requires its public key
// and verifying its private key.
// It returns an error wrapping [rlwe.ErrState] if kp is nil or holds keys of the wrong type.
func (s *Signer) Initialize(kp *rlwe.KeyPair) (err error) {

	s.Reset()

	if kp == nil {
		return fmt.Errorf("cannot Initialize: %w: key pair is nil", rlwe.ErrState)
	}

	if s.kp, err = rlwe.NewKeyPair(kp.Public, kp.Private); err != nil {
		return fmt.Errorf("cannot Initialize: %w", err)
	}

	return
}

// Reset drops the key pair of the [Signer].
func (s *Signer) Reset() {
	s.kp = nil
	s.enc.Reset()
}

// Sign returns the signature of msg: the encryption of its digest.
//
// It returns an error wrapping [rlwe.ErrState] if the [Signer] has no public key
// and an error wrapping [rlwe.ErrConfiguration] if the digest is larger than
// [Signer.MaxPlainText].
func (s *Signer) Sign(msg []byte) (sig []byte, err error) {

	var sum []byte
	if sum, err = s.sum(func(w io.Writer) (err error) {
		_, err = w.Write(msg)
		return
	}); err != nil {
		return nil, fmt.Errorf("cannot Sign: %w", err)
	}

	return s.sign(sum)
}

// SignRange signs buf[off:off+n]. It returns an error wrapping [rlwe.ErrInputSize]
// if the range is not within buf.
func (s *Signer) SignRange(buf []byte, off, n int) (sig []byte, err error) {

	if err = checkRange(buf, off, n); err != nil {
		return nil, fmt.Errorf("cannot SignRange: %w", err)
	}

	return s.Sign(buf[off : off+n])
}

// SignReader signs the content read from r until EOF.
func (s *Signer) SignReader(r io.Reader) (sig []byte, err error) {

	var sum []byte
	if sum, err = s.sum(func(w io.Writer) (err error) {
		_, err = io.Copy(w, r)
		return
	}); err != nil {
		return nil, fmt.Errorf("cannot SignReader: %w", err)
	}

	return s.sign(sum)
}

func (s *Signer) sign(sum []byte) (sig []byte, err error) {

	if s.kp == nil {
		return nil, fmt.Errorf("cannot Sign: %w: signer is not initialized", rlwe.ErrState)
	}

	if _, ok := s.kp.PublicKey(); !ok {
		return nil, fmt.Errorf("cannot Sign: %w: signing requires a public key", rlwe.ErrState)
	}

	if len(sum) > s.MaxPlainText() {
		return nil, fmt.Errorf("cannot Sign: %w: digest %s of %d bytes exceeds the %d bytes of plaintext", rlwe.ErrConfiguration, s.digest, len(sum), s.MaxPlainText())
	}

	if err = s.enc.Initialize(true, s.kp); err != nil {
		return nil, fmt.Errorf("cannot Sign: %w", err)
	}

	return s.enc.Encrypt(sum)
}

// Verify returns true if sig is a signature of msg.
//
// It returns an error wrapping [rlwe.ErrState] if the [Signer] has no private key
// and an error wrapping [rlwe.ErrFormat] if sig is not a serialized ciphertext.
func (s *Signer) Verify(msg, sig []byte) (ok bool, err error) {

	var sum []byte
	if sum, err = s.sum(func(w io.Writer) (err error) {
		_, err = w.Write(msg)
		return
	}); err != nil {
		return false, fmt.Errorf("cannot Verify: %w", err)
	}

	return s.verify(sum, sig)
}

// VerifyRange verifies sig against buf[off:off+n]. It returns an error wrapping
// [rlwe.ErrInputSize] if the range is not within buf.
func (s *Signer) VerifyRange(buf []byte, off, n int, sig []byte) (ok bool, err error) {

	if err = checkRange(buf, off, n); err != nil {
		return false, fmt.Errorf("cannot VerifyRange: %w", err)
	}

	return s.Verify(buf[off:off+n], sig)
}

// VerifyReader verifies sig against the content read from r until EOF.
func (s *Signer) VerifyReader(r io.Reader, sig []byte) (ok bool, err error) {

	var sum []byte
	if sum, err = s.sum(func(w io.Writer) (err error) {
		_, err = io.Copy(w, r)
		return
	}); err != nil {
		return false, fmt.Errorf("cannot VerifyReader: %w", err)
	}

	return s.verify(sum, sig)
}

func (s *Signer) verify(sum, sig []byte) (ok bool, err error) {

	if s.kp == nil {
		return false, fmt.Errorf("cannot Verify: %w: signer is not initialized", rlwe.ErrState)
	}

	if _, ok := s.kp.PrivateKey(); !ok {
		return false, fmt.Errorf("cannot Verify: %w: verifying requires a private key", rlwe.ErrState)
	}

	if len(sum) > s.MaxPlainText() {
		return false, fmt.Errorf("cannot Verify: %w: digest %s of %d bytes exceeds the %d bytes of plaintext", rlwe.ErrConfiguration, s.digest, len(sum), s.MaxPlainText())
	}

	if err = s.enc.Initialize(false, s.kp); err != nil {
		return false, fmt.Errorf("cannot Verify: %w", err)
	}

	var pt []byte
	if pt, err = s.enc.Decrypt(sig); err != nil {
		return false, fmt.Errorf("cannot Verify: %w", err)
	}

	return subtle.ConstantTimeCompare(sum, pt[:len(sum)]) == 1, nil
}

// sum returns the digest of what write writes on the hash.
func (s Signer) sum(write func(w io.Writer) error) (sum []byte, err error) {

	h, err := s.digest.New()
	if err != nil {
		return nil, err
	}

	if err = write(h); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

func checkRange(buf []byte, off, n int) error {
	if off < 0 || n < 0 || off > len(buf) || n > len(buf)-off {
		return fmt.Errorf("%w: range [%d, %d+%d) is outside of the %d bytes buffer", rlwe.ErrInputSize, off, off, n, len(buf))
	}
	return nil
}
