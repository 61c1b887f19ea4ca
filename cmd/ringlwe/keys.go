package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/sha3"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

const (
	publicKeySuffix  = ".pub"
	privateKeySuffix = ".priv"

	fingerprintSize = 16
)

// fingerprint returns a short SHAKE256 digest identifying a serialized key.
func fingerprint(key interface{ MarshalBinary() ([]byte, error) }) (string, error) {
	b, err := key.MarshalBinary()
	if err != nil {
		return "", err
	}
	sum := make([]byte, fingerprintSize)
	sha3.ShakeSum256(sum, b)
	return hex.EncodeToString(sum), nil
}

// newPRNG returns the random source of the engine of params. The passphrase
// engine is keyed with the SHAKE256 expansion of passphrase.
func newPRNG(params rlwe.Parameters, passphrase string) (sampling.PRNG, error) {

	if params.RandomEngine() != sampling.PBPrng {
		prng, err := sampling.NewEnginePRNG(params.RandomEngine())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rlwe.ErrConfiguration, err)
		}
		return prng, nil
	}

	if passphrase == "" {
		return nil, fmt.Errorf("%w: engine %s requires a passphrase", rlwe.ErrConfiguration, sampling.PBPrng)
	}

	key := make([]byte, 64)
	sha3.ShakeSum256(key, []byte(passphrase))

	return sampling.NewKeyedPRNG(key)
}

// keyPath returns the path of a key file, relative to dir unless name is absolute.
func keyPath(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

type binaryStream interface {
	io.WriterTo
	io.ReaderFrom
}

// writeKeyFile writes params followed by key on a new file.
// It fails if the file already exists.
func writeKeyFile(path string, params rlwe.Parameters, key binaryStream, mode os.FileMode) (err error) {

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(f)

	if _, err = params.WriteTo(w); err != nil {
		return
	}

	if _, err = key.WriteTo(w); err != nil {
		return
	}

	return w.Flush()
}

// readKeyFile reads the parameters and the key stored by writeKeyFile.
func readKeyFile(path string, key binaryStream) (params rlwe.Parameters, err error) {

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	r := bufio.NewReader(f)

	if _, err = params.ReadFrom(r); err != nil {
		return params, fmt.Errorf("%s: %w", path, err)
	}

	if _, err = key.ReadFrom(r); err != nil {
		return params, fmt.Errorf("%s: %w", path, err)
	}

	if _, err = r.ReadByte(); !errors.Is(err, io.EOF) {
		return params, fmt.Errorf("%s: %w: trailing data after key", path, rlwe.ErrFormat)
	}

	return params, nil
}

func loadPublicKey(path string) (params rlwe.Parameters, pk *rlwe.PublicKey, err error) {
	pk = new(rlwe.PublicKey)
	if params, err = readKeyFile(path, pk); err != nil {
		return
	}
	if pk.N() != params.N() {
		err = fmt.Errorf("%s: %w: key degree %d does not match parameters degree %d", path, rlwe.ErrFormat, pk.N(), params.N())
	}
	return
}

func loadPrivateKey(path string) (params rlwe.Parameters, sk *rlwe.PrivateKey, err error) {
	sk = new(rlwe.PrivateKey)
	if params, err = readKeyFile(path, sk); err != nil {
		return
	}
	if sk.N() != params.N() {
		err = fmt.Errorf("%s: %w: key degree %d does not match parameters degree %d", path, rlwe.ErrFormat, sk.N(), params.N())
	}
	return
}
