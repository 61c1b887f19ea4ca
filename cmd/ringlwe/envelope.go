package main

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/sign"
)

// SignatureEnvelope is the CBOR encoded content of a signature file.
type SignatureEnvelope struct {
	OId       [3]byte     `cbor:"1,keyasint"`
	Digest    sign.Digest `cbor:"2,keyasint"`
	Signature []byte      `cbor:"3,keyasint"`
}

// CiphertextEnvelope is the CBOR encoded content of an encrypted file.
// Length is the size of the plaintext, which decryption cannot recover
// for plaintexts shorter than the plaintext capacity.
type CiphertextEnvelope struct {
	OId        [3]byte `cbor:"1,keyasint"`
	Length     int     `cbor:"2,keyasint"`
	Ciphertext []byte  `cbor:"3,keyasint"`
}

var (
	envEncMode cbor.EncMode
	envDecMode cbor.DecMode
)

func init() {
	var err error
	if envEncMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if envDecMode, err = (cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}).DecMode(); err != nil {
		panic(err)
	}
}

func marshalEnvelope(v interface{}) ([]byte, error) {
	return envEncMode.Marshal(v)
}

func unmarshalEnvelope(b []byte, v interface{}) error {
	if err := envDecMode.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %w", rlwe.ErrFormat, err)
	}
	return nil
}

// checkOId returns an error if the envelope was not produced under params.
func checkOId(params rlwe.Parameters, oid [3]byte) error {
	if params.OId() != oid {
		return fmt.Errorf("%w: envelope parameters %v do not match key parameters %v", rlwe.ErrConfiguration, oid, params.OId())
	}
	return nil
}
