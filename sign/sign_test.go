package sign

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

func testString(params rlwe.Parameters, digest Digest, opname string) string {
	return fmt.Sprintf("%s/N=%d/Q=%d/MFP=%d/Digest=%s",
		opname,
		params.N(),
		params.Q(),
		params.MFP(),
		digest)
}

type testContext struct {
	params rlwe.Parameters
	digest Digest
	prng   sampling.PRNG
	kgen   *rlwe.KeyGenerator
	signer *Signer
}

func newTestContext(t *testing.T, paramsLit rlwe.ParametersLiteral, digest Digest) *testContext {

	params, err := rlwe.NewParametersFromLiteral(paramsLit)
	require.NoError(t, err)

	prng, err := sampling.NewPRNG()
	require.NoError(t, err)

	signer, err := NewSignerWithPRNG(params, digest, prng)
	require.NoError(t, err)

	return &testContext{
		params: params,
		digest: digest,
		prng:   prng,
		kgen:   rlwe.NewKeyGeneratorWithPRNG(params, prng),
		signer: signer,
	}
}

func TestSigner(t *testing.T) {

	for _, tc := range []*testContext{
		newTestContext(t, rlwe.N512Q12289, SHA512),
		newTestContext(t, rlwe.N512Q12289, Blake3),
		newTestContext(t, rlwe.N256Q7681, SHA256),
	} {
		testSignVerify(tc, t)
		testSignVariants(tc, t)
		testSignerState(tc, t)
	}

	testDigestTooLarge(t)
}

func testSignVerify(tc *testContext, t *testing.T) {

	t.Run(testString(tc.params, tc.digest, "SignVerify/Fresh"), func(t *testing.T) {

		msg := []byte("the quick brown fox jumps over the lazy dog")

		nbKeys := 20
		var valid int
		for i := 0; i < nbKeys; i++ {

			require.NoError(t, tc.signer.Initialize(tc.kgen.GenKeyPair()))

			sig, err := tc.signer.Sign(msg)
			require.NoError(t, err)
			require.Len(t, sig, tc.params.MaxCipherText())

			ok, err := tc.signer.Verify(msg, sig)
			require.NoError(t, err)

			if ok {
				valid++
			}
		}

		// A valid signature is rejected on a decryption failure.
		require.GreaterOrEqual(t, valid, 15)
	})

	t.Run(testString(tc.params, tc.digest, "SignVerify/Tampered"), func(t *testing.T) {

		require.NoError(t, tc.signer.Initialize(tc.kgen.GenKeyPair()))

		msg := []byte("the quick brown fox jumps over the lazy dog")

		sig, err := tc.signer.Sign(msg)
		require.NoError(t, err)

		for i := 0; i < 16; i++ {
			tampered := bytes.Clone(msg)
			tampered[i] ^= 1 << (i & 7)
			ok, err := tc.signer.Verify(tampered, sig)
			require.NoError(t, err)
			require.False(t, ok)
		}

		ok, err := tc.signer.Verify(append(bytes.Clone(msg), '.'), sig)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run(testString(tc.params, tc.digest, "SignVerify/SplitKeys"), func(t *testing.T) {

		sk, pk := tc.kgen.GenKeyPairNew()

		signer, err := NewSignerWithPRNG(tc.params, tc.digest, tc.prng)
		require.NoError(t, err)

		verifier, err := NewSignerWithPRNG(tc.params, tc.digest, tc.prng)
		require.NoError(t, err)

		require.NoError(t, signer.Initialize(&rlwe.KeyPair{Public: pk}))
		require.NoError(t, verifier.Initialize(&rlwe.KeyPair{Private: sk}))

		msg := []byte("split")

		sig, err := signer.Sign(msg)
		require.NoError(t, err)

		_, err = signer.Verify(msg, sig)
		require.ErrorIs(t, err, rlwe.ErrState)

		_, err = verifier.Sign(msg)
		require.ErrorIs(t, err, rlwe.ErrState)

		// The outcome may be a decryption failure, but never an error.
		_, err = verifier.Verify(msg, sig)
		require.NoError(t, err)
	})
}

func testSignVariants(tc *testContext, t *testing.T) {

	t.Run(testString(tc.params, tc.digest, "SignVariants"), func(t *testing.T) {

		buf := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
		off, n := 10, 6

		// Retries absorb decryption failures.
		var ok bool
		for i := 0; i < 8 && !ok; i++ {

			require.NoError(t, tc.signer.Initialize(tc.kgen.GenKeyPair()))

			sig, err := tc.signer.SignRange(buf, off, n)
			require.NoError(t, err)

			if ok, err = tc.signer.Verify(buf[off:off+n], sig); err != nil || !ok {
				continue
			}

			ok, err = tc.signer.VerifyRange(buf, off, n, sig)
			require.NoError(t, err)
			require.True(t, ok)

			ok, err = tc.signer.VerifyReader(bytes.NewReader(buf[off:off+n]), sig)
			require.NoError(t, err)
			require.True(t, ok)

			sig, err = tc.signer.SignReader(bytes.NewReader(buf))
			require.NoError(t, err)

			if ok, err = tc.signer.Verify(buf, sig); err != nil {
				t.Fatal(err)
			}
		}

		require.True(t, ok)
	})

	t.Run(testString(tc.params, tc.digest, "SignVariants/Range"), func(t *testing.T) {

		require.NoError(t, tc.signer.Initialize(tc.kgen.GenKeyPair()))

		buf := make([]byte, 16)

		for _, r := range [][2]int{{-1, 4}, {0, -1}, {17, 0}, {8, 9}, {0, 17}} {
			_, err := tc.signer.SignRange(buf, r[0], r[1])
			require.ErrorIs(t, err, rlwe.ErrInputSize)

			_, err = tc.signer.VerifyRange(buf, r[0], r[1], nil)
			require.ErrorIs(t, err, rlwe.ErrInputSize)
		}

		_, err := tc.signer.SignRange(buf, 16, 0)
		require.NoError(t, err)
	})
}

func testSignerState(tc *testContext, t *testing.T) {

	t.Run(testString(tc.params, tc.digest, "SignerState"), func(t *testing.T) {

		signer, err := NewSignerWithPRNG(tc.params, tc.digest, tc.prng)
		require.NoError(t, err)

		_, err = signer.Sign([]byte("m"))
		require.ErrorIs(t, err, rlwe.ErrState)

		_, err = signer.Verify([]byte("m"), make([]byte, tc.params.MaxCipherText()))
		require.ErrorIs(t, err, rlwe.ErrState)

		require.ErrorIs(t, signer.Initialize(nil), rlwe.ErrState)
		require.ErrorIs(t, signer.Initialize(&rlwe.KeyPair{}), rlwe.ErrState)

		require.NoError(t, signer.Initialize(tc.kgen.GenKeyPair()))

		_, err = signer.Verify([]byte("m"), make([]byte, tc.params.MaxCipherText()-1))
		require.ErrorIs(t, err, rlwe.ErrFormat)

		signer.Reset()

		_, err = signer.Sign([]byte("m"))
		require.ErrorIs(t, err, rlwe.ErrState)
	})
}

func testDigestTooLarge(t *testing.T) {

	paramsLit := rlwe.N256Q7681

	params, err := rlwe.NewParametersFromLiteral(paramsLit)
	require.NoError(t, err)

	paramsLit.MFP = paramsLit.N >> 4
	paramsPadded, err := rlwe.NewParametersFromLiteral(paramsLit)
	require.NoError(t, err)

	prng, err := sampling.NewPRNG()
	require.NoError(t, err)

	for _, tt := range []struct {
		params rlwe.Parameters
		digest Digest
	}{
		{params, SHA512},
		{params, Blake512},
		{paramsPadded, SHA256},
	} {
		t.Run(testString(tt.params, tt.digest, "DigestTooLarge"), func(t *testing.T) {

			signer, err := NewSignerWithPRNG(tt.params, tt.digest, prng)
			require.NoError(t, err)

			require.NoError(t, signer.Initialize(rlwe.NewKeyGeneratorWithPRNG(tt.params, prng).GenKeyPair()))

			require.Greater(t, tt.digest.Size(), signer.MaxPlainText())

			_, err = signer.Sign([]byte("m"))
			require.ErrorIs(t, err, rlwe.ErrConfiguration)

			_, err = signer.Verify([]byte("m"), make([]byte, tt.params.MaxCipherText()))
			require.ErrorIs(t, err, rlwe.ErrConfiguration)
		})
	}
}

func TestDigest(t *testing.T) {

	sizes := map[Digest]int{
		Blake256:  32,
		Blake512:  64,
		Keccak256: 32,
		Keccak512: 64,
		SHA256:    32,
		SHA512:    64,
		Blake3:    32,
	}

	for d := Blake256; d <= Blake3; d++ {
		t.Run(fmt.Sprintf("Digest/%s", d), func(t *testing.T) {

			parsed, err := ParseDigest(d.String())
			require.NoError(t, err)
			require.Equal(t, d, parsed)

			text, err := d.MarshalText()
			require.NoError(t, err)

			var unmarshaled Digest
			require.NoError(t, unmarshaled.UnmarshalText(bytes.ToLower(text)))
			require.Equal(t, d, unmarshaled)

			size, ok := sizes[d]
			require.Equal(t, ok, d.IsSupported())
			require.Equal(t, size, d.Size())

			h, err := d.New()
			if !ok {
				require.ErrorIs(t, err, rlwe.ErrConfiguration)

				_, err = NewSignerWithPRNG(rlwe.Parameters{}, d, nil)
				require.ErrorIs(t, err, rlwe.ErrConfiguration)
				return
			}

			require.NoError(t, err)
			require.Equal(t, size, h.Size())
		})
	}

	t.Run("Digest/EmptyMessage", func(t *testing.T) {

		for d, want := range map[Digest]string{
			Blake256:  "0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
			Keccak256: "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470",
			Keccak512: "0eab42de4c3ceb9235fc91acffe746b29c29a8c366b7c60e4e67c466f36a4304c00fa9caf9d87976ba469bcbe06713b435f091ef2769fb160cdab33d3670680e",
		} {
			h, err := d.New()
			require.NoError(t, err)
			require.Equal(t, want, hex.EncodeToString(h.Sum(nil)), d.String())
		}
	})

	t.Run("Digest/Default", func(t *testing.T) {
		require.Equal(t, SHA512, DefaultDigest)
	})

	t.Run("Digest/Unknown", func(t *testing.T) {
		_, err := ParseDigest("MD5")
		require.ErrorIs(t, err, rlwe.ErrConfiguration)

		_, err = Digest(42).MarshalText()
		require.Error(t, err)
		require.Equal(t, "Digest(42)", Digest(42).String())
	})
}
