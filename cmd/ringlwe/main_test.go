package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/sign"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

func TestConfig(t *testing.T) {

	t.Run("Default", func(t *testing.T) {
		cfg := DefaultConfig()
		require.NoError(t, cfg.Validate())

		params, err := cfg.RLWEParameters()
		require.NoError(t, err)
		require.Equal(t, "N512Q12289", params.Name())
		require.Equal(t, rlwe.DefaultRandomEngine, params.RandomEngine())

		d, err := cfg.Digest()
		require.NoError(t, err)
		require.Equal(t, sign.DefaultDigest, d)
	})

	t.Run("Preset", func(t *testing.T) {
		cfg, err := Load([]byte(`
[Parameters]
Preset = "n256q7681"
MFP = 16
RandomEngine = "CTRPrng"

[Signature]
Digest = "Blake3"

[Logging]
Level = "DEBUG"
`))
		require.NoError(t, err)

		params, err := cfg.RLWEParameters()
		require.NoError(t, err)
		require.Equal(t, 256, params.N())
		require.Equal(t, 16, params.MFP())
		require.Equal(t, sampling.CTRPrng, params.RandomEngine())
		require.Equal(t, defaultKeyDir, cfg.Keys.Dir)

		d, err := cfg.Digest()
		require.NoError(t, err)
		require.Equal(t, sign.Blake3, d)
	})

	t.Run("Literal", func(t *testing.T) {
		cfg, err := Load([]byte(`
[Parameters.Literal]
N = 256
Q = 7681
Sigma = 11.31
OId = [2, 2, 0]
`))
		require.NoError(t, err)

		params, err := cfg.RLWEParameters()
		require.NoError(t, err)

		preset, err := rlwe.NewParametersFromLiteral(rlwe.N256Q7681)
		require.NoError(t, err)
		require.True(t, params.Equal(&preset))
	})

	for _, tt := range []struct {
		name string
		body string
	}{
		{"Undecoded", "[Parameters]\nPresets = \"N256Q7681\"\n"},
		{"UnknownPreset", "[Parameters]\nPreset = \"N1024Q12289\"\n"},
		{"MFPTooLarge", "[Parameters]\nPreset = \"N256Q7681\"\nMFP = 17\n"},
		{"UnknownEngine", "[Parameters]\nRandomEngine = \"Mersenne\"\n"},
		{"UnsupportedDigest", "[Signature]\nDigest = \"Skein512\"\n"},
		{"Level", "[Logging]\nLevel = \"TRACE\"\n"},
		{"PresetAndLiteral", "[Parameters]\nPreset = \"N256Q7681\"\n[Parameters.Literal]\nN = 256\n"},
		{"Syntax", "[Parameters\n"},
	} {
		t.Run("Invalid/"+tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.body))
			require.Error(t, err)
		})
	}

	t.Run("LoadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ringlwe.toml")
		require.NoError(t, os.WriteFile(path, []byte("[Keys]\nDir = \"/tmp\"\n"), 0600))

		cfg, err := LoadFile(path)
		require.NoError(t, err)
		require.Equal(t, "/tmp", cfg.Keys.Dir)

		_, err = LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
		require.Error(t, err)
	})
}

func TestEnvelope(t *testing.T) {

	params, err := rlwe.NewParametersFromLiteral(rlwe.N256Q7681)
	require.NoError(t, err)

	t.Run("Signature", func(t *testing.T) {

		env := &SignatureEnvelope{
			OId:       params.OId(),
			Digest:    sign.SHA256,
			Signature: bytes.Repeat([]byte{0xa5}, params.MaxCipherText()),
		}

		data, err := marshalEnvelope(env)
		require.NoError(t, err)

		// Deterministic encoding.
		again, err := marshalEnvelope(env)
		require.NoError(t, err)
		require.Equal(t, data, again)

		var have SignatureEnvelope
		require.NoError(t, unmarshalEnvelope(data, &have))
		require.Equal(t, *env, have)
		require.NoError(t, checkOId(params, have.OId))

		other, err := rlwe.NewParametersFromLiteral(rlwe.N512Q12289)
		require.NoError(t, err)
		require.ErrorIs(t, checkOId(other, have.OId), rlwe.ErrConfiguration)

		require.ErrorIs(t, unmarshalEnvelope(append(data, 0), &have), rlwe.ErrFormat)
		require.ErrorIs(t, unmarshalEnvelope(data[:len(data)-1], &have), rlwe.ErrFormat)
	})

	t.Run("Ciphertext", func(t *testing.T) {

		env := &CiphertextEnvelope{
			OId:        params.OId(),
			Length:     7,
			Ciphertext: make([]byte, params.MaxCipherText()),
		}

		data, err := marshalEnvelope(env)
		require.NoError(t, err)

		var have CiphertextEnvelope
		require.NoError(t, unmarshalEnvelope(data, &have))
		require.Equal(t, *env, have)
	})

	t.Run("DuplicateKeys", func(t *testing.T) {
		data, err := cbor.Marshal(map[int]int{2: 1})
		require.NoError(t, err)
		// Map with the key 2 twice.
		data = append([]byte{0xa2}, append(data[1:], data[1:]...)...)

		var have CiphertextEnvelope
		require.ErrorIs(t, unmarshalEnvelope(data, &have), rlwe.ErrFormat)
	})
}

func TestKeyFiles(t *testing.T) {

	params, err := rlwe.NewParametersFromLiteral(rlwe.N256Q7681)
	require.NoError(t, err)

	prng, err := sampling.NewPRNG()
	require.NoError(t, err)

	sk, pk := rlwe.NewKeyGeneratorWithPRNG(params, prng).GenKeyPairNew()

	dir := t.TempDir()

	t.Run("RoundTrip", func(t *testing.T) {

		pubPath := filepath.Join(dir, "key"+publicKeySuffix)
		privPath := filepath.Join(dir, "key"+privateKeySuffix)

		require.NoError(t, writeKeyFile(pubPath, params, pk, 0644))
		require.NoError(t, writeKeyFile(privPath, params, sk, 0600))

		require.Error(t, writeKeyFile(pubPath, params, pk, 0644))

		haveParams, havePk, err := loadPublicKey(pubPath)
		require.NoError(t, err)
		require.True(t, params.Equal(&haveParams))
		require.True(t, pk.Equal(havePk))

		haveParams, haveSk, err := loadPrivateKey(privPath)
		require.NoError(t, err)
		require.True(t, params.Equal(&haveParams))
		require.True(t, sk.Equal(haveSk))

		// The files are not interchangeable.
		_, _, err = loadPrivateKey(pubPath)
		require.ErrorIs(t, err, rlwe.ErrFormat)
	})

	t.Run("Truncated", func(t *testing.T) {

		data, err := params.MarshalBinary()
		require.NoError(t, err)

		path := filepath.Join(dir, "truncated"+publicKeySuffix)
		require.NoError(t, os.WriteFile(path, data, 0644))

		_, _, err = loadPublicKey(path)
		require.ErrorIs(t, err, rlwe.ErrFormat)
	})

	t.Run("Fingerprint", func(t *testing.T) {

		fp, err := fingerprint(pk)
		require.NoError(t, err)
		require.Len(t, fp, 2*fingerprintSize)

		again, err := fingerprint(pk.CopyNew())
		require.NoError(t, err)
		require.Equal(t, fp, again)

		_, other := rlwe.NewKeyGeneratorWithPRNG(params, prng).GenKeyPairNew()
		fpOther, err := fingerprint(other)
		require.NoError(t, err)
		require.NotEqual(t, fp, fpOther)
	})

	t.Run("KeyPath", func(t *testing.T) {
		require.Equal(t, filepath.Join("keys", "a.pub"), keyPath("keys", "a.pub"))
		require.Equal(t, "/abs/a.pub", keyPath("keys", "/abs/a.pub"))
	})
}

func TestPassphraseEngine(t *testing.T) {

	lit := rlwe.N256Q7681
	lit.RandomEngine = sampling.PBPrng
	params, err := rlwe.NewParametersFromLiteral(lit)
	require.NoError(t, err)

	_, err = newPRNG(params, "")
	require.ErrorIs(t, err, rlwe.ErrConfiguration)

	// Same passphrase, same keys.
	var keys [2]*rlwe.PublicKey
	for i := range keys {
		prng, err := newPRNG(params, "correct horse battery staple")
		require.NoError(t, err)
		_, keys[i] = rlwe.NewKeyGeneratorWithPRNG(params, prng).GenKeyPairNew()
	}
	require.True(t, keys[0].Equal(keys[1]))
}

func TestCommands(t *testing.T) {

	dir := t.TempDir()

	run := func(args ...string) (string, error) {
		cmd := newRootCommand()
		out := new(bytes.Buffer)
		cmd.SetOut(out)
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs(append(args, "--preset", "N256Q7681", "--digest", "SHA256", "--key-dir", dir, "--log-level", "ERROR"))
		err := cmd.Execute()
		return out.String(), err
	}

	t.Run("Params", func(t *testing.T) {
		out, err := run("params")
		require.NoError(t, err)
		require.Contains(t, out, "N256Q7681")
		require.Contains(t, out, "00010000011e0000")

		out, err = run("params", "N512Q12289", "--json")
		require.NoError(t, err)

		var lit struct {
			rlwe.ParametersLiteral
			Xe, Xa map[string]interface{}
		}
		require.NoError(t, json.Unmarshal([]byte(out), &lit))
		require.Equal(t, uint32(12289), lit.Q)
		require.Equal(t, map[string]interface{}{"Type": "DiscreteGaussian", "Sigma": 12.18}, lit.Xe)
		require.Equal(t, map[string]interface{}{"Type": "Uniform"}, lit.Xa)
	})

	t.Run("Keygen", func(t *testing.T) {
		out, err := run("keygen", "--out", "alice")
		require.NoError(t, err)
		require.Len(t, strings.TrimSpace(out), 2*fingerprintSize)

		_, err = run("keygen", "--out", "alice")
		require.Error(t, err)
	})

	pub := filepath.Join(dir, "alice"+publicKeySuffix)
	priv := filepath.Join(dir, "alice"+privateKeySuffix)

	msgPath := filepath.Join(dir, "msg")
	require.NoError(t, os.WriteFile(msgPath, []byte("attack at dawn"), 0600))

	t.Run("EncryptDecrypt", func(t *testing.T) {
		ctPath := filepath.Join(dir, "msg.ct")
		ptPath := filepath.Join(dir, "msg.pt")

		_, err := run("encrypt", "--key", pub, "--in", msgPath, "--out", ctPath)
		require.NoError(t, err)

		_, err = run("decrypt", "--key", priv, "--in", ctPath, "--out", ptPath)
		require.NoError(t, err)

		have, err := os.ReadFile(ptPath)
		require.NoError(t, err)
		require.Len(t, have, len("attack at dawn"))
	})

	t.Run("SignVerifyTampered", func(t *testing.T) {
		sigPath := filepath.Join(dir, "msg.sig")

		_, err := run("sign", "--key", pub, "--in", msgPath, "--out", sigPath)
		require.NoError(t, err)

		tampered := filepath.Join(dir, "tampered")
		require.NoError(t, os.WriteFile(tampered, []byte("attack at dusk"), 0600))

		_, err = run("verify", "--key", priv, "--in", tampered, "--sig", sigPath)
		require.ErrorIs(t, err, errInvalidSignature)
	})

	t.Run("Sample", func(t *testing.T) {
		html := filepath.Join(dir, "hist.html")
		out, err := run("sample", "--samples", "4096", "--html", html)
		require.NoError(t, err)
		require.Contains(t, out, "samples:  4096")

		_, err = os.Stat(html)
		require.NoError(t, err)
	})

	t.Run("Bench", func(t *testing.T) {
		out, err := run("bench", "--messages", "32", "--rotate", "8")
		require.NoError(t, err)
		require.Contains(t, out, "messages:    32")
	})
}

func TestSampleReport(t *testing.T) {

	r, err := newSampleReport([]int64{-2, -1, 0, 0, 1, 2}, 1)
	require.NoError(t, err)
	require.Equal(t, 6, r.Count)
	require.Equal(t, 0.0, r.Mean)
	require.Equal(t, -2.0, r.Min)
	require.Equal(t, 2.0, r.Max)
	require.Equal(t, []int{1, 1, 2, 1, 1}, r.Histogram)

	_, err = newSampleReport(nil, 1)
	require.Error(t, err)
}
