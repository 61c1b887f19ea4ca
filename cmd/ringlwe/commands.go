package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/ring"
	"github.com/tuneinsight/ringlwe/sign"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

var errInvalidSignature = errors.New("signature is not valid")

func (a *app) newParamsCommand() *cobra.Command {

	var asJSON bool

	cmd := &cobra.Command{
		Use:   "params [preset]",
		Short: "Print a parameter set and its binary encoding",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			params := a.params
			if len(args) == 1 {
				if params, err = rlwe.ParametersFromName(args[0]); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					rlwe.ParametersLiteral
					Xe ring.DistributionParameters
					Xa ring.DistributionParameters
				}{params.ParametersLiteral(), params.Xe(), params.Xa()})
			}

			data, err := params.MarshalBinary()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(w, "name:          %s\nN:             %d\nQ:             %d\nsigma:         %g\nOId:           %v\nMFP:           %d\nengine:        %s\nplaintext:     %d bytes\nciphertext:    %d bytes\nencoding:      %s\n",
				params.Name(), params.N(), params.Q(), params.Sigma(), params.OId(), params.MFP(), params.RandomEngine(),
				params.MaxPlainText()-params.MFP(), params.MaxCipherText(), hex.EncodeToString(data))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the parameters as JSON")

	return cmd
}

func (a *app) newKeygenCommand() *cobra.Command {

	var out string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair on <out>.pub and <out>.priv",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			pubPath := keyPath(a.cfg.Keys.Dir, out+publicKeySuffix)
			privPath := keyPath(a.cfg.Keys.Dir, out+privateKeySuffix)

			for _, path := range []string{pubPath, privPath} {
				if _, err = os.Stat(path); err == nil {
					return fmt.Errorf("refusing to overwrite %s", path)
				}
			}

			prng, err := newPRNG(a.params, a.passphrase)
			if err != nil {
				return err
			}

			sk, pk := rlwe.NewKeyGeneratorWithPRNG(a.params, prng).GenKeyPairNew()
			defer sk.Zero()

			if err = writeKeyFile(pubPath, a.params, pk, 0644); err != nil {
				return err
			}

			if err = writeKeyFile(privPath, a.params, sk, 0600); err != nil {
				return err
			}

			fp, err := fingerprint(pk)
			if err != nil {
				return err
			}

			a.log.Noticef("generated key pair %s (%s) with parameters %s", out, fp, a.params.Name())

			_, err = fmt.Fprintln(cmd.OutOrStdout(), fp)
			return err
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "ringlwe", "base name of the key files")

	return cmd
}

func (a *app) newEncryptCommand() *cobra.Command {

	var keyFile, in, out string

	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a file with a public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			params, pk, err := loadPublicKey(keyFile)
			if err != nil {
				return err
			}

			pt, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			prng, err := newPRNG(params, a.passphrase)
			if err != nil {
				return err
			}

			enc := rlwe.NewEncryptorWithPRNG(params, prng)
			if err = enc.Initialize(true, &rlwe.KeyPair{Public: pk}); err != nil {
				return err
			}

			ct, err := enc.Encrypt(pt)
			if err != nil {
				return err
			}

			data, err := marshalEnvelope(&CiphertextEnvelope{
				OId:        params.OId(),
				Length:     len(pt),
				Ciphertext: ct,
			})
			if err != nil {
				return err
			}

			a.log.Infof("encrypted %d bytes of %s under %s", len(pt), in, keyFile)

			return os.WriteFile(out, data, 0644)
		},
	}

	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "public key file")
	cmd.Flags().StringVarP(&in, "in", "i", "", "plaintext file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "ciphertext file")
	for _, name := range []string{"key", "in", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (a *app) newDecryptCommand() *cobra.Command {

	var keyFile, in, out string

	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Decrypt a file with a private key",
		Long:  "Decrypt a file with a private key. Decryption fails silently with a small probability, yielding a corrupted plaintext.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			params, sk, err := loadPrivateKey(keyFile)
			if err != nil {
				return err
			}
			defer sk.Zero()

			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			var env CiphertextEnvelope
			if err = unmarshalEnvelope(data, &env); err != nil {
				return fmt.Errorf("%s: %w", in, err)
			}

			if err = checkOId(params, env.OId); err != nil {
				return err
			}

			dec := rlwe.NewEncryptorWithPRNG(params, nil)
			if err = dec.Initialize(false, &rlwe.KeyPair{Private: sk}); err != nil {
				return err
			}

			pt, err := dec.Decrypt(env.Ciphertext)
			if err != nil {
				return err
			}

			if env.Length < 0 || env.Length > len(pt) {
				return fmt.Errorf("%s: %w: plaintext length %d exceeds the %d decrypted bytes", in, rlwe.ErrFormat, env.Length, len(pt))
			}

			a.log.Infof("decrypted %d bytes of %s with %s", env.Length, in, keyFile)

			return os.WriteFile(out, pt[:env.Length], 0600)
		},
	}

	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "private key file")
	cmd.Flags().StringVarP(&in, "in", "i", "", "ciphertext file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "plaintext file")
	for _, name := range []string{"key", "in", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (a *app) newSignCommand() *cobra.Command {

	var keyFile, in, out string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a file with the public key of a one-time key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			params, pk, err := loadPublicKey(keyFile)
			if err != nil {
				return err
			}

			prng, err := newPRNG(params, a.passphrase)
			if err != nil {
				return err
			}

			signer, err := sign.NewSignerWithPRNG(params, a.digest, prng)
			if err != nil {
				return err
			}

			if err = signer.Initialize(&rlwe.KeyPair{Public: pk}); err != nil {
				return err
			}

			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()

			sig, err := signer.SignReader(f)
			if err != nil {
				return err
			}

			data, err := marshalEnvelope(&SignatureEnvelope{
				OId:       params.OId(),
				Digest:    a.digest,
				Signature: sig,
			})
			if err != nil {
				return err
			}

			a.log.Noticef("signed %s with %s and %s, the key pair must not sign again", in, keyFile, a.digest)

			return os.WriteFile(out, data, 0644)
		},
	}

	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "public key file")
	cmd.Flags().StringVarP(&in, "in", "i", "", "file to sign")
	cmd.Flags().StringVarP(&out, "out", "o", "", "signature file")
	for _, name := range []string{"key", "in", "out"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (a *app) newVerifyCommand() *cobra.Command {

	var keyFile, in, sigFile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the signature of a file with the private key of a one-time key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			params, sk, err := loadPrivateKey(keyFile)
			if err != nil {
				return err
			}
			defer sk.Zero()

			data, err := os.ReadFile(sigFile)
			if err != nil {
				return err
			}

			var env SignatureEnvelope
			if err = unmarshalEnvelope(data, &env); err != nil {
				return fmt.Errorf("%s: %w", sigFile, err)
			}

			if err = checkOId(params, env.OId); err != nil {
				return err
			}

			signer, err := sign.NewSignerWithPRNG(params, env.Digest, nil)
			if err != nil {
				return err
			}

			if err = signer.Initialize(&rlwe.KeyPair{Private: sk}); err != nil {
				return err
			}

			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()

			ok, err := signer.VerifyReader(f, env.Signature)
			if err != nil {
				return err
			}

			if !ok {
				a.log.Warningf("signature %s of %s is not valid", sigFile, in)
				return errInvalidSignature
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return err
		},
	}

	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "private key file")
	cmd.Flags().StringVarP(&in, "in", "i", "", "signed file")
	cmd.Flags().StringVarP(&sigFile, "sig", "s", "", "signature file")
	for _, name := range []string{"key", "in", "sig"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (a *app) newSampleCommand() *cobra.Command {

	var count int
	var html string

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Report statistics of the discrete Gaussian sampler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			if count <= 0 {
				return fmt.Errorf("%w: --samples must be positive", rlwe.ErrInputSize)
			}

			prng, err := newPRNG(a.params, a.passphrase)
			if err != nil {
				return err
			}

			sampler, err := ring.NewKnuthYaoSampler(prng, a.params.RingQ(), ring.DiscreteGaussian{Sigma: a.params.Sigma()})
			if err != nil {
				return err
			}

			samples := make([]int64, count)
			start := time.Now()
			for i := range samples {
				samples[i] = sampler.ReadInt()
			}
			a.log.Infof("drew %d samples in %s", count, time.Since(start))

			report, err := newSampleReport(samples, a.params.Sigma())
			if err != nil {
				return err
			}

			if err = report.WriteText(cmd.OutOrStdout()); err != nil {
				return err
			}

			if html != "" {
				title := fmt.Sprintf("Knuth-Yao sampler, %s, sigma=%g", a.params.Name(), a.params.Sigma())
				if err = report.WriteHTML(html, title); err != nil {
					return err
				}
				a.log.Noticef("wrote histogram on %s", html)
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "samples", "n", 1<<16, "number of samples")
	cmd.Flags().StringVar(&html, "html", "", "write an HTML histogram on this file")

	return cmd
}

// benchReport holds the outcome of the bench command.
type benchReport struct {
	Messages int
	Failures int
	KeyGen   time.Duration
	Encrypt  time.Duration
	Decrypt  time.Duration
}

func (r benchReport) FailureRate() float64 {
	return float64(r.Failures) / float64(r.Messages)
}

// runBench encrypts messages random plaintexts of maximum size, with a fresh
// key pair every rotate messages, and counts those that do not decrypt correctly.
func runBench(params rlwe.Parameters, prng sampling.PRNG, messages, rotate int) (r benchReport, err error) {

	kgen := rlwe.NewKeyGeneratorWithPRNG(params, prng)
	enc := rlwe.NewEncryptorWithPRNG(params, prng)
	dec := rlwe.NewEncryptorWithPRNG(params, prng)

	r.Messages = messages

	size := enc.MaxPlainText()

	for i := 0; i < messages; i++ {

		if i%rotate == 0 {
			start := time.Now()
			kp := kgen.GenKeyPair()
			r.KeyGen += time.Since(start)

			if err = enc.Initialize(true, kp); err != nil {
				return
			}
			if err = dec.Initialize(false, kp); err != nil {
				return
			}
		}

		var pt, ct, have []byte
		if pt, err = sampling.RandomBytes(prng, size); err != nil {
			return
		}

		start := time.Now()
		if ct, err = enc.Encrypt(pt); err != nil {
			return
		}
		r.Encrypt += time.Since(start)

		start = time.Now()
		if have, err = dec.Decrypt(ct); err != nil {
			return
		}
		r.Decrypt += time.Since(start)

		if !bytes.Equal(pt, have) {
			r.Failures++
		}
	}

	return
}

func (a *app) newBenchCommand() *cobra.Command {

	var messages, rotate int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure the decryption failure rate and timings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {

			if messages <= 0 || rotate <= 0 {
				return fmt.Errorf("%w: --messages and --rotate must be positive", rlwe.ErrInputSize)
			}

			prng, err := newPRNG(a.params, a.passphrase)
			if err != nil {
				return err
			}

			r, err := runBench(a.params, prng, messages, rotate)
			if err != nil {
				return err
			}

			keys := (messages + rotate - 1) / rotate

			return writeBench(cmd.OutOrStdout(), a.params, r, keys)
		},
	}

	cmd.Flags().IntVarP(&messages, "messages", "n", 1000, "number of messages")
	cmd.Flags().IntVar(&rotate, "rotate", 16, "number of messages per key pair")

	return cmd
}

func writeBench(w io.Writer, params rlwe.Parameters, r benchReport, keys int) (err error) {
	_, err = fmt.Fprintf(w, "parameters:  %s (MFP=%d)\nmessages:    %d\nfailures:    %d (%.2f%%)\nkeygen:      %s/op\nencrypt:     %s/op\ndecrypt:     %s/op\n",
		params.Name(), params.MFP(), r.Messages, r.Failures, 100*r.FailureRate(),
		r.KeyGen/time.Duration(keys), r.Encrypt/time.Duration(r.Messages), r.Decrypt/time.Duration(r.Messages))
	return
}
