// Command ringlwe generates RLWE key pairs, encrypts, decrypts, signs and
// verifies files, and reports on the sampler and the decryption failure rate.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/op/go-logging.v1"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/sign"
)

const passphraseEnv = "RINGLWE_PASSPHRASE"

// app holds the state shared by the commands once the configuration is loaded.
type app struct {
	configFile string
	passphrase string

	cfg    *Config
	params rlwe.Parameters
	digest sign.Digest

	logBackend *logBackend
	log        *logging.Logger
}

func (a *app) load(cmd *cobra.Command) (err error) {

	if a.configFile != "" {
		if a.cfg, err = LoadFile(a.configFile); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		a.cfg = DefaultConfig()
	}

	flags := cmd.Flags()

	if flags.Changed("preset") {
		a.cfg.Parameters.Literal = nil
		a.cfg.Parameters.Preset, _ = flags.GetString("preset")
	}
	if flags.Changed("mfp") {
		a.cfg.Parameters.MFP, _ = flags.GetInt("mfp")
	}
	if flags.Changed("engine") {
		a.cfg.Parameters.RandomEngine, _ = flags.GetString("engine")
	}
	if flags.Changed("digest") {
		a.cfg.Signature.Digest, _ = flags.GetString("digest")
	}
	if flags.Changed("key-dir") {
		a.cfg.Keys.Dir, _ = flags.GetString("key-dir")
	}
	if flags.Changed("log-level") {
		a.cfg.Logging.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		a.cfg.Logging.File, _ = flags.GetString("log-file")
	}

	if err = a.cfg.Validate(); err != nil {
		return err
	}

	if a.logBackend, err = newLogBackend(a.cfg.Logging.File, a.cfg.Logging.Level, a.cfg.Logging.Disable); err != nil {
		return err
	}
	a.log = a.logBackend.GetLogger("ringlwe")

	if a.params, err = a.cfg.RLWEParameters(); err != nil {
		return err
	}

	if a.digest, err = a.cfg.Digest(); err != nil {
		return err
	}

	if a.passphrase == "" {
		a.passphrase = os.Getenv(passphraseEnv)
	}

	a.log.Debugf("parameters %s: N=%d Q=%d MFP=%d engine=%s", a.params.Name(), a.params.N(), a.params.Q(), a.params.MFP(), a.params.RandomEngine())

	return nil
}

func newRootCommand() *cobra.Command {

	a := new(app)

	rootCmd := &cobra.Command{
		Use:           "ringlwe",
		Short:         "RLWE encryption and one-time signature tool",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&a.configFile, "config", "c", "", "path to the TOML configuration file")
	pf.String("preset", defaultPreset, "parameter preset")
	pf.Int("mfp", rlwe.DefaultMFP, "number of random bytes prefixed to short plaintexts")
	pf.String("engine", rlwe.DefaultRandomEngine.String(), "random engine")
	pf.String("digest", sign.DefaultDigest.String(), "signature digest")
	pf.String("key-dir", defaultKeyDir, "directory of the key files")
	pf.String("log-level", defaultLogLevel, "log level (ERROR, WARNING, NOTICE, INFO, DEBUG)")
	pf.String("log-file", "", "log file, stderr if empty")
	pf.StringVar(&a.passphrase, "passphrase", "", "passphrase of the PBPrng engine, defaults to $"+passphraseEnv)

	rootCmd.AddCommand(
		a.newParamsCommand(),
		a.newKeygenCommand(),
		a.newEncryptCommand(),
		a.newDecryptCommand(),
		a.newSignCommand(),
		a.newVerifyCommand(),
		a.newSampleCommand(),
		a.newBenchCommand(),
	)

	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
