package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tuneinsight/ringlwe/core/rlwe"
	"github.com/tuneinsight/ringlwe/sign"
	"github.com/tuneinsight/ringlwe/utils/sampling"
)

const (
	defaultPreset   = "N512Q12289"
	defaultLogLevel = "NOTICE"
	defaultKeyDir   = "."
)

// Parameters selects the RLWE parameter set, either by preset name or
// as a literal.
type Parameters struct {
	Preset       string
	Literal      *rlwe.ParametersLiteral
	MFP          int
	RandomEngine string
}

// Signature is the signing configuration.
type Signature struct {
	Digest string
}

// Keys is the key storage configuration.
type Keys struct {
	Dir string
}

// Logging is the logging configuration.
type Logging struct {
	Disable bool
	File    string
	Level   string
}

// Config is the ringlwe tool configuration.
type Config struct {
	Parameters *Parameters
	Signature  *Signature
	Keys       *Keys
	Logging    *Logging
}

// DefaultConfig returns the configuration used when no config file is given.
func DefaultConfig() *Config {
	cfg := new(Config)
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Parameters == nil {
		cfg.Parameters = &Parameters{}
	}
	if cfg.Parameters.Preset == "" && cfg.Parameters.Literal == nil {
		cfg.Parameters.Preset = defaultPreset
	}
	if cfg.Parameters.RandomEngine == "" {
		cfg.Parameters.RandomEngine = rlwe.DefaultRandomEngine.String()
	}
	if cfg.Signature == nil {
		cfg.Signature = &Signature{}
	}
	if cfg.Signature.Digest == "" {
		cfg.Signature.Digest = sign.DefaultDigest.String()
	}
	if cfg.Keys == nil {
		cfg.Keys = &Keys{}
	}
	if cfg.Keys.Dir == "" {
		cfg.Keys.Dir = defaultKeyDir
	}
	if cfg.Logging == nil {
		cfg.Logging = &Logging{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
}

// Validate returns nil if the config is valid
// and otherwise an error is returned.
func (cfg *Config) Validate() error {
	if cfg.Parameters.Preset != "" && cfg.Parameters.Literal != nil {
		return errors.New("config: Parameters.Preset and Parameters.Literal are mutually exclusive")
	}
	if _, err := cfg.RLWEParameters(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := cfg.Digest(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logLevelFromString(cfg.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RLWEParameters returns the checked parameters described by the config.
func (cfg *Config) RLWEParameters() (params rlwe.Parameters, err error) {

	var lit rlwe.ParametersLiteral

	if cfg.Parameters.Literal != nil {
		lit = *cfg.Parameters.Literal
	} else {
		if params, err = rlwe.ParametersFromName(cfg.Parameters.Preset); err != nil {
			return
		}
		lit = params.ParametersLiteral()
	}

	lit.MFP = cfg.Parameters.MFP

	if lit.RandomEngine, err = sampling.ParseEngine(cfg.Parameters.RandomEngine); err != nil {
		return rlwe.Parameters{}, fmt.Errorf("%w: %w", rlwe.ErrConfiguration, err)
	}

	return rlwe.NewParametersFromLiteral(lit)
}

// Digest returns the configured signature digest.
func (cfg *Config) Digest() (d sign.Digest, err error) {
	if d, err = sign.ParseDigest(cfg.Signature.Digest); err != nil {
		return
	}
	if !d.IsSupported() {
		return d, fmt.Errorf("%w: digest %s is not supported", rlwe.ErrConfiguration, d)
	}
	return
}

// Load parses and validates the provided buffer b as a config file body and
// returns the Config.
func Load(b []byte) (*Config, error) {
	cfg := new(Config)
	md, err := toml.Decode(string(b), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: Undecoded keys in config file: %v", undecoded)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile loads, parses and validates the provided file and returns the
// Config.
func LoadFile(f string) (*Config, error) {
	b, err := os.ReadFile(f)
	if err != nil {
		return nil, err
	}
	return Load(b)
}
