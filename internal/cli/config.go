// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/file"
)

const (
	envPrefix         = "SHAMIR"
	defaultConfigName = ".shamir"

	storeFile  = "file"
	storeVault = "vault"
)

// Config holds global CLI configuration
type Config struct {
	// ConfigFile is the path to the configuration file
	ConfigFile string `mapstructure:"config"`

	// Parts is the number of shares to create
	Parts int `mapstructure:"parts"`

	// Threshold is the number of shares required to reconstruct
	Threshold int `mapstructure:"threshold"`

	// XCoordinates is random or sequential
	XCoordinates string `mapstructure:"x_coordinates"`

	// Workers bounds goroutines used for large secrets
	Workers int `mapstructure:"workers"`

	// RNG is the coefficient source (auto, software, tpm2, pkcs11)
	RNG string `mapstructure:"rng"`

	// InsecureSeed enables the deterministic RNG. Never use for real secrets.
	InsecureSeed string `mapstructure:"insecure_deterministic_seed"`

	// OutputFormat controls output formatting (text, json)
	OutputFormat string `mapstructure:"output"`

	// LogLevel is debug, info, warn or error
	LogLevel string `mapstructure:"log_level"`

	// LogFormat is text or json
	LogFormat string `mapstructure:"log_format"`

	// MetricsFile receives Prometheus metrics in textfile format when set
	MetricsFile string `mapstructure:"metrics_file"`

	// Store selects where shares are kept (file, vault)
	Store string `mapstructure:"store"`

	// TPM2 configures the tpm2 RNG
	TPM2 TPM2Config `mapstructure:"tpm2"`

	// PKCS11 configures the pkcs11 RNG
	PKCS11 PKCS11Config `mapstructure:"pkcs11"`

	// Vault configures the vault store
	Vault VaultConfig `mapstructure:"vault"`
}

// TPM2Config mirrors rand.TPM2Config for configuration files.
type TPM2Config struct {
	Device        string `mapstructure:"device"`
	UseSimulator  bool   `mapstructure:"use_simulator"`
	SimulatorHost string `mapstructure:"simulator_host"`
	SimulatorPort int    `mapstructure:"simulator_port"`
}

// PKCS11Config mirrors rand.PKCS11Config for configuration files.
type PKCS11Config struct {
	Module string `mapstructure:"module"`
	SlotID uint   `mapstructure:"slot_id"`
	PIN    string `mapstructure:"pin"`
}

// VaultConfig holds the Vault KV store settings.
type VaultConfig struct {
	Address       string `mapstructure:"address"`
	Token         string `mapstructure:"token"`
	Mount         string `mapstructure:"mount"`
	Namespace     string `mapstructure:"namespace"`
	TLSSkipVerify bool   `mapstructure:"tls_skip_verify"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Parts:        5,
		Threshold:    3,
		XCoordinates: string(secretsharing.XRandom),
		Workers:      runtime.NumCPU(),
		RNG:          string(rand.ModeAuto),
		OutputFormat: string(OutputFormatText),
		LogLevel:     "info",
		LogFormat:    string(logging.FormatText),
		Store:        storeFile,
		Vault: VaultConfig{
			Mount: "secret",
		},
	}
}

// setDefaults registers every key so environment variables bind even when
// no flag or file mentions them.
func setDefaults(v *viper.Viper) {
	d := NewConfig()
	v.SetDefault("config", "")
	v.SetDefault("parts", d.Parts)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("x_coordinates", d.XCoordinates)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("rng", d.RNG)
	v.SetDefault("insecure_deterministic_seed", "")
	v.SetDefault("output", d.OutputFormat)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("metrics_file", "")
	v.SetDefault("store", d.Store)
	v.SetDefault("tpm2.device", "")
	v.SetDefault("tpm2.use_simulator", false)
	v.SetDefault("tpm2.simulator_host", "")
	v.SetDefault("tpm2.simulator_port", 0)
	v.SetDefault("pkcs11.module", "")
	v.SetDefault("pkcs11.slot_id", 0)
	v.SetDefault("pkcs11.pin", "")
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount", d.Vault.Mount)
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.tls_skip_verify", false)
}

// loadConfig resolves configuration with precedence flag > env > file > default.
func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Flags use dashes, keys use underscores.
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = err
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, usageErrorf("failed to read config file %s: %v", path, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, usageErrorf("failed to read config file: %v", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, usageErrorf("invalid configuration: %v", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	return cfg, cfg.Validate()
}

// Validate checks the settings that can be checked without doing any work.
// Parts and threshold are validated by secretsharing when sharding.
func (c *Config) Validate() error {
	if _, err := rand.ParseMode(c.RNG); err != nil {
		return usageErrorf("%v", err)
	}
	if _, err := secretsharing.ParseXCoordinates(c.XCoordinates); err != nil {
		return usageErrorf("%v", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return usageErrorf("%v", err)
	}
	switch OutputFormat(c.OutputFormat) {
	case OutputFormatText, OutputFormatJSON:
	default:
		return usageErrorf("unknown output format: %s", c.OutputFormat)
	}
	switch c.Store {
	case storeFile, storeVault:
	default:
		return usageErrorf("unknown store: %s", c.Store)
	}
	return nil
}

// NewLogger builds the logger described by the configuration.
func (c *Config) NewLogger(w io.Writer) (*logging.Logger, error) {
	return logging.New(logging.Config{
		Level:  c.LogLevel,
		Format: logging.Format(c.LogFormat),
		Output: w,
	})
}

// NewResolver creates the coefficient source. The deterministic source is
// only reachable through the insecure seed setting.
func (c *Config) NewResolver() (rand.Resolver, error) {
	if c.InsecureSeed != "" {
		return rand.NewDeterministic([]byte(c.InsecureSeed))
	}
	mode, err := rand.ParseMode(c.RNG)
	if err != nil {
		return nil, usageErrorf("%v", err)
	}
	if mode == rand.ModeDeterministic {
		return nil, usageErrorf("rng mode %q requires --insecure-deterministic-seed", mode)
	}

	rc := &rand.Config{Mode: mode, FallbackMode: rand.ModeSoftware}
	if c.TPM2.Device != "" || c.TPM2.UseSimulator {
		rc.TPM2Config = &rand.TPM2Config{
			Device:        c.TPM2.Device,
			UseSimulator:  c.TPM2.UseSimulator,
			SimulatorHost: c.TPM2.SimulatorHost,
			SimulatorPort: c.TPM2.SimulatorPort,
		}
	}
	if c.PKCS11.Module != "" {
		rc.PKCS11Config = &rand.PKCS11Config{
			Module: c.PKCS11.Module,
			SlotID: c.PKCS11.SlotID,
			PIN:    c.PKCS11.PIN,
		}
	}
	return rand.NewResolver(rc)
}

// ShardOptions translates the configuration into secretsharing options.
func (c *Config) ShardOptions(rng rand.Resolver) []secretsharing.Option {
	x, _ := secretsharing.ParseXCoordinates(c.XCoordinates)
	return []secretsharing.Option{
		secretsharing.WithRandom(rng),
		secretsharing.WithXCoordinates(x),
		secretsharing.WithWorkers(c.Workers),
	}
}

// CreateStore opens the storage backend for a shard set location. For the
// file store location is a directory; for vault it is a path below the
// mount. When create is false a missing file store directory is an error
// rather than being created.
func (c *Config) CreateStore(location string, create bool) (storage.Backend, error) {
	if location == "" {
		return nil, usageErrorf("shard set location cannot be empty")
	}
	switch c.Store {
	case storeFile:
		dir := filepath.Clean(location)
		if !create {
			info, err := os.Stat(dir)
			if err != nil {
				return nil, fmt.Errorf("shards directory %s: %w", dir, err)
			}
			if !info.IsDir() {
				return nil, fmt.Errorf("shards directory %s: not a directory", dir)
			}
		}
		backend, err := file.New(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage backend: %w", err)
		}
		return backend, nil
	case storeVault:
		return newVaultStore(&c.Vault, location)
	default:
		return nil, usageErrorf("unknown store: %s", c.Store)
	}
}
