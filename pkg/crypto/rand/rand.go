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

// Package rand provides the randomness capability used to draw polynomial
// coefficients when a secret is sharded.
//
// A Resolver is created once by the caller and handed to the sharding engine
// as an explicit dependency. Production callers use ModeAuto or ModeSoftware;
// hardware sources (TPM2, PKCS#11) are compiled in with the tpm2 and pkcs11
// build tags. ModeDeterministic expands a caller supplied seed with ChaCha20
// and exists so tests can reproduce coefficient streams. It must never be
// used to shard a real secret: anyone holding the seed can rebuild every
// polynomial.
//
//	rng, err := rand.NewResolver(rand.ModeAuto)
//	if err != nil {
//	    return err
//	}
//	defer rng.Close()
//
// # Thread Safety
//
// All Resolver implementations are safe for concurrent use.
package rand

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto selects the best available source.
	// Preference order: PKCS#11 > TPM2 > Software
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand
	ModeSoftware Mode = "software"

	// ModeTPM2 uses the TPM 2.0 GetRandom command
	ModeTPM2 Mode = "tpm2"

	// ModePKCS11 uses C_GenerateRandom on an HSM slot
	ModePKCS11 Mode = "pkcs11"

	// ModeDeterministic expands Config.Seed with ChaCha20. Tests only.
	ModeDeterministic Mode = "deterministic"
)

var (
	// ErrResolverClosed is returned by Rand and Read after Close.
	ErrResolverClosed = errors.New("rand: resolver closed")

	// ErrNotCompiled is returned for hardware modes left out of the build.
	ErrNotCompiled = errors.New("rand: source not compiled in")
)

// Config contains RNG configuration.
type Config struct {
	// Mode specifies the primary RNG source to use.
	// Defaults to ModeAuto if not specified.
	Mode Mode

	// FallbackMode specifies the RNG source to use if primary mode fails.
	// Typical usage: Mode=ModeTPM2, FallbackMode=ModeSoftware
	FallbackMode Mode

	// Seed is required by ModeDeterministic and ignored otherwise.
	Seed []byte

	// TPM2Config contains TPM2-specific configuration (if Mode=ModeTPM2).
	TPM2Config *TPM2Config

	// PKCS11Config contains PKCS#11-specific configuration (if Mode=ModePKCS11).
	PKCS11Config *PKCS11Config
}

// TPM2Config contains configuration for TPM2 RNG.
type TPM2Config struct {
	// Device path to the TPM device (default: "/dev/tpmrm0")
	Device string

	// MaxRequestSize limits the bytes requested per GetRandom call.
	// Default: 32
	MaxRequestSize int

	// UseSimulator connects to a TCP simulator (swtpm) instead of Device.
	UseSimulator bool

	// SimulatorHost defaults to "localhost"
	SimulatorHost string

	// SimulatorPort defaults to 2321; the platform port is SimulatorPort+1
	SimulatorPort int
}

// PKCS11Config contains configuration for PKCS#11 RNG.
type PKCS11Config struct {
	// Module path to the PKCS#11 library (e.g., /usr/lib/softhsm/libsofthsm2.so)
	Module string

	// SlotID specifies the PKCS#11 slot containing the RNG
	SlotID uint

	// PIN logs the session in when non-empty
	PIN string
}

// Resolver is the randomness capability. It implements io.Reader so it can be
// passed anywhere an entropy reader is expected.
type Resolver interface {
	// Rand returns n random bytes.
	Rand(n int) ([]byte, error)

	// Read fills p completely or returns an error.
	Read(p []byte) (n int, err error)

	// Mode reports the source actually serving requests.
	Mode() Mode

	// Available returns true if the resolver can serve requests.
	Available() bool

	// Close releases any resources held by the resolver.
	Close() error
}

// NewResolver creates a new RNG resolver. config may be nil, a Mode or a
// *Config. A nil or empty config selects ModeAuto.
func NewResolver(config interface{}) (Resolver, error) {
	cfg := normalizeConfig(config)
	return newResolver(cfg)
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeSoftware, ModeTPM2, ModePKCS11, ModeDeterministic:
		return m, nil
	default:
		return "", fmt.Errorf("unknown RNG mode: %s", s)
	}
}

func normalizeConfig(config interface{}) *Config {
	if config == nil {
		return &Config{Mode: ModeAuto}
	}

	switch v := config.(type) {
	case Mode:
		return &Config{Mode: v}
	case *Config:
		if v == nil {
			return &Config{Mode: ModeAuto}
		}
		if v.Mode == "" {
			v.Mode = ModeAuto
		}
		return v
	default:
		return &Config{Mode: ModeAuto}
	}
}

func newResolver(cfg *Config) (Resolver, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeAuto:
		return newAutoResolver(cfg)
	case ModeSoftware:
		return newSoftwareResolver()
	case ModeTPM2:
		return newTPM2Resolver(cfg.TPM2Config)
	case ModePKCS11:
		return newPKCS11Resolver(cfg.PKCS11Config)
	case ModeDeterministic:
		return newDeterministicResolver(cfg.Seed)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", mode)
	}
}

// readFull adapts a Rand-style source to io.Reader semantics.
func readFull(r interface{ Rand(int) ([]byte, error) }, p []byte) (int, error) {
	data, err := r.Rand(len(p))
	if err != nil {
		return 0, err
	}
	if len(data) != len(p) {
		return 0, fmt.Errorf("rand: short read (%d of %d bytes)", len(data), len(p))
	}
	return copy(p, data), nil
}

// SoftwareResolver uses crypto/rand from the Go standard library.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func newSoftwareResolver() (Resolver, error) {
	return &SoftwareResolver{}, nil
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := rand.Read(buf)
	return buf, err
}

func (s *SoftwareResolver) Read(p []byte) (n int, err error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Mode() Mode {
	return ModeSoftware
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}
