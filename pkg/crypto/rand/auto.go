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

package rand

import (
	"sync"
)

// autoResolver picks the best compiled-in hardware source and falls back to
// software when none is reachable.
type autoResolver struct {
	resolver Resolver
	fallback Resolver
	mu       sync.RWMutex
}

var _ Resolver = (*autoResolver)(nil)

func newAutoResolver(cfg *Config) (Resolver, error) {
	var resolver Resolver
	var fallback Resolver

	if pkcs11Available() && cfg.PKCS11Config != nil {
		if r, err := newPKCS11Resolver(cfg.PKCS11Config); err == nil {
			if r.Available() {
				resolver = r
			} else {
				_ = r.Close()
			}
		}
	}

	if resolver == nil && tpm2Available() {
		if r, err := newTPM2Resolver(cfg.TPM2Config); err == nil {
			if r.Available() {
				resolver = r
			} else {
				_ = r.Close()
			}
		}
	}

	if resolver == nil {
		var err error
		resolver, err = newSoftwareResolver()
		if err != nil {
			return nil, err
		}
	}

	// Deterministic output must never be reached silently from auto mode.
	if cfg.FallbackMode != "" && cfg.FallbackMode != ModeAuto && cfg.FallbackMode != ModeDeterministic {
		fallback, _ = newResolver(&Config{Mode: cfg.FallbackMode})
	}

	return &autoResolver{
		resolver: resolver,
		fallback: fallback,
	}, nil
}

func (a *autoResolver) Rand(n int) ([]byte, error) {
	a.mu.RLock()
	resolver := a.resolver
	fallback := a.fallback
	a.mu.RUnlock()

	if resolver == nil {
		return nil, ErrResolverClosed
	}

	result, err := resolver.Rand(n)
	if err != nil && fallback != nil {
		result, err = fallback.Rand(n)
	}
	return result, err
}

func (a *autoResolver) Read(p []byte) (int, error) {
	return readFull(a, p)
}

func (a *autoResolver) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.resolver == nil {
		return ModeAuto
	}
	return a.resolver.Mode()
}

func (a *autoResolver) Available() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.resolver == nil {
		return false
	}
	return a.resolver.Available() || (a.fallback != nil && a.fallback.Available())
}

func (a *autoResolver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.resolver != nil {
		_ = a.resolver.Close()
		a.resolver = nil
	}
	if a.fallback != nil {
		_ = a.fallback.Close()
		a.fallback = nil
	}
	return nil
}
