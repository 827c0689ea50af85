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
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20"
)

// ErrSeedRequired is returned when ModeDeterministic is selected without a seed.
var ErrSeedRequired = errors.New("rand: deterministic mode requires a seed")

// deterministicResolver emits the ChaCha20 keystream keyed by SHA-256(seed)
// with an all-zero nonce. Two resolvers built from the same seed produce the
// same byte stream.
type deterministicResolver struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
}

var _ Resolver = (*deterministicResolver)(nil)

func newDeterministicResolver(seed []byte) (Resolver, error) {
	if len(seed) == 0 {
		return nil, ErrSeedRequired
	}
	key := sha256.Sum256(seed)
	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce)
	if err != nil {
		return nil, fmt.Errorf("rand: failed to initialize chacha20: %w", err)
	}
	return &deterministicResolver{cipher: c}, nil
}

// NewDeterministic is shorthand for NewResolver(&Config{Mode: ModeDeterministic, Seed: seed}).
func NewDeterministic(seed []byte) (Resolver, error) {
	return newDeterministicResolver(seed)
}

func (d *deterministicResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := d.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *deterministicResolver) Read(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cipher == nil {
		return 0, ErrResolverClosed
	}
	clear(p)
	d.cipher.XORKeyStream(p, p)
	return len(p), nil
}

func (d *deterministicResolver) Mode() Mode {
	return ModeDeterministic
}

func (d *deterministicResolver) Available() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cipher != nil
}

func (d *deterministicResolver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cipher = nil
	return nil
}
