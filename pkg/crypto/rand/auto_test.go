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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingResolver struct {
	closed bool
}

func (f *failingResolver) Rand(int) ([]byte, error)   { return nil, errors.New("entropy source failed") }
func (f *failingResolver) Read(p []byte) (int, error) { return readFull(f, p) }
func (f *failingResolver) Mode() Mode                 { return ModeTPM2 }
func (f *failingResolver) Available() bool            { return true }
func (f *failingResolver) Close() error {
	f.closed = true
	return nil
}

func TestAutoResolver_FallsBackToSoftware(t *testing.T) {
	resolver, err := newAutoResolver(&Config{
		Mode:         ModeAuto,
		PKCS11Config: &PKCS11Config{Module: "/nonexistent"},
		TPM2Config:   &TPM2Config{Device: "/nonexistent"},
	})
	require.NoError(t, err)
	defer func() { _ = resolver.Close() }()

	assert.True(t, resolver.Available())
	data, err := resolver.Rand(32)
	require.NoError(t, err)
	assert.Len(t, data, 32)
}

func TestAutoResolver_RandFallbackOnError(t *testing.T) {
	fallback, _ := newSoftwareResolver()
	ar := &autoResolver{resolver: &failingResolver{}, fallback: fallback}

	data, err := ar.Rand(16)
	require.NoError(t, err)
	assert.Len(t, data, 16)
}

func TestAutoResolver_RandFailureWithoutFallback(t *testing.T) {
	ar := &autoResolver{resolver: &failingResolver{}}

	_, err := ar.Rand(16)
	assert.Error(t, err)

	_, err = ar.Read(make([]byte, 16))
	assert.Error(t, err)
}

func TestAutoResolver_IgnoresDeterministicFallback(t *testing.T) {
	resolver, err := newAutoResolver(&Config{Mode: ModeAuto, FallbackMode: ModeDeterministic})
	require.NoError(t, err)

	ar := resolver.(*autoResolver)
	assert.Nil(t, ar.fallback)
}

func TestAutoResolver_Close(t *testing.T) {
	primary := &failingResolver{}
	ar := &autoResolver{resolver: primary}

	require.NoError(t, ar.Close())
	assert.True(t, primary.closed)
	assert.False(t, ar.Available())

	_, err := ar.Rand(1)
	assert.ErrorIs(t, err, ErrResolverClosed)
}
