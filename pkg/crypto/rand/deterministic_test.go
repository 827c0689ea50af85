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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministic_RequiresSeed(t *testing.T) {
	_, err := NewResolver(&Config{Mode: ModeDeterministic})
	assert.ErrorIs(t, err, ErrSeedRequired)
}

func TestDeterministic_Reproducible(t *testing.T) {
	a, err := NewDeterministic([]byte("seed"))
	require.NoError(t, err)
	b, err := NewResolver(&Config{Mode: ModeDeterministic, Seed: []byte("seed")})
	require.NoError(t, err)

	first, err := a.Rand(100)
	require.NoError(t, err)
	second, err := b.Rand(100)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, ModeDeterministic, a.Mode())
}

func TestDeterministic_StreamContinues(t *testing.T) {
	a, _ := NewDeterministic([]byte("seed"))
	b, _ := NewDeterministic([]byte("seed"))

	whole, err := a.Rand(64)
	require.NoError(t, err)

	head, _ := b.Rand(20)
	tail, _ := b.Rand(44)
	assert.Equal(t, whole, append(head, tail...))
}

func TestDeterministic_DifferentSeeds(t *testing.T) {
	a, _ := NewDeterministic([]byte("seed-a"))
	b, _ := NewDeterministic([]byte("seed-b"))

	x, _ := a.Rand(32)
	y, _ := b.Rand(32)
	assert.NotEqual(t, x, y)
}

func TestDeterministic_Close(t *testing.T) {
	r, _ := NewDeterministic([]byte("seed"))
	require.NoError(t, r.Close())
	assert.False(t, r.Available())

	_, err := r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrResolverClosed)
}
