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


package shardstore

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/rand"
	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/file"
	"github.com/jeremyhahn/go-shamir/pkg/storage/memory"
)

func split(t *testing.T, secret []byte, parts, threshold int) []secretsharing.Share {
	t.Helper()
	rng, err := rand.NewDeterministic([]byte(t.Name()))
	require.NoError(t, err)
	s, err := secretsharing.NewShamir(&secretsharing.ShareConfig{Threshold: threshold, TotalShares: parts},
		secretsharing.WithRandom(rng))
	require.NoError(t, err)
	shares, err := s.Split(secret)
	require.NoError(t, err)
	return shares
}

func TestShardKey(t *testing.T) {
	assert.Equal(t, "shard_0", ShardKey(0))
	assert.Equal(t, "shard_254", ShardKey(254))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	secret := []byte("database master password")
	shares := split(t, secret, 5, 3)

	var logs bytes.Buffer
	logger, err := logging.New(logging.Config{Level: "debug", Output: &logs})
	require.NoError(t, err)

	store := New(memory.New(), logger)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	manifest, err := store.Save(shares, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, manifest.Parts)
	assert.Equal(t, 3, manifest.Threshold)
	assert.Equal(t, len(secret), manifest.SecretLength)
	assert.Equal(t, "SH/1", manifest.ShareFormat)
	assert.Equal(t, fixed, manifest.CreatedAt)
	_, err = uuid.Parse(manifest.SetID)
	assert.NoError(t, err)
	require.Len(t, manifest.Shards, 5)
	for i, rec := range manifest.Shards {
		assert.Equal(t, ShardKey(i), rec.Key)
		assert.Equal(t, int(shares[i].X), rec.X)
	}

	blobs, err := store.Load()
	require.NoError(t, err)
	require.Len(t, blobs, 5)

	recovered, err := secretsharing.CombineBytes(blobs)
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)

	assert.Contains(t, logs.String(), "saved shard set")
	assert.Contains(t, logs.String(), "component=shardstore")
	assert.NotContains(t, logs.String(), string(secret))
}

func TestManifest_ReadBack(t *testing.T) {
	store := New(memory.New(), nil)
	saved, err := store.Save(split(t, []byte("abc"), 3, 2), nil)
	require.NoError(t, err)

	got, err := store.Manifest()
	require.NoError(t, err)
	assert.Equal(t, saved.SetID, got.SetID)
	assert.Equal(t, saved.Shards, got.Shards)
	assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
}

func TestManifest_Errors(t *testing.T) {
	backend := memory.New()
	store := New(backend, nil)

	_, err := store.Manifest()
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, backend.Put(ManifestKey, []byte("version: [unterminated"), nil))
	_, err = store.Manifest()
	assert.ErrorIs(t, err, storage.ErrInvalidData)

	require.NoError(t, backend.Put(ManifestKey, []byte("version: 9\n"), nil))
	_, err = store.Manifest()
	assert.ErrorIs(t, err, storage.ErrInvalidData)
}

func TestSave_RefusesExistingSet(t *testing.T) {
	store := New(memory.New(), nil)
	_, err := store.Save(split(t, []byte("first"), 5, 2), nil)
	require.NoError(t, err)

	_, err = store.Save(split(t, []byte("second"), 3, 2), nil)
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	_, err = store.Save(split(t, []byte("second"), 3, 2), &SaveOptions{Overwrite: true})
	require.NoError(t, err)

	// Stale shard_3 and shard_4 from the first set are gone.
	blobs, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, blobs, 3)

	recovered, err := secretsharing.CombineBytes(blobs)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), recovered)
}

func TestSave_Errors(t *testing.T) {
	store := New(memory.New(), nil)
	_, err := store.Save(nil, nil)
	assert.Error(t, err)

	_, err = store.Save([]secretsharing.Share{{X: 0, Threshold: 1, Y: []byte{1}}}, nil)
	assert.ErrorIs(t, err, secretsharing.ErrZeroXCoordinate)
}

func TestLoad_Empty(t *testing.T) {
	store := New(memory.New(), nil)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoShards)
	_, _, err = store.LoadShares()
	assert.ErrorIs(t, err, ErrNoShards)
}

func TestLoad_IgnoresManifestAndNestedKeys(t *testing.T) {
	backend := memory.New()
	store := New(backend, nil)
	_, err := store.Save(split(t, []byte("xyz"), 2, 2), nil)
	require.NoError(t, err)
	require.NoError(t, backend.Put("shard_archive/old", []byte("junk"), nil))
	require.NoError(t, backend.Put("notes.txt", []byte("junk"), nil))

	blobs, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, blobs, 2)
}

func TestLoadShares_NamesBadKey(t *testing.T) {
	backend := memory.New()
	store := New(backend, nil)
	_, err := store.Save(split(t, []byte("xyz"), 3, 2), nil)
	require.NoError(t, err)
	require.NoError(t, backend.Put(ShardKey(1), []byte("SH"), nil))

	_, _, err = store.LoadShares()
	assert.ErrorIs(t, err, secretsharing.ErrTruncatedShare)
	assert.Contains(t, err.Error(), "shard_1")

	require.NoError(t, backend.Delete(ShardKey(1)))
	keys, shares, err := store.LoadShares()
	require.NoError(t, err)
	assert.Equal(t, []string{"shard_0", "shard_2"}, keys)
	assert.Len(t, shares, 2)
}

func TestFileBackend(t *testing.T) {
	dir := t.TempDir()
	backend, err := file.New(dir)
	require.NoError(t, err)

	secret := bytes.Repeat([]byte{0xA5}, 4096)
	_, err = New(backend, nil).Save(split(t, secret, 4, 3), nil)
	require.NoError(t, err)

	// A fresh store on the same directory sees the set.
	reopened, err := file.New(dir)
	require.NoError(t, err)
	blobs, err := New(reopened, nil).Load()
	require.NoError(t, err)
	require.Len(t, blobs, 4)

	recovered, err := secretsharing.CombineBytes(blobs[1:])
	require.NoError(t, err)
	assert.Equal(t, secret, recovered)
}
