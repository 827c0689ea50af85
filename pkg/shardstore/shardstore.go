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


// Package shardstore persists the shares of one sharded secret on a
// storage.Backend. Each share is written as an independent blob under
// "shard_<n>" and a YAML manifest describing the set is written under
// "manifest.yaml". The manifest is informational: Load reads every
// "shard_" key and never consults it.
package shardstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/logging"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

const (
	// ShardPrefix prefixes every share key.
	ShardPrefix = "shard_"

	// ManifestKey is where the shard set manifest is stored.
	ManifestKey = "manifest.yaml"

	// ManifestVersion is the manifest schema version.
	ManifestVersion = 1
)

// ErrNoShards is returned by Load when the backend holds no share keys.
var ErrNoShards = errors.New("shardstore: no shards found")

// ShardKey returns the storage key of the n-th share of a set.
func ShardKey(n int) string {
	return ShardPrefix + strconv.Itoa(n)
}

// Manifest describes a stored shard set. It never contains share values.
type Manifest struct {
	Version      int           `yaml:"version"`
	SetID        string        `yaml:"set_id"`
	Parts        int           `yaml:"parts"`
	Threshold    int           `yaml:"threshold"`
	SecretLength int           `yaml:"secret_length"`
	ShareFormat  string        `yaml:"share_format"`
	CreatedAt    time.Time     `yaml:"created_at"`
	Shards       []ShardRecord `yaml:"shards"`
}

// ShardRecord maps a storage key to the x-coordinate of the share in it.
type ShardRecord struct {
	Key string `yaml:"key"`
	X   int    `yaml:"x"`
}

// Store reads and writes shard sets on a backend.
type Store struct {
	backend storage.Backend
	logger  *logging.Logger
	now     func() time.Time
}

// New returns a Store on backend. A nil logger discards log records.
func New(backend storage.Backend, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{
		backend: backend,
		logger:  logger.With("component", "shardstore"),
		now:     time.Now,
	}
}

// SaveOptions controls Save.
type SaveOptions struct {
	// Overwrite replaces an existing shard set. Without it Save fails with
	// storage.ErrAlreadyExists when any shard key or manifest is present.
	Overwrite bool
}

// Save writes one blob per share and the manifest. Shares must come from a
// single Split call.
func (s *Store) Save(shares []secretsharing.Share, opts *SaveOptions) (*Manifest, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("shardstore: no shares to save")
	}
	if opts == nil {
		opts = &SaveOptions{}
	}

	existing, err := s.existingKeys()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		if !opts.Overwrite {
			return nil, fmt.Errorf("%w: %d existing shard set entries", storage.ErrAlreadyExists, len(existing))
		}
		for _, key := range existing {
			if err := s.backend.Delete(key); err != nil && !errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("shardstore: failed to remove %s: %w", key, err)
			}
		}
		s.logger.Debug("removed previous shard set", "entries", len(existing))
	}

	manifest := &Manifest{
		Version:      ManifestVersion,
		SetID:        uuid.NewString(),
		Parts:        len(shares),
		Threshold:    shares[0].Threshold,
		SecretLength: shares[0].Len(),
		ShareFormat:  fmt.Sprintf("%s/%d", secretsharing.ShareMagic, secretsharing.ShareVersion),
		CreatedAt:    s.now().UTC(),
		Shards:       make([]ShardRecord, 0, len(shares)),
	}

	putOpts := storage.DefaultOptions()
	putOpts.Metadata["set_id"] = manifest.SetID
	for i := range shares {
		data, err := shares[i].MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("shardstore: share %d: %w", i, err)
		}
		key := ShardKey(i)
		if err := s.backend.Put(key, data, putOpts); err != nil {
			return nil, fmt.Errorf("shardstore: failed to write %s: %w", key, err)
		}
		manifest.Shards = append(manifest.Shards, ShardRecord{Key: key, X: int(shares[i].X)})
		s.logger.Debug("wrote share", "key", key, "x", shares[i].X, "bytes", len(data))
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("shardstore: failed to encode manifest: %w", err)
	}
	if err := s.backend.Put(ManifestKey, data, &storage.Options{Permissions: 0644}); err != nil {
		return nil, fmt.Errorf("shardstore: failed to write manifest: %w", err)
	}

	s.logger.Info("saved shard set",
		"set_id", manifest.SetID,
		"parts", manifest.Parts,
		"threshold", manifest.Threshold)
	return manifest, nil
}

// Load returns every share blob on the backend, ordered by key. Blobs are
// not decoded; pass them to secretsharing.CombineBytes.
func (s *Store) Load() ([][]byte, error) {
	keys, err := s.shardKeys()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, ErrNoShards
	}

	blobs := make([][]byte, 0, len(keys))
	for _, key := range keys {
		data, err := s.backend.Get(key)
		if err != nil {
			return nil, fmt.Errorf("shardstore: failed to read %s: %w", key, err)
		}
		blobs = append(blobs, data)
		s.logger.Debug("read share", "key", key, "bytes", len(data))
	}

	s.logger.Info("loaded shard set", "shares", len(blobs))
	return blobs, nil
}

// LoadShares is Load followed by decoding each blob. The returned error
// names the offending key.
func (s *Store) LoadShares() ([]string, []secretsharing.Share, error) {
	keys, err := s.shardKeys()
	if err != nil {
		return nil, nil, err
	}
	if len(keys) == 0 {
		return nil, nil, ErrNoShards
	}

	shares := make([]secretsharing.Share, 0, len(keys))
	for _, key := range keys {
		data, err := s.backend.Get(key)
		if err != nil {
			return nil, nil, fmt.Errorf("shardstore: failed to read %s: %w", key, err)
		}
		share, err := secretsharing.DecodeShare(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", key, err)
		}
		shares = append(shares, *share)
	}
	return keys, shares, nil
}

// Manifest reads the manifest. It returns storage.ErrNotFound when the set
// was written without one.
func (s *Store) Manifest() (*Manifest, error) {
	data, err := s.backend.Get(ManifestKey)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", storage.ErrInvalidData, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: unsupported manifest version %d", storage.ErrInvalidData, m.Version)
	}
	return &m, nil
}

// shardKeys lists top-level "shard_" keys.
func (s *Store) shardKeys() ([]string, error) {
	keys, err := s.backend.List(ShardPrefix)
	if err != nil {
		return nil, fmt.Errorf("shardstore: failed to list shards: %w", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if !strings.Contains(k, "/") {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *Store) existingKeys() ([]string, error) {
	keys, err := s.shardKeys()
	if err != nil {
		return nil, err
	}
	ok, err := s.backend.Exists(ManifestKey)
	if err != nil {
		return nil, fmt.Errorf("shardstore: failed to check manifest: %w", err)
	}
	if ok {
		keys = append(keys, ManifestKey)
	}
	return keys, nil
}
