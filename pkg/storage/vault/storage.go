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


//go:build vault

// Package vault stores share blobs in a HashiCorp Vault KV version 2 secrets
// engine. Each storage key becomes one secret at <mount>/data/<prefix>/<key>
// holding the base64 encoded value.
package vault

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

const (
	defaultMount   = "secret"
	defaultTimeout = 30 * time.Second
	valueField     = "value"
)

var (
	// ErrVaultConnection is returned when the Vault client cannot be created.
	ErrVaultConnection = errors.New("vault: connection failed")

	// ErrInvalidResponse is returned when Vault returns an unexpected response.
	ErrInvalidResponse = errors.New("vault: invalid response")
)

// Config holds the configuration for the Vault KV backend.
type Config struct {
	// Address is the Vault server address (e.g., "http://127.0.0.1:8200")
	Address string

	// Token is the Vault authentication token
	Token string

	// Mount is the KV v2 mount path (default: "secret")
	Mount string

	// Prefix is prepended to every key below the mount
	Prefix string

	// Namespace is the Vault namespace (Enterprise feature, optional)
	Namespace string

	// TLSSkipVerify disables TLS certificate verification (not recommended for production)
	TLSSkipVerify bool

	// Timeout bounds each Vault request (default: 30s)
	Timeout time.Duration
}

// Validate checks if the configuration is valid and fills defaults.
func (c *Config) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("vault address is required")
	}
	if c.Token == "" {
		return fmt.Errorf("vault token is required")
	}
	if c.Mount == "" {
		c.Mount = defaultMount
	}
	c.Mount = strings.Trim(c.Mount, "/")
	c.Prefix = strings.Trim(c.Prefix, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return nil
}

// logicalClient is the subset of *vault.Logical used by Storage.
type logicalClient interface {
	ReadWithContext(ctx context.Context, path string) (*vault.Secret, error)
	WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*vault.Secret, error)
	DeleteWithContext(ctx context.Context, path string) (*vault.Secret, error)
	ListWithContext(ctx context.Context, path string) (*vault.Secret, error)
}

// Storage implements storage.Backend on a Vault KV v2 engine.
type Storage struct {
	config  Config
	logical logicalClient
	mu      sync.RWMutex
	closed  bool
}

var _ storage.Backend = (*Storage)(nil)

// New connects to Vault with config.
func New(config *Config) (*Storage, error) {
	if config == nil {
		return nil, fmt.Errorf("vault config is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = config.Address
	vaultConfig.Timeout = config.Timeout
	if config.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("%w: failed to configure TLS: %w", ErrVaultConnection, err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultConnection, err)
	}
	client.SetToken(config.Token)
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	return newWithClient(*config, client.Logical()), nil
}

func newWithClient(config Config, logical logicalClient) *Storage {
	return &Storage{
		config:  config,
		logical: logical,
	}
}

// Get retrieves the value for the given key.
func (s *Storage) Get(key string) ([]byte, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.context()
	defer cancel()

	secret, err := s.logical.ReadWithContext(ctx, s.dataPath(key))
	if err != nil {
		return nil, fmt.Errorf("vault storage: failed to read key %q: %w", key, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, storage.ErrNotFound
	}

	// A deleted version reads back with null data.
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok || data == nil {
		return nil, storage.ErrNotFound
	}
	encoded, ok := data[valueField].(string)
	if !ok {
		return nil, fmt.Errorf("%w: key %q has no %s field", ErrInvalidResponse, key, valueField)
	}
	value, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: key %q: %w", storage.ErrInvalidData, key, err)
	}
	return value, nil
}

// Put writes a new version of the secret for key. Options metadata is
// stored next to the value as plain strings.
func (s *Storage) Put(key string, value []byte, opts *storage.Options) error {
	if err := storage.ValidateKey(key); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	fields := map[string]interface{}{
		valueField: base64.StdEncoding.EncodeToString(value),
	}
	if opts != nil {
		for k, v := range opts.Metadata {
			if k != valueField {
				fields[k] = v
			}
		}
	}

	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.logical.WriteWithContext(ctx, s.dataPath(key), map[string]interface{}{"data": fields}); err != nil {
		return fmt.Errorf("vault storage: failed to write key %q: %w", key, err)
	}
	return nil
}

// Delete removes every version and the metadata of key.
func (s *Storage) Delete(key string) error {
	exists, err := s.Exists(key)
	if err != nil {
		return err
	}
	if !exists {
		return storage.ErrNotFound
	}

	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.logical.DeleteWithContext(ctx, s.metadataPath(key)); err != nil {
		return fmt.Errorf("vault storage: failed to delete key %q: %w", key, err)
	}
	return nil
}

// List walks the metadata tree below Prefix and returns keys beginning with
// prefix in sorted order.
func (s *Storage) List(prefix string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	ctx, cancel := s.context()
	defer cancel()

	keys := make([]string, 0)
	if err := s.walk(ctx, "", prefix, &keys); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Storage) walk(ctx context.Context, dir, prefix string, keys *[]string) error {
	secret, err := s.logical.ListWithContext(ctx, s.metadataPath(dir))
	if err != nil {
		return fmt.Errorf("vault storage: failed to list %q: %w", dir, err)
	}
	if secret == nil || secret.Data == nil {
		return nil
	}
	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return fmt.Errorf("%w: unexpected keys format", ErrInvalidResponse)
	}

	for _, item := range raw {
		name, ok := item.(string)
		if !ok {
			continue
		}
		full := dir + name
		if strings.HasSuffix(name, "/") {
			// Only descend into directories that can still match prefix.
			if strings.HasPrefix(full, prefix) || strings.HasPrefix(prefix, full) {
				if err := s.walk(ctx, full, prefix, keys); err != nil {
					return err
				}
			}
			continue
		}
		if strings.HasPrefix(full, prefix) {
			*keys = append(*keys, full)
		}
	}
	return nil
}

// Exists checks if a readable version of key exists.
func (s *Storage) Exists(key string) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Close marks the backend closed. The underlying HTTP client is left to the
// garbage collector.
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Storage) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storage.ErrClosed
	}
	return nil
}

func (s *Storage) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.config.Timeout)
}

func (s *Storage) dataPath(key string) string {
	return path.Join(s.config.Mount, "data", s.config.Prefix, key)
}

// metadataPath keeps a trailing slash so directory listings stay directories.
func (s *Storage) metadataPath(key string) string {
	p := path.Join(s.config.Mount, "metadata", s.config.Prefix, key)
	if key == "" || strings.HasSuffix(key, "/") {
		p += "/"
	}
	return p
}
