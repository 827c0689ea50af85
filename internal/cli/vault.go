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

package cli

import (
	"strings"

	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/vault"
)

func newVaultStore(cfg *VaultConfig, location string) (storage.Backend, error) {
	backend, err := vault.New(&vault.Config{
		Address:       cfg.Address,
		Token:         cfg.Token,
		Mount:         cfg.Mount,
		Prefix:        strings.Trim(location, "/"),
		Namespace:     cfg.Namespace,
		TLSSkipVerify: cfg.TLSSkipVerify,
	})
	if err != nil {
		return nil, usageErrorf("vault store: %w", err)
	}
	return backend, nil
}
