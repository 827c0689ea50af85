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


//go:build !vault

package cli

import (
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

func newVaultStore(_ *VaultConfig, _ string) (storage.Backend, error) {
	return nil, usageErrorf("vault store not compiled in. Rebuild with: go build -tags vault")
}
