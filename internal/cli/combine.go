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


package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/shardstore"
)

const secretFilePerms = 0600

func newCombineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "combine <shards-dir> <output-file>",
		Short: "Reconstruct a secret from shares",
		Long: `Read every shard_<n> in <shards-dir> and reconstruct the secret
into <output-file>, which is created with 0600 permissions or truncated if
it exists. At least threshold shares must be present. Use - to write the
secret to standard output.

Shares are not authenticated: a corrupted or substituted share yields a
wrong secret without an error.`,
		Example: `  shamir combine ./shards secret.key`,
		Args:    exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCombine(cmd, args[0], args[1])
		},
	}
}

func (a *app) runCombine(cmd *cobra.Command, location, outputPath string) (err error) {
	start := time.Now()
	defer func() { a.record(metrics.OpCombine, start, err) }()

	backend, err := a.cfg.CreateStore(location, false)
	if err != nil {
		return err
	}
	defer backend.Close()

	blobs, err := shardstore.New(backend, a.logger).Load()
	if err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}

	secret, err := secretsharing.CombineBytes(blobs)
	if err != nil {
		return err
	}
	defer clear(secret)

	if outputPath == stdio {
		if _, err := cmd.OutOrStdout().Write(secret); err != nil {
			return fmt.Errorf("failed to write secret: %w", err)
		}
		metrics.RecordSecret(metrics.OpCombine, len(secret), len(blobs))
		return nil
	}

	if err := writeSecret(outputPath, secret); err != nil {
		return err
	}
	metrics.RecordSecret(metrics.OpCombine, len(secret), len(blobs))
	a.logger.Debug("wrote secret", "path", outputPath, "bytes", len(secret))

	return a.printer.PrintCombineResult(outputPath, len(secret), len(blobs))
}

func writeSecret(path string, secret []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, secretFilePerms)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := f.Write(secret); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write secret: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write secret: %w", err)
	}
	return nil
}
