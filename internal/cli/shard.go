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
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/shardstore"
)

// stdio names standard input or output in place of a file path.
const stdio = "-"

func newShardCmd(a *app) *cobra.Command {
	defaults := NewConfig()
	cmd := &cobra.Command{
		Use:   "shard <secret-file> <shards-dir>",
		Short: "Split a secret file into shares",
		Long: `Split a secret file into --parts shares, any --threshold of which
reconstruct it. Each share is written to <shards-dir> as shard_<n> along
with a manifest.yaml describing the set. Use - to read the secret from
standard input.`,
		Example: `  shamir shard secret.key ./shards -p 5 -t 3
  cat secret.key | shamir shard - ./shards --parts 3 --threshold 2`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runShard(cmd, args[0], args[1])
		},
	}

	f := cmd.Flags()
	f.IntP("parts", "p", defaults.Parts, "number of shares to create (1-255)")
	f.IntP("threshold", "t", defaults.Threshold, "number of shares required to reconstruct")
	f.String("x-coordinates", defaults.XCoordinates, "x-coordinate assignment (random, sequential)")
	f.Int("workers", defaults.Workers, "goroutines used for secrets of 64 KiB or more")
	f.Bool("overwrite", false, "replace an existing shard set")
	f.String("insecure-deterministic-seed", "", "derive coefficients from a seed; shares become reproducible (testing only)")
	_ = f.MarkHidden("insecure-deterministic-seed")
	return cmd
}

func (a *app) runShard(cmd *cobra.Command, secretPath, location string) (err error) {
	start := time.Now()
	defer func() { a.record(metrics.OpShard, start, err) }()

	config := &secretsharing.ShareConfig{
		Threshold:   a.cfg.Threshold,
		TotalShares: a.cfg.Parts,
	}
	if err := config.Validate(); err != nil {
		return err
	}

	secret, err := readSecret(cmd, secretPath)
	if err != nil {
		return err
	}
	defer clear(secret)

	rng, err := a.cfg.NewResolver()
	if err != nil {
		return err
	}
	defer rng.Close()
	if a.cfg.InsecureSeed != "" {
		a.logger.Warn("deterministic coefficients in use; anyone with the seed can rebuild the shares")
	}
	a.logger.Debug("sharding secret",
		"bytes", len(secret),
		"parts", config.TotalShares,
		"threshold", config.Threshold,
		"rng", string(rng.Mode()))

	s, err := secretsharing.NewShamir(config, a.cfg.ShardOptions(rng)...)
	if err != nil {
		return err
	}
	shares, err := s.Split(secret)
	if err != nil {
		return err
	}

	backend, err := a.cfg.CreateStore(location, true)
	if err != nil {
		return err
	}
	defer backend.Close()

	overwrite, _ := cmd.Flags().GetBool("overwrite")
	manifest, err := shardstore.New(backend, a.logger).Save(shares, &shardstore.SaveOptions{
		Overwrite: overwrite,
	})
	if err != nil {
		return fmt.Errorf("failed to store shares in %s: %w", location, err)
	}
	metrics.RecordSecret(metrics.OpShard, len(secret), len(shares))

	return a.printer.PrintShardResult(location, manifest)
}

func readSecret(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read secret from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return data, nil
}
