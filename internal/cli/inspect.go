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
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-shamir/pkg/metrics"
	"github.com/jeremyhahn/go-shamir/pkg/shardstore"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <shards-dir>",
		Short: "Show share headers without reconstructing",
		Long: `Decode the header of every share in <shards-dir> and print its
x-coordinate, threshold and length together with the manifest, if one
exists. The secret is never reconstructed.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(args[0])
		},
	}
}

func (a *app) runInspect(location string) (err error) {
	start := time.Now()
	defer func() { a.record(metrics.OpInspect, start, err) }()

	backend, err := a.cfg.CreateStore(location, false)
	if err != nil {
		return err
	}
	defer backend.Close()

	store := shardstore.New(backend, a.logger)
	manifest, err := store.Manifest()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", location, err)
		}
		a.logger.Debug("no manifest", "location", location)
		manifest = nil
	}

	keys, shares, err := store.LoadShares()
	if err != nil {
		return fmt.Errorf("%s: %w", location, err)
	}

	return a.printer.PrintInspect(&InspectReport{
		Location: location,
		Manifest: manifest,
		Keys:     keys,
		Shares:   shares,
	})
}
