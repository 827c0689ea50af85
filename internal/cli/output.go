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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/jeremyhahn/go-shamir/pkg/crypto/secretsharing"
	"github.com/jeremyhahn/go-shamir/pkg/shardstore"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintShardResult prints the outcome of a shard command
func (p *Printer) PrintShardResult(location string, m *shardstore.Manifest) error {
	switch p.format {
	case OutputFormatJSON:
		shards := make([]map[string]interface{}, len(m.Shards))
		for i, s := range m.Shards {
			shards[i] = map[string]interface{}{
				"key": s.Key,
				"x":   s.X,
			}
		}
		return p.printJSON(map[string]interface{}{
			"status":        "success",
			"location":      location,
			"set_id":        m.SetID,
			"parts":         m.Parts,
			"threshold":     m.Threshold,
			"secret_length": m.SecretLength,
			"shards":        shards,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Wrote %d shares to %s (threshold %d)\n", m.Parts, location, m.Threshold)
		fmt.Fprintf(p.writer, "  Set ID:        %s\n", m.SetID)
		fmt.Fprintf(p.writer, "  Secret length: %d bytes\n", m.SecretLength)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintCombineResult prints the outcome of a combine command
func (p *Printer) PrintCombineResult(outputPath string, secretLen, shares int) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":        "success",
			"output":        outputPath,
			"secret_length": secretLen,
			"shares_read":   shares,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Recovered %d bytes from %d shares into %s\n", secretLen, shares, outputPath)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// InspectReport describes a stored shard set without reconstructing it.
type InspectReport struct {
	Location string
	Manifest *shardstore.Manifest
	Keys     []string
	Shares   []secretsharing.Share
}

// Threshold returns the threshold recorded in the first share.
func (r *InspectReport) Threshold() int {
	if len(r.Shares) == 0 {
		return 0
	}
	return r.Shares[0].Threshold
}

// Sufficient reports whether enough shares are present to combine.
func (r *InspectReport) Sufficient() bool {
	return len(r.Shares) > 0 && len(r.Shares) >= r.Threshold()
}

// PrintInspect prints share headers and manifest details
func (p *Printer) PrintInspect(r *InspectReport) error {
	switch p.format {
	case OutputFormatJSON:
		shares := make([]map[string]interface{}, len(r.Shares))
		for i, s := range r.Shares {
			shares[i] = map[string]interface{}{
				"key":       r.Keys[i],
				"x":         s.X,
				"threshold": s.Threshold,
				"length":    s.Len(),
			}
		}
		out := map[string]interface{}{
			"location":   r.Location,
			"shares":     shares,
			"threshold":  r.Threshold(),
			"sufficient": r.Sufficient(),
		}
		if r.Manifest != nil {
			out["manifest"] = map[string]interface{}{
				"set_id":        r.Manifest.SetID,
				"parts":         r.Manifest.Parts,
				"threshold":     r.Manifest.Threshold,
				"secret_length": r.Manifest.SecretLength,
				"share_format":  r.Manifest.ShareFormat,
				"created_at":    r.Manifest.CreatedAt.Format(time.RFC3339),
			}
		}
		return p.printJSON(out)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Shard set: %s\n", r.Location)
		if r.Manifest != nil {
			fmt.Fprintf(p.writer, "  Set ID:        %s\n", r.Manifest.SetID)
			fmt.Fprintf(p.writer, "  Parts:         %d\n", r.Manifest.Parts)
			fmt.Fprintf(p.writer, "  Created:       %s\n", r.Manifest.CreatedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(p.writer, "  Threshold:     %d\n", r.Threshold())
		fmt.Fprintf(p.writer, "  Shares found:  %d\n", len(r.Shares))
		fmt.Fprintf(p.writer, "  Sufficient:    %t\n", r.Sufficient())
		fmt.Fprintln(p.writer, "Shares:")
		for i, s := range r.Shares {
			fmt.Fprintf(p.writer, "  - %s: x=%d threshold=%d length=%d\n", r.Keys[i], s.X, s.Threshold, s.Len())
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVersion prints build information
func (p *Printer) PrintVersion() error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"version":    Version,
			"commit":     GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		})
	default:
		fmt.Fprintf(p.writer, "shamir version %s\n", Version)
		fmt.Fprintf(p.writer, "Git commit: %s\n", GitCommit)
		fmt.Fprintf(p.writer, "Build date: %s\n", BuildDate)
		fmt.Fprintf(p.writer, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(p.writer, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	}
}

// PrintError prints an error message. Unknown formats fall back to text so
// an error is never swallowed.
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":    "error",
			"error":     err.Error(),
			"kind":      errorType(err),
			"exit_code": ExitCode(err),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(p.writer, "Run 'shamir --help' for usage.")
		}
		return nil
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
