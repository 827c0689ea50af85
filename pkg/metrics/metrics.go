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


// Package metrics provides Prometheus instrumentation for shard and combine
// operations. Metrics live in a dedicated Registry so a short-lived CLI run
// can dump exactly these series with WriteTextfile.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all shamir metrics
	Namespace = "shamir"

	// Label names
	LabelOperation = "operation"
	LabelBackend   = "backend"
	LabelStatus    = "status"
	LabelErrorType = "error_type"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpShard   = "shard"
	OpCombine = "combine"
	OpInspect = "inspect"
	OpStore   = "store"
	OpLoad    = "load"
)

var (
	// Registry holds every metric in this package.
	Registry = prometheus.NewRegistry()

	factory = promauto.With(Registry)

	// OperationsTotal tracks operations by type, storage backend and status.
	OperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of shamir operations by type, backend, and status",
		},
		[]string{LabelOperation, LabelBackend, LabelStatus},
	)

	// OperationDuration tracks the duration of operations in seconds.
	OperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of shamir operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{LabelOperation, LabelBackend},
	)

	// ErrorsTotal tracks errors by operation, backend and error kind
	// (configuration, empty_input, format, reconstruction, domain, io).
	ErrorsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation, backend, and error type",
		},
		[]string{LabelOperation, LabelBackend, LabelErrorType},
	)

	// SecretBytes observes the size of secrets sharded or recovered.
	SecretBytes = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "secret_bytes",
			Help:      "Size of secrets processed in bytes",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 10),
		},
		[]string{LabelOperation},
	)

	// SharesTotal counts share blobs written or read.
	SharesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "shares_total",
			Help:      "Total number of share blobs processed",
		},
		[]string{LabelOperation},
	)

	// Goroutines is the goroutine count at the last CollectOnce.
	Goroutines = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "goroutines",
			Help:      "Current number of goroutines",
		},
	)

	// MemoryAllocBytes is the allocated heap at the last CollectOnce.
	MemoryAllocBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_alloc_bytes",
			Help:      "Current bytes of allocated heap objects",
		},
	)

	// MemorySysBytes is the memory obtained from the OS at the last CollectOnce.
	MemorySysBytes = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "memory_sys_bytes",
			Help:      "Total bytes of memory obtained from the OS",
		},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records an operation with its duration in seconds.
//
// Example:
//
//	start := time.Now()
//	blobs, err := secretsharing.Shard(secret, parts, threshold)
//	status := metrics.StatusSuccess
//	if err != nil {
//	    status = metrics.StatusError
//	}
//	metrics.RecordOperation(metrics.OpShard, "file", status, time.Since(start).Seconds())
func RecordOperation(operation, backend, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, backend, status).Inc()
	OperationDuration.WithLabelValues(operation, backend).Observe(duration)
}

// RecordError records an error of the given kind.
func RecordError(operation, backend, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, backend, errorType).Inc()
}

// RecordSecret records the size of a secret and the number of shares involved.
func RecordSecret(operation string, secretLen, shares int) {
	if !enabled.Load() {
		return
	}
	SecretBytes.WithLabelValues(operation).Observe(float64(secretLen))
	SharesTotal.WithLabelValues(operation).Add(float64(shares))
}

// WriteTextfile writes the registry in the Prometheus text format to path,
// suitable for the node_exporter textfile collector. The file is written
// atomically.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("metrics: failed to write textfile: %w", err)
	}
	return nil
}

// Enable turns on metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable turns off metrics collection. Record* calls become no-ops.
func Disable() {
	enabled.Store(false)
}

// IsEnabled reports whether metrics collection is enabled.
func IsEnabled() bool {
	return enabled.Load()
}
