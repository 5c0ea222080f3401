// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pkcs8.
//
// go-pkcs8 is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package metrics provides Prometheus instrumentation for PKCS#8 container
// operations. The codec itself is metrics-free; the keystore and the CLI
// record through this package.
package metrics

import (
	"fmt"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all metrics
	Namespace = "pkcs8"

	// Label names
	LabelOperation = "operation"
	LabelBackend   = "backend"
	LabelStatus    = "status"
	LabelKind      = "kind"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"

	// Operation names
	OpDecode    = "decode"
	OpEncode    = "encode"
	OpImport    = "import"
	OpGet       = "get"
	OpExport    = "export"
	OpDelete    = "delete"
	OpList      = "list"
	OpCompare   = "compare"
	OpCombine   = "combine"
	OpNormalize = "normalize"
	OpDecrypt   = "decrypt"
	OpEncrypt   = "encrypt"
)

var (
	// OperationsTotal tracks the total number of operations by type and status.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of PKCS#8 operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks the duration of operations in seconds. DER
	// handling is fast; the buckets start well below a millisecond.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of PKCS#8 operations in seconds",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{LabelOperation},
	)

	// DecodeErrorsTotal counts rejected inputs by decode error kind.
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decode_errors_total",
			Help:      "Total number of rejected encodings by error kind",
		},
		[]string{LabelKind},
	)

	// WipesTotal counts containers whose key material was wiped.
	WipesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "wipes_total",
			Help:      "Total number of containers wiped",
		},
	)

	// KeysTotal tracks the number of containers held by each storage backend.
	KeysTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "keys_total",
			Help:      "Total number of keys stored in each backend",
		},
		[]string{LabelBackend},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records an operation with its duration and status.
//
// Example:
//
//	start := time.Now()
//	_, err := store.Import(id, der)
//	status := metrics.StatusSuccess
//	if err != nil {
//	    status = metrics.StatusError
//	}
//	metrics.RecordOperation(metrics.OpImport, status, time.Since(start).Seconds())
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDecodeError counts a rejected encoding. kind is the snake_case
// decode error kind, e.g. "trailing_data".
func RecordDecodeError(kind string) {
	if !enabled.Load() {
		return
	}
	DecodeErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordWipe counts one wiped container.
func RecordWipe() {
	if !enabled.Load() {
		return
	}
	WipesTotal.Inc()
}

// SetKeysTotal sets the total number of keys for a backend.
func SetKeysTotal(backend string, count float64) {
	if !enabled.Load() {
		return
	}
	KeysTotal.WithLabelValues(backend).Set(count)
}

// WriteTextfile writes the default registry to path in the Prometheus text
// format, for pickup by the node exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("metrics: failed to write %s: %w", path, err)
	}
	return nil
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
