/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics holds the Prometheus collectors for storage backend round
// trips.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StorageRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuplestore_requests_total",
			Help: "Total number of storage backend requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	StorageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tuplestore_request_duration_seconds",
			Help:    "Latency of storage backend requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EmulatorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tuplestore_emulator_requests_total",
			Help: "Requests served by the storage emulator",
		},
		[]string{"operation", "status"},
	)
)

// StatusTransportError labels round trips that never produced a response.
const StatusTransportError = "transport_error"

// ObserveRequest records one round trip. A status of 0 means the request
// failed before a response was received.
func ObserveRequest(operation string, status int, elapsed time.Duration) {
	label := StatusTransportError
	if status > 0 {
		label = strconv.Itoa(status)
	}
	StorageRequests.WithLabelValues(operation, label).Inc()
	StorageLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}
