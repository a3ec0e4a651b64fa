// Copyright 2021 MatrixOrigin.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	dispatchDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cubesql",
			Subsystem: "dispatch",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of request duration by classification.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2.0, 20),
		}, []string{"classification"})

	partitionSizeHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cubesql",
			Subsystem: "executor",
			Name:      "partition_units",
			Help:      "Bucketed histogram of work units per submitted task.",
			Buckets:   prometheus.ExponentialBuckets(1, 2.0, 12),
		})
)

// ObserveDispatchDuration observe the request duration
func ObserveDispatchDuration(classification string, d time.Duration) {
	dispatchDurationHistogram.WithLabelValues(classification).Observe(d.Seconds())
}

// ObservePartitionSize observe the work units of one submitted task
func ObservePartitionSize(units int) {
	partitionSizeHistogram.Observe(float64(units))
}
