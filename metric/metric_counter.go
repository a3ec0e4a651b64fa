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
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dispatchStatementCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cubesql",
			Subsystem: "dispatch",
			Name:      "statements_total",
			Help:      "Total number of statements dispatched.",
		}, []string{"classification"})

	dispatchResponseCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cubesql",
			Subsystem: "dispatch",
			Name:      "responses_total",
			Help:      "Total number of outward responses and errors.",
		}, []string{"classification", "status"})

	executorGroupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cubesql",
			Subsystem: "executor",
			Name:      "groups_total",
			Help:      "Total number of tasks submitted by the partitioned runner.",
		}, []string{"mode"})

	executorRejectionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cubesql",
			Subsystem: "executor",
			Name:      "rejections_total",
			Help:      "Total number of submissions rejected by the worker pool.",
		})

	executorFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cubesql",
			Subsystem: "executor",
			Name:      "fallback_total",
			Help:      "Total number of tasks executed on the caller after a rejection.",
		})
)

// IncDispatchCount inc the statements dispatched with the classification
func IncDispatchCount(classification string) {
	dispatchStatementCounter.WithLabelValues(classification).Inc()
}

// IncResponseCount inc the successful outward responses
func IncResponseCount(classification string) {
	dispatchResponseCounter.WithLabelValues(classification, "ok").Inc()
}

// IncFailureCount inc the outward errors with the error kind
func IncFailureCount(classification string, kind string) {
	dispatchResponseCounter.WithLabelValues(classification, kind).Inc()
}

// AddIndividualGroupCount add tasks submitted one per work unit
func AddIndividualGroupCount(value int) {
	executorGroupCounter.WithLabelValues("individual").Add(float64(value))
}

// AddPartitionedGroupCount add tasks submitted one per partition
func AddPartitionedGroupCount(value int) {
	executorGroupCounter.WithLabelValues("partitioned").Add(float64(value))
}

// IncRejectionCount inc the rejected submissions
func IncRejectionCount() {
	executorRejectionCounter.Inc()
}

// IncFallbackCount inc the tasks executed on the caller
func IncFallbackCount() {
	executorFallbackCounter.Inc()
}
