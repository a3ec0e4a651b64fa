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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()
)

func init() {
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	registry.MustRegister(dispatchStatementCounter)
	registry.MustRegister(dispatchResponseCounter)
	registry.MustRegister(executorGroupCounter)
	registry.MustRegister(executorRejectionCounter)
	registry.MustRegister(executorFallbackCounter)

	registry.MustRegister(availableWorkersGauge)
	registry.MustRegister(runningWorkersGauge)

	registry.MustRegister(dispatchDurationHistogram)
	registry.MustRegister(partitionSizeHistogram)
}

// Registry returns the cubesql metric registry
func Registry() *prometheus.Registry {
	return registry
}

// Handler returns the http handler exposing the cubesql metrics
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
