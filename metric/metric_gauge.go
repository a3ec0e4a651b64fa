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
	availableWorkersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cubesql",
			Subsystem: "executor",
			Name:      "available_workers",
			Help:      "Available workers observed by the last runner invocation.",
		})

	runningWorkersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cubesql",
			Subsystem: "executor",
			Name:      "running_workers",
			Help:      "Workers running a task in the pool.",
		})
)

// SetAvailableWorkers set the available workers
func SetAvailableWorkers(value int) {
	availableWorkersGauge.Set(float64(value))
}

// SetRunningWorkers set the running workers
func SetRunningWorkers(value int) {
	runningWorkersGauge.Set(float64(value))
}
