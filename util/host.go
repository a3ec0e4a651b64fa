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

package util

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// CPUCount returns the logical cpu count of the host, falling back to
// runtime.NumCPU if the host cannot be inspected.
func CPUCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// HostStats host resource usage reported by the health endpoint
type HostStats struct {
	CPUs          int     `json:"cpus"`
	MemoryTotal   uint64  `json:"memory_total"`
	MemoryUsed    float64 `json:"memory_used_percent"`
	DiskTotal     uint64  `json:"disk_total,omitempty"`
	DiskUsed      float64 `json:"disk_used_percent,omitempty"`
	DiskAvailable uint64  `json:"disk_available,omitempty"`
}

// GetHostStats returns the host stats, disk stats are only filled if the
// path is not empty
func GetHostStats(path string) (HostStats, error) {
	stats := HostStats{CPUs: CPUCount()}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return stats, err
	}
	stats.MemoryTotal = vm.Total
	stats.MemoryUsed = vm.UsedPercent

	if path == "" {
		return stats, nil
	}

	usage, err := disk.Usage(path)
	if err != nil {
		return stats, err
	}
	stats.DiskTotal = usage.Total
	stats.DiskUsed = usage.UsedPercent
	stats.DiskAvailable = usage.Free
	return stats, nil
}
