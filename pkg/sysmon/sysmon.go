// Package sysmon samples host CPU, memory, and load-average utilization for
// the pool's stats endpoint. Readings are point-in-time snapshots; they are
// not used for admission decisions.
package sysmon

import (
	"context"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// Load is a point-in-time snapshot of host utilization.
type Load struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	LoadAvg1      float64 `json:"load_avg_1"`
}

// Monitor samples host load. The zero value is usable.
type Monitor struct{}

// New creates a Monitor.
func New() *Monitor {
	return &Monitor{}
}

// Sample reads current CPU utilization (busy/idle deltas since the previous
// call), memory utilization as (total-free)/total, and the 1-minute load
// average. Unavailable readings are left at zero rather than failing the
// whole snapshot; the first error encountered is returned alongside.
func (m *Monitor) Sample(ctx context.Context) (Load, error) {
	var snap Load
	var firstErr error

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err != nil {
		firstErr = err
	} else if len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else if vm.Total > 0 {
		snap.MemoryPercent = float64(vm.Total-vm.Free) / float64(vm.Total) * 100
	}

	if avg, err := load.AvgWithContext(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
	} else {
		snap.LoadAvg1 = avg.Load1
	}

	return snap, firstErr
}
