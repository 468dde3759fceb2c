package system

import (
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// Status is a point-in-time snapshot of host resource usage, exposed on the
// status endpoint.
type Status struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
}

// CPUUsage samples total CPU utilization over a short window.
func CPUUsage() (float64, error) {
	percents, err := cpu.Percent(200*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

// MemoryUsage returns the fraction of physical memory in use.
func MemoryUsage() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent, nil
}

// Snapshot gathers the full status. Individual probe failures zero the
// affected field rather than failing the snapshot.
func Snapshot() Status {
	var status Status
	if cpuPct, err := CPUUsage(); err == nil {
		status.CPUPercent = cpuPct
	}
	if memPct, err := MemoryUsage(); err == nil {
		status.MemoryPercent = memPct
	}
	if uptime, err := host.Uptime(); err == nil {
		status.UptimeSeconds = uptime
	}
	return status
}
