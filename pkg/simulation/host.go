package simulation

import (
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultWorkers returns the number of logical CPUs
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// HostInfo describes the machine a simulation ran on
type HostInfo struct {
	CPUModel     string  `json:"cpuModel"`
	ClockGHz     float64 `json:"clockGHz"`
	LogicalCores int     `json:"logicalCores"`
	TotalRAMGB   uint64  `json:"totalRamGB"`
}

// GetHostInfo queries CPU and memory information. Fields the platform does
// not report are left zero.
func GetHostInfo() (HostInfo, error) {
	info := HostInfo{LogicalCores: DefaultWorkers()}

	cpuInfo, err := cpu.Info()
	if err != nil {
		return info, fmt.Errorf("reading CPU info: %w", err)
	}
	if len(cpuInfo) > 0 {
		info.CPUModel = cpuInfo[0].ModelName
		info.ClockGHz = cpuInfo[0].Mhz / 1000 // Convert MHz to GHz
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return info, fmt.Errorf("reading memory info: %w", err)
	}
	info.TotalRAMGB = memInfo.Total / (1024 * 1024 * 1024)

	return info, nil
}

func (h HostInfo) String() string {
	if h.CPUModel == "" {
		return fmt.Sprintf("%d logical cores, %d GB RAM", h.LogicalCores, h.TotalRAMGB)
	}
	return fmt.Sprintf("%s @ %.2f GHz, %d logical cores, %d GB RAM", h.CPUModel, h.ClockGHz, h.LogicalCores, h.TotalRAMGB)
}
