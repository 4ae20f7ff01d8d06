package system

import (
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Resources is a snapshot of process and host memory for the run report.
type Resources struct {
	ProcessRSS   uint64
	SystemTotal  uint64
	SystemUsed   float64 // percent
	NumGoroutine int
}

// SnapshotResources never fails: fields that cannot be read stay zero.
func SnapshotResources() Resources {
	r := Resources{NumGoroutine: runtime.NumGoroutine()}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			r.ProcessRSS = mi.RSS
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		r.SystemTotal = vm.Total
		r.SystemUsed = vm.UsedPercent
	}
	return r
}

func (r Resources) String() string {
	return fmt.Sprintf("RSS: %s | System: %s (%.1f%% used) | Goroutines: %d",
		humanBytes(r.ProcessRSS), humanBytes(r.SystemTotal), r.SystemUsed, r.NumGoroutine)
}

func humanBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
