package observability

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

type ProcessSnapshot struct {
	CapturedAt        time.Time `json:"captured_at"`
	RSSBytes          int64     `json:"rss_bytes"`
	HeapAllocBytes    int64     `json:"heap_alloc_bytes"`
	Goroutines        int       `json:"goroutines"`
	SystemMemoryTotal int64     `json:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `json:"system_memory_used_bytes"`
}

// CaptureProcess samples this process and the host. Fields the platform
// cannot report stay zero.
func CaptureProcess() ProcessSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snap := ProcessSnapshot{
		CapturedAt:     time.Now().UTC(),
		HeapAllocBytes: int64(ms.HeapAlloc),
		Goroutines:     runtime.NumGoroutine(),
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil && info != nil {
			snap.RSSBytes = int64(info.RSS)
		}
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		snap.SystemMemoryTotal = int64(vm.Total)
		snap.SystemMemoryUsed = int64(vm.Total - vm.Available)
	}
	return snap
}
