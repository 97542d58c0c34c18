package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	// Executions allocate little per call; a higher GOGC keeps the uint256
	// pools warm between requests.
	defaultGOGC     = 400
	smallMemLimit   = 1 << 30 // 1GB
	defaultMemLimit = 4 << 30 // 4GB
)

// InitRuntime applies GC and memory limits unless GOGC or GOMEMLIMIT are set
// in the environment.
func InitRuntime() {
	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGOGC)
	}

	if os.Getenv("GOMEMLIMIT") == "" {
		limit := int64(defaultMemLimit)
		if runtime.NumCPU() <= 2 {
			limit = smallMemLimit
		}
		debug.SetMemoryLimit(limit)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] settings applied")
}
