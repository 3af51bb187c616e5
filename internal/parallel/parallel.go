// Package parallel provides flat data-parallel loops over independent
// index ranges.
//
// Every loop in this module that uses the package declares its index
// range so that distinct indices touch disjoint writable regions; that
// contract is what makes the goroutine fan-out here safe without any
// further synchronization.
package parallel

import (
	"runtime"
	"sync"
)

// Config configures parallel loop behavior.
type Config struct {
	// NumWorkers is the number of worker goroutines. 0 means runtime.GOMAXPROCS(0).
	NumWorkers int

	// GrainSize is the minimum work items per worker before parallelization.
	// If total work items < GrainSize * NumWorkers, runs sequentially.
	GrainSize int
}

// DefaultConfig returns the default parallel configuration.
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0, // Use all available CPUs
		GrainSize:  1, // At least 1 item per worker (parallelize aggressively)
	}
}

var (
	config   = DefaultConfig()
	configMu sync.RWMutex
)

// SetConfig sets the global parallel configuration.
func SetConfig(c Config) {
	configMu.Lock()
	defer configMu.Unlock()
	config = c
}

// GetConfig returns the current parallel configuration.
func GetConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// effectiveWorkers returns the number of workers to use.
func effectiveWorkers(c Config) int {
	if c.NumWorkers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.NumWorkers
}

// For runs fn(i) for i in [0, n) in parallel.
// If n is small or there's only one worker, runs sequentially.
//
// Callers must ensure fn(i) and fn(j) write to disjoint regions for
// i != j; fn may freely read any data that no call writes.
func For(n int, fn func(i int)) {
	c := GetConfig()
	numWorkers := effectiveWorkers(c)

	// Run sequentially if not worth parallelizing
	if n <= c.GrainSize*numWorkers || numWorkers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				fn(i)
			}
		}(start, end)
	}

	wg.Wait()
}

// ForErr runs fn(i) for i in [0, n) in parallel with error handling.
// Returns the first error encountered (order not guaranteed).
func ForErr(n int, fn func(i int) error) error {
	c := GetConfig()
	numWorkers := effectiveWorkers(c)

	// Run sequentially if not worth parallelizing
	if n <= c.GrainSize*numWorkers || numWorkers == 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var wg sync.WaitGroup
	var errOnce sync.Once
	var firstErr error
	chunkSize := (n + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				if err := fn(i); err != nil {
					errOnce.Do(func() {
						firstErr = err
					})
					return
				}
			}
		}(start, end)
	}

	wg.Wait()
	return firstErr
}
