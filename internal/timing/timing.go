// Package timing provides a minimal monotonic stopwatch used by the
// command-line drivers for throughput reporting.
package timing

import "time"

// Stopwatch measures elapsed wall-clock time on the monotonic clock.
type Stopwatch struct {
	beg time.Time
}

// Start records the current time as the measurement origin.
func (s *Stopwatch) Start() {
	s.beg = time.Now()
}

// Stop returns the seconds elapsed since the last Start.
func (s *Stopwatch) Stop() float64 {
	return time.Since(s.beg).Seconds()
}
