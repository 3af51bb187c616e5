package timing

import (
	"testing"
	"time"
)

func TestStopwatch(t *testing.T) {
	var sw Stopwatch
	sw.Start()
	time.Sleep(10 * time.Millisecond)
	elapsed := sw.Stop()

	if elapsed < 0.005 {
		t.Errorf("elapsed %.4fs, want at least ~0.01s", elapsed)
	}
	if elapsed > 5 {
		t.Errorf("elapsed %.4fs, implausibly long for a 10ms sleep", elapsed)
	}
}
