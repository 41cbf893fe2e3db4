package canvas

import (
	"runtime"
	"sync"

	"go.jacobcolvin.com/glyphcast/raster"
)

// accelMinPixels is the frame size below which the serial path is faster
// than fanning out.
const accelMinPixels = 320 * 180

// Accelerator converts RGB frames into half-block color pairs. It shadows
// the serial loop of [HalfBlockColorCanvas] and must produce identical
// cells.
type Accelerator interface {
	LoadColorPairs(f *raster.Frame, cells []ColorPair, charW, charH int)
}

var (
	accelOnce sync.Once
	accel     Accelerator
)

// sharedAccelerator returns the process-wide accelerator, selected on first
// use. It is nil when no accelerator is available.
func sharedAccelerator() Accelerator {
	accelOnce.Do(func() {
		n := runtime.GOMAXPROCS(0)
		if n > 1 {
			accel = &ShardedAccelerator{Workers: min(n, 8)}
		}
	})

	return accel
}

// ShardedAccelerator splits cell rows across goroutines.
type ShardedAccelerator struct {
	Workers int
}

// LoadColorPairs implements [Accelerator].
func (a *ShardedAccelerator) LoadColorPairs(f *raster.Frame, cells []ColorPair, charW, charH int) {
	workers := max(1, min(a.Workers, charH))
	per := (charH + workers - 1) / workers

	var wg sync.WaitGroup

	for from := 0; from < charH; from += per {
		to := min(from+per, charH)

		wg.Go(func() {
			loadColorRows(f, cells, charW, from, to)
		})
	}

	wg.Wait()
}
