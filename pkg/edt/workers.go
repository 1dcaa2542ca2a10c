package edt

import (
	"runtime"
	"sync"
)

// forEachLine calls fn for every line in [0, count). Lines are split into
// contiguous ranges, one per worker, and every worker owns a scratch
// buffer of scratchLen values that it reuses for all of its lines.
// forEachLine returns once every line has been processed.
func forEachLine(count, workers, scratchLen int, fn func(k int, scratch []float64)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > count {
		workers = count
	}

	if workers <= 1 {
		scratch := make([]float64, scratchLen)
		for k := 0; k < count; k++ {
			fn(k, scratch)
		}
		return
	}

	linesPerWorker := (count + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * linesPerWorker
		if start >= count {
			break
		}
		end := min(start+linesPerWorker, count)

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			scratch := make([]float64, scratchLen)
			for k := start; k < end; k++ {
				fn(k, scratch)
			}
		}(start, end)
	}
	wg.Wait()
}
