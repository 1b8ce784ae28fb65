package sim

import (
	"runtime"
	"sync"
)

// ParallelFor splits [0, n) into at most workers contiguous chunks of at
// least minChunk items and runs fn on each chunk concurrently. workers <= 0
// means runtime.NumCPU(). It returns once every chunk is done.
func ParallelFor(n, workers, minChunk int, fn func(start, end int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
