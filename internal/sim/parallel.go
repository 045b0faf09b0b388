package sim

import "sync"

// parallelThreshold is the set size below which per-particle passes stay on
// the calling goroutine.
const parallelThreshold = 4096

// forEachChunk splits [0,n) into contiguous ranges and runs fn on each,
// concurrently when there is enough work. fn must only write to indices in
// its own range. It returns after every range is done.
func forEachChunk(n, workers int, fn func(lo, hi int)) {
	if workers <= 1 || n < parallelThreshold {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}
