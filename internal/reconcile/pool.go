package reconcile

import (
	"runtime"
	"sync"
)

// ReconcileAll runs ReconcileFile across inputs on a bounded worker
// pool, one result slot per input, using the semaphore-channel idiom
// (sem := make(chan struct{}, n)) for CPU-bound fan-out (§5). Each
// worker only reads its own FileInput and writes to its own result
// slot — no shared mutable accumulator is written concurrently.
func ReconcileAll(inputs []FileInput, adjacency, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]Result, len(inputs))
	errs := make([]error, len(inputs))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, in := range inputs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, in FileInput) {
			defer wg.Done()
			defer func() { <-sem }()
			r, err := ReconcileFile(in, adjacency)
			results[i] = r
			errs[i] = err
		}(i, in)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
