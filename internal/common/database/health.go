package database

import (
	"context"
	"sync"
)

// Pinger is implemented by every client that participates in readiness checks.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every dependency concurrently and returns the failures keyed by name.
func CheckAll(ctx context.Context, deps ...Pinger) map[string]error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures = make(map[string]error)
	)

	for _, dep := range deps {
		if dep == nil {
			continue
		}
		wg.Add(1)
		go func(p Pinger) {
			defer wg.Done()
			if err := p.Ping(ctx); err != nil {
				mu.Lock()
				failures[p.Name()] = err
				mu.Unlock()
			}
		}(dep)
	}
	wg.Wait()

	return failures
}
