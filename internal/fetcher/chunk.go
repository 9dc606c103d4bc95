// internal/fetcher/chunk.go
package fetcher

import (
	"context"
	"sync"
)

// DefaultBatchSize bounds the number of ids sent in one lookup.
const DefaultBatchSize = 50

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultBatchSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// OptimalBatchSize grows the chunk size with the request size.
func OptimalBatchSize(n int) int {
	switch {
	case n <= DefaultBatchSize:
		if n == 0 {
			return DefaultBatchSize
		}
		return n
	case n <= 200:
		return 50
	case n <= 500:
		return 100
	default:
		return 150
	}
}

// collectChunks runs fn per chunk and concatenates the rows. Any chunk error
// fails the whole slice so a partially loaded slice is never returned.
func collectChunks[T any](ctx context.Context, ids []string, sequential bool,
	fn func(ctx context.Context, chunk []string) ([]T, error)) ([]T, error) {

	chunks := Chunk(ids, OptimalBatchSize(len(ids)))

	if sequential || len(chunks) == 1 {
		var out []T
		for _, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rows, err := fn(ctx, chunk)
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		}
		return out, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		out      []T
		firstErr error
	)
	for _, chunk := range chunks {
		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			rows, err := fn(ctx, chunk)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			out = append(out, rows...)
		}(chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
