package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("app-%03d", i)
	}
	return ids
}

func TestChunk(t *testing.T) {
	chunks := Chunk(makeIDs(7), 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[2], 1)

	assert.Empty(t, Chunk([]string{}, 3))
	assert.Len(t, Chunk(makeIDs(120), 0), 3)
}

func TestOptimalBatchSize(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 50},
		{12, 12},
		{50, 50},
		{51, 50},
		{200, 50},
		{201, 100},
		{500, 100},
		{501, 150},
		{5000, 150},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OptimalBatchSize(tt.n), "n=%d", tt.n)
	}
}

func TestCollectChunks_ParallelAndSequential(t *testing.T) {
	ids := makeIDs(120)

	for _, sequential := range []bool{false, true} {
		t.Run(fmt.Sprintf("sequential=%v", sequential), func(t *testing.T) {
			var calls int32
			rows, err := collectChunks(context.Background(), ids, sequential, func(_ context.Context, chunk []string) ([]string, error) {
				atomic.AddInt32(&calls, 1)
				return chunk, nil
			})
			require.NoError(t, err)
			assert.Equal(t, int32(3), atomic.LoadInt32(&calls))

			sort.Strings(rows)
			assert.Equal(t, ids, rows)
		})
	}
}

func TestCollectChunks_AnyChunkErrorFailsSlice(t *testing.T) {
	boom := errors.New("boom")
	rows, err := collectChunks(context.Background(), makeIDs(120), false, func(_ context.Context, chunk []string) ([]string, error) {
		if chunk[0] == "app-050" {
			return nil, boom
		}
		return chunk, nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, rows)
}

func TestCollectChunks_SequentialStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	_, err := collectChunks(ctx, makeIDs(120), true, func(_ context.Context, chunk []string) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return chunk, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
