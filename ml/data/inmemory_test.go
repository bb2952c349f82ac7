package data

import (
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExamples(count int) []Example {
	examples := make([]Example, count)
	for ii := range examples {
		// Sequence lengths vary from 1 to 3 so batches get real padding.
		seq := make([]int32, 1+ii%3)
		for jj := range seq {
			seq[jj] = int32(ii + 1)
		}
		examples[ii] = Example{Source: seq, Target: []int32{int32(ii + 1)}}
	}
	return examples
}

// drain yields until io.EOF, returning the batches.
func drain(t *testing.T, ds Dataset) []*PaddedBatch {
	var batches []*PaddedBatch
	for {
		_, batch, err := ds.Yield()
		if err == io.EOF {
			return batches
		}
		require.NoError(t, err)
		batches = append(batches, batch)
	}
}

func TestInMemoryEpoch(t *testing.T) {
	ds := InMemory("test", testExamples(10), NewCollator(0), 4)
	batches := drain(t, ds)

	// 10 examples at batch size 4: the final short batch is dropped.
	require.Len(t, batches, 2)
	for _, batch := range batches {
		assert.Equal(t, 4, batch.Len())
	}

	// After Reset another full epoch is served.
	ds.Reset()
	assert.Len(t, drain(t, ds), 2)
}

func TestInMemoryYieldIncomplete(t *testing.T) {
	ds := InMemory("test", testExamples(10), NewCollator(0), 4).YieldIncomplete()
	batches := drain(t, ds)
	require.Len(t, batches, 3)
	assert.Equal(t, 4, batches[0].Len())
	assert.Equal(t, 4, batches[1].Len())
	assert.Equal(t, 2, batches[2].Len())
}

func TestInMemoryShuffled(t *testing.T) {
	examples := testExamples(32)

	firstTokens := func(seed int64) []int32 {
		ds := InMemory("test", examples, NewCollator(0), 4).
			Shuffled(rand.New(rand.NewSource(seed)))
		var tokens []int32
		for _, batch := range drain(t, ds) {
			rows := batch.Source.Padded().Value().([][]int32)
			tokens = append(tokens, rows[0]...)
		}
		return tokens
	}

	// Same seed, same order; different seed, different order.
	assert.Equal(t, firstTokens(42), firstTokens(42))
	assert.NotEqual(t, firstTokens(42), firstTokens(43))
}

func TestInMemoryInfinite(t *testing.T) {
	ds := InMemory("test", testExamples(6), NewCollator(0), 4).Infinite()
	// Many more yields than one epoch holds: it must keep going.
	for ii := 0; ii < 10; ii++ {
		_, batch, err := ds.Yield()
		require.NoError(t, err)
		assert.Equal(t, 4, batch.Len())
	}
}

func TestInMemoryInfiniteSmallerThanBatch(t *testing.T) {
	ds := InMemory("test", testExamples(2), NewCollator(0), 4).Infinite()
	_, _, err := ds.Yield()
	require.ErrorContains(t, err, "fewer than the batch size")
}

func TestInMemoryEmpty(t *testing.T) {
	ds := InMemory("test", nil, NewCollator(0), 4)
	_, _, err := ds.Yield()
	assert.Equal(t, io.EOF, err)
}

func TestInMemoryPanicsOnBadConfig(t *testing.T) {
	require.Panics(t, func() { InMemory("test", nil, NewCollator(0), 0) })
	require.Panics(t, func() { InMemory("test", nil, nil, 4) })
}
