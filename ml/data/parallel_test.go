package data

import (
	"io"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDS struct {
	count atomic.Int64
}

var testDSMaxValue = int64(1000)

func (ds *testDS) Name() string { return "testDS" }
func (ds *testDS) Reset()       { ds.count.Store(0) }
func (ds *testDS) Yield() (spec any, batch *PaddedBatch, err error) {
	value := ds.count.Add(1)
	if value > testDSMaxValue {
		err = io.EOF
		return
	}
	source, err := PadSequences([][]int32{{int32(value)}}, 0)
	if err != nil {
		return
	}
	batch, err = NewPaddedBatch(source, nil, nil)
	return
}

// TestParallelDataset with and without cache.
func TestParallelDataset(t *testing.T) {
	for _, cacheSize := range []int{0, 10} {
		ds := &testDS{}
		pds := CustomParallel(ds).Buffer(cacheSize).Start()
		count := int64(0)
		for {
			_, batch, err := pds.Yield()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, "Test failed with unexpected error")
			require.NotNil(t, batch, "Expected dataset to yield a batch")
			require.Equal(t, 1, batch.Len())
			count++
		}
		assert.Equal(t, testDSMaxValue, count,
			"Expected %d batches yielded before io.EOF", testDSMaxValue)

		// After Reset the dataset serves a full new epoch.
		pds.Reset()
		count = 0
		for {
			_, _, err := pds.Yield()
			if err == io.EOF {
				break
			}
			require.NoError(t, err)
			count++
		}
		assert.Equal(t, testDSMaxValue, count)
		pds.Cancel()
	}
}

func TestParallelDatasetName(t *testing.T) {
	pds := CustomParallel(&testDS{}).Start()
	assert.Equal(t, "testDS [Parallel]", pds.Name())
	pds.Cancel()
}

type failingDS struct {
	yields atomic.Int64
}

func (ds *failingDS) Name() string { return "failingDS" }
func (ds *failingDS) Reset()       {}
func (ds *failingDS) Yield() (spec any, batch *PaddedBatch, err error) {
	if ds.yields.Add(1) > 3 {
		return nil, nil, errors.New("corrupt example")
	}
	source, err := PadSequences([][]int32{{1}}, 0)
	if err != nil {
		return
	}
	batch, err = NewPaddedBatch(source, nil, nil)
	return
}

// TestParallelDatasetError checks that a failure in the wrapped dataset
// surfaces through Yield, instead of hanging or being dropped.
func TestParallelDatasetError(t *testing.T) {
	pds := CustomParallel(&failingDS{}).Parallelism(2).Buffer(1).Start()
	var err error
	for ii := 0; ii < 100; ii++ {
		_, _, err = pds.Yield()
		if err != nil {
			break
		}
	}
	require.ErrorContains(t, err, "corrupt example")
}

func TestParallelDatasetCancel(t *testing.T) {
	pds := CustomParallel(&testDS{}).Start()
	pds.Cancel()
	pds.Cancel() // Safe to call twice.
	_, _, err := pds.Yield()
	require.Error(t, err)
}
