/*
 *	Copyright 2025 The Yoyodyne Authors
 *
 *	Licensed under the Apache License, Version 2.0 (the "License");
 *	you may not use this file except in compliance with the License.
 *	You may obtain a copy of the License at
 *
 *	http://www.apache.org/licenses/LICENSE-2.0
 *
 *	Unless required by applicable law or agreed to in writing, software
 *	distributed under the License is distributed on an "AS IS" BASIS,
 *	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *	See the License for the specific language governing permissions and
 *	limitations under the License.
 */

package data

import (
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ParallelDataset is a wrapper around a Dataset that parallelizes calls to
// Yield. See details in CustomParallel.
type ParallelDataset struct {
	Dataset Dataset

	// parallelism is the number of goroutines started collating batches.
	parallelism int

	// extraBufferSize is the size of the cache of pre-collated batches.
	extraBufferSize int

	// impl is the actual implementation.
	impl *parallelDatasetImpl

	// keepAlive is used only to keep ParallelDataset alive in the middle of
	// long calls.
	keepAlive int64
}

type yieldUnit struct {
	spec  any
	batch *PaddedBatch
}

// parallelDatasetImpl separates the implementation of ParallelDataset. It's
// important that it doesn't point back to the original ParallelDataset, so
// garbage collecting the ParallelDataset will also stop the goroutines.
type parallelDatasetImpl struct {
	config ParallelDataset // A copy.

	err   error
	muErr sync.Mutex

	cache                                 chan yieldUnit
	epochFinished, stopEpoch, stopDataset chan struct{}
}

// Parallel parallelizes any thread-safe Dataset.
//
// It uses CustomParallel and automatically starts it with the default
// parameters.
//
// To avoid leaking goroutines, call ParallelDataset.Cancel when exiting.
//
// Example:
//
//	var ds data.Dataset
//	ds = data.InMemory("train", examples, collator, batchSize)
//	ds = data.Parallel(ds)
//	MyTrainFunc(ds)
func Parallel(ds Dataset) *ParallelDataset {
	pd := CustomParallel(ds)
	return pd.Buffer(pd.parallelism).Start()
}

// CustomParallel builds a ParallelDataset that can be used to parallelize any
// Dataset, as long as the underlying dataset ds is thread-safe.
//
// ParallelDataset can be further configured (see Parallelism and Buffer), and
// then one has to call Start before actually using the Dataset.
//
// To avoid leaking goroutines, call ParallelDataset.Cancel when exiting.
//
// Example:
//
//	var ds data.Dataset
//	ds = data.InMemory("train", examples, collator, batchSize)
//	ds = data.CustomParallel(ds).Buffer(10).Start()
//	MyTrainFunc(ds)
func CustomParallel(ds Dataset) *ParallelDataset {
	pd := &ParallelDataset{
		Dataset: ds,
	}
	pd.Parallelism(0)
	return pd
}

// Parallelism is the number of goroutines to start, each calling ds.Yield()
// in parallel to accelerate the collation of batches. If set to 0 (the
// default), it will use the number of cores in the system plus 1.
//
// This must be called before a call to Start.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) Parallelism(n int) *ParallelDataset {
	if pd.impl != nil {
		klog.Errorf("ParallelDataset invalid configuration change after Start has been called.")
		return nil
	}
	if n == 0 {
		n = runtime.NumCPU() + 1
	}
	pd.parallelism = n
	return pd
}

// Buffer reserved in the channel that collects the parallel yields. Notice
// there is already an intrinsic buffering that happens in the parallel
// goroutines themselves.
//
// This must be called before a call to Start.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) Buffer(n int) *ParallelDataset {
	if pd.impl != nil {
		klog.Errorf("ParallelDataset invalid configuration change after Start has been called.")
		return nil
	}
	pd.extraBufferSize = n
	return pd
}

// Start indicates that the dataset is finished being configured, and starts
// being a valid Dataset.
//
// After Start its configuration can no longer be changed.
//
// It returns the updated ParallelDataset, so calls can be cascaded.
func (pd *ParallelDataset) Start() *ParallelDataset {
	if pd.impl != nil {
		klog.Errorf("ParallelDataset.Start called more than once!?")
		return nil
	}
	impl := &parallelDatasetImpl{
		cache:       make(chan yieldUnit, pd.extraBufferSize),
		stopDataset: make(chan struct{}),
		config:      *pd, // Copy.
	}
	pd.impl = impl
	// If the ParallelDataset is garbage collected, stop all parallel goroutines.
	runtime.SetFinalizer(pd, func(pd *ParallelDataset) {
		pd.Cancel()
	})

	// Start goroutines.
	impl.startGoRoutines()
	return pd
}

// Cancel stops all parallel goroutines and closes the dataset. It is safe to
// call more than once. The dataset cannot be used after Cancel.
func (pd *ParallelDataset) Cancel() {
	impl := pd.impl
	if impl == nil {
		return
	}
	impl.muErr.Lock()
	defer impl.muErr.Unlock()
	select {
	case <-impl.stopDataset:
		// Already stopped.
	default:
		close(impl.stopDataset)
	}
}

func (impl *parallelDatasetImpl) startGoRoutines() {
	impl.epochFinished = make(chan struct{})
	impl.stopEpoch = make(chan struct{})
	var wg sync.WaitGroup
	for ii := 0; ii < impl.config.parallelism; ii++ {
		// Start all goroutines.
		wg.Add(1)
		go func(impl *parallelDatasetImpl) {
			defer wg.Done()
			for {
				select {
				case <-impl.stopEpoch:
					return
				case <-impl.stopDataset:
					return
				default:
					// Move forward and collate the next batch.
				}
				var unit yieldUnit
				var err error
				unit.spec, unit.batch, err = impl.config.Dataset.Yield()
				if err == io.EOF {
					return
				}
				if err != nil {
					klog.Errorf("ParallelDataset: %+v", err)
					// Fatal error, stop everything.
					impl.muErr.Lock()
					if impl.err == nil {
						impl.err = err
					}
					select {
					case <-impl.stopEpoch:
					default:
						close(impl.stopEpoch)
					}
					select {
					case <-impl.stopDataset:
					default:
						close(impl.stopDataset)
					}
					impl.muErr.Unlock()
					return
				}
				select {
				case <-impl.stopEpoch:
					return
				case <-impl.stopDataset:
					return
				case impl.cache <- unit:
					// Batch collated and cached, move to next.
					continue
				}
			}
		}(impl)
	}

	// Start controller job.
	go func() {
		wg.Wait()
		impl.muErr.Lock()
		defer impl.muErr.Unlock()
		select {
		case <-impl.stopDataset:
			return
		default:
			//
		}
		close(impl.epochFinished)
	}()
}

// Name implements Dataset.
func (pd *ParallelDataset) Name() string {
	return fmt.Sprintf("%s [Parallel]", pd.Dataset.Name())
}

// Reset implements Dataset.
func (pd *ParallelDataset) Reset() {
	impl := pd.impl
	if impl == nil {
		klog.Warningf("ParallelDataset.Reset was called before it was started with ParallelDataset.Start")
		return
	}
	impl.muErr.Lock()
	select {
	case <-impl.stopEpoch:
		// Epoch already stopped.
	default:
		close(impl.stopEpoch) // Indicate to goroutines to stop collating batches.
	}
	impl.muErr.Unlock()

	// Discard remaining entries in the cache, until all goroutines finished
	// the epoch (or the dataset is closed).
drainLoop:
	for {
		select {
		case <-impl.stopDataset:
			// Return immediately, do nothing.
			return
		case <-impl.cache:
			// Discard remaining entries in cache.
		case <-impl.epochFinished:
			break drainLoop
		}
	}

	// Reset underlying dataset and start again.
	impl.config.Dataset.Reset()
	impl.startGoRoutines()

	// This no-op prevents pd from being garbage collected and the goroutines
	// killed in the middle of the Reset operation. Leave this at the end.
	pd.keepAlive++
}

// Yield implements Dataset.
func (pd *ParallelDataset) Yield() (spec any, batch *PaddedBatch, err error) {
	impl := pd.impl
	if impl == nil {
		err = errors.Errorf("ParallelDataset.Yield was called before it was started with ParallelDataset.Start")
		return
	}
	var unit yieldUnit
	select {
	case <-impl.stopDataset:
		// An error occurred, dataset is closed.
		impl.muErr.Lock()
		err = impl.err
		impl.muErr.Unlock()
		if err == nil {
			err = errors.Errorf("ParallelDataset was canceled")
		}
		return
	case unit = <-impl.cache:
		// We got a new batch.
	case <-impl.epochFinished:
		// No more batches being produced (until Reset is called), but we
		// still need to exhaust the cache.
		select {
		case unit = <-impl.cache:
			// We got a new batch, simply continue.
		default:
			// Collation exhausted, and no more batches in cache.
			err = io.EOF
			return
		}
	}
	spec, batch = unit.spec, unit.batch

	// This no-op prevents pd from being garbage collected and the goroutines
	// killed in the middle of the Yield operation. Leave this at the end.
	pd.keepAlive++
	return
}
