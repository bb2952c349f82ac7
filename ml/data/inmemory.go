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
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/CarlosGolvano/yoyodyne/types/xslices"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// InMemoryDataset yields collated PaddedBatches from a slice of examples held
// in memory. It allows for concurrent Yield calls.
//
// By default it iterates the examples in order, drops a final incomplete
// batch and returns io.EOF at the end of the epoch. See the cascading
// configuration methods Shuffled, Infinite and YieldIncomplete.
type InMemoryDataset struct {
	name      string
	examples  []Example
	collator  *Collator
	batchSize int

	infinite        bool
	yieldIncomplete bool

	// muOrder protects the iteration order and position, the mutable part of
	// the dataset, to allow for concurrent calls to Yield.
	muOrder sync.Mutex
	order   []int
	pos     int
	shuffle *rand.Rand
}

// Assert *InMemoryDataset implements Dataset.
var _ Dataset = &InMemoryDataset{}

// InMemory creates an InMemoryDataset from the given examples, collating
// batchSize examples per batch with the given collator.
func InMemory(name string, examples []Example, collator *Collator, batchSize int) *InMemoryDataset {
	if batchSize <= 0 {
		exceptions.Panicf("data.InMemory(%q): batch size must be positive, got %d", name, batchSize)
	}
	if collator == nil {
		exceptions.Panicf("data.InMemory(%q): collator is required", name)
	}
	ds := &InMemoryDataset{
		name:      name,
		examples:  examples,
		collator:  collator,
		batchSize: batchSize,
		order:     xslices.Iota(0, len(examples)),
	}
	return ds
}

// Shuffled reshuffles the iteration order at every epoch. If rng is nil a
// time-seeded one is created -- pass an explicit one for reproducibility.
//
// It returns the updated dataset, so calls can be cascaded.
func (ds *InMemoryDataset) Shuffled(rng *rand.Rand) *InMemoryDataset {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UTC().UnixNano()))
	}
	ds.muOrder.Lock()
	defer ds.muOrder.Unlock()
	ds.shuffle = rng
	ds.resetLocked()
	return ds
}

// Infinite makes the dataset loop forever, restarting (and reshuffling, if
// configured) whenever the examples are exhausted, instead of returning
// io.EOF.
//
// It returns the updated dataset, so calls can be cascaded.
func (ds *InMemoryDataset) Infinite() *InMemoryDataset {
	ds.infinite = true
	return ds
}

// YieldIncomplete makes the dataset yield the final short batch of an epoch
// instead of dropping it.
//
// It returns the updated dataset, so calls can be cascaded.
func (ds *InMemoryDataset) YieldIncomplete() *InMemoryDataset {
	ds.yieldIncomplete = true
	return ds
}

// Name implements Dataset.
func (ds *InMemoryDataset) Name() string { return ds.name }

// NumExamples returns the number of examples held.
func (ds *InMemoryDataset) NumExamples() int { return len(ds.examples) }

// Yield implements Dataset. If not infinite, it returns io.EOF at the end of
// the epoch.
//
// It can be called concurrently: collation of different batches runs in
// parallel, only the batch index selection is serialized.
func (ds *InMemoryDataset) Yield() (spec any, batch *PaddedBatch, err error) {
	// Lock only while selecting the indices for the batch.
	ds.muOrder.Lock()
	remaining := len(ds.examples) - ds.pos
	want := ds.batchSize
	if remaining < want && ds.yieldIncomplete && !ds.infinite {
		want = remaining
	}
	if remaining < want || want == 0 {
		if !ds.infinite {
			ds.muOrder.Unlock()
			return nil, nil, io.EOF
		}
		ds.resetLocked()
		if len(ds.examples) < want {
			ds.muOrder.Unlock()
			return nil, nil, errors.Errorf("dataset %q holds %d examples, fewer than the batch size %d",
				ds.name, len(ds.examples), want)
		}
	}
	indices := make([]int, want)
	copy(indices, ds.order[ds.pos:ds.pos+want])
	ds.pos += want
	ds.muOrder.Unlock()

	batchExamples := xslices.Map(indices, func(idx int) Example { return ds.examples[idx] })
	batch, err = ds.collator.Collate(batchExamples)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "dataset %q", ds.name)
	}
	return nil, batch, nil
}

// Reset implements Dataset. It restarts the dataset from the beginning,
// reshuffling if the dataset is shuffled.
func (ds *InMemoryDataset) Reset() {
	ds.muOrder.Lock()
	defer ds.muOrder.Unlock()
	ds.resetLocked()
}

// resetLocked implements Reset when ds.muOrder is already locked.
func (ds *InMemoryDataset) resetLocked() {
	if ds.shuffle != nil {
		ds.shuffle.Shuffle(len(ds.order), func(ii, jj int) {
			ds.order[ii], ds.order[jj] = ds.order[jj], ds.order[ii]
		})
	}
	ds.pos = 0
}
