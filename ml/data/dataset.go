package data

// Dataset is the interface implemented by batch sources feeding a training
// loop. It yields one PaddedBatch per call.
//
// Implementations in this package: InMemoryDataset and ParallelDataset.
type Dataset interface {
	// Name of the dataset, used in logs and error messages.
	Name() string

	// Yield the next batch. The returned spec is an opaque value passed
	// through to the consumer, usually describing how the batch was built --
	// it must be the same for every yield of the same dataset.
	//
	// It returns io.EOF when the epoch is exhausted; Reset makes the dataset
	// yieldable again.
	Yield() (spec any, batch *PaddedBatch, err error)

	// Reset restarts the dataset from the beginning. It can be called after
	// io.EOF is reached, e.g. to run another evaluation epoch.
	Reset()
}
