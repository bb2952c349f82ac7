package data

import (
	"github.com/pkg/errors"
)

// Example is one raw training example: id-sequences for the source, optional
// features and optional target. Nil marks an absent stream; presence must be
// uniform across a batch.
type Example struct {
	Source   []int32
	Features []int32
	Target   []int32
}

// Collator groups raw examples into PaddedBatches. Configure it with the
// cascading With* methods.
//
// Fixed lengths (WithSourceLength, WithTargetLength) keep all batches the same
// width. Maximum lengths (WithMaxSourceLength, WithMaxTargetLength) make
// Collate fail when the chosen pad length exceeds what the model supports,
// instead of feeding it sequences it will mis-handle.
type Collator struct {
	padIdx                     int32
	sourceLen, targetLen       int
	maxSourceLen, maxTargetLen int
}

// NewCollator creates a Collator padding with the given sentinel index.
func NewCollator(padIdx int32) *Collator {
	return &Collator{padIdx: padIdx}
}

// WithSourceLength fixes the pad length of source and features tensors.
// It returns the updated Collator, so calls can be cascaded.
func (c *Collator) WithSourceLength(padLen int) *Collator {
	c.sourceLen = padLen
	return c
}

// WithTargetLength fixes the pad length of target tensors.
// It returns the updated Collator, so calls can be cascaded.
func (c *Collator) WithTargetLength(padLen int) *Collator {
	c.targetLen = padLen
	return c
}

// WithMaxSourceLength makes Collate fail when the chosen source (or features)
// pad length exceeds max.
// It returns the updated Collator, so calls can be cascaded.
func (c *Collator) WithMaxSourceLength(max int) *Collator {
	c.maxSourceLen = max
	return c
}

// WithMaxTargetLength makes Collate fail when the chosen target pad length
// exceeds max.
// It returns the updated Collator, so calls can be cascaded.
func (c *Collator) WithMaxTargetLength(max int) *Collator {
	c.maxTargetLen = max
	return c
}

// padStream pads one named stream of sequences, enforcing the configured
// maximum through the Padder's length report hook.
func (c *Collator) padStream(name string, sequences [][]int32, fixedLen, maxLen int) (*PaddedTensor, error) {
	var chosenLen int
	padder := NewPadder(c.padIdx).WithLengthReport(func(padLen int) { chosenLen = padLen })
	if fixedLen > 0 {
		padder.WithLength(fixedLen)
	}
	padded, err := padder.Pad(sequences)
	if err != nil {
		return nil, errors.WithMessagef(err, "collating %s", name)
	}
	if maxLen > 0 && chosenLen > maxLen {
		return nil, errors.Errorf("%s pad length %d exceeds the maximum supported length %d", name, chosenLen, maxLen)
	}
	return padded, nil
}

// Collate pads the source, features and target streams of the given examples
// and groups them into one PaddedBatch.
//
// Features and target tensors are only built when present in the examples;
// mixed presence within one call is an error.
func (c *Collator) Collate(examples []Example) (*PaddedBatch, error) {
	if len(examples) == 0 {
		return nil, errors.Errorf("Collator.Collate: cannot collate an empty list of examples")
	}
	hasFeatures := examples[0].Features != nil
	hasTarget := examples[0].Target != nil
	sources := make([][]int32, len(examples))
	for ii, example := range examples {
		if (example.Features != nil) != hasFeatures {
			return nil, errors.Errorf("Collator.Collate: example %d features presence differs from example 0", ii)
		}
		if (example.Target != nil) != hasTarget {
			return nil, errors.Errorf("Collator.Collate: example %d target presence differs from example 0", ii)
		}
		sources[ii] = example.Source
	}

	source, err := c.padStream("source", sources, c.sourceLen, c.maxSourceLen)
	if err != nil {
		return nil, err
	}
	var features, target *PaddedTensor
	if hasFeatures {
		featureSeqs := make([][]int32, len(examples))
		for ii, example := range examples {
			featureSeqs[ii] = example.Features
		}
		features, err = c.padStream("features", featureSeqs, c.sourceLen, c.maxSourceLen)
		if err != nil {
			return nil, err
		}
	}
	if hasTarget {
		targetSeqs := make([][]int32, len(examples))
		for ii, example := range examples {
			targetSeqs[ii] = example.Target
		}
		target, err = c.padStream("target", targetSeqs, c.targetLen, c.maxTargetLen)
		if err != nil {
			return nil, err
		}
	}
	return NewPaddedBatch(source, features, target)
}
