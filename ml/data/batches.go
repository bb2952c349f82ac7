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
	"github.com/CarlosGolvano/yoyodyne/types/dtypes"
	"github.com/CarlosGolvano/yoyodyne/types/tensors"
	"github.com/CarlosGolvano/yoyodyne/types/xslices"
	"github.com/pkg/errors"
)

// PaddedTensor holds a list of variable-length sequences right-padded with a
// sentinel index to a common length and stacked into one `(int32)[batch,
// padLen]` tensor. It ordinarily represents one of (source, features, target)
// of a batch.
//
// Build it with a Padder, or with the PadSequences shortcut.
type PaddedTensor struct {
	padded *tensors.Tensor
	padIdx int32
}

// Padder builds PaddedTensors for one stream of sequences. Configure it with
// the cascading With* methods before calling Pad.
type Padder struct {
	padIdx       int32
	padLen       int
	lengthReport func(padLen int)
}

// NewPadder creates a Padder that pads sequences with the given sentinel
// index. By default the pad length is the length of the longest input
// sequence.
func NewPadder(padIdx int32) *Padder {
	return &Padder{padIdx: padIdx}
}

// WithLength fixes the pad length instead of deriving it from the longest
// input sequence. This can be used, e.g., to keep all batches the exact same
// length, which improves performance on certain accelerators.
//
// Input sequences longer than the fixed length are silently truncated: use
// WithLengthReport to catch oversized batches before that happens.
//
// It returns the updated Padder, so calls can be cascaded.
func (p *Padder) WithLength(padLen int) *Padder {
	p.padLen = padLen
	return p
}

// WithLengthReport registers a callback invoked with the chosen pad length on
// every Pad call. Callers use it to detect batches exceeding a model's
// maximum supported length.
//
// It returns the updated Padder, so calls can be cascaded.
func (p *Padder) WithLengthReport(fn func(padLen int)) *Padder {
	p.lengthReport = fn
	return p
}

// Pad right-pads every sequence with the sentinel index to the chosen pad
// length and stacks the results into one tensor.
func (p *Padder) Pad(sequences [][]int32) (*PaddedTensor, error) {
	if len(sequences) == 0 {
		return nil, errors.Errorf("Padder.Pad: cannot pad an empty list of sequences")
	}
	padLen := p.padLen
	if padLen == 0 {
		padLen = xslices.Max(xslices.Map(sequences, func(seq []int32) int { return len(seq) }))
	}
	if padLen <= 0 {
		return nil, errors.Errorf("Padder.Pad: pad length must be positive, got %d", padLen)
	}
	if p.lengthReport != nil {
		p.lengthReport(padLen)
	}
	padded := tensors.FromScalarAndDimensions(p.padIdx, len(sequences), padLen)
	flat := tensors.FlatData[int32](padded)
	for ii, seq := range sequences {
		if len(seq) > padLen {
			seq = seq[:padLen]
		}
		copy(flat[ii*padLen:], seq)
	}
	return &PaddedTensor{padded: padded, padIdx: p.padIdx}, nil
}

// PadSequences pads sequences to the length of the longest one, using the
// default Padder configuration.
func PadSequences(sequences [][]int32, padIdx int32) (*PaddedTensor, error) {
	return NewPadder(padIdx).Pad(sequences)
}

// Padded returns the stacked `(int32)[batch, padLen]` tensor.
func (p *PaddedTensor) Padded() *tensors.Tensor { return p.padded }

// PadIdx returns the sentinel index used for padding.
func (p *PaddedTensor) PadIdx() int32 { return p.padIdx }

// Len returns the number of sequences (rows) in the tensor.
func (p *PaddedTensor) Len() int { return p.padded.Shape().Dim(0) }

// PaddedLen returns the common length all sequences were padded to.
func (p *PaddedTensor) PaddedLen() int { return p.padded.Shape().Dim(-1) }

// Mask returns a `(bool)[batch, padLen]` tensor, true exactly where the
// stored value equals the pad sentinel.
//
// A real token equal to the sentinel inside a sequence is indistinguishable
// from padding: pick a sentinel outside the vocabulary.
func (p *PaddedTensor) Mask() *tensors.Tensor {
	mask := tensors.FromShape(tensors.MakeShape(dtypes.Bool, p.padded.Shape().Dimensions...))
	maskFlat := tensors.FlatData[bool](mask)
	for ii, value := range tensors.FlatData[int32](p.padded) {
		maskFlat[ii] = value == p.padIdx
	}
	return mask
}

// Lengths returns a `(int32)[batch]` tensor with the number of non-masked
// positions of each row, i.e. the pre-padding length of each sequence.
func (p *PaddedTensor) Lengths() *tensors.Tensor {
	rows, padLen := p.Len(), p.PaddedLen()
	flat := tensors.FlatData[int32](p.padded)
	lengths := make([]int32, rows)
	for row := 0; row < rows; row++ {
		for _, value := range flat[row*padLen : (row+1)*padLen] {
			if value != p.padIdx {
				lengths[row]++
			}
		}
	}
	return tensors.FromFlatDataAndDimensions(lengths, rows)
}

// PaddedBatch is a padded source tensor with optional padded features and
// target tensors. It is produced by the Collator and fed to the trainer.
type PaddedBatch struct {
	Source   *PaddedTensor
	Features *PaddedTensor // Optional, may be nil.
	Target   *PaddedTensor // Optional, may be nil. Nil during inference.
}

// NewPaddedBatch groups a mandatory source with optional features and target.
// Pass nil for absent streams.
func NewPaddedBatch(source, features, target *PaddedTensor) (*PaddedBatch, error) {
	if source == nil {
		return nil, errors.Errorf("NewPaddedBatch: source is required")
	}
	return &PaddedBatch{Source: source, Features: features, Target: target}, nil
}

// HasFeatures returns whether the batch carries a features tensor.
func (b *PaddedBatch) HasFeatures() bool { return b.Features != nil }

// HasTarget returns whether the batch carries a target tensor.
func (b *PaddedBatch) HasTarget() bool { return b.Target != nil }

// Len returns the number of examples in the batch, which is always the number
// of rows of the source tensor.
func (b *PaddedBatch) Len() int { return b.Source.Len() }
