package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollate(t *testing.T) {
	examples := []Example{
		{Source: []int32{1, 2}, Target: []int32{7}},
		{Source: []int32{1, 2, 3}, Target: []int32{8, 9}},
	}
	batch, err := NewCollator(0).Collate(examples)
	require.NoError(t, err)

	assert.Equal(t, 2, batch.Len())
	assert.False(t, batch.HasFeatures())
	assert.True(t, batch.HasTarget())
	assert.Equal(t, [][]int32{{1, 2, 0}, {1, 2, 3}}, batch.Source.Padded().Value())
	assert.Equal(t, [][]int32{{7, 0}, {8, 9}}, batch.Target.Padded().Value())
}

func TestCollateSourceOnly(t *testing.T) {
	examples := []Example{
		{Source: []int32{1}},
		{Source: []int32{2, 3}},
	}
	batch, err := NewCollator(0).Collate(examples)
	require.NoError(t, err)
	assert.False(t, batch.HasFeatures())
	assert.False(t, batch.HasTarget())
	assert.Equal(t, 2, batch.Len())
}

func TestCollateWithFeatures(t *testing.T) {
	examples := []Example{
		{Source: []int32{1, 2}, Features: []int32{40}, Target: []int32{7}},
		{Source: []int32{3}, Features: []int32{41, 42}, Target: []int32{8}},
	}
	batch, err := NewCollator(0).Collate(examples)
	require.NoError(t, err)
	require.True(t, batch.HasFeatures())
	assert.Equal(t, [][]int32{{40, 0}, {41, 42}}, batch.Features.Padded().Value())
}

func TestCollateFixedLengths(t *testing.T) {
	examples := []Example{
		{Source: []int32{1, 2}, Target: []int32{7}},
	}
	batch, err := NewCollator(0).WithSourceLength(6).WithTargetLength(4).Collate(examples)
	require.NoError(t, err)
	assert.Equal(t, 6, batch.Source.PaddedLen())
	assert.Equal(t, 4, batch.Target.PaddedLen())
}

func TestCollateMaxLengths(t *testing.T) {
	examples := []Example{
		{Source: []int32{1, 2, 3, 4, 5}, Target: []int32{7, 8, 9}},
	}
	collator := NewCollator(0).WithMaxSourceLength(4)
	_, err := collator.Collate(examples)
	require.ErrorContains(t, err, "source pad length 5 exceeds the maximum supported length 4")

	collator = NewCollator(0).WithMaxTargetLength(2)
	_, err = collator.Collate(examples)
	require.ErrorContains(t, err, "target pad length 3 exceeds the maximum supported length 2")

	// Within the limits, collation succeeds.
	collator = NewCollator(0).WithMaxSourceLength(5).WithMaxTargetLength(3)
	_, err = collator.Collate(examples)
	require.NoError(t, err)
}

func TestCollateMixedPresence(t *testing.T) {
	_, err := NewCollator(0).Collate([]Example{
		{Source: []int32{1}, Target: []int32{2}},
		{Source: []int32{3}},
	})
	require.ErrorContains(t, err, "target presence")

	_, err = NewCollator(0).Collate([]Example{
		{Source: []int32{1}, Features: []int32{2}},
		{Source: []int32{3}},
	})
	require.ErrorContains(t, err, "features presence")
}

func TestCollateEmpty(t *testing.T) {
	_, err := NewCollator(0).Collate(nil)
	require.Error(t, err)
}
