package tensors

import (
	"testing"

	"github.com/CarlosGolvano/yoyodyne/types/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeShape(t *testing.T) {
	s := MakeShape(dtypes.Int32, 2, 3)
	assert.Equal(t, 2, s.Rank())
	assert.Equal(t, 6, s.Size())
	assert.Equal(t, int64(24), s.Memory())
	assert.Equal(t, 3, s.Dim(1))
	assert.Equal(t, 3, s.Dim(-1))
	assert.Equal(t, "(int32)[2 3]", s.String())
	require.Panics(t, func() { MakeShape(dtypes.Int32, 2, 0) })
	require.Panics(t, func() { s.Dim(2) })
}

func TestFromFlatDataAndDimensions(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, dtypes.Int32, tensor.DType())
	assert.Equal(t, [][]int32{{1, 2, 3}, {4, 5, 6}}, tensor.Value())
	require.Panics(t, func() { FromFlatDataAndDimensions([]int32{1, 2, 3}, 2, 3) })

	// The data is copied, not aliased.
	data := []float32{1, 2}
	tensor = FromFlatDataAndDimensions(data, 2)
	data[0] = 100
	assert.Equal(t, []float32{1, 2}, tensor.Value())
}

func TestFromScalarAndDimensions(t *testing.T) {
	tensor := FromScalarAndDimensions(int32(7), 2, 2)
	assert.Equal(t, [][]int32{{7, 7}, {7, 7}}, tensor.Value())

	scalar := FromScalarAndDimensions(true)
	assert.True(t, scalar.IsScalar())
	assert.Equal(t, true, scalar.Value())
}

func TestFromAnyValue(t *testing.T) {
	tensor, err := FromAnyValue([][]int32{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, "(int32)[3 2]", tensor.Shape().String())
	assert.Equal(t, []int32{1, 2, 3, 4, 5, 6}, FlatData[int32](tensor))

	// Already a tensor: returned unchanged.
	same, err := FromAnyValue(tensor)
	require.NoError(t, err)
	assert.Same(t, tensor, same)

	// Irregular slices are rejected.
	_, err = FromAnyValue([][]int32{{1, 2}, {3}})
	require.Error(t, err)

	// Unsupported element type.
	_, err = FromAnyValue([]string{"a"})
	require.Error(t, err)
}

func TestFlatData(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int64{1, 2, 3, 4}, 4)
	flat := FlatData[int64](tensor)
	flat[0] = 100
	assert.Equal(t, []int64{100, 2, 3, 4}, tensor.Value())
	require.Panics(t, func() { FlatData[int32](tensor) })
}

func TestCloneAndEqual(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int32{1, 2, 3, 4, 5, 6}, 2, 3)
	clone := tensor.Clone()
	assert.True(t, tensor.Equal(clone))

	FlatData[int32](clone)[0] = 100
	assert.False(t, tensor.Equal(clone))

	otherShape := FromFlatDataAndDimensions([]int32{1, 2, 3, 4, 5, 6}, 3, 2)
	assert.False(t, tensor.Equal(otherShape))
}

func TestString(t *testing.T) {
	tensor := FromFlatDataAndDimensions([]int32{1, 2}, 2)
	assert.Equal(t, "(int32)[2]: [1 2]", tensor.String())

	big := FromScalarAndDimensions(int32(0), 100, 100)
	assert.Contains(t, big.String(), "10000 values")
}
