package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMax(t *testing.T) {
	assert.Equal(t, 7, Max([]int{3, 7, 1}))
	assert.Equal(t, int32(-1), Max([]int32{-5, -1, -3}))
	require.Panics(t, func() { Max([]int{}) })
}

func TestMap(t *testing.T) {
	count := 17
	in := make([]int, count)
	for ii := 0; ii < count; ii++ {
		in[ii] = ii
	}
	out := Map(in, func(v int) int32 { return int32(v + 1) })
	for ii := 0; ii < count; ii++ {
		assert.Equalf(t, int32(ii+1), out[ii], "element %d doesn't match", ii)
	}
}

func TestSliceWithValue(t *testing.T) {
	s := SliceWithValue(4, int32(3))
	assert.Equal(t, []int32{3, 3, 3, 3}, s)
}

func TestIota(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4}, Iota(2, 3))
	assert.Equal(t, []float32{0, 1, 2, 3}, Iota(float32(0), 4))
}

func TestLast(t *testing.T) {
	slice := []int{0, 1, 2, 3, 4, 5}
	assert.Equal(t, 5, Last(slice))
	require.Panics(t, func() { Last([]int{}) })
}
