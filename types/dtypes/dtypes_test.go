package dtypes

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromGenericsType(t *testing.T) {
	assert.Equal(t, Bool, FromGenericsType[bool]())
	assert.Equal(t, Int32, FromGenericsType[int32]())
	assert.Equal(t, Int64, FromGenericsType[int64]())
	assert.Equal(t, Float16, FromGenericsType[float16.Float16]())
	assert.Equal(t, Float32, FromGenericsType[float32]())
	assert.Equal(t, Float64, FromGenericsType[float64]())
}

func TestFromGoType(t *testing.T) {
	assert.Equal(t, Int32, FromGoType(reflect.TypeOf(int32(0))))
	assert.Equal(t, InvalidDType, FromGoType(reflect.TypeOf("string")))
}

func TestSizeAndString(t *testing.T) {
	assert.Equal(t, 1, Bool.Size())
	assert.Equal(t, 2, Float16.Size())
	assert.Equal(t, 4, Int32.Size())
	assert.Equal(t, 8, Float64.Size())
	assert.Equal(t, "int32", Int32.String())
	require.Panics(t, func() { InvalidDType.Size() })
}

func TestKinds(t *testing.T) {
	assert.True(t, Float16.IsFloat())
	assert.False(t, Float16.IsInt())
	assert.True(t, Int64.IsInt())
	assert.False(t, Bool.IsFloat())
	assert.False(t, Bool.IsInt())
}
