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

// Package tensors implements a Tensor, a representation of a multi-dimensional
// array stored in host memory.
//
// A Tensor is defined by its Shape (a data type and its axes' dimensions) and
// its content, stored as a flat (1D) Go slice of the underlying dtype. It is
// the currency between the data pipeline (see ml/data) and whatever consumes
// the batches: padded token sequences, masks and lengths are all Tensors.
//
// There are various ways to construct a Tensor:
//
//   - FromShape(shape): creates a tensor with the given shape and zero values.
//   - FromScalarAndDimensions[T](value, dimensions...): creates a tensor with
//     the given dimensions, filled with the scalar value given.
//   - FromFlatDataAndDimensions[T](data, dimensions...): creates a tensor with
//     the given dimensions, and sets the flattened values with the given data.
//   - FromAnyValue(value): conversion from a scalar or a (regular) nested
//     slice, e.g. FromAnyValue([][]int32{{1, 2}, {3, 4}}).
//
// Contents are accessed either flat, with FlatData[T], or materialized back to
// nested Go slices with Tensor.Value().
//
// Notice there is no library of math functions operating on tensors: device
// placement and numeric computation happen outside this package.
package tensors

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/CarlosGolvano/yoyodyne/types/dtypes"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Tensor is a multi-dimensional array of one of the supported dtypes (see
// package dtypes), stored in host memory as a flat slice.
//
// Tensors are created with the given contents and their shape never changes
// afterwards.
type Tensor struct {
	shape Shape
	flat  any
}

// FromShape returns a Tensor of the given shape with zero-initialized values.
func FromShape(shape Shape) *Tensor {
	if !shape.Ok() {
		exceptions.Panicf("tensors.FromShape(%s): invalid shape", shape)
	}
	flat := reflect.MakeSlice(reflect.SliceOf(shape.DType.GoType()), shape.Size(), shape.Size())
	return &Tensor{shape: shape, flat: flat.Interface()}
}

// FromFlatDataAndDimensions creates a Tensor with the given dimensions,
// initialized with the given flattened data. The data is copied.
// It panics if len(data) doesn't match the size given by the dimensions.
func FromFlatDataAndDimensions[T dtypes.Supported](data []T, dimensions ...int) *Tensor {
	shape := MakeShape(dtypes.FromGenericsType[T](), dimensions...)
	if len(data) != shape.Size() {
		exceptions.Panicf("tensors.FromFlatDataAndDimensions(%s): data has %d values, shape requires %d",
			shape, len(data), shape.Size())
	}
	flat := make([]T, len(data))
	copy(flat, data)
	return &Tensor{shape: shape, flat: flat}
}

// FromScalarAndDimensions creates a Tensor with the given dimensions, filled
// with the scalar value given.
func FromScalarAndDimensions[T dtypes.Supported](value T, dimensions ...int) *Tensor {
	shape := MakeShape(dtypes.FromGenericsType[T](), dimensions...)
	flat := make([]T, shape.Size())
	for ii := range flat {
		flat[ii] = value
	}
	return &Tensor{shape: shape, flat: flat}
}

// FromAnyValue converts a scalar or a regular multi-dimensional slice (all
// sub-slices with the same shape) of a supported dtype to a Tensor. If value
// is already a *Tensor it is returned unchanged.
func FromAnyValue(value any) (*Tensor, error) {
	if t, ok := value.(*Tensor); ok {
		return t, nil
	}
	var dimensions []int
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Slice {
		dimensions = append(dimensions, v.Len())
		if v.Len() == 0 {
			return nil, errors.Errorf("tensors.FromAnyValue(%T): empty slice at axis %d, cannot infer shape",
				value, len(dimensions)-1)
		}
		v = v.Index(0)
	}
	dtype := dtypes.FromGoType(v.Type())
	if dtype == dtypes.InvalidDType {
		return nil, errors.Errorf("tensors.FromAnyValue(%T): element type %s is not supported", value, v.Type())
	}
	t := FromShape(MakeShape(dtype, dimensions...))
	flat := reflect.ValueOf(t.flat)
	pos := 0
	if err := fillFromValue(flat, reflect.ValueOf(value), dimensions, &pos); err != nil {
		return nil, err
	}
	return t, nil
}

// fillFromValue recursively copies the nested slice value into flat, checking
// that every sub-slice matches the dimensions inferred from the first one.
func fillFromValue(flat, value reflect.Value, dimensions []int, pos *int) error {
	if len(dimensions) == 0 {
		flat.Index(*pos).Set(value)
		*pos++
		return nil
	}
	if value.Len() != dimensions[0] {
		return errors.Errorf("tensors.FromAnyValue: irregular slice, got length %d where %d was expected",
			value.Len(), dimensions[0])
	}
	for ii := 0; ii < value.Len(); ii++ {
		if err := fillFromValue(flat, value.Index(ii), dimensions[1:], pos); err != nil {
			return err
		}
	}
	return nil
}

// Shape of the Tensor, includes the DType.
func (t *Tensor) Shape() Shape { return t.shape }

// DType of the tensor's elements. Shortcut to t.Shape().DType.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Rank of the tensor's shape. Shortcut to t.Shape().Rank().
func (t *Tensor) Rank() int { return t.shape.Rank() }

// Size returns the number of elements in the tensor.
func (t *Tensor) Size() int { return t.shape.Size() }

// IsScalar returns whether the tensor holds a single value with no axes.
func (t *Tensor) IsScalar() bool { return t.shape.IsScalar() }

// Memory returns the number of bytes used to store the tensor's data.
func (t *Tensor) Memory() int64 { return t.shape.Memory() }

// AssertValid panics if t is nil or if its shape is invalid.
func (t *Tensor) AssertValid() {
	if t == nil {
		exceptions.Panicf("tensors.Tensor is nil")
	}
	if !t.shape.Ok() {
		exceptions.Panicf("tensors.Tensor shape is invalid")
	}
}

// FlatData returns the flattened data of the tensor as a slice of the
// requested type. It panics if T doesn't match the tensor's DType.
//
// The returned slice is the tensor's own storage: mutating it mutates the
// tensor.
func FlatData[T dtypes.Supported](t *Tensor) []T {
	t.AssertValid()
	flat, ok := t.flat.([]T)
	if !ok {
		exceptions.Panicf("tensors.FlatData[%s] on tensor with dtype %s",
			dtypes.FromGenericsType[T](), t.DType())
	}
	return flat
}

// Value returns a copy of the tensor contents as a Go type: a scalar if the
// shape is a scalar, otherwise a nested (multi-dimensional) slice.
func (t *Tensor) Value() any {
	t.AssertValid()
	flat := reflect.ValueOf(t.flat)
	if t.IsScalar() {
		return flat.Index(0).Interface()
	}
	return buildNested(flat, t.shape.Dimensions, 0).Interface()
}

// buildNested creates the nested slices of Tensor.Value, with the sub-slices
// pointing into a copy of the flat data.
func buildNested(flat reflect.Value, dimensions []int, offset int) reflect.Value {
	if len(dimensions) == 1 {
		row := reflect.MakeSlice(flat.Type(), dimensions[0], dimensions[0])
		reflect.Copy(row, flat.Slice(offset, offset+dimensions[0]))
		return row
	}
	stride := 1
	for _, dim := range dimensions[1:] {
		stride *= dim
	}
	rows := reflect.MakeSlice(reflect.SliceOf(nestedType(flat.Type(), len(dimensions)-1)), dimensions[0], dimensions[0])
	for ii := 0; ii < dimensions[0]; ii++ {
		rows.Index(ii).Set(buildNested(flat, dimensions[1:], offset+ii*stride))
	}
	return rows
}

func nestedType(flatType reflect.Type, rank int) reflect.Type {
	t := flatType
	for ii := 1; ii < rank; ii++ {
		t = reflect.SliceOf(t)
	}
	return t
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	t.AssertValid()
	clone := FromShape(t.shape)
	reflect.Copy(reflect.ValueOf(clone.flat), reflect.ValueOf(t.flat))
	return clone
}

// Equal compares shape and contents.
func (t *Tensor) Equal(other *Tensor) bool {
	t.AssertValid()
	other.AssertValid()
	return t.shape.Equal(other.shape) && reflect.DeepEqual(t.flat, other.flat)
}

// maxStringValues limits how many values Tensor.String prints.
const maxStringValues = 64

// String implements fmt.Stringer. For tensors larger than maxStringValues it
// prints the shape only.
func (t *Tensor) String() string {
	if t == nil || !t.shape.Ok() {
		return "(invalid tensor)"
	}
	if t.Size() > maxStringValues {
		return fmt.Sprintf("%s: (... %d values ...)", t.shape, t.Size())
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", t.shape, t.Value())
	return b.String()
}
