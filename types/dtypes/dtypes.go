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

// Package dtypes defines the DType enumeration of element types supported by
// the tensors package, and tools to convert back and forth to Go types.
//
// Token id sequences are stored as Int32, masks as Bool, and model features
// may use any of the float types. Float16 support uses the
// github.com/x448/float16 implementation.
package dtypes

import (
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/x448/float16"
)

// DType is the data type of the unit element of a tensor.
type DType int

const (
	InvalidDType DType = iota
	Bool
	Int32
	Int64
	Float16
	Float32
	Float64
)

// Supported lists the Go types a tensor can store.
type Supported interface {
	bool | int32 | int64 | float16.Float16 | float32 | float64
}

// Number is the subset of Supported on which Go arithmetic and ordering work
// directly.
type Number interface {
	int32 | int64 | float32 | float64
}

// String implements fmt.Stringer.
func (dtype DType) String() string {
	switch dtype {
	case Bool:
		return "bool"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return "invalid_dtype"
}

// Size returns the number of bytes used to store one element of the given DType.
func (dtype DType) Size() int {
	switch dtype {
	case Bool:
		return 1
	case Int32, Float32:
		return 4
	case Int64, Float64:
		return 8
	case Float16:
		return 2
	}
	exceptions.Panicf("dtypes: Size() of invalid DType %d", dtype)
	return 0
}

// IsFloat returns whether the DType stores a floating point value, including Float16.
func (dtype DType) IsFloat() bool {
	return dtype == Float16 || dtype == Float32 || dtype == Float64
}

// IsInt returns whether the DType stores an integer value.
func (dtype DType) IsInt() bool {
	return dtype == Int32 || dtype == Int64
}

var dtypeToGoType = map[DType]reflect.Type{
	Bool:    reflect.TypeOf(bool(false)),
	Int32:   reflect.TypeOf(int32(0)),
	Int64:   reflect.TypeOf(int64(0)),
	Float16: reflect.TypeOf(float16.Float16(0)),
	Float32: reflect.TypeOf(float32(0)),
	Float64: reflect.TypeOf(float64(0)),
}

// GoType returns the Go type used to store elements of the given DType.
func (dtype DType) GoType() reflect.Type {
	t, found := dtypeToGoType[dtype]
	if !found {
		exceptions.Panicf("dtypes: GoType() of invalid DType %d", dtype)
	}
	return t
}

// FromGoType returns the DType that stores elements of the given Go type, or
// InvalidDType if the type is not supported.
func FromGoType(t reflect.Type) DType {
	for dtype, goType := range dtypeToGoType {
		if goType == t {
			return dtype
		}
	}
	return InvalidDType
}

// FromGenericsType returns the DType that stores elements of the given generic
// type parameter.
func FromGenericsType[T Supported]() DType {
	var v T
	return FromGoType(reflect.TypeOf(v))
}
