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

// Package xslices provides generic slice helpers used across the library.
package xslices

import (
	"github.com/gomlx/exceptions"
	"golang.org/x/exp/constraints"
)

// Max returns the largest value of the slice. It panics if the slice is empty.
func Max[T constraints.Ordered](slice []T) T {
	if len(slice) == 0 {
		exceptions.Panicf("xslices.Max of empty slice")
	}
	max := slice[0]
	for _, value := range slice[1:] {
		if value > max {
			max = value
		}
	}
	return max
}

// Map executes the given function sequentially for every element on in, and
// returns a mapped slice.
func Map[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// FillSlice fills the given slice with the given value.
func FillSlice[T any](slice []T, value T) {
	for ii := range slice {
		slice[ii] = value
	}
}

// SliceWithValue creates a slice of the given size filled with the given value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	FillSlice(s, value)
	return s
}

// Iota returns a slice of the given size with sequential values starting with
// start and incrementing by 1.
func Iota[T interface {
	constraints.Integer | constraints.Float
}](start T, size int) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = start + T(ii)
	}
	return s
}

// Last returns the last element of a slice. It panics if the slice is empty.
func Last[T any](slice []T) T {
	if len(slice) == 0 {
		exceptions.Panicf("xslices.Last of empty slice")
	}
	return slice[len(slice)-1]
}
