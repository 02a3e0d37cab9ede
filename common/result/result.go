// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package result

import (
	"errors"
	"fmt"
)

// Result encapsulates a value along with an error. It is used where a single
// type is needed to carry the outcome of an operation that may fail, for
// instance when results are handed from background workers to a collector
// through futures or channels.
type Result[T any] struct {
	value T
	err   error
}

// Ok creates a Result representing a successful outcome with the given value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err creates a Result representing a failed outcome with the given error.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Of wraps the two return values of a fallible function call into a Result.
// If err is not nil, the value is dropped.
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(value)
}

// Get returns the value and error contained in the Result. Using this function
// forces the caller to handle potential errors.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Collect splits the given results into the values of the successful ones and
// a combined error of the failed ones. Errors are labelled with the position
// of their result. The error is nil if all results are successful.
func Collect[T any](results []Result[T]) ([]T, error) {
	values := make([]T, 0, len(results))
	var errs []error
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("#%d: %w", i, r.err))
			continue
		}
		values = append(values, r.value)
	}
	return values, errors.Join(errs...)
}
