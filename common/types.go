// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import "fmt"

// ConstError is an error type that can be used to declare sentinel errors as
// constants. Errors of this type can be compared using errors.Is.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

// MapEntry is a single key/value pair, as produced when iterating over the
// content of a map-like data structure.
type MapEntry[K any, V any] struct {
	Key K
	Val V
}

func (e MapEntry[K, V]) String() string {
	return fmt.Sprintf("Entry: %v -> %v", e.Key, e.Val)
}
