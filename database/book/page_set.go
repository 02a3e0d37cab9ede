// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package book

import "math/bits"

// pageSet is a bitmap recording which of the pages of a node are occupied.
type pageSet uint64

// get returns true if the bit at the specified index is set.
func (s *pageSet) get(index int) bool {
	return *s&(1<<index) != 0
}

// set sets the bit at the specified index.
func (s *pageSet) set(index int) {
	*s |= 1 << index
}

// unset clears the bit at the specified index.
func (s *pageSet) unset(index int) {
	*s &^= 1 << index
}

// popCount returns the number of bits set.
func (s *pageSet) popCount() int {
	return bits.OnesCount64(uint64(*s))
}

// first returns the lowest index with a set bit, or 64 if the set is empty.
func (s *pageSet) first() int {
	return bits.TrailingZeros64(uint64(*s))
}
