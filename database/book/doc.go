// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package book implements a processing book: an in-memory trie storing the
// amounts of financial transactions, keyed by their signatures.
//
// Each node of the trie has one page per symbol of the signature alphabet
// (0-9a-z). A page is either empty, holds a single entry, or refers to a
// nested node inspecting the next symbol of the signature. Nested nodes are
// only introduced when two entries collide on the same page and are removed
// again when deletions leave a single entry behind. Hence, the depth of the
// trie only grows as far as needed to tell the stored signatures apart.
//
// Signatures are provided by the transactions (see package txn); the book
// never computes them. A book is not safe for concurrent use.
package book
