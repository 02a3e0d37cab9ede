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

import (
	"errors"
	"fmt"

	"github.com/bytenote/ledger/go/common"
	"github.com/bytenote/ledger/go/common/txn"
)

// ErrNotFound is returned when looking up or removing a transaction that is
// not stored in the book.
const ErrNotFound = common.ConstError("transaction not found")

// Entry is a transaction stored in the book together with its amount.
type Entry = common.MapEntry[*txn.Transaction, int64]

// Book maps signed transactions to amounts. Entries are keyed by the
// transaction signature, which must be assigned before the transaction is
// passed to any of the book's methods.
//
// Once stored, the amount of an entry can not be changed. Attempts to store a
// different amount for an already present signature are counted as errors,
// see ErrorCount.
//
// The zero value is an empty book ready to use. A book must not be copied
// after first use.
type Book struct {
	root  *node
	stats counters
}

func (b *Book) getRoot() *node {
	if b.root == nil {
		b.root = newNode(0, &b.stats)
	}
	return b.root
}

// Put stores the given amount for the transaction. If an entry with the same
// signature is already present, the book is not modified; if the amounts
// differ, the attempt is recorded as an error.
func (b *Book) Put(tx *txn.Transaction, amount int64) {
	b.getRoot().put(tx, amount)
}

// Get returns the amount stored for the transaction, or ErrNotFound if there
// is no entry with the transaction's signature.
func (b *Book) Get(tx *txn.Transaction) (int64, error) {
	entry, found := b.getRoot().get(tx.Signature())
	if !found {
		return 0, fmt.Errorf("%w: %v", ErrNotFound, tx.Signature())
	}
	return entry.Val, nil
}

// Contains reports whether an entry with the transaction's signature is present.
func (b *Book) Contains(tx *txn.Transaction) bool {
	_, found := b.getRoot().get(tx.Signature())
	return found
}

// Remove deletes the entry with the transaction's signature, or returns
// ErrNotFound if there is no such entry.
func (b *Book) Remove(tx *txn.Transaction) error {
	if !b.getRoot().remove(tx.Signature()) {
		return fmt.Errorf("%w: %v", ErrNotFound, tx.Signature())
	}
	return nil
}

// Len returns the number of entries in the book.
func (b *Book) Len() int {
	return b.stats.entries
}

// ErrorCount returns the number of rejected attempts to change the amount of
// an entry.
func (b *Book) ErrorCount() int {
	return b.stats.errors
}

// Depth returns the depth of the deepest node of the book. A book without
// any colliding entries has depth 0.
func (b *Book) Depth() int {
	return b.getRoot().maxDepth()
}

// Check verifies the internal invariants of the book. It is intended for
// tests and diagnostic tools and visits every node of the book.
func (b *Book) Check() error {
	root := b.getRoot()
	var errs []error
	if root.depth != 0 {
		errs = append(errs, fmt.Errorf("root node has depth %d", root.depth))
	}
	if root.stats != &b.stats {
		errs = append(errs, fmt.Errorf("root node does not use the counters of the book"))
	}
	count, err := root.check(nil)
	if err != nil {
		errs = append(errs, err)
	}
	if count != b.stats.entries {
		errs = append(errs, fmt.Errorf("book counts %d entries, found %d", b.stats.entries, count))
	}
	return errors.Join(errs...)
}
