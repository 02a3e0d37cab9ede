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
	"iter"

	"github.com/bytenote/ledger/go/common/txn"
)

// Iterator produces the entries of a book in ascending order of their
// signatures. The book must not be modified while an iterator is in use;
// doing so leads to undefined results. An iterator may be abandoned at any
// time.
type Iterator struct {
	stack []frame
}

// frame is a node on the path to the current position of an iterator, along
// with the next page of that node to visit.
type frame struct {
	node *node
	next int
}

// Iterator creates a new iterator positioned before the first entry.
func (b *Book) Iterator() *Iterator {
	stack := make([]frame, 1, txn.SignatureLength)
	stack[0] = frame{node: b.getRoot()}
	return &Iterator{stack: stack}
}

// Next returns the next entry, or false if all entries have been produced.
func (it *Iterator) Next() (Entry, bool) {
	for len(it.stack) > 0 {
		top := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]
		if top.next >= PageCount {
			continue
		}
		it.stack = append(it.stack, frame{node: top.node, next: top.next + 1})

		p := &top.node.pages[top.next]
		switch p.kind {
		case childPage:
			it.stack = append(it.stack, frame{node: p.child})
		case leafPage:
			return p.entry, true
		}
	}
	return Entry{}, false
}

// All returns a sequence of all transactions and amounts in the book in
// ascending order of their signatures.
func (b *Book) All() iter.Seq2[*txn.Transaction, int64] {
	return func(yield func(*txn.Transaction, int64) bool) {
		it := b.Iterator()
		for entry, ok := it.Next(); ok; entry, ok = it.Next() {
			if !yield(entry.Key, entry.Val) {
				return
			}
		}
	}
}

// Entries returns all entries of the book in ascending order of their
// signatures.
func (b *Book) Entries() []Entry {
	res := make([]Entry, 0, b.Len())
	it := b.Iterator()
	for entry, ok := it.Next(); ok; entry, ok = it.Next() {
		res = append(res, entry)
	}
	return res
}
