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
	"strings"

	"github.com/bytenote/ledger/go/common/txn"
)

// PageCount is the number of pages of each node, one per signature symbol.
const PageCount = len(txn.Alphabet)

// ---- Pages ----

type pageKind byte

const (
	emptyPage pageKind = iota
	leafPage
	childPage
)

// page is a single slot of a node. Depending on its kind, it is either empty,
// holds a leaf entry, or owns a child node one level deeper in the trie.
type page struct {
	kind  pageKind
	entry Entry // < only valid for leaf pages
	child *node // < only valid for child pages
}

// pageIndex returns the page addressed by the given signature symbol. Symbols
// outside of the alphabet violate the input contract and cause a panic.
func pageIndex(symbol byte) int {
	res := strings.IndexByte(txn.Alphabet, symbol)
	if res < 0 {
		panic(fmt.Sprintf("signature symbol %q is not part of the alphabet", symbol))
	}
	return res
}

// ---- Counters ----

// counters is the block of statistics shared by all nodes of a book.
type counters struct {
	entries int // < number of entries stored in the book
	errors  int // < number of rejected updates with a mismatching amount
}

// ---- Nodes ----

// node is one level of the signature trie. A node at depth d distinguishes its
// entries by symbol d of their signatures; all entries reachable through a
// node share the first d symbols of their signatures.
//
// Nodes other than the root are only created when two entries collide on the
// same page, and are replaced by their single remaining entry as soon as they
// hold no more than one entry. Thus, every non-root node holds at least two
// entries.
type node struct {
	pages    [PageCount]page
	occupied pageSet // < the pages that are not empty
	depth    int     // < the signature position inspected by this node
	count    int     // < the number of entries reachable through this node
	stats    *counters
}

func newNode(depth int, stats *counters) *node {
	return &node{depth: depth, stats: stats}
}

func (n *node) pageOf(signature txn.Signature) int {
	return pageIndex(signature[n.depth])
}

func (n *node) setLeaf(pos int, entry Entry) {
	n.pages[pos] = page{kind: leafPage, entry: entry}
	n.occupied.set(pos)
}

func (n *node) setChild(pos int, child *node) {
	n.pages[pos] = page{kind: childPage, child: child}
	n.occupied.set(pos)
}

func (n *node) clear(pos int) {
	n.pages[pos] = page{}
	n.occupied.unset(pos)
}

func (n *node) get(signature txn.Signature) (Entry, bool) {
	p := &n.pages[n.pageOf(signature)]
	switch p.kind {
	case leafPage:
		if p.entry.Key.Signature() == signature {
			return p.entry, true
		}
	case childPage:
		return p.child.get(signature)
	}
	return Entry{}, false
}

// put adds the given transaction to the trie rooted by this node. It returns
// true if a new entry has been added, false if the signature was already
// present. Updates of present entries are never applied; attempts to change
// the amount are recorded as errors.
func (n *node) put(tx *txn.Transaction, amount int64) bool {
	signature := tx.Signature()
	pos := n.pageOf(signature)
	p := &n.pages[pos]
	switch p.kind {
	case emptyPage:
		n.setLeaf(pos, Entry{Key: tx, Val: amount})
		n.stats.entries++
		n.count++
		return true

	case childPage:
		if !p.child.put(tx, amount) {
			return false
		}
		n.count++
		return true
	}

	if p.entry.Key.Signature() == signature {
		if p.entry.Val != amount {
			n.stats.errors++
		}
		return false
	}

	// The leaf collides with the new entry and needs to be pushed one level
	// down. If the two signatures still agree on the next symbol, the put on
	// the child promotes again.
	child := n.promote(pos)
	if !child.put(tx, amount) {
		return false
	}
	n.count++
	return true
}

// promote replaces the leaf at the given position by a new child node holding
// only that leaf's entry. The entry is already accounted for in all counters
// of this node and the book; the new child is born with a local count of one.
func (n *node) promote(pos int) *node {
	child := newNode(n.depth+1, n.stats)
	child.relocate(n.pages[pos].entry)
	child.count = 1
	n.setChild(pos, child)
	return child
}

// relocate stores an entry that is already part of the book in this node
// without touching any counter. It is only used on nodes freshly created by
// promote, whose pages are all empty.
func (n *node) relocate(entry Entry) {
	n.setLeaf(n.pageOf(entry.Key.Signature()), entry)
}

// remove deletes the entry with the given signature from the trie rooted by
// this node. It returns false if there is no such entry. Child nodes left with
// a single entry are collapsed into a leaf.
func (n *node) remove(signature txn.Signature) bool {
	pos := n.pageOf(signature)
	p := &n.pages[pos]
	switch p.kind {
	case emptyPage:
		return false

	case leafPage:
		if p.entry.Key.Signature() != signature {
			return false
		}
		n.clear(pos)
		n.stats.entries--
		n.count--
		return true
	}

	child := p.child
	if !child.remove(signature) {
		return false
	}
	n.count--
	if child.count == 1 {
		n.setLeaf(pos, child.soleEntry())
	}
	return true
}

// soleEntry returns the only entry of a node holding exactly one entry.
func (n *node) soleEntry() Entry {
	p := &n.pages[n.occupied.first()]
	if p.kind == childPage {
		return p.child.soleEntry()
	}
	return p.entry
}

func (n *node) maxDepth() int {
	res := n.depth
	for i := range n.pages {
		if n.pages[i].kind == childPage {
			res = max(res, n.pages[i].child.maxDepth())
		}
	}
	return res
}

// check verifies the structural invariants of the trie rooted by this node,
// given the symbols of the path leading to it. It returns the number of
// entries found.
func (n *node) check(path []byte) (int, error) {
	var errs []error
	if len(path) != n.depth {
		errs = append(errs, fmt.Errorf("node at path %q has depth %d", path, n.depth))
	}
	entries, used := 0, 0
	for i := range n.pages {
		p := &n.pages[i]
		if p.kind != emptyPage {
			used++
		}
		if n.occupied.get(i) != (p.kind != emptyPage) {
			errs = append(errs, fmt.Errorf("occupancy of page %c at path %q does not match its content", txn.Alphabet[i], path))
		}
		switch p.kind {
		case leafPage:
			if p.entry.Key == nil {
				errs = append(errs, fmt.Errorf("leaf at path %q%c without transaction", path, txn.Alphabet[i]))
				continue
			}
			signature := p.entry.Key.Signature()
			want := append(append([]byte{}, path...), txn.Alphabet[i])
			if !strings.HasPrefix(signature.String(), string(want)) {
				errs = append(errs, fmt.Errorf("entry %v stored at path %q", signature, want))
			}
			entries++
		case childPage:
			if p.child.stats != n.stats {
				errs = append(errs, fmt.Errorf("child at path %q%c does not share counters", path, txn.Alphabet[i]))
			}
			count, err := p.child.check(append(append([]byte{}, path...), txn.Alphabet[i]))
			if err != nil {
				errs = append(errs, err)
			}
			if count < 2 {
				errs = append(errs, fmt.Errorf("child at path %q%c holds %d entries, should have been collapsed", path, txn.Alphabet[i], count))
			}
			entries += count
		}
	}
	if got, want := n.occupied.popCount(), used; got != want {
		errs = append(errs, fmt.Errorf("node at path %q marks %d pages as occupied, %d are in use", path, got, want))
	}
	if entries != n.count {
		errs = append(errs, fmt.Errorf("node at path %q counts %d entries, found %d", path, n.count, entries))
	}
	return entries, errors.Join(errs...)
}
