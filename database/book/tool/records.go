// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/bytenote/ledger/go/common/txn"
	"github.com/bytenote/ledger/go/database/book"
	"gopkg.in/yaml.v3"
)

// record is a single line of a replay file. Records without a signature are
// signed using the default signer.
type record struct {
	Timestamp uint64 `yaml:"timestamp"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Amount    int64  `yaml:"amount"`
	Signature string `yaml:"signature,omitempty"`
	Remove    bool   `yaml:"remove,omitempty"`
}

type recordFile struct {
	Transactions []record `yaml:"transactions"`
}

func readRecords(path string) ([]record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read transactions file: %w", err)
	}
	var file recordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse transactions file %s: %w", path, err)
	}
	return file.Transactions, nil
}

func (r record) transaction() (*txn.Transaction, error) {
	tx := txn.New(r.Timestamp, r.From, r.To)
	if r.Signature == "" {
		return tx, tx.Sign()
	}
	signature, err := txn.ParseSignature(r.Signature)
	if err != nil {
		return nil, err
	}
	return tx, tx.SetSignature(signature)
}

type replayStats struct {
	puts, removes, missing int
}

// replay applies the given records to the book in order.
func replay(b *book.Book, records []record, log *Log) (replayStats, error) {
	stats := replayStats{}
	for i, r := range records {
		tx, err := r.transaction()
		if err != nil {
			return stats, fmt.Errorf("invalid record %d: %w", i, err)
		}
		if !r.Remove {
			b.Put(tx, r.Amount)
			stats.puts++
			continue
		}
		err = b.Remove(tx)
		if errors.Is(err, book.ErrNotFound) {
			log.Debugf("record %d: nothing to remove for %v", i, tx.Signature())
			stats.missing++
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("record %d: %w", i, err)
		}
		stats.removes++
	}
	return stats, nil
}

// loadBook builds a book from the records stored in the given file.
func loadBook(path string, log *Log) (*book.Book, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	b := &book.Book{}
	stats, err := replay(b, records, log)
	if err != nil {
		return nil, err
	}
	log.Printf("Replayed %d records from %s", len(records), path)
	log.Printf("Puts: %d, removes: %d, missing removes: %d", stats.puts, stats.removes, stats.missing)
	log.Printf("Entries: %d, rejected updates: %d, depth: %d", b.Len(), b.ErrorCount(), b.Depth())
	return b, nil
}
