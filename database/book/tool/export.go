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

//go:generate mockgen -source export.go -destination sink_mocks.go -package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bytenote/ledger/go/common/txn"
	"github.com/bytenote/ledger/go/database/book"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var ExportCmd = cli.Command{
	Action:    withDiagnostics(doExport),
	Name:      "export",
	Usage:     "replays a transactions file and exports the resulting book into a LevelDB directory",
	ArgsUsage: "<transactions file> <target directory>",
	Flags: []cli.Flag{
		&verifyFlag,
	},
}

var verifyFlag = cli.BoolFlag{
	Name:  "verify",
	Usage: "re-read the exported directory and compare it with the book",
}

// EntrySink receives the entries of a book in signature order.
type EntrySink interface {
	Add(tx *txn.Transaction, amount int64) error
	Close() error
}

func doExport(context *cli.Context) error {
	if context.Args().Len() != 2 {
		return fmt.Errorf("missing transactions file or target directory parameter")
	}
	source := context.Args().Get(0)
	target := context.Args().Get(1)

	log := NewLog(zap.L())
	b, err := loadBook(source, log)
	if err != nil {
		return err
	}

	sink, err := openLevelDbSink(target)
	if err != nil {
		return err
	}
	progress := log.NewProgressTracker("Exported %d entries, %.2f entries/s", 100_000)
	count, err := exportBook(b, sink, progress)
	if err := errors.Join(err, sink.Close()); err != nil {
		return fmt.Errorf("failed to export book: %w", err)
	}
	log.Printf("Exported %d entries to %s", count, target)

	if context.Bool(verifyFlag.Name) {
		if err := verifyExport(target, b); err != nil {
			return fmt.Errorf("verification of %s failed: %w", target, err)
		}
		log.Printf("Verified %d entries in %s", count, target)
	}
	return nil
}

// exportBook streams all entries of the book into the sink. The sink is not
// closed by this function.
func exportBook(b *book.Book, sink EntrySink, progress *ProgressLogger) (int, error) {
	count := 0
	for tx, amount := range b.All() {
		if err := sink.Add(tx, amount); err != nil {
			return count, fmt.Errorf("failed to export %v: %w", tx.Signature(), err)
		}
		count++
		if progress != nil {
			progress.Step(1)
		}
	}
	return count, nil
}

const exportBatchSize = 1024

type levelDbSink struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

// openLevelDbSink creates a new LevelDB database in the given directory. An
// export is a snapshot of a single book, so directories already holding a
// database are rejected.
func openLevelDbSink(dir string) (*levelDbSink, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{ErrorIfExist: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB at %s: %w", dir, err)
	}
	return &levelDbSink{
		db:    db,
		batch: new(leveldb.Batch),
	}, nil
}

func (s *levelDbSink) Add(tx *txn.Transaction, amount int64) error {
	if !tx.IsSigned() {
		return fmt.Errorf("%w: %v", txn.ErrNotSigned, tx)
	}
	signature := tx.Signature()
	s.batch.Put(signature[:], encodeEntry(tx, amount))
	if s.batch.Len() >= exportBatchSize {
		return s.flush()
	}
	return nil
}

func (s *levelDbSink) flush() error {
	if s.batch.Len() == 0 {
		return nil
	}
	err := s.db.Write(s.batch, nil)
	s.batch.Reset()
	return err
}

func (s *levelDbSink) Close() error {
	return errors.Join(s.flush(), s.db.Close())
}

// encodeEntry produces the value stored for an entry:
//
//	amount (8) | timestamp (8) | len(from) (4) | from | len(to) (4) | to
//
// with all integers in big-endian order.
func encodeEntry(tx *txn.Transaction, amount int64) []byte {
	from, to := tx.From(), tx.To()
	res := make([]byte, 0, 24+len(from)+len(to))
	res = binary.BigEndian.AppendUint64(res, uint64(amount))
	res = binary.BigEndian.AppendUint64(res, tx.Timestamp())
	res = binary.BigEndian.AppendUint32(res, uint32(len(from)))
	res = append(res, from...)
	res = binary.BigEndian.AppendUint32(res, uint32(len(to)))
	res = append(res, to...)
	return res
}

func decodeEntry(signature txn.Signature, data []byte) (*txn.Transaction, int64, error) {
	if len(data) < 20 {
		return nil, 0, fmt.Errorf("entry too short: %d bytes", len(data))
	}
	amount := int64(binary.BigEndian.Uint64(data[0:8]))
	timestamp := binary.BigEndian.Uint64(data[8:16])
	from, rest, err := decodeString(data[16:])
	if err != nil {
		return nil, 0, fmt.Errorf("invalid sender: %w", err)
	}
	to, rest, err := decodeString(rest)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid receiver: %w", err)
	}
	if len(rest) != 0 {
		return nil, 0, fmt.Errorf("%d trailing bytes in entry", len(rest))
	}
	tx := txn.New(timestamp, from, to)
	if err := tx.SetSignature(signature); err != nil {
		return nil, 0, err
	}
	return tx, amount, nil
}

func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", nil, fmt.Errorf("missing length")
	}
	length := binary.BigEndian.Uint32(data)
	data = data[4:]
	if uint64(len(data)) < uint64(length) {
		return "", nil, fmt.Errorf("length %d exceeds remaining %d bytes", length, len(data))
	}
	return string(data[:length]), data[length:], nil
}

// verifyExport checks that the LevelDB directory holds exactly the entries of
// the given book, in signature order.
func verifyExport(dir string, b *book.Book) error {
	db, err := leveldb.OpenFile(dir, &opt.Options{
		ErrorIfMissing: true,
		ReadOnly:       true,
	})
	if err != nil {
		return fmt.Errorf("failed to open LevelDB at %s: %w", dir, err)
	}
	defer db.Close()

	iter := db.NewIterator(nil, nil)
	defer iter.Release()

	var previous []byte
	count := 0
	for iter.Next() {
		key := iter.Key()
		if previous != nil && bytes.Compare(previous, key) >= 0 {
			return fmt.Errorf("keys out of order: %s after %s", key, previous)
		}
		signature, err := txn.ParseSignature(string(key))
		if err != nil {
			return fmt.Errorf("invalid key %q: %w", key, err)
		}
		tx, amount, err := decodeEntry(signature, iter.Value())
		if err != nil {
			return fmt.Errorf("invalid entry for %v: %w", signature, err)
		}
		want, err := b.Get(tx)
		if err != nil {
			return fmt.Errorf("exported entry %v: %w", signature, err)
		}
		if want != amount {
			return fmt.Errorf("wrong amount for %v, wanted %d, got %d", signature, want, amount)
		}
		previous = append(previous[:0], key...)
		count++
	}
	if err := iter.Error(); err != nil {
		return err
	}
	if count != b.Len() {
		return fmt.Errorf("wrong number of entries, wanted %d, got %d", b.Len(), count)
	}
	return nil
}
