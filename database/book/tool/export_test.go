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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytenote/ledger/go/common/txn"
	"github.com/bytenote/ledger/go/database/book"
	"github.com/stretchr/testify/require"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/urfave/cli/v2"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func txWithPrefix(t *testing.T, prefix string, timestamp uint64) *txn.Transaction {
	t.Helper()
	signature, err := txn.ParseSignature(prefix + strings.Repeat("0", txn.SignatureLength-len(prefix)))
	require.NoError(t, err)
	tx := txn.New(timestamp, "from", "to")
	require.NoError(t, tx.SetSignature(signature))
	return tx
}

func TestExportBook_EmitsEntriesInSignatureOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockEntrySink(ctrl)

	b := &book.Book{}
	c := txWithPrefix(t, "c", 1)
	aa := txWithPrefix(t, "aa", 2)
	ab := txWithPrefix(t, "ab", 3)
	z := txWithPrefix(t, "z", 4)
	for i, tx := range []*txn.Transaction{z, ab, c, aa} {
		b.Put(tx, int64(i))
	}

	gomock.InOrder(
		sink.EXPECT().Add(aa, int64(3)),
		sink.EXPECT().Add(ab, int64(1)),
		sink.EXPECT().Add(c, int64(2)),
		sink.EXPECT().Add(z, int64(0)),
	)

	count, err := exportBook(b, sink, nil)
	require.NoError(t, err)
	require.Equal(t, 4, count)
}

func TestExportBook_StopsAtFirstSinkError(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockEntrySink(ctrl)

	b := &book.Book{}
	b.Put(txWithPrefix(t, "a", 1), 1)
	b.Put(txWithPrefix(t, "b", 2), 2)

	injected := errors.New("injected error")
	sink.EXPECT().Add(gomock.Any(), gomock.Any()).Return(injected)

	count, err := exportBook(b, sink, nil)
	require.ErrorIs(t, err, injected)
	require.Zero(t, count)
}

func TestExportBook_EmptyBookProducesNoEntries(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := NewMockEntrySink(ctrl)

	count, err := exportBook(&book.Book{}, sink, nil)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestEncodeEntry_CanBeDecoded(t *testing.T) {
	require := require.New(t)
	tx := txn.New(12, "alice", "")
	require.NoError(tx.Sign())

	decoded, amount, err := decodeEntry(tx.Signature(), encodeEntry(tx, -7))
	require.NoError(err)
	require.Equal(int64(-7), amount)
	require.Equal(tx.Timestamp(), decoded.Timestamp())
	require.Equal(tx.From(), decoded.From())
	require.Equal(tx.To(), decoded.To())
	require.Equal(tx.Signature(), decoded.Signature())
}

func TestDecodeEntry_DetectsCorruptedData(t *testing.T) {
	tx := txWithPrefix(t, "a", 1)
	data := encodeEntry(tx, 5)

	tests := map[string][]byte{
		"empty":          nil,
		"truncated":      data[:len(data)-1],
		"trailing bytes": append(append([]byte{}, data...), 0),
		"too short":      data[:18],
		"missing length": data[:24],
		"invalid length": append(append([]byte{}, data[:16]...), 0xff, 0xff, 0xff, 0xff),
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := decodeEntry(tx.Signature(), input)
			require.Error(t, err)
		})
	}
}

func TestLevelDbSink_ExportCanBeVerified(t *testing.T) {
	require := require.New(t)
	dir := filepath.Join(t.TempDir(), "export")

	b := &book.Book{}
	for i := range 3*exportBatchSize + 17 {
		tx := txn.New(uint64(i), "from", "to")
		require.NoError(tx.Sign())
		b.Put(tx, int64(i))
	}

	sink, err := openLevelDbSink(dir)
	require.NoError(err)
	count, err := exportBook(b, sink, NewLog(zap.NewNop()).NewProgressTracker("%d %.2f", 1000))
	require.NoError(err)
	require.NoError(sink.Close())
	require.Equal(b.Len(), count)

	require.NoError(verifyExport(dir, b))
}

func TestLevelDbSink_ExistingDatabaseIsRejected(t *testing.T) {
	require := require.New(t)
	dir := filepath.Join(t.TempDir(), "export")

	sink, err := openLevelDbSink(dir)
	require.NoError(err)
	require.NoError(sink.Add(txWithPrefix(t, "a", 1), 1))
	require.NoError(sink.Close())

	_, err = openLevelDbSink(dir)
	require.ErrorContains(err, "failed to open LevelDB")
}

func TestLevelDbSink_UnsignedTransactionsAreRejected(t *testing.T) {
	require := require.New(t)
	sink, err := openLevelDbSink(filepath.Join(t.TempDir(), "export"))
	require.NoError(err)
	defer func() { require.NoError(sink.Close()) }()

	err = sink.Add(txn.New(1, "from", "to"), 1)
	require.ErrorIs(err, txn.ErrNotSigned)
}

func TestVerifyExport_DetectsDifferences(t *testing.T) {
	require := require.New(t)
	dir := filepath.Join(t.TempDir(), "export")

	b := &book.Book{}
	b.Put(txWithPrefix(t, "a", 1), 1)
	b.Put(txWithPrefix(t, "b", 2), 2)

	sink, err := openLevelDbSink(dir)
	require.NoError(err)
	_, err = exportBook(b, sink, nil)
	require.NoError(err)
	require.NoError(sink.Close())

	larger := &book.Book{}
	larger.Put(txWithPrefix(t, "a", 1), 1)
	larger.Put(txWithPrefix(t, "b", 2), 2)
	larger.Put(txWithPrefix(t, "c", 3), 3)
	require.ErrorContains(verifyExport(dir, larger), "wrong number of entries")

	different := &book.Book{}
	different.Put(txWithPrefix(t, "a", 1), 1)
	different.Put(txWithPrefix(t, "b", 2), 5)
	require.ErrorContains(verifyExport(dir, different), "wrong amount")

	smaller := &book.Book{}
	smaller.Put(txWithPrefix(t, "a", 1), 1)
	require.ErrorIs(verifyExport(dir, smaller), book.ErrNotFound)
}

func TestVerifyExport_DetectsInvalidKeys(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	db, err := leveldb.OpenFile(dir, nil)
	require.NoError(err)
	require.NoError(db.Put([]byte("not a signature"), []byte{}, nil))
	require.NoError(db.Close())

	require.ErrorContains(verifyExport(dir, &book.Book{}), "invalid key")
}

func TestVerifyExport_MissingDirectoryIsReported(t *testing.T) {
	err := verifyExport(filepath.Join(t.TempDir(), "missing"), &book.Book{})
	require.ErrorContains(t, err, "failed to open LevelDB")
}

func TestExportCommand_ExportsAndVerifies(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	source := writeRecords(t, dir, sampleRecords)
	target := filepath.Join(dir, "export")

	app := &cli.App{Commands: []*cli.Command{&ExportCmd}}
	require.NoError(app.Run([]string{"tool", "export", "--verify", source, target}))

	db, err := leveldb.OpenFile(target, nil)
	require.NoError(err)
	defer db.Close()
	iter := db.NewIterator(nil, nil)
	defer iter.Release()
	count := 0
	for iter.Next() {
		count++
	}
	require.NoError(iter.Error())
	require.Equal(3, count)
}

func TestExportCommand_RepeatedExportIntoSameDirectoryFails(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	target := filepath.Join(dir, "export")

	first := filepath.Join(dir, "first.yaml")
	require.NoError(os.WriteFile(first, []byte(sampleRecords), 0600))
	second := filepath.Join(dir, "second.yaml")
	require.NoError(os.WriteFile(second, []byte(`
transactions:
  - timestamp: 7
    from: frank
    to: grace
    amount: 70
`), 0600))

	app := &cli.App{Commands: []*cli.Command{&ExportCmd}}
	require.NoError(app.Run([]string{"tool", "export", first, target}))
	require.ErrorContains(app.Run([]string{"tool", "export", "--verify", second, target}), "failed to open LevelDB")

	// the first export is left untouched
	b, err := loadBook(first, NewLog(zap.NewNop()))
	require.NoError(err)
	require.NoError(verifyExport(target, b))
}

func TestExportCommand_RequiresBothParameters(t *testing.T) {
	app := &cli.App{Commands: []*cli.Command{&ExportCmd}}
	err := app.Run([]string{"tool", "export", "only-one"})
	require.ErrorContains(t, err, "missing transactions file or target directory")
}
