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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytenote/ledger/go/common/txn"
	"github.com/bytenote/ledger/go/database/book"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const sampleRecords = `
transactions:
  - timestamp: 1
    from: alice
    to: bob
    amount: 10
  - timestamp: 2
    from: bob
    to: carol
    amount: 20
  - timestamp: 3
    from: carol
    to: alice
    amount: 30
    signature: a00000000000000000000000000000000000
  - timestamp: 4
    from: dave
    to: erin
    amount: 40
    signature: a00000000000000000000000000000000001
  - timestamp: 1
    from: alice
    to: bob
    amount: 11
  - timestamp: 2
    from: bob
    to: carol
    remove: true
  - timestamp: 9
    from: nobody
    to: nobody
    remove: true
`

func writeRecords(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "transactions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func signedTx(t *testing.T, timestamp uint64, from, to string) *txn.Transaction {
	t.Helper()
	tx := txn.New(timestamp, from, to)
	require.NoError(t, tx.Sign())
	return tx
}

func TestReadRecords_ParsesAllFields(t *testing.T) {
	require := require.New(t)
	records, err := readRecords(writeRecords(t, t.TempDir(), sampleRecords))
	require.NoError(err)
	require.Len(records, 7)
	require.Equal(record{Timestamp: 1, From: "alice", To: "bob", Amount: 10}, records[0])
	require.Equal("a00000000000000000000000000000000000", records[2].Signature)
	require.True(records[5].Remove)
}

func TestReadRecords_MissingFileIsReported(t *testing.T) {
	_, err := readRecords(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "failed to read transactions file")
}

func TestReadRecords_MalformedFileIsReported(t *testing.T) {
	path := writeRecords(t, t.TempDir(), "transactions: [ {timestamp: nope} ]")
	_, err := readRecords(path)
	require.ErrorContains(t, err, "failed to parse transactions file")
}

func TestRecord_UnsignedRecordsAreSigned(t *testing.T) {
	require := require.New(t)
	tx, err := record{Timestamp: 5, From: "a", To: "b"}.transaction()
	require.NoError(err)
	require.True(tx.IsSigned())
	require.Equal(txn.ComputeSignature(5, "a", "b"), tx.Signature())
}

func TestRecord_InvalidSignatureIsRejected(t *testing.T) {
	_, err := record{Signature: "not-a-signature"}.transaction()
	require.ErrorIs(t, err, txn.ErrInvalidSignature)
}

func TestReplay_AppliesRecordsInOrder(t *testing.T) {
	require := require.New(t)
	records, err := readRecords(writeRecords(t, t.TempDir(), sampleRecords))
	require.NoError(err)

	b := &book.Book{}
	stats, err := replay(b, records, NewLog(zap.NewNop()))
	require.NoError(err)
	require.Equal(replayStats{puts: 5, removes: 1, missing: 1}, stats)

	require.Equal(3, b.Len())
	require.Equal(1, b.ErrorCount()) // the second amount for alice -> bob
	require.Equal(35, b.Depth())     // the explicit signatures differ in the last symbol only

	amount, err := b.Get(signedTx(t, 1, "alice", "bob"))
	require.NoError(err)
	require.Equal(int64(10), amount)
}

func TestReplay_StopsAtInvalidRecord(t *testing.T) {
	require := require.New(t)
	b := &book.Book{}
	records := []record{
		{Timestamp: 1, From: "a", To: "b", Amount: 1},
		{Signature: "short"},
		{Timestamp: 2, From: "a", To: "b", Amount: 2},
	}
	stats, err := replay(b, records, NewLog(zap.NewNop()))
	require.ErrorContains(err, "invalid record 1")
	require.Equal(1, stats.puts)
	require.Equal(1, b.Len())
}

func TestReplayCommand_PrintsBookInOrder(t *testing.T) {
	require := require.New(t)
	core, logs := observer.New(zap.InfoLevel)
	defer zap.ReplaceGlobals(zap.New(core))()

	path := writeRecords(t, t.TempDir(), sampleRecords)
	app := &cli.App{Commands: []*cli.Command{&ReplayCmd}}
	require.NoError(app.Run([]string{"tool", "replay", "--print", path}))

	var listed []string
	for _, entry := range logs.All() {
		if strings.Contains(entry.Message, " -> ") {
			listed = append(listed, entry.Message)
		}
	}
	require.Len(listed, 3)
	require.Contains(listed[1], "a00000000000000000000000000000000000 carol -> alice @3: 30")
	require.Contains(listed[2], "a00000000000000000000000000000000001 dave -> erin @4: 40")
}

func TestReplayCommand_RequiresFileParameter(t *testing.T) {
	app := &cli.App{Commands: []*cli.Command{&ReplayCmd}}
	require.ErrorContains(t, app.Run([]string{"tool", "replay"}), "missing transactions file")
}
