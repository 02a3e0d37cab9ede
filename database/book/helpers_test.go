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
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/bytenote/ledger/go/common/txn"
	"github.com/stretchr/testify/require"
)

// newTx creates a transaction signed with the given prefix, padded with
// zeros to the full signature length.
func newTx(t *testing.T, prefix string) *txn.Transaction {
	t.Helper()
	signature, err := txn.ParseSignature(prefix + strings.Repeat("0", txn.SignatureLength-len(prefix)))
	require.NoError(t, err)
	return newTxWithSignature(t, signature)
}

func newTxWithSignature(t *testing.T, signature txn.Signature) *txn.Transaction {
	t.Helper()
	tx := txn.New(0, "sender", "receiver")
	require.NoError(t, tx.SetSignature(signature))
	return tx
}

// randomSignature produces a random signature whose first symbols are drawn
// from the first width symbols of the alphabet only. Small widths produce
// many collisions and thus deep tries.
func randomSignature(rng *rand.Rand, width int) txn.Signature {
	var res txn.Signature
	for i := range res {
		w := len(txn.Alphabet)
		if i < 8 {
			w = width
		}
		res[i] = txn.Alphabet[rng.IntN(w)]
	}
	return res
}
