// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package txn

import "fmt"

// Transaction is a transfer between two users at a given time. The fields
// describing the transfer are immutable. The signature is assigned at most
// once, either computed through Sign or provided through SetSignature.
type Transaction struct {
	timestamp uint64
	from      string
	to        string

	signature Signature
	signed    bool
}

// New creates an unsigned transaction.
func New(timestamp uint64, from, to string) *Transaction {
	return &Transaction{
		timestamp: timestamp,
		from:      from,
		to:        to,
	}
}

func (t *Transaction) Timestamp() uint64 {
	return t.timestamp
}

func (t *Transaction) From() string {
	return t.from
}

func (t *Transaction) To() string {
	return t.to
}

// Signature returns the signature of the transaction. For unsigned
// transactions the zero signature is returned, which is not valid.
func (t *Transaction) Signature() Signature {
	return t.signature
}

// IsSigned reports whether a signature has been assigned.
func (t *Transaction) IsSigned() bool {
	return t.signed
}

// Sign computes the signature of the transaction from its fields and assigns
// it. It fails if the transaction is already signed.
func (t *Transaction) Sign() error {
	return t.SetSignature(ComputeSignature(t.timestamp, t.from, t.to))
}

// SetSignature assigns the given signature. It fails if the signature is not
// valid or if the transaction is already signed.
func (t *Transaction) SetSignature(signature Signature) error {
	if t.signed {
		return fmt.Errorf("%w: %v", ErrAlreadySigned, t.signature)
	}
	if !signature.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidSignature, signature[:])
	}
	t.signature = signature
	t.signed = true
	return nil
}

func (t *Transaction) String() string {
	if !t.signed {
		return fmt.Sprintf("%s->%s@%d (unsigned)", t.from, t.to, t.timestamp)
	}
	return fmt.Sprintf("%s->%s@%d (%v)", t.from, t.to, t.timestamp, t.signature)
}
