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

import (
	"fmt"
	"strings"

	"github.com/bytenote/ledger/go/common"
)

// Alphabet lists the symbols a signature is composed of. The position of a
// symbol in this string is its digit value. Since digits precede letters in
// ASCII, the digit order is also the byte order of the symbols.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// SignatureLength is the number of symbols in every signature.
const SignatureLength = 36

const (
	ErrInvalidSignature = common.ConstError("invalid signature")
	ErrAlreadySigned    = common.ConstError("transaction is already signed")
	ErrNotSigned        = common.ConstError("transaction is not signed")
)

// Signature is the fixed-length key identifying a transaction. A valid
// signature consists of SignatureLength symbols of the Alphabet.
type Signature [SignatureLength]byte

// ParseSignature converts the given string into a signature, checking its
// length and that all symbols are part of the alphabet.
func ParseSignature(s string) (Signature, error) {
	var res Signature
	if len(s) != SignatureLength {
		return res, fmt.Errorf("%w: expected %d symbols, got %d", ErrInvalidSignature, SignatureLength, len(s))
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return res, fmt.Errorf("%w: symbol %q at position %d is not in the alphabet", ErrInvalidSignature, s[i], i)
		}
	}
	copy(res[:], s)
	return res, nil
}

// IsValid reports whether all symbols of the signature are part of the
// alphabet. The zero signature is not valid.
func (s Signature) IsValid() bool {
	for _, c := range s {
		if strings.IndexByte(Alphabet, c) < 0 {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	return string(s[:])
}
