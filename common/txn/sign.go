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
	"strconv"

	"github.com/holiman/uint256"
)

// signatureBase is the multiplier of the polynomial rolling hash.
const signatureBase = 31

var (
	// signatureModulus is 36^36, the number of distinct signatures.
	signatureModulus = new(uint256.Int).Exp(uint256.NewInt(uint64(len(Alphabet))), uint256.NewInt(SignatureLength))
	alphabetSize     = uint256.NewInt(uint64(len(Alphabet)))
)

// ComputeSignature derives the signature of a transaction with the given
// fields. The fields are joined as "<timestamp>|<from>|<to>" and hashed with a
// polynomial rolling hash over the code points of that string, reduced modulo
// 36^36. The hash is rendered as a base-36 number using the alphabet, padded
// with leading zeros to the full signature length.
//
// The signature is deterministic but not cryptographically secure.
func ComputeSignature(timestamp uint64, from, to string) Signature {
	data := strconv.FormatUint(timestamp, 10) + "|" + from + "|" + to

	// Intermediate values stay below 31*36^36 + 0x10FFFF < 2^192, well within
	// the 256 bits available.
	base := uint256.NewInt(signatureBase)
	value := new(uint256.Int)
	for _, r := range data {
		value.Mul(value, base)
		value.AddUint64(value, uint64(r))
		value.Mod(value, signatureModulus)
	}

	var res Signature
	digit := new(uint256.Int)
	for i := SignatureLength - 1; i >= 0; i-- {
		digit.Mod(value, alphabetSize)
		value.Div(value, alphabetSize)
		res[i] = Alphabet[digit.Uint64()]
	}
	return res
}
