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
	"fmt"

	"github.com/bytenote/ledger/go/database/book"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var ReplayCmd = cli.Command{
	Action:    withDiagnostics(doReplay),
	Name:      "replay",
	Usage:     "applies the transactions of a YAML file to an empty book",
	ArgsUsage: "<transactions file>",
	Flags: []cli.Flag{
		&printFlag,
	},
}

var printFlag = cli.BoolFlag{
	Name:  "print",
	Usage: "list the content of the book in signature order",
}

func doReplay(context *cli.Context) error {
	if context.Args().Len() != 1 {
		return fmt.Errorf("missing transactions file parameter")
	}
	log := NewLog(zap.L())
	b, err := loadBook(context.Args().Get(0), log)
	if err != nil {
		return err
	}
	if context.Bool(printFlag.Name) {
		printBook(b, log)
	}
	return nil
}

func printBook(b *book.Book, log *Log) {
	for tx, amount := range b.All() {
		log.Printf("%v %s -> %s @%d: %d", tx.Signature(), tx.From(), tx.To(), tx.Timestamp(), amount)
	}
}
