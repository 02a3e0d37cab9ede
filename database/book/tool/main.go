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
	"os"

	"github.com/bytenote/ledger/go/common/diagnostics"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Run using
//  go run ./database/book/tool <command> <flags>

var (
	diagnosticFlags = diagnostics.NewFlags()
	verboseFlag     = cli.BoolFlag{
		Name:  "verbose",
		Usage: "enable debug logging",
	}
)

var commands = []*cli.Command{
	&ReplayCmd,
	&ExportCmd,
	&StressTestCmd,
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "tool",
		Usage:     "processing book toolbox",
		Copyright: "(c) 2025 Sonic Operations Ltd",
		Flags:     append(diagnosticFlags.List(), &verboseFlag),
		Commands:  commands,
		Before:    setupLogging,
		After: func(*cli.Context) error {
			// Syncing a console logger fails on some platforms; nothing to do about it.
			_ = zap.L().Sync()
			return nil
		},
	}
}

// withDiagnostics adds the diagnostic features controlled by the global flags
// to the given command action.
func withDiagnostics(action cli.ActionFunc) cli.ActionFunc {
	return diagnostics.AddPerformanceDiagnosticsAction(action, diagnosticFlags)
}

func setupLogging(context *cli.Context) error {
	logger, err := newLogger(context.Bool(verboseFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
