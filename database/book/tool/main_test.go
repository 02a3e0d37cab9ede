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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllCommands_Run(t *testing.T) {
	for _, cmd := range commands {
		t.Run(cmd.Name, func(t *testing.T) {
			os.Args = []string{"tool", cmd.Name, "--help"}
			main() // ensure commands can be invoked without error
		})
	}
}

func TestMain_UnknownFlagIsAnError(t *testing.T) {
	err := newApp().Run([]string{"tool", "--nonexistent-flag"})
	require.Error(t, err)
}

func TestMain_CommandsAcceptGlobalFlags(t *testing.T) {
	dir := t.TempDir()
	file := writeRecords(t, dir, sampleRecords)
	err := newApp().Run([]string{"tool", "--verbose", "replay", file})
	require.NoError(t, err)
}
