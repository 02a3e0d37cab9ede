// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package diagnostics

import (
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// Flags bundles the command line flags controlling performance diagnostics.
type Flags struct {
	Port       *cli.IntFlag    // < port of the diagnostic server, disabled if not positive
	CpuProfile *cli.StringFlag // < target file for CPU profiles, disabled if empty
	Trace      *cli.StringFlag // < target file for execution traces, disabled if empty
}

// NewFlags creates the diagnostic flags with their default names.
func NewFlags() Flags {
	return Flags{
		Port: &cli.IntFlag{
			Name:  "diagnostic-port",
			Usage: "enable hosting of a realtime diagnostic server by providing a port",
			Value: 0,
		},
		CpuProfile: &cli.StringFlag{
			Name:  "cpuprofile",
			Usage: "sets the target file for storing CPU profiles to, disabled if empty",
			Value: "",
		},
		Trace: &cli.StringFlag{
			Name:  "tracefile",
			Usage: "sets the target file for traces to, disabled if empty",
			Value: "",
		},
	}
}

// List returns the flags for registration in a cli.App or cli.Command.
func (f Flags) List() []cli.Flag {
	return []cli.Flag{f.Port, f.CpuProfile, f.Trace}
}

// AddPerformanceDiagnosticsAction wraps an action function to add performance
// diagnostics: a pprof diagnostic server, CPU profiling, and execution tracing,
// each enabled through the corresponding flag. Progress messages are reported
// to the global zap logger.
func AddPerformanceDiagnosticsAction(action cli.ActionFunc, flags Flags) cli.ActionFunc {
	return func(context *cli.Context) error {
		log := zap.L()

		// Start the diagnostic service if requested.
		startDiagnosticServer(context.Int(flags.Port.Names()[0]), log)

		// Start CPU profiling.
		cpuProfileFileName := context.String(flags.CpuProfile.Names()[0])
		if strings.TrimSpace(cpuProfileFileName) != "" {
			profile, err := startCpuProfiler(cpuProfileFileName)
			if err != nil {
				return err
			}
			defer func() {
				pprof.StopCPUProfile()
				if err := profile.Close(); err != nil {
					log.Warn("failed to close CPU profile", zap.Error(err))
				}
			}()
			log.Info("recording CPU profile", zap.String("file", cpuProfileFileName))
		}

		// Start recording a trace.
		traceFileName := context.String(flags.Trace.Names()[0])
		if strings.TrimSpace(traceFileName) != "" {
			traceFile, err := startTracer(traceFileName)
			if err != nil {
				return err
			}
			defer func() {
				trace.Stop()
				if err := traceFile.Close(); err != nil {
					log.Warn("failed to close trace file", zap.Error(err))
				}
			}()
			log.Info("recording execution trace", zap.String("file", traceFileName))
		}

		return action(context)
	}
}

func startDiagnosticServer(port int, log *zap.Logger) {
	if port <= 0 || port >= (1<<16) {
		return
	}
	addr := fmt.Sprintf("localhost:%d", port)
	log.Info("starting diagnostic server",
		zap.String("url", "http://"+addr),
		zap.String("usage", "https://pkg.go.dev/net/http/pprof#hdr-Usage_examples"),
	)
	log.Warn("block and mutex sampling rate is set to 100% for diagnostics, which may impact overall performance")
	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("diagnostic server stopped", zap.Error(err))
		}
	}()
	runtime.SetBlockProfileRate(1)
	runtime.SetMutexProfileFraction(1)
}

// startCpuProfiler starts CPU profiling into the given file. The caller is
// responsible for stopping the profiler and closing the returned file.
func startCpuProfiler(filename string) (*os.File, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return nil, errors.Join(fmt.Errorf("could not start CPU profile: %w", err), f.Close())
	}
	return f, nil
}

// startTracer starts recording an execution trace into the given file. The
// caller is responsible for stopping the trace and closing the returned file.
func startTracer(filename string) (*os.File, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	if err := trace.Start(f); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to start trace: %w", err), f.Close())
	}
	return f, nil
}
