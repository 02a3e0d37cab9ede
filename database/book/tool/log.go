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
	"time"

	"go.uber.org/zap"
)

// Log is the logger used by the commands of this tool. It prefixes messages
// with the time elapsed since the log was created.
type Log struct {
	logger *zap.SugaredLogger
	start  time.Time
}

func NewLog(logger *zap.Logger) *Log {
	return &Log{
		logger: logger.Sugar(),
		start:  time.Now(),
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.DisableCaller = true
	config.DisableStacktrace = true
	if !verbose {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return config.Build()
}

func (l *Log) Printf(format string, v ...any) {
	elapsed := time.Since(l.start)
	prefix := []any{int(elapsed.Minutes()), int(elapsed.Seconds()) % 60}
	l.logger.Infof("[t=%4d:%02d] "+format, append(prefix, v...)...)
}

func (l *Log) Debugf(format string, v ...any) {
	l.logger.Debugf(format, v...)
}

// NewProgressTracker creates a tracker reporting progress every period
// steps. The format receives the number of steps so far and the rate of
// steps per second since the last report.
func (l *Log) NewProgressTracker(format string, period int) *ProgressLogger {
	now := time.Now()
	return &ProgressLogger{
		log:    l,
		format: format,
		period: period,
		last:   now,
	}
}

// ProgressLogger periodically reports the progress of a long running
// operation. It is not safe for concurrent use.
type ProgressLogger struct {
	log         *Log
	format      string
	period      int
	counter     int
	lastCounter int
	last        time.Time
}

// Step advances the tracked progress by n steps.
func (p *ProgressLogger) Step(n int) {
	before := p.counter
	p.counter += n
	if p.period <= 0 || before/p.period == p.counter/p.period {
		return
	}
	now := time.Now()
	rate := float64(p.counter-p.lastCounter) / max(now.Sub(p.last).Seconds(), 1e-9)
	p.log.Printf(p.format, p.counter, rate)
	p.last = now
	p.lastCounter = p.counter
}
