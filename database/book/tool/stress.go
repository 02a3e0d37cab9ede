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
	"bytes"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"
	"time"

	"github.com/bytenote/ledger/go/common/future"
	"github.com/bytenote/ledger/go/common/result"
	"github.com/bytenote/ledger/go/common/txn"
	"github.com/bytenote/ledger/go/database/book"
	"github.com/pbnjay/memory"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var StressTestCmd = cli.Command{
	Action: withDiagnostics(doStressTest),
	Name:   "stress-test",
	Usage:  "runs random operations on independent books and checks them against a reference map",
	Flags: []cli.Flag{
		&configFlag,
		&numOpsFlag,
		&keySpaceFlag,
		&workersFlag,
		&seedFlag,
		&removeRatioFlag,
		&checkPeriodFlag,
	},
}

var (
	configFlag = cli.PathFlag{
		Name:  "config",
		Usage: "YAML file providing the stress test parameters; flags take precedence",
	}
	numOpsFlag = cli.IntFlag{
		Name:  "num-ops",
		Usage: "number of operations performed by each worker",
		Value: defaultStressParams.NumOps,
	}
	keySpaceFlag = cli.IntFlag{
		Name:  "key-space",
		Usage: "number of distinct transactions used by each worker",
		Value: defaultStressParams.KeySpace,
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "number of books tested in parallel",
		Value: defaultStressParams.Workers,
	}
	seedFlag = cli.Uint64Flag{
		Name:  "seed",
		Usage: "seed of the random operation sequence",
		Value: defaultStressParams.Seed,
	}
	removeRatioFlag = cli.Float64Flag{
		Name:  "remove-ratio",
		Usage: "share of operations removing a transaction",
		Value: defaultStressParams.RemoveRatio,
	}
	checkPeriodFlag = cli.IntFlag{
		Name:  "check-period",
		Usage: "number of operations between full consistency checks, 0 to check only at the end",
		Value: defaultStressParams.CheckPeriod,
	}
)

type stressParams struct {
	NumOps      int     `yaml:"num-ops"`
	KeySpace    int     `yaml:"key-space"`
	Workers     int     `yaml:"workers"`
	Seed        uint64  `yaml:"seed"`
	RemoveRatio float64 `yaml:"remove-ratio"`
	CheckPeriod int     `yaml:"check-period"`
}

var defaultStressParams = stressParams{
	NumOps:      100_000,
	KeySpace:    10_000,
	Workers:     4,
	Seed:        42,
	RemoveRatio: 0.3,
	CheckPeriod: 10_000,
}

func (p stressParams) validate() error {
	var errs []error
	if p.NumOps < 0 {
		errs = append(errs, fmt.Errorf("number of operations must not be negative, got %d", p.NumOps))
	}
	if p.KeySpace <= 0 {
		errs = append(errs, fmt.Errorf("key space must be positive, got %d", p.KeySpace))
	}
	if p.Workers <= 0 {
		errs = append(errs, fmt.Errorf("number of workers must be positive, got %d", p.Workers))
	}
	if p.RemoveRatio < 0 || p.RemoveRatio > 1 {
		errs = append(errs, fmt.Errorf("remove ratio must be in [0,1], got %v", p.RemoveRatio))
	}
	if p.CheckPeriod < 0 {
		errs = append(errs, fmt.Errorf("check period must not be negative, got %d", p.CheckPeriod))
	}
	return errors.Join(errs...)
}

// stressParamsFrom collects the parameters of a stress test from the defaults,
// an optional config file and the explicitly set flags, in that order.
func stressParamsFrom(context *cli.Context) (stressParams, error) {
	params := defaultStressParams
	if path := context.Path(configFlag.Name); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return params, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return params, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	if context.IsSet(numOpsFlag.Name) {
		params.NumOps = context.Int(numOpsFlag.Name)
	}
	if context.IsSet(keySpaceFlag.Name) {
		params.KeySpace = context.Int(keySpaceFlag.Name)
	}
	if context.IsSet(workersFlag.Name) {
		params.Workers = context.Int(workersFlag.Name)
	}
	if context.IsSet(seedFlag.Name) {
		params.Seed = context.Uint64(seedFlag.Name)
	}
	if context.IsSet(removeRatioFlag.Name) {
		params.RemoveRatio = context.Float64(removeRatioFlag.Name)
	}
	if context.IsSet(checkPeriodFlag.Name) {
		params.CheckPeriod = context.Int(checkPeriodFlag.Name)
	}
	return params, params.validate()
}

type stressReport struct {
	worker                                     int
	ops, puts, removes, missing, gets, updates int
	finalSize, maxSize, maxDepth               int
	duration                                   time.Duration
}

func doStressTest(context *cli.Context) error {
	params, err := stressParamsFrom(context)
	if err != nil {
		return err
	}
	log := NewLog(zap.L())
	log.Printf("Running %d workers with %d operations each on %d keys (seed %d)",
		params.Workers, params.NumOps, params.KeySpace, params.Seed)

	reports, err := runStressTest(params)
	for _, r := range reports {
		log.Printf("Worker %d: %d ops in %v (%d puts, %d removes, %d missing removes, %d gets, %d rejected updates)",
			r.worker, r.ops, r.duration.Round(time.Millisecond), r.puts, r.removes, r.missing, r.gets, r.updates)
		log.Printf("Worker %d: final size %d, max size %d, max depth %d", r.worker, r.finalSize, r.maxSize, r.maxDepth)
	}
	log.Printf("Heap usage: %.1f MiB, system memory: %.1f GiB",
		float64(getMemoryUsage())/(1<<20), float64(memory.TotalMemory())/(1<<30))
	if err != nil {
		return fmt.Errorf("stress test failed: %w", err)
	}
	log.Printf("All %d workers passed", len(reports))
	return nil
}

// runStressTest runs one independent book per worker, each in its own
// goroutine, and collects the reports of all successful workers.
func runStressTest(params stressParams) ([]stressReport, error) {
	futures := make([]future.Future[result.Result[stressReport]], 0, params.Workers)
	for worker := range params.Workers {
		futures = append(futures, future.Spawn(func() result.Result[stressReport] {
			return result.Of(runStressWorker(params, worker))
		}))
	}
	reports, err := result.Collect(future.AwaitAll(futures))
	if err != nil {
		return reports, fmt.Errorf("failed workers: %w", err)
	}
	return reports, nil
}

func runStressWorker(params stressParams, worker int) (stressReport, error) {
	report := stressReport{worker: worker}
	rng := rand.New(rand.NewPCG(params.Seed, uint64(worker)))
	keys, err := stressKeys(rng, params.KeySpace, worker)
	if err != nil {
		return report, err
	}

	start := time.Now()
	b := &book.Book{}
	reference := map[txn.Signature]int64{}
	for op := range params.NumOps {
		tx := keys[rng.IntN(len(keys))]
		signature := tx.Signature()
		want, present := reference[signature]

		switch {
		case rng.Float64() < params.RemoveRatio:
			err := b.Remove(tx)
			if present {
				if err != nil {
					return report, fmt.Errorf("op %d: failed to remove %v: %w", op, signature, err)
				}
				delete(reference, signature)
				report.removes++
			} else {
				if !errors.Is(err, book.ErrNotFound) {
					return report, fmt.Errorf("op %d: removing absent %v should fail, got %v", op, signature, err)
				}
				report.missing++
			}
		case rng.IntN(2) == 0:
			amount := int64(rng.IntN(4))
			b.Put(tx, amount)
			if !present {
				reference[signature] = amount
				report.puts++
			} else if want != amount {
				report.updates++
			}
		default:
			got, err := b.Get(tx)
			if present && (err != nil || got != want) {
				return report, fmt.Errorf("op %d: wrong amount for %v, wanted %d, got %d (%v)", op, signature, want, got, err)
			}
			if !present && !errors.Is(err, book.ErrNotFound) {
				return report, fmt.Errorf("op %d: %v should be absent, got %v", op, signature, err)
			}
			report.gets++
		}
		report.ops++

		if got, want := b.Len(), len(reference); got != want {
			return report, fmt.Errorf("op %d: wrong size, wanted %d, got %d", op, want, got)
		}
		if got, want := b.ErrorCount(), report.updates; got != want {
			return report, fmt.Errorf("op %d: wrong error count, wanted %d, got %d", op, want, got)
		}
		report.maxSize = max(report.maxSize, b.Len())

		if params.CheckPeriod > 0 && (op+1)%params.CheckPeriod == 0 {
			if err := verifyBook(b, reference); err != nil {
				return report, fmt.Errorf("op %d: %w", op, err)
			}
			report.maxDepth = max(report.maxDepth, b.Depth())
		}
	}
	if err := verifyBook(b, reference); err != nil {
		return report, err
	}
	report.finalSize = b.Len()
	report.maxDepth = max(report.maxDepth, b.Depth())
	report.duration = time.Since(start)
	return report, nil
}

// stressKeys creates the transactions a worker operates on. Half of them are
// signed regularly, the other half get signatures sharing long prefixes to
// force deep nesting.
func stressKeys(rng *rand.Rand, n int, worker int) ([]*txn.Transaction, error) {
	keys := make([]*txn.Transaction, 0, n)
	for i := range n {
		tx := txn.New(uint64(i), fmt.Sprintf("worker-%d", worker), fmt.Sprintf("account-%d", rng.IntN(1000)))
		var err error
		if i%2 == 0 {
			err = tx.Sign()
		} else {
			err = tx.SetSignature(collidingSignature(rng))
		}
		if err != nil {
			return nil, err
		}
		keys = append(keys, tx)
	}
	return keys, nil
}

func collidingSignature(rng *rand.Rand) txn.Signature {
	var res txn.Signature
	for i := range res {
		width := len(txn.Alphabet)
		if i < 6 {
			width = 3
		}
		res[i] = txn.Alphabet[rng.IntN(width)]
	}
	return res
}

// verifyBook checks the structure of the book and compares its ordered
// content with the reference map.
func verifyBook(b *book.Book, reference map[txn.Signature]int64) error {
	if err := b.Check(); err != nil {
		return fmt.Errorf("inconsistent book: %w", err)
	}
	var previous txn.Signature
	count := 0
	for tx, amount := range b.All() {
		signature := tx.Signature()
		if count > 0 && bytes.Compare(previous[:], signature[:]) >= 0 {
			return fmt.Errorf("iteration out of order: %v after %v", signature, previous)
		}
		want, found := reference[signature]
		if !found {
			return fmt.Errorf("unexpected entry %v", signature)
		}
		if want != amount {
			return fmt.Errorf("wrong amount for %v, wanted %d, got %d", signature, want, amount)
		}
		previous = signature
		count++
	}
	if count != len(reference) {
		return fmt.Errorf("iteration produced %d entries, wanted %d", count, len(reference))
	}
	return nil
}

func getMemoryUsage() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapAlloc
}
