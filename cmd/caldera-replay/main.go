// Package main replays a ledger journal into a fresh database and verifies
// that every transition reproduces its recorded result. The ledger is
// deterministic, so any divergence means the source database was modified
// outside the runtime.
package main

import (
	"bytes"
	"context"
	"flag"
	"log"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/runtime"
	"github.com/calderafi/caldera/internal/ledger/state"
	"github.com/calderafi/caldera/internal/platform/config"
	"github.com/calderafi/caldera/internal/storage/sqlite"
)

const replayPageSize = 200

func main() {
	var (
		sourcePath string
		targetPath string
		admin      string
		afterSeq   uint64
		dryRun     bool
	)
	flag.StringVar(&sourcePath, "source", "data/caldera.db", "path to the journaled source database")
	flag.StringVar(&targetPath, "target", "", "path for the rebuilt database (required unless -dry-run)")
	flag.StringVar(&admin, "admin", "deployer", "administrative principal the source was bootstrapped with")
	flag.Uint64Var(&afterSeq, "after-seq", 0, "start replay after this journal sequence")
	flag.BoolVar(&dryRun, "dry-run", false, "verify against an in-memory target instead of writing a database")
	flag.Parse()

	if targetPath == "" && !dryRun {
		config.Exitf("usage: caldera-replay -source <db> -target <db> [-after-seq <n>] [-dry-run]")
	}

	source, err := sqlite.Open(sourcePath)
	if err != nil {
		config.Exitf("open source: %v", err)
	}
	defer source.Close()
	sourceRT := runtime.New(source, chain.Principal(admin))

	targetRT, closeTarget, err := openTarget(targetPath, dryRun, chain.Principal(admin))
	if err != nil {
		config.Exitf("open target: %v", err)
	}
	defer closeTarget()

	if err := targetRT.Bootstrap(); err != nil {
		config.Exitf("bootstrap target: %v", err)
	}

	ctx := context.Background()
	replayed := 0
	mismatches := 0
	seq := afterSeq
	for {
		entries, err := sourceRT.JournalEntries(seq, replayPageSize)
		if err != nil {
			config.Exitf("read journal after seq %d: %v", seq, err)
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			call := runtime.Call{
				Component: entry.Component,
				Operation: entry.Operation,
				Args:      entry.Args,
				Caller:    entry.Caller,
				Height:    entry.Height,
				RequestID: entry.RequestID,
			}
			result, err := targetRT.Invoke(ctx, call)
			if err != nil {
				config.Exitf("replay seq %d (%s.%s): %v", entry.Seq, entry.Component, entry.Operation, err)
			}
			if !bytes.Equal(result, entry.Result) {
				mismatches++
				log.Printf("seq %d (%s.%s): recorded %s, replayed %s",
					entry.Seq, entry.Component, entry.Operation, entry.Result, result)
			}
			replayed++
			seq = entry.Seq
		}
	}

	if mismatches > 0 {
		config.Exitf("replayed %d transitions, %d result mismatches", replayed, mismatches)
	}
	log.Printf("replayed %d transitions, all results match", replayed)
}

func openTarget(path string, dryRun bool, admin chain.Principal) (*runtime.Runtime, func(), error) {
	if dryRun {
		return runtime.New(state.NewMemory(), admin), func() {}, nil
	}
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return runtime.New(store, admin), func() { _ = store.Close() }, nil
}
