// Package main is the caldera ledger CLI. It bootstraps the ledger database
// and invokes component operations against it, one transaction per call.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/runtime"
	"github.com/calderafi/caldera/internal/platform/config"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
	"github.com/calderafi/caldera/internal/platform/otel"
	"github.com/calderafi/caldera/internal/storage/sqlite"
)

type envConfig struct {
	DBPath string `env:"CALDERA_DB_PATH" envDefault:"data/caldera.db"`
	Admin  string `env:"CALDERA_ADMIN" envDefault:"deployer"`
}

func main() {
	var cfg envConfig
	if err := config.ParseEnv(&cfg); err != nil {
		config.Exitf("load config: %v", err)
	}

	var (
		dbPath    string
		admin     string
		caller    string
		component string
		operation string
		argsJSON  string
		height    uint64
		requestID string
		bootstrap bool
	)
	flag.StringVar(&dbPath, "db-path", cfg.DBPath, "path to sqlite database")
	flag.StringVar(&admin, "admin", cfg.Admin, "administrative principal")
	flag.StringVar(&caller, "caller", "", "caller principal for the operation")
	flag.StringVar(&component, "component", "", "component to invoke (creditscore, loan, txhistory, agent)")
	flag.StringVar(&operation, "operation", "", "operation name")
	flag.StringVar(&argsJSON, "args", "", "operation arguments as JSON")
	flag.Uint64Var(&height, "height", 0, "chain height the operation executes at")
	flag.StringVar(&requestID, "request-id", "", "idempotency key recorded in the journal")
	flag.BoolVar(&bootstrap, "bootstrap", false, "initialize the ledger and component allow-lists")
	flag.Parse()

	ctx := context.Background()
	shutdown, err := otel.Setup(ctx, "caldera")
	if err != nil {
		config.Exitf("otel setup: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	store, err := sqlite.Open(dbPath)
	if err != nil {
		config.Exitf("open store: %v", err)
	}
	defer store.Close()

	rt := runtime.New(store, chain.Principal(admin))

	if bootstrap {
		if err := rt.Bootstrap(); err != nil {
			config.Exitf("bootstrap: %v", err)
		}
		log.Printf("ledger bootstrapped at %s (admin %s)", dbPath, admin)
		if component == "" {
			return
		}
	}

	if component == "" || operation == "" {
		config.Exitf("usage: caldera -component <name> -operation <name> -caller <principal> [-args <json>] [-height <n>]")
	}

	call := runtime.Call{
		Component: component,
		Operation: operation,
		Caller:    chain.Principal(caller),
		Height:    chain.Height(height),
		RequestID: requestID,
	}
	if argsJSON != "" {
		call.Args = json.RawMessage(argsJSON)
	}

	result, err := rt.Invoke(ctx, call)
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			fmt.Fprintf(os.Stderr, "error %d (%s): %s\n", appErr.Code.Numeric(), appErr.Code, appErr.Message)
			os.Exit(1)
		}
		config.Exitf("invoke: %v", err)
	}
	if len(result) == 0 || string(result) == "null" {
		fmt.Println("ok")
		return
	}
	fmt.Println(string(result))
}
