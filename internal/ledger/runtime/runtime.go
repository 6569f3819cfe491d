// Package runtime is the single entry point into the ledger. Every external
// call names a component and operation; the runtime opens one transaction,
// dispatches to the component, journals the transition, and commits, or rolls
// everything back on failure.
package runtime

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/calderafi/caldera/internal/ledger/agent"
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/creditscore"
	"github.com/calderafi/caldera/internal/ledger/loan"
	"github.com/calderafi/caldera/internal/ledger/state"
	"github.com/calderafi/caldera/internal/ledger/txhistory"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

// Component names addressable through Invoke.
const (
	ComponentCreditScore = "creditscore"
	ComponentLoan        = "loan"
	ComponentTxHistory   = "txhistory"
	ComponentAgent       = "agent"
)

// Component principals used for nested cross-component calls. The bootstrap
// step allow-lists them as score updaters.
const (
	LoanPrincipal      = chain.Principal("ledger.loan")
	TxHistoryPrincipal = chain.Principal("ledger.txhistory")
)

// Call is one external invocation of a ledger operation.
type Call struct {
	Component string          `json:"component"`
	Operation string          `json:"operation"`
	Args      json.RawMessage `json:"args,omitempty"`
	Caller    chain.Principal `json:"caller"`
	Height    chain.Height    `json:"height"`
	RequestID string          `json:"request_id,omitempty"`
}

// handler executes one operation inside the call's transaction.
type handler func(txn state.Txn, call Call) (any, error)

// Runtime dispatches calls against a state store.
type Runtime struct {
	store    state.Store
	admin    chain.Principal
	credit   *creditscore.Ledger
	loans    *loan.Manager
	history  *txhistory.Ledger
	agents   *agent.Registry
	tracer   trace.Tracer
	handlers map[string]map[string]handler
}

// New wires the four components over the store. admin is the administrative
// principal for every component.
func New(store state.Store, admin chain.Principal) *Runtime {
	credit := creditscore.New(admin)
	r := &Runtime{
		store:   store,
		admin:   admin,
		credit:  credit,
		loans:   loan.New(admin, LoanPrincipal, credit),
		history: txhistory.New(admin, TxHistoryPrincipal, credit),
		agents:  agent.New(admin),
		tracer:  otel.Tracer("caldera/runtime"),
	}
	r.handlers = map[string]map[string]handler{
		ComponentCreditScore: r.creditHandlers(),
		ComponentLoan:        r.loanHandlers(),
		ComponentTxHistory:   r.historyHandlers(),
		ComponentAgent:       r.agentHandlers(),
	}
	return r
}

// Invoke runs one operation in its own transaction. On success the result is
// returned as JSON and a journal entry records the transition; on failure
// every write is rolled back.
func (r *Runtime) Invoke(ctx context.Context, call Call) (json.RawMessage, error) {
	_, span := r.tracer.Start(ctx, call.Component+"."+call.Operation,
		trace.WithAttributes(
			attribute.String("ledger.component", call.Component),
			attribute.String("ledger.operation", call.Operation),
			attribute.String("ledger.caller", string(call.Caller)),
			attribute.Int64("ledger.height", int64(call.Height)),
		))
	defer span.End()

	result, err := r.invoke(call)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("ledger.error_code", string(apperrors.CodeOf(err))))
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func (r *Runtime) invoke(call Call) (json.RawMessage, error) {
	if call.Caller.IsZero() {
		return nil, apperrors.New(apperrors.CodeInvalidInput, "call requires a caller principal")
	}
	ops, ok := r.handlers[call.Component]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "unknown component: "+call.Component)
	}
	h, ok := ops[call.Operation]
	if !ok {
		return nil, apperrors.New(apperrors.CodeNotFound, "unknown operation: "+call.Component+"."+call.Operation)
	}

	txn, err := r.store.Begin()
	if err != nil {
		return nil, err
	}

	value, err := h(txn, call)
	if err != nil {
		_ = txn.Rollback()
		return nil, err
	}
	result, err := json.Marshal(value)
	if err != nil {
		_ = txn.Rollback()
		return nil, err
	}
	if err := appendJournal(txn, call, result); err != nil {
		_ = txn.Rollback()
		return nil, err
	}
	if err := txn.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

// decodeArgs unmarshals the call's args into target. Absent args decode as
// zero values so parameterless operations accept an empty payload.
func decodeArgs(call Call, target any) error {
	if len(call.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(call.Args, target); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "decode operation args", err)
	}
	return nil
}
