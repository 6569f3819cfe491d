package agent

import (
	"errors"
	"testing"

	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

const (
	admin    = chain.Principal("deployer")
	agentOne = chain.Principal("agent-1")
	agentTwo = chain.Principal("agent-2")
	user     = chain.Principal("wallet-1")
	stranger = chain.Principal("wallet-2")
)

func newTestRegistry(t *testing.T) (*Registry, state.Txn) {
	t.Helper()
	registry := New(admin)
	store := state.NewMemory()
	txn, err := store.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	t.Cleanup(func() { _ = txn.Rollback() })
	return registry, txn
}

func mustRegister(t *testing.T, registry *Registry, txn state.Txn, owner chain.Principal) {
	t.Helper()
	if err := registry.RegisterAgent(txn, owner, "agent-"+string(owner), "", "", nil, 10); err != nil {
		t.Fatalf("register %s: %v", owner, err)
	}
}

func TestRegisterAgent(t *testing.T) {
	registry, txn := newTestRegistry(t)

	if err := registry.RegisterAgent(txn, agentOne, "", "", "", nil, 10); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty name rejected, got %v", err)
	}
	if err := registry.RegisterAgent(txn, agentOne, "search", "crawls and answers", "https://one.example", nil, 10); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.RegisterAgent(txn, agentOne, "search-2", "", "", nil, 11); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected duplicate rejected, got %v", err)
	}

	record, err := registry.GetAgent(txn, agentOne)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !record.Active || record.Reputation != InitialReputation || record.RegisteredAt != 10 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Description != "crawls and answers" {
		t.Fatalf("unexpected description: %q", record.Description)
	}

	ok, err := registry.IsRegistered(txn, agentTwo)
	if err != nil || ok {
		t.Fatalf("expected agent-2 unregistered, got %v, %v", ok, err)
	}
}

func TestRegisterAgentCapabilities(t *testing.T) {
	registry, txn := newTestRegistry(t)

	// Capabilities need no prior declaration; registering indexes them.
	if err := registry.RegisterAgent(txn, agentOne, "search", "", "", []string{"lookup", "ranking"}, 10); err != nil {
		t.Fatalf("register with capabilities: %v", err)
	}
	if err := registry.RegisterAgent(txn, agentTwo, "index", "", "", []string{"lookup"}, 11); err != nil {
		t.Fatalf("register second: %v", err)
	}

	owners, err := registry.GetAgentsByCapability(txn, "lookup")
	if err != nil {
		t.Fatalf("by capability: %v", err)
	}
	if len(owners) != 2 || owners[0] != agentOne || owners[1] != agentTwo {
		t.Fatalf("unexpected owners: %v", owners)
	}

	// Capabilities nobody carries read as empty, not as an error.
	owners, err = registry.GetAgentsByCapability(txn, "unknown")
	if err != nil || len(owners) != 0 {
		t.Fatalf("expected no owners, got %v, %v", owners, err)
	}

	capability, err := registry.GetCapability(txn, "lookup")
	if err != nil {
		t.Fatalf("get capability: %v", err)
	}
	if capability.Name != "lookup" || capability.AgentCount != 2 {
		t.Fatalf("unexpected capability: %+v", capability)
	}
	if _, err := registry.GetCapability(txn, "unknown"); !errors.Is(err, ErrCapabilityNotFound) {
		t.Fatalf("expected unknown capability, got %v", err)
	}
}

func TestRegisterCapability(t *testing.T) {
	registry, txn := newTestRegistry(t)

	if err := registry.RegisterCapability(txn, stranger, "lookup", ""); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected non-admin capability rejected, got %v", err)
	}
	if err := registry.RegisterCapability(txn, admin, "lookup", "exact-match retrieval"); err != nil {
		t.Fatalf("register capability: %v", err)
	}
	if err := registry.RegisterCapability(txn, admin, "lookup", "again"); !errors.Is(err, ErrCapabilityExists) {
		t.Fatalf("expected duplicate capability rejected, got %v", err)
	}

	// A declared capability is readable before any agent carries it.
	capability, err := registry.GetCapability(txn, "lookup")
	if err != nil {
		t.Fatalf("get capability: %v", err)
	}
	if capability.Description != "exact-match retrieval" || capability.AgentCount != 0 {
		t.Fatalf("unexpected capability: %+v", capability)
	}

	if err := registry.RegisterAgent(txn, agentOne, "search", "", "", []string{"lookup"}, 10); err != nil {
		t.Fatalf("register: %v", err)
	}
	capability, _ = registry.GetCapability(txn, "lookup")
	if capability.AgentCount != 1 {
		t.Fatalf("expected one carrier, got %+v", capability)
	}
}

func TestUpdateAgent(t *testing.T) {
	registry, txn := newTestRegistry(t)
	mustRegister(t, registry, txn, agentOne)

	name := "renamed"
	endpoint := "https://new.example"
	if err := registry.UpdateAgent(txn, agentOne, Update{Name: &name, Endpoint: &endpoint}); err != nil {
		t.Fatalf("update: %v", err)
	}
	record, _ := registry.GetAgent(txn, agentOne)
	if record.Name != "renamed" || record.Endpoint != "https://new.example" {
		t.Fatalf("unexpected record: %+v", record)
	}

	// Nil fields stay untouched.
	if err := registry.UpdateAgent(txn, agentOne, Update{}); err != nil {
		t.Fatalf("empty update: %v", err)
	}
	record, _ = registry.GetAgent(txn, agentOne)
	if record.Name != "renamed" {
		t.Fatalf("expected name preserved, got %s", record.Name)
	}

	empty := ""
	if err := registry.UpdateAgent(txn, agentOne, Update{Name: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected empty name rejected, got %v", err)
	}
	if err := registry.UpdateAgent(txn, stranger, Update{Name: &name}); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected unregistered caller rejected, got %v", err)
	}
}

func TestAuthorizationLifecycle(t *testing.T) {
	registry, txn := newTestRegistry(t)
	mustRegister(t, registry, txn, agentOne)

	if err := registry.AuthorizeAgent(txn, user, agentOne, 0, 100); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected zero duration rejected, got %v", err)
	}
	if err := registry.AuthorizeAgent(txn, user, agentOne, 10, 100); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	ok, err := registry.IsUserAuthorized(txn, user, agentOne, 105)
	if err != nil || !ok {
		t.Fatalf("expected authorized inside window, got %v, %v", ok, err)
	}
	// The grant stays valid through its expiry height and lapses after.
	ok, _ = registry.IsUserAuthorized(txn, user, agentOne, 110)
	if !ok {
		t.Fatal("expected valid at expiry height")
	}
	ok, _ = registry.IsUserAuthorized(txn, user, agentOne, 111)
	if ok {
		t.Fatal("expected expired past expiry height")
	}
	ok, _ = registry.IsUserAuthorized(txn, user, agentOne, 115)
	if ok {
		t.Fatal("expected expired past window")
	}

	// Re-authorizing replaces the expiry.
	if err := registry.AuthorizeAgent(txn, user, agentOne, 50, 120); err != nil {
		t.Fatalf("re-authorize: %v", err)
	}
	ok, _ = registry.IsUserAuthorized(txn, user, agentOne, 169)
	if !ok {
		t.Fatal("expected renewed grant valid")
	}

	if err := registry.RevokeAgentAuthorization(txn, user, agentOne); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, _ = registry.IsUserAuthorized(txn, user, agentOne, 130)
	if ok {
		t.Fatal("expected revoked grant invalid")
	}

	// Grants are per user.
	if err := registry.AuthorizeAgent(txn, user, agentOne, 10, 100); err != nil {
		t.Fatalf("authorize: %v", err)
	}
	ok, _ = registry.IsUserAuthorized(txn, stranger, agentOne, 105)
	if ok {
		t.Fatal("expected no grant for other user")
	}
}

func TestDeactivateAgent(t *testing.T) {
	registry, txn := newTestRegistry(t)
	mustRegister(t, registry, txn, agentOne)
	if err := registry.AuthorizeAgent(txn, user, agentOne, 100, 10); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	if err := registry.DeactivateAgent(txn, stranger, agentOne); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected non-admin deactivation rejected, got %v", err)
	}
	if err := registry.DeactivateAgent(txn, admin, agentOne); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	// The record survives but authorization checks fail.
	record, err := registry.GetAgent(txn, agentOne)
	if err != nil {
		t.Fatalf("get after deactivate: %v", err)
	}
	if record.Active {
		t.Fatal("expected inactive agent")
	}
	ok, _ := registry.IsUserAuthorized(txn, user, agentOne, 20)
	if ok {
		t.Fatal("expected inactive agent unauthorized")
	}

	// Inactive agents cannot receive new grants.
	if err := registry.AuthorizeAgent(txn, user, agentOne, 10, 20); !errors.Is(err, ErrAgentNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
	active, err := registry.IsAgentActive(txn, agentOne)
	if err != nil || active {
		t.Fatalf("expected inactive, got %v, %v", active, err)
	}

	// Reactivation through the owner's update restores unexpired grants.
	reactivate := true
	if err := registry.UpdateAgent(txn, agentOne, Update{Active: &reactivate}); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	ok, _ = registry.IsUserAuthorized(txn, user, agentOne, 20)
	if !ok {
		t.Fatal("expected surviving grant valid after reactivation")
	}
}

func TestRateAgent(t *testing.T) {
	registry, txn := newTestRegistry(t)
	mustRegister(t, registry, txn, agentOne)

	if err := registry.RateAgent(txn, user, agentOne, 6); !errors.Is(err, ErrRatingOutOfRange) {
		t.Fatalf("expected out of range, got %v", err)
	}
	if err := registry.RateAgent(txn, user, agentTwo, 5); !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected unknown agent, got %v", err)
	}

	if err := registry.RateAgent(txn, user, agentOne, 5); err != nil {
		t.Fatalf("rate: %v", err)
	}
	stats, err := registry.GetAgentRating(txn, agentOne)
	if err != nil {
		t.Fatalf("rating: %v", err)
	}
	if stats.Average() != 5 {
		t.Fatalf("expected average 5, got %d", stats.Average())
	}

	// The running average floors: (5+3+4)/3 = 4.
	if err := registry.RateAgent(txn, stranger, agentOne, 3); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if err := registry.RateAgent(txn, user, agentOne, 4); err != nil {
		t.Fatalf("rate: %v", err)
	}
	stats, _ = registry.GetAgentRating(txn, agentOne)
	if stats.Count != 3 || stats.Average() != 4 {
		t.Fatalf("expected 3 ratings averaging 4, got %+v", stats)
	}

	// Inactive agents cannot be rated.
	if err := registry.DeactivateAgent(txn, admin, agentOne); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if err := registry.RateAgent(txn, user, agentOne, 5); !errors.Is(err, ErrAgentNotActive) {
		t.Fatalf("expected not active, got %v", err)
	}
	stats, _ = registry.GetAgentRating(txn, agentOne)
	if stats.Count != 3 {
		t.Fatalf("expected rating count unchanged, got %+v", stats)
	}
}

func TestRecordTaskCompletion(t *testing.T) {
	registry, txn := newTestRegistry(t)
	mustRegister(t, registry, txn, agentOne)

	if err := registry.RecordTaskCompletion(txn, stranger, agentOne, true, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if err := registry.AuthorizeRecorder(txn, admin, stranger); err != nil {
		t.Fatalf("authorize recorder: %v", err)
	}

	if err := registry.RecordTaskCompletion(txn, stranger, agentOne, true, 3); err != nil {
		t.Fatalf("record success: %v", err)
	}
	record, _ := registry.GetAgent(txn, agentOne)
	if record.Reputation != InitialReputation+3*ReputationStep {
		t.Fatalf("expected 530, got %d", record.Reputation)
	}

	if err := registry.RecordTaskCompletion(txn, admin, agentOne, false, 5); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	record, _ = registry.GetAgent(txn, agentOne)
	if record.Reputation != 480 {
		t.Fatalf("expected 480, got %d", record.Reputation)
	}

	perf, err := registry.GetAgentPerformance(txn, agentOne)
	if err != nil {
		t.Fatalf("performance: %v", err)
	}
	if perf.TasksCompleted != 1 || perf.TasksFailed != 1 || perf.Reputation != 480 {
		t.Fatalf("unexpected performance: %+v", perf)
	}

	if err := registry.RecordTaskCompletion(txn, admin, agentOne, true, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected zero weight rejected, got %v", err)
	}

	if err := registry.RevokeRecorder(txn, admin, stranger); err != nil {
		t.Fatalf("revoke recorder: %v", err)
	}
	if err := registry.RecordTaskCompletion(txn, stranger, agentOne, true, 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized after revoke, got %v", err)
	}
}

func TestReputationBounds(t *testing.T) {
	registry, txn := newTestRegistry(t)
	mustRegister(t, registry, txn, agentOne)

	// Max weight successes clamp at the ceiling.
	for i := 0; i < 2; i++ {
		if err := registry.RecordTaskCompletion(txn, admin, agentOne, true, 100); err != nil {
			t.Fatalf("record success: %v", err)
		}
	}
	record, _ := registry.GetAgent(txn, agentOne)
	if record.Reputation != MaxReputation {
		t.Fatalf("expected clamp at %d, got %d", MaxReputation, record.Reputation)
	}

	// Failures floor at zero.
	for i := 0; i < 2; i++ {
		if err := registry.RecordTaskCompletion(txn, admin, agentOne, false, 100); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	record, _ = registry.GetAgent(txn, agentOne)
	if record.Reputation != 0 {
		t.Fatalf("expected floor 0, got %d", record.Reputation)
	}
}
