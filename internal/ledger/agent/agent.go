// Package agent tracks autonomous agents acting on behalf of users: their
// registration, capabilities, time-bounded user authorizations, ratings, and
// a task-driven reputation. Deactivated agents keep their records but lose
// every authorization.
package agent

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	apperrors "github.com/calderafi/caldera/internal/platform/errors"
)

const (
	// InitialReputation is assigned at registration.
	InitialReputation = 500
	// MaxReputation bounds the reputation range.
	MaxReputation = 1000
	// ReputationStep is the reputation delta per unit of task weight.
	ReputationStep = 10
	// MaxRating is the highest rating a user may give.
	MaxRating = 5
)

var (
	// ErrUnauthorized indicates the caller may not perform the operation.
	ErrUnauthorized = apperrors.New(apperrors.CodeUnauthorized, "caller is not allowed to perform this operation")
	// ErrInvalidInput indicates a malformed registration or update.
	ErrInvalidInput = apperrors.New(apperrors.CodeInvalidInput, "invalid agent input")
	// ErrAlreadyRegistered indicates the caller already registered an agent.
	ErrAlreadyRegistered = apperrors.New(apperrors.CodeAlreadyRegistered, "agent already registered for this principal")
	// ErrAgentNotFound indicates an unknown agent principal.
	ErrAgentNotFound = apperrors.New(apperrors.CodeNotFound, "agent not found")
	// ErrAgentNotActive indicates an operation that requires an active agent.
	ErrAgentNotActive = apperrors.New(apperrors.CodeAgentNotActive, "agent is not active")
	// ErrRatingOutOfRange indicates a rating above the maximum.
	ErrRatingOutOfRange = apperrors.New(apperrors.CodeRatingOutOfRange, "rating is out of range")
	// ErrCapabilityExists indicates a duplicate capability registration.
	ErrCapabilityExists = apperrors.New(apperrors.CodeAlreadyExists, "capability already registered")
	// ErrCapabilityNotFound indicates a capability no agent carries and no
	// admin declared.
	ErrCapabilityNotFound = apperrors.New(apperrors.CodeNotFound, "capability not registered")
)

// Agent is the persisted registration record, keyed by the owning
// principal. One agent per principal.
type Agent struct {
	Owner          chain.Principal `json:"owner"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Endpoint       string          `json:"endpoint,omitempty"`
	Capabilities   []string        `json:"capabilities,omitempty"`
	Active         bool            `json:"active"`
	Reputation     uint32          `json:"reputation"`
	TasksCompleted uint64          `json:"tasks_completed"`
	TasksFailed    uint64          `json:"tasks_failed"`
	RegisteredAt   uint64          `json:"registered_at"`
}

// Update carries optional field changes for an agent. Nil fields are left
// untouched. Owners can deactivate and reactivate themselves through
// Active; existing unexpired grants come back with the agent.
type Update struct {
	Name        *string
	Description *string
	Endpoint    *string
	Active      *bool
}

// Performance is the task-derived view of an agent.
type Performance struct {
	Reputation     uint32 `json:"reputation"`
	TasksCompleted uint64 `json:"tasks_completed"`
	TasksFailed    uint64 `json:"tasks_failed"`
}

// Capability is a capability name and the agents that carry it. The
// description is set when the admin declares the capability; capabilities
// that only ever appeared on agent registrations have none.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AgentCount  int    `json:"agent_count"`
}

type capabilityRecord struct {
	Description string `json:"description,omitempty"`
}

// RatingStats accumulates user ratings for an agent. The average is the
// integer floor of TotalPoints / Count.
type RatingStats struct {
	TotalPoints uint64 `json:"total_points"`
	Count       uint64 `json:"count"`
}

// Average returns the floored average rating, 0 when unrated.
func (s RatingStats) Average() uint32 {
	if s.Count == 0 {
		return 0
	}
	return uint32(s.TotalPoints / s.Count)
}

// Authorization is a user's time-bounded grant to an agent.
type Authorization struct {
	User      chain.Principal `json:"user"`
	Agent     chain.Principal `json:"agent"`
	ExpiresAt uint64          `json:"expires_at"`
}

// Registry is the agent component. admin gates deactivation, capability
// registration, and the task-recorder allow list.
type Registry struct {
	admin chain.Principal
}

// New returns an agent registry.
func New(admin chain.Principal) *Registry {
	return &Registry{admin: admin}
}

func agentKey(owner chain.Principal) string {
	return "agent/" + string(owner)
}

func ratingKey(owner chain.Principal) string {
	return "rating/" + string(owner)
}

func authKey(user, agent chain.Principal) string {
	return "auth/" + string(user) + "/" + string(agent)
}

func capabilityKey(name string) string {
	return "cap/" + name
}

func capabilityIndexKey(name string) string {
	return "capidx/" + name
}

func recorderKey(account chain.Principal) string {
	return "recorder/" + string(account)
}
