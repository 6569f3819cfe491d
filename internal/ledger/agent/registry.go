package agent

import (
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

// RegisterAgent registers an agent for the caller and indexes it under each
// listed capability. Capabilities need no prior declaration. Agents start
// active with the initial reputation.
func (r *Registry) RegisterAgent(txn state.Txn, caller chain.Principal, name, description, endpoint string, capabilities []string, at chain.Height) error {
	if name == "" {
		return ErrInvalidInput
	}
	_, ok, err := txn.Get(state.NamespaceAgent, agentKey(caller))
	if err != nil {
		return err
	}
	if ok {
		return ErrAlreadyRegistered
	}

	record := Agent{
		Owner:        caller,
		Name:         name,
		Description:  description,
		Endpoint:     endpoint,
		Capabilities: capabilities,
		Active:       true,
		Reputation:   InitialReputation,
		RegisteredAt: uint64(at),
	}
	if err := state.PutJSON(txn, state.NamespaceAgent, agentKey(caller), record); err != nil {
		return err
	}
	for _, capName := range capabilities {
		if err := r.indexCapability(txn, capName, caller); err != nil {
			return err
		}
	}
	return nil
}

// UpdateAgent applies the non-nil fields of the update to the caller's own
// agent.
func (r *Registry) UpdateAgent(txn state.Txn, caller chain.Principal, update Update) error {
	record, err := r.requireAgent(txn, caller)
	if err != nil {
		return err
	}
	if update.Name != nil {
		if *update.Name == "" {
			return ErrInvalidInput
		}
		record.Name = *update.Name
	}
	if update.Description != nil {
		record.Description = *update.Description
	}
	if update.Endpoint != nil {
		record.Endpoint = *update.Endpoint
	}
	if update.Active != nil {
		record.Active = *update.Active
	}
	return state.PutJSON(txn, state.NamespaceAgent, agentKey(caller), record)
}

// DeactivateAgent marks an agent inactive. Admin only. The registration,
// ratings, and reputation are preserved, but authorization checks fail
// while inactive.
func (r *Registry) DeactivateAgent(txn state.Txn, caller, owner chain.Principal) error {
	if caller != r.admin {
		return ErrUnauthorized
	}
	record, err := r.requireAgent(txn, owner)
	if err != nil {
		return err
	}
	record.Active = false
	return state.PutJSON(txn, state.NamespaceAgent, agentKey(owner), record)
}

// AuthorizeAgent grants an active agent authority to act for the caller
// until height + durationBlocks. Re-authorizing replaces the previous
// expiry.
func (r *Registry) AuthorizeAgent(txn state.Txn, caller, agentOwner chain.Principal, durationBlocks uint64, at chain.Height) error {
	if durationBlocks == 0 {
		return ErrInvalidInput
	}
	record, err := r.requireAgent(txn, agentOwner)
	if err != nil {
		return err
	}
	if !record.Active {
		return ErrAgentNotActive
	}
	grant := Authorization{
		User:      caller,
		Agent:     agentOwner,
		ExpiresAt: uint64(at) + durationBlocks,
	}
	return state.PutJSON(txn, state.NamespaceAgent, authKey(caller, agentOwner), grant)
}

// RevokeAgentAuthorization removes the caller's grant for the agent.
func (r *Registry) RevokeAgentAuthorization(txn state.Txn, caller, agentOwner chain.Principal) error {
	return txn.Delete(state.NamespaceAgent, authKey(caller, agentOwner))
}

// IsUserAuthorized reports whether the agent may act for the user at the
// given height: the agent must exist, be active, and hold a grant that has
// not expired. Grants stay valid through their expiry height.
func (r *Registry) IsUserAuthorized(txn state.Txn, user, agentOwner chain.Principal, at chain.Height) (bool, error) {
	var record Agent
	ok, err := state.GetJSON(txn, state.NamespaceAgent, agentKey(agentOwner), &record)
	if err != nil {
		return false, err
	}
	if !ok || !record.Active {
		return false, nil
	}
	var grant Authorization
	ok, err = state.GetJSON(txn, state.NamespaceAgent, authKey(user, agentOwner), &grant)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return uint64(at) <= grant.ExpiresAt, nil
}

// RateAgent records a 0..5 rating for an active agent. Every rating counts
// toward the floored running average.
func (r *Registry) RateAgent(txn state.Txn, caller, agentOwner chain.Principal, rating uint32) error {
	if rating > MaxRating {
		return ErrRatingOutOfRange
	}
	record, err := r.requireAgent(txn, agentOwner)
	if err != nil {
		return err
	}
	if !record.Active {
		return ErrAgentNotActive
	}
	var stats RatingStats
	if _, err := state.GetJSON(txn, state.NamespaceAgent, ratingKey(agentOwner), &stats); err != nil {
		return err
	}
	stats.TotalPoints += uint64(rating)
	stats.Count++
	return state.PutJSON(txn, state.NamespaceAgent, ratingKey(agentOwner), stats)
}

// GetAgentRating returns the agent's rating aggregates.
func (r *Registry) GetAgentRating(txn state.Txn, agentOwner chain.Principal) (RatingStats, error) {
	if _, err := r.requireAgent(txn, agentOwner); err != nil {
		return RatingStats{}, err
	}
	var stats RatingStats
	if _, err := state.GetJSON(txn, state.NamespaceAgent, ratingKey(agentOwner), &stats); err != nil {
		return RatingStats{}, err
	}
	return stats, nil
}

// AuthorizeRecorder adds a principal to the task-recorder allow-list. Admin
// only.
func (r *Registry) AuthorizeRecorder(txn state.Txn, caller, recorder chain.Principal) error {
	if caller != r.admin {
		return ErrUnauthorized
	}
	return txn.Put(state.NamespaceAgent, recorderKey(recorder), []byte("1"))
}

// RevokeRecorder removes a principal from the task-recorder allow-list.
// Admin only.
func (r *Registry) RevokeRecorder(txn state.Txn, caller, recorder chain.Principal) error {
	if caller != r.admin {
		return ErrUnauthorized
	}
	return txn.Delete(state.NamespaceAgent, recorderKey(recorder))
}

// RecordTaskCompletion adjusts an agent's reputation after a task. Success
// earns weight * ReputationStep, failure costs the same, and the result is
// clamped to [0, MaxReputation]. Callers must be the admin or an authorized
// recorder.
func (r *Registry) RecordTaskCompletion(txn state.Txn, caller, agentOwner chain.Principal, success bool, weight uint32) error {
	if weight == 0 || weight > MaxReputation/ReputationStep {
		return ErrInvalidInput
	}
	if caller != r.admin {
		_, ok, err := txn.Get(state.NamespaceAgent, recorderKey(caller))
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnauthorized
		}
	}
	record, err := r.requireAgent(txn, agentOwner)
	if err != nil {
		return err
	}
	delta := weight * ReputationStep
	if success {
		record.TasksCompleted++
		record.Reputation += delta
		if record.Reputation > MaxReputation {
			record.Reputation = MaxReputation
		}
	} else {
		record.TasksFailed++
		if record.Reputation > delta {
			record.Reputation -= delta
		} else {
			record.Reputation = 0
		}
	}
	return state.PutJSON(txn, state.NamespaceAgent, agentKey(agentOwner), record)
}

// GetAgentPerformance returns the agent's reputation and task counters.
func (r *Registry) GetAgentPerformance(txn state.Txn, agentOwner chain.Principal) (Performance, error) {
	record, err := r.requireAgent(txn, agentOwner)
	if err != nil {
		return Performance{}, err
	}
	return Performance{
		Reputation:     record.Reputation,
		TasksCompleted: record.TasksCompleted,
		TasksFailed:    record.TasksFailed,
	}, nil
}

// IsAgentActive reports whether the agent exists and is active.
func (r *Registry) IsAgentActive(txn state.Txn, agentOwner chain.Principal) (bool, error) {
	var record Agent
	ok, err := state.GetJSON(txn, state.NamespaceAgent, agentKey(agentOwner), &record)
	if err != nil {
		return false, err
	}
	return ok && record.Active, nil
}

// RegisterCapability declares a capability with a description. Admin only.
// Agents may carry undeclared capabilities; declaring one attaches the
// description to it.
func (r *Registry) RegisterCapability(txn state.Txn, caller chain.Principal, name, description string) error {
	if caller != r.admin {
		return ErrUnauthorized
	}
	if name == "" {
		return ErrInvalidInput
	}
	_, declared, err := txn.Get(state.NamespaceAgent, capabilityKey(name))
	if err != nil {
		return err
	}
	if declared {
		return ErrCapabilityExists
	}
	return state.PutJSON(txn, state.NamespaceAgent, capabilityKey(name), capabilityRecord{Description: description})
}

// GetAgentsByCapability returns the owners of every agent registered with
// the capability, in registration order. Unknown capabilities yield an
// empty list.
func (r *Registry) GetAgentsByCapability(txn state.Txn, name string) ([]chain.Principal, error) {
	var owners []chain.Principal
	if _, err := state.GetJSON(txn, state.NamespaceAgent, capabilityIndexKey(name), &owners); err != nil {
		return nil, err
	}
	return owners, nil
}

// GetCapability returns a capability and how many agents carry it. A
// capability is known once an admin declares it or any agent registers
// with it.
func (r *Registry) GetCapability(txn state.Txn, name string) (Capability, error) {
	var declared capabilityRecord
	known, err := state.GetJSON(txn, state.NamespaceAgent, capabilityKey(name), &declared)
	if err != nil {
		return Capability{}, err
	}
	var owners []chain.Principal
	if _, err := state.GetJSON(txn, state.NamespaceAgent, capabilityIndexKey(name), &owners); err != nil {
		return Capability{}, err
	}
	if !known && len(owners) == 0 {
		return Capability{}, ErrCapabilityNotFound
	}
	return Capability{Name: name, Description: declared.Description, AgentCount: len(owners)}, nil
}

// GetAgent returns an agent by owner.
func (r *Registry) GetAgent(txn state.Txn, owner chain.Principal) (Agent, error) {
	return r.requireAgent(txn, owner)
}

// IsRegistered reports whether the principal owns an agent.
func (r *Registry) IsRegistered(txn state.Txn, owner chain.Principal) (bool, error) {
	_, ok, err := txn.Get(state.NamespaceAgent, agentKey(owner))
	return ok, err
}

func (r *Registry) requireAgent(txn state.Txn, owner chain.Principal) (Agent, error) {
	var record Agent
	ok, err := state.GetJSON(txn, state.NamespaceAgent, agentKey(owner), &record)
	if err != nil {
		return Agent{}, err
	}
	if !ok {
		return Agent{}, ErrAgentNotFound
	}
	return record, nil
}

func (r *Registry) indexCapability(txn state.Txn, name string, owner chain.Principal) error {
	var owners []chain.Principal
	if _, err := state.GetJSON(txn, state.NamespaceAgent, capabilityIndexKey(name), &owners); err != nil {
		return err
	}
	owners = append(owners, owner)
	return state.PutJSON(txn, state.NamespaceAgent, capabilityIndexKey(name), owners)
}
