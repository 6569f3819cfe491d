package runtime

import (
	"github.com/calderafi/caldera/internal/ledger/agent"
	"github.com/calderafi/caldera/internal/ledger/chain"
	"github.com/calderafi/caldera/internal/ledger/state"
)

type registerAgentArgs struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Endpoint     string   `json:"endpoint,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

type updateAgentArgs struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Endpoint    *string `json:"endpoint,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

type agentArgs struct {
	Agent chain.Principal `json:"agent"`
}

type authorizeAgentArgs struct {
	Agent          chain.Principal `json:"agent"`
	DurationBlocks uint64          `json:"duration_blocks"`
}

type userAuthArgs struct {
	User  chain.Principal `json:"user"`
	Agent chain.Principal `json:"agent"`
}

type rateAgentArgs struct {
	Agent  chain.Principal `json:"agent"`
	Rating uint32          `json:"rating"`
}

type taskCompletionArgs struct {
	Agent   chain.Principal `json:"agent"`
	Success bool            `json:"success"`
	Weight  uint32          `json:"weight"`
}

type capabilityArgs struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type ratingResult struct {
	TotalPoints uint64 `json:"total_points"`
	Count       uint64 `json:"count"`
	Average     uint32 `json:"average"`
}

func (r *Runtime) agentHandlers() map[string]handler {
	return map[string]handler{
		"register-agent": func(txn state.Txn, call Call) (any, error) {
			var args registerAgentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.RegisterAgent(txn, call.Caller, args.Name, args.Description, args.Endpoint, args.Capabilities, call.Height)
		},
		"update-agent": func(txn state.Txn, call Call) (any, error) {
			var args updateAgentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.UpdateAgent(txn, call.Caller, agent.Update{Name: args.Name, Description: args.Description, Endpoint: args.Endpoint, Active: args.Active})
		},
		"deactivate-agent": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.DeactivateAgent(txn, call.Caller, args.Agent)
		},
		"authorize-agent": func(txn state.Txn, call Call) (any, error) {
			var args authorizeAgentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.AuthorizeAgent(txn, call.Caller, args.Agent, args.DurationBlocks, call.Height)
		},
		"revoke-agent-authorization": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.RevokeAgentAuthorization(txn, call.Caller, args.Agent)
		},
		"is-user-authorized": func(txn state.Txn, call Call) (any, error) {
			var args userAuthArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.IsUserAuthorized(txn, args.User, args.Agent, call.Height)
		},
		"rate-agent": func(txn state.Txn, call Call) (any, error) {
			var args rateAgentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.RateAgent(txn, call.Caller, args.Agent, args.Rating)
		},
		"get-agent-rating": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			stats, err := r.agents.GetAgentRating(txn, args.Agent)
			if err != nil {
				return nil, err
			}
			return ratingResult{TotalPoints: stats.TotalPoints, Count: stats.Count, Average: stats.Average()}, nil
		},
		"authorize-recorder": func(txn state.Txn, call Call) (any, error) {
			var args recorderArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.AuthorizeRecorder(txn, call.Caller, args.Recorder)
		},
		"revoke-recorder": func(txn state.Txn, call Call) (any, error) {
			var args recorderArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.RevokeRecorder(txn, call.Caller, args.Recorder)
		},
		"record-task-completion": func(txn state.Txn, call Call) (any, error) {
			var args taskCompletionArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.RecordTaskCompletion(txn, call.Caller, args.Agent, args.Success, args.Weight)
		},
		"register-capability": func(txn state.Txn, call Call) (any, error) {
			var args capabilityArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return nil, r.agents.RegisterCapability(txn, call.Caller, args.Name, args.Description)
		},
		"get-agents-by-capability": func(txn state.Txn, call Call) (any, error) {
			var args capabilityArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.GetAgentsByCapability(txn, args.Name)
		},
		"get-agent-performance": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.GetAgentPerformance(txn, args.Agent)
		},
		"is-agent-active": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.IsAgentActive(txn, args.Agent)
		},
		"get-capability": func(txn state.Txn, call Call) (any, error) {
			var args capabilityArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.GetCapability(txn, args.Name)
		},
		"get-agent": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.GetAgent(txn, args.Agent)
		},
		"is-registered": func(txn state.Txn, call Call) (any, error) {
			var args agentArgs
			if err := decodeArgs(call, &args); err != nil {
				return nil, err
			}
			return r.agents.IsRegistered(txn, args.Agent)
		},
	}
}
