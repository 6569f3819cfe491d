// Package errors provides structured error handling for the ledger core.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Input errors
	CodeInvalidInput     Code = "INVALID_INPUT"
	CodeLimitExceeded    Code = "LIMIT_EXCEEDED"
	CodeRatingOutOfRange Code = "RATING_OUT_OF_RANGE"

	// Lifecycle errors
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"
	CodeNotInitialized     Code = "NOT_INITIALIZED"
	CodeAlreadyRegistered  Code = "ALREADY_REGISTERED"
	CodeAlreadyExists      Code = "ALREADY_EXISTS"

	// State errors
	CodeNotFound               Code = "NOT_FOUND"
	CodeInvalidState           Code = "INVALID_STATE"
	CodeInsufficientCollateral Code = "INSUFFICIENT_COLLATERAL"
	CodeNotYetExpired          Code = "NOT_YET_EXPIRED"
	CodePendingActionNotFound  Code = "PENDING_ACTION_NOT_FOUND"
	CodeTimelockNotExpired     Code = "TIMELOCK_NOT_EXPIRED"
	CodeAgentNotActive         Code = "AGENT_NOT_ACTIVE"
)

// Numeric returns the stable wire code used by external callers. The numbers
// are part of the versioned call surface and must never be reassigned.
func (c Code) Numeric() int {
	switch c {
	case CodeUnauthorized:
		return 100
	case CodeInvalidInput:
		return 101
	case CodeLimitExceeded:
		return 102
	case CodeNotFound:
		return 103
	case CodeInvalidState:
		return 104
	case CodeInsufficientCollateral:
		return 105
	case CodeNotYetExpired:
		return 106
	case CodeAlreadyInitialized:
		return 107
	case CodeNotInitialized:
		return 108
	case CodePendingActionNotFound:
		return 109
	case CodeTimelockNotExpired:
		return 110
	case CodeRatingOutOfRange:
		return 111
	case CodeAgentNotActive:
		return 112
	case CodeAlreadyRegistered:
		return 113
	case CodeAlreadyExists:
		return 114
	default:
		return 0
	}
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidInput,
		CodeRatingOutOfRange:
		return codes.InvalidArgument

	// PermissionDenied - caller is not allowed to perform the operation
	case CodeUnauthorized:
		return codes.PermissionDenied

	// FailedPrecondition - state doesn't allow operation
	case CodeInvalidState,
		CodeNotInitialized,
		CodeInsufficientCollateral,
		CodeNotYetExpired,
		CodeTimelockNotExpired,
		CodeLimitExceeded,
		CodeAgentNotActive:
		return codes.FailedPrecondition

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodePendingActionNotFound:
		return codes.NotFound

	// AlreadyExists - unique resource constraint
	case CodeAlreadyInitialized,
		CodeAlreadyRegistered,
		CodeAlreadyExists:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
