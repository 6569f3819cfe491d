// Package chain defines the shared vocabulary of the ledger core: principals
// (opaque wallet identities) and block heights (the external time source).
package chain

import "strings"

// Principal is an opaque account identity. The core never authenticates
// principals; the excluded gateway does that before calls reach the ledger.
type Principal string

// IsZero reports whether the principal is empty after trimming.
func (p Principal) IsZero() bool {
	return strings.TrimSpace(string(p)) == ""
}

// Height is the externally supplied, monotonically increasing block counter.
// All expiry and timelock comparisons use it; the core never reads a wall
// clock, so every state transition is deterministic and replayable.
type Height uint64
