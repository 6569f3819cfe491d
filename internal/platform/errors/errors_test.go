package errors

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := New(CodeUnauthorized, "caller is not the admin")
	b := New(CodeUnauthorized, "different message")

	if !errors.Is(a, b) {
		t.Fatalf("expected errors with the same code to match")
	}
	if errors.Is(a, New(CodeNotFound, "caller is not the admin")) {
		t.Fatalf("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := New(CodeNotInitialized, "credit ledger is not initialized")
	wrapped := Wrap(CodeInvalidState, "fund loan", cause)

	if !errors.Is(wrapped, cause) {
		t.Fatalf("expected wrapped error to match its cause")
	}
	if wrapped.Unwrap() != cause {
		t.Fatalf("expected Unwrap to return the cause")
	}
}

func TestWithMetaDerivesFromSentinel(t *testing.T) {
	sentinel := New(CodeLimitExceeded, "loan amount exceeds tier maximum")
	derived := sentinel.WithMeta(map[string]string{"max_amount": "5000000000"})

	if !errors.Is(derived, sentinel) {
		t.Fatalf("expected derived error to match its sentinel")
	}
	if derived.Message != sentinel.Message || derived.Code != sentinel.Code {
		t.Fatalf("expected code and message preserved, got %+v", derived)
	}
	if sentinel.Metadata != nil {
		t.Fatalf("expected sentinel untouched, got %+v", sentinel.Metadata)
	}
	if derived.Metadata["max_amount"] != "5000000000" {
		t.Fatalf("expected metadata on the copy, got %+v", derived.Metadata)
	}
}

func TestCodeOfWalksChain(t *testing.T) {
	cause := New(CodeTimelockNotExpired, "timelock has not expired")
	wrapped := fmt.Errorf("execute action: %w", cause)

	if got := CodeOf(wrapped); got != CodeTimelockNotExpired {
		t.Fatalf("expected timelock code, got %q", got)
	}
	if got := CodeOf(errors.New("plain")); got != CodeUnknown {
		t.Fatalf("expected unknown code for plain error, got %q", got)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Fatalf("expected unknown code for nil error, got %q", got)
	}
}

func TestNumericCodesAreStable(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeUnauthorized, 100},
		{CodeInvalidInput, 101},
		{CodeLimitExceeded, 102},
		{CodeNotFound, 103},
		{CodeInvalidState, 104},
		{CodeInsufficientCollateral, 105},
		{CodeNotYetExpired, 106},
		{CodeAlreadyInitialized, 107},
		{CodeNotInitialized, 108},
		{CodePendingActionNotFound, 109},
		{CodeTimelockNotExpired, 110},
		{CodeRatingOutOfRange, 111},
		{CodeAgentNotActive, 112},
		{CodeAlreadyRegistered, 113},
		{CodeAlreadyExists, 114},
		{CodeUnknown, 0},
	}
	for _, tc := range tests {
		if got := tc.code.Numeric(); got != tc.want {
			t.Fatalf("code %q: expected numeric %d, got %d", tc.code, tc.want, got)
		}
	}
}

func TestToGRPCStatusCarriesReason(t *testing.T) {
	err := WithMetadata(CodeInsufficientCollateral, "collateral below required amount", map[string]string{
		"Required": "500000000",
		"Supplied": "200000000",
	})

	st, ok := status.FromError(err.ToGRPCStatus())
	if !ok {
		t.Fatalf("expected a gRPC status error")
	}
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("expected FailedPrecondition, got %v", st.Code())
	}
	if st.Message() != "collateral below required amount" {
		t.Fatalf("unexpected status message %q", st.Message())
	}
}
