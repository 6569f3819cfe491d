package loan

import (
	"math/bits"

	"github.com/calderafi/caldera/internal/ledger/creditscore"
)

// BlocksPerYear is the block count interest accrual is normalized against.
const BlocksPerYear = 52560

// LiquidationPenalty is the score deduction applied to a borrower whose
// loan is liquidated.
const LiquidationPenalty = 100

// interestDivisor folds the basis-point scale into the annual block count.
const interestDivisor = BlocksPerYear * 10000

// MaxAmountForTier returns the largest principal a borrower in the given
// tier may request.
func MaxAmountForTier(tier creditscore.Tier) uint64 {
	switch tier {
	case creditscore.TierExcellent:
		return 10_000_000_000
	case creditscore.TierGood:
		return 5_000_000_000
	case creditscore.TierFair:
		return 2_000_000_000
	case creditscore.TierPoor:
		return 1_000_000_000
	default:
		return 500_000_000
	}
}

// RequiredCollateral returns the collateral a borrower with the given score
// must post for a principal: amount * (1000 - score) / 1000. A perfect score
// requires no collateral.
func RequiredCollateral(amount uint64, score uint32) (uint64, error) {
	if score >= creditscore.MaxScore {
		return 0, nil
	}
	return mulDiv(amount, uint64(creditscore.MaxScore-score), uint64(creditscore.MaxScore))
}

// accruedInterest computes principal * rateBps * elapsed / (52560 * 10000)
// using a 128-bit intermediate so large principals cannot silently wrap.
func accruedInterest(principal uint64, rateBps uint32, elapsed uint64) (uint64, error) {
	if principal == 0 || rateBps == 0 || elapsed == 0 {
		return 0, nil
	}
	if elapsed > ^uint64(0)/uint64(rateBps) {
		return 0, ErrAmountOverflow
	}
	return mulDiv(principal, uint64(rateBps)*elapsed, interestDivisor)
}

// mulDiv returns a*b/div with a 128-bit intermediate product. It fails
// rather than truncating when the quotient does not fit in 64 bits.
func mulDiv(a, b, div uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi >= div {
		return 0, ErrAmountOverflow
	}
	quot, _ := bits.Div64(hi, lo, div)
	return quot, nil
}
