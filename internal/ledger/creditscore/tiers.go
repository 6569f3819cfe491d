package creditscore

// Tier is the discrete credit category derived from a score. The numeric
// levels 0..4 are part of the external read surface and must stay stable.
type Tier int

const (
	// TierVeryPoor covers scores below 500.
	TierVeryPoor Tier = iota
	// TierPoor covers scores 500-599.
	TierPoor
	// TierFair covers scores 600-699.
	TierFair
	// TierGood covers scores 700-799.
	TierGood
	// TierExcellent covers scores 800 and above.
	TierExcellent
)

// TierForScore maps a score to its tier using inclusive lower bounds.
func TierForScore(score uint32) Tier {
	switch {
	case score >= 800:
		return TierExcellent
	case score >= 700:
		return TierGood
	case score >= 600:
		return TierFair
	case score >= 500:
		return TierPoor
	default:
		return TierVeryPoor
	}
}

// Label returns a stable label for the tier.
func (t Tier) Label() string {
	switch t {
	case TierExcellent:
		return "excellent"
	case TierGood:
		return "good"
	case TierFair:
		return "fair"
	case TierPoor:
		return "poor"
	default:
		return "very-poor"
	}
}

// InterestRateBps returns the lending rate for the tier in basis points.
func (t Tier) InterestRateBps() uint32 {
	switch t {
	case TierExcellent:
		return 500
	case TierGood:
		return 800
	case TierFair:
		return 1200
	case TierPoor:
		return 1800
	default:
		return 2500
	}
}
