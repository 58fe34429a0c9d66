package engine

// RiskLimits bounds one user's trading activity. Only MaxPosition is
// enforced by CheckRisk; MaxNotional and MaxOrdersPerSec are carried for
// callers that want to persist a fuller policy but are not evaluated by
// the matcher.
type RiskLimits struct {
	MaxPosition     Quantity
	MaxNotional     float64
	MaxOrdersPerSec uint32
}

// DefaultRiskLimits returns a conservative, non-permissive starting
// policy. The engine itself treats an absent RiskLimits entry as
// unrestricted; this constructor is for callers (internal/config) that
// want to opt a user into limits explicitly.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPosition:     10000,
		MaxNotional:     1000000,
		MaxOrdersPerSec: 50,
	}
}

// checkRisk reports whether submitting an order of side/qty for user in
// instrument would keep the user's post-trade absolute position, assuming
// the full requested quantity fills, within their configured
// MaxPosition. A user with no configured limits is unrestricted.
func checkRisk(limits RiskLimits, hasLimits bool, currentQty Quantity, side Side, qty Quantity) bool {
	if !hasLimits {
		return true
	}
	delta := qty
	if side == Sell {
		delta = -qty
	}
	return absQty(currentQty+delta) <= limits.MaxPosition
}
