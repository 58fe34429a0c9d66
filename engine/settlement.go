package engine

import "github.com/shopspring/decimal"

// payoffPerContract returns the settlement payoff per unit quantity, in
// major currency units, before the tick-value multiplier.
func payoffPerContract(spec *InstrumentSpec, settlementValue Price) decimal.Decimal {
	scale := decimal.NewFromInt(priceScale)
	switch spec.Type {
	case Call:
		intrinsic := decimal.NewFromInt(int64(settlementValue - spec.Strike)).Div(scale)
		return decimal.Max(decimal.Zero, intrinsic)
	case Put:
		intrinsic := decimal.NewFromInt(int64(spec.Strike - settlementValue)).Div(scale)
		return decimal.Max(decimal.Zero, intrinsic)
	default: // Scalar
		return decimal.NewFromInt(int64(settlementValue)).Div(scale)
	}
}

// settlePosition resolves a single user's open position in spec to cash,
// folding the result into RealizedPnL and flattening the position. It
// mirrors the cost-basis subtraction the ledger already performs on a
// partial reduce: payoff minus cost basis, scaled by tick value.
func settlePosition(pos *Position, spec *InstrumentSpec, settlementValue Price) {
	if pos.NetQty == 0 {
		return
	}
	tickValue := decimal.NewFromFloat(spec.TickValue)
	payoff := payoffPerContract(spec, settlementValue).Mul(decimal.NewFromInt(int64(pos.NetQty))).Mul(tickValue)
	costBasis := decimal.NewFromInt(int64(pos.VWAP)).Div(decimal.NewFromInt(priceScale)).
		Mul(decimal.NewFromInt(int64(pos.NetQty))).Mul(tickValue)

	pos.RealizedPnL += payoff.Sub(costBasis).InexactFloat64()
	pos.UnrealizedPnL = 0
	pos.NetQty = 0
	pos.VWAP = 0
}
