package engine

import "github.com/shopspring/decimal"

const priceScale = 100

func signOf(q Quantity) int {
	switch {
	case q > 0:
		return 1
	case q < 0:
		return -1
	default:
		return 0
	}
}

func absQty(q Quantity) Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// ApplyFill folds one fill into a user's position, updating net quantity,
// VWAP cost basis, and realized P&L in place. It implements the four
// branches of the ledger: opening from flat, adding to an existing
// position, reducing it, and flipping through zero to the other side.
//
// A position is flipped when the post-fill sign differs from the
// pre-fill sign and the post-fill quantity is non-zero; the reducing
// leg of a flip realizes P&L against the old VWAP, and the new VWAP
// resets to the fill price for the remainder that opened the new side.
func ApplyFill(pos *Position, fill Fill) {
	signedQty := Quantity(fill.Quantity)
	if fill.Side == Sell {
		signedQty = -signedQty
	}

	switch {
	case pos.NetQty == 0:
		pos.VWAP = fill.Price
		pos.NetQty = signedQty

	case signOf(pos.NetQty) == signOf(signedQty):
		oldAbs := absQty(pos.NetQty)
		addAbs := absQty(signedQty)
		weighted := decimal.NewFromInt(int64(pos.VWAP)).Mul(decimal.NewFromInt(int64(oldAbs))).
			Add(decimal.NewFromInt(int64(fill.Price)).Mul(decimal.NewFromInt(int64(addAbs))))
		pos.VWAP = Price(weighted.DivRound(decimal.NewFromInt(int64(oldAbs+addAbs)), 0).IntPart())
		pos.NetQty += signedQty

	default:
		preSign := signOf(pos.NetQty)
		reduceQty := min(absQty(pos.NetQty), absQty(signedQty))

		perUnit := decimal.NewFromInt(int64(fill.Price - pos.VWAP)).Div(decimal.NewFromInt(priceScale))
		if preSign < 0 {
			perUnit = perUnit.Neg()
		}
		pos.RealizedPnL += perUnit.Mul(decimal.NewFromInt(int64(reduceQty))).InexactFloat64()

		pos.NetQty += signedQty
		postSign := signOf(pos.NetQty)
		if pos.NetQty == 0 {
			pos.VWAP = 0
		} else if preSign != postSign {
			pos.VWAP = fill.Price
		}
	}
}

// UnrealizedPnL computes mark-to-market P&L for a position at the given
// mark price without mutating the position. A flat position has no
// unrealized P&L regardless of mark.
func UnrealizedPnL(pos Position, mark Price) float64 {
	if pos.NetQty == 0 {
		return 0
	}
	perUnit := decimal.NewFromInt(int64(mark - pos.VWAP)).Div(decimal.NewFromInt(priceScale))
	return perUnit.Mul(decimal.NewFromInt(int64(pos.NetQty))).InexactFloat64()
}
