package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyFillOpensFromFlat(t *testing.T) {
	pos := &Position{}
	ApplyFill(pos, Fill{Side: Buy, Price: 10000, Quantity: 5})

	require.Equal(t, Quantity(5), pos.NetQty)
	require.Equal(t, Price(10000), pos.VWAP)
	require.Equal(t, 0.0, pos.RealizedPnL)
}

func TestApplyFillAddsSameSignWithVWAP(t *testing.T) {
	pos := &Position{NetQty: 5, VWAP: 10000}
	ApplyFill(pos, Fill{Side: Buy, Price: 10200, Quantity: 5})

	require.Equal(t, Quantity(10), pos.NetQty)
	require.Equal(t, Price(10100), pos.VWAP)
}

func TestApplyFillReducesAndRealizesPnL(t *testing.T) {
	pos := &Position{NetQty: 10, VWAP: 10000}
	ApplyFill(pos, Fill{Side: Sell, Price: 10100, Quantity: 4})

	require.Equal(t, Quantity(6), pos.NetQty)
	require.Equal(t, Price(10000), pos.VWAP)
	require.InDelta(t, 4.0, pos.RealizedPnL, 0.01)
}

func TestApplyFillFlipsThroughZero(t *testing.T) {
	pos := &Position{NetQty: 5, VWAP: 10000}
	ApplyFill(pos, Fill{Side: Sell, Price: 10100, Quantity: 8})

	require.Equal(t, Quantity(-3), pos.NetQty)
	require.Equal(t, Price(10100), pos.VWAP)
	require.InDelta(t, 5.0, pos.RealizedPnL, 0.01)
}

func TestApplyFillFlattensExactlyResetsVWAP(t *testing.T) {
	pos := &Position{NetQty: 5, VWAP: 10000}
	ApplyFill(pos, Fill{Side: Sell, Price: 10050, Quantity: 5})

	require.Equal(t, Quantity(0), pos.NetQty)
	require.Equal(t, Price(0), pos.VWAP)
	require.InDelta(t, 2.5, pos.RealizedPnL, 0.01)
}

func TestApplyFillShortSideRealizesOppositeSign(t *testing.T) {
	pos := &Position{NetQty: -5, VWAP: 10000}
	ApplyFill(pos, Fill{Side: Buy, Price: 9900, Quantity: 5})

	require.Equal(t, Quantity(0), pos.NetQty)
	require.InDelta(t, 5.0, pos.RealizedPnL, 0.01)
}

func TestUnrealizedPnLFlatIsZero(t *testing.T) {
	pos := Position{}
	require.Equal(t, 0.0, UnrealizedPnL(pos, 10000))
}

func TestUnrealizedPnLLongAboveVWAPIsPositive(t *testing.T) {
	pos := Position{NetQty: 10, VWAP: 10000}
	require.InDelta(t, 10.0, UnrealizedPnL(pos, 10100), 0.01)
}

func TestUnrealizedPnLShortAboveVWAPIsNegative(t *testing.T) {
	pos := Position{NetQty: -10, VWAP: 10000}
	require.InDelta(t, -10.0, UnrealizedPnL(pos, 10100), 0.01)
}
