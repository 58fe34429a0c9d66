// Package engine implements the in-memory matching and accounting core of
// a market-making exchange: a price-time priority order book per
// instrument, a position ledger with VWAP and realized/unrealized P&L,
// scalar/call/put settlement, and the facade that ties them together
// behind a single-threaded, synchronous call surface.
package engine

import "time"

// UserId identifies a market participant.
type UserId uint32

// InstrumentId identifies a tradable instrument.
type InstrumentId uint32

// OrderId identifies a single order, monotonically increasing from 1.
type OrderId uint64

// Price is a fixed-point price in minor units (cents). 100 minor units
// equal one major currency unit wherever fractional value is computed.
type Price int64

// Quantity is a signed contract count. Negative values represent a short
// position; order quantities themselves are always positive.
type Quantity int64

// Side is the direction of an order.
type Side uint8

const (
	// Buy is a bid order.
	Buy Side = iota
	// Sell is an ask order.
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// TimeInForce controls how an unfilled remainder is treated.
type TimeInForce uint8

const (
	// GFD (Good-For-Day) rests on the book until cancelled or filled.
	GFD TimeInForce = iota
	// IOC (Immediate-Or-Cancel) matches immediately; any unfilled
	// remainder is cancelled and never booked.
	IOC
)

func (t TimeInForce) String() string {
	if t == IOC {
		return "IOC"
	}
	return "GFD"
}

// InstrumentType selects the settlement payoff formula for an instrument.
type InstrumentType uint8

const (
	// Scalar settles linearly against the settlement value.
	Scalar InstrumentType = iota
	// Call settles to max(0, settlement-strike).
	Call
	// Put settles to max(0, strike-settlement).
	Put
)

func (t InstrumentType) String() string {
	switch t {
	case Call:
		return "CALL"
	case Put:
		return "PUT"
	default:
		return "SCALAR"
	}
}

// OrderStatus tracks an order's lifecycle. Status never regresses: once
// FILLED, CANCELLED, or REJECTED it is terminal.
type OrderStatus uint8

const (
	// Pending has no fills yet and rests on the book.
	Pending OrderStatus = iota
	// Partial has some but not all quantity filled and rests on the book.
	Partial
	// Filled has all quantity filled; terminal.
	Filled
	// Cancelled was removed from the book before being fully filled;
	// terminal.
	Cancelled
	// Rejected never reached the book at all; terminal.
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Partial:
		return "PARTIAL"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// InstrumentSpec describes a tradable instrument. It is mutable only in
// IsHalted once registered; everything else is fixed at AddInstrument time.
type InstrumentSpec struct {
	ID          InstrumentId
	Symbol      string
	Type        InstrumentType
	ReferenceID InstrumentId // underlying, options only
	Strike      Price        // options only
	TickSize    Price
	LotSize     Quantity
	TickValue   float64
	IsHalted    bool
}

// OrderRequest is the caller-facing submission shape handed to
// Engine.SubmitOrder. Quantity is intentionally untagged for
// go-playground/validator: a non-positive quantity must surface as the
// engine's own "Invalid quantity" reject, not a generic validation
// failure, so SubmitOrder checks it directly instead of delegating to a
// struct tag.
type OrderRequest struct {
	UserID       UserId       `validate:"required"`
	InstrumentID InstrumentId `validate:"required"`
	Side         Side
	Price        Price
	Quantity     Quantity
	TIF          TimeInForce
	PostOnly     bool
}

// Order is a live or terminal order as tracked by the book.
//
// Invariants: 0 <= FilledQuantity <= Quantity; Status == Filled iff
// FilledQuantity == Quantity; Status never regresses.
type Order struct {
	ID             OrderId
	UserID         UserId
	InstrumentID   InstrumentId
	Side           Side
	Price          Price
	Quantity       Quantity
	FilledQuantity Quantity
	Status         OrderStatus
	TIF            TimeInForce
	PostOnly       bool
	Timestamp      time.Time
}

// Remaining returns the quantity left to fill.
func (o Order) Remaining() Quantity {
	return o.Quantity - o.FilledQuantity
}

// Fill is an immutable record of one side of a match. A single match
// always produces two fills, aggressor first, passive second.
type Fill struct {
	OrderID      OrderId
	UserID       UserId
	InstrumentID InstrumentId
	Side         Side
	Price        Price
	Quantity     Quantity
	Timestamp    time.Time
}

// TradeRecord is one per match, derived from a fill pair.
type TradeRecord struct {
	BuyOrderID   OrderId
	SellOrderID  OrderId
	BuyerID      UserId
	SellerID     UserId
	InstrumentID InstrumentId
	Price        Price
	Quantity     Quantity
	Timestamp    time.Time
}

// Position is a user's open exposure in one instrument.
//
// Invariant: NetQty == 0 implies VWAP == 0.
type Position struct {
	InstrumentID  InstrumentId
	NetQty        Quantity
	VWAP          Price
	RealizedPnL   float64
	UnrealizedPnL float64
}

// PriceLevel aggregates remaining size at one price.
type PriceLevel struct {
	Price Price
	Size  Quantity
}

// MarketSnapshot is a depth-limited view of one instrument's book.
// InstrumentID == 0 identifies an empty snapshot for an unknown
// instrument.
type MarketSnapshot struct {
	InstrumentID InstrumentId
	Bids         []PriceLevel
	Asks         []PriceLevel
	LastPrice    Price
	Timestamp    time.Time
}

// OrderResult is returned from SubmitOrder.
type OrderResult struct {
	OrderID      OrderId
	Success      bool
	ErrorMessage string
	Fills        []Fill
}

// Stats are running counters maintained by the facade.
type Stats struct {
	TotalOrders  uint64
	TotalFills   uint64
	TotalCancels uint64
	TotalRejects uint64
}
