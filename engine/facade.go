package engine

import (
	"sync/atomic"
	"time"
)

const (
	errInstrumentNotFound = "Instrument not found"
	errInstrumentHalted   = "Instrument is halted"
	errRiskLimitExceeded  = "Risk limit exceeded"
	errInvalidQuantity    = "Invalid quantity"
)

// activeOrderRef is the minimal handle the facade keeps for a live
// order. The facade never owns the order itself — the book does — so
// this index cannot drift out of sync with book state by construction:
// every place that mutates it also just finished calling into the book.
type activeOrderRef struct {
	UserID       UserId
	InstrumentID InstrumentId
}

// Engine is the single entry point callers use: instrument registry,
// order routing, position ledger, risk gate, and trade/fill history.
// It assumes caller-side serialization; the only field safe for
// concurrent access on its own is nextOrderID.
type Engine struct {
	nextOrderID uint64

	instruments map[InstrumentId]*InstrumentSpec
	books       map[InstrumentId]*OrderBook

	positions map[UserId]map[InstrumentId]*Position
	risk      map[UserId]RiskLimits

	activeOrders map[OrderId]activeOrderRef
	userOrders   map[UserId]map[OrderId]struct{}

	trades []TradeRecord
	fills  []Fill
	stats  Stats
}

// NewEngine returns an empty engine with no instruments registered.
func NewEngine() *Engine {
	return &Engine{
		instruments:  make(map[InstrumentId]*InstrumentSpec),
		books:        make(map[InstrumentId]*OrderBook),
		positions:    make(map[UserId]map[InstrumentId]*Position),
		risk:         make(map[UserId]RiskLimits),
		activeOrders: make(map[OrderId]activeOrderRef),
		userOrders:   make(map[UserId]map[OrderId]struct{}),
	}
}

// AddInstrument registers a new instrument and its order book. It
// returns false if the instrument id is already registered. Zero-valued
// TickSize, LotSize, and TickValue default to 1, 1, and 1.0.
func (e *Engine) AddInstrument(spec InstrumentSpec) bool {
	if _, exists := e.instruments[spec.ID]; exists {
		return false
	}
	if spec.TickSize == 0 {
		spec.TickSize = 1
	}
	if spec.LotSize == 0 {
		spec.LotSize = 1
	}
	if spec.TickValue == 0 {
		spec.TickValue = 1.0
	}
	stored := spec
	e.instruments[spec.ID] = &stored
	e.books[spec.ID] = NewOrderBook(spec.ID)
	return true
}

// HaltInstrument sets or clears an instrument's halted flag. It returns
// false if the instrument is unknown.
func (e *Engine) HaltInstrument(id InstrumentId, halted bool) bool {
	spec, ok := e.instruments[id]
	if !ok {
		return false
	}
	spec.IsHalted = halted
	return true
}

// GetInstrument returns a copy of an instrument's spec.
func (e *Engine) GetInstrument(id InstrumentId) (InstrumentSpec, bool) {
	spec, ok := e.instruments[id]
	if !ok {
		return InstrumentSpec{}, false
	}
	return *spec, ok
}

func (e *Engine) positionFor(user UserId, inst InstrumentId) *Position {
	byInst, ok := e.positions[user]
	if !ok {
		byInst = make(map[InstrumentId]*Position)
		e.positions[user] = byInst
	}
	pos, ok := byInst[inst]
	if !ok {
		pos = &Position{InstrumentID: inst}
		byInst[inst] = pos
	}
	return pos
}

func (e *Engine) currentQty(user UserId, inst InstrumentId) Quantity {
	byInst, ok := e.positions[user]
	if !ok {
		return 0
	}
	pos, ok := byInst[inst]
	if !ok {
		return 0
	}
	return pos.NetQty
}

// CheckRisk reports whether an order of side/qty for user in inst would
// keep the user's post-trade absolute position within their configured
// MaxPosition. Users with no configured limits are unrestricted.
func (e *Engine) CheckRisk(user UserId, inst InstrumentId, side Side, qty Quantity) bool {
	limits, ok := e.risk[user]
	return checkRisk(limits, ok, e.currentQty(user, inst), side, qty)
}

// SetRiskLimits installs (or replaces) a user's risk policy.
func (e *Engine) SetRiskLimits(user UserId, limits RiskLimits) {
	e.risk[user] = limits
}

// SubmitOrder validates, mints an id for, and routes a new order.
// Checks run in a fixed sequence: instrument exists, instrument not
// halted, risk check passes, quantity is positive. The risk check runs
// before the quantity check, so a risk-breaching request reports
// "Risk limit exceeded" even if its quantity is also invalid.
func (e *Engine) SubmitOrder(req OrderRequest) OrderResult {
	spec, ok := e.instruments[req.InstrumentID]
	if !ok {
		e.stats.TotalRejects++
		return OrderResult{Success: false, ErrorMessage: errInstrumentNotFound}
	}
	if spec.IsHalted {
		e.stats.TotalRejects++
		return OrderResult{Success: false, ErrorMessage: errInstrumentHalted}
	}
	if !e.CheckRisk(req.UserID, req.InstrumentID, req.Side, req.Quantity) {
		e.stats.TotalRejects++
		return OrderResult{Success: false, ErrorMessage: errRiskLimitExceeded}
	}
	if req.Quantity <= 0 {
		e.stats.TotalRejects++
		return OrderResult{Success: false, ErrorMessage: errInvalidQuantity}
	}

	id := OrderId(atomic.AddUint64(&e.nextOrderID, 1))
	order := &Order{
		ID:           id,
		UserID:       req.UserID,
		InstrumentID: req.InstrumentID,
		Side:         req.Side,
		Price:        req.Price,
		Quantity:     req.Quantity,
		TIF:          req.TIF,
		PostOnly:     req.PostOnly,
		Timestamp:    time.Now(),
	}

	book := e.books[req.InstrumentID]
	fills := book.AddOrder(order)

	if order.Status == Pending || order.Status == Partial {
		e.activeOrders[order.ID] = activeOrderRef{UserID: req.UserID, InstrumentID: req.InstrumentID}
		byUser, ok := e.userOrders[req.UserID]
		if !ok {
			byUser = make(map[OrderId]struct{})
			e.userOrders[req.UserID] = byUser
		}
		byUser[order.ID] = struct{}{}
	}

	e.recordFills(fills)
	e.pruneFilledPassive(book, fills)
	e.stats.TotalOrders++

	// A post-only order that would cross comes back with Status Rejected
	// and zero fills; that is not a submit failure, so Success stays true.
	return OrderResult{OrderID: order.ID, Success: true, Fills: fills}
}

// recordFills folds a fresh fill pair list into position ledgers, fill
// history, and trade history. Fills always arrive aggressor-first,
// passive-second.
func (e *Engine) recordFills(fills []Fill) {
	for i := 0; i+1 < len(fills); i += 2 {
		aggressor, passive := fills[i], fills[i+1]

		ApplyFill(e.positionFor(aggressor.UserID, aggressor.InstrumentID), aggressor)
		ApplyFill(e.positionFor(passive.UserID, passive.InstrumentID), passive)

		e.fills = append(e.fills, aggressor, passive)
		e.stats.TotalFills += 2

		record := TradeRecord{
			InstrumentID: aggressor.InstrumentID,
			Price:        aggressor.Price,
			Quantity:     aggressor.Quantity,
			Timestamp:    aggressor.Timestamp,
		}
		if aggressor.Side == Buy {
			record.BuyOrderID, record.BuyerID = aggressor.OrderID, aggressor.UserID
			record.SellOrderID, record.SellerID = passive.OrderID, passive.UserID
		} else {
			record.SellOrderID, record.SellerID = aggressor.OrderID, aggressor.UserID
			record.BuyOrderID, record.BuyerID = passive.OrderID, passive.UserID
		}
		e.trades = append(e.trades, record)
	}
}

// pruneFilledPassive drops passive orders the book fully consumed during
// matching from the facade's indices, keeping activeOrders and the
// book's own order map in agreement after every submit.
func (e *Engine) pruneFilledPassive(book *OrderBook, fills []Fill) {
	for i := 1; i < len(fills); i += 2 {
		id := fills[i].OrderID
		if _, live := book.GetOrder(id); live {
			continue
		}
		if ref, ok := e.activeOrders[id]; ok {
			delete(e.activeOrders, id)
			delete(e.userOrders[ref.UserID], id)
		}
	}
}

// CancelOrder cancels a resting order owned by user. It returns false if
// the order is unknown, already terminal, or not owned by user.
func (e *Engine) CancelOrder(user UserId, id OrderId) bool {
	ref, ok := e.activeOrders[id]
	if !ok || ref.UserID != user {
		return false
	}
	book := e.books[ref.InstrumentID]
	if !book.CancelOrder(id) {
		return false
	}
	delete(e.activeOrders, id)
	delete(e.userOrders[user], id)
	e.stats.TotalCancels++
	return true
}

// ReplaceOrder cancels an existing resting order and resubmits it with
// newPrice and/or newQuantity applied, preserving side, TIF, and
// post-only. A nil pointer keeps the existing value; newQuantity
// defaults to the order's remaining (unfilled) quantity, not its
// original quantity. The replacement is minted a fresh order id and
// joins the back of its price level's queue, losing time priority.
//
// If the resubmission fails validation the cancel has already taken
// effect and the user is left without the original order.
func (e *Engine) ReplaceOrder(user UserId, id OrderId, newPrice *Price, newQuantity *Quantity) bool {
	ref, ok := e.activeOrders[id]
	if !ok || ref.UserID != user {
		return false
	}
	book := e.books[ref.InstrumentID]
	old, ok := book.GetOrder(id)
	if !ok {
		return false
	}
	if !e.CancelOrder(user, id) {
		return false
	}

	req := OrderRequest{
		UserID:       old.UserID,
		InstrumentID: old.InstrumentID,
		Side:         old.Side,
		TIF:          old.TIF,
		PostOnly:     old.PostOnly,
		Price:        old.Price,
		Quantity:     old.Remaining(),
	}
	if newPrice != nil {
		req.Price = *newPrice
	}
	if newQuantity != nil {
		req.Quantity = *newQuantity
	}
	return e.SubmitOrder(req).Success
}

// CancelAll cancels every resting order owned by user. A user with no
// open orders is a no-op, not an error.
func (e *Engine) CancelAll(user UserId) bool {
	ids := make([]OrderId, 0, len(e.userOrders[user]))
	for id := range e.userOrders[user] {
		ids = append(ids, id)
	}
	for _, id := range ids {
		e.CancelOrder(user, id)
	}
	return true
}

// GetSnapshot returns a depth-limited view of an instrument's book, or
// an empty snapshot (InstrumentID 0) if the instrument is unknown.
func (e *Engine) GetSnapshot(inst InstrumentId) MarketSnapshot {
	book, ok := e.books[inst]
	if !ok {
		return MarketSnapshot{}
	}
	return book.Snapshot(defaultSnapshotDepth)
}

// GetOrders returns every order still resting on an instrument's book.
func (e *Engine) GetOrders(inst InstrumentId) []Order {
	book, ok := e.books[inst]
	if !ok {
		return nil
	}
	return book.LiveOrders()
}

// GetMarkPrice returns the instrument's last traded price if one
// exists, otherwise the midpoint of the best bid/ask, otherwise 0.
func (e *Engine) GetMarkPrice(inst InstrumentId) Price {
	book, ok := e.books[inst]
	if !ok {
		return 0
	}
	if last := book.LastPrice(); last != 0 {
		return last
	}
	bid, ask := book.BestBid(), book.BestAsk()
	if bid != 0 && ask != 0 {
		return (bid + ask) / 2
	}
	return 0
}

// GetPositions returns a copy of every open position held by user, with
// UnrealizedPnL computed fresh against the current mark price when one
// is available.
func (e *Engine) GetPositions(user UserId) []Position {
	byInst, ok := e.positions[user]
	if !ok {
		return nil
	}
	out := make([]Position, 0, len(byInst))
	for inst, pos := range byInst {
		if pos.NetQty == 0 {
			continue
		}
		copyPos := *pos
		if mark := e.GetMarkPrice(inst); mark > 0 {
			copyPos.UnrealizedPnL = UnrealizedPnL(copyPos, mark)
		}
		out = append(out, copyPos)
	}
	return out
}

// GetTotalPnL sums P&L across every position a user has ever held:
// realized P&L persists on flat positions, and open positions
// additionally contribute mark-to-market unrealized P&L.
func (e *Engine) GetTotalPnL(user UserId) float64 {
	var total float64
	for inst, pos := range e.positions[user] {
		total += pos.RealizedPnL
		if pos.NetQty != 0 {
			if mark := e.GetMarkPrice(inst); mark > 0 {
				total += UnrealizedPnL(*pos, mark)
			}
		}
	}
	return total
}

// SettleInstrument cash-settles every open position in inst against
// settlementValue using its payoff formula, folds the result into each
// holder's realized P&L, flattens their position, and halts the
// instrument. It returns false if the instrument is unknown.
func (e *Engine) SettleInstrument(inst InstrumentId, settlementValue Price) bool {
	spec, ok := e.instruments[inst]
	if !ok {
		return false
	}
	for _, byInst := range e.positions {
		pos, ok := byInst[inst]
		if !ok {
			continue
		}
		settlePosition(pos, spec, settlementValue)
	}
	spec.IsHalted = true
	return true
}

// GetStats returns a copy of the engine's running counters.
func (e *Engine) GetStats() Stats {
	return e.stats
}

// GetTradeHistory returns every trade recorded so far, oldest first.
func (e *Engine) GetTradeHistory() []TradeRecord {
	return append([]TradeRecord(nil), e.trades...)
}

// GetFillHistory returns every fill recorded so far, oldest first.
func (e *Engine) GetFillHistory() []Fill {
	return append([]Fill(nil), e.fills...)
}
