package engine

import (
	"container/list"
	"time"
)

const defaultSnapshotDepth = 10

// bookSide holds one side (bids or asks) of an OrderBook: a FIFO queue
// per price level plus a heap over occupied prices so the best level is
// always found in O(1) and a level can be dropped in O(log P).
type bookSide struct {
	levels map[Price]*list.List
	prices *priceHeap
}

func newBookSide(ascending bool) *bookSide {
	return &bookSide{
		levels: make(map[Price]*list.List),
		prices: newPriceHeap(ascending),
	}
}

func (s *bookSide) peekBest() (Price, *list.List, bool) {
	p, ok := s.prices.best()
	if !ok {
		return 0, nil, false
	}
	return p, s.levels[p], true
}

func (s *bookSide) insert(price Price, order *Order) *list.Element {
	lvl, ok := s.levels[price]
	if !ok {
		lvl = list.New()
		s.levels[price] = lvl
		s.prices.add(price)
	}
	return lvl.PushBack(order)
}

func (s *bookSide) removeLevelIfEmpty(price Price) {
	lvl, ok := s.levels[price]
	if !ok || lvl.Len() > 0 {
		return
	}
	delete(s.levels, price)
	s.prices.remove(price)
}

// topLevels returns up to depth occupied price levels in priority order,
// skipping any level whose remaining size sums to zero.
func (s *bookSide) topLevels(depth int) []PriceLevel {
	out := make([]PriceLevel, 0, depth)
	for _, p := range s.prices.sorted() {
		if len(out) >= depth {
			break
		}
		lvl := s.levels[p]
		var total Quantity
		for e := lvl.Front(); e != nil; e = e.Next() {
			o := e.Value.(*Order)
			total += o.Remaining()
		}
		if total > 0 {
			out = append(out, PriceLevel{Price: p, Size: total})
		}
	}
	return out
}

// restingOrder locates a live order within its book side for O(1) removal.
type restingOrder struct {
	order *Order
	side  *bookSide
	price Price
	elem  *list.Element
}

// OrderBook is the price-time priority matcher for one instrument. It is
// not safe for concurrent use; callers serialize all access to it.
type OrderBook struct {
	instrumentID InstrumentId
	bids         *bookSide
	asks         *bookSide
	orders       map[OrderId]*restingOrder
	lastPrice    Price
}

// NewOrderBook creates an empty book for the given instrument.
func NewOrderBook(instrumentID InstrumentId) *OrderBook {
	return &OrderBook{
		instrumentID: instrumentID,
		bids:         newBookSide(false),
		asks:         newBookSide(true),
		orders:       make(map[OrderId]*restingOrder),
	}
}

func crosses(side Side, orderPrice, bestPrice Price) bool {
	if side == Buy {
		return orderPrice >= bestPrice
	}
	return orderPrice <= bestPrice
}

// AddOrder matches order against the resting opposite side and, for any
// unfilled GFD remainder, books it. It mutates order in place and
// returns the fills produced, aggressor fill first within each pair.
//
// A post-only order that would cross on submission is rejected before
// any fill is produced and before any book state changes.
func (b *OrderBook) AddOrder(order *Order) []Fill {
	var opposite, same *bookSide
	if order.Side == Buy {
		opposite, same = b.asks, b.bids
	} else {
		opposite, same = b.bids, b.asks
	}

	if order.PostOnly {
		if bestPrice, _, ok := opposite.peekBest(); ok && crosses(order.Side, order.Price, bestPrice) {
			order.Status = Rejected
			return nil
		}
	}

	fills := make([]Fill, 0)
	for order.Remaining() > 0 {
		bestPrice, level, ok := opposite.peekBest()
		if !ok || !crosses(order.Side, order.Price, bestPrice) {
			break
		}

		for level.Len() > 0 && order.Remaining() > 0 {
			front := level.Front()
			passive := front.Value.(*Order)
			matchQty := min(order.Remaining(), passive.Remaining())

			ts := order.Timestamp
			fills = append(fills,
				Fill{OrderID: order.ID, UserID: order.UserID, InstrumentID: b.instrumentID, Side: order.Side, Price: bestPrice, Quantity: matchQty, Timestamp: ts},
				Fill{OrderID: passive.ID, UserID: passive.UserID, InstrumentID: b.instrumentID, Side: passive.Side, Price: bestPrice, Quantity: matchQty, Timestamp: ts},
			)

			order.FilledQuantity += matchQty
			passive.FilledQuantity += matchQty
			b.lastPrice = bestPrice

			if passive.Remaining() == 0 {
				passive.Status = Filled
				level.Remove(front)
				delete(b.orders, passive.ID)
			} else {
				passive.Status = Partial
			}
		}
		opposite.removeLevelIfEmpty(bestPrice)
	}

	switch {
	case order.Remaining() == 0:
		order.Status = Filled
	case order.TIF == IOC:
		order.Status = Cancelled
	default:
		elem := same.insert(order.Price, order)
		b.orders[order.ID] = &restingOrder{order: order, side: same, price: order.Price, elem: elem}
		if order.FilledQuantity > 0 {
			order.Status = Partial
		} else {
			order.Status = Pending
		}
	}

	return fills
}

// CancelOrder removes a resting order. It returns false if the order is
// not currently resting (unknown, already terminal, or already fully
// matched away).
func (b *OrderBook) CancelOrder(id OrderId) bool {
	ro, ok := b.orders[id]
	if !ok {
		return false
	}
	ro.side.levels[ro.price].Remove(ro.elem)
	ro.side.removeLevelIfEmpty(ro.price)
	delete(b.orders, id)
	ro.order.Status = Cancelled
	return true
}

// GetOrder returns a copy of a live resting order.
func (b *OrderBook) GetOrder(id OrderId) (Order, bool) {
	ro, ok := b.orders[id]
	if !ok {
		return Order{}, false
	}
	return *ro.order, true
}

// LiveOrders returns a copy of every order still resting on the book.
func (b *OrderBook) LiveOrders() []Order {
	out := make([]Order, 0, len(b.orders))
	for _, ro := range b.orders {
		out = append(out, *ro.order)
	}
	return out
}

// Snapshot returns a depth-limited view of both sides of the book.
func (b *OrderBook) Snapshot(depth int) MarketSnapshot {
	if depth <= 0 {
		depth = defaultSnapshotDepth
	}
	return MarketSnapshot{
		InstrumentID: b.instrumentID,
		Bids:         b.bids.topLevels(depth),
		Asks:         b.asks.topLevels(depth),
		LastPrice:    b.lastPrice,
		Timestamp:    time.Now(),
	}
}

// BestBid returns the best resting bid price, or 0 if the bid side is empty.
func (b *OrderBook) BestBid() Price {
	if p, _, ok := b.bids.peekBest(); ok {
		return p
	}
	return 0
}

// BestAsk returns the best resting ask price, or 0 if the ask side is empty.
func (b *OrderBook) BestAsk() Price {
	if p, _, ok := b.asks.peekBest(); ok {
		return p
	}
	return 0
}

// LastPrice returns the price of the most recent match, or 0 if none
// has occurred yet.
func (b *OrderBook) LastPrice() Price {
	return b.lastPrice
}
