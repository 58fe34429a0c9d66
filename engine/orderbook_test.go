package engine

import "testing"

func newTestOrder(id OrderId, user UserId, inst InstrumentId, side Side, price, qty Price) *Order {
	return &Order{
		ID:           id,
		UserID:       user,
		InstrumentID: inst,
		Side:         side,
		Price:        price,
		Quantity:     Quantity(qty),
		TIF:          GFD,
	}
}

func TestSimpleCross(t *testing.T) {
	ob := NewOrderBook(1)

	ask := newTestOrder(1, 1, 1, Sell, 101, 5)
	if fills := ob.AddOrder(ask); len(fills) != 0 {
		t.Fatalf("expected resting ask to produce no fills, got %v", fills)
	}

	bid := newTestOrder(2, 2, 1, Buy, 102, 3)
	fills := ob.AddOrder(bid)
	if len(fills) != 2 {
		t.Fatalf("expected one fill pair, got %d fills", len(fills))
	}
	if fills[0].OrderID != bid.ID || fills[1].OrderID != ask.ID {
		t.Fatalf("expected aggressor fill before passive fill, got %+v", fills)
	}
	if fills[0].Price != 101 || fills[1].Price != 101 {
		t.Fatalf("expected trade at resting price 101, got %+v", fills)
	}
	if bid.Status != Filled {
		t.Fatalf("expected aggressor fully filled, got %v", bid.Status)
	}
	if ask.Status != Partial || ask.Remaining() != 2 {
		t.Fatalf("expected passive partially filled with 2 remaining, got status=%v remaining=%d", ask.Status, ask.Remaining())
	}
}

func TestFIFOWithinPriceLevel(t *testing.T) {
	ob := NewOrderBook(1)

	first := newTestOrder(1, 1, 1, Buy, 100, 5)
	second := newTestOrder(2, 2, 1, Buy, 100, 5)
	ob.AddOrder(first)
	ob.AddOrder(second)

	taker := newTestOrder(3, 3, 1, Sell, 100, 6)
	fills := ob.AddOrder(taker)

	if fills[1].OrderID != first.ID || fills[1].Quantity != 5 {
		t.Fatalf("expected first resting order fully consumed first, got %+v", fills[1])
	}
	if fills[3].OrderID != second.ID || fills[3].Quantity != 1 {
		t.Fatalf("expected second resting order to take the remainder, got %+v", fills[3])
	}
}

func TestPostOnlyRejectsBeforeMatching(t *testing.T) {
	ob := NewOrderBook(1)

	resting := newTestOrder(1, 1, 1, Buy, 10000, 100)
	ob.AddOrder(resting)

	crossing := newTestOrder(2, 2, 1, Sell, 10000, 100)
	crossing.PostOnly = true
	fills := ob.AddOrder(crossing)

	if len(fills) != 0 {
		t.Fatalf("expected no fills from rejected post-only order, got %v", fills)
	}
	if crossing.Status != Rejected {
		t.Fatalf("expected post-only crosser to be REJECTED, got %v", crossing.Status)
	}
	snap := ob.Snapshot(10)
	if len(snap.Bids) != 1 || snap.Bids[0].Price != 10000 || snap.Bids[0].Size != 100 {
		t.Fatalf("expected resting bid untouched, got %+v", snap.Bids)
	}
}

func TestIOCCancelsUnfilledRemainder(t *testing.T) {
	ob := NewOrderBook(1)

	ask := newTestOrder(1, 1, 1, Sell, 100, 3)
	ob.AddOrder(ask)

	ioc := newTestOrder(2, 2, 1, Buy, 100, 10)
	ioc.TIF = IOC
	fills := ob.AddOrder(ioc)

	if len(fills) != 2 {
		t.Fatalf("expected one fill pair, got %d", len(fills))
	}
	if ioc.Status != Cancelled {
		t.Fatalf("expected unfilled IOC remainder cancelled, got %v", ioc.Status)
	}
	if _, ok := ob.GetOrder(ioc.ID); ok {
		t.Fatalf("IOC order should never rest on the book")
	}
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	ob := NewOrderBook(1)
	order := newTestOrder(1, 1, 1, Buy, 100, 5)
	ob.AddOrder(order)

	if !ob.CancelOrder(order.ID) {
		t.Fatalf("expected cancel to succeed")
	}
	if order.Status != Cancelled {
		t.Fatalf("expected status CANCELLED, got %v", order.Status)
	}
	if ob.BestBid() != 0 {
		t.Fatalf("expected empty bid side after cancel, got best bid %d", ob.BestBid())
	}
	if ob.CancelOrder(order.ID) {
		t.Fatalf("expected second cancel of the same order to fail")
	}
}

func TestSnapshotRespectsDepthBestFirst(t *testing.T) {
	ob := NewOrderBook(1)
	for i, px := range []Price{100, 99, 98, 97} {
		ob.AddOrder(newTestOrder(OrderId(i+1), 1, 1, Buy, px, 1))
	}

	snap := ob.Snapshot(2)
	if len(snap.Bids) != 2 {
		t.Fatalf("expected depth-limited to 2 levels, got %d", len(snap.Bids))
	}
	if snap.Bids[0].Price != 100 || snap.Bids[1].Price != 99 {
		t.Fatalf("expected best bids first, got %+v", snap.Bids)
	}
}

func TestSelfMatchPermitted(t *testing.T) {
	ob := NewOrderBook(1)
	ask := newTestOrder(1, 7, 1, Sell, 50, 4)
	ob.AddOrder(ask)

	bid := newTestOrder(2, 7, 1, Buy, 50, 4)
	fills := ob.AddOrder(bid)
	if len(fills) != 2 {
		t.Fatalf("expected a self-match to still produce a fill pair, got %d fills", len(fills))
	}
}
