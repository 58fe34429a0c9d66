package bots

import (
	"context"
	"time"

	"marketmaker/engine"
)

// SpreadCaptureBot maintains a paired post-only bid one tick below the
// mid and ask at the best ask, and re-prices when the mid moves or the
// pair outlives Lifetime. Post-only keeps its quotes
// passive: a quote that would cross is rejected by the book instead of
// taking liquidity.
type SpreadCaptureBot struct {
	UserID         engine.UserId
	Interval       time.Duration
	Lifetime       time.Duration
	ThresholdTicks int64
	Quantity       engine.Quantity
}

type pairedOrders struct {
	buyID     engine.OrderId
	sellID    engine.OrderId
	anchorMid engine.Price
	placedAt  time.Time
}

func NewSpreadCaptureBot(user engine.UserId) *SpreadCaptureBot {
	return &SpreadCaptureBot{
		UserID:         user,
		Interval:       300 * time.Millisecond,
		Lifetime:       3 * time.Second,
		ThresholdTicks: 3,
		Quantity:       1,
	}
}

func (b *SpreadCaptureBot) Start(ctx context.Context, client EngineClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	var pair *pairedOrders
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pair = b.refreshPair(ctx, client, client.Snapshot(), pair)
		}
	}
}

func (b *SpreadCaptureBot) refreshPair(ctx context.Context, client EngineClient, snap engine.MarketSnapshot, pair *pairedOrders) *pairedOrders {
	if len(snap.Bids) == 0 || len(snap.Asks) == 0 {
		return b.cancelPair(client, pair)
	}
	bid := snap.Bids[0].Price
	ask := snap.Asks[0].Price
	mid := (bid + ask) / 2
	threshold := engine.Price(b.ThresholdTicks) * client.TickSize()

	if pair != nil {
		if time.Since(pair.placedAt) > b.Lifetime {
			pair = b.cancelPair(client, pair)
		} else if absPrice(mid-pair.anchorMid) >= threshold {
			pair = b.cancelPair(client, pair)
		}
	}

	if pair != nil {
		return pair
	}

	buyPrice := bid
	if mid-client.TickSize() > 0 {
		buyPrice = mid - client.TickSize()
	}
	sellPrice := ask
	if sellPrice <= buyPrice {
		sellPrice = buyPrice + client.TickSize()
	}

	buyRes, err := client.SubmitOrder(ctx, engine.OrderRequest{
		UserID:       b.UserID,
		InstrumentID: client.InstrumentID(),
		Side:         engine.Buy,
		Price:        buyPrice,
		Quantity:     b.Quantity,
		TIF:          engine.GFD,
		PostOnly:     true,
	})
	if err != nil || !buyRes.Success {
		return nil
	}
	sellRes, err := client.SubmitOrder(ctx, engine.OrderRequest{
		UserID:       b.UserID,
		InstrumentID: client.InstrumentID(),
		Side:         engine.Sell,
		Price:        sellPrice,
		Quantity:     b.Quantity,
		TIF:          engine.GFD,
		PostOnly:     true,
	})
	if err != nil || !sellRes.Success {
		client.CancelOrder(b.UserID, buyRes.OrderID)
		return nil
	}

	return &pairedOrders{buyID: buyRes.OrderID, sellID: sellRes.OrderID, anchorMid: mid, placedAt: time.Now()}
}

func (b *SpreadCaptureBot) cancelPair(client EngineClient, pair *pairedOrders) *pairedOrders {
	if pair == nil {
		return nil
	}
	client.CancelOrder(b.UserID, pair.buyID)
	client.CancelOrder(b.UserID, pair.sellID)
	return nil
}

func absPrice(v engine.Price) engine.Price {
	if v < 0 {
		return -v
	}
	return v
}
