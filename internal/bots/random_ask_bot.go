package bots

import (
	"context"
	"math/rand"
	"time"

	"marketmaker/engine"
)

// RandomAskBot places short-lived limit asks around the mid price.
type RandomAskBot struct {
	UserID     engine.UserId
	Interval   time.Duration
	Lifetime   time.Duration
	Quantity   engine.Quantity
	RangeTicks int64
	BasePrice  engine.Price
	rand       *rand.Rand
}

// NewRandomAskBot builds a bot with default pacing. BasePrice anchors
// quoting while the book is still empty.
func NewRandomAskBot(user engine.UserId, basePrice engine.Price) *RandomAskBot {
	return &RandomAskBot{
		UserID:     user,
		Interval:   200 * time.Millisecond,
		Lifetime:   2 * time.Second,
		Quantity:   1,
		RangeTicks: 5,
		BasePrice:  basePrice,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *RandomAskBot) Start(ctx context.Context, client EngineClient) {
	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.placeAsk(ctx, client)
		}
	}
}

func (b *RandomAskBot) placeAsk(ctx context.Context, client EngineClient) {
	mid := midPrice(client.Snapshot())
	if mid <= 0 {
		mid = b.BasePrice
	}
	if mid <= 0 {
		return
	}

	delta := engine.Price(b.rand.Int63n(b.RangeTicks+1)) * client.TickSize()
	price := mid + delta

	res, err := client.SubmitOrder(ctx, engine.OrderRequest{
		UserID:       b.UserID,
		InstrumentID: client.InstrumentID(),
		Side:         engine.Sell,
		Price:        price,
		Quantity:     b.Quantity,
		TIF:          engine.GFD,
	})
	if err != nil || !res.Success {
		return
	}

	go b.cancelAfter(ctx, client, res.OrderID)
}

func (b *RandomAskBot) cancelAfter(ctx context.Context, client EngineClient, orderID engine.OrderId) {
	timer := time.NewTimer(b.Lifetime)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		client.CancelOrder(b.UserID, orderID)
	}
}
