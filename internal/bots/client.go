package bots

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"marketmaker/engine"
)

// ThrottledClient wraps the engine with rate limiting, tick alignment,
// and request validation. The engine itself is single-threaded; the
// client's mutex is the serialization point for the whole swarm, so
// every bot must reach the engine through the same client.
type ThrottledClient struct {
	mu       sync.Mutex
	eng      *engine.Engine
	inst     engine.InstrumentId
	tickSize engine.Price
	throttle <-chan time.Time
	validate *validator.Validate
	log      *zap.Logger
}

// NewThrottledClient builds a client for one instrument. The instrument
// must already be registered on the engine.
func NewThrottledClient(eng *engine.Engine, inst engine.InstrumentId, throttle <-chan time.Time, log *zap.Logger) *ThrottledClient {
	tickSize := engine.Price(1)
	if spec, ok := eng.GetInstrument(inst); ok {
		tickSize = spec.TickSize
	}
	return &ThrottledClient{
		eng:      eng,
		inst:     inst,
		tickSize: tickSize,
		throttle: throttle,
		validate: validator.New(),
		log:      log,
	}
}

func (c *ThrottledClient) waitThrottle(ctx context.Context) error {
	if c.throttle == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.throttle:
		return nil
	}
}

// SubmitOrder validates and tick-aligns a request, then hands it to the
// engine. Engine-level rejects come back on the OrderResult, not as an
// error; the error return covers context cancellation and structurally
// invalid requests only.
func (c *ThrottledClient) SubmitOrder(ctx context.Context, req engine.OrderRequest) (engine.OrderResult, error) {
	if err := c.waitThrottle(ctx); err != nil {
		return engine.OrderResult{}, err
	}
	if req.InstrumentID == 0 {
		req.InstrumentID = c.inst
	}
	if err := c.validate.Struct(req); err != nil {
		return engine.OrderResult{}, err
	}
	if req.Price > 0 && req.Price%c.tickSize != 0 {
		req.Price = (req.Price / c.tickSize) * c.tickSize
	}

	c.mu.Lock()
	res := c.eng.SubmitOrder(req)
	c.mu.Unlock()

	if !res.Success {
		c.log.Debug("order rejected",
			zap.Uint32("user", uint32(req.UserID)),
			zap.String("side", req.Side.String()),
			zap.Int64("price", int64(req.Price)),
			zap.Int64("qty", int64(req.Quantity)),
			zap.String("reason", res.ErrorMessage))
	}
	return res, nil
}

func (c *ThrottledClient) CancelOrder(user engine.UserId, id engine.OrderId) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.CancelOrder(user, id)
}

func (c *ThrottledClient) CancelAll(user engine.UserId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eng.CancelAll(user)
}

func (c *ThrottledClient) Snapshot() engine.MarketSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.GetSnapshot(c.inst)
}

func (c *ThrottledClient) InstrumentID() engine.InstrumentId {
	return c.inst
}

func (c *ThrottledClient) TickSize() engine.Price {
	return c.tickSize
}

func (c *ThrottledClient) TotalPnL(user engine.UserId) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.GetTotalPnL(user)
}

// Stats returns the engine's running counters.
func (c *ThrottledClient) Stats() engine.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eng.GetStats()
}
