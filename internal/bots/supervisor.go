package bots

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketmaker/engine"
)

// SwarmConfig sizes the default bot swarm.
type SwarmConfig struct {
	InstrumentID   engine.InstrumentId
	OrderInterval  time.Duration
	QuotersPerSide int
	BasePrice      engine.Price
}

// Supervisor orchestrates multiple bots over one shared throttled
// client and reports per-user P&L while they run.
type Supervisor struct {
	bots     []Bot
	users    []engine.UserId
	client   *ThrottledClient
	throttle *time.Ticker
	log      *zap.Logger
	runID    string
}

// NewSupervisor builds the swarm: QuotersPerSide random bid and ask
// bots plus one spread-capture market maker, each trading as its own
// user so the engine's per-user accounting keeps them apart.
func NewSupervisor(eng *engine.Engine, cfg SwarmConfig, log *zap.Logger) *Supervisor {
	throttle := time.NewTicker(cfg.OrderInterval)
	client := NewThrottledClient(eng, cfg.InstrumentID, throttle.C, log)

	var swarm []Bot
	var users []engine.UserId
	for i := 0; i < cfg.QuotersPerSide; i++ {
		bidder := engine.UserId(100 + i)
		asker := engine.UserId(200 + i)
		swarm = append(swarm, NewRandomBidBot(bidder, cfg.BasePrice), NewRandomAskBot(asker, cfg.BasePrice))
		users = append(users, bidder, asker)
	}
	maker := engine.UserId(300)
	swarm = append(swarm, NewSpreadCaptureBot(maker))
	users = append(users, maker)

	return &Supervisor{
		bots:     swarm,
		users:    users,
		client:   client,
		throttle: throttle,
		log:      log,
		runID:    uuid.NewString(),
	}
}

// Users returns the user ids the swarm trades as, in launch order.
func (s *Supervisor) Users() []engine.UserId {
	return s.users
}

// Client exposes the shared client, the serialization point for any
// additional engine access while the swarm runs.
func (s *Supervisor) Client() *ThrottledClient {
	return s.client
}

// Start launches all bots and P&L monitoring until the context is
// canceled, then cancels every bot's remaining orders.
func (s *Supervisor) Start(ctx context.Context) {
	s.log.Info("swarm starting",
		zap.String("run_id", s.runID),
		zap.Uint32("instrument", uint32(s.client.InstrumentID())),
		zap.Int("bots", len(s.bots)))

	logTicker := time.NewTicker(2 * time.Second)
	defer logTicker.Stop()
	defer s.throttle.Stop()

	for _, bot := range s.bots {
		b := bot
		go b.Start(ctx, s.client)
	}

	for {
		select {
		case <-ctx.Done():
			for _, user := range s.users {
				s.client.CancelAll(user)
			}
			s.log.Info("swarm stopped", zap.String("run_id", s.runID))
			return
		case <-logTicker.C:
			for _, user := range s.users {
				s.log.Info("pnl",
					zap.String("run_id", s.runID),
					zap.Uint32("user", uint32(user)),
					zap.Float64("total", s.client.TotalPnL(user)))
			}
		}
	}
}
