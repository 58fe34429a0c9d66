// Package bots contains the in-process simulation agents that drive the
// matching engine: random quoters that keep both sides of the book
// populated and a spread-capture market maker. All agents go through a
// shared ThrottledClient, which serializes access to the engine.
package bots

import (
	"context"

	"marketmaker/engine"
)

// Bot represents a trading agent that can be run under a supervisor.
type Bot interface {
	Start(ctx context.Context, client EngineClient)
}

// EngineClient abstracts the minimal surface bots need from the engine.
type EngineClient interface {
	SubmitOrder(ctx context.Context, req engine.OrderRequest) (engine.OrderResult, error)
	CancelOrder(user engine.UserId, id engine.OrderId) bool
	CancelAll(user engine.UserId)
	Snapshot() engine.MarketSnapshot
	InstrumentID() engine.InstrumentId
	TickSize() engine.Price
	TotalPnL(user engine.UserId) float64
}
