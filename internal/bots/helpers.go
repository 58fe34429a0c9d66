package bots

import "marketmaker/engine"

func midPrice(snap engine.MarketSnapshot) engine.Price {
	bid := engine.Price(0)
	ask := engine.Price(0)
	if len(snap.Bids) > 0 {
		bid = snap.Bids[0].Price
	}
	if len(snap.Asks) > 0 {
		ask = snap.Asks[0].Price
	}

	switch {
	case bid > 0 && ask > 0:
		return (bid + ask) / 2
	case bid > 0:
		return bid
	case ask > 0:
		return ask
	default:
		return snap.LastPrice
	}
}
