package engine

import (
	"container/heap"
	"sort"
)

// priceHeap tracks the set of occupied price levels on one side of a
// book, ordered so the best price is always the root. Bids use a
// max-heap (highest price first); asks use a min-heap (lowest price
// first). Each price carries an index into prices so an arbitrary level
// can be removed in O(log P) once its last order is gone.
type priceHeap struct {
	prices    []Price
	index     map[Price]int
	ascending bool
}

func newPriceHeap(ascending bool) *priceHeap {
	return &priceHeap{
		prices:    make([]Price, 0),
		index:     make(map[Price]int),
		ascending: ascending,
	}
}

func (h priceHeap) Len() int { return len(h.prices) }

func (h priceHeap) Less(i, j int) bool {
	if h.ascending {
		return h.prices[i] < h.prices[j]
	}
	return h.prices[i] > h.prices[j]
}

func (h priceHeap) Swap(i, j int) {
	h.prices[i], h.prices[j] = h.prices[j], h.prices[i]
	h.index[h.prices[i]] = i
	h.index[h.prices[j]] = j
}

func (h *priceHeap) Push(x any) {
	p := x.(Price)
	h.index[p] = len(h.prices)
	h.prices = append(h.prices, p)
}

func (h *priceHeap) Pop() any {
	old := h.prices
	n := len(old)
	p := old[n-1]
	delete(h.index, p)
	h.prices = old[:n-1]
	return p
}

// best returns the top-priority price and whether one exists.
func (h *priceHeap) best() (Price, bool) {
	if len(h.prices) == 0 {
		return 0, false
	}
	return h.prices[0], true
}

// add inserts a new price level into the heap. Callers must only call
// this for a price not already present.
func (h *priceHeap) add(p Price) {
	heap.Push(h, p)
}

// remove drops a price level from the heap. Callers must only call this
// for a price known to be present.
func (h *priceHeap) remove(p Price) {
	if idx, ok := h.index[p]; ok {
		heap.Remove(h, idx)
	}
}

// sorted returns every occupied price in priority order. Used only for
// building depth snapshots; the heap array itself only guarantees the
// root is in priority order.
func (h *priceHeap) sorted() []Price {
	out := make([]Price, len(h.prices))
	copy(out, h.prices)
	sort.Slice(out, func(i, j int) bool {
		if h.ascending {
			return out[i] < out[j]
		}
		return out[i] > out[j]
	})
	return out
}
