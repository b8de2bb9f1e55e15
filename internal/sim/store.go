package sim

import (
	"fmt"
	"sync"

	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

// MarketStore holds the canonical market list for a session. Markets are
// never removed once loaded.
type MarketStore struct {
	mu      sync.RWMutex
	markets []domain.Market
	index   map[string]int
}

// NewMarketStore deep-copies markets into a new store.
func NewMarketStore(markets []domain.Market) *MarketStore {
	s := &MarketStore{
		markets: make([]domain.Market, len(markets)),
		index:   make(map[string]int, len(markets)),
	}
	for i, m := range markets {
		s.markets[i] = m.Clone()
		s.index[m.ID] = i
	}
	return s
}

// List returns every market in seed order.
func (s *MarketStore) List() []domain.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Market, len(s.markets))
	for i, m := range s.markets {
		out[i] = m.Clone()
	}
	return out
}

// ByStatus returns the markets with the given status, in seed order.
func (s *MarketStore) ByStatus(status domain.MarketStatus) []domain.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Market
	for _, m := range s.markets {
		if m.Status == status {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Live returns the markets the update scheduler may perturb.
func (s *MarketStore) Live() []domain.Market {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Market
	for _, m := range s.markets {
		if m.IsTradable() {
			out = append(out, m.Clone())
		}
	}
	return out
}

// Get returns the market with the given id.
func (s *MarketStore) Get(id string) (domain.Market, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("sim: market %q: %w", id, domain.ErrNotFound)
	}
	return s.markets[i].Clone(), nil
}

// Update applies fn to the stored market in place and returns the result.
func (s *MarketStore) Update(id string, fn func(m *domain.Market)) (domain.Market, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("sim: update market %q: %w", id, domain.ErrNotFound)
	}
	fn(&s.markets[i])
	return s.markets[i].Clone(), nil
}

// TotalVolume sums all-time volume across every market.
func (s *MarketStore) TotalVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	for _, m := range s.markets {
		sum += m.TotalVolume
	}
	return sum
}

// Volume24h sums 24h volume across every market.
func (s *MarketStore) Volume24h() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum float64
	for _, m := range s.markets {
		sum += m.Volume24h
	}
	return sum
}

// Summary returns both volume aggregates in one read.
func (s *MarketStore) Summary() domain.VolumeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := domain.VolumeSummary{Markets: len(s.markets)}
	for _, m := range s.markets {
		sum.TotalVolume += m.TotalVolume
		sum.Volume24h += m.Volume24h
	}
	return sum
}
