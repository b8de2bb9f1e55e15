package sim

import (
	"math"
	"sync"
	"time"

	"github.com/SlugMacro/wm-fe-sub000/internal/clock"
	"github.com/SlugMacro/wm-fe-sub000/internal/domain"
)

const (
	// MarketFlashDuration is how long a market's up/down flash lasts.
	MarketFlashDuration = 1200 * time.Millisecond

	minTickDelayMs   = 5_000
	tickDelayRangeMs = 25_001 // delays are 5s..30s inclusive

	maxMarketsPerTick = 4
	priceJitter       = 0.05
	volumeJitter      = 0.02
	chartScale        = 50
)

// UpdaterState is the lifecycle state of a LiveUpdater.
type UpdaterState string

const (
	UpdaterIdle     UpdaterState = "idle"
	UpdaterWaiting  UpdaterState = "waiting"
	UpdaterUpdating UpdaterState = "updating"
	UpdaterStopped  UpdaterState = "stopped"
)

// LiveUpdater perturbs a random subset of live markets at random intervals.
type LiveUpdater struct {
	store  *MarketStore
	clk    clock.Clock
	rng    Rand
	onTick func([]domain.LiveMarket)

	// seedPrices are captured once so 24h change is measured since load.
	seedPrices map[string]float64

	mu          sync.Mutex
	state       UpdaterState
	next        clock.Timer
	flashes     map[string]domain.Flash
	flashTimers map[string]clock.Timer
	ticks       int64
	gen         uint64

	onFlashCleared func(domain.LiveMarket)
}

// NewLiveUpdater binds an updater to store. onTick may be nil.
func NewLiveUpdater(store *MarketStore, clk clock.Clock, rng Rand, onTick func([]domain.LiveMarket)) *LiveUpdater {
	seeds := make(map[string]float64)
	for _, m := range store.List() {
		seeds[m.ID] = m.LastPrice
	}
	return &LiveUpdater{
		store:       store,
		clk:         clk,
		rng:         rng,
		onTick:      onTick,
		seedPrices:  seeds,
		state:       UpdaterIdle,
		flashes:     make(map[string]domain.Flash),
		flashTimers: make(map[string]clock.Timer),
	}
}

// OnFlashCleared registers fn to receive a market once its flash resets.
func (u *LiveUpdater) OnFlashCleared(fn func(domain.LiveMarket)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.onFlashCleared = fn
}

// Start schedules the first tick if at least one market is live. The check
// is made on every start from idle or stopped; an updater that finds no
// live market stays idle.
func (u *LiveUpdater) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != UpdaterIdle && u.state != UpdaterStopped {
		return
	}
	if len(u.store.Live()) == 0 {
		u.state = UpdaterIdle
		return
	}
	u.gen++
	u.state = UpdaterWaiting
	u.scheduleLocked()
}

// Stop cancels the pending tick and any pending flash resets. Flashes are
// dropped with their timers.
func (u *LiveUpdater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.state = UpdaterStopped
	u.gen++
	clear(u.flashes)
	if u.next != nil {
		u.next.Stop()
		u.next = nil
	}
	for id, t := range u.flashTimers {
		t.Stop()
		delete(u.flashTimers, id)
	}
}

// State returns the current lifecycle state.
func (u *LiveUpdater) State() UpdaterState {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Ticks returns how many ticks have run.
func (u *LiveUpdater) Ticks() int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ticks
}

// LiveMarkets projects every market together with its current flash.
func (u *LiveUpdater) LiveMarkets() []domain.LiveMarket {
	markets := u.store.List()
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]domain.LiveMarket, len(markets))
	for i, m := range markets {
		out[i] = domain.LiveMarket{Market: m, Flash: u.flashes[m.ID]}
	}
	return out
}

// Tick runs one update immediately, outside the timer schedule.
func (u *LiveUpdater) Tick() []domain.LiveMarket {
	u.mu.Lock()
	if u.state == UpdaterStopped {
		u.mu.Unlock()
		return nil
	}
	updated := u.tickLocked()
	u.mu.Unlock()
	if u.onTick != nil && len(updated) > 0 {
		u.onTick(updated)
	}
	return updated
}

func (u *LiveUpdater) fire(gen uint64) {
	u.mu.Lock()
	if u.state != UpdaterWaiting || u.gen != gen {
		u.mu.Unlock()
		return
	}
	u.state = UpdaterUpdating
	updated := u.tickLocked()
	u.state = UpdaterWaiting
	u.scheduleLocked()
	u.mu.Unlock()

	if u.onTick != nil && len(updated) > 0 {
		u.onTick(updated)
	}
}

func (u *LiveUpdater) scheduleLocked() {
	delay := time.Duration(minTickDelayMs+u.rng.IntN(tickDelayRangeMs)) * time.Millisecond
	gen := u.gen
	u.next = u.clk.AfterFunc(delay, func() { u.fire(gen) })
}

func (u *LiveUpdater) tickLocked() []domain.LiveMarket {
	candidates := u.store.Live()
	n := len(candidates)
	if n == 0 {
		return nil
	}
	u.ticks++

	k := 1 + u.rng.IntN(min(maxMarketsPerTick, n))
	// Partial Fisher-Yates: the first k slots end up a uniform sample.
	for i := 0; i < k; i++ {
		j := i + u.rng.IntN(n-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	updated := make([]domain.LiveMarket, 0, k)
	for _, c := range candidates[:k] {
		var flash domain.Flash
		m, err := u.store.Update(c.ID, func(m *domain.Market) {
			flash = perturb(m, u.seedPrices[m.ID], u.rng)
		})
		if err != nil {
			continue
		}
		u.setFlashLocked(m.ID, flash)
		updated = append(updated, domain.LiveMarket{Market: m, Flash: flash})
	}
	return updated
}

func (u *LiveUpdater) setFlashLocked(id string, flash domain.Flash) {
	if t, ok := u.flashTimers[id]; ok {
		t.Stop()
	}
	u.flashes[id] = flash
	var t clock.Timer
	t = u.clk.AfterFunc(MarketFlashDuration, func() {
		u.mu.Lock()
		if u.flashTimers[id] != t {
			u.mu.Unlock()
			return
		}
		delete(u.flashes, id)
		delete(u.flashTimers, id)
		hook := u.onFlashCleared
		u.mu.Unlock()

		if hook == nil {
			return
		}
		if m, err := u.store.Get(id); err == nil {
			hook(domain.LiveMarket{Market: m, Flash: domain.FlashNone})
		}
	})
	u.flashTimers[id] = t
}

// perturb applies one random step to m and returns the resulting flash.
// Random draws happen in a fixed order: price, volume, volume change.
func perturb(m *domain.Market, seedPrice float64, rng Rand) domain.Flash {
	old := m.LastPrice
	next := math.Max(domain.MinPrice, Round6(old*(1+signed(rng)*priceJitter)))
	m.LastPrice = next

	if seedPrice > 0 {
		m.PriceChange24h = Round2((next - seedPrice) / seedPrice * 100)
	}
	m.Volume24h = Round2(m.Volume24h * (1 + signed(rng)*volumeJitter))
	m.VolumeChange24h = Round2(m.VolumeChange24h + signed(rng))

	if n := len(m.ChartData); n > 0 {
		delta := 0.0
		if old > 0 {
			delta = (next - old) / old
		}
		sample := math.Max(1, Round2(m.ChartData[n-1]+delta*chartScale))
		copy(m.ChartData, m.ChartData[1:])
		m.ChartData[n-1] = sample
	}
	m.ChartColor = chartColor(m.ChartData)

	switch {
	case next > old:
		return domain.FlashUp
	case next < old:
		return domain.FlashDown
	default:
		return domain.FlashNone
	}
}
