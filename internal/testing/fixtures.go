package testing

import (
	"sync"
	"time"

	"github.com/aristath/satellite/internal/domain"
)

// FixedTime is the reference instant used by fixtures
var FixedTime = time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

// FakeClock is a settable domain.Clock
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at now
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now.UTC()}
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDays moves the clock forward by n calendar days
func (c *FakeClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

// NewHoldingFixtures returns a three-tier holding set matching the default formation
func NewHoldingFixtures() []domain.Holding {
	return []domain.Holding{
		{ID: "h-nvda", Ticker: "NVDA", Tier: 1, EntryPrice: 120, HoldShares: 10, GoalShares: 25},
		{ID: "h-msft", Ticker: "MSFT", Tier: 2, EntryPrice: 400, HoldShares: 2, GoalShares: 4},
		{ID: "h-googl", Ticker: "GOOGL", Tier: 3, EntryPrice: 170, HoldShares: 3, GoalShares: 6},
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
