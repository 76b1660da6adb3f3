package testutil

import (
	"strconv"
	"sync/atomic"
	"time"

	"photocat/internal/catalog"
)

var (
	_ catalog.Clock       = (*StubClock)(nil)
	_ catalog.IDGenerator = (*StubIDGenerator)(nil)
)

// StubClock reports a settable instant. Catalog rows store whole seconds, so
// the stored value is kept in Unix seconds.
type StubClock struct {
	unix atomic.Int64
}

// FixedClock returns a StubClock set to 2024-01-15 10:30:00 UTC.
func FixedClock() *StubClock {
	c := &StubClock{}
	c.Set(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	return c
}

func (c *StubClock) Now() time.Time { return time.Unix(c.unix.Load(), 0).UTC() }

// Set moves the clock to t, truncated to the second.
func (c *StubClock) Set(t time.Time) { c.unix.Store(t.Unix()) }

// Advance moves the clock forward by d.
func (c *StubClock) Advance(d time.Duration) { c.unix.Add(int64(d / time.Second)) }

// StubIDGenerator hands out "id-1", "id-2", ... in call order.
type StubIDGenerator struct {
	seq atomic.Int64
}

func NewStubIDGenerator() *StubIDGenerator { return &StubIDGenerator{} }

func (g *StubIDGenerator) New() string {
	return "id-" + strconv.FormatInt(g.seq.Add(1), 10)
}
