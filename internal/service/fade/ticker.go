package fade

import "time"

// Ticker delivers ticks until stopped.
type Ticker interface {
	// C returns the tick channel.
	C() <-chan time.Time
	// Stop releases the ticker.
	Stop()
}

// TickerFactory creates a ticker with the given interval.
type TickerFactory func(interval time.Duration) Ticker

// NewTicker is the TickerFactory backed by time.Ticker.
func NewTicker(interval time.Duration) Ticker {
	return &timeTicker{ticker: time.NewTicker(interval)}
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t *timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t *timeTicker) Stop() {
	t.ticker.Stop()
}
