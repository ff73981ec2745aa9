package router

import (
	"context"
	"time"
)

// TickInterval is how often a running cooldown is re-checked.
const TickInterval = 250 * time.Millisecond

// Cooldown is what the countdown needs from the abuse guard.
type Cooldown interface {
	IsCoolingDown() bool
	Remaining() time.Duration
	Expire() bool
}

type Tick struct {
	Remaining time.Duration
	// Seconds is Remaining rounded up, as shown to the user.
	Seconds int
	Done    bool
}

// Countdown re-checks wall-clock time on a fixed interval while a cooldown
// runs and stops as soon as it expires or its context ends.
type Countdown struct {
	cooldown  Cooldown
	interval  time.Duration
	newTicker func(time.Duration) (<-chan time.Time, func())
}

func NewCountdown(cooldown Cooldown) *Countdown {
	return &Countdown{
		cooldown: cooldown,
		interval: TickInterval,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			ticker := time.NewTicker(d)
			return ticker.C, ticker.Stop
		},
	}
}

// Run emits the current state immediately and then once per interval. When
// the cooldown is over it expires the guard state (which persists it),
// emits a Done tick and returns nil. Cancelling ctx stops the ticker and
// returns ctx.Err().
func (c *Countdown) Run(ctx context.Context, emit func(Tick)) error {
	if !c.cooldown.IsCoolingDown() {
		c.cooldown.Expire()
		emit(Tick{Done: true})
		return nil
	}
	emit(c.tick())

	ticks, stop := c.newTicker(c.interval)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticks:
			if !c.cooldown.IsCoolingDown() {
				c.cooldown.Expire()
				emit(Tick{Done: true})
				return nil
			}
			emit(c.tick())
		}
	}
}

func (c *Countdown) tick() Tick {
	remaining := c.cooldown.Remaining()
	return Tick{Remaining: remaining, Seconds: CeilSeconds(remaining)}
}

// CeilSeconds rounds a duration up to whole seconds.
func CeilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
