package gree

import (
	"context"
	"time"
)

// pollLoop requests a status snapshot from every unit once at start and
// then every scan interval, running the availability watchdog before each poll.
func (b *Bridge) pollLoop(ctx context.Context) {
	defer b.wg.Done()

	b.pollAll()

	interval := b.cfg.GetScanInterval()
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case now := <-ticker.C:
			b.checkAvailability(now)
			b.pollAll()
		}
	}
}

func (b *Bridge) pollAll() {
	for _, id := range b.order {
		if err := b.units[id].engine.RequestStatus(); err != nil {
			b.errorsTotal.Add(1)
			b.logWarn("status request failed", "device_id", id, "error", err)
		}
	}
}

// checkAvailability marks units unavailable when no packet has arrived for
// longer than the unavailable timeout. Units never heard from are measured
// from bridge start.
func (b *Bridge) checkAvailability(now time.Time) {
	timeout := b.cfg.GetUnavailableTimeout()
	if timeout <= 0 {
		return
	}
	started := time.Unix(0, b.startedAt.Load())

	for _, id := range b.order {
		engine := b.units[id].engine
		last := engine.LastSeen()
		if last.IsZero() {
			last = started
		}
		if now.Sub(last) > timeout {
			engine.MarkUnavailable()
		}
	}
}
