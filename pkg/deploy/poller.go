/*
Copyright © 2025 NEURAL SYMPHONY

poller.go implements the bounded readiness poll against the bootstrap
sentinel file on the instance.
*/
package deploy

import (
	"context"
	"time"

	"github.com/neural-symphony/symphonyctl/pkg/config"
)

// Poller repeatedly runs a sentinel check until it succeeds or the attempt
// budget is exhausted. All check failures are treated identically and
// retried after a fixed interval.
type Poller struct {
	MaxAttempts int
	Interval    time.Duration

	// Check reports nil once the sentinel exists. Required.
	Check func(ctx context.Context) error

	// Progress is called at a coarse cadence with the attempt number.
	// Optional.
	Progress func(attempt int)

	// Sleep defaults to time.Sleep; tests inject their own.
	Sleep func(d time.Duration)
}

// NewPoller returns a Poller with the standard attempt budget and interval.
func NewPoller(check func(ctx context.Context) error) *Poller {
	return &Poller{
		MaxAttempts: config.MaxPollAttempts,
		Interval:    config.PollInterval,
		Check:       check,
	}
}

// Wait blocks until the sentinel is observed or attempts run out. Returns
// true when the sentinel was found. Exhaustion is not an error: the caller
// warns and continues.
func (p *Poller) Wait(ctx context.Context) bool {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return false
		}
		if err := p.Check(ctx); err == nil {
			return true
		}
		if p.Progress != nil && attempt%config.PollProgressEvery == 0 {
			p.Progress(attempt)
		}
		sleep(p.Interval)
	}
	return false
}
