package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// defaultStopGrace bounds how long Stop waits for an in-flight cycle to
// finish before giving up and returning anyway.
const defaultStopGrace = 5 * time.Second

// poller owns the lifecycle of one background polling loop. It runs
// fetch-classify-publish cycles on a fixed interval and never terminates on
// a cycle failure; errors are the cycle's to record.
//
// States: stopped -> running -> stopped. Restart re-enters running with a
// fresh loop goroutine; accumulated configuration is untouched.
type poller struct {
	name      string
	interval  func() time.Duration
	cycle     func(ctx context.Context)
	stopGrace time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newPoller(name string, interval func() time.Duration, cycle func(ctx context.Context)) *poller {
	return &poller{
		name:      name,
		interval:  interval,
		cycle:     cycle,
		stopGrace: defaultStopGrace,
	}
}

// Running reports whether the loop is currently active.
func (p *poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Start launches the loop goroutine and returns immediately. No-op when
// already running.
func (p *poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	log.Info().
		Str("monitor", p.name).
		Dur("interval", p.interval()).
		Msg("Starting monitoring loop")

	go p.run(ctx, stopCh, doneCh)
}

// Stop asks the loop to exit and waits up to stopGrace for it. An
// in-flight cycle is allowed to finish; it is never interrupted mid-fetch.
func (p *poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	doneCh := p.doneCh
	p.mu.Unlock()

	select {
	case <-doneCh:
		log.Info().Str("monitor", p.name).Msg("Monitoring loop stopped")
	case <-time.After(p.stopGrace):
		log.Warn().
			Str("monitor", p.name).
			Dur("grace", p.stopGrace).
			Msg("Monitoring loop did not exit within grace period; abandoning it")
	}
}

func (p *poller) run(ctx context.Context, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	// Immediate first cycle so readers see data without waiting an interval.
	p.cycle(ctx)

	for {
		// The interval is re-read every cycle so a Configure call takes
		// effect on the next sleep, not the in-flight one. A failed cycle
		// sleeps the full interval too: no fast retry, no backoff.
		timer := time.NewTimer(p.interval())

		select {
		case <-ctx.Done():
			timer.Stop()
			p.markStopped()
			return
		case <-stopCh:
			timer.Stop()
			return
		case <-timer.C:
			p.cycle(ctx)
		}
	}
}

// markStopped reconciles the running flag when the loop exits because the
// parent context was cancelled rather than through Stop.
func (p *poller) markStopped() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
}
