package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FabricioMatosSIlva/awswatch-go/internal/errors"
	"github.com/FabricioMatosSIlva/awswatch-go/internal/metrics"
	"github.com/FabricioMatosSIlva/awswatch-go/internal/models"
	"github.com/FabricioMatosSIlva/awswatch-go/pkg/awsclient"
)

// Queue monitor defaults. The interval floor keeps a misconfigured dashboard
// from hammering the SQS API.
const (
	DefaultQueueInterval = 30 * time.Second
	MinQueueInterval     = 10 * time.Second
)

// QueueClient is the resource-client capability the queue monitor depends
// on. Satisfied by awsclient.SQSClient; tests substitute fakes.
type QueueClient interface {
	GetQueueTarget(ctx context.Context, name string) (awsclient.QueueTarget, error)
	ListQueueTargets(ctx context.Context) ([]awsclient.QueueTarget, error)
	FetchQueueAttributes(ctx context.Context, target awsclient.QueueTarget) (awsclient.QueueAttributes, error)
}

// QueueDialer authenticates and returns a ready QueueClient.
type QueueDialer func(ctx context.Context, src awsclient.CredentialSource, region string) (QueueClient, error)

// QueueMonitor polls SQS queue counters in the background and publishes
// them as atomically replaced snapshots. One writer (the loop), many
// readers; readers never block on a poll cycle.
type QueueMonitor struct {
	dial QueueDialer
	loop *poller

	mu         sync.RWMutex
	region     string
	queueNames []string
	interval   time.Duration
	client     QueueClient
	snapshot   models.QueueSnapshot
	lastErr    error
}

// NewQueueMonitor builds a stopped monitor with default configuration.
func NewQueueMonitor(dial QueueDialer) *QueueMonitor {
	m := &QueueMonitor{
		dial:     dial,
		region:   "eu-west-1",
		interval: DefaultQueueInterval,
	}
	m.loop = newPoller("queues", m.effectiveInterval, m.pollCycle)
	return m
}

// Configure updates region, monitored queue names and poll interval. Legal
// while running; the loop picks the new values up on its next cycle. An
// empty queue list means "monitor every queue in the region".
func (m *QueueMonitor) Configure(region string, queueNames []string, interval time.Duration) {
	if interval < MinQueueInterval {
		interval = MinQueueInterval
	}

	m.mu.Lock()
	if region != "" {
		m.region = region
	}
	m.queueNames = append([]string(nil), queueNames...)
	m.interval = interval
	m.mu.Unlock()

	log.Debug().
		Str("region", region).
		Strs("queues", queueNames).
		Dur("interval", interval).
		Msg("Queue monitor configured")
}

// AuthenticateAndStart resolves credentials, keeps the authenticated client
// and only then starts the polling loop. An auth failure is returned
// synchronously and the monitor stays stopped.
func (m *QueueMonitor) AuthenticateAndStart(ctx context.Context, src awsclient.CredentialSource) error {
	m.mu.RLock()
	region := m.region
	m.mu.RUnlock()

	client, err := m.dial(ctx, src, region)
	if err != nil {
		log.Error().Err(err).Str("region", region).Msg("Queue monitor authentication failed")
		if errors.IsAuthError(err) {
			return err
		}
		return errors.WrapAuthError("authenticate_sqs", region, err)
	}

	m.mu.Lock()
	m.client = client
	m.lastErr = nil
	m.mu.Unlock()

	m.loop.Start(ctx)
	return nil
}

// Stop halts the polling loop. Configuration and the last published
// snapshot survive for a later restart.
func (m *QueueMonitor) Stop() {
	m.loop.Stop()
}

// Running reports whether the background loop is active.
func (m *QueueMonitor) Running() bool {
	return m.loop.Running()
}

// Snapshot returns a defensive copy of the last published dataset. Readers
// detect staleness by the age of CapturedAt, not by absence of data.
func (m *QueueMonitor) Snapshot() models.QueueSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// LastError surfaces the most recent cycle error, independent of snapshot
// state; an error can coexist with a still-valid prior snapshot.
func (m *QueueMonitor) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ClearError resets the surfaced error without touching the snapshot.
func (m *QueueMonitor) ClearError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

// EffectiveInterval reports the clamped interval the loop sleeps between
// cycles.
func (m *QueueMonitor) EffectiveInterval() time.Duration {
	return m.effectiveInterval()
}

func (m *QueueMonitor) effectiveInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.interval
}

// pollCycle runs one fetch-classify-publish iteration. A failure records
// lastErr and leaves the previous snapshot untouched; the loop still sleeps
// the full interval before the next attempt.
func (m *QueueMonitor) pollCycle(ctx context.Context) {
	start := time.Now()

	m.mu.RLock()
	client := m.client
	names := append([]string(nil), m.queueNames...)
	m.mu.RUnlock()

	if client == nil {
		m.setError(errors.NewMonitorError(errors.ErrorTypeInternal, "poll_queues", "", errors.ErrInvalidInput))
		return
	}

	stats, skipped, cycleErr := m.fetchQueues(ctx, client, names)
	metrics.RecordPollCycle("queues", time.Since(start), cycleErr == nil)

	if cycleErr != nil {
		m.setError(cycleErr)
		log.Error().
			Err(cycleErr).
			Dur("duration", time.Since(start)).
			Msg("Queue polling cycle failed; previous snapshot retained")
		return
	}

	snapshot := models.QueueSnapshot{Queues: stats, CapturedAt: time.Now()}
	for _, q := range stats {
		metrics.RecordQueueDepth(q.Name, q.MessagesAvailable, q.MessagesInFlight, q.MessagesDelayed)
	}

	// Swap instant only; the lock is never held across a fetch. A skipped
	// not-found target stays surfaced even though the cycle published.
	m.mu.Lock()
	m.snapshot = snapshot
	m.lastErr = skipped
	m.mu.Unlock()

	log.Debug().
		Int("queues", len(stats)).
		Dur("duration", time.Since(start)).
		Msg("Queue polling cycle completed")
}

// fetchQueues resolves targets and fetches counters for each. A queue that
// does not exist is skipped and reported, never fatal to the other targets.
func (m *QueueMonitor) fetchQueues(ctx context.Context, client QueueClient, names []string) (stats []models.QueueStats, skipped, fatal error) {
	var targets []awsclient.QueueTarget

	if len(names) == 0 {
		all, err := client.ListQueueTargets(ctx)
		if err != nil {
			return nil, nil, err
		}
		targets = all
	} else {
		for _, name := range names {
			target, err := client.GetQueueTarget(ctx, name)
			if err != nil {
				if errors.IsNotFoundError(err) {
					log.Warn().Str("queue", name).Msg("Queue not found; skipping")
					skipped = err
					continue
				}
				return nil, nil, err
			}
			targets = append(targets, target)
		}
	}

	stats = make([]models.QueueStats, 0, len(targets))
	for _, target := range targets {
		attrs, err := client.FetchQueueAttributes(ctx, target)
		if err != nil {
			if errors.IsNotFoundError(err) {
				log.Warn().Str("queue", target.Name).Msg("Queue vanished mid-cycle; skipping")
				skipped = err
				continue
			}
			return nil, nil, err
		}
		stats = append(stats, BuildQueueStats(attrs))
	}

	return stats, skipped, nil
}

func (m *QueueMonitor) setError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
