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

// Work-pool monitor defaults. The floor is tighter than the queue monitor's
// because the expiry warning band is only ten seconds wide; the loop has to
// be able to observe it.
const (
	DefaultWorkPoolInterval = 5 * time.Second
	MinWorkPoolInterval     = 5 * time.Second

	DefaultWorkPoolTable = "dcxstg-dev-converter-work-pool"
)

// WorkPoolClient is the resource-client capability the work-pool monitor
// depends on. Satisfied by awsclient.DynamoClient; tests substitute fakes.
type WorkPoolClient interface {
	ScanWorkPool(ctx context.Context, table string) ([]awsclient.WorkPoolRecord, error)
}

// WorkPoolDialer authenticates and returns a ready WorkPoolClient.
type WorkPoolDialer func(ctx context.Context, src awsclient.CredentialSource, region string) (WorkPoolClient, error)

// WorkPoolMonitor polls the DynamoDB work-pool table in the background and
// publishes expiry-classified snapshots, soonest-expiring first.
type WorkPoolMonitor struct {
	dial WorkPoolDialer
	loop *poller
	now  func() time.Time

	mu       sync.RWMutex
	region   string
	table    string
	interval time.Duration
	client   WorkPoolClient
	snapshot models.WorkPoolSnapshot
	lastErr  error
}

// NewWorkPoolMonitor builds a stopped monitor with default configuration.
func NewWorkPoolMonitor(dial WorkPoolDialer) *WorkPoolMonitor {
	m := &WorkPoolMonitor{
		dial:     dial,
		now:      time.Now,
		region:   "eu-west-1",
		table:    DefaultWorkPoolTable,
		interval: DefaultWorkPoolInterval,
	}
	m.loop = newPoller("workpool", m.effectiveInterval, m.pollCycle)
	return m
}

// Configure updates region, table name and poll interval. Legal while
// running; the loop picks the new values up on its next cycle.
func (m *WorkPoolMonitor) Configure(region, table string, interval time.Duration) {
	if interval < MinWorkPoolInterval {
		interval = MinWorkPoolInterval
	}

	m.mu.Lock()
	if region != "" {
		m.region = region
	}
	if table != "" {
		m.table = table
	}
	m.interval = interval
	m.mu.Unlock()

	log.Debug().
		Str("region", region).
		Str("table", table).
		Dur("interval", interval).
		Msg("Work-pool monitor configured")
}

// AuthenticateAndStart resolves credentials, keeps the authenticated client
// and only then starts the polling loop. An auth failure is returned
// synchronously and the monitor stays stopped.
func (m *WorkPoolMonitor) AuthenticateAndStart(ctx context.Context, src awsclient.CredentialSource) error {
	m.mu.RLock()
	region := m.region
	m.mu.RUnlock()

	client, err := m.dial(ctx, src, region)
	if err != nil {
		log.Error().Err(err).Str("region", region).Msg("Work-pool monitor authentication failed")
		if errors.IsAuthError(err) {
			return err
		}
		return errors.WrapAuthError("authenticate_dynamodb", region, err)
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
func (m *WorkPoolMonitor) Stop() {
	m.loop.Stop()
}

// Running reports whether the background loop is active.
func (m *WorkPoolMonitor) Running() bool {
	return m.loop.Running()
}

// Snapshot returns a defensive copy of the last published dataset.
func (m *WorkPoolMonitor) Snapshot() models.WorkPoolSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot.Clone()
}

// LastError surfaces the most recent cycle error.
func (m *WorkPoolMonitor) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// ClearError resets the surfaced error without touching the snapshot.
func (m *WorkPoolMonitor) ClearError() {
	m.mu.Lock()
	m.lastErr = nil
	m.mu.Unlock()
}

// EffectiveInterval reports the clamped interval the loop sleeps between
// cycles.
func (m *WorkPoolMonitor) EffectiveInterval() time.Duration {
	return m.effectiveInterval()
}

func (m *WorkPoolMonitor) effectiveInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.interval
}

// pollCycle runs one scan-classify-publish iteration. A failure records
// lastErr and leaves the previous snapshot untouched; the loop still sleeps
// the full interval before the next attempt.
func (m *WorkPoolMonitor) pollCycle(ctx context.Context) {
	start := time.Now()

	m.mu.RLock()
	client := m.client
	table := m.table
	m.mu.RUnlock()

	if client == nil {
		m.setError(errors.NewMonitorError(errors.ErrorTypeInternal, "poll_work_pool", table, errors.ErrInvalidInput))
		return
	}

	records, err := client.ScanWorkPool(ctx, table)
	metrics.RecordPollCycle("workpool", time.Since(start), err == nil)

	if err != nil {
		m.setError(err)
		log.Error().
			Err(err).
			Str("table", table).
			Dur("duration", time.Since(start)).
			Msg("Work-pool polling cycle failed; previous snapshot retained")
		return
	}

	snapshot := BuildWorkPoolSnapshot(records, m.now())
	metrics.RecordWorkPoolItems(countByStatus(snapshot.Items))

	m.mu.Lock()
	m.snapshot = snapshot
	m.lastErr = nil
	m.mu.Unlock()

	log.Debug().
		Int("items", len(snapshot.Items)).
		Str("table", table).
		Dur("duration", time.Since(start)).
		Msg("Work-pool polling cycle completed")
}

func (m *WorkPoolMonitor) setError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func countByStatus(items []models.WorkPoolItem) map[models.ItemStatus]int {
	counts := make(map[models.ItemStatus]int, 3)
	for _, item := range items {
		counts[item.Status]++
	}
	return counts
}
