package monitoring

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/FabricioMatosSIlva/awswatch-go/internal/errors"
	"github.com/FabricioMatosSIlva/awswatch-go/pkg/awsclient"
)

// fakeQueueClient scripts per-queue responses for a cycle.
type fakeQueueClient struct {
	mu        sync.Mutex
	targets   map[string]awsclient.QueueTarget
	attrs     map[string]awsclient.QueueAttributes
	listErr   error
	fetchErr  error
	fetchSeen int
}

func newFakeQueueClient() *fakeQueueClient {
	return &fakeQueueClient{
		targets: map[string]awsclient.QueueTarget{},
		attrs:   map[string]awsclient.QueueAttributes{},
	}
}

func (f *fakeQueueClient) addQueue(name string, available, inFlight, delayed int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target := awsclient.QueueTarget{Name: name, URL: "https://sqs.test/" + name}
	f.targets[name] = target
	f.attrs[name] = awsclient.QueueAttributes{
		Target:     target,
		Available:  available,
		NotVisible: inFlight,
		Delayed:    delayed,
	}
}

func (f *fakeQueueClient) setFetchError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchErr = err
}

func (f *fakeQueueClient) GetQueueTarget(ctx context.Context, name string) (awsclient.QueueTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.targets[name]
	if !ok {
		return awsclient.QueueTarget{}, apperrors.WrapNotFoundError("get_queue_url", name, apperrors.ErrNotFound)
	}
	return target, nil
}

func (f *fakeQueueClient) ListQueueTargets(ctx context.Context) ([]awsclient.QueueTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	targets := make([]awsclient.QueueTarget, 0, len(f.targets))
	for _, t := range f.targets {
		targets = append(targets, t)
	}
	return targets, nil
}

func (f *fakeQueueClient) FetchQueueAttributes(ctx context.Context, target awsclient.QueueTarget) (awsclient.QueueAttributes, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchSeen++
	if f.fetchErr != nil {
		return awsclient.QueueAttributes{}, f.fetchErr
	}
	return f.attrs[target.Name], nil
}

func staticQueueDialer(client QueueClient, err error) QueueDialer {
	return func(ctx context.Context, src awsclient.CredentialSource, region string) (QueueClient, error) {
		return client, err
	}
}

func TestQueueMonitorAuthFailureNeverStarts(t *testing.T) {
	authErr := apperrors.WrapAuthError("resolve_credentials", "static_keys", errors.New("invalid keys"))
	m := NewQueueMonitor(staticQueueDialer(nil, authErr))

	err := m.AuthenticateAndStart(context.Background(), awsclient.CredentialSource{AccessKeyID: "bad", SecretAccessKey: "bad"})

	require.Error(t, err)
	assert.True(t, apperrors.IsAuthError(err))
	assert.False(t, m.Running())

	snapshot := m.Snapshot()
	assert.Empty(t, snapshot.Queues)
	assert.True(t, snapshot.CapturedAt.IsZero())
}

func TestQueueMonitorPublishesSnapshot(t *testing.T) {
	client := newFakeQueueClient()
	client.addQueue("orders", 5, 2, 1)
	client.addQueue("invoices", 0, 0, 0)

	m := NewQueueMonitor(staticQueueDialer(client, nil))
	m.Configure("eu-west-1", []string{"orders", "invoices"}, 30*time.Second)

	require.NoError(t, m.AuthenticateAndStart(context.Background(), awsclient.CredentialSource{}))
	defer m.Stop()

	require.Eventually(t, func() bool {
		return len(m.Snapshot().Queues) == 2
	}, time.Second, 5*time.Millisecond)

	snapshot := m.Snapshot()
	byName := map[string]int64{}
	for _, q := range snapshot.Queues {
		byName[q.Name] = q.TotalMessages
	}
	assert.Equal(t, int64(8), byName["orders"])
	assert.Equal(t, int64(0), byName["invoices"])
	assert.False(t, snapshot.CapturedAt.IsZero())
	assert.NoError(t, m.LastError())
}

func TestQueueMonitorFetchFailureRetainsSnapshot(t *testing.T) {
	client := newFakeQueueClient()
	client.addQueue("orders", 5, 0, 0)

	m := NewQueueMonitor(staticQueueDialer(client, nil))
	m.Configure("", []string{"orders"}, 30*time.Second)
	m.client = client

	ctx := context.Background()
	m.pollCycle(ctx)
	healthy := m.Snapshot()
	require.Len(t, healthy.Queues, 1)

	client.setFetchError(apperrors.WrapFetchError("get_queue_attributes", "orders", errors.New("throttled")))
	m.pollCycle(ctx)

	// Previous data survives; the error is surfaced alongside it.
	stale := m.Snapshot()
	assert.Equal(t, healthy.Queues, stale.Queues)
	assert.True(t, stale.CapturedAt.Equal(healthy.CapturedAt), "capturedAt must not advance on a failed cycle")
	require.Error(t, m.LastError())

	// A later successful cycle self-heals without ClearError.
	client.setFetchError(nil)
	m.pollCycle(ctx)

	fresh := m.Snapshot()
	assert.True(t, fresh.CapturedAt.After(stale.CapturedAt))
	assert.NoError(t, m.LastError())
}

func TestQueueMonitorSkipsMissingTargets(t *testing.T) {
	client := newFakeQueueClient()
	client.addQueue("orders", 3, 0, 0)

	m := NewQueueMonitor(staticQueueDialer(client, nil))
	m.Configure("", []string{"orders", "ghost"}, 30*time.Second)
	m.client = client

	m.pollCycle(context.Background())

	snapshot := m.Snapshot()
	require.Len(t, snapshot.Queues, 1)
	assert.Equal(t, "orders", snapshot.Queues[0].Name)

	// The skipped target is reported without aborting the cycle.
	require.Error(t, m.LastError())
	assert.True(t, apperrors.IsNotFoundError(m.LastError()))

	m.ClearError()
	assert.NoError(t, m.LastError())
}

func TestQueueMonitorListsAllQueuesWhenUnconfigured(t *testing.T) {
	client := newFakeQueueClient()
	client.addQueue("a", 1, 0, 0)
	client.addQueue("b", 2, 0, 0)
	client.addQueue("c", 3, 0, 0)

	m := NewQueueMonitor(staticQueueDialer(client, nil))
	m.client = client

	m.pollCycle(context.Background())

	assert.Len(t, m.Snapshot().Queues, 3)
}

func TestQueueMonitorIntervalClamp(t *testing.T) {
	m := NewQueueMonitor(staticQueueDialer(newFakeQueueClient(), nil))

	m.Configure("", nil, time.Second)
	assert.Equal(t, MinQueueInterval, m.EffectiveInterval())

	m.Configure("", nil, time.Minute)
	assert.Equal(t, time.Minute, m.EffectiveInterval())
}

func TestQueueMonitorConfigureWhileRunning(t *testing.T) {
	client := newFakeQueueClient()
	client.addQueue("orders", 1, 0, 0)

	m := NewQueueMonitor(staticQueueDialer(client, nil))
	m.Configure("", []string{"orders"}, 30*time.Second)

	require.NoError(t, m.AuthenticateAndStart(context.Background(), awsclient.CredentialSource{}))
	defer m.Stop()

	require.Eventually(t, func() bool { return len(m.Snapshot().Queues) == 1 }, time.Second, 5*time.Millisecond)

	// Reconfiguring must not stop the loop; the new target set applies on
	// the next cycle.
	client.addQueue("invoices", 2, 0, 0)
	m.Configure("", []string{"orders", "invoices"}, time.Minute)

	assert.True(t, m.Running())
	assert.Equal(t, time.Minute, m.EffectiveInterval())

	m.pollCycle(context.Background())
	assert.Len(t, m.Snapshot().Queues, 2)
}

func TestQueueMonitorConcurrentReadsSeeConsistentSnapshots(t *testing.T) {
	client := newFakeQueueClient()
	m := NewQueueMonitor(staticQueueDialer(client, nil))
	m.client = client

	// Each published generation carries a uniform total so a torn read
	// would surface as a mixed set.
	const generations = 50
	const queuesPerGen = 8

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snapshot := m.Snapshot()
				if len(snapshot.Queues) == 0 {
					continue
				}
				want := snapshot.Queues[0].TotalMessages
				for _, q := range snapshot.Queues {
					if q.TotalMessages != want {
						t.Errorf("torn snapshot: mixed totals %d and %d", want, q.TotalMessages)
						return
					}
				}
			}
		}()
	}

	names := make([]string, queuesPerGen)
	for gen := int64(1); gen <= generations; gen++ {
		for i := 0; i < queuesPerGen; i++ {
			name := string(rune('a' + i))
			client.addQueue(name, gen, 0, 0)
			names[i] = name
		}
		m.Configure("", names, 30*time.Second)
		m.pollCycle(context.Background())
	}

	close(stop)
	wg.Wait()
}
