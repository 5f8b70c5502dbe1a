package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Check probes one dependency.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// Reporter receives probe results, e.g. to publish them as metrics.
type Reporter interface {
	SetDependency(name string, up bool)
}

// SizeFunc reports the number of stored records for the health payload.
type SizeFunc func() (int, error)

type Monitor struct {
	checks   []Check
	size     SizeFunc
	reporter Reporter

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	timeout  time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

type Option func(*Monitor)

// WithReporter publishes every probe result.
func WithReporter(r Reporter) Option {
	return func(m *Monitor) { m.reporter = r }
}

// WithSize adds the storage size to snapshots.
func WithSize(fn SizeFunc) Option {
	return func(m *Monitor) { m.size = fn }
}

func New(checks []Check, interval time.Duration, logger *zap.Logger, opts ...Option) *Monitor {
	if interval < time.Second {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		checks:   checks,
		interval: interval,
		timeout:  3 * time.Second,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.timeout > m.interval {
		m.timeout = m.interval
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	_, _ = m.cron.AddFunc(schedule, func() {
		m.Refresh(context.Background())
	})
	return m
}

// Start probes once synchronously and then schedules the probes.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	m.cron.Start()
	m.logger.Info("dependency monitor started", zap.Duration("interval", m.interval), zap.Int("checks", len(m.checks)))
}

// Stop waits for a running probe round or for ctx, whichever ends first.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) IsOnline() bool {
	return m.GetStatus().Healthy()
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh runs every check once and replaces the snapshot.
func (m *Monitor) Refresh(ctx context.Context) {
	status := Status{
		Dependencies: make(map[string]DependencyStatus, len(m.checks)),
	}

	for _, check := range m.checks {
		status.Dependencies[check.Name] = m.probe(ctx, check)
	}

	if m.size != nil {
		size, err := m.size()
		if err != nil {
			m.logger.Warn("storage size check failed", zap.Error(err))
		}
		status.StorageSize = size
	}
	status.LastCheck = time.Now().UTC()

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) probe(ctx context.Context, check Check) DependencyStatus {
	probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	err := check.Probe(probeCtx)
	result := DependencyStatus{
		Online:    err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		m.logger.Warn("dependency check failed", zap.String("dependency", check.Name), zap.Error(err))
	}
	if m.reporter != nil {
		m.reporter.SetDependency(check.Name, result.Online)
	}
	return result
}

func PostgresCheck(pool *pgxpool.Pool) Check {
	return Check{Name: "postgresql", Probe: pool.Ping}
}

func RedisCheck(client *redislib.Client) Check {
	return Check{
		Name: "redis",
		Probe: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		},
	}
}

// StoreCheck wraps a context-free ping, such as the bbolt store's.
func StoreCheck(name string, ping func() error) Check {
	return Check{
		Name: name,
		Probe: func(context.Context) error {
			return ping()
		},
	}
}
