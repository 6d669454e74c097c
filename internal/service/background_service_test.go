package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"taxii-services/internal/entity"
	"taxii-services/internal/pkg/logger"
	"taxii-services/pkg/events"
	pktNats "taxii-services/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSetSweeper_DeletesOnlyExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	repo := f.factory.NewUnitOfWork(ctx).ResultSetRepository()

	now := time.Now().UTC()
	require.NoError(t, repo.Create(ctx, &entity.ResultSet{Id: "short", CollectionName: collDefault, ExpiresAt: now.Add(20 * time.Millisecond)}))
	require.NoError(t, repo.Create(ctx, &entity.ResultSet{Id: "long", CollectionName: collDefault, ExpiresAt: now.Add(time.Hour)}))
	time.Sleep(60 * time.Millisecond)

	sweeper := NewResultSetSweeperService(f.factory, logger.NewNopLogger())
	n, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	kept, err := repo.Take(ctx, "long")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

type logEntry struct {
	level   string
	module  string
	message string
	details map[string]interface{}
}

// recordingLogger keeps every entry in memory.
type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) add(level, module, message string, details map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, module, message, details})
}

func (l *recordingLogger) Debug(m, msg string, d map[string]interface{}) { l.add("debug", m, msg, d) }
func (l *recordingLogger) Info(m, msg string, d map[string]interface{})  { l.add("info", m, msg, d) }
func (l *recordingLogger) Warn(m, msg string, d map[string]interface{})  { l.add("warn", m, msg, d) }
func (l *recordingLogger) Error(m, msg string, d map[string]interface{}) { l.add("error", m, msg, d) }
func (l *recordingLogger) Sync() error                                   { return nil }

type fakeSubscriber struct {
	subject string
	durable string
	handler pktNats.EventHandler
}

func (s *fakeSubscriber) Subscribe(_ context.Context, subject, durableName string, handler pktNats.EventHandler) error {
	s.subject, s.durable, s.handler = subject, durableName, handler
	return nil
}

func TestEventAudit_RecordsEvents(t *testing.T) {
	sub := &fakeSubscriber{}
	audit := &recordingLogger{}
	svc := NewEventAuditService(sub, audit)

	require.NoError(t, svc.Start(context.Background()))
	assert.Equal(t, pktNats.SubjectPrefix+">", sub.subject)
	assert.NotEmpty(t, sub.durable)

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, sub.handler(context.Background(), events.SubscriptionChanged("sub-1", collDefault, "PAUSE", "PAUSED", at)))

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "info", entry.level)
	assert.Equal(t, events.TypeSubscriptionChanged, entry.details["event"])
	assert.Equal(t, at, entry.details["occurred_at"])
	assert.Equal(t, "sub-1", entry.details["subscription_id"])
}
