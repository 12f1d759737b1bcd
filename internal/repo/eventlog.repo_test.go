package repo

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"

	"payment-reconciler/internal/database"
	"payment-reconciler/internal/domain"
)

func setupEventLogDB(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("reconciler"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(ctr)
	})

	connStr, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("pgx", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.CreateSchema(ctx, db))
	return db
}

func TestEventLogRoundTrip(t *testing.T) {
	db := setupEventLogDB(t)
	repo := NewEventLogRepo(db)
	ctx := context.Background()

	confirmed := &domain.WebhookEvent{
		ID:          uuid.New(),
		OrderID:     7788,
		Payload:     `{"status":1}`,
		Outcome:     domain.OutcomeConfirmed,
		ReceivedAt:  time.Now().Add(-time.Minute),
		ProcessedAt: time.Now().Add(-time.Minute),
	}
	owed := &domain.WebhookEvent{
		ID:          uuid.New(),
		OrderID:     7789,
		Payload:     `{"status":1}`,
		Outcome:     domain.OutcomeConfirmed,
		PendingNote: "Payment confirmed. Transaction TX-1.",
		NotePending: true,
		ReceivedAt:  time.Now(),
		ProcessedAt: time.Now(),
	}
	require.NoError(t, repo.Record(ctx, confirmed))
	require.NoError(t, repo.Record(ctx, owed))

	pending, err := repo.FindNotePending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, owed.ID, pending[0].ID)
	assert.Equal(t, int64(7789), pending[0].OrderID)
	assert.Equal(t, owed.PendingNote, pending[0].PendingNote)

	require.NoError(t, repo.MarkNoteDone(ctx, owed.ID))

	pending, err = repo.FindNotePending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestFindNotePendingOrdersOldestFirst(t *testing.T) {
	db := setupEventLogDB(t)
	repo := NewEventLogRepo(db)
	ctx := context.Background()

	newer := &domain.WebhookEvent{
		ID: uuid.New(), OrderID: 2, Payload: "{}", Outcome: domain.OutcomeConfirmed,
		PendingNote: "n2", NotePending: true,
		ReceivedAt: time.Now(), ProcessedAt: time.Now(),
	}
	older := &domain.WebhookEvent{
		ID: uuid.New(), OrderID: 1, Payload: "{}", Outcome: domain.OutcomeConfirmed,
		PendingNote: "n1", NotePending: true,
		ReceivedAt: time.Now().Add(-time.Hour), ProcessedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, repo.Record(ctx, newer))
	require.NoError(t, repo.Record(ctx, older))

	pending, err := repo.FindNotePending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(1), pending[0].OrderID)
}
