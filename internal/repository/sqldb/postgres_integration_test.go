package sqldb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// setupPostgres connects to the test database or skips the test.
func setupPostgres(t *testing.T) *SpotRepository {
	t.Helper()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5433"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "parkwhere_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)

	sqlxDB, err := sqlx.Open("postgres", connStr)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := sqlxDB.PingContext(ctx); err != nil {
		sqlxDB.Close()
		t.Skipf("PostgreSQL not available: %v", err)
	}

	db := NewDBForTest(sqlxDB, zap.NewNop())
	require.NoError(t, db.EnsureSchema(context.Background()))
	_, err = db.Exec(`TRUNCATE parking_spots`)
	require.NoError(t, err)

	t.Cleanup(func() {
		_, _ = db.Exec(`TRUNCATE parking_spots`)
		db.Close()
	})

	return NewSpotRepository(db, zap.NewNop())
}

func TestPostgresSpotRepository_Integration(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		s := validSpot("PG1")
		require.NoError(t, repo.Upsert(ctx, s))

		got, err := repo.Get(ctx, "PG1")
		require.NoError(t, err)
		assert.Equal(t, s, *got)
	})

	t.Run("batch and lookup", func(t *testing.T) {
		require.NoError(t, repo.UpsertBatch(ctx, []domain.ParkingSpot{validSpot("PG2"), validSpot("PG3")}))

		got, err := repo.GetMany(ctx, []string{"PG2", "PG3", "nope"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		n := 0
		for _, err := range repo.All(ctx) {
			require.NoError(t, err)
			n++
		}
		assert.Equal(t, 3, n)
	})

	t.Run("mark inactive", func(t *testing.T) {
		require.NoError(t, repo.MarkInactive(ctx, "PG2", updatedAt))
		got, err := repo.Get(ctx, "PG2")
		require.NoError(t, err)
		assert.False(t, got.Active)

		assert.ErrorIs(t, repo.MarkInactive(ctx, "nope", updatedAt), errors.ErrSpotNotFound)
	})
}
