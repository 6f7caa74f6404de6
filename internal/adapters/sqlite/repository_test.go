package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoTickStream/internal/domain"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "candle-cache-test-*")
	require.NoError(t, err)

	repo, err := NewRepository(Config{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	})
	return repo
}

func testCandle(ts int64, closePrice float64) domain.MarketCandle {
	return domain.MarketCandle{
		Timestamp:  ts,
		Open:       closePrice - 1,
		High:       closePrice + 2,
		Low:        closePrice - 2,
		Close:      closePrice,
		Volume:     100,
		Turnover:   150,
		TradeCount: 10,
	}
}

func TestRepository_SaveAndLoadBatch(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	batch := []domain.MarketCandle{
		testCandle(1000, 10),
		testCandle(2000, 20),
		testCandle(3000, 30),
	}
	require.NoError(t, repo.SaveBatch(ctx, domain.BTCUSDT, batch))

	got, err := repo.LatestBatch(ctx, domain.BTCUSDT, 300)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Oldest first, matching server order.
	assert.Equal(t, int64(1000), got[0].Timestamp)
	assert.Equal(t, int64(3000), got[2].Timestamp)
	assert.Equal(t, 20.0, got[1].Close)
}

func TestRepository_LatestBatchHonorsLimit(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	var batch []domain.MarketCandle
	for i := int64(1); i <= 10; i++ {
		batch = append(batch, testCandle(i*1000, float64(i)))
	}
	require.NoError(t, repo.SaveBatch(ctx, domain.ETHUSDT, batch))

	got, err := repo.LatestBatch(ctx, domain.ETHUSDT, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// The three most recent candles, still oldest first.
	assert.Equal(t, int64(8000), got[0].Timestamp)
	assert.Equal(t, int64(10000), got[2].Timestamp)
}

func TestRepository_SaveBatchUpserts(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveBatch(ctx, domain.BTCUSDT, []domain.MarketCandle{testCandle(1000, 10)}))
	require.NoError(t, repo.SaveBatch(ctx, domain.BTCUSDT, []domain.MarketCandle{testCandle(1000, 99)}))

	got, err := repo.LatestBatch(ctx, domain.BTCUSDT, 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "same timestamp must replace, not duplicate")
	assert.Equal(t, 99.0, got[0].Close)
}

func TestRepository_PairsAreIsolated(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveBatch(ctx, domain.BTCUSDT, []domain.MarketCandle{testCandle(1000, 10)}))

	got, err := repo.LatestBatch(ctx, domain.ETHUSDT, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_EmptyBatchIsNoOp(t *testing.T) {
	repo := setupTestDB(t)
	assert.NoError(t, repo.SaveBatch(context.Background(), domain.BTCUSDT, nil))
}

func TestNewRepository_Validation(t *testing.T) {
	_, err := NewRepository(Config{DBPath: "x.db", Logger: nil})
	assert.Error(t, err)

	_, err = NewRepository(Config{DBPath: "", Logger: &mockLogger{}})
	assert.Error(t, err)
}
