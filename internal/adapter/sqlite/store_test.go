package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testWarnings() []domain.WarningRecord {
	issued := time.Date(2010, 6, 1, 18, 0, 0, 0, time.UTC)
	return []domain.WarningRecord{
		{
			Office: "OTX", Zone: "WAZ675", State: "WA", Status: "NEW",
			Issued: issued, Expired: issued.Add(9 * time.Hour), InitialIssued: issued,
			FlatDate: domain.NewDate(2010, time.June, 1), Days: 2,
		},
		{
			Office: "OTX", Zone: "WAZ675", State: "WA", Status: "NEW",
			Issued: issued, Expired: issued.Add(9 * time.Hour), InitialIssued: issued,
			FlatDate: domain.NewDate(2010, time.June, 2), Days: 2,
		},
	}
}

func testEvents() []domain.EventRecord {
	return []domain.EventRecord{
		{
			ID: "11", DiscoveryDate: domain.NewDate(2010, time.June, 1), Zone: "WAZ675", Office: "OTX",
			CauseCode: 1, Forested: true, SizeAcres: 12.5,
			DangerIndices: map[string]float64{domain.IndexEnergyRelease: 91.5, domain.IndexBurningIndex: 80},
		},
		{
			ID: "12", DiscoveryDate: domain.NewDate(2010, time.July, 16), Zone: "ORZ610", Office: "PDT",
			CauseCode: 7, Forested: false, SizeAcres: 0.1,
			DangerIndices: map[string]float64{},
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWarnings(ctx, testWarnings()))
	require.NoError(t, s.SaveEvents(ctx, testEvents()))

	records, err := s.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, testWarnings(), records.Warnings)
	assert.Equal(t, testEvents(), records.Events)
}

func TestStore_Empty(t *testing.T) {
	s := setupTestDB(t)

	records, err := s.LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records.Warnings)
	assert.Empty(t, records.Events)
}

func TestStore_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rfw.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, s.SaveEvents(context.Background(), testEvents()))
	require.NoError(t, s.Close())

	reopened, err := Open(path, logger)
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records.Events, 2)
}

func TestStore_CanceledContext(t *testing.T) {
	s := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.SaveWarnings(ctx, testWarnings()))
	_, err := s.LoadRecords(ctx)
	assert.Error(t, err)
}
