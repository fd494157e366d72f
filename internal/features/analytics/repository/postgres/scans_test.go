package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swagly-backend/internal/features/analytics/models"
)

func newMock(t *testing.T) (*scanIndex, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &scanIndex{db: db}, mock
}

var scanEventColumns = []string{
	"id", "timestamp", "wallet_address", "nickname",
	"id", "name", "num_of_tokens", "event_id", "name",
}

func TestScanEventsFilteredPage(t *testing.T) {
	idx, mock := newMock(t)
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("PET", -5*3600))
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(scanEventColumns).
		AddRow("scan-1", ts, "0xabc", "neo", "act-1", "Booth", int64(10), "evt-1", "ETH Lima").
		AddRow("scan-2", ts.Add(time.Minute), "0xabc", nil, "act-1", "Booth", int64(10), "evt-1", "ETH Lima")

	mock.ExpectQuery(scanEventsSQL(models.OrderByTokensAwarded, models.OrderAsc)).
		WithArgs("0xABC", "act-1", "", from, nil, 20, 40).
		WillReturnRows(rows)

	events, err := idx.ScanEvents(context.Background(), models.ScanQuery{
		First:          20,
		Skip:           40,
		OrderBy:        models.OrderByTokensAwarded,
		OrderDirection: models.OrderAsc,
		UserAddress:    "0xABC",
		ActivityID:     "act-1",
		From:           &from,
	})
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "scan-1", events[0].ID)
	assert.Equal(t, time.UTC, events[0].Timestamp.Location())
	assert.True(t, ts.Equal(events[0].Timestamp))
	require.NotNil(t, events[0].UserNickname)
	assert.Equal(t, "neo", *events[0].UserNickname)
	assert.Equal(t, int64(10), events[0].TokensAwarded)
	assert.Equal(t, "evt-1", events[0].EventID)
	assert.Equal(t, models.ScanTypeNFC, events[0].ScanType)
	assert.Nil(t, events[1].UserNickname)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanEventsUnlimited(t *testing.T) {
	idx, mock := newMock(t)
	mock.ExpectQuery(scanEventsSQL("", "")).
		WithArgs("", "", "evt-1", nil, nil, nil, 0).
		WillReturnRows(sqlmock.NewRows(scanEventColumns))

	events, err := idx.ScanEvents(context.Background(), models.ScanQuery{EventID: "evt-1"})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScanEventsQueryError(t *testing.T) {
	idx, mock := newMock(t)
	mock.ExpectQuery(scanEventsSQL("", "")).WillReturnError(errors.New("connection reset"))

	_, err := idx.ScanEvents(context.Background(), models.ScanQuery{})
	assert.ErrorContains(t, err, "connection reset")
}

func TestScanEventsSQLOrdering(t *testing.T) {
	assert.Contains(t, scanEventsSQL(models.OrderByTimestamp, models.OrderAsc), "ORDER BY s.timestamp ASC, s.id ASC")
	assert.Contains(t, scanEventsSQL(models.OrderByTokensAwarded, "DESC"), "ORDER BY a.num_of_tokens DESC, s.id DESC")
	assert.Contains(t, scanEventsSQL("s.id; DROP TABLE scans", "sideways"), "ORDER BY s.timestamp DESC, s.id DESC")
}
