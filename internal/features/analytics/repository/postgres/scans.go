package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"swagly-backend/internal/features/analytics/models"
	"swagly-backend/internal/features/analytics/repository"
)

const scanEventsQuery = `
	SELECT s.id, s.timestamp,
		u.wallet_address, u.nickname,
		a.id, a.name, a.num_of_tokens,
		n.event_id, e.name
	FROM scans s
	JOIN users u ON u.id = s.user_id
	JOIN nfcs n ON n.id = s.nfc_id
	JOIN activities a ON a.id = n.activity_id
	JOIN events e ON e.id = n.event_id
	WHERE ($1::text = '' OR lower(u.wallet_address) = lower($1))
		AND ($2::text = '' OR a.id = $2)
		AND ($3::text = '' OR n.event_id = $3)
		AND ($4::timestamptz IS NULL OR s.timestamp >= $4)
		AND ($5::timestamptz IS NULL OR s.timestamp <= $5)
	ORDER BY %s %s, s.id %s
	LIMIT $6 OFFSET $7
`

var orderColumns = map[string]string{
	models.OrderByTimestamp:     "s.timestamp",
	models.OrderByTokensAwarded: "a.num_of_tokens",
}

type scanIndex struct {
	db *sql.DB
}

func NewScanIndex(db *sql.DB) repository.ScanIndex {
	return &scanIndex{db: db}
}

// scanEventsSQL renders the ORDER BY clause from a fixed column set; unknown
// values fall back to newest first.
func scanEventsSQL(orderBy, direction string) string {
	column, ok := orderColumns[orderBy]
	if !ok {
		column = orderColumns[models.OrderByTimestamp]
	}
	dir := "DESC"
	if strings.EqualFold(direction, models.OrderAsc) {
		dir = "ASC"
	}
	return fmt.Sprintf(scanEventsQuery, column, dir, dir)
}

func timeArg(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func (r *scanIndex) ScanEvents(ctx context.Context, q models.ScanQuery) ([]models.ScanEvent, error) {
	var limit interface{}
	if q.First > 0 {
		limit = q.First
	}

	rows, err := r.db.QueryContext(ctx, scanEventsSQL(q.OrderBy, q.OrderDirection),
		q.UserAddress, q.ActivityID, q.EventID,
		timeArg(q.From), timeArg(q.To),
		limit, q.Skip,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan events: %w", err)
	}
	defer rows.Close()

	events := []models.ScanEvent{}
	for rows.Next() {
		var (
			e        models.ScanEvent
			nickname sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp,
			&e.UserAddress, &nickname,
			&e.ActivityID, &e.ActivityName, &e.TokensAwarded,
			&e.EventID, &e.EventName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scan event row: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		if nickname.Valid {
			n := nickname.String
			e.UserNickname = &n
		}
		e.ScanType = models.ScanTypeNFC
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scan events: %w", err)
	}
	return events, nil
}
