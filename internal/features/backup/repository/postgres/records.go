package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"swagly-backend/internal/features/backup/models"
	"swagly-backend/internal/features/backup/repository"
)

const scansQuery = `
	SELECT s.id, s.timestamp, s.is_valid,
		u.wallet_address, u.nickname,
		a.name, a.num_of_tokens, a.event_id,
		e.name
	FROM scans s
	JOIN users u ON u.id = s.user_id
	JOIN nfcs n ON n.id = s.nfc_id
	JOIN activities a ON a.id = n.activity_id
	JOIN events e ON e.id = n.event_id
	WHERE ($1::timestamptz IS NULL OR s.timestamp > $1)
	ORDER BY s.timestamp ASC
`

const completedActivitiesQuery = `
	SELECT pa.timestamp, pa.status,
		u.wallet_address, u.nickname,
		a.name, a.num_of_tokens,
		e.name,
		pr.proof_type, pr.status, pr.tokens_awarded, pr.validated_at
	FROM passport_activities pa
	JOIN passports p ON p.id = pa.passport_id
	JOIN users u ON u.id = p.user_id
	JOIN events e ON e.id = p.event_id
	JOIN activities a ON a.id = pa.activity_id
	LEFT JOIN proofs pr ON pr.id = pa.proof_id
	WHERE pa.status = 'completed'
		AND ($1::timestamptz IS NULL OR pa.timestamp > $1)
	ORDER BY pa.timestamp ASC
`

type recordSource struct {
	db *sql.DB
}

func NewRecordSource(db *sql.DB) repository.RecordSource {
	return &recordSource{db: db}
}

func sinceArg(since *time.Time) interface{} {
	if since == nil {
		return nil
	}
	return since.UTC()
}

func (r *recordSource) ScansSince(ctx context.Context, since *time.Time) ([]models.ScanRecord, error) {
	rows, err := r.db.QueryContext(ctx, scansQuery, sinceArg(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query scans: %w", err)
	}
	defer rows.Close()

	scans := []models.ScanRecord{}
	for rows.Next() {
		var (
			s        models.ScanRecord
			nickname sql.NullString
		)
		if err := rows.Scan(
			&s.ID, &s.Timestamp, &s.IsValid,
			&s.User.WalletAddress, &nickname,
			&s.Activity.Name, &s.Activity.Tokens, &s.Activity.EventID,
			&s.Event.Name,
		); err != nil {
			return nil, fmt.Errorf("failed to scan scan row: %w", err)
		}
		s.Timestamp = s.Timestamp.UTC()
		s.User.Nickname = nullString(nickname)
		scans = append(scans, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scans: %w", err)
	}
	return scans, nil
}

func (r *recordSource) CompletedActivitiesSince(ctx context.Context, since *time.Time) ([]models.ActivityRecord, error) {
	rows, err := r.db.QueryContext(ctx, completedActivitiesQuery, sinceArg(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query completed activities: %w", err)
	}
	defer rows.Close()

	activities := []models.ActivityRecord{}
	for rows.Next() {
		var (
			a           models.ActivityRecord
			nickname    sql.NullString
			proofType   sql.NullString
			proofStatus sql.NullString
			proofTokens sql.NullInt64
			validatedAt sql.NullTime
		)
		if err := rows.Scan(
			&a.Timestamp, &a.Status,
			&a.User.WalletAddress, &nickname,
			&a.Activity.Name, &a.Activity.Tokens,
			&a.Event.Name,
			&proofType, &proofStatus, &proofTokens, &validatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}
		a.Timestamp = a.Timestamp.UTC()
		a.User.Nickname = nullString(nickname)

		if proofType.Valid {
			proof := &models.ProofRef{
				Type:          proofType.String,
				Status:        proofStatus.String,
				TokensAwarded: proofTokens.Int64,
			}
			if validatedAt.Valid {
				t := validatedAt.Time.UTC()
				proof.ValidatedAt = &t
			}
			a.Proof = proof
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
