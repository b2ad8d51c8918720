package repository

import (
	"context"
	"database/sql"
	"fmt"

	"app/internal/model"
)

type EmailQueueRepository interface {
	Create(ctx context.Context, e *model.EmailQueueEntry) error
	ListPending(ctx context.Context) ([]model.EmailQueueEntry, error)
	MarkResolved(ctx context.Context, id string) error
}

type emailQueueRepo struct {
	db *sql.DB
}

func NewEmailQueueRepo(db *sql.DB) EmailQueueRepository {
	return &emailQueueRepo{db: db}
}

func (r *emailQueueRepo) Create(ctx context.Context, e *model.EmailQueueEntry) error {
	query := `INSERT INTO email_queue (id, email, request_id, outfit_details, image_data, status)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING timestamp`
	return r.db.QueryRowContext(ctx, query, e.ID, e.Email, e.RequestID, e.OutfitDetails,
		e.ImageData, e.Status).Scan(&e.Timestamp)
}

func (r *emailQueueRepo) ListPending(ctx context.Context) ([]model.EmailQueueEntry, error) {
	// Image bytes are deliberately not loaded here; the listing powers an
	// admin dashboard and the payload can be large.
	query := `SELECT id, email, request_id, outfit_details, status, timestamp
              FROM email_queue WHERE status=$1 ORDER BY timestamp DESC`
	rows, err := r.db.QueryContext(ctx, query, model.EmailQueueStatusPending)
	if err != nil {
		return nil, fmt.Errorf("listing pending queue entries: %w", err)
	}
	defer rows.Close()

	var entries []model.EmailQueueEntry
	for rows.Next() {
		var e model.EmailQueueEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.RequestID, &e.OutfitDetails, &e.Status, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *emailQueueRepo) MarkResolved(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE email_queue SET status=$2 WHERE id=$1`, id, model.EmailQueueStatusResolved)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
