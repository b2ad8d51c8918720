package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"app/internal/model"
)

type OutfitRequestRepository interface {
	Create(ctx context.Context, o *model.OutfitRequest) error
	GetByID(ctx context.Context, id string) (*model.OutfitRequest, error)
	List(ctx context.Context, limit int) ([]model.OutfitRequest, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*model.RequestStats, error)
}

type outfitRepo struct {
	db *sql.DB
}

func NewOutfitRequestRepo(db *sql.DB) OutfitRequestRepository {
	return &outfitRepo{db: db}
}

const outfitColumns = `id, atmosphere, suit_type, lapel_type, pocket_type, shoe_type, accessory_type,
    gender, fabric_description, custom_shoe_description, custom_accessory_description,
    creator_email, recipient_email, modification_of, modification_description, timestamp`

func scanOutfit(row interface{ Scan(...any) error }) (*model.OutfitRequest, error) {
	var o model.OutfitRequest
	err := row.Scan(&o.ID, &o.Atmosphere, &o.SuitType, &o.LapelType, &o.PocketType, &o.ShoeType,
		&o.AccessoryType, &o.Gender, &o.FabricDesc, &o.CustomShoeDesc, &o.CustomAccDesc,
		&o.CreatorEmail, &o.RecipientEmail, &o.ModificationOf, &o.ModificationDesc, &o.Timestamp)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *outfitRepo) Create(ctx context.Context, o *model.OutfitRequest) error {
	query := `INSERT INTO outfit_requests (id, atmosphere, suit_type, lapel_type, pocket_type,
              shoe_type, accessory_type, gender, fabric_description, custom_shoe_description,
              custom_accessory_description, creator_email, recipient_email, modification_of,
              modification_description)
              VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15) RETURNING timestamp`
	return r.db.QueryRowContext(ctx, query, o.ID, o.Atmosphere, o.SuitType, o.LapelType,
		o.PocketType, o.ShoeType, o.AccessoryType, o.Gender, o.FabricDesc, o.CustomShoeDesc,
		o.CustomAccDesc, o.CreatorEmail, o.RecipientEmail, o.ModificationOf, o.ModificationDesc).
		Scan(&o.Timestamp)
}

func (r *outfitRepo) GetByID(ctx context.Context, id string) (*model.OutfitRequest, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+outfitColumns+` FROM outfit_requests WHERE id=$1`, id)
	o, err := scanOutfit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *outfitRepo) List(ctx context.Context, limit int) ([]model.OutfitRequest, error) {
	query := `SELECT ` + outfitColumns + ` FROM outfit_requests ORDER BY timestamp DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing outfit requests: %w", err)
	}
	defer rows.Close()

	var list []model.OutfitRequest
	for rows.Next() {
		o, err := scanOutfit(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

func (r *outfitRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM outfit_requests WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *outfitRepo) Stats(ctx context.Context) (*model.RequestStats, error) {
	stats := &model.RequestStats{AtmosphereStats: map[string]int{}}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outfit_requests`).Scan(&stats.TotalRequests); err != nil {
		return nil, fmt.Errorf("counting requests: %w", err)
	}
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outfit_requests WHERE timestamp >= date_trunc('day', now())`).
		Scan(&stats.TodayRequests); err != nil {
		return nil, fmt.Errorf("counting today's requests: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT atmosphere, COUNT(*) FROM outfit_requests GROUP BY atmosphere`)
	if err != nil {
		return nil, fmt.Errorf("aggregating atmospheres: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var atmosphere string
		var count int
		if err := rows.Scan(&atmosphere, &count); err != nil {
			return nil, err
		}
		stats.AtmosphereStats[atmosphere] = count
	}
	return stats, rows.Err()
}
