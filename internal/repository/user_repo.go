package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"app/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, u *model.User) error
	DeleteUser(ctx context.Context, id string) error
	// ConsumeCredit atomically increments the user's usage counter in-store
	// and returns the new used/limit values. A single UPDATE avoids lost
	// updates under concurrent generations from the same user.
	ConsumeCredit(ctx context.Context, id string) (used, limit int, err error)
}

type userRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) UserRepository {
	return &userRepo{db: db}
}

const userColumns = `id, nom, email, password_hash, role, images_used_total, images_limit_total, is_active, is_verified, verification_token, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Nom, &u.Email, &u.PasswordHash, &u.Role, &u.ImagesUsedTotal,
		&u.ImagesLimitTotal, &u.IsActive, &u.IsVerified, &u.VerificationToken, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (id, nom, email, password_hash, role, images_used_total, images_limit_total, is_active, is_verified, verification_token)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, u.ID, u.Nom, u.Email, u.PasswordHash, u.Role,
		u.ImagesUsedTotal, u.ImagesLimitTotal, u.IsActive, u.IsVerified, u.VerificationToken).Scan(&u.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *userRepo) UpdateUser(ctx context.Context, u *model.User) error {
	query := `UPDATE users SET nom=$2, email=$3, password_hash=$4, role=$5, images_used_total=$6,
              images_limit_total=$7, is_active=$8, is_verified=$9, verification_token=$10 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, query, u.ID, u.Nom, u.Email, u.PasswordHash, u.Role,
		u.ImagesUsedTotal, u.ImagesLimitTotal, u.IsActive, u.IsVerified, u.VerificationToken)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepo) DeleteUser(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *userRepo) ConsumeCredit(ctx context.Context, id string) (int, int, error) {
	var used, limit int
	query := `UPDATE users SET images_used_total = images_used_total + 1
              WHERE id = $1 RETURNING images_used_total, images_limit_total`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&used, &limit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, sql.ErrNoRows
		}
		return 0, 0, fmt.Errorf("consuming credit for user %s: %w", id, err)
	}
	return used, limit, nil
}

// ErrDuplicateEmail is returned when an insert collides on the unique email key.
var ErrDuplicateEmail = errors.New("email already registered")
