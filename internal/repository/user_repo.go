package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/epeers/marketdata/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository handles database operations for users
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetAll retrieves all users from dim_user
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email, created_at FROM dim_user ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query all users: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// GetByID retrieves one user
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u := &models.User{}
	err := r.pool.QueryRow(ctx, `SELECT id, name, email, created_at FROM dim_user WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// Insert adds a new user and returns it with its assigned ID and timestamp
func (r *UserRepository) Insert(ctx context.Context, u *models.User) (*models.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO dim_user (name, email)
		VALUES ($1, $2)
		RETURNING id, created_at
	`, u.Name, u.Email).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}
