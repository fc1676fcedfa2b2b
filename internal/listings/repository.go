package listings

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agripulse/marketplace/internal/apperrors"
)

type Repository interface {
	Create(ctx context.Context, farm *Farm) error
	GetByID(ctx context.Context, id uuid.UUID) (*Farm, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Farm, error)
	ListByStatus(ctx context.Context, status Status) ([]Farm, error)
	ListAll(ctx context.Context) ([]Farm, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error

	// ReserveTons decrements tons atomically and fails with
	// ErrInsufficientTons when the listing cannot cover the amount.
	// Racing purchases can therefore never drive tons negative.
	ReserveTons(ctx context.Context, id uuid.UUID, amount int64) error
	// RestoreTons returns a reservation after a failed settlement.
	RestoreTons(ctx context.Context, id uuid.UUID, amount int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, farm *Farm) error {
	query := `
		INSERT INTO farms (
			id, user_id, farm_name, tons, price_per_ton, token_id, transaction_id, status
		) VALUES (
			:id, :user_id, :farm_name, :tons, :price_per_ton, :token_id, :transaction_id, :status
		)`
	if _, err := r.db.NamedExecContext(ctx, query, farm); err != nil {
		return &apperrors.BackingStoreError{Op: "insert farm", Cause: err}
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Farm, error) {
	var farm Farm
	err := r.db.GetContext(ctx, &farm, "SELECT * FROM farms WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get farm", Cause: err}
	}
	return &farm, nil
}

func (r *postgresRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Farm, error) {
	var farms []Farm
	err := r.db.SelectContext(ctx, &farms,
		"SELECT * FROM farms WHERE user_id = $1 ORDER BY created_at DESC", ownerID)
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list farms by owner", Cause: err}
	}
	return farms, nil
}

func (r *postgresRepository) ListByStatus(ctx context.Context, status Status) ([]Farm, error) {
	var farms []Farm
	err := r.db.SelectContext(ctx, &farms,
		"SELECT * FROM farms WHERE status = $1 ORDER BY created_at DESC", status)
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list farms by status", Cause: err}
	}
	return farms, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]Farm, error) {
	var farms []Farm
	err := r.db.SelectContext(ctx, &farms, "SELECT * FROM farms ORDER BY created_at DESC")
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list farms", Cause: err}
	}
	return farms, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE farms SET status = $1, updated_at = now() WHERE id = $2 AND status = $3",
		to, id, from)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "update farm status", Cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &apperrors.BackingStoreError{Op: "update farm status", Cause: err}
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *postgresRepository) ReserveTons(ctx context.Context, id uuid.UUID, amount int64) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE farms SET tons = tons - $1, updated_at = now() WHERE id = $2 AND tons >= $1",
		amount, id)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "reserve tons", Cause: err}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return &apperrors.BackingStoreError{Op: "reserve tons", Cause: err}
	}
	if affected == 0 {
		return apperrors.ErrInsufficientTons
	}
	return nil
}

func (r *postgresRepository) RestoreTons(ctx context.Context, id uuid.UUID, amount int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE farms SET tons = tons + $1, updated_at = now() WHERE id = $2", amount, id)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "restore tons", Cause: err}
	}
	return nil
}
