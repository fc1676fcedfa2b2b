package purchases

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agripulse/marketplace/internal/apperrors"
)

type Repository interface {
	Create(ctx context.Context, purchase *Purchase) error
	GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error)
	ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]Purchase, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, transactionID string) error
	MarkFailed(ctx context.Context, id uuid.UUID) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, purchase *Purchase) error {
	query := `
		INSERT INTO purchases (
			id, farm_id, investor_id, amount, price_per_ton, total_cost, status
		) VALUES (
			:id, :farm_id, :investor_id, :amount, :price_per_ton, :total_cost, :status
		)`
	if _, err := r.db.NamedExecContext(ctx, query, purchase); err != nil {
		return &apperrors.BackingStoreError{Op: "insert purchase", Cause: err}
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Purchase, error) {
	var purchase Purchase
	err := r.db.GetContext(ctx, &purchase, "SELECT * FROM purchases WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get purchase", Cause: err}
	}
	return &purchase, nil
}

func (r *postgresRepository) ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]Purchase, error) {
	var list []Purchase
	err := r.db.SelectContext(ctx, &list,
		"SELECT * FROM purchases WHERE investor_id = $1 ORDER BY created_at DESC", investorID)
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list purchases", Cause: err}
	}
	return list, nil
}

func (r *postgresRepository) MarkCompleted(ctx context.Context, id uuid.UUID, transactionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE purchases
		SET status = $1, hedera_transaction_id = $2, updated_at = now()
		WHERE id = $3`, StatusCompleted, transactionID, id)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "complete purchase", Cause: err}
	}
	return nil
}

func (r *postgresRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE purchases SET status = $1, updated_at = now() WHERE id = $2", StatusFailed, id)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "fail purchase", Cause: err}
	}
	return nil
}
