package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agripulse/marketplace/internal/apperrors"
)

type Repository interface {
	// CreateWithRole inserts the identity and its role record in one
	// transaction, so session hydration can never observe a registered
	// identity without a role.
	CreateWithRole(ctx context.Context, identity *Identity, role Role) error
	GetByEmail(ctx context.Context, email string) (*Identity, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Identity, error)
	GetRole(ctx context.Context, userID uuid.UUID) (*RoleRecord, error)
	UpdateWalletAddress(ctx context.Context, userID uuid.UUID, accountID string) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateWithRole(ctx context.Context, identity *Identity, role Role) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "begin register", Cause: err}
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO identities (id, email, password_hash)
		VALUES (:id, :email, :password_hash)`, identity)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "insert identity", Cause: err}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO user_roles (user_id, role)
		VALUES ($1, $2)`, identity.ID, role)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "insert role record", Cause: err}
	}

	if err := tx.Commit(); err != nil {
		return &apperrors.BackingStoreError{Op: "commit register", Cause: err}
	}
	return nil
}

func (r *postgresRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	var identity Identity
	err := r.db.GetContext(ctx, &identity, "SELECT * FROM identities WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get identity by email", Cause: err}
	}
	return &identity, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	var identity Identity
	err := r.db.GetContext(ctx, &identity, "SELECT * FROM identities WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get identity", Cause: err}
	}
	return &identity, nil
}

func (r *postgresRepository) GetRole(ctx context.Context, userID uuid.UUID) (*RoleRecord, error) {
	var record RoleRecord
	err := r.db.GetContext(ctx, &record, "SELECT * FROM user_roles WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get role record", Cause: err}
	}
	return &record, nil
}

func (r *postgresRepository) UpdateWalletAddress(ctx context.Context, userID uuid.UUID, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user_roles SET wallet_address = $1 WHERE user_id = $2", accountID, userID)
	if err != nil {
		return &apperrors.BackingStoreError{Op: "update wallet address", Cause: err}
	}
	return nil
}
