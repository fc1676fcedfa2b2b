package achievements

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agripulse/marketplace/internal/apperrors"
)

type Repository interface {
	ListLevels(ctx context.Context) ([]Level, error)
	GetGrant(ctx context.Context, userID, levelID uuid.UUID) (*Grant, error)
	ListGrants(ctx context.Context, userID uuid.UUID) ([]GrantView, error)
	CreateGrant(ctx context.Context, grant *Grant) error

	// DistinctInvestorCount is the producer's investor count: distinct
	// buyers across completed purchases of their approved farms.
	DistinctInvestorCount(ctx context.Context, ownerID uuid.UUID) (int, error)

	// ListProducers returns every farmer identity, for the periodic
	// evaluation sweep.
	ListProducers(ctx context.Context) ([]Producer, error)
}

// Producer identifies a farmer for the evaluation sweep.
type Producer struct {
	ID    uuid.UUID `db:"user_id"`
	Email string    `db:"email"`
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) ListLevels(ctx context.Context) ([]Level, error) {
	var levels []Level
	err := r.db.SelectContext(ctx, &levels,
		"SELECT * FROM nft_levels ORDER BY investors_required ASC")
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list nft levels", Cause: err}
	}
	return levels, nil
}

func (r *postgresRepository) GetGrant(ctx context.Context, userID, levelID uuid.UUID) (*Grant, error) {
	var grant Grant
	err := r.db.GetContext(ctx, &grant,
		"SELECT * FROM farmer_nfts WHERE user_id = $1 AND nft_level_id = $2", userID, levelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "get nft grant", Cause: err}
	}
	return &grant, nil
}

func (r *postgresRepository) ListGrants(ctx context.Context, userID uuid.UUID) ([]GrantView, error) {
	var grants []GrantView
	err := r.db.SelectContext(ctx, &grants, `
		SELECT g.*,
		       l.name AS level_name,
		       l.level AS level_number,
		       l.rarity,
		       l.benefits,
		       l.investors_required
		FROM farmer_nfts g
		JOIN nft_levels l ON l.id = g.nft_level_id
		WHERE g.user_id = $1
		ORDER BY l.level ASC`, userID)
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list nft grants", Cause: err}
	}
	return grants, nil
}

func (r *postgresRepository) CreateGrant(ctx context.Context, grant *Grant) error {
	// ON CONFLICT keeps the evaluator idempotent even if two sweeps
	// race on the same (user, level) pair.
	query := `
		INSERT INTO farmer_nfts (
			id, user_id, nft_level_id, investor_count, token_id, serial_number
		) VALUES (
			:id, :user_id, :nft_level_id, :investor_count, :token_id, :serial_number
		)
		ON CONFLICT (user_id, nft_level_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return &apperrors.BackingStoreError{Op: "insert nft grant", Cause: err}
	}
	return nil
}

func (r *postgresRepository) DistinctInvestorCount(ctx context.Context, ownerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(DISTINCT p.investor_id)
		FROM purchases p
		JOIN farms f ON f.id = p.farm_id
		WHERE f.user_id = $1
		  AND f.status = 'approved'
		  AND p.status = 'completed'`, ownerID)
	if err != nil {
		return 0, &apperrors.BackingStoreError{Op: "count investors", Cause: err}
	}
	return count, nil
}

func (r *postgresRepository) ListProducers(ctx context.Context) ([]Producer, error) {
	var producers []Producer
	err := r.db.SelectContext(ctx, &producers, `
		SELECT ur.user_id, i.email
		FROM user_roles ur
		JOIN identities i ON i.id = ur.user_id
		WHERE ur.role = 'farmer'`)
	if err != nil {
		return nil, &apperrors.BackingStoreError{Op: "list producers", Cause: err}
	}
	return producers, nil
}
