package achievements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/ledger"
	"github.com/agripulse/marketplace/internal/wallet"
)

// EvaluationResult reports one level's outcome from an evaluator run.
type EvaluationResult struct {
	LevelID   uuid.UUID `json:"level_id"`
	LevelName string    `json:"level_name"`
	Granted   bool      `json:"granted"`
	Error     string    `json:"error,omitempty"`
}

type Service interface {
	// Evaluate recomputes which levels the producer has earned and
	// mints the missing badges. Re-running with unchanged inputs never
	// double-grants; one level's mint failure does not abort the rest.
	Evaluate(ctx context.Context, ownerID uuid.UUID, ownerEmail string) ([]EvaluationResult, error)
	Gallery(ctx context.Context, ownerID uuid.UUID) ([]GrantView, error)
	Levels(ctx context.Context) ([]Level, error)

	// EvaluateAll sweeps every producer with a connected wallet.
	EvaluateAll(ctx context.Context) error
}

type service struct {
	repo    Repository
	wallets wallet.Store
	gateway ledger.Gateway
	logger  *zap.Logger
}

func NewService(repo Repository, wallets wallet.Store, gateway ledger.Gateway, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		wallets: wallets,
		gateway: gateway,
		logger:  logger,
	}
}

func (s *service) Evaluate(ctx context.Context, ownerID uuid.UUID, ownerEmail string) ([]EvaluationResult, error) {
	binding, err := s.wallets.GetBinding(ctx, ownerID.String())
	if err != nil {
		return nil, err
	}
	if !binding.Usable() {
		return nil, apperrors.ErrWalletNotConnected
	}

	investorCount, err := s.repo.DistinctInvestorCount(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	levels, err := s.repo.ListLevels(ctx)
	if err != nil {
		return nil, err
	}

	var results []EvaluationResult
	for _, level := range levels {
		if investorCount < level.InvestorsRequired {
			continue
		}

		existing, err := s.repo.GetGrant(ctx, ownerID, level.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}

		result := EvaluationResult{LevelID: level.ID, LevelName: level.Name}
		if err := s.grant(ctx, ownerID, ownerEmail, binding, level, investorCount); err != nil {
			// Report this level's failure and keep evaluating the rest.
			result.Error = err.Error()
			s.logger.Warn("achievement grant failed",
				zap.String("owner_id", ownerID.String()),
				zap.String("level", level.Name),
				zap.Error(err))
		} else {
			result.Granted = true
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *service) grant(ctx context.Context, ownerID uuid.UUID, ownerEmail string, binding *wallet.Binding, level Level, investorCount int) error {
	tokenID, err := s.resolveLevelToken(ctx, ownerID, binding, level, investorCount)
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(map[string]interface{}{
		"farmer":        ownerEmail,
		"minted_at":     time.Now().UTC().Format(time.RFC3339),
		"investorCount": investorCount,
		"level":         level.Level,
	})
	if err != nil {
		return fmt.Errorf("marshal nft metadata: %w", err)
	}

	mint, err := s.gateway.MintNonFungibleUnit(ctx, binding.AccountID, binding.PrivateKey, tokenID, metadata)
	if err != nil {
		return err
	}

	grant := &Grant{
		ID:            uuid.New(),
		UserID:        ownerID,
		LevelID:       level.ID,
		InvestorCount: investorCount,
		TokenID:       &tokenID,
		SerialNumber:  &mint.SerialNumber,
	}
	if err := s.repo.CreateGrant(ctx, grant); err != nil {
		return err
	}

	s.logger.Info("achievement granted",
		zap.String("owner_id", ownerID.String()),
		zap.String("level", level.Name),
		zap.Int("investor_count", investorCount),
		zap.String("token_id", tokenID))
	return nil
}

// resolveLevelToken reuses the NFT token type recorded for a prior
// grant of this level, creating one only on the first grant.
func (s *service) resolveLevelToken(ctx context.Context, ownerID uuid.UUID, binding *wallet.Binding, level Level, investorCount int) (string, error) {
	existing, err := s.repo.GetGrant(ctx, ownerID, level.ID)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.TokenID != nil && *existing.TokenID != "" {
		return *existing.TokenID, nil
	}

	symbol := fmt.Sprintf("FARM_%d", level.Level)
	created, err := s.gateway.CreateNonFungibleToken(ctx, binding.AccountID, binding.PrivateKey, level.Name, symbol)
	if err != nil {
		return "", err
	}
	return created.TokenID, nil
}

func (s *service) Gallery(ctx context.Context, ownerID uuid.UUID) ([]GrantView, error) {
	return s.repo.ListGrants(ctx, ownerID)
}

func (s *service) Levels(ctx context.Context) ([]Level, error) {
	return s.repo.ListLevels(ctx)
}

func (s *service) EvaluateAll(ctx context.Context) error {
	producers, err := s.repo.ListProducers(ctx)
	if err != nil {
		return err
	}

	for _, producer := range producers {
		binding, err := s.wallets.GetBinding(ctx, producer.ID.String())
		if err != nil {
			s.logger.Warn("skipping producer, wallet store unavailable",
				zap.String("owner_id", producer.ID.String()), zap.Error(err))
			continue
		}
		if !binding.Usable() {
			continue
		}

		if _, err := s.Evaluate(ctx, producer.ID, producer.Email); err != nil {
			s.logger.Warn("evaluation sweep failed for producer",
				zap.String("owner_id", producer.ID.String()), zap.Error(err))
		}
	}
	return nil
}
