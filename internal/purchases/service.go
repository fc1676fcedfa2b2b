package purchases

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/identity"
	"github.com/agripulse/marketplace/internal/ledger"
	"github.com/agripulse/marketplace/internal/listings"
)

// FarmStore is the slice of the listings repository the settlement
// flow needs.
type FarmStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*listings.Farm, error)
	ReserveTons(ctx context.Context, id uuid.UUID, amount int64) error
	RestoreTons(ctx context.Context, id uuid.UUID, amount int64) error
}

// SellerDirectory resolves a listing owner's mirrored ledger account.
type SellerDirectory interface {
	GetRole(ctx context.Context, userID uuid.UUID) (*identity.RoleRecord, error)
}

type Service interface {
	// Purchase runs the settlement sequence: validate, resolve seller,
	// reserve tons, record pending, transfer on the ledger, finalize.
	// Steps are strictly sequential within one invocation.
	Purchase(ctx context.Context, session *identity.Session, farmID uuid.UUID, amount int64) (*Purchase, error)
	Get(ctx context.Context, session *identity.Session, id uuid.UUID) (*Purchase, error)
	History(ctx context.Context, investorID uuid.UUID) ([]Purchase, error)
}

type service struct {
	repo    Repository
	farms   FarmStore
	sellers SellerDirectory
	gateway ledger.Gateway
	logger  *zap.Logger
}

func NewService(repo Repository, farms FarmStore, sellers SellerDirectory, gateway ledger.Gateway, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		farms:   farms,
		sellers: sellers,
		gateway: gateway,
		logger:  logger,
	}
}

func (s *service) Purchase(ctx context.Context, session *identity.Session, farmID uuid.UUID, amount int64) (*Purchase, error) {
	// Preconditions fail fast, before any side effect. The gateway is
	// never invoked for a walletless session.
	if session.Role != identity.RoleInvestor {
		return nil, apperrors.ErrUnauthorized
	}
	if !session.WalletConnected() {
		return nil, apperrors.ErrWalletNotConnected
	}
	if amount < 1 {
		return nil, apperrors.NewValidation("amount", "must be at least 1")
	}

	farm, err := s.farms.GetByID(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if farm == nil || farm.Status != listings.StatusApproved {
		return nil, apperrors.ErrNotFound
	}
	if amount > farm.Tons {
		return nil, apperrors.NewValidation("amount", fmt.Sprintf("must be between 1 and %d", farm.Tons))
	}

	sellerRecord, err := s.sellers.GetRole(ctx, farm.UserID)
	if err != nil {
		return nil, err
	}
	if sellerRecord == nil || sellerRecord.WalletAddress == nil || *sellerRecord.WalletAddress == "" {
		return nil, apperrors.ErrSellerWalletMissing
	}
	sellerAccount := *sellerRecord.WalletAddress

	// The carbon-credit token has zero decimals, so a total that does
	// not settle to whole units cannot be represented on the ledger.
	totalCost := float64(amount) * farm.PricePerTon
	units := int64(math.Round(totalCost))
	if math.Abs(totalCost-float64(units)) > 1e-9 {
		return nil, apperrors.NewValidation("amount",
			fmt.Sprintf("total cost %.2f does not settle to whole token units", totalCost))
	}

	// Reserve before transferring so racing purchases cannot oversell
	// the listing. A zero-row update means another buyer got there
	// first.
	if err := s.farms.ReserveTons(ctx, farm.ID, amount); err != nil {
		return nil, err
	}

	purchase := &Purchase{
		ID:          uuid.New(),
		FarmID:      farm.ID,
		InvestorID:  session.UserID,
		Amount:      amount,
		PricePerTon: farm.PricePerTon,
		TotalCost:   totalCost,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, purchase); err != nil {
		s.release(ctx, farm.ID, amount)
		return nil, err
	}

	txID, err := s.gateway.TransferFungibleUnits(ctx,
		session.Binding.AccountID, session.Binding.PrivateKey,
		sellerAccount, farm.TokenID, units)
	if err != nil {
		// Finalize the attempt explicitly and give the tons back.
		if markErr := s.repo.MarkFailed(ctx, purchase.ID); markErr != nil {
			s.logger.Error("failed to finalize purchase after ledger error",
				zap.String("purchase_id", purchase.ID.String()), zap.Error(markErr))
		}
		s.release(ctx, farm.ID, amount)
		return nil, err
	}

	// Value has already moved on the ledger, so a failure to patch the
	// row must not surface as a failed purchase. The row stays pending
	// with its tons reserved until reconciled.
	if err := s.repo.MarkCompleted(ctx, purchase.ID, txID); err != nil {
		s.logger.Error("failed to finalize settled purchase",
			zap.String("purchase_id", purchase.ID.String()),
			zap.String("transaction_id", txID),
			zap.Error(err))
	}

	purchase.Status = StatusCompleted
	purchase.HederaTransactionID = &txID

	s.logger.Info("purchase settled",
		zap.String("purchase_id", purchase.ID.String()),
		zap.String("farm_id", farm.ID.String()),
		zap.Int64("amount", amount),
		zap.Float64("total_cost", totalCost),
		zap.String("transaction_id", txID))
	return purchase, nil
}

func (s *service) release(ctx context.Context, farmID uuid.UUID, amount int64) {
	if err := s.farms.RestoreTons(ctx, farmID, amount); err != nil {
		s.logger.Error("failed to restore reserved tons",
			zap.String("farm_id", farmID.String()),
			zap.Int64("amount", amount),
			zap.Error(err))
	}
}

func (s *service) Get(ctx context.Context, session *identity.Session, id uuid.UUID) (*Purchase, error) {
	purchase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, apperrors.ErrNotFound
	}
	if purchase.InvestorID != session.UserID && session.Role != identity.RoleAdmin {
		return nil, apperrors.ErrUnauthorized
	}
	return purchase, nil
}

func (s *service) History(ctx context.Context, investorID uuid.UUID) ([]Purchase, error) {
	return s.repo.ListByInvestor(ctx, investorID)
}
