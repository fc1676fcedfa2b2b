package listings

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/identity"
	"github.com/agripulse/marketplace/internal/ledger"
	"github.com/agripulse/marketplace/internal/wallet"
)

type Service interface {
	// Create mints the listed tons on the shared carbon-credit token
	// and records the farm with status pending.
	Create(ctx context.Context, session *identity.Session, req CreateRequest) (*Farm, error)
	Get(ctx context.Context, id uuid.UUID) (*Farm, error)
	Marketplace(ctx context.Context) ([]Farm, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Farm, error)
	ListAll(ctx context.Context) ([]Farm, error)
	Approve(ctx context.Context, id uuid.UUID) error
	Reject(ctx context.Context, id uuid.UUID) error

	// CreateSharedToken creates the fungible carbon-credit token all
	// listings mint against and caches its id for reuse.
	CreateSharedToken(ctx context.Context, session *identity.Session, req TokenCreateRequest) (*ledger.TokenCreateResult, error)
}

type TokenCreateRequest struct {
	AccountID     string `json:"account_id"`
	PrivateKey    string `json:"private_key"`
	TokenName     string `json:"token_name"`
	TokenSymbol   string `json:"token_symbol"`
	InitialSupply uint64 `json:"initial_supply"`
}

type CreateRequest struct {
	FarmName    string  `json:"farm_name"`
	Tons        int64   `json:"tons"`
	PricePerTon float64 `json:"price_per_ton"`
}

type service struct {
	repo           Repository
	gateway        ledger.Gateway
	wallets        wallet.Store
	defaultTokenID string
	logger         *zap.Logger
}

func NewService(repo Repository, gateway ledger.Gateway, wallets wallet.Store, defaultTokenID string, logger *zap.Logger) Service {
	return &service{
		repo:           repo,
		gateway:        gateway,
		wallets:        wallets,
		defaultTokenID: defaultTokenID,
		logger:         logger,
	}
}

func (s *service) Create(ctx context.Context, session *identity.Session, req CreateRequest) (*Farm, error) {
	if session.Role != identity.RoleFarmer {
		return nil, apperrors.ErrUnauthorized
	}
	if req.FarmName == "" {
		return nil, apperrors.NewValidation("farm_name", "must not be empty")
	}
	if req.Tons < 1 {
		return nil, apperrors.NewValidation("tons", "must be at least 1")
	}
	if req.PricePerTon <= 0 {
		return nil, apperrors.NewValidation("price_per_ton", "must be positive")
	}
	if !session.WalletConnected() {
		return nil, apperrors.ErrWalletNotConnected
	}

	tokenID, err := s.resolveTokenID(ctx)
	if err != nil {
		return nil, err
	}

	txID, err := s.gateway.MintFungibleUnits(ctx,
		session.Binding.AccountID, session.Binding.PrivateKey, tokenID, uint64(req.Tons))
	if err != nil {
		return nil, err
	}

	farm := &Farm{
		ID:            uuid.New(),
		UserID:        session.UserID,
		FarmName:      req.FarmName,
		Tons:          req.Tons,
		PricePerTon:   req.PricePerTon,
		TokenID:       tokenID,
		TransactionID: txID,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, farm); err != nil {
		return nil, err
	}

	s.logger.Info("farm listed",
		zap.String("farm_id", farm.ID.String()),
		zap.String("owner_id", session.UserID.String()),
		zap.Int64("tons", req.Tons))
	return farm, nil
}

// resolveTokenID prefers the cached shared token id over the
// configured default.
func (s *service) resolveTokenID(ctx context.Context) (string, error) {
	tokenID, err := s.wallets.GetTokenID(ctx)
	if err != nil {
		return "", err
	}
	if tokenID != "" {
		return tokenID, nil
	}
	if s.defaultTokenID != "" {
		return s.defaultTokenID, nil
	}
	return "", apperrors.NewValidation("token_id", "no carbon-credit token has been created yet")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Farm, error) {
	farm, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if farm == nil {
		return nil, apperrors.ErrNotFound
	}
	return farm, nil
}

func (s *service) Marketplace(ctx context.Context) ([]Farm, error) {
	return s.repo.ListByStatus(ctx, StatusApproved)
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Farm, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *service) ListAll(ctx context.Context) ([]Farm, error) {
	return s.repo.ListAll(ctx)
}

func (s *service) CreateSharedToken(ctx context.Context, session *identity.Session, req TokenCreateRequest) (*ledger.TokenCreateResult, error) {
	if session.Role != identity.RoleAdmin {
		return nil, apperrors.ErrUnauthorized
	}
	if req.AccountID == "" || req.PrivateKey == "" {
		return nil, apperrors.NewValidation("account", "treasury account id and private key are required")
	}
	if req.TokenName == "" || req.TokenSymbol == "" {
		return nil, apperrors.NewValidation("token", "token name and symbol are required")
	}

	result, err := s.gateway.CreateFungibleToken(ctx,
		req.AccountID, req.PrivateKey, req.TokenName, req.TokenSymbol, req.InitialSupply)
	if err != nil {
		return nil, err
	}

	if err := s.wallets.SaveTokenID(ctx, result.TokenID); err != nil {
		return nil, err
	}

	s.logger.Info("shared carbon-credit token created",
		zap.String("token_id", result.TokenID),
		zap.String("symbol", req.TokenSymbol))
	return result, nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusPending, StatusApproved)
}

func (s *service) Reject(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, StatusPending, StatusRejected)
}
