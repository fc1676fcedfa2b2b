package listings

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/identity"
	"github.com/agripulse/marketplace/internal/ledger"
	"github.com/agripulse/marketplace/internal/wallet"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, farm *Farm) error {
	args := m.Called(ctx, farm)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Farm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Farm), args.Error(1)
}

func (m *MockRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Farm, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Farm), args.Error(1)
}

func (m *MockRepository) ListByStatus(ctx context.Context, status Status) ([]Farm, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Farm), args.Error(1)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]Farm, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Farm), args.Error(1)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

func (m *MockRepository) ReserveTons(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *MockRepository) RestoreTons(ctx context.Context, id uuid.UUID, amount int64) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

// MockGateway is a mock implementation of the ledger gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetBalance(ctx context.Context, accountID, privateKey string) (*ledger.Balance, error) {
	args := m.Called(ctx, accountID, privateKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Balance), args.Error(1)
}

func (m *MockGateway) TransferFungibleUnits(ctx context.Context, senderID, senderKey, receiverID, tokenID string, amount int64) (string, error) {
	args := m.Called(ctx, senderID, senderKey, receiverID, tokenID, amount)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateFungibleToken(ctx context.Context, treasuryID, treasuryKey, name, symbol string, initialSupply uint64) (*ledger.TokenCreateResult, error) {
	args := m.Called(ctx, treasuryID, treasuryKey, name, symbol, initialSupply)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TokenCreateResult), args.Error(1)
}

func (m *MockGateway) MintFungibleUnits(ctx context.Context, adminID, adminKey, tokenID string, amount uint64) (string, error) {
	args := m.Called(ctx, adminID, adminKey, tokenID, amount)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateNonFungibleToken(ctx context.Context, treasuryID, treasuryKey, name, symbol string) (*ledger.TokenCreateResult, error) {
	args := m.Called(ctx, treasuryID, treasuryKey, name, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.TokenCreateResult), args.Error(1)
}

func (m *MockGateway) MintNonFungibleUnit(ctx context.Context, adminID, adminKey, tokenID string, metadata []byte) (*ledger.NFTMintResult, error) {
	args := m.Called(ctx, adminID, adminKey, tokenID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.NFTMintResult), args.Error(1)
}

// MockWalletStore is a mock implementation of the wallet store
type MockWalletStore struct {
	mock.Mock
}

func (m *MockWalletStore) SaveBinding(ctx context.Context, binding *wallet.Binding) error {
	args := m.Called(ctx, binding)
	return args.Error(0)
}

func (m *MockWalletStore) GetBinding(ctx context.Context, ownerID string) (*wallet.Binding, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Binding), args.Error(1)
}

func (m *MockWalletStore) SaveTokenID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockWalletStore) GetTokenID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func farmerSession() *identity.Session {
	userID := uuid.New()
	return &identity.Session{
		UserID: userID,
		Email:  "farmer@test.com",
		Role:   identity.RoleFarmer,
		Binding: &wallet.Binding{
			OwnerID:    userID.String(),
			AccountID:  "0.0.500",
			PrivateKey: "farmer-key",
		},
	}
}

func TestCreateMintsThenRecordsPending(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "", zap.NewNop())
	ctx := context.Background()
	session := farmerSession()

	wallets.On("GetTokenID", ctx).Return("0.0.999", nil)
	gateway.On("MintFungibleUnits", ctx, "0.0.500", "farmer-key", "0.0.999", uint64(150)).
		Return("0.0.500@1700000000.000000002", nil)
	repo.On("Create", ctx, mock.AnythingOfType("*listings.Farm")).Return(nil)

	farm, err := service.Create(ctx, session, CreateRequest{
		FarmName:    "Green Acres",
		Tons:        150,
		PricePerTon: 12.5,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, farm.Status)
	assert.Equal(t, "0.0.999", farm.TokenID)
	assert.Equal(t, "0.0.500@1700000000.000000002", farm.TransactionID)
	assert.Equal(t, session.UserID, farm.UserID)
	gateway.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestCreateRequiresConnectedWallet(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "0.0.999", zap.NewNop())
	ctx := context.Background()
	session := farmerSession()
	session.Binding = nil

	_, err := service.Create(ctx, session, CreateRequest{FarmName: "Green Acres", Tons: 10, PricePerTon: 5})
	assert.ErrorIs(t, err, apperrors.ErrWalletNotConnected)

	gateway.AssertNotCalled(t, "MintFungibleUnits",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateRequiresFarmerRole(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "0.0.999", zap.NewNop())
	ctx := context.Background()
	session := farmerSession()
	session.Role = identity.RoleInvestor

	_, err := service.Create(ctx, session, CreateRequest{FarmName: "Green Acres", Tons: 10, PricePerTon: 5})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestCreateValidation(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "0.0.999", zap.NewNop())
	ctx := context.Background()
	session := farmerSession()

	cases := []struct {
		name string
		req  CreateRequest
	}{
		{"empty name", CreateRequest{Tons: 10, PricePerTon: 5}},
		{"zero tons", CreateRequest{FarmName: "Green Acres", PricePerTon: 5}},
		{"zero price", CreateRequest{FarmName: "Green Acres", Tons: 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Create(ctx, session, tc.req)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	gateway.AssertNotCalled(t, "MintFungibleUnits",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateFallsBackToConfiguredToken(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "0.0.777", zap.NewNop())
	ctx := context.Background()
	session := farmerSession()

	wallets.On("GetTokenID", ctx).Return("", nil)
	gateway.On("MintFungibleUnits", ctx, "0.0.500", "farmer-key", "0.0.777", uint64(10)).
		Return("tx-1", nil)
	repo.On("Create", ctx, mock.AnythingOfType("*listings.Farm")).Return(nil)

	farm, err := service.Create(ctx, session, CreateRequest{FarmName: "Green Acres", Tons: 10, PricePerTon: 5})
	require.NoError(t, err)
	assert.Equal(t, "0.0.777", farm.TokenID)
}

func TestCreateWithoutAnyToken(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "", zap.NewNop())
	ctx := context.Background()

	wallets.On("GetTokenID", ctx).Return("", nil)

	_, err := service.Create(ctx, farmerSession(), CreateRequest{FarmName: "Green Acres", Tons: 10, PricePerTon: 5})
	assert.True(t, apperrors.IsValidation(err))
}

func TestApproveTransitionsFromPendingOnly(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockGateway), new(MockWalletStore), "", zap.NewNop())
	ctx := context.Background()
	farmID := uuid.New()

	repo.On("UpdateStatus", ctx, farmID, StatusPending, StatusApproved).Return(nil)
	require.NoError(t, service.Approve(ctx, farmID))

	alreadyApproved := uuid.New()
	repo.On("UpdateStatus", ctx, alreadyApproved, StatusPending, StatusApproved).
		Return(apperrors.ErrNotFound)
	assert.ErrorIs(t, service.Approve(ctx, alreadyApproved), apperrors.ErrNotFound)
}

func TestMarketplaceListsApprovedOnly(t *testing.T) {
	repo := new(MockRepository)
	service := NewService(repo, new(MockGateway), new(MockWalletStore), "", zap.NewNop())
	ctx := context.Background()

	repo.On("ListByStatus", ctx, StatusApproved).Return([]Farm{{ID: uuid.New(), Status: StatusApproved}}, nil)

	farms, err := service.Marketplace(ctx)
	require.NoError(t, err)
	assert.Len(t, farms, 1)
	repo.AssertCalled(t, "ListByStatus", ctx, StatusApproved)
}

func TestCreateSharedTokenCachesID(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	wallets := new(MockWalletStore)
	service := NewService(repo, gateway, wallets, "", zap.NewNop())
	ctx := context.Background()
	admin := &identity.Session{UserID: uuid.New(), Role: identity.RoleAdmin}

	gateway.On("CreateFungibleToken", ctx, "0.0.2", "treasury-key", "AgriPulse Carbon", "APC", uint64(1000)).
		Return(&ledger.TokenCreateResult{TokenID: "0.0.888", TransactionID: "tx-2"}, nil)
	wallets.On("SaveTokenID", ctx, "0.0.888").Return(nil)

	result, err := service.CreateSharedToken(ctx, admin, TokenCreateRequest{
		AccountID:     "0.0.2",
		PrivateKey:    "treasury-key",
		TokenName:     "AgriPulse Carbon",
		TokenSymbol:   "APC",
		InitialSupply: 1000,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.888", result.TokenID)
	wallets.AssertCalled(t, "SaveTokenID", ctx, "0.0.888")
}

func TestCreateSharedTokenRequiresAdmin(t *testing.T) {
	repo := new(MockRepository)
	gateway := new(MockGateway)
	service := NewService(repo, gateway, new(MockWalletStore), "", zap.NewNop())
	ctx := context.Background()

	_, err := service.CreateSharedToken(ctx, farmerSession(), TokenCreateRequest{
		AccountID: "0.0.2", PrivateKey: "k", TokenName: "T", TokenSymbol: "T",
	})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	gateway.AssertNotCalled(t, "CreateFungibleToken",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
