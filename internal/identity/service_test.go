package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/wallet"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateWithRole(ctx context.Context, identity *Identity, role Role) error {
	args := m.Called(ctx, identity, role)
	return args.Error(0)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Identity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockRepository) GetRole(ctx context.Context, userID uuid.UUID) (*RoleRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RoleRecord), args.Error(1)
}

func (m *MockRepository) UpdateWalletAddress(ctx context.Context, userID uuid.UUID, accountID string) error {
	args := m.Called(ctx, userID, accountID)
	return args.Error(0)
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

// MockRevocationList is a mock implementation of the revocation list
type MockRevocationList struct {
	mock.Mock
}

func (m *MockRevocationList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo *MockRepository, wallets *MockWalletStore) Service {
	tokens := NewTokenIssuer("test-secret", time.Hour, nil)
	return NewService(repo, wallets, tokens, nil, zap.NewNop())
}

func TestRegisterWritesRoleSynchronously(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "farmer@test.com").Return(nil, nil)
	repo.On("CreateWithRole", ctx, mock.AnythingOfType("*identity.Identity"), RoleFarmer).Return(nil)

	identity, err := service.Register(ctx, "Farmer@Test.com", "secret123", RoleFarmer)
	require.NoError(t, err)
	assert.Equal(t, "farmer@test.com", identity.Email)
	assert.NotEqual(t, uuid.Nil, identity.ID)
	repo.AssertCalled(t, "CreateWithRole", ctx, mock.AnythingOfType("*identity.Identity"), RoleFarmer)
}

func TestRegisterValidation(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		role     Role
	}{
		{"bad email", "not-an-email", "secret123", RoleFarmer},
		{"short password", "a@b.com", "123", RoleFarmer},
		{"unknown role", "a@b.com", "secret123", Role("banker")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Register(ctx, tc.email, tc.password, tc.role)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
	repo.AssertNotCalled(t, "CreateWithRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "taken@test.com").Return(&Identity{ID: uuid.New(), Email: "taken@test.com"}, nil)

	_, err := service.Register(ctx, "taken@test.com", "secret123", RoleInvestor)
	var authErr *apperrors.AuthError
	assert.True(t, errors.As(err, &authErr))
}

func TestSignInHydratesSession(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	userID := uuid.New()
	repo.On("GetByEmail", ctx, "farmer@test.com").Return(&Identity{
		ID:           userID,
		Email:        "farmer@test.com",
		PasswordHash: string(hash),
	}, nil)
	repo.On("GetRole", ctx, userID).Return(&RoleRecord{UserID: userID, Role: RoleFarmer}, nil)
	wallets.On("GetBinding", ctx, userID.String()).Return(&wallet.Binding{
		OwnerID:    userID.String(),
		AccountID:  "0.0.100",
		PrivateKey: "key-material",
	}, nil)

	token, session, err := service.SignIn(ctx, "farmer@test.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, RoleFarmer, session.Role)
	assert.True(t, session.WalletConnected())
	assert.Equal(t, StateWalletConnected, session.State())
}

func TestSignInWrongPassword(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	repo.On("GetByEmail", ctx, "farmer@test.com").Return(&Identity{
		ID:           uuid.New(),
		Email:        "farmer@test.com",
		PasswordHash: string(hash),
	}, nil)

	_, _, err := service.SignIn(ctx, "farmer@test.com", "wrong")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestSignInUnknownEmail(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	repo.On("GetByEmail", ctx, "ghost@test.com").Return(nil, nil)

	_, _, err := service.SignIn(ctx, "ghost@test.com", "whatever")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestWalletlessSessionState(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("GetByID", ctx, userID).Return(&Identity{ID: userID, Email: "inv@test.com"}, nil)
	repo.On("GetRole", ctx, userID).Return(&RoleRecord{UserID: userID, Role: RoleInvestor}, nil)
	wallets.On("GetBinding", ctx, userID.String()).Return(nil, nil)

	session, err := service.GetSession(ctx, userID)
	require.NoError(t, err)
	assert.False(t, session.WalletConnected())
	assert.Equal(t, StateWalletless, session.State())
}

func TestConnectWalletOverwritesAndMirrors(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	userID := uuid.New()
	repo.On("GetByID", ctx, userID).Return(&Identity{ID: userID, Email: "farmer@test.com"}, nil)
	wallets.On("SaveBinding", ctx, mock.MatchedBy(func(b *wallet.Binding) bool {
		return b.OwnerID == userID.String() && b.AccountID == "0.0.200" && b.PrivateKey == "raw-key"
	})).Return(nil)
	repo.On("UpdateWalletAddress", ctx, userID, "0.0.200").Return(nil)

	err := service.ConnectWallet(ctx, userID, "0.0.200", "raw-key")
	require.NoError(t, err)
	wallets.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestConnectWalletValidation(t *testing.T) {
	repo := new(MockRepository)
	wallets := new(MockWalletStore)
	service := newTestService(repo, wallets)
	ctx := context.Background()

	assert.True(t, apperrors.IsValidation(service.ConnectWallet(ctx, uuid.New(), "", "key")))
	assert.True(t, apperrors.IsValidation(service.ConnectWallet(ctx, uuid.New(), "0.0.1", "")))
	wallets.AssertNotCalled(t, "SaveBinding", mock.Anything, mock.Anything)
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenIssuer("test-secret", time.Hour, nil)
	userID := uuid.New()

	signed, err := tokens.Issue(userID, RoleAdmin)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	tokens := NewTokenIssuer("test-secret", time.Hour, nil)
	other := NewTokenIssuer("other-secret", time.Hour, nil)

	signed, err := tokens.Issue(uuid.New(), RoleFarmer)
	require.NoError(t, err)

	_, err = other.Parse(signed)
	assert.Error(t, err)
}

func TestSignOutRefusesTokenAfterwards(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocations := new(MockRevocationList)
	tokens := NewTokenIssuer("test-secret", time.Hour, revocations)
	service := NewService(new(MockRepository), new(MockWalletStore), tokens, nil, zap.NewNop())

	signed, err := tokens.Issue(uuid.New(), RoleFarmer)
	require.NoError(t, err)
	claims, err := tokens.Parse(signed)
	require.NoError(t, err)

	revocations.On("Revoke", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
	service.SignOut(context.Background(), claims)
	revocations.AssertCalled(t, "Revoke", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration"))

	revocations.On("IsRevoked", mock.Anything, claims.ID).Return(true, nil)

	router := gin.New()
	router.GET("/protected", RequireAuth(tokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLiveTokenPassesAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocations := new(MockRevocationList)
	tokens := NewTokenIssuer("test-secret", time.Hour, revocations)

	signed, err := tokens.Issue(uuid.New(), RoleInvestor)
	require.NoError(t, err)

	revocations.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)

	router := gin.New()
	router.GET("/protected", RequireAuth(tokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignOutIdempotent(t *testing.T) {
	revocations := new(MockRevocationList)
	tokens := NewTokenIssuer("test-secret", time.Hour, revocations)
	service := NewService(new(MockRepository), new(MockWalletStore), tokens, nil, zap.NewNop())

	signed, err := tokens.Issue(uuid.New(), RoleFarmer)
	require.NoError(t, err)
	claims, err := tokens.Parse(signed)
	require.NoError(t, err)

	revocations.On("Revoke", mock.Anything, claims.ID, mock.AnythingOfType("time.Duration")).Return(nil)
	service.SignOut(context.Background(), claims)
	service.SignOut(context.Background(), claims)
	revocations.AssertNumberOfCalls(t, "Revoke", 2)
}
