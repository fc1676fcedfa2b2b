package identity

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/wallet"
)

// Service is the session manager. It owns identity registration,
// sign-in, hydration of the role record and wallet binding, and the
// wallet connection path. Every consumer reads session state through
// it rather than from ad hoc storage.
type Service interface {
	Register(ctx context.Context, email, password string, role Role) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (string, *Session, error)
	SignOut(ctx context.Context, claims *Claims)
	GetSession(ctx context.Context, userID uuid.UUID) (*Session, error)
	ConnectWallet(ctx context.Context, userID uuid.UUID, accountID, privateKey string) error
}

type service struct {
	repo    Repository
	wallets wallet.Store
	tokens  *TokenIssuer
	hub     *Hub
	logger  *zap.Logger
}

func NewService(repo Repository, wallets wallet.Store, tokens *TokenIssuer, hub *Hub, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		wallets: wallets,
		tokens:  tokens,
		hub:     hub,
		logger:  logger,
	}
}

func (s *service) Register(ctx context.Context, email, password string, role Role) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewValidation("email", "must be a valid email address")
	}
	if len(password) < 6 {
		return nil, apperrors.NewValidation("password", "must be at least 6 characters")
	}
	if !role.Valid() {
		return nil, apperrors.NewValidation("role", "must be farmer, investor or admin")
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &apperrors.AuthError{Reason: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, &apperrors.AuthError{Reason: "hash password", Cause: err}
	}

	identity := &Identity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
	}

	// The role record is written in the same transaction as the
	// identity, so a fresh sign-in can never resolve to a default role.
	if err := s.repo.CreateWithRole(ctx, identity, role); err != nil {
		return nil, err
	}

	s.logger.Info("identity registered",
		zap.String("user_id", identity.ID.String()),
		zap.String("role", string(role)))
	return identity, nil
}

func (s *service) SignIn(ctx context.Context, email, password string) (string, *Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	identity, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if identity == nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}

	session, err := s.hydrate(ctx, identity)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Issue(identity.ID, session.Role)
	if err != nil {
		return "", nil, &apperrors.AuthError{Reason: "issue session token", Cause: err}
	}

	s.publish(EventSignedIn, session)
	s.publish(EventHydrated, session)
	return token, session, nil
}

// SignOut revokes the session token so it is refused for the rest of
// its lifetime. Idempotent: signing out an already signed-out session
// re-denylists the same token id and republishes the terminal event.
func (s *service) SignOut(ctx context.Context, claims *Claims) {
	if claims == nil {
		return
	}

	if err := s.tokens.Revoke(ctx, claims); err != nil {
		s.logger.Error("failed to revoke session token",
			zap.String("user_id", claims.Subject), zap.Error(err))
	}

	if s.hub != nil {
		s.hub.Publish(Event{
			Type:   EventSignedOut,
			UserID: claims.Subject,
			State:  StateUnauthenticated,
		})
	}
	s.logger.Info("identity signed out", zap.String("user_id", claims.Subject))
}

// GetSession hydrates the live session view for a verified token
// subject: role record from the database, wallet binding from the
// key-value store, in one step.
func (s *service) GetSession(ctx context.Context, userID uuid.UUID) (*Session, error) {
	identity, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, apperrors.ErrNotFound
	}
	return s.hydrate(ctx, identity)
}

func (s *service) hydrate(ctx context.Context, identity *Identity) (*Session, error) {
	record, err := s.repo.GetRole(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, &apperrors.AuthError{Reason: "identity has no role record"}
	}

	binding, err := s.wallets.GetBinding(ctx, identity.ID.String())
	if err != nil {
		return nil, err
	}

	return &Session{
		UserID:  identity.ID,
		Email:   identity.Email,
		Role:    record.Role,
		Binding: binding,
	}, nil
}

// ConnectWallet overwrites any prior binding for the identity. The key
// format is not validated here; the ledger gateway parses it lazily on
// first use.
func (s *service) ConnectWallet(ctx context.Context, userID uuid.UUID, accountID, privateKey string) error {
	if accountID == "" {
		return apperrors.NewValidation("account_id", "must not be empty")
	}
	if privateKey == "" {
		return apperrors.NewValidation("private_key", "must not be empty")
	}

	identity, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if identity == nil {
		return apperrors.ErrNotFound
	}

	binding := &wallet.Binding{
		OwnerID:    userID.String(),
		AccountID:  accountID,
		PrivateKey: privateKey,
	}
	if err := s.wallets.SaveBinding(ctx, binding); err != nil {
		return err
	}

	// Mirror the account id onto the role record so buyers can resolve
	// this identity as a seller.
	if err := s.repo.UpdateWalletAddress(ctx, userID, accountID); err != nil {
		return err
	}

	if s.hub != nil {
		s.hub.Publish(Event{
			Type:   EventWalletConnected,
			UserID: userID.String(),
			State:  StateWalletConnected,
		})
	}
	s.logger.Info("wallet connected",
		zap.String("user_id", userID.String()),
		zap.String("account_id", accountID))
	return nil
}

func (s *service) publish(eventType string, session *Session) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(Event{
		Type:   eventType,
		UserID: session.UserID.String(),
		State:  session.State(),
	})
}
