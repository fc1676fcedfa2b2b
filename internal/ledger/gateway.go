package ledger

import (
	"context"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
)

// Gateway exposes the ledger operations the marketplace depends on.
// Every call opens a short-lived client for the supplied credentials,
// submits exactly one transaction or query, and waits for the network
// to confirm. No retries are attempted and no idempotency key is
// attached; a caller retrying a timed-out mint risks a duplicate.
type Gateway interface {
	GetBalance(ctx context.Context, accountID, privateKey string) (*Balance, error)
	TransferFungibleUnits(ctx context.Context, senderID, senderKey, receiverID, tokenID string, amount int64) (string, error)
	CreateFungibleToken(ctx context.Context, treasuryID, treasuryKey, name, symbol string, initialSupply uint64) (*TokenCreateResult, error)
	MintFungibleUnits(ctx context.Context, adminID, adminKey, tokenID string, amount uint64) (string, error)
	CreateNonFungibleToken(ctx context.Context, treasuryID, treasuryKey, name, symbol string) (*TokenCreateResult, error)
	MintNonFungibleUnit(ctx context.Context, adminID, adminKey, tokenID string, metadata []byte) (*NFTMintResult, error)
}

// Balance is a normalized account balance snapshot.
type Balance struct {
	Hbars  string `json:"hbars"`
	Tokens string `json:"tokens"`
}

// TokenCreateResult reports a newly created token.
type TokenCreateResult struct {
	TokenID       string `json:"token_id"`
	TransactionID string `json:"transaction_id"`
}

// NFTMintResult reports a minted non-fungible unit.
type NFTMintResult struct {
	TransactionID string `json:"transaction_id"`
	SerialNumber  int64  `json:"serial_number"`
}

type hederaGateway struct {
	logger *zap.Logger
}

// NewGateway creates a Gateway backed by the Hedera testnet.
func NewGateway(logger *zap.Logger) Gateway {
	return &hederaGateway{logger: logger}
}

func (g *hederaGateway) GetBalance(ctx context.Context, accountID, privateKey string) (*Balance, error) {
	client, _, err := newOperatorClient(accountID, privateKey)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	operator, err := hedera.AccountIDFromString(accountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account id %q: %w", accountID, err)
	}

	balance, err := hedera.NewAccountBalanceQuery().
		SetAccountID(operator).
		Execute(client)
	if err != nil {
		return nil, &apperrors.LedgerError{Op: "balance query", Cause: err}
	}

	return &Balance{
		Hbars:  balance.Hbars.String(),
		Tokens: formatTokenBalances(balance.Tokens),
	}, nil
}

// formatTokenBalances renders the per-token balance map as a string.
// The SDK's TokenBalanceMap exposes no serialization of its own.
func formatTokenBalances(tokens hedera.TokenBalanceMap) string {
	return fmt.Sprintf("%v", tokens)
}

func (g *hederaGateway) TransferFungibleUnits(ctx context.Context, senderID, senderKey, receiverID, tokenID string, amount int64) (string, error) {
	client, _, err := newOperatorClient(senderID, senderKey)
	if err != nil {
		return "", err
	}
	defer client.Close()

	sender, err := hedera.AccountIDFromString(senderID)
	if err != nil {
		return "", fmt.Errorf("invalid sender account id %q: %w", senderID, err)
	}
	receiver, err := hedera.AccountIDFromString(receiverID)
	if err != nil {
		return "", fmt.Errorf("invalid receiver account id %q: %w", receiverID, err)
	}
	token, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return "", fmt.Errorf("invalid token id %q: %w", tokenID, err)
	}

	resp, err := hedera.NewTransferTransaction().
		AddTokenTransfer(token, sender, -amount).
		AddTokenTransfer(token, receiver, amount).
		Execute(client)
	if err != nil {
		return "", &apperrors.LedgerError{Op: "token transfer", Cause: err}
	}

	if _, err := resp.GetReceipt(client); err != nil {
		return "", &apperrors.LedgerError{Op: "token transfer receipt", Cause: err}
	}

	txID := resp.TransactionID.String()
	g.logger.Info("token transfer confirmed",
		zap.String("token_id", tokenID),
		zap.Int64("amount", amount),
		zap.String("transaction_id", txID))
	return txID, nil
}

func (g *hederaGateway) CreateFungibleToken(ctx context.Context, treasuryID, treasuryKey, name, symbol string, initialSupply uint64) (*TokenCreateResult, error) {
	return g.createToken(treasuryID, treasuryKey, name, symbol, hedera.TokenTypeFungibleCommon, initialSupply)
}

func (g *hederaGateway) CreateNonFungibleToken(ctx context.Context, treasuryID, treasuryKey, name, symbol string) (*TokenCreateResult, error) {
	return g.createToken(treasuryID, treasuryKey, name, symbol, hedera.TokenTypeNonFungibleUnique, 0)
}

func (g *hederaGateway) createToken(treasuryID, treasuryKey, name, symbol string, tokenType hedera.TokenType, initialSupply uint64) (*TokenCreateResult, error) {
	client, supplyKey, err := newOperatorClient(treasuryID, treasuryKey)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	treasury, err := hedera.AccountIDFromString(treasuryID)
	if err != nil {
		return nil, fmt.Errorf("invalid treasury account id %q: %w", treasuryID, err)
	}

	tx, err := hedera.NewTokenCreateTransaction().
		SetTokenName(name).
		SetTokenSymbol(symbol).
		SetTokenType(tokenType).
		SetDecimals(0).
		SetInitialSupply(initialSupply).
		SetTreasuryAccountID(treasury).
		SetSupplyType(hedera.TokenSupplyTypeInfinite).
		SetSupplyKey(supplyKey).
		SetAdminKey(supplyKey).
		FreezeWith(client)
	if err != nil {
		return nil, &apperrors.LedgerError{Op: "token create freeze", Cause: err}
	}

	resp, err := tx.Sign(supplyKey).Execute(client)
	if err != nil {
		return nil, &apperrors.LedgerError{Op: "token create", Cause: err}
	}

	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return nil, &apperrors.LedgerError{Op: "token create receipt", Cause: err}
	}

	result := &TokenCreateResult{TransactionID: resp.TransactionID.String()}
	if receipt.TokenID != nil {
		result.TokenID = receipt.TokenID.String()
	}

	g.logger.Info("token created",
		zap.String("token_id", result.TokenID),
		zap.String("symbol", symbol),
		zap.String("transaction_id", result.TransactionID))
	return result, nil
}

func (g *hederaGateway) MintFungibleUnits(ctx context.Context, adminID, adminKey, tokenID string, amount uint64) (string, error) {
	client, _, err := newOperatorClient(adminID, adminKey)
	if err != nil {
		return "", err
	}
	defer client.Close()

	token, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return "", fmt.Errorf("invalid token id %q: %w", tokenID, err)
	}

	resp, err := hedera.NewTokenMintTransaction().
		SetTokenID(token).
		SetAmount(amount).
		Execute(client)
	if err != nil {
		return "", &apperrors.LedgerError{Op: "token mint", Cause: err}
	}

	if _, err := resp.GetReceipt(client); err != nil {
		return "", &apperrors.LedgerError{Op: "token mint receipt", Cause: err}
	}

	txID := resp.TransactionID.String()
	g.logger.Info("tokens minted",
		zap.String("token_id", tokenID),
		zap.Uint64("amount", amount),
		zap.String("transaction_id", txID))
	return txID, nil
}

func (g *hederaGateway) MintNonFungibleUnit(ctx context.Context, adminID, adminKey, tokenID string, metadata []byte) (*NFTMintResult, error) {
	client, _, err := newOperatorClient(adminID, adminKey)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	token, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return nil, fmt.Errorf("invalid token id %q: %w", tokenID, err)
	}

	resp, err := hedera.NewTokenMintTransaction().
		SetTokenID(token).
		SetMetadata(metadata).
		Execute(client)
	if err != nil {
		return nil, &apperrors.LedgerError{Op: "nft mint", Cause: err}
	}

	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return nil, &apperrors.LedgerError{Op: "nft mint receipt", Cause: err}
	}

	result := &NFTMintResult{
		TransactionID: resp.TransactionID.String(),
		SerialNumber:  1,
	}
	if len(receipt.SerialNumbers) > 0 {
		result.SerialNumber = receipt.SerialNumbers[0]
	}

	g.logger.Info("nft minted",
		zap.String("token_id", tokenID),
		zap.Int64("serial_number", result.SerialNumber),
		zap.String("transaction_id", result.TransactionID))
	return result, nil
}
