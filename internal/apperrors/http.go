package apperrors

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a domain error to the response status its handler
// should emit. Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	var (
		validation *ValidationError
		auth       *AuthError
		invalidKey *InvalidKeyError
		ledger     *LedgerError
		store      *BackingStoreError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &invalidKey):
		return http.StatusBadRequest
	case errors.As(err, &auth), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrWalletNotConnected), errors.Is(err, ErrSellerWalletMissing):
		return http.StatusPreconditionFailed
	case errors.Is(err, ErrInsufficientTons):
		return http.StatusConflict
	case errors.As(err, &ledger):
		return http.StatusBadGateway
	case errors.As(err, &store):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
