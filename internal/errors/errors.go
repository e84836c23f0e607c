package errors

import "errors"

// Protocol and provider errors for the OAuth 1.0a login flow
var (
	// Provider errors
	ErrProviderUnavailable  = errors.New("provider unavailable")
	ErrCallbackNotConfirmed = errors.New("callback not confirmed")
	ErrExchangeRejected     = errors.New("exchange rejected")
	ErrIncompleteProfile    = errors.New("incomplete profile")

	// Callback errors
	ErrMalformedCallback     = errors.New("malformed callback")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUserDenied            = errors.New("user denied")

	// Internal errors
	ErrSignature = errors.New("signature error")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")

	// Storage errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// reasons maps each protocol sentinel onto the stable string returned to clients.
var reasons = []struct {
	err    error
	reason string
}{
	{ErrProviderUnavailable, "provider_unavailable"},
	{ErrCallbackNotConfirmed, "callback_not_confirmed"},
	{ErrMalformedCallback, "malformed_callback"},
	{ErrInvalidOrExpiredToken, "invalid_or_expired_token"},
	{ErrExchangeRejected, "exchange_rejected"},
	{ErrUserDenied, "user_denied"},
	{ErrIncompleteProfile, "incomplete_profile"},
	{ErrSignature, "signature_error"},
	{ErrSessionNotFound, "session_not_found"},
	{ErrSessionExpired, "session_expired"},
}

// Reason returns the client facing reason for err, "internal_error" when err is not
// part of the taxonomy.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal_error"
}

// IsRetryable reports whether the call that produced err may be retried once with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}

// IsProtocol reports whether err is a client or protocol state error. These are
// surfaced to the user and never retried.
func IsProtocol(err error) bool {
	for _, target := range []error{
		ErrCallbackNotConfirmed,
		ErrMalformedCallback,
		ErrInvalidOrExpiredToken,
		ErrExchangeRejected,
		ErrUserDenied,
		ErrIncompleteProfile,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}
