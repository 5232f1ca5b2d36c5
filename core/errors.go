package core

import "errors"

var (
	// ErrNotPrepared is returned when the provider is used before Prepare
	ErrNotPrepared = errors.New("sso provider not prepared")

	// ErrStoreUnavailable is returned when the secure store cannot be read
	ErrStoreUnavailable = errors.New("secure store unavailable")

	// ErrNoAccounts is returned when the store holds no linked accounts
	ErrNoAccounts = errors.New("no sso accounts")

	// ErrDecode is returned when the stored account records cannot be parsed
	ErrDecode = errors.New("undecodable account records")

	// ErrNoMatchingAccount is returned when an explicitly requested account is absent
	ErrNoMatchingAccount = errors.New("no matching account")

	ErrItemNotFound = errors.New("item not found")
	ErrAccessDenied = errors.New("access denied")

	// ErrTokenInvalidated is returned when a refresh token is known to be rejected
	ErrTokenInvalidated = errors.New("refresh token has been invalidated")

	// ErrTokenRejected is returned when the auth backend refuses a refresh token
	ErrTokenRejected = errors.New("refresh token rejected")

	ErrInvalidClientToken = errors.New("invalid client token")
)
