package rbac

import "errors"

// Identity resolution failures. Each one means the session-held identity must
// be discarded by the transport layer so a stale principal is never reused.
var (
	ErrAccountNotFound = errors.New("rbac: account not found")
	ErrAccountInactive = errors.New("rbac: account inactive")
	ErrAccountBlocked  = errors.New("rbac: account blocked")
	ErrAccountLocked   = errors.New("rbac: account locked")
)

// Authorization gate failures. The transport maps ErrAuthenticationRequired
// to 401 and the two insufficiency errors to 403.
var (
	ErrAuthenticationRequired = errors.New("rbac: authentication required")
	ErrInsufficientPermission = errors.New("rbac: insufficient permission")
	ErrInsufficientRole       = errors.New("rbac: insufficient role")
)

var (
	ErrInvalidCredentials = errors.New("rbac: invalid credentials")
	ErrNotFound           = errors.New("rbac: not found")
	ErrAlreadyExists      = errors.New("rbac: already exists")
	ErrInvalidInput       = errors.New("rbac: invalid input")
	ErrSystemRecord       = errors.New("rbac: system record cannot be deleted")

	// ErrInvalidToken indicates a session token failed validation.
	ErrInvalidToken = errors.New("rbac: invalid token")
)
