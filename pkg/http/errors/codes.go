package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeForbidden              = "forbidden"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Balance game errors
	ErrCodeNotConnected        = "not_connected"
	ErrCodeInvalidOption       = "invalid_option"
	ErrCodeNoSelection         = "no_selection"
	ErrCodeCommentNotOpen      = "comment_not_open"
	ErrCodeSubmitInProgress    = "submit_in_progress"
	ErrCodeSubmitFailed        = "submit_failed"
	ErrCodeReconcileFailed     = "reconcile_failed"
	ErrCodeStateFetchFailed    = "state_fetch_failed"
	ErrCodeHistoryFetchFailed  = "history_fetch_failed"
	ErrCodeHistoryDeleteFailed = "history_delete_failed"
	ErrCodeCoupleNotFound      = "couple_not_found"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
