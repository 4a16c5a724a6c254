package apperror

// ErrorCode is the general category of a failure.
type ErrorCode string

const (
	CodeRemoteError       ErrorCode = "REMOTE_ERROR"
	CodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// BusinessCode narrows an ErrorCode to the operation or rule that failed.
type BusinessCode string

const (
	BusinessCodeGeneral          BusinessCode = "GENERAL"
	BusinessCodeListPostsFailed  BusinessCode = "LIST_POSTS_FAILED"
	BusinessCodeGetPostFailed    BusinessCode = "GET_POST_FAILED"
	BusinessCodeCreatePostFailed BusinessCode = "CREATE_POST_FAILED"
	BusinessCodePostNotFound     BusinessCode = "POST_NOT_FOUND"
	BusinessCodeMissingPostID    BusinessCode = "MISSING_POST_ID"
	BusinessCodeInvalidDraft     BusinessCode = "INVALID_DRAFT"
	BusinessCodeInvalidPost      BusinessCode = "INVALID_POST"
	BusinessCodeInvalidFormat    BusinessCode = "INVALID_FORMAT"
	BusinessCodeMutationPending  BusinessCode = "MUTATION_PENDING"
	BusinessCodeInvalidView      BusinessCode = "INVALID_VIEW"
)
