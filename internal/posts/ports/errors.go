package ports

import (
	"net/http"

	"github.com/philly/arch-blog/reader/internal/platform/apperror"
)

// Canonical errors. Clients return copies carrying the actual status and
// message; errors.Is matches on code and business code only.
var (
	ErrPostNotFound = apperror.New(
		apperror.CodeNotFound,
		apperror.BusinessCodePostNotFound,
		"post not found",
		http.StatusNotFound,
	)

	ErrMissingPostID = apperror.New(
		apperror.CodeValidationFailed,
		apperror.BusinessCodeMissingPostID,
		"post id is required",
		0,
	)
)

// IsRemoteError reports whether err is a failed remote call of any kind,
// including not-found responses.
func IsRemoteError(err error) bool {
	return apperror.HasCode(err, apperror.CodeRemoteError) || apperror.HasCode(err, apperror.CodeNotFound)
}

// IsMalformedResponse reports whether err came from an invalid response body.
func IsMalformedResponse(err error) bool {
	return apperror.HasCode(err, apperror.CodeMalformedResponse)
}
