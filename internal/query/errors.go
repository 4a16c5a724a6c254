package query

import (
	"github.com/philly/arch-blog/reader/internal/platform/apperror"
)

var (
	// ErrStoreClosed is reported by subscriptions on a closed store.
	ErrStoreClosed = apperror.New(
		apperror.CodeInternalError,
		apperror.BusinessCodeGeneral,
		"query store is closed",
		0,
	)

	// ErrMutationPending rejects a write while the previous one is running.
	ErrMutationPending = apperror.New(
		apperror.CodeConflict,
		apperror.BusinessCodeMutationPending,
		"a submission is already in progress",
		0,
	)
)
