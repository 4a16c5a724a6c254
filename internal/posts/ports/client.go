package ports

import (
	"context"

	"github.com/philly/arch-blog/reader/internal/posts/domain"
)

// PostsClient is the driven port to the remote content service. It
// performs exactly one request per call and never retries.
//
// Failures are *apperror.AppError values: CodeRemoteError for non-2xx
// responses and transport failures (HTTPStatus 0), CodeNotFound for a
// 404 on GetPost, CodeMalformedResponse for bodies that do not decode
// into valid posts, CodeValidationFailed for calls rejected locally.
type PostsClient interface {
	// ListPosts fetches every post.
	ListPosts(ctx context.Context) ([]domain.Post, error)

	// GetPost fetches a single post. id must not be empty.
	GetPost(ctx context.Context, id string) (*domain.Post, error)

	// CreatePost submits a draft and returns the stored post with its
	// server-assigned id.
	CreatePost(ctx context.Context, draft domain.Draft) (*domain.Post, error)
}
