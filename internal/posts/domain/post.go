package domain

import (
	"errors"
	"time"

	"github.com/philly/arch-blog/reader/internal/platform/validator"
)

// DefaultReadTime is shown when a post carries no read time of its own.
const DefaultReadTime = "5 min read"

// Author is the optional byline of a post.
type Author struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// Post is a blog post as stored by the remote content service. It is never
// modified locally once received.
type Post struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Category    []string  `json:"category" validate:"min=1,dive,required"`
	Description string    `json:"description" validate:"required"`
	Content     string    `json:"content" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	CoverImage  string    `json:"coverImage"`
	ReadTime    string    `json:"readTime,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// Draft is a post before the remote service has assigned it an id.
type Draft struct {
	Title       string    `json:"title"`
	Category    []string  `json:"category"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Date        time.Time `json:"date"`
	CoverImage  string    `json:"coverImage"`
	ReadTime    string    `json:"readTime,omitempty"`
	Author      *Author   `json:"author,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
}

// DraftForm is the raw input of the creation flow. Category is free text,
// comma separated.
type DraftForm struct {
	Title       string
	Category    string
	Description string
	Content     string
	CoverImage  string
}

// Validation errors
var (
	ErrInvalidTitle       = errors.New("title is required")
	ErrInvalidCategory    = errors.New("at least one category is required")
	ErrInvalidDescription = errors.New("description is required")
	ErrInvalidContent     = errors.New("content is required")
	ErrInvalidCoverImage  = errors.New("cover image must be an absolute http or https URL")
)

// ReadTimeOrDefault returns the post's read time or DefaultReadTime.
func (p *Post) ReadTimeOrDefault() string {
	if p.ReadTime == "" {
		return DefaultReadTime
	}
	return p.ReadTime
}

// PrimaryCategory returns the first category, used as the post's badge.
func (p *Post) PrimaryCategory() (string, bool) {
	if len(p.Category) == 0 {
		return "", false
	}
	return p.Category[0], true
}

// Validate checks a post received from the remote service against the
// schema. The returned field list is nil when the post is valid.
func (p *Post) Validate() ([]validator.FieldError, error) {
	return validator.Struct(p)
}

// Validate runs the creation form's checks and returns every problem found.
func (f DraftForm) Validate() []error {
	var errs []error
	if validator.RequireText("title", f.Title) != nil {
		errs = append(errs, ErrInvalidTitle)
	}
	if len(validator.SplitCategories(f.Category)) == 0 {
		errs = append(errs, ErrInvalidCategory)
	}
	if validator.RequireText("description", f.Description) != nil {
		errs = append(errs, ErrInvalidDescription)
	}
	if validator.RequireText("content", f.Content) != nil {
		errs = append(errs, ErrInvalidContent)
	}
	if validator.ValidateOptionalURL("coverImage", f.CoverImage) != nil {
		errs = append(errs, ErrInvalidCoverImage)
	}
	return errs
}

// NewDraft builds the creation request body from the form. Categories are
// split on commas and upper-cased; the date is stamped with now in UTC at
// millisecond precision.
func NewDraft(form DraftForm, now time.Time) Draft {
	return Draft{
		Title:       form.Title,
		Category:    validator.SplitCategories(form.Category),
		Description: form.Description,
		Content:     form.Content,
		Date:        now.UTC().Truncate(time.Millisecond),
		CoverImage:  form.CoverImage,
	}
}
