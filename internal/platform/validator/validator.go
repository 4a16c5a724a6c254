package validator

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"
)

var (
	ErrRequired     = errors.New("value is required")
	ErrInvalidURL   = errors.New("must be an absolute http or https URL")
	ErrNoCategories = errors.New("at least one category is required")
)

var (
	instance     *playground.Validate
	instanceOnce sync.Once
)

// FieldError is one failed struct-tag rule, keyed by the JSON field name.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func (f FieldError) String() string { return f.Field + ":" + f.Rule }

func validate() *playground.Validate {
	instanceOnce.Do(func() {
		instance = playground.New(playground.WithRequiredStructEnabled())
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return instance
}

// Struct checks v against its `validate` tags. On failure it returns the
// failed fields in declaration order together with a summary error.
func Struct(v any) ([]FieldError, error) {
	err := validate().Struct(v)
	if err == nil {
		return nil, nil
	}

	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	fields := make([]FieldError, 0, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fieldPath(fe.Namespace())
		fields = append(fields, FieldError{Field: field, Rule: fe.Tag()})
		names = append(names, field)
	}
	return fields, fmt.Errorf("invalid fields: %s", strings.Join(names, ", "))
}

// fieldPath drops the root struct name from a validator namespace,
// "Post.author.name" becomes "author.name".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// SplitCategories turns comma separated input into upper-case category
// names. Blank entries are dropped; order is kept.
func SplitCategories(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequireText fails when value is empty after trimming.
func RequireText(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s: %w", field, ErrRequired)
	}
	return nil
}

// ValidateOptionalURL accepts the empty string or an absolute http(s) URL.
func ValidateOptionalURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	return ValidateURL(field, raw)
}

// ValidateURL requires an absolute http(s) URL with a host.
func ValidateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s: %w", field, ErrInvalidURL)
	}
	return nil
}
