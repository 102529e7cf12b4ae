package validation

import (
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
var repoFullNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+/[A-Za-z0-9._-]+$`)

// Get returns the singleton validator instance with custom validators registered
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterValidation("project_slug", validateSlug)
		validate.RegisterValidation("repo_full_name", validateRepoFullName)
	})
	return validate
}

// Validate validates a struct and returns an error if invalid
func Validate(s any) error {
	return Get().Struct(s)
}

// validateSlug enforces DNS-label shaped project slugs: lowercase
// alphanumerics and hyphens, not leading or trailing with a hyphen.
func validateSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// validateRepoFullName enforces the "owner/repo" shape code-hosting
// APIs expect.
func validateRepoFullName(fl validator.FieldLevel) bool {
	return repoFullNamePattern.MatchString(fl.Field().String())
}
