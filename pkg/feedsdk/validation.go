package feedsdk

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is enforced at registration.
const MinPasswordLength = 8

// Validate checks login fields. It returns a *ValidationError or nil.
func (r LoginRequest) Validate() error {
	errs := make(map[string]string)

	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		errs["email"] = "Email address is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Enter a valid email address"
	}

	if r.Password == "" {
		errs["password"] = "Password is required"
	}

	return newValidationError(errs)
}

// Validate checks registration fields. It returns a *ValidationError or nil.
func (r RegisterRequest) Validate() error {
	errs := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errs["name"] = "Full name is required"
	}

	email := strings.TrimSpace(r.Email)
	switch {
	case email == "":
		errs["email"] = "Email address is required"
	case !emailPattern.MatchString(email):
		errs["email"] = "Enter a valid email address"
	}

	switch {
	case r.Password == "":
		errs["password"] = "Password is required"
	case len(r.Password) < MinPasswordLength:
		errs["password"] = "Password must be at least 8 characters"
	}

	switch {
	case r.PasswordConfirmation == "":
		errs["password_confirmation"] = "Please confirm your password"
	case r.PasswordConfirmation != r.Password:
		errs["password_confirmation"] = "Passwords do not match"
	}

	return newValidationError(errs)
}

// Validate checks the address is plausibly an email.
func (r ForgotPasswordRequest) Validate() error {
	if !emailPattern.MatchString(strings.TrimSpace(r.Email)) {
		return newValidationError(map[string]string{"email": "Please enter a valid email address."})
	}
	return nil
}

// Validate requires a non-blank title and content.
func (p PostInput) Validate() error {
	errs := make(map[string]string)
	if strings.TrimSpace(p.Title) == "" {
		errs["title"] = "Title is required"
	}
	if strings.TrimSpace(p.Content) == "" {
		errs["content"] = "Content is required"
	}
	return newValidationError(errs)
}

// Validate requires non-blank content.
func (c CommentInput) Validate() error {
	if strings.TrimSpace(c.Content) == "" {
		return newValidationError(map[string]string{"content": "Comment cannot be empty"})
	}
	return nil
}
