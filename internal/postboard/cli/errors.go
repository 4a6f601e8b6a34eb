package cli

import (
	"errors"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

// fail writes err through f and returns the matching ExitError. fallback is
// the message shown when the server gave none ("Login failed").
func fail(f *OutputFormatter, err error, fallback string) error {
	code, exit := classify(err)
	msg := feedsdk.Message(err, fallback)

	var details any
	var valErr *feedsdk.ValidationError
	var apiErr *feedsdk.APIError
	switch {
	case errors.As(err, &valErr):
		details = valErr.Fields
	case errors.As(err, &apiErr):
		if len(apiErr.Errors) > 0 {
			details = apiErr.Errors
		} else {
			details = map[string]int{"status": apiErr.StatusCode}
		}
	default:
		details = err.Error()
	}

	_ = f.Error(code, msg, details)
	return WrapExitError(exit, msg, err)
}

func classify(err error) (string, int) {
	var (
		valErr *feedsdk.ValidationError
		apiErr *feedsdk.APIError
		decErr *feedsdk.DecodeError
	)

	switch {
	case errors.As(err, &valErr):
		return ErrCodeValidation, ExitFailure
	case errors.Is(err, feedsdk.ErrSessionExpired):
		return ErrCodeSessionExpired, ExitNotAuthenticated
	case errors.Is(err, feedsdk.ErrNotAuthenticated):
		return ErrCodeNotAuthenticated, ExitNotAuthenticated
	case errors.As(err, &apiErr):
		return ErrCodeAPI, ExitFailure
	case errors.As(err, &decErr):
		return ErrCodeDecode, ExitFailure
	case errors.Is(err, feedsdk.ErrTransport):
		return ErrCodeTransport, ExitFailure
	default:
		return ErrCodeGeneric, ExitFailure
	}
}
