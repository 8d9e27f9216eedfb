package service

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAccountNotFound     = errors.New("account not connected")
	ErrAccountInactive     = errors.New("account is inactive")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrPostNotFound        = errors.New("post not found")
)

// ValidationError rejects a request before anything is written.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Callback failure reasons surfaced to the admin settings page.
const (
	ReasonUnauthorized    = "unauthorized"
	ReasonMissingParams   = "missing_params"
	ReasonInvalidState    = "invalid_state"
	ReasonNoOrganizations = "no_organizations"
	ReasonNoPages         = "no_pages"
	ReasonNoAccount       = "no_account"
	ReasonServerError     = "server_error"
)

// OAuthError ends a connection flow with a reason the settings page can show.
type OAuthError struct {
	Reason string
	Err    error
}

func (e *OAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth %s: %v", e.Reason, e.Err)
	}
	return "oauth " + e.Reason
}

func (e *OAuthError) Unwrap() error {
	return e.Err
}

// ProviderError is a non-2xx answer from a platform API.
type ProviderError struct {
	Platform   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s api error (status %d): %s", e.Platform, e.StatusCode, e.Message)
}

// providerReason extracts the message a provider gave for a failed exchange
// or API call.
func providerReason(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		if re.ErrorDescription != "" {
			return re.ErrorDescription
		}
		if re.ErrorCode != "" {
			return re.ErrorCode
		}
	}
	return "connection_failed"
}
