package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/authboot/internal/common"
)

// apiError covers both the current GoTrue error body
// ({"code","error_code","msg"}) and the older OAuth-style one
// ({"error","error_description"}).
type apiError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Err              string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Msg, e.Message, e.ErrorDescription, e.Err} {
		if s != "" {
			return s
		}
	}
	return ""
}

func decodeAPIError(body []byte) apiError {
	var e apiError
	_ = json.Unmarshal(body, &e)
	return e
}

// mapAPIError converts a non-2xx response into one of the common sentinels.
func mapAPIError(status int, e apiError) error {
	text := e.text()

	switch e.ErrorCode {
	case "invalid_credentials":
		return common.ErrInvalidCredentials
	case "email_not_confirmed":
		return common.ErrEmailNotConfirmed
	case "user_already_exists", "email_exists":
		return common.ErrAlreadyRegistered
	case "weak_password":
		return fmt.Errorf("%w: %s", common.ErrWeakPassword, text)
	case "refresh_token_not_found", "refresh_token_already_used", "session_not_found", "session_expired", "bad_jwt":
		return fmt.Errorf("%w: %s", common.ErrInvalidToken, e.ErrorCode)
	}

	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "invalid login credentials"):
		return common.ErrInvalidCredentials
	case strings.Contains(lower, "email not confirmed"):
		return common.ErrEmailNotConfirmed
	case strings.Contains(lower, "already registered"):
		return common.ErrAlreadyRegistered
	case strings.Contains(lower, "password should be"):
		return fmt.Errorf("%w: %s", common.ErrWeakPassword, text)
	case strings.Contains(lower, "invalid refresh token"):
		return fmt.Errorf("%w: %s", common.ErrInvalidToken, text)
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, text)
	case status == http.StatusBadGateway, status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return fmt.Errorf("%w: status %d", common.ErrUnavailable, status)
	}

	if text == "" {
		text = http.StatusText(status)
	}
	return fmt.Errorf("%w: %s (status %d)", common.ErrProvider, text, status)
}
