package backend

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/somtik/somtik-client/internal/common"
)

// apiError is the JSON error body returned by the platform. Field names
// drifted across API versions, so several aliases are accepted and
// Message() picks the first populated one.
type apiError struct {
	Status int `json:"-"`

	Code      any    `json:"code"` // int HTTP code in auth errors, string SQLSTATE in rest errors
	ErrorCode string `json:"error_code"`
	Msg       string `json:"msg"`
	Message_  string `json:"message"`
	ErrorDesc string `json:"error_description"`
}

func (e *apiError) Message() string {
	for _, s := range []string{e.Msg, e.Message_, e.ErrorDesc} {
		if s != "" {
			return s
		}
	}
	return http.StatusText(e.Status)
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message(), e.Status)
}

// sqlState returns the string form of Code when the rest API reported a
// SQLSTATE (e.g. "23505" for a unique violation).
func (e *apiError) sqlState() string {
	s, _ := e.Code.(string)
	return s
}

const sqlstateUniqueViolation = "23505"

// classifySignInError maps credential rejections to
// common.ErrInvalidCredentials; everything else passes through.
func classifySignInError(err *apiError) error {
	if err.ErrorCode == "invalid_credentials" ||
		strings.Contains(err.Message(), "Invalid login credentials") {
		return common.ErrInvalidCredentials
	}
	return err
}

// classifyVerifyError maps OTP rejections to expired/invalid sentinels.
//
// The platform's error taxonomy for OTP failures is not guaranteed stable:
// newer API versions carry error_code, older ones only a message. The
// substring fallback is best-effort UX, not a contract.
func classifyVerifyError(err *apiError) error {
	switch err.ErrorCode {
	case "otp_expired":
		return fmt.Errorf("%w: %s", common.ErrOTPExpired, err.Message())
	case "otp_disabled", "invalid_otp":
		return fmt.Errorf("%w: %s", common.ErrOTPInvalid, err.Message())
	}
	msg := strings.ToLower(err.Message())
	if strings.Contains(msg, "expired") {
		return fmt.Errorf("%w: %s", common.ErrOTPExpired, err.Message())
	}
	if strings.Contains(msg, "invalid") {
		return fmt.Errorf("%w: %s", common.ErrOTPInvalid, err.Message())
	}
	return fmt.Errorf("%w: %s", common.ErrOTPRejected, err.Message())
}

// classifyResendError maps the platform's rate limiter ("For security
// purposes, you can only request this after N seconds") to a
// ThrottledError.
func classifyResendError(err *apiError) error {
	if err.Status == http.StatusTooManyRequests ||
		strings.Contains(err.Message(), "security purposes") {
		return &common.ThrottledError{}
	}
	return err
}

// classifyInsertError maps a unique-constraint rejection to
// common.ErrConflict so callers can treat the losing side of the
// creation race as success.
func classifyInsertError(err *apiError) error {
	if err.Status == http.StatusConflict || err.sqlState() == sqlstateUniqueViolation ||
		strings.Contains(err.Message(), "duplicate key") {
		return common.ErrConflict
	}
	return err
}
