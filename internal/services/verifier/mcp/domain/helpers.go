package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/verifier.space/internal/platform/errors"
	"github.com/louisbranch/verifier.space/internal/platform/errors/i18n"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/ledger"
)

// ToolError is returned by handlers for engine failures. The SDK renders it
// as an error result whose text carries the code.
type ToolError struct {
	Action    string
	Code      apperrors.Code
	Message   string
	Retryable bool
	cause     error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s failed: %s: %s", e.Action, e.Code, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.cause
}

// toolError localizes domain errors and wraps anything else.
func toolError(action string, err error) error {
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	return &ToolError{
		Action:    action,
		Code:      code,
		Message:   i18n.GetCatalog(i18n.BaseLocale).Format(string(code), apperrors.MetadataOf(err)),
		Retryable: code.Retryable(),
		cause:     err,
	}
}

func invalidInput(action, reason string) error {
	return toolError(action, apperrors.WithMetadata(apperrors.CodeInvalidArgument, reason, map[string]string{"Reason": reason}))
}

func requireCaller(action, caller string) (account.ID, error) {
	caller = strings.TrimSpace(caller)
	if caller == "" {
		return "", invalidInput(action, "caller is required")
	}
	return account.ID(caller), nil
}

func parseAmount(action, field, value string) (ledger.Amount, error) {
	amount, err := ledger.ParseAmount(strings.TrimSpace(value))
	if err != nil {
		return ledger.Amount{}, invalidInput(action, field+" must be a non-negative base-10 integer")
	}
	return amount, nil
}

func parseOptionalTime(action, field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, invalidInput(action, field+" must be an RFC3339 timestamp")
	}
	return parsed.UTC(), nil
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339)
}

// IsToolError reports whether err carries the given engine code.
func IsToolError(err error, code apperrors.Code) bool {
	var toolErr *ToolError
	return errors.As(err, &toolErr) && toolErr.Code == code
}

func accountID(value string) account.ID {
	return account.ID(strings.TrimSpace(value))
}
