package cli

import (
	"errors"
	"fmt"

	"github.com/muses-project/progress/internal/infrastructure/config"
	"github.com/muses-project/progress/pkg/domain/progress"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	switch {
	case errors.Is(err, config.ErrInvalidConfig):
		return &CLIError{
			Message:  "configuration is incomplete",
			Hint:     "Check the --config file and the QUEST_SVC_URL / MISSION_SVC_URL / MUSES_STORE_DRIVER variables",
			Err:      err,
			ExitCode: 2,
		}
	case errors.Is(err, progress.ErrInvalidDocument):
		return NewCLIError("stored document is malformed", "Inspect the mission or quest named in the error and repair it in the store", err)
	case errors.Is(err, progress.ErrServiceUnavailable), errors.Is(err, progress.ErrQuestLookupFailed):
		return NewCLIError("an upstream service is unreachable", "Check that the quest service is running, then retry", err)
	}

	return err
}
