package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/progress"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorTable gives every error category exactly one HTTP status. Entries are
// matched in order with errors.Is.
var errorTable = []errorMapping{
	{progress.ErrBadRequest, http.StatusBadRequest, "bad_request"},
	{progress.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{progress.ErrIllegalTransition, http.StatusBadRequest, "illegal_transition"},
	{progress.ErrNotStarted, http.StatusBadRequest, "not_started"},
	{progress.ErrTasksIncomplete, http.StatusBadRequest, "tasks_incomplete"},
	{progress.ErrStepsIncomplete, http.StatusBadRequest, "steps_incomplete"},
	{progress.ErrStepNotFound, http.StatusBadRequest, "step_not_found"},
	{progress.ErrNoQuests, http.StatusBadRequest, "no_quests"},
	{progress.ErrInvalidDocument, http.StatusBadRequest, "invalid_document"},
	{progress.ErrRemoteStartFailed, http.StatusBadRequest, "remote_start_failed"},
	{progress.ErrRemoteStopFailed, http.StatusBadRequest, "remote_stop_failed"},
	{progress.ErrRemoteResetFailed, http.StatusBadRequest, "remote_reset_failed"},

	{progress.ErrNotAuthorized, http.StatusUnauthorized, "not_authorized"},

	{progress.ErrQuestNotDone, http.StatusForbidden, "quest_not_done"},

	{progress.ErrNotFound, http.StatusNotFound, "not_found"},
	{progress.ErrTaskNotFound, http.StatusNotFound, "task_not_found"},
	{progress.ErrDataIncoherent, http.StatusNotFound, "data_incoherent"},
	{progress.ErrQuestNotInMission, http.StatusNotFound, "quest_not_in_mission"},
	{progress.ErrTaskNotInQuest, http.StatusNotFound, "task_not_in_quest"},
	{progress.ErrCascadeTaskNotFound, http.StatusNotFound, "task_not_found"},

	{progress.ErrOutOfOrder, http.StatusNotAcceptable, "out_of_order"},
	{progress.ErrNotNextInOrder, http.StatusNotAcceptable, "not_next_in_order"},

	{progress.ErrQuestCompletionFailed, http.StatusInternalServerError, "quest_completion_failed"},
	{progress.ErrMissionCompletionFailed, http.StatusInternalServerError, "mission_completion_failed"},
	{progress.ErrGenerationFailed, http.StatusInternalServerError, "generation_failed"},

	{progress.ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{progress.ErrQuestLookupFailed, http.StatusServiceUnavailable, "quest_lookup_failed"},
	{progress.ErrNextQuestStartFailed, http.StatusServiceUnavailable, "next_quest_start_failed"},
	{contract.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
}

// StatusFor returns the HTTP status and error code for err. Unknown errors
// are internal.
func StatusFor(err error) (int, string) {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// writeError writes the JSON error body for err. Server-side failures are
// logged; client mistakes only at debug level.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status, code := StatusFor(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", fields...)
		if code == "internal" {
			message = "internal server error"
		}
	} else {
		logger.Debug("request rejected", fields...)
	}
	writeJSON(w, status, contract.ErrorBody{Error: code, Message: message})
}
