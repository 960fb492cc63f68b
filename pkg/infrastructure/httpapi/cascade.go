package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/application"
	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/progress"
)

type cascadeHandler struct {
	svc    *application.CascadeService
	logger *zap.Logger
}

// NewCascadeRouter serves the task completion entry point.
func NewCascadeRouter(svc *application.CascadeService, auth AuthConfig, ready ReadyFunc, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &cascadeHandler{svc: svc, logger: logger}

	r := newRouter("cascade", ready, logger)
	r.With(RequireUser(auth, "userId", logger)).Post("/{userId}", h.completeTask)
	return r
}

func (h *cascadeHandler) completeTask(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userId"))
	if userID == "" {
		writeError(w, r, h.logger, fmt.Errorf("%w: user id is required", progress.ErrBadRequest))
		return
	}
	var req contract.CascadeRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.svc.CompleteTask(r.Context(), userID, req.MissionID, req.QuestID, req.TaskID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
