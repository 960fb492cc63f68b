package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/application"
	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/mission"
	"github.com/muses-project/progress/pkg/domain/progress"
)

type missionHandler struct {
	svc    *application.MissionService
	logger *zap.Logger
}

// NewMissionRouter serves the mission service.
func NewMissionRouter(svc *application.MissionService, ready ReadyFunc, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &missionHandler{svc: svc, logger: logger}

	r := newRouter("mission", ready, logger)
	r.Get("/", h.list(func(*http.Request) (mission.Query, error) { return mission.Query{}, nil }))
	r.Get("/status", h.list(statusQuery))
	r.Get("/user/{userId}", h.list(func(r *http.Request) (mission.Query, error) {
		return mission.Query{UserID: chi.URLParam(r, "userId")}, nil
	}))
	r.Post("/status/{id}", h.updateStatus)
	r.Post("/complete/{id}", h.completeStep)
	r.Post("/start/{id}", h.transition(svc.Start))
	r.Post("/stop/{id}", h.transition(svc.Stop))
	r.Post("/reset/{id}", h.transition(svc.Reset))
	r.Get("/{id}", h.get)
	// POST /{id} carries a user id.
	r.Post("/{id}", h.generate)
	return r
}

func statusQuery(r *http.Request) (mission.Query, error) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return mission.Query{}, fmt.Errorf("%w: status query parameter is required", progress.ErrBadRequest)
	}
	status, err := progress.ParseStatus(raw)
	if err != nil {
		return mission.Query{}, err
	}
	return mission.Query{Status: status}, nil
}

func (h *missionHandler) list(query func(*http.Request) (mission.Query, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := query(r)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		missions, err := h.svc.List(r.Context(), q)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		if missions == nil {
			missions = []*mission.Mission{}
		}
		writeJSON(w, http.StatusOK, contract.MissionList{Missions: missions, Count: len(missions)})
	}
}

func (h *missionHandler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, chi.URLParam(r, "id"))
}

func (h *missionHandler) generate(w http.ResponseWriter, r *http.Request) {
	id, err := h.svc.Generate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.MissionCreated{Mission: id})
}

func (h *missionHandler) completeStep(w http.ResponseWriter, r *http.Request) {
	var req contract.CompleteStepRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if _, err := h.svc.CompleteStep(r.Context(), chi.URLParam(r, "id"), req.StepID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *missionHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req contract.StatusRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, id)
}

func (h *missionHandler) transition(op func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := op(r.Context(), id); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		h.respond(w, r, id)
	}
}

func (h *missionHandler) respond(w http.ResponseWriter, r *http.Request, id string) {
	m, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewMissionEnvelope(m))
}
