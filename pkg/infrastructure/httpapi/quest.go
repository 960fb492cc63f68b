package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/muses-project/progress/pkg/application"
	"github.com/muses-project/progress/pkg/contract"
	"github.com/muses-project/progress/pkg/domain/progress"
	"github.com/muses-project/progress/pkg/domain/quest"
)

type questHandler struct {
	svc    *application.QuestService
	logger *zap.Logger
}

// NewQuestRouter serves the quest service.
func NewQuestRouter(svc *application.QuestService, ready ReadyFunc, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &questHandler{svc: svc, logger: logger}

	r := newRouter("quest", ready, logger)
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/status", h.byStatus)
	r.Post("/status/{id}", h.updateStatus)
	r.Post("/complete/{id}", h.completeTask)
	r.Post("/start/{id}", h.transition(svc.Start))
	r.Post("/stop/{id}", h.transition(svc.Stop))
	r.Post("/reset/{id}", h.transition(svc.Reset))
	r.Get("/{id}", h.get)
	// POST /{id} carries a user id.
	r.Post("/{id}", h.generate)
	return r
}

func (h *questHandler) get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, chi.URLParam(r, "id"))
}

func (h *questHandler) list(w http.ResponseWriter, r *http.Request) {
	quests, err := h.svc.List(r.Context(), quest.Query{})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.QuestList{Quests: quests, Count: len(quests)})
}

// byStatus counts quests matching status and subject; full=true also lists them.
func (h *questHandler) byStatus(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := quest.Query{SubjectID: params.Get("subject")}
	if raw := params.Get("status"); raw != "" {
		status, err := progress.ParseStatus(raw)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		q.Status = status
	}

	full, _ := strconv.ParseBool(params.Get("full"))
	if !full {
		n, err := h.svc.Count(r.Context(), q)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, contract.QuestList{Count: n})
		return
	}

	quests, err := h.svc.List(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.QuestList{Quests: quests, Count: len(quests)})
}

func (h *questHandler) create(w http.ResponseWriter, r *http.Request) {
	raw, err := readBody(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	q, err := contract.DecodeQuest(raw)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id, err := h.svc.Create(r.Context(), q)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, contract.QuestCreated{Quest: id})
}

func (h *questHandler) generate(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.Generate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

func (h *questHandler) completeTask(w http.ResponseWriter, r *http.Request) {
	var req contract.CompleteTaskRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	p, _, err := h.svc.CompleteTask(r.Context(), chi.URLParam(r, "id"), req.TaskID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *questHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req contract.StatusRequest
	if err := decodeBody(r, &req, false); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.svc.UpdateStatus(r.Context(), id, req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	h.respond(w, r, id)
}

func (h *questHandler) transition(op func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := op(r.Context(), id); err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		h.respond(w, r, id)
	}
}

// respond writes the quest with its progress counters.
func (h *questHandler) respond(w http.ResponseWriter, r *http.Request, id string) {
	q, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, contract.NewQuestEnvelope(q))
}
