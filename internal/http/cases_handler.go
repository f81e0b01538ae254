package httpapi

import (
	"net/http"

	"github.com/fanuel08/Medicine-project/internal/service"

	"go.uber.org/zap"
)

// CasesHandler dashboard case endpoints; every route runs behind requireAuth
type CasesHandler struct {
	cases  service.CaseService
	logger *zap.Logger
}

func NewCasesHandler(cases service.CaseService, logger *zap.Logger) *CasesHandler {
	return &CasesHandler{cases: cases, logger: logger}
}

func (h *CasesHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	list, err := h.cases.ListCases(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *CasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	var body struct {
		SymptomInput string `json:"symptom_input"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	c, err := h.cases.CreateWebCase(r.Context(), actor, body.SymptomInput)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, Ok(c))
}

func (h *CasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail("Not found."))
		return
	}
	actor, _ := actorFrom(r.Context())
	c, err := h.cases.GetCase(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

func (h *CasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail("Not found."))
		return
	}
	var req service.UpdateCaseRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	actor, _ := actorFrom(r.Context())
	c, err := h.cases.UpdateCase(r.Context(), id, req, actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(c))
}

func (h *CasesHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail("Not found."))
		return
	}
	actor, _ := actorFrom(r.Context())
	c, err := h.cases.ClaimCase(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("Case claimed successfully.", c))
}

func (h *CasesHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail("Not found."))
		return
	}
	actor, _ := actorFrom(r.Context())
	history, err := h.cases.CaseHistory(r.Context(), id, actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(history))
}
