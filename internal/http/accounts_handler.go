package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/fanuel08/Medicine-project/internal/service"

	"go.uber.org/zap"
)

// AccountsHandler token issue, agent registration and approval
type AccountsHandler struct {
	auth   service.AuthService
	logger *zap.Logger
}

func NewAccountsHandler(auth service.AuthService, logger *zap.Logger) *AccountsHandler {
	return &AccountsHandler{auth: auth, logger: logger}
}

func (h *AccountsHandler) Token(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if body.Username == "" || body.Password == "" {
		writeJSON(w, http.StatusBadRequest, Fail("username and password are required"))
		return
	}
	pair, err := h.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(pair))
}

func (h *AccountsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil || body.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, Fail("refresh is required"))
		return
	}
	access, err := h.auth.Refresh(r.Context(), body.Refresh)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]string{"access": access}))
}

func (h *AccountsHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	me, err := h.auth.Me(r.Context(), actor.AccountID)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(me))
}

func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	agent, err := h.auth.Register(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, OkMessage("Agent registered successfully. Awaiting approval.", agent))
}

func (h *AccountsHandler) CheckUsername(w http.ResponseWriter, r *http.Request) {
	h.checkExists(w, r, "username", h.auth.UsernameExists)
}

func (h *AccountsHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	h.checkExists(w, r, "email", h.auth.EmailExists)
}

func (h *AccountsHandler) checkExists(w http.ResponseWriter, r *http.Request, param string, exists func(ctx context.Context, v string) (bool, error)) {
	v := strings.TrimSpace(r.URL.Query().Get(param))
	if v == "" {
		writeJSON(w, http.StatusBadRequest, Fail(fmt.Sprintf("%s parameter is required", param)))
		return
	}
	ok, err := exists(r.Context(), v)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"exists": ok}))
}

func (h *AccountsHandler) ApprovalStatus(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, Fail("username parameter is required"))
		return
	}
	status, err := h.auth.ApprovalStatus(r.Context(), username)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(status))
}

func (h *AccountsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusNotFound, Fail("Agent not found."))
		return
	}
	agent, changed, err := h.auth.ApproveAgent(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusOK, OkMessage("Agent already approved.", agent))
		return
	}
	writeJSON(w, http.StatusOK, OkMessage(fmt.Sprintf("Agent '%s' approved.", agent.Username), agent))
}
