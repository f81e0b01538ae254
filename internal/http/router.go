package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux with method patterns
type Router struct {
	mux     *http.ServeMux
	prefix  string
	authn   Authenticator
	logger  *zap.Logger
	handler http.Handler
}

// NewRouter mounts every route under prefix (e.g. "/api")
func NewRouter(prefix string, authn Authenticator, logger *zap.Logger) *Router {
	rt := &Router{
		mux:    http.NewServeMux(),
		prefix: strings.TrimRight(prefix, "/"),
		authn:  authn,
		logger: logger,
	}
	rt.handler = recoverer(logger, requestLog(logger, rt.mux))
	rt.mux.HandleFunc("GET /health", rt.health)
	if rt.prefix != "" {
		rt.Handle(http.MethodGet, "/health", rt.health)
	}
	return rt
}

// Handle registers h for method + prefixed path; a trailing slash matches exactly
func (rt *Router) Handle(method, path string, h http.HandlerFunc) {
	if strings.HasSuffix(path, "/") {
		path += "{$}"
	}
	rt.mux.HandleFunc(method+" "+rt.prefix+path, h)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rt.handler.ServeHTTP(w, req)
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
}

// RegisterUSSDRoutes gateway webhook
func (rt *Router) RegisterUSSDRoutes(h *USSDHandler) {
	rt.Handle(http.MethodPost, "/ussd/", h.Handle)
}

// RegisterCaseRoutes dashboard case endpoints
func (rt *Router) RegisterCaseRoutes(h *CasesHandler) {
	rt.Handle(http.MethodGet, "/cases/", rt.requireAuth(h.List))
	rt.Handle(http.MethodPost, "/cases/", rt.requireAuth(h.Create))
	rt.Handle(http.MethodGet, "/cases/{id}/", rt.requireAuth(h.Get))
	rt.Handle(http.MethodPatch, "/cases/{id}/", rt.requireAuth(h.Update))
	rt.Handle(http.MethodPut, "/cases/{id}/", rt.requireAuth(h.Update))
	rt.Handle(http.MethodPost, "/cases/{id}/claim/", rt.requireAuth(h.Claim))
	rt.Handle(http.MethodGet, "/cases/{id}/history/", rt.requireAuth(h.History))
}

// RegisterAccountRoutes tokens, agent registration and approval
func (rt *Router) RegisterAccountRoutes(h *AccountsHandler) {
	rt.Handle(http.MethodPost, "/token/", h.Token)
	rt.Handle(http.MethodPost, "/token/refresh/", h.Refresh)
	rt.Handle(http.MethodGet, "/me/", rt.requireAuth(h.Me))
	rt.Handle(http.MethodPost, "/register/", h.Register)
	rt.Handle(http.MethodGet, "/check-username/", h.CheckUsername)
	rt.Handle(http.MethodGet, "/check-email/", h.CheckEmail)
	rt.Handle(http.MethodGet, "/check-approval-status/", h.ApprovalStatus)
	rt.Handle(http.MethodPost, "/agents/{id}/approve/", rt.requireStaff(h.Approve))
}

// RegisterPatientLoginRoutes OTP login
func (rt *Router) RegisterPatientLoginRoutes(h *PatientLoginHandler) {
	rt.Handle(http.MethodPost, "/user/request-login/", h.RequestLogin)
	rt.Handle(http.MethodPost, "/user/verify-login/", h.VerifyLogin)
}

// RegisterPaymentRoutes M-Pesa endpoints
func (rt *Router) RegisterPaymentRoutes(h *PaymentsHandler) {
	rt.Handle(http.MethodPost, "/initiate-payment/", rt.requireAuth(h.Initiate))
	rt.Handle(http.MethodPost, "/payments/callback/", h.Callback)
	rt.Handle(http.MethodGet, "/payments/", rt.requireAuth(h.List))
	rt.Handle(http.MethodGet, "/payments/export/", rt.requireStaff(h.Export))
}
