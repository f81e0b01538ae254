package httpapi

import (
	"net/http"

	"github.com/fanuel08/Medicine-project/internal/service"

	"go.uber.org/zap"
)

// PatientLoginHandler OTP login for patients first seen over USSD
type PatientLoginHandler struct {
	login  service.PatientLoginService
	logger *zap.Logger
}

func NewPatientLoginHandler(login service.PatientLoginService, logger *zap.Logger) *PatientLoginHandler {
	return &PatientLoginHandler{login: login, logger: logger}
}

type otpBody struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

func (h *PatientLoginHandler) RequestLogin(w http.ResponseWriter, r *http.Request) {
	var body otpBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	if err := h.login.RequestOTP(r.Context(), body.PhoneNumber); err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage("OTP sent successfully.", map[string]string{"phone_number": body.PhoneNumber}))
}

func (h *PatientLoginHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var body otpBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body"))
		return
	}
	pair, err := h.login.VerifyOTP(r.Context(), body.PhoneNumber, body.OTP)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(pair))
}
