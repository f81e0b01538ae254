package httpapi

import (
	"errors"
	"mime"
	"net/http"

	"github.com/fanuel08/Medicine-project/internal/service"
	"github.com/fanuel08/Medicine-project/internal/ussd"

	"go.uber.org/zap"
)

const ussdUnavailable = "END Service temporarily unavailable. Please try again later."

// USSDHandler gateway webhook. Replies are text/plain; the CON/END prefix is part of the menu text.
type USSDHandler struct {
	session *ussd.Session
	logger  *zap.Logger
}

func NewUSSDHandler(session *ussd.Session, logger *zap.Logger) *USSDHandler {
	return &USSDHandler{session: session, logger: logger}
}

type ussdJSONBody struct {
	SessionID   string `json:"sessionId"`
	ServiceCode string `json:"serviceCode"`
	PhoneNumber string `json:"phoneNumber"`
	Text        string `json:"text"`
}

func (h *USSDHandler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := parseUSSDRequest(w, r)
	if err != nil {
		writeText(w, http.StatusBadRequest, "END Invalid request.")
		return
	}

	reply, err := h.session.Handle(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeText(w, http.StatusBadRequest, "END Invalid request.")
			return
		}
		h.logger.Error("USSD request failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)
		writeText(w, http.StatusOK, ussdUnavailable)
		return
	}
	writeText(w, http.StatusOK, reply)
}

// parseUSSDRequest accepts the gateway's form post or a JSON body
func parseUSSDRequest(w http.ResponseWriter, r *http.Request) (ussd.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body ussdJSONBody
		if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
			return ussd.Request{}, err
		}
		return ussd.Request{SessionID: body.SessionID, ServiceCode: body.ServiceCode, PhoneNumber: body.PhoneNumber, Text: body.Text}, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		return ussd.Request{}, err
	}
	return ussd.Request{
		SessionID:   r.PostFormValue("sessionId"),
		ServiceCode: r.PostFormValue("serviceCode"),
		PhoneNumber: r.PostFormValue("phoneNumber"),
		Text:        r.PostFormValue("text"),
	}, nil
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
