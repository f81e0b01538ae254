package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fanuel08/Medicine-project/internal/service"

	"go.uber.org/zap"
)

// callbackAck is what Daraja expects regardless of outcome
var callbackAck = map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"}

// PaymentsHandler STK push initiation, Daraja callback, payment history and export
type PaymentsHandler struct {
	payments service.PaymentService
	location *time.Location
	logger   *zap.Logger
}

func NewPaymentsHandler(payments service.PaymentService, location *time.Location, logger *zap.Logger) *PaymentsHandler {
	if location == nil {
		location = time.UTC
	}
	return &PaymentsHandler{payments: payments, location: location, logger: logger}
}

// Initiate relays Daraja's response body unchanged on success
func (h *PaymentsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CaseID int64 `json:"case_id"`
	}
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil || body.CaseID <= 0 {
		writeJSON(w, http.StatusBadRequest, Fail("case_id is required"))
		return
	}
	actor, _ := actorFrom(r.Context())
	resp, err := h.payments.InitiatePayment(r.Context(), body.CaseID, actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	if len(resp.Raw) == 0 {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Raw)
}

// Callback always acknowledges; problems are logged for reconciliation
func (h *PaymentsHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var cb service.STKCallback
	if err := readBodyJSON(r, maxBodyBytes, &cb); err != nil {
		h.logger.Warn("Malformed payment callback", zap.String("request_id", RequestID(r.Context())), zap.Error(err))
		writeJSON(w, http.StatusOK, callbackAck)
		return
	}
	if err := h.payments.HandleCallback(r.Context(), cb); err != nil {
		h.logger.Error("Payment callback processing failed",
			zap.String("request_id", RequestID(r.Context())),
			zap.String("checkout_request_id", cb.Body.StkCallback.CheckoutRequestID),
			zap.Error(err),
		)
	}
	writeJSON(w, http.StatusOK, callbackAck)
}

func (h *PaymentsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	list, err := h.payments.ListPayments(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(list))
}

func (h *PaymentsHandler) Export(w http.ResponseWriter, r *http.Request) {
	actor, _ := actorFrom(r.Context())
	list, err := h.payments.ListPayments(r.Context(), actor)
	if err != nil {
		writeServiceError(w, h.logger, r, err)
		return
	}
	data, err := GeneratePaymentsExport(list, h.location)
	if err != nil {
		h.logger.Error("Payments export failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to generate export"))
		return
	}
	filename := fmt.Sprintf("afyalink_payments_%s.xlsx", time.Now().In(h.location).Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
