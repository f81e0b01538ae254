package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/fanuel08/Medicine-project/internal/auth"
	"github.com/fanuel08/Medicine-project/internal/service"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// pathID parses a positive integer path wildcard
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// writeServiceError maps service errors onto HTTP status + Fail envelope.
// Unexpected errors are logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	var (
		conflict *service.AlreadyAssignedError
		gateway  *service.GatewayError
	)
	switch {
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusBadRequest, Fail(conflict.Error()))
	case errors.As(err, &gateway):
		logger.Error("Upstream gateway error", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, Fail(gateway.Error()))
	case errors.Is(err, service.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": ")
		writeJSON(w, http.StatusBadRequest, Fail(msg))
	case errors.Is(err, service.ErrPatientNotFound):
		writeJSON(w, http.StatusNotFound, Fail(service.ErrPatientNotFound.Error()))
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, Fail("Not found."))
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNoAgentProfile):
		writeJSON(w, http.StatusForbidden, Fail(err.Error()))
	case errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, Result[any]{Code: ResultTokenExpired, Type: "error", Message: err.Error()})
	case errors.Is(err, service.ErrInvalidLogin), errors.Is(err, service.ErrAccountInactive):
		writeJSON(w, http.StatusUnauthorized, Fail(err.Error()))
	case errors.Is(err, service.ErrInvalidOTP):
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	case errors.Is(err, service.ErrTooManyRequests):
		writeJSON(w, http.StatusTooManyRequests, Fail(err.Error()))
	default:
		logger.Error("Request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("Internal server error."))
	}
}
