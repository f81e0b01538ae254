package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fanuel08/Medicine-project/internal/auth"
	"github.com/fanuel08/Medicine-project/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to the calling actor
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (service.Actor, error)
}

type ctxKey int

const (
	actorKey ctxKey = iota
	requestIDKey
)

func actorFrom(ctx context.Context) (service.Actor, bool) {
	a, ok := ctx.Value(actorKey).(service.Actor)
	return a, ok
}

// RequestID from context, "" outside a request
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// requestLog tags the request with an id and logs one line when it completes
func requestLog(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		logger.Info("HTTP request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func recoverer(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				logger.Error("Handler panic",
					zap.String("request_id", RequestID(r.Context())),
					zap.String("path", r.URL.Path),
					zap.Any("panic", v),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, Fail("Internal server error."))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// requireAuth rejects requests without a valid access token
func (rt *Router) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, Fail("Authentication credentials were not provided."))
			return
		}
		actor, err := rt.authn.Authenticate(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, Result[any]{Code: ResultTokenExpired, Type: "error", Message: auth.ErrInvalidToken.Error()})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
	}
}

// requireStaff requireAuth plus the staff flag
func (rt *Router) requireStaff(next http.HandlerFunc) http.HandlerFunc {
	return rt.requireAuth(func(w http.ResponseWriter, r *http.Request) {
		if actor, _ := actorFrom(r.Context()); !actor.IsStaff {
			writeJSON(w, http.StatusForbidden, Fail(service.ErrForbidden.Error()))
			return
		}
		next(w, r)
	})
}
