package transport

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/crm-backoffice/internal"
	"github.com/frahmantamala/crm-backoffice/pkg/logger"
	"github.com/go-chi/chi"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes an error envelope for a plain status and message.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.writeAppError(w, errorForStatus(status, message))
}

// HandleServiceError maps an error returned by a service to the HTTP error envelope.
// Anything that is not an AppError is reported as a 500 with a stable message.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	if appErr, ok := internal.IsAppError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			h.Logger.Error("internal error", "error", err)
		}
		h.writeAppError(w, appErr)
		return
	}
	h.Logger.Error("unhandled service error", "error", err)
	h.writeAppError(w, internal.NewInternalError("internal server error", err))
}

func (h *BaseHandler) writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, body)
}

func errorForStatus(status int, message string) *internal.AppError {
	switch status {
	case http.StatusBadRequest:
		return internal.NewValidationError(message, internal.ErrCodeValidationFailed)
	case http.StatusUnauthorized:
		return internal.NewUnauthorizedError(message, internal.ErrCodeUnauthenticated)
	case http.StatusForbidden:
		return internal.NewForbiddenError(message, internal.ErrCodeInsufficientPermissions)
	case http.StatusNotFound:
		return internal.NewNotFoundError(message, internal.ErrCodeNotFound)
	case http.StatusConflict:
		return internal.NewConflictError(message, internal.ErrCodeVersionConflict)
	default:
		appErr := internal.NewInternalError(message, nil)
		appErr.StatusCode = status
		return appErr
	}
}

// ExtractTokenFromHeader extracts Bearer token from Authorization header
func (h *BaseHandler) ExtractTokenFromHeader(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return ""
	}

	return authHeader[7:]
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func (h *BaseHandler) DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return internal.ErrInvalidBody
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return internal.ErrInvalidBody.WithMessage("request body is empty")
		}
		return internal.ErrInvalidBody.WithMessage("invalid request body: " + err.Error())
	}
	return nil
}

// ParseIDParam reads a positive int64 route parameter.
func ParseIDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, internal.ErrInvalidID.WithMessage("invalid " + name)
	}
	return id, nil
}

// ParsePagination reads limit and offset, clamping to sane defaults.
func ParsePagination(r *http.Request) (limit, offset int) {
	limit = DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= MaxLimit {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

// QueryInt64 parses an optional int64 query parameter.
func QueryInt64(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, internal.NewValidationFieldError(name, name+" must be an integer", internal.ErrCodeValidationFailed)
	}
	return &v, nil
}

// QueryBool reports whether a query flag is set to a truthy value.
func QueryBool(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// CurrentUser returns the authenticated user or writes a 401.
func (h *BaseHandler) CurrentUser(w http.ResponseWriter, r *http.Request) (*internal.User, bool) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok {
		h.Logger.Warn("user not found in context", "path", r.URL.Path)
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return nil, false
	}
	return user, true
}

type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
