package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/hourbank/internal/application"
)

const sessionCookieName = "session_token"

type accessService interface {
	ResolveByBadge(ctx context.Context, badge string) (application.EmployeeSummary, error)
	VerifyCode(ctx context.Context, employeeID int64, code string) (application.VerifyResult, error)
}

// AccessHandler serves the badge and access code steps of the login flow.
type AccessHandler struct {
	service   accessService
	responder responder
	logger    *slog.Logger
}

func NewAccessHandler(service accessService, logger *slog.Logger) *AccessHandler {
	base := defaultLogger(logger)
	return &AccessHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AccessHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AccessHandler", operation, attrs...)
}

func (h *AccessHandler) ResolveBadge(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req badgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "ResolveBadge", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode badge request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "ResolveBadge")

	summary, err := h.service.ResolveByBadge(r.Context(), req.Badge)
	if err != nil {
		logger.WarnContext(r.Context(), "badge lookup rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.writeAccessError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "badge resolved", "employee_id", summary.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, badgeResponse{EmployeeID: summary.ID, Name: summary.Name})
}

func (h *AccessHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req accessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "VerifyCode", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode access request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if req.EmployeeID <= 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEmployeeID)
		return
	}

	logger := h.log(r.Context(), "VerifyCode", "employee_id", req.EmployeeID)

	result, err := h.service.VerifyCode(r.Context(), req.EmployeeID, req.Code)
	if err != nil {
		logger.WarnContext(r.Context(), "access rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.writeAccessError(r.Context(), w, err)
		return
	}

	response := accessResponse{
		EmployeeID: result.Employee.ID,
		Name:       result.Employee.Name,
	}
	if result.Session.Token != "" {
		setSessionCookie(w, result.Session.Token, result.Session.ExpiresAt)
		response.Token = result.Session.Token
		response.ExpiresAt = result.Session.ExpiresAt.UTC().Format(time.RFC3339)
	}

	logger.InfoContext(r.Context(), "access granted")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

// writeAccessError reports validation problems on the login steps as 400.
func (h *AccessHandler) writeAccessError(ctx context.Context, w http.ResponseWriter, err error) {
	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		h.responder.writeValidationError(ctx, w, http.StatusBadRequest, vErr)
		return
	}
	h.responder.handleServiceError(ctx, w, err)
}

type badgeRequest struct {
	Badge string `json:"badge"`
}

type badgeResponse struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
}

type accessRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Code       string `json:"code"`
}

type accessResponse struct {
	EmployeeID int64  `json:"employee_id"`
	Name       string `json:"name"`
	Token      string `json:"token,omitempty"`
	ExpiresAt  string `json:"expires_at,omitempty"`
}

func setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	}
	if !expires.IsZero() {
		cookie.Expires = expires.UTC()
	}
	http.SetCookie(w, cookie)
}
