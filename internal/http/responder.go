package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/hourbank/internal/application"
)

var (
	errBadRequestBody      = errors.New("Formato de requisição inválido.")
	errInvalidEmployeeID   = errors.New("ID do colaborador inválido.")
	errMissingSessionToken = errors.New("Informe o token de sessão.")
	errMissingAdminKey     = errors.New("Chave de administrador ausente ou inválida.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).WarnContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// writeValidationError reports field errors with the given status. Login
// endpoints use 400, administrative forms use 422.
func (r responder) writeValidationError(ctx context.Context, w http.ResponseWriter, status int, vErr *application.ValidationError) {
	r.writeJSON(ctx, w, status, errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   localizedStatusMessage(http.StatusUnprocessableEntity),
		Errors:    localizeValidationErrors(vErr),
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var (
		vErr    *application.ValidationError
		invalid *application.InvalidCodeError
		blocked *application.BlockedError
	)

	switch {
	case errors.As(err, &vErr):
		r.writeValidationError(ctx, w, http.StatusUnprocessableEntity, vErr)
	case errors.As(err, &invalid):
		attempt, maxAttempts := invalid.Attempt, invalid.Max
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode:   "ACCESS_INVALID_CODE",
			Message:     fmt.Sprintf("Código de acesso incorreto. Tentativa %d/%d", attempt, maxAttempts),
			Attempt:     &attempt,
			MaxAttempts: &maxAttempts,
		})
	case errors.As(err, &blocked):
		message := "Acesso bloqueado. Procure o administrador."
		if blocked.NewlyLocked {
			message = "Código errado 3 vezes. Procure o administrador e informe o token."
		}
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode:   "ACCESS_BLOCKED",
			Message:     message,
			UnlockToken: blocked.Token,
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_REQUIRED",
			Message:   localizedStatusMessage(http.StatusUnauthorized),
		})
	case errors.Is(err, application.ErrTokenNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "UNLOCK_TOKEN_NOT_FOUND", Message: "Token não encontrado ou inválido."})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "EMPLOYEE_NOT_FOUND", Message: "Colaborador não encontrado."})
	case errors.Is(err, application.ErrNotLocked):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "EMPLOYEE_NOT_LOCKED", Message: "Este colaborador não está bloqueado."})
	case errors.Is(err, application.ErrDuplicateBadge):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "DUPLICATE_BADGE", Message: "Já existe um colaborador com este crachá."})
	case errors.Is(err, application.ErrConcurrentUpdate):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "CONCURRENT_UPDATE", Message: "Outra tentativa está em andamento. Tente novamente."})
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err, "error_kind", application.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(http.StatusInternalServerError)})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Requisição inválida."
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Você não tem permissão para esta operação."
	case http.StatusNotFound:
		return "Recurso não encontrado."
	case http.StatusConflict:
		return "A requisição conflita com o estado atual do recurso."
	case http.StatusUnprocessableEntity:
		return "Dados inválidos."
	case http.StatusTooManyRequests:
		return "Muitas tentativas. Aguarde alguns instantes."
	case http.StatusServiceUnavailable:
		return "Serviço indisponível."
	default:
		return "Erro interno do servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "badge is required":
		return "Crachá é obrigatório."
	case "code is required":
		return "Código de acesso é obrigatório."
	case "name is required":
		return "Nome é obrigatório."
	case "birth date is required":
		return "Data de nascimento é obrigatória."
	case "birth date must use YYYY-MM-DD":
		return "Data de nascimento deve estar no formato AAAA-MM-DD."
	case "role is required":
		return "Função é obrigatória."
	case "supervisor is required":
		return "Supervisor é obrigatório."
	case "shift is required":
		return "Turno é obrigatório."
	case "phone is required":
		return "Telefone é obrigatório."
	case "token is required":
		return "Token é obrigatório."
	case "new code is required":
		return "Novo código de acesso é obrigatório."
	case "employee id is required":
		return "Colaborador é obrigatório."
	default:
		return message
	}
}

type errorResponse struct {
	ErrorCode   string            `json:"error_code,omitempty"`
	Message     string            `json:"message"`
	Errors      map[string]string `json:"errors,omitempty"`
	Attempt     *int              `json:"attempt,omitempty"`
	MaxAttempts *int              `json:"max_attempts,omitempty"`
	UnlockToken string            `json:"unlock_token,omitempty"`
}
