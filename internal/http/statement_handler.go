package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/hourbank/internal/application"
)

var errForeignStatement = errors.New("Você só pode consultar o seu próprio extrato.")

type statementService interface {
	Statement(ctx context.Context, employeeID int64) (application.Statement, error)
}

type StatementHandler struct {
	service   statementService
	responder responder
	logger    *slog.Logger
}

func NewStatementHandler(service statementService, logger *slog.Logger) *StatementHandler {
	base := defaultLogger(logger)
	return &StatementHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StatementHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatementHandler", operation, attrs...)
}

// Get serves the balance and history of the employee named in the path.
// The session must belong to that same employee.
func (h *StatementHandler) Get(w http.ResponseWriter, r *http.Request, employeeID int64) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := EmployeeIDFromContext(r.Context())
	if !ok {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	logger := h.log(r.Context(), "Get", "employee_id", employeeID)

	if sessionID != employeeID {
		logger.WarnContext(r.Context(), "statement requested for another employee", "session_employee_id", sessionID, "error_kind", "forbidden")
		h.responder.writeError(r.Context(), w, http.StatusForbidden, errForeignStatement)
		return
	}

	statement, err := h.service.Statement(r.Context(), employeeID)
	if err != nil {
		logger.WarnContext(r.Context(), "statement failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "statement served")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, statementResponse{
		Employee: toEmployeeSummaryDTO(statement.Employee),
		Balance:  statement.Balance,
		History:  toEntryDTOs(statement.History),
	})
}

type statementResponse struct {
	Employee employeeSummaryDTO `json:"employee"`
	Balance  int64              `json:"balance"`
	History  []entryDTO         `json:"history"`
}

type employeeSummaryDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Badge string `json:"badge"`
}

func toEmployeeSummaryDTO(summary application.EmployeeSummary) employeeSummaryDTO {
	return employeeSummaryDTO{ID: summary.ID, Name: summary.Name, Badge: summary.Badge}
}

type entryDTO struct {
	ID           int64  `json:"id"`
	EmployeeID   int64  `json:"employee_id"`
	EmployeeName string `json:"employee_name,omitempty"`
	Hours        int64  `json:"hours"`
	Reason       string `json:"reason"`
	CreatedBy    string `json:"created_by"`
	CreatedAt    string `json:"created_at"`
}

func toEntryDTO(entry application.Entry) entryDTO {
	return entryDTO{
		ID:         entry.ID,
		EmployeeID: entry.EmployeeID,
		Hours:      entry.Hours,
		Reason:     entry.Reason,
		CreatedBy:  entry.CreatedBy,
		CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toEntryDTOs(entries []application.Entry) []entryDTO {
	dtos := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toEntryDTO(entry))
	}
	return dtos
}
