package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/example/hourbank/internal/application"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type employeeAdminService interface {
	RegisterEmployee(ctx context.Context, params application.RegisterEmployeeParams) (application.Employee, error)
	ListEmployees(ctx context.Context) ([]application.Employee, error)
	Unlock(ctx context.Context, params application.UnlockParams) (application.EmployeeSummary, error)
}

type ledgerAdminService interface {
	PostEntry(ctx context.Context, params application.PostEntryParams) (application.Entry, error)
	GetAllHistoryWithNames(ctx context.Context) ([]application.EntryWithName, error)
	ExportWorkbook(ctx context.Context, w io.Writer) error
}

// AdminHandler serves the key-protected back office: registration, unlocks,
// ledger postings, and the workbook export.
type AdminHandler struct {
	employees employeeAdminService
	ledger    ledgerAdminService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewAdminHandler(employees employeeAdminService, ledger ledgerAdminService, logger *slog.Logger) *AdminHandler {
	base := defaultLogger(logger)
	return &AdminHandler{
		employees: employees,
		ledger:    ledger,
		now:       time.Now,
		responder: newResponder(base),
		logger:    base,
	}
}

func (h *AdminHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AdminHandler", operation, attrs...)
}

func (h *AdminHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.employees == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListEmployees")

	employees, err := h.employees.ListEmployees(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "listing employees failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]employeeDTO, 0, len(employees))
	for _, employee := range employees {
		dtos = append(dtos, toEmployeeDTO(employee))
	}

	logger.InfoContext(r.Context(), "employees listed", "count", len(dtos))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, employeeListResponse{Employees: dtos})
}

func (h *AdminHandler) RegisterEmployee(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.employees == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "RegisterEmployee", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode employee request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "RegisterEmployee", "badge", req.Badge)

	employee, err := h.employees.RegisterEmployee(r.Context(), req.toParams())
	if err != nil {
		logger.ErrorContext(r.Context(), "employee registration failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("employee_id", employee.ID).InfoContext(r.Context(), "employee registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, employeeResponse{Employee: toEmployeeDTO(employee)})
}

func (h *AdminHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.employees == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req unlockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "Unlock", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode unlock request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Unlock")

	summary, err := h.employees.Unlock(r.Context(), application.UnlockParams{Token: req.Token, NewCode: req.NewCode})
	if err != nil {
		logger.WarnContext(r.Context(), "unlock failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("employee_id", summary.ID).InfoContext(r.Context(), "employee unlocked")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, unlockResponse{
		Employee: toEmployeeSummaryDTO(summary),
		Message:  fmt.Sprintf("Colaborador %s foi desbloqueado com sucesso", summary.Name),
	})
}

func (h *AdminHandler) PostEntry(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "PostEntry", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode entry request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "PostEntry", "employee_id", req.EmployeeID, "hours", req.Hours)

	entry, err := h.ledger.PostEntry(r.Context(), application.PostEntryParams{
		EmployeeID: req.EmployeeID,
		Hours:      req.Hours,
		Reason:     req.Reason,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "posting entry failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("entry_id", entry.ID).InfoContext(r.Context(), "entry posted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, entryResponse{Entry: toEntryDTO(entry)})
}

func (h *AdminHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListEntries")

	entries, err := h.ledger.GetAllHistoryWithNames(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "listing entries failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		dto := toEntryDTO(entry.Entry)
		dto.EmployeeName = entry.EmployeeName
		dtos = append(dtos, dto)
	}

	logger.InfoContext(r.Context(), "entries listed", "count", len(dtos))
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entryListResponse{Entries: dtos})
}

// ExportEntries renders the workbook into memory first so a failure can
// still be reported as JSON.
func (h *AdminHandler) ExportEntries(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.ledger == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ExportEntries")

	var buf bytes.Buffer
	if err := h.ledger.ExportWorkbook(r.Context(), &buf); err != nil {
		logger.ErrorContext(r.Context(), "export failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	filename := fmt.Sprintf("banco_de_horas_%s.xlsx", h.now().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.WarnContext(r.Context(), "writing export failed", "error", err)
		return
	}

	logger.InfoContext(r.Context(), "entries exported", "bytes", buf.Len())
}

type employeeRequest struct {
	Name       string `json:"name"`
	Badge      string `json:"badge"`
	Code       string `json:"code"`
	BirthDate  string `json:"birth_date"`
	Role       string `json:"role"`
	Supervisor string `json:"supervisor"`
	Shift      string `json:"shift"`
	Phone      string `json:"phone"`
}

func (req employeeRequest) toParams() application.RegisterEmployeeParams {
	return application.RegisterEmployeeParams{
		Profile: application.EmployeeProfile{
			Name:       req.Name,
			Badge:      req.Badge,
			BirthDate:  req.BirthDate,
			Role:       req.Role,
			Supervisor: req.Supervisor,
			Shift:      req.Shift,
			Phone:      req.Phone,
		},
		Code: req.Code,
	}
}

type employeeDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Badge          string `json:"badge"`
	BirthDate      string `json:"birth_date"`
	Role           string `json:"role"`
	Supervisor     string `json:"supervisor"`
	Shift          string `json:"shift"`
	Phone          string `json:"phone"`
	Status         string `json:"status"`
	FailedAttempts int    `json:"failed_attempts"`
	CreatedAt      string `json:"created_at"`
}

func toEmployeeDTO(employee application.Employee) employeeDTO {
	status := "ACTIVE"
	if employee.Auth.Locked {
		status = "LOCKED"
	}
	return employeeDTO{
		ID:             employee.ID,
		Name:           employee.Name,
		Badge:          employee.Badge,
		BirthDate:      employee.BirthDate,
		Role:           employee.Role,
		Supervisor:     employee.Supervisor,
		Shift:          employee.Shift,
		Phone:          employee.Phone,
		Status:         status,
		FailedAttempts: employee.Auth.FailedAttempts,
		CreatedAt:      employee.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type employeeResponse struct {
	Employee employeeDTO `json:"employee"`
}

type employeeListResponse struct {
	Employees []employeeDTO `json:"employees"`
}

type unlockRequest struct {
	Token   string `json:"token"`
	NewCode string `json:"new_code"`
}

type unlockResponse struct {
	Employee employeeSummaryDTO `json:"employee"`
	Message  string             `json:"message"`
}

type entryRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Hours      int64  `json:"hours"`
	Reason     string `json:"reason"`
	CreatedBy  string `json:"created_by"`
}

type entryResponse struct {
	Entry entryDTO `json:"entry"`
}

type entryListResponse struct {
	Entries []entryDTO `json:"entries"`
}
