package http

import (
	"errors"
	"log/slog"
	"net/http"

	"expensetab/internal/core"
	"expensetab/internal/log"
	"expensetab/internal/store"
)

type expensesResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

type bulkUpdateItem struct {
	ID string `json:"id"`
	expenseRequest
}

type bulkUpdateRequest struct {
	Expenses []bulkUpdateItem `json:"expenses"`
}

type countResponse struct {
	Count int `json:"count"`
}

// fail writes the response for a service error. Errors that are not the
// caller's fault are logged at error level, the rest at debug.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	level := slog.LevelDebug
	if code == http.StatusInternalServerError {
		level = slog.LevelError
	}
	log.FromContext(r.Context()).Log(r.Context(), level, "Request failed",
		log.FieldPath, r.URL.Path,
		log.FieldStatusCode, code,
		log.FieldErrorType, errorType(code),
		log.FieldError, err.Error())
	ServiceError(err).Write(w)
}

// failExpense reports an unknown category on an expense body as a
// validation problem rather than a missing resource.
func (s *Server) failExpense(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrCategoryNotFound) {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	s.fail(w, r, err)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	criteria, err := ParseCriteria(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	found := s.svc.Expenses(criteria)
	if found == nil {
		found = []core.Expense{}
	}
	NewJSONResponse().Data(expensesResponse{Expenses: found, Count: len(found)}).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	added, err := s.svc.AddExpense(r.Context(), req.expense(""))
	if err != nil {
		s.failExpense(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+added[0].ID).
		Data(expensesResponse{Expenses: added, Count: len(added)}).
		Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.svc.UpdateExpense(r.Context(), req.expense(id)); err != nil {
		s.failExpense(w, r, err)
		return
	}
	updated, err := s.svc.Expense(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(updated).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteExpense(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	n, err := s.svc.BulkDelete(r.Context(), req.IDs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(countResponse{Count: n}).Write(w)
}

func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	updates := make([]core.Expense, len(req.Expenses))
	for i, item := range req.Expenses {
		updates[i] = item.expense(item.ID)
	}
	n, err := s.svc.BulkUpdate(r.Context(), updates)
	if err != nil {
		s.failExpense(w, r, err)
		return
	}
	NewJSONResponse().Data(countResponse{Count: n}).Write(w)
}
