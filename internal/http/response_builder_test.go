package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"expensetab/internal/core"
	"expensetab/internal/log"
	"expensetab/internal/services"
	"expensetab/internal/store"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/1").
		Data(map[string]int{"count": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Location"); got != "/api/expenses/1" {
		t.Errorf("Location = %q", got)
	}
	if w.Body.String() != "{\"count\":1}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Data("ignored").Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Data(make(chan int)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestServiceError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: %q", store.ErrExpenseNotFound, "x"), http.StatusNotFound},
		{store.ErrBudgetNotFound, http.StatusNotFound},
		{store.ErrCategoryInUse, http.StatusConflict},
		{store.ErrDuplicateCategory, http.StatusConflict},
		{services.ErrImportInProgress, http.StatusConflict},
		{store.ErrInvalidExpense, http.StatusUnprocessableEntity},
		{core.ErrEmptyCategoryName, http.StatusUnprocessableEntity},
		{services.ErrSheetsDisabled, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		ServiceError(tt.err).Write(w)
		if w.Code != tt.want {
			t.Errorf("ServiceError(%v) status = %d, want %d", tt.err, w.Code, tt.want)
		}
	}

	w := httptest.NewRecorder()
	ServiceError(errors.New("secret path /var/db")).Write(w)
	if w.Body.String() != "{\"error\":\"internal error\"}\n" {
		t.Errorf("internal error leaked: %q", w.Body.String())
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{store.ErrExpenseNotFound, log.ErrorTypeNotFound},
		{store.ErrCategoryInUse, log.ErrorTypeConflict},
		{store.ErrInvalidBudget, log.ErrorTypeValidation},
		{core.ErrInvalidMonth, log.ErrorTypeValidation},
		{services.ErrSheetsDisabled, log.ErrorTypeConfiguration},
		{errors.New("disk full"), log.ErrorTypeInternal},
	}

	for _, tt := range tests {
		if got := errorType(statusFor(tt.err)); got != tt.want {
			t.Errorf("errorType(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
