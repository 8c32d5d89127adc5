package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"expensetab/internal/core"
)

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

type budgetRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type themeResponse struct {
	Theme core.Theme `json:"theme"`
}

type duplicatesResponse struct {
	Month  string           `json:"month,omitempty"`
	Groups [][]core.Expense `json:"groups"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(s.svc.Categories()).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	added, err := s.svc.AddCategory(r.Context(), core.Category{
		Name:  sanitizeInput(req.Name),
		Color: sanitizeInput(req.Color),
		Icon:  sanitizeInput(req.Icon),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Data(added).Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteCategory(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	month, err := core.ParseMonth(r.PathValue("month"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Data(s.svc.Budget(month)).Write(w)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	month := r.PathValue("month")
	var req budgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.SetBudget(r.Context(), month, req.Amount); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(s.svc.Budget(month)).Write(w)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteBudget(r.Context(), r.PathValue("month")); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(themeResponse{Theme: s.svc.Theme()}).Write(w)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.svc.ToggleTheme(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(themeResponse{Theme: theme}).Write(w)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	NewJSONResponse().Data(s.svc.Report(month)).Write(w)
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonthParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	groups := s.svc.Duplicates(month)
	if groups == nil {
		groups = [][]core.Expense{}
	}
	NewJSONResponse().Data(duplicatesResponse{Month: month, Groups: groups}).Write(w)
}
