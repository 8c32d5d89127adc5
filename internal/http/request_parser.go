package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"expensetab/internal/analytics"
	"expensetab/internal/core"
	"expensetab/internal/exporter"
)

// maxJSONBody bounds every JSON request body.
const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON value from the request body into v.
// Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

// expenseRequest is the body accepted when creating or replacing an expense.
type expenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        core.Date       `json:"date"`
	Tags        []string        `json:"tags"`
	IsRecurring bool            `json:"isRecurring"`
	Frequency   core.Frequency  `json:"recurringFrequency"`
	Note        string          `json:"note"`
}

func (req expenseRequest) expense(id string) core.Expense {
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = sanitizeInput(t); t != "" {
			tags = append(tags, t)
		}
	}
	return core.Expense{
		ID:          id,
		Description: sanitizeInput(req.Description),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Date:        req.Date,
		Tags:        tags,
		IsRecurring: req.IsRecurring,
		Frequency:   req.Frequency,
		Note:        sanitizeInput(req.Note),
	}
}

// parseMonthParam returns the month query value, which may be empty.
func parseMonthParam(query url.Values) (string, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return "", nil
	}
	return core.ParseMonth(v)
}

// parseFormatParam defaults to CSV when format is absent.
func parseFormatParam(query url.Values) (exporter.Format, error) {
	v := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if v == "" {
		return exporter.FormatCSV, nil
	}
	return exporter.ParseFormat(v)
}

// ParseCriteria reads expense search criteria from query parameters:
// month, q, from, to, min, max and repeated category and tag values.
func ParseCriteria(query url.Values) (analytics.Criteria, error) {
	var c analytics.Criteria
	var err error

	if c.Month, err = parseMonthParam(query); err != nil {
		return c, err
	}
	c.Search = sanitizeInput(query.Get("q"))

	if c.From, err = optionalDate(query, "from"); err != nil {
		return c, err
	}
	if c.To, err = optionalDate(query, "to"); err != nil {
		return c, err
	}
	if c.MinAmount, err = optionalAmount(query, "min"); err != nil {
		return c, err
	}
	if c.MaxAmount, err = optionalAmount(query, "max"); err != nil {
		return c, err
	}

	c.Categories = nonEmpty(query["category"])
	c.Tags = nonEmpty(query["tag"])
	return c, nil
}

func optionalDate(query url.Values, key string) (*core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q: expected YYYY-MM-DD", key, v)
	}
	return &d, nil
}

func optionalAmount(query url.Values, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s amount %q", key, v)
	}
	return &d, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = sanitizeInput(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
