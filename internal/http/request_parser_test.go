package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetab/internal/exporter"
)

func TestParseCriteria(t *testing.T) {
	q := url.Values{
		"month":    {"2024-03"},
		"q":        {"  coffee\x00 "},
		"from":     {"2024-03-01"},
		"to":       {"2024-03-15"},
		"min":      {"1.5"},
		"max":      {"20"},
		"category": {"4", "", "2"},
		"tag":      {"work"},
	}
	c, err := ParseCriteria(q)
	require.NoError(t, err)

	assert.Equal(t, "2024-03", c.Month)
	assert.Equal(t, "coffee", c.Search)
	require.NotNil(t, c.From)
	assert.Equal(t, "2024-03-01", c.From.String())
	require.NotNil(t, c.MaxAmount)
	assert.Equal(t, "20", c.MaxAmount.String())
	assert.Equal(t, []string{"4", "2"}, c.Categories)
	assert.Equal(t, []string{"work"}, c.Tags)

	c, err = ParseCriteria(url.Values{})
	require.NoError(t, err)
	assert.Nil(t, c.From)
	assert.Nil(t, c.MinAmount)
	assert.Empty(t, c.Categories)
}

func TestParseCriteriaErrors(t *testing.T) {
	for _, q := range []url.Values{
		{"month": {"03-2024"}},
		{"from": {"03/01/2024"}},
		{"to": {"2024-02-30"}},
		{"min": {"abc"}},
	} {
		_, err := ParseCriteria(q)
		assert.Error(t, err, q.Encode())
	}
}

func TestParseFormatParam(t *testing.T) {
	f, err := parseFormatParam(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, exporter.FormatCSV, f)

	f, err = parseFormatParam(url.Values{"format": {"XLSX"}})
	require.NoError(t, err)
	assert.Equal(t, exporter.FormatXLSX, f)

	_, err = parseFormatParam(url.Values{"format": {"ods"}})
	assert.Error(t, err)
}

func TestDecodeJSON(t *testing.T) {
	var req expenseRequest
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		`{"description":" Lunch\u0007 ","amount":"12.50","category":" 4 ","date":"2024-05-06","tags":[" a ",""]}`))
	require.NoError(t, decodeJSON(httptest.NewRecorder(), r, &req))

	e := req.expense("x1")
	assert.Equal(t, "x1", e.ID)
	assert.Equal(t, "Lunch", e.Description)
	assert.Equal(t, "4", e.Category)
	assert.Equal(t, []string{"a"}, e.Tags)
	assert.Equal(t, 6, e.Date.Day())
	assert.Equal(t, time.May, e.Date.Month())

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{} {}`))
	assert.Error(t, decodeJSON(httptest.NewRecorder(), r, &req))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\tb\x1b "))
	assert.Equal(t, "", sanitizeInput(" \x00 "))
}
