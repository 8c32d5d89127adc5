package http

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"expensetab/internal/exporter"
	"expensetab/internal/importer"
)

type rowErrorBody struct {
	Row     int    `json:"row"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type importResponse struct {
	Outcome  string         `json:"outcome"`
	Format   string         `json:"format,omitempty"`
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Errors   []rowErrorBody `json:"errors,omitempty"`
	Error    string         `json:"error,omitempty"`
	Summary  string         `json:"summary"`
}

type pushResponse struct {
	Range string `json:"range"`
	Rows  int    `json:"rows"`
}

func newImportResponse(res importer.Result) importResponse {
	body := importResponse{
		Outcome: res.Outcome.String(),
		Format:  string(res.Format),
		Skipped: res.Skipped,
		Summary: res.Summary(),
	}
	if res.Committable() {
		body.Imported = len(res.Records)
	}
	for _, e := range res.Errors {
		kind := ""
		if e.Kind != nil {
			kind = e.Kind.Error()
		}
		body.Errors = append(body.Errors, rowErrorBody{Row: e.Row, Kind: kind, Message: e.Message})
	}
	if res.Err != nil {
		body.Error = res.Err.Error()
	}
	return body
}

// importStatus maps an import outcome to a status code. Nothing is stored
// unless the outcome is a success.
func importStatus(res importer.Result) int {
	switch res.Outcome {
	case importer.OutcomeSuccess:
		return http.StatusOK
	case importer.OutcomeReadFailure:
		if errors.Is(res.Err, importer.ErrFileTypeRejected) {
			return http.StatusUnsupportedMediaType
		}
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			atomic.AddInt64(&s.metrics.oversizedUploads, 1)
			ErrorResponse(http.StatusRequestEntityTooLarge, "file exceeds the upload limit").Write(w)
			return
		}
		BadRequestError("expected a multipart form with a file field").Write(w)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError(importer.ErrNoFileSelected.Error()).Write(w)
		return
	}
	defer file.Close()

	res, err := s.svc.Import(r.Context(), header.Filename, file)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(importStatus(res)).Data(newImportResponse(res)).Write(w)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormatParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var buf bytes.Buffer
	n, err := s.svc.Export(r.Context(), &buf, format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("X-Expense-Count", strconv.Itoa(n))
	writeDownload(w, format, "expenses", buf.Bytes())
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormatParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Template(r.Context(), &buf, format); err != nil {
		s.fail(w, r, err)
		return
	}
	writeDownload(w, format, "expense-import-template", buf.Bytes())
}

func writeDownload(w http.ResponseWriter, format exporter.Format, base string, body []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", attachment(base+format.Extension()))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleSheetsPush(w http.ResponseWriter, r *http.Request) {
	ref, n, err := s.svc.PushToSheet(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(pushResponse{Range: ref, Rows: n}).Write(w)
}

func (s *Server) handleSheetsPull(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.PullFromSheet(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Status(importStatus(res)).Data(newImportResponse(res)).Write(w)
}
