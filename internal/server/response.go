package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emrgen/notebook/internal/chart"
	"github.com/emrgen/notebook/internal/compress"
	"github.com/emrgen/notebook/internal/csvimport"
	"github.com/emrgen/notebook/internal/doc"
	"github.com/emrgen/notebook/internal/docsync"
	"github.com/emrgen/notebook/internal/pdfinfo"
	"github.com/emrgen/notebook/internal/service"
	"github.com/emrgen/notebook/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var errBadRequestBody = errors.New("invalid request body")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("encode response: %v", err)
	}
}

// statusOf maps an error to the status it is reported with.
func statusOf(err error) int {
	switch {
	case errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, store.ErrFileNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, doc.ErrMarkNotFound),
		errors.Is(err, csvimport.ErrReadingNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrBidirectionalDisabled):
		return http.StatusConflict
	case errors.Is(err, docsync.ErrCursorOutsideTable),
		errors.Is(err, docsync.ErrInvalidTableSize),
		errors.Is(err, docsync.ErrTableNotFound),
		errors.Is(err, docsync.ErrUnknownImportMode),
		errors.Is(err, chart.ErrTooFewTables),
		errors.Is(err, chart.ErrNoComparableData),
		errors.Is(err, doc.ErrInvalidPosition),
		errors.Is(err, doc.ErrSchemaViolation),
		errors.Is(err, doc.ErrNodeNotFound),
		errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidTitle),
		errors.Is(err, csvimport.ErrInvalidReadingField),
		errors.Is(err, compress.ErrUnknownCompression),
		errors.Is(err, pdfinfo.ErrNotPDF),
		errors.Is(err, errBadRequestBody):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorResponse(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logrus.Errorf("request failed: %v", err)
		msg = http.StatusText(status)
	}
	jsonResponse(w, status, ErrorResponse{Error: msg})
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(errBadRequestBody, err)
	}
	return nil
}
