package apihttp

import (
	"errors"
	"net/http"
	"time"

	"collaudo-tracker/internal/reports"
	valveapp "collaudo-tracker/internal/valves/application"
	valves "collaudo-tracker/internal/valves/domain"
)

// ExportValvesHandler serves inspection report downloads in CSV, XLSX
// and PDF form.
type ExportValvesHandler struct {
	service *valveapp.Service
	format  string
}

// NewExportValvesHandler constructs an export handler for one format.
func NewExportValvesHandler(service *valveapp.Service, format string) (*ExportValvesHandler, error) {
	if service == nil {
		return nil, errors.New("export handler: nil service")
	}
	switch format {
	case "csv", "xlsx", "pdf":
	default:
		return nil, errors.New("export handler: unsupported format " + format)
	}
	return &ExportValvesHandler{service: service, format: format}, nil
}

// ServeHTTP handles GET /api/v1/exports/valves.{csv,xlsx,pdf}.
func (h *ExportValvesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.service == nil {
		http.Error(w, "server not ready", http.StatusServiceUnavailable)
		return
	}

	list, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, "list valves error", http.StatusInternalServerError)
		return
	}
	today := valves.Date(time.Now().UTC())
	rows := reports.BuildRows(list, today)

	var (
		body        []byte
		contentType string
		filename    string
	)
	switch h.format {
	case "csv":
		body, err = reports.BuildCSV(rows)
		contentType = "text/csv; charset=utf-8"
		filename = "valves.csv"
	case "xlsx":
		body, err = reports.BuildXLSX(rows, today)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		filename = "valves.xlsx"
	case "pdf":
		body, err = reports.BuildPDF(rows, today)
		contentType = "application/pdf"
		filename = "valves.pdf"
	}
	if err != nil {
		http.Error(w, "build report error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(body)
}
