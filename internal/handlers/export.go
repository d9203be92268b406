package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/diewo77/goldenline/httpx"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/services"
	"github.com/diewo77/goldenline/view"
)

const exportFilename = "export.csv"

type ExportHandler struct {
	Export *services.ExportService
	Log    *logger.Logger
}

func NewExportHandler(export *services.ExportService, log *logger.Logger) *ExportHandler {
	return &ExportHandler{Export: export, Log: log}
}

func (h *ExportHandler) Form(w http.ResponseWriter, r *http.Request) {
	render(w, r, h.Log, "exportation_donnees.html", nil)
}

// Download sends the first nombre_lignes collections as a CSV attachment.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	limit, err := services.ParseRowCount(r.FormValue("nombre_lignes"))
	if err != nil {
		view.Error(w, r, http.StatusBadRequest, "export.bad_rows")
		return
	}

	// buffered so that a store failure can still become a 500
	var buf bytes.Buffer
	if err := h.Export.WriteCSV(r.Context(), &buf, limit); err != nil {
		if errors.Is(err, services.ErrInvalidRowCount) {
			view.Error(w, r, http.StatusBadRequest, "export.bad_rows")
			return
		}
		serverError(w, r, h.Log, "export failed", err)
		return
	}
	httpx.Attachment(w, "text/csv", exportFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
