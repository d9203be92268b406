package handlers

import (
	"net/http"

	"github.com/diewo77/goldenline/httpx"
	"github.com/diewo77/goldenline/internal/logger"
	"github.com/diewo77/goldenline/internal/services"
)

type AnalysisHandler struct {
	Analysis *services.AnalysisService
	Log      *logger.Logger
}

func NewAnalysisHandler(analysis *services.AnalysisService, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{Analysis: analysis, Log: log}
}

// Show renders the basket analysis, as JSON when the client asks for it.
func (h *AnalysisHandler) Show(w http.ResponseWriter, r *http.Request) {
	report, err := h.Analysis.Report(r.Context())
	if err != nil {
		serverError(w, r, h.Log, "analysis failed", err)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{
			"moyennes":                       report.Averages,
			"categories":                     report.Categories,
			"categorie_socioprofessionnelle": report.SocioCategories,
			"valeurs":                        report.Totals,
		})
		return
	}
	render(w, r, h.Log, "analyses.html", map[string]any{
		"Title":           "Analyses",
		"Moyennes":        report.Averages,
		"Categories":      report.Categories,
		"CategoriesSocio": report.SocioCategories,
		"Valeurs":         report.Totals,
	})
}
