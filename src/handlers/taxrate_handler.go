package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/rentledger/backend/src/taxrates"
	"github.com/username/rentledger/backend/src/utils"
)

type TaxRateHandler struct {
	schedule *taxrates.Schedule
}

func NewTaxRateHandler(schedule *taxrates.Schedule) *TaxRateHandler {
	return &TaxRateHandler{schedule: schedule}
}

type taxRateView struct {
	EffectiveFrom         string  `json:"effective_from"`
	VatRatePercent        float64 `json:"vat_rate_percent"`
	VatBasePercent        float64 `json:"vat_base_percent"`
	TouristTaxRatePercent float64 `json:"tourist_tax_rate_percent"`
	TouristTaxBasePercent float64 `json:"tourist_tax_base_percent"`
}

// HandleGetTaxRates exposes the active schedule read-only; the schedule is
// edited outside this service.
func (h *TaxRateHandler) HandleGetTaxRates(w http.ResponseWriter, r *http.Request) {
	entries := h.schedule.Entries()
	views := make([]taxRateView, 0, len(entries))
	for _, e := range entries {
		views = append(views, taxRateView{
			EffectiveFrom:         utils.FormatISODate(e.EffectiveFrom),
			VatRatePercent:        e.VatRatePercent,
			VatBasePercent:        e.VatBasePercent,
			TouristTaxRatePercent: e.TouristTaxRatePercent,
			TouristTaxBasePercent: e.TouristTaxBasePercent,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}
