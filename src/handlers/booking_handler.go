package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/services"
	"github.com/username/rentledger/backend/src/utils"
)

type BookingHandler struct {
	importService services.ImportService
}

func NewBookingHandler(service services.ImportService) *BookingHandler {
	return &BookingHandler{importService: service}
}

// HandleGetBookings lists one administration's ledger, newest check-in
// first, with ETag support for the dashboard polling it.
func (h *BookingHandler) HandleGetBookings(w http.ResponseWriter, r *http.Request) {
	administration := strings.TrimSpace(r.URL.Query().Get("administration"))
	if administration == "" {
		utils.SendJSONError(w, "administration query parameter is required", http.StatusBadRequest)
		return
	}

	bookings, err := h.importService.Bookings(administration)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error fetching bookings for administration %s: %v", administration, err), http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []models.ReconciledBooking{}
	}

	etag, err := utils.GenerateETag(bookings)
	if err == nil {
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(bookings)
}

// HandleDeleteAllBookings wipes one administration's ledger partition.
func (h *BookingHandler) HandleDeleteAllBookings(w http.ResponseWriter, r *http.Request) {
	administration := strings.TrimSpace(r.URL.Query().Get("administration"))
	if administration == "" {
		utils.SendJSONError(w, "administration query parameter is required", http.StatusBadRequest)
		return
	}

	deleted, err := h.importService.DeleteBookings(administration)
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("error deleting bookings for administration %s: %v", administration, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int64{"deleted": deleted})
}
