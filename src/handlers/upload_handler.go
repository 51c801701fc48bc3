// backend/src/handlers/upload_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/rentledger/backend/src/config"
	"github.com/username/rentledger/backend/src/logger"
	"github.com/username/rentledger/backend/src/models"
	"github.com/username/rentledger/backend/src/security/validation"
	"github.com/username/rentledger/backend/src/services"
	"github.com/username/rentledger/backend/src/utils"
)

type UploadHandler struct {
	importService services.ImportService
}

func NewUploadHandler(service services.ImportService) *UploadHandler {
	return &UploadHandler{
		importService: service,
	}
}

// HandleImport accepts a multipart channel export upload and runs one
// reconciliation batch. Form fields: file, channel, administration.
func (h *UploadHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		utils.SendJSONError(w, fmt.Sprintf("upload too large or malformed: %v", err), http.StatusBadRequest)
		return
	}

	administration := strings.TrimSpace(r.FormValue("administration"))
	if administration == "" {
		utils.SendJSONError(w, "administration form field is required", http.StatusBadRequest)
		return
	}
	channel := models.Channel(strings.ToLower(strings.TrimSpace(r.FormValue("channel"))))
	if channel == "" {
		utils.SendJSONError(w, "channel form field is required", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		utils.SendJSONError(w, fmt.Sprintf("missing file in upload: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validation.ValidateClientContentType(header.Header.Get("Content-Type")); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}

	logger.L.Info("Handling import upload", "administration", administration,
		"channel", channel, "fileName", header.Filename, "size", header.Size)

	report, err := h.importService.ProcessImport(file, administration, channel, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrParsingFailed):
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, services.ErrBatchAborted):
			// The report carries the abort reason and row accounting.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(report)
		default:
			utils.SendJSONError(w, fmt.Sprintf("import failed: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		logger.L.Error("Error encoding batch report response", "batchID", report.BatchID, "error", err)
	}
}

// HandleGetLatestBatch returns the most recent batch report for an
// administration, if one is cached.
func (h *UploadHandler) HandleGetLatestBatch(w http.ResponseWriter, r *http.Request) {
	administration := strings.TrimSpace(r.URL.Query().Get("administration"))
	if administration == "" {
		utils.SendJSONError(w, "administration query parameter is required", http.StatusBadRequest)
		return
	}

	report, err := h.importService.LatestBatchReport(administration)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(report)
}
