package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/username/finanzapp/backend/src/config"
	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/security/validation"
	"github.com/username/finanzapp/backend/src/services"
)

type UploadHandler struct {
	assistantService services.AssistantService
	statementService services.StatementService
}

func NewUploadHandler(assistantService services.AssistantService, statementService services.StatementService) *UploadHandler {
	return &UploadHandler{
		assistantService: assistantService,
		statementService: statementService,
	}
}

// HandleScanReceipt extracts {date, category, description, amount} from a
// receipt photo. The result is returned for user confirmation; nothing is
// persisted here.
func (h *UploadHandler) HandleScanReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxUploadSizeBytes)
	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		sendJSONError(w, "File exceeds the maximum upload size", http.StatusRequestEntityTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "A 'file' form field with the receipt image is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := validation.ValidateReceiptContentType(header.Header.Get("Content-Type")); err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	detectedType, err := validation.ValidateImageContentByMagicBytes(file)
	if err != nil {
		sendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		logger.L.Error("Failed to read receipt upload", "userID", userID, "error", err)
		sendJSONError(w, "Failed to read uploaded file", http.StatusInternalServerError)
		return
	}

	extraction, err := h.assistantService.ScanReceipt(r.Context(), base64.StdEncoding.EncodeToString(data), detectedType)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAssistantNotConfigured):
			sendJSONError(w, "Receipt scanning is not configured on this server", http.StatusServiceUnavailable)
		case errors.Is(err, services.ErrExtractionFailed):
			sendJSONError(w, "Could not extract purchase data from this image", http.StatusUnprocessableEntity)
		default:
			logger.L.Error("Receipt scan failed", "userID", userID, "error", err)
			sendJSONError(w, "Receipt scanning failed", http.StatusInternalServerError)
		}
		return
	}

	logger.L.Info("Receipt scanned for confirmation", "userID", userID, "file", header.Filename)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(extraction)
}

// HandleExtractStatements runs statement extraction over a multipart batch of
// PDFs. Files are processed strictly in order; the response carries one result
// per file. A "passwords" value array, parallel to the files, supplies
// per-file PDF passwords (empty entries for unprotected files).
func (h *UploadHandler) HandleExtractStatements(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		sendJSONError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	maxBatchBytes := config.Cfg.MaxUploadSizeBytes * int64(config.Cfg.MaxStatementFiles)
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchBytes)
	if err := r.ParseMultipartForm(maxBatchBytes); err != nil {
		sendJSONError(w, "Upload exceeds the maximum batch size", http.StatusRequestEntityTooLarge)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		sendJSONError(w, "At least one 'files' entry with a statement PDF is required", http.StatusBadRequest)
		return
	}
	if len(fileHeaders) > config.Cfg.MaxStatementFiles {
		sendJSONError(w, "Too many files in one batch", http.StatusBadRequest)
		return
	}
	passwords := r.MultipartForm.Value["passwords"]

	// One result slot per file, in upload order. Files that fail the cheap
	// local checks get their result here; the rest go to the batch service.
	results := make([]models.StatementFileResult, len(fileHeaders))
	toProcess := make([]services.StatementFile, 0, len(fileHeaders))
	processIndex := make([]int, 0, len(fileHeaders))

	for i, header := range fileHeaders {
		results[i] = models.StatementFileResult{FileName: header.Filename}

		password := ""
		if i < len(passwords) {
			password = passwords[i]
		}

		if header.Size > config.Cfg.MaxUploadSizeBytes {
			results[i].Error = "File exceeds the maximum upload size"
			continue
		}

		file, err := header.Open()
		if err != nil {
			logger.L.Error("Failed to open statement upload", "userID", userID, "file", header.Filename, "error", err)
			results[i].Error = "Could not read the uploaded file"
			continue
		}

		if err := validation.ValidatePDFContentByMagicBytes(file); err != nil {
			results[i].Error = err.Error()
			file.Close()
			continue
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			logger.L.Error("Failed to read statement upload", "userID", userID, "file", header.Filename, "error", err)
			results[i].Error = "Could not read the uploaded file"
			continue
		}

		toProcess = append(toProcess, services.StatementFile{Name: header.Filename, Data: data, Password: password})
		processIndex = append(processIndex, i)
	}

	processed, err := h.statementService.ProcessBatch(r.Context(), toProcess)
	if err != nil {
		if errors.Is(err, services.ErrTooManyStatementFiles) {
			sendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Statement batch processing failed", "userID", userID, "error", err)
		sendJSONError(w, "Statement processing failed", http.StatusInternalServerError)
		return
	}
	for i, result := range processed {
		results[processIndex[i]] = result
	}

	logger.L.Info("Statement batch processed", "userID", userID, "files", len(fileHeaders))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"results": results})
}

// HandleGmailImport is a placeholder: automatic statement import from Gmail
// is intentionally not offered.
func (h *UploadHandler) HandleGmailImport(w http.ResponseWriter, r *http.Request) {
	sendJSONError(w, "Gmail import is not implemented", http.StatusNotImplemented)
}
