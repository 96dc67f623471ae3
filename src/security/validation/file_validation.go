package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/finanzapp/backend/src/logger"
)

// AllowedReceiptContentTypes is a map for quick lookup of allowed
// client-declared MIME types for receipt images.
var AllowedReceiptContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var pdfMagic = []byte("%PDF-")

// ValidateReceiptContentType checks the Content-Type header provided by the
// client for a receipt image upload.
func ValidateReceiptContentType(contentType string) error {
	if !AllowedReceiptContentTypes[strings.ToLower(contentType)] {
		logger.L.Warn("Disallowed client-declared Content-Type for receipt", "contentType", contentType)
		return fmt.Errorf("client-declared file type '%s' is not allowed; receipts must be JPEG, PNG or WebP images", contentType)
	}
	return nil
}

// ValidateImageContentByMagicBytes checks the actual file content signature
// and returns the detected MIME type. The read pointer is reset so the caller
// can re-read the full file.
func ValidateImageContentByMagicBytes(file io.ReadSeeker) (string, error) {
	buffer, err := readHead(file)
	if err != nil {
		return "", err
	}

	detected := strings.ToLower(strings.Split(http.DetectContentType(buffer), ";")[0])
	if !AllowedReceiptContentTypes[detected] {
		logger.L.Warn("Disallowed detected file content type for receipt", "detectedContentType", detected)
		return detected, fmt.Errorf("detected file content type '%s' is not an allowed image type", detected)
	}

	logger.L.Debug("Receipt image content type validated", "detectedContentType", detected)
	return detected, nil
}

// ValidatePDFContentByMagicBytes checks that the file starts with the PDF
// signature. The read pointer is reset so the caller can re-read the full
// file.
func ValidatePDFContentByMagicBytes(file io.ReadSeeker) error {
	buffer, err := readHead(file)
	if err != nil {
		return err
	}

	if !bytes.HasPrefix(buffer, pdfMagic) {
		logger.L.Warn("File rejected: PDF signature not found in statement upload")
		return fmt.Errorf("file does not appear to be a PDF document")
	}
	return nil
}

// readHead reads the first 1KB for detection and resets the read pointer.
func readHead(file io.ReadSeeker) ([]byte, error) {
	if file == nil {
		return nil, fmt.Errorf("file is nil")
	}

	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return nil, fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return nil, fmt.Errorf("file is empty")
	}
	return buffer[:n], nil
}
