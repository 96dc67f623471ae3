// Package pdftext extracts plain text from statement PDFs, including
// password-protected documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrPasswordRequired signals an encrypted document uploaded without a
	// password. Distinct from ErrIncorrectPassword so the caller can prompt
	// for credentials and retry the same artifact.
	ErrPasswordRequired = errors.New("pdf is password protected")

	// ErrIncorrectPassword signals that the supplied password did not unlock
	// the document.
	ErrIncorrectPassword = errors.New("incorrect pdf password")
)

// Extract returns the plain text of a PDF document. An empty password is
// valid for unprotected documents; for protected ones it yields
// ErrPasswordRequired.
func Extract(data []byte, password string) (string, error) {
	reader := bytes.NewReader(data)
	size := int64(len(data))

	var doc *pdf.Reader
	var err error
	if password == "" {
		doc, err = pdf.NewReader(reader, size)
	} else {
		supplied := false
		doc, err = pdf.NewReaderEncrypted(reader, size, func() string {
			// The library calls back until it gets an empty string; hand the
			// password over exactly once.
			if supplied {
				return ""
			}
			supplied = true
			return password
		})
	}
	if err != nil {
		if isInvalidPassword(err) {
			if password == "" {
				return "", ErrPasswordRequired
			}
			return "", ErrIncorrectPassword
		}
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	textReader, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, textReader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return sb.String(), nil
}

func isInvalidPassword(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	// The library reports some encryption failures as plain errors.
	return strings.Contains(strings.ToLower(err.Error()), "password")
}
