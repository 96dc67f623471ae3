package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/username/finanzapp/backend/src/logger"
	"github.com/username/finanzapp/backend/src/models"
	"github.com/username/finanzapp/backend/src/parsers/pdftext"
)

// minStatementTextLength is the threshold below which an extracted PDF text is
// treated as a scanned image rather than a digital statement.
const minStatementTextLength = 50

type statementServiceImpl struct {
	assistant AssistantService
	maxFiles  int
}

func NewStatementService(assistant AssistantService, maxFiles int) StatementService {
	return &statementServiceImpl{
		assistant: assistant,
		maxFiles:  maxFiles,
	}
}

// ProcessBatch extracts statement data from each PDF in order, one at a time.
// Per-file failures are captured in the result list; only an oversized batch
// or a missing API key fail the call as a whole.
func (s *statementServiceImpl) ProcessBatch(ctx context.Context, files []StatementFile) ([]models.StatementFileResult, error) {
	if len(files) > s.maxFiles {
		return nil, fmt.Errorf("%w: got %d, limit is %d", ErrTooManyStatementFiles, len(files), s.maxFiles)
	}

	results := make([]models.StatementFileResult, 0, len(files))
	for _, file := range files {
		result := s.processFile(ctx, file)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		results = append(results, result)
	}
	return results, nil
}

func (s *statementServiceImpl) processFile(ctx context.Context, file StatementFile) models.StatementFileResult {
	result := models.StatementFileResult{FileName: file.Name}

	text, err := pdftext.Extract(file.Data, file.Password)
	if err != nil {
		switch {
		case errors.Is(err, pdftext.ErrPasswordRequired):
			result.NeedsPassword = true
			result.Error = "PDF is password protected"
		case errors.Is(err, pdftext.ErrIncorrectPassword):
			result.IncorrectPassword = true
			result.Error = "Incorrect PDF password"
		default:
			logger.L.Warn("Failed to read statement PDF", "file", file.Name, "error", err)
			result.Error = "Could not read the PDF file"
		}
		return result
	}

	if len(text) < minStatementTextLength {
		result.Error = "This PDF appears to be a scanned image; only digital statements with selectable text are supported"
		return result
	}

	data, err := s.assistant.ExtractStatement(ctx, text)
	if err != nil {
		switch {
		case errors.Is(err, ErrAssistantNotConfigured):
			result.Error = "Statement extraction is not configured on this server"
		case errors.Is(err, ErrExtractionFailed):
			result.Error = "Could not extract statement data from this PDF"
		default:
			logger.L.Error("Statement extraction failed", "file", file.Name, "error", err)
			result.Error = "Statement extraction failed"
		}
		return result
	}

	result.Data = data
	return result
}
