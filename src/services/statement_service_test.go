package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/finanzapp/backend/src/models"
)

type fakeAssistant struct {
	extractStatement func(ctx context.Context, text string) (*models.StatementExtraction, error)
}

func (f *fakeAssistant) ScanReceipt(ctx context.Context, imageBase64, mediaType string) (*models.ReceiptExtraction, error) {
	panic("not used")
}

func (f *fakeAssistant) ExtractStatement(ctx context.Context, text string) (*models.StatementExtraction, error) {
	return f.extractStatement(ctx, text)
}

func (f *fakeAssistant) GenerateMonthlyReport(ctx context.Context, payload ReportPayload) (string, error) {
	panic("not used")
}

func TestProcessBatch_TooManyFiles(t *testing.T) {
	service := NewStatementService(&fakeAssistant{}, 2)

	files := []StatementFile{{Name: "a.pdf"}, {Name: "b.pdf"}, {Name: "c.pdf"}}
	_, err := service.ProcessBatch(context.Background(), files)
	assert.ErrorIs(t, err, ErrTooManyStatementFiles)
}

func TestProcessBatch_EmptyBatch(t *testing.T) {
	service := NewStatementService(&fakeAssistant{}, 5)

	results, err := service.ProcessBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestProcessBatch_UnreadablePDF(t *testing.T) {
	// Bytes without a PDF header never reach the assistant; the failure stays
	// scoped to the one file.
	service := NewStatementService(&fakeAssistant{
		extractStatement: func(ctx context.Context, text string) (*models.StatementExtraction, error) {
			t.Fatal("assistant must not be called for an unreadable file")
			return nil, nil
		},
	}, 5)

	results, err := service.ProcessBatch(context.Background(), []StatementFile{
		{Name: "garbage.pdf", Data: []byte("this is not a pdf")},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.Equal(t, "garbage.pdf", result.FileName)
	assert.Equal(t, "Could not read the PDF file", result.Error)
	assert.Nil(t, result.Data)
	assert.False(t, result.NeedsPassword)
	assert.False(t, result.IncorrectPassword)
}

func TestProcessBatch_ContextCancelled(t *testing.T) {
	service := NewStatementService(&fakeAssistant{}, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.ProcessBatch(ctx, []StatementFile{
		{Name: "a.pdf", Data: []byte("not a pdf")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}
