package ports

import (
	"context"
	"time"

	"edadash/models"
)

// UploadRecord is one completed analysis as remembered by the ledger.
type UploadRecord struct {
	ID        string
	Filename  string
	Rows      int
	Columns   int
	Result    *models.AnalysisResult
	CreatedAt time.Time
}

// UploadLedger records completed analyses. The dashboard session itself is
// never persisted; the ledger is server-side history only.
type UploadLedger interface {
	Record(ctx context.Context, rec *UploadRecord) error
	ListRecent(ctx context.Context, limit int) ([]*UploadRecord, error)
}
