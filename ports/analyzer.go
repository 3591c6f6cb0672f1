package ports

import (
	"context"
	"io"

	"edadash/models"
)

// Analyzer produces the analysis result for an uploaded file. The
// in-process engine and the remote engine client both satisfy it.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, file io.Reader) (*models.AnalysisResult, error)
}
