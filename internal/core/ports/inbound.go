package ports

import (
	"context"
	"io"

	"github.com/psemenov/texify/internal/core/domain"
)

// DocumentUploader is the inbound contract for the upload pipeline:
// stage, durable put, record insert, conversion, record update, cleanup.
type DocumentUploader interface {
	Upload(ctx context.Context, filename, contentType, ownerID string, body io.Reader) (*domain.UploadResult, error)
}

// DocumentEditor applies free-form instructions to existing LaTeX text
// and returns the rewritten document. No durable side effects.
type DocumentEditor interface {
	Edit(ctx context.Context, tex, instructions string) (string, error)
}

// DocumentReader is the inbound read model for document metadata.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
