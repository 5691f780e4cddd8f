package ports

import (
	"context"
	"io"

	"github.com/psemenov/texify/internal/core/domain"
)

// DocumentRepository persists and reads document records. Insert
// returns the id the store assigned to the new record.
type DocumentRepository interface {
	Insert(ctx context.Context, doc *domain.Document) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	SetDerivedPath(ctx context.Context, id, derivedPath string) error
}

// ObjectStorage stores uploaded originals durably. Put is append-only:
// writing to a key that already holds an object is an error, never a
// silent overwrite.
type ObjectStorage interface {
	Put(ctx context.Context, key, contentType string, data io.Reader, size int64) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Workspace owns the request-scoped staging files and the local output
// directory the conversion tool writes into. Staged files are removed
// via Discard on every exit path of the pipeline.
type Workspace interface {
	Stage(name string, data io.Reader) (string, error)
	Discard(path string) error
	OutputPath(name string) (string, error)
	ReadOutput(name string) (string, error)
}

// DocumentConverter runs the external conversion and edit tools.
// Convert reads the staged input file and writes LaTeX to outputPath;
// Edit returns the rewritten LaTeX on stdout. Both succeed exactly when
// the tool exits zero.
type DocumentConverter interface {
	Convert(ctx context.Context, inputPath, outputPath string) (string, error)
	Edit(ctx context.Context, tex, instructions string) (string, error)
}

// DocumentInspector derives lightweight metadata from a staged upload.
// Best effort: a zero page count means unknown.
type DocumentInspector interface {
	PageCount(path string) int
}

// EventPublisher announces finished conversions to downstream
// consumers.
type EventPublisher interface {
	PublishDocumentConverted(ctx context.Context, documentID string) error
}
