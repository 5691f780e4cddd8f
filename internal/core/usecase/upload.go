package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/psemenov/texify/internal/core/domain"
	"github.com/psemenov/texify/internal/core/ports"
)

// UploadDocumentUseCase drives one upload through its fixed step order:
// stage the bytes locally, put them in durable storage, insert the
// metadata record, run the external converter, update the record with
// the derived path, and clean the staged file up on every exit path.
type UploadDocumentUseCase struct {
	repo      ports.DocumentRepository
	store     ports.ObjectStorage
	workspace ports.Workspace
	converter ports.DocumentConverter
	inspector ports.DocumentInspector
	events    ports.EventPublisher
}

func NewUploadDocumentUseCase(
	repo ports.DocumentRepository,
	store ports.ObjectStorage,
	workspace ports.Workspace,
	converter ports.DocumentConverter,
	inspector ports.DocumentInspector,
	events ports.EventPublisher,
) *UploadDocumentUseCase {
	return &UploadDocumentUseCase{
		repo:      repo,
		store:     store,
		workspace: workspace,
		converter: converter,
		inspector: inspector,
		events:    events,
	}
}

func (uc *UploadDocumentUseCase) Upload(
	ctx context.Context,
	filename, contentType, ownerID string,
	body io.Reader,
) (*domain.UploadResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		ownerID = domain.AnonymousOwner
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrFilesystem, "read upload body", err)
	}

	ts := time.Now().UnixMilli()
	safeName := sanitizeFilename(filename)
	storageKey := fmt.Sprintf("uploads/%d_%s", ts, safeName)

	stagedPath, err := uc.workspace.Stage(fmt.Sprintf("%d_%s", ts, safeName), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.workspace.Discard(stagedPath); err != nil {
			slog.Error("discard staged file", "path", stagedPath, "error", err)
		}
	}()

	if err := uc.store.Put(ctx, storageKey, contentType, bytes.NewReader(raw), int64(len(raw))); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	id, err := uc.repo.Insert(ctx, &domain.Document{
		OwnerID:           ownerID,
		OriginalFilename:  filename,
		SourceStoragePath: storageKey,
		PageCount:         uc.inspector.PageCount(stagedPath),
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		// The object written above stays behind in storage. Its key is
		// timestamp-qualified, so the orphan cannot shadow a later upload.
		return nil, err
	}

	outputName := fmt.Sprintf("%d_output.tex", ts)
	outputPath, err := uc.workspace.OutputPath(outputName)
	if err != nil {
		return nil, err
	}
	if _, err := uc.converter.Convert(ctx, stagedPath, outputPath); err != nil {
		return nil, err
	}

	derivedKey := "outputs/" + filepath.Base(outputPath)
	content, err := uc.workspace.ReadOutput(outputName)
	if err != nil {
		slog.Warn("read converted output", "document_id", id, "path", outputPath, "error", err)
		content = ""
	}

	// Conversion already succeeded; a failed record update leaves the
	// derived path stale rather than failing the whole upload.
	if err := uc.repo.SetDerivedPath(ctx, id, derivedKey); err != nil {
		slog.Error("update derived storage path", "document_id", id, "derived_path", derivedKey, "error", err)
	}

	uc.notifyConverted(ctx, id)

	return &domain.UploadResult{
		DocumentID:   id,
		SourcePath:   storageKey,
		DerivedPath:  derivedKey,
		LatexContent: content,
	}, nil
}

func (uc *UploadDocumentUseCase) notifyConverted(ctx context.Context, documentID string) {
	if uc.events == nil {
		return
	}
	if err := uc.events.PublishDocumentConverted(ctx, documentID); err != nil {
		slog.Warn("publish converted event", "document_id", documentID, "error", err)
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
