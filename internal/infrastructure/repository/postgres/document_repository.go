package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/psemenov/texify/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *DocumentRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS docs (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	owner_id TEXT NOT NULL,
	original_filename TEXT NOT NULL,
	pdf_storage_path TEXT NOT NULL,
	latex_storage_path TEXT,
	page_count INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_docs_owner_id ON docs(owner_id);
CREATE INDEX IF NOT EXISTS idx_docs_created_at ON docs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Insert writes a new record and returns the id the database assigned.
func (r *DocumentRepository) Insert(ctx context.Context, doc *domain.Document) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `
INSERT INTO docs (owner_id, original_filename, pdf_storage_path, page_count, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING id
`,
		doc.OwnerID, doc.OriginalFilename, doc.SourceStoragePath, doc.PageCount, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return "", domain.WrapError(domain.ErrStorage, "insert document", err)
	}
	return id, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, owner_id, original_filename, pdf_storage_path, latex_storage_path, page_count, created_at, updated_at
FROM docs
WHERE id = $1
`, id)

	var doc domain.Document
	var derived sql.NullString

	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.OriginalFilename, &doc.SourceStoragePath,
		&derived, &doc.PageCount, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, domain.WrapError(domain.ErrStorage, "scan document", err)
	}

	doc.DerivedStoragePath = derived.String
	return &doc, nil
}

// SetDerivedPath records the converted artifact's storage path. The
// update is keyed by id and runs at most once per successful
// conversion.
func (r *DocumentRepository) SetDerivedPath(ctx context.Context, id, derivedPath string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE docs
SET latex_storage_path = $2, updated_at = $3
WHERE id = $1
`, id, derivedPath, time.Now().UTC())
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "update derived path", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrStorage, "update derived path", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, "update derived path", fmt.Errorf("id=%s", id))
	}
	return nil
}
