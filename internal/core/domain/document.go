package domain

import "time"

// AnonymousOwner is recorded when an upload carries no identity.
const AnonymousOwner = "anonymous"

// Document is one uploaded file and, once conversion succeeded, the
// LaTeX artifact derived from it. The id is assigned by the durable
// store at insert time and is immutable afterwards.
type Document struct {
	ID                 string    `json:"id"`
	OwnerID            string    `json:"owner_id"`
	OriginalFilename   string    `json:"original_filename"`
	SourceStoragePath  string    `json:"pdf_storage_path"`
	DerivedStoragePath string    `json:"latex_storage_path,omitempty"`
	PageCount          int       `json:"page_count,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// UploadResult is what a completed upload pipeline hands back to the
// transport layer. LatexContent may be empty when the derived file
// could not be read back after conversion.
type UploadResult struct {
	DocumentID   string
	SourcePath   string
	DerivedPath  string
	LatexContent string
}
