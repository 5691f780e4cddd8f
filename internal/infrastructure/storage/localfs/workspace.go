package localfs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/psemenov/texify/internal/core/domain"
)

// Workspace owns the staging directory for in-flight uploads and the
// output directory the conversion tool writes into. Both directories
// are shared across requests; individual files are request-scoped via
// their timestamped names.
type Workspace struct {
	stagingDir string
	outputDir  string
}

func NewWorkspace(stagingDir, outputDir string) (*Workspace, error) {
	if stagingDir == "" {
		stagingDir = "./data/staging"
	}
	if outputDir == "" {
		outputDir = "./data/outputs"
	}
	// Concurrent requests may race on directory creation; MkdirAll
	// treats an existing directory as success.
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	absStaging, err := filepath.Abs(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve staging dir: %w", err)
	}
	absOutput, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output dir: %w", err)
	}
	return &Workspace{stagingDir: absStaging, outputDir: absOutput}, nil
}

// Stage writes the uploaded bytes under the staging directory and
// returns the absolute path of the staged file.
func (w *Workspace) Stage(name string, data io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(w.stagingDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", domain.WrapError(domain.ErrFilesystem, "create staged file", err)
	}

	// A failed write must not leave a partial file behind; staged files
	// exist only for the duration of a successful Stage..Discard pair.
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", domain.WrapError(domain.ErrFilesystem, "write staged file", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", domain.WrapError(domain.ErrFilesystem, "write staged file", err)
	}
	return path, nil
}

// Discard removes a staged file. A file that is already gone counts as
// removed.
func (w *Workspace) Discard(path string) error {
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return domain.WrapError(domain.ErrFilesystem, "remove staged file", err)
}

// OutputPath resolves a bare filename inside the output directory. Any
// name that would escape the directory is rejected before the
// filesystem is touched.
func (w *Workspace) OutputPath(name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	return filepath.Join(w.outputDir, name), nil
}

// ReadOutput returns the text of a produced artifact.
func (w *Workspace) ReadOutput(name string) (string, error) {
	path, err := w.OutputPath(name)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.WrapError(domain.ErrNotFound, "read output", err)
		}
		return "", domain.WrapError(domain.ErrFilesystem, "read output", err)
	}
	return string(raw), nil
}

func validName(name string) error {
	if name == "" || name != filepath.Base(name) || !filepath.IsLocal(name) {
		return domain.WrapError(domain.ErrInvalidInput, "resolve workspace path", fmt.Errorf("invalid filename %q", name))
	}
	return nil
}
