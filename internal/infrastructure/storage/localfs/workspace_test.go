package localfs

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/psemenov/texify/internal/core/domain"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := NewWorkspace(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	return ws
}

type failingReader struct {
	head string
	err  error
	done bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.done {
		r.done = true
		return copy(p, r.head), nil
	}
	return 0, r.err
}

func TestStageFailedWriteLeavesNoFile(t *testing.T) {
	ws := newTestWorkspace(t)

	reader := &failingReader{head: "%PDF-", err: errors.New("read: input/output error")}
	if _, err := ws.Stage("1700000000000_report.pdf", reader); err == nil {
		t.Fatal("expected Stage to fail")
	} else if !domain.IsKind(err, domain.ErrFilesystem) {
		t.Fatalf("expected filesystem kind, got %v", err)
	}

	entries, err := os.ReadDir(ws.stagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty staging dir, found %q", entries[0].Name())
	}
}

func TestStageAndDiscard(t *testing.T) {
	ws := newTestWorkspace(t)

	path, err := ws.Stage("1700000000000_report.pdf", strings.NewReader("pdfbytes"))
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("staged file unreadable: %v", err)
	}
	if string(raw) != "pdfbytes" {
		t.Fatalf("staged content %q", raw)
	}

	if err := ws.Discard(path); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("staged file still present after discard")
	}

	// Discarding again is not an error.
	if err := ws.Discard(path); err != nil {
		t.Fatalf("Discard() on missing file error = %v", err)
	}
}

func TestOutputPathRejectsTraversal(t *testing.T) {
	ws := newTestWorkspace(t)

	for _, name := range []string{"", "../escape.tex", "a/b.tex", "..", "/etc/passwd"} {
		if _, err := ws.OutputPath(name); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("OutputPath(%q) expected invalid input, got %v", name, err)
		}
	}
}

func TestReadOutput(t *testing.T) {
	ws := newTestWorkspace(t)

	path, err := ws.OutputPath("1700000000000_output.tex")
	if err != nil {
		t.Fatalf("OutputPath() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("\\section{A}"), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	content, err := ws.ReadOutput("1700000000000_output.tex")
	if err != nil {
		t.Fatalf("ReadOutput() error = %v", err)
	}
	if content != "\\section{A}" {
		t.Fatalf("unexpected content %q", content)
	}

	// Idempotent: a second read with no intervening write matches.
	again, err := ws.ReadOutput("1700000000000_output.tex")
	if err != nil || again != content {
		t.Fatalf("second read mismatch: %q %v", again, err)
	}

	if _, err := ws.ReadOutput("missing.tex"); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
