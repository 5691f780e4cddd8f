package httpadapter

import (
	"encoding/json"
	"errors"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/psemenov/texify/internal/config"
	"github.com/psemenov/texify/internal/core/ports"
	"github.com/psemenov/texify/internal/observability/metrics"
)

const serviceName = "texify-api"

type Router struct {
	cfg      config.Config
	uploader ports.DocumentUploader
	editor   ports.DocumentEditor
	docs     ports.DocumentReader
	files    ports.Workspace
	metrics  *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	uploader ports.DocumentUploader,
	editor ports.DocumentEditor,
	docs ports.DocumentReader,
	files ports.Workspace,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:      cfg,
		uploader: uploader,
		editor:   editor,
		docs:     docs,
		files:    files,
		metrics:  m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/test", rt.apiTest)
	mux.HandleFunc("/api/upload", rt.uploadDocument)
	mux.HandleFunc("/api/edit", rt.editDocument)
	mux.HandleFunc("/api/documents/", rt.getDocumentByID)
	mux.HandleFunc("/api/download/", rt.downloadArtifact)
	mux.HandleFunc("/api/latex/", rt.artifactText)

	var handler http.Handler = mux
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return corsMiddleware(rt.cfg.CORSOrigins, handler)
}

func (rt *Router) apiTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working"})
}

type uploadResponse struct {
	Success      bool   `json:"success"`
	Path         string `json:"path"`
	Output       string `json:"output"`
	DocumentID   string `json:"documentId"`
	LatexContent string `json:"latexContent,omitempty"`
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	start := time.Now()
	result, err := rt.uploader.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		r.FormValue("user_id"),
		file,
	)
	if err != nil {
		rt.recordConversion("failure", start)
		writeError(w, err)
		return
	}
	rt.recordConversion("success", start)

	writeJSON(w, http.StatusOK, uploadResponse{
		Success:      true,
		Path:         result.SourcePath,
		Output:       result.DerivedPath,
		DocumentID:   result.DocumentID,
		LatexContent: result.LatexContent,
	})
}

func (rt *Router) editDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		CurrentTex   string `json:"currentTex"`
		Instructions string `json:"instructions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	output, err := rt.editor.Edit(r.Context(), req.CurrentTex, req.Instructions)
	if err != nil {
		rt.recordEdit("failure")
		writeError(w, err)
		return
	}
	rt.recordEdit("success")

	writeJSON(w, http.StatusOK, map[string]string{
		"output":       output,
		"latexContent": output,
	})
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/documents/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) downloadArtifact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/download/")
	path, ok := rt.resolveArtifact(w, name)
	if !ok {
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	http.ServeFile(w, r, path)
}

func (rt *Router) artifactText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/latex/")
	if _, ok := rt.resolveArtifact(w, name); !ok {
		return
	}

	// The file can disappear between the existence check and this read;
	// that race maps to a plain 500.
	content, err := rt.files.ReadOutput(name)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// resolveArtifact confines the client-supplied filename to the output
// directory and checks existence. Traversal attempts and absent files
// are both reported as a plain 404.
func (rt *Router) resolveArtifact(w http.ResponseWriter, name string) (string, bool) {
	path, err := rt.files.OutputPath(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
		return "", false
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "File not found"})
			return "", false
		}
		writeError(w, err)
		return "", false
	}
	return path, true
}

func (rt *Router) recordConversion(status string, start time.Time) {
	if rt.metrics != nil {
		rt.metrics.RecordConversion(serviceName, status, time.Since(start))
	}
}

func (rt *Router) recordEdit(status string) {
	if rt.metrics != nil {
		rt.metrics.RecordEdit(serviceName, status)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
