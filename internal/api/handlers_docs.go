package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/go-chi/chi/v5"
)

// multipartOverhead is allowed on top of MaxUploadBytes for form framing.
const multipartOverhead = 1024 * 1024

// handleUploadPDF extracts and stores the outline of an uploaded PDF.
func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, func(filename string) string {
		if !parser.IsPDF(filename) {
			return "File must be a PDF"
		}
		return ""
	})
}

// handleUpload accepts any supported document format.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.upload(w, r, func(filename string) string {
		if !parser.IsSupportedExtension(filename) {
			return "unsupported file type: " + filepath.Ext(filename)
		}
		return ""
	})
}

// upload handles a single multipart "file" part. reject returns a client
// error message for filenames the route does not accept.
func (s *Server) upload(w http.ResponseWriter, r *http.Request, reject func(filename string) string) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		formError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if msg := reject(filename); msg != "" {
		jsonError(w, msg, http.StatusBadRequest)
		return
	}

	data, status, err := s.readFile(file)
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	o, err := s.svc.Ingest(r.Context(), bytes.NewReader(data), filename)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents(r.Context(), s.cfg.ListLimit)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("list documents: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Document(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// readFile reads at most MaxUploadBytes from an uploaded part.
func (s *Server) readFile(f multipart.File) ([]byte, int, error) {
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return data, http.StatusOK, nil
}

func formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, fmt.Sprintf("request exceeds max size (%d bytes)", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
