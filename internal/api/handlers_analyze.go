package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// analyzeRequest is the body of POST /api/analyze-persona.
type analyzeRequest struct {
	Persona     string   `json:"persona" validate:"required,max=1000"`
	Task        string   `json:"job_to_be_done" validate:"required,max=2000"`
	DocumentIDs []string `json:"document_ids" validate:"max=100"`
}

func (s *Server) handleAnalyzePersona(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	// Blank-only values fail "required"; the raw strings are what gets ranked.
	check := req
	check.Persona = strings.TrimSpace(req.Persona)
	check.Task = strings.TrimSpace(req.Task)
	if err := s.validate.Struct(check); err != nil {
		jsonError(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	result, err := s.svc.Analyze(r.Context(), req.Persona, req.Task, req.DocumentIDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.svc.Analyses(r.Context(), s.cfg.ListLimit)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("list analyses: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, analyses)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s exceeds maximum of %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
