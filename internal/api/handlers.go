package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/risklens/bowtie/pkg/cache"
	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/layout"
	"github.com/risklens/bowtie/pkg/pipeline"
	"github.com/risklens/bowtie/pkg/store"
)

// maxDocumentSize caps the accepted document body (1 MiB).
const maxDocumentSize = 1 << 20

// compileResponse is the body returned by POST /v1/compile.
type compileResponse struct {
	DocHash string         `json:"doc_hash"`
	Graph   graph.Document `json:"graph"`
	Layout  layout.Layout  `json:"layout"`
}

// errorResponse is the body returned for any failed request.
type errorResponse struct {
	Error  string      `json:"error"`
	Code   errors.Code `json:"code,omitempty"`
	Issues []issueJSON `json:"issues,omitempty"`
}

// issueJSON is a single validation defect in an error response.
type issueJSON struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
	Line    int         `json:"line,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	source, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	docHash, g, l, err := s.compileDocument(r.Context(), source)
	if err != nil {
		s.writeCompileError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, compileResponse{
		DocHash: docHash,
		Graph:   graph.Export(g),
		Layout:  l,
	})
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	source, ok := s.readDocument(w, r)
	if !ok {
		return
	}

	docHash, g, l, err := s.compileDocument(r.Context(), source)
	if err != nil {
		s.writeCompileError(w, err)
		return
	}

	d := store.New(source, docHash, g, l)
	if err := s.store.Put(r.Context(), d); err != nil {
		s.writeInternalError(w, r, "store diagram", err)
		return
	}

	w.Header().Set("Location", "/v1/diagrams/"+d.ID)
	writeJSON(w, http.StatusCreated, d)
}

// compileDocument runs the compile and layout stages. Rendering is left to
// the artifact endpoints; compile responses carry only the model.
func (s *Server) compileDocument(ctx context.Context, source string) (string, *graph.Graph, layout.Layout, error) {
	opts := pipeline.Options{Source: source, Logger: s.logger}

	g, _, err := s.runner.CompileWithCacheInfo(ctx, opts)
	if err != nil {
		return "", nil, layout.Layout{}, err
	}

	docHash := cache.Hash([]byte(source))
	l, _, err := s.runner.LayoutWithCacheInfo(ctx, docHash, g, opts)
	if err != nil {
		return "", nil, layout.Layout{}, err
	}
	return docHash, g, l, nil
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "invalid limit: "+v)
			return
		}
		limit = n
	}

	diagrams, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeInternalError(w, r, "list diagrams", err)
		return
	}
	if diagrams == nil {
		diagrams = []*store.Diagram{}
	}
	writeJSON(w, http.StatusOK, diagrams)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDiagram(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDiagramSVG(w http.ResponseWriter, r *http.Request) {
	d, ok := s.lookupDiagram(w, r)
	if !ok {
		return
	}

	artifacts, err := s.runner.Render(r.Context(), d.Layout, graph.Import(d.Graph), pipeline.Options{
		Source:  d.Source,
		Formats: []string{pipeline.FormatSVG},
		Logger:  s.logger,
	})
	if err != nil {
		s.writeInternalError(w, r, "render diagram", err)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Delete(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.ErrCodeNotFound, "diagram not found: "+id)
		return
	}
	if err != nil {
		s.writeInternalError(w, r, "delete diagram", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// readDocument reads a text/plain document body, enforcing the size cap.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "read request body: "+err.Error())
		return "", false
	}
	if len(body) > maxDocumentSize {
		writeError(w, http.StatusRequestEntityTooLarge, errors.ErrCodeInvalidInput, "document exceeds 1 MiB")
		return "", false
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "empty document")
		return "", false
	}
	return string(body), true
}

// lookupDiagram fetches the diagram named by the {id} URL parameter.
func (s *Server) lookupDiagram(w http.ResponseWriter, r *http.Request) (*store.Diagram, bool) {
	id := chi.URLParam(r, "id")
	d, err := s.store.Get(r.Context(), id)
	if stderrors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, errors.ErrCodeNotFound, "diagram not found: "+id)
		return nil, false
	}
	if err != nil {
		s.writeInternalError(w, r, "fetch diagram", err)
		return nil, false
	}
	return d, true
}

// writeCompileError maps a compile failure to the right status code.
// Validation issue lists get 422 with every defect; parse and structural
// errors get 400 with a single entry.
func (s *Server) writeCompileError(w http.ResponseWriter, err error) {
	if issues, ok := errors.AsIssues(err); ok {
		out := make([]issueJSON, len(issues))
		for i, issue := range issues {
			out[i] = issueJSON{Code: issue.Code, Message: issue.Message, Line: issue.Line}
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "document has validation issues",
			Issues: out,
		})
		return
	}

	var e *errors.Error
	if stderrors.As(err, &e) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  e.Message,
			Code:   e.Code,
			Issues: []issueJSON{{Code: e.Code, Message: e.Message, Line: e.Line}},
		})
		return
	}

	writeError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error())
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op, "error", err, "request_id", requestIDFrom(r.Context()))
	writeError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "internal error")
}

func writeError(w http.ResponseWriter, status int, code errors.Code, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
