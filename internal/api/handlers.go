package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/core/extract"
	"github.com/FocuswithJustin/sermonrefs/core/merge"
	"github.com/FocuswithJustin/sermonrefs/core/scripture"
	"github.com/FocuswithJustin/sermonrefs/core/sqlite"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
	"github.com/FocuswithJustin/sermonrefs/internal/resolver"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Verses       int    `json:"verses"`
	SQLiteDriver string `json:"sqlite_driver"`
}

// BookInfo describes one book of the canon.
type BookInfo struct {
	scripture.Book
	Order int `json:"order"`
}

// TranslationInfo describes one stored translation.
type TranslationInfo struct {
	Name   string `json:"name"`
	Verses int    `json:"verses"`
}

// ExtractRequest is the body of POST /extract.
type ExtractRequest struct {
	Text string `json:"text"`

	// Spans adds byte offsets for each reference.
	Spans bool `json:"spans,omitempty"`

	// Wrap rewrites the text with markers: "html" or "markdown".
	Wrap string `json:"wrap,omitempty"`

	// LinkBase prefixes Markdown link targets.
	LinkBase string `json:"link_base,omitempty"`
}

// ExtractResponse is the data of POST /extract.
type ExtractResponse struct {
	References []scripture.Reference `json:"references"`
	Matches    []extract.Match       `json:"matches,omitempty"`
	Wrapped    string                `json:"wrapped,omitempty"`
}

// ParseRequest is the body of POST /parse.
type ParseRequest struct {
	Reference string `json:"reference"`
}

// MergeRequest is the body of POST /merge.
type MergeRequest struct {
	Verses []scripture.Verse `json:"verses"`
	Order  string            `json:"order,omitempty"`
}

// ResolveRequest is the body of POST /resolve.
type ResolveRequest struct {
	Text        string               `json:"text"`
	Translation string               `json:"translation,omitempty"`
	Order       string               `json:"order,omitempty"`
	SourceType  scripture.SourceType `json:"sourceType,omitempty"`
	AddedViaTag bool                 `json:"addedViaTag,omitempty"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]any{
		"name":    "sermonrefs API",
		"version": s.cfg.Version,
		"endpoints": []string{
			"GET /health",
			"GET /books",
			"GET /translations",
			"POST /extract",
			"POST /parse",
			"POST /merge",
			"POST /resolve",
			"POST /import",
			"GET /jobs",
			"GET /jobs/:id",
			"DELETE /jobs/:id",
			"WS /ws",
		},
	})
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := s.count(r.Context(), "")
	if err != nil {
		logging.ErrorContext(r.Context(), "health check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "verse store unavailable")
		return
	}
	respond(w, http.StatusOK, HealthInfo{
		Status:       "healthy",
		Version:      s.cfg.Version,
		Uptime:       time.Since(s.started).Round(time.Second).String(),
		Verses:       count,
		SQLiteDriver: sqlite.DriverName(),
	})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	extra := r.URL.Query().Get("extra") == "true"

	var books []BookInfo
	for i, b := range s.canon.Books() {
		if !b.Canonical && !extra {
			continue
		}
		books = append(books, BookInfo{Book: b, Order: i})
	}
	respondList(w, books, len(books))
}

func (s *Server) handleTranslations(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.Translations(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	out := make([]TranslationInfo, 0, len(names))
	for _, name := range names {
		n, err := s.count(r.Context(), name)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		out = append(out, TranslationInfo{Name: name, Verses: n})
	}
	respondList(w, out, len(out))
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !s.decode(w, r, &req) {
		return
	}

	resp := ExtractResponse{References: s.extractor.Extract(req.Text)}
	if resp.References == nil {
		resp.References = []scripture.Reference{}
	}
	if req.Spans {
		resp.Matches = s.extractor.Annotate(req.Text)
	}
	switch strings.ToLower(req.Wrap) {
	case "":
	case "html":
		resp.Wrapped = s.extractor.WrapHTML(req.Text)
	case "markdown", "md":
		resp.Wrapped = s.extractor.Wrap(req.Text, extract.MarkdownLink(req.LinkBase))
	default:
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", fmt.Sprintf("unknown wrap %q: use html or markdown", req.Wrap))
		return
	}
	respondList(w, resp, len(resp.References))
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !s.decode(w, r, &req) {
		return
	}
	ref, err := s.canon.ParseReference(req.Reference)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respond(w, http.StatusOK, ref)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if !s.decode(w, r, &req) {
		return
	}
	order, err := s.order(req.Order)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	merged := merge.Merge(req.Verses, merge.WithOrder(order), merge.WithCanon(s.canon))
	if merged == nil {
		merged = []scripture.Verse{}
	}
	respondList(w, merged, len(merged))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !s.decode(w, r, &req) {
		return
	}
	order, err := s.order(req.Order)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	translation := req.Translation
	if strings.TrimSpace(translation) == "" {
		translation = s.cfg.Translation
	}
	source := req.SourceType
	if source == "" {
		source = scripture.SourceManual
	}

	res, err := resolver.New(s.store,
		resolver.WithExtractor(s.extractor),
		resolver.WithMergeOptions(merge.WithOrder(order), merge.WithCanon(s.canon)),
		resolver.WithProvenance(source, req.AddedViaTag),
	).Resolve(r.Context(), req.Text, translation)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if res.Verses == nil {
		res.Verses = []scripture.Verse{}
	}
	respondList(w, res, len(res.Verses))
}

// order parses a request's merge order, defaulting to the server's.
func (s *Server) order(name string) (merge.Order, error) {
	if strings.TrimSpace(name) == "" {
		return s.cfg.MergeOrder, nil
	}
	return merge.ParseOrder(name)
}

// decode reads a JSON body into v, responding with 400 or 413 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			respondError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE",
				fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
		case errors.Is(err, io.EOF):
			respondError(w, http.StatusBadRequest, "INVALID_JSON", "request body is empty")
		default:
			respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		}
		return false
	}
	return true
}

// respondErr maps an application error onto a status and error code.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		parseErr *apperrors.ParseError
		validErr *apperrors.ValidationError
	)
	switch {
	case apperrors.As(err, &parseErr):
		respondError(w, http.StatusBadRequest, "PARSE_ERROR", err.Error())
	case apperrors.As(err, &validErr), apperrors.Is(err, apperrors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case apperrors.Is(err, apperrors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case apperrors.Is(err, apperrors.ErrUnsupported):
		respondError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED", err.Error())
	case r.Context().Err() != nil:
		respondError(w, http.StatusServiceUnavailable, "CANCELED", "request canceled")
	default:
		logging.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: timestamp()},
	})
}

// respondList is respond with a total count in the metadata.
func respondList(w http.ResponseWriter, data any, total int) {
	writeResponse(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Total: total, Timestamp: timestamp()},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: timestamp()},
	})
}

func writeResponse(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn("failed to write response", "error", err)
	}
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
