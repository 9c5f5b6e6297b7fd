// Package api exposes the HTTP surface: document upload, text insertion,
// index management, model listing and chat, plus the embedded web UI.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/fmartel/ragdesk/chat"
	"github.com/fmartel/ragdesk/config"
	"github.com/fmartel/ragdesk/index"
	"github.com/fmartel/ragdesk/ingestion"
	"github.com/fmartel/ragdesk/llm"
)

// maxUploadBytes bounds one uploaded document.
const maxUploadBytes = 64 << 20

// Server exposes HTTP handlers over a live index manager and chat service.
// The manager is long-lived: it is the session state the UI works against.
type Server struct {
	cfg     config.Config
	logger  *log.Logger
	manager *index.Manager
	chats   *chat.Service
	handler http.Handler
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type insertResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
	// SkippedMetadata counts malformed key=value entries that were dropped.
	SkippedMetadata int `json:"skippedMetadata,omitempty"`
}

type insertTextRequest struct {
	Text     string `json:"text"`
	Metadata string `json:"metadata"`
}

type chatRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK"`
	// Model overrides the configured LLM model for this request.
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type chatResponse struct {
	Answer  string       `json:"answer"`
	Sources []chatSource `json:"sources"`
}

type chatSource struct {
	ChunkID  string  `json:"chunkId"`
	FileName string  `json:"fileName,omitempty"`
	FileType string  `json:"fileType,omitempty"`
	Snippet  string  `json:"snippet"`
	Score    float64 `json:"score"`
}

type streamEvent struct {
	Token   string       `json:"token,omitempty"`
	Done    bool         `json:"done,omitempty"`
	Answer  string       `json:"answer,omitempty"`
	Sources []chatSource `json:"sources,omitempty"`
	Error   string       `json:"error,omitempty"`
}

type indicesResponse struct {
	Indices []string `json:"indices"`
	Chunks  int      `json:"chunks"`
}

type modelsResponse struct {
	Models []string `json:"models"`
}

// New constructs a Server around an already wired manager and chat service.
func New(cfg config.Config, manager *index.Manager, chats *chat.Service, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{cfg: cfg, logger: logger, manager: manager, chats: chats}
	s.handler = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/models", s.handleModels)
	mux.HandleFunc("POST /v1/documents", s.handleUpload)
	mux.HandleFunc("POST /v1/text", s.handleInsertText)
	mux.HandleFunc("GET /v1/indices", s.handleListIndices)
	mux.HandleFunc("POST /v1/indices/{name}/save", s.handleSaveIndex)
	mux.HandleFunc("POST /v1/indices/{name}/load", s.handleLoadIndex)
	mux.HandleFunc("POST /v1/flush", s.handleFlush)
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /", s.handleRoot)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models, err := llm.ListOllamaModels(r.Context(), s.cfg.OllamaHost)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, fmt.Errorf("list ollama models: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, modelsResponse{Models: models})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("file field is required: %w", err))
		return
	}
	defer file.Close()

	doc, err := ingestion.Extract(ingestion.FromReader(header.Filename, file))
	if err != nil {
		s.writeError(w, ingestionStatus(err), fmt.Errorf("read file: %w", err))
		return
	}

	metadata, skipped := ingestion.ParseMetadata(r.FormValue("metadata"))
	for k, v := range ingestion.FileMetadata(header.Filename) {
		metadata[k] = v
	}

	count, err := s.manager.InsertDocument(r.Context(), doc, metadata)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("insert document: %w", err))
		return
	}

	s.logger.Printf("ingested %s (%s, %d chunks)", header.Filename, doc.Format, count)
	s.writeJSON(w, http.StatusOK, insertResponse{
		Message:         fmt.Sprintf("file %q added successfully", header.Filename),
		Chunks:          count,
		SkippedMetadata: skipped,
	})
}

func (s *Server) handleInsertText(w http.ResponseWriter, r *http.Request) {
	var req insertTextRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("text is required"))
		return
	}

	metadata, skipped := ingestion.ParseMetadata(req.Metadata)
	count, err := s.manager.InsertText(r.Context(), req.Text, metadata)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("insert text: %w", err))
		return
	}

	s.writeJSON(w, http.StatusOK, insertResponse{
		Message:         "text inserted successfully",
		Chunks:          count,
		SkippedMetadata: skipped,
	})
}

func (s *Server) handleListIndices(w http.ResponseWriter, r *http.Request) {
	indices, err := s.manager.ListIndices()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("list indices: %w", err))
		return
	}
	count, err := s.manager.Count(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("count chunks: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, indicesResponse{Indices: indices, Chunks: count})
}

func (s *Server) handleSaveIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.manager.Save(r.Context(), name); err != nil {
		s.writeError(w, snapshotStatus(err), fmt.Errorf("save index: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("index saved to %q", name)})
}

func (s *Server) handleLoadIndex(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.manager.Load(r.Context(), name); err != nil {
		s.writeError(w, snapshotStatus(err), fmt.Errorf("load index: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("index %q loaded", name)})
}

func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Flush(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("flush index: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, messageResponse{Message: "index flushed and reinitialized"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("question is required"))
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	cfg := chat.Config{TopK: topK, Model: strings.TrimSpace(req.Model)}

	if !req.Stream {
		resp, err := s.chats.Chat(r.Context(), req.Question, cfg)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("chat failed: %w", err))
			return
		}
		s.writeJSON(w, http.StatusOK, chatResponse{Answer: resp.Answer, Sources: toChatSources(resp.Sources)})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)

	resp, _, err := s.chats.ChatStream(r.Context(), req.Question, cfg, nil, func(token string) error {
		if err := enc.Encode(streamEvent{Token: token}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		s.logger.Printf("chat stream failed: %v", err)
		_ = enc.Encode(streamEvent{Done: true, Error: err.Error()})
		flusher.Flush()
		return
	}

	_ = enc.Encode(streamEvent{Done: true, Answer: resp.Answer, Sources: toChatSources(resp.Sources)})
	flusher.Flush()
}

func toChatSources(sources []chat.Source) []chatSource {
	converted := make([]chatSource, len(sources))
	for i, src := range sources {
		converted[i] = chatSource{
			ChunkID:  src.ChunkID,
			FileName: src.FileName,
			FileType: src.FileType,
			Snippet:  src.Snippet,
			Score:    src.Score,
		}
	}
	return converted
}

// ingestionStatus maps pipeline error kinds onto HTTP statuses: caller
// mistakes are 4xx, extractor failures 422.
func ingestionStatus(err error) int {
	var (
		detectErr      *ingestion.DetectionError
		unsupportedErr *ingestion.UnsupportedFormatError
		extractErr     *ingestion.ExtractionError
	)
	switch {
	case errors.As(err, &detectErr), errors.As(err, &unsupportedErr):
		return http.StatusBadRequest
	case errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func snapshotStatus(err error) int {
	if errors.Is(err, index.ErrSnapshotUnsupported) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Printf("api error (%d): %v", status, err)
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}

	if dec.More() {
		return fmt.Errorf("request body must contain a single JSON object")
	}

	return nil
}
