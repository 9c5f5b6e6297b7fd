package api

import (
	"archive/zip"
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fmartel/ragdesk/chat"
	"github.com/fmartel/ragdesk/config"
	"github.com/fmartel/ragdesk/embeddings"
	"github.com/fmartel/ragdesk/index"
	"github.com/fmartel/ragdesk/llm"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, 4)
		if len(text) > 0 {
			v[int(text[0])%4] = 1
		}
		vectors[i] = v
	}
	return vectors, nil
}

var _ embeddings.Embedder = fixedEmbedder{}

type fixedLLM struct {
	answer string
}

func (f fixedLLM) Generate(context.Context, []llm.Message) (string, error) {
	return f.answer, nil
}

func (f fixedLLM) GenerateStream(_ context.Context, _ []llm.Message, fn func(string) error) error {
	for _, token := range strings.SplitAfter(f.answer, " ") {
		if err := fn(token); err != nil {
			return err
		}
	}
	return nil
}

func (f fixedLLM) WithModel(model string) llm.Client {
	return fixedLLM{answer: "answered by " + model}
}

var (
	_ llm.StreamClient  = fixedLLM{}
	_ llm.ModelSwitcher = fixedLLM{}
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	manager := index.NewManager(index.NewMemoryStore(), fixedEmbedder{}, logger, index.Options{
		ChunkSize:    32,
		ChunkOverlap: 4,
		IndicesRoot:  t.TempDir(),
	})
	chats := chat.NewService(manager, fixedLLM{answer: "stub answer"}, logger)

	cfg := config.Config{TopK: 2, OllamaHost: "http://localhost:11434"}
	return New(cfg, manager, chats, logger)
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}

func TestInsertText(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/text", map[string]string{
		"text":     "a short note about vector search and retrieval",
		"metadata": "author=jane, malformed entry",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp insertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Greater(t, resp.Chunks, 0)
	require.Equal(t, 1, resp.SkippedMetadata)

	rec = doJSON(t, server, http.MethodGet, "/v1/indices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var indices indicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &indices))
	require.Equal(t, resp.Chunks, indices.Chunks)
}

func TestInsertTextRejectsEmpty(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/text", map[string]string{"text": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInsertTextRejectsUnknownFields(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/text", map[string]string{"text": "hi", "bogus": "field"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func uploadRequest(t *testing.T, filename string, payload []byte, metadata string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(payload)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("metadata", metadata))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadTextDocument(t *testing.T) {
	server := newTestServer(t)

	req := uploadRequest(t, "notes.txt", []byte("uploaded document body"), "author=jane")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp insertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Greater(t, resp.Chunks, 0)
	require.Contains(t, resp.Message, "notes.txt")
}

func TestUploadDocx(t *testing.T) {
	server := newTestServer(t)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>docx body text</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	req := uploadRequest(t, "memo.docx", buf.Bytes(), "")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadUnsupportedFormat(t *testing.T) {
	server := newTestServer(t)

	req := uploadRequest(t, "image.png", []byte{0x89, 0x50}, "")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadCorruptPayload(t *testing.T) {
	server := newTestServer(t)

	req := uploadRequest(t, "broken.docx", []byte("not a zip"), "")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChat(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/text", map[string]string{"text": "paris is the capital of france"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/v1/chat", map[string]any{"question": "what is the capital?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "stub answer", resp.Answer)
	require.NotEmpty(t, resp.Sources)
}

func TestChatStreaming(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/chat", map[string]any{"question": "anything", "stream": true})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/x-ndjson", rec.Header().Get("Content-Type"))

	var tokens []string
	var final streamEvent
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event streamEvent
		require.NoError(t, json.Unmarshal([]byte(line), &event))
		if event.Token != "" {
			tokens = append(tokens, event.Token)
		}
		if event.Done {
			final = event
		}
	}
	require.NoError(t, scanner.Err())

	require.Equal(t, "stub answer", strings.Join(tokens, ""))
	require.True(t, final.Done)
	require.Equal(t, "stub answer", final.Answer)
	require.Empty(t, final.Error)
}

func TestChatModelOverride(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/chat", map[string]any{
		"question": "anything",
		"model":    "mistral",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "answered by mistral", resp.Answer)
}

func TestChatRejectsBlankQuestion(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/chat", map[string]any{"question": "  "})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaveLoadFlushLifecycle(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/text", map[string]string{"text": "survives the flush"})
	require.Equal(t, http.StatusOK, rec.Code)
	var inserted insertResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inserted))

	rec = doJSON(t, server, http.MethodPost, "/v1/indices/backup/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/v1/flush", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/v1/indices", nil)
	var afterFlush indicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &afterFlush))
	require.Zero(t, afterFlush.Chunks)
	require.Equal(t, []string{"backup"}, afterFlush.Indices)

	rec = doJSON(t, server, http.MethodPost, "/v1/indices/backup/load", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/v1/indices", nil)
	var afterLoad indicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &afterLoad))
	require.Equal(t, inserted.Chunks, afterLoad.Chunks)
}

func TestLoadMissingIndex(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/v1/indices/absent/load", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRootServesUI(t *testing.T) {
	server := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ragdesk")
}
