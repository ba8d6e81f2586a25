package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/config"
	"github.com/xxxsen/mreply/internal/filestore"
	"github.com/xxxsen/mreply/internal/pkg/errcode"
	"github.com/xxxsen/mreply/internal/pkg/jwt"
	"github.com/xxxsen/mreply/internal/repo/memstore"
	"github.com/xxxsen/mreply/internal/service"
	"github.com/xxxsen/mreply/internal/style"
)

var testSecret = []byte("handler-secret")

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(context.Context, string, string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (fixedEmbedder) ModelName() string {
	return "fixed:v1"
}

type fakeWriter struct {
	mu  sync.Mutex
	err error
}

func (w *fakeWriter) DraftReply(_ context.Context, req ai.ReplyRequest) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	return "Sounds good, " + req.Tone, nil
}

func (w *fakeWriter) Retone(_ context.Context, reply, tone string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return "", w.err
	}
	return strings.ToUpper(reply) + " (" + tone + ")", nil
}

type apiFixture struct {
	router   *gin.Engine
	recorder *service.Recorder
	writer   *fakeWriter
	token    string
}

func newAPIFixture(t *testing.T, maxUpload int64) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	exchanges := memstore.NewExchangeStore()
	chunks := memstore.NewChunkStore()
	fingerprints := memstore.NewFingerprintStore()
	files, err := filestore.New(config.FileStoreConfig{Type: "local", Data: map[string]interface{}{"dir": t.TempDir()}})
	require.NoError(t, err)

	f := &apiFixture{writer: &fakeWriter{}}
	retrieval := service.NewRetrievalService(exchanges, chunks, fixedEmbedder{}, service.RetrievalConfig{})
	f.recorder = service.NewRecorder(exchanges, fixedEmbedder{}, service.RecorderConfig{})
	replies := service.NewReplyService(fingerprints, retrieval, f.recorder, f.writer, service.Limits{})
	styles := service.NewStyleService(exchanges, fingerprints, style.NewBuilder(style.Options{}), 0)
	knowledge := service.NewKnowledgeService(chunks, exchanges, files, fixedEmbedder{}, service.KnowledgeConfig{MaxUploadBytes: maxUpload})

	f.router = gin.New()
	RegisterRoutes(f.router.Group("/api/v1"), RouterDeps{
		Replies:   NewReplyHandler(replies),
		Exchanges: NewExchangeHandler(service.NewExchangeService(exchanges)),
		Styles:    NewStyleHandler(styles),
		Knowledge: NewKnowledgeHandler(knowledge, maxUpload),
		JWTSecret: testSecret,
	})
	f.token, err = jwt.GenerateToken("owner-1", testSecret, time.Hour)
	require.NoError(t, err)
	return f
}

type envelope struct {
	Code float64         `json:"code"`
	Msg  string          `json:"message"`
	Data json.RawMessage `json:"data"`
}

func (f *apiFixture) do(t *testing.T, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	return f.send(t, req)
}

func (f *apiFixture) send(t *testing.T, req *http.Request) envelope {
	t.Helper()
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var out envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (f *apiFixture) upload(t *testing.T, name string, content []byte) envelope {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.send(t, req)
}

func TestHealthIsPublic(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.token = ""
	out := f.do(t, http.MethodGet, "/healthz", nil)
	require.Zero(t, out.Code)
}

func TestRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t, 0)
	f.token = ""
	out := f.do(t, http.MethodPost, "/replies", map[string]string{"draft_text": "hi there friend"})
	require.Equal(t, float64(errcode.ErrUnauthorized), out.Code)
}

func TestDraftReplyAndExchangeLifecycle(t *testing.T) {
	f := newAPIFixture(t, 0)
	out := f.do(t, http.MethodPost, "/replies", map[string]string{
		"screenshot_text": "are we still on for lunch?",
		"draft_text":      "yes see you at noon",
		"tone":            "warm",
	})
	require.Zero(t, out.Code, out.Msg)
	var res struct {
		Reply          string `json:"reply"`
		ExchangeStatus string `json:"exchange_status"`
		Record         string `json:"record"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &res))
	require.Equal(t, "Sounds good, warm", res.Reply)
	require.Equal(t, "empty", res.ExchangeStatus)
	require.Equal(t, "pending", res.Record)
	require.NoError(t, f.recorder.Close(context.Background()))

	out = f.do(t, http.MethodGet, "/exchanges", nil)
	require.Zero(t, out.Code)
	var list struct {
		Items []struct {
			ID         string `json:"id"`
			DraftText  string `json:"draft_text"`
			FinalReply string `json:"final_reply"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &list))
	require.Len(t, list.Items, 1)
	id := list.Items[0].ID
	require.Equal(t, "yes see you at noon", list.Items[0].DraftText)

	out = f.do(t, http.MethodPut, "/exchanges/"+id, map[string]string{"final_reply": "  "})
	require.Equal(t, float64(errcode.ErrInvalid), out.Code)

	out = f.do(t, http.MethodPut, "/exchanges/"+id, map[string]string{"final_reply": "Yes! Noon works."})
	require.Zero(t, out.Code, out.Msg)
	require.Contains(t, string(out.Data), "Noon works")

	out = f.do(t, http.MethodDelete, "/exchanges/"+id, nil)
	require.Zero(t, out.Code)
	out = f.do(t, http.MethodGet, "/exchanges/"+id, nil)
	require.Equal(t, float64(errcode.ErrNotFound), out.Code)
}

func TestDraftReplyValidation(t *testing.T) {
	f := newAPIFixture(t, 0)
	out := f.do(t, http.MethodPost, "/replies", map[string]string{"tone": "warm"})
	require.Equal(t, float64(errcode.ErrInvalid), out.Code)
}

func TestRetoneUpstreamFailure(t *testing.T) {
	f := newAPIFixture(t, 0)
	out := f.do(t, http.MethodPost, "/replies/retone", map[string]string{"reply": "ok", "tone": "formal"})
	require.Zero(t, out.Code)
	require.JSONEq(t, `{"reply":"OK (formal)"}`, string(out.Data))

	f.writer.err = errors.New("quota")
	out = f.do(t, http.MethodPost, "/replies/retone", map[string]string{"reply": "ok", "tone": "formal"})
	require.Equal(t, float64(errcode.ErrAIUnavailable), out.Code)
}

func TestStyleAnalyzeWithoutDrafts(t *testing.T) {
	f := newAPIFixture(t, 0)
	out := f.do(t, http.MethodPost, "/style/analyze", nil)
	require.Equal(t, float64(errcode.ErrNothingToAnalyze), out.Code)

	out = f.do(t, http.MethodGet, "/style", nil)
	require.Equal(t, float64(errcode.ErrNotFound), out.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	f := newAPIFixture(t, 0)
	content := []byte("# Pricing\n\nThe basic plan is $10 a month.\n")
	out := f.upload(t, "pricing.md", content)
	require.Zero(t, out.Code, out.Msg)
	require.Contains(t, string(out.Data), `"document_name":"pricing.md"`)

	out = f.do(t, http.MethodGet, "/documents", nil)
	require.Zero(t, out.Code)
	require.Contains(t, string(out.Data), "pricing.md")

	out = f.do(t, http.MethodGet, "/documents/pricing.md/chunks", nil)
	require.Zero(t, out.Code, out.Msg)
	var chunks []struct {
		ChunkIndex int    `json:"chunk_index"`
		Content    string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &chunks))
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, "$10 a month")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/pricing.md/raw", nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, content, w.Body.Bytes())
	require.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	require.Contains(t, w.Header().Get("Content-Disposition"), "pricing.md")

	out = f.do(t, http.MethodDelete, "/documents/pricing.md", nil)
	require.Zero(t, out.Code)
	out = f.do(t, http.MethodDelete, "/documents/pricing.md", nil)
	require.Equal(t, float64(errcode.ErrNotFound), out.Code)
}

func TestDocumentUploadTooLarge(t *testing.T) {
	f := newAPIFixture(t, 16)
	out := f.upload(t, "big.txt", bytes.Repeat([]byte("a"), 64))
	require.Equal(t, float64(errcode.ErrTooLarge), out.Code)
	require.Contains(t, out.Msg, "1MB")
}

func TestDocumentUploadMissingFile(t *testing.T) {
	f := newAPIFixture(t, 0)
	out := f.do(t, http.MethodPost, "/documents", map[string]string{"name": "x"})
	require.Equal(t, float64(errcode.ErrInvalidFile), out.Code)
}

func TestPurgeKnowledge(t *testing.T) {
	f := newAPIFixture(t, 0)
	require.Zero(t, f.upload(t, "faq.txt", []byte("Refunds take five days.")).Code)
	out := f.do(t, http.MethodDelete, "/knowledge", nil)
	require.Zero(t, out.Code, out.Msg)
	require.JSONEq(t, `{"documents":1,"chunks":1,"exchanges":0}`, string(out.Data))
}

func TestFormatUploadLimit(t *testing.T) {
	require.Equal(t, "0MB", formatUploadLimit(0))
	require.Equal(t, "1MB", formatUploadLimit(10))
	require.Equal(t, "5MB", formatUploadLimit(5<<20))
}
