package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mreply/internal/model"
	"github.com/xxxsen/mreply/internal/pkg/errcode"
	"github.com/xxxsen/mreply/internal/pkg/response"
	"github.com/xxxsen/mreply/internal/service"
)

// multipartOverhead leaves room for boundaries and form fields on top of
// the file itself.
const multipartOverhead = 1 << 20

type KnowledgeHandler struct {
	knowledge      *service.KnowledgeService
	maxUploadBytes int64
}

func NewKnowledgeHandler(knowledge *service.KnowledgeService, maxUploadBytes int64) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge, maxUploadBytes: maxUploadBytes}
}

func (h *KnowledgeHandler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, errcode.ErrTooLarge, "file exceeds "+formatUploadLimit(h.maxUploadBytes))
			return
		}
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUploadBytes > 0 && header.Size > h.maxUploadBytes {
		response.Error(c, errcode.ErrTooLarge, "file exceeds "+formatUploadLimit(h.maxUploadBytes))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "unable to read file")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "unable to read file")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = header.Filename
	}
	summary, err := h.knowledge.Ingest(c.Request.Context(), getOwnerID(c), service.IngestRequest{
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *KnowledgeHandler) List(c *gin.Context) {
	docs, err := h.knowledge.ListDocuments(c.Request.Context(), getOwnerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	if docs == nil {
		docs = []model.DocumentSummary{}
	}
	response.Success(c, docs)
}

func (h *KnowledgeHandler) Chunks(c *gin.Context) {
	chunks, err := h.knowledge.ListChunks(c.Request.Context(), getOwnerID(c), c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chunks)
}

func (h *KnowledgeHandler) Raw(c *gin.Context) {
	name := c.Param("name")
	reader, err := h.knowledge.OpenDocument(c.Request.Context(), getOwnerID(c), name)
	if err != nil {
		handleError(c, err)
		return
	}
	defer reader.Close()

	contentType := "text/plain; charset=utf-8"
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		contentType = "text/markdown; charset=utf-8"
	}
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	c.Header("Cache-Control", "private, no-store")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		logutil.GetLogger(c.Request.Context()).Error("stream document failed",
			zap.String("document", name), zap.Error(err))
	}
}

func (h *KnowledgeHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := h.knowledge.DeleteDocument(c.Request.Context(), getOwnerID(c), name); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_name": name})
}

func (h *KnowledgeHandler) Purge(c *gin.Context) {
	result, err := h.knowledge.Purge(c.Request.Context(), getOwnerID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func formatUploadLimit(bytes int64) string {
	const mb = 1024 * 1024
	if bytes <= 0 {
		return "0MB"
	}
	value := bytes / mb
	if value <= 0 {
		value = 1
	}
	return strconv.FormatInt(value, 10) + "MB"
}
