package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/mreply/internal/ai"
	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

// RecordState describes what happened to the exchange of a draft.
type RecordState string

const (
	RecordPending RecordState = "pending"
	RecordSkipped RecordState = "skipped"
	RecordNone    RecordState = "none"
)

type ReplyRequest struct {
	ScreenshotText string `json:"screenshot_text"`
	DraftText      string `json:"draft_text"`
	Tone           string `json:"tone,omitempty"`
	// Previous is set on regenerate. Its matches are reused and the
	// exchange is not recorded again.
	Previous *model.AssembledContext `json:"previous,omitempty"`
}

type ReplyResult struct {
	Reply          string                  `json:"reply"`
	Context        *model.AssembledContext `json:"context"`
	ExchangeStatus BranchStatus            `json:"exchange_status"`
	DocumentStatus BranchStatus            `json:"document_status"`
	Record         RecordState             `json:"record"`
	Pending        *PendingRecord          `json:"-"`
}

type ReplyService struct {
	fingerprints FingerprintStore
	retrieval    *RetrievalService
	recorder     *Recorder
	writer       ReplyWriter
	limits       Limits
}

func NewReplyService(fingerprints FingerprintStore, retrieval *RetrievalService, recorder *Recorder, writer ReplyWriter, limits Limits) *ReplyService {
	return &ReplyService{fingerprints: fingerprints, retrieval: retrieval, recorder: recorder, writer: writer, limits: limits.withDefaults()}
}

func (s *ReplyService) Draft(ctx context.Context, ownerID string, req ReplyRequest) (*ReplyResult, error) {
	if strings.TrimSpace(req.ScreenshotText) == "" && strings.TrimSpace(req.DraftText) == "" {
		return nil, fmt.Errorf("screenshot text or draft is required: %w", appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("owner_id", ownerID))

	fp, err := s.fingerprints.Get(ctx, ownerID)
	if err != nil {
		if !appErr.IsNotFound(err) {
			logger.Warn("load fingerprint failed, drafting without style", zap.Error(err))
		}
		fp = nil
	}

	regenerate := req.Previous != nil
	var found *RetrievalResult
	if regenerate {
		found = s.retrieval.Reuse(req.Previous)
	} else {
		found = s.retrieval.Retrieve(ctx, RetrievalRequest{
			OwnerID:        ownerID,
			ScreenshotText: req.ScreenshotText,
			DraftText:      req.DraftText,
			ExchangeLimit:  s.limits.Exchanges,
			DocumentLimit:  s.limits.Documents,
		})
	}
	assembled := Assemble(fp, found.Exchanges, found.Documents, s.limits)

	reply, err := s.writer.DraftReply(ctx, ai.ReplyRequest{
		Context:        assembled,
		ScreenshotText: req.ScreenshotText,
		DraftText:      req.DraftText,
		Tone:           req.Tone,
	})
	if err != nil {
		return nil, fmt.Errorf("generate reply: %w: %w", appErr.ErrUpstreamUnavailable, err)
	}

	res := &ReplyResult{
		Reply:          reply,
		Context:        assembled,
		ExchangeStatus: found.ExchangeStatus,
		DocumentStatus: found.DocumentStatus,
		Record:         RecordNone,
	}
	if !regenerate {
		res.Pending = s.recorder.Record(ctx, CompletedExchange{
			OwnerID:        ownerID,
			ScreenshotText: req.ScreenshotText,
			DraftText:      req.DraftText,
			GeneratedReply: reply,
			Tone:           req.Tone,
			Embedding:      found.QueryEmbedding,
		})
		res.Record = RecordPending
		if res.Pending.Skipped() {
			res.Record = RecordSkipped
		}
	}
	return res, nil
}

func (s *ReplyService) Retone(ctx context.Context, reply, tone string) (string, error) {
	reply, tone = strings.TrimSpace(reply), strings.TrimSpace(tone)
	if reply == "" || tone == "" {
		return "", fmt.Errorf("reply and tone are required: %w", appErr.ErrInvalid)
	}
	out, err := s.writer.Retone(ctx, reply, tone)
	if err != nil {
		return "", fmt.Errorf("retone reply: %w: %w", appErr.ErrUpstreamUnavailable, err)
	}
	return out, nil
}
