package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/mreply/internal/model"
	appErr "github.com/xxxsen/mreply/internal/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ExchangeService struct {
	exchanges ExchangeStore
	now       func() time.Time
}

func NewExchangeService(exchanges ExchangeStore) *ExchangeService {
	return &ExchangeService{exchanges: exchanges, now: time.Now}
}

func (s *ExchangeService) Get(ctx context.Context, ownerID, id string) (*model.Exchange, error) {
	return s.exchanges.GetByID(ctx, ownerID, id)
}

// List pages through an owner's exchanges, newest first. page starts at 1.
func (s *ExchangeService) List(ctx context.Context, ownerID string, page, size int) ([]model.Exchange, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return s.exchanges.ListByOwner(ctx, ownerID, uint(size), uint((page-1)*size))
}

// Finalize records what the owner actually sent. Only the final reply and
// tone change; the stored embedding stays as computed at insert.
func (s *ExchangeService) Finalize(ctx context.Context, ownerID, id, finalReply, tone string) (*model.Exchange, error) {
	finalReply = strings.TrimSpace(finalReply)
	if finalReply == "" {
		return nil, fmt.Errorf("final reply is required: %w", appErr.ErrInvalid)
	}
	if err := s.exchanges.UpdateFinalReply(ctx, ownerID, id, finalReply, strings.TrimSpace(tone), s.now().Unix()); err != nil {
		return nil, err
	}
	return s.exchanges.GetByID(ctx, ownerID, id)
}

func (s *ExchangeService) Delete(ctx context.Context, ownerID, id string) error {
	return s.exchanges.Delete(ctx, ownerID, id)
}

func (s *ExchangeService) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	return s.exchanges.DeleteByOwner(ctx, ownerID)
}
