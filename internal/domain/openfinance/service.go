package openfinance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ofclient "finlink/internal/infrastructure/belvo"
	"finlink/internal/shared/apperr"
)

// Service is the aggregator gateway. Calls use service-level credentials
// only; the caller's identity is checked upstream by the auth middleware.
type Service struct {
	client ofclient.ClientInterface
}

func NewService(client ofclient.ClientInterface) *Service {
	return &Service{client: client}
}

// Institutions returns the aggregator's accounts listing verbatim.
func (s *Service) Institutions(ctx context.Context) (json.RawMessage, error) {
	return s.client.ListAccounts(ctx)
}

// Balance fetches the transactions of linkID and summarizes them.
func (s *Service) Balance(ctx context.Context, linkID string) (*Balance, error) {
	linkID = strings.TrimSpace(linkID)
	if linkID == "" {
		return nil, fmt.Errorf("%w: link_id is required", apperr.ErrInvalidInput)
	}

	page, err := s.client.ListTransactions(ctx, linkID)
	if err != nil {
		return nil, err
	}

	balance := Summarize(page.Results)
	return &balance, nil
}

// AccessToken mints a service-level widget token.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	return s.client.CreateAccessToken(ctx)
}
