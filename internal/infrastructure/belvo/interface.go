package belvo

import (
	"context"
	"encoding/json"
)

// ClientInterface defines the methods required from the Belvo API client
type ClientInterface interface {
	ListAccounts(ctx context.Context) (json.RawMessage, error)
	ListTransactions(ctx context.Context, linkID string) (*TransactionPage, error)
	CreateAccessToken(ctx context.Context) (string, error)
}
