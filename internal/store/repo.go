package store

import (
	"context"
	"time"

	"github.com/Waribiz/waribiz-bot/internal/domain"
)

// Repo defines storage operations for accounts and the publish log.
type Repo interface {
	UpsertAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, chatID int64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListAutoEnabled(ctx context.Context) ([]domain.Account, error)
	SetAutoPost(ctx context.Context, chatID int64, enabled bool) error
	SetTheme(ctx context.Context, chatID int64, theme string) error
	SetInterval(ctx context.Context, chatID int64, minutes int) error
	SetCredentials(ctx context.Context, chatID int64, pageID, pageName, token string, expiry time.Time) error
	AppendPost(ctx context.Context, p *domain.Post) error
	CountPosts(ctx context.Context, chatID int64) (int, error)
	Close() error
}
