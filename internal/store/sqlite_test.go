package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Waribiz/waribiz-bot/internal/domain"
)

func openTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	repo, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func testAccount(chatID int64) *domain.Account {
	expiry := time.Date(2026, time.October, 29, 0, 0, 0, 0, time.UTC)
	return &domain.Account{
		ChatID:          chatID,
		PageID:          "1234567890",
		PageName:        "Demo Page",
		AccessToken:     "EAAB-token",
		TokenExpiry:     &expiry,
		Theme:           "promo du bot MATCH_PREDICTION_AI",
		IntervalMinutes: 60,
		AutoPostEnabled: false,
		CreatedAt:       time.Date(2026, time.August, 30, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpsertGetRoundtrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	want := testAccount(1)
	require.NoError(t, repo.UpsertAccount(ctx, want))

	got, err := repo.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, want.ChatID, got.ChatID)
	assert.Equal(t, want.PageID, got.PageID)
	assert.Equal(t, want.PageName, got.PageName)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	require.NotNil(t, got.TokenExpiry)
	assert.True(t, want.TokenExpiry.Equal(*got.TokenExpiry))
	assert.Equal(t, want.Theme, got.Theme)
	assert.Equal(t, want.IntervalMinutes, got.IntervalMinutes)
	assert.False(t, got.AutoPostEnabled)
}

func TestUpsert_UpdatesExisting(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	a := testAccount(1)
	require.NoError(t, repo.UpsertAccount(ctx, a))

	a.Theme = "summer deals"
	a.IntervalMinutes = 90
	require.NoError(t, repo.UpsertAccount(ctx, a))

	got, err := repo.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "summer deals", got.Theme)
	assert.Equal(t, 90, got.IntervalMinutes)
}

func TestGetAccount_NotFound(t *testing.T) {
	repo := openTestRepo(t)
	_, err := repo.GetAccount(context.Background(), 404)
	require.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestListAutoEnabled(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for chatID := int64(1); chatID <= 3; chatID++ {
		a := testAccount(chatID)
		a.AutoPostEnabled = chatID != 2
		require.NoError(t, repo.UpsertAccount(ctx, a))
	}

	enabled, err := repo.ListAutoEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, int64(1), enabled[0].ChatID)
	assert.Equal(t, int64(3), enabled[1].ChatID)

	all, err := repo.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFieldUpdates(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.UpsertAccount(ctx, testAccount(1)))

	require.NoError(t, repo.SetAutoPost(ctx, 1, true))
	require.NoError(t, repo.SetTheme(ctx, 1, "new theme"))
	require.NoError(t, repo.SetInterval(ctx, 1, 120))

	newExpiry := time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetCredentials(ctx, 1, "999", "New Page", "new-token", newExpiry))

	got, err := repo.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.AutoPostEnabled)
	assert.Equal(t, "new theme", got.Theme)
	assert.Equal(t, 120, got.IntervalMinutes)
	assert.Equal(t, "999", got.PageID)
	assert.Equal(t, "New Page", got.PageName)
	assert.Equal(t, "new-token", got.AccessToken)
	require.NotNil(t, got.TokenExpiry)
	assert.True(t, newExpiry.Equal(*got.TokenExpiry))
}

func TestFieldUpdates_UnknownUser(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	require.ErrorIs(t, repo.SetAutoPost(ctx, 404, true), domain.ErrUserNotFound)
	require.ErrorIs(t, repo.SetTheme(ctx, 404, "x"), domain.ErrUserNotFound)
	require.ErrorIs(t, repo.SetInterval(ctx, 404, 60), domain.ErrUserNotFound)
}

func TestPostLog(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	n, err := repo.CountPosts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.AppendPost(ctx, &domain.Post{
			ChatID:   1,
			PostID:   "123",
			Message:  "🔥 Free winter sale! Join now",
			PostedAt: time.Now().UTC(),
		}))
	}
	require.NoError(t, repo.AppendPost(ctx, &domain.Post{
		ChatID:   2,
		PostID:   "456",
		Message:  "other user",
		PostedAt: time.Now().UTC(),
	}))

	n, err = repo.CountPosts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestExpiryNullable(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	a := testAccount(1)
	a.TokenExpiry = nil
	require.NoError(t, repo.UpsertAccount(ctx, a))

	got, err := repo.GetAccount(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got.TokenExpiry)
}
