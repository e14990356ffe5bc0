package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Waribiz/waribiz-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite is a single-writer engine, and this also
	// serializes settings updates against scheduled-tick writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const accountColumns = `chat_id, page_id, page_name, access_token, token_expiry,
       theme, interval_minutes, auto_post, created_at`

// UpsertAccount inserts or updates an account row keyed by chat_id.
func (r *SQLiteRepo) UpsertAccount(ctx context.Context, a *domain.Account) error {
	if a == nil {
		return errors.New("nil account")
	}

	created := a.CreatedAt.UTC().Unix()
	if a.CreatedAt.IsZero() {
		created = time.Now().UTC().Unix()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (
			chat_id, page_id, page_name, access_token, token_expiry,
			theme, interval_minutes, auto_post, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			page_id          = excluded.page_id,
			page_name        = excluded.page_name,
			access_token     = excluded.access_token,
			token_expiry     = excluded.token_expiry,
			theme            = excluded.theme,
			interval_minutes = excluded.interval_minutes,
			auto_post        = excluded.auto_post`,
		a.ChatID, a.PageID, a.PageName, a.AccessToken, toNullInt64(a.TokenExpiry),
		a.Theme, a.IntervalMinutes, boolToInt(a.AutoPostEnabled), created,
	)
	return err
}

// GetAccount returns an account by chatID or domain.ErrUserNotFound.
func (r *SQLiteRepo) GetAccount(ctx context.Context, chatID int64) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE chat_id = ?`,
		chatID,
	)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: chat %d", domain.ErrUserNotFound, chatID)
	}
	return a, err
}

// ListAccounts returns every stored account ordered by chat_id.
func (r *SQLiteRepo) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return r.listWhere(ctx, "1=1")
}

// ListAutoEnabled returns accounts with auto-posting switched on.
func (r *SQLiteRepo) ListAutoEnabled(ctx context.Context) ([]domain.Account, error) {
	return r.listWhere(ctx, "auto_post = 1")
}

func (r *SQLiteRepo) listWhere(ctx context.Context, cond string) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE `+cond+`
		ORDER BY chat_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*domain.Account, error) {
	var (
		chatID    int64
		pageID    string
		pageName  string
		token     string
		expiryNS  sql.NullInt64
		theme     string
		interval  int
		autoInt   int
		createdAt int64
	)
	if err := s.Scan(
		&chatID, &pageID, &pageName, &token, &expiryNS,
		&theme, &interval, &autoInt, &createdAt,
	); err != nil {
		return nil, err
	}
	return &domain.Account{
		ChatID:          chatID,
		PageID:          pageID,
		PageName:        pageName,
		AccessToken:     token,
		TokenExpiry:     fromNullInt64(expiryNS),
		Theme:           theme,
		IntervalMinutes: interval,
		AutoPostEnabled: autoInt != 0,
		CreatedAt:       time.Unix(createdAt, 0).UTC(),
	}, nil
}

// SetAutoPost toggles the auto-posting flag for an account.
func (r *SQLiteRepo) SetAutoPost(ctx context.Context, chatID int64, enabled bool) error {
	return r.updateOne(ctx, chatID, `UPDATE accounts SET auto_post = ? WHERE chat_id = ?`,
		boolToInt(enabled), chatID)
}

// SetTheme updates the posting theme for an account.
func (r *SQLiteRepo) SetTheme(ctx context.Context, chatID int64, theme string) error {
	return r.updateOne(ctx, chatID, `UPDATE accounts SET theme = ? WHERE chat_id = ?`,
		theme, chatID)
}

// SetInterval updates the posting interval for an account.
func (r *SQLiteRepo) SetInterval(ctx context.Context, chatID int64, minutes int) error {
	return r.updateOne(ctx, chatID, `UPDATE accounts SET interval_minutes = ? WHERE chat_id = ?`,
		minutes, chatID)
}

// SetCredentials updates the Facebook destination and token for an account.
func (r *SQLiteRepo) SetCredentials(ctx context.Context, chatID int64, pageID, pageName, token string, expiry time.Time) error {
	return r.updateOne(ctx, chatID, `
		UPDATE accounts
		SET page_id = ?, page_name = ?, access_token = ?, token_expiry = ?
		WHERE chat_id = ?`,
		pageID, pageName, token, expiry.UTC().Unix(), chatID)
}

func (r *SQLiteRepo) updateOne(ctx context.Context, chatID int64, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: chat %d", domain.ErrUserNotFound, chatID)
	}
	return nil
}

// AppendPost records one successful publish in the append-only log.
func (r *SQLiteRepo) AppendPost(ctx context.Context, p *domain.Post) error {
	if p == nil {
		return errors.New("nil post")
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (chat_id, post_id, message, posted_at)
		VALUES (?, ?, ?, ?)`,
		p.ChatID, p.PostID, p.Message, p.PostedAt.UTC().Unix(),
	)
	return err
}

// CountPosts returns how many posts were logged for an account.
func (r *SQLiteRepo) CountPosts(ctx context.Context, chatID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE chat_id = ?`, chatID,
	).Scan(&n)
	return n, err
}
