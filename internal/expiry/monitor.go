// Package expiry watches stored page tokens and warns users before they lapse.
package expiry

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/domain"
	"github.com/Waribiz/waribiz-bot/internal/metrics"
	"github.com/Waribiz/waribiz-bot/internal/store"
)

// warnWindowDays: tokens expiring today through two days out trigger alerts.
const warnWindowDays = 2

// Notifier delivers alerts. telegram.Router implements this.
type Notifier interface {
	SendMessage(chatID int64, text string) error
	// SendReconnect sends a text with a "reconnect" URL button attached.
	SendReconnect(chatID int64, text, authURL string) error
}

// AuthURLBuilder produces the OAuth dialog URL for a user.
type AuthURLBuilder interface {
	AuthURL(state string) string
}

// Monitor scans all accounts once per day at a fixed wall-clock hour.
type Monitor struct {
	repo        store.Repo
	log         *zap.Logger
	notifier    Notifier
	auth        AuthURLBuilder
	adminChatID int64 // 0 disables admin alerts
	checkHour   int
}

func New(repo store.Repo, log *zap.Logger, notifier Notifier, auth AuthURLBuilder, adminChatID int64, checkHour int) *Monitor {
	return &Monitor{
		repo:        repo,
		log:         log,
		notifier:    notifier,
		auth:        auth,
		adminChatID: adminChatID,
		checkHour:   checkHour,
	}
}

// Run blocks until ctx is cancelled, scanning once per day at the check hour.
func (m *Monitor) Run(ctx context.Context) {
	for {
		next := nextRunAfter(time.Now(), m.checkHour)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			m.log.Info("expiry monitor stopping")
			return
		case <-timer.C:
			m.CheckOnce(ctx, time.Now())
		}
	}
}

// nextRunAfter returns the next occurrence of checkHour:00 strictly after now.
func nextRunAfter(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// CheckOnce scans every account and alerts on tokens expiring within the warn
// window. One account's failure never stops the scan; the monitor mutates
// nothing.
func (m *Monitor) CheckOnce(ctx context.Context, now time.Time) {
	accounts, err := m.repo.ListAccounts(ctx)
	if err != nil {
		m.log.Error("expiry scan failed", zap.Error(err))
		return
	}

	for i := range accounts {
		a := &accounts[i]
		daysLeft, ok := a.DaysUntilExpiry(now)
		if !ok || daysLeft < 0 || daysLeft > warnWindowDays {
			continue
		}
		if err := m.alert(a, daysLeft); err != nil {
			m.log.Error("expiry alert failed", zap.Int64("chatID", a.ChatID), zap.Error(err))
			continue
		}
		metrics.ExpiryAlerts.Inc()
		m.log.Info("expiry alert sent", zap.Int64("chatID", a.ChatID), zap.Int("daysLeft", daysLeft))
	}
}

func (m *Monitor) alert(a *domain.Account, daysLeft int) error {
	if m.adminChatID != 0 {
		adminText := fmt.Sprintf("⚠️ ALERT: Facebook token for user %d (page: %s) expires in %d day(s).",
			a.ChatID, a.PageName, daysLeft)
		if err := m.notifier.SendMessage(m.adminChatID, adminText); err != nil {
			m.log.Error("admin expiry alert failed", zap.Int64("chatID", a.ChatID), zap.Error(err))
		}
	}

	userText := fmt.Sprintf("⚠️ Your Facebook access expires in %d day(s). Please reconnect to keep posting.", daysLeft)
	authURL := m.auth.AuthURL(strconv.FormatInt(a.ChatID, 10))
	return m.notifier.SendReconnect(a.ChatID, userText, authURL)
}
