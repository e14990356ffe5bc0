package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/domain"
)

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

func (r *Router) authURLFor(chatID int64) string {
	return r.fb.AuthURL(strconv.FormatInt(chatID, 10))
}

func (r *Router) sendConnectPrompt(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = connectKeyboard(r.authURLFor(chatID))
	_, _ = r.bot.Send(msg)
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	a, err := r.repo.GetAccount(ctx, chatID)
	if err != nil || !a.HasCredentials() {
		if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
			r.log.Error("account lookup failed", zap.Error(err))
		}
		r.sendConnectPrompt(chatID, welcomeConnectText)
		return
	}
	msg := tgbotapi.NewMessage(chatID, welcomeConnectedText)
	msg.ReplyMarkup = mainMenuKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleStatus(ctx context.Context, chatID int64) {
	a, err := r.repo.GetAccount(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			r.sendConnectPrompt(chatID, needConnectText)
			return
		}
		r.log.Error("account lookup failed", zap.Error(err))
		r.sendText(chatID, "Error reading your settings.")
		return
	}

	autoState := "Disabled"
	if a.AutoPostEnabled {
		autoState = "✅ Enabled"
	}
	expiry := "not set"
	if daysLeft, ok := a.DaysUntilExpiry(time.Now()); ok {
		expiry = fmt.Sprintf("%s (%d day(s) left)", a.TokenExpiry.Format("2006-01-02"), daysLeft)
	}
	posts, err := r.repo.CountPosts(ctx, chatID)
	if err != nil {
		r.log.Error("count posts failed", zap.Error(err))
	}

	body := fmt.Sprintf(statusFmt,
		a.PageName, a.Theme, a.IntervalMinutes, autoState, posts, expiry)
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = backKeyboard()
	_, _ = r.bot.Send(msg)
}

// --- Publish now ---

func (r *Router) handlePostNow(ctx context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	r.sendText(chatID, "🔄 Generating and publishing…")

	// Publishing blocks on two upstream APIs; keep the update loop responsive.
	go func() {
		err := r.sched.PostNow(context.Background(), chatID)
		switch {
		case err == nil:
			// Outcome already reported through the notification sink.
		case errors.Is(err, domain.ErrConfigIncomplete), errors.Is(err, domain.ErrUserNotFound):
			r.sendConnectPrompt(chatID, "❌ Configuration incomplete. Please connect Facebook.")
		case errors.Is(err, domain.ErrPublishInFlight):
			r.sendText(chatID, "⏳ A publication is already in progress. Please wait for it to finish.")
		default:
			r.log.Error("post now failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.sendText(chatID, "❌ Publish failed.")
		}
	}()
}

// --- Auto-posting control ---

func (r *Router) handleStartAuto(ctx context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	err := r.sched.Start(ctx, chatID)
	switch {
	case err == nil:
		a, gerr := r.repo.GetAccount(ctx, chatID)
		if gerr != nil {
			r.sendText(chatID, "✅ Auto-posting enabled!")
			return
		}
		r.sendText(chatID, fmt.Sprintf("✅ Auto-posting enabled!\nFrequency: every %d minutes\nTheme: %s",
			a.IntervalMinutes, a.Theme))
	case errors.Is(err, domain.ErrConfigIncomplete), errors.Is(err, domain.ErrUserNotFound):
		r.sendConnectPrompt(chatID, "❌ Configuration incomplete. Please connect Facebook.")
	default:
		r.log.Error("start auto failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "❌ Could not start auto-posting.")
	}
}

func (r *Router) handleStopAuto(ctx context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	if err := r.sched.Stop(ctx, chatID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			r.sendConnectPrompt(chatID, needConnectText)
			return
		}
		r.log.Error("stop auto failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "❌ Could not stop auto-posting.")
		return
	}
	r.sendText(chatID, "⏹️ Auto-posting disabled!")
}

// --- Settings ---

func (r *Router) handleSettings(ctx context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	msg := tgbotapi.NewMessage(chatID, "⚙️ Settings\n\nChoose what to configure:")
	msg.ReplyMarkup = settingsKeyboard(r.authURLFor(chatID))
	_, _ = r.bot.Send(msg)
}

func (r *Router) askTheme(chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	r.sendText(chatID, "🏷️ Enter the new theme for your publications:")
	r.setPending(chatID, pendingTheme)
}

func (r *Router) askInterval(chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	r.sendText(chatID, fmt.Sprintf("⏱️ Enter the new posting interval in minutes (minimum %d):", r.cfg.MinIntervalMin))
	r.setPending(chatID, pendingInterval)
}

// --- Free-form dispatcher (theme/interval entry) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch r.getPending(chatID) {
	case pendingTheme:
		if len(strings.TrimSpace(text)) < 3 {
			// keep the pending state: re-prompt, not a crash
			r.sendText(chatID, "⚠️ Theme is too short. Please enter at least 3 characters.")
			return
		}
		r.clearPending(chatID)
		if err := r.repo.SetTheme(ctx, chatID, strings.TrimSpace(text)); err != nil {
			r.log.Error("set theme failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.sendText(chatID, "Could not save theme.")
			return
		}
		r.sendText(chatID, "✅ Theme updated: "+strings.TrimSpace(text))

	case pendingInterval:
		n, err := domain.ParseInterval(text, r.cfg.MinIntervalMin)
		if err != nil {
			r.sendText(chatID, fmt.Sprintf("⚠️ Please enter a number of minutes (minimum %d).", r.cfg.MinIntervalMin))
			return
		}
		r.clearPending(chatID)
		if err := r.sched.Reschedule(ctx, chatID, n); err != nil {
			r.log.Error("reschedule failed", zap.Int64("chatID", chatID), zap.Error(err))
			r.sendText(chatID, "Could not save interval.")
			return
		}
		r.sendText(chatID, fmt.Sprintf("✅ Interval updated: %d minutes", n))

	default:
		// No pending flow: ignore free-form message
	}
}

// --- Facebook connection ---

// handleOAuthCallback processes a pasted OAuth redirect URL containing
// code= and state= query parameters.
func (r *Router) handleOAuthCallback(ctx context.Context, chatID int64, text string) {
	code := extractParam(text, "code")
	if code == "" {
		r.sendText(chatID, "❌ Invalid callback format. Please retry the authentication.")
		return
	}

	shortToken, err := r.fb.ExchangeCode(ctx, code)
	if err != nil {
		r.log.Error("code exchange failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "❌ Facebook authentication failed.")
		return
	}
	longToken, expiry, err := r.fb.ExchangeLongLived(ctx, shortToken)
	if err != nil {
		r.log.Error("long-lived exchange failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "❌ Could not obtain a long-lived token.")
		return
	}
	pages, err := r.fb.ListPages(ctx, longToken)
	if err != nil || len(pages) == 0 {
		r.log.Error("page listing failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "❌ Could not fetch your Facebook pages, or no page found.")
		return
	}

	if len(pages) == 1 {
		p := pages[0]
		r.saveConnection(ctx, chatID, pageOption{ID: p.ID, Name: p.Name, Token: p.AccessToken, Expiry: expiry.Unix()})
		return
	}

	// Several manageable pages: resolve to exactly one before saving anything.
	opts := make([]pageOption, 0, len(pages))
	for _, p := range pages {
		opts = append(opts, pageOption{ID: p.ID, Name: p.Name, Token: p.AccessToken, Expiry: expiry.Unix()})
	}
	r.setPageOptions(chatID, opts)
	msg := tgbotapi.NewMessage(chatID, "🔍 Select the Facebook page to use:")
	msg.ReplyMarkup = pagePickerKeyboard(opts)
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleSelectPage(ctx context.Context, chatID int64, pageID, cbID string) {
	_ = r.answerCallback(cbID, "")
	opt, ok := r.takePageOption(chatID, pageID)
	if !ok {
		r.sendText(chatID, "❌ Page data not found. Please retry the authentication.")
		return
	}
	r.saveConnection(ctx, chatID, opt)
}

// saveConnection creates or updates the account with the chosen page.
func (r *Router) saveConnection(ctx context.Context, chatID int64, p pageOption) {
	expiry := time.Unix(p.Expiry, 0).UTC()

	_, err := r.repo.GetAccount(ctx, chatID)
	switch {
	case err == nil:
		err = r.repo.SetCredentials(ctx, chatID, p.ID, p.Name, p.Token, expiry)
	case errors.Is(err, domain.ErrUserNotFound):
		err = r.repo.UpsertAccount(ctx, &domain.Account{
			ChatID:          chatID,
			PageID:          p.ID,
			PageName:        p.Name,
			AccessToken:     p.Token,
			TokenExpiry:     &expiry,
			Theme:           r.cfg.DefaultTheme,
			IntervalMinutes: r.cfg.DefaultIntervalMin,
			AutoPostEnabled: false,
			CreatedAt:       time.Now().UTC(),
		})
	}
	if err != nil {
		r.log.Error("save connection failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, "❌ Could not save your Facebook connection.")
		return
	}

	r.sendText(chatID, fmt.Sprintf("✅ Connected to Facebook page: %s\n\nYour configuration is ready!", p.Name))
	r.handleStart(ctx, chatID)
}

// extractParam pulls one query parameter out of a pasted redirect URL or a
// bare "code=...&state=..." fragment.
func extractParam(text, key string) string {
	if u, err := url.Parse(strings.TrimSpace(text)); err == nil {
		if v := u.Query().Get(key); v != "" {
			return v
		}
	}
	idx := strings.Index(text, key+"=")
	if idx < 0 {
		return ""
	}
	v := text[idx+len(key)+1:]
	if amp := strings.IndexAny(v, "& \n"); amp >= 0 {
		v = v[:amp]
	}
	return v
}
