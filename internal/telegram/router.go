package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/config"
	"github.com/Waribiz/waribiz-bot/internal/facebook"
	"github.com/Waribiz/waribiz-bot/internal/scheduler"
	"github.com/Waribiz/waribiz-bot/internal/store"
)

// Pending state keys used in conversational flows.
const (
	pendingTheme    = "await_theme_text"
	pendingInterval = "await_interval_text"
)

// pageOption holds one disambiguation candidate from the OAuth page listing.
type pageOption struct {
	ID     string
	Name   string
	Token  string
	Expiry int64 // unix seconds
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot   *tgbotapi.BotAPI
	log   *zap.Logger
	repo  store.Repo
	sched *scheduler.Scheduler
	fb    *facebook.Client
	cfg   config.Config

	mu      sync.RWMutex
	state   map[int64]string       // chatID -> pending input state
	pageOpt map[int64][]pageOption // chatID -> pages awaiting selection
}

// NewRouter creates a new Telegram router. The scheduler is attached
// afterwards: it needs the router as its notification sink, so the two are
// wired in two steps.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, fb *facebook.Client, cfg config.Config) *Router {
	return &Router{
		bot:     bot,
		log:     log,
		repo:    repo,
		fb:      fb,
		cfg:     cfg,
		state:   make(map[int64]string),
		pageOpt: make(map[int64][]pageOption),
	}
}

// AttachScheduler must be called before the first update is handled.
func (r *Router) AttachScheduler(s *scheduler.Scheduler) {
	r.sched = s
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

func (r *Router) setPageOptions(chatID int64, pages []pageOption) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pageOpt[chatID] = pages
}

func (r *Router) takePageOption(chatID int64, pageID string) (pageOption, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pageOpt[chatID] {
		if p.ID == pageID {
			delete(r.pageOpt, chatID)
			return p, true
		}
	}
	return pageOption{}, false
}

// HandleUpdate routes a single update to the appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/status"):
			r.handleStatus(ctx, chatID)
		case strings.HasPrefix(text, "/help"):
			r.sendText(chatID, helpText)
		case strings.Contains(text, "code="):
			// Pasted OAuth redirect; the real callback endpoint is out of scope.
			r.handleOAuthCallback(ctx, chatID, text)
		default:
			// Free-form text used by the theme/interval entry flows
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		data := cb.Data
		chatID := cb.Message.Chat.ID

		switch {
		case data == "status":
			_ = r.answerCallback(cb.ID, "")
			r.handleStatus(ctx, chatID)
		case data == "post_now":
			r.handlePostNow(ctx, chatID, cb.ID)
		case data == "start_auto":
			r.handleStartAuto(ctx, chatID, cb.ID)
		case data == "stop_auto":
			r.handleStopAuto(ctx, chatID, cb.ID)
		case data == "settings":
			r.handleSettings(ctx, chatID, cb.ID)
		case data == "change_theme":
			r.askTheme(chatID, cb.ID)
		case data == "change_interval":
			r.askInterval(chatID, cb.ID)
		case strings.HasPrefix(data, "select_page:"):
			r.handleSelectPage(ctx, chatID, strings.TrimPrefix(data, "select_page:"), cb.ID)
		case data == "back_to_menu":
			_ = r.answerCallback(cb.ID, "")
			r.handleStart(ctx, chatID)
		default:
			// Unknown callback — ignore silently
		}
		return
	}
}

// SendMessage sends a plain text message to the given chat.
// This makes Router satisfy scheduler.Sink and half of expiry.Notifier.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendReconnect sends a text with a reconnect URL button, for expiry alerts.
func (r *Router) SendReconnect(chatID int64, text, authURL string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🔄 Reconnect Facebook", authURL),
		),
	)
	_, err := r.bot.Send(msg)
	return err
}
