package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Waribiz/waribiz-bot/internal/config"
	"github.com/Waribiz/waribiz-bot/internal/expiry"
	"github.com/Waribiz/waribiz-bot/internal/facebook"
	"github.com/Waribiz/waribiz-bot/internal/generator"
	"github.com/Waribiz/waribiz-bot/internal/images"
	"github.com/Waribiz/waribiz-bot/internal/scheduler"
	"github.com/Waribiz/waribiz-bot/internal/store"
	"github.com/Waribiz/waribiz-bot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
	monitor *expiry.Monitor
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting waribiz-bot", zap.String("http", a.cfg.HTTPAddr))

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	fb := facebook.New(a.cfg.FacebookAppID, a.cfg.FacebookAppSecret, a.cfg.RedirectURI, a.log)
	gen := generator.New(a.cfg.OpenAIKey, a.cfg.OpenAIModel, a.cfg.BotLink, a.log)
	imgs := images.NewSource(a.cfg.ImagesDir)

	a.router = telegram.NewRouter(a.bot, a.log, a.repo, fb, a.cfg)
	a.sched = scheduler.New(a.repo, a.log, gen, fb, imgs, a.router, a.cfg.MinIntervalMin)
	a.router.AttachScheduler(a.sched)
	a.monitor = expiry.New(a.repo, a.log, a.router, fb, a.cfg.AdminChatID, a.cfg.TokenCheckHour)

	// Reconcile in-memory timers with persisted intent after a restart.
	if err := a.sched.RestoreAll(ctx); err != nil {
		a.log.Error("restore auto-post timers failed", zap.Error(err))
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go a.monitor.Run(ctx)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			a.sched.Shutdown()
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
